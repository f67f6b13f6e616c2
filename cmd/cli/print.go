package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/args"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/spawn"
)

func printTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}

	parts := make([]string, len(widths))
	for i, width := range widths {
		parts[i] = strings.Repeat("-", width)
	}
	sep := "+-" + strings.Join(parts, "-+-") + "-+\n"

	line := func(cells []string) {
		padded := make([]string, len(widths))
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			padded[i] = pad(cell, widths[i])
		}
		fmt.Fprintf(w, "| %s |\n", strings.Join(padded, " | "))
	}

	fmt.Fprint(w, sep)
	line(headers)
	fmt.Fprint(w, sep)
	for _, row := range rows {
		line(row)
	}
	fmt.Fprint(w, sep)
}

func printAddresses(w io.Writer, addrs []args.ControlAddress) {
	if len(addrs) == 0 {
		return
	}
	rows := make([][]string, len(addrs))
	for i, a := range addrs {
		rows[i] = []string{a.String()}
	}
	printTable(w, []string{"CONTROL ADDRESS"}, rows)
}

func printTerminateResults(w io.Writer, results []spawn.TerminateResult) {
	rows := make([][]string, len(results))
	for i, r := range results {
		state, detail := "terminated", ""
		if r.Err != nil {
			state, detail = "failed", r.Err.Error()
		}
		rows[i] = []string{r.Addr.String(), state, detail}
	}
	printTable(w, []string{"ADDRESS", "RESULT", "DETAIL"}, rows)
}

func pad(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}
