//go:build linux

package runner

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
)

const cgroupRoot = "/sys/fs/cgroup/prnd"

var (
	delegateOnce sync.Once
	delegateErr  error
)

type cgroupSetting struct {
	controller string
	file       string
	value      string
}

func (l Limits) settings() []cgroupSetting {
	var s []cgroupSetting
	if l.CPUWeight > 0 {
		s = append(s, cgroupSetting{"cpu", "cpu.weight", strconv.Itoa(l.CPUWeight)})
	}
	if l.IOWeight > 0 {
		s = append(s, cgroupSetting{"io", "io.weight", strconv.Itoa(l.IOWeight)})
	}
	if l.MemoryHigh > 0 {
		s = append(s, cgroupSetting{"memory", "memory.high", strconv.FormatInt(l.MemoryHigh, 10)})
	}
	return s
}

// delegate creates the agent's cgroup and turns on the controllers its
// children need.
func delegate() error {
	delegateOnce.Do(func() {
		if err := os.MkdirAll(cgroupRoot, 0o755); err != nil {
			delegateErr = err
			return
		}
		available, err := controllers(filepath.Join(cgroupRoot, "cgroup.controllers"))
		if err != nil {
			delegateErr = err
			return
		}
		enabled, err := controllers(filepath.Join(cgroupRoot, "cgroup.subtree_control"))
		if err != nil {
			delegateErr = err
			return
		}
		var add []string
		for _, c := range []string{"cpu", "io", "memory"} {
			if available[c] && !enabled[c] {
				add = append(add, "+"+c)
			}
		}
		if len(add) > 0 {
			delegateErr = writeControl(filepath.Join(cgroupRoot, "cgroup.subtree_control"), strings.Join(add, " "))
		}
	})
	return delegateErr
}

func controllers(path string) (map[string]bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool)
	for _, f := range strings.Fields(string(data)) {
		set[strings.TrimPrefix(f, "+")] = true
	}
	return set, nil
}

// procAttr puts the pea in its own process group and, as root, starts it
// directly inside a fresh cgroup carrying the runner's limits.
func (runner *Runner) procAttr(id string) (*SysProcAttr, error) {
	if os.Geteuid() != 0 {
		return &SysProcAttr{Raw: &syscall.SysProcAttr{Setpgid: true}}, nil
	}
	if err := delegate(); err != nil {
		logger.Warn().Err(err).Msg("cgroups unavailable")
	}

	dir := filepath.Join(cgroupRoot, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	enabled, _ := controllers(filepath.Join(cgroupRoot, "cgroup.subtree_control"))
	for _, s := range runner.limits.settings() {
		if !enabled[s.controller] {
			continue
		}
		if err := writeControl(filepath.Join(dir, s.file), s.value); err != nil {
			_ = os.Remove(dir)
			return nil, err
		}
	}

	f, err := os.Open(dir)
	if err != nil {
		_ = os.Remove(dir)
		return nil, err
	}
	return &SysProcAttr{
		File: f,
		Raw: &syscall.SysProcAttr{
			Setpgid:     true,
			UseCgroupFD: true,
			CgroupFD:    int(f.Fd()),
		},
	}, nil
}

// killCgroup kills every process in the cgroup of id. It reports
// errNoCgroup when the process was not placed in one.
func killCgroup(id string) error {
	dir := filepath.Join(cgroupRoot, id)
	if _, err := os.Stat(dir); err != nil {
		return errNoCgroup
	}
	return writeControl(filepath.Join(dir, "cgroup.kill"), "1")
}

func removeCgroup(id string) {
	_ = os.Remove(filepath.Join(cgroupRoot, id))
}

func writeControl(path, val string) error {
	return os.WriteFile(path, []byte(val), 0o644)
}
