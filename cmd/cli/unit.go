package main

import (
	"context"
	"fmt"
	"io"

	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/args"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/spawn"
)

// remoteUnit is what the pea, pod and flow commands drive.
type remoteUnit interface {
	Name() string
	Start(ctx context.Context) error
	WaitReady(ctx context.Context) error
	Done() <-chan struct{}
	Wait() error
	Close() error
	CtrlAddresses() []args.ControlAddress
	TerminateResults() []spawn.TerminateResult
}

// runUnit starts u, reports its control addresses once ready and closes it
// when ctx ends or the remote side finishes.
func runUnit(ctx context.Context, out io.Writer, u remoteUnit) error {
	if err := u.Start(ctx); err != nil {
		return err
	}
	if err := u.WaitReady(ctx); err != nil {
		_ = u.Close()
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("%s did not become ready: %w", u.Name(), err)
	}
	fmt.Fprintf(out, "%s ready\n", u.Name())
	printAddresses(out, u.CtrlAddresses())

	select {
	case <-ctx.Done():
	case <-u.Done():
	}
	closeErr := u.Close()
	_ = u.Wait()
	if results := u.TerminateResults(); len(results) > 0 {
		printTerminateResults(out, results)
	}
	return closeErr
}
