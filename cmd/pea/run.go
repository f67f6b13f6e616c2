package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	v1 "github.com/SanjoDeundiak/remote-peapods/api/v1"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/args"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/control"
)

// run serves the control endpoint of a until TERMINATE, a signal or ctx
// ends it. Readiness is announced on out once the endpoint is bound.
func run(ctx context.Context, a *args.ProcessArgs, out io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, terminate := context.WithCancelCause(ctx)
	defer terminate(nil)

	addr := args.CtrlAddress(a)
	if !addr.IPC && a.PortCtrl == 0 {
		return errors.New("pea needs --port-ctrl or --ctrl-with-ipc")
	}
	started := time.Now()

	srv, err := control.Listen(addr, func(_ context.Context, cmd v1.ControlCommand) (string, error) {
		switch cmd {
		case v1.ControlCommand_CONTROL_COMMAND_TERMINATE:
			terminate(errTerminated)
			return "terminating " + a.DisplayName(), nil
		case v1.ControlCommand_CONTROL_COMMAND_STATUS:
			return fmt.Sprintf("%s (%s) up %s", a.DisplayName(), a.Role, time.Since(started).Round(time.Second)), nil
		default:
			return "", fmt.Errorf("unsupported command %s", cmd)
		}
	})
	if err != nil {
		return fmt.Errorf("control endpoint %s: %w", addr, err)
	}
	served := make(chan error, 1)
	go func() { served <- srv.Serve() }()

	logger.Debug().Str("uses", a.Uses).Str("identity", a.Identity).Msg("pea configured")
	fmt.Fprintf(out, "%s ready, control at %s\n", a.DisplayName(), addr)

	select {
	case err := <-served:
		return err
	case <-ctx.Done():
	}
	srv.Stop()
	<-served

	if errors.Is(context.Cause(ctx), errTerminated) {
		fmt.Fprintf(out, "%s terminated\n", a.DisplayName())
	} else {
		fmt.Fprintf(out, "%s interrupted\n", a.DisplayName())
	}
	return nil
}

var errTerminated = errors.New("terminate command received")
