package main

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	v1 "github.com/SanjoDeundiak/remote-peapods/api/v1"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/spawn"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/spawn/spawntest"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func shellConfig(script string) Config {
	cfg := ConfigFromEnv()
	// The pea tokens become the positional parameters of script.
	cfg.PeaCommand = []string{"sh", "-c", script, "pea"}
	cfg.StopGrace = 100 * time.Millisecond
	return cfg
}

func openStream(t *testing.T, svc *SpawnServiceServer, ctx context.Context, body v1.SpawnBody) v1.SpawnService_SpawnClient {
	t.Helper()
	conn, err := spawntest.Serve(t, svc)("agent")
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	stream, err := v1.NewSpawnServiceClient(conn).Spawn(ctx, &v1.SpawnRequest{Body: body})
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	return stream
}

func waitGauge(t *testing.T, svc *SpawnServiceServer, want float64) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if testutil.ToFloat64(svc.metrics.running) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("running peas gauge is %v, want %v", testutil.ToFloat64(svc.metrics.running), want)
}

func TestSpawn_PodEchoAndRelay(t *testing.T) {
	svc := newTestServer(t, shellConfig(`echo "up $2"`))
	stream := openStream(t, svc, context.Background(), &v1.SpawnBody_Pod{Pod: spawn.EncodeSingle(podArgs(2))})

	first, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv failed: %v", err)
	}
	if first.GetTime() == nil {
		t.Fatalf("first response has no time")
	}
	g, err := spawn.DecodeBody(first.GetBody())
	if err != nil {
		t.Fatalf("first response does not carry the pod: %v", err)
	}
	if len(g.All()) != 4 {
		t.Fatalf("expected 4 sub-processes, got %d", len(g.All()))
	}

	var records []string
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Recv failed: %v", err)
		}
		if resp.GetBody() != nil {
			t.Fatalf("only the first response carries a body")
		}
		records = append(records, resp.GetLogRecord())
	}
	sort.Strings(records)
	want := []string{"enc-0: up enc-0", "enc-1: up enc-1", "enc-head: up enc-head", "enc-tail: up enc-tail"}
	if strings.Join(records, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected records %q", records)
	}

	waitGauge(t, svc, 0)
	if n := testutil.ToFloat64(svc.metrics.requests.WithLabelValues("pod")); n != 1 {
		t.Fatalf("expected one pod request counted, got %v", n)
	}
	if n := testutil.ToFloat64(svc.metrics.relayed); n != 4 {
		t.Fatalf("expected 4 relayed records, got %v", n)
	}
}

func TestSpawn_CancelStopsPeas(t *testing.T) {
	svc := newTestServer(t, shellConfig(`echo up; exec sleep 30`))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream := openStream(t, svc, ctx, &v1.SpawnBody_Pea{Pea: spawn.EncodeSingle(podArgs(1))})

	for i := 0; i < 2; i++ {
		if _, err := stream.Recv(); err != nil {
			t.Fatalf("Recv %d failed: %v", i, err)
		}
	}
	waitGauge(t, svc, 1)
	if line := svc.statusLine(); line != "1 peas running: enc" {
		t.Fatalf("unexpected status %q", line)
	}

	cancel()
	waitGauge(t, svc, 0)
	if line := svc.statusLine(); line != "0 peas running" {
		t.Fatalf("unexpected status %q", line)
	}
}

func TestControl_TerminateEndsStream(t *testing.T) {
	svc := newTestServer(t, shellConfig(`echo up; exec sleep 30`))
	stream := openStream(t, svc, context.Background(), &v1.SpawnBody_Pea{Pea: spawn.EncodeSingle(podArgs(1))})
	for i := 0; i < 2; i++ {
		if _, err := stream.Recv(); err != nil {
			t.Fatalf("Recv %d failed: %v", i, err)
		}
	}

	msg, err := svc.control(context.Background(), v1.ControlCommand_CONTROL_COMMAND_TERMINATE)
	if err != nil || msg != "stopped 1 peas" {
		t.Fatalf("unexpected terminate reply %q, %v", msg, err)
	}
	if _, err := stream.Recv(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected end of stream, got %v", err)
	}
	if _, err := svc.control(context.Background(), v1.ControlCommand_CONTROL_COMMAND_UNSPECIFIED); err == nil {
		t.Fatalf("expected unsupported command error")
	}
}

func TestSpawn_StartFailure(t *testing.T) {
	cfg := ConfigFromEnv()
	cfg.PeaCommand = []string{"/nonexistent/prn-pea"}
	svc := newTestServer(t, cfg)
	stream := openStream(t, svc, context.Background(), &v1.SpawnBody_Pod{Pod: spawn.EncodeSingle(podArgs(2))})

	if _, err := stream.Recv(); err == nil || errors.Is(err, io.EOF) {
		t.Fatalf("expected start error, got %v", err)
	}
	if n := testutil.ToFloat64(svc.metrics.failures); n != 1 {
		t.Fatalf("expected one failure, got %v", n)
	}
	waitGauge(t, svc, 0)
}
