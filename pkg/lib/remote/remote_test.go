package remote

import (
	"context"
	"errors"
	"testing"
	"time"

	v1 "github.com/SanjoDeundiak/remote-peapods/api/v1"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/args"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/pea"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/spawn"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/spawn/spawntest"
)

const remoteHost = "10.0.0.5"

func entry(name string, role args.Role, host string, port int) *args.ProcessArgs {
	a := args.Defaults()
	a.Name = name
	a.Role = role
	a.Host = host
	a.PortCtrl = port
	return a
}

func startAndWait(t *testing.T, r *pea.Runtime) {
	t.Helper()
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.WaitReady(ctx); err != nil {
		t.Fatalf("WaitReady failed: %v", err)
	}
}

func TestPod_RegistersEchoedAddresses(t *testing.T) {
	// The agent reports the expanded pod with its own bind address.
	expanded := args.ParsedPodArgs{
		Head: entry("pod/head", args.RoleHead, args.DefaultHost, 7000),
		Tail: entry("pod/tail", args.RoleTail, args.DefaultHost, 7001),
		Peas: []*args.ProcessArgs{
			entry("pod/0", args.RolePea, args.DefaultHost, 7002),
			entry("pod/1", args.RolePea, args.DefaultHost, 7003),
		},
	}
	agent := spawntest.NewAgent()
	agent.Block = true
	agent.Respond = func(req *v1.SpawnRequest) []*v1.SpawnResponse {
		if req.GetPod() == nil {
			t.Errorf("expected a pod request, got %v", req.GetBody())
		}
		return []*v1.SpawnResponse{
			{LogRecord: "pod started", Body: spawn.EncodeGroup(expanded).Body},
			{LogRecord: "pod/0 running"},
		}
	}
	sender := &spawntest.Sender{}

	a := entry("pod", args.RolePea, remoteHost, 0)
	a.Parallel = 2
	p, err := NewPod(a, spawn.WithDialer(spawntest.Serve(t, agent)), spawn.WithSender(sender))
	if err != nil {
		t.Fatalf("NewPod failed: %v", err)
	}
	startAndWait(t, p.Runtime)

	got := p.CtrlAddresses()
	want := []string{"10.0.0.5:7002", "10.0.0.5:7003", "10.0.0.5:7000", "10.0.0.5:7001"}
	if len(got) != len(want) {
		t.Fatalf("expected %d control addresses, got %v", len(want), got)
	}
	for i := range want {
		if got[i].IPC || got[i].Addr != want[i] {
			t.Fatalf("address %d: expected %s, got %v", i, want[i], got[i])
		}
	}

	if err := p.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := p.Wait(); err != nil {
		t.Fatalf("Wait returned %v", err)
	}
	sent := sender.Sent()
	if len(sent) != 4 {
		t.Fatalf("expected 4 terminate sends, got %v", sent)
	}
	for i := range want {
		if sent[i].Addr != want[i] {
			t.Fatalf("send %d: expected %s, got %v", i, want[i], sent[i])
		}
	}

	_ = p.Close()
	if n := len(sender.Sent()); n != 4 {
		t.Fatalf("second Close sent more commands: %d", n)
	}
}

func TestPod_UnreadableEchoStillReady(t *testing.T) {
	agent := spawntest.NewAgent(&v1.SpawnResponse{LogRecord: "no body"})
	agent.Block = true
	sender := &spawntest.Sender{}

	p, err := NewPod(entry("pod", args.RolePea, remoteHost, 0), spawn.WithDialer(spawntest.Serve(t, agent)), spawn.WithSender(sender))
	if err != nil {
		t.Fatalf("NewPod failed: %v", err)
	}
	startAndWait(t, p.Runtime)
	if n := len(p.CtrlAddresses()); n != 0 {
		t.Fatalf("expected no addresses, got %d", n)
	}
	_ = p.Close()
	if n := len(sender.Sent()); n != 0 {
		t.Fatalf("expected no sends, got %d", n)
	}
}

func TestPea_TerminatesOwnAddress(t *testing.T) {
	agent := spawntest.NewAgent(&v1.SpawnResponse{LogRecord: "ready"})
	agent.Block = true
	sender := &spawntest.Sender{}

	p, err := NewPea(entry("p1", args.RolePea, remoteHost, 7100), spawn.WithDialer(spawntest.Serve(t, agent)), spawn.WithSender(sender))
	if err != nil {
		t.Fatalf("NewPea failed: %v", err)
	}
	startAndWait(t, p.Runtime)

	req := <-agent.Requests
	got, err := args.Parse(req.GetPea().GetArgs())
	if err != nil {
		t.Fatalf("agent received unparsable tokens: %v", err)
	}
	if !got.LogRemote || got.Name != "p1" || got.Host != remoteHost {
		t.Fatalf("unexpected request %+v", got)
	}

	_ = p.Close()
	_ = p.Wait()
	sent := sender.Sent()
	if len(sent) != 1 || sent[0].Addr != "10.0.0.5:7100" {
		t.Fatalf("unexpected sends %v", sent)
	}
	results := p.TerminateResults()
	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("unexpected terminate results %v", results)
	}
}

func TestPea_WithoutPortCtrlTerminatesAgentPort(t *testing.T) {
	agent := spawntest.NewAgent(&v1.SpawnResponse{LogRecord: "ready"})
	agent.Block = true
	sender := &spawntest.Sender{}

	p, err := NewPea(entry("p1", args.RolePea, remoteHost, 0), spawn.WithDialer(spawntest.Serve(t, agent)), spawn.WithSender(sender))
	if err != nil {
		t.Fatalf("NewPea failed: %v", err)
	}
	startAndWait(t, p.Runtime)

	got, err := args.Parse((<-agent.Requests).GetPea().GetArgs())
	if err != nil {
		t.Fatalf("agent received unparsable tokens: %v", err)
	}
	if got.PortCtrl == 0 {
		t.Fatalf("agent was not told which control port to bind")
	}
	want := args.CtrlAddress(&args.ProcessArgs{Host: remoteHost, PortCtrl: got.PortCtrl})
	addrs := p.CtrlAddresses()
	if len(addrs) != 1 || addrs[0] != want {
		t.Fatalf("expected control address %v, got %v", want, addrs)
	}

	_ = p.Close()
	_ = p.Wait()
	if sent := sender.Sent(); len(sent) != 1 || sent[0] != want {
		t.Fatalf("expected TERMINATE to %v, got %v", want, sent)
	}
}

func TestPea_StreamEndsBeforeReady(t *testing.T) {
	agent := spawntest.NewAgent()
	p, err := NewPea(entry("p1", args.RolePea, remoteHost, 7100), spawn.WithDialer(spawntest.Serve(t, agent)), spawn.WithSender(&spawntest.Sender{}))
	if err != nil {
		t.Fatalf("NewPea failed: %v", err)
	}
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := p.WaitReady(context.Background()); !errors.Is(err, pea.ErrExitedBeforeReady) {
		t.Fatalf("expected ErrExitedBeforeReady, got %v", err)
	}
}

func TestParsedPod_SendsWholeGroup(t *testing.T) {
	g := args.ParsedPodArgs{
		Head: entry("flow/head", args.RoleHead, remoteHost, 7200),
		Peas: []*args.ProcessArgs{entry("flow/0", args.RolePea, remoteHost, 7201)},
	}
	agent := spawntest.NewAgent(&v1.SpawnResponse{LogRecord: "started"})
	agent.Block = true
	sender := &spawntest.Sender{}

	p, err := NewParsedPod(g, spawn.WithDialer(spawntest.Serve(t, agent)), spawn.WithSender(sender))
	if err != nil {
		t.Fatalf("NewParsedPod failed: %v", err)
	}
	startAndWait(t, p.Runtime)
	if p.Name() != "flow/head" {
		t.Fatalf("unexpected name %q", p.Name())
	}

	req := <-agent.Requests
	got, err := spawn.DecodeBody(req.GetBody())
	if err != nil {
		t.Fatalf("DecodeBody failed: %v", err)
	}
	if got.Tail != nil || got.Head == nil || len(got.Peas) != 1 {
		t.Fatalf("unexpected group %+v", got)
	}
	for _, a := range got.All() {
		if !a.LogRemote {
			t.Fatalf("%s not marked for remote logging", a.DisplayName())
		}
	}
	if g.Head.LogRemote {
		t.Fatalf("caller's group was modified")
	}

	_ = p.Close()
	if n := len(sender.Sent()); n != 2 {
		t.Fatalf("expected 2 terminate sends, got %d", n)
	}
}

func TestNew_RejectsLocalHost(t *testing.T) {
	for _, host := range []string{"", args.DefaultHost} {
		a := entry("p", args.RolePea, host, 0)
		if _, err := NewPea(a); !errors.Is(err, ErrConfig) {
			t.Fatalf("NewPea(%q): expected ErrConfig, got %v", host, err)
		}
		if _, err := NewPod(a); !errors.Is(err, ErrConfig) {
			t.Fatalf("NewPod(%q): expected ErrConfig, got %v", host, err)
		}
	}

	mixed := args.ParsedPodArgs{
		Head: entry("h", args.RoleHead, remoteHost, 0),
		Peas: []*args.ProcessArgs{entry("p", args.RolePea, args.DefaultHost, 0)},
	}
	if _, err := NewParsedPod(mixed); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for local entry, got %v", err)
	}
	if _, err := NewParsedPod(args.ParsedPodArgs{}); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for empty group, got %v", err)
	}
	withNil := args.ParsedPodArgs{Head: entry("h", args.RoleHead, remoteHost, 0), Peas: []*args.ProcessArgs{nil}}
	if _, err := NewParsedPod(withNil); !errors.Is(err, ErrConfig) || !errors.Is(err, args.ErrNilEntry) {
		t.Fatalf("expected ErrConfig wrapping ErrNilEntry, got %v", err)
	}
}
