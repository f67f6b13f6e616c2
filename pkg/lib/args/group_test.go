package args

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestLoadGroupFile_TOML(t *testing.T) {
	path := writeFile(t, "pod.toml", `
[head]
name = "head"
host = "10.0.0.5"
port-ctrl = 6000

[[peas]]
name = "p1"
host = "10.0.0.5"
port_ctrl = 6001
log-remote = true

[[peas]]
name = "p2"
host = "10.0.0.5"
port-ctrl = 6002
timeout-ready = "5s"
`)
	group, err := LoadGroupFile(path)
	if err != nil {
		t.Fatalf("LoadGroupFile failed: %v", err)
	}
	if group.Head == nil || group.Head.Role != RoleHead || group.Head.PortCtrl != 6000 {
		t.Fatalf("unexpected head %+v", group.Head)
	}
	if group.Tail != nil {
		t.Fatalf("expected no tail, got %+v", group.Tail)
	}
	if len(group.Peas) != 2 {
		t.Fatalf("expected 2 peas, got %d", len(group.Peas))
	}
	if !group.Peas[0].LogRemote || group.Peas[0].PortCtrl != 6001 {
		t.Fatalf("unexpected pea %+v", group.Peas[0])
	}
	if group.Peas[1].TimeoutReady != 5*time.Second {
		t.Fatalf("unexpected timeout %v", group.Peas[1].TimeoutReady)
	}
	if len(group.All()) != 3 || group.All()[2] != group.Head {
		t.Fatalf("expected peas then head in All()")
	}
}

func TestLoadGroupFile_YAML(t *testing.T) {
	path := writeFile(t, "pod.yaml", `
tail:
  name: tail
  host: 10.0.0.5
peas:
  - name: p1
    host: 10.0.0.5
    ctrl-with-ipc: true
`)
	group, err := LoadGroupFile(path)
	if err != nil {
		t.Fatalf("LoadGroupFile failed: %v", err)
	}
	if group.Head != nil || group.Tail == nil || group.Tail.Role != RoleTail {
		t.Fatalf("unexpected head/tail %+v %+v", group.Head, group.Tail)
	}
	if len(group.Peas) != 1 || !group.Peas[0].CtrlWithIPC {
		t.Fatalf("unexpected peas %+v", group.Peas)
	}
}

func TestLoadGroupFile_Errors(t *testing.T) {
	if _, err := LoadGroupFile(writeFile(t, "pod.json", `{}`)); err == nil {
		t.Fatalf("expected error for unsupported extension")
	}
	if _, err := LoadGroupFile(writeFile(t, "empty.toml", ``)); err == nil {
		t.Fatalf("expected error for empty group")
	}
}

func TestParsedPodArgs_Equal(t *testing.T) {
	a := ParsedPodArgs{Head: Defaults()}
	b := ParsedPodArgs{Head: Defaults(), Peas: []*ProcessArgs{}}
	if !a.Equal(b) {
		t.Fatalf("expected nil and empty peas to compare equal")
	}
	b.Tail = Defaults()
	if a.Equal(b) {
		t.Fatalf("expected absent tail to differ from present tail")
	}
}

func TestParsedPodArgs_ValidateNilPea(t *testing.T) {
	g := ParsedPodArgs{Peas: []*ProcessArgs{Defaults(), nil}}
	if err := g.Validate(); !errors.Is(err, ErrNilEntry) {
		t.Fatalf("expected ErrNilEntry, got %v", err)
	}
	if err := (ParsedPodArgs{Peas: []*ProcessArgs{Defaults()}}).Validate(); err != nil {
		t.Fatalf("expected group without head and tail to be valid, got %v", err)
	}
}
