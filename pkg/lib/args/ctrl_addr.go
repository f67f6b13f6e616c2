package args

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ControlAddress is where a pea listens for control messages: either a TCP
// host:port or a unix socket path.
type ControlAddress struct {
	Addr string
	IPC  bool
}

// CtrlAddress derives the control address of a pea. The result depends only
// on a's fields.
func CtrlAddress(a *ProcessArgs) ControlAddress {
	if a.CtrlWithIPC {
		return ControlAddress{
			Addr: filepath.Join(os.TempDir(), "prn-"+a.DisplayName()+"-ctrl.sock"),
			IPC:  true,
		}
	}
	return ControlAddress{Addr: net.JoinHostPort(a.Host, strconv.Itoa(a.PortCtrl))}
}

func (c ControlAddress) String() string {
	if c.IPC {
		return "ipc://" + c.Addr
	}
	return "tcp://" + c.Addr
}

// Target is the gRPC dial target.
func (c ControlAddress) Target() string {
	if c.IPC {
		return "unix://" + c.Addr
	}
	return c.Addr
}

// Network and ListenAddr are the net.Listen arguments.
func (c ControlAddress) Network() string {
	if c.IPC {
		return "unix"
	}
	return "tcp"
}

func (c ControlAddress) ListenAddr() string { return c.Addr }

// ParseControlAddress accepts the String form; a bare host:port is tcp.
func ParseControlAddress(s string) (ControlAddress, error) {
	switch {
	case strings.HasPrefix(s, "ipc://"):
		path := strings.TrimPrefix(s, "ipc://")
		if path == "" {
			return ControlAddress{}, fmt.Errorf("empty ipc path in %q", s)
		}
		return ControlAddress{Addr: path, IPC: true}, nil
	case strings.HasPrefix(s, "tcp://"):
		s = strings.TrimPrefix(s, "tcp://")
	}
	if _, _, err := net.SplitHostPort(s); err != nil {
		return ControlAddress{}, fmt.Errorf("invalid control address %q: %w", s, err)
	}
	return ControlAddress{Addr: s}, nil
}
