// Package v1 holds the wire messages and gRPC service glue of the spawn and
// control protocols described in spawn.proto.
package v1

import (
	"errors"

	"google.golang.org/protobuf/types/known/timestamppb"
)

// ErrNoBody is returned when a SpawnRequest is sent without a body variant.
var ErrNoBody = errors.New("spawn request has no body")

// Kind tags the unit a spawn body describes.
type Kind int

const (
	KindUnspecified Kind = iota
	KindPea
	KindPod
	KindParsedPod
)

func (k Kind) String() string {
	switch k {
	case KindPea:
		return "pea"
	case KindPod:
		return "pod"
	case KindParsedPod:
		return "parsed_pod"
	default:
		return "unspecified"
	}
}

// SpawnArgs is the flat token list of a single process.
type SpawnArgs struct {
	Args []string
}

func (x *SpawnArgs) GetArgs() []string {
	if x != nil {
		return x.Args
	}
	return nil
}

// ParsedPodSpawnRequest is a pod that the requester already expanded into
// head, tail and peas.
type ParsedPodSpawnRequest struct {
	Head *SpawnArgs
	Tail *SpawnArgs
	Peas []*SpawnArgs
}

func (x *ParsedPodSpawnRequest) GetHead() *SpawnArgs {
	if x != nil {
		return x.Head
	}
	return nil
}

func (x *ParsedPodSpawnRequest) GetTail() *SpawnArgs {
	if x != nil {
		return x.Tail
	}
	return nil
}

func (x *ParsedPodSpawnRequest) GetPeas() []*SpawnArgs {
	if x != nil {
		return x.Peas
	}
	return nil
}

// SpawnBody is the oneof shared by SpawnRequest and SpawnResponse.
type SpawnBody interface {
	isSpawnBody()
	Kind() Kind
}

type SpawnBody_Pea struct {
	Pea *SpawnArgs
}

type SpawnBody_Pod struct {
	Pod *SpawnArgs
}

type SpawnBody_ParsedPod struct {
	ParsedPod *ParsedPodSpawnRequest
}

func (*SpawnBody_Pea) isSpawnBody()       {}
func (*SpawnBody_Pod) isSpawnBody()       {}
func (*SpawnBody_ParsedPod) isSpawnBody() {}

func (*SpawnBody_Pea) Kind() Kind       { return KindPea }
func (*SpawnBody_Pod) Kind() Kind       { return KindPod }
func (*SpawnBody_ParsedPod) Kind() Kind { return KindParsedPod }

type SpawnRequest struct {
	Body SpawnBody
}

func (x *SpawnRequest) GetBody() SpawnBody {
	if x != nil {
		return x.Body
	}
	return nil
}

func (x *SpawnRequest) GetPea() *SpawnArgs       { return bodyPea(x.GetBody()) }
func (x *SpawnRequest) GetPod() *SpawnArgs       { return bodyPod(x.GetBody()) }
func (x *SpawnRequest) GetParsedPod() *ParsedPodSpawnRequest {
	return bodyParsedPod(x.GetBody())
}

type SpawnResponse struct {
	LogRecord string
	Body      SpawnBody
	Time      *timestamppb.Timestamp
}

func (x *SpawnResponse) GetLogRecord() string {
	if x != nil {
		return x.LogRecord
	}
	return ""
}

func (x *SpawnResponse) GetBody() SpawnBody {
	if x != nil {
		return x.Body
	}
	return nil
}

func (x *SpawnResponse) GetTime() *timestamppb.Timestamp {
	if x != nil {
		return x.Time
	}
	return nil
}

func (x *SpawnResponse) GetPea() *SpawnArgs       { return bodyPea(x.GetBody()) }
func (x *SpawnResponse) GetPod() *SpawnArgs       { return bodyPod(x.GetBody()) }
func (x *SpawnResponse) GetParsedPod() *ParsedPodSpawnRequest {
	return bodyParsedPod(x.GetBody())
}

func bodyPea(b SpawnBody) *SpawnArgs {
	if x, ok := b.(*SpawnBody_Pea); ok {
		return x.Pea
	}
	return nil
}

func bodyPod(b SpawnBody) *SpawnArgs {
	if x, ok := b.(*SpawnBody_Pod); ok {
		return x.Pod
	}
	return nil
}

func bodyParsedPod(b SpawnBody) *ParsedPodSpawnRequest {
	if x, ok := b.(*SpawnBody_ParsedPod); ok {
		return x.ParsedPod
	}
	return nil
}

type ControlCommand int32

const (
	ControlCommand_CONTROL_COMMAND_UNSPECIFIED ControlCommand = 0
	ControlCommand_CONTROL_COMMAND_TERMINATE   ControlCommand = 1
	ControlCommand_CONTROL_COMMAND_STATUS      ControlCommand = 2
)

func (c ControlCommand) String() string {
	switch c {
	case ControlCommand_CONTROL_COMMAND_TERMINATE:
		return "TERMINATE"
	case ControlCommand_CONTROL_COMMAND_STATUS:
		return "STATUS"
	default:
		return "UNSPECIFIED"
	}
}

type ControlRequest struct {
	Command ControlCommand
}

func (x *ControlRequest) GetCommand() ControlCommand {
	if x != nil {
		return x.Command
	}
	return ControlCommand_CONTROL_COMMAND_UNSPECIFIED
}

type ControlResponse struct {
	Accepted bool
	Message  string
}

func (x *ControlResponse) GetAccepted() bool {
	if x != nil {
		return x.Accepted
	}
	return false
}

func (x *ControlResponse) GetMessage() string {
	if x != nil {
		return x.Message
	}
	return ""
}
