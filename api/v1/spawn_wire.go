package v1

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Field numbers, see spawn.proto.
const (
	fieldArgs protowire.Number = 1

	fieldHead protowire.Number = 1
	fieldTail protowire.Number = 2
	fieldPeas protowire.Number = 3

	// Body variants start at 1 in SpawnRequest and at 2 in SpawnResponse.
	requestBodyBase  protowire.Number = 1
	responseBodyBase protowire.Number = 2

	fieldLogRecord protowire.Number = 1
	fieldTime      protowire.Number = 5

	fieldCommand  protowire.Number = 1
	fieldAccepted protowire.Number = 1
	fieldMessage  protowire.Number = 2
)

func (x *SpawnArgs) MarshalBinary() ([]byte, error) {
	return x.appendWire(nil), nil
}

func (x *SpawnArgs) appendWire(b []byte) []byte {
	for _, a := range x.GetArgs() {
		b = protowire.AppendTag(b, fieldArgs, protowire.BytesType)
		b = protowire.AppendString(b, a)
	}
	return b
}

func (x *SpawnArgs) UnmarshalBinary(b []byte) error {
	*x = SpawnArgs{}
	return rangeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != fieldArgs {
			return 0, nil
		}
		v, n, err := consumeBytes(typ, b)
		if err != nil {
			return 0, err
		}
		x.Args = append(x.Args, string(v))
		return n, nil
	})
}

func (x *ParsedPodSpawnRequest) MarshalBinary() ([]byte, error) {
	return x.appendWire(nil), nil
}

func (x *ParsedPodSpawnRequest) appendWire(b []byte) []byte {
	if x == nil {
		return b
	}
	if x.Head != nil {
		b = appendMessage(b, fieldHead, x.Head.appendWire(nil))
	}
	if x.Tail != nil {
		b = appendMessage(b, fieldTail, x.Tail.appendWire(nil))
	}
	for _, p := range x.Peas {
		b = appendMessage(b, fieldPeas, p.appendWire(nil))
	}
	return b
}

func (x *ParsedPodSpawnRequest) UnmarshalBinary(b []byte) error {
	*x = ParsedPodSpawnRequest{}
	return rangeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldHead, fieldTail, fieldPeas:
		default:
			return 0, nil
		}
		v, n, err := consumeBytes(typ, b)
		if err != nil {
			return 0, err
		}
		args := &SpawnArgs{}
		if err := args.UnmarshalBinary(v); err != nil {
			return 0, err
		}
		switch num {
		case fieldHead:
			x.Head = args
		case fieldTail:
			x.Tail = args
		default:
			x.Peas = append(x.Peas, args)
		}
		return n, nil
	})
}

func (x *SpawnRequest) MarshalBinary() ([]byte, error) {
	if x.GetBody() == nil {
		return nil, ErrNoBody
	}
	return appendBody(nil, x.Body, requestBodyBase)
}

func (x *SpawnRequest) UnmarshalBinary(b []byte) error {
	*x = SpawnRequest{}
	return rangeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		body, n, err := consumeBody(num, typ, b, requestBodyBase)
		if body != nil {
			x.Body = body
		}
		return n, err
	})
}

func (x *SpawnResponse) MarshalBinary() ([]byte, error) {
	var b []byte
	if x.GetLogRecord() != "" {
		b = protowire.AppendTag(b, fieldLogRecord, protowire.BytesType)
		b = protowire.AppendString(b, x.LogRecord)
	}
	if x.GetBody() != nil {
		var err error
		if b, err = appendBody(b, x.Body, responseBodyBase); err != nil {
			return nil, err
		}
	}
	if x.GetTime() != nil {
		ts, err := proto.Marshal(x.Time)
		if err != nil {
			return nil, err
		}
		b = appendMessage(b, fieldTime, ts)
	}
	return b, nil
}

func (x *SpawnResponse) UnmarshalBinary(b []byte) error {
	*x = SpawnResponse{}
	return rangeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldLogRecord:
			v, n, err := consumeBytes(typ, b)
			if err != nil {
				return 0, err
			}
			x.LogRecord = string(v)
			return n, nil
		case fieldTime:
			v, n, err := consumeBytes(typ, b)
			if err != nil {
				return 0, err
			}
			ts := &timestamppb.Timestamp{}
			if err := proto.Unmarshal(v, ts); err != nil {
				return 0, err
			}
			x.Time = ts
			return n, nil
		}
		body, n, err := consumeBody(num, typ, b, responseBodyBase)
		if body != nil {
			x.Body = body
		}
		return n, err
	})
}

func (x *ControlRequest) MarshalBinary() ([]byte, error) {
	var b []byte
	if c := x.GetCommand(); c != 0 {
		b = protowire.AppendTag(b, fieldCommand, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(c))
	}
	return b, nil
}

func (x *ControlRequest) UnmarshalBinary(b []byte) error {
	*x = ControlRequest{}
	return rangeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != fieldCommand {
			return 0, nil
		}
		v, n, err := consumeVarint(typ, b)
		if err != nil {
			return 0, err
		}
		x.Command = ControlCommand(int32(v))
		return n, nil
	})
}

func (x *ControlResponse) MarshalBinary() ([]byte, error) {
	var b []byte
	if x.GetAccepted() {
		b = protowire.AppendTag(b, fieldAccepted, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(true))
	}
	if x.GetMessage() != "" {
		b = protowire.AppendTag(b, fieldMessage, protowire.BytesType)
		b = protowire.AppendString(b, x.Message)
	}
	return b, nil
}

func (x *ControlResponse) UnmarshalBinary(b []byte) error {
	*x = ControlResponse{}
	return rangeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldAccepted:
			v, n, err := consumeVarint(typ, b)
			if err != nil {
				return 0, err
			}
			x.Accepted = protowire.DecodeBool(v)
			return n, nil
		case fieldMessage:
			v, n, err := consumeBytes(typ, b)
			if err != nil {
				return 0, err
			}
			x.Message = string(v)
			return n, nil
		}
		return 0, nil
	})
}

func appendBody(b []byte, body SpawnBody, base protowire.Number) ([]byte, error) {
	switch v := body.(type) {
	case *SpawnBody_Pea:
		return appendMessage(b, base, v.Pea.appendWire(nil)), nil
	case *SpawnBody_Pod:
		return appendMessage(b, base+1, v.Pod.appendWire(nil)), nil
	case *SpawnBody_ParsedPod:
		return appendMessage(b, base+2, v.ParsedPod.appendWire(nil)), nil
	default:
		return nil, fmt.Errorf("unknown spawn body %T", body)
	}
}

// consumeBody decodes a body variant; it returns (nil, 0, nil) for fields
// outside the oneof so the caller skips them.
func consumeBody(num protowire.Number, typ protowire.Type, b []byte, base protowire.Number) (SpawnBody, int, error) {
	if num < base || num > base+2 {
		return nil, 0, nil
	}
	v, n, err := consumeBytes(typ, b)
	if err != nil {
		return nil, 0, err
	}
	switch num - base {
	case 0, 1:
		args := &SpawnArgs{}
		if err := args.UnmarshalBinary(v); err != nil {
			return nil, 0, err
		}
		if num == base {
			return &SpawnBody_Pea{Pea: args}, n, nil
		}
		return &SpawnBody_Pod{Pod: args}, n, nil
	default:
		pp := &ParsedPodSpawnRequest{}
		if err := pp.UnmarshalBinary(v); err != nil {
			return nil, 0, err
		}
		return &SpawnBody_ParsedPod{ParsedPod: pp}, n, nil
	}
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

// rangeFields walks every field of b. fn returns how many bytes of the field
// value it consumed; zero means the field is unknown and is skipped.
func rangeFields(b []byte, fn func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		m, err := fn(num, typ, b)
		if err != nil {
			return fmt.Errorf("field %d: %w", num, err)
		}
		if m == 0 {
			m = protowire.ConsumeFieldValue(num, typ, b)
		}
		if m < 0 {
			return protowire.ParseError(m)
		}
		b = b[m:]
	}
	return nil
}

func consumeBytes(typ protowire.Type, b []byte) ([]byte, int, error) {
	if typ != protowire.BytesType {
		return nil, 0, fmt.Errorf("unexpected wire type %d", typ)
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, protowire.ParseError(n)
	}
	return v, n, nil
}

func consumeVarint(typ protowire.Type, b []byte) (uint64, int, error) {
	if typ != protowire.VarintType {
		return 0, 0, fmt.Errorf("unexpected wire type %d", typ)
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	return v, n, nil
}
