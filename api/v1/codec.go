package v1

import (
	"encoding"
	"fmt"

	grpcencoding "google.golang.org/grpc/encoding"
	// Registered first so the codec below replaces it.
	_ "google.golang.org/grpc/encoding/proto"
	"google.golang.org/grpc/mem"
	"google.golang.org/protobuf/proto"
)

// CodecName is the gRPC content subtype the spawn and control services use.
// The codec takes over the default proto codec: messages of this package are
// protobuf-encoded without being proto.Message, so clients generated from
// spawn.proto talk to them unchanged.
const CodecName = "proto"

type codec struct{}

func (c codec) Marshal(v any) (mem.BufferSlice, error) {
	b, err := c.marshal(v)
	if err != nil {
		return nil, err
	}
	return mem.BufferSlice{mem.SliceBuffer(b)}, nil
}

func (codec) marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case proto.Message:
		return proto.Marshal(m)
	case encoding.BinaryMarshaler:
		return m.MarshalBinary()
	default:
		return nil, fmt.Errorf("%s: cannot marshal %T", CodecName, v)
	}
}

func (codec) Unmarshal(data mem.BufferSlice, v any) error {
	b := data.Materialize()
	switch m := v.(type) {
	case proto.Message:
		return proto.Unmarshal(b, m)
	case encoding.BinaryUnmarshaler:
		return m.UnmarshalBinary(b)
	default:
		return fmt.Errorf("%s: cannot unmarshal into %T", CodecName, v)
	}
}

func (codec) Name() string { return CodecName }

func init() {
	grpcencoding.RegisterCodecV2(codec{})
}
