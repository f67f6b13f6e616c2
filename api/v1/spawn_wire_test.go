package v1

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/types/known/timestamppb"
)

func TestSpawnRequest_ParsedPodKeepsPresence(t *testing.T) {
	req := &SpawnRequest{Body: &SpawnBody_ParsedPod{ParsedPod: &ParsedPodSpawnRequest{
		Tail: &SpawnArgs{Args: []string{"--host", "10.0.0.5"}},
		Peas: []*SpawnArgs{
			{Args: []string{"--name", "p1"}},
			{Args: []string{"--name", "p2"}},
		},
	}}}

	b, err := req.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}

	got := &SpawnRequest{}
	if err := got.UnmarshalBinary(b); err != nil {
		t.Fatalf("UnmarshalBinary failed: %v", err)
	}
	if got.GetBody().Kind() != KindParsedPod {
		t.Fatalf("expected parsed_pod body, got %v", got.GetBody().Kind())
	}
	pp := got.GetParsedPod()
	if pp.GetHead() != nil {
		t.Fatalf("expected no head, got %v", pp.GetHead())
	}
	if !reflect.DeepEqual(pp.GetTail().GetArgs(), []string{"--host", "10.0.0.5"}) {
		t.Fatalf("unexpected tail args: %v", pp.GetTail().GetArgs())
	}
	if len(pp.GetPeas()) != 2 || pp.GetPeas()[1].GetArgs()[1] != "p2" {
		t.Fatalf("unexpected peas: %v", pp.GetPeas())
	}
}

func TestSpawnRequest_Variants(t *testing.T) {
	tests := []struct {
		name string
		body SpawnBody
		kind Kind
	}{
		{"pea", &SpawnBody_Pea{Pea: &SpawnArgs{Args: []string{"--name", "a"}}}, KindPea},
		{"pod", &SpawnBody_Pod{Pod: &SpawnArgs{Args: []string{"--parallel", "3"}}}, KindPod},
		{"parsed_pod", &SpawnBody_ParsedPod{ParsedPod: &ParsedPodSpawnRequest{}}, KindParsedPod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := (&SpawnRequest{Body: tt.body}).MarshalBinary()
			if err != nil {
				t.Fatalf("MarshalBinary failed: %v", err)
			}
			got := &SpawnRequest{}
			if err := got.UnmarshalBinary(b); err != nil {
				t.Fatalf("UnmarshalBinary failed: %v", err)
			}
			if !reflect.DeepEqual(got.Body, tt.body) {
				t.Fatalf("expected %#v, got %#v", tt.body, got.Body)
			}
			if got.Body.Kind() != tt.kind || tt.kind.String() != tt.name {
				t.Fatalf("unexpected kind %v", got.Body.Kind())
			}
		})
	}
}

func TestSpawnRequest_NoBody(t *testing.T) {
	if _, err := (&SpawnRequest{}).MarshalBinary(); !errors.Is(err, ErrNoBody) {
		t.Fatalf("expected ErrNoBody, got %v", err)
	}
}

func TestSpawnResponse_LogBodyAndTime(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 42, time.UTC)
	resp := &SpawnResponse{
		LogRecord: "pea-0 ready",
		Body:      &SpawnBody_Pod{Pod: &SpawnArgs{Args: []string{"--host", "h"}}},
		Time:      timestamppb.New(now),
	}
	b, err := resp.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}
	got := &SpawnResponse{}
	if err := got.UnmarshalBinary(b); err != nil {
		t.Fatalf("UnmarshalBinary failed: %v", err)
	}
	if got.GetLogRecord() != "pea-0 ready" {
		t.Fatalf("unexpected log record %q", got.GetLogRecord())
	}
	if !reflect.DeepEqual(got.GetPod().GetArgs(), []string{"--host", "h"}) {
		t.Fatalf("unexpected pod body %v", got.GetBody())
	}
	if !got.GetTime().AsTime().Equal(now) {
		t.Fatalf("expected %v, got %v", now, got.GetTime().AsTime())
	}
}

func TestSpawnResponse_SkipsUnknownFields(t *testing.T) {
	var b []byte
	b = protowire.AppendTag(b, 99, protowire.VarintType)
	b = protowire.AppendVarint(b, 7)
	b = protowire.AppendTag(b, fieldLogRecord, protowire.BytesType)
	b = protowire.AppendString(b, "hello")

	got := &SpawnResponse{}
	if err := got.UnmarshalBinary(b); err != nil {
		t.Fatalf("UnmarshalBinary failed: %v", err)
	}
	if got.GetLogRecord() != "hello" || got.GetBody() != nil {
		t.Fatalf("unexpected response %#v", got)
	}
}

func TestSpawnResponse_Truncated(t *testing.T) {
	b, _ := (&SpawnResponse{LogRecord: "truncated record"}).MarshalBinary()
	if err := (&SpawnResponse{}).UnmarshalBinary(b[:len(b)-3]); err == nil {
		t.Fatalf("expected error decoding truncated message")
	}
}

func TestControlMessages(t *testing.T) {
	b, _ := (&ControlRequest{Command: ControlCommand_CONTROL_COMMAND_TERMINATE}).MarshalBinary()
	req := &ControlRequest{}
	if err := req.UnmarshalBinary(b); err != nil {
		t.Fatalf("UnmarshalBinary failed: %v", err)
	}
	if req.GetCommand() != ControlCommand_CONTROL_COMMAND_TERMINATE || req.GetCommand().String() != "TERMINATE" {
		t.Fatalf("unexpected command %v", req.GetCommand())
	}

	b, _ = (&ControlResponse{Accepted: true, Message: "bye"}).MarshalBinary()
	resp := &ControlResponse{}
	if err := resp.UnmarshalBinary(b); err != nil {
		t.Fatalf("UnmarshalBinary failed: %v", err)
	}
	if !resp.GetAccepted() || resp.GetMessage() != "bye" {
		t.Fatalf("unexpected response %#v", resp)
	}
}
