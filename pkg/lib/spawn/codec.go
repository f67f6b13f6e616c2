package spawn

import (
	"fmt"

	v1 "github.com/SanjoDeundiak/remote-peapods/api/v1"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/args"
)

// EncodeSingle renders one namespace into its wire form.
func EncodeSingle(a *args.ProcessArgs) *v1.SpawnArgs {
	return &v1.SpawnArgs{Args: a.Tokens()}
}

// EncodeUnit builds a pea or pod request for a single namespace.
func EncodeUnit(kind v1.Kind, a *args.ProcessArgs) (*v1.SpawnRequest, error) {
	switch kind {
	case v1.KindPea:
		return &v1.SpawnRequest{Body: &v1.SpawnBody_Pea{Pea: EncodeSingle(a)}}, nil
	case v1.KindPod:
		return &v1.SpawnRequest{Body: &v1.SpawnBody_Pod{Pod: EncodeSingle(a)}}, nil
	default:
		return nil, fmt.Errorf("cannot encode a single namespace as %s", kind)
	}
}

// EncodeGroup builds a parsed_pod request. Absent roles stay absent.
func EncodeGroup(g args.ParsedPodArgs) *v1.SpawnRequest {
	pp := &v1.ParsedPodSpawnRequest{}
	if g.Head != nil {
		pp.Head = EncodeSingle(g.Head)
	}
	if g.Tail != nil {
		pp.Tail = EncodeSingle(g.Tail)
	}
	for _, p := range g.Peas {
		pp.Peas = append(pp.Peas, EncodeSingle(p))
	}
	return &v1.SpawnRequest{Body: &v1.SpawnBody_ParsedPod{ParsedPod: pp}}
}

// DecodeGroup is the inverse of EncodeGroup. A role is materialized only
// when its wire entry carries tokens.
func DecodeGroup(pp *v1.ParsedPodSpawnRequest) (args.ParsedPodArgs, error) {
	var (
		g   args.ParsedPodArgs
		err error
	)
	if tokens := pp.GetHead().GetArgs(); len(tokens) > 0 {
		if g.Head, err = args.Parse(tokens); err != nil {
			return args.ParsedPodArgs{}, fmt.Errorf("head: %w", err)
		}
	}
	if tokens := pp.GetTail().GetArgs(); len(tokens) > 0 {
		if g.Tail, err = args.Parse(tokens); err != nil {
			return args.ParsedPodArgs{}, fmt.Errorf("tail: %w", err)
		}
	}
	for i, p := range pp.GetPeas() {
		a, err := args.Parse(p.GetArgs())
		if err != nil {
			return args.ParsedPodArgs{}, fmt.Errorf("peas[%d]: %w", i, err)
		}
		g.Peas = append(g.Peas, a)
	}
	return g, nil
}

// DecodeBody turns the body echoed on a response into a group. A pea body
// becomes a group of one pea; an unexpanded pod body cannot be decoded.
func DecodeBody(body v1.SpawnBody) (args.ParsedPodArgs, error) {
	switch b := body.(type) {
	case *v1.SpawnBody_ParsedPod:
		return DecodeGroup(b.ParsedPod)
	case *v1.SpawnBody_Pea:
		a, err := args.Parse(b.Pea.GetArgs())
		if err != nil {
			return args.ParsedPodArgs{}, err
		}
		return args.ParsedPodArgs{Peas: []*args.ProcessArgs{a}}, nil
	case *v1.SpawnBody_Pod:
		return args.ParsedPodArgs{}, fmt.Errorf("pod body was not expanded by the agent")
	case nil:
		return args.ParsedPodArgs{}, v1.ErrNoBody
	default:
		return args.ParsedPodArgs{}, fmt.Errorf("unknown spawn body %T", body)
	}
}
