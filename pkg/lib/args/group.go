package args

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ParsedPodArgs is a pod already expanded into its sub-processes. Head and
// Tail are nil when the pod has none.
type ParsedPodArgs struct {
	Head *ProcessArgs
	Tail *ProcessArgs
	Peas []*ProcessArgs
}

// All returns the peas followed by head and tail, skipping absent roles.
func (p ParsedPodArgs) All() []*ProcessArgs {
	all := make([]*ProcessArgs, 0, len(p.Peas)+2)
	all = append(all, p.Peas...)
	if p.Head != nil {
		all = append(all, p.Head)
	}
	if p.Tail != nil {
		all = append(all, p.Tail)
	}
	return all
}

// Clone copies every entry so the copy can be changed independently.
func (p ParsedPodArgs) Clone() ParsedPodArgs {
	out := ParsedPodArgs{Head: p.Head.Clone(), Tail: p.Tail.Clone()}
	for _, a := range p.Peas {
		out.Peas = append(out.Peas, a.Clone())
	}
	return out
}

// ErrNilEntry is returned for a group whose peas list holds a nil entry.
var ErrNilEntry = errors.New("group entry is nil")

// Validate rejects nil peas. A nil head or tail means the role is absent.
func (p ParsedPodArgs) Validate() error {
	for i, a := range p.Peas {
		if a == nil {
			return fmt.Errorf("peas[%d]: %w", i, ErrNilEntry)
		}
	}
	return nil
}

func (p ParsedPodArgs) Empty() bool {
	return p.Head == nil && p.Tail == nil && len(p.Peas) == 0
}

type groupFile struct {
	Head map[string]any   `toml:"head" yaml:"head"`
	Tail map[string]any   `toml:"tail" yaml:"tail"`
	Peas []map[string]any `toml:"peas" yaml:"peas"`
}

// LoadGroupFile reads a TOML or YAML pod description. Entry keys are the
// flag names accepted by Parse.
func LoadGroupFile(path string) (ParsedPodArgs, error) {
	var gf groupFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, &gf); err != nil {
			return ParsedPodArgs{}, fmt.Errorf("decode %s: %w", path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return ParsedPodArgs{}, err
		}
		if err := yaml.Unmarshal(data, &gf); err != nil {
			return ParsedPodArgs{}, fmt.Errorf("decode %s: %w", path, err)
		}
	default:
		return ParsedPodArgs{}, fmt.Errorf("unsupported group file %q: want .toml, .yaml or .yml", path)
	}

	var (
		out ParsedPodArgs
		err error
	)
	if gf.Head != nil {
		if out.Head, err = parseEntry(gf.Head, RoleHead); err != nil {
			return ParsedPodArgs{}, fmt.Errorf("head: %w", err)
		}
	}
	if gf.Tail != nil {
		if out.Tail, err = parseEntry(gf.Tail, RoleTail); err != nil {
			return ParsedPodArgs{}, fmt.Errorf("tail: %w", err)
		}
	}
	for i, entry := range gf.Peas {
		p, err := parseEntry(entry, RolePea)
		if err != nil {
			return ParsedPodArgs{}, fmt.Errorf("peas[%d]: %w", i, err)
		}
		out.Peas = append(out.Peas, p)
	}
	if out.Empty() {
		return ParsedPodArgs{}, fmt.Errorf("%s describes no peas", path)
	}
	return out, nil
}

func parseEntry(entry map[string]any, role Role) (*ProcessArgs, error) {
	keys := make([]string, 0, len(entry))
	for k := range entry {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tokens := []string{"--role", string(role)}
	for _, k := range keys {
		flag := "--" + strings.ReplaceAll(k, "_", "-")
		switch v := entry[k].(type) {
		case bool:
			tokens = append(tokens, fmt.Sprintf("%s=%t", flag, v))
		default:
			tokens = append(tokens, flag, fmt.Sprint(v))
		}
	}
	return Parse(tokens)
}

// Equal compares two groups entry by entry; nil and empty Peas are equal.
func (p ParsedPodArgs) Equal(q ParsedPodArgs) bool {
	if !sameArgs(p.Head, q.Head) || !sameArgs(p.Tail, q.Tail) || len(p.Peas) != len(q.Peas) {
		return false
	}
	for i := range p.Peas {
		if !sameArgs(p.Peas[i], q.Peas[i]) {
			return false
		}
	}
	return true
}

func sameArgs(a, b *ProcessArgs) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
