// Package boundary implements the end-point conditions applied to each
// freshly computed layer.
//
// A [Policy] only ever writes indices 0 and nx-1. New conditions (absorbing,
// periodic, driven) can be added without touching the stencil.
package boundary

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/wavesim/internal/wave"
)

var ErrUnknownBoundary = errors.New("boundary: unknown policy")

type Policy interface {
	Apply(layer wave.Layer, nx int)
	Name() string
}

// Dirichlet pins both ends to zero.
type Dirichlet struct{}

func (Dirichlet) Name() string { return "dirichlet" }

func (Dirichlet) Apply(layer wave.Layer, nx int) {
	if nx < 1 {
		return
	}
	layer[0] = 0
	layer[nx-1] = 0
}

// Neumann mirrors the neighbouring interior value, a first-order zero
// gradient.
type Neumann struct{}

func (Neumann) Name() string { return "neumann" }

func (Neumann) Apply(layer wave.Layer, nx int) {
	if nx < 2 {
		return
	}
	layer[0] = layer[1]
	layer[nx-1] = layer[nx-2]
}

type Kind int

const (
	KindDirichlet Kind = iota
	KindNeumann
)

var kinds = map[Kind]func() Policy{
	KindDirichlet: func() Policy { return Dirichlet{} },
	KindNeumann:   func() Policy { return Neumann{} },
}

var names = map[string]Kind{
	"dirichlet": KindDirichlet,
	"fixed":     KindDirichlet,
	"1":         KindDirichlet,
	"neumann":   KindNeumann,
	"free":      KindNeumann,
	"2":         KindNeumann,
}

func (k Kind) String() string {
	switch k {
	case KindDirichlet:
		return "dirichlet"
	case KindNeumann:
		return "neumann"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ScenarioID is the numeric id used in run labels.
func (k Kind) ScenarioID() int { return int(k) + 1 }

// KindForScenario is the inverse of ScenarioID.
func KindForScenario(id int) (Kind, error) {
	k := Kind(id - 1)
	if _, ok := kinds[k]; !ok {
		return 0, fmt.Errorf("%w: scenario %d", ErrUnknownBoundary, id)
	}
	return k, nil
}

func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kinds[k]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBoundary, int(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func ParseKind(name string) (Kind, error) {
	k, ok := names[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: %q (available: %s)", ErrUnknownBoundary, name, strings.Join(Names(), ", "))
	}
	return k, nil
}

func New(k Kind) (Policy, error) {
	fn, ok := kinds[k]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBoundary, int(k))
	}
	return fn(), nil
}

func Parse(name string) (Policy, error) {
	k, err := ParseKind(name)
	if err != nil {
		return nil, err
	}
	return New(k)
}

// Names lists the canonical policy names.
func Names() []string {
	out := make([]string, 0, len(kinds))
	for k := range kinds {
		out = append(out, k.String())
	}
	sort.Strings(out)
	return out
}
