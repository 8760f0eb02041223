package flowmodel

import (
	"fmt"
	"math"

	"github.com/common-fate/flowmodel/pkg/identifier"
)

// Kind is the variant of a process model node.
type Kind int

const (
	// KindUnknown is never produced by the compiler.
	KindUnknown Kind = iota
	KindStart
	KindEnd
	KindEvent
	KindSplit
	KindJoin
	KindMessageActivity
	KindCompositeActivity
)

func (k Kind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindEnd:
		return "end"
	case KindEvent:
		return "event"
	case KindSplit:
		return "split"
	case KindJoin:
		return "join"
	case KindMessageActivity:
		return "activity"
	case KindCompositeActivity:
		return "composite"
	}
	return "unknown"
}

// IDBase is the prefix used when generating ids for nodes of this kind,
// e.g. "ac" for "ac1", "ac2".
func (k Kind) IDBase() string {
	switch k {
	case KindStart:
		return "start"
	case KindEnd:
		return "end"
	case KindEvent:
		return "event"
	case KindSplit:
		return "split"
	case KindJoin:
		return "join"
	case KindMessageActivity, KindCompositeActivity:
		return "ac"
	}
	return "node"
}

// MaxPredecessors is the largest number of predecessors a node of this kind can have.
func (k Kind) MaxPredecessors() int {
	switch k {
	case KindStart:
		return 0
	case KindJoin:
		return identifier.Unbounded
	}
	return 1
}

// MaxSuccessors is the largest number of successors a node of this kind can have.
func (k Kind) MaxSuccessors() int {
	switch k {
	case KindEnd:
		return 0
	case KindSplit:
		return identifier.Unbounded
	}
	return 1
}

// Position is the location of a node on a diagram.
// Unset coordinates are NaN.
type Position struct {
	X float64
	Y float64
}

// NoPosition returns a position with both coordinates unset.
func NoPosition() Position {
	return Position{X: math.NaN(), Y: math.NaN()}
}

// IsSet returns true if both coordinates are set.
func (p Position) IsSet() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y)
}

// ParseKind parses the name of a kind, as returned by Kind.String.
func ParseKind(s string) (Kind, error) {
	for k := KindStart; k <= KindCompositeActivity; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown node kind %q", s)
}
