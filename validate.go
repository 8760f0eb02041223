package flowmodel

import (
	"github.com/common-fate/flowmodel/pkg/identifier"
	"github.com/common-fate/flowmodel/pkg/noderr"
)

type color int

const (
	white color = iota // unvisited
	grey               // in progress
	black              // done
)

// Validate checks a normalized builder graph: the successor graph must
// be acyclic, every node must be reachable from a start node, and split
// and join thresholds must be in range.
//
// Several disjoint graphs, each with its own start node, are allowed.
// Validate does not modify the graph.
func (b *Builder) Validate() error {
	v := validator{
		byID:  map[identifier.ID]NodeBuilder{},
		state: map[identifier.ID]color{},
	}
	for i, nb := range b.Nodes {
		id := nb.Base().ID
		if id.IsZero() {
			return noderr.New(noderr.ErrMissingIdentifier, "", "%s node at index %d has no id", nb.Kind(), i)
		}
		v.byID[id] = nb
	}

	for _, nb := range b.Nodes {
		base := nb.Base()
		if !base.Predecessors.IsEmpty() {
			continue
		}
		if nb.Kind() != KindStart {
			return noderr.New(noderr.ErrUnreachableNode, base.ID, "%s node has no predecessors but is not a start node", nb.Kind())
		}
		err := v.visit(nb)
		if err != nil {
			return err
		}
	}

	reached := map[identifier.ID]bool{}
	for id, c := range v.state {
		reached[id] = c == black
	}

	// visit what's left so that a cycle cut off from every start
	// node is reported as a cycle.
	for _, nb := range b.Nodes {
		if v.state[nb.Base().ID] != white {
			continue
		}
		err := v.visit(nb)
		if err != nil {
			return err
		}
	}

	for _, nb := range b.Nodes {
		if !reached[nb.Base().ID] {
			return noderr.New(noderr.ErrUnreachableNode, nb.Base().ID, "node cannot be reached from any start node")
		}
	}

	for _, nb := range b.Nodes {
		var err error
		switch t := nb.(type) {
		case *SplitBuilder:
			_, _, err = thresholds(t.ID, t.Min, t.Max, t.Successors.Len())
		case *JoinBuilder:
			_, _, err = thresholds(t.ID, t.Min, t.Max, t.Predecessors.Len())
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Validate the root graph and every registered child graph.
func (rb *RootBuilder) Validate() error {
	err := rb.Builder.Validate()
	if err != nil {
		return err
	}
	for _, cb := range rb.ChildModels {
		err = cb.Validate()
		if err != nil {
			return err
		}
	}
	return nil
}

type validator struct {
	byID  map[identifier.ID]NodeBuilder
	state map[identifier.ID]color
	// path is the chain of in-progress nodes.
	path []identifier.ID
}

func (v *validator) visit(nb NodeBuilder) error {
	base := nb.Base()
	v.state[base.ID] = grey
	v.path = append(v.path, base.ID)

	for _, id := range base.Successors.Slice() {
		succ, ok := v.byID[id]
		if !ok {
			return noderr.New(noderr.ErrMalformedReference, base.ID, "successor %s does not exist", id).With(id)
		}
		switch v.state[id] {
		case grey:
			return noderr.New(noderr.ErrCycle, id, "reached again from %s", base.ID).With(v.cycle(id)...)
		case white:
			err := v.visit(succ)
			if err != nil {
				return err
			}
		}
	}

	v.path = v.path[:len(v.path)-1]
	v.state[base.ID] = black
	return nil
}

// cycle returns the in-progress path from id back round to id.
func (v *validator) cycle(id identifier.ID) []identifier.ID {
	for i, p := range v.path {
		if p == id {
			out := append([]identifier.ID{}, v.path[i:]...)
			return append(out, id)
		}
	}
	return []identifier.ID{id}
}

// thresholds resolves AllBranches and checks 0 <= min <= max <= branches.
func thresholds(id identifier.ID, min, max, branches int) (int, int, error) {
	if min == AllBranches {
		min = branches
	}
	if max == AllBranches {
		max = branches
	}
	if min < 0 || max < min || max > branches || (branches > 0 && max < 1) {
		return 0, 0, noderr.New(noderr.ErrInvalidThreshold, id, "min %d and max %d are out of range for %d branches", min, max, branches)
	}
	return min, max, nil
}
