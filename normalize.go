package flowmodel

import (
	"github.com/common-fate/clio"
	"github.com/common-fate/flowmodel/pkg/identifier"
	"github.com/common-fate/flowmodel/pkg/noderr"
)

// Normalize repairs the builder graph in place, so that every node has
// a unique id, every edge is recorded on both of its ends, and only
// splits have more than one successor.
//
// In pedantic mode missing ids, dangling references and edges into a
// start node or out of an end node are errors. Otherwise they are
// repaired: ids are generated and offending edges are dropped.
//
// Normalizing an already normalized graph changes nothing.
func (b *Builder) Normalize(pedantic bool) error {
	n := normalizer{
		b:        b,
		pedantic: pedantic,
		byID:     map[identifier.ID]NodeBuilder{},
		pending:  map[identifier.ID]*identifier.Set{},
	}
	return n.run()
}

// Normalize the root graph and every registered child graph.
// Embedded child models must be registered first; the Compiler does this.
func (rb *RootBuilder) Normalize(pedantic bool) error {
	err := rb.Builder.Normalize(pedantic)
	if err != nil {
		return err
	}
	for _, cb := range rb.ChildModels {
		err = cb.Normalize(pedantic)
		if err != nil {
			return err
		}
	}
	return nil
}

type normalizer struct {
	b        *Builder
	pedantic bool
	byID     map[identifier.ID]NodeBuilder

	// pending maps the id of a non-split node to the successors
	// which conflict with its existing successor.
	pending      map[identifier.ID]*identifier.Set
	pendingOrder []identifier.ID
}

// the order of these steps matters: edges are matched by id, so ids
// must be assigned before edges are reconciled, and splits can only be
// injected once every conflicting edge is known.
func (n *normalizer) run() error {
	err := n.index()
	if err != nil {
		return err
	}
	err = n.pruneDangling()
	if err != nil {
		return err
	}
	err = n.assignIDs()
	if err != nil {
		return err
	}
	err = n.reconcile()
	if err != nil {
		return err
	}
	n.injectSplits()
	return n.checkArity()
}

func (n *normalizer) index() error {
	for _, nb := range n.b.Nodes {
		id := nb.Base().ID
		if id.IsZero() {
			continue
		}
		if _, ok := n.byID[id]; ok {
			return noderr.New(noderr.ErrDuplicateIdentifier, id, "id is used by more than one node")
		}
		n.byID[id] = nb
	}
	return nil
}

func (n *normalizer) taken(id identifier.ID) bool {
	_, ok := n.byID[id]
	return ok
}

// pruneDangling drops or rejects references to nodes which don't exist.
func (n *normalizer) pruneDangling() error {
	for _, nb := range n.b.Nodes {
		b := nb.Base()

		if n.pedantic {
			if nb.Kind() == KindStart && !b.Predecessors.IsEmpty() {
				return noderr.New(noderr.ErrArity, b.ID, "start nodes cannot have predecessors").With(b.Predecessors.Slice()...)
			}
			if nb.Kind() == KindEnd && !b.Successors.IsEmpty() {
				return noderr.New(noderr.ErrArity, b.ID, "end nodes cannot have successors").With(b.Successors.Slice()...)
			}
		}

		for _, id := range b.Predecessors.Slice() {
			if n.taken(id) {
				continue
			}
			if n.pedantic {
				return noderr.New(noderr.ErrMalformedReference, b.ID, "predecessor %s does not exist", id).With(id)
			}
			clio.Debugf("dropping dangling predecessor %s from %s", id, b.ID)
			b.Predecessors.Remove(id)
		}

		for _, id := range b.Successors.Slice() {
			if n.taken(id) {
				continue
			}
			if n.pedantic {
				return noderr.New(noderr.ErrMalformedReference, b.ID, "successor %s does not exist", id).With(id)
			}
			clio.Debugf("dropping dangling successor %s from %s", id, b.ID)
			b.Successors.Remove(id)
		}

		if j, ok := nb.(*JoinBuilder); ok {
			for id := range j.Conditions {
				if n.taken(id) {
					continue
				}
				if n.pedantic {
					return noderr.New(noderr.ErrMalformedReference, b.ID, "condition refers to unknown predecessor %s", id).With(id)
				}
				clio.Debugf("dropping condition for unknown predecessor %s from %s", id, b.ID)
				delete(j.Conditions, id)
			}
		}
	}
	return nil
}

func (n *normalizer) assignIDs() error {
	for i, nb := range n.b.Nodes {
		b := nb.Base()
		if !b.ID.IsZero() {
			continue
		}
		if n.pedantic {
			return noderr.New(noderr.ErrMissingIdentifier, "", "%s node at index %d has no id", nb.Kind(), i)
		}
		b.ID = identifier.Fresh(nb.Kind().IDBase(), n.taken)
		n.byID[b.ID] = nb
		clio.Debugf("assigned id %s to %s node at index %d", b.ID, nb.Kind(), i)
	}
	return nil
}

// reconcile records every declared edge on both of its ends.
func (n *normalizer) reconcile() error {
	for _, nb := range n.b.Nodes {
		b := nb.Base()
		for _, succ := range b.Successors.Slice() {
			err := n.connect(nb, n.byID[succ])
			if err != nil {
				return err
			}
		}
		for _, pred := range b.Predecessors.Slice() {
			err := n.connect(n.byID[pred], nb)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// connect records the edge pred -> succ. If pred is not a split and
// already leads somewhere else, the edge is deferred until a split
// can be injected.
func (n *normalizer) connect(pred, succ NodeBuilder) error {
	p, s := pred.Base(), succ.Base()

	if succ.Kind() == KindStart || pred.Kind() == KindEnd {
		if n.pedantic {
			return noderr.New(noderr.ErrArity, p.ID, "edge %s -> %s leaves an end node or enters a start node", p.ID, s.ID).With(s.ID)
		}
		clio.Debugf("dropping edge %s -> %s", p.ID, s.ID)
		p.Successors.Remove(s.ID)
		s.Predecessors.Remove(p.ID)
		return nil
	}

	if pred.Kind() != KindSplit && !p.Successors.IsEmpty() && p.Successors.Slice()[0] != s.ID {
		n.deferEdge(p.ID, s.ID)
		p.Successors.Remove(s.ID)
		_ = s.Predecessors.Add(p.ID)
		return nil
	}

	_ = p.Successors.Add(s.ID)
	_ = s.Predecessors.Add(p.ID)
	return nil
}

func (n *normalizer) deferEdge(pred, succ identifier.ID) {
	set, ok := n.pending[pred]
	if !ok {
		set = &identifier.Set{}
		n.pending[pred] = set
		n.pendingOrder = append(n.pendingOrder, pred)
	}
	_ = set.Add(succ)
}

// injectSplits places a new split between each node with
// conflicting successors and all of those successors.
func (n *normalizer) injectSplits() {
	for _, predID := range n.pendingOrder {
		pred := n.byID[predID].Base()

		split := NewSplitBuilder()
		split.ID = identifier.Fresh(KindSplit.IDBase(), n.taken)
		split.Predecessor(predID)

		succs := append(pred.Successors.Slice(), n.pending[predID].Slice()...)
		for _, succID := range succs {
			split.Successor(succID)

			succ := n.byID[succID]
			succ.Base().Predecessors.Replace(predID, split.ID)
			if j, ok := succ.(*JoinBuilder); ok {
				if c, ok := j.Conditions[predID]; ok {
					delete(j.Conditions, predID)
					j.Conditions[split.ID] = c
				}
			}
		}
		split.Min = split.Successors.Len()
		split.Max = split.Successors.Len()

		pred.Successors.Clear()
		pred.Successor(split.ID)

		n.b.Nodes = append(n.b.Nodes, split)
		n.byID[split.ID] = split
		clio.Debugf("injected %s between %s and %s", split.ID, predID, split.Successors.String())
	}
}

// checkArity rejects nodes with more edges than their kind allows.
func (n *normalizer) checkArity() error {
	for _, nb := range n.b.Nodes {
		b := nb.Base()
		kind := nb.Kind()
		if max := kind.MaxPredecessors(); max != identifier.Unbounded && b.Predecessors.Len() > max {
			return arityError(b.ID, kind, "predecessors", b.Predecessors.Len(), max).With(b.Predecessors.Slice()...)
		}
		if max := kind.MaxSuccessors(); max != identifier.Unbounded && b.Successors.Len() > max {
			return arityError(b.ID, kind, "successors", b.Successors.Len(), max).With(b.Successors.Slice()...)
		}

		j, ok := nb.(*JoinBuilder)
		if !ok {
			continue
		}
		for id := range j.Conditions {
			if b.Predecessors.Contains(id) {
				continue
			}
			if n.pedantic {
				return noderr.New(noderr.ErrMalformedReference, b.ID, "condition refers to %s, which is not a predecessor", id).With(id)
			}
			delete(j.Conditions, id)
		}
	}
	return nil
}

func arityError(id identifier.ID, kind Kind, edges string, got, max int) *noderr.NodeError {
	return noderr.New(noderr.ErrArity, id, "%s nodes can have at most %d %s, got %d", kind, max, edges, got)
}
