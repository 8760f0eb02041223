package flowmodel

import (
	"github.com/common-fate/flowmodel/pkg/identifier"
	"github.com/common-fate/flowmodel/pkg/noderr"
	"github.com/pkg/errors"
)

type childState int

const (
	unbuilt childState = iota
	building
	built
)

type childEntry struct {
	state   childState
	builder *ChildBuilder
	model   *ChildModel
}

// childRegistry builds child models on first use.
//
// A child model is built at most once per compilation. Asking for a
// child which is still being built means the child depends on itself.
type childRegistry struct {
	entries map[identifier.ID]*childEntry
	order   []identifier.ID
	compile func(cb *ChildBuilder) (*ChildModel, error)
}

func newChildRegistry(compile func(cb *ChildBuilder) (*ChildModel, error)) *childRegistry {
	return &childRegistry{
		entries: map[identifier.ID]*childEntry{},
		compile: compile,
	}
}

func (r *childRegistry) register(cb *ChildBuilder) error {
	if cb.ID.IsZero() {
		return noderr.New(noderr.ErrMissingIdentifier, "", "child model at index %d has no id", len(r.order))
	}
	if _, ok := r.entries[cb.ID]; ok {
		return noderr.New(noderr.ErrDuplicateIdentifier, cb.ID, "child model id is registered more than once")
	}
	r.entries[cb.ID] = &childEntry{builder: cb}
	r.order = append(r.order, cb.ID)
	return nil
}

// resolve returns the child model id, building it if needed.
// owner is the composite activity asking for it.
func (r *childRegistry) resolve(owner, id identifier.ID) (*ChildModel, error) {
	if id.IsZero() {
		return nil, noderr.New(noderr.ErrUnregisteredChild, owner, "composite activity has no child model")
	}
	e, ok := r.entries[id]
	if !ok {
		return nil, noderr.New(noderr.ErrUnregisteredChild, owner, "child model %s is not registered", id).With(id)
	}

	switch e.state {
	case built:
		return e.model, nil
	case building:
		return nil, noderr.New(noderr.ErrCyclicChildModel, owner, "child model %s depends on itself", id).With(id)
	}

	e.state = building
	m, err := r.compile(e.builder)
	if err != nil {
		return nil, errors.Wrapf(err, "building child model %s", id)
	}
	e.model = m
	e.state = built
	return m, nil
}

// buildAll builds every registered child model, in registration order.
func (r *childRegistry) buildAll() ([]*ChildModel, error) {
	var out []*ChildModel
	for _, id := range r.order {
		m, err := r.resolve("", id)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
