package flowmodel

import (
	"github.com/common-fate/flowmodel/pkg/binding"
	"github.com/common-fate/flowmodel/pkg/identifier"
	"github.com/google/uuid"
)

// Builder is the mutable graph of a process model.
//
// A Builder is not safe for concurrent use.
type Builder struct {
	Nodes   []NodeBuilder
	Imports []binding.Result
	Exports []binding.Define
}

// Node looks up a node builder by id.
func (b *Builder) Node(id identifier.ID) (NodeBuilder, bool) {
	if id.IsZero() {
		return nil, false
	}
	for _, nb := range b.Nodes {
		if nb.Base().ID == id {
			return nb, true
		}
	}
	return nil, false
}

func (b *Builder) hasID(id identifier.ID) bool {
	_, ok := b.Node(id)
	return ok
}

// Add a node builder to the graph, assigning it an id if it doesn't have one.
// It returns the id of the node.
func (b *Builder) Add(nb NodeBuilder) identifier.ID {
	base := nb.Base()
	if base.ID.IsZero() {
		base.ID = identifier.Fresh(nb.Kind().IDBase(), b.hasID)
	}
	b.Nodes = append(b.Nodes, nb)
	return base.ID
}

// add configures nb, then adds it to the graph with predecessors.
func add[T NodeBuilder](b *Builder, nb T, predecessors []identifier.ID, configure []func(T)) identifier.ID {
	for _, id := range predecessors {
		if !id.IsZero() {
			nb.Base().Predecessor(id)
		}
	}
	for _, c := range configure {
		c(nb)
	}
	return b.Add(nb)
}

// Start adds a start node.
func (b *Builder) Start(configure ...func(*StartBuilder)) identifier.ID {
	return add(b, NewStartBuilder(), nil, configure)
}

// End adds an end node following predecessor.
func (b *Builder) End(predecessor identifier.ID, configure ...func(*EndBuilder)) identifier.ID {
	return add(b, NewEndBuilder(), []identifier.ID{predecessor}, configure)
}

// Event adds an event node following predecessor.
func (b *Builder) Event(predecessor identifier.ID, configure ...func(*EventBuilder)) identifier.ID {
	return add(b, NewEventBuilder(), []identifier.ID{predecessor}, configure)
}

// Activity adds a message activity following predecessor.
func (b *Builder) Activity(predecessor identifier.ID, configure ...func(*ActivityBuilder)) identifier.ID {
	return add(b, NewActivityBuilder(), []identifier.ID{predecessor}, configure)
}

// Split adds a split node following predecessor.
func (b *Builder) Split(predecessor identifier.ID, configure ...func(*SplitBuilder)) identifier.ID {
	return add(b, NewSplitBuilder(), []identifier.ID{predecessor}, configure)
}

// Join adds a join node following each of predecessors.
func (b *Builder) Join(predecessors []identifier.ID, configure ...func(*JoinBuilder)) identifier.ID {
	return add(b, NewJoinBuilder(), predecessors, configure)
}

// Composite adds a composite activity following predecessor,
// which runs the registered child model childID.
func (b *Builder) Composite(predecessor identifier.ID, childID identifier.ID, configure ...func(*CompositeBuilder)) identifier.ID {
	nb := NewCompositeBuilder()
	nb.ChildID = childID
	return add(b, nb, []identifier.ID{predecessor}, configure)
}

// CompositeModel adds a composite activity following predecessor,
// which runs an embedded child model built by child.
func (b *Builder) CompositeModel(predecessor identifier.ID, child func(*ChildBuilder), configure ...func(*CompositeBuilder)) identifier.ID {
	nb := NewCompositeBuilder()
	nb.Child = &ChildBuilder{}
	child(nb.Child)
	return add(b, nb, []identifier.ID{predecessor}, configure)
}

// RootBuilder is the mutable form of a RootModel.
type RootBuilder struct {
	Builder
	Name  string
	Owner string
	// UUID is generated during compilation if it is not set.
	UUID        uuid.UUID
	Roles       []string
	ChildModels []*ChildBuilder
}

// NewRootBuilder creates an empty root builder.
func NewRootBuilder(name string) *RootBuilder {
	return &RootBuilder{Name: name}
}

// Child registers a child model, assigning it an id if it doesn't have one.
// It returns the id of the child model, for use with Composite.
func (rb *RootBuilder) Child(configure func(*ChildBuilder)) identifier.ID {
	cb := &ChildBuilder{}
	configure(cb)
	return rb.AddChild(cb)
}

// AddChild registers a child model builder, assigning it an id if it doesn't have one.
func (rb *RootBuilder) AddChild(cb *ChildBuilder) identifier.ID {
	if cb.ID.IsZero() {
		cb.ID = identifier.Fresh("child", rb.hasChild)
	}
	rb.ChildModels = append(rb.ChildModels, cb)
	return cb.ID
}

func (rb *RootBuilder) hasChild(id identifier.ID) bool {
	_, ok := rb.ChildBuilder(id)
	return ok
}

// ChildBuilder looks up a registered child model builder by id.
func (rb *RootBuilder) ChildBuilder(id identifier.ID) (*ChildBuilder, bool) {
	for _, cb := range rb.ChildModels {
		if cb.ID == id {
			return cb, true
		}
	}
	return nil, false
}

// Build normalizes, validates and compiles the builder in pedantic mode.
func (rb *RootBuilder) Build() (*RootModel, error) {
	var c Compiler
	return c.Compile(rb)
}

// ChildBuilder is the mutable form of a ChildModel.
type ChildBuilder struct {
	Builder
	ID identifier.ID
}
