package flowmodel

import (
	"testing"

	"github.com/common-fate/flowmodel/pkg/identifier"
	"github.com/common-fate/flowmodel/pkg/noderr"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// simpleChild builds a child graph of start -> activity -> end.
func simpleChild(id identifier.ID) func(*ChildBuilder) {
	return func(cb *ChildBuilder) {
		cb.ID = id
		s := cb.Start()
		a := cb.Activity(s)
		cb.End(a)
	}
}

func TestCompile_ChildReference(t *testing.T) {
	rb := NewRootBuilder("parent")
	child := rb.Child(simpleChild("review"))
	s := rb.Start()
	c1 := rb.Composite(s, child, named[*CompositeBuilder]("c1"))
	c2 := rb.Composite(c1, child, named[*CompositeBuilder]("c2"))
	rb.End(c2)

	m, err := rb.Build()
	require.NoError(t, err)

	cm, ok := m.ChildModel("review")
	require.True(t, ok)
	assert.Equal(t, identifier.ID("review"), cm.ID())
	assert.Same(t, m, cm.RootModel())
	assert.Equal(t, 3, cm.Len())

	for _, id := range []identifier.ID{"c1", "c2"} {
		n, ok := m.Node(id)
		require.True(t, ok)
		// built once and shared
		assert.Same(t, cm, n.(*CompositeActivity).ChildModel())
	}

	for _, n := range cm.Nodes() {
		assert.Same(t, &cm.ProcessModel, n.OwnerModel())
	}
	assert.Len(t, m.ChildModels(), 1)
}

func TestCompile_EmbeddedChild(t *testing.T) {
	rb := NewRootBuilder("parent")
	s := rb.Start()
	c := rb.CompositeModel(s, func(cb *ChildBuilder) {
		cs := cb.Start()
		// a child model can embed further child models
		cc := cb.CompositeModel(cs, simpleChild(""))
		cb.End(cc)
	}, named[*CompositeBuilder]("c"))
	rb.End(c)

	m, err := rb.Build()
	require.NoError(t, err)

	children := m.ChildModels()
	require.Len(t, children, 2)
	assert.Equal(t, identifier.ID("child1"), children[0].ID())
	assert.Equal(t, identifier.ID("child2"), children[1].ID())

	n, _ := m.Node("c")
	assert.Same(t, children[0], n.(*CompositeActivity).ChildModel())

	// the compiled node refers to the child model by id
	cb := n.Builder().(*CompositeBuilder)
	assert.Equal(t, identifier.ID("child1"), cb.ChildID)
	assert.Nil(t, cb.Child)
}

func TestCompile_UnreferencedChildIsBuilt(t *testing.T) {
	rb := NewRootBuilder("parent")
	rb.Child(simpleChild("spare"))
	s := rb.Start()
	rb.End(s)

	m, err := rb.Build()
	require.NoError(t, err)
	_, ok := m.ChildModel("spare")
	assert.True(t, ok)
}

func TestCompile_ChildErrors(t *testing.T) {
	tests := []struct {
		name    string
		give    func(rb *RootBuilder)
		wantErr error
	}{
		{
			name: "child refers to itself",
			give: func(rb *RootBuilder) {
				rb.Child(func(cb *ChildBuilder) {
					cb.ID = "x"
					s := cb.Start()
					c := cb.Composite(s, "x")
					cb.End(c)
				})
				s := rb.Start()
				c := rb.Composite(s, "x")
				rb.End(c)
			},
			wantErr: noderr.ErrCyclicChildModel,
		},
		{
			name: "children refer to each other",
			give: func(rb *RootBuilder) {
				for _, pair := range [][2]identifier.ID{{"x", "y"}, {"y", "x"}} {
					id, ref := pair[0], pair[1]
					rb.Child(func(cb *ChildBuilder) {
						cb.ID = id
						s := cb.Start()
						c := cb.Composite(s, ref)
						cb.End(c)
					})
				}
				s := rb.Start()
				rb.End(s)
			},
			wantErr: noderr.ErrCyclicChildModel,
		},
		{
			name: "child refers to an unregistered child",
			give: func(rb *RootBuilder) {
				rb.Child(func(cb *ChildBuilder) {
					s := cb.Start()
					c := cb.Composite(s, "nope")
					cb.End(c)
				})
				s := rb.Start()
				rb.End(s)
			},
			wantErr: noderr.ErrUnregisteredChild,
		},
		{
			name: "duplicate child ids",
			give: func(rb *RootBuilder) {
				rb.Child(simpleChild("x"))
				rb.Child(simpleChild("x"))
				s := rb.Start()
				rb.End(s)
			},
			wantErr: noderr.ErrDuplicateIdentifier,
		},
		{
			name: "composite without a child",
			give: func(rb *RootBuilder) {
				s := rb.Start()
				c := rb.Composite(s, "")
				rb.End(c)
			},
			wantErr: noderr.ErrUnregisteredChild,
		},
		{
			name: "invalid child graph",
			give: func(rb *RootBuilder) {
				rb.Child(func(cb *ChildBuilder) {
					cb.Activity("", named[*ActivityBuilder]("orphan"))
				})
				s := rb.Start()
				rb.End(s)
			},
			wantErr: noderr.ErrUnreachableNode,
		},
		{
			name: "embedded and referenced child disagree",
			give: func(rb *RootBuilder) {
				rb.Child(simpleChild("x"))
				s := rb.Start()
				c := rb.CompositeModel(s, simpleChild("y"), func(cb *CompositeBuilder) { cb.ChildID = "x" })
				rb.End(c)
			},
			wantErr: noderr.ErrMalformedReference,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb := NewRootBuilder(tt.name)
			tt.give(rb)

			m, err := rb.Build()
			assert.True(t, errors.Is(err, tt.wantErr), "want %v, got %v", tt.wantErr, err)
			assert.Nil(t, m)
		})
	}
}
