package flowmodel

import (
	"math"
	"testing"

	"github.com/common-fate/flowmodel/pkg/binding"
	"github.com/common-fate/flowmodel/pkg/condition"
	"github.com/common-fate/flowmodel/pkg/identifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// everyKind builds a model which uses every node variant.
func everyKind() *RootBuilder {
	rb := NewRootBuilder("every kind")
	rb.Owner = "alice"
	rb.Roles = []string{"approver"}
	child := rb.Child(simpleChild("review"))

	s := rb.Start(named[*StartBuilder]("s"), func(b *StartBuilder) {
		b.Label = "Request"
		b.Position = Position{X: 10, Y: 20}
	})
	ev := rb.Event(s, named[*EventBuilder]("ev"), func(b *EventBuilder) { b.EventType = "timer" })
	sp := rb.Split(ev, named[*SplitBuilder]("sp"), func(b *SplitBuilder) { b.Min = 1 })
	a := rb.Activity(sp, named[*ActivityBuilder]("a"), func(b *ActivityBuilder) {
		b.MultiInstance = true
		b.Message = &Message{Service: "approvals", Operation: "notify", Body: "{}"}
		b.Condition = condition.Expr("true")
		b.Result(binding.Result{Name: "decision", Path: "/decision"})
	})
	c := rb.Composite(sp, child, named[*CompositeBuilder]("c"), func(b *CompositeBuilder) {
		b.Define(binding.Define{Name: "outcome", RefNode: "a"})
	})
	j := rb.Join([]identifier.ID{a, c}, named[*JoinBuilder]("j"), func(b *JoinBuilder) {
		b.Min = 1
		b.MultiMerge = true
		b.When(a, condition.Expr("input.ok == true"))
	})
	rb.End(j, named[*EndBuilder]("e"))
	return rb
}

type countingVisitor struct {
	counts map[Kind]int
}

func (v *countingVisitor) visit(n Node) error {
	v.counts[n.Kind()]++
	return nil
}

func (v *countingVisitor) VisitStart(n *StartNode) error                     { return v.visit(n) }
func (v *countingVisitor) VisitEnd(n *EndNode) error                         { return v.visit(n) }
func (v *countingVisitor) VisitEvent(n *EventNode) error                     { return v.visit(n) }
func (v *countingVisitor) VisitSplit(n *SplitNode) error                     { return v.visit(n) }
func (v *countingVisitor) VisitJoin(n *JoinNode) error                       { return v.visit(n) }
func (v *countingVisitor) VisitMessageActivity(n *MessageActivity) error     { return v.visit(n) }
func (v *countingVisitor) VisitCompositeActivity(n *CompositeActivity) error { return v.visit(n) }

func TestVisitor(t *testing.T) {
	m, err := everyKind().Build()
	require.NoError(t, err)

	v := &countingVisitor{counts: map[Kind]int{}}
	require.NoError(t, m.Visit(v))

	assert.Equal(t, map[Kind]int{
		KindStart:             1,
		KindEvent:             1,
		KindSplit:             1,
		KindMessageActivity:   1,
		KindCompositeActivity: 1,
		KindJoin:              1,
		KindEnd:               1,
	}, v.counts)
}

func TestRoundTrip(t *testing.T) {
	first, err := everyKind().Build()
	require.NoError(t, err)

	second, err := first.Builder().Build()
	require.NoError(t, err)

	assert.Equal(t, describe(t, &first.ProcessModel), describe(t, &second.ProcessModel))
	assert.Equal(t, first.Name(), second.Name())
	assert.Equal(t, first.Owner(), second.Owner())
	assert.Equal(t, first.UUID(), second.UUID())
	assert.Equal(t, first.Roles(), second.Roles())

	require.Len(t, second.ChildModels(), 1)
	fc, _ := first.ChildModel("review")
	sc, _ := second.ChildModel("review")
	assert.Equal(t, describe(t, &fc.ProcessModel), describe(t, &sc.ProcessModel))
}

func TestRoundTrip_PerNode(t *testing.T) {
	m, err := everyKind().Build()
	require.NoError(t, err)

	for _, n := range m.Nodes() {
		t.Run(n.ID().String(), func(t *testing.T) {
			b := n.Builder()
			assert.Equal(t, n.Kind(), b.Kind())
			assert.Equal(t, n.ID(), b.Base().ID)
			assert.Equal(t, n.Predecessors(), b.Base().Predecessors.Slice())
			assert.Equal(t, n.Successors(), b.Base().Successors.Slice())
		})
	}
}

func TestNodeFields(t *testing.T) {
	m, err := everyKind().Build()
	require.NoError(t, err)

	s, _ := m.Node("s")
	assert.Equal(t, "Request", s.Label())
	assert.Equal(t, Position{X: 10, Y: 20}, s.Position())
	assert.True(t, s.Position().IsSet())

	ev, _ := m.Node("ev")
	assert.Equal(t, "timer", ev.(*EventNode).EventType())
	assert.False(t, ev.Position().IsSet())
	assert.True(t, math.IsNaN(ev.Position().X))

	sp, _ := m.Node("sp")
	assert.Equal(t, 1, sp.(*SplitNode).Min())
	assert.Equal(t, 2, sp.(*SplitNode).Max())
	assert.Equal(t, identifier.Unbounded, sp.MaxSuccessorCount())

	a, _ := m.Node("a")
	act := a.(*MessageActivity)
	assert.True(t, act.IsMultiInstance())
	assert.Equal(t, "approvals", act.Message().Service)
	assert.Equal(t, condition.Expr("true"), act.Condition())

	// the returned message is a copy
	act.Message().Service = "changed"
	assert.Equal(t, "approvals", act.Message().Service)

	c, _ := m.Node("c")
	assert.Equal(t, []binding.Define{{Name: "outcome", RefNode: "a", RefName: "decision"}}, c.Defines())

	j, _ := m.Node("j")
	join := j.(*JoinNode)
	assert.Equal(t, 1, join.Min())
	assert.Equal(t, 2, join.Max())
	assert.Equal(t, identifier.Unbounded, join.MaxPredecessorCount())
	assert.True(t, join.HasPredecessor("a"))
	assert.True(t, join.HasSuccessor("e"))

	e, _ := m.Node("e")
	pred, ok := e.(*EndNode).Predecessor()
	assert.True(t, ok)
	assert.Equal(t, identifier.ID("j"), pred)
}

func TestKind(t *testing.T) {
	tests := []struct {
		kind     Kind
		name     string
		idBase   string
		maxPreds int
		maxSuccs int
	}{
		{KindStart, "start", "start", 0, 1},
		{KindEnd, "end", "end", 1, 0},
		{KindEvent, "event", "event", 1, 1},
		{KindSplit, "split", "split", 1, identifier.Unbounded},
		{KindJoin, "join", "join", identifier.Unbounded, 1},
		{KindMessageActivity, "activity", "ac", 1, 1},
		{KindCompositeActivity, "composite", "ac", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.kind.String())
			assert.Equal(t, tt.idBase, tt.kind.IDBase())
			assert.Equal(t, tt.maxPreds, tt.kind.MaxPredecessors())
			assert.Equal(t, tt.maxSuccs, tt.kind.MaxSuccessors())
		})
	}
}

func TestModelIsolatedFromBuilder(t *testing.T) {
	rb := everyKind()
	m, err := rb.Build()
	require.NoError(t, err)

	// mutating the builder after compilation doesn't change the model
	nb, _ := rb.Node("a")
	nb.Base().Label = "changed"
	nb.Base().Results[0].Name = "changed"

	a, _ := m.Node("a")
	assert.Equal(t, "", a.Label())
	assert.Equal(t, "decision", a.Results()[0].Name)
}
