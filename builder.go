package flowmodel

import (
	"github.com/common-fate/flowmodel/pkg/binding"
	"github.com/common-fate/flowmodel/pkg/condition"
	"github.com/common-fate/flowmodel/pkg/identifier"
)

// AllBranches is the default split and join threshold.
// It resolves to the number of successors (for a split) or
// predecessors (for a join) when the model is compiled.
const AllBranches = -1

// NodeBuilder is the mutable, pre-compilation form of a Node.
//
// Predecessors and successors may refer to ids which do not exist yet,
// and may exceed what the node kind allows. Normalization repairs or
// rejects these before the node is compiled.
type NodeBuilder interface {
	Kind() Kind
	// Base returns the fields shared by every builder.
	Base() *BaseBuilder
	// Accept calls the BuilderVisitor method for the builder's variant.
	Accept(v BuilderVisitor) error
	build(h *buildHelper) (Node, error)
}

// BuilderVisitor handles every node builder variant.
type BuilderVisitor interface {
	VisitStart(b *StartBuilder) error
	VisitEnd(b *EndBuilder) error
	VisitEvent(b *EventBuilder) error
	VisitSplit(b *SplitBuilder) error
	VisitJoin(b *JoinBuilder) error
	VisitActivity(b *ActivityBuilder) error
	VisitComposite(b *CompositeBuilder) error
}

// BaseBuilder holds the fields shared by every node builder.
type BaseBuilder struct {
	ID            identifier.ID
	Label         string
	Position      Position
	MultiInstance bool
	// Defines are the outputs of the node.
	Defines []binding.Define
	// Results are the inputs of the node.
	Results      []binding.Result
	Predecessors identifier.Set
	Successors   identifier.Set
}

func newBaseBuilder() BaseBuilder {
	return BaseBuilder{Position: NoPosition()}
}

func (b *BaseBuilder) Base() *BaseBuilder { return b }

// Predecessor adds predecessor ids to the builder.
func (b *BaseBuilder) Predecessor(ids ...identifier.ID) {
	for _, id := range ids {
		_ = b.Predecessors.Add(id)
	}
}

// Successor adds successor ids to the builder.
func (b *BaseBuilder) Successor(ids ...identifier.ID) {
	for _, id := range ids {
		_ = b.Successors.Add(id)
	}
}

// Define adds an output to the builder.
func (b *BaseBuilder) Define(d binding.Define) {
	b.Defines = append(b.Defines, d)
}

// Result adds an input to the builder.
func (b *BaseBuilder) Result(r binding.Result) {
	b.Results = append(b.Results, r)
}

type StartBuilder struct {
	BaseBuilder
}

func NewStartBuilder() *StartBuilder {
	return &StartBuilder{BaseBuilder: newBaseBuilder()}
}

func (b *StartBuilder) Kind() Kind                    { return KindStart }
func (b *StartBuilder) Accept(v BuilderVisitor) error { return v.VisitStart(b) }

func (b *StartBuilder) build(h *buildHelper) (Node, error) {
	nb, err := h.base(KindStart, &b.BaseBuilder)
	if err != nil {
		return nil, err
	}
	return &StartNode{base: nb}, nil
}

type EndBuilder struct {
	BaseBuilder
}

func NewEndBuilder() *EndBuilder {
	return &EndBuilder{BaseBuilder: newBaseBuilder()}
}

func (b *EndBuilder) Kind() Kind                    { return KindEnd }
func (b *EndBuilder) Accept(v BuilderVisitor) error { return v.VisitEnd(b) }

func (b *EndBuilder) build(h *buildHelper) (Node, error) {
	nb, err := h.base(KindEnd, &b.BaseBuilder)
	if err != nil {
		return nil, err
	}
	return &EndNode{base: nb}, nil
}

type EventBuilder struct {
	BaseBuilder
	EventType string
}

func NewEventBuilder() *EventBuilder {
	return &EventBuilder{BaseBuilder: newBaseBuilder()}
}

func (b *EventBuilder) Kind() Kind                    { return KindEvent }
func (b *EventBuilder) Accept(v BuilderVisitor) error { return v.VisitEvent(b) }

func (b *EventBuilder) build(h *buildHelper) (Node, error) {
	nb, err := h.base(KindEvent, &b.BaseBuilder)
	if err != nil {
		return nil, err
	}
	return &EventNode{base: nb, eventType: b.EventType}, nil
}

type SplitBuilder struct {
	BaseBuilder
	// Min and Max default to AllBranches.
	Min int
	Max int
}

func NewSplitBuilder() *SplitBuilder {
	return &SplitBuilder{BaseBuilder: newBaseBuilder(), Min: AllBranches, Max: AllBranches}
}

func (b *SplitBuilder) Kind() Kind                    { return KindSplit }
func (b *SplitBuilder) Accept(v BuilderVisitor) error { return v.VisitSplit(b) }

func (b *SplitBuilder) build(h *buildHelper) (Node, error) {
	nb, err := h.base(KindSplit, &b.BaseBuilder)
	if err != nil {
		return nil, err
	}
	min, max, err := thresholds(b.ID, b.Min, b.Max, b.Successors.Len())
	if err != nil {
		return nil, err
	}
	return &SplitNode{base: nb, min: min, max: max}, nil
}

type JoinBuilder struct {
	BaseBuilder
	// Min and Max default to AllBranches.
	Min        int
	Max        int
	MultiMerge bool
	// Conditions maps predecessor ids to the condition on their edge.
	// A nil condition is the same as no condition.
	Conditions map[identifier.ID]condition.Condition
}

func NewJoinBuilder() *JoinBuilder {
	return &JoinBuilder{BaseBuilder: newBaseBuilder(), Min: AllBranches, Max: AllBranches}
}

func (b *JoinBuilder) Kind() Kind                    { return KindJoin }
func (b *JoinBuilder) Accept(v BuilderVisitor) error { return v.VisitJoin(b) }

// When sets the condition for the edge from a predecessor.
func (b *JoinBuilder) When(predecessor identifier.ID, c condition.Condition) {
	if b.Conditions == nil {
		b.Conditions = map[identifier.ID]condition.Condition{}
	}
	b.Conditions[predecessor] = c
}

func (b *JoinBuilder) build(h *buildHelper) (Node, error) {
	nb, err := h.base(KindJoin, &b.BaseBuilder)
	if err != nil {
		return nil, err
	}
	min, max, err := thresholds(b.ID, b.Min, b.Max, b.Predecessors.Len())
	if err != nil {
		return nil, err
	}

	var conditions map[identifier.ID]condition.Condition
	for pred, c := range b.Conditions {
		if !b.Predecessors.Contains(pred) {
			continue
		}
		if err := h.checkCondition(b.ID, c); err != nil {
			return nil, err
		}
		if conditions == nil {
			conditions = map[identifier.ID]condition.Condition{}
		}
		conditions[pred] = c
	}

	return &JoinNode{
		base:       nb,
		min:        min,
		max:        max,
		multiMerge: b.MultiMerge,
		conditions: conditions,
	}, nil
}

// ActivityBuilder builds a MessageActivity.
type ActivityBuilder struct {
	BaseBuilder
	Message *Message
	// Condition is optional.
	Condition condition.Condition
}

func NewActivityBuilder() *ActivityBuilder {
	return &ActivityBuilder{BaseBuilder: newBaseBuilder()}
}

func (b *ActivityBuilder) Kind() Kind                    { return KindMessageActivity }
func (b *ActivityBuilder) Accept(v BuilderVisitor) error { return v.VisitActivity(b) }

func (b *ActivityBuilder) build(h *buildHelper) (Node, error) {
	nb, err := h.base(KindMessageActivity, &b.BaseBuilder)
	if err != nil {
		return nil, err
	}
	if err := h.checkCondition(b.ID, b.Condition); err != nil {
		return nil, err
	}
	return &MessageActivity{base: nb, message: b.Message.clone(), condition: b.Condition}, nil
}

// CompositeBuilder builds a CompositeActivity.
//
// The child model is given either by reference, with ChildID naming
// a child model registered on the root builder, or embedded, with Child
// holding the child model's builder. Exactly one must be set.
type CompositeBuilder struct {
	BaseBuilder
	ChildID identifier.ID
	Child   *ChildBuilder
	// Condition is optional.
	Condition condition.Condition
}

func NewCompositeBuilder() *CompositeBuilder {
	return &CompositeBuilder{BaseBuilder: newBaseBuilder()}
}

func (b *CompositeBuilder) Kind() Kind                    { return KindCompositeActivity }
func (b *CompositeBuilder) Accept(v BuilderVisitor) error { return v.VisitComposite(b) }

func (b *CompositeBuilder) build(h *buildHelper) (Node, error) {
	nb, err := h.base(KindCompositeActivity, &b.BaseBuilder)
	if err != nil {
		return nil, err
	}
	if err := h.checkCondition(b.ID, b.Condition); err != nil {
		return nil, err
	}
	child, err := h.children.resolve(b.ID, b.ChildID)
	if err != nil {
		return nil, err
	}
	return &CompositeActivity{base: nb, child: child, condition: b.Condition}, nil
}

var (
	_ NodeBuilder = &StartBuilder{}
	_ NodeBuilder = &EndBuilder{}
	_ NodeBuilder = &EventBuilder{}
	_ NodeBuilder = &SplitBuilder{}
	_ NodeBuilder = &JoinBuilder{}
	_ NodeBuilder = &ActivityBuilder{}
	_ NodeBuilder = &CompositeBuilder{}
)
