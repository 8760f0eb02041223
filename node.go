package flowmodel

import (
	"fmt"

	"github.com/common-fate/flowmodel/pkg/binding"
	"github.com/common-fate/flowmodel/pkg/condition"
	"github.com/common-fate/flowmodel/pkg/identifier"
)

// Node is a compiled, immutable process model node.
//
// The set of node variants is closed: StartNode, EndNode, EventNode,
// SplitNode, JoinNode, MessageActivity and CompositeActivity.
// Use a Visitor to handle every variant.
type Node interface {
	identifier.Identified
	Kind() Kind
	Label() string
	Position() Position
	IsMultiInstance() bool
	Defines() []binding.Define
	Results() []binding.Result
	Predecessors() []identifier.ID
	Successors() []identifier.ID
	HasPredecessor(id identifier.ID) bool
	HasSuccessor(id identifier.ID) bool
	MaxPredecessorCount() int
	MaxSuccessorCount() int
	// OwnerModel is the model which contains the node.
	OwnerModel() *ProcessModel
	// Builder returns a new builder which compiles to an equivalent node.
	Builder() NodeBuilder
	// Accept calls the Visitor method for the node's variant.
	Accept(v Visitor) error

	fmt.Stringer
	node()
}

// Visitor handles every node variant.
// Adding a variant adds a method here, so that every
// visitor must be updated to handle it.
type Visitor interface {
	VisitStart(n *StartNode) error
	VisitEnd(n *EndNode) error
	VisitEvent(n *EventNode) error
	VisitSplit(n *SplitNode) error
	VisitJoin(n *JoinNode) error
	VisitMessageActivity(n *MessageActivity) error
	VisitCompositeActivity(n *CompositeActivity) error
}

// base holds the fields shared by every node.
type base struct {
	id            identifier.ID
	kind          Kind
	label         string
	position      Position
	multiInstance bool
	defines       []binding.Define
	results       []binding.Result
	predecessors  *identifier.Set
	successors    *identifier.Set
	owner         *ProcessModel
}

// newBase copies the shared builder fields into a node, enforcing
// the kind's predecessor and successor limits.
func newBase(kind Kind, b *BaseBuilder, owner *ProcessModel) (base, error) {
	preds, err := identifier.NewBoundedSet(kind.MaxPredecessors(), b.Predecessors.Slice()...)
	if err != nil {
		return base{}, arityError(b.ID, kind, "predecessors", b.Predecessors.Len(), kind.MaxPredecessors())
	}
	succs, err := identifier.NewBoundedSet(kind.MaxSuccessors(), b.Successors.Slice()...)
	if err != nil {
		return base{}, arityError(b.ID, kind, "successors", b.Successors.Len(), kind.MaxSuccessors())
	}
	return base{
		id:            b.ID,
		kind:          kind,
		label:         b.Label,
		position:      b.Position,
		multiInstance: b.MultiInstance,
		defines:       binding.CloneDefines(b.Defines),
		results:       binding.CloneResults(b.Results),
		predecessors:  preds,
		successors:    succs,
		owner:         owner,
	}, nil
}

func (n *base) node() {}

func (n *base) ID() identifier.ID                    { return n.id }
func (n *base) Kind() Kind                           { return n.kind }
func (n *base) Label() string                        { return n.label }
func (n *base) Position() Position                   { return n.position }
func (n *base) IsMultiInstance() bool                { return n.multiInstance }
func (n *base) Defines() []binding.Define            { return binding.CloneDefines(n.defines) }
func (n *base) Results() []binding.Result            { return binding.CloneResults(n.results) }
func (n *base) Predecessors() []identifier.ID        { return n.predecessors.Slice() }
func (n *base) Successors() []identifier.ID          { return n.successors.Slice() }
func (n *base) MaxPredecessorCount() int             { return n.kind.MaxPredecessors() }
func (n *base) MaxSuccessorCount() int               { return n.kind.MaxSuccessors() }
func (n *base) OwnerModel() *ProcessModel            { return n.owner }
func (n *base) HasPredecessor(id identifier.ID) bool { return n.predecessors.Contains(id) }
func (n *base) HasSuccessor(id identifier.ID) bool   { return n.successors.Contains(id) }

func (n *base) String() string {
	return fmt.Sprintf("%s: %s", n.kind, n.id)
}

// baseBuilder reproduces the shared fields as a builder.
func (n *base) baseBuilder() BaseBuilder {
	return BaseBuilder{
		ID:            n.id,
		Label:         n.label,
		Position:      n.position,
		MultiInstance: n.multiInstance,
		Defines:       binding.CloneDefines(n.defines),
		Results:       binding.CloneResults(n.results),
		Predecessors:  *n.predecessors.Clone(),
		Successors:    *n.successors.Clone(),
	}
}

// StartNode is where execution of a process model begins.
type StartNode struct {
	base
}

func (n *StartNode) Accept(v Visitor) error { return v.VisitStart(n) }

func (n *StartNode) Builder() NodeBuilder {
	return &StartBuilder{BaseBuilder: n.baseBuilder()}
}

// EndNode finishes a branch of execution.
type EndNode struct {
	base
}

func (n *EndNode) Accept(v Visitor) error { return v.VisitEnd(n) }

func (n *EndNode) Builder() NodeBuilder {
	return &EndBuilder{BaseBuilder: n.baseBuilder()}
}

// Predecessor returns the node which leads to the end node.
func (n *EndNode) Predecessor() (identifier.ID, bool) {
	return n.predecessors.Single()
}

// EventNode is a generic event which execution waits on.
type EventNode struct {
	base
	eventType string
}

func (n *EventNode) Accept(v Visitor) error { return v.VisitEvent(n) }

func (n *EventNode) Builder() NodeBuilder {
	return &EventBuilder{BaseBuilder: n.baseBuilder(), EventType: n.eventType}
}

// EventType describes what the event waits for, e.g. "timer".
func (n *EventNode) EventType() string { return n.eventType }

// SplitNode fans execution out to each of its successors.
type SplitNode struct {
	base
	min int
	max int
}

func (n *SplitNode) Accept(v Visitor) error { return v.VisitSplit(n) }

func (n *SplitNode) Builder() NodeBuilder {
	return &SplitBuilder{BaseBuilder: n.baseBuilder(), Min: n.min, Max: n.max}
}

// Min is the fewest branches which must complete for the split to be satisfied.
func (n *SplitNode) Min() int { return n.min }

// Max is the most branches which may complete.
func (n *SplitNode) Max() int { return n.max }

func (n *SplitNode) String() string {
	return fmt.Sprintf("split: %s [%d..%d]", n.id, n.min, n.max)
}

// JoinNode synchronises its predecessors into a single successor.
type JoinNode struct {
	base
	min        int
	max        int
	multiMerge bool
	conditions map[identifier.ID]condition.Condition
}

func (n *JoinNode) Accept(v Visitor) error { return v.VisitJoin(n) }

func (n *JoinNode) Builder() NodeBuilder {
	return &JoinBuilder{
		BaseBuilder: n.baseBuilder(),
		Min:         n.min,
		Max:         n.max,
		MultiMerge:  n.multiMerge,
		Conditions:  n.Conditions(),
	}
}

// Min is the fewest predecessors which must complete for the join to fire.
func (n *JoinNode) Min() int { return n.min }

// Max is the most predecessors which are waited on.
func (n *JoinNode) Max() int { return n.max }

// IsMultiMerge returns true if the join fires for each wave of
// incoming branches rather than only once.
func (n *JoinNode) IsMultiMerge() bool { return n.multiMerge }

// Condition returns the condition on the edge from a predecessor,
// or nil if the edge is unconditional.
func (n *JoinNode) Condition(predecessor identifier.ID) condition.Condition {
	return n.conditions[predecessor]
}

// Conditions returns a copy of the per-predecessor conditions.
// Predecessors without a condition may be absent or map to nil.
func (n *JoinNode) Conditions() map[identifier.ID]condition.Condition {
	if n.conditions == nil {
		return nil
	}
	out := make(map[identifier.ID]condition.Condition, len(n.conditions))
	for k, v := range n.conditions {
		out[k] = v
	}
	return out
}

func (n *JoinNode) String() string {
	return fmt.Sprintf("join: %s [%d..%d]", n.id, n.min, n.max)
}

// Message describes the service invocation performed by a MessageActivity.
type Message struct {
	Service     string `yaml:"service,omitempty"`
	Endpoint    string `yaml:"endpoint,omitempty"`
	Operation   string `yaml:"operation,omitempty"`
	ContentType string `yaml:"contentType,omitempty"`
	Body        string `yaml:"body,omitempty"`
}

func (m *Message) clone() *Message {
	if m == nil {
		return nil
	}
	c := *m
	return &c
}

// MessageActivity is a unit of work performed by sending a message.
type MessageActivity struct {
	base
	message   *Message
	condition condition.Condition
}

func (n *MessageActivity) Accept(v Visitor) error { return v.VisitMessageActivity(n) }

func (n *MessageActivity) Builder() NodeBuilder {
	return &ActivityBuilder{BaseBuilder: n.baseBuilder(), Message: n.message.clone(), Condition: n.condition}
}

// Message returns a copy of the activity's message, or nil.
func (n *MessageActivity) Message() *Message { return n.message.clone() }

// Condition returns the activity's condition, or nil if it is unconditional.
func (n *MessageActivity) Condition() condition.Condition { return n.condition }

// CompositeActivity is an activity which runs a child model.
type CompositeActivity struct {
	base
	child     *ChildModel
	condition condition.Condition
}

func (n *CompositeActivity) Accept(v Visitor) error { return v.VisitCompositeActivity(n) }

// Builder returns a reference builder pointing at the same child model id.
func (n *CompositeActivity) Builder() NodeBuilder {
	return &CompositeBuilder{BaseBuilder: n.baseBuilder(), ChildID: n.child.ID(), Condition: n.condition}
}

// ChildModel is the model executed by the activity.
func (n *CompositeActivity) ChildModel() *ChildModel { return n.child }

// Condition returns the activity's condition, or nil if it is unconditional.
func (n *CompositeActivity) Condition() condition.Condition { return n.condition }

func (n *CompositeActivity) String() string {
	return fmt.Sprintf("composite: %s (%s)", n.id, n.child.ID())
}

var (
	_ Node = &StartNode{}
	_ Node = &EndNode{}
	_ Node = &EventNode{}
	_ Node = &SplitNode{}
	_ Node = &JoinNode{}
	_ Node = &MessageActivity{}
	_ Node = &CompositeActivity{}
)
