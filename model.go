package flowmodel

import (
	"github.com/common-fate/flowmodel/pkg/binding"
	"github.com/common-fate/flowmodel/pkg/identifier"
	"github.com/google/uuid"
)

// ProcessModel is a compiled, immutable graph of nodes.
//
// Once compiled, a model is a read-only fact table and is safe to
// share between goroutines.
type ProcessModel struct {
	nodes   []Node
	index   map[identifier.ID]Node
	imports []binding.Result
	exports []binding.Define
	root    *RootModel
}

func (m *ProcessModel) add(n Node) {
	if m.index == nil {
		m.index = map[identifier.ID]Node{}
	}
	m.nodes = append(m.nodes, n)
	m.index[n.ID()] = n
}

// Node looks up a node by id.
func (m *ProcessModel) Node(id identifier.ID) (Node, bool) {
	n, ok := m.index[id]
	return n, ok
}

// Nodes returns the model's nodes, in the order they were built.
func (m *ProcessModel) Nodes() []Node {
	out := make([]Node, len(m.nodes))
	copy(out, m.nodes)
	return out
}

// Len returns the number of nodes in the model.
func (m *ProcessModel) Len() int {
	return len(m.nodes)
}

// StartNodes returns the nodes where execution begins.
func (m *ProcessModel) StartNodes() []*StartNode {
	var out []*StartNode
	for _, n := range m.nodes {
		if s, ok := n.(*StartNode); ok {
			out = append(out, s)
		}
	}
	return out
}

// EndNodes returns the model's end nodes.
func (m *ProcessModel) EndNodes() []*EndNode {
	var out []*EndNode
	for _, n := range m.nodes {
		if e, ok := n.(*EndNode); ok {
			out = append(out, e)
		}
	}
	return out
}

// Imports are the data values the model receives.
func (m *ProcessModel) Imports() []binding.Result { return binding.CloneResults(m.imports) }

// Exports are the data values the model produces.
func (m *ProcessModel) Exports() []binding.Define { return binding.CloneDefines(m.exports) }

// RootModel returns the root model which contains this model.
// For a root model it returns the model itself.
func (m *ProcessModel) RootModel() *RootModel { return m.root }

// Visit calls Accept on every node in order,
// stopping at the first error.
func (m *ProcessModel) Visit(v Visitor) error {
	for _, n := range m.nodes {
		if err := n.Accept(v); err != nil {
			return err
		}
	}
	return nil
}

// builder reproduces the model's nodes as a builder graph.
func (m *ProcessModel) builder() Builder {
	b := Builder{
		Imports: binding.CloneResults(m.imports),
		Exports: binding.CloneDefines(m.exports),
	}
	for _, n := range m.nodes {
		b.Nodes = append(b.Nodes, n.Builder())
	}
	return b
}

// RootModel is a top level process model.
// It owns the child models run by its composite activities.
type RootModel struct {
	ProcessModel
	name       string
	owner      string
	uuid       uuid.UUID
	roles      []string
	children   []*ChildModel
	childIndex map[identifier.ID]*ChildModel
}

func (m *RootModel) Name() string    { return m.name }
func (m *RootModel) Owner() string   { return m.owner }
func (m *RootModel) UUID() uuid.UUID { return m.uuid }

// Roles returns the roles which may start instances of the model.
func (m *RootModel) Roles() []string {
	if len(m.roles) == 0 {
		return nil
	}
	out := make([]string, len(m.roles))
	copy(out, m.roles)
	return out
}

// ChildModels returns the child models, in the order they were registered.
func (m *RootModel) ChildModels() []*ChildModel {
	out := make([]*ChildModel, len(m.children))
	copy(out, m.children)
	return out
}

// ChildModel looks up a child model by id.
func (m *RootModel) ChildModel(id identifier.ID) (*ChildModel, bool) {
	c, ok := m.childIndex[id]
	return c, ok
}

// Builder returns a new builder graph seeded from the model.
// Changes to the builder do not affect the model.
func (m *RootModel) Builder() *RootBuilder {
	rb := &RootBuilder{
		Builder: m.ProcessModel.builder(),
		Name:    m.name,
		Owner:   m.owner,
		UUID:    m.uuid,
		Roles:   m.Roles(),
	}
	for _, c := range m.children {
		rb.ChildModels = append(rb.ChildModels, c.Builder())
	}
	return rb
}

// ChildModel is a process model nested within a root model.
type ChildModel struct {
	ProcessModel
	id identifier.ID
}

func (m *ChildModel) ID() identifier.ID { return m.id }

// Builder returns a new builder seeded from the child model.
func (m *ChildModel) Builder() *ChildBuilder {
	return &ChildBuilder{Builder: m.ProcessModel.builder(), ID: m.id}
}
