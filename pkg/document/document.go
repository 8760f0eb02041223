// Package document reads and writes process models as YAML.
//
// A document looks like this:
//
//	name: access request
//	nodes:
//	  - id: request
//	    kind: start
//	  - id: approve
//	    kind: activity
//	    after: [request]
//	    message:
//	      service: approvals
//	  - id: granted
//	    kind: end
//	    after: [approve]
//
// Edges may be given from either side, with 'after' (predecessors)
// or 'next' (successors).
package document

import (
	"fmt"

	"github.com/common-fate/flowmodel"
	"github.com/common-fate/flowmodel/pkg/binding"
	"github.com/common-fate/flowmodel/pkg/condition"
	"github.com/common-fate/flowmodel/pkg/identifier"
	"github.com/common-fate/flowmodel/pkg/noderr"
	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Document is the serialized form of a root model.
type Document struct {
	Name     string           `yaml:"name"`
	Owner    string           `yaml:"owner,omitempty"`
	UUID     string           `yaml:"uuid,omitempty"`
	Roles    []string         `yaml:"roles,omitempty"`
	Imports  []binding.Result `yaml:"imports,omitempty"`
	Exports  []binding.Define `yaml:"exports,omitempty"`
	Nodes    []Node           `yaml:"nodes"`
	Children []Child          `yaml:"children,omitempty"`
}

// Child is the serialized form of a child model.
type Child struct {
	ID      identifier.ID    `yaml:"id"`
	Imports []binding.Result `yaml:"imports,omitempty"`
	Exports []binding.Define `yaml:"exports,omitempty"`
	Nodes   []Node           `yaml:"nodes"`
}

// Node is the serialized form of any node.
// Fields which don't apply to the node's kind are ignored.
type Node struct {
	ID            identifier.ID    `yaml:"id,omitempty"`
	Kind          string           `yaml:"kind"`
	Label         string           `yaml:"label,omitempty"`
	Position      *Position        `yaml:"position,omitempty"`
	MultiInstance bool             `yaml:"multiInstance,omitempty"`
	After         []identifier.ID  `yaml:"after,omitempty"`
	Next          []identifier.ID  `yaml:"next,omitempty"`
	Defines       []binding.Define `yaml:"defines,omitempty"`
	Results       []binding.Result `yaml:"results,omitempty"`

	// event
	EventType string `yaml:"eventType,omitempty"`

	// split and join
	Min        *int              `yaml:"min,omitempty"`
	Max        *int              `yaml:"max,omitempty"`
	MultiMerge bool              `yaml:"multiMerge,omitempty"`
	When       map[string]string `yaml:"when,omitempty"`

	// activities
	Message   *flowmodel.Message `yaml:"message,omitempty"`
	Condition string             `yaml:"condition,omitempty"`
	Child     identifier.ID      `yaml:"child,omitempty"`
}

type Position struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Unmarshal parses a process model document.
// Unknown fields are rejected.
func Unmarshal(data []byte) (*Document, error) {
	var d Document
	err := yaml.UnmarshalWithOptions(data, &d, yaml.DisallowUnknownField())
	if err != nil {
		return nil, errors.Wrap(err, "parsing process model document")
	}
	return &d, nil
}

// Builder converts the document into a root builder which can be compiled.
func (d *Document) Builder() (*flowmodel.RootBuilder, error) {
	rb := flowmodel.NewRootBuilder(d.Name)
	rb.Owner = d.Owner
	rb.Roles = append([]string(nil), d.Roles...)
	if d.UUID != "" {
		id, err := uuid.Parse(d.UUID)
		if err != nil {
			return nil, errors.Wrap(err, "$.uuid")
		}
		rb.UUID = id
	}

	err := fillBuilder(&rb.Builder, "$", d.Imports, d.Exports, d.Nodes)
	if err != nil {
		return nil, err
	}

	for i, c := range d.Children {
		cb := &flowmodel.ChildBuilder{ID: c.ID}
		err = fillBuilder(&cb.Builder, fmt.Sprintf("$.children[%d]", i), c.Imports, c.Exports, c.Nodes)
		if err != nil {
			return nil, err
		}
		rb.AddChild(cb)
	}
	return rb, nil
}

func fillBuilder(b *flowmodel.Builder, path string, imports []binding.Result, exports []binding.Define, nodes []Node) error {
	b.Imports = binding.CloneResults(imports)
	b.Exports = binding.CloneDefines(exports)
	for i, n := range nodes {
		nb, err := n.builder()
		if err != nil {
			return errors.Wrapf(err, "%s.nodes[%d]", path, i)
		}
		b.Nodes = append(b.Nodes, nb)
	}
	return nil
}

func (n Node) builder() (flowmodel.NodeBuilder, error) {
	kind, err := flowmodel.ParseKind(n.Kind)
	if err != nil {
		return nil, err
	}

	var nb flowmodel.NodeBuilder
	switch kind {
	case flowmodel.KindStart:
		nb = flowmodel.NewStartBuilder()
	case flowmodel.KindEnd:
		nb = flowmodel.NewEndBuilder()
	case flowmodel.KindEvent:
		b := flowmodel.NewEventBuilder()
		b.EventType = n.EventType
		nb = b
	case flowmodel.KindSplit:
		b := flowmodel.NewSplitBuilder()
		b.Min, b.Max = threshold(n.Min), threshold(n.Max)
		nb = b
	case flowmodel.KindJoin:
		b := flowmodel.NewJoinBuilder()
		b.Min, b.Max = threshold(n.Min), threshold(n.Max)
		b.MultiMerge = n.MultiMerge
		for pred, expr := range n.When {
			b.When(identifier.ID(pred), condition.Expr(expr))
		}
		nb = b
	case flowmodel.KindMessageActivity:
		b := flowmodel.NewActivityBuilder()
		if n.Message != nil {
			msg := *n.Message
			b.Message = &msg
		}
		b.Condition = expr(n.Condition)
		nb = b
	case flowmodel.KindCompositeActivity:
		b := flowmodel.NewCompositeBuilder()
		b.ChildID = n.Child
		b.Condition = expr(n.Condition)
		nb = b
	}

	base := nb.Base()
	base.ID = n.ID
	base.Label = n.Label
	if n.Position != nil {
		base.Position = flowmodel.Position{X: n.Position.X, Y: n.Position.Y}
	}
	base.MultiInstance = n.MultiInstance
	base.Defines = binding.CloneDefines(n.Defines)
	base.Results = binding.CloneResults(n.Results)
	base.Predecessor(n.After...)
	base.Successor(n.Next...)
	return nb, nil
}

func threshold(v *int) int {
	if v == nil {
		return flowmodel.AllBranches
	}
	return *v
}

// expr returns nil for an empty expression, so that the
// node is unconditional.
func expr(s string) condition.Condition {
	if s == "" {
		return nil
	}
	return condition.Expr(s)
}

// Paths maps node ids to their location in the document,
// e.g. "$.nodes[2]". Root graph nodes take precedence over child
// graph nodes with the same id. Nodes without an id are omitted.
func (d *Document) Paths() map[identifier.ID]string {
	paths := map[identifier.ID]string{}
	add := func(prefix string, nodes []Node) {
		for i, n := range nodes {
			if n.ID.IsZero() {
				continue
			}
			if _, ok := paths[n.ID]; ok {
				continue
			}
			paths[n.ID] = fmt.Sprintf("%s.nodes[%d]", prefix, i)
		}
	}
	add("$", d.Nodes)
	for i, c := range d.Children {
		add(fmt.Sprintf("$.children[%d]", i), c.Nodes)
	}
	return paths
}

// Compile the document. Node errors are annotated with
// the node's document path so they can be pretty printed.
func (d *Document) Compile(c *flowmodel.Compiler) (*flowmodel.RootModel, error) {
	rb, err := d.Builder()
	if err != nil {
		return nil, err
	}
	m, err := c.Compile(rb)
	if err != nil {
		return nil, noderr.Locate(err, d.Paths())
	}
	return m, nil
}
