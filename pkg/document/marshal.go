package document

import (
	"github.com/common-fate/flowmodel"
	"github.com/goccy/go-yaml"
	"github.com/pkg/errors"
)

// Marshal a compiled model as a YAML document.
func Marshal(m *flowmodel.RootModel) ([]byte, error) {
	d, err := FromModel(m)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(d)
}

// FromModel converts a compiled model into a document.
// Every field is written out explicitly, including generated ids,
// injected splits and resolved thresholds.
func FromModel(m *flowmodel.RootModel) (*Document, error) {
	d := &Document{
		Name:    m.Name(),
		Owner:   m.Owner(),
		UUID:    m.UUID().String(),
		Roles:   m.Roles(),
		Imports: m.Imports(),
		Exports: m.Exports(),
	}

	var err error
	d.Nodes, err = encodeNodes(&m.ProcessModel)
	if err != nil {
		return nil, err
	}

	for _, cm := range m.ChildModels() {
		c := Child{ID: cm.ID(), Imports: cm.Imports(), Exports: cm.Exports()}
		c.Nodes, err = encodeNodes(&cm.ProcessModel)
		if err != nil {
			return nil, errors.Wrapf(err, "encoding child model %s", cm.ID())
		}
		d.Children = append(d.Children, c)
	}
	return d, nil
}

func encodeNodes(m *flowmodel.ProcessModel) ([]Node, error) {
	e := &encoder{}
	err := m.Visit(e)
	if err != nil {
		return nil, err
	}
	return e.nodes, nil
}

// encoder converts each node it visits into its serialized form.
// Only predecessors are written, as successors can be derived from them.
type encoder struct {
	nodes []Node
}

func (e *encoder) add(n flowmodel.Node, configure func(*Node)) error {
	out := Node{
		ID:            n.ID(),
		Kind:          n.Kind().String(),
		Label:         n.Label(),
		MultiInstance: n.IsMultiInstance(),
		After:         n.Predecessors(),
		Defines:       n.Defines(),
		Results:       n.Results(),
	}
	if p := n.Position(); p.IsSet() {
		out.Position = &Position{X: p.X, Y: p.Y}
	}
	if configure != nil {
		configure(&out)
	}
	e.nodes = append(e.nodes, out)
	return nil
}

func (e *encoder) VisitStart(n *flowmodel.StartNode) error { return e.add(n, nil) }
func (e *encoder) VisitEnd(n *flowmodel.EndNode) error     { return e.add(n, nil) }

func (e *encoder) VisitEvent(n *flowmodel.EventNode) error {
	return e.add(n, func(out *Node) {
		out.EventType = n.EventType()
	})
}

func (e *encoder) VisitSplit(n *flowmodel.SplitNode) error {
	return e.add(n, func(out *Node) {
		min, max := n.Min(), n.Max()
		out.Min, out.Max = &min, &max
	})
}

func (e *encoder) VisitJoin(n *flowmodel.JoinNode) error {
	return e.add(n, func(out *Node) {
		min, max := n.Min(), n.Max()
		out.Min, out.Max = &min, &max
		out.MultiMerge = n.IsMultiMerge()
		for pred, c := range n.Conditions() {
			if c == nil {
				continue
			}
			if out.When == nil {
				out.When = map[string]string{}
			}
			out.When[pred.String()] = c.String()
		}
	})
}

func (e *encoder) VisitMessageActivity(n *flowmodel.MessageActivity) error {
	return e.add(n, func(out *Node) {
		out.Message = n.Message()
		if c := n.Condition(); c != nil {
			out.Condition = c.String()
		}
	})
}

func (e *encoder) VisitCompositeActivity(n *flowmodel.CompositeActivity) error {
	return e.add(n, func(out *Node) {
		out.Child = n.ChildModel().ID()
		if c := n.Condition(); c != nil {
			out.Condition = c.String()
		}
	})
}
