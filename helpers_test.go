package flowmodel

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/common-fate/flowmodel/pkg/identifier"
	"github.com/dominikbraun/graph"
)

// named sets the id of a node builder.
func named[T NodeBuilder](id identifier.ID) func(T) {
	return func(b T) {
		b.Base().ID = id
	}
}

// printAdjacencyMap prints a string representation of the adjacency map.
//
// To visually show the links between nodes in the graph,
// the output follows the pattern:
//
//	[FROM_ID] <from_node> -> [TO_ID] <to_node>
func printAdjacencyMap(t *testing.T, g graph.Graph[string, Node]) []string {
	adj, err := g.AdjacencyMap()
	if err != nil {
		t.Fatal(err)
	}

	var result []string
	for _, v := range adj {
		for _, e := range v {
			source, err := g.Vertex(e.Source)
			if err != nil {
				t.Fatal(err)
			}
			target, err := g.Vertex(e.Target)
			if err != nil {
				t.Fatal(err)
			}
			result = append(result, fmt.Sprintf("[%s] %s -> [%s] %s", source.ID(), source, target.ID(), target))
		}
	}

	sort.Strings(result)
	return result
}

func adjacency(t *testing.T, m *ProcessModel) []string {
	g, err := m.Graph()
	if err != nil {
		t.Fatal(err)
	}
	return printAdjacencyMap(t, g)
}

// describer prints every field of every node, so that two
// models can be compared structurally.
type describer struct {
	out []string
}

func describe(t *testing.T, m *ProcessModel) []string {
	d := &describer{}
	err := m.Visit(d)
	if err != nil {
		t.Fatal(err)
	}
	return d.out
}

func (d *describer) add(n Node, extra string) error {
	d.out = append(d.out, fmt.Sprintf("%s %s label=%q pos=%v mi=%v preds=%v succs=%v defines=%v results=%v %s",
		n.Kind(), n.ID(), n.Label(), n.Position(), n.IsMultiInstance(),
		n.Predecessors(), n.Successors(), n.Defines(), n.Results(), extra))
	return nil
}

func (d *describer) VisitStart(n *StartNode) error { return d.add(n, "") }
func (d *describer) VisitEnd(n *EndNode) error     { return d.add(n, "") }
func (d *describer) VisitEvent(n *EventNode) error {
	return d.add(n, "type="+n.EventType())
}
func (d *describer) VisitSplit(n *SplitNode) error {
	return d.add(n, fmt.Sprintf("min=%d max=%d", n.Min(), n.Max()))
}
func (d *describer) VisitJoin(n *JoinNode) error {
	var conds []string
	for k, v := range n.Conditions() {
		conds = append(conds, fmt.Sprintf("%s:%v", k, v))
	}
	sort.Strings(conds)
	return d.add(n, fmt.Sprintf("min=%d max=%d mm=%v conds=%s", n.Min(), n.Max(), n.IsMultiMerge(), strings.Join(conds, ",")))
}
func (d *describer) VisitMessageActivity(n *MessageActivity) error {
	return d.add(n, fmt.Sprintf("message=%+v cond=%v", n.Message(), n.Condition()))
}
func (d *describer) VisitCompositeActivity(n *CompositeActivity) error {
	return d.add(n, fmt.Sprintf("child=%s cond=%v", n.ChildModel().ID(), n.Condition()))
}
