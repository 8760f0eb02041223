package flowmodel

import (
	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
)

// Hash is the vertex hash of a node in a model graph.
var Hash = func(n Node) string {
	return n.ID().String()
}

// Graph returns the model as a directed acyclic graph, with an
// edge from every node to each of its successors.
//
// Vertices have "label" and "shape" attributes, so the graph can be
// drawn with the graph/draw package.
func (m *ProcessModel) Graph() (graph.Graph[string, Node], error) {
	g := graph.New(Hash, graph.Directed(), graph.PreventCycles())

	for _, n := range m.nodes {
		err := g.AddVertex(n,
			graph.VertexAttribute("label", n.String()),
			graph.VertexAttribute("shape", shape(n.Kind())),
		)
		if err != nil {
			return nil, errors.Wrapf(err, "adding vertex %s", n.ID())
		}
	}

	for _, n := range m.nodes {
		for _, succ := range n.Successors() {
			err := g.AddEdge(n.ID().String(), succ.String())
			if err != nil {
				return nil, errors.Wrapf(err, "adding edge %s -> %s", n.ID(), succ)
			}
		}
	}
	return g, nil
}

// shape is the graphviz node shape for a kind.
func shape(k Kind) string {
	switch k {
	case KindStart:
		return "circle"
	case KindEnd:
		return "doublecircle"
	case KindSplit, KindJoin:
		return "diamond"
	case KindEvent:
		return "ellipse"
	case KindCompositeActivity:
		return "box3d"
	}
	return "box"
}
