package flowmodel

import (
	"github.com/common-fate/clio"
	"github.com/common-fate/flowmodel/pkg/binding"
	"github.com/common-fate/flowmodel/pkg/condition"
	"github.com/common-fate/flowmodel/pkg/identifier"
	"github.com/common-fate/flowmodel/pkg/noderr"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Compiler turns a root builder into an immutable RootModel.
//
// The zero value compiles in pedantic mode.
type Compiler struct {
	// Lenient repairs missing ids and drops dangling references
	// rather than failing.
	Lenient bool
	// Conditions, if set, is used to type-check every
	// condition.Expr in the model during compilation.
	Conditions *condition.Env
}

// Compile normalizes, validates and compiles rb.
// rb is modified by normalization; it can be compiled
// again to produce a fresh model.
func (c *Compiler) Compile(rb *RootBuilder) (*RootModel, error) {
	err := registerEmbedded(rb)
	if err != nil {
		return nil, err
	}

	err = rb.Normalize(!c.Lenient)
	if err != nil {
		return nil, errors.Wrap(err, "normalizing")
	}

	err = rb.Validate()
	if err != nil {
		return nil, errors.Wrap(err, "validating")
	}

	root := &RootModel{
		name:  rb.Name,
		owner: rb.Owner,
		uuid:  rb.UUID,
		roles: append([]string(nil), rb.Roles...),
	}
	if root.uuid == uuid.Nil {
		root.uuid = uuid.New()
	}
	root.root = root

	var reg *childRegistry
	reg = newChildRegistry(func(cb *ChildBuilder) (*ChildModel, error) {
		cm := &ChildModel{id: cb.ID}
		cm.root = root
		err := c.compileGraph(&cm.ProcessModel, &cb.Builder, reg)
		if err != nil {
			return nil, err
		}
		return cm, nil
	})
	for _, cb := range rb.ChildModels {
		err = reg.register(cb)
		if err != nil {
			return nil, err
		}
	}

	err = c.compileGraph(&root.ProcessModel, &rb.Builder, reg)
	if err != nil {
		return nil, err
	}

	root.children, err = reg.buildAll()
	if err != nil {
		return nil, err
	}
	root.childIndex = map[identifier.ID]*ChildModel{}
	for _, cm := range root.children {
		root.childIndex[cm.id] = cm
	}

	clio.Debugf("compiled model %s: %d nodes, %d child models", root.name, root.Len(), len(root.children))
	return root, nil
}

// compileGraph compiles each node builder in order into m.
func (c *Compiler) compileGraph(m *ProcessModel, b *Builder, reg *childRegistry) error {
	h := &buildHelper{
		model:      m,
		builders:   map[identifier.ID]NodeBuilder{},
		children:   reg,
		conditions: c.Conditions,
	}
	for _, nb := range b.Nodes {
		h.builders[nb.Base().ID] = nb
	}

	for _, nb := range b.Nodes {
		n, err := nb.build(h)
		if err != nil {
			return err
		}
		m.add(n)
	}

	m.imports = binding.CloneResults(b.Imports)
	exports, err := h.resolveDefines("", b.Exports)
	if err != nil {
		return err
	}
	m.exports = exports
	return nil
}

// registerEmbedded registers the child builders embedded in composite
// activities with the root, so that every composite refers to its
// child model by id.
func registerEmbedded(rb *RootBuilder) error {
	graphs := []*Builder{&rb.Builder}
	for _, cb := range rb.ChildModels {
		graphs = append(graphs, &cb.Builder)
	}

	for i := 0; i < len(graphs); i++ {
		for _, nb := range graphs[i].Nodes {
			cb, ok := nb.(*CompositeBuilder)
			if !ok || cb.Child == nil {
				continue
			}
			if !isRegistered(rb, cb.Child) {
				rb.AddChild(cb.Child)
				graphs = append(graphs, &cb.Child.Builder)
			}
			if !cb.ChildID.IsZero() && cb.ChildID != cb.Child.ID {
				return noderr.New(noderr.ErrMalformedReference, cb.ID, "composite refers to child model %s but embeds %s", cb.ChildID, cb.Child.ID).With(cb.ChildID, cb.Child.ID)
			}
			cb.ChildID = cb.Child.ID
		}
	}
	return nil
}

func isRegistered(rb *RootBuilder, cb *ChildBuilder) bool {
	for _, existing := range rb.ChildModels {
		if existing == cb {
			return true
		}
	}
	return false
}

// buildHelper is the state shared by node builders while a graph is compiled.
type buildHelper struct {
	model *ProcessModel
	// builders holds every node builder in the graph by id, so that data
	// bindings can refer to nodes which have not been compiled yet.
	builders   map[identifier.ID]NodeBuilder
	children   *childRegistry
	conditions *condition.Env
}

func (h *buildHelper) base(kind Kind, b *BaseBuilder) (base, error) {
	nb, err := newBase(kind, b, h.model)
	if err != nil {
		return base{}, err
	}
	nb.defines, err = h.resolveDefines(b.ID, b.Defines)
	if err != nil {
		return base{}, err
	}
	return nb, nil
}

// resolveDefines fills in the result name of defines which refer
// to another node by id only. The referenced node must have exactly one result.
func (h *buildHelper) resolveDefines(owner identifier.ID, defines []binding.Define) ([]binding.Define, error) {
	out := binding.CloneDefines(defines)
	for i, d := range out {
		if !d.IsReference() {
			continue
		}
		ref, ok := h.builders[d.RefNode]
		if !ok {
			return nil, noderr.New(noderr.ErrMalformedReference, owner, "define %s refers to unknown node %s", d.Name, d.RefNode).With(d.RefNode)
		}
		results := ref.Base().Results

		if d.RefName != "" {
			if _, ok := binding.FindResult(results, d.RefName); !ok {
				return nil, noderr.New(noderr.ErrMalformedReference, owner, "define %s refers to unknown result %s of node %s", d.Name, d.RefName, d.RefNode).With(d.RefNode)
			}
			continue
		}

		if len(results) != 1 {
			return nil, noderr.New(noderr.ErrAmbiguousBinding, owner, "define %s refers to node %s, which has %d results", d.Name, d.RefNode, len(results)).With(d.RefNode)
		}
		out[i].RefName = results[0].Name
	}
	return out, nil
}

func (h *buildHelper) checkCondition(owner identifier.ID, c condition.Condition) error {
	if h.conditions == nil || c == nil {
		return nil
	}
	expr, ok := c.(condition.Expr)
	if !ok {
		return nil
	}
	err := h.conditions.Check(string(expr))
	if err != nil {
		return noderr.New(noderr.ErrInvalidCondition, owner, "%q", expr).Because(err)
	}
	return nil
}
