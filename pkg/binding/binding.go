// Package binding contains the data bindings attached to
// process model nodes and models.
//
// A Result is an input which a node (or a model, as an import)
// receives. A Define is an output which a node (or a model, as an export)
// produces, optionally by referring to the result of another node.
package binding

import (
	"fmt"

	"github.com/common-fate/flowmodel/pkg/identifier"
)

// Result is a named data value received by a node.
type Result struct {
	Name string `yaml:"name"`
	// Path is an optional selector into the value.
	Path string `yaml:"path,omitempty"`
	// Content is an optional literal or template body.
	Content string `yaml:"content,omitempty"`
}

func (r Result) String() string {
	return fmt.Sprintf("result(%s)", r.Name)
}

// Define is a named data value produced by a node.
//
// If RefNode is set the value is taken from a result of that node.
// RefName names the result; it may be left empty when the referenced
// node has exactly one result, in which case it is resolved during
// model compilation.
type Define struct {
	Name    string        `yaml:"name"`
	RefNode identifier.ID `yaml:"refNode,omitempty"`
	RefName string        `yaml:"refName,omitempty"`
	Path    string        `yaml:"path,omitempty"`
	Content string        `yaml:"content,omitempty"`
}

// IsReference returns true if the define takes its value from another node.
func (d Define) IsReference() bool {
	return !d.RefNode.IsZero()
}

func (d Define) String() string {
	if d.IsReference() {
		return fmt.Sprintf("define(%s <- %s.%s)", d.Name, d.RefNode, d.RefName)
	}
	return fmt.Sprintf("define(%s)", d.Name)
}

// FindResult returns the result with the given name.
func FindResult(results []Result, name string) (Result, bool) {
	for _, r := range results {
		if r.Name == name {
			return r, true
		}
	}
	return Result{}, false
}

// CloneResults returns a copy of results, or nil if it is empty.
func CloneResults(results []Result) []Result {
	if len(results) == 0 {
		return nil
	}
	out := make([]Result, len(results))
	copy(out, results)
	return out
}

// CloneDefines returns a copy of defines, or nil if it is empty.
func CloneDefines(defines []Define) []Define {
	if len(defines) == 0 {
		return nil
	}
	out := make([]Define, len(defines))
	copy(out, defines)
	return out
}
