// Package noderr contains the errors returned
// when a process model cannot be constructed.
//
// Every error is a NodeError wrapping one of the sentinel kinds
// below, so callers can check the kind with errors.Is and locate
// the offending node with errors.As.
package noderr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/common-fate/flowmodel/pkg/identifier"
	"github.com/goccy/go-yaml"
)

var (
	// ErrMalformedReference is returned when a predecessor, successor,
	// child model or data binding refers to something which does not exist.
	ErrMalformedReference = errors.New("malformed reference")
	// ErrMissingIdentifier is returned in pedantic mode when a node has no id.
	ErrMissingIdentifier = errors.New("missing identifier")
	// ErrDuplicateIdentifier is returned when two nodes share an id.
	ErrDuplicateIdentifier = errors.New("duplicate identifier")
	// ErrArity is returned when a node has more predecessors or
	// successors than its kind allows.
	ErrArity = errors.New("arity violation")
	// ErrCycle is returned when the successor graph contains a cycle.
	ErrCycle = errors.New("cycle detected")
	// ErrUnreachableNode is returned when a node can't be reached from any start node.
	ErrUnreachableNode = errors.New("unreachable node")
	// ErrAmbiguousBinding is returned when a define refers to a node's
	// result by node id only, and the node does not have exactly one result.
	ErrAmbiguousBinding = errors.New("ambiguous data binding")
	// ErrCyclicChildModel is returned when building a child model
	// requires building itself.
	ErrCyclicChildModel = errors.New("cyclic child model")
	// ErrUnregisteredChild is returned when a composite activity refers
	// to a child model id which was never registered.
	ErrUnregisteredChild = errors.New("unregistered child reference")
	// ErrInvalidThreshold is returned when split or join min/max values are out of range.
	ErrInvalidThreshold = errors.New("invalid threshold")
	// ErrInvalidCondition is returned when a condition fails type-checking.
	ErrInvalidCondition = errors.New("invalid condition")
)

// NodeError is a construction error tied to a particular node.
type NodeError struct {
	// Kind is one of the sentinel errors in this package.
	Kind error
	// ID of the offending node. May be empty when the node has no id.
	ID identifier.ID
	// Related holds other node or child ids involved in the error,
	// such as the target of a dangling edge or the nodes in a cycle.
	Related []identifier.ID
	// Path is the location of the node in a source document, if known.
	// e.g. "$.nodes[2]"
	Path string
	// Msg contains additional detail.
	Msg string
	// Err is an underlying cause, if any.
	Err error
}

// New creates a NodeError of a particular kind.
func New(kind error, id identifier.ID, format string, args ...any) *NodeError {
	return &NodeError{Kind: kind, ID: id, Msg: fmt.Sprintf(format, args...)}
}

// With sets the related ids of the error.
func (ne *NodeError) With(related ...identifier.ID) *NodeError {
	ne.Related = append(ne.Related, related...)
	return ne
}

// Because sets the underlying cause of the error.
func (ne *NodeError) Because(err error) *NodeError {
	ne.Err = err
	return ne
}

func (ne *NodeError) Error() string {
	var sb strings.Builder
	sb.WriteString(ne.Kind.Error())
	if !ne.ID.IsZero() {
		sb.WriteString(": node ")
		sb.WriteString(ne.ID.String())
	}
	if ne.Msg != "" {
		sb.WriteString(": ")
		sb.WriteString(ne.Msg)
	}
	if ne.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(ne.Err.Error())
	}
	return sb.String()
}

// Is matches the error kind, so that errors.Is(err, ErrCycle) works.
func (ne *NodeError) Is(target error) bool {
	return ne.Kind == target
}

func (ne *NodeError) Unwrap() error {
	return ne.Err
}

// PrettyPrint the error along with the YAML source of the node.
func (ne *NodeError) PrettyPrint(yml []byte) (string, error) {
	if ne.Path == "" {
		return "", fmt.Errorf("no document path for node %s", ne.ID)
	}
	path, err := yaml.PathString(ne.Path)
	if err != nil {
		return "", err
	}
	source, err := path.AnnotateSource(yml, true)
	if err != nil {
		return "", err
	}
	return string(source), nil
}

// Locate sets the document path on err if it is a NodeError
// without a path, using paths to look up the path for the node id.
func Locate(err error, paths map[identifier.ID]string) error {
	var ne *NodeError
	if errors.As(err, &ne) && ne.Path == "" {
		ne.Path = paths[ne.ID]
	}
	return err
}
