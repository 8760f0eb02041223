package noderr

import (
	"testing"

	"github.com/common-fate/flowmodel/pkg/identifier"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeError(t *testing.T) {
	cause := errors.New("boom")
	err := error(New(ErrMalformedReference, "a", "successor %s does not exist", "b").With("b").Because(cause))

	wrapped := errors.Wrap(err, "building model")

	assert.True(t, errors.Is(wrapped, ErrMalformedReference))
	assert.False(t, errors.Is(wrapped, ErrCycle))
	assert.True(t, errors.Is(wrapped, cause))

	var ne *NodeError
	require.True(t, errors.As(wrapped, &ne))
	assert.Equal(t, identifier.ID("a"), ne.ID)
	assert.Equal(t, []identifier.ID{"b"}, ne.Related)
	assert.EqualError(t, err, "malformed reference: node a: successor b does not exist: boom")
}

func TestNodeError_NoID(t *testing.T) {
	err := New(ErrMissingIdentifier, "", "start node at index %d", 0)
	assert.EqualError(t, err, "missing identifier: start node at index 0")
}

func TestLocate(t *testing.T) {
	err := errors.Wrap(New(ErrCycle, "b", "back edge"), "validating")
	err = Locate(err, map[identifier.ID]string{"b": "$.nodes[1]"})

	var ne *NodeError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, "$.nodes[1]", ne.Path)
}

func TestNodeError_PrettyPrint(t *testing.T) {
	yml := `
nodes:
  - start:
      id: s
  - activity:
      id: a
`
	ne := New(ErrUnreachableNode, "a", "")
	ne.Path = "$.nodes[1]"

	out, err := ne.PrettyPrint([]byte(yml))
	require.NoError(t, err)
	assert.Contains(t, out, "activity")

	_, err = New(ErrCycle, "x", "").PrettyPrint([]byte(yml))
	assert.Error(t, err)
}
