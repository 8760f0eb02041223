// Package identifier contains the opaque node identifiers used to
// reference nodes in a process model, and the ordered sets used to
// hold predecessor and successor references.
package identifier

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ID is an opaque node identifier.
// Two identifiers are equal if their string forms are equal.
type ID string

func (id ID) String() string {
	return string(id)
}

// IsZero returns true if the identifier has not been set.
func (id ID) IsZero() bool {
	return id == ""
}

// Identified is anything which exposes an identifier.
type Identified interface {
	ID() ID
}

// Unbounded is used as the maximum size of a set which has no capacity limit.
const Unbounded = -1

// ErrCapacity is returned when adding to a bounded set which is already full.
var ErrCapacity = errors.New("identifier set is at capacity")

// Set is an insertion-ordered set of identifiers.
//
// The zero value is an empty, unbounded set.
type Set struct {
	items []ID
	index map[ID]struct{}
	// max is only enforced when bounded is true.
	max     int
	bounded bool
}

// NewSet creates an unbounded set containing ids.
// Duplicate ids are ignored.
func NewSet(ids ...ID) *Set {
	s := &Set{}
	for _, id := range ids {
		_ = s.Add(id)
	}
	return s
}

// NewBoundedSet creates a set which can hold at most max identifiers.
// Passing Unbounded creates a set with no limit.
func NewBoundedSet(max int, ids ...ID) (*Set, error) {
	s := &Set{}
	if max != Unbounded {
		s.max = max
		s.bounded = true
	}
	for _, id := range ids {
		if err := s.Add(id); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Max returns the capacity of the set, or Unbounded.
func (s *Set) Max() int {
	if !s.bounded {
		return Unbounded
	}
	return s.max
}

// Add an identifier to the set. Adding an identifier which is
// already present is a no-op.
func (s *Set) Add(id ID) error {
	if s.Contains(id) {
		return nil
	}
	if s.bounded && len(s.items) >= s.max {
		return errors.Wrapf(ErrCapacity, "adding %s (max %d)", id, s.max)
	}
	if s.index == nil {
		s.index = map[ID]struct{}{}
	}
	s.items = append(s.items, id)
	s.index[id] = struct{}{}
	return nil
}

// Contains returns true if id is in the set.
func (s *Set) Contains(id ID) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[id]
	return ok
}

// Remove id from the set, returning true if it was present.
func (s *Set) Remove(id ID) bool {
	if !s.Contains(id) {
		return false
	}
	delete(s.index, id)
	for i, item := range s.items {
		if item == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	return true
}

// Replace swaps old for new in place, keeping its position.
// If new is already present, old is removed instead.
// It returns false if old was not in the set.
func (s *Set) Replace(old, new ID) bool {
	if !s.Contains(old) {
		return false
	}
	if s.Contains(new) {
		return s.Remove(old)
	}
	for i, item := range s.items {
		if item == old {
			s.items[i] = new
			break
		}
	}
	delete(s.index, old)
	s.index[new] = struct{}{}
	return true
}

// Clear removes all identifiers, keeping the capacity limit.
func (s *Set) Clear() {
	s.items = nil
	s.index = nil
}

// Len returns the number of identifiers in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// IsEmpty returns true if the set contains no identifiers.
func (s *Set) IsEmpty() bool {
	return s.Len() == 0
}

// Slice returns a copy of the identifiers, in insertion order.
func (s *Set) Slice() []ID {
	if s.Len() == 0 {
		return nil
	}
	out := make([]ID, len(s.items))
	copy(out, s.items)
	return out
}

// Single returns the only identifier in the set.
// It returns false if the set does not contain exactly one identifier.
func (s *Set) Single() (ID, bool) {
	if s.Len() != 1 {
		return "", false
	}
	return s.items[0], true
}

// Equal returns true if both sets hold the same identifiers in the same order.
func (s *Set) Equal(other *Set) bool {
	if s.Len() != other.Len() {
		return false
	}
	for i, id := range s.items {
		if other.items[i] != id {
			return false
		}
	}
	return true
}

// Clone returns an unbounded copy of the set.
func (s *Set) Clone() *Set {
	return NewSet(s.Slice()...)
}

func (s *Set) String() string {
	var parts []string
	for _, id := range s.Slice() {
		parts = append(parts, id.String())
	}
	return fmt.Sprintf("{%s}", strings.Join(parts, ", "))
}

// Fresh returns the lowest-numbered identifier of the form
// "<base><n>" (n >= 1) for which taken returns false.
func Fresh(base string, taken func(ID) bool) ID {
	for n := 1; ; n++ {
		id := ID(base + strconv.Itoa(n))
		if !taken(id) {
			return id
		}
	}
}
