package anvil

import (
	"fmt"
	"iter"
	"slices"
)

// Named is implemented by every spec a Collection can hold. Names are
// frozen at construction time, so a collection never has to watch for
// renames invalidating its uniqueness guarantee.
type Named interface {
	Name() string
}

// Element constrains collection members: they expose an immutable name
// and compare by identity. All specs are pointers, so two elements with
// identical field values remain distinct.
type Element interface {
	comparable
	Named
}

// Collection is an ordered list of specs with unique names. All
// mutation goes through its methods so the uniqueness and membership
// invariants hold after every call.
//
// Keys passed to Get, Remove and IndexOf may be an int position or a
// string name.
type Collection[T Element] struct {
	elems []T
}

func (c *Collection[T]) Len() int {
	return len(c.elems)
}

// Lookup finds an element by name.
func (c *Collection[T]) Lookup(name string) (T, bool) {
	for _, e := range c.elems {
		if e.Name() == name {
			return e, true
		}
	}
	var zero T
	return zero, false
}

// At returns the element at position i.
func (c *Collection[T]) At(i int) (T, error) {
	var zero T
	if i < 0 || i >= len(c.elems) {
		return zero, fmt.Errorf("%w: index %d out of range [0,%d)", ErrNotFound, i, len(c.elems))
	}
	return c.elems[i], nil
}

// Get returns the element designated by key, which must be an int
// position or a string name.
func (c *Collection[T]) Get(key any) (T, error) {
	var zero T
	switch k := key.(type) {
	case int:
		return c.At(k)
	case string:
		if e, ok := c.Lookup(k); ok {
			return e, nil
		}
		return zero, fmt.Errorf("%w: no element named %q", ErrNotFound, k)
	default:
		return zero, fmt.Errorf("%w: got %T", ErrInvalidKey, key)
	}
}

// Contains reports whether e itself, not a value equal to it, is in the
// collection.
func (c *Collection[T]) Contains(e T) bool {
	return slices.Contains(c.elems, e)
}

// Append adds e at the end of the collection.
func (c *Collection[T]) Append(e T) error {
	return c.Insert(len(c.elems), e)
}

// Insert adds e at position i, shifting later elements.
func (c *Collection[T]) Insert(i int, e T) error {
	if i < 0 || i > len(c.elems) {
		return fmt.Errorf("%w: insert position %d out of range [0,%d]", ErrNotFound, i, len(c.elems))
	}
	if _, ok := c.Lookup(e.Name()); ok {
		return fmt.Errorf("%w: %q", ErrDuplicateName, e.Name())
	}
	c.elems = slices.Insert(c.elems, i, e)
	return nil
}

// Extend appends every element of batch, or none of them: the batch is
// checked in full before the first mutation.
func (c *Collection[T]) Extend(batch []T) error {
	seen := make(map[string]struct{}, len(batch))
	for _, e := range batch {
		if _, dup := seen[e.Name()]; dup {
			return fmt.Errorf("%w: %q", ErrInternalDuplicate, e.Name())
		}
		seen[e.Name()] = struct{}{}
		if _, ok := c.Lookup(e.Name()); ok {
			return fmt.Errorf("%w: %q", ErrDuplicateName, e.Name())
		}
	}
	c.elems = append(c.elems, batch...)
	return nil
}

// Remove deletes the element designated by key, which may be an int
// position, a string name, or the element itself.
func (c *Collection[T]) Remove(key any) error {
	switch k := key.(type) {
	case int:
		if k < 0 || k >= len(c.elems) {
			return fmt.Errorf("%w: index %d out of range [0,%d)", ErrNotFound, k, len(c.elems))
		}
		c.elems = slices.Delete(c.elems, k, k+1)
		return nil
	case string:
		for i, e := range c.elems {
			if e.Name() == k {
				c.elems = slices.Delete(c.elems, i, i+1)
				return nil
			}
		}
		return fmt.Errorf("%w: no element named %q", ErrNotFound, k)
	case T:
		if i := slices.Index(c.elems, k); i >= 0 {
			c.elems = slices.Delete(c.elems, i, i+1)
			return nil
		}
		// The element may be a typed nil, so its name is off limits here.
		return fmt.Errorf("%w: element not in collection", ErrNotFound)
	default:
		return fmt.Errorf("%w: got %T", ErrInvalidKey, key)
	}
}

// IndexOf returns the position of an element, given either the element
// itself or its name.
func (c *Collection[T]) IndexOf(key any) (int, error) {
	switch k := key.(type) {
	case string:
		for i, e := range c.elems {
			if e.Name() == k {
				return i, nil
			}
		}
		return -1, fmt.Errorf("%w: no element named %q", ErrNotFound, k)
	case T:
		if i := slices.Index(c.elems, k); i >= 0 {
			return i, nil
		}
		return -1, fmt.Errorf("%w: element not in collection", ErrNotFound)
	default:
		return -1, fmt.Errorf("%w: got %T", ErrInvalidKey, key)
	}
}

// Count returns how many times key occurs. Uniqueness makes the answer
// 0 or 1; the method exists so callers can probe without handling a
// not-found error.
func (c *Collection[T]) Count(key any) int {
	if _, err := c.IndexOf(key); err == nil {
		return 1
	}
	return 0
}

func (c *Collection[T]) Clear() {
	c.elems = nil
}

// Copy returns the elements in a new slice. The elements themselves are
// shared, not cloned.
func (c *Collection[T]) Copy() []T {
	return slices.Clone(c.elems)
}

// All iterates the elements in insertion order.
func (c *Collection[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, e := range c.elems {
			if !yield(e) {
				return
			}
		}
	}
}
