package anvil

import (
	"encoding/json"
	"fmt"
)

// Bootstrap selects how a group forms at startup.
type Bootstrap string

const (
	BootstrapInit Bootstrap = "init"
	BootstrapJoin Bootstrap = "join"
	BootstrapMPI  Bootstrap = "mpi"
	BootstrapPMIx Bootstrap = "pmix"
)

func (b Bootstrap) valid() bool {
	switch b {
	case BootstrapInit, BootstrapJoin, BootstrapMPI, BootstrapPMIx:
		return true
	}
	return false
}

// GroupSpec describes one group-membership service instance. It runs
// on a single pool, which must be registered in the runtime's execution
// spec.
type GroupSpec struct {
	name string
	Pool *PoolSpec

	Credential int64
	Bootstrap  Bootstrap
	GroupFile  string
	Swim       *SwimSpec
}

// NewGroupSpec creates a group bound to the given pool, bootstrapping
// with "init" and default failure-detector tuning. The name is frozen.
func NewGroupSpec(name string, pool *PoolSpec) (*GroupSpec, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: group name cannot be empty", ErrInvalidField)
	}
	if pool == nil {
		return nil, fmt.Errorf("%w: group %q needs a pool", ErrInvalidField, name)
	}
	return &GroupSpec{
		name:       name,
		Pool:       pool,
		Credential: -1,
		Bootstrap:  BootstrapInit,
		Swim:       NewSwimSpec(),
	}, nil
}

func (g *GroupSpec) Name() string {
	return g.name
}

func (g *GroupSpec) Validate() error {
	if g.Pool == nil {
		return fmt.Errorf("%w: group %q needs a pool", ErrInvalidField, g.name)
	}
	if !g.Bootstrap.valid() {
		return fmt.Errorf("%w: group %q bootstrap %q not in {init, join, mpi, pmix}", ErrInvalidField, g.name, g.Bootstrap)
	}
	if g.Swim == nil {
		return fmt.Errorf("%w: group %q has no swim tuning", ErrInvalidField, g.name)
	}
	if err := g.Swim.Validate(); err != nil {
		return fmt.Errorf("group %q: %w", g.name, err)
	}
	return nil
}

type groupDoc struct {
	Name       *string         `json:"name"`
	Pool       any             `json:"pool"`
	Credential *int64          `json:"credential,omitempty"`
	Bootstrap  Bootstrap       `json:"bootstrap,omitempty"`
	GroupFile  string          `json:"group_file"`
	Swim       json.RawMessage `json:"swim,omitempty"`
}

// MarshalJSON flattens the pool to its name and emits the swim tuning
// inline.
func (g *GroupSpec) MarshalJSON() ([]byte, error) {
	swim, err := json.Marshal(g.Swim)
	if err != nil {
		return nil, err
	}
	return json.Marshal(groupDoc{
		Name:       &g.name,
		Pool:       g.Pool.Name(),
		Credential: &g.Credential,
		Bootstrap:  g.Bootstrap,
		GroupFile:  g.GroupFile,
		Swim:       swim,
	})
}

// decodeGroupSpec rebuilds a group from its document form, resolving
// the pool reference against the governing pool collection.
func decodeGroupSpec(raw json.RawMessage, pools *Collection[*PoolSpec]) (*GroupSpec, error) {
	var doc groupDoc
	if err := decodeStrict(raw, &doc); err != nil {
		return nil, err
	}
	if doc.Name == nil {
		return nil, fmt.Errorf(`%w: group is missing required key "name"`, ErrMalformedDocument)
	}
	if doc.Pool == nil {
		return nil, fmt.Errorf(`%w: group %q is missing required key "pool"`, ErrMalformedDocument, *doc.Name)
	}
	pool, err := resolvePoolRef(doc.Pool, pools)
	if err != nil {
		return nil, err
	}
	g, err := NewGroupSpec(*doc.Name, pool)
	if err != nil {
		return nil, err
	}
	if doc.Credential != nil {
		g.Credential = *doc.Credential
	}
	if doc.Bootstrap != "" {
		g.Bootstrap = doc.Bootstrap
	}
	g.GroupFile = doc.GroupFile
	if doc.Swim != nil {
		g.Swim, err = decodeSwimSpec(doc.Swim)
		if err != nil {
			return nil, err
		}
	}
	return g, nil
}
