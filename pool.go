package anvil

import (
	"encoding/json"
	"fmt"
)

// PoolKind selects the queueing discipline of a pool.
type PoolKind string

const (
	PoolFifo     PoolKind = "fifo"
	PoolFifoWait PoolKind = "fifo_wait"
)

func (k PoolKind) valid() bool {
	switch k {
	case PoolFifo, PoolFifoWait:
		return true
	}
	return false
}

// PoolAccess describes which producer/consumer combinations a pool
// must support.
type PoolAccess string

const (
	AccessPrivate PoolAccess = "private"
	AccessSPSC    PoolAccess = "spsc"
	AccessMPSC    PoolAccess = "mpsc"
	AccessSPMC    PoolAccess = "spmc"
	AccessMPMC    PoolAccess = "mpmc"
)

func (a PoolAccess) valid() bool {
	switch a {
	case AccessPrivate, AccessSPSC, AccessMPSC, AccessSPMC, AccessMPMC:
		return true
	}
	return false
}

// PoolSpec describes one worker pool schedulers draw work from. Pools
// compare by identity: the same *PoolSpec used in two places is the
// same pool, and two pools may legitimately share kind and access.
type PoolSpec struct {
	name   string
	Kind   PoolKind
	Access PoolAccess
}

// NewPoolSpec creates a pool with the default kind and access. The name
// is frozen.
func NewPoolSpec(name string) (*PoolSpec, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: pool name cannot be empty", ErrInvalidField)
	}
	return &PoolSpec{
		name:   name,
		Kind:   PoolFifoWait,
		Access: AccessMPMC,
	}, nil
}

func (p *PoolSpec) Name() string {
	return p.name
}

func (p *PoolSpec) Validate() error {
	if p.name == "" {
		return fmt.Errorf("%w: pool name cannot be empty", ErrInvalidField)
	}
	if !p.Kind.valid() {
		return fmt.Errorf("%w: pool %q kind %q not in {fifo, fifo_wait}", ErrInvalidField, p.name, p.Kind)
	}
	if !p.Access.valid() {
		return fmt.Errorf("%w: pool %q access %q not in {private, spsc, mpsc, spmc, mpmc}", ErrInvalidField, p.name, p.Access)
	}
	return nil
}

type poolDoc struct {
	Name   *string     `json:"name"`
	Kind   *PoolKind   `json:"kind,omitempty"`
	Access *PoolAccess `json:"access,omitempty"`
}

func (p *PoolSpec) MarshalJSON() ([]byte, error) {
	return json.Marshal(poolDoc{
		Name:   &p.name,
		Kind:   &p.Kind,
		Access: &p.Access,
	})
}

// UnmarshalJSON decodes a standalone pool document. Pools carry no
// references, so no registry context is needed.
func (p *PoolSpec) UnmarshalJSON(raw []byte) error {
	decoded, err := decodePoolSpec(raw)
	if err != nil {
		return err
	}
	*p = *decoded
	return nil
}

func decodePoolSpec(raw json.RawMessage) (*PoolSpec, error) {
	var doc poolDoc
	if err := decodeStrict(raw, &doc); err != nil {
		return nil, err
	}
	if doc.Name == nil {
		return nil, fmt.Errorf(`%w: pool is missing required key "name"`, ErrMalformedDocument)
	}
	p, err := NewPoolSpec(*doc.Name)
	if err != nil {
		return nil, err
	}
	if doc.Kind != nil {
		p.Kind = *doc.Kind
	}
	if doc.Access != nil {
		p.Access = *doc.Access
	}
	return p, nil
}
