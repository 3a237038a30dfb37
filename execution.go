package anvil

import (
	"encoding/json"
	"fmt"
)

// PrimaryName is the name of the pool and stream every fresh execution
// spec starts with.
const PrimaryName = "__primary__"

// ExecutionSpec owns the pools and streams of one runtime instance. It
// is the registry every pool reference in the tree must resolve into.
type ExecutionSpec struct {
	// MemMaxNumStacks caps the number of pre-allocated thread stacks.
	MemMaxNumStacks int

	// ThreadStackSize is the default stack size of runtime threads.
	ThreadStackSize int

	// Version is informational only.
	Version string

	pools   Collection[*PoolSpec]
	streams Collection[*StreamSpec]
}

// NewExecutionSpec returns the zero-configuration baseline: one
// __primary__ pool and one __primary__ stream scheduled on it.
func NewExecutionSpec() *ExecutionSpec {
	e := newEmptyExecutionSpec()
	pool, err := e.NewPool(PrimaryName)
	if err != nil {
		panic(fmt.Sprintf("anvil: primary pool: %s", err))
	}
	if _, err := e.NewStream(PrimaryName, NewSchedulerSpec(pool)); err != nil {
		panic(fmt.Sprintf("anvil: primary stream: %s", err))
	}
	return e
}

// newEmptyExecutionSpec is the decode entry point: decoding must start
// without the baseline pool and stream or document names would collide
// with them.
func newEmptyExecutionSpec() *ExecutionSpec {
	return &ExecutionSpec{
		MemMaxNumStacks: 8,
		ThreadStackSize: 2097152,
		Version:         "unknown",
	}
}

func (e *ExecutionSpec) Pools() *Collection[*PoolSpec] {
	return &e.pools
}

func (e *ExecutionSpec) Streams() *Collection[*StreamSpec] {
	return &e.streams
}

// NewPool creates a pool and registers it.
func (e *ExecutionSpec) NewPool(name string) (*PoolSpec, error) {
	p, err := NewPoolSpec(name)
	if err != nil {
		return nil, err
	}
	if err := e.pools.Append(p); err != nil {
		return nil, err
	}
	return p, nil
}

// NewStream creates a stream running the given scheduler and registers
// it. A nil scheduler gets the default policy with no pools, which will
// not validate until pools are assigned.
func (e *ExecutionSpec) NewStream(name string, scheduler *SchedulerSpec) (*StreamSpec, error) {
	x, err := NewStreamSpec(name, scheduler)
	if err != nil {
		return nil, err
	}
	if err := e.streams.Append(x); err != nil {
		return nil, err
	}
	return x, nil
}

// AddPool registers an externally created pool.
func (e *ExecutionSpec) AddPool(p *PoolSpec) error {
	return e.pools.Append(p)
}

// AddStream registers an externally created stream.
func (e *ExecutionSpec) AddStream(x *StreamSpec) error {
	return e.streams.Append(x)
}

// Validate checks local fields, then every owned stream and pool, then
// the cross-reference invariant: each pool used by a stream's scheduler
// must be registered here, as the same object.
func (e *ExecutionSpec) Validate() error {
	if e.MemMaxNumStacks < 0 {
		return fmt.Errorf("%w: abt_mem_max_num_stacks = %d, should be >= 0", ErrInvalidField, e.MemMaxNumStacks)
	}
	if e.ThreadStackSize <= 0 {
		return fmt.Errorf("%w: abt_thread_stacksize = %d, should be > 0", ErrInvalidField, e.ThreadStackSize)
	}
	for x := range e.streams.All() {
		if err := x.Validate(); err != nil {
			return err
		}
		for _, p := range x.Scheduler.Pools {
			if !e.pools.Contains(p) {
				return fmt.Errorf("%w: pool %q used by stream %q", ErrDanglingPool, p.Name(), x.Name())
			}
		}
	}
	for p := range e.pools.All() {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

type executionDoc struct {
	MemMaxNumStacks *int              `json:"abt_mem_max_num_stacks,omitempty"`
	ThreadStackSize *int              `json:"abt_thread_stacksize,omitempty"`
	Version         *string           `json:"version,omitempty"`
	Pools           []json.RawMessage `json:"pools"`
	Streams         []json.RawMessage `json:"streams"`
}

func (e *ExecutionSpec) MarshalJSON() ([]byte, error) {
	doc := executionDoc{
		MemMaxNumStacks: &e.MemMaxNumStacks,
		ThreadStackSize: &e.ThreadStackSize,
		Version:         &e.Version,
		Pools:           make([]json.RawMessage, 0, e.pools.Len()),
		Streams:         make([]json.RawMessage, 0, e.streams.Len()),
	}
	for p := range e.pools.All() {
		raw, err := json.Marshal(p)
		if err != nil {
			return nil, err
		}
		doc.Pools = append(doc.Pools, raw)
	}
	for x := range e.streams.All() {
		raw, err := json.Marshal(x)
		if err != nil {
			return nil, err
		}
		doc.Streams = append(doc.Streams, raw)
	}
	return json.Marshal(doc)
}

// decodeExecutionSpec rebuilds an execution spec bottom-up: pools
// first, so that stream decoding can resolve scheduler references
// against the partially built spec.
func decodeExecutionSpec(raw json.RawMessage) (*ExecutionSpec, error) {
	var doc executionDoc
	if err := decodeStrict(raw, &doc); err != nil {
		return nil, err
	}
	e := newEmptyExecutionSpec()
	if doc.MemMaxNumStacks != nil {
		e.MemMaxNumStacks = *doc.MemMaxNumStacks
	}
	if doc.ThreadStackSize != nil {
		e.ThreadStackSize = *doc.ThreadStackSize
	}
	if doc.Version != nil {
		e.Version = *doc.Version
	}
	for _, rawPool := range doc.Pools {
		p, err := decodePoolSpec(rawPool)
		if err != nil {
			return nil, err
		}
		if err := e.pools.Append(p); err != nil {
			return nil, err
		}
	}
	for _, rawStream := range doc.Streams {
		x, err := decodeStreamSpec(rawStream, &e.pools)
		if err != nil {
			return nil, err
		}
		if err := e.streams.Append(x); err != nil {
			return nil, err
		}
	}
	return e, nil
}
