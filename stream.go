package anvil

import (
	"encoding/json"
	"fmt"
)

// UnboundCPU is the cpubind value of a stream with no CPU pinning.
const UnboundCPU = -1

// StreamSpec is one execution context running one scheduler. Streams
// compare by identity, like pools.
type StreamSpec struct {
	name      string
	Scheduler *SchedulerSpec

	// CPUBind pins the stream to a CPU, UnboundCPU leaves it floating.
	CPUBind  int
	Affinity []int
}

// NewStreamSpec creates a stream owning the given scheduler. The name
// is frozen.
func NewStreamSpec(name string, scheduler *SchedulerSpec) (*StreamSpec, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: stream name cannot be empty", ErrInvalidField)
	}
	if scheduler == nil {
		scheduler = NewSchedulerSpec()
	}
	return &StreamSpec{
		name:      name,
		Scheduler: scheduler,
		CPUBind:   UnboundCPU,
	}, nil
}

func (x *StreamSpec) Name() string {
	return x.name
}

func (x *StreamSpec) Validate() error {
	if x.name == "" {
		return fmt.Errorf("%w: stream name cannot be empty", ErrInvalidField)
	}
	if err := x.Scheduler.Validate(); err != nil {
		return fmt.Errorf("stream %q: %w", x.name, err)
	}
	return nil
}

type streamDoc struct {
	Name      *string         `json:"name"`
	CPUBind   *int            `json:"cpubind,omitempty"`
	Affinity  []int           `json:"affinity"`
	Scheduler json.RawMessage `json:"scheduler,omitempty"`
}

func (x *StreamSpec) MarshalJSON() ([]byte, error) {
	affinity := x.Affinity
	if affinity == nil {
		affinity = []int{}
	}
	scheduler, err := json.Marshal(x.Scheduler)
	if err != nil {
		return nil, err
	}
	return json.Marshal(streamDoc{
		Name:      &x.name,
		CPUBind:   &x.CPUBind,
		Affinity:  affinity,
		Scheduler: scheduler,
	})
}

// decodeStreamSpec rebuilds a stream from its document form. The pool
// collection of the governing execution spec is needed to resolve the
// scheduler's pool references.
func decodeStreamSpec(raw json.RawMessage, pools *Collection[*PoolSpec]) (*StreamSpec, error) {
	var doc streamDoc
	if err := decodeStrict(raw, &doc); err != nil {
		return nil, err
	}
	if doc.Name == nil {
		return nil, fmt.Errorf(`%w: stream is missing required key "name"`, ErrMalformedDocument)
	}
	if doc.Scheduler == nil {
		return nil, fmt.Errorf(`%w: stream %q is missing required key "scheduler"`, ErrMalformedDocument, *doc.Name)
	}
	scheduler, err := decodeSchedulerSpec(doc.Scheduler, pools)
	if err != nil {
		return nil, err
	}
	x, err := NewStreamSpec(*doc.Name, scheduler)
	if err != nil {
		return nil, err
	}
	if doc.CPUBind != nil {
		x.CPUBind = *doc.CPUBind
	}
	x.Affinity = doc.Affinity
	return x, nil
}
