package anvil

import (
	"encoding/json"
	"fmt"
)

// SchedulerType selects the scheduling policy of a stream.
type SchedulerType string

const (
	SchedulerDefault   SchedulerType = "default"
	SchedulerBasic     SchedulerType = "basic"
	SchedulerPrio      SchedulerType = "prio"
	SchedulerRandWS    SchedulerType = "randws"
	SchedulerBasicWait SchedulerType = "basic_wait"
)

func (t SchedulerType) valid() bool {
	switch t {
	case SchedulerDefault, SchedulerBasic, SchedulerPrio, SchedulerRandWS, SchedulerBasicWait:
		return true
	}
	return false
}

// SchedulerSpec is a scheduling policy plus the ordered pools it draws
// from. Pools are referenced, not owned: they must all be registered in
// the execution spec that owns the surrounding stream, which
// ExecutionSpec.Validate checks.
type SchedulerSpec struct {
	Type  SchedulerType
	Pools []*PoolSpec
}

// NewSchedulerSpec builds a scheduler with the default policy.
func NewSchedulerSpec(pools ...*PoolSpec) *SchedulerSpec {
	return &SchedulerSpec{
		Type:  SchedulerBasicWait,
		Pools: pools,
	}
}

func (s *SchedulerSpec) Validate() error {
	if !s.Type.valid() {
		return fmt.Errorf("%w: scheduler type %q not in {default, basic, prio, randws, basic_wait}", ErrInvalidField, s.Type)
	}
	if len(s.Pools) == 0 {
		return ErrEmptyPoolList
	}
	return nil
}

type schedulerDoc struct {
	Type  SchedulerType `json:"type"`
	Pools []any         `json:"pools"`
}

// MarshalJSON flattens pool references to their names.
func (s *SchedulerSpec) MarshalJSON() ([]byte, error) {
	names := make([]any, len(s.Pools))
	for i, p := range s.Pools {
		names[i] = p.Name()
	}
	return json.Marshal(schedulerDoc{Type: s.Type, Pools: names})
}

// decodeSchedulerSpec rebuilds a scheduler from its document form. Pool
// entries are names or positional indices, so the pool collection of
// the governing execution spec is needed to resolve them.
func decodeSchedulerSpec(raw json.RawMessage, pools *Collection[*PoolSpec]) (*SchedulerSpec, error) {
	var doc schedulerDoc
	if err := decodeStrict(raw, &doc); err != nil {
		return nil, err
	}
	s := NewSchedulerSpec()
	if doc.Type != "" {
		s.Type = doc.Type
	}
	for _, ref := range doc.Pools {
		p, err := resolvePoolRef(ref, pools)
		if err != nil {
			return nil, err
		}
		s.Pools = append(s.Pools, p)
	}
	return s, nil
}
