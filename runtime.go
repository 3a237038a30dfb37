package anvil

import (
	"encoding/json"
	"fmt"
)

// RuntimeSpec wires a transport and an execution spec together and
// designates the two pools the runtime itself runs on: one driving
// network progress, one running RPC handlers.
type RuntimeSpec struct {
	Transport *TransportSpec
	Execution *ExecutionSpec

	// ProgressPool and RPCPool must be registered in Execution. They
	// default to the first execution pool and may be repointed freely
	// before validation.
	ProgressPool *PoolSpec
	RPCPool      *PoolSpec

	ProgressTimeoutMsec  int
	HandleCacheSize      int
	ProfileTimesliceMsec int
	EnableProfiling      bool
	EnableDiagnostics    bool
}

// NewRuntimeSpec builds a runtime around an existing transport, with a
// baseline execution spec. Designated pools default to the first pool
// of the execution spec as an explicit post-construction step.
func NewRuntimeSpec(transport *TransportSpec) *RuntimeSpec {
	r := &RuntimeSpec{
		Transport:            transport,
		Execution:            NewExecutionSpec(),
		ProgressTimeoutMsec:  100,
		HandleCacheSize:      32,
		ProfileTimesliceMsec: 1000,
	}
	r.defaultPools()
	return r
}

// NewRuntimeSpecFromAddress is shorthand wrapping a raw address.
func NewRuntimeSpecFromAddress(address string) *RuntimeSpec {
	return NewRuntimeSpec(NewTransportSpec(address))
}

// NewRuntimeSpecFromMap builds a runtime from a loose field map, as
// handed over by a generic JSON or YAML decode of the runtime
// document. It goes through the same strict bottom-up path as
// ParseProcessSpec.
func NewRuntimeSpecFromMap(fields map[string]any) (*RuntimeSpec, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	return decodeRuntimeSpec(raw)
}

// defaultPools points unset designated pools at the first execution
// pool, if there is one.
func (r *RuntimeSpec) defaultPools() {
	first, err := r.Execution.Pools().At(0)
	if err != nil {
		return
	}
	if r.ProgressPool == nil {
		r.ProgressPool = first
	}
	if r.RPCPool == nil {
		r.RPCPool = first
	}
}

// Validate checks the owned sub-trees, then that both designated pools
// are set and registered in the execution spec.
func (r *RuntimeSpec) Validate() error {
	if r.Transport == nil {
		return fmt.Errorf("%w: runtime has no transport", ErrInvalidField)
	}
	if r.Execution == nil {
		return fmt.Errorf("%w: runtime has no execution spec", ErrInvalidField)
	}
	if err := r.Transport.Validate(); err != nil {
		return err
	}
	if err := r.Execution.Validate(); err != nil {
		return err
	}
	if r.ProgressPool == nil {
		return fmt.Errorf("%w: progress_pool", ErrMissingPool)
	}
	if r.RPCPool == nil {
		return fmt.Errorf("%w: rpc_pool", ErrMissingPool)
	}
	if !r.Execution.Pools().Contains(r.ProgressPool) {
		return fmt.Errorf("%w: progress_pool %q", ErrDanglingPool, r.ProgressPool.Name())
	}
	if !r.Execution.Pools().Contains(r.RPCPool) {
		return fmt.Errorf("%w: rpc_pool %q", ErrDanglingPool, r.RPCPool.Name())
	}
	return nil
}

type runtimeDoc struct {
	Transport            json.RawMessage `json:"transport"`
	Execution            json.RawMessage `json:"execution"`
	ProgressPool         *string         `json:"progress_pool"`
	RPCPool              *string         `json:"rpc_pool"`
	ProgressTimeoutMsec  *int            `json:"progress_timeout_ub_msec,omitempty"`
	HandleCacheSize      *int            `json:"handle_cache_size,omitempty"`
	ProfileTimesliceMsec *int            `json:"profile_sparkline_timeslice_msec,omitempty"`
	EnableProfiling      *bool           `json:"enable_profiling,omitempty"`
	EnableDiagnostics    *bool           `json:"enable_diagnostics,omitempty"`
}

// MarshalJSON emits the owned sub-trees inline and the designated
// pools as name strings, or null when unset.
func (r *RuntimeSpec) MarshalJSON() ([]byte, error) {
	transport, err := json.Marshal(r.Transport)
	if err != nil {
		return nil, err
	}
	execution, err := json.Marshal(r.Execution)
	if err != nil {
		return nil, err
	}
	doc := runtimeDoc{
		Transport:            transport,
		Execution:            execution,
		ProgressTimeoutMsec:  &r.ProgressTimeoutMsec,
		HandleCacheSize:      &r.HandleCacheSize,
		ProfileTimesliceMsec: &r.ProfileTimesliceMsec,
		EnableProfiling:      &r.EnableProfiling,
		EnableDiagnostics:    &r.EnableDiagnostics,
	}
	if r.ProgressPool != nil {
		name := r.ProgressPool.Name()
		doc.ProgressPool = &name
	}
	if r.RPCPool != nil {
		name := r.RPCPool.Name()
		doc.RPCPool = &name
	}
	return json.Marshal(doc)
}

// decodeRuntimeSpec rebuilds a runtime spec bottom-up: the execution
// spec is decoded first so the designated pool names can be resolved
// against its freshly populated pool collection.
func decodeRuntimeSpec(raw json.RawMessage) (*RuntimeSpec, error) {
	var doc runtimeDoc
	if err := decodeStrict(raw, &doc); err != nil {
		return nil, err
	}
	if doc.Transport == nil {
		return nil, fmt.Errorf(`%w: runtime is missing required key "transport"`, ErrMalformedDocument)
	}
	if doc.Execution == nil {
		return nil, fmt.Errorf(`%w: runtime is missing required key "execution"`, ErrMalformedDocument)
	}
	execution, err := decodeExecutionSpec(doc.Execution)
	if err != nil {
		return nil, err
	}
	transport, err := decodeTransportSpec(doc.Transport)
	if err != nil {
		return nil, err
	}
	r := &RuntimeSpec{
		Transport:            transport,
		Execution:            execution,
		ProgressTimeoutMsec:  100,
		HandleCacheSize:      32,
		ProfileTimesliceMsec: 1000,
	}
	if doc.ProgressPool != nil {
		r.ProgressPool, err = resolvePoolRef(*doc.ProgressPool, execution.Pools())
		if err != nil {
			return nil, err
		}
	}
	if doc.RPCPool != nil {
		r.RPCPool, err = resolvePoolRef(*doc.RPCPool, execution.Pools())
		if err != nil {
			return nil, err
		}
	}
	if doc.ProgressTimeoutMsec != nil {
		r.ProgressTimeoutMsec = *doc.ProgressTimeoutMsec
	}
	if doc.HandleCacheSize != nil {
		r.HandleCacheSize = *doc.HandleCacheSize
	}
	if doc.ProfileTimesliceMsec != nil {
		r.ProfileTimesliceMsec = *doc.ProfileTimesliceMsec
	}
	if doc.EnableProfiling != nil {
		r.EnableProfiling = *doc.EnableProfiling
	}
	if doc.EnableDiagnostics != nil {
		r.EnableDiagnostics = *doc.EnableDiagnostics
	}
	return r, nil
}
