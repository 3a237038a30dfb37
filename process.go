package anvil

import (
	"encoding/json"
	"fmt"
)

// ProcessSpec is the document root: one runtime, the auxiliary
// instances deployed next to it, and the dynamic libraries the runtime
// must load to serve them.
type ProcessSpec struct {
	Runtime *RuntimeSpec

	// Libraries maps provider names to loadable library paths.
	Libraries map[string]string

	ioInstances Collection[*IoSpec]
	groups      Collection[*GroupSpec]
}

// NewProcessSpec builds a process around an existing runtime spec.
func NewProcessSpec(runtime *RuntimeSpec) *ProcessSpec {
	return &ProcessSpec{
		Runtime:   runtime,
		Libraries: make(map[string]string),
	}
}

// NewProcessSpecFromAddress is shorthand for a process whose runtime
// wraps a raw transport address.
func NewProcessSpecFromAddress(address string) *ProcessSpec {
	return NewProcessSpec(NewRuntimeSpecFromAddress(address))
}

func (p *ProcessSpec) IoInstances() *Collection[*IoSpec] {
	return &p.ioInstances
}

func (p *ProcessSpec) Groups() *Collection[*GroupSpec] {
	return &p.groups
}

// NewIo creates an I/O instance bound to pool and registers it.
func (p *ProcessSpec) NewIo(name string, pool *PoolSpec) (*IoSpec, error) {
	io, err := NewIoSpec(name, pool)
	if err != nil {
		return nil, err
	}
	if err := p.ioInstances.Append(io); err != nil {
		return nil, err
	}
	return io, nil
}

// NewGroup creates a group bound to pool and registers it.
func (p *ProcessSpec) NewGroup(name string, pool *PoolSpec) (*GroupSpec, error) {
	g, err := NewGroupSpec(name, pool)
	if err != nil {
		return nil, err
	}
	if err := p.groups.Append(g); err != nil {
		return nil, err
	}
	return g, nil
}

// Validate checks the runtime sub-tree first, then that every
// auxiliary instance runs on a pool registered in the runtime's
// execution spec.
func (p *ProcessSpec) Validate() error {
	if p.Runtime == nil {
		return fmt.Errorf("%w: process has no runtime", ErrInvalidField)
	}
	if err := p.Runtime.Validate(); err != nil {
		return err
	}
	pools := p.Runtime.Execution.Pools()
	for io := range p.ioInstances.All() {
		if err := io.Validate(); err != nil {
			return err
		}
		if !pools.Contains(io.Pool) {
			return fmt.Errorf("%w: pool %q used by io instance %q", ErrDanglingPool, io.Pool.Name(), io.Name())
		}
	}
	for g := range p.groups.All() {
		if err := g.Validate(); err != nil {
			return err
		}
		if !pools.Contains(g.Pool) {
			return fmt.Errorf("%w: pool %q used by group %q", ErrDanglingPool, g.Pool.Name(), g.Name())
		}
	}
	return nil
}

type processDoc struct {
	Runtime   json.RawMessage   `json:"runtime"`
	Io        []json.RawMessage `json:"io"`
	Ssg       []json.RawMessage `json:"ssg"`
	Libraries json.RawMessage   `json:"libraries,omitempty"`
}

func (p *ProcessSpec) MarshalJSON() ([]byte, error) {
	runtime, err := json.Marshal(p.Runtime)
	if err != nil {
		return nil, err
	}
	doc := processDoc{
		Runtime: runtime,
		Io:      make([]json.RawMessage, 0, p.ioInstances.Len()),
		Ssg:     make([]json.RawMessage, 0, p.groups.Len()),
	}
	for io := range p.ioInstances.All() {
		raw, err := json.Marshal(io)
		if err != nil {
			return nil, err
		}
		doc.Io = append(doc.Io, raw)
	}
	for g := range p.groups.All() {
		raw, err := json.Marshal(g)
		if err != nil {
			return nil, err
		}
		doc.Ssg = append(doc.Ssg, raw)
	}
	libs := p.Libraries
	if libs == nil {
		// A nil map is a valid empty mapping, it must not encode as null.
		libs = map[string]string{}
	}
	doc.Libraries, err = json.Marshal(libs)
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// Encode serializes the process to its canonical document form. The
// output is deterministic: struct keys keep declaration order and map
// keys are sorted, so encoding the same tree twice is byte-identical.
func (p *ProcessSpec) Encode() ([]byte, error) {
	return json.Marshal(p)
}

// ParseProcessSpec decodes a process document bottom-up: the runtime
// first, which yields the pool registry every auxiliary entry resolves
// its reference against.
func ParseProcessSpec(data []byte) (*ProcessSpec, error) {
	var doc processDoc
	if err := decodeStrict(data, &doc); err != nil {
		return nil, err
	}
	if doc.Runtime == nil {
		return nil, fmt.Errorf(`%w: document is missing required key "runtime"`, ErrMalformedDocument)
	}
	runtime, err := decodeRuntimeSpec(doc.Runtime)
	if err != nil {
		return nil, err
	}
	p := NewProcessSpec(runtime)
	pools := runtime.Execution.Pools()
	for _, raw := range doc.Io {
		io, err := decodeIoSpec(raw, pools)
		if err != nil {
			return nil, err
		}
		if err := p.ioInstances.Append(io); err != nil {
			return nil, err
		}
	}
	for _, raw := range doc.Ssg {
		g, err := decodeGroupSpec(raw, pools)
		if err != nil {
			return nil, err
		}
		if err := p.groups.Append(g); err != nil {
			return nil, err
		}
	}
	if doc.Libraries != nil {
		p.Libraries, err = decodeLibraries(doc.Libraries)
		if err != nil {
			return nil, err
		}
	}
	return p, nil
}

// decodeLibraries parses the provider-to-path mapping. Values must all
// be strings; JSON guarantees string keys but a YAML authoring source
// does not, which strict decoding of the normalized form still catches.
func decodeLibraries(raw json.RawMessage) (map[string]string, error) {
	var loose map[string]any
	if err := decodeStrict(raw, &loose); err != nil {
		return nil, err
	}
	libs := make(map[string]string, len(loose))
	for name, path := range loose {
		s, ok := path.(string)
		if !ok {
			return nil, fmt.Errorf("%w: library %q path must be a string, got %T", ErrInvalidField, name, path)
		}
		libs[name] = s
	}
	return libs, nil
}
