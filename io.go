package anvil

import (
	"encoding/json"
	"fmt"
)

// IoSpec describes one I/O offload instance. All its blocking work runs
// on a single pool, which must be registered in the runtime's execution
// spec.
type IoSpec struct {
	name string
	Pool *PoolSpec
}

// NewIoSpec creates an I/O instance bound to the given pool. The name
// is frozen.
func NewIoSpec(name string, pool *PoolSpec) (*IoSpec, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: io instance name cannot be empty", ErrInvalidField)
	}
	if pool == nil {
		return nil, fmt.Errorf("%w: io instance %q needs a pool", ErrInvalidField, name)
	}
	return &IoSpec{name: name, Pool: pool}, nil
}

func (io *IoSpec) Name() string {
	return io.name
}

func (io *IoSpec) Validate() error {
	if io.Pool == nil {
		return fmt.Errorf("%w: io instance %q needs a pool", ErrInvalidField, io.name)
	}
	return nil
}

type ioDoc struct {
	Name *string `json:"name"`
	Pool any     `json:"pool"`
}

func (io *IoSpec) MarshalJSON() ([]byte, error) {
	return json.Marshal(ioDoc{
		Name: &io.name,
		Pool: io.Pool.Name(),
	})
}

// decodeIoSpec rebuilds an I/O instance, resolving the pool reference
// against the governing pool collection.
func decodeIoSpec(raw json.RawMessage, pools *Collection[*PoolSpec]) (*IoSpec, error) {
	var doc ioDoc
	if err := decodeStrict(raw, &doc); err != nil {
		return nil, err
	}
	if doc.Name == nil {
		return nil, fmt.Errorf(`%w: io instance is missing required key "name"`, ErrMalformedDocument)
	}
	if doc.Pool == nil {
		return nil, fmt.Errorf(`%w: io instance %q is missing required key "pool"`, ErrMalformedDocument, *doc.Name)
	}
	pool, err := resolvePoolRef(doc.Pool, pools)
	if err != nil {
		return nil, err
	}
	return NewIoSpec(*doc.Name, pool)
}
