package anvil

import "fmt"

// Engine is an already-initialized handle on the native RPC transport
// library. Engine creation itself is out of scope here, so consumers
// either pass a handle they own or a dialer able to make one from a
// transport address.
type Engine interface {
	// Address the engine is bound to, in the same form as
	// TransportSpec.Address.
	Address() string

	// Finalize releases the native resources behind the handle. It is
	// an error to use the engine afterwards.
	Finalize() error
}

// EngineDialer makes an engine from a transport address.
type EngineDialer func(address string) (Engine, error)

// Client issues control RPCs against a running instance.
type Client struct {
	engine Engine

	// owned engines were dialed by us and are finalized on Close.
	owned bool
}

// NewClient wraps an engine handle the caller keeps ownership of:
// Close will not finalize it.
func NewClient(engine Engine) (*Client, error) {
	if engine == nil {
		return nil, ErrNoEngine
	}
	return &Client{engine: engine}, nil
}

// Dial makes a client from a transport address. The engine is owned by
// the client and finalized on Close. The protocol part of the address
// must match what the deployed instance listens on.
func Dial(address string, dialer EngineDialer) (*Client, error) {
	if dialer == nil {
		return nil, ErrNoEngine
	}
	if address == "" {
		return nil, fmt.Errorf("%w: address cannot be empty", ErrClientConfig)
	}
	engine, err := dialer(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClientConfig, err)
	}
	return &Client{engine: engine, owned: true}, nil
}

// Engine exposes the underlying handle.
func (c *Client) Engine() Engine {
	return c.engine
}

// Address the client is connected through.
func (c *Client) Address() string {
	return c.engine.Address()
}

// Close finalizes the engine if the client owns it.
func (c *Client) Close() error {
	if !c.owned {
		return nil
	}
	c.owned = false
	return c.engine.Finalize()
}
