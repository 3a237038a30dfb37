package anvil

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TransportSpec carries the network address and tuning knobs of the
// RPC layer. It has no references into the rest of the tree.
type TransportSpec struct {
	Address         string `json:"address"`
	Listening       bool   `json:"listening"`
	IPSubnet        string `json:"ip_subnet"`
	AuthKey         string `json:"auth_key"`
	AutoSM          bool   `json:"auto_sm"`
	MaxContexts     int    `json:"max_contexts"`
	NoBlock         bool   `json:"no_block"`
	NoRetry         bool   `json:"no_retry"`
	NoBulkEager     bool   `json:"no_bulk_eager"`
	NoLoopback      bool   `json:"no_loopback"`
	RequestPostInit int    `json:"request_post_init"`
	RequestPostIncr int    `json:"request_post_incr"`
	Stats           bool   `json:"stats"`

	// Version is informational only, nothing in the model interprets it.
	Version string `json:"version"`
}

// NewTransportSpec wraps an address, or a bare protocol such as
// "na+sm", with default tuning.
func NewTransportSpec(address string) *TransportSpec {
	return &TransportSpec{
		Address:         address,
		Listening:       true,
		MaxContexts:     1,
		RequestPostInit: 256,
		RequestPostIncr: 256,
		Version:         "unknown",
	}
}

// Protocol is the part of the address before the first colon. An
// address without a colon is already a bare protocol.
func (t *TransportSpec) Protocol() string {
	proto, _, _ := strings.Cut(t.Address, ":")
	return proto
}

func (t *TransportSpec) Validate() error {
	if t.Address == "" {
		return fmt.Errorf("%w: transport address cannot be empty", ErrInvalidField)
	}
	if t.MaxContexts <= 0 {
		return fmt.Errorf("%w: max_contexts = %d, should be > 0", ErrInvalidField, t.MaxContexts)
	}
	if t.RequestPostInit < 0 {
		return fmt.Errorf("%w: request_post_init = %d, should be >= 0", ErrInvalidField, t.RequestPostInit)
	}
	if t.RequestPostIncr < 0 {
		return fmt.Errorf("%w: request_post_incr = %d, should be >= 0", ErrInvalidField, t.RequestPostIncr)
	}
	return nil
}

// UnmarshalJSON decodes a standalone transport document, rejecting
// unknown keys and applying defaults for absent ones.
func (t *TransportSpec) UnmarshalJSON(raw []byte) error {
	decoded, err := decodeTransportSpec(raw)
	if err != nil {
		return err
	}
	*t = *decoded
	return nil
}

func decodeTransportSpec(raw json.RawMessage) (*TransportSpec, error) {
	var doc struct {
		Address         *string `json:"address"`
		Listening       *bool   `json:"listening,omitempty"`
		IPSubnet        *string `json:"ip_subnet,omitempty"`
		AuthKey         *string `json:"auth_key,omitempty"`
		AutoSM          *bool   `json:"auto_sm,omitempty"`
		MaxContexts     *int    `json:"max_contexts,omitempty"`
		NoBlock         *bool   `json:"no_block,omitempty"`
		NoRetry         *bool   `json:"no_retry,omitempty"`
		NoBulkEager     *bool   `json:"no_bulk_eager,omitempty"`
		NoLoopback      *bool   `json:"no_loopback,omitempty"`
		RequestPostInit *int    `json:"request_post_init,omitempty"`
		RequestPostIncr *int    `json:"request_post_incr,omitempty"`
		Stats           *bool   `json:"stats,omitempty"`
		Version         *string `json:"version,omitempty"`
	}
	if err := decodeStrict(raw, &doc); err != nil {
		return nil, err
	}
	if doc.Address == nil {
		return nil, fmt.Errorf(`%w: transport is missing required key "address"`, ErrMalformedDocument)
	}
	t := NewTransportSpec(*doc.Address)
	if doc.Listening != nil {
		t.Listening = *doc.Listening
	}
	if doc.IPSubnet != nil {
		t.IPSubnet = *doc.IPSubnet
	}
	if doc.AuthKey != nil {
		t.AuthKey = *doc.AuthKey
	}
	if doc.AutoSM != nil {
		t.AutoSM = *doc.AutoSM
	}
	if doc.MaxContexts != nil {
		t.MaxContexts = *doc.MaxContexts
	}
	if doc.NoBlock != nil {
		t.NoBlock = *doc.NoBlock
	}
	if doc.NoRetry != nil {
		t.NoRetry = *doc.NoRetry
	}
	if doc.NoBulkEager != nil {
		t.NoBulkEager = *doc.NoBulkEager
	}
	if doc.NoLoopback != nil {
		t.NoLoopback = *doc.NoLoopback
	}
	if doc.RequestPostInit != nil {
		t.RequestPostInit = *doc.RequestPostInit
	}
	if doc.RequestPostIncr != nil {
		t.RequestPostIncr = *doc.RequestPostIncr
	}
	if doc.Stats != nil {
		t.Stats = *doc.Stats
	}
	if doc.Version != nil {
		t.Version = *doc.Version
	}
	return t, nil
}
