package anvil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// decodeStrict unmarshals raw into v, rejecting unknown keys. Every
// decode in this package funnels through here so stray or ill-typed
// keys consistently surface as ErrMalformedDocument.
func decodeStrict(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	return nil
}

// resolvePoolRef resolves a document-level pool reference, which may be
// a name or a positional index, against a pool collection.
func resolvePoolRef(ref any, pools *Collection[*PoolSpec]) (*PoolSpec, error) {
	switch r := ref.(type) {
	case string:
		if p, ok := pools.Lookup(r); ok {
			return p, nil
		}
		return nil, fmt.Errorf("%w: no pool named %q", ErrUnresolvedReference, r)
	case float64:
		// encoding/json hands numbers back as float64.
		if r != math.Trunc(r) {
			return nil, fmt.Errorf("%w: pool index %v is not an integer", ErrTypeMismatch, r)
		}
		p, err := pools.At(int(r))
		if err != nil {
			return nil, fmt.Errorf("%w: pool index %d out of range", ErrUnresolvedReference, int(r))
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: pool reference must be a name or an index, got %T", ErrTypeMismatch, ref)
	}
}

// ParseYAML decodes a YAML rendition of the process document. YAML is
// an authoring convenience only: the document is normalized and pushed
// through the same bottom-up JSON decode path, so the JSON shape stays
// the single wire contract.
func ParseYAML(data []byte) (*ProcessSpec, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	return ParseProcessSpec(normalized)
}
