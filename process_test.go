package anvil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildProcessSpec assembles a process exercising every spec family:
// extra pools and streams, designated pools, an io instance, a group
// and a library mapping.
func buildProcessSpec(t *testing.T) *ProcessSpec {
	t.Helper()
	p := NewProcessSpecFromAddress("na+sm://proc")
	e := p.Runtime.Execution

	rpc, err := e.NewPool("rpc")
	require.NoError(t, err)
	rpc.Kind = PoolFifo
	rpc.Access = AccessMPSC
	_, err = e.NewStream("es-rpc", NewSchedulerSpec(rpc))
	require.NoError(t, err)
	p.Runtime.RPCPool = rpc

	ioPool, err := e.NewPool("io")
	require.NoError(t, err)
	_, err = e.NewStream("es-io", NewSchedulerSpec(ioPool))
	require.NoError(t, err)
	_, err = p.NewIo("abtio0", ioPool)
	require.NoError(t, err)

	g, err := p.NewGroup("g1", rpc)
	require.NoError(t, err)
	g.Bootstrap = BootstrapJoin
	g.Swim.PeriodLengthMsec = 250

	p.Libraries["module_b"] = "/usr/lib/libmodule-b.so"
	p.Libraries["module_a"] = "/usr/lib/libmodule-a.so"
	return p
}

func TestProcessSpec_RoundTrip(t *testing.T) {
	p := buildProcessSpec(t)
	require.NoError(t, p.Validate())

	first, err := p.Encode()
	require.NoError(t, err)

	parsed, err := ParseProcessSpec(first)
	require.NoError(t, err)
	require.NoError(t, parsed.Validate())

	second, err := parsed.Encode()
	require.NoError(t, err)
	require.Equal(t, string(first), string(second), "decode then re-encode is byte-identical")

	third, err := p.Encode()
	require.NoError(t, err)
	require.Equal(t, string(first), string(third), "encoding the same tree twice is byte-identical")
}

func TestProcessSpec_RoundTripNilLibraries(t *testing.T) {
	p := &ProcessSpec{Runtime: NewRuntimeSpecFromAddress("na+sm")}
	require.NoError(t, p.Validate())

	first, err := p.Encode()
	require.NoError(t, err)
	require.Contains(t, string(first), `"libraries":{}`)

	parsed, err := ParseProcessSpec(first)
	require.NoError(t, err)
	second, err := parsed.Encode()
	require.NoError(t, err)
	require.Equal(t, string(first), string(second))
}

func TestProcessSpec_ParsedIdentity(t *testing.T) {
	p := buildProcessSpec(t)
	raw, err := p.Encode()
	require.NoError(t, err)
	parsed, err := ParseProcessSpec(raw)
	require.NoError(t, err)

	// Name-based references all resolve to the one registered object.
	rpc, err := parsed.Runtime.Execution.Pools().Get("rpc")
	require.NoError(t, err)
	require.Same(t, rpc, parsed.Runtime.RPCPool)

	g, err := parsed.Groups().Get("g1")
	require.NoError(t, err)
	require.Same(t, rpc, g.Pool)

	stream, err := parsed.Runtime.Execution.Streams().Get("es-rpc")
	require.NoError(t, err)
	require.Same(t, rpc, stream.Scheduler.Pools[0])
}

func TestProcessSpec_NullDesignatedPools(t *testing.T) {
	p := NewProcessSpecFromAddress("na+sm")
	p.Runtime.ProgressPool = nil

	raw, err := p.Encode()
	require.NoError(t, err)
	require.Contains(t, string(raw), `"progress_pool":null`)

	parsed, err := ParseProcessSpec(raw)
	require.NoError(t, err)
	require.Nil(t, parsed.Runtime.ProgressPool, "null stays null, it is not re-defaulted")
	require.ErrorIs(t, parsed.Validate(), ErrMissingPool)
}

func TestProcessSpec_Validate(t *testing.T) {
	t.Run("io instance on a foreign pool", func(t *testing.T) {
		p := NewProcessSpecFromAddress("na+sm")
		foreign := mustPool(t, "elsewhere")
		_, err := p.NewIo("abtio0", foreign)
		require.NoError(t, err)
		require.ErrorIs(t, p.Validate(), ErrDanglingPool)
	})

	t.Run("group on a foreign pool", func(t *testing.T) {
		p := NewProcessSpecFromAddress("na+sm")
		foreign := mustPool(t, "elsewhere")
		_, err := p.NewGroup("g1", foreign)
		require.NoError(t, err)
		require.ErrorIs(t, p.Validate(), ErrDanglingPool)
	})

	t.Run("no runtime", func(t *testing.T) {
		p := &ProcessSpec{}
		require.ErrorIs(t, p.Validate(), ErrInvalidField)
	})
}

func TestParseProcessSpec_Malformed(t *testing.T) {
	t.Run("not json", func(t *testing.T) {
		_, err := ParseProcessSpec([]byte("not a document"))
		require.ErrorIs(t, err, ErrMalformedDocument)
	})

	t.Run("missing runtime", func(t *testing.T) {
		_, err := ParseProcessSpec([]byte(`{"io": []}`))
		require.ErrorIs(t, err, ErrMalformedDocument)
	})

	t.Run("unknown top-level key", func(t *testing.T) {
		_, err := ParseProcessSpec([]byte(`{"runtime": {}, "surprise": 1}`))
		require.ErrorIs(t, err, ErrMalformedDocument)
	})

	t.Run("non-string library path", func(t *testing.T) {
		p := NewProcessSpecFromAddress("na+sm")
		raw, err := p.Encode()
		require.NoError(t, err)

		var doc map[string]any
		require.NoError(t, json.Unmarshal(raw, &doc))
		doc["libraries"] = map[string]any{"module_a": 7}
		raw, err = json.Marshal(doc)
		require.NoError(t, err)

		_, err = ParseProcessSpec(raw)
		require.ErrorIs(t, err, ErrInvalidField)
	})
}

func TestParseYAML(t *testing.T) {
	t.Run("equivalent to the json form", func(t *testing.T) {
		doc := []byte(`
runtime:
  transport:
    address: ofi+tcp
  execution:
    pools:
      - name: p0
      - name: p1
        access: spsc
    streams:
      - name: es0
        scheduler:
          type: prio
          pools: [p0, 1]
  progress_pool: p0
  rpc_pool: p1
io:
  - name: abtio0
    pool: p1
ssg: []
libraries:
  module_a: /usr/lib/libmodule-a.so
`)
		p, err := ParseYAML(doc)
		require.NoError(t, err)
		require.NoError(t, p.Validate())
		require.Equal(t, "ofi+tcp", p.Runtime.Transport.Protocol())
		require.Equal(t, "p1", p.Runtime.RPCPool.Name())

		io, err := p.IoInstances().Get("abtio0")
		require.NoError(t, err)
		require.Same(t, p.Runtime.RPCPool, io.Pool)
	})

	t.Run("stray keys are rejected too", func(t *testing.T) {
		_, err := ParseYAML([]byte("runtime:\n  transport:\n    address: na+sm\n  execution:\n    pools: []\n    streams: []\nextra: 1\n"))
		require.ErrorIs(t, err, ErrMalformedDocument)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := ParseYAML([]byte("runtime: [unclosed"))
		require.ErrorIs(t, err, ErrMalformedDocument)
	})
}
