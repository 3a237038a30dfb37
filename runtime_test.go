package anvil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRuntimeSpec_Defaults(t *testing.T) {
	r := NewRuntimeSpecFromAddress("na+sm")
	require.Equal(t, "na+sm", r.Transport.Address)
	require.Equal(t, 100, r.ProgressTimeoutMsec)
	require.Equal(t, 32, r.HandleCacheSize)

	primary, err := r.Execution.Pools().Get(PrimaryName)
	require.NoError(t, err)
	require.Same(t, primary, r.ProgressPool)
	require.Same(t, primary, r.RPCPool)
	require.NoError(t, r.Validate())
}

func TestNewRuntimeSpecFromMap(t *testing.T) {
	t.Run("full field map", func(t *testing.T) {
		r, err := NewRuntimeSpecFromMap(map[string]any{
			"transport": map[string]any{"address": "ofi+tcp"},
			"execution": map[string]any{
				"pools":   []any{map[string]any{"name": "p0"}},
				"streams": []any{map[string]any{"name": "es0", "scheduler": map[string]any{"type": "basic", "pools": []any{"p0"}}}},
			},
			"progress_pool": "p0",
			"rpc_pool":      "p0",
		})
		require.NoError(t, err)
		require.Equal(t, "ofi+tcp", r.Transport.Protocol())
		require.Equal(t, "p0", r.ProgressPool.Name())
		require.NoError(t, r.Validate())
	})

	t.Run("missing transport", func(t *testing.T) {
		_, err := NewRuntimeSpecFromMap(map[string]any{
			"execution": map[string]any{"pools": []any{}, "streams": []any{}},
		})
		require.ErrorIs(t, err, ErrMalformedDocument)
	})
}

func TestRuntimeSpec_Validate(t *testing.T) {
	t.Run("unset designated pool", func(t *testing.T) {
		r := NewRuntimeSpecFromAddress("na+sm")
		r.ProgressPool = nil
		require.ErrorIs(t, r.Validate(), ErrMissingPool)
	})

	t.Run("designated pool from another execution spec", func(t *testing.T) {
		r := NewRuntimeSpecFromAddress("na+sm")
		foreign := NewExecutionSpec()
		foreignPool, err := foreign.Pools().Get(PrimaryName)
		require.NoError(t, err)

		r.RPCPool = foreignPool
		require.ErrorIs(t, r.Validate(), ErrDanglingPool)
	})

	t.Run("repointing to a registered pool", func(t *testing.T) {
		r := NewRuntimeSpecFromAddress("na+sm")
		rpc, err := r.Execution.NewPool("rpc")
		require.NoError(t, err)
		_, err = r.Execution.NewStream("es-rpc", NewSchedulerSpec(rpc))
		require.NoError(t, err)

		r.RPCPool = rpc
		require.NoError(t, r.Validate())
	})

	t.Run("invalid transport bubbles up", func(t *testing.T) {
		r := NewRuntimeSpecFromAddress("")
		require.ErrorIs(t, r.Validate(), ErrInvalidField)
	})

	t.Run("missing sub-trees", func(t *testing.T) {
		r := NewRuntimeSpecFromAddress("na+sm")
		r.Transport = nil
		require.ErrorIs(t, r.Validate(), ErrInvalidField)

		r = NewRuntimeSpecFromAddress("na+sm")
		r.Execution = nil
		require.ErrorIs(t, r.Validate(), ErrInvalidField)
	})
}
