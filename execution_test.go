package anvil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExecutionSpec_Baseline(t *testing.T) {
	e := NewExecutionSpec()
	require.Equal(t, 1, e.Pools().Len())
	require.Equal(t, 1, e.Streams().Len())

	pool, err := e.Pools().Get(PrimaryName)
	require.NoError(t, err)
	require.Equal(t, PoolFifoWait, pool.Kind)
	require.Equal(t, AccessMPMC, pool.Access)

	stream, err := e.Streams().Get(PrimaryName)
	require.NoError(t, err)
	require.Equal(t, SchedulerBasicWait, stream.Scheduler.Type)
	require.Len(t, stream.Scheduler.Pools, 1)
	require.Same(t, pool, stream.Scheduler.Pools[0])
	require.Equal(t, UnboundCPU, stream.CPUBind)

	require.NoError(t, e.Validate())
}

func TestExecutionSpec_Validate(t *testing.T) {
	t.Run("field bounds", func(t *testing.T) {
		e := NewExecutionSpec()
		e.MemMaxNumStacks = -1
		require.ErrorIs(t, e.Validate(), ErrInvalidField)

		e = NewExecutionSpec()
		e.ThreadStackSize = 0
		require.ErrorIs(t, e.Validate(), ErrInvalidField)
	})

	t.Run("scheduler pool from another spec is dangling", func(t *testing.T) {
		e := NewExecutionSpec()
		foreign := NewExecutionSpec()
		foreignPool, err := foreign.Pools().Get(PrimaryName)
		require.NoError(t, err)

		_, err = e.NewStream("es1", NewSchedulerSpec(foreignPool))
		require.NoError(t, err)
		require.ErrorIs(t, e.Validate(), ErrDanglingPool)
	})

	t.Run("scheduler without pools", func(t *testing.T) {
		e := NewExecutionSpec()
		_, err := e.NewStream("es1", nil)
		require.NoError(t, err)
		require.ErrorIs(t, e.Validate(), ErrEmptyPoolList)
	})
}

func TestExecutionSpec_Builders(t *testing.T) {
	e := NewExecutionSpec()
	p, err := e.NewPool("work")
	require.NoError(t, err)
	require.True(t, e.Pools().Contains(p))

	_, err = e.NewPool("work")
	require.ErrorIs(t, err, ErrDuplicateName)

	x, err := e.NewStream("es1", NewSchedulerSpec(p))
	require.NoError(t, err)
	require.True(t, e.Streams().Contains(x))
	require.NoError(t, e.Validate())
}

func TestExecutionSpec_Decode(t *testing.T) {
	t.Run("streams resolve pools by name and index", func(t *testing.T) {
		raw := json.RawMessage(`{
			"pools": [
				{"name": "p0", "kind": "fifo", "access": "mpmc"},
				{"name": "p1", "kind": "fifo_wait", "access": "spsc"}
			],
			"streams": [
				{"name": "es0", "scheduler": {"type": "prio", "pools": ["p1", 0]}}
			]
		}`)
		e, err := decodeExecutionSpec(raw)
		require.NoError(t, err)
		require.Equal(t, 8, e.MemMaxNumStacks)

		stream, err := e.Streams().Get("es0")
		require.NoError(t, err)
		p0, err := e.Pools().Get("p0")
		require.NoError(t, err)
		p1, err := e.Pools().Get("p1")
		require.NoError(t, err)
		require.Equal(t, []*PoolSpec{p1, p0}, stream.Scheduler.Pools)
		require.NoError(t, e.Validate())
	})

	t.Run("unresolved pool name", func(t *testing.T) {
		raw := json.RawMessage(`{
			"pools": [{"name": "p0"}],
			"streams": [{"name": "es0", "scheduler": {"type": "basic", "pools": ["ghost"]}}]
		}`)
		_, err := decodeExecutionSpec(raw)
		require.ErrorIs(t, err, ErrUnresolvedReference)
	})

	t.Run("wrongly typed pool reference", func(t *testing.T) {
		raw := json.RawMessage(`{
			"pools": [{"name": "p0"}],
			"streams": [{"name": "es0", "scheduler": {"type": "basic", "pools": [true]}}]
		}`)
		_, err := decodeExecutionSpec(raw)
		require.ErrorIs(t, err, ErrTypeMismatch)
	})

	t.Run("document with a baseline clash decodes cleanly", func(t *testing.T) {
		// The decoder starts from an empty spec, so a document naming
		// __primary__ does not collide with a builtin.
		raw := json.RawMessage(`{
			"pools": [{"name": "__primary__"}],
			"streams": [{"name": "__primary__", "scheduler": {"type": "basic_wait", "pools": [0]}}]
		}`)
		e, err := decodeExecutionSpec(raw)
		require.NoError(t, err)
		require.NoError(t, e.Validate())
	})
}
