package rflow_test

import (
	"testing"

	"github.com/gordian-engine/riptide/rflow"
	"github.com/gordian-engine/riptide/rflow/rflowtest"
	"github.com/gordian-engine/riptide/rsched"
	"github.com/stretchr/testify/require"
)

func TestPublisher_pushWithoutObserversDropsItems(t *testing.T) {
	t.Parallel()

	coord := rsched.NewManual()
	p := rflow.NewPublisher[int](coord)

	require.False(t, p.HasObservers())
	p.Push(1, 2, 3)
	coord.RunAll()

	o := rflowtest.NewRecordingObserver[int]()
	p.Subscribe(o)
	o.Sub.Request(10)
	coord.RunAll()

	// Nothing pushed before the subscription arrives.
	require.Empty(t, o.Items)
	require.Equal(t, 10, p.Demand())
}

func TestPublisher_demandAndBufferedTrackSlowestObserver(t *testing.T) {
	t.Parallel()

	coord := rsched.NewManual()
	p := rflow.NewPublisher[string](coord)

	fast := rflowtest.NewRecordingObserver[string]()
	slow := rflowtest.NewRecordingObserver[string]()
	p.Subscribe(fast)
	p.Subscribe(slow)

	fast.Sub.Request(8)
	slow.Sub.Request(1)
	coord.RunAll()

	// Demand reports what may be pushed for immediate delivery
	// to every observer, so the slowest one governs.
	require.Equal(t, 1, p.Demand())

	p.Push("x", "y")
	coord.RunAll()

	require.Equal(t, []string{"x", "y"}, fast.Items)
	require.Equal(t, []string{"x"}, slow.Items)
	require.Equal(t, 1, p.Buffered())
}

func TestPublisher_close(t *testing.T) {
	t.Parallel()

	coord := rsched.NewManual()
	p := rflow.NewPublisher[int](coord)

	o := rflowtest.NewRecordingObserver[int]()
	p.Subscribe(o)
	o.Sub.Request(1)
	coord.RunAll()

	p.Close()
	coord.RunAll()

	require.True(t, o.Completed)
	require.False(t, p.HasObservers())
	require.NotNil(t, p.Operator())
}
