package rsched_test

import (
	"context"
	"testing"

	"github.com/gordian-engine/riptide/internal/rtest"
	"github.com/gordian-engine/riptide/rsched"
	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/require"
)

func TestLoop_runsTasksInScheduleOrder(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := rsched.NewLoop(ctx, slogt.New(t))
	t.Cleanup(l.Wait)

	var got []int
	done := make(chan struct{})
	for i := range 10 {
		l.Schedule(func() {
			got = append(got, i)
		})
	}
	l.Schedule(func() {
		close(done)
	})

	rtest.ReceiveSoon(t, done)

	// The closed done channel ordered the writes,
	// so reading got here is race-free.
	require.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestLoop_tasksCanScheduleMoreTasks(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := rsched.NewLoop(ctx, slogt.New(t))
	t.Cleanup(l.Wait)

	done := make(chan struct{})
	l.Schedule(func() {
		l.Schedule(func() {
			close(done)
		})
	})

	rtest.ReceiveSoon(t, done)
}

func TestLoop_stopsOnContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	l := rsched.NewLoop(ctx, slogt.New(t))

	cancel()
	l.Wait()

	// Scheduling after the stop is a silent drop, not a panic.
	l.Schedule(func() {
		t.Error("task ran after loop stopped")
	})
}
