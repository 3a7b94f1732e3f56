package rcredit_test

import (
	"errors"
	"testing"

	"github.com/gordian-engine/riptide/rcredit"
	"github.com/gordian-engine/riptide/rflow"
	"github.com/gordian-engine/riptide/rflow/rflowtest"
	"github.com/gordian-engine/riptide/rsched"
	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/require"
)

// feedFixture wires a Feed between an upstream multicast
// and a downstream recording observer.
type feedFixture struct {
	coord    *rsched.Manual
	upstream *rflow.Multicast[int]
	feed     *rcredit.Feed[int]
}

func newFeedFixture(t *testing.T, policy rcredit.TokenPolicy) *feedFixture {
	t.Helper()

	require.NoError(t, policy.Validate())

	coord := rsched.NewManual()
	upstream := rflow.NewMulticast(coord, rflow.MulticastConfig[int]{})

	feed := rcredit.NewFeed(slogt.New(t), coord, rcredit.FeedConfig[int]{
		Controller: rcredit.NewTokenController(policy),
	})
	upstream.Subscribe(feed)
	coord.RunAll()

	return &feedFixture{
		coord:    coord,
		upstream: upstream,
		feed:     feed,
	}
}

func TestFeed_grantsFullBufferOfInitialCredit(t *testing.T) {
	t.Parallel()

	f := newFeedFixture(t, rcredit.TokenPolicy{BatchSize: 2, BufferSize: 4})

	require.Equal(t, 4, f.upstream.MaxDemand())
	require.Equal(t, 4, f.feed.InFlight())
}

func TestFeed_republishesUpstreamItems(t *testing.T) {
	t.Parallel()

	f := newFeedFixture(t, rcredit.TokenPolicy{BatchSize: 2, BufferSize: 4})

	o := rflowtest.NewRecordingObserver[int]()
	f.feed.Subscribe(o)
	o.Sub.Request(10)
	f.coord.RunAll()

	f.upstream.PushAll(1)
	f.upstream.PushAll(2)
	f.coord.RunAll()

	require.Equal(t, []int{1, 2}, o.Items)
}

func TestFeed_topsUpCreditAsSubscribersDrain(t *testing.T) {
	t.Parallel()

	f := newFeedFixture(t, rcredit.TokenPolicy{BatchSize: 2, BufferSize: 4})

	o := rflowtest.NewRecordingObserver[int]()
	f.feed.Subscribe(o)
	o.Sub.Request(10)
	f.coord.RunAll()

	// Two delivered items open two slots of headroom,
	// which is exactly one batch: the feed re-requests.
	f.upstream.PushAll(1)
	f.upstream.PushAll(2)
	f.coord.RunAll()

	require.Equal(t, 4, f.feed.InFlight())

	// Initial 4, minus 2 consumed, plus the 2-credit top-up.
	require.Equal(t, 4, f.upstream.MaxDemand())
}

func TestFeed_slowestSubscriberGovernsCredit(t *testing.T) {
	t.Parallel()

	f := newFeedFixture(t, rcredit.TokenPolicy{BatchSize: 2, BufferSize: 4})

	fast := rflowtest.NewRecordingObserver[int]()
	slow := rflowtest.NewRecordingObserver[int]()
	f.feed.Subscribe(fast)
	f.feed.Subscribe(slow)
	fast.Sub.Request(10)
	f.coord.RunAll()

	f.upstream.PushAll(1)
	f.upstream.PushAll(2)
	f.coord.RunAll()

	// The slow subscriber still buffers both items,
	// so no headroom opened and no credit was granted.
	require.Equal(t, []int{1, 2}, fast.Items)
	require.Equal(t, 2, f.feed.Operator().MaxBuffered())
	require.Equal(t, 2, f.feed.InFlight())
	require.Equal(t, 2, f.upstream.MaxDemand())

	// Once the slow subscriber drains, credit flows again.
	slow.Sub.Request(2)
	f.coord.RunAll()
	require.Equal(t, 4, f.feed.InFlight())
	require.Equal(t, 4, f.upstream.MaxDemand())
}

func TestFeed_replenishesCreditWithoutSubscribers(t *testing.T) {
	t.Parallel()

	f := newFeedFixture(t, rcredit.TokenPolicy{BatchSize: 2, BufferSize: 4})

	// Items pushed with no subscribers are dropped,
	// but the producer must not run out of credit.
	f.upstream.PushAll(1)
	f.upstream.PushAll(2)
	f.coord.RunAll()

	require.Equal(t, 4, f.feed.InFlight())
	require.Equal(t, 4, f.upstream.MaxDemand())
}

func TestFeed_forwardsCompletion(t *testing.T) {
	t.Parallel()

	f := newFeedFixture(t, rcredit.TokenPolicy{BatchSize: 2, BufferSize: 4})

	o := rflowtest.NewRecordingObserver[int]()
	f.feed.Subscribe(o)
	o.Sub.Request(10)
	f.coord.RunAll()

	f.upstream.PushAll(9)
	f.upstream.Close()
	f.coord.RunAll()

	require.Equal(t, []int{9}, o.Items)
	require.True(t, o.Completed)
}

func TestFeed_forwardsAbort(t *testing.T) {
	t.Parallel()

	f := newFeedFixture(t, rcredit.TokenPolicy{BatchSize: 2, BufferSize: 4})

	o := rflowtest.NewRecordingObserver[int]()
	f.feed.Subscribe(o)
	o.Sub.Request(10)
	f.coord.RunAll()

	reason := errors.New("upstream failed")
	f.upstream.Abort(reason)
	f.coord.RunAll()

	require.Same(t, reason, o.Err)
}

func TestFeed_measuresWithSizeController(t *testing.T) {
	t.Parallel()

	coord := rsched.NewManual()
	upstream := rflow.NewMulticast(coord, rflow.MulticastConfig[int]{})

	meter := rcredit.NewMeter()
	feed := rcredit.NewFeed(slogt.New(t), coord, rcredit.FeedConfig[int]{
		Controller: rcredit.NewSizeController(rcredit.SizePolicy{
			BytesPerBatch:       2048,
			BufferCapacity:      65536,
			SamplingRate:        1,
			CalibrationInterval: 1,
			SmoothingFactor:     1,
		}, meter),
		Measure: func(int) int { return 8 },
	})
	upstream.Subscribe(feed)
	coord.RunAll()

	upstream.PushAll(1)
	coord.RunAll()

	require.Equal(t, int64(1), meter.Snapshot().Count)
	require.Equal(t, int64(8), meter.Snapshot().TotalBytes)
}

func TestNewFeed_sizeControllerRequiresMeasure(t *testing.T) {
	t.Parallel()

	coord := rsched.NewManual()

	require.Panics(t, func() {
		rcredit.NewFeed(slogt.New(t), coord, rcredit.FeedConfig[int]{
			Controller: rcredit.NewSizeController(rcredit.DefaultSizePolicy(), nil),
		})
	})
}
