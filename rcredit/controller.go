package rcredit

// Controller calibrates how many elements of upstream credit
// a [Feed] keeps in flight, and in what batch sizes.
//
// Controllers run on the feed's coordinator and need no locking.
type Controller interface {
	// Tick records one element arriving from upstream.
	// The size callback measures the element's serialized size;
	// controllers that do not sample never invoke it.
	Tick(size func() int)

	// BatchSize returns the current number of elements
	// to request per upstream batch.
	BatchSize() int

	// BufferSize returns the current total number of elements
	// that may be in flight plus buffered.
	BufferSize() int
}

// TokenController is the [Controller] for a [TokenPolicy]:
// fixed sizes, no sampling.
type TokenController struct {
	policy TokenPolicy
}

// NewTokenController returns a TokenController for p.
// The policy must have been validated.
func NewTokenController(p TokenPolicy) *TokenController {
	return &TokenController{policy: p}
}

func (c *TokenController) Tick(func() int) {}

func (c *TokenController) BatchSize() int { return c.policy.BatchSize }

func (c *TokenController) BufferSize() int { return c.policy.BufferSize }

// The element size a SizeController assumes before
// its first calibration.
const initialElementSize = 64

// SizeController is the [Controller] for a [SizePolicy].
// It samples every Nth element's serialized size, smooths the
// samples exponentially, and recalibrates element counts from
// the policy's byte targets.
type SizeController struct {
	policy SizePolicy

	// Optional telemetry sink for the sampled sizes.
	meter *Meter

	sinceSample  int
	sampleCount  int
	smoothedSize float64

	batch  int
	buffer int
}

// NewSizeController returns a SizeController for p,
// recording samples into meter when meter is not nil.
// The policy must have been validated.
func NewSizeController(p SizePolicy, meter *Meter) *SizeController {
	c := &SizeController{
		policy:       p,
		meter:        meter,
		smoothedSize: initialElementSize,
	}
	c.recalibrate()
	return c
}

func (c *SizeController) Tick(size func() int) {
	c.sinceSample++
	if c.sinceSample < c.policy.SamplingRate {
		return
	}
	c.sinceSample = 0

	n := size()
	if n <= 0 {
		n = 1
	}
	if c.meter != nil {
		c.meter.Observe(n)
	}

	f := c.policy.SmoothingFactor
	c.smoothedSize = f*float64(n) + (1-f)*c.smoothedSize

	c.sampleCount++
	if c.sampleCount >= c.policy.CalibrationInterval {
		c.sampleCount = 0
		c.recalibrate()
	}
}

func (c *SizeController) BatchSize() int { return c.batch }

func (c *SizeController) BufferSize() int { return c.buffer }

func (c *SizeController) recalibrate() {
	per := int(c.smoothedSize)
	if per < 1 {
		per = 1
	}

	c.batch = c.policy.BytesPerBatch / per
	if c.batch < 1 {
		c.batch = 1
	}

	c.buffer = c.policy.BufferCapacity / per
	if c.buffer < c.batch {
		c.buffer = c.batch
	}
}
