package rcredit

import "fmt"

// Defaults for [TokenPolicy].
const (
	// DefaultBatchSize is the number of elements in a single batch.
	DefaultBatchSize = 256

	// DefaultBufferSize is the maximum number of elements
	// in the input buffer.
	DefaultBufferSize = 4096
)

// Defaults for [SizePolicy].
const (
	// DefaultBytesPerBatch is the desired size of a single batch,
	// in serialized bytes.
	DefaultBytesPerBatch = 2 * 1024

	// DefaultBufferCapacity is the number of serialized bytes,
	// over all buffered elements, an inbound path may hold.
	DefaultBufferCapacity = 64 * 1024

	// DefaultSamplingRate is how many elements pass between
	// two size measurements.
	DefaultSamplingRate = 100

	// DefaultCalibrationInterval is how many samples pass
	// between two batch-size recalibrations.
	DefaultCalibrationInterval = 20

	// DefaultSmoothingFactor is the degree of weighting decrease
	// for the exponential moving average of element sizes.
	// A higher factor discounts older observations faster.
	DefaultSmoothingFactor = 0.6
)

// TokenPolicy associates each element with one token.
// Buffer and batch sizes are statically defined in terms of tokens;
// there is no dynamic adjustment or sampling.
type TokenPolicy struct {
	// Number of elements to request per upstream batch.
	BatchSize int

	// Maximum number of elements in flight plus buffered.
	BufferSize int
}

// DefaultTokenPolicy returns a TokenPolicy with default sizes.
func DefaultTokenPolicy() TokenPolicy {
	return TokenPolicy{
		BatchSize:  DefaultBatchSize,
		BufferSize: DefaultBufferSize,
	}
}

// Validate returns an error if the policy is unusable.
func (p TokenPolicy) Validate() error {
	if p.BatchSize <= 0 {
		return fmt.Errorf("token policy batch size must be positive (got %d)", p.BatchSize)
	}
	if p.BufferSize < p.BatchSize {
		return fmt.Errorf(
			"token policy buffer size (%d) must be at least the batch size (%d)",
			p.BufferSize, p.BatchSize,
		)
	}
	return nil
}

// SizePolicy samples how many bytes elements occupy when serialized,
// and derives element counts from byte targets.
type SizePolicy struct {
	// Desired serialized size of a single batch, in bytes.
	BytesPerBatch int

	// Serialized bytes, over all buffered elements,
	// the inbound path may hold.
	BufferCapacity int

	// Number of elements between two size measurements.
	SamplingRate int

	// Number of samples between two batch recalibrations.
	CalibrationInterval int

	// Weighting decrease for the moving average of element sizes,
	// in (0, 1].
	SmoothingFactor float64
}

// DefaultSizePolicy returns a SizePolicy with default tuning.
func DefaultSizePolicy() SizePolicy {
	return SizePolicy{
		BytesPerBatch:       DefaultBytesPerBatch,
		BufferCapacity:      DefaultBufferCapacity,
		SamplingRate:        DefaultSamplingRate,
		CalibrationInterval: DefaultCalibrationInterval,
		SmoothingFactor:     DefaultSmoothingFactor,
	}
}

// Validate returns an error if the policy is unusable.
func (p SizePolicy) Validate() error {
	if p.BytesPerBatch <= 0 {
		return fmt.Errorf("size policy bytes per batch must be positive (got %d)", p.BytesPerBatch)
	}
	if p.BufferCapacity < p.BytesPerBatch {
		return fmt.Errorf(
			"size policy buffer capacity (%d) must be at least bytes per batch (%d)",
			p.BufferCapacity, p.BytesPerBatch,
		)
	}
	if p.SamplingRate <= 0 {
		return fmt.Errorf("size policy sampling rate must be positive (got %d)", p.SamplingRate)
	}
	if p.CalibrationInterval <= 0 {
		return fmt.Errorf("size policy calibration interval must be positive (got %d)", p.CalibrationInterval)
	}
	if p.SmoothingFactor <= 0 || p.SmoothingFactor > 1 {
		return fmt.Errorf("size policy smoothing factor must be in (0, 1] (got %g)", p.SmoothingFactor)
	}
	return nil
}
