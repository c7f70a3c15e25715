package engine

// speedSample is one (elapsed milliseconds, cumulative bytes) observation.
type speedSample struct {
	tMs   int64
	bytes int64
}

// SpeedEstimator is a sliding-window rate estimator over cumulative-bytes
// samples. Only the two endpoints of the window are consulted for the
// average; intermediate samples exist solely to bound memory, per spec's
// note that a minimal deque implementation is sufficient.
type SpeedEstimator struct {
	windowMs int64
	samples  []speedSample
}

// NewSpeedEstimator creates an estimator with the given window in
// milliseconds. A windowMs of 0 uses the default 5000 ms window.
func NewSpeedEstimator(windowMs int64) *SpeedEstimator {
	if windowMs <= 0 {
		windowMs = 5000
	}
	return &SpeedEstimator{windowMs: windowMs}
}

// Sample appends a new (elapsed ms, cumulative bytes) observation and drops
// samples that have fallen outside the window.
func (e *SpeedEstimator) Sample(tMs, cumulativeBytes int64) {
	e.samples = append(e.samples, speedSample{tMs: tMs, bytes: cumulativeBytes})

	head := 0
	for head < len(e.samples)-1 && tMs-e.samples[head].tMs > e.windowMs {
		head++
	}
	if head > 0 {
		e.samples = e.samples[head:]
	}
}

// AverageBytesPerSec returns the average throughput across the retained
// window, or 0 if fewer than two samples remain.
func (e *SpeedEstimator) AverageBytesPerSec() float64 {
	if len(e.samples) < 2 {
		return 0
	}
	first := e.samples[0]
	last := e.samples[len(e.samples)-1]

	dtSec := float64(last.tMs-first.tMs) / 1000.0
	if dtSec < 0.01 {
		dtSec = 0.01
	}
	return float64(last.bytes-first.bytes) / dtSec
}

// Reset clears all retained samples.
func (e *SpeedEstimator) Reset() {
	e.samples = e.samples[:0]
}
