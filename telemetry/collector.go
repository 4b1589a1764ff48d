package telemetry

import (
	"math"
	"time"

	"github.com/pthm-cable/efield/systems"
)

// Collector accumulates evaluation passes within time windows and produces WindowStats.
type Collector struct {
	windowDuration time.Duration
	start          time.Time
	now            func() time.Time

	// Current window tracking
	windowStartTick int32
	windowStart     time.Time

	// Counters for current window
	passes       int
	samples      int
	degenerate   int
	maxMagnitude float32

	alphas []float64
}

// NewCollector creates a new stats collector that flushes every windowSec
// seconds of wall time.
func NewCollector(windowSec float64) *Collector {
	return newCollectorWithClock(windowSec, time.Now)
}

func newCollectorWithClock(windowSec float64, now func() time.Time) *Collector {
	d := time.Duration(windowSec * float64(time.Second))
	if d <= 0 {
		d = time.Second
	}
	t := now()
	return &Collector{
		windowDuration: d,
		start:          t,
		windowStart:    t,
		now:            now,
	}
}

// RecordPass records one evaluation pass.
func (c *Collector) RecordPass(res systems.PassResult) {
	c.passes++
	c.samples += res.Samples
	c.degenerate += res.Degenerate
	if res.MaxMagnitude > c.maxMagnitude {
		c.maxMagnitude = res.MaxMagnitude
	}
}

// ShouldFlush returns true once the window duration has elapsed.
func (c *Collector) ShouldFlush() bool {
	return c.now().Sub(c.windowStart) >= c.windowDuration
}

// Flush produces a WindowStats from the current buffers and charges and
// resets counters for the next window.
func (c *Collector) Flush(currentTick int32, buffers *systems.FieldBuffers, charges []systems.ChargeSample, params systems.FieldParams) WindowStats {
	n := buffers.Len()
	if cap(c.alphas) < n {
		c.alphas = make([]float64, n)
	}
	c.alphas = c.alphas[:n]
	for i := 0; i < n; i++ {
		c.alphas[i] = float64(buffers.Alpha(i))
	}
	op := ComputeOpacityStats(c.alphas, float64(params.OpacityMin), float64(params.OpacityMax))

	var net, abs float64
	for _, ch := range charges {
		net += float64(ch.Magnitude)
		abs += math.Abs(float64(ch.Magnitude))
	}

	now := c.now()
	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		WallTimeSec:     now.Sub(c.start).Seconds(),
		Charges:         len(charges),
		NetCharge:       net,
		AbsCharge:       abs,
		Passes:          c.passes,
		Samples:         c.samples,
		Degenerate:      c.degenerate,
		OpacityMean:     op.Mean,
		OpacityStd:      op.Std,
		OpacityP10:      op.P10,
		OpacityP50:      op.P50,
		OpacityP90:      op.P90,
		SaturatedFrac:   op.SaturatedFrac,
		FloorFrac:       op.FloorFrac,
		MaxMagnitude:    float64(c.maxMagnitude),
	}

	c.windowStartTick = currentTick
	c.windowStart = now
	c.passes = 0
	c.samples = 0
	c.degenerate = 0
	c.maxMagnitude = 0

	return stats
}
