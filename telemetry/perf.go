package telemetry

import (
	"log/slog"
	"sort"
	"time"
)

// Phase identifies one timed section of a pass.
type Phase int

// Phases of one frame, in execution order.
const (
	PhaseInput Phase = iota
	PhaseField
	PhaseTelemetry
	numPhases
)

var phaseNames = [numPhases]string{"input", "field", "telemetry"}

func (p Phase) String() string {
	if p < 0 || p >= numPhases {
		return "unknown"
	}
	return phaseNames[p]
}

// passTiming is one recorded pass.
type passTiming struct {
	total  time.Duration
	phases [numPhases]time.Duration
}

// PerfCollector times evaluation passes over a ring of the last N passes.
type PerfCollector struct {
	ring  []passTiming
	next  int
	count int

	cur        passTiming
	passStart  time.Time
	phaseStart time.Time
	phase      Phase
	inPhase    bool

	lastFrame time.Time
	frameDur  time.Duration
}

// NewPerfCollector keeps the last window passes (60 when window < 1).
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 60
	}
	return &PerfCollector{ring: make([]passTiming, window)}
}

// StartTick begins timing a pass.
func (p *PerfCollector) StartTick() {
	p.passStart = time.Now()
	p.cur = passTiming{}
	p.inPhase = false
}

// StartPhase closes the running phase and opens phase.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := time.Now()
	p.closePhase(now)
	p.phase = phase
	p.phaseStart = now
	p.inPhase = true
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase && p.phase >= 0 && p.phase < numPhases {
		p.cur.phases[p.phase] += now.Sub(p.phaseStart)
	}
	p.inPhase = false
}

// EndTick closes the pass and stores it in the ring.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.cur.total = now.Sub(p.passStart)

	p.ring[p.next] = p.cur
	p.next = (p.next + 1) % len(p.ring)
	if p.count < len(p.ring) {
		p.count++
	}
}

// RecordFrame marks a presented frame.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frameDur = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PhaseTiming is the average cost of one phase.
type PhaseTiming struct {
	Avg time.Duration
	Pct float64 // Share of the average pass, 0-100
}

// PerfStats summarizes the passes in the window.
type PerfStats struct {
	Passes          int
	AvgPass         time.Duration
	MinPass         time.Duration
	MaxPass         time.Duration
	P95Pass         time.Duration
	PassesPerSecond float64

	Phases [numPhases]PhaseTiming

	FrameDuration time.Duration
	FPS           float64
}

// Phase returns the timing of one phase.
func (s PerfStats) Phase(ph Phase) PhaseTiming {
	if ph < 0 || ph >= numPhases {
		return PhaseTiming{}
	}
	return s.Phases[ph]
}

// Stats aggregates the window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{Passes: p.count, FrameDuration: p.frameDur}
	if p.frameDur > 0 {
		s.FPS = float64(time.Second) / float64(p.frameDur)
	}
	if p.count == 0 {
		return s
	}

	totals := make([]float64, p.count)
	var sum time.Duration
	var phaseSum [numPhases]time.Duration
	for i := 0; i < p.count; i++ {
		pt := p.ring[i]
		totals[i] = float64(pt.total)
		sum += pt.total
		for ph := range phaseSum {
			phaseSum[ph] += pt.phases[ph]
		}
	}
	sort.Float64s(totals)

	n := time.Duration(p.count)
	s.AvgPass = sum / n
	s.MinPass = time.Duration(totals[0])
	s.MaxPass = time.Duration(totals[len(totals)-1])
	s.P95Pass = time.Duration(Percentile(totals, 0.95))
	if s.AvgPass > 0 {
		s.PassesPerSecond = float64(time.Second) / float64(s.AvgPass)
	}
	for ph := range phaseSum {
		avg := phaseSum[ph] / n
		s.Phases[ph].Avg = avg
		if s.AvgPass > 0 {
			s.Phases[ph].Pct = float64(avg) / float64(s.AvgPass) * 100
		}
	}
	return s
}

// LogStats writes the summary at info level.
func (s PerfStats) LogStats() {
	slog.Info("perf", "stats", s)
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("passes", s.Passes),
		slog.Int64("avg_pass_us", s.AvgPass.Microseconds()),
		slog.Int64("p95_pass_us", s.P95Pass.Microseconds()),
		slog.Int64("max_pass_us", s.MaxPass.Microseconds()),
		slog.Float64("passes_per_sec", s.PassesPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for ph := Phase(0); ph < numPhases; ph++ {
		if pct := s.Phases[ph].Pct; pct > 0.1 {
			attrs = append(attrs, slog.Float64(ph.String()+"_pct", float64(int(pct*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd    int32   `csv:"window_end"`
	AvgPassUS    int64   `csv:"avg_pass_us"`
	MinPassUS    int64   `csv:"min_pass_us"`
	MaxPassUS    int64   `csv:"max_pass_us"`
	P95PassUS    int64   `csv:"p95_pass_us"`
	PassesPerSec float64 `csv:"passes_per_sec"`
	FPS          float64 `csv:"fps"`
	InputPct     float64 `csv:"input_pct"`
	FieldPct     float64 `csv:"field_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
	FieldAvgUS   int64   `csv:"field_avg_us"`
}

// ToCSV flattens the stats for gocsv.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		AvgPassUS:    s.AvgPass.Microseconds(),
		MinPassUS:    s.MinPass.Microseconds(),
		MaxPassUS:    s.MaxPass.Microseconds(),
		P95PassUS:    s.P95Pass.Microseconds(),
		PassesPerSec: s.PassesPerSecond,
		FPS:          s.FPS,
		InputPct:     s.Phases[PhaseInput].Pct,
		FieldPct:     s.Phases[PhaseField].Pct,
		TelemetryPct: s.Phases[PhaseTelemetry].Pct,
		FieldAvgUS:   s.Phases[PhaseField].Avg.Microseconds(),
	}
}

// SamplesPerSecond is sample-charge pairs evaluated per second of field
// phase. With fewer than two charges it counts samples written.
func (s PerfStats) SamplesPerSecond(samplesPerPass, charges int) float64 {
	avg := s.Phases[PhaseField].Avg
	if avg <= 0 {
		return 0
	}
	work := samplesPerPass
	if charges > 1 {
		work *= charges
	}
	return float64(work) / avg.Seconds()
}
