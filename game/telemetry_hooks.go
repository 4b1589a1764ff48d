package game

import "log/slog"

// flushTelemetry emits field and perf stats once the stats window has elapsed.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush() {
		return
	}

	stats := g.collector.Flush(g.tick, g.evaluator.Buffers(), g.snapshot, g.evaluator.Params())
	perfStats := g.perfCollector.Stats()
	g.lastStats = stats

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
		slog.Info("throughput",
			"samples_per_sec", perfStats.SamplesPerSecond(g.grid.Len(), len(g.snapshot)),
		)
	}

	if err := g.outputManager.WriteStats(stats); err != nil {
		slog.Error("failed to write field stats", "error", err)
	}
	if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
}
