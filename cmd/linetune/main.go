// Command linetune searches for a field line_length divisor that gives the
// configured charges a target mean opacity.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/efield/config"
)

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	target := flag.Float64("target", 0.35, "Target mean opacity")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	output := flag.String("output", "", "Write the tuned config YAML here (empty = print only)")
	logPath := flag.String("log", "", "Write the evaluation log CSV here")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Cfg()

	if *target < cfg.Field.OpacityMin || *target > cfg.Field.OpacityMax {
		log.Fatalf("target %.3f outside opacity range [%.3f, %.3f]", *target, cfg.Field.OpacityMin, cfg.Field.OpacityMax)
	}

	params := NewParamVector(cfg)
	evaluator, err := NewFitnessEvaluator(params, cfg, *target)
	if err != nil {
		log.Fatalf("failed to build evaluator: %v", err)
	}

	fmt.Printf("Tuning %d parameter(s) for mean opacity %.3f over %d samples, %d charges\n",
		params.Dim(), *target, cfg.Derived.SampleCount, len(cfg.Charges))

	result, err := tune(evaluator, *maxEvals)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}
	if result.X == nil {
		os.Exit(1)
	}

	fmt.Printf("\nDone after %d evaluations\n", len(result.Evals))
	values := params.Values(result.X)
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.6g\n", spec.Path, values[i])
	}
	fmt.Printf("  opacity mean=%.3f p10=%.3f p50=%.3f p90=%.3f\n",
		result.Stats.Mean, result.Stats.P10, result.Stats.P50, result.Stats.P90)

	if *logPath != "" {
		f, err := os.Create(*logPath)
		if err != nil {
			log.Fatalf("failed to create log file: %v", err)
		}
		if err := gocsv.MarshalFile(&result.Evals, f); err != nil {
			log.Printf("failed to write log: %v", err)
		}
		f.Close()
	}

	if *output != "" {
		tuned, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to reload config: %v", err)
		}
		params.ApplyToConfig(tuned, result.X)
		if err := tuned.WriteYAML(*output); err != nil {
			log.Fatalf("failed to write config: %v", err)
		}
		fmt.Printf("\nTuned config saved to: %s\n", *output)
	}
}
