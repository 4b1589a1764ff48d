package main

import (
	"math"

	"github.com/pthm-cable/efield/config"
)

// ParamSpec defines a single tunable parameter. Log-scaled parameters are
// searched in log10 space.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound (search space)
	Max     float64 // Upper bound (search space)
	Log     bool
	Default float64 // Default value (search space)
}

// ParamVector holds the set of tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the parameter set. Only the divisor matters: k and
// line_length enter the field as a single ratio.
func NewParamVector(cfg *config.Config) *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{
				Name:    "line_length",
				Path:    "field.line_length",
				Min:     2,
				Max:     12,
				Log:     true,
				Default: math.Log10(cfg.Field.LineLength),
			},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the starting point in search space.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = math.Max(spec.Min, math.Min(spec.Max, v[i]))
	}
	return clamped
}

// Values maps search-space values to config values.
func (pv *ParamVector) Values(x []float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		out[i] = x[i]
		if spec.Log {
			out[i] = math.Pow(10, x[i])
		}
	}
	return out
}

// ApplyToConfig writes search-space values into cfg.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, x []float64) {
	values := pv.Values(pv.Clamp(x))
	for i, spec := range pv.Specs {
		switch spec.Name {
		case "line_length":
			cfg.Field.LineLength = values[i]
		}
	}
}
