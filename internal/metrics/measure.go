// Package metrics reduces ink fields to scalars for run summaries, plots
// and CSV export.
package metrics

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/marbling/internal/field"
)

// CoverageThreshold is the density above which a texel counts as inked.
const CoverageThreshold = 0.1

// Sample is one row of per-frame measurements.
type Sample struct {
	Frame       uint64  `csv:"frame" json:"frame"`
	Time        float64 `csv:"time" json:"time"`
	Energy      float64 `csv:"energy" json:"energy"`
	MeanDensity float64 `csv:"mean_density" json:"mean_density"`
	Contrast    float64 `csv:"contrast" json:"contrast"`
	Coverage    float64 `csv:"coverage" json:"coverage"`
	MaxFlow     float64 `csv:"max_flow" json:"max_flow"`
	AutoMove    bool    `csv:"auto_move" json:"auto_move"`
}

// Measure computes the per-frame scalars of f. Energy is the mean of
// ½|flow|² + density² over all texels.
func Measure(f *field.Field) Sample {
	n := len(f.Texels)
	if n == 0 {
		return Sample{Frame: f.Generation}
	}
	density := make([]float64, n)
	speed := make([]float64, n)
	kinetic := 0.0
	inked := 0
	for i, t := range f.Texels {
		density[i] = t.Density
		speed[i] = t.Flow.Len()
		kinetic += 0.5 * t.Flow.Dot(t.Flow)
		if t.Density > CoverageThreshold {
			inked++
		}
	}

	return Sample{
		Frame:       f.Generation,
		Energy:      (kinetic + floats.Dot(density, density)) / float64(n),
		MeanDensity: stat.Mean(density, nil),
		Contrast:    stat.PopStdDev(density, nil),
		Coverage:    float64(inked) / float64(n),
		MaxFlow:     floats.Max(speed),
	}
}

// Series extracts one named column from samples.
func Series(samples []Sample, name string) ([]float64, bool) {
	pick, ok := columns[name]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = pick(s)
	}
	return out, true
}

var columns = map[string]func(Sample) float64{
	"energy":       func(s Sample) float64 { return s.Energy },
	"mean_density": func(s Sample) float64 { return s.MeanDensity },
	"contrast":     func(s Sample) float64 { return s.Contrast },
	"coverage":     func(s Sample) float64 { return s.Coverage },
	"max_flow":     func(s Sample) float64 { return s.MaxFlow },
}

// Columns lists the names accepted by Series.
func Columns() []string {
	return []string{"energy", "mean_density", "contrast", "coverage", "max_flow"}
}
