package metrics

import (
	"github.com/san-kum/marbling/internal/field"
)

// Stability is the fraction of observed frames whose field is finite with
// every density in [0,1] and every flow magnitude at most threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(f *field.Field, t float64) {
	s.samples++
	for _, tx := range f.Texels {
		if !tx.IsFinite() || tx.Density < 0 || tx.Density > 1 || tx.Flow.Len() > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
