package metrics

import "github.com/san-kum/marbling/internal/field"

// Coverage is the inked fraction of the most recently observed frame.
type Coverage struct {
	name  string
	value float64
}

func NewCoverage() *Coverage {
	return &Coverage{name: "coverage"}
}

func (c *Coverage) Name() string {
	return c.name
}

func (c *Coverage) Observe(f *field.Field, t float64) {
	c.value = Measure(f).Coverage
}

func (c *Coverage) Value() float64 {
	return c.value
}

func (c *Coverage) Reset() {
	c.value = 0
}
