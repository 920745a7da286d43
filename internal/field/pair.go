package field

// Pair is the double buffer: two owned arenas and the index of the one
// holding the last committed frame.
type Pair struct {
	bufs [2]*Field
	prev int
}

// NewPair allocates and seeds both buffers.
func NewPair(w, h int) (*Pair, error) {
	a, err := New(w, h)
	if err != nil {
		return nil, err
	}
	b, err := New(w, h)
	if err != nil {
		return nil, err
	}
	return &Pair{bufs: [2]*Field{a, b}}, nil
}

// Previous is the last committed field. The kernel reads it and never
// writes it.
func (p *Pair) Previous() *Field { return p.bufs[p.prev] }

// Scratch is the buffer the next frame is written into.
func (p *Pair) Scratch() *Field { return p.bufs[1-p.prev] }

// Swap commits Scratch as the new Previous.
func (p *Pair) Swap() { p.prev = 1 - p.prev }

func (p *Pair) Size() (w, h int) {
	f := p.Previous()
	return f.W, f.H
}

// Reset re-seeds both buffers in place.
func (p *Pair) Reset() {
	p.bufs[0].Seed()
	p.bufs[1].Seed()
	p.prev = 0
}
