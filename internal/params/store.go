package params

import (
	"fmt"
	"sync"

	"github.com/san-kum/marbling/internal/dynamo"
)

// Store is the configuration collaborator: the single writer-facing home of
// the live parameter set. Readers take a Snapshot per frame.
type Store struct {
	mu  sync.RWMutex
	set Set
}

func NewStore(s Set) *Store {
	return &Store{set: s}
}

// Snapshot returns a copy of the current set.
func (st *Store) Snapshot() Set {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.set
}

// Update runs fn on a copy of the set and commits the copy only if fn
// succeeds. Last writer wins.
func (st *Store) Update(fn func(*Set) error) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	next := st.set
	if err := fn(&next); err != nil {
		return err
	}
	st.set = next
	return nil
}

func (st *Store) Set(name string, v float64) error {
	return st.Update(func(s *Set) error { return s.Set(name, v) })
}

func (st *Store) SetClamped(name string, v float64) (float64, error) {
	var stored float64
	err := st.Update(func(s *Set) error {
		var err error
		stored, err = s.SetClamped(name, v)
		return err
	})
	return stored, err
}

func (st *Store) SetColor(name string, c dynamo.Vec3) error {
	return st.Update(func(s *Set) error { return s.SetColor(name, c) })
}

func (st *Store) SetBool(name string, b bool) error {
	return st.Update(func(s *Set) error { return s.SetBool(name, b) })
}

func (st *Store) ApplyPreset(name string) error {
	return st.Update(func(s *Set) error { return s.ApplyPreset(name) })
}

// Nudge moves a scalar parameter by steps increments of its Spec.Step,
// clamped to range.
func (st *Store) Nudge(name string, steps float64) (float64, error) {
	sp, ok := LookupSpec(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q", dynamo.ErrUnknownParameter, name)
	}
	cur, err := st.Snapshot().Get(name)
	if err != nil {
		return 0, err
	}
	return st.SetClamped(name, cur+steps*sp.Step())
}

func (st *Store) GetParams() map[string]float64 {
	return st.Snapshot().GetParams()
}

func (st *Store) SetParam(name string, value float64) error {
	return st.Set(name, value)
}

var _ dynamo.Configurable = (*Store)(nil)
