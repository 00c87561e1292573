package param

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrConfiguration is the root of every declaration failure.
	ErrConfiguration = errors.New("param: invalid configuration")
	// ErrDuplicateParameter is returned when an id is declared twice.
	ErrDuplicateParameter = fmt.Errorf("%w: duplicate parameter", ErrConfiguration)
	// ErrInvalidRange is returned when min >= max.
	ErrInvalidRange = fmt.Errorf("%w: empty range", ErrConfiguration)
)

// Listener receives (id, clampedValue) after every Set or Restore.
// Listeners may be invoked from either the control or the audio context and
// must not block or allocate.
type Listener func(id string, value float64)

// Store is the canonical table of parameters.
//
// Declaration and listener registration happen during setup only. After
// setup the table shape is immutable, so Get and Set take no lock: each
// value is a single atomic word.
type Store struct {
	mu        sync.Mutex
	params    map[string]*Parameter
	order     []*Parameter
	listeners []Listener
}

// NewStore creates an empty parameter store
func NewStore() *Store {
	return &Store{
		params: make(map[string]*Parameter),
	}
}

// Declare registers a parameter with a plain range, default and unit.
func (s *Store) Declare(id string, min, max, def float64, unit string) (*Parameter, error) {
	p := New(id, id).Range(min, max).Default(def).Unit(unit).Build()
	if err := s.Add(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Add registers fully built parameters in declaration order.
func (s *Store) Add(params ...*Parameter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range params {
		if _, exists := s.params[p.ID]; exists {
			return fmt.Errorf("%w: %q", ErrDuplicateParameter, p.ID)
		}
		if !(p.Min < p.Max) {
			return fmt.Errorf("%w: %q [%g, %g]", ErrInvalidRange, p.ID, p.Min, p.Max)
		}
		p.DefaultValue = p.Clamp(p.DefaultValue)
		p.store(p.DefaultValue)

		s.params[p.ID] = p
		s.order = append(s.order, p)
	}

	return nil
}

// AddListener registers a change listener. Call during setup only.
func (s *Store) AddListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Parameter returns the parameter with the given id, or nil.
func (s *Store) Parameter(id string) *Parameter {
	return s.params[id]
}

// Get returns the current value of id. It panics on an undeclared id.
func (s *Store) Get(id string) float64 {
	return s.mustParameter(id).Value()
}

// Set clamps value into range, stores it and notifies every listener.
// It panics on an undeclared id.
func (s *Store) Set(id string, value float64) {
	s.set(s.mustParameter(id), value)
}

func (s *Store) set(p *Parameter, value float64) {
	v := p.store(value)
	for _, l := range s.listeners {
		l(p.ID, v)
	}
}

func (s *Store) mustParameter(id string) *Parameter {
	p, ok := s.params[id]
	if !ok {
		panic(fmt.Sprintf("param: unknown parameter %q", id))
	}
	return p
}

// Count returns the number of parameters
func (s *Store) Count() int {
	return len(s.order)
}

// All returns all parameters in declaration order
func (s *Store) All() []*Parameter {
	result := make([]*Parameter, len(s.order))
	copy(result, s.order)
	return result
}

// Snapshot returns the full id -> value mapping.
func (s *Store) Snapshot() map[string]float64 {
	snap := make(map[string]float64, len(s.order))
	for _, p := range s.order {
		snap[p.ID] = p.Value()
	}
	return snap
}

// Restore re-applies a snapshot through the same clamp and notification path
// as Set, in declaration order. Unknown ids are ignored and ids missing from
// the snapshot keep their current value.
func (s *Store) Restore(snapshot map[string]float64) {
	for _, p := range s.order {
		if v, ok := snapshot[p.ID]; ok {
			s.set(p, v)
		}
	}
}

// Reset restores every parameter to its default value.
func (s *Store) Reset() {
	for _, p := range s.order {
		s.set(p, p.DefaultValue)
	}
}
