// Package cliptest provides in-memory clipboard endpoints for tests.
//
// A Store is one physical clipboard. Several Endpoints may share a Store to
// model one clipboard reachable through two displays.
package cliptest

import (
	"context"
	"sync"

	"go.klb.dev/clipweave/internal/clip"
)

// Store is an in-memory clipboard.
type Store struct {
	mu    sync.Mutex
	value string
}

// NewStore returns a store holding initial.
func NewStore(initial string) *Store {
	return &Store{value: initial}
}

// Value returns the stored text.
func (s *Store) Value() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// SetValue replaces the stored text, as an external copy would.
func (s *Store) SetValue(v string) {
	s.mu.Lock()
	s.value = v
	s.mu.Unlock()
}

// Endpoint is a clip.Endpoint backed by a Store.
type Endpoint struct {
	display string
	store   *Store

	mu     sync.Mutex
	getErr error
	setErr error
	gets   int
	sets   int
}

var _ clip.Endpoint = (*Endpoint)(nil)

// New returns an endpoint named display reading and writing store.
func New(display string, store *Store) *Endpoint {
	return &Endpoint{display: display, store: store}
}

// NewIsolated returns an endpoint with its own store.
func NewIsolated(display, initial string) *Endpoint {
	return New(display, NewStore(initial))
}

func (e *Endpoint) Kind() clip.Kind { return clip.KindMemory }
func (e *Endpoint) Display() string { return e.display }

// Store returns the backing store.
func (e *Endpoint) Store() *Store { return e.store }

// FailGet makes subsequent Get calls return err (nil clears it).
func (e *Endpoint) FailGet(err error) {
	e.mu.Lock()
	e.getErr = err
	e.mu.Unlock()
}

// FailSet makes subsequent Set calls return err (nil clears it).
func (e *Endpoint) FailSet(err error) {
	e.mu.Lock()
	e.setErr = err
	e.mu.Unlock()
}

// Calls reports how many Get and Set calls were made.
func (e *Endpoint) Calls() (gets, sets int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gets, e.sets
}

func (e *Endpoint) Get(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	e.mu.Lock()
	e.gets++
	err := e.getErr
	e.mu.Unlock()
	if err != nil {
		return "", err
	}
	return e.store.Value(), nil
}

func (e *Endpoint) Set(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	e.sets++
	err := e.setErr
	e.mu.Unlock()
	if err != nil {
		return err
	}
	e.store.SetValue(text)
	return nil
}
