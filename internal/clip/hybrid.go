package clip

import (
	"context"
	"fmt"
)

// Hybrid reads through one endpoint and writes through another, for
// compositors that expose read access and write access over different
// protocols.
type Hybrid struct {
	getter Endpoint
	setter Endpoint
}

// NewHybrid pairs getter and setter.
func NewHybrid(getter, setter Endpoint) *Hybrid {
	return &Hybrid{getter: getter, setter: setter}
}

func (h *Hybrid) Kind() Kind { return KindHybrid }

// Display is the getter's display.
func (h *Hybrid) Display() string { return h.getter.Display() }

func (h *Hybrid) Get(ctx context.Context) (string, error) { return h.getter.Get(ctx) }

func (h *Hybrid) Set(ctx context.Context, text string) error { return h.setter.Set(ctx, text) }

func (h *Hybrid) String() string {
	return fmt.Sprintf("hybrid(get=%s, set=%s)", Describe(h.getter), Describe(h.setter))
}
