// Package session owns the live set of notes: it routes input to them,
// carries out the actions they request, and schedules persistence.
//
// Everything here except the Saver runs on a single logic thread; see Loop.
package session

import "github.com/aretw0/noats/pkg/widget"

// Registry is the single owner of live widgets. Order is registration order.
type Registry struct {
	order []*widget.Widget
	byID  map[string]*widget.Widget
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*widget.Widget)}
}

// Register adds w. Registering the same widget twice is a no-op.
func (r *Registry) Register(w *widget.Widget) {
	if _, ok := r.byID[w.ID()]; ok {
		return
	}
	r.byID[w.ID()] = w
	r.order = append(r.order, w)
}

// Unregister removes w and reports whether it was present.
func (r *Registry) Unregister(w *widget.Widget) bool {
	if _, ok := r.byID[w.ID()]; !ok {
		return false
	}
	delete(r.byID, w.ID())
	for i, x := range r.order {
		if x == w {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func (r *Registry) Get(id string) (*widget.Widget, bool) {
	w, ok := r.byID[id]
	return w, ok
}

// All returns a copy of the live widgets in registration order.
func (r *Registry) All() []*widget.Widget {
	out := make([]*widget.Widget, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Len() int {
	return len(r.order)
}
