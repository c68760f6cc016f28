// Package widget implements the interaction state machine of a single note:
// selection, edit mode, drag with on-screen clamping and the debounced
// fit-to-content resize.
//
// A Widget is owned by one goroutine (the session's logic thread) and is not
// safe for concurrent use.
package widget

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/aretw0/noats/pkg/core"
	"github.com/aretw0/noats/pkg/theme"
)

// State is the interaction state of a note.
type State int

const (
	Idle State = iota
	Selected
	Editing
)

func (s State) String() string {
	switch s {
	case Selected:
		return "selected"
	case Editing:
		return "editing"
	default:
		return "idle"
	}
}

// Layout holds the geometry rules shared by every note of a session.
type Layout struct {
	MinHeight      float64
	MinAspect      float64 // width:height lower bound
	MaxAspect      float64 // width:height upper bound
	DragMargin     float64 // units that must stay on screen after a drag
	ResizeDebounce time.Duration
	DefaultWidth   float64
	DefaultHeight  float64
}

// DefaultLayout returns the standard note geometry rules.
func DefaultLayout() Layout {
	return Layout{
		MinHeight:      40,
		MinAspect:      1.0,
		MaxAspect:      1.5,
		DragMargin:     20,
		ResizeDebounce: 150 * time.Millisecond,
		DefaultWidth:   200,
		DefaultHeight:  150,
	}
}

// Env is what a note needs from its surroundings.
type Env struct {
	Clock    clockwork.Clock
	Measurer Measurer
	Screens  ScreenLocator
	Layout   Layout
}

func (e *Env) withDefaults() *Env {
	out := *e
	if out.Clock == nil {
		out.Clock = clockwork.NewRealClock()
	}
	if out.Measurer == nil {
		out.Measurer = DefaultMeasurer
	}
	if out.Screens == nil {
		out.Screens = Screens(nil)
	}
	if out.Layout == (Layout{}) {
		out.Layout = DefaultLayout()
	}
	return &out
}

// Widget is the runtime state of one note. Editing always implies selected.
type Widget struct {
	id           string
	env          *Env
	theme        theme.Definition
	content      string
	bounds       Rect
	visible      bool
	selected     bool
	editing      bool
	dragging     bool
	lastModified time.Time

	resizePending bool
	resizeDue     time.Time
}

// New creates a focused note in edit mode at bounds, clamped on screen.
// It starts hidden; the session shows it once registered.
func New(env Env, def theme.Definition, bounds Rect) *Widget {
	e := env.withDefaults()
	w := &Widget{
		id:           uuid.NewString(),
		env:          e,
		theme:        def,
		bounds:       bounds,
		selected:     true,
		editing:      true,
		lastModified: e.Clock.Now().UTC(),
	}
	w.clampToScreen()
	return w
}

// FromSnapshot restores a note in the idle state. It is visible only if the
// snapshot says so.
func FromSnapshot(env Env, def theme.Definition, snap core.Snapshot) *Widget {
	w := &Widget{
		id:           uuid.NewString(),
		env:          env.withDefaults(),
		theme:        def,
		content:      snap.Content,
		bounds:       Rect{X: snap.X, Y: snap.Y, W: snap.Width, H: snap.Height},
		visible:      snap.IsVisible,
		lastModified: snap.LastModified,
	}
	if w.bounds.W <= 0 || w.bounds.H <= 0 {
		w.bounds.W, w.bounds.H = w.env.Layout.DefaultWidth, w.env.Layout.DefaultHeight
	}
	w.clampToScreen()
	return w
}

// Duplicate returns a new focused note with the same content and size,
// offset by (dx, dy), using def as its theme.
func (w *Widget) Duplicate(def theme.Definition, dx, dy float64) *Widget {
	b := w.bounds
	b.X += dx
	b.Y += dy
	d := New(*w.env, def, b)
	d.content = w.content
	return d
}

func (w *Widget) ID() string { return w.id }
func (w *Widget) Content() string { return w.content }
func (w *Widget) Bounds() Rect { return w.bounds }
func (w *Widget) Visible() bool { return w.visible }
func (w *Widget) Selected() bool { return w.selected }
func (w *Widget) Editing() bool { return w.editing }
func (w *Widget) Dragging() bool { return w.dragging }
func (w *Widget) Theme() theme.Definition { return w.theme }
func (w *Widget) LastModified() time.Time { return w.lastModified }

// State derives the interaction state from the flags.
func (w *Widget) State() State {
	switch {
	case w.editing:
		return Editing
	case w.selected:
		return Selected
	default:
		return Idle
	}
}

// Show makes the note visible.
func (w *Widget) Show() {
	w.visible = true
}

// Hide makes the note invisible. A hidden note cannot hold focus or keep
// dragging.
func (w *Widget) Hide() {
	w.endDrag()
	w.visible = false
	w.deselect()
}

// PointerPress selects the note and starts a drag. Edit mode survives.
func (w *Widget) PointerPress() {
	if !w.visible {
		return
	}
	w.selected = true
	w.dragging = true
}

// DragTo moves the note's top-left corner while a drag is in progress.
// No bounds apply until the drag completes. Non-finite positions are
// rejected.
func (w *Widget) DragTo(x, y float64) bool {
	if !w.dragging || !finite(x) || !finite(y) {
		return false
	}
	w.bounds.X, w.bounds.Y = x, y
	return true
}

// PointerRelease completes a drag and pulls the note back on screen.
func (w *Widget) PointerRelease() {
	w.endDrag()
}

// Deactivate handles the note losing focus to another window. A drag in
// progress completes where it is.
func (w *Widget) Deactivate() Effect {
	w.endDrag()
	w.deselect()
	return EffectSave
}

// HandleKey runs the key bindings of the note and reports what the session
// must do. Keys other than Escape are text input while editing.
func (w *Widget) HandleKey(k Key) Effect {
	if k == KeyEscape {
		w.deselect()
		return EffectSave
	}
	if !w.selected || w.editing {
		return EffectNone
	}

	switch k {
	case KeyEnterEdit:
		w.editing = true
		return EffectNone
	case KeyDelete:
		return EffectClose
	case KeyHide:
		w.Hide()
		return EffectHide
	case KeyDuplicate:
		return EffectDuplicate
	default:
		return EffectNone
	}
}

// Edit replaces the content. It is ignored unless the note is editing.
func (w *Widget) Edit(content string) bool {
	if !w.editing {
		return false
	}
	if content == w.content {
		return true
	}
	w.content = content
	w.lastModified = w.env.Clock.Now().UTC()
	w.scheduleResize()
	return true
}

// Resize applies a user-driven size change and schedules a fit. Non-finite
// sizes are rejected.
func (w *Widget) Resize(width, height float64) bool {
	if !finite(width) || !finite(height) {
		return false
	}
	w.bounds.W = math.Max(width, 1)
	w.bounds.H = math.Max(height, 1)
	w.scheduleResize()
	return true
}

// Due returns the deadline of a pending fit.
func (w *Widget) Due() (time.Time, bool) {
	return w.resizeDue, w.resizePending
}

// Tick runs the pending fit once its deadline has passed.
func (w *Widget) Tick(now time.Time) bool {
	if !w.resizePending || now.Before(w.resizeDue) {
		return false
	}
	w.resizePending = false
	w.fit()
	return true
}

// Snapshot captures the persisted view of the note.
func (w *Widget) Snapshot() core.Snapshot {
	return core.Snapshot{
		Content:      w.content,
		X:            w.bounds.X,
		Y:            w.bounds.Y,
		Width:        w.bounds.W,
		Height:       w.bounds.H,
		IsVisible:    w.visible,
		ThemeName:    w.theme.Name,
		LastModified: w.lastModified,
	}
}

func (w *Widget) deselect() {
	w.editing = false
	w.selected = false
}

func (w *Widget) scheduleResize() {
	w.resizePending = true
	w.resizeDue = w.env.Clock.Now().Add(w.env.Layout.ResizeDebounce)
}

// fit sets the height to what the content needs and brings the width into
// the aspect band. Both dimensions change together, and the result is never
// shorter than the content at the final width.
func (w *Widget) fit() {
	l := w.env.Layout
	need := func(width float64) float64 {
		return math.Max(l.MinHeight, w.env.Measurer.ContentHeight(w.content, width))
	}

	width := w.bounds.W
	height := need(width)
	if width > height*l.MaxAspect {
		width = height * l.MaxAspect
		if need(width) > height {
			// Narrowing made the text taller. Find the widest width that
			// stays in the band at the height it needs.
			lo, hi := l.MinHeight*l.MaxAspect, w.bounds.W
			for range 60 {
				mid := (lo + hi) / 2
				if mid <= need(mid)*l.MaxAspect {
					lo = mid
				} else {
					hi = mid
				}
			}
			width = lo
		}
		height = need(width)
	}
	// Widening never makes the text taller.
	if width < height*l.MinAspect {
		width = height * l.MinAspect
	}
	w.bounds.W, w.bounds.H = width, height
}

func (w *Widget) endDrag() {
	if !w.dragging {
		return
	}
	w.dragging = false
	w.clampToScreen()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (w *Widget) clampToScreen() {
	area := w.env.Screens.WorkingArea(w.bounds.X, w.bounds.Y)
	w.bounds = ClampToArea(w.bounds, area, w.env.Layout.DragMargin)
}
