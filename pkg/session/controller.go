package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	"github.com/jonboulle/clockwork"

	"github.com/aretw0/noats/pkg/core"
	"github.com/aretw0/noats/pkg/theme"
	"github.com/aretw0/noats/pkg/widget"
)

const (
	DefaultSaveDebounce    = 200 * time.Millisecond
	DefaultDuplicateOffset = 20.0
	defaultEventBuffer     = 64
)

// Config wires a Controller to its collaborators. Zero values get defaults.
type Config struct {
	Store           core.Store
	Catalog         *theme.Catalog
	Env             widget.Env
	Logger          *slog.Logger
	SaveDebounce    time.Duration
	DuplicateOffset float64
	EventBuffer     int
}

// Controller is the only way to reach the live notes. It is not safe for
// concurrent use: call it from the logic thread (see Loop).
type Controller struct {
	store           core.Store
	catalog         *theme.Catalog
	env             widget.Env
	logger          *slog.Logger
	clock           clockwork.Clock
	saveDebounce    time.Duration
	duplicateOffset float64

	registry *Registry
	saver    *Saver

	savePending bool
	saveDue     time.Time

	mu          sync.Mutex
	events      chan core.Event
	eventsOpen  bool
	lastSaveErr error
}

// NewController builds a controller and starts its background saver.
func NewController(ctx context.Context, cfg Config) *Controller {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Catalog == nil {
		cfg.Catalog = theme.Default()
	}
	if cfg.Env.Clock == nil {
		cfg.Env.Clock = clockwork.NewRealClock()
	}
	if cfg.Env.Layout == (widget.Layout{}) {
		cfg.Env.Layout = widget.DefaultLayout()
	}
	if cfg.Env.Screens == nil {
		cfg.Env.Screens = widget.Screens(nil)
	}
	if cfg.SaveDebounce <= 0 {
		cfg.SaveDebounce = DefaultSaveDebounce
	}
	if cfg.DuplicateOffset == 0 {
		cfg.DuplicateOffset = DefaultDuplicateOffset
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = defaultEventBuffer
	}

	c := &Controller{
		store:           cfg.Store,
		catalog:         cfg.Catalog,
		env:             cfg.Env,
		logger:          cfg.Logger,
		clock:           cfg.Env.Clock,
		saveDebounce:    cfg.SaveDebounce,
		duplicateOffset: cfg.DuplicateOffset,
		registry:        NewRegistry(),
		events:          make(chan core.Event, cfg.EventBuffer),
		eventsOpen:      true,
	}
	c.saver = NewSaver(ctx, cfg.Store, cfg.Logger, WithResultHook(c.onSaved))
	return c
}

// Events reports what happened in the session. Events are dropped when
// nobody keeps up. The channel closes after Shutdown.
func (c *Controller) Events() <-chan core.Event {
	return c.events
}

// Widgets returns the live notes in registration order.
func (c *Controller) Widgets() []*widget.Widget {
	return c.registry.All()
}

func (c *Controller) Widget(id string) (*widget.Widget, bool) {
	return c.registry.Get(id)
}

// CreateNew opens a focused note with a random theme centred on the
// primary screen.
func (c *Controller) CreateNew() *widget.Widget {
	l := c.env.Layout
	bounds := widget.Centered(widget.PrimaryArea(c.env.Screens), l.DefaultWidth, l.DefaultHeight)
	w := widget.New(c.env, c.catalog.Random(), bounds)
	c.add(w)
	return w
}

// HideAll hides every note with a single save.
func (c *Controller) HideAll() {
	for _, w := range c.registry.All() {
		w.Hide()
	}
	c.emit(core.EventHide, "")
	c.requestSave()
}

// ShowAll shows every note with a single save.
func (c *Controller) ShowAll() {
	for _, w := range c.registry.All() {
		w.Show()
	}
	c.emit(core.EventShow, "")
	c.requestSave()
}

// ReloadFromDisk replaces the live notes with the stored state. Closing the
// current notes does not save, so the state being loaded is not clobbered.
// It returns the number of notes restored.
func (c *Controller) ReloadFromDisk(ctx context.Context) int {
	state := c.store.Load(ctx)

	for _, w := range c.registry.All() {
		c.close(w, false)
	}
	c.savePending = false

	for _, snap := range state.Widgets {
		def, ok := c.catalog.ByName(snap.ThemeName)
		if !ok {
			def = c.catalog.Random()
			c.logger.Debug("theme fallback", "theme", snap.ThemeName, "using", def.Name)
		}
		w := widget.FromSnapshot(c.env, def, snap)
		c.registry.Register(w)
	}

	c.logger.Info("state reloaded", "widgets", c.registry.Len())
	c.emit(core.EventReload, "")
	c.requestSave()
	return c.registry.Len()
}

// Close removes a note and schedules a save. A note that is not registered,
// including one already closed, yields core.ErrUnknownWidget.
func (c *Controller) Close(id string) error {
	w, err := c.lookup(id)
	if err != nil {
		return err
	}
	c.close(w, true)
	return nil
}

func (c *Controller) PointerPress(id string) error {
	return c.with(id, func(w *widget.Widget) widget.Effect {
		w.PointerPress()
		return widget.EffectNone
	})
}

func (c *Controller) DragTo(id string, x, y float64) error {
	return c.with(id, func(w *widget.Widget) widget.Effect {
		w.DragTo(x, y)
		return widget.EffectNone
	})
}

func (c *Controller) PointerRelease(id string) error {
	return c.with(id, func(w *widget.Widget) widget.Effect {
		if !w.Dragging() {
			return widget.EffectNone
		}
		w.PointerRelease()
		return widget.EffectSave
	})
}

func (c *Controller) KeyPress(id string, key widget.Key) error {
	return c.with(id, func(w *widget.Widget) widget.Effect {
		return w.HandleKey(key)
	})
}

func (c *Controller) Deactivate(id string) error {
	return c.with(id, func(w *widget.Widget) widget.Effect {
		return w.Deactivate()
	})
}

// Edit replaces the text of a note in edit mode. Edits to a note that is
// not editing are ignored.
func (c *Controller) Edit(id, content string) error {
	return c.with(id, func(w *widget.Widget) widget.Effect {
		if w.Edit(content) {
			return widget.EffectSave
		}
		return widget.EffectNone
	})
}

func (c *Controller) Resize(id string, width, height float64) error {
	return c.with(id, func(w *widget.Widget) widget.Effect {
		if w.Resize(width, height) {
			return widget.EffectSave
		}
		return widget.EffectNone
	})
}

// Tick runs every fit and the save whose deadline has passed.
func (c *Controller) Tick(now time.Time) {
	for _, w := range c.registry.All() {
		if w.Tick(now) {
			c.requestSave()
		}
	}
	if c.savePending && !now.Before(c.saveDue) {
		c.flush()
	}
}

// NextDeadline returns the earliest pending timer.
func (c *Controller) NextDeadline() (time.Time, bool) {
	var next time.Time
	found := false
	consider := func(t time.Time) {
		if !found || t.Before(next) {
			next, found = t, true
		}
	}
	for _, w := range c.registry.All() {
		if due, ok := w.Due(); ok {
			consider(due)
		}
	}
	if c.savePending {
		consider(c.saveDue)
	}
	return next, found
}

// SaveNow writes the current state and waits for the result.
func (c *Controller) SaveNow(ctx context.Context) error {
	return wait(ctx, c.flush())
}

// Shutdown flushes a pending save and waits for every write to finish.
// The controller must not be used afterwards.
func (c *Controller) Shutdown(ctx context.Context) error {
	var saveErr error
	if c.savePending {
		saveErr = wait(ctx, c.flush())
	}
	if err := c.saver.Close(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	if c.eventsOpen {
		c.eventsOpen = false
		close(c.events)
	}
	c.mu.Unlock()
	return saveErr
}

// Snapshot captures the full current state.
func (c *Controller) Snapshot() core.AppState {
	state := core.NewAppState(c.clock.Now().UTC())
	for _, w := range c.registry.All() {
		state.Widgets = append(state.Widgets, w.Snapshot())
	}
	return state
}

func (c *Controller) add(w *widget.Widget) {
	c.registry.Register(w)
	w.Show()
	c.emit(core.EventCreate, w.ID())
	c.requestSave()
}

func (c *Controller) close(w *widget.Widget, persist bool) {
	if !c.registry.Unregister(w) {
		return
	}
	w.Hide()
	c.emit(core.EventClose, w.ID())
	if persist {
		c.requestSave()
	}
}

func (c *Controller) lookup(id string) (*widget.Widget, error) {
	w, ok := c.registry.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownWidget, id)
	}
	return w, nil
}

func (c *Controller) with(id string, fn func(*widget.Widget) widget.Effect) error {
	w, err := c.lookup(id)
	if err != nil {
		return err
	}
	c.apply(w, fn(w))
	return nil
}

// apply carries out what a note asked for.
func (c *Controller) apply(w *widget.Widget, effect widget.Effect) {
	switch effect {
	case widget.EffectSave:
		c.requestSave()
	case widget.EffectClose:
		c.close(w, true)
	case widget.EffectHide:
		c.emit(core.EventHide, w.ID())
		c.requestSave()
	case widget.EffectDuplicate:
		c.add(w.Duplicate(c.catalog.Random(), c.duplicateOffset, c.duplicateOffset))
	}
}

func (c *Controller) requestSave() {
	c.savePending = true
	c.saveDue = c.clock.Now().Add(c.saveDebounce)
}

// flush snapshots on the calling (logic) thread and hands the write off.
func (c *Controller) flush() <-chan error {
	c.savePending = false
	return c.saver.Submit(c.Snapshot())
}

func (c *Controller) onSaved(err error) {
	c.mu.Lock()
	c.lastSaveErr = err
	c.mu.Unlock()

	if err != nil {
		c.emit(core.EventSaveFailed, "")
		return
	}
	c.emit(core.EventSave, "")
}

func (c *Controller) emit(t core.EventType, widgetID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.eventsOpen {
		return
	}
	select {
	case c.events <- core.Event{Type: t, WidgetID: widgetID, Timestamp: c.clock.Now().Unix()}:
	default:
		c.logger.Debug("event dropped", "type", t)
	}
}

func wait(ctx context.Context, result <-chan error) error {
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ControllerState is the introspection view of a session.
type ControllerState struct {
	Widgets       int       `json:"widgets"`
	Visible       int       `json:"visible"`
	SavePending   bool      `json:"save_pending"`
	SaveDue       time.Time `json:"save_due,omitzero"`
	Writes        int       `json:"writes"`
	LastSaveError string    `json:"last_save_error,omitempty"`
}

// State implements introspection.Introspectable. Call it from the logic thread.
func (c *Controller) State() any {
	st := ControllerState{
		Widgets:     c.registry.Len(),
		SavePending: c.savePending,
		Writes:      c.saver.Writes(),
	}
	if c.savePending {
		st.SaveDue = c.saveDue
	}
	for _, w := range c.registry.All() {
		if w.Visible() {
			st.Visible++
		}
	}
	c.mu.Lock()
	if c.lastSaveErr != nil {
		st.LastSaveError = c.lastSaveErr.Error()
	}
	c.mu.Unlock()
	return st
}

func (c *Controller) ComponentType() string {
	return "session"
}

var _ introspection.Introspectable = (*Controller)(nil)
var _ introspection.Component = (*Controller)(nil)
