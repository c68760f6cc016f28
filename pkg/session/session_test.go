package session

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/noats/pkg/core"
	"github.com/aretw0/noats/pkg/hotkey"
	"github.com/aretw0/noats/pkg/theme"
	"github.com/aretw0/noats/pkg/widget"
)

// memStore is an in-memory core.Store that records every write.
type memStore struct {
	mu      sync.Mutex
	state   *core.AppState
	saves   []core.AppState
	failErr error
	block   chan struct{}
}

func (m *memStore) Save(ctx context.Context, state core.AppState) error {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return &core.StorageError{Op: "write", Path: "mem", Err: m.failErr}
	}
	m.saves = append(m.saves, state)
	m.state = &state
	return nil
}

func (m *memStore) Load(ctx context.Context) core.AppState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return core.NewAppState(time.Now())
	}
	return *m.state
}

func (m *memStore) HasSavedState() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state != nil
}

func (m *memStore) DeleteState() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = nil
	return nil
}

func (m *memStore) Initialize(ctx context.Context) error { return nil }

func (m *memStore) Saves() []core.AppState {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.AppState, len(m.saves))
	copy(out, m.saves)
	return out
}

func (m *memStore) preload(snaps ...core.Snapshot) {
	state := core.NewAppState(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	state.Widgets = append(state.Widgets, snaps...)
	m.state = &state
}

func snap(content, themeName string, visible bool) core.Snapshot {
	return core.Snapshot{
		Content:      content,
		X:            100,
		Y:            100,
		Width:        200,
		Height:       150,
		IsVisible:    visible,
		ThemeName:    themeName,
		LastModified: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newTestController(t *testing.T, store core.Store) (*Controller, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	catalog, err := theme.NewCatalog(theme.WithRand(func(n int) int { return 2 }))
	require.NoError(t, err)

	c := NewController(context.Background(), Config{
		Store:   store,
		Catalog: catalog,
		Env:     widget.Env{Clock: clock},
	})
	return c, clock
}

func drainEvents(c *Controller) []core.Event {
	var out []core.Event
	for {
		select {
		case e, ok := <-c.Events():
			if !ok {
				return out
			}
			out = append(out, e)
		default:
			return out
		}
	}
}

func advanceAndTick(c *Controller, clock *clockwork.FakeClock, d time.Duration) {
	clock.Advance(d)
	c.Tick(clock.Now())
}

func TestRegistry(t *testing.T) {
	env := widget.Env{Clock: clockwork.NewFakeClock()}
	r := NewRegistry()
	a := widget.New(env, theme.Default().Default(), widget.Rect{W: 200, H: 150})
	b := widget.New(env, theme.Default().Default(), widget.Rect{W: 200, H: 150})

	r.Register(a)
	r.Register(b)
	r.Register(a)
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []*widget.Widget{a, b}, r.All())

	assert.True(t, r.Unregister(a))
	assert.False(t, r.Unregister(a), "second removal is a no-op")
	_, ok := r.Get(a.ID())
	assert.False(t, ok)
	assert.Equal(t, []*widget.Widget{b}, r.All())
}

func TestController_CreateNew(t *testing.T) {
	store := &memStore{}
	c, clock := newTestController(t, store)

	w := c.CreateNew()
	assert.True(t, w.Visible())
	assert.Equal(t, widget.Editing, w.State())
	assert.Equal(t, "Mint", w.Theme().Name)
	assert.Equal(t, widget.Rect{X: 860, Y: 445, W: 200, H: 150}, w.Bounds())

	events := drainEvents(c)
	require.Len(t, events, 1)
	assert.Equal(t, core.EventCreate, events[0].Type)
	assert.Equal(t, w.ID(), events[0].WidgetID)

	advanceAndTick(c, clock, 100*time.Millisecond)
	require.NoError(t, c.Shutdown(context.Background()))

	saves := store.Saves()
	require.Len(t, saves, 1, "the shutdown flush writes the pending save")
	require.Len(t, saves[0].Widgets, 1)
	assert.Equal(t, "Mint", saves[0].Widgets[0].ThemeName)
}

func TestController_HideAllWritesOnce(t *testing.T) {
	store := &memStore{}
	store.preload(snap("a", "Mint", true), snap("b", "Rose", true), snap("c", "Peach", true))
	c, clock := newTestController(t, store)

	require.Equal(t, 3, c.ReloadFromDisk(context.Background()))
	c.HideAll()
	for _, w := range c.Widgets() {
		assert.False(t, w.Visible())
	}

	advanceAndTick(c, clock, DefaultSaveDebounce)
	require.NoError(t, c.Shutdown(context.Background()))

	saves := store.Saves()
	require.Len(t, saves, 1)
	require.Len(t, saves[0].Widgets, 3)
	for _, s := range saves[0].Widgets {
		assert.False(t, s.IsVisible)
	}
}

func TestController_ShowAll(t *testing.T) {
	store := &memStore{}
	store.preload(snap("a", "Mint", false), snap("b", "Rose", true))
	c, _ := newTestController(t, store)

	c.ReloadFromDisk(context.Background())
	visible := 0
	for _, w := range c.Widgets() {
		if w.Visible() {
			visible++
		}
	}
	assert.Equal(t, 1, visible, "only snapshots marked visible are shown")

	c.ShowAll()
	require.NoError(t, c.SaveNow(context.Background()))
	saves := store.Saves()
	require.Len(t, saves, 1)
	assert.True(t, saves[0].Widgets[0].IsVisible)
	assert.True(t, saves[0].Widgets[1].IsVisible)
	assert.False(t, c.State().(ControllerState).SavePending)
}

func TestController_ReloadUnknownThemeFallsBack(t *testing.T) {
	store := &memStore{}
	store.preload(snap("haunted", "Ghost", true))
	c, _ := newTestController(t, store)

	require.Equal(t, 1, c.ReloadFromDisk(context.Background()))
	w := c.Widgets()[0]
	assert.Equal(t, "Mint", w.Theme().Name)
	assert.Equal(t, "haunted", w.Content())
	assert.Equal(t, widget.Idle, w.State())

	_, ok := c.catalog.ByName(w.Theme().Name)
	assert.True(t, ok)
}

func TestController_ReloadDoesNotSaveWhileClosing(t *testing.T) {
	store := &memStore{}
	c, clock := newTestController(t, store)

	c.CreateNew()
	c.CreateNew()
	require.NoError(t, c.SaveNow(context.Background()))
	require.Len(t, store.Saves(), 1)

	store.preload(snap("from disk", "Rose", true))
	assert.Equal(t, 1, c.ReloadFromDisk(context.Background()))
	require.Len(t, store.Saves(), 1, "closing the old notes must not write")

	events := drainEvents(c)
	var closes int
	for _, e := range events {
		if e.Type == core.EventClose {
			closes++
		}
	}
	assert.Equal(t, 2, closes)

	advanceAndTick(c, clock, DefaultSaveDebounce)
	require.NoError(t, c.Shutdown(context.Background()))
	saves := store.Saves()
	require.Len(t, saves, 2)
	require.Len(t, saves[1].Widgets, 1)
	assert.Equal(t, "from disk", saves[1].Widgets[0].Content)
}

func TestController_DuplicateThroughKeys(t *testing.T) {
	c, _ := newTestController(t, &memStore{})
	w := c.CreateNew()
	require.NoError(t, c.Edit(w.ID(), "twin"))
	require.NoError(t, c.KeyPress(w.ID(), widget.KeyEscape))
	require.NoError(t, c.PointerPress(w.ID()))
	require.NoError(t, c.PointerRelease(w.ID()))
	require.NoError(t, c.KeyPress(w.ID(), widget.KeyDuplicate))

	all := c.Widgets()
	require.Len(t, all, 2)
	d := all[1]
	assert.Equal(t, "twin", d.Content())
	assert.Equal(t, w.Bounds().X+20, d.Bounds().X)
	assert.Equal(t, w.Bounds().Y+20, d.Bounds().Y)
	assert.Equal(t, w.Bounds().W, d.Bounds().W)
	assert.Equal(t, widget.Editing, d.State())
	assert.Equal(t, widget.Selected, w.State(), "the original is unaffected")
}

func TestController_DeleteAndClose(t *testing.T) {
	c, _ := newTestController(t, &memStore{})
	w := c.CreateNew()
	require.NoError(t, c.KeyPress(w.ID(), widget.KeyEscape))
	require.NoError(t, c.PointerPress(w.ID()))
	require.NoError(t, c.PointerRelease(w.ID()))
	require.NoError(t, c.KeyPress(w.ID(), widget.KeyDelete))

	assert.Empty(t, c.Widgets())
	assert.False(t, w.Visible())

	err := c.Close(w.ID())
	assert.True(t, errors.Is(err, core.ErrUnknownWidget))
}

func TestController_HideKeyEmitsHide(t *testing.T) {
	c, _ := newTestController(t, &memStore{})
	w := c.CreateNew()
	c.KeyPress(w.ID(), widget.KeyEscape)
	c.PointerPress(w.ID())
	c.PointerRelease(w.ID())
	drainEvents(c)

	require.NoError(t, c.KeyPress(w.ID(), widget.KeyHide))
	events := drainEvents(c)
	require.Len(t, events, 1)
	assert.Equal(t, core.EventHide, events[0].Type)
	assert.Equal(t, w.ID(), events[0].WidgetID)
	assert.True(t, c.State().(ControllerState).SavePending)
}

func TestController_TimersFitBeforeSave(t *testing.T) {
	store := &memStore{}
	c, clock := newTestController(t, store)
	w := c.CreateNew()
	require.NoError(t, c.Edit(w.ID(), "abc"))
	require.NoError(t, c.Resize(w.ID(), 10, 10))

	due, ok := c.NextDeadline()
	require.True(t, ok)
	assert.Equal(t, clock.Now().Add(150*time.Millisecond), due, "fit comes first")

	advanceAndTick(c, clock, 150*time.Millisecond)
	assert.Equal(t, 64.0, w.Bounds().W)

	due, ok = c.NextDeadline()
	require.True(t, ok)
	assert.Equal(t, clock.Now().Add(DefaultSaveDebounce), due, "the fit schedules a save")

	advanceAndTick(c, clock, DefaultSaveDebounce)
	_, ok = c.NextDeadline()
	assert.False(t, ok)

	require.NoError(t, c.Shutdown(context.Background()))
	saves := store.Saves()
	require.Len(t, saves, 1)
	assert.Equal(t, 64.0, saves[0].Widgets[0].Width)
	assert.Equal(t, 64.0, saves[0].Widgets[0].Height)
}

func TestController_SaveNowSurfacesStorageError(t *testing.T) {
	store := &memStore{failErr: errors.New("disk full")}
	c, _ := newTestController(t, store)
	c.CreateNew()
	drainEvents(c)

	err := c.SaveNow(context.Background())
	var storageErr *core.StorageError
	require.True(t, errors.As(err, &storageErr))
	assert.Equal(t, "write", storageErr.Op)

	require.Eventually(t, func() bool {
		return c.State().(ControllerState).LastSaveError != ""
	}, time.Second, 5*time.Millisecond)
	assert.Contains(t, c.State().(ControllerState).LastSaveError, "disk full")
}

func TestController_UnknownWidget(t *testing.T) {
	c, _ := newTestController(t, &memStore{})
	assert.ErrorIs(t, c.PointerPress("missing"), core.ErrUnknownWidget)
	assert.ErrorIs(t, c.Edit("missing", "x"), core.ErrUnknownWidget)

	w := c.CreateNew()
	require.NoError(t, c.Close(w.ID()))
	assert.ErrorIs(t, c.Close(w.ID()), core.ErrUnknownWidget, "closing twice")
}

func TestController_NonFiniteInputKeepsStateSavable(t *testing.T) {
	store := &memStore{}
	c, clock := newTestController(t, store)
	w := c.CreateNew()

	require.NoError(t, c.PointerPress(w.ID()))
	require.NoError(t, c.DragTo(w.ID(), math.NaN(), 10))
	require.NoError(t, c.PointerRelease(w.ID()))
	require.NoError(t, c.Resize(w.ID(), math.Inf(1), 100))
	advanceAndTick(c, clock, time.Second)
	require.NoError(t, c.SaveNow(context.Background()))

	saves := store.Saves()
	require.NotEmpty(t, saves)
	snap := saves[len(saves)-1].Widgets[0]
	for _, v := range []float64{snap.X, snap.Y, snap.Width, snap.Height} {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
}

func TestSaver_CoalescesQueuedWrites(t *testing.T) {
	store := &memStore{block: make(chan struct{})}
	s := NewSaver(context.Background(), store, nil)

	first := s.Submit(core.AppState{Version: 1})
	require.Eventually(t, func() bool { return !s.Idle() }, time.Second, time.Millisecond)

	second := s.Submit(core.AppState{Version: 2})
	third := s.Submit(core.AppState{Version: 3})

	close(store.block)
	assert.NoError(t, <-first)
	assert.NoError(t, <-second)
	assert.NoError(t, <-third)
	require.NoError(t, s.Close(context.Background()))

	saves := store.Saves()
	require.Len(t, saves, 2)
	assert.Equal(t, 1, saves[0].Version)
	assert.Equal(t, 3, saves[1].Version, "the last submission wins")
	assert.Equal(t, 2, s.Writes())

	assert.ErrorIs(t, <-s.Submit(core.AppState{}), core.ErrSaverClosed)
}

func TestLoop_RunsTriggersAndFlushesOnExit(t *testing.T) {
	store := &memStore{}
	c, _ := newTestController(t, store)
	bridge := hotkey.NewChannelBridge(4)
	loop := NewLoop(c, WithBridge(bridge))

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- loop.Run(ctx) }()

	require.True(t, bridge.Fire(hotkey.TriggerCreate))
	require.True(t, bridge.Fire(hotkey.TriggerCreate))
	require.True(t, bridge.Fire(hotkey.TriggerHideAll))

	require.Eventually(t, func() bool {
		var n, visible int
		_ = loop.Call(context.Background(), func(c *Controller) {
			n = len(c.Widgets())
			visible = c.State().(ControllerState).Visible
		})
		return n == 2 && visible == 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-runErr:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}

	saves := store.Saves()
	require.Len(t, saves, 1)
	require.Len(t, saves[0].Widgets, 2)
	assert.False(t, saves[0].Widgets[0].IsVisible)

	assert.ErrorIs(t, loop.Post(func() {}), ErrLoopStopped)
}

func TestLoop_ReloadsOnExternalChange(t *testing.T) {
	store := &memStore{}
	store.preload(snap("edited elsewhere", "Rose", true))
	c, _ := newTestController(t, store)
	external := make(chan core.Event, 1)
	loop := NewLoop(c, WithExternalChanges(external))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	external <- core.Event{Type: core.EventExternal}
	require.Eventually(t, func() bool {
		var n int
		_ = loop.Call(ctx, func(c *Controller) { n = len(c.Widgets()) })
		return n == 1
	}, 2*time.Second, 10*time.Millisecond)
}
