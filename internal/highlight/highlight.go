// Package highlight gives transient visual confirmation on filled form controls.
package highlight

import (
	"sync"
	"time"

	"github.com/jonathan/form-filler/internal/dom"
	"go.uber.org/zap"
)

// Defaults for the success flash.
const (
	DefaultColor      = "#d1fae5"
	DefaultTransition = "background 0.3s ease"
	DefaultHold       = 1000 * time.Millisecond
	DefaultRestore    = 300 * time.Millisecond
)

const (
	propBackground = "background"
	propTransition = "transition"
)

// Timer is a scheduled callback that can be stopped.
type Timer interface {
	Stop() bool
}

// Scheduler runs f after d on its own goroutine.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Options configures a Highlighter. Zero values use the defaults.
type Options struct {
	Color      string
	Transition string
	Hold       time.Duration
	Restore    time.Duration
	Scheduler  Scheduler
	Logger     *zap.Logger
}

type stage int

const (
	stageHolding stage = iota
	stageRestoring
)

type task struct {
	el         dom.Element
	background string
	transition string
	stage      stage
	timer      Timer
}

// Highlighter flashes elements and restores their style on a timer.
// Flashes are fire-and-forget: Flash never waits for the restore.
type Highlighter struct {
	color      string
	transition string
	hold       time.Duration
	restore    time.Duration
	sched      Scheduler
	logger     *zap.Logger

	mu    sync.Mutex
	tasks map[string]map[uint64]*task
	next  uint64
}

// New creates a Highlighter.
func New(opts Options) *Highlighter {
	h := &Highlighter{
		color:      opts.Color,
		transition: opts.Transition,
		hold:       opts.Hold,
		restore:    opts.Restore,
		sched:      opts.Scheduler,
		logger:     opts.Logger,
		tasks:      make(map[string]map[uint64]*task),
	}
	if h.color == "" {
		h.color = DefaultColor
	}
	if h.transition == "" {
		h.transition = DefaultTransition
	}
	if h.hold <= 0 {
		h.hold = DefaultHold
	}
	if h.restore <= 0 {
		h.restore = DefaultRestore
	}
	if h.sched == nil {
		h.sched = realScheduler{}
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	h.logger = h.logger.Named("highlight")
	return h
}

// Flash sets the success background on el and schedules its restore.
// Overlapping flashes on one element each run to completion; a later flash
// restores to the style saved by the earliest still-pending one.
func (h *Highlighter) Flash(el dom.Element) {
	if !el.Connected() {
		return
	}

	background, err := el.Style(propBackground)
	if err != nil {
		h.logger.Debug("cannot read background", zap.String("element", el.Key()), zap.Error(err))
		return
	}
	transition, err := el.Style(propTransition)
	if err != nil {
		h.logger.Debug("cannot read transition", zap.String("element", el.Key()), zap.Error(err))
		return
	}

	h.mu.Lock()
	for _, pending := range h.tasks[el.Key()] {
		background, transition = pending.background, pending.transition
		break
	}
	h.mu.Unlock()

	if err := el.SetStyle(propTransition, h.transition); err != nil {
		h.logger.Debug("cannot set transition", zap.String("element", el.Key()), zap.Error(err))
		return
	}
	if err := el.SetStyle(propBackground, h.color); err != nil {
		h.logger.Debug("cannot set background", zap.String("element", el.Key()), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.next++
	id := h.next
	t := &task{el: el, background: background, transition: transition}
	if h.tasks[el.Key()] == nil {
		h.tasks[el.Key()] = make(map[uint64]*task)
	}
	h.tasks[el.Key()][id] = t
	t.timer = h.sched.AfterFunc(h.hold, func() { h.restoreBackground(el.Key(), id) })
}

func (h *Highlighter) restoreBackground(key string, id uint64) {
	h.mu.Lock()
	t := h.tasks[key][id]
	h.mu.Unlock()
	if t == nil {
		return
	}

	h.apply(t.el, propBackground, t.background)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.tasks[key][id] != t {
		return
	}
	t.stage = stageRestoring
	t.timer = h.sched.AfterFunc(h.restore, func() { h.restoreTransition(key, id) })
}

func (h *Highlighter) restoreTransition(key string, id uint64) {
	t := h.take(key, id)
	if t == nil {
		return
	}
	h.apply(t.el, propTransition, t.transition)
}

// take removes a task from the registry and returns it, or nil when gone.
func (h *Highlighter) take(key string, id uint64) *task {
	h.mu.Lock()
	defer h.mu.Unlock()

	t := h.tasks[key][id]
	if t == nil {
		return nil
	}
	delete(h.tasks[key], id)
	if len(h.tasks[key]) == 0 {
		delete(h.tasks, key)
	}
	return t
}

// apply writes a style property unless the element has left the page.
func (h *Highlighter) apply(el dom.Element, property, value string) {
	if !el.Connected() {
		h.logger.Debug("element detached before restore", zap.String("element", el.Key()))
		return
	}
	if err := el.SetStyle(property, value); err != nil {
		h.logger.Debug("restore failed", zap.String("element", el.Key()), zap.String("property", property), zap.Error(err))
	}
}

// Cancel stops every pending flash on the element with the given key and
// restores its saved style immediately.
func (h *Highlighter) Cancel(key string) {
	h.mu.Lock()
	pending := h.tasks[key]
	delete(h.tasks, key)
	h.mu.Unlock()

	var first *task
	var firstID uint64
	for id, t := range pending {
		t.timer.Stop()
		if first == nil || id < firstID {
			first, firstID = t, id
		}
	}
	if first == nil {
		return
	}
	if first.stage == stageHolding {
		h.apply(first.el, propBackground, first.background)
	}
	h.apply(first.el, propTransition, first.transition)
}

// Stop cancels every pending flash.
func (h *Highlighter) Stop() {
	h.mu.Lock()
	keys := make([]string, 0, len(h.tasks))
	for k := range h.tasks {
		keys = append(keys, k)
	}
	h.mu.Unlock()

	for _, k := range keys {
		h.Cancel(k)
	}
}

// Pending returns the number of flashes that have not finished.
func (h *Highlighter) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for _, m := range h.tasks {
		n += len(m)
	}
	return n
}
