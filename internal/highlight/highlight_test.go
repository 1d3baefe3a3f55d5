package highlight

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jonathan/form-filler/internal/htmldoc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// manualScheduler fires callbacks only when Advance is called.
type manualScheduler struct {
	mu      sync.Mutex
	now     time.Duration
	entries []*manualTimer
}

type manualTimer struct {
	s       *manualScheduler
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{s: s, at: s.now + d, f: f}
	s.entries = append(s.entries, t)
	return t
}

func (s *manualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		sort.SliceStable(s.entries, func(i, j int) bool { return s.entries[i].at < s.entries[j].at })
		var next *manualTimer
		for _, t := range s.entries {
			if !t.fired && !t.stopped && t.at <= target {
				next = t
				break
			}
		}
		if next == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		next.fired = true
		s.now = next.at
		s.mu.Unlock()
		next.f()
	}
}

func styleOf(t *testing.T, el *htmldoc.Element) string {
	t.Helper()
	s, ok := el.Attr("style")
	if !ok {
		return ""
	}
	return s
}

func TestFlash_RestoresInTwoSteps(t *testing.T) {
	doc, err := htmldoc.ParseString(`<input name="email" style="background: white; color: red">`)
	require.NoError(t, err)
	el := doc.First("input")

	sched := &manualScheduler{}
	h := New(Options{Scheduler: sched, Logger: zaptest.NewLogger(t)})

	h.Flash(el)

	bg, _ := el.Style("background")
	tr, _ := el.Style("transition")
	assert.Equal(t, DefaultColor, bg)
	assert.Equal(t, DefaultTransition, tr)
	assert.Equal(t, 1, h.Pending())

	sched.Advance(999 * time.Millisecond)
	bg, _ = el.Style("background")
	assert.Equal(t, DefaultColor, bg, "still highlighted before the hold elapses")

	sched.Advance(time.Millisecond)
	bg, _ = el.Style("background")
	tr, _ = el.Style("transition")
	assert.Equal(t, "white", bg)
	assert.Equal(t, DefaultTransition, tr, "transition stays during the fade")

	sched.Advance(300 * time.Millisecond)
	tr, _ = el.Style("transition")
	assert.Empty(t, tr)
	assert.Equal(t, "background: white; color: red", styleOf(t, el))
	assert.Zero(t, h.Pending())
}

func TestFlash_NoInlineStyleLeavesNoTrace(t *testing.T) {
	doc, err := htmldoc.ParseString(`<input name="email">`)
	require.NoError(t, err)
	el := doc.First("input")

	sched := &manualScheduler{}
	h := New(Options{Scheduler: sched})

	h.Flash(el)
	sched.Advance(2 * time.Second)

	_, ok := el.Attr("style")
	assert.False(t, ok)
}

func TestFlash_CustomColor(t *testing.T) {
	doc, err := htmldoc.ParseString(`<input name="email">`)
	require.NoError(t, err)
	el := doc.First("input")

	h := New(Options{Scheduler: &manualScheduler{}, Color: "#fef3c7"})
	h.Flash(el)

	bg, _ := el.Style("background")
	assert.Equal(t, "#fef3c7", bg)
}

func TestFlash_OverlappingRunsRestoreOriginal(t *testing.T) {
	doc, err := htmldoc.ParseString(`<input name="email" style="background: white">`)
	require.NoError(t, err)
	el := doc.First("input")

	sched := &manualScheduler{}
	h := New(Options{Scheduler: sched})

	h.Flash(el)
	sched.Advance(500 * time.Millisecond)
	h.Flash(el)
	assert.Equal(t, 2, h.Pending())

	sched.Advance(500 * time.Millisecond)
	bg, _ := el.Style("background")
	assert.Equal(t, "white", bg, "first run restores on its own schedule")

	sched.Advance(2 * time.Second)
	bg, _ = el.Style("background")
	assert.Equal(t, "white", bg, "second run does not leave the highlight behind")
	assert.Zero(t, h.Pending())
}

func TestFlash_DetachedBeforeRestore(t *testing.T) {
	doc, err := htmldoc.ParseString(`<form><input name="email"></form>`)
	require.NoError(t, err)
	el := doc.First("input")

	sched := &manualScheduler{}
	h := New(Options{Scheduler: sched, Logger: zaptest.NewLogger(t)})

	h.Flash(el)
	require.Equal(t, 1, doc.Remove("input"))

	assert.NotPanics(t, func() { sched.Advance(2 * time.Second) })
	assert.Zero(t, h.Pending())
}

func TestFlash_SkipsDetachedElement(t *testing.T) {
	doc, err := htmldoc.ParseString(`<input name="email">`)
	require.NoError(t, err)
	el := doc.First("input")
	doc.Remove("input")

	h := New(Options{Scheduler: &manualScheduler{}})
	h.Flash(el)
	assert.Zero(t, h.Pending())
}

func TestCancel_RestoresImmediately(t *testing.T) {
	doc, err := htmldoc.ParseString(`<input name="email" style="background: white">`)
	require.NoError(t, err)
	el := doc.First("input")

	sched := &manualScheduler{}
	h := New(Options{Scheduler: sched})

	h.Flash(el)
	h.Cancel(el.Key())

	assert.Equal(t, "background: white", styleOf(t, el))
	assert.Zero(t, h.Pending())

	sched.Advance(2 * time.Second)
	assert.Equal(t, "background: white", styleOf(t, el))
}

func TestStop_WithRealScheduler(t *testing.T) {
	doc, err := htmldoc.ParseString(`<input name="a"><input name="b">`)
	require.NoError(t, err)

	h := New(Options{Hold: time.Hour})
	for _, el := range doc.Find("input") {
		h.Flash(el)
	}
	assert.Equal(t, 2, h.Pending())

	h.Stop()
	assert.Zero(t, h.Pending())
	for _, el := range doc.Find("input") {
		_, ok := el.Attr("style")
		assert.False(t, ok)
	}
}

func TestFlash_RealSchedulerCompletes(t *testing.T) {
	doc, err := htmldoc.ParseString(`<input name="a">`)
	require.NoError(t, err)
	el := doc.First("input")

	h := New(Options{Hold: 5 * time.Millisecond, Restore: 5 * time.Millisecond})
	h.Flash(el)

	assert.Eventually(t, func() bool { return h.Pending() == 0 }, time.Second, 5*time.Millisecond)
	_, ok := el.Attr("style")
	assert.False(t, ok)
}

func TestFlash_RestoresBackgroundWithDataURL(t *testing.T) {
	original := `background: url("data:image/png;base64,iVBORw0KGgo=") no-repeat; color: red`
	doc, err := htmldoc.ParseString(`<input name="photo" style='` + original + `'>`)
	require.NoError(t, err)
	el := doc.First("input")

	sched := &manualScheduler{}
	h := New(Options{Scheduler: sched})

	h.Flash(el)
	bg, _ := el.Style("background")
	assert.Equal(t, DefaultColor, bg)

	sched.Advance(2 * time.Second)
	assert.Equal(t, original, styleOf(t, el))
	assert.Zero(t, h.Pending())
}
