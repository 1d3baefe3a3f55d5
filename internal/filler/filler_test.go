package filler

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/form-filler/internal/dom"
	"github.com/jonathan/form-filler/internal/highlight"
	"github.com/jonathan/form-filler/internal/htmldoc"
	"github.com/jonathan/form-filler/internal/metrics"
	"github.com/jonathan/form-filler/internal/resolver"
	"github.com/jonathan/form-filler/internal/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const applicationForm = `
<html>
	<body>
		<form>
			<input name="firstname">
			<input name="lastname">
			<input name="email">
			<select name="gender">
				<option value="">Choose</option>
				<option value="male">Male</option>
				<option value="female">Female</option>
			</select>
			<input name="phone">
			<input type="date" name="dob">
			<input name="passport_no">
			<input name="notes">
		</form>
	</body>
</html>`

const anaRecord = `{
	"id": 42,
	"first_name": "Ana",
	"middle_name": "",
	"last_name": "Li",
	"email": "a@x.com",
	"gender": "female",
	"mobile_number": "555",
	"date_of_birth": "1990-01-01",
	"passport_number": "P1",
	"created_at": "2024-01-01T00:00:00Z",
	"status": "active",
	"photo": null
}`

type recordingFlasher struct {
	mu   sync.Mutex
	keys []string
}

func (r *recordingFlasher) Flash(el dom.Element) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, el.Key())
}

type panickingFlasher struct{}

func (panickingFlasher) Flash(dom.Element) { panic("style sheet exploded") }

// spyLocator records the alias lists it was asked to resolve.
type spyLocator struct {
	inner Locator
	calls [][]string
}

func (s *spyLocator) Resolve(page dom.Page, aliases []string) (*types.ResolvedField, bool, error) {
	s.calls = append(s.calls, aliases)
	return s.inner.Resolve(page, aliases)
}

func decodeCandidate(t *testing.T, s string) types.Candidate {
	t.Helper()
	var c types.Candidate
	require.NoError(t, json.Unmarshal([]byte(s), &c))
	return c
}

func newTestFiller(t *testing.T, opts Options) *Filler {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = zaptest.NewLogger(t)
	}
	if opts.Flasher == nil {
		opts.Flasher = &recordingFlasher{}
	}
	if opts.SettleDelay == 0 {
		opts.SettleDelay = -1
	}
	return New(opts)
}

func valueOf(t *testing.T, doc *htmldoc.Document, selector string) string {
	t.Helper()
	el := doc.First(selector)
	require.NotNil(t, el, selector)
	v, err := el.Value()
	require.NoError(t, err)
	return v
}

func TestFill_EndToEnd(t *testing.T) {
	doc, err := htmldoc.ParseString(applicationForm)
	require.NoError(t, err)
	flasher := &recordingFlasher{}
	f := newTestFiller(t, Options{Flasher: flasher})

	out := f.Fill(context.Background(), doc, decodeCandidate(t, anaRecord))

	require.True(t, out.Completed(), out.Reason)
	require.NotNil(t, out.Report)
	assert.Equal(t, 7, out.Report.Filled)
	assert.Equal(t, 7, out.Report.Eligible)
	assert.Equal(t, 7, out.Filled())
	assert.Equal(t, "42", out.Report.CandidateID)
	assert.Equal(t, out.RunID, out.Report.RunID)

	assert.Equal(t, "Ana", valueOf(t, doc, `[name="firstname"]`))
	assert.Equal(t, "Li", valueOf(t, doc, `[name="lastname"]`))
	assert.Equal(t, "a@x.com", valueOf(t, doc, `[name="email"]`))
	assert.Equal(t, "female", valueOf(t, doc, `[name="gender"]`))
	assert.Equal(t, "555", valueOf(t, doc, `[name="phone"]`))
	assert.Equal(t, "1990-01-01", valueOf(t, doc, `[name="dob"]`))
	assert.Equal(t, "P1", valueOf(t, doc, `[name="passport_no"]`))
	assert.Equal(t, "", valueOf(t, doc, `[name="notes"]`))

	want := []dom.Event{
		{Type: dom.EventInput, Bubbles: true},
		{Type: dom.EventChange, Bubbles: true},
		{Type: dom.EventBlur, Bubbles: true},
	}
	for _, name := range []string{"firstname", "lastname", "email", "gender", "phone", "dob", "passport_no"} {
		el := doc.First(`[name="` + name + `"]`)
		assert.Equal(t, want, doc.Events(el), name)
	}
	assert.Empty(t, doc.Events(doc.First(`[name="notes"]`)))
	assert.Len(t, flasher.keys, 7)

	byKey := map[string]types.FieldResult{}
	for _, fr := range out.Report.Fields {
		byKey[fr.Key] = fr
	}
	assert.Equal(t, "phone", byKey["mobile_number"].Alias)
	assert.Equal(t, types.TierExactName, byKey["mobile_number"].Tier)
	assert.Equal(t, types.KindSelect, byKey["gender"].Kind)
	assert.Equal(t, types.KindDate, byKey["date_of_birth"].Kind)
}

func TestFill_SkipsExcludedAndFalsyFields(t *testing.T) {
	doc, err := htmldoc.ParseString(`
		<input name="id"><input name="status"><input name="photo">
		<input name="created_at"><input name="updated_at">
		<input name="middle_name"><input name="first_name">`)
	require.NoError(t, err)

	spy := &spyLocator{inner: resolver.New()}
	f := newTestFiller(t, Options{Resolver: spy})

	c := types.NewCandidate(
		types.Field{Key: "id", Value: "7"},
		types.Field{Key: "status", Value: "active"},
		types.Field{Key: "photo", Value: "x.png"},
		types.Field{Key: "created_at", Value: "2024-01-01"},
		types.Field{Key: "updated_at", Value: "2024-01-02"},
		types.Field{Key: "middle_name", Value: ""},
		types.Field{Key: "nickname", Value: nil},
		types.Field{Key: "vip", Value: false},
		types.Field{Key: "score", Value: json.Number("0")},
		types.Field{Key: "first_name", Value: "Ana"},
	)

	out := f.Fill(context.Background(), doc, c)
	require.True(t, out.Completed())
	assert.Equal(t, 1, out.Report.Eligible)
	assert.Equal(t, 1, out.Report.Filled)
	require.Len(t, spy.calls, 1)
	assert.Equal(t, "first_name", spy.calls[0][0])

	for _, name := range []string{"id", "status", "photo", "created_at", "updated_at", "middle_name"} {
		assert.Empty(t, doc.Events(doc.First(`[name="`+name+`"]`)), name)
		assert.Equal(t, "", valueOf(t, doc, `[name="`+name+`"]`), name)
	}
}

func TestFill_Idempotent(t *testing.T) {
	doc, err := htmldoc.ParseString(applicationForm)
	require.NoError(t, err)
	f := newTestFiller(t, Options{})
	c := decodeCandidate(t, anaRecord)

	snapshot := func() map[string]string {
		out := map[string]string{}
		controls, err := doc.Controls()
		require.NoError(t, err)
		for _, el := range controls {
			v, err := el.Value()
			require.NoError(t, err)
			out[el.Name()] = v
		}
		return out
	}

	first := f.Fill(context.Background(), doc, c)
	require.True(t, first.Completed())
	afterFirst := snapshot()

	second := f.Fill(context.Background(), doc, c)
	require.True(t, second.Completed())
	assert.Equal(t, afterFirst, snapshot())
	assert.Equal(t, first.Report.Filled, second.Report.Filled)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestFill_UnmatchedSelectCountsAsFound(t *testing.T) {
	doc, err := htmldoc.ParseString(`
		<select name="gender">
			<option value="m">Male</option>
			<option value="f">Female</option>
		</select>`)
	require.NoError(t, err)
	f := newTestFiller(t, Options{})

	out := f.Fill(context.Background(), doc, types.NewCandidate(types.Field{Key: "gender", Value: "unspecified"}))

	require.True(t, out.Completed())
	assert.Equal(t, 1, out.Report.Filled)
	require.Len(t, out.Report.Fields, 1)
	assert.Equal(t, types.StatusOptionNotMatched, out.Report.Fields[0].Status)
	assert.Len(t, doc.Events(doc.First("select")), 3, "change events are still dispatched")
	assert.Equal(t, "m", valueOf(t, doc, "select"))
}

func TestFill_NotFoundIsNotAnError(t *testing.T) {
	doc, err := htmldoc.ParseString(`<input name="unrelated">`)
	require.NoError(t, err)
	f := newTestFiller(t, Options{})

	out := f.Fill(context.Background(), doc, types.NewCandidate(types.Field{Key: "passport_number", Value: "P1"}))

	require.True(t, out.Completed())
	assert.Equal(t, 0, out.Report.Filled)
	assert.Equal(t, 1, out.Report.Eligible)
	assert.Equal(t, types.StatusNotFound, out.Report.Fields[0].Status)
}

func TestFill_NonScalarValueAborts(t *testing.T) {
	doc, err := htmldoc.ParseString(`<input name="first_name"><input name="email">`)
	require.NoError(t, err)
	f := newTestFiller(t, Options{})

	c := decodeCandidate(t, `{"first_name": {"given": "Ana"}, "email": "a@x.com"}`)
	out := f.Fill(context.Background(), doc, c)

	assert.False(t, out.Completed())
	assert.Equal(t, types.StateAborted, out.State)
	assert.Nil(t, out.Report)
	assert.Zero(t, out.Filled())
	assert.Contains(t, out.Reason, "first_name")
	assert.Equal(t, "", valueOf(t, doc, `[name="email"]`), "loop stops at the failing field")
}

func TestFill_PanicIsRecovered(t *testing.T) {
	doc, err := htmldoc.ParseString(`<input name="email">`)
	require.NoError(t, err)
	f := newTestFiller(t, Options{Flasher: panickingFlasher{}})

	var out types.Outcome
	require.NotPanics(t, func() {
		out = f.Fill(context.Background(), doc, types.NewCandidate(types.Field{Key: "email", Value: "a@x.com"}))
	})
	assert.Equal(t, types.StateAborted, out.State)
	assert.Contains(t, out.Reason, "style sheet exploded")
}

func TestFill_CancelledContextAborts(t *testing.T) {
	doc, err := htmldoc.ParseString(`<input name="email">`)
	require.NoError(t, err)
	f := newTestFiller(t, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := f.Fill(ctx, doc, types.NewCandidate(types.Field{Key: "email", Value: "a@x.com"}))
	assert.Equal(t, types.StateAborted, out.State)
	assert.Contains(t, out.Reason, "interrupted")
	assert.Equal(t, "", valueOf(t, doc, "input"))
}

func TestFill_SettleDelay(t *testing.T) {
	doc, err := htmldoc.ParseString(`<input name="email">`)
	require.NoError(t, err)
	c := types.NewCandidate(types.Field{Key: "email", Value: "a@x.com"})

	f := newTestFiller(t, Options{SettleDelay: 30 * time.Millisecond})
	start := time.Now()
	out := f.Fill(context.Background(), doc, c)
	require.True(t, out.Completed())
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.GreaterOrEqual(t, out.Report.Duration, 30*time.Millisecond)
}

func TestFill_SettleDelayCutShortByContext(t *testing.T) {
	doc, err := htmldoc.ParseString(`<input name="email">`)
	require.NoError(t, err)
	c := types.NewCandidate(types.Field{Key: "email", Value: "a@x.com"})

	f := newTestFiller(t, Options{SettleDelay: time.Hour})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	out := f.Fill(ctx, doc, c)
	require.True(t, out.Completed(), "fields were already written")
	assert.Equal(t, 1, out.Report.Filled)
}

func TestFill_Transitions(t *testing.T) {
	doc, err := htmldoc.ParseString(`<input name="email">`)
	require.NoError(t, err)

	var states []types.FillState
	var runs []uuid.UUID
	f := newTestFiller(t, Options{OnTransition: func(id uuid.UUID, from, to types.FillState) {
		states = append(states, to)
		runs = append(runs, id)
	}})

	out := f.Fill(context.Background(), doc, types.NewCandidate(
		types.Field{Key: "email", Value: "a@x.com"},
		types.Field{Key: "passport_number", Value: "P1"},
	))
	require.True(t, out.Completed())

	assert.Equal(t, []types.FillState{
		types.StateFilling,
		types.StateResolving, types.StateAssigning, types.StateNotifying, types.StateHighlighting,
		types.StateResolving,
		types.StateSummarizing,
		types.StateDone,
	}, states)
	for _, id := range runs {
		assert.Equal(t, out.RunID, id)
	}
}

func TestFill_Metrics(t *testing.T) {
	doc, err := htmldoc.ParseString(`<input name="email">`)
	require.NoError(t, err)
	m := metrics.New(prometheus.NewRegistry())
	f := newTestFiller(t, Options{Metrics: m})

	f.Fill(context.Background(), doc, types.NewCandidate(
		types.Field{Key: "email", Value: "a@x.com"},
		types.Field{Key: "passport_number", Value: "P1"},
	))
	f.Fill(context.Background(), doc, types.NewCandidate(types.Field{Key: "email", Value: []any{"a"}}))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fills.WithLabelValues("done")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fills.WithLabelValues("aborted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fields.WithLabelValues("filled", "exact_name")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fields.WithLabelValues("not_found", "none")))
}

func TestFill_WithHighlighter(t *testing.T) {
	doc, err := htmldoc.ParseString(`<input name="email">`)
	require.NoError(t, err)

	h := highlight.New(highlight.Options{Hold: time.Hour})
	defer h.Stop()
	f := newTestFiller(t, Options{Flasher: h})

	out := f.Fill(context.Background(), doc, types.NewCandidate(types.Field{Key: "email", Value: "a@x.com"}))
	require.True(t, out.Completed())

	bg, err := doc.First("input").Style("background")
	require.NoError(t, err)
	assert.Equal(t, highlight.DefaultColor, bg)
	assert.Equal(t, 1, h.Pending())
}

func TestFillSelected(t *testing.T) {
	doc, err := htmldoc.ParseString(`<input name="email">`)
	require.NoError(t, err)
	f := newTestFiller(t, Options{})

	sel := types.Selection{DialogOpen: true}
	out, sel := f.FillSelected(context.Background(), doc, types.NewCandidate(
		types.Field{Key: "id", Value: "c1"},
		types.Field{Key: "email", Value: "a@x.com"},
	), sel)
	require.True(t, out.Completed())
	assert.Equal(t, types.Selection{}, sel)

	sel = types.Selection{DialogOpen: true}
	out, sel = f.FillSelected(context.Background(), doc, types.NewCandidate(
		types.Field{Key: "id", Value: "c2"},
		types.Field{Key: "email", Value: map[string]any{}},
	), sel)
	assert.Equal(t, types.StateAborted, out.State)
	assert.Equal(t, types.Selection{DialogOpen: true}, sel, "dialog stays open for a retry")
}

func TestFillError(t *testing.T) {
	cause := context.Canceled
	err := &FillError{Message: "fill interrupted", Key: "email", Cause: cause}
	assert.Equal(t, "fill aborted: fill interrupted (field email): context canceled", err.Error())
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, "fill aborted: boom", (&FillError{Message: "boom"}).Error())
}

func TestFill_RepeatedKeyMutatesOnce(t *testing.T) {
	doc, err := htmldoc.ParseString(`<form><input name="first_name"></form>`)
	require.NoError(t, err)
	flasher := &recordingFlasher{}
	f := newTestFiller(t, Options{Flasher: flasher})

	out := f.Fill(context.Background(), doc, decodeCandidate(t, `{"first_name":"Ana","first_name":"Bea"}`))
	require.True(t, out.Completed())

	assert.Equal(t, 1, out.Report.Eligible)
	assert.Equal(t, 1, out.Report.Filled)
	assert.Equal(t, "Bea", valueOf(t, doc, "input"))
	assert.Len(t, doc.Events(doc.First("input")), 3)
	assert.Len(t, flasher.keys, 1)
}
