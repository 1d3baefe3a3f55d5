package notify

import (
	"errors"
	"testing"

	"github.com/jonathan/form-filler/internal/dom"
	"github.com/jonathan/form-filler/internal/htmldoc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestAnnounce_DispatchesBubblingSequence(t *testing.T) {
	doc, err := htmldoc.ParseString(`<form><input name="email"></form>`)
	require.NoError(t, err)
	el := doc.First("input")

	var observed []string
	doc.AddListener(func(_ dom.Element, ev dom.Event) {
		observed = append(observed, ev.Type)
	})

	New(zaptest.NewLogger(t)).Announce(el)

	assert.Equal(t, []dom.Event{
		{Type: "input", Bubbles: true},
		{Type: "change", Bubbles: true},
		{Type: "blur", Bubbles: true},
	}, doc.Events(el))
	assert.Equal(t, []string{"input", "change", "blur"}, observed)
}

type brokenElement struct {
	dom.Element
	attempts []string
}

func (b *brokenElement) Key() string { return "broken" }
func (b *brokenElement) Dispatch(ev dom.Event) error {
	b.attempts = append(b.attempts, ev.Type)
	return errors.New("target closed")
}

func TestAnnounce_ToleratesDispatchErrors(t *testing.T) {
	el := &brokenElement{}
	assert.NotPanics(t, func() { New(nil).Announce(el) })
	assert.Equal(t, []string{"input", "change", "blur"}, el.attempts)
}
