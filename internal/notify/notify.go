// Package notify announces programmatic value changes to listeners on the host page.
package notify

import (
	"github.com/jonathan/form-filler/internal/dom"
	"go.uber.org/zap"
)

// Sequence is the order in which change events are dispatched.
var Sequence = []string{dom.EventInput, dom.EventChange, dom.EventBlur}

// Notifier dispatches the input/change/blur sequence.
type Notifier struct {
	logger *zap.Logger
}

// New creates a Notifier. A nil logger discards output.
func New(logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{logger: logger.Named("notify")}
}

// Announce dispatches bubbling input, change and blur events on el.
// Dispatch failures are logged and otherwise ignored.
func (n *Notifier) Announce(el dom.Element) {
	for _, typ := range Sequence {
		if err := el.Dispatch(dom.Event{Type: typ, Bubbles: true}); err != nil {
			n.logger.Debug("event dispatch failed",
				zap.String("element", el.Key()),
				zap.String("event", typ),
				zap.Error(err),
			)
		}
	}
}
