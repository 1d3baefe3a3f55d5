// Package coerce writes a raw record value into a resolved form control according to its input type.
package coerce

import (
	"fmt"
	"strings"

	"github.com/jonathan/form-filler/internal/dom"
	"github.com/jonathan/form-filler/internal/types"
	"go.uber.org/zap"
)

// Coercer assigns values to form controls.
type Coercer struct {
	logger *zap.Logger
}

// New creates a Coercer. A nil logger discards output.
func New(logger *zap.Logger) *Coercer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coercer{logger: logger.Named("coerce")}
}

// KindOf returns the coercion branch for an element.
func KindOf(el dom.Element) types.ControlKind {
	if el.Tag() == dom.TagSelect {
		return types.KindSelect
	}
	switch el.Type() {
	case "radio":
		return types.KindRadio
	case "checkbox":
		return types.KindCheckbox
	case "date":
		return types.KindDate
	default:
		return types.KindText
	}
}

// Assign writes raw into field. A select without a matching option is left
// unchanged and reported with Applied=false. Dates are written verbatim; the
// record is expected to already use the control's format (yyyy-mm-dd for
// native date inputs).
func (c *Coercer) Assign(page dom.Page, field *types.ResolvedField, raw any, dataKey string) (types.AssignResult, error) {
	if !types.IsScalar(raw) {
		return types.AssignResult{}, &ValueError{Key: dataKey, Value: raw}
	}

	el := field.Element
	kind := KindOf(el)
	value := types.Stringify(raw)
	result := types.AssignResult{Kind: kind, Applied: true, Value: value}

	c.logger.Debug("assigning field",
		zap.String("key", dataKey),
		zap.String("kind", string(kind)),
		zap.String("element", el.Key()),
	)

	switch kind {
	case types.KindSelect:
		opt, ok := matchOption(el.Options(), value)
		if !ok {
			c.logger.Debug("no select option matched", zap.String("key", dataKey))
			result.Applied = false
			result.Value = ""
			return result, nil
		}
		if err := el.SetValue(opt.Value); err != nil {
			return result, fmt.Errorf("failed to select option for %s: %w", dataKey, err)
		}
		result.Value = opt.Value

	case types.KindRadio:
		group, err := page.RadioGroup(el.Name())
		if err != nil {
			return result, fmt.Errorf("failed to list radio group %q: %w", el.Name(), err)
		}
		for _, radio := range group {
			radioValue, ok := radio.Attr("value")
			if !ok {
				radioValue = "on"
			}
			if !strings.EqualFold(radioValue, value) {
				continue
			}
			if err := radio.SetChecked(true); err != nil {
				return result, fmt.Errorf("failed to check radio for %s: %w", dataKey, err)
			}
		}

	case types.KindCheckbox:
		if err := el.SetChecked(types.Truthy(raw)); err != nil {
			return result, fmt.Errorf("failed to set checkbox for %s: %w", dataKey, err)
		}

	default:
		if err := el.SetValue(value); err != nil {
			return result, fmt.Errorf("failed to set value for %s: %w", dataKey, err)
		}
	}

	return result, nil
}

// matchOption returns the first option whose value or label equals value, ignoring case.
func matchOption(options []dom.Option, value string) (dom.Option, bool) {
	for _, opt := range options {
		if strings.EqualFold(opt.Value, value) || strings.EqualFold(opt.Label, value) {
			return opt, true
		}
	}
	return dom.Option{}, false
}
