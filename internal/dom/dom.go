// Package dom defines the minimal view of a host page that the fill engine works against.
// Backends: htmldoc (parsed HTML held in memory) and browser (a live Chrome tab).
package dom

import "strings"

// Element tag names the engine looks at.
const (
	TagInput    = "input"
	TagTextarea = "textarea"
	TagSelect   = "select"
)

// ControlSelector matches every interactive element the resolver scans.
const ControlSelector = "input, textarea, select"

// Event types dispatched after a value changes, in dispatch order.
const (
	EventInput  = "input"
	EventChange = "change"
	EventBlur   = "blur"
)

// Event is a synthetic DOM event.
type Event struct {
	Type    string `json:"type"`
	Bubbles bool   `json:"bubbles"`
}

// Option is one entry of a select element.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Element is one interactive control of a page.
//
// Attribute reads (Tag, Name, ID, Type, Options) are snapshots taken when the
// element was listed; value, checked state and style are read live.
type Element interface {
	// Key identifies the element within its page for as long as the page lives.
	Key() string
	// Tag is the lower-case tag name.
	Tag() string
	Attr(name string) (string, bool)
	Name() string
	ID() string
	// Type is the lower-case input type ("text" when absent); empty for non-inputs.
	Type() string
	Options() []Option

	Value() (string, error)
	SetValue(v string) error
	Checked() (bool, error)
	SetChecked(checked bool) error

	Dispatch(ev Event) error

	Style(property string) (string, error)
	// SetStyle sets an inline style property; an empty value removes it.
	SetStyle(property, value string) error

	// Connected reports whether the element is still attached to the page.
	Connected() bool
}

// Page is a host page holding form controls.
type Page interface {
	// Controls lists input, textarea and select elements in document order.
	Controls() ([]Element, error)
	// RadioGroup lists every input element whose name attribute equals name.
	RadioGroup(name string) ([]Element, error)
}

// InputType normalizes an input's type attribute the way browsers report it.
func InputType(tag, typeAttr string) string {
	if tag != TagInput {
		return ""
	}
	t := strings.ToLower(strings.TrimSpace(typeAttr))
	if t == "" {
		return "text"
	}
	return t
}

// CollapseSpace trims and collapses inner whitespace, matching option.text.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
