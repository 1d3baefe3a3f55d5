package htmldoc

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/form-filler/internal/dom"
	"golang.org/x/net/html"
)

// Element is a form control of a Document.
type Element struct {
	doc     *Document
	node    *html.Node
	key     string
	tag     string
	name    string
	id      string
	typ     string
	options []dom.Option
}

var _ dom.Element = (*Element)(nil)

func (e *Element) Key() string           { return e.key }
func (e *Element) Tag() string           { return e.tag }
func (e *Element) Name() string          { return e.name }
func (e *Element) ID() string            { return e.id }
func (e *Element) Type() string          { return e.typ }
func (e *Element) Options() []dom.Option { return e.options }

// Attr reads an attribute from the live node.
func (e *Element) Attr(name string) (string, bool) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return lookupAttr(e.node, name)
}

// Value returns the control's current value.
func (e *Element) Value() (string, error) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	switch e.tag {
	case dom.TagTextarea:
		return textContent(e.node), nil
	case dom.TagSelect:
		var chosen *html.Node
		opts := options(e.node)
		for _, opt := range opts {
			if _, ok := lookupAttr(opt, "selected"); ok {
				chosen = opt
			}
		}
		if chosen == nil && len(opts) > 0 {
			chosen = opts[0]
		}
		if chosen == nil {
			return "", nil
		}
		return optionValue(chosen), nil
	default:
		return attr(e.node, "value"), nil
	}
}

// SetValue writes the control's value into the markup.
func (e *Element) SetValue(v string) error {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	if !e.doc.connected(e.node) {
		return &DetachedError{Key: e.key}
	}

	switch e.tag {
	case dom.TagTextarea:
		for c := e.node.FirstChild; c != nil; {
			next := c.NextSibling
			e.node.RemoveChild(c)
			c = next
		}
		e.node.AppendChild(&html.Node{Type: html.TextNode, Data: v})
	case dom.TagSelect:
		matched := false
		for _, opt := range options(e.node) {
			removeAttr(opt, "selected")
			if !matched && optionValue(opt) == v {
				setAttr(opt, "selected", "")
				matched = true
			}
		}
	default:
		setAttr(e.node, "value", v)
	}
	return nil
}

// Checked reports the checked state of a checkbox or radio.
func (e *Element) Checked() (bool, error) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	_, ok := lookupAttr(e.node, "checked")
	return ok, nil
}

// SetChecked sets the checked state. Checking a radio unchecks the other
// radios of its group within the same form, as browsers do.
func (e *Element) SetChecked(checked bool) error {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	if !e.doc.connected(e.node) {
		return &DetachedError{Key: e.key}
	}

	if !checked {
		removeAttr(e.node, "checked")
		return nil
	}

	if e.typ == "radio" && e.name != "" {
		owner := formOwner(e.node)
		e.doc.doc.Find("input").Each(func(_ int, s *goquery.Selection) {
			n := s.Nodes[0]
			if n == e.node || formOwner(n) != owner {
				return
			}
			if strings.EqualFold(attr(n, "type"), "radio") && attr(n, "name") == e.name {
				removeAttr(n, "checked")
			}
		})
	}
	setAttr(e.node, "checked", "")
	return nil
}

// Dispatch records ev on the element and, when it bubbles, delivers it to document listeners.
func (e *Element) Dispatch(ev dom.Event) error {
	e.doc.mu.Lock()
	e.doc.events[e.node] = append(e.doc.events[e.node], ev)
	var listeners []Listener
	if ev.Bubbles && e.doc.connected(e.node) {
		listeners = append(listeners, e.doc.listeners...)
	}
	e.doc.mu.Unlock()

	for _, fn := range listeners {
		fn(e, ev)
	}
	return nil
}

// Style reads an inline style property.
func (e *Element) Style(property string) (string, error) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return parseStyle(attr(e.node, "style")).get(property), nil
}

// SetStyle writes an inline style property; an empty value removes it.
func (e *Element) SetStyle(property, value string) error {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	if !e.doc.connected(e.node) {
		return &DetachedError{Key: e.key}
	}

	decls := parseStyle(attr(e.node, "style"))
	decls = decls.set(property, value)
	if len(decls) == 0 {
		removeAttr(e.node, "style")
		return nil
	}
	setAttr(e.node, "style", decls.String())
	return nil
}

// Connected reports whether the element is still in the document.
func (e *Element) Connected() bool {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.doc.connected(e.node)
}
