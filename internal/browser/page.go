package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/jonathan/form-filler/internal/dom"
	"go.uber.org/zap"
)

// Elements are kept in a registry on the page so that a key stays valid
// across calls. The registry is recreated when the page navigates.
const registryJS = `(window.__formFiller = window.__formFiller || {els: []})`

const controlsJS = `function(selector, radioName) {
	const reg = ` + registryJS + `;
	const out = [];
	document.querySelectorAll(selector).forEach(el => {
		if (radioName !== null && el.getAttribute('name') !== radioName) {
			return;
		}
		let key = reg.els.indexOf(el);
		if (key < 0) {
			key = reg.els.push(el) - 1;
		}
		out.push({
			key: key,
			tag: el.tagName.toLowerCase(),
			name: el.getAttribute('name') || '',
			id: el.getAttribute('id') || '',
			type: el.getAttribute('type') || '',
			options: el.tagName === 'SELECT'
				? Array.from(el.options).map(o => ({value: o.value, label: o.text}))
				: []
		});
	});
	return out;
}`

const setContentJS = `function(markup) {
	document.open();
	document.write(markup);
	document.close();
	return true;
}`

// Page is a live tab's document.
type Page struct {
	ctx     context.Context
	timeout time.Duration
	logger  *zap.Logger

	// mu serializes CDP round trips; highlight timers call in from other goroutines.
	mu sync.Mutex
}

var _ dom.Page = (*Page)(nil)

type snapshot struct {
	Key     int          `json:"key"`
	Tag     string       `json:"tag"`
	Name    string       `json:"name"`
	ID      string       `json:"id"`
	Type    string       `json:"type"`
	Options []dom.Option `json:"options"`
}

// eval calls fn (a JavaScript function expression) with args and decodes its
// return value into res. args are JSON encoded, so they cannot inject code.
func (p *Page) eval(op, fn string, args []any, res any) error {
	encoded := make([]string, 0, len(args))
	for _, a := range args {
		b, err := json.Marshal(a)
		if err != nil {
			return &Error{Op: op, Message: "failed to encode argument", Cause: err}
		}
		encoded = append(encoded, string(b))
	}
	expr := fmt.Sprintf("(%s)(%s)", fn, strings.Join(encoded, ", "))

	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()

	if err := chromedp.Run(ctx, chromedp.Evaluate(expr, res)); err != nil {
		return &Error{Op: op, Message: "script failed", Cause: err}
	}
	return nil
}

func (p *Page) list(selector string, radioName any) ([]dom.Element, error) {
	var snaps []snapshot
	if err := p.eval("controls", controlsJS, []any{selector, radioName}, &snaps); err != nil {
		return nil, err
	}

	out := make([]dom.Element, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, &Element{
			page:    p,
			index:   s.Key,
			tag:     s.Tag,
			name:    s.Name,
			id:      s.ID,
			typ:     dom.InputType(s.Tag, s.Type),
			options: s.Options,
		})
	}
	return out, nil
}

// Controls lists input, textarea and select elements in document order.
func (p *Page) Controls() ([]dom.Element, error) {
	return p.list(dom.ControlSelector, nil)
}

// RadioGroup lists every input whose name attribute equals name.
func (p *Page) RadioGroup(name string) ([]dom.Element, error) {
	return p.list("input", name)
}

// HTML returns the current outer HTML of the document.
func (p *Page) HTML() (string, error) {
	var html string
	if err := p.eval("html", `function() { return document.documentElement.outerHTML; }`, nil, &html); err != nil {
		return "", err
	}
	return html, nil
}

// Screenshot captures the full page as PNG.
func (p *Page) Screenshot(quality int) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(ctx, chromedp.FullScreenshot(&buf, quality)); err != nil {
		return nil, &Error{Op: "screenshot", Message: "capture failed", Cause: err}
	}
	return buf, nil
}

// Element is a control of a live page, addressed through the page registry.
type Element struct {
	page    *Page
	index   int
	tag     string
	name    string
	id      string
	typ     string
	options []dom.Option
}

var _ dom.Element = (*Element)(nil)

func (e *Element) Key() string           { return "el-" + strconv.Itoa(e.index) }
func (e *Element) Tag() string           { return e.tag }
func (e *Element) Name() string          { return e.name }
func (e *Element) ID() string            { return e.id }
func (e *Element) Type() string          { return e.typ }
func (e *Element) Options() []dom.Option { return e.options }

// call runs body with el bound to this element. body throws when the element
// has been removed from the document.
func (e *Element) call(op, body string, args []any, res any) error {
	fn := `function(index, ...args) {
		const reg = ` + registryJS + `;
		const el = reg.els[index];
		if (!el || !el.isConnected) {
			throw new Error('element ' + index + ' is detached');
		}
		return (function(el, args) {` + body + `})(el, args);
	}`
	return e.page.eval(op, fn, append([]any{e.index}, args...), res)
}

// Attr reads an attribute live. Read failures report the attribute as absent.
func (e *Element) Attr(name string) (string, bool) {
	var res *string
	if err := e.call("attr", `return el.hasAttribute(args[0]) ? el.getAttribute(args[0]) : null;`, []any{name}, &res); err != nil {
		e.page.logger.Debug("attribute read failed", zap.String("element", e.Key()), zap.Error(err))
		return "", false
	}
	if res == nil {
		return "", false
	}
	return *res, true
}

// Value returns the control's current value.
func (e *Element) Value() (string, error) {
	var v string
	err := e.call("value", `return String(el.value);`, nil, &v)
	return v, err
}

// SetValue assigns the value property.
func (e *Element) SetValue(v string) error {
	return e.call("setValue", `el.value = args[0]; return true;`, []any{v}, nil)
}

// Checked returns the checked property.
func (e *Element) Checked() (bool, error) {
	var v bool
	err := e.call("checked", `return !!el.checked;`, nil, &v)
	return v, err
}

// SetChecked assigns the checked property.
func (e *Element) SetChecked(checked bool) error {
	return e.call("setChecked", `el.checked = args[0]; return true;`, []any{checked}, nil)
}

// Dispatch fires a synthetic event that page listeners observe.
func (e *Element) Dispatch(ev dom.Event) error {
	return e.call("dispatch", `el.dispatchEvent(new Event(args[0], {bubbles: args[1]})); return true;`,
		[]any{ev.Type, ev.Bubbles}, nil)
}

// Style reads an inline style property.
func (e *Element) Style(property string) (string, error) {
	var v string
	err := e.call("style", `return el.style.getPropertyValue(args[0]);`, []any{property}, &v)
	return v, err
}

// SetStyle writes an inline style property; an empty value removes it.
func (e *Element) SetStyle(property, value string) error {
	return e.call("setStyle", `
		if (args[1] === '') {
			el.style.removeProperty(args[0]);
		} else {
			el.style.setProperty(args[0], args[1]);
		}
		return true;`, []any{property, value}, nil)
}

// Connected reports whether the element is still in the document. A closed
// browser reports every element as detached.
func (e *Element) Connected() bool {
	var ok bool
	err := e.page.eval("connected", `function(index) {
		const reg = `+registryJS+`;
		const el = reg.els[index];
		return !!(el && el.isConnected);
	}`, []any{e.index}, &ok)
	return err == nil && ok
}
