// Package htmldoc holds an HTML page in memory and exposes its form controls to the fill engine.
// Value, checked state and inline style are stored in the markup itself, so the
// filled page can be rendered back to HTML. Dispatched events are recorded per
// element and delivered to document-level listeners when they bubble.
package htmldoc

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/form-filler/internal/dom"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Listener observes events that bubble up to the document.
type Listener func(target dom.Element, ev dom.Event)

// Document is a parsed HTML page. It is safe for concurrent use; highlight
// timers touch elements from their own goroutines.
type Document struct {
	mu        sync.Mutex
	doc       *goquery.Document
	keys      map[*html.Node]string
	events    map[*html.Node][]dom.Event
	listeners []Listener
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &ParseError{Message: "failed to parse HTML", Cause: err}
	}
	return &Document{
		doc:    doc,
		keys:   make(map[*html.Node]string),
		events: make(map[*html.Node][]dom.Event),
	}, nil
}

// ParseString parses HTML held in a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Controls lists input, textarea and select elements in document order.
func (d *Document) Controls() ([]dom.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []dom.Element
	d.doc.Find(dom.ControlSelector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, d.wrap(s.Nodes[0]))
	})
	return out, nil
}

// RadioGroup lists every input whose name attribute equals name.
func (d *Document) RadioGroup(name string) ([]dom.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []dom.Element
	d.doc.Find("input").Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr("name"); ok && v == name {
			out = append(out, d.wrap(s.Nodes[0]))
		}
	})
	return out, nil
}

// Find returns the elements matching a CSS selector.
func (d *Document) Find(selector string) []*Element {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []*Element
	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, d.wrap(s.Nodes[0]))
	})
	return out
}

// First returns the first element matching selector, or nil.
func (d *Document) First(selector string) *Element {
	found := d.Find(selector)
	if len(found) == 0 {
		return nil
	}
	return found[0]
}

// Remove detaches every element matching selector and returns how many were removed.
func (d *Document) Remove(selector string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	sel := d.doc.Find(selector)
	n := sel.Length()
	sel.Remove()
	return n
}

// AddListener registers a document-level listener.
func (d *Document) AddListener(fn Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, fn)
}

// Events returns the events dispatched on el, oldest first.
func (d *Document) Events(el dom.Element) []dom.Event {
	e, ok := el.(*Element)
	if !ok || e.doc != d {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]dom.Event, len(d.events[e.node]))
	copy(out, d.events[e.node])
	return out
}

// HTML renders the current state of the document.
func (d *Document) HTML() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var buf bytes.Buffer
	for _, n := range d.doc.Nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("failed to render document: %w", err)
		}
	}
	return buf.String(), nil
}

// wrap must be called with d.mu held.
func (d *Document) wrap(n *html.Node) *Element {
	key, ok := d.keys[n]
	if !ok {
		key = fmt.Sprintf("el-%d", len(d.keys)+1)
		d.keys[n] = key
	}

	tag := strings.ToLower(n.Data)
	el := &Element{
		doc:  d,
		node: n,
		key:  key,
		tag:  tag,
		name: attr(n, "name"),
		id:   attr(n, "id"),
		typ:  dom.InputType(tag, attr(n, "type")),
	}
	if tag == dom.TagSelect {
		for _, opt := range options(n) {
			el.options = append(el.options, dom.Option{Value: optionValue(opt), Label: optionLabel(opt)})
		}
	}
	return el
}

// connected must be called with d.mu held.
func (d *Document) connected(n *html.Node) bool {
	if len(d.doc.Nodes) == 0 {
		return false
	}
	root := d.doc.Nodes[0]
	for p := n; p != nil; p = p.Parent {
		if p == root {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		out = append(out, a)
	}
	n.Attr = out
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(n)
	return sb.String()
}

func options(sel *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if c.DataAtom == atom.Option {
				out = append(out, c)
				continue
			}
			walk(c)
		}
	}
	walk(sel)
	return out
}

func optionValue(opt *html.Node) string {
	if v, ok := lookupAttr(opt, "value"); ok {
		return v
	}
	return dom.CollapseSpace(textContent(opt))
}

func optionLabel(opt *html.Node) string {
	return dom.CollapseSpace(textContent(opt))
}

// formOwner returns the nearest enclosing form, or nil.
func formOwner(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.DataAtom == atom.Form {
			return p
		}
	}
	return nil
}
