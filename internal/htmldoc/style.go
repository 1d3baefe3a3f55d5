package htmldoc

import (
	"strings"

	"github.com/gorilla/css/scanner"
)

type declaration struct {
	property string
	value    string
}

// declarations is an inline style attribute in source order.
type declarations []declaration

// parseStyle reads a style attribute. Separators inside strings, url()
// and other functions belong to the value; comments are dropped and
// declarations without a property are skipped.
func parseStyle(s string) declarations {
	var (
		out   declarations
		prop  strings.Builder
		val   strings.Builder
		inVal bool
		depth int
	)

	flush := func() {
		p := strings.ToLower(strings.TrimSpace(prop.String()))
		v := strings.TrimSpace(val.String())
		if inVal && p != "" {
			out = out.set(p, v)
		}
		prop.Reset()
		val.Reset()
		inVal = false
	}

	sc := scanner.New(s)
	for {
		tok := sc.Next()
		if tok.Type == scanner.TokenEOF {
			break
		}

		switch tok.Type {
		case scanner.TokenComment:
			continue
		case scanner.TokenFunction:
			depth++
		case scanner.TokenChar:
			switch tok.Value {
			case "(", "[":
				depth++
			case ")", "]":
				if depth > 0 {
					depth--
				}
			case ";":
				if depth == 0 {
					flush()
					continue
				}
			case ":":
				if depth == 0 && !inVal {
					inVal = true
					continue
				}
			}
		}

		if inVal {
			val.WriteString(tok.Value)
		} else {
			prop.WriteString(tok.Value)
		}

		if tok.Type == scanner.TokenError {
			break
		}
	}
	flush()
	return out
}

func (d declarations) get(property string) string {
	property = strings.ToLower(property)
	for _, decl := range d {
		if decl.property == property {
			return decl.value
		}
	}
	return ""
}

func (d declarations) set(property, value string) declarations {
	property = strings.ToLower(property)
	out := make(declarations, 0, len(d)+1)
	replaced := false
	for _, decl := range d {
		if decl.property != property {
			out = append(out, decl)
			continue
		}
		if !replaced && value != "" {
			out = append(out, declaration{property: property, value: value})
		}
		replaced = true
	}
	if !replaced && value != "" {
		out = append(out, declaration{property: property, value: value})
	}
	return out
}

func (d declarations) String() string {
	parts := make([]string, 0, len(d))
	for _, decl := range d {
		parts = append(parts, decl.property+": "+decl.value)
	}
	return strings.Join(parts, "; ")
}
