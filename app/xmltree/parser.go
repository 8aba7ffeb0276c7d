package xmltree

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/net/html/charset"
)

var ErrNoRoot = errors.New("document has no root element")

type charsetReader func(label string, input io.Reader) (io.Reader, error)

// Parser turns markup into an Element tree: every child list is a []any,
// attributes live under AttrKey, and text of an element that also has
// attributes or children lives under TextKey. Text-only elements collapse
// to plain strings.
type Parser struct {
	opts Options
}

func NewParser(opts Options) *Parser {
	return &Parser{opts: opts}
}

// Run parses raw bytes. A non-UTF-8 encoding named in the XML declaration
// is converted on the fly.
func (p *Parser) Run(r io.Reader) (*Element, error) {
	doc, _, err := p.RunDetect(r)
	return doc, err
}

// RunDetect is Run that also returns the charset label taken from the XML
// declaration. The label is empty when the input was read as UTF-8.
func (p *Parser) RunDetect(r io.Reader) (*Element, string, error) {
	var label string
	doc, err := p.run(r, func(l string, input io.Reader) (io.Reader, error) {
		label = l
		return charset.NewReaderLabel(l, input)
	})
	return doc, label, err
}

// RunString parses text that has already been decoded, so the declared
// encoding is ignored.
func (p *Parser) RunString(s string) (*Element, error) {
	return p.run(strings.NewReader(s), func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	})
}

type frame struct {
	name   string
	elem   *Element
	text   strings.Builder
	textAt int
}

func (p *Parser) run(r io.Reader, cr charsetReader) (*Element, error) {
	d := xml.NewDecoder(r)
	d.Strict = false
	d.Entity = xml.HTMLEntity
	d.CharsetReader = cr

	var (
		stack    []*frame
		root     any
		rootName string
		closed   bool
	)

	closeTo := func(i int) {
		for len(stack) > i {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			node := p.finish(top)
			if len(stack) == 0 {
				root, rootName, closed = node, top.name, true
				return
			}
			parent := stack[len(stack)-1].elem
			existing, _ := parent.Get(top.name)
			list, _ := existing.([]any)
			parent.Set(top.name, append(list, node))
		}
	}

	for !closed {
		tok, err := d.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse document: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			f := &frame{name: qualifiedName(t.Name), elem: NewElement(), textAt: -1}
			if len(t.Attr) > 0 {
				attrs := NewElement()
				for _, a := range t.Attr {
					attrs.Set(qualifiedName(a.Name), a.Value)
				}
				f.elem.Set(p.opts.AttrKey, attrs)
			}
			stack = append(stack, f)
		case xml.EndElement:
			name := qualifiedName(t.Name)
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i].name == name {
					closeTo(i)
					break
				}
			}
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			if top.textAt < 0 {
				top.textAt = top.elem.Len()
			}
			top.text.Write(t)
		}
	}

	if !closed && len(stack) > 0 {
		slog.Debug("Closing unterminated elements at end of document", "open", len(stack))
		closeTo(0)
	}

	if rootName == "" {
		return nil, ErrNoRoot
	}

	doc := NewElement()
	doc.Set(rootName, root)
	return doc, nil
}

func (p *Parser) finish(f *frame) any {
	text := f.text.String()
	if f.elem.Len() == 0 {
		return text
	}
	if strings.TrimSpace(text) != "" {
		f.elem.insert(f.textAt, p.opts.TextKey, text)
	}
	return f.elem
}

func qualifiedName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}
