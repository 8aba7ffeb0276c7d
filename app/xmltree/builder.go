package xmltree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const xmlDeclaration = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`

const defaultRootName = "root"

var (
	textEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\r", "&#xD;",
	)
	attrEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		`"`, "&quot;",
		"\t", "&#x9;",
		"\n", "&#xA;",
		"\r", "&#xD;",
	)
)

// Builder renders an Element tree back into markup. It is the inverse of
// Parser up to key order between different child names.
type Builder struct {
	opts  Options
	build BuildOptions
}

func NewBuilder(opts Options, build BuildOptions) *Builder {
	return &Builder{opts: opts, build: build}
}

func (b *Builder) Run(v any) (string, error) {
	var buf bytes.Buffer

	if !b.build.Headless {
		buf.WriteString(xmlDeclaration)
		if b.build.Pretty {
			buf.WriteByte('\n')
		}
	}

	name, content := b.root(v)
	elem, err := b.rootElement(content)
	if err != nil {
		return "", err
	}
	if err := b.writeElement(&buf, name, elem, 0); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (b *Builder) root(v any) (string, any) {
	if b.build.RootName != "" {
		return b.build.RootName, v
	}

	if e, ok := AsElement(v); ok && e.Len() == 1 {
		key := e.Keys()[0]
		if key != b.opts.AttrKey && key != b.opts.TextKey {
			child, _ := e.Get(key)
			if list, ok := child.([]any); ok && len(list) == 1 {
				child = list[0]
			}
			return key, child
		}
	}

	return defaultRootName, v
}

// rootElement folds whatever sits at the root into one element: sequences
// contribute their items' children and text in order.
func (b *Builder) rootElement(v any) (*Element, error) {
	value := Classify(v, b.opts)
	switch value.Kind {
	case KindAbsent:
		return NewElement(), nil
	case KindMixed, KindElement:
		return value.Elem, nil
	case KindScalar:
		text, err := scalarText(value.Raw)
		if err != nil {
			return nil, err
		}
		e := NewElement()
		e.Set(b.opts.TextKey, text)
		return e, nil
	}

	merged := NewElement()
	var text strings.Builder
	for _, item := range value.Items {
		child := Classify(item, b.opts)
		switch child.Kind {
		case KindAbsent:
		case KindScalar:
			s, err := scalarText(child.Raw)
			if err != nil {
				return nil, err
			}
			text.WriteString(s)
		case KindArray:
			return nil, fmt.Errorf("nested sequence at document root")
		default:
			for _, key := range child.Elem.Keys() {
				val, _ := child.Elem.Get(key)
				if key == b.opts.TextKey {
					s, _ := val.(string)
					text.WriteString(s)
					continue
				}
				existing, ok := merged.Get(key)
				if !ok || key == b.opts.AttrKey {
					merged.Set(key, val)
					continue
				}
				merged.Set(key, append(append([]any{}, asList(existing)...), asList(val)...))
			}
		}
	}
	if text.Len() > 0 {
		merged.insert(0, b.opts.TextKey, text.String())
	}
	return merged, nil
}

func (b *Builder) writeNode(buf *bytes.Buffer, name string, v any, depth int) error {
	value := Classify(v, b.opts)
	switch value.Kind {
	case KindAbsent:
		return nil
	case KindArray:
		for i, item := range value.Items {
			if i > 0 {
				b.newline(buf, depth)
			}
			if err := b.writeNode(buf, name, item, depth); err != nil {
				return err
			}
		}
		return nil
	case KindScalar:
		text, err := scalarText(value.Raw)
		if err != nil {
			return err
		}
		buf.WriteString("<" + name + ">")
		textEscaper.WriteString(buf, text)
		buf.WriteString("</" + name + ">")
		return nil
	default:
		return b.writeElement(buf, name, value.Elem, depth)
	}
}

func (b *Builder) writeElement(buf *bytes.Buffer, name string, e *Element, depth int) error {
	buf.WriteString("<" + name)
	if attrs, ok := e.Attrs(b.opts); ok {
		for _, key := range attrs.Keys() {
			val, _ := attrs.Get(key)
			text, err := scalarText(val)
			if err != nil {
				return fmt.Errorf("attribute %q: %w", key, err)
			}
			buf.WriteString(" " + key + `="`)
			attrEscaper.WriteString(buf, text)
			buf.WriteByte('"')
		}
	}

	var children []string
	nested := false
	for _, key := range e.Keys() {
		if key == b.opts.AttrKey {
			continue
		}
		children = append(children, key)
		if key != b.opts.TextKey {
			nested = true
		}
	}

	if len(children) == 0 {
		buf.WriteString("/>")
		return nil
	}
	buf.WriteByte('>')

	for _, key := range children {
		val, _ := e.Get(key)
		if nested {
			b.newline(buf, depth+1)
		}
		if key == b.opts.TextKey {
			text, err := scalarText(val)
			if err != nil {
				return err
			}
			textEscaper.WriteString(buf, text)
			continue
		}
		if err := b.writeNode(buf, key, val, depth+1); err != nil {
			return err
		}
	}

	if nested {
		b.newline(buf, depth)
	}
	buf.WriteString("</" + name + ">")
	return nil
}

func (b *Builder) newline(buf *bytes.Buffer, depth int) {
	if !b.build.Pretty {
		return
	}
	buf.WriteByte('\n')
	buf.WriteString(strings.Repeat("  ", depth))
}

func scalarText(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case bool:
		return strconv.FormatBool(s), nil
	case int:
		return strconv.Itoa(s), nil
	case int64:
		return strconv.FormatInt(s, 10), nil
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), nil
	case json.Number:
		return s.String(), nil
	case fmt.Stringer:
		return s.String(), nil
	default:
		return "", fmt.Errorf("unsupported value of type %T", v)
	}
}

func asList(v any) []any {
	if list, ok := v.([]any); ok {
		return list
	}
	return []any{v}
}
