package xmltree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Element keeps its keys in insertion order so that re-serialized markup
// follows the source document.
type Element struct {
	keys   []string
	fields map[string]any
}

func NewElement() *Element {
	return &Element{fields: make(map[string]any)}
}

func (e *Element) Get(key string) (any, bool) {
	if e == nil {
		return nil, false
	}
	v, ok := e.fields[key]
	return v, ok
}

func (e *Element) Set(key string, value any) {
	if _, ok := e.fields[key]; !ok {
		e.keys = append(e.keys, key)
	}
	e.fields[key] = value
}

func (e *Element) insert(idx int, key string, value any) {
	if _, ok := e.fields[key]; ok || idx < 0 || idx >= len(e.keys) {
		e.Set(key, value)
		return
	}
	e.keys = append(e.keys[:idx], append([]string{key}, e.keys[idx:]...)...)
	e.fields[key] = value
}

func (e *Element) Delete(key string) {
	if _, ok := e.fields[key]; !ok {
		return
	}
	delete(e.fields, key)
	for i, k := range e.keys {
		if k == key {
			e.keys = append(e.keys[:i], e.keys[i+1:]...)
			break
		}
	}
}

func (e *Element) Keys() []string {
	if e == nil {
		return nil
	}
	keys := make([]string, len(e.keys))
	copy(keys, e.keys)
	return keys
}

func (e *Element) Len() int {
	if e == nil {
		return 0
	}
	return len(e.keys)
}

// String returns the value under key when it is a string.
func (e *Element) String(key string) (string, bool) {
	v, ok := e.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (e *Element) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range e.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(e.fields[k])
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %q: %w", k, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// AsElement accepts *Element and map[string]any. Map keys are visited in
// sorted order since Go maps carry none.
func AsElement(v any) (*Element, bool) {
	switch n := v.(type) {
	case *Element:
		return n, n != nil
	case map[string]any:
		keys := make([]string, 0, len(n))
		for k := range n {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		e := NewElement()
		for _, k := range keys {
			e.Set(k, n[k])
		}
		return e, true
	case map[string]string:
		keys := make([]string, 0, len(n))
		for k := range n {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		e := NewElement()
		for _, k := range keys {
			e.Set(k, n[k])
		}
		return e, true
	default:
		return nil, false
	}
}

// Attrs returns the attribute mapping stored under opts.AttrKey.
func (e *Element) Attrs(opts Options) (*Element, bool) {
	v, ok := e.Get(opts.AttrKey)
	if !ok {
		return nil, false
	}
	return AsElement(v)
}

// Attr returns a single attribute value.
func (e *Element) Attr(opts Options, name string) (string, bool) {
	attrs, ok := e.Attrs(opts)
	if !ok {
		return "", false
	}
	return attrs.String(name)
}

// Classify sorts a raw node into the tagged union used by the normalizers.
func Classify(v any, opts Options) Value {
	switch n := v.(type) {
	case nil:
		return Value{Kind: KindAbsent}
	case string:
		return Value{Kind: KindScalar, Text: n, Raw: v}
	case []any:
		return Value{Kind: KindArray, Items: n, Raw: v}
	case []string:
		items := make([]any, len(n))
		for i, s := range n {
			items[i] = s
		}
		return Value{Kind: KindArray, Items: items, Raw: v}
	}

	if e, ok := AsElement(v); ok {
		if text, ok := e.String(opts.TextKey); ok {
			return Value{Kind: KindMixed, Text: text, Elem: e, Raw: v}
		}
		return Value{Kind: KindElement, Elem: e, Raw: v}
	}

	return Value{Kind: KindScalar, Text: fmt.Sprint(v), Raw: v}
}
