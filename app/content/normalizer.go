package content

import (
	"fmt"

	"github.com/lysyi3m/feedkit/app/xmltree"
)

const SnippetSuffix = "Snippet"

type Record map[string]any

// FieldSpec copies node[From] into dest[To]. An empty To means To == From.
type FieldSpec struct {
	From           string
	To             string
	KeepArray      bool
	IncludeSnippet bool
}

func Field(name string) FieldSpec {
	return FieldSpec{From: name, To: name}
}

func (f FieldSpec) Dest() string {
	if f.To == "" {
		return f.From
	}
	return f.To
}

// Normalizer reads parsed trees using one attribute/text key convention.
// It keeps no state between calls and is safe for concurrent use.
type Normalizer struct {
	opts    xmltree.Options
	builder *xmltree.Builder
}

func NewNormalizer(opts xmltree.Options) *Normalizer {
	return &Normalizer{
		opts: opts,
		builder: xmltree.NewBuilder(opts, xmltree.BuildOptions{
			Headless: true,
			RootName: "div",
			Pretty:   false,
		}),
	}
}

// ResolveLink returns the href of the first link whose rel equals rel, or
// the href of links[fallback] when none does.
func (n *Normalizer) ResolveLink(links []any, rel string, fallback int) (string, bool) {
	if len(links) == 0 {
		return "", false
	}

	for _, link := range links {
		e, ok := xmltree.AsElement(link)
		if !ok {
			continue
		}
		if linkRel, ok := e.Attr(n.opts, "rel"); ok && linkRel == rel {
			return e.Attr(n.opts, "href")
		}
	}

	if fallback < 0 || fallback >= len(links) {
		return "", false
	}
	e, ok := xmltree.AsElement(links[fallback])
	if !ok {
		return "", false
	}
	return e.Attr(n.opts, "href")
}

// ResolveContent unwraps mixed-content nodes to their text and renders any
// other structure back to markup inside a <div>. Scalars pass through.
func (n *Normalizer) ResolveContent(node any) (any, error) {
	value := xmltree.Classify(node, n.opts)
	switch value.Kind {
	case xmltree.KindMixed:
		return value.Text, nil
	case xmltree.KindElement, xmltree.KindArray:
		return n.builder.Run(node)
	default:
		return node, nil
	}
}

// CopyFields copies the fields named by specs from node into dest. Fields
// missing from node leave dest untouched; specs sharing a destination
// overwrite in order.
func (n *Normalizer) CopyFields(node any, dest Record, specs []FieldSpec) {
	_ = n.copyInto(node, dest, specs, nil)
}

// CopyContents copies like CopyFields but passes every selected value
// through ResolveContent, so nested markup is stored as a string.
func (n *Normalizer) CopyContents(node any, dest Record, specs []FieldSpec) error {
	return n.copyInto(node, dest, specs, n.ResolveContent)
}

func (n *Normalizer) copyInto(node any, dest Record, specs []FieldSpec, resolve func(any) (any, error)) error {
	src, ok := xmltree.AsElement(node)
	if !ok {
		return nil
	}

	for _, spec := range specs {
		raw, ok := src.Get(spec.From)
		if !ok {
			continue
		}

		value, ok := n.selectValue(xmltree.Classify(raw, n.opts), spec.KeepArray)
		if !ok {
			continue
		}

		var out any
		switch {
		case resolve != nil:
			resolved, err := resolve(value.Raw)
			if err != nil {
				return fmt.Errorf("failed to resolve content of %s: %w", spec.From, err)
			}
			out = resolved
		case value.Kind == xmltree.KindMixed:
			out = value.Text
		default:
			out = value.Raw
		}

		to := spec.Dest()
		dest[to] = out

		if !spec.IncludeSnippet {
			continue
		}
		if text, ok := out.(string); ok && text != "" {
			dest[to+SnippetSuffix] = Snippet(text)
		}
	}

	return nil
}

func (n *Normalizer) selectValue(value xmltree.Value, keepArray bool) (xmltree.Value, bool) {
	switch value.Kind {
	case xmltree.KindAbsent:
		return value, false
	case xmltree.KindArray:
		if keepArray {
			return value, true
		}
		if len(value.Items) == 0 {
			return value, false
		}
		return xmltree.Classify(value.Items[0], n.opts), true
	default:
		return value, true
	}
}
