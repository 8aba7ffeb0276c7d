package xmltree

const (
	DefaultAttrKey = "$"
	DefaultTextKey = "_"
)

// Options names the keys an Element uses for attributes and for the text of
// mixed-content elements. Every component that reads or writes a tree takes
// the same Options value.
type Options struct {
	AttrKey string
	TextKey string
}

func DefaultOptions() Options {
	return Options{
		AttrKey: DefaultAttrKey,
		TextKey: DefaultTextKey,
	}
}

type BuildOptions struct {
	Headless bool   // omit the XML declaration
	RootName string // empty means "root", or the single top-level key
	Pretty   bool
}

type Kind int

const (
	KindAbsent Kind = iota
	KindScalar
	KindArray
	KindMixed
	KindElement
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindScalar:
		return "scalar"
	case KindArray:
		return "array"
	case KindMixed:
		return "mixed"
	case KindElement:
		return "element"
	default:
		return "unknown"
	}
}

// Value is a node read from a tree, classified by shape.
type Value struct {
	Kind  Kind
	Text  string   // KindScalar, KindMixed
	Items []any    // KindArray
	Elem  *Element // KindMixed, KindElement
	Raw   any
}
