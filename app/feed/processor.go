package feed

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lysyi3m/feedkit/app/charset"
	"github.com/lysyi3m/feedkit/app/content"
	"github.com/lysyi3m/feedkit/app/xmltree"
)

type Processor struct {
	parser     *xmltree.Parser
	normalizer *content.Normalizer
	filterer   *Filterer
}

func NewProcessor(opts xmltree.Options) *Processor {
	return &Processor{
		parser:     xmltree.NewParser(opts),
		normalizer: content.NewNormalizer(opts),
		filterer:   NewFilterer(opts),
	}
}

// Run parses data and extracts every section of profile. An encoding named
// by contentType wins; otherwise the XML declaration picks the charset.
func (p *Processor) Run(data []byte, contentType string, profile *Profile) (*Result, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("document is empty")
	}

	doc, encoding, err := p.parse(data, contentType)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Profile:  profile.Name,
		Encoding: encoding,
		Sections: make(map[string][]content.Record, len(profile.Sections)),
	}

	for _, section := range profile.Sections {
		records, err := p.processSection(doc, section)
		if err != nil {
			return nil, fmt.Errorf("failed to process section %s: %w", section.Name, err)
		}
		result.Sections[section.Name] = records
	}

	slog.Debug("Document normalized",
		"profile", profile.Name,
		"encoding", encoding,
		"sections", len(result.Sections))

	return result, nil
}

func (p *Processor) parse(data []byte, contentType string) (*xmltree.Element, string, error) {
	encoding := charset.Resolve(contentType)
	if charset.Declared(contentType) {
		doc, err := p.parser.RunString(charset.Decode(data, encoding))
		return doc, encoding, err
	}

	doc, label, err := p.parser.RunDetect(bytes.NewReader(data))
	if err == nil {
		if label != "" {
			encoding = charset.Normalize(label)
		}
		return doc, encoding, nil
	}

	slog.Debug("Declared charset parse failed, decoding as default", "label", label, "error", err)
	doc, err = p.parser.RunString(charset.Decode(data, encoding))
	return doc, encoding, err
}

func fieldSpecs(fields []FieldConfig) []content.FieldSpec {
	specs := make([]content.FieldSpec, 0, len(fields))
	for _, field := range fields {
		specs = append(specs, field.Spec())
	}
	return specs
}

func (p *Processor) processSection(doc *xmltree.Element, section Section) ([]content.Record, error) {
	nodes := p.walk(doc, section.Path)

	fields := fieldSpecs(section.Fields)
	contents := fieldSpecs(section.Contents)

	records := make([]content.Record, 0, len(nodes))
	for _, node := range nodes {
		record := make(content.Record)
		p.normalizer.CopyFields(node, record, fields)

		if err := p.normalizer.CopyContents(node, record, contents); err != nil {
			return nil, err
		}
		p.copyLinks(node, record, section.Links)

		records = append(records, record)
	}

	records, reasons := p.filterer.Run(records, section.Filters)
	for _, reason := range reasons {
		slog.Debug("Record filtered", "section", section.Name, "reason", reason)
	}

	return records, nil
}

// walk follows a dot separated path from the document root, flattening
// child sequences along the way.
func (p *Processor) walk(doc *xmltree.Element, path string) []any {
	nodes := []any{doc}
	for _, segment := range strings.Split(path, ".") {
		var next []any
		for _, node := range nodes {
			e, ok := xmltree.AsElement(node)
			if !ok {
				continue
			}
			child, ok := e.Get(segment)
			if !ok {
				continue
			}
			if list, ok := child.([]any); ok {
				next = append(next, list...)
			} else {
				next = append(next, child)
			}
		}
		nodes = next
	}
	return nodes
}

func (p *Processor) copyLinks(node any, record content.Record, links []LinkConfig) {
	e, ok := xmltree.AsElement(node)
	if !ok {
		return
	}

	for _, link := range links {
		raw, ok := e.Get(link.From)
		if !ok {
			continue
		}
		list, ok := raw.([]any)
		if !ok {
			list = []any{raw}
		}
		if href, ok := p.normalizer.ResolveLink(list, link.Rel, link.FallbackIndex); ok {
			record[link.To] = href
		}
	}
}
