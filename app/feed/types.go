package feed

import (
	"fmt"

	"github.com/lysyi3m/feedkit/app/content"
	"gopkg.in/yaml.v3"
)

// Normalization result types

type Result struct {
	Profile  string                      `json:"profile"`
	Encoding string                      `json:"encoding"`
	Sections map[string][]content.Record `json:"sections"`
}

// Profile types

type Profile struct {
	Name     string    // Derived from filename (without .yml extension)
	Sections []Section `yaml:"sections"`
}

type Section struct {
	Name     string         `yaml:"name"`
	Path     string         `yaml:"path"` // dot separated, from the document root
	Fields   []FieldConfig  `yaml:"fields"`
	Links    []LinkConfig   `yaml:"links"`
	Contents []FieldConfig  `yaml:"contents"`
	Filters  []FilterConfig `yaml:"filters"`
}

// FieldConfig accepts three YAML shapes:
//
//	- title
//	- [description, summary, {include_snippet: true}]
//	- {from: category, to: categories, keep_array: true}
type FieldConfig struct {
	From           string
	To             string
	KeepArray      bool
	IncludeSnippet bool
}

type fieldOptions struct {
	KeepArray      bool `yaml:"keep_array"`
	IncludeSnippet bool `yaml:"include_snippet"`
}

func (f *FieldConfig) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		f.From = value.Value
		f.To = value.Value
		return nil

	case yaml.SequenceNode:
		if len(value.Content) < 2 || len(value.Content) > 3 {
			return fmt.Errorf("line %d: field tuple must have 2 or 3 entries, got %d", value.Line, len(value.Content))
		}
		f.From = value.Content[0].Value
		f.To = value.Content[1].Value
		if len(value.Content) == 3 {
			var opts fieldOptions
			if err := value.Content[2].Decode(&opts); err != nil {
				return fmt.Errorf("line %d: invalid field options: %w", value.Line, err)
			}
			f.KeepArray = opts.KeepArray
			f.IncludeSnippet = opts.IncludeSnippet
		}
		return nil

	case yaml.MappingNode:
		var raw struct {
			From         string `yaml:"from"`
			To           string `yaml:"to"`
			fieldOptions `yaml:",inline"`
		}
		if err := value.Decode(&raw); err != nil {
			return err
		}
		f.From = raw.From
		f.To = raw.To
		f.KeepArray = raw.KeepArray
		f.IncludeSnippet = raw.IncludeSnippet
		return nil

	default:
		return fmt.Errorf("line %d: field must be a name, a list or a mapping", value.Line)
	}
}

func (f FieldConfig) Spec() content.FieldSpec {
	return content.FieldSpec{
		From:           f.From,
		To:             f.To,
		KeepArray:      f.KeepArray,
		IncludeSnippet: f.IncludeSnippet,
	}
}

type LinkConfig struct {
	From          string `yaml:"from"`
	To            string `yaml:"to"`
	Rel           string `yaml:"rel"`
	FallbackIndex int    `yaml:"fallback_index"`
}

type FilterConfig struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}
