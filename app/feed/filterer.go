package feed

import (
	"fmt"
	"strings"

	"github.com/lysyi3m/feedkit/app/content"
	"github.com/lysyi3m/feedkit/app/xmltree"
)

type Filterer struct {
	opts xmltree.Options
}

func NewFilterer(opts xmltree.Options) *Filterer {
	return &Filterer{opts: opts}
}

// Run drops records rejected by any filter and reports why each was dropped.
func (f *Filterer) Run(records []content.Record, filters []FilterConfig) ([]content.Record, []string) {
	if len(filters) == 0 {
		return records, nil
	}

	kept := make([]content.Record, 0, len(records))
	var reasons []string
	for _, record := range records {
		if isFiltered, filterReason := f.applyFilters(record, filters); isFiltered {
			reasons = append(reasons, filterReason)
			continue
		}
		kept = append(kept, record)
	}

	return kept, reasons
}

func (f *Filterer) applyFilters(record content.Record, filters []FilterConfig) (bool, string) {
	for _, filter := range filters {
		value := f.getFieldValue(record, filter.Field)

		for _, exclude := range filter.Excludes {
			if f.matchesFilter(value, exclude) {
				return true, fmt.Sprintf("Excluded by %s filter: contains '%s'", filter.Field, exclude)
			}
		}

		if len(filter.Includes) > 0 {
			matched := false
			for _, include := range filter.Includes {
				if f.matchesFilter(value, include) {
					matched = true
					break
				}
			}
			if !matched {
				return true, fmt.Sprintf("Excluded by %s filter: does not contain any of %v", filter.Field, filter.Includes)
			}
		}
	}

	return false, ""
}

func (f *Filterer) matchesFilter(value, pattern string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(pattern))
}

// getFieldValue flattens a record field to text; sequences join their
// textual items with spaces.
func (f *Filterer) getFieldValue(record content.Record, field string) string {
	value := xmltree.Classify(record[field], f.opts)
	switch value.Kind {
	case xmltree.KindScalar, xmltree.KindMixed:
		return value.Text
	case xmltree.KindArray:
		parts := make([]string, 0, len(value.Items))
		for _, item := range value.Items {
			itemValue := xmltree.Classify(item, f.opts)
			if itemValue.Kind == xmltree.KindScalar || itemValue.Kind == xmltree.KindMixed {
				parts = append(parts, itemValue.Text)
			}
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}
