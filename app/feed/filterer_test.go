package feed

import (
	"strings"
	"testing"

	"github.com/lysyi3m/feedkit/app/content"
	"github.com/lysyi3m/feedkit/app/xmltree"
)

func TestFilterer_NoFilters(t *testing.T) {
	filterer := NewFilterer(xmltree.DefaultOptions())

	records := []content.Record{
		{"title": "Test Item 1"},
		{"title": "Test Item 2"},
	}

	result, reasons := filterer.Run(records, nil)

	if len(result) != 2 {
		t.Errorf("Expected 2 records, got %d", len(result))
	}
	if len(reasons) != 0 {
		t.Errorf("Expected no filter reasons, got %v", reasons)
	}
}

func TestFilterer_TitleIncludeFilter(t *testing.T) {
	filterer := NewFilterer(xmltree.DefaultOptions())

	records := []content.Record{
		{"title": "Breaking News: Important Update"},
		{"title": "Sports Update"},
		{"title": "Weather Report"},
	}

	result, reasons := filterer.Run(records, []FilterConfig{
		{Field: "title", Includes: []string{"news", "update"}},
	})

	if len(result) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(result))
	}
	if result[0]["title"] != "Breaking News: Important Update" || result[1]["title"] != "Sports Update" {
		t.Errorf("Expected matching records in order, got %v", result)
	}
	if len(reasons) != 1 || !strings.Contains(reasons[0], "does not contain any of") {
		t.Errorf("Expected include reason for 'Weather Report', got %v", reasons)
	}
}

func TestFilterer_ExcludeWinsOverInclude(t *testing.T) {
	filterer := NewFilterer(xmltree.DefaultOptions())

	records := []content.Record{
		{"title": "Tech news"},
		{"title": "Tech news sponsored"},
	}

	result, reasons := filterer.Run(records, []FilterConfig{
		{Field: "title", Includes: []string{"tech"}, Excludes: []string{"SPONSORED"}},
	})

	if len(result) != 1 || result[0]["title"] != "Tech news" {
		t.Errorf("Expected only 'Tech news', got %v", result)
	}
	if len(reasons) != 1 || !strings.Contains(reasons[0], "contains 'SPONSORED'") {
		t.Errorf("Expected exclude reason, got %v", reasons)
	}
}

func TestFilterer_ArrayAndMixedFields(t *testing.T) {
	filterer := NewFilterer(xmltree.DefaultOptions())

	records := []content.Record{
		{"categories": []any{"Go", "Databases"}},
		{"categories": []any{"Cooking", map[string]any{"$": map[string]any{"term": "x"}, "_": "Travel"}}},
		{"categories": map[string]any{"$": map[string]any{"term": "go"}}},
		{},
	}

	result, _ := filterer.Run(records, []FilterConfig{
		{Field: "categories", Excludes: []string{"travel", "databases"}},
	})

	if len(result) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(result))
	}
	if _, ok := result[0]["categories"].(map[string]any); !ok {
		t.Errorf("Expected element-only record to be kept, got %v", result[0])
	}
	if len(result[1]) != 0 {
		t.Errorf("Expected empty record to be kept, got %v", result[1])
	}
}

func TestFilterer_MissingFieldFailsInclude(t *testing.T) {
	filterer := NewFilterer(xmltree.DefaultOptions())

	result, reasons := filterer.Run([]content.Record{{"title": "x"}}, []FilterConfig{
		{Field: "description", Includes: []string{"x"}},
	})

	if len(result) != 0 {
		t.Errorf("Expected record without the field to be dropped, got %v", result)
	}
	if len(reasons) != 1 {
		t.Errorf("Expected 1 reason, got %v", reasons)
	}
}
