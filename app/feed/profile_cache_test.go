package feed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeProfile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".yml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestProfileCacheLoadValidProfile(t *testing.T) {
	tempDir := t.TempDir()

	writeProfile(t, tempDir, "rss", `
sections:
  - name: items
    path: rss.channel.item
    fields:
      - title
      - [description, summary, {include_snippet: true}]
      - {from: category, to: categories, keep_array: true}
    contents:
      - {from: "content:encoded", to: content, include_snippet: true}
    links:
      - from: link
      - from: enclosure
        to: media
        rel: enclosure
        fallback_index: 1
    filters:
      - field: title
        excludes:
          - "spam"
`)

	profileCache := NewProfileCache(tempDir)
	if err := profileCache.Run(); err != nil {
		t.Fatal(err)
	}

	if profileCache.GetProfileCount() != 1 {
		t.Errorf("Expected 1 profile, got %d", profileCache.GetProfileCount())
	}

	profile, err := profileCache.GetProfile("rss")
	if err != nil {
		t.Fatal(err)
	}
	if profile.Name != "rss" {
		t.Errorf("Expected name 'rss', got '%s'", profile.Name)
	}
	if len(profile.Sections) != 1 {
		t.Fatalf("Expected 1 section, got %d", len(profile.Sections))
	}

	section := profile.Sections[0]
	if section.Path != "rss.channel.item" {
		t.Errorf("Expected path 'rss.channel.item', got '%s'", section.Path)
	}

	if len(section.Fields) != 3 {
		t.Fatalf("Expected 3 fields, got %d", len(section.Fields))
	}
	if f := section.Fields[0]; f.From != "title" || f.To != "title" || f.KeepArray || f.IncludeSnippet {
		t.Errorf("Expected plain title field, got %+v", f)
	}
	if f := section.Fields[1]; f.From != "description" || f.To != "summary" || !f.IncludeSnippet || f.KeepArray {
		t.Errorf("Expected description->summary with snippet, got %+v", f)
	}
	if f := section.Fields[2]; f.From != "category" || f.To != "categories" || !f.KeepArray {
		t.Errorf("Expected category->categories keeping array, got %+v", f)
	}

	if len(section.Contents) != 1 || section.Contents[0].From != "content:encoded" {
		t.Errorf("Expected content:encoded content field, got %+v", section.Contents)
	}

	if len(section.Links) != 2 {
		t.Fatalf("Expected 2 links, got %d", len(section.Links))
	}
	if l := section.Links[0]; l.To != "link" || l.Rel != "alternate" || l.FallbackIndex != 0 {
		t.Errorf("Expected link defaults to apply, got %+v", l)
	}
	if l := section.Links[1]; l.To != "media" || l.Rel != "enclosure" || l.FallbackIndex != 1 {
		t.Errorf("Expected explicit link settings, got %+v", l)
	}

	if len(section.Filters) != 1 {
		t.Errorf("Expected 1 filter, got %d", len(section.Filters))
	}
}

func TestProfileCacheNames(t *testing.T) {
	tempDir := t.TempDir()
	minimal := `
sections:
  - name: items
    path: a.b
`
	writeProfile(t, tempDir, "zeta", minimal)
	writeProfile(t, tempDir, "alpha", minimal)
	if err := os.WriteFile(filepath.Join(tempDir, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}

	profileCache := NewProfileCache(tempDir)
	if err := profileCache.Run(); err != nil {
		t.Fatal(err)
	}

	names := profileCache.GetProfileNames()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Errorf("Expected [alpha zeta], got %v", names)
	}

	if _, err := profileCache.GetProfile("missing"); err == nil {
		t.Error("Expected error for unknown profile")
	}
}

func TestProfileCacheMissingDirectory(t *testing.T) {
	profileCache := NewProfileCache(filepath.Join(t.TempDir(), "does-not-exist"))

	if err := profileCache.Run(); err != nil {
		t.Errorf("Expected missing directory to be tolerated, got: %v", err)
	}
	if profileCache.GetProfileCount() != 0 {
		t.Errorf("Expected 0 profiles, got %d", profileCache.GetProfileCount())
	}
}

func TestProfileCacheReloadReplacesProfile(t *testing.T) {
	tempDir := t.TempDir()
	writeProfile(t, tempDir, "feed", `
sections:
  - name: items
    path: rss.channel.item
`)

	profileCache := NewProfileCache(tempDir)
	if err := profileCache.Run(); err != nil {
		t.Fatal(err)
	}

	writeProfile(t, tempDir, "feed", `
sections:
  - name: entries
    path: feed.entry
`)
	if _, err := profileCache.LoadProfile("feed"); err != nil {
		t.Fatal(err)
	}

	profile, err := profileCache.GetProfile("feed")
	if err != nil {
		t.Fatal(err)
	}
	if profile.Sections[0].Name != "entries" {
		t.Errorf("Expected reloaded section 'entries', got '%s'", profile.Sections[0].Name)
	}
}

func TestProfileCacheInvalidProfiles(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{"no sections", "sections: []\n", "at least one section is required"},
		{"section without name", "sections:\n  - path: a.b\n", "name is required"},
		{"section without path", "sections:\n  - name: items\n", "path is required"},
		{"duplicate sections", "sections:\n  - {name: items, path: a}\n  - {name: items, path: b}\n", "duplicate section name"},
		{"field tuple too long", "sections:\n  - name: items\n    path: a\n    fields:\n      - [a, b, {}, extra]\n", "field tuple must have 2 or 3 entries"},
		{"field without source", "sections:\n  - name: items\n    path: a\n    fields:\n      - {to: title}\n", "field at index 0 has no source name"},
		{"link without source", "sections:\n  - name: items\n    path: a\n    links:\n      - {to: link}\n", "link at index 0 has no source name"},
		{"negative fallback", "sections:\n  - name: items\n    path: a\n    links:\n      - {from: link, fallback_index: -1}\n", "negative fallback index"},
		{"empty filter", "sections:\n  - name: items\n    path: a\n    filters:\n      - field: title\n", "at least one include or exclude rule"},
		{"malformed yaml", "sections: [\n", "failed to parse YAML"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			writeProfile(t, tempDir, "broken", tt.content)

			err := NewProfileCache(tempDir).Run()
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.expected) {
				t.Errorf("Expected error containing '%s', got: %v", tt.expected, err)
			}
		})
	}
}
