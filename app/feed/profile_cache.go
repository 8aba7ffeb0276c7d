package feed

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	profileExt = ".yml"
	defaultRel = "alternate"
)

type ProfileCache struct {
	profilesDir string
	cache       map[string]*Profile
	mu          sync.RWMutex
}

func NewProfileCache(profilesDir string) *ProfileCache {
	return &ProfileCache{
		profilesDir: profilesDir,
		cache:       make(map[string]*Profile),
	}
}

func (pc *ProfileCache) Run() error {
	if _, err := os.Stat(pc.profilesDir); os.IsNotExist(err) {
		slog.Warn("Profiles directory does not exist", "dir", pc.profilesDir)
		return nil
	}

	files, err := filepath.Glob(filepath.Join(pc.profilesDir, "*"+profileExt))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		profileName := strings.TrimSuffix(filepath.Base(file), profileExt)

		profile, err := pc.LoadProfile(profileName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Profile loaded", "profile", profileName, "sections", len(profile.Sections))
	}

	return nil
}

func (pc *ProfileCache) LoadProfile(profileName string) (*Profile, error) {
	profileFile := pc.getProfileFilePath(profileName)
	profile, err := pc.parseProfile(profileFile)
	if err != nil {
		return nil, err
	}

	profile.Name = profileName

	if err := pc.validateProfile(profile); err != nil {
		return nil, fmt.Errorf("invalid profile %s: %w", profileFile, err)
	}

	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.cache[profile.Name] = profile

	return profile, nil
}

func (pc *ProfileCache) GetProfile(profileName string) (*Profile, error) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	profile, ok := pc.cache[profileName]
	if !ok {
		return nil, fmt.Errorf("profile with name '%s' not found", profileName)
	}
	return profile, nil
}

// GetProfileNames returns the cached profile names in sorted order.
func (pc *ProfileCache) GetProfileNames() []string {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	names := make([]string, 0, len(pc.cache))
	for name := range pc.cache {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (pc *ProfileCache) GetProfileCount() int {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return len(pc.cache)
}

func (pc *ProfileCache) parseProfile(profileFile string) (*Profile, error) {
	data, err := os.ReadFile(profileFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i := range profile.Sections {
		section := &profile.Sections[i]
		for j := range section.Links {
			link := &section.Links[j]
			if link.To == "" {
				link.To = link.From
			}
			if link.Rel == "" {
				link.Rel = defaultRel
			}
		}
	}

	return &profile, nil
}

func (pc *ProfileCache) validateProfile(profile *Profile) error {
	if profile == nil {
		return fmt.Errorf("profile is nil")
	}

	if len(profile.Sections) == 0 {
		return fmt.Errorf("at least one section is required")
	}

	seen := make(map[string]bool, len(profile.Sections))
	for i, section := range profile.Sections {
		if section.Name == "" {
			return fmt.Errorf("section at index %d: name is required", i)
		}
		if section.Path == "" {
			return fmt.Errorf("section %s: path is required", section.Name)
		}
		if seen[section.Name] {
			return fmt.Errorf("duplicate section name: %s", section.Name)
		}
		seen[section.Name] = true

		for j, field := range section.Fields {
			if field.From == "" {
				return fmt.Errorf("section %s: field at index %d has no source name", section.Name, j)
			}
		}
		for j, field := range section.Contents {
			if field.From == "" {
				return fmt.Errorf("section %s: content at index %d has no source name", section.Name, j)
			}
		}
		for j, link := range section.Links {
			if link.From == "" {
				return fmt.Errorf("section %s: link at index %d has no source name", section.Name, j)
			}
			if link.FallbackIndex < 0 {
				return fmt.Errorf("section %s: link at index %d has negative fallback index", section.Name, j)
			}
		}
		for j, filter := range section.Filters {
			if filter.Field == "" {
				return fmt.Errorf("section %s: filter at index %d has no field", section.Name, j)
			}
			if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
				return fmt.Errorf("section %s: filter at index %d must have at least one include or exclude rule", section.Name, j)
			}
		}
	}

	return nil
}

func (pc *ProfileCache) getProfileFilePath(profileName string) string {
	return filepath.Join(pc.profilesDir, profileName+profileExt)
}
