package catalog

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/huangsam/ehminer/schema"
	"gopkg.in/yaml.v3"
)

// fileLayout is the wrapped form of a catalog file, shared with .ehminer.yaml.
type fileLayout struct {
	Catalog []schema.CatalogEntry `yaml:"catalog"`
}

// LoadFile reads catalog entries from a YAML file. Both a bare list of entries and a
// document with a top-level "catalog" key are accepted.
func LoadFile(path string) ([]schema.CatalogEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}
	entries, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog file %s: %w", path, err)
	}
	return entries, nil
}

// Parse decodes catalog entries from YAML.
func Parse(data []byte) ([]schema.CatalogEntry, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}

	var entries []schema.CatalogEntry
	switch root.Content[0].Kind {
	case yaml.SequenceNode:
		if err := root.Content[0].Decode(&entries); err != nil {
			return nil, err
		}
	case yaml.MappingNode:
		var layout fileLayout
		dec := yaml.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&layout); err != nil {
			return nil, err
		}
		entries = layout.Catalog
	default:
		return nil, fmt.Errorf("catalog must be a list of domains or a mapping with a 'catalog' key")
	}

	for i := range entries {
		entries[i].Domain = strings.TrimSpace(entries[i].Domain)
		projects := entries[i].Projects[:0]
		for _, p := range entries[i].Projects {
			if p = strings.TrimSpace(p); p != "" {
				projects = append(projects, p)
			}
		}
		entries[i].Projects = projects
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}
	return entries, nil
}

// Build merges inline entries with entries loaded from file (file entries last) and
// returns the resulting catalog.
func Build(inline []schema.CatalogEntry, file string, mode schema.MatchMode, capacity int) (*Catalog, error) {
	entries := append([]schema.CatalogEntry(nil), inline...)
	if file != "" {
		loaded, err := LoadFile(file)
		if err != nil {
			return nil, err
		}
		entries = append(entries, loaded...)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("catalog has no domains")
	}
	return FromEntries(entries, mode, capacity)
}
