package resolver

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Classification is the account type/subtype pair used when creating an
// expense category that does not exist yet.
type Classification struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	DetailType string `yaml:"detail_type"`
}

// mappingFile is the YAML layout of a category mapping configuration.
type mappingFile struct {
	Categories []Classification `yaml:"categories"`
}

// Mapping resolves expense category names to account classifications.
// Unmapped names fall back to a generic Expense/Supplies classification.
type Mapping struct {
	byName map[string]Classification
}

// DefaultClassification is applied to category names with no mapping entry.
var DefaultClassification = Classification{Type: "Expense", DetailType: "Supplies"}

// LoadMapping reads a category mapping from a YAML file. An empty path
// yields a mapping with only the built-in default.
func LoadMapping(path string) (*Mapping, error) {
	m := &Mapping{byName: map[string]Classification{}}
	if path == "" {
		return m, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}

	var file mappingFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse mapping file: %w", err)
	}

	for _, c := range file.Categories {
		if c.Name == "" {
			continue
		}
		if c.Type == "" {
			c.Type = DefaultClassification.Type
		}
		if c.DetailType == "" {
			c.DetailType = DefaultClassification.DetailType
		}
		m.byName[c.Name] = c
	}
	return m, nil
}

// Classify returns the classification for a category name.
func (m *Mapping) Classify(name string) Classification {
	if m != nil {
		if c, ok := m.byName[name]; ok {
			return c
		}
	}
	c := DefaultClassification
	c.Name = name
	return c
}
