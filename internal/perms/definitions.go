package perms

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type definitionsFile struct {
	Permissions []struct {
		ID     string   `yaml:"id"`
		Label  string   `yaml:"label"`
		Tags   []string `yaml:"tags"`
		Groups []string `yaml:"groups"`
	} `yaml:"permissions"`
}

// LoadDefinitions reads a YAML definitions file and returns its entries as
// known permissions. Group ids outside the fixed catalog are ignored.
func LoadDefinitions(path string) ([]Known, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definitions file: %w", err)
	}
	return ParseDefinitions(data)
}

// ParseDefinitions parses a YAML definitions document.
func ParseDefinitions(data []byte) ([]Known, error) {
	var file definitionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse definitions: %w", err)
	}

	out := make([]Known, 0, len(file.Permissions))
	seen := make(map[ID]bool)
	for i, def := range file.Permissions {
		if def.ID == "" {
			return nil, fmt.Errorf("definition %d: missing id", i)
		}
		if seen[def.ID] {
			return nil, fmt.Errorf("definition %d: duplicate id %s", i, def.ID)
		}
		seen[def.ID] = true

		k := Known{ID: def.ID, Label: def.Label}
		for _, name := range def.Tags {
			tag, err := ParseTag(name)
			if err != nil {
				return nil, fmt.Errorf("definition %s: %w", def.ID, err)
			}
			k.Tags = k.Tags.With(tag)
		}
		for _, g := range def.Groups {
			if _, ok := LookupGroup(GroupID(g)); ok && GroupID(g) != GroupOther {
				k.Groups = append(k.Groups, GroupID(g))
			}
		}
		out = append(out, k)
	}

	return out, nil
}

// MergeKnown overlays extra definitions on base; entries in extra replace
// base entries with the same id.
func MergeKnown(base, extra []Known) []Known {
	if len(extra) == 0 {
		return base
	}

	replaced := make(map[ID]Known, len(extra))
	for _, k := range extra {
		replaced[k.ID] = k
	}

	out := make([]Known, 0, len(base)+len(extra))
	for _, k := range base {
		if r, ok := replaced[k.ID]; ok {
			out = append(out, r)
			delete(replaced, k.ID)
			continue
		}
		out = append(out, k)
	}
	for _, k := range extra {
		if _, pending := replaced[k.ID]; pending {
			out = append(out, k)
		}
	}
	return out
}
