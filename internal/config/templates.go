package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// aspectFile is the on-disk shape of a decomposer template file.
type aspectFile struct {
	Aspects []string `yaml:"aspects"`
}

// LoadAspectTemplates reads decomposer aspect templates from a YAML file.
// Each template must contain exactly one %s placeholder for the topic. An
// empty path returns nil, meaning the compiled-in defaults apply.
func LoadAspectTemplates(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}

	var f aspectFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	var out []string
	for i, t := range f.Aspects {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if strings.Count(t, "%s") != 1 {
			return nil, fmt.Errorf("template %d must contain exactly one %%s placeholder: %q", i, t)
		}
		out = append(out, t)
	}
	return out, nil
}
