package model

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"LiveTable/internal/logger"

	"gopkg.in/yaml.v3"
)

func LoadResourcesFromDir(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.yml"))
	if err != nil {
		return err
	}
	more, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return err
	}
	files = append(files, more...)
	sort.Strings(files)

	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		res, err := ParseResource(name, data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if _, dup := Registry[name]; dup {
			return fmt.Errorf("%s: resource %q already loaded", path, name)
		}
		Registry[name] = res
		logger.Info("resource_loaded", map[string]any{
			"resource":     name,
			"fields":       len(res.Fields),
			"filters":      len(res.Filters),
			"associations": len(res.Associations),
		})
	}
	return nil
}

// ParseResource validates the document structure key by key and decodes it.
// The result is not linked yet.
func ParseResource(name string, data []byte) (*Resource, error) {
	// 1. structural validation on the node tree
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("YAML parse error: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, fmt.Errorf("empty YAML")
	}
	if err := validateYAMLNode(root.Content[0], "resource"); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	// 2. decode
	var res Resource
	if err := root.Decode(&res); err != nil {
		return nil, fmt.Errorf("unmarshal error: %w", err)
	}
	res.Name = name
	return &res, nil
}
