package model

import "fmt"

var Registry = map[string]*Resource{}

func InitRegistry(dir string) error {
	if err := LoadResourcesFromDir(dir); err != nil {
		return fmt.Errorf("load error: %w", err)
	}
	if err := LinkResources(); err != nil {
		return fmt.Errorf("link error: %w", err)
	}
	return nil
}

func GetResource(name string) *Resource {
	if r, ok := Registry[name]; ok {
		return r
	}
	return nil
}
