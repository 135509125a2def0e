package filter

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"LiveTable/internal/model"
)

var (
	ErrDuplicateKey     = errors.New("duplicate filter key")
	ErrUnknownTransform = errors.New("unknown transform")
)

var (
	transformsMu sync.RWMutex
	transforms   = map[string]TransformFunc{}
)

// RegisterTransform makes fn available to resource files as
// `transform: <name>`. Registration happens at init time.
func RegisterTransform(name string, fn TransformFunc) {
	transformsMu.Lock()
	defer transformsMu.Unlock()
	transforms[name] = fn
}

func LookupTransform(name string) (TransformFunc, bool) {
	transformsMu.RLock()
	defer transformsMu.RUnlock()
	fn, ok := transforms[name]
	return fn, ok
}

// TransformNames lists the registered transforms, sorted.
func TransformNames() []string {
	transformsMu.RLock()
	defer transformsMu.RUnlock()
	names := make([]string, 0, len(transforms))
	for name := range transforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var idTypes = map[string]bool{"int": true, "string": true, "uuid": true}

// Declare turns a YAML filter declaration into its typed default instance.
func Declare(spec model.FilterSpec) (Filter, error) {
	key := strings.TrimSpace(spec.Key)
	if key == "" {
		return nil, fmt.Errorf("filter without key")
	}
	label := spec.Label
	if label == "" {
		label = key
	}

	switch spec.Kind {
	case "boolean":
		if spec.Condition == nil || spec.Condition.Field == "" {
			return nil, fmt.Errorf("boolean filter %s: condition.field is required", key)
		}
		if spec.Condition.Op != "" && !Ops[spec.Condition.Op] {
			return nil, fmt.Errorf("boolean filter %s: unknown condition operator %q", key, spec.Condition.Op)
		}
		return Boolean{
			URLKey: key,
			Label:  label,
			Condition: Condition{
				Field: spec.Condition.Field,
				Op:    spec.Condition.Op,
				Value: spec.Condition.Value,
			},
		}, nil

	case "range":
		if spec.Field == "" {
			return nil, fmt.Errorf("range filter %s: field is required", key)
		}
		if spec.Min == nil || spec.Max == nil {
			return nil, fmt.Errorf("range filter %s: min and max are required", key)
		}
		if *spec.Min > *spec.Max {
			return nil, fmt.Errorf("range filter %s: min %v is greater than max %v", key, *spec.Min, *spec.Max)
		}
		step := 1.0
		if spec.Step != nil {
			if *spec.Step <= 0 {
				return nil, fmt.Errorf("range filter %s: step must be positive", key)
			}
			step = *spec.Step
		}
		return Range{URLKey: key, Label: label, Field: spec.Field, Min: *spec.Min, Max: *spec.Max, Step: step}, nil

	case "select":
		if spec.Field == "" {
			return nil, fmt.Errorf("select filter %s: field is required", key)
		}
		idType := spec.IDType
		if idType == "" {
			idType = "int"
		}
		if !idTypes[idType] {
			return nil, fmt.Errorf("select filter %s: unknown id_type %q", key, spec.IDType)
		}
		return Select{URLKey: key, Label: label, Field: spec.Field, Match: spec.Match, IDType: idType}, nil

	case "transformer":
		fn, ok := LookupTransform(spec.Transform)
		if !ok {
			return nil, fmt.Errorf("transformer filter %s: %w %q", key, ErrUnknownTransform, spec.Transform)
		}
		return Transformer{URLKey: key, Label: label, Transform: fn}, nil
	}
	return nil, fmt.Errorf("filter %s: unknown kind %q", key, spec.Kind)
}

// DeclareAll declares every spec and checks key uniqueness.
func DeclareAll(specs []model.FilterSpec) ([]Filter, error) {
	out := make([]Filter, 0, len(specs))
	for _, spec := range specs {
		f, err := Declare(spec)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	if err := CheckKeys(out); err != nil {
		return nil, err
	}
	return out, nil
}

// CheckKeys fails when two filters share a URL key.
func CheckKeys(filters []Filter) error {
	seen := make(map[string]struct{}, len(filters))
	for _, f := range filters {
		if _, dup := seen[f.Key()]; dup {
			return fmt.Errorf("%w %q", ErrDuplicateKey, f.Key())
		}
		seen[f.Key()] = struct{}{}
	}
	return nil
}
