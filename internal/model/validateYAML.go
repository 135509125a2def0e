package model

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// allowed keys per object kind
var allowedResourceKeys = map[string]bool{
	"table":         true,
	"primary_key":   true,
	"associations":  true,
	"fields":        true,
	"filters":       true,
	"table_options": true,
	"query":         true,
}

var allowedAssociationKeys = map[string]bool{
	"type":  true,
	"table": true,
	"fk":    true,
	"pk":    true,
	"where": true,
}

var allowedFieldKeys = map[string]bool{
	"key":        true,
	"label":      true,
	"type":       true,
	"sortable":   true,
	"searchable": true,
	"hidden":     true,
	"assoc":      true,
	"column":     true,
	"computed":   true,
}

var allowedFilterKeys = map[string]bool{
	"kind":      true,
	"key":       true,
	"label":     true,
	"field":     true,
	"match":     true,
	"id_type":   true,
	"condition": true,
	"min":       true,
	"max":       true,
	"step":      true,
	"transform": true,
}

var allowedConditionKeys = map[string]bool{
	"field": true,
	"op":    true,
	"value": true,
}

var allowedQueryKeys = map[string]bool{
	"name": true,
	"args": true,
}

var allowedFieldTypeValues = map[string]bool{
	"string":   true,
	"int":      true,
	"float":    true,
	"bool":     true,
	"date":     true,
	"datetime": true,
	"uuid":     true,
}

var allowedFilterKinds = map[string]bool{
	"boolean":     true,
	"range":       true,
	"select":      true,
	"transformer": true,
}

func validateYAMLNode(node *yaml.Node, context string) error {
	switch node.Kind {
	case yaml.DocumentNode:
		for _, child := range node.Content {
			if err := validateYAMLNode(child, "resource"); err != nil {
				return err
			}
		}

	case yaml.MappingNode:
		var allowedKeys map[string]bool
		switch context {
		case "resource":
			allowedKeys = allowedResourceKeys
		case "association":
			allowedKeys = allowedAssociationKeys
		case "field":
			allowedKeys = allowedFieldKeys
		case "filter":
			allowedKeys = allowedFilterKeys
		case "condition":
			allowedKeys = allowedConditionKeys
		case "query":
			allowedKeys = allowedQueryKeys
		default:
			allowedKeys = nil // free form (table_options, condition values)
		}

		for i := 0; i < len(node.Content); i += 2 {
			keyNode := node.Content[i]
			valNode := node.Content[i+1]
			key := keyNode.Value

			if allowedKeys != nil && !allowedKeys[key] {
				return fmt.Errorf("unknown key '%s' in %s (line %d)", key, context, keyNode.Line)
			}
			if context == "field" && key == "type" && !allowedFieldTypeValues[valNode.Value] {
				return fmt.Errorf("unknown type value '%s' in field (line %d)", valNode.Value, valNode.Line)
			}
			if context == "filter" && key == "kind" && !allowedFilterKinds[valNode.Value] {
				return fmt.Errorf("unknown filter kind '%s' (line %d)", valNode.Value, valNode.Line)
			}

			nextContext := ""
			switch {
			case context == "resource" && key == "associations":
				nextContext = "associations-map"
			case context == "associations-map":
				nextContext = "association"
			case context == "resource" && key == "fields":
				nextContext = "fields-seq"
			case context == "resource" && key == "filters":
				nextContext = "filters-seq"
			case context == "resource" && key == "query":
				nextContext = "query"
			case context == "resource" && key == "table_options":
				nextContext = "free"
			case context == "filter" && key == "condition":
				nextContext = "condition"
			case context == "condition" || context == "query":
				nextContext = "free"
			default:
				nextContext = context
			}

			if err := validateYAMLNode(valNode, nextContext); err != nil {
				return err
			}
		}

	case yaml.SequenceNode:
		itemContext := context
		switch context {
		case "fields-seq":
			itemContext = "field"
		case "filters-seq":
			itemContext = "filter"
		}
		for _, item := range node.Content {
			if err := validateYAMLNode(item, itemContext); err != nil {
				return err
			}
		}

	case yaml.ScalarNode:
		// scalars are checked by their parent mapping
	}

	return nil
}
