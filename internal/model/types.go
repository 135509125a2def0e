package model

// Schema describes the root table of a resource and the associations that can
// be joined onto it.
type Schema struct {
	Name         string                  `yaml:"-"`
	Table        string                  `yaml:"table"`
	PrimaryKey   string                  `yaml:"primary_key"`
	Associations map[string]*Association `yaml:"associations"`

	// built by Link, immutable afterwards
	aliases *AliasMap
}

// Association is a named link from the root record to a related table. It is
// always joined with LEFT JOIN so rows without a related record survive.
type Association struct {
	Name  string `yaml:"-"`
	Type  string `yaml:"type"`  // belongs_to (default) or has_one
	Table string `yaml:"table"` // related table
	FK    string `yaml:"fk"`    // belongs_to: column on root; has_one: column on related
	PK    string `yaml:"pk"`    // belongs_to: related key; has_one: root key
	Where string `yaml:"where"` // extra ON condition, {column} placeholders refer to the related table
}

// FieldDescriptor declares one column of a table. Declared once per resource,
// read-only at request time.
type FieldDescriptor struct {
	Key        string `yaml:"key" json:"key"`
	Label      string `yaml:"label" json:"label,omitempty"`
	Type       string `yaml:"type" json:"type,omitempty"` // string (default), int, float, bool, date, datetime, uuid
	Sortable   bool   `yaml:"sortable" json:"sortable"`
	Searchable bool   `yaml:"searchable" json:"searchable"`
	Hidden     bool   `yaml:"hidden" json:"hidden"`
	Assoc      string `yaml:"assoc" json:"assoc,omitempty"`       // association name
	Column     string `yaml:"column" json:"column,omitempty"`     // remote or local column, defaults to Key
	Computed   string `yaml:"computed" json:"computed,omitempty"` // SQL with {column} / {assoc.column} placeholders
}

// SourceColumn returns the column the field reads, falling back to its key.
func (f FieldDescriptor) SourceColumn() string {
	if f.Column != "" {
		return f.Column
	}
	return f.Key
}

// IsText reports whether the field can be matched with LIKE without a cast.
func (f FieldDescriptor) IsText() bool {
	return f.Type == "" || f.Type == "string"
}

// ConditionSpec is the YAML form of a fixed boolean-filter condition.
type ConditionSpec struct {
	Field string `yaml:"field"`
	Op    string `yaml:"op"`
	Value any    `yaml:"value"`
}

// FilterSpec is the YAML form of a filter declaration; the filter package
// turns it into a typed filter.
type FilterSpec struct {
	Kind      string         `yaml:"kind"` // boolean | range | select | transformer
	Key       string         `yaml:"key"`
	Label     string         `yaml:"label"`
	Field     string         `yaml:"field"`
	Match     string         `yaml:"match"`
	IDType    string         `yaml:"id_type"`
	Condition *ConditionSpec `yaml:"condition"`
	Min       *float64       `yaml:"min"`
	Max       *float64       `yaml:"max"`
	Step      *float64       `yaml:"step"`
	Transform string         `yaml:"transform"`
}

// QuerySpec binds a resource to a registered custom query function.
type QuerySpec struct {
	Name string `yaml:"name"`
	Args []any  `yaml:"args"`
}

// Resource is one table definition file.
type Resource struct {
	Schema       `yaml:",inline"`
	Fields       []FieldDescriptor `yaml:"fields"`
	Filters      []FilterSpec      `yaml:"filters"`
	TableOptions map[string]any    `yaml:"table_options"`
	Query        *QuerySpec        `yaml:"query"`
}

// AliasMap maps association names to SQL aliases and back.
type AliasMap struct {
	PathToAlias map[string]string
	AliasToPath map[string]string
}

type JoinSpec struct {
	Table string
	Alias string
	On    string
	Where string
}

// RootAlias is the SQL alias of the resource's root table in every query.
const RootAlias = "main"

// GetPrimaryKey returns the root primary key column, "id" when unset.
func (s *Schema) GetPrimaryKey() string {
	if s.PrimaryKey != "" {
		return s.PrimaryKey
	}
	return "id"
}

func (s *Schema) GetAssociation(name string) *Association {
	if s == nil || s.Associations == nil {
		return nil
	}
	return s.Associations[name]
}
