package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TypeMappingSetting is the name reported in diagnostics about the mapping
const TypeMappingSetting = "SLUGSWAP_TYPE_MAPPING"

// TypeBinding ties a route parameter name to the entity type its value identifies
type TypeBinding struct {
	Param      string `json:"param"`
	EntityType string `json:"entity_type"`
}

// TypeMapping is the ordered, read-only route parameter -> entity type table
// consulted by the redirect resolver. Build it once at start and share the pointer.
type TypeMapping struct {
	bindings []TypeBinding
	index    map[string]int
}

// NewTypeMapping builds a mapping from bindings, later duplicates replace earlier ones in place
func NewTypeMapping(bindings ...TypeBinding) *TypeMapping {
	m := &TypeMapping{index: make(map[string]int, len(bindings))}
	for _, b := range bindings {
		m.add(b)
	}
	return m
}

// DefaultTypeMapping returns the bindings for the owner types this service ships with
func DefaultTypeMapping() *TypeMapping {
	return NewTypeMapping(
		TypeBinding{Param: "category_slug", EntityType: "category"},
		TypeBinding{Param: "post_slug", EntityType: "post"},
	)
}

func (m *TypeMapping) add(b TypeBinding) bool {
	if i, ok := m.index[b.Param]; ok {
		m.bindings[i] = b
		return false
	}
	m.index[b.Param] = len(m.bindings)
	m.bindings = append(m.bindings, b)
	return true
}

// Lookup returns the entity type configured for a route parameter
func (m *TypeMapping) Lookup(param string) (string, bool) {
	if m == nil {
		return "", false
	}
	i, ok := m.index[param]
	if !ok {
		return "", false
	}
	return m.bindings[i].EntityType, true
}

// Bindings returns a copy of the bindings in configuration order
func (m *TypeMapping) Bindings() []TypeBinding {
	if m == nil {
		return nil
	}
	out := make([]TypeBinding, len(m.bindings))
	copy(out, m.bindings)
	return out
}

// Len returns the number of usable bindings
func (m *TypeMapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.bindings)
}

// ParseTypeMapping decodes a YAML (or JSON) document into a mapping. Entries that are
// not string -> string are dropped and reported; a document that is not a mapping
// yields an empty mapping and a single diagnostic.
func ParseTypeMapping(data []byte, source string) (*TypeMapping, []Diagnostic) {
	m := NewTypeMapping()

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return m, []Diagnostic{notAMapping(source, fmt.Sprintf("could not be parsed: %v", err))}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return m, []Diagnostic{notAMapping(source, "is empty")}
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return m, []Diagnostic{notAMapping(source, fmt.Sprintf("is a %s", nodeKind(root)))}
	}

	var diags []Diagnostic
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]

		keyOK := isString(key) && key.Value != ""
		valueOK := isString(value) && value.Value != ""

		if !keyOK {
			diags = append(diags, Diagnostic{
				ID:      "slugswap.E002",
				Level:   LevelError,
				Message: fmt.Sprintf("Invalid key type in %s: '%s' is not a string.", source, key.Value),
				Hint:    "All keys must be strings representing slug route parameter names.",
				Line:    key.Line,
			})
		}
		if !valueOK {
			diags = append(diags, Diagnostic{
				ID:      "slugswap.E003",
				Level:   LevelError,
				Message: fmt.Sprintf("Invalid value type in %s: '%s' for key '%s' is not a string.", source, value.Value, key.Value),
				Hint:    "All values must be non-empty strings representing entity types.",
				Line:    value.Line,
			})
		}
		if !keyOK || !valueOK {
			continue
		}

		if !m.add(TypeBinding{Param: key.Value, EntityType: value.Value}) {
			diags = append(diags, Diagnostic{
				ID:      "slugswap.W002",
				Level:   LevelWarning,
				Message: fmt.Sprintf("Duplicate key '%s' in %s; the last value wins.", key.Value, source),
				Line:    key.Line,
			})
		}
	}

	return m, diags
}

// LoadTypeMapping resolves the mapping from the slug settings: inline value first, then
// the file, then the built-in default. It never fails; problems come back as diagnostics.
func LoadTypeMapping(cfg SlugConfig) (*TypeMapping, []Diagnostic) {
	if cfg.TypeMapping != "" {
		return ParseTypeMapping([]byte(cfg.TypeMapping), TypeMappingSetting)
	}

	if cfg.TypeMappingFile != "" {
		data, err := os.ReadFile(cfg.TypeMappingFile)
		if err != nil {
			return NewTypeMapping(), []Diagnostic{{
				ID:      "slugswap.E001",
				Level:   LevelError,
				Message: fmt.Sprintf("%s_FILE could not be read: %v", TypeMappingSetting, err),
				Hint:    "Point the setting at a readable YAML file or unset it to use the defaults.",
			}}
		}
		return ParseTypeMapping(data, cfg.TypeMappingFile)
	}

	return DefaultTypeMapping(), nil
}

func notAMapping(source, detail string) Diagnostic {
	return Diagnostic{
		ID:      "slugswap.E001",
		Level:   LevelError,
		Message: fmt.Sprintf("%s must be a mapping; it %s.", source, detail),
		Hint:    fmt.Sprintf("Ensure %s maps slug route parameter names to entity types (e.g., {post_slug: post}).", source),
	}
}

func isString(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!str"
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar " + n.ShortTag()
	case yaml.AliasNode:
		return "alias"
	}
	return "non-mapping node"
}
