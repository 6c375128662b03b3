package config

import (
	"fmt"
)

// Level is the severity of a startup diagnostic
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
)

// Diagnostic is a startup configuration finding. Diagnostics are reported, never fatal.
type Diagnostic struct {
	ID      string `json:"id"`
	Level   Level  `json:"level"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
	Line    int    `json:"line,omitempty"`
}

func (d Diagnostic) String() string {
	if d.Hint == "" {
		return fmt.Sprintf("%s: %s", d.ID, d.Message)
	}
	return fmt.Sprintf("%s: %s (hint: %s)", d.ID, d.Message, d.Hint)
}

// CheckTypeMapping reports bindings whose entity type no registered owner type answers to.
// Such bindings stay in the mapping but can never produce a redirect.
func CheckTypeMapping(m *TypeMapping, knownTypes []string) []Diagnostic {
	known := make(map[string]bool, len(knownTypes))
	for _, t := range knownTypes {
		known[t] = true
	}

	var diags []Diagnostic
	for _, b := range m.Bindings() {
		if known[b.EntityType] {
			continue
		}
		diags = append(diags, Diagnostic{
			ID:      "slugswap.W001",
			Level:   LevelWarning,
			Message: fmt.Sprintf("%s binds '%s' to unknown entity type '%s'.", TypeMappingSetting, b.Param, b.EntityType),
			Hint:    fmt.Sprintf("Known entity types: %v.", knownTypes),
		})
	}
	return diags
}

// HasErrors reports whether any diagnostic is an error
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Level == LevelError {
			return true
		}
	}
	return false
}
