package slugs

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultSeparator joins a base slug and its collision counter
	DefaultSeparator = "-"

	// DefaultMaxAttempts bounds the collision counter scan
	DefaultMaxAttempts = 10000
)

// ScopeMode selects how slug uniqueness is enforced for a field
type ScopeMode int

const (
	// ScopeNone permits duplicate slugs
	ScopeNone ScopeMode = iota
	// ScopeGlobal requires a slug to be unique across the entity type
	ScopeGlobal
	// ScopePartial requires a slug to be unique among entities sharing the UniqueWith values
	ScopePartial
)

func (m ScopeMode) String() string {
	switch m {
	case ScopeGlobal:
		return "global"
	case ScopePartial:
		return "partial"
	default:
		return "none"
	}
}

// Field describes how an entity type derives and scopes its slug.
// The zero value slugifies with Slugify and enforces no uniqueness.
type Field struct {
	Separator    string
	Slugify      Slugifier
	AllowUnicode bool
	Unique       bool
	UniqueWith   []string
	MaxLength    int // in runes, 0 for no limit
	MaxAttempts  int
}

// Validate rejects definitions that cannot be enforced
func (f Field) Validate() error {
	if f.Unique && len(f.UniqueWith) > 0 {
		return fmt.Errorf("%w: unique and unique-with are mutually exclusive", ErrInvalidField)
	}
	for _, name := range f.UniqueWith {
		if name == "" {
			return fmt.Errorf("%w: empty unique-with field name", ErrInvalidField)
		}
	}
	if f.MaxLength < 0 {
		return fmt.Errorf("%w: negative max length", ErrInvalidField)
	}
	if f.MaxAttempts < 0 {
		return fmt.Errorf("%w: negative max attempts", ErrInvalidField)
	}
	return nil
}

// Mode reports the uniqueness mode the field enforces
func (f Field) Mode() ScopeMode {
	switch {
	case f.Unique:
		return ScopeGlobal
	case len(f.UniqueWith) > 0:
		return ScopePartial
	default:
		return ScopeNone
	}
}

// Derive slugifies source and trims the result to MaxLength
func (f Field) Derive(source string) string {
	fn := f.Slugify
	if fn == nil {
		fn = Slugify
	}
	return truncate(fn(source, f.AllowUnicode), f.MaxLength, f.separator())
}

// ScopeFor builds the uniqueness scope for e from the field definition
func (f Field) ScopeFor(e Sluggable) (Scope, error) {
	scope := Scope{
		EntityType: e.SlugType(),
		ExcludeID:  e.SlugOwnerID(),
		Mode:       f.Mode(),
	}
	if scope.Mode != ScopePartial {
		return scope, nil
	}

	scope.Filters = make(map[string]any, len(f.UniqueWith))
	for _, name := range f.UniqueWith {
		v, ok := e.SlugScopeValue(name)
		if !ok {
			return Scope{}, fmt.Errorf("%w: %s has no field %q", ErrInvalidField, e.SlugType(), name)
		}
		scope.Filters[name] = v
	}
	return scope, nil
}

func (f Field) separator() string {
	if f.Separator == "" {
		return DefaultSeparator
	}
	return f.Separator
}

func (f Field) maxAttempts() int {
	if f.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return f.MaxAttempts
}

// truncate cuts s to max runes and drops separators left dangling at the cut
func truncate(s string, max int, sep string) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return strings.TrimRight(string(r[:max]), "-_"+sep)
}
