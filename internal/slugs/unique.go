package slugs

import (
	"context"
	"fmt"
	"strconv"
	"unicode/utf8"
)

// Scope is the set of constraints a slug must be unique within
type Scope struct {
	EntityType string
	ExcludeID  int64 // the entity's own id, 0 before insert
	Mode       ScopeMode
	Filters    map[string]any // sibling field values for ScopePartial
}

// Probe is one existence query issued by the uniqueness resolver
type Probe struct {
	Slug      string
	ExcludeID int64
	Filters   map[string]any
}

// ExistsChecker answers whether a slug is taken by another entity
type ExistsChecker interface {
	SlugExists(ctx context.Context, p Probe) (bool, error)
}

// ResolveUnique returns base, or base followed by the separator and the first free
// counter starting at 1. An empty base is returned unchanged.
func ResolveUnique(ctx context.Context, store ExistsChecker, base string, scope Scope, field Field) (string, error) {
	if base == "" || scope.Mode == ScopeNone {
		return base, nil
	}

	sep := field.separator()
	attempts := field.maxAttempts()
	candidate := base

	for n := 1; n <= attempts; n++ {
		taken, err := store.SlugExists(ctx, Probe{
			Slug:      candidate,
			ExcludeID: scope.ExcludeID,
			Filters:   scope.Filters,
		})
		if err != nil {
			return "", fmt.Errorf("probe %s slug %q: %w", scope.EntityType, candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = withCounter(base, sep, n, field.MaxLength)
	}

	return "", fmt.Errorf("%w: %s slug %q after %d attempts", ErrSuffixExhausted, scope.EntityType, base, attempts)
}

func withCounter(base, sep string, n, maxLength int) string {
	suffix := sep + strconv.Itoa(n)
	if maxLength > 0 {
		room := maxLength - utf8.RuneCountInString(suffix)
		if room < 1 {
			room = 1
		}
		base = truncate(base, room, sep)
	}
	return base + suffix
}
