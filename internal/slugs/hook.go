package slugs

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/slug-swap-api/internal/models"
)

// Sluggable is an entity that owns a derived slug
type Sluggable interface {
	SlugType() string
	SlugOwnerID() int64
	SlugSource() string
	AssignSlug(slug string)
	SlugScopeValue(field string) (any, bool)
}

// Store is the owner-side storage the hook reads from
type Store interface {
	ExistsChecker
	// PersistedSlug reads the slug currently stored for id, reporting false when no row exists
	PersistedSlug(ctx context.Context, id int64) (string, bool, error)
}

// Ledger is the write side of the slug swap ledger
type Ledger interface {
	// Upsert records old -> new keyed on (entity type, old slug); an existing row keeps its redirect class
	Upsert(ctx context.Context, swap *models.SlugSwap) error
	// ReleaseSlug deletes the owner's row whose old slug has become current again
	ReleaseSlug(ctx context.Context, owner models.OwnerRef, slug string) (int64, error)
	// Repoint moves every row of the owner to the owner's current slug
	Repoint(ctx context.Context, owner models.OwnerRef, newSlug string) (int64, error)
}

// LedgerReader is the read side of the ledger used by the redirect resolver
type LedgerReader interface {
	// FindByOldSlug returns nil, nil when no row exists
	FindByOldSlug(ctx context.Context, entityType, oldSlug string) (*models.SlugSwap, error)
}

// Change describes what a save did to an entity's slug
type Change struct {
	Previous string `json:"previous,omitempty"`
	Current  string `json:"current"`
	Changed  bool   `json:"changed"`
}

// Hook runs the slug pipeline for one entity type
type Hook struct {
	field Field
	log   zerolog.Logger
}

// NewHook validates field and returns a hook for it
func NewHook(field Field, log zerolog.Logger) (*Hook, error) {
	if err := field.Validate(); err != nil {
		return nil, err
	}
	return &Hook{field: field, log: log}, nil
}

// Field returns the hook's field definition
func (h *Hook) Field() Field {
	return h.field
}

// Save derives and resolves the slug for e, assigns it, calls persist, and records the
// transition in the ledger when an existing entity's slug changed. store and ledger
// should be bound to the same transaction as persist. Nothing is written to the ledger
// unless persist succeeds.
func (h *Hook) Save(ctx context.Context, store Store, ledger Ledger, e Sluggable, persist func(ctx context.Context) error) (Change, error) {
	source := e.SlugSource()
	base := h.field.Derive(source)
	if base == "" {
		return Change{}, fmt.Errorf("%w: %q", ErrUnslugifiable, source)
	}

	scope, err := h.field.ScopeFor(e)
	if err != nil {
		return Change{}, err
	}

	resolved, err := ResolveUnique(ctx, store, base, scope, h.field)
	if err != nil {
		return Change{}, err
	}

	// Compare against what is stored, never the in-memory value
	var previous string
	var existed bool
	id := e.SlugOwnerID()
	if id != 0 {
		previous, existed, err = store.PersistedSlug(ctx, id)
		if err != nil {
			return Change{}, fmt.Errorf("read persisted %s slug: %w", e.SlugType(), err)
		}
	}
	changed := existed && previous != "" && previous != resolved

	e.AssignSlug(resolved)
	if err := persist(ctx); err != nil {
		return Change{}, err
	}

	change := Change{Previous: previous, Current: resolved, Changed: changed}
	if !changed {
		return change, nil
	}

	owner := models.OwnerRef{Type: e.SlugType(), ID: id}
	swap := &models.SlugSwap{
		OldSlug: previous,
		NewSlug: resolved,
		Owner:   owner,
	}
	if err := ledger.Upsert(ctx, swap); err != nil {
		return Change{}, fmt.Errorf("record slug swap %q -> %q: %w", previous, resolved, err)
	}

	released, err := ledger.ReleaseSlug(ctx, owner, resolved)
	if err != nil {
		return Change{}, fmt.Errorf("release slug %q: %w", resolved, err)
	}
	repointed, err := ledger.Repoint(ctx, owner, resolved)
	if err != nil {
		return Change{}, fmt.Errorf("repoint slug swaps to %q: %w", resolved, err)
	}

	h.log.Debug().
		Str("entity_type", owner.Type).
		Int64("object_id", owner.ID).
		Str("old_slug", previous).
		Str("new_slug", resolved).
		Int64("released", released).
		Int64("repointed", repointed).
		Msg("Slug swap recorded")

	return change, nil
}
