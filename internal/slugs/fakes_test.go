package slugs_test

import (
	"context"
	"errors"
	"strings"

	"github.com/slug-swap-api/internal/models"
	"github.com/slug-swap-api/internal/slugs"
)

type memRow struct {
	slug  string
	scope map[string]any
}

// memStore is an owner table kept in a map
type memStore struct {
	rows     map[int64]memRow
	nextID   int64
	probes   []string
	reads    int
	probeErr error
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[int64]memRow)}
}

func (s *memStore) SlugExists(ctx context.Context, p slugs.Probe) (bool, error) {
	s.probes = append(s.probes, p.Slug)
	if s.probeErr != nil {
		return false, s.probeErr
	}
	for id, r := range s.rows {
		if id == p.ExcludeID || r.slug != p.Slug {
			continue
		}
		match := true
		for k, v := range p.Filters {
			if r.scope[k] != v {
				match = false
				break
			}
		}
		if match {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) PersistedSlug(ctx context.Context, id int64) (string, bool, error) {
	s.reads++
	r, ok := s.rows[id]
	return r.slug, ok, nil
}

func (s *memStore) put(slug string, scope map[string]any) int64 {
	s.nextID++
	s.rows[s.nextID] = memRow{slug: slug, scope: scope}
	return s.nextID
}

func (s *memStore) saveCategory(c *models.Category) func(context.Context) error {
	return func(ctx context.Context) error {
		if c.ID == 0 {
			s.nextID++
			c.ID = s.nextID
		}
		s.rows[c.ID] = memRow{slug: c.Slug}
		return nil
	}
}

func (s *memStore) savePost(p *models.Post) func(context.Context) error {
	return func(ctx context.Context) error {
		if p.ID == 0 {
			s.nextID++
			p.ID = s.nextID
		}
		s.rows[p.ID] = memRow{slug: p.Slug, scope: map[string]any{"category_id": p.CategoryID}}
		return nil
	}
}

// memLedger mirrors the (entity_type, old_slug) keyed ledger table
type memLedger struct {
	rows      []*models.SlugSwap
	nextID    int64
	lookups   int
	upsertErr error
	findErr   error
	// failFrom and panicFrom make FindByOldSlug fail from the n-th call on, 0 disables
	failFrom  int
	panicFrom int
}

func (l *memLedger) Upsert(ctx context.Context, swap *models.SlugSwap) error {
	if l.upsertErr != nil {
		return l.upsertErr
	}
	for _, r := range l.rows {
		if r.Owner.Type == swap.Owner.Type && r.OldSlug == swap.OldSlug {
			r.NewSlug = swap.NewSlug
			r.Owner.ID = swap.Owner.ID
			return nil
		}
	}
	l.nextID++
	row := *swap
	row.ID = l.nextID
	if row.RedirectClass == "" {
		row.RedirectClass = models.RedirectPermanent
	}
	l.rows = append(l.rows, &row)
	return nil
}

func (l *memLedger) ReleaseSlug(ctx context.Context, owner models.OwnerRef, slug string) (int64, error) {
	var kept []*models.SlugSwap
	var n int64
	for _, r := range l.rows {
		if r.Owner == owner && r.OldSlug == slug {
			n++
			continue
		}
		kept = append(kept, r)
	}
	l.rows = kept
	return n, nil
}

func (l *memLedger) Repoint(ctx context.Context, owner models.OwnerRef, newSlug string) (int64, error) {
	var n int64
	for _, r := range l.rows {
		if r.Owner == owner && r.NewSlug != newSlug {
			r.NewSlug = newSlug
			n++
		}
	}
	return n, nil
}

func (l *memLedger) FindByOldSlug(ctx context.Context, entityType, oldSlug string) (*models.SlugSwap, error) {
	l.lookups++
	if l.panicFrom > 0 && l.lookups >= l.panicFrom {
		panic("ledger exploded")
	}
	if l.findErr != nil || (l.failFrom > 0 && l.lookups >= l.failFrom) {
		return nil, errors.New("ledger unavailable")
	}
	for _, r := range l.rows {
		if r.Owner.Type == entityType && r.OldSlug == oldSlug {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (l *memLedger) add(entityType string, id int64, oldSlug, newSlug string, class models.RedirectClass) {
	l.nextID++
	l.rows = append(l.rows, &models.SlugSwap{
		ID:            l.nextID,
		OldSlug:       oldSlug,
		NewSlug:       newSlug,
		Owner:         models.OwnerRef{Type: entityType, ID: id},
		RedirectClass: class,
	})
}

// patternReverser fills ":param" segments of known patterns
type patternReverser struct {
	patterns map[string]bool
	panics   bool
}

func (r patternReverser) Reverse(name string, params map[string]string) (string, error) {
	if r.panics {
		panic("reverser exploded")
	}
	if !r.patterns[name] {
		return "", errors.New("unknown route " + name)
	}
	segments := strings.Split(name, "/")
	for i, seg := range segments {
		if !strings.HasPrefix(seg, ":") {
			continue
		}
		v, ok := params[seg[1:]]
		if !ok {
			return "", errors.New("missing " + seg)
		}
		segments[i] = v
	}
	return strings.Join(segments, "/"), nil
}

var (
	_ slugs.Store        = (*memStore)(nil)
	_ slugs.Ledger       = (*memLedger)(nil)
	_ slugs.LedgerReader = (*memLedger)(nil)
	_ slugs.Reverser     = patternReverser{}
)
