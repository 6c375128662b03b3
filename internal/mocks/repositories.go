package mocks

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/slug-swap-api/internal/models"
	"github.com/slug-swap-api/internal/repository"
	"github.com/slug-swap-api/internal/slugs"
)

var (
	_ repository.CategoryRepository = (*MockCategoryRepository)(nil)
	_ repository.PostRepository     = (*MockPostRepository)(nil)
	_ repository.SlugSwapRepository = (*MockSlugSwapRepository)(nil)
)

var errNoRows = sql.ErrNoRows

// NewRepositories returns repositories backed by fresh in-memory mocks. WithTx on the
// result runs without a transaction.
func NewRepositories() (*repository.Repositories, *MockCategoryRepository, *MockPostRepository, *MockSlugSwapRepository) {
	categories := NewMockCategoryRepository()
	posts := NewMockPostRepository()
	swaps := NewMockSlugSwapRepository()
	return &repository.Repositories{Category: categories, Post: posts, SlugSwap: swaps}, categories, posts, swaps
}

// MockCategoryRepository is a mock implementation of CategoryRepository
type MockCategoryRepository struct {
	mu          sync.Mutex
	Categories  map[int64]*models.Category
	nextID      int64
	InsertError error
}

func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{Categories: make(map[int64]*models.Category)}
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertError != nil {
		return m.InsertError
	}
	for _, c := range m.Categories {
		if c.Slug == category.Slug {
			return repository.ErrConflict
		}
	}
	m.nextID++
	now := time.Now().UTC()
	category.ID = m.nextID
	category.CreatedAt, category.UpdatedAt = now, now
	stored := *category
	m.Categories[category.ID] = &stored
	return nil
}

func (m *MockCategoryRepository) Update(ctx context.Context, category *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertError != nil {
		return m.InsertError
	}
	if _, ok := m.Categories[category.ID]; !ok {
		return errNoRows
	}
	category.UpdatedAt = time.Now().UTC()
	stored := *category
	m.Categories[category.ID] = &stored
	return nil
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Categories[id]
	delete(m.Categories, id)
	return ok, nil
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.Categories[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (m *MockCategoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Categories {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockCategoryRepository) TitleExists(ctx context.Context, title string, excludeID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.Categories {
		if id != excludeID && c.Title == title {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockCategoryRepository) SlugExists(ctx context.Context, p slugs.Probe) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.Categories {
		if id != p.ExcludeID && c.Slug == p.Slug {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockCategoryRepository) PersistedSlug(ctx context.Context, id int64) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.Categories[id]; ok {
		return c.Slug, true, nil
	}
	return "", false, nil
}

func (m *MockCategoryRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Categories), nil
}

// MockPostRepository is a mock implementation of PostRepository
type MockPostRepository struct {
	mu          sync.Mutex
	Posts       map[int64]*models.Post
	nextID      int64
	InsertError error
}

func NewMockPostRepository() *MockPostRepository {
	return &MockPostRepository{Posts: make(map[int64]*models.Post)}
}

func (m *MockPostRepository) Create(ctx context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertError != nil {
		return m.InsertError
	}
	for _, p := range m.Posts {
		if p.CategoryID == post.CategoryID && p.Slug == post.Slug {
			return repository.ErrConflict
		}
	}
	m.nextID++
	now := time.Now().UTC()
	post.ID = m.nextID
	post.CreatedAt, post.UpdatedAt = now, now
	stored := *post
	m.Posts[post.ID] = &stored
	return nil
}

func (m *MockPostRepository) Update(ctx context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertError != nil {
		return m.InsertError
	}
	if _, ok := m.Posts[post.ID]; !ok {
		return errNoRows
	}
	post.UpdatedAt = time.Now().UTC()
	stored := *post
	m.Posts[post.ID] = &stored
	return nil
}

func (m *MockPostRepository) Delete(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Posts[id]
	delete(m.Posts, id)
	return ok, nil
}

func (m *MockPostRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.Posts[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (m *MockPostRepository) GetBySlug(ctx context.Context, categoryID int64, slug string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.Posts {
		if p.CategoryID == categoryID && p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockPostRepository) GetIDsByCategory(ctx context.Context, categoryID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0)
	for id, p := range m.Posts {
		if p.CategoryID == categoryID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// SlugExists honours the category_id filter only
func (m *MockPostRepository) SlugExists(ctx context.Context, probe slugs.Probe) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	categoryID, scoped := probe.Filters["category_id"]
	for id, p := range m.Posts {
		if id == probe.ExcludeID || p.Slug != probe.Slug {
			continue
		}
		if scoped && categoryID != p.CategoryID {
			continue
		}
		return true, nil
	}
	return false, nil
}

func (m *MockPostRepository) PersistedSlug(ctx context.Context, id int64) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.Posts[id]; ok {
		return p.Slug, true, nil
	}
	return "", false, nil
}

func (m *MockPostRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Posts), nil
}

// MockSlugSwapRepository is a mock implementation of SlugSwapRepository
type MockSlugSwapRepository struct {
	mu          sync.Mutex
	Swaps       map[int64]*models.SlugSwap
	nextID      int64
	UpsertError error
	FindError   error
	StreamError error
	// Owners reports whether an owner still exists, used by PruneOrphans
	Owners func(owner models.OwnerRef) bool
}

func NewMockSlugSwapRepository() *MockSlugSwapRepository {
	return &MockSlugSwapRepository{Swaps: make(map[int64]*models.SlugSwap)}
}

func (m *MockSlugSwapRepository) Upsert(ctx context.Context, swap *models.SlugSwap) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpsertError != nil {
		return m.UpsertError
	}
	now := time.Now().UTC()
	for _, s := range m.Swaps {
		if s.Owner.Type == swap.Owner.Type && s.OldSlug == swap.OldSlug {
			s.NewSlug = swap.NewSlug
			s.Owner.ID = swap.Owner.ID
			s.UpdatedAt = now
			swap.ID = s.ID
			swap.RedirectClass = s.RedirectClass
			swap.UpdatedAt = now
			return nil
		}
	}
	m.nextID++
	swap.ID = m.nextID
	if swap.RedirectClass == "" {
		swap.RedirectClass = models.RedirectPermanent
	}
	swap.CreatedAt, swap.UpdatedAt = now, now
	stored := *swap
	m.Swaps[swap.ID] = &stored
	return nil
}

func (m *MockSlugSwapRepository) ReleaseSlug(ctx context.Context, owner models.OwnerRef, slug string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.Swaps {
		if s.Owner == owner && s.OldSlug == slug {
			delete(m.Swaps, id)
			n++
		}
	}
	return n, nil
}

func (m *MockSlugSwapRepository) Repoint(ctx context.Context, owner models.OwnerRef, newSlug string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.Swaps {
		if s.Owner == owner && s.NewSlug != newSlug {
			s.NewSlug = newSlug
			n++
		}
	}
	return n, nil
}

func (m *MockSlugSwapRepository) FindByOldSlug(ctx context.Context, entityType, oldSlug string) (*models.SlugSwap, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindError != nil {
		return nil, m.FindError
	}
	for _, s := range m.Swaps {
		if s.Owner.Type == entityType && s.OldSlug == oldSlug {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockSlugSwapRepository) GetByID(ctx context.Context, id int64) (*models.SlugSwap, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.Swaps[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

// sorted returns copies of the rows matching keep, ordered by id
func (m *MockSlugSwapRepository) sorted(keep func(*models.SlugSwap) bool) []*models.SlugSwap {
	out := make([]*models.SlugSwap, 0)
	for _, s := range m.Swaps {
		if keep(s) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *MockSlugSwapRepository) List(ctx context.Context, filter models.SlugSwapFilter) ([]*models.SlugSwap, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.sorted(func(s *models.SlugSwap) bool {
		return filter.EntityType == "" || s.Owner.Type == filter.EntityType
	})
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	if filter.Offset >= len(all) {
		return []*models.SlugSwap{}, nil
	}
	end := filter.Offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[filter.Offset:end], nil
}

func (m *MockSlugSwapRepository) ListByOwner(ctx context.Context, owner models.OwnerRef) ([]*models.SlugSwap, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(s *models.SlugSwap) bool { return s.Owner == owner }), nil
}

func (m *MockSlugSwapRepository) SetRedirectClass(ctx context.Context, id int64, class models.RedirectClass) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.Swaps[id]
	if !ok {
		return false, nil
	}
	s.RedirectClass = class
	return true, nil
}

func (m *MockSlugSwapRepository) Delete(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Swaps[id]
	delete(m.Swaps, id)
	return ok, nil
}

func (m *MockSlugSwapRepository) DeleteByOwner(ctx context.Context, owner models.OwnerRef) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.Swaps {
		if s.Owner == owner {
			delete(m.Swaps, id)
			n++
		}
	}
	return n, nil
}

func (m *MockSlugSwapRepository) PruneOrphans(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Owners == nil {
		return 0, nil
	}
	var n int64
	for id, s := range m.Swaps {
		if !m.Owners(s.Owner) {
			delete(m.Swaps, id)
			n++
		}
	}
	return n, nil
}

func (m *MockSlugSwapRepository) Count(ctx context.Context, entityType string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.Swaps {
		if entityType == "" || s.Owner.Type == entityType {
			n++
		}
	}
	return n, nil
}

func (m *MockSlugSwapRepository) StreamAll(ctx context.Context, callback func(*models.SlugSwap) error) error {
	if m.StreamError != nil {
		return m.StreamError
	}
	m.mu.Lock()
	all := m.sorted(func(*models.SlugSwap) bool { return true })
	m.mu.Unlock()
	for _, s := range all {
		if err := callback(s); err != nil {
			return err
		}
	}
	return nil
}

// Add inserts a row as is, assigning an id when it has none
func (m *MockSlugSwapRepository) Add(swap *models.SlugSwap) *models.SlugSwap {
	m.mu.Lock()
	defer m.mu.Unlock()
	if swap.ID == 0 {
		m.nextID++
		swap.ID = m.nextID
	} else if swap.ID > m.nextID {
		m.nextID = swap.ID
	}
	if swap.RedirectClass == "" {
		swap.RedirectClass = models.RedirectPermanent
	}
	stored := *swap
	m.Swaps[swap.ID] = &stored
	return swap
}
