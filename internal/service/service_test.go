package service_test

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slug-swap-api/internal/config"
	"github.com/slug-swap-api/internal/mocks"
	"github.com/slug-swap-api/internal/models"
	"github.com/slug-swap-api/internal/repository"
	"github.com/slug-swap-api/internal/service"
	"github.com/slug-swap-api/internal/slugs"
)

func testConfig() *config.Config {
	return &config.Config{
		Slug: config.SlugConfig{
			Normalizer:        "default",
			AllowUnicode:      true,
			MaxLength:         255,
			MaxSuffixAttempts: slugs.DefaultMaxAttempts,
		},
	}
}

type testHarness struct {
	services   *service.Services
	categories *mocks.MockCategoryRepository
	posts      *mocks.MockPostRepository
	swaps      *mocks.MockSlugSwapRepository
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	repos, categories, posts, swaps := mocks.NewRepositories()
	services, err := service.NewServices(repos, testConfig(), zerolog.Nop())
	require.NoError(t, err)
	return &testHarness{services: services, categories: categories, posts: posts, swaps: swaps}
}

func (h *testHarness) category(t *testing.T, title string) *models.Category {
	t.Helper()
	c, _, err := h.services.Category.Create(context.Background(), &models.CategoryInput{Title: title})
	require.NoError(t, err)
	return c
}

func (h *testHarness) post(t *testing.T, categoryID int64, title string) *models.Post {
	t.Helper()
	p, _, err := h.services.Post.Create(context.Background(), &models.PostInput{Title: title, CategoryID: categoryID})
	require.NoError(t, err)
	return p
}

func TestNewServices_InvalidSlugConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Slug.MaxLength = -1
	_, err := service.NewServices(&repository.Repositories{}, cfg, zerolog.Nop())
	assert.ErrorIs(t, err, slugs.ErrInvalidField)
}

func TestSlugFields(t *testing.T) {
	category, post := service.SlugFields(config.SlugConfig{Normalizer: "strict", MaxLength: 50, MaxSuffixAttempts: 3})

	assert.Equal(t, slugs.ScopeGlobal, category.Mode())
	assert.Equal(t, slugs.ScopePartial, post.Mode())
	assert.Equal(t, []string{"category_id"}, post.UniqueWith)
	assert.Equal(t, 50, category.MaxLength)
	assert.Equal(t, 3, post.MaxAttempts)
}

func TestCategoryService_Create(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	c, change, err := h.services.Category.Create(ctx, &models.CategoryInput{Title: "  Old Name "})
	require.NoError(t, err)
	assert.Equal(t, "Old Name", c.Title)
	assert.Equal(t, "old-name", c.Slug)
	assert.False(t, change.Changed)
	assert.Empty(t, h.swaps.Swaps)

	// Same slug, different title
	c2, _, err := h.services.Category.Create(ctx, &models.CategoryInput{Title: "Old Name!"})
	require.NoError(t, err)
	assert.Equal(t, "old-name-1", c2.Slug)

	got, err := h.services.Category.GetBySlug(ctx, "old-name-1")
	require.NoError(t, err)
	assert.Equal(t, c2.ID, got.ID)
}

func TestCategoryService_CreateErrors(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	h.category(t, "Taken")

	tests := []struct {
		name    string
		title   string
		wantErr error
	}{
		{"blank title", "   ", service.ErrInvalidInput},
		{"too long", strings.Repeat("a", 256), service.ErrInvalidInput},
		{"duplicate title", "Taken", service.ErrDuplicateTitle},
		{"nothing to slugify", "!!!", slugs.ErrUnslugifiable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := h.services.Category.Create(ctx, &models.CategoryInput{Title: tt.title})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	var inputErr *service.InputError
	_, _, err := h.services.Category.Create(ctx, &models.CategoryInput{})
	require.True(t, errors.As(err, &inputErr))
	require.Len(t, inputErr.Errors, 1)
	assert.Equal(t, "title", inputErr.Errors[0].Field)
}

func TestCategoryService_RenameRecordsSwap(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	c := h.category(t, "Old Name")

	renamed, change, err := h.services.Category.Update(ctx, c.ID, &models.CategoryInput{Title: "New Name"})
	require.NoError(t, err)
	assert.Equal(t, "new-name", renamed.Slug)
	assert.Equal(t, slugs.Change{Previous: "old-name", Current: "new-name", Changed: true}, change)

	swap, err := h.services.SlugSwap.FindByOldSlug(ctx, models.CategoryType, "old-name")
	require.NoError(t, err)
	require.NotNil(t, swap)
	assert.Equal(t, "new-name", swap.NewSlug)
	assert.Equal(t, models.OwnerRef{Type: models.CategoryType, ID: c.ID}, swap.Owner)
	assert.Equal(t, models.RedirectPermanent, swap.RedirectClass)

	// Saving the same title again changes nothing
	_, change, err = h.services.Category.Update(ctx, c.ID, &models.CategoryInput{Title: "New Name"})
	require.NoError(t, err)
	assert.False(t, change.Changed)
	assert.Len(t, h.swaps.Swaps, 1)

	// Renaming to its own title is not a duplicate
	_, _, err = h.services.Category.Update(ctx, c.ID, &models.CategoryInput{Title: "New Name"})
	assert.NoError(t, err)
}

func TestCategoryService_RenameBackAndForth(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	c := h.category(t, "A")

	for _, title := range []string{"B", "A"} {
		_, _, err := h.services.Category.Update(ctx, c.ID, &models.CategoryInput{Title: title})
		require.NoError(t, err)
	}

	swaps, total, err := h.services.SlugSwap.List(ctx, models.SlugSwapFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, swaps, 1)
	assert.Equal(t, "b", swaps[0].OldSlug)
	assert.Equal(t, "a", swaps[0].NewSlug)

	// A third hop keeps every redirect single hop
	_, _, err = h.services.Category.Update(ctx, c.ID, &models.CategoryInput{Title: "C"})
	require.NoError(t, err)

	history, err := h.services.SlugSwap.History(ctx, models.OwnerRef{Type: models.CategoryType, ID: c.ID})
	require.NoError(t, err)
	require.Len(t, history.Swaps, 2)
	for _, s := range history.Swaps {
		assert.Equal(t, "c", s.NewSlug)
	}
}

func TestCategoryService_UpdateMissing(t *testing.T) {
	h := newTestHarness(t)
	_, _, err := h.services.Category.Update(context.Background(), 42, &models.CategoryInput{Title: "Anything"})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestCategoryService_LedgerFailure(t *testing.T) {
	h := newTestHarness(t)
	c := h.category(t, "Old Name")
	h.swaps.UpsertError = errors.New("ledger down")

	_, _, err := h.services.Category.Update(context.Background(), c.ID, &models.CategoryInput{Title: "New Name"})
	assert.ErrorContains(t, err, "ledger down")
}

func TestCategoryService_Delete(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	c := h.category(t, "Old Name")
	p := h.post(t, c.ID, "First Post")
	other := h.category(t, "Other")

	_, _, err := h.services.Category.Update(ctx, c.ID, &models.CategoryInput{Title: "New Name"})
	require.NoError(t, err)
	_, _, err = h.services.Post.Update(ctx, p.ID, &models.PostInput{Title: "Renamed Post", CategoryID: c.ID})
	require.NoError(t, err)
	_, _, err = h.services.Category.Update(ctx, other.ID, &models.CategoryInput{Title: "Other Renamed"})
	require.NoError(t, err)
	require.Len(t, h.swaps.Swaps, 3)

	require.NoError(t, h.services.Category.Delete(ctx, c.ID))

	_, err = h.services.Category.GetByID(ctx, c.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
	require.Len(t, h.swaps.Swaps, 1)
	for _, s := range h.swaps.Swaps {
		assert.Equal(t, other.ID, s.Owner.ID)
	}

	assert.ErrorIs(t, h.services.Category.Delete(ctx, c.ID), service.ErrNotFound)
}

func TestPostService_ScopedSlugs(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	news := h.category(t, "News")
	sport := h.category(t, "Sport")

	p1 := h.post(t, news.ID, "Launch Day")
	p2 := h.post(t, sport.ID, "Launch Day")
	p3 := h.post(t, news.ID, "Launch Day")

	assert.Equal(t, "launch-day", p1.Slug)
	assert.Equal(t, "launch-day", p2.Slug)
	assert.Equal(t, "launch-day-1", p3.Slug)

	got, err := h.services.Post.GetBySlugs(ctx, "sport", "launch-day")
	require.NoError(t, err)
	assert.Equal(t, p2.ID, got.ID)

	_, err = h.services.Post.GetBySlugs(ctx, "weather", "launch-day")
	assert.ErrorIs(t, err, service.ErrNotFound)
	_, err = h.services.Post.GetBySlugs(ctx, "news", "nope")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestPostService_UnknownCategory(t *testing.T) {
	h := newTestHarness(t)

	_, _, err := h.services.Post.Create(context.Background(), &models.PostInput{Title: "Orphan", CategoryID: 99})
	var inputErr *service.InputError
	require.True(t, errors.As(err, &inputErr))
	assert.Equal(t, "category_id", inputErr.Errors[0].Field)

	_, _, err = h.services.Post.Create(context.Background(), &models.PostInput{Title: "Orphan"})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestPostService_MoveCategory(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	news := h.category(t, "News")
	sport := h.category(t, "Sport")
	h.post(t, sport.ID, "Launch Day")
	p := h.post(t, news.ID, "Launch Day")

	moved, change, err := h.services.Post.Update(ctx, p.ID, &models.PostInput{Title: "Launch Day", CategoryID: sport.ID})
	require.NoError(t, err)
	assert.Equal(t, sport.ID, moved.CategoryID)
	assert.Equal(t, "launch-day-1", moved.Slug)
	assert.True(t, change.Changed)

	swap, err := h.services.SlugSwap.FindByOldSlug(ctx, models.PostType, "launch-day")
	require.NoError(t, err)
	require.NotNil(t, swap)
	assert.Equal(t, "launch-day-1", swap.NewSlug)
}

func TestPostService_Delete(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	c := h.category(t, "News")
	p := h.post(t, c.ID, "Old Title")

	_, _, err := h.services.Post.Update(ctx, p.ID, &models.PostInput{Title: "New Title", CategoryID: c.ID})
	require.NoError(t, err)
	require.Len(t, h.swaps.Swaps, 1)

	require.NoError(t, h.services.Post.Delete(ctx, p.ID))
	assert.Empty(t, h.swaps.Swaps)
	assert.ErrorIs(t, h.services.Post.Delete(ctx, p.ID), service.ErrNotFound)

	_, err = h.services.Post.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestSlugSwapService_History(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	c := h.category(t, "Old Name")
	_, _, err := h.services.Category.Update(ctx, c.ID, &models.CategoryInput{Title: "New Name"})
	require.NoError(t, err)

	history, err := h.services.SlugSwap.History(ctx, models.OwnerRef{Type: models.CategoryType, ID: c.ID})
	require.NoError(t, err)
	require.Len(t, history.Swaps, 1)
	owner, ok := history.ContentObject.(*models.Category)
	require.True(t, ok)
	assert.Equal(t, "new-name", owner.Slug)

	// Rows outlive a missing owner
	h.swaps.Add(&models.SlugSwap{OldSlug: "gone", NewSlug: "still-gone", Owner: models.OwnerRef{Type: models.PostType, ID: 77}})
	history, err = h.services.SlugSwap.History(ctx, models.OwnerRef{Type: models.PostType, ID: 77})
	require.NoError(t, err)
	assert.Nil(t, history.ContentObject)
	assert.Len(t, history.Swaps, 1)

	_, err = h.services.SlugSwap.History(ctx, models.OwnerRef{Type: models.PostType, ID: 78})
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = h.services.SlugSwap.ContentObject(ctx, models.OwnerRef{Type: "product", ID: 1})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestSlugSwapService_SetRedirectClass(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	swap := h.swaps.Add(&models.SlugSwap{OldSlug: "a", NewSlug: "b", Owner: models.OwnerRef{Type: models.CategoryType, ID: 1}})

	updated, err := h.services.SlugSwap.SetRedirectClass(ctx, swap.ID, &models.RedirectClassInput{RedirectClass: models.RedirectTemporary})
	require.NoError(t, err)
	assert.Equal(t, models.RedirectTemporary, updated.RedirectClass)

	_, err = h.services.SlugSwap.SetRedirectClass(ctx, swap.ID, &models.RedirectClassInput{RedirectClass: "sometimes"})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = h.services.SlugSwap.SetRedirectClass(ctx, 999, &models.RedirectClassInput{RedirectClass: models.RedirectPermanent})
	assert.ErrorIs(t, err, service.ErrNotFound)

	// Later renames keep the chosen class
	c := h.category(t, "Old Name")
	_, _, err = h.services.Category.Update(ctx, c.ID, &models.CategoryInput{Title: "Mid Name"})
	require.NoError(t, err)
	row, err := h.services.SlugSwap.FindByOldSlug(ctx, models.CategoryType, "old-name")
	require.NoError(t, err)
	_, err = h.services.SlugSwap.SetRedirectClass(ctx, row.ID, &models.RedirectClassInput{RedirectClass: models.RedirectTemporary})
	require.NoError(t, err)
	_, _, err = h.services.Category.Update(ctx, c.ID, &models.CategoryInput{Title: "New Name"})
	require.NoError(t, err)

	row, err = h.services.SlugSwap.FindByOldSlug(ctx, models.CategoryType, "old-name")
	require.NoError(t, err)
	assert.Equal(t, "new-name", row.NewSlug)
	assert.Equal(t, models.RedirectTemporary, row.RedirectClass)
}

func TestSlugSwapService_ListAndDelete(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	for i, typ := range []string{models.CategoryType, models.PostType, models.PostType} {
		h.swaps.Add(&models.SlugSwap{OldSlug: strings.Repeat("x", i+1), NewSlug: "y", Owner: models.OwnerRef{Type: typ, ID: 1}})
	}

	swaps, total, err := h.services.SlugSwap.List(ctx, models.SlugSwapFilter{EntityType: models.PostType, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, swaps, 1)
	assert.Equal(t, "xx", swaps[0].OldSlug)

	require.NoError(t, h.services.SlugSwap.Delete(ctx, swaps[0].ID))
	assert.ErrorIs(t, h.services.SlugSwap.Delete(ctx, swaps[0].ID), service.ErrNotFound)

	found, err := h.services.SlugSwap.FindByOldSlug(ctx, models.PostType, "xx")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestExportService_StreamSlugSwaps(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	for i := 0; i < 150; i++ {
		h.swaps.Add(&models.SlugSwap{
			OldSlug:   "old-" + strings.Repeat("o", i%5) + string(rune('a'+i%26)),
			NewSlug:   "new",
			Owner:     models.OwnerRef{Type: models.CategoryType, ID: int64(i + 1)},
			CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
			UpdatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		})
	}

	t.Run("ndjson", func(t *testing.T) {
		rec := httptest.NewRecorder()
		require.NoError(t, h.services.Export.StreamSlugSwaps(ctx, rec, "ndjson"))
		assert.Equal(t, "application/x-ndjson", rec.Header().Get("Content-Type"))
		assert.True(t, rec.Flushed)

		lines := 0
		sc := bufio.NewScanner(rec.Body)
		for sc.Scan() {
			lines++
		}
		assert.Equal(t, 150, lines)
	})

	t.Run("json", func(t *testing.T) {
		rec := httptest.NewRecorder()
		require.NoError(t, h.services.Export.StreamSlugSwaps(ctx, rec, "json"))
		body := rec.Body.String()
		assert.True(t, strings.HasPrefix(body, "[{"))
		assert.True(t, strings.HasSuffix(body, "}]"))
	})

	t.Run("csv", func(t *testing.T) {
		rec := httptest.NewRecorder()
		require.NoError(t, h.services.Export.StreamSlugSwaps(ctx, rec, "csv"))
		records, err := csv.NewReader(rec.Body).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 151)
		assert.Equal(t, "entity_type", records[0][1])
		assert.Equal(t, "category", records[1][1])
		assert.Equal(t, "2024-01-02T03:04:05Z", records[1][6])
	})

	t.Run("unsupported", func(t *testing.T) {
		err := h.services.Export.StreamSlugSwaps(ctx, httptest.NewRecorder(), "xml")
		assert.ErrorIs(t, err, service.ErrUnsupportedFormat)
	})
}

func TestExportService_EmptyLedger(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	rec := httptest.NewRecorder()
	require.NoError(t, h.services.Export.StreamSlugSwaps(ctx, rec, "json"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "[]", rec.Body.String())

	rec = httptest.NewRecorder()
	require.NoError(t, h.services.Export.StreamSlugSwaps(ctx, rec, "csv"))
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, "id,entity_type,object_id,old_slug,new_slug,redirect_class,created_at,updated_at\n", rec.Body.String())

	rec = httptest.NewRecorder()
	require.NoError(t, h.services.Export.StreamSlugSwaps(ctx, rec, "ndjson"))
	assert.Equal(t, "application/x-ndjson", rec.Header().Get("Content-Type"))
	assert.Empty(t, rec.Body.String())
}

func TestExportService_FailureBeforeFirstRow(t *testing.T) {
	h := newTestHarness(t)
	h.swaps.StreamError = errors.New("connection reset")

	for _, format := range []string{"ndjson", "json", "csv"} {
		t.Run(format, func(t *testing.T) {
			rec := httptest.NewRecorder()
			err := h.services.Export.StreamSlugSwaps(context.Background(), rec, format)
			require.Error(t, err)
			assert.False(t, rec.Flushed)
			assert.Empty(t, rec.Header().Get("Content-Type"))
			assert.Empty(t, rec.Header().Get("Content-Disposition"))
			assert.Zero(t, rec.Body.Len())
		})
	}
}

func TestExportService_GetCount(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	c := h.category(t, "News")
	h.post(t, c.ID, "One")
	h.post(t, c.ID, "Two")

	tests := []struct {
		resource string
		want     int
	}{
		{"categories", 1},
		{"posts", 2},
		{"slug_swaps", 0},
	}
	for _, tt := range tests {
		t.Run(tt.resource, func(t *testing.T) {
			count, err := h.services.Export.GetCount(ctx, tt.resource)
			require.NoError(t, err)
			assert.Equal(t, tt.want, count)
		})
	}

	_, err := h.services.Export.GetCount(ctx, "users")
	assert.Error(t, err)
}

func TestReconcileService_RunOnce(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	c := h.category(t, "News")
	h.swaps.Add(&models.SlugSwap{OldSlug: "a", NewSlug: "news", Owner: models.OwnerRef{Type: models.CategoryType, ID: c.ID}})
	h.swaps.Add(&models.SlugSwap{OldSlug: "b", NewSlug: "gone", Owner: models.OwnerRef{Type: models.CategoryType, ID: 500}})
	h.swaps.Owners = func(owner models.OwnerRef) bool {
		_, ok := h.categories.Categories[owner.ID]
		return ok
	}

	pruned, err := h.services.Reconcile.RunOnce(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, pruned)
	assert.Len(t, h.swaps.Swaps, 1)
}

func TestReconcileService_Processor(t *testing.T) {
	repos, _, _, swaps := mocks.NewRepositories()
	cfg := testConfig()
	cfg.Slug.ReconcileInterval = 10 * time.Millisecond
	services, err := service.NewServices(repos, cfg, zerolog.Nop())
	require.NoError(t, err)

	swaps.Add(&models.SlugSwap{OldSlug: "a", NewSlug: "b", Owner: models.OwnerRef{Type: models.PostType, ID: 1}})
	swaps.Owners = func(models.OwnerRef) bool { return false }

	done := make(chan struct{})
	go func() {
		services.Reconcile.StartProcessor(context.Background())
		close(done)
	}()

	assert.Eventually(t, func() bool {
		n, _ := swaps.Count(context.Background(), "")
		return n == 0
	}, time.Second, 5*time.Millisecond)

	services.Reconcile.StopProcessor()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop")
	}
}

func TestReconcileService_StopBeforeStart(t *testing.T) {
	repos, _, _, _ := mocks.NewRepositories()
	cfg := testConfig()
	cfg.Slug.ReconcileInterval = 10 * time.Millisecond
	services, err := service.NewServices(repos, cfg, zerolog.Nop())
	require.NoError(t, err)

	services.Reconcile.StopProcessor()

	done := make(chan struct{})
	go func() {
		services.Reconcile.StartProcessor(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reconciler started after StopProcessor")
	}
}

func TestReconcileService_Disabled(t *testing.T) {
	h := newTestHarness(t)

	done := make(chan struct{})
	go func() {
		h.services.Reconcile.StartProcessor(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled reconciler should return immediately")
	}
	h.services.Reconcile.StopProcessor()
}
