package benchmark

import (
	"context"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/rs/zerolog"

	"github.com/slug-swap-api/internal/config"
	"github.com/slug-swap-api/internal/mocks"
	"github.com/slug-swap-api/internal/models"
	"github.com/slug-swap-api/internal/service"
	"github.com/slug-swap-api/internal/slugs"
	"github.com/slug-swap-api/internal/validation"
)

var titles = []string{
	"Hello World!",
	"Über die Brücke gehen",
	"  Mixed -- separators__and   spaces ",
	"日本語のタイトル",
	"Café au lait, s'il vous plaît",
}

// BenchmarkSlugify benchmarks both normalization modes of the default slugifier
func BenchmarkSlugify(b *testing.B) {
	for _, unicode := range []bool{true, false} {
		b.Run("unicode="+strconv.FormatBool(unicode), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				slugs.Slugify(titles[i%len(titles)], unicode)
			}
		})
	}
}

// BenchmarkStrictSlugify benchmarks the go-slug backed normalizer
func BenchmarkStrictSlugify(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		slugs.Strict(titles[i%len(titles)], false)
	}
}

// BenchmarkResolveUnique benchmarks the counter scan over a crowded base slug
func BenchmarkResolveUnique(b *testing.B) {
	ctx := context.Background()
	categories := mocks.NewMockCategoryRepository()
	for i := 0; i < 100; i++ {
		s := "news"
		if i > 0 {
			s += "-" + strconv.Itoa(i)
		}
		categories.Create(ctx, &models.Category{Title: s, Slug: s})
	}
	field := slugs.Field{Unique: true}
	scope := slugs.Scope{EntityType: models.CategoryType, Mode: slugs.ScopeGlobal}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := slugs.ResolveUnique(ctx, categories, "news", scope, field); err != nil {
			b.Fatal(err)
		}
	}

	b.ReportMetric(float64(101*b.N)/b.Elapsed().Seconds(), "probes/sec")
}

// BenchmarkRename benchmarks a full rename through the lifecycle hook and ledger
func BenchmarkRename(b *testing.B) {
	ctx := context.Background()
	repos, _, _, _ := mocks.NewRepositories()
	services, err := service.NewServices(repos, &config.Config{Slug: config.SlugConfig{
		Normalizer:        "default",
		AllowUnicode:      true,
		MaxSuffixAttempts: slugs.DefaultMaxAttempts,
	}}, zerolog.Nop())
	if err != nil {
		b.Fatal(err)
	}
	c, _, err := services.Category.Create(ctx, &models.CategoryInput{Title: "Start"})
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, _, err := services.Category.Update(ctx, c.ID, &models.CategoryInput{Title: "Title " + strconv.Itoa(i%50)}); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkRedirectResolve benchmarks resolving a stale nested route
func BenchmarkRedirectResolve(b *testing.B) {
	ctx := context.Background()
	swaps := mocks.NewMockSlugSwapRepository()
	for i := 0; i < 1000; i++ {
		swaps.Add(&models.SlugSwap{
			OldSlug: "category-" + strconv.Itoa(i),
			NewSlug: "current",
			Owner:   models.OwnerRef{Type: models.CategoryType, ID: int64(i + 1)},
		})
	}
	redirector := slugs.NewRedirector(config.DefaultTypeMapping(), swaps, staticReverser{}, zerolog.Nop())

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		out := redirector.Resolve(ctx, slugs.RouteMiss{
			Name: "/v1/categories/:category_slug/posts/:post_slug",
			Params: map[string]string{
				"category_slug": "category-" + strconv.Itoa(i%1000),
				"post_slug":     "launch",
			},
		})
		if out.Decision != slugs.Redirect {
			b.Fatalf("unexpected decision %s", out.Decision)
		}
	}
}

type staticReverser struct{}

func (staticReverser) Reverse(name string, params map[string]string) (string, error) {
	return "/v1/categories/" + params["category_slug"] + "/posts/" + params["post_slug"], nil
}

// BenchmarkValidation benchmarks payload validation
func BenchmarkValidation(b *testing.B) {
	in := &models.PostInput{Title: "Launch Day", CategoryID: 3}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		validation.ValidatePost(in)
	}
}

// BenchmarkExportNDJSON benchmarks streaming the ledger
func BenchmarkExportNDJSON(b *testing.B) {
	repos, _, _, swaps := mocks.NewRepositories()
	for i := 0; i < 1000; i++ {
		swaps.Add(&models.SlugSwap{
			OldSlug: "old-" + strconv.Itoa(i),
			NewSlug: "new",
			Owner:   models.OwnerRef{Type: models.PostType, ID: int64(i + 1)},
		})
	}
	services, err := service.NewServices(repos, &config.Config{Slug: config.SlugConfig{Normalizer: "default"}}, zerolog.Nop())
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		if err := services.Export.StreamSlugSwaps(context.Background(), w, "ndjson"); err != nil {
			b.Fatal(err)
		}
	}

	b.ReportMetric(float64(1000*b.N)/b.Elapsed().Seconds(), "rows/sec")
}
