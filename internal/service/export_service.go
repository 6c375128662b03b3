package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/slug-swap-api/internal/models"
	"github.com/slug-swap-api/internal/repository"
)

const flushEvery = 100

// exportService is the concrete implementation of ExportService
type exportService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

// newExportService creates a new ExportService
func newExportService(repos *repository.Repositories, log zerolog.Logger) *exportService {
	return &exportService{
		repos: repos,
		log:   log.With().Str("service", "export").Logger(),
	}
}

// StreamSlugSwaps streams the whole ledger in the specified format. Headers and body are
// only written once the first row arrives or the stream completes, so a failure before
// that leaves w untouched.
func (s *exportService) StreamSlugSwaps(ctx context.Context, w http.ResponseWriter, format string) error {
	s.log.Info().Str("format", format).Msg("Starting slug swap export")

	switch format {
	case "ndjson":
		return s.streamNDJSON(ctx, w)
	case "json":
		return s.streamJSON(ctx, w)
	case "csv":
		return s.streamCSV(ctx, w)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// exportStart writes the response preamble once, on the first row or on completion
type exportStart struct {
	started bool
	begin   func()
}

func (e *exportStart) start() {
	if !e.started {
		e.started = true
		e.begin()
	}
}

func attachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
}

func (s *exportService) streamNDJSON(ctx context.Context, w http.ResponseWriter) error {
	flusher, _ := w.(http.Flusher)
	count := 0
	out := &exportStart{begin: func() {
		attachment(w, "application/x-ndjson", "slug_swaps.ndjson")
		w.WriteHeader(http.StatusOK)
	}}

	err := s.repos.SlugSwap.StreamAll(ctx, func(swap *models.SlugSwap) error {
		data, err := json.Marshal(swap)
		if err != nil {
			return err
		}
		out.start()
		w.Write(data)
		w.Write([]byte("\n"))
		count++

		if count%flushEvery == 0 && flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	if err != nil {
		return err
	}

	out.start()
	s.log.Info().Int("count", count).Msg("Slug swap export completed")
	return nil
}

func (s *exportService) streamJSON(ctx context.Context, w http.ResponseWriter) error {
	out := &exportStart{begin: func() {
		attachment(w, "application/json", "slug_swaps.json")
		w.Write([]byte("["))
	}}

	err := s.repos.SlugSwap.StreamAll(ctx, func(swap *models.SlugSwap) error {
		data, err := json.Marshal(swap)
		if err != nil {
			return err
		}
		if out.started {
			w.Write([]byte(","))
		}
		out.start()
		w.Write(data)
		return nil
	})
	if err != nil && !out.started {
		return err
	}

	out.start()
	w.Write([]byte("]"))
	return err
}

func (s *exportService) streamCSV(ctx context.Context, w http.ResponseWriter) error {
	writer := csv.NewWriter(w)
	out := &exportStart{begin: func() {
		attachment(w, "text/csv", "slug_swaps.csv")
		writer.Write([]string{"id", "entity_type", "object_id", "old_slug", "new_slug", "redirect_class", "created_at", "updated_at"})
	}}

	err := s.repos.SlugSwap.StreamAll(ctx, func(swap *models.SlugSwap) error {
		out.start()
		return writer.Write([]string{
			strconv.FormatInt(swap.ID, 10),
			swap.Owner.Type,
			strconv.FormatInt(swap.Owner.ID, 10),
			swap.OldSlug,
			swap.NewSlug,
			string(swap.RedirectClass),
			swap.CreatedAt.UTC().Format(time.RFC3339),
			swap.UpdatedAt.UTC().Format(time.RFC3339),
		})
	})
	if err != nil && !out.started {
		return err
	}

	out.start()
	writer.Flush()
	if err != nil {
		return err
	}
	return writer.Error()
}

// GetCount returns count for a resource
func (s *exportService) GetCount(ctx context.Context, resource string) (int, error) {
	switch resource {
	case "categories":
		return s.repos.Category.Count(ctx)
	case "posts":
		return s.repos.Post.Count(ctx)
	case "slug_swaps":
		return s.repos.SlugSwap.Count(ctx, "")
	default:
		return 0, fmt.Errorf("unknown resource: %s", resource)
	}
}
