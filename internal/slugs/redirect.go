package slugs

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/slug-swap-api/internal/config"
	"github.com/slug-swap-api/internal/models"
)

// Decision is what the routing layer should do after a route miss
type Decision int

const (
	// PassThrough keeps the original not-found response
	PassThrough Decision = iota
	// Redirect sends the client to Outcome.URL
	Redirect
	// NotFound means stale slugs were found but no route could be rebuilt for them
	NotFound
)

func (d Decision) String() string {
	switch d {
	case Redirect:
		return "redirect"
	case NotFound:
		return "not_found"
	default:
		return "pass_through"
	}
}

// RouteMiss is a request that matched a route pattern but found no entity
type RouteMiss struct {
	Name   string
	Params map[string]string
}

// Outcome is the resolver's verdict for a RouteMiss
type Outcome struct {
	Decision    Decision
	URL         string
	Class       models.RedirectClass
	Substituted map[string]string // route param -> current slug
}

// Reverser rebuilds a URL from a route name and its parameters
type Reverser interface {
	Reverse(name string, params map[string]string) (string, error)
}

// ScopeChecker reports whether an owner is reachable at the given route params. It
// guards owner types whose slugs are unique only within a parent, where one ledger row
// may be shared by owners under different parents.
type ScopeChecker interface {
	InScope(ctx context.Context, owner models.OwnerRef, params map[string]string) (bool, error)
}

// Redirector maps stale slugs in a missed route to their current values
type Redirector struct {
	mapping  *config.TypeMapping
	ledger   LedgerReader
	reverser Reverser
	scope    ScopeChecker
	log      zerolog.Logger
}

// NewRedirector creates a resolver over an immutable type mapping
func NewRedirector(mapping *config.TypeMapping, ledger LedgerReader, reverser Reverser, log zerolog.Logger) *Redirector {
	return &Redirector{
		mapping:  mapping,
		ledger:   ledger,
		reverser: reverser,
		log:      log.With().Str("component", "redirector").Logger(),
	}
}

// WithScope sets the checker consulted before redirecting to substituted slugs
func (r *Redirector) WithScope(scope ScopeChecker) *Redirector {
	r.scope = scope
	return r
}

// Resolve never returns an error. Store failures count as "no ledger row", a route that
// cannot be rebuilt is NotFound, and a failure while picking the redirect class
// degrades to a temporary redirect.
func (r *Redirector) Resolve(ctx context.Context, miss RouteMiss) (out Outcome) {
	out = Outcome{Decision: PassThrough}

	defer func() {
		if p := recover(); p != nil {
			r.log.Error().Interface("panic", p).Str("route", miss.Name).Msg("Redirect resolution panicked")
			if out.URL != "" {
				out.Decision = Redirect
				out.Class = models.RedirectTemporary
				return
			}
			out = Outcome{Decision: PassThrough}
		}
	}()

	params := make(map[string]string, len(miss.Params))
	for k, v := range miss.Params {
		params[k] = v
	}

	substituted := make(map[string]string)
	var owners []models.OwnerRef
	var firstType, firstOld string

	for _, b := range r.mapping.Bindings() {
		old := miss.Params[b.Param]
		if old == "" {
			continue
		}
		swap := r.find(ctx, b.EntityType, old)
		if swap == nil || swap.NewSlug == "" || swap.NewSlug == old {
			continue
		}
		params[b.Param] = swap.NewSlug
		substituted[b.Param] = swap.NewSlug
		owners = append(owners, swap.Owner)
		if firstOld == "" {
			firstType, firstOld = b.EntityType, old
		}
	}

	if len(substituted) == 0 {
		return out
	}

	for _, owner := range owners {
		if !r.inScope(ctx, owner, params) {
			r.log.Debug().Str("route", miss.Name).Str("entity_type", owner.Type).Int64("object_id", owner.ID).Msg("Swapped owner not reachable at substituted route")
			return Outcome{Decision: NotFound, Substituted: substituted}
		}
	}

	url, err := r.reverser.Reverse(miss.Name, params)
	if err != nil {
		r.log.Warn().Err(err).Str("route", miss.Name).Interface("params", params).Msg("No route for substituted slugs")
		return Outcome{Decision: NotFound, Substituted: substituted}
	}

	out = Outcome{
		Decision:    Redirect,
		URL:         url,
		Class:       models.RedirectTemporary,
		Substituted: substituted,
	}
	out.Class = r.classFor(ctx, firstType, firstOld)
	return out
}

func (r *Redirector) find(ctx context.Context, entityType, oldSlug string) *models.SlugSwap {
	swap, err := r.ledger.FindByOldSlug(ctx, entityType, oldSlug)
	if err != nil {
		r.log.Error().Err(err).Str("entity_type", entityType).Str("old_slug", oldSlug).Msg("Slug swap lookup failed")
		return nil
	}
	return swap
}

// inScope treats a failed check as out of scope
func (r *Redirector) inScope(ctx context.Context, owner models.OwnerRef, params map[string]string) bool {
	if r.scope == nil {
		return true
	}
	ok, err := r.scope.InScope(ctx, owner, params)
	if err != nil {
		r.log.Error().Err(err).Str("entity_type", owner.Type).Int64("object_id", owner.ID).Msg("Scope check failed")
		return false
	}
	return ok
}

func (r *Redirector) classFor(ctx context.Context, entityType, oldSlug string) models.RedirectClass {
	swap := r.find(ctx, entityType, oldSlug)
	if swap != nil && swap.RedirectClass == models.RedirectPermanent {
		return models.RedirectPermanent
	}
	return models.RedirectTemporary
}
