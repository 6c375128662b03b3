package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/slug-swap-api/internal/validation"
)

var (
	errUnknownRoute = errors.New("unknown route")
	errMissingParam = errors.New("missing route parameter")
	errInvalidParam = errors.New("route parameter is not a slug")
)

// routeReverser rebuilds paths from the engine's registered GET route patterns.
// The pattern table is read on first use, once every route is registered.
type routeReverser struct {
	engine   *gin.Engine
	once     sync.Once
	patterns map[string]bool
}

func newRouteReverser(engine *gin.Engine) *routeReverser {
	return &routeReverser{engine: engine}
}

// Reverse fills every ":name" and "*name" segment of the pattern from params
func (r *routeReverser) Reverse(name string, params map[string]string) (string, error) {
	r.once.Do(func() {
		r.patterns = make(map[string]bool)
		for _, route := range r.engine.Routes() {
			if route.Method == http.MethodGet {
				r.patterns[route.Path] = true
			}
		}
	})

	if !r.patterns[name] {
		return "", fmt.Errorf("%w: %q", errUnknownRoute, name)
	}

	segments := strings.Split(name, "/")
	for i, seg := range segments {
		if seg == "" || (seg[0] != ':' && seg[0] != '*') {
			continue
		}
		key := seg[1:]
		value, ok := params[key]
		if !ok || value == "" {
			return "", fmt.Errorf("%w: %s", errMissingParam, key)
		}
		if !validation.IsSlug(value) {
			return "", fmt.Errorf("%w: %s=%q", errInvalidParam, key, value)
		}
		segments[i] = url.PathEscape(value)
	}
	return strings.Join(segments, "/"), nil
}
