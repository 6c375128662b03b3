package slugs

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/goliatone/go-slug"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugifier turns arbitrary text into a URL-safe token. It must be pure and must
// return "" when nothing usable remains.
type Slugifier func(source string, allowUnicode bool) string

var (
	unsafeChars = regexp.MustCompile(`[^\p{L}\p{N}\p{M}_\s-]`)
	dashRuns    = regexp.MustCompile(`[-\s]+`)
)

// Slugify is the default Slugifier. Runs of whitespace and hyphens become one hyphen,
// other punctuation is dropped, and leading or trailing hyphens and underscores are
// trimmed. Without allowUnicode, accents are folded and remaining non-ASCII is removed.
func Slugify(source string, allowUnicode bool) string {
	var s string
	if allowUnicode {
		s = norm.NFKC.String(source)
	} else {
		s = toASCII(source)
	}

	s = strings.ToLower(s)
	s = unsafeChars.ReplaceAllString(s, "")
	s = dashRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-_")
}

func toASCII(s string) string {
	t := transform.Chain(
		norm.NFKD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		return ""
	}
	return out
}

// Strict normalizes with go-slug's default rules. allowUnicode is ignored.
func Strict(source string, _ bool) string {
	out, err := slug.Normalize(source)
	if err != nil {
		return ""
	}
	return out
}

// ByName returns the slugifier configured by SLUG_NORMALIZER
func ByName(name string) Slugifier {
	if name == "strict" {
		return Strict
	}
	return Slugify
}
