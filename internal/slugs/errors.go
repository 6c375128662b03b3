package slugs

import "errors"

var (
	// ErrUnslugifiable is returned when the source text yields an empty slug
	ErrUnslugifiable = errors.New("no slug could be derived from the source")

	// ErrSuffixExhausted is returned when every suffix up to the field's attempt limit collides
	ErrSuffixExhausted = errors.New("slug suffix attempts exhausted")

	// ErrInvalidField is returned for field definitions that cannot be enforced
	ErrInvalidField = errors.New("invalid slug field")
)
