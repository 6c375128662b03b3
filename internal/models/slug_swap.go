package models

import (
	"time"
)

// RedirectClass selects the HTTP redirect issued for a stale slug
type RedirectClass string

const (
	RedirectPermanent RedirectClass = "permanent"
	RedirectTemporary RedirectClass = "temporary"
)

// ValidRedirectClasses defines allowed redirect classes
var ValidRedirectClasses = map[RedirectClass]bool{
	RedirectPermanent: true,
	RedirectTemporary: true,
}

// OwnerRef is a polymorphic reference to the entity that owned a slug
type OwnerRef struct {
	Type string `json:"type" db:"entity_type"`
	ID   int64  `json:"id" db:"object_id"`
}

// SlugSwap records that OldSlug of an owner now lives at NewSlug
type SlugSwap struct {
	ID            int64         `json:"id" db:"id"`
	OldSlug       string        `json:"old_slug" db:"old_slug"`
	NewSlug       string        `json:"new_slug" db:"new_slug"`
	Owner         OwnerRef      `json:"owner"`
	RedirectClass RedirectClass `json:"redirect_class" db:"redirect_class"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// SlugSwapFilter narrows ledger listings
type SlugSwapFilter struct {
	EntityType string
	Limit      int
	Offset     int
}

// SlugHistory is the ledger view of a single owner, with the owner resolved
type SlugHistory struct {
	Owner         OwnerRef    `json:"owner"`
	ContentObject interface{} `json:"content_object,omitempty"`
	Swaps         []*SlugSwap `json:"swaps"`
}

// RedirectClassInput is the admin payload for changing a row's redirect class
type RedirectClassInput struct {
	RedirectClass RedirectClass `json:"redirect_class"`
}

// ValidationError represents a single invalid field in a request payload
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}
