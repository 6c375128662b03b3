package models

import (
	"time"
)

// CategoryType is the owner type identifier used in ledger references and the type mapping
const CategoryType = "category"

// Category is a top-level content section addressed by a globally unique slug
type Category struct {
	ID        int64     `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Slug      string    `json:"slug" db:"slug"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (c *Category) SlugType() string    { return CategoryType }
func (c *Category) SlugOwnerID() int64  { return c.ID }
func (c *Category) SlugSource() string  { return c.Title }
func (c *Category) AssignSlug(s string) { c.Slug = s }

// SlugScopeValue exposes no sibling fields; category slugs are unique across the table
func (c *Category) SlugScopeValue(field string) (any, bool) {
	return nil, false
}

// CategoryInput is the admin payload for creating or renaming a category
type CategoryInput struct {
	Title string `json:"title"`
}
