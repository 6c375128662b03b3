package models

import (
	"time"
)

// PostType is the owner type identifier used in ledger references and the type mapping
const PostType = "post"

// Post belongs to a category; its slug is unique within that category only
type Post struct {
	ID         int64     `json:"id" db:"id"`
	CategoryID int64     `json:"category_id" db:"category_id"`
	Title      string    `json:"title" db:"title"`
	Slug       string    `json:"slug" db:"slug"`
	Body       string    `json:"body" db:"body"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

func (p *Post) SlugType() string    { return PostType }
func (p *Post) SlugOwnerID() int64  { return p.ID }
func (p *Post) SlugSource() string  { return p.Title }
func (p *Post) AssignSlug(s string) { p.Slug = s }

// SlugScopeValue returns the current value of a sibling field used for partial uniqueness
func (p *Post) SlugScopeValue(field string) (any, bool) {
	switch field {
	case "category_id":
		return p.CategoryID, true
	}
	return nil, false
}

// PostInput is the admin payload for creating or updating a post
type PostInput struct {
	Title      string `json:"title"`
	CategoryID int64  `json:"category_id"`
	Body       string `json:"body"`
}
