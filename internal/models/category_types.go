package models

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/gosimple/unidecode"
)

const DefaultCategoryColor = "#3B82F6"

var ErrEmptySlug = errors.New("category name must contain at least one letter or digit")

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Category is an admin-managed post category.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Slugify converts "Hardware Reviews!" -> "hardware-reviews".
// Runs of anything that is not a lowercase letter or digit collapse to one hyphen.
func Slugify(name string) string {
	s := strings.ToLower(unidecode.Unidecode(name))
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Normalize must be called before a category is written. It trims the name
// and derives the slug from it.
func (c *Category) Normalize() error {
	c.Name = strings.TrimSpace(c.Name)
	c.Slug = Slugify(c.Name)
	if c.Slug == "" {
		return ErrEmptySlug
	}
	if c.Color == "" {
		c.Color = DefaultCategoryColor
	}
	return nil
}

// --- Inputs ---

type CategoryInput struct {
	Name        string `json:"name" binding:"required,min=2,max=50,categoryname"`
	Description string `json:"description" binding:"omitempty,max=200"`
	Color       string `json:"color" binding:"omitempty,hexcolor"`
	IsActive    *bool  `json:"isActive"`
}

func (in *CategoryInput) Sanitize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Color = strings.TrimSpace(in.Color)
}

// NewCategory builds an active category from a validated input.
func (in *CategoryInput) NewCategory() *Category {
	c := &Category{
		Name:        in.Name,
		Description: in.Description,
		Color:       in.Color,
		IsActive:    true,
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	return c
}

// Apply copies the input onto c. It reports whether the name changed, in
// which case the caller must Normalize again.
func (in *CategoryInput) Apply(c *Category) (renamed bool) {
	renamed = c.Name != in.Name
	c.Name = in.Name
	c.Description = in.Description
	if in.Color != "" {
		c.Color = in.Color
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	return renamed
}
