// Package store defines the persistence interfaces used by the HTTP layer.
// Implementations live in the memstore, mongostore and mysqlstore packages.
package store

import (
	"context"
	"errors"

	"github.com/01moynul/pixelpulse-golang/internal/models"
)

var (
	// ErrNotFound is returned when the addressed record does not exist.
	// Malformed IDs are reported the same way.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a unique field (user email, category
	// name or slug) is already taken.
	ErrDuplicate = errors.New("duplicate")
)

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUsers returns the users among ids that exist, in no particular order.
	GetUsers(ctx context.Context, ids []string) ([]models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id string) error
	// ToggleSavedPost adds postID to the user's saved posts if absent and
	// removes it otherwise, returning the resulting set.
	ToggleSavedPost(ctx context.Context, userID, postID string) ([]string, error)
}

type PostStore interface {
	CreatePost(ctx context.Context, p *models.Post) error
	GetPost(ctx context.Context, id string) (*models.Post, error)
	// GetPosts returns the posts among ids that exist, preserving the order of ids.
	GetPosts(ctx context.Context, ids []string) ([]models.Post, error)
	// ListPosts returns one page of matching posts and the total match count.
	ListPosts(ctx context.Context, q models.PostQuery) ([]models.Post, int64, error)
	UpdatePost(ctx context.Context, p *models.Post) error
	DeletePost(ctx context.Context, id string) error
	// ToggleLike adds userID to the post's likes if absent and removes it
	// otherwise, returning the resulting likes.
	ToggleLike(ctx context.Context, postID, userID string) ([]string, error)
	// AddComment appends c to the post's comments and returns the full list.
	AddComment(ctx context.Context, postID string, c models.Comment) ([]models.Comment, error)
}

type CategoryStore interface {
	CreateCategory(ctx context.Context, c *models.Category) error
	GetCategory(ctx context.Context, id string) (*models.Category, error)
	// ListCategories returns categories sorted by name.
	ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error)
	UpdateCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, id string) error
}

// Store is the full persistence surface.
type Store interface {
	UserStore
	PostStore
	CategoryStore

	// Purge removes every record. Used by the seeder.
	Purge(ctx context.Context) error
	Close(ctx context.Context) error
}
