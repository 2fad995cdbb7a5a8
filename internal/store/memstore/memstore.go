// Package memstore is an in-process implementation of store.Store.
// It backs DB_DRIVER=memory and the HTTP tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/01moynul/pixelpulse-golang/internal/models"
	"github.com/01moynul/pixelpulse-golang/internal/store"
	"github.com/google/uuid"
)

type Store struct {
	mu         sync.RWMutex
	users      map[string]*models.User
	posts      map[string]*models.Post
	postOrder  []string
	categories map[string]*models.Category

	now  func() time.Time
	last time.Time
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:      make(map[string]*models.User),
		posts:      make(map[string]*models.Post),
		categories: make(map[string]*models.Category),
		now:        time.Now,
	}
}

func (s *Store) Close(context.Context) error { return nil }

// tick returns a timestamp strictly after the previous one so that
// time-ordered listings are deterministic. Callers hold s.mu.
func (s *Store) tick() time.Time {
	t := s.now()
	if !t.After(s.last) {
		t = s.last.Add(time.Nanosecond)
	}
	s.last = t
	return t
}

func (s *Store) Purge(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make(map[string]*models.User)
	s.posts = make(map[string]*models.Post)
	s.postOrder = nil
	s.categories = make(map[string]*models.Category)
	return nil
}

// --- Users ---

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == u.Email {
			return fmt.Errorf("email %q: %w", u.Email, store.ErrDuplicate)
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = s.tick()
	u.UpdatedAt = u.CreatedAt
	if u.SavedPosts == nil {
		u.SavedPosts = []string{}
	}
	s.users[u.ID] = copyUser(u)
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyUser(u), nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetUsers(_ context.Context, ids []string) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			users = append(users, *copyUser(u))
		}
	}
	return users, nil
}

func (s *Store) ListUsers(context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, *copyUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func (s *Store) UpdateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[u.ID]
	if !ok {
		return store.ErrNotFound
	}
	for id, other := range s.users {
		if id != u.ID && other.Email == u.Email {
			return fmt.Errorf("email %q: %w", u.Email, store.ErrDuplicate)
		}
	}
	// Saved posts only change through ToggleSavedPost.
	u.SavedPosts = append([]string{}, existing.SavedPosts...)
	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = s.tick()
	s.users[u.ID] = copyUser(u)
	return nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *Store) ToggleSavedPost(_ context.Context, userID, postID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	u.SavedPosts = models.ToggleID(u.SavedPosts, postID)
	u.UpdatedAt = s.tick()
	return append([]string{}, u.SavedPosts...), nil
}

// --- Posts ---

func (s *Store) CreatePost(_ context.Context, p *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = uuid.NewString()
	p.CreatedAt = s.tick()
	p.UpdatedAt = p.CreatedAt
	if p.Likes == nil {
		p.Likes = []string{}
	}
	if p.Comments == nil {
		p.Comments = []models.Comment{}
	}
	s.posts[p.ID] = copyPost(p)
	s.postOrder = append(s.postOrder, p.ID)
	return nil
}

func (s *Store) GetPost(_ context.Context, id string) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyPost(p), nil
}

func (s *Store) GetPosts(_ context.Context, ids []string) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	posts := make([]models.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.posts[id]; ok {
			posts = append(posts, *copyPost(p))
		}
	}
	return posts, nil
}

func (s *Store) ListPosts(_ context.Context, q models.PostQuery) ([]models.Post, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	term := strings.ToLower(q.Search)
	var matched []models.Post
	for _, id := range s.postOrder {
		p := s.posts[id]
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(p.Title), term) &&
			!strings.Contains(strings.ToLower(p.Content), term) &&
			!strings.Contains(strings.ToLower(p.Summary), term) {
			continue
		}
		matched = append(matched, *copyPost(p))
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if q.Desc {
			return lessPost(matched[j], matched[i], q.SortBy)
		}
		return lessPost(matched[i], matched[j], q.SortBy)
	})

	total := int64(len(matched))
	start := q.Skip()
	if start < 0 || start >= len(matched) {
		return []models.Post{}, total, nil
	}
	end := start + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func lessPost(a, b models.Post, field string) bool {
	switch field {
	case models.SortTitle:
		return a.Title < b.Title
	case models.SortCategory:
		return a.Category < b.Category
	case models.SortUpdatedAt:
		return a.UpdatedAt.Before(b.UpdatedAt)
	default:
		return a.CreatedAt.Before(b.CreatedAt)
	}
}

func (s *Store) UpdatePost(_ context.Context, p *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.posts[p.ID]
	if !ok {
		return store.ErrNotFound
	}
	updated := copyPost(existing)
	updated.Title = p.Title
	updated.Content = p.Content
	updated.Summary = p.Summary
	updated.Category = p.Category
	updated.Image = p.Image
	updated.UpdatedAt = s.tick()
	s.posts[p.ID] = updated

	*p = *copyPost(updated)
	return nil
}

func (s *Store) DeletePost(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.posts, id)
	for i, pid := range s.postOrder {
		if pid == id {
			s.postOrder = append(s.postOrder[:i], s.postOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) ToggleLike(_ context.Context, postID, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return nil, store.ErrNotFound
	}
	p.Likes = models.ToggleID(p.Likes, userID)
	return append([]string{}, p.Likes...), nil
}

func (s *Store) AddComment(_ context.Context, postID string, c models.Comment) ([]models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return nil, store.ErrNotFound
	}
	c.ID = uuid.NewString()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.tick()
	}
	c.Author = nil
	p.Comments = append(p.Comments, c)
	return append([]models.Comment{}, p.Comments...), nil
}

// --- Categories ---

func (s *Store) CreateCategory(_ context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkCategoryUnique(c); err != nil {
		return err
	}
	c.ID = uuid.NewString()
	c.CreatedAt = s.tick()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	s.categories[c.ID] = &cp
	return nil
}

func (s *Store) checkCategoryUnique(c *models.Category) error {
	for id, other := range s.categories {
		if id == c.ID {
			continue
		}
		if other.Name == c.Name || other.Slug == c.Slug {
			return fmt.Errorf("category %q: %w", c.Name, store.ErrDuplicate)
		}
	}
	return nil
}

func (s *Store) GetCategory(_ context.Context, id string) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) ListCategories(_ context.Context, activeOnly bool) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cats := make([]models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		if activeOnly && !c.IsActive {
			continue
		}
		cats = append(cats, *c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].Name < cats[j].Name })
	return cats, nil
}

func (s *Store) UpdateCategory(_ context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.categories[c.ID]
	if !ok {
		return store.ErrNotFound
	}
	if err := s.checkCategoryUnique(c); err != nil {
		return err
	}
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = s.tick()
	cp := *c
	s.categories[c.ID] = &cp
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

// --- copies ---

func copyUser(u *models.User) *models.User {
	cp := *u
	cp.SavedPosts = append([]string{}, u.SavedPosts...)
	return &cp
}

func copyPost(p *models.Post) *models.Post {
	cp := *p
	cp.Author = nil
	cp.Likes = append([]string{}, p.Likes...)
	cp.Comments = make([]models.Comment, len(p.Comments))
	for i, c := range p.Comments {
		c.Author = nil
		cp.Comments[i] = c
	}
	return &cp
}
