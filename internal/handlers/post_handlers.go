package handlers

import (
	"context"
	"net/http"

	"github.com/01moynul/pixelpulse-golang/internal/middleware"
	"github.com/01moynul/pixelpulse-golang/internal/models"
	"github.com/gin-gonic/gin"
)

// GetPosts handles GET /api/posts?search&category&sortBy&order&page&limit.
func (h *Handlers) GetPosts(c *gin.Context) {
	q := models.NewPostQuery(
		c.Query("search"),
		c.Query("category"),
		c.Query("sortBy"),
		c.Query("order"),
		c.Query("page"),
		c.Query("limit"),
	)

	posts, total, err := h.Store.ListPosts(c.Request.Context(), q)
	if err != nil {
		h.serverError(c, "list posts", err)
		return
	}
	if err := h.populateAuthors(c.Request.Context(), posts); err != nil {
		h.serverError(c, "list posts: authors", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":      posts,
		"pagination": models.NewPagination(q.Page, q.Limit, total),
	})
}

// GetPostByID handles GET /api/posts/:id.
func (h *Handlers) GetPostByID(c *gin.Context) {
	post, err := h.Store.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.storeError(c, "get post", "Post not found", err)
		return
	}
	h.respondPost(c, http.StatusOK, post)
}

// CreatePost handles POST /api/posts (admin).
func (h *Handlers) CreatePost(c *gin.Context) {
	input := middleware.Payload[models.PostInput](c)
	user := middleware.CurrentUser(c)

	post := input.NewPost(user.ID)
	if err := h.Store.CreatePost(c.Request.Context(), post); err != nil {
		h.serverError(c, "create post", err)
		return
	}
	h.respondPost(c, http.StatusCreated, post)
}

// UpdatePost handles PUT /api/posts/:id (admin).
func (h *Handlers) UpdatePost(c *gin.Context) {
	input := middleware.Payload[models.PostInput](c)
	ctx := c.Request.Context()

	// 1. Load the current post
	post, err := h.Store.GetPost(ctx, c.Param("id"))
	if err != nil {
		h.storeError(c, "update post: load", "Post not found", err)
		return
	}

	// 2. Apply the edits and save
	input.Apply(post)
	if err := h.Store.UpdatePost(ctx, post); err != nil {
		h.storeError(c, "update post", "Post not found", err)
		return
	}
	h.respondPost(c, http.StatusOK, post)
}

// DeletePost handles DELETE /api/posts/:id (admin).
func (h *Handlers) DeletePost(c *gin.Context) {
	if err := h.Store.DeletePost(c.Request.Context(), c.Param("id")); err != nil {
		h.storeError(c, "delete post", "Post not found", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post removed"})
}

// LikePost handles POST /api/posts/:id/like. Liking an already liked post
// removes the like.
func (h *Handlers) LikePost(c *gin.Context) {
	user := middleware.CurrentUser(c)
	likes, err := h.Store.ToggleLike(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		h.storeError(c, "like post", "Post not found", err)
		return
	}
	c.JSON(http.StatusOK, likes)
}

// CommentOnPost handles POST /api/posts/:id/comment.
func (h *Handlers) CommentOnPost(c *gin.Context) {
	input := middleware.Payload[models.CommentInput](c)
	user := middleware.CurrentUser(c)
	ctx := c.Request.Context()

	comments, err := h.Store.AddComment(ctx, c.Param("id"), models.Comment{
		Text:   input.Text,
		UserID: user.ID,
	})
	if err != nil {
		h.storeError(c, "comment on post", "Post not found", err)
		return
	}

	post := models.Post{Comments: comments}
	if err := h.populateAuthors(ctx, []models.Post{post}); err != nil {
		h.serverError(c, "comment on post: authors", err)
		return
	}
	c.JSON(http.StatusCreated, post.Comments)
}

// SavePost handles POST /api/posts/:id/save. Saving an already saved post
// removes it from the caller's saved posts.
func (h *Handlers) SavePost(c *gin.Context) {
	user := middleware.CurrentUser(c)
	ctx := c.Request.Context()

	// 1. The post must exist
	if _, err := h.Store.GetPost(ctx, c.Param("id")); err != nil {
		h.storeError(c, "save post: load post", "User or Post not found", err)
		return
	}

	// 2. Toggle it in the user's saved set
	saved, err := h.Store.ToggleSavedPost(ctx, user.ID, c.Param("id"))
	if err != nil {
		h.storeError(c, "save post", "User or Post not found", err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *Handlers) respondPost(c *gin.Context, status int, post *models.Post) {
	posts := []models.Post{*post}
	if err := h.populateAuthors(c.Request.Context(), posts); err != nil {
		h.serverError(c, "post authors", err)
		return
	}
	c.JSON(status, posts[0])
}

// populateAuthors fills Author on each post and comment from one batched
// user lookup. References to deleted users keep only the ID.
func (h *Handlers) populateAuthors(ctx context.Context, posts []models.Post) error {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, p := range posts {
		add(p.UserID)
		for _, cm := range p.Comments {
			add(cm.UserID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	users, err := h.Store.GetUsers(ctx, ids)
	if err != nil {
		return err
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	ref := func(id string) *models.UserRef {
		if id == "" {
			return nil
		}
		return &models.UserRef{ID: id, Name: names[id]}
	}

	for i := range posts {
		posts[i].Author = ref(posts[i].UserID)
		for j := range posts[i].Comments {
			posts[i].Comments[j].Author = ref(posts[i].Comments[j].UserID)
		}
	}
	return nil
}
