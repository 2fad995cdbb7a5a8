package handlers

import (
	"errors"
	"net/http"

	"github.com/01moynul/pixelpulse-golang/internal/middleware"
	"github.com/01moynul/pixelpulse-golang/internal/models"
	"github.com/01moynul/pixelpulse-golang/internal/store"
	"github.com/gin-gonic/gin"
)

// GetUsers handles GET /api/users (admin).
func (h *Handlers) GetUsers(c *gin.Context) {
	users, err := h.Store.ListUsers(c.Request.Context())
	if err != nil {
		h.serverError(c, "list users", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// GetSavedPosts handles GET /api/users/saved. Saved posts that have since
// been deleted are skipped.
func (h *Handlers) GetSavedPosts(c *gin.Context) {
	ctx := c.Request.Context()
	user := middleware.CurrentUser(c)

	posts, err := h.Store.GetPosts(ctx, user.SavedPosts)
	if err != nil {
		h.serverError(c, "saved posts", err)
		return
	}
	if err := h.populateAuthors(ctx, posts); err != nil {
		h.serverError(c, "saved posts: authors", err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// GetUserByID handles GET /api/users/:id (admin).
func (h *Handlers) GetUserByID(c *gin.Context) {
	user, err := h.Store.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.storeError(c, "get user", "User not found", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateUser handles PUT /api/users/:id (admin).
func (h *Handlers) UpdateUser(c *gin.Context) {
	input := middleware.Payload[models.UpdateUserInput](c)
	ctx := c.Request.Context()

	// 1. Load the user
	user, err := h.Store.GetUser(ctx, c.Param("id"))
	if err != nil {
		h.storeError(c, "update user: load", "User not found", err)
		return
	}

	// 2. Apply and save
	input.Apply(user)
	if err := h.Store.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Email already in use"})
			return
		}
		h.storeError(c, "update user", "User not found", err)
		return
	}

	c.JSON(http.StatusOK, models.AuthResponse{
		ID:      user.ID,
		Name:    user.Name,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
	})
}

// DeleteUser handles DELETE /api/users/:id (admin). Posts and comments by
// the user are left in place.
func (h *Handlers) DeleteUser(c *gin.Context) {
	if err := h.Store.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		h.storeError(c, "delete user", "User not found", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User removed"})
}
