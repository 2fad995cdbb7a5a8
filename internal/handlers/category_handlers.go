package handlers

import (
	"errors"
	"net/http"

	"github.com/01moynul/pixelpulse-golang/internal/middleware"
	"github.com/01moynul/pixelpulse-golang/internal/models"
	"github.com/01moynul/pixelpulse-golang/internal/store"
	"github.com/gin-gonic/gin"
)

// GetCategories handles GET /api/categories. Only active categories are
// listed unless ?active=all.
func (h *Handlers) GetCategories(c *gin.Context) {
	cats, err := h.Store.ListCategories(c.Request.Context(), c.Query("active") != "all")
	if err != nil {
		h.serverError(c, "list categories", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(cats), "data": cats})
}

// GetCategory handles GET /api/categories/:id.
func (h *Handlers) GetCategory(c *gin.Context) {
	cat, err := h.Store.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.categoryError(c, "get category", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": cat})
}

// CreateCategory handles POST /api/categories (admin).
func (h *Handlers) CreateCategory(c *gin.Context) {
	input := middleware.Payload[models.CategoryInput](c)

	// 1. Build and derive the slug
	cat := input.NewCategory()
	if err := cat.Normalize(); err != nil {
		invalidCategoryName(c, err)
		return
	}

	// 2. Save
	if err := h.Store.CreateCategory(c.Request.Context(), cat); err != nil {
		h.categoryError(c, "create category", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Category created successfully", "data": cat})
}

// UpdateCategory handles PUT /api/categories/:id (admin). A rename
// regenerates the slug.
func (h *Handlers) UpdateCategory(c *gin.Context) {
	input := middleware.Payload[models.CategoryInput](c)
	ctx := c.Request.Context()

	cat, err := h.Store.GetCategory(ctx, c.Param("id"))
	if err != nil {
		h.categoryError(c, "update category: load", err)
		return
	}

	if renamed := input.Apply(cat); renamed {
		if err := cat.Normalize(); err != nil {
			invalidCategoryName(c, err)
			return
		}
	}

	if err := h.Store.UpdateCategory(ctx, cat); err != nil {
		h.categoryError(c, "update category", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Category updated successfully", "data": cat})
}

// DeleteCategory handles DELETE /api/categories/:id (admin).
func (h *Handlers) DeleteCategory(c *gin.Context) {
	if err := h.Store.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		h.categoryError(c, "delete category", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Category deleted successfully"})
}

func (h *Handlers) categoryError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Category not found"})
	case errors.Is(err, store.ErrDuplicate):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Category already exists"})
	default:
		h.serverError(c, op, err)
	}
}

func invalidCategoryName(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": "Validation failed",
		"errors":  []middleware.FieldError{{Field: "name", Message: err.Error()}},
	})
}
