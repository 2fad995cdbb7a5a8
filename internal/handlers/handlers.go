package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/01moynul/pixelpulse-golang/internal/auth"
	"github.com/01moynul/pixelpulse-golang/internal/store"
	"github.com/01moynul/pixelpulse-golang/internal/uploads"
	"github.com/gin-gonic/gin"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Store   store.Store
	Tokens  *auth.TokenManager
	Uploads uploads.Storage
	Logger  *slog.Logger

	// MaxUploadBytes bounds the size of a multipart upload request.
	MaxUploadBytes int64
}

// notFound answers 404 with {message}.
func notFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, gin.H{"message": message})
}

// serverError logs err and answers 500 with its detail.
func (h *Handlers) serverError(c *gin.Context, op string, err error) {
	h.Logger.Error(op, "method", c.Request.Method, "path", c.Request.URL.Path, "err", err)
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error", "error": err.Error()})
}

// storeError maps a store error: ErrNotFound becomes 404 with notFoundMsg,
// anything else a 500.
func (h *Handlers) storeError(c *gin.Context, op, notFoundMsg string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		notFound(c, notFoundMsg)
		return
	}
	h.serverError(c, op, err)
}
