package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/01moynul/pixelpulse-golang/internal/uploads"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// maxNameStem bounds the readable part of a stored upload name.
const maxNameStem = 40

// allowedImageTypes are the content types accepted by UploadImage, detected
// from the file contents rather than the client's header.
var allowedImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// UploadImage handles POST /api/upload with a multipart "image" field.
func (h *Handlers) UploadImage(c *gin.Context) {
	// 1. Bound the request size and get the file
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	fh, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			uploadFailed(c, http.StatusBadRequest, fmt.Sprintf("File too large. Maximum size is %d bytes", h.MaxUploadBytes))
			return
		}
		uploadFailed(c, http.StatusBadRequest, "No file uploaded")
		return
	}
	file, err := fh.Open()
	if err != nil {
		h.uploadError(c, "upload: open", err)
		return
	}
	defer file.Close()

	// 2. Sniff the content type
	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		h.uploadError(c, "upload: detect type", err)
		return
	}
	if !mimetype.EqualsAny(mtype.String(), allowedImageTypes...) {
		uploadFailed(c, http.StatusBadRequest, "Only image files are allowed")
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		h.uploadError(c, "upload: rewind", err)
		return
	}

	// 3. Generate a safe unique filename (slug + uuid + extension)
	name := uploadName(fh.Filename, mtype.Extension())

	// 4. Store it
	obj, err := h.Uploads.Save(c.Request.Context(), name, file, mtype.String())
	if err != nil {
		h.uploadError(c, "upload: save", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Image uploaded successfully",
		"data": gin.H{
			"filename":     obj.Name,
			"originalName": fh.Filename,
			"size":         fh.Size,
			"path":         obj.Path,
			"url":          obj.URL,
		},
	})
}

// DeleteImage handles DELETE /api/upload/:filename.
func (h *Handlers) DeleteImage(c *gin.Context) {
	err := h.Uploads.Delete(c.Request.Context(), c.Param("filename"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Image deleted successfully"})
	case errors.Is(err, uploads.ErrNotFound):
		uploadFailed(c, http.StatusNotFound, "File not found")
	case errors.Is(err, uploads.ErrInvalidName):
		uploadFailed(c, http.StatusBadRequest, "Invalid file name")
	default:
		h.uploadError(c, "upload: delete", err)
	}
}

// uploadName builds "<slug of original stem>-<uuid><ext>". The extension
// comes from the original name, or fallbackExt when it has none.
func uploadName(original, fallbackExt string) string {
	ext := strings.ToLower(filepath.Ext(original))
	if ext == "" {
		ext = fallbackExt
	}
	id := uuid.New().String()

	stem := slug.Make(strings.TrimSuffix(original, filepath.Ext(original)))
	if len(stem) > maxNameStem {
		stem = strings.TrimRight(stem[:maxNameStem], "-_")
	}
	if stem == "" {
		return id + ext
	}
	return stem + "-" + id + ext
}

func uploadFailed(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

func (h *Handlers) uploadError(c *gin.Context, op string, err error) {
	h.Logger.Error(op, "err", err)
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error during upload", "error": err.Error()})
}
