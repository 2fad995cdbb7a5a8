package handlers

import (
	"errors"
	"net/http"

	"github.com/01moynul/pixelpulse-golang/internal/middleware"
	"github.com/01moynul/pixelpulse-golang/internal/models"
	"github.com/01moynul/pixelpulse-golang/internal/store"
	"github.com/gin-gonic/gin"
)

// Register handles POST /api/auth/register.
func (h *Handlers) Register(c *gin.Context) {
	input := middleware.Payload[models.RegisterInput](c)
	ctx := c.Request.Context()

	// 1. --- Check the email is free ---
	if _, err := h.Store.GetUserByEmail(ctx, input.Email); err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "User already exists"})
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		h.serverError(c, "register: lookup email", err)
		return
	}

	// 2. --- Hash the Password ---
	var password models.Password
	if err := password.Set(input.Password); err != nil {
		h.serverError(c, "register: hash password", err)
		return
	}

	// 3. --- Save ---
	user := &models.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: password.Hash,
		SavedPosts:   []string{},
	}
	if err := h.Store.CreateUser(ctx, user); err != nil {
		// Lost a race with a concurrent registration for the same email.
		if errors.Is(err, store.ErrDuplicate) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "User already exists"})
			return
		}
		h.serverError(c, "register: create user", err)
		return
	}

	h.respondWithToken(c, http.StatusCreated, user)
}

// Login handles POST /api/auth/login.
func (h *Handlers) Login(c *gin.Context) {
	input := middleware.Payload[models.LoginInput](c)

	// 1. --- Find User by Email ---
	user, err := h.Store.GetUserByEmail(c.Request.Context(), input.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
			return
		}
		h.serverError(c, "login: lookup email", err)
		return
	}

	// 2. --- Check Password ---
	password := models.Password{Hash: user.PasswordHash}
	match, err := password.Matches(input.Password)
	if err != nil {
		h.serverError(c, "login: compare password", err)
		return
	}
	if !match {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
		return
	}

	h.respondWithToken(c, http.StatusOK, user)
}

func (h *Handlers) respondWithToken(c *gin.Context, status int, user *models.User) {
	token, err := h.Tokens.GenerateToken(user.ID, user.IsAdmin)
	if err != nil {
		h.serverError(c, "generate token", err)
		return
	}
	c.JSON(status, models.AuthResponse{
		ID:      user.ID,
		Name:    user.Name,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
		Token:   token,
	})
}
