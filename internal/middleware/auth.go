package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/01moynul/pixelpulse-golang/internal/auth"
	"github.com/01moynul/pixelpulse-golang/internal/models"
	"github.com/01moynul/pixelpulse-golang/internal/store"
	"github.com/gin-gonic/gin"
)

// userKey is the context key set by AuthMiddleware.
const userKey = "user"

// UserLoader is the part of the store AuthMiddleware needs.
type UserLoader interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// AuthMiddleware rejects requests without a valid Bearer token and stores the
// token's user in the context.
func AuthMiddleware(tokens *auth.TokenManager, users UserLoader, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. --- Get Authorization Header ---
		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized, no token"})
			return
		}

		// 2. --- Validate Token ---
		claims, err := tokens.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized, token failed"})
			return
		}

		// 3. --- Load the user (it may have been deleted since the token was issued) ---
		user, err := users.GetUser(c.Request.Context(), claims.Subject)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				logger.Error("auth: load user", "user", claims.Subject, "err", err)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized, token failed"})
			return
		}

		// 4. --- Success ---
		c.Set(userKey, user)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// CurrentUser returns the user stored by AuthMiddleware, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}
