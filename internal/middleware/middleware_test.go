package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/01moynul/pixelpulse-golang/internal/auth"
	"github.com/01moynul/pixelpulse-golang/internal/logging"
	"github.com/01moynul/pixelpulse-golang/internal/models"
	"github.com/01moynul/pixelpulse-golang/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeUsers map[string]*models.User

func (f fakeUsers) GetUser(_ context.Context, id string) (*models.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func TestBearerToken(t *testing.T) {
	cases := map[string]struct {
		token string
		ok    bool
	}{
		"Bearer abc":   {"abc", true},
		"bearer abc":   {"abc", true},
		"Bearer":       {"", false},
		"Basic abc":    {"", false},
		"Bearer a b":   {"", false},
		"":             {"", false},
		"  Bearer xyz": {"xyz", true},
	}
	for header, want := range cases {
		got, ok := bearerToken(header)
		assert.Equal(t, want.ok, ok, header)
		assert.Equal(t, want.token, got, header)
	}
}

func TestIsStrongPassword(t *testing.T) {
	assert.True(t, isStrongPassword("Secret123"))
	assert.False(t, isStrongPassword("secret123"))
	assert.False(t, isStrongPassword("SECRET123"))
	assert.False(t, isStrongPassword("SecretPass"))
}

func newAuthRouter(tokens *auth.TokenManager, users fakeUsers) *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthMiddleware(tokens, users, logging.Discard()), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUser(c).Name)
	})
	r.GET("/admin", AuthMiddleware(tokens, users, logging.Discard()), AdminMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestAuthAndAdminMiddleware(t *testing.T) {
	tokens := auth.NewTokenManager("mw-secret", time.Hour)
	users := fakeUsers{
		"u1": {ID: "u1", Name: "Ann"},
		"a1": {ID: "a1", Name: "Root", IsAdmin: true},
	}
	r := newAuthRouter(tokens, users)

	call := func(path, userID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if userID != "" {
			tok, err := tokens.GenerateToken(userID, false)
			require.NoError(t, err)
			req.Header.Set("Authorization", "Bearer "+tok)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := call("/me", "u1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ann", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, call("/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, call("/me", "deleted").Code)
	assert.Equal(t, http.StatusForbidden, call("/admin", "u1").Code)

	// The admin flag comes from the stored user, not the token.
	assert.Equal(t, http.StatusNoContent, call("/admin", "a1").Code)
}

func TestValidateJSON(t *testing.T) {
	r := gin.New()
	r.POST("/c", ValidateJSON[models.CommentInput](), func(c *gin.Context) {
		c.String(http.StatusOK, Payload[models.CommentInput](c).Text)
	})

	post := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/c", strings.NewReader(body)))
		return w
	}

	w := post(`{"text":"  hi  "}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hi", w.Body.String())

	w = post(`{"text":`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp struct {
		Errors []FieldError `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []FieldError{{Field: "body", Message: "Invalid JSON body"}}, resp.Errors)

	w = post(``)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []FieldError{{Field: "text", Message: "Text is required"}}, resp.Errors)
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware("http://localhost:5173"))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestDecodeJSON(t *testing.T) {
	var in models.CommentInput
	require.NoError(t, decodeJSON(strings.NewReader(`{"text":""}`), &in))
	assert.Equal(t, "", in.Text, "decoding alone must not validate")

	assert.Error(t, decodeJSON(strings.NewReader(`{"text":1}`), &in))
}
