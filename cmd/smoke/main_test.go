package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/01moynul/pixelpulse-golang/internal/auth"
	"github.com/01moynul/pixelpulse-golang/internal/client"
	"github.com/01moynul/pixelpulse-golang/internal/handlers"
	"github.com/01moynul/pixelpulse-golang/internal/logging"
	"github.com/01moynul/pixelpulse-golang/internal/routes"
	"github.com/01moynul/pixelpulse-golang/internal/seed"
	"github.com/01moynul/pixelpulse-golang/internal/store/memstore"
	"github.com/01moynul/pixelpulse-golang/internal/uploads"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeededAPI(t *testing.T) *client.Client {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := memstore.New()
	require.NoError(t, seed.Run(context.Background(), s, logging.Discard()))

	h := &handlers.Handlers{
		Store:          s,
		Tokens:         auth.NewTokenManager("smoke-test", time.Hour),
		Uploads:        uploads.NewLocal(t.TempDir(), "http://localhost"),
		Logger:         logging.Discard(),
		MaxUploadBytes: 1 << 20,
	}
	srv := httptest.NewServer(routes.SetupRouter(h, routes.Options{CORSOrigin: "*"}))
	t.Cleanup(srv.Close)
	return client.New(srv.URL, srv.Client())
}

func TestRun_AgainstSeededAPI(t *testing.T) {
	c := newSeededAPI(t)

	r, err := run(context.Background(), c, seed.AdminEmail, seed.AdminPassword, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, 7, r.Categories)
	assert.EqualValues(t, 5, r.Posts)
	assert.NotEmpty(t, r.FirstPost)
	assert.Zero(t, r.SavedPosts)
}

func TestRun_RejectsNonAdmin(t *testing.T) {
	c := newSeededAPI(t)

	_, err := run(context.Background(), c, seed.UserEmail, seed.UserPassword, logging.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not an admin")
}

func TestRun_BadPassword(t *testing.T) {
	c := newSeededAPI(t)

	_, err := run(context.Background(), c, seed.AdminEmail, "wrong", logging.Discard())
	require.Error(t, err)

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}
