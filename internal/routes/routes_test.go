package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/01moynul/pixelpulse-golang/internal/auth"
	"github.com/01moynul/pixelpulse-golang/internal/handlers"
	"github.com/01moynul/pixelpulse-golang/internal/logging"
	"github.com/01moynul/pixelpulse-golang/internal/models"
	"github.com/01moynul/pixelpulse-golang/internal/store/memstore"
	"github.com/01moynul/pixelpulse-golang/internal/uploads"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testPassword = "Secret123"

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type testServer struct {
	router    *gin.Engine
	store     *memstore.Store
	tokens    *auth.TokenManager
	uploadDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		store:     memstore.New(),
		tokens:    auth.NewTokenManager("test-secret", time.Hour),
		uploadDir: filepath.Join(t.TempDir(), "uploads"),
	}
	h := &handlers.Handlers{
		Store:          ts.store,
		Tokens:         ts.tokens,
		Uploads:        uploads.NewLocal(ts.uploadDir, "http://api.test"),
		Logger:         logging.Discard(),
		MaxUploadBytes: 1 << 20,
	}
	ts.router = SetupRouter(h, Options{CORSOrigin: "*", UploadDir: ts.uploadDir})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// register creates a user through the API and returns its auth response.
func (ts *testServer) register(t *testing.T, name, email string) models.AuthResponse {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"name": name, "email": email, "password": testPassword,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.AuthResponse](t, w)
}

func (ts *testServer) admin(t *testing.T) models.AuthResponse {
	t.Helper()
	resp := ts.register(t, "Admin", "admin@example.com")
	u, err := ts.store.GetUser(context.Background(), resp.ID)
	require.NoError(t, err)
	u.IsAdmin = true
	require.NoError(t, ts.store.UpdateUser(context.Background(), u))
	return resp
}

func (ts *testServer) createPost(t *testing.T, token, title, content string) models.Post {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/posts", token, gin.H{"title": title, "content": content})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Post](t, w)
}

type validationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func TestServiceEndpoints(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "API is running...", w.Body.String())

	w = ts.do(t, http.MethodGet, "/api/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong!", decode[messageResponse](t, w).Message)

	w = ts.do(t, http.MethodOptions, "/api/posts", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.register(t, "Ann", "Ann@Example.com")
	assert.Equal(t, "ann@example.com", resp.Email)
	assert.False(t, resp.IsAdmin)
	assert.NotEmpty(t, resp.Token)

	w := ts.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Ann Again", "email": "ann@example.com", "password": testPassword,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User already exists", decode[messageResponse](t, w).Message)

	w = ts.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "ann@example.com", "password": testPassword})
	require.Equal(t, http.StatusOK, w.Code)
	login := decode[models.AuthResponse](t, w)
	assert.Equal(t, resp.ID, login.ID)

	claims, err := ts.tokens.ValidateToken(login.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, claims.Subject)

	for _, body := range []gin.H{
		{"email": "ann@example.com", "password": "Wrong123"},
		{"email": "nobody@example.com", "password": testPassword},
	} {
		w = ts.do(t, http.MethodPost, "/api/auth/login", "", body)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Invalid email or password", decode[messageResponse](t, w).Message)
	}
}

func TestRegister_ValidationErrors(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "A", "email": "not-an-email", "password": "weakpass",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[validationResponse](t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "Validation failed", resp.Message)

	fields := map[string]string{}
	for _, e := range resp.Errors {
		fields[e.Field] = e.Message
	}
	assert.Contains(t, fields, "name")
	assert.Equal(t, "Please provide a valid email", fields["email"])
	assert.Contains(t, fields["password"], "uppercase")
}

func TestAdminRoutes_Authorization(t *testing.T) {
	ts := newTestServer(t)
	user := ts.register(t, "Bob", "bob@example.com")

	routes := []struct{ method, path string }{
		{http.MethodPost, "/api/posts"},
		{http.MethodDelete, "/api/posts/x"},
		{http.MethodGet, "/api/users"},
		{http.MethodDelete, "/api/users/x"},
		{http.MethodPost, "/api/categories"},
		{http.MethodDelete, "/api/categories/x"},
	}
	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			w := ts.do(t, r.method, r.path, "", gin.H{})
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "Not authorized, no token", decode[messageResponse](t, w).Message)

			w = ts.do(t, r.method, r.path, "garbage", gin.H{})
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "Not authorized, token failed", decode[messageResponse](t, w).Message)

			w = ts.do(t, r.method, r.path, user.Token, gin.H{})
			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.Equal(t, "Not authorized as an admin", decode[messageResponse](t, w).Message)
		})
	}
}

func TestDeletedUserTokenIsRejected(t *testing.T) {
	ts := newTestServer(t)
	user := ts.register(t, "Gone", "gone@example.com")
	require.NoError(t, ts.store.DeleteUser(context.Background(), user.ID))

	w := ts.do(t, http.MethodGet, "/api/users/saved", user.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPosts_CreateGetUpdateDelete(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.admin(t)

	content := strings.Repeat("Phantom Liberty is a spy thriller. ", 10)
	post := ts.createPost(t, admin.Token, "Cyberpunk 2077: Phantom Liberty", content)
	assert.Equal(t, content[:150]+"...", post.Summary)
	assert.Equal(t, models.DefaultPostCategory, post.Category)
	require.NotNil(t, post.Author)
	assert.Equal(t, admin.ID, post.Author.ID)
	assert.Equal(t, "Admin", post.Author.Name)
	assert.Empty(t, post.Likes)

	w := ts.do(t, http.MethodGet, "/api/posts/"+post.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, post.Title, decode[models.Post](t, w).Title)

	w = ts.do(t, http.MethodPut, "/api/posts/"+post.ID, admin.Token, gin.H{
		"title": "Phantom Liberty review", "content": "Short content", "category": "Game Reviews",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[models.Post](t, w)
	assert.Equal(t, "Phantom Liberty review", updated.Title)
	assert.Equal(t, "Short content", updated.Summary)
	assert.Equal(t, "Game Reviews", updated.Category)

	w = ts.do(t, http.MethodPut, "/api/posts/"+post.ID, admin.Token, gin.H{
		"title": "ok title", "content": "long enough", "category": "Not A Category",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodDelete, "/api/posts/"+post.ID, admin.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Post removed", decode[messageResponse](t, w).Message)

	w = ts.do(t, http.MethodDelete, "/api/posts/"+post.ID, admin.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Post not found", decode[messageResponse](t, w).Message)

	w = ts.do(t, http.MethodGet, "/api/posts/"+post.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = ts.do(t, http.MethodPut, "/api/posts/"+post.ID, admin.Token, gin.H{"title": "abc", "content": "0123456789"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type postList struct {
	Posts      []models.Post     `json:"posts"`
	Pagination models.Pagination `json:"pagination"`
}

func TestPosts_ListSearchAndPagination(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.admin(t)

	ts.createPost(t, admin.Token, "Cyberpunk 2077: Phantom Liberty", "A redemption story for CD Projekt Red.")
	for i := 0; i < 4; i++ {
		ts.createPost(t, admin.Token, fmt.Sprintf("Hardware guide %d", i), "GPUs, CPUs and memory.")
	}

	w := ts.do(t, http.MethodGet, "/api/posts?search=cyberpunk", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[postList](t, w)
	require.Len(t, list.Posts, 1)
	assert.Equal(t, "Cyberpunk 2077: Phantom Liberty", list.Posts[0].Title)

	w = ts.do(t, http.MethodGet, "/api/posts?page=2&limit=2", "", nil)
	list = decode[postList](t, w)
	assert.Len(t, list.Posts, 2)
	assert.Equal(t, models.Pagination{
		CurrentPage: 2, TotalPages: 3, TotalPosts: 5, HasNextPage: true, HasPrevPage: true,
	}, list.Pagination)

	w = ts.do(t, http.MethodGet, "/api/posts?page=7&limit=2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list = decode[postList](t, w)
	assert.NotNil(t, list.Posts)
	assert.Empty(t, list.Posts)
	assert.Equal(t, 7, list.Pagination.CurrentPage)
	assert.Equal(t, 3, list.Pagination.TotalPages)
	assert.False(t, list.Pagination.HasNextPage)
	assert.True(t, list.Pagination.HasPrevPage)

	w = ts.do(t, http.MethodGet, "/api/posts?page=9223372036854775807&limit=2", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	list = decode[postList](t, w)
	assert.NotNil(t, list.Posts)
	assert.Empty(t, list.Posts)
	assert.Equal(t, 3, list.Pagination.TotalPages)
	assert.False(t, list.Pagination.HasNextPage)
	assert.True(t, list.Pagination.HasPrevPage)

	w = ts.do(t, http.MethodGet, "/api/posts?sortBy=title&order=asc&limit=1", "", nil)
	list = decode[postList](t, w)
	require.Len(t, list.Posts, 1)
	assert.Equal(t, "Cyberpunk 2077: Phantom Liberty", list.Posts[0].Title)
	assert.False(t, list.Pagination.HasPrevPage)
}

func TestPosts_LikeCommentSave(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.admin(t)
	user := ts.register(t, "Reader", "reader@example.com")
	post := ts.createPost(t, admin.Token, "Mobile Esports", "Mobile esports are growing fast.")

	// Like twice is a net no-op.
	w := ts.do(t, http.MethodPost, "/api/posts/"+post.ID+"/like", user.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{user.ID}, decode[[]string](t, w))

	w = ts.do(t, http.MethodPost, "/api/posts/"+post.ID+"/like", user.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]string](t, w))

	w = ts.do(t, http.MethodPost, "/api/posts/missing/like", user.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Comments are appended with their author.
	w = ts.do(t, http.MethodPost, "/api/posts/"+post.ID+"/comment", user.Token, gin.H{"text": "  Great read  "})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	comments := decode[[]models.Comment](t, w)
	require.Len(t, comments, 1)
	assert.Equal(t, "Great read", comments[0].Text)
	require.NotNil(t, comments[0].Author)
	assert.Equal(t, "Reader", comments[0].Author.Name)

	w = ts.do(t, http.MethodPost, "/api/posts/"+post.ID+"/comment", user.Token, gin.H{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Save toggles the caller's saved posts.
	w = ts.do(t, http.MethodPost, "/api/posts/"+post.ID+"/save", user.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{post.ID}, decode[[]string](t, w))

	w = ts.do(t, http.MethodGet, "/api/users/saved", user.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	saved := decode[[]models.Post](t, w)
	require.Len(t, saved, 1)
	assert.Equal(t, post.ID, saved[0].ID)

	w = ts.do(t, http.MethodPost, "/api/posts/missing/save", user.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User or Post not found", decode[messageResponse](t, w).Message)

	// Deleted posts drop out of the saved list.
	w = ts.do(t, http.MethodDelete, "/api/posts/"+post.ID, admin.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = ts.do(t, http.MethodGet, "/api/users/saved", user.Token, nil)
	assert.Empty(t, decode[[]models.Post](t, w))
}

func TestUsers_AdminCRUD(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.admin(t)
	user := ts.register(t, "Carl", "carl@example.com")

	w := ts.do(t, http.MethodGet, "/api/users", admin.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.User](t, w), 2)
	assert.NotContains(t, w.Body.String(), "password")

	w = ts.do(t, http.MethodGet, "/api/users/"+user.ID, admin.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "carl@example.com", decode[models.User](t, w).Email)

	w = ts.do(t, http.MethodPut, "/api/users/"+user.ID, admin.Token, gin.H{"isAdmin": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[models.AuthResponse](t, w)
	assert.Equal(t, "Carl", updated.Name)
	assert.True(t, updated.IsAdmin)

	w = ts.do(t, http.MethodPut, "/api/users/"+user.ID, admin.Token, gin.H{"name": "", "email": ""})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	unchanged := decode[models.AuthResponse](t, w)
	assert.Equal(t, "Carl", unchanged.Name)
	assert.Equal(t, "carl@example.com", unchanged.Email)

	w = ts.do(t, http.MethodPut, "/api/users/"+user.ID, admin.Token, gin.H{"email": "admin@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodDelete, "/api/users/"+user.ID, admin.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "User removed", decode[messageResponse](t, w).Message)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		w = ts.do(t, method, "/api/users/"+user.ID, admin.Token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "User not found", decode[messageResponse](t, w).Message)
	}
}

type categoryResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    models.Category `json:"data"`
}

func TestCategories_CRUD(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.admin(t)

	w := ts.do(t, http.MethodPost, "/api/categories", admin.Token, gin.H{"name": "Hardware Reviews", "description": "Gear"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[categoryResponse](t, w).Data
	assert.Equal(t, "hardware-reviews", created.Slug)
	assert.Equal(t, models.DefaultCategoryColor, created.Color)
	assert.True(t, created.IsActive)

	w = ts.do(t, http.MethodPost, "/api/categories", admin.Token, gin.H{"name": "hardware reviews"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Category already exists", decode[categoryResponse](t, w).Message)

	w = ts.do(t, http.MethodPost, "/api/categories", admin.Token, gin.H{"name": "Bad!", "color": "blue"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, decode[validationResponse](t, w).Errors, 2)

	w = ts.do(t, http.MethodPut, "/api/categories/"+created.ID, admin.Token, gin.H{"name": "PC Hardware", "isActive": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	renamed := decode[categoryResponse](t, w).Data
	assert.Equal(t, "pc-hardware", renamed.Slug)
	assert.False(t, renamed.IsActive)

	w = ts.do(t, http.MethodGet, "/api/categories", "", nil)
	var list struct {
		Count int               `json:"count"`
		Data  []models.Category `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Zero(t, list.Count)

	w = ts.do(t, http.MethodGet, "/api/categories?active=all", "", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)

	w = ts.do(t, http.MethodGet, "/api/categories/"+created.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PC Hardware", decode[categoryResponse](t, w).Data.Name)

	w = ts.do(t, http.MethodDelete, "/api/categories/"+created.ID, admin.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = ts.do(t, http.MethodDelete, "/api/categories/"+created.ID, admin.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Category not found", decode[categoryResponse](t, w).Message)
}

func (ts *testServer) upload(t *testing.T, token, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func TestUpload(t *testing.T) {
	ts := newTestServer(t)
	user := ts.register(t, "Uploader", "up@example.com")

	w := ts.upload(t, user.Token, "cover.PNG", pngHeader)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Filename     string `json:"filename"`
			OriginalName string `json:"originalName"`
			Size         int64  `json:"size"`
			Path         string `json:"path"`
			URL          string `json:"url"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "cover.PNG", resp.Data.OriginalName)
	assert.True(t, strings.HasSuffix(resp.Data.Filename, ".png"))
	assert.EqualValues(t, len(pngHeader), resp.Data.Size)
	assert.Equal(t, "/uploads/"+resp.Data.Filename, resp.Data.Path)
	assert.Equal(t, "http://api.test"+resp.Data.Path, resp.Data.URL)

	_, err := os.Stat(filepath.Join(ts.uploadDir, resp.Data.Filename))
	require.NoError(t, err)

	// Served statically.
	w = ts.do(t, http.MethodGet, resp.Data.Path, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodDelete, "/api/upload/"+resp.Data.Filename, user.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = ts.do(t, http.MethodDelete, "/api/upload/"+resp.Data.Filename, user.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpload_Rejections(t *testing.T) {
	ts := newTestServer(t)
	user := ts.register(t, "Uploader", "up@example.com")

	w := ts.upload(t, user.Token, "notes.png", []byte("just some text, not an image"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.upload(t, user.Token, "huge.png", append(pngHeader, make([]byte, 2<<20)...))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/api/upload", user.Token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.upload(t, "", "cover.png", pngHeader)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
