// Package client is a typed Go client for the PixelPulse REST API.
//
// Authentication state lives in a Session value that callers pass to every
// call needing it; the client itself holds no token.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/01moynul/pixelpulse-golang/internal/middleware"
	"github.com/01moynul/pixelpulse-golang/internal/models"
)

// Session is the signed-in user returned by Register and Login.
type Session struct {
	models.AuthResponse
}

// Authenticated reports whether s carries a token.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
	Errors  []middleware.FieldError
}

func (e *APIError) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("%d %s: %s: %s", e.Status, e.Message, e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the API rooted at baseURL (e.g.
// "http://localhost:5000"). A nil hc uses http.DefaultClient.
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), http: hc}
}

func (c *Client) do(ctx context.Context, s *Session, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, s, out)
}

func (c *Client) send(req *http.Request, s *Session, out any) error {
	req.Header.Set("Accept", "application/json")
	if s.Authenticated() {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Message string                  `json:"message"`
			Errors  []middleware.FieldError `json:"errors"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
			apiErr.Message = payload.Message
			apiErr.Errors = payload.Errors
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

// --- Auth ---

func (c *Client) Register(ctx context.Context, in models.RegisterInput) (*Session, error) {
	var s Session
	if err := c.do(ctx, nil, http.MethodPost, "/api/auth/register", in, &s.AuthResponse); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var s Session
	in := models.LoginInput{Email: email, Password: password}
	if err := c.do(ctx, nil, http.MethodPost, "/api/auth/login", in, &s.AuthResponse); err != nil {
		return nil, err
	}
	return &s, nil
}

// --- Posts ---

// ListPostsParams mirrors the query string of GET /api/posts. Zero values
// are omitted and the server defaults apply.
type ListPostsParams struct {
	Search   string
	Category string
	SortBy   string
	Order    string
	Page     int
	Limit    int
}

func (p ListPostsParams) encode() string {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	set("search", p.Search)
	set("category", p.Category)
	set("sortBy", p.SortBy)
	set("order", p.Order)
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

type PostList struct {
	Posts      []models.Post     `json:"posts"`
	Pagination models.Pagination `json:"pagination"`
}

func (c *Client) ListPosts(ctx context.Context, p ListPostsParams) (*PostList, error) {
	var out PostList
	if err := c.do(ctx, nil, http.MethodGet, "/api/posts"+p.encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetPost(ctx context.Context, id string) (*models.Post, error) {
	var out models.Post
	if err := c.do(ctx, nil, http.MethodGet, "/api/posts/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreatePost(ctx context.Context, s *Session, in models.PostInput) (*models.Post, error) {
	var out models.Post
	if err := c.do(ctx, s, http.MethodPost, "/api/posts", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdatePost(ctx context.Context, s *Session, id string, in models.PostInput) (*models.Post, error) {
	var out models.Post
	if err := c.do(ctx, s, http.MethodPut, "/api/posts/"+url.PathEscape(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeletePost(ctx context.Context, s *Session, id string) error {
	return c.do(ctx, s, http.MethodDelete, "/api/posts/"+url.PathEscape(id), nil, nil)
}

// LikePost toggles the session user's like and returns the post's likes.
func (c *Client) LikePost(ctx context.Context, s *Session, id string) ([]string, error) {
	var likes []string
	if err := c.do(ctx, s, http.MethodPost, "/api/posts/"+url.PathEscape(id)+"/like", nil, &likes); err != nil {
		return nil, err
	}
	return likes, nil
}

func (c *Client) CommentOnPost(ctx context.Context, s *Session, id, text string) ([]models.Comment, error) {
	var comments []models.Comment
	in := models.CommentInput{Text: text}
	if err := c.do(ctx, s, http.MethodPost, "/api/posts/"+url.PathEscape(id)+"/comment", in, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// SavePost toggles the post in the session user's saved posts and returns
// the saved post IDs.
func (c *Client) SavePost(ctx context.Context, s *Session, id string) ([]string, error) {
	var saved []string
	if err := c.do(ctx, s, http.MethodPost, "/api/posts/"+url.PathEscape(id)+"/save", nil, &saved); err != nil {
		return nil, err
	}
	return saved, nil
}

// --- Users ---

func (c *Client) SavedPosts(ctx context.Context, s *Session) ([]models.Post, error) {
	var posts []models.Post
	if err := c.do(ctx, s, http.MethodGet, "/api/users/saved", nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *Client) ListUsers(ctx context.Context, s *Session) ([]models.User, error) {
	var users []models.User
	if err := c.do(ctx, s, http.MethodGet, "/api/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) GetUser(ctx context.Context, s *Session, id string) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, s, http.MethodGet, "/api/users/"+url.PathEscape(id), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) UpdateUser(ctx context.Context, s *Session, id string, in models.UpdateUserInput) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.do(ctx, s, http.MethodPut, "/api/users/"+url.PathEscape(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteUser(ctx context.Context, s *Session, id string) error {
	return c.do(ctx, s, http.MethodDelete, "/api/users/"+url.PathEscape(id), nil, nil)
}

// --- Categories ---

type categoryEnvelope struct {
	Data models.Category `json:"data"`
}

// ListCategories returns active categories, or all of them when all is set.
func (c *Client) ListCategories(ctx context.Context, all bool) ([]models.Category, error) {
	path := "/api/categories"
	if all {
		path += "?active=all"
	}
	var out struct {
		Data []models.Category `json:"data"`
	}
	if err := c.do(ctx, nil, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	var out categoryEnvelope
	if err := c.do(ctx, nil, http.MethodGet, "/api/categories/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) CreateCategory(ctx context.Context, s *Session, in models.CategoryInput) (*models.Category, error) {
	var out categoryEnvelope
	if err := c.do(ctx, s, http.MethodPost, "/api/categories", in, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) UpdateCategory(ctx context.Context, s *Session, id string, in models.CategoryInput) (*models.Category, error) {
	var out categoryEnvelope
	if err := c.do(ctx, s, http.MethodPut, "/api/categories/"+url.PathEscape(id), in, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) DeleteCategory(ctx context.Context, s *Session, id string) error {
	return c.do(ctx, s, http.MethodDelete, "/api/categories/"+url.PathEscape(id), nil, nil)
}

// --- Uploads ---

// UploadedImage is the data part of an upload response.
type UploadedImage struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
	Path         string `json:"path"`
	URL          string `json:"url"`
}

// UploadImage sends r as the multipart "image" field named filename.
func (c *Client) UploadImage(ctx context.Context, s *Session, filename string, r io.Reader) (*UploadedImage, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out struct {
		Data UploadedImage `json:"data"`
	}
	if err := c.send(req, s, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) DeleteImage(ctx context.Context, s *Session, filename string) error {
	return c.do(ctx, s, http.MethodDelete, "/api/upload/"+url.PathEscape(filename), nil, nil)
}
