// Command smoke runs a read-only check against a running PixelPulse API
// using the seeded admin account.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/01moynul/pixelpulse-golang/internal/client"
	"github.com/01moynul/pixelpulse-golang/internal/logging"
	"github.com/01moynul/pixelpulse-golang/internal/seed"
	"github.com/joho/godotenv"
)

// report is what a successful run observed.
type report struct {
	Categories int
	Posts      int64
	SavedPosts int
	FirstPost  string
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:5000"
	}
	url := flag.String("url", baseURL, "API base URL")
	email := flag.String("email", seed.AdminEmail, "admin account email")
	password := flag.String("password", seed.AdminPassword, "admin account password")
	timeout := flag.Duration("timeout", 30*time.Second, "overall deadline")
	flag.Parse()

	logger := logging.New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), os.Stdout)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	c := client.New(*url, &http.Client{Timeout: 10 * time.Second})
	r, err := run(ctx, c, *email, *password, logger)
	if err != nil {
		logger.Error("smoke check failed", "url", *url, "err", err)
		os.Exit(1)
	}
	logger.Info("smoke check passed", "url", *url, "categories", r.Categories, "posts", r.Posts, "saved", r.SavedPosts)
}

func run(ctx context.Context, c *client.Client, email, password string, logger *slog.Logger) (*report, error) {
	var r report

	// Protected routes must reject anonymous callers.
	_, err := c.ListUsers(ctx, nil)
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		return nil, fmt.Errorf("anonymous GET /api/users: want 401, got %v", err)
	}

	s, err := c.Login(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if !s.IsAdmin {
		return nil, fmt.Errorf("login: %s is not an admin", email)
	}
	logger.Debug("logged in", "user", s.ID)

	users, err := c.ListUsers(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	logger.Debug("listed users", "count", len(users))

	cats, err := c.ListCategories(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	r.Categories = len(cats)

	list, err := c.ListPosts(ctx, client.ListPostsParams{Limit: 5})
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	r.Posts = list.Pagination.TotalPosts
	if len(list.Posts) > 0 {
		p, err := c.GetPost(ctx, list.Posts[0].ID)
		if err != nil {
			return nil, fmt.Errorf("get post %s: %w", list.Posts[0].ID, err)
		}
		r.FirstPost = p.Title
	}

	saved, err := c.SavedPosts(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("saved posts: %w", err)
	}
	r.SavedPosts = len(saved)

	return &r, nil
}
