// Package seed fills an empty store with sample users, categories and posts.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/01moynul/pixelpulse-golang/internal/models"
	"github.com/01moynul/pixelpulse-golang/internal/store"
)

// Sample accounts created by Run.
const (
	AdminEmail    = "admin@pixelpulse.com"
	AdminPassword = "admin123"
	UserEmail     = "john@example.com"
	UserPassword  = "user123"
)

var sampleCategories = []models.CategoryInput{
	{Name: "Gaming News", Description: "Latest gaming news and updates"},
	{Name: "Game Reviews", Description: "In-depth game reviews"},
	{Name: "Hardware Reviews", Description: "Gaming hardware reviews"},
	{Name: "Gaming Tips", Description: "Tips and tricks for gamers"},
	{Name: "Esports", Description: "Esports news and updates"},
	{Name: "Industry News", Description: "Gaming industry news"},
	{Name: "Other", Description: "Other gaming related content"},
}

type samplePost struct {
	models.PostInput
	likedByAdmin bool
	likedByUser  bool
	userComment  string
}

var samplePosts = []samplePost{
	{
		PostInput: models.PostInput{
			Title:    "The Future of Gaming: What to Expect in 2025",
			Content:  "VR headsets have become affordable, AI-driven characters react to players in ways scripted NPCs never could, and cloud services put high-end games on any screen with a decent connection. Mobile titles now out-earn consoles and PCs combined.",
			Summary:  "The trends shaping games in 2025, from mainstream VR to AI-powered NPCs and cloud gaming.",
			Category: "Gaming News",
		},
		likedByUser: true,
		userComment: "Great insights! VR gaming has really taken off this year.",
	},
	{
		PostInput: models.PostInput{
			Title:    "Cyberpunk 2077: Phantom Liberty - A Redemption Story",
			Content:  "Phantom Liberty turns a troubled launch around. The spy-thriller story stands apart from the main campaign, Dogtown rewards exploration, and reworked combat finally makes stealth a viable way to play. Rating: 9/10.",
			Summary:  "A review of the Phantom Liberty expansion and how it redeems Cyberpunk 2077.",
			Category: "Game Reviews",
		},
		likedByAdmin: true,
		likedByUser:  true,
	},
	{
		PostInput: models.PostInput{
			Title:    "Building the Ultimate Gaming Setup: 2025 Hardware Guide",
			Content:  "Pick the GPU for your target resolution first, then a CPU that won't hold it back. 32GB of DDR5 is the sweet spot and a 1TB NVMe drive is the minimum. Don't forget a high refresh rate monitor and a good headset.",
			Category: "Hardware Reviews",
		},
		userComment: "This guide helped me build my new rig! Thanks!",
	},
	{
		PostInput: models.PostInput{
			Title:    "10 Pro Tips to Improve Your FPS Gaming Skills",
			Content:  "Lower your sensitivity, keep your crosshair at head height, learn the maps, and communicate with short callouts. Review your own replays and warm up before ranked matches.",
			Category: "Gaming Tips",
		},
		likedByUser: true,
	},
	{
		PostInput: models.PostInput{
			Title:    "The Rise of Mobile Esports: A New Era of Competition",
			Content:  "Mobile esports tournaments now fill stadiums across Southeast Asia and South America, with prize pools that rival PC titles and audiences counted in the millions.",
			Category: "Esports",
		},
	},
}

// Run wipes s and inserts the sample data.
func Run(ctx context.Context, s store.Store, logger *slog.Logger) error {
	// 1. --- Clear existing data ---
	if err := s.Purge(ctx); err != nil {
		return fmt.Errorf("purge: %w", err)
	}
	logger.Info("cleared existing data")

	// 2. --- Users ---
	admin, err := createUser(ctx, s, "Admin User", AdminEmail, AdminPassword, true)
	if err != nil {
		return err
	}
	user, err := createUser(ctx, s, "John Doe", UserEmail, UserPassword, false)
	if err != nil {
		return err
	}

	// 3. --- Categories ---
	for _, in := range sampleCategories {
		cat := in.NewCategory()
		if err := cat.Normalize(); err != nil {
			return fmt.Errorf("category %q: %w", in.Name, err)
		}
		if err := s.CreateCategory(ctx, cat); err != nil {
			return fmt.Errorf("create category %q: %w", in.Name, err)
		}
	}
	logger.Info("categories created", "count", len(sampleCategories))

	// 4. --- Posts, likes and comments ---
	for _, sp := range samplePosts {
		post := sp.NewPost(admin.ID)
		if err := s.CreatePost(ctx, post); err != nil {
			return fmt.Errorf("create post %q: %w", sp.Title, err)
		}
		if sp.likedByUser {
			if _, err := s.ToggleLike(ctx, post.ID, user.ID); err != nil {
				return fmt.Errorf("like post %q: %w", sp.Title, err)
			}
		}
		if sp.likedByAdmin {
			if _, err := s.ToggleLike(ctx, post.ID, admin.ID); err != nil {
				return fmt.Errorf("like post %q: %w", sp.Title, err)
			}
		}
		if sp.userComment != "" {
			if _, err := s.AddComment(ctx, post.ID, models.Comment{Text: sp.userComment, UserID: user.ID}); err != nil {
				return fmt.Errorf("comment on %q: %w", sp.Title, err)
			}
		}
	}
	logger.Info("posts created", "count", len(samplePosts))
	return nil
}

func createUser(ctx context.Context, s store.Store, name, email, plaintext string, isAdmin bool) (*models.User, error) {
	var password models.Password
	if err := password.Set(plaintext); err != nil {
		return nil, fmt.Errorf("hash password for %s: %w", email, err)
	}
	u := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: password.Hash,
		IsAdmin:      isAdmin,
		SavedPosts:   []string{},
	}
	if err := s.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user %s: %w", email, err)
	}
	return u, nil
}
