package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

// SummaryLength is the number of content characters kept by an auto-generated summary.
const SummaryLength = 150

// DefaultPostCategory is used when a post is created without a category.
const DefaultPostCategory = "Other"

// PostCategories are the category values a post may carry.
var PostCategories = []string{
	"Gaming News",
	"Game Reviews",
	"Hardware Reviews",
	"Gaming Tips",
	"Esports",
	"Industry News",
	"Other",
}

// Post is a blog article with its embedded comments and likes.
// UserID is what gets persisted; Author is filled in for responses.
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Summary   string    `json:"summary"`
	Category  string    `json:"category"`
	UserID    string    `json:"-"`
	Author    *UserRef  `json:"user,omitempty"`
	Comments  []Comment `json:"comments"`
	Likes     []string  `json:"likes"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Comment is an entry in a post's comment list.
type Comment struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	UserID    string    `json:"-"`
	Author    *UserRef  `json:"user,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// LikedBy reports whether userID is in the post's likes.
func (p *Post) LikedBy(userID string) bool {
	return containsID(p.Likes, userID)
}

// Summarize builds the summary used when a post has none: the first
// SummaryLength characters of content followed by "...", or the whole
// content when it is short enough.
func Summarize(content string) string {
	if utf8.RuneCountInString(content) <= SummaryLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:SummaryLength]) + "..."
}

// --- Inputs ---

// PostInput is the body of create and update requests.
type PostInput struct {
	Title    string  `json:"title" binding:"required,min=3,max=200"`
	Content  string  `json:"content" binding:"required,min=10"`
	Summary  string  `json:"summary" binding:"omitempty,max=300"`
	Category string  `json:"category" binding:"omitempty,postcategory"`
	Image    *string `json:"image" binding:"omitempty,url"`
}

func (in *PostInput) Sanitize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.Summary = strings.TrimSpace(in.Summary)
	in.Category = strings.TrimSpace(in.Category)
	if in.Image != nil {
		img := strings.TrimSpace(*in.Image)
		if img == "" {
			in.Image = nil
		} else {
			in.Image = &img
		}
	}
}

// NewPost builds a post owned by userID from a validated input.
func (in *PostInput) NewPost(userID string) *Post {
	p := &Post{
		Title:    in.Title,
		Content:  in.Content,
		Summary:  in.Summary,
		Category: in.Category,
		UserID:   userID,
		Comments: []Comment{},
		Likes:    []string{},
	}
	if p.Summary == "" {
		p.Summary = Summarize(p.Content)
	}
	if p.Category == "" {
		p.Category = DefaultPostCategory
	}
	if in.Image != nil {
		p.Image = *in.Image
	}
	return p
}

// Apply replaces the editable fields of p. Category and image are only
// replaced when the input carries them.
func (in *PostInput) Apply(p *Post) {
	p.Title = in.Title
	p.Content = in.Content
	p.Summary = in.Summary
	if p.Summary == "" {
		p.Summary = Summarize(p.Content)
	}
	if in.Category != "" {
		p.Category = in.Category
	}
	if in.Image != nil {
		p.Image = *in.Image
	}
}

type CommentInput struct {
	Text string `json:"text" binding:"required,min=1,max=500"`
}

func (in *CommentInput) Sanitize() {
	in.Text = strings.TrimSpace(in.Text)
}

// IsPostCategory reports whether name is one of PostCategories.
func IsPostCategory(name string) bool {
	for _, c := range PostCategories {
		if c == name {
			return true
		}
	}
	return false
}
