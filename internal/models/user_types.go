package models

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is a registered account. Saved posts are kept as an ordered set of post IDs.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"isAdmin"`
	SavedPosts   []string  `json:"savedPosts"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserRef is the populated form of a user reference (author of a post or comment).
type UserRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	Token   string `json:"token,omitempty"`
}

// --- Inputs ---

type RegisterInput struct {
	Name     string `json:"name" binding:"required,min=2,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,strongpassword"`
}

func (in *RegisterInput) Sanitize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = NormalizeEmail(in.Email)
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (in *LoginInput) Sanitize() {
	in.Email = NormalizeEmail(in.Email)
}

// UpdateUserInput uses pointers so omitted fields keep their stored value.
// Empty strings count as omitted.
type UpdateUserInput struct {
	Name    *string `json:"name" binding:"omitempty,min=2,max=50"`
	Email   *string `json:"email" binding:"omitempty,email"`
	IsAdmin *bool   `json:"isAdmin"`
}

func (in *UpdateUserInput) Sanitize() {
	if in.Name != nil {
		n := strings.TrimSpace(*in.Name)
		in.Name = &n
		if n == "" {
			in.Name = nil
		}
	}
	if in.Email != nil {
		e := NormalizeEmail(*in.Email)
		in.Email = &e
		if e == "" {
			in.Email = nil
		}
	}
}

// Apply copies the provided fields onto u.
func (in *UpdateUserInput) Apply(u *User) {
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.IsAdmin != nil {
		u.IsAdmin = *in.IsAdmin
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HasSaved reports whether postID is in the user's saved set.
func (u *User) HasSaved(postID string) bool {
	return containsID(u.SavedPosts, postID)
}

// Password Helper (Standard)
type Password struct {
	Plaintext *string
	Hash      string
}

func (p *Password) Set(plaintextPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintextPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.Hash = string(hash)
	p.Plaintext = &plaintextPassword
	return nil
}

func (p *Password) Matches(plaintextPassword string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(p.Hash), []byte(plaintextPassword))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
