package mongostore

import (
	"time"

	"github.com/01moynul/pixelpulse-golang/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	usersCollection      = "users"
	postsCollection      = "posts"
	categoriesCollection = "categories"
)

type userDoc struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty"`
	Name       string               `bson:"name"`
	Email      string               `bson:"email"`
	Password   string               `bson:"password"`
	IsAdmin    bool                 `bson:"isAdmin"`
	SavedPosts []primitive.ObjectID `bson:"savedPosts"`
	CreatedAt  time.Time            `bson:"createdAt"`
	UpdatedAt  time.Time            `bson:"updatedAt"`
}

type commentDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	Text      string             `bson:"text"`
	User      primitive.ObjectID `bson:"user"`
	CreatedAt time.Time          `bson:"createdAt"`
}

type postDoc struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty"`
	Title     string               `bson:"title"`
	Content   string               `bson:"content"`
	Summary   string               `bson:"summary"`
	Category  string               `bson:"category"`
	User      primitive.ObjectID   `bson:"user"`
	Comments  []commentDoc         `bson:"comments"`
	Likes     []primitive.ObjectID `bson:"likes"`
	Image     string               `bson:"image"`
	CreatedAt time.Time            `bson:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt"`
}

type categoryDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Slug        string             `bson:"slug"`
	Description string             `bson:"description,omitempty"`
	Color       string             `bson:"color"`
	IsActive    bool               `bson:"isActive"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

// --- conversions ---

func hexIDs(ids []primitive.ObjectID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Hex()
	}
	return out
}

// objectIDs parses ids, dropping the malformed ones.
func objectIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			out = append(out, oid)
		}
	}
	return out
}

func (d *userDoc) model() *models.User {
	return &models.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.Password,
		IsAdmin:      d.IsAdmin,
		SavedPosts:   hexIDs(d.SavedPosts),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func (d *commentDoc) model() models.Comment {
	return models.Comment{
		ID:        d.ID.Hex(),
		Text:      d.Text,
		UserID:    d.User.Hex(),
		CreatedAt: d.CreatedAt,
	}
}

func commentModels(docs []commentDoc) []models.Comment {
	out := make([]models.Comment, len(docs))
	for i := range docs {
		out[i] = docs[i].model()
	}
	return out
}

func (d *postDoc) model() *models.Post {
	return &models.Post{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		Content:   d.Content,
		Summary:   d.Summary,
		Category:  d.Category,
		UserID:    d.User.Hex(),
		Comments:  commentModels(d.Comments),
		Likes:     hexIDs(d.Likes),
		Image:     d.Image,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func newPostDoc(p *models.Post) *postDoc {
	d := &postDoc{
		Title:     p.Title,
		Content:   p.Content,
		Summary:   p.Summary,
		Category:  p.Category,
		Comments:  []commentDoc{},
		Likes:     objectIDs(p.Likes),
		Image:     p.Image,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	d.User, _ = primitive.ObjectIDFromHex(p.UserID)
	for _, c := range p.Comments {
		user, _ := primitive.ObjectIDFromHex(c.UserID)
		d.Comments = append(d.Comments, commentDoc{
			ID:        primitive.NewObjectID(),
			Text:      c.Text,
			User:      user,
			CreatedAt: c.CreatedAt,
		})
	}
	return d
}

func (d *categoryDoc) model() *models.Category {
	return &models.Category{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Slug:        d.Slug,
		Description: d.Description,
		Color:       d.Color,
		IsActive:    d.IsActive,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}
