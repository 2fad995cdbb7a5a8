// Package mongostore implements store.Store on MongoDB. Comments and likes
// are embedded arrays on the post document, saved posts an array on the user.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/01moynul/pixelpulse-golang/internal/models"
	"github.com/01moynul/pixelpulse-golang/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	client     *mongo.Client
	users      *mongo.Collection
	posts      *mongo.Collection
	categories *mongo.Collection
}

var _ store.Store = (*Store)(nil)

func New(client *mongo.Client, dbName string) *Store {
	db := client.Database(dbName)
	return &Store{
		client:     client,
		users:      db.Collection(usersCollection),
		posts:      db.Collection(postsCollection),
		categories: db.Collection(categoriesCollection),
	}
}

// EnsureIndexes creates the unique indexes the store relies on for
// duplicate detection, plus the listing sort index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique}); err != nil {
		return fmt.Errorf("users email index: %w", err)
	}
	if _, err := s.categories.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: unique},
	}); err != nil {
		return fmt.Errorf("categories indexes: %w", err)
	}
	if _, err := s.posts.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "category", Value: 1}, {Key: "createdAt", Value: -1}}}); err != nil {
		return fmt.Errorf("posts index: %w", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Purge(ctx context.Context) error {
	for _, coll := range []*mongo.Collection{s.users, s.posts, s.categories} {
		if _, err := coll.DeleteMany(ctx, bson.M{}); err != nil {
			return fmt.Errorf("purge %s: %w", coll.Name(), err)
		}
	}
	return nil
}

// --- helpers ---

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, store.ErrNotFound
	}
	return oid, nil
}

func mapErr(op string, err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", op, store.ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// togglePipeline adds id to the array field when absent and removes it
// otherwise, in one server-side update.
func togglePipeline(field string, id primitive.ObjectID) mongo.Pipeline {
	current := bson.D{{Key: "$ifNull", Value: bson.A{"$" + field, bson.A{}}}}
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: field, Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$in", Value: bson.A{id, current}}},
				bson.D{{Key: "$filter", Value: bson.D{
					{Key: "input", Value: current},
					{Key: "cond", Value: bson.D{{Key: "$ne", Value: bson.A{"$$this", id}}}},
				}}},
				bson.D{{Key: "$concatArrays", Value: bson.A{current, bson.A{id}}}},
			}}}},
		}}},
	}
}

func afterUpdate(projection bson.M) *options.FindOneAndUpdateOptions {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if projection != nil {
		opts.SetProjection(projection)
	}
	return opts
}

// --- Users ---

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	doc := userDoc{
		Name:       u.Name,
		Email:      u.Email,
		Password:   u.PasswordHash,
		IsAdmin:    u.IsAdmin,
		SavedPosts: objectIDs(u.SavedPosts),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	res, err := s.users.InsertOne(ctx, doc)
	if err != nil {
		return mapErr("insert user", err)
	}
	u.ID = res.InsertedID.(primitive.ObjectID).Hex()
	u.SavedPosts = hexIDs(doc.SavedPosts)
	u.CreatedAt, u.UpdatedAt = now, now
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.findUser(ctx, bson.M{"_id": oid})
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, mapErr("find user", err)
	}
	return doc.model(), nil
}

func (s *Store) GetUsers(ctx context.Context, ids []string) ([]models.User, error) {
	return s.listUsers(ctx, bson.M{"_id": bson.M{"$in": objectIDs(ids)}})
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.listUsers(ctx, bson.M{})
}

func (s *Store) listUsers(ctx context.Context, filter bson.M) ([]models.User, error) {
	cur, err := s.users.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, mapErr("find users", err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapErr("decode users", err)
	}
	users := make([]models.User, len(docs))
	for i := range docs {
		users[i] = *docs[i].model()
	}
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	oid, err := parseID(u.ID)
	if err != nil {
		return err
	}
	var doc userDoc
	err = s.users.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"name":      u.Name,
		"email":     u.Email,
		"password":  u.PasswordHash,
		"isAdmin":   u.IsAdmin,
		"updatedAt": time.Now().UTC(),
	}}, afterUpdate(nil)).Decode(&doc)
	if err != nil {
		return mapErr("update user", err)
	}
	*u = *doc.model()
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := s.users.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return mapErr("delete user", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ToggleSavedPost(ctx context.Context, userID, postID string) ([]string, error) {
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	pid, err := parseID(postID)
	if err != nil {
		return nil, err
	}
	var doc userDoc
	err = s.users.FindOneAndUpdate(ctx, bson.M{"_id": uid}, togglePipeline("savedPosts", pid),
		afterUpdate(bson.M{"savedPosts": 1})).Decode(&doc)
	if err != nil {
		return nil, mapErr("toggle saved post", err)
	}
	return hexIDs(doc.SavedPosts), nil
}

// --- Posts ---

func (s *Store) CreatePost(ctx context.Context, p *models.Post) error {
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	doc := newPostDoc(p)
	res, err := s.posts.InsertOne(ctx, doc)
	if err != nil {
		return mapErr("insert post", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	*p = *doc.model()
	return nil
}

func (s *Store) GetPost(ctx context.Context, id string) (*models.Post, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var doc postDoc
	if err := s.posts.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mapErr("find post", err)
	}
	return doc.model(), nil
}

func (s *Store) GetPosts(ctx context.Context, ids []string) ([]models.Post, error) {
	cur, err := s.posts.Find(ctx, bson.M{"_id": bson.M{"$in": objectIDs(ids)}})
	if err != nil {
		return nil, mapErr("find posts", err)
	}
	var docs []postDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapErr("decode posts", err)
	}
	byID := make(map[string]*models.Post, len(docs))
	for i := range docs {
		byID[docs[i].ID.Hex()] = docs[i].model()
	}
	posts := make([]models.Post, 0, len(docs))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			posts = append(posts, *p)
		}
	}
	return posts, nil
}

func postFilter(q models.PostQuery) bson.M {
	filter := bson.M{}
	if q.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(q.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": re},
			bson.M{"content": re},
			bson.M{"summary": re},
		}
	}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	return filter
}

func (s *Store) ListPosts(ctx context.Context, q models.PostQuery) ([]models.Post, int64, error) {
	filter := postFilter(q)

	dir := 1
	if q.Desc {
		dir = -1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: q.SortBy, Value: dir}, {Key: "_id", Value: dir}}).
		SetSkip(int64(q.Skip())).
		SetLimit(int64(q.Limit))

	cur, err := s.posts.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, mapErr("find posts", err)
	}
	var docs []postDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, mapErr("decode posts", err)
	}

	total, err := s.posts.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, mapErr("count posts", err)
	}

	posts := make([]models.Post, len(docs))
	for i := range docs {
		posts[i] = *docs[i].model()
	}
	return posts, total, nil
}

func (s *Store) UpdatePost(ctx context.Context, p *models.Post) error {
	oid, err := parseID(p.ID)
	if err != nil {
		return err
	}
	var doc postDoc
	err = s.posts.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"title":     p.Title,
		"content":   p.Content,
		"summary":   p.Summary,
		"category":  p.Category,
		"image":     p.Image,
		"updatedAt": time.Now().UTC(),
	}}, afterUpdate(nil)).Decode(&doc)
	if err != nil {
		return mapErr("update post", err)
	}
	*p = *doc.model()
	return nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := s.posts.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return mapErr("delete post", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ToggleLike(ctx context.Context, postID, userID string) ([]string, error) {
	pid, err := parseID(postID)
	if err != nil {
		return nil, err
	}
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	var doc postDoc
	err = s.posts.FindOneAndUpdate(ctx, bson.M{"_id": pid}, togglePipeline("likes", uid),
		afterUpdate(bson.M{"likes": 1})).Decode(&doc)
	if err != nil {
		return nil, mapErr("toggle like", err)
	}
	return hexIDs(doc.Likes), nil
}

func (s *Store) AddComment(ctx context.Context, postID string, c models.Comment) ([]models.Comment, error) {
	pid, err := parseID(postID)
	if err != nil {
		return nil, err
	}
	uid, err := parseID(c.UserID)
	if err != nil {
		return nil, err
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	entry := commentDoc{ID: primitive.NewObjectID(), Text: c.Text, User: uid, CreatedAt: c.CreatedAt}

	var doc postDoc
	err = s.posts.FindOneAndUpdate(ctx, bson.M{"_id": pid},
		bson.M{"$push": bson.M{"comments": entry}},
		afterUpdate(bson.M{"comments": 1})).Decode(&doc)
	if err != nil {
		return nil, mapErr("add comment", err)
	}
	return commentModels(doc.Comments), nil
}

// --- Categories ---

func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	now := time.Now().UTC()
	doc := categoryDoc{
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		Color:       c.Color,
		IsActive:    c.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	res, err := s.categories.InsertOne(ctx, doc)
	if err != nil {
		return mapErr("insert category", err)
	}
	c.ID = res.InsertedID.(primitive.ObjectID).Hex()
	c.CreatedAt, c.UpdatedAt = now, now
	return nil
}

func (s *Store) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var doc categoryDoc
	if err := s.categories.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mapErr("find category", err)
	}
	return doc.model(), nil
}

func (s *Store) ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	filter := bson.M{}
	if activeOnly {
		filter["isActive"] = true
	}
	cur, err := s.categories.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, mapErr("find categories", err)
	}
	var docs []categoryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapErr("decode categories", err)
	}
	cats := make([]models.Category, len(docs))
	for i := range docs {
		cats[i] = *docs[i].model()
	}
	return cats, nil
}

func (s *Store) UpdateCategory(ctx context.Context, c *models.Category) error {
	oid, err := parseID(c.ID)
	if err != nil {
		return err
	}
	var doc categoryDoc
	err = s.categories.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"name":        c.Name,
		"slug":        c.Slug,
		"description": c.Description,
		"color":       c.Color,
		"isActive":    c.IsActive,
		"updatedAt":   time.Now().UTC(),
	}}, afterUpdate(nil)).Decode(&doc)
	if err != nil {
		return mapErr("update category", err)
	}
	*c = *doc.model()
	return nil
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := s.categories.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return mapErr("delete category", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
