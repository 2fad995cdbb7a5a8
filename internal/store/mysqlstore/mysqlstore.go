// Package mysqlstore implements store.Store on MySQL. The embedded arrays of
// the document model (comments, likes, saved posts) are child tables.
// The DSN must carry parseTime=true.
package mysqlstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/01moynul/pixelpulse-golang/internal/models"
	"github.com/01moynul/pixelpulse-golang/internal/store"
	"github.com/go-sql-driver/mysql"
)

//go:embed schema.sql
var schema string

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

func New(db *sql.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *Store) Close(context.Context) error {
	return s.db.Close()
}

func (s *Store) Purge(ctx context.Context) error {
	for _, table := range []string{"post_comments", "post_likes", "saved_posts", "posts", "categories", "users"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("purge %s: %w", table, err)
		}
	}
	return nil
}

// --- helpers ---

func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, store.ErrNotFound
	}
	return n, nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func mapErr(op string, err error) error {
	var myErr *mysql.MySQLError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return store.ErrNotFound
	case errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry:
		return fmt.Errorf("%s: %w", op, store.ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func parseIDs(ids []string) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if n, err := parseID(id); err == nil {
			out = append(out, n)
		}
	}
	return out
}

func queryIDs(ctx context.Context, q querier, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, formatID(id))
	}
	return ids, rows.Err()
}

// lockRow takes a row lock on table.id inside tx, reporting ErrNotFound when
// the row does not exist.
func lockRow(ctx context.Context, tx *sql.Tx, table string, id int64) error {
	var one int
	err := tx.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ? FOR UPDATE", id).Scan(&one)
	if err != nil {
		return mapErr("lock "+table, err)
	}
	return nil
}

// toggleRow deletes the (owner, member) pair from table, inserting it instead
// when nothing was deleted.
func toggleRow(ctx context.Context, tx *sql.Tx, table, ownerCol, memberCol string, owner, member int64) error {
	res, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE "+ownerCol+" = ? AND "+memberCol+" = ?", owner, member)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err = tx.ExecContext(ctx, "INSERT INTO "+table+" ("+ownerCol+", "+memberCol+") VALUES (?, ?)", owner, member)
	return err
}

// --- Users ---

const userColumns = "id, name, email, password_hash, is_admin, created_at, updated_at"

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	var id int64
	if err := row.Scan(&id, &u.Name, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.ID = formatID(id)
	u.SavedPosts = []string{}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	now := s.now()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, is_admin, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		u.Name, u.Email, u.PasswordHash, u.IsAdmin, now, now)
	if err != nil {
		return mapErr("insert user", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return mapErr("insert user", err)
	}
	u.ID = formatID(id)
	u.SavedPosts = []string{}
	u.CreatedAt, u.UpdatedAt = now, now
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.findUser(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", uid)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
}

func (s *Store) findUser(ctx context.Context, query string, arg any) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		return nil, mapErr("find user", err)
	}
	saved, err := queryIDs(ctx, s.db, "SELECT post_id FROM saved_posts WHERE user_id = ? ORDER BY id", u.ID)
	if err != nil {
		return nil, mapErr("find saved posts", err)
	}
	u.SavedPosts = saved
	return u, nil
}

func (s *Store) GetUsers(ctx context.Context, ids []string) ([]models.User, error) {
	uids := parseIDs(ids)
	if len(uids) == 0 {
		return []models.User{}, nil
	}
	return s.listUsers(ctx, "SELECT "+userColumns+" FROM users WHERE id IN ("+placeholders(len(uids))+") ORDER BY id", int64Args(uids)...)
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.listUsers(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at, id")
}

func (s *Store) listUsers(ctx context.Context, query string, args ...any) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr("list users", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, mapErr("scan user", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("list users", err)
	}
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	uid, err := parseID(u.ID)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		"UPDATE users SET name = ?, email = ?, password_hash = ?, is_admin = ?, updated_at = ? WHERE id = ?",
		u.Name, u.Email, u.PasswordHash, u.IsAdmin, s.now(), uid)
	if err != nil {
		return mapErr("update user", err)
	}
	fresh, err := s.GetUser(ctx, u.ID)
	if err != nil {
		return err
	}
	*u = *fresh
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	uid, err := parseID(id)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapErr("delete user", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id = ?", uid)
	if err != nil {
		return mapErr("delete user", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return mapErr("delete user", err)
	} else if n == 0 {
		return store.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM saved_posts WHERE user_id = ?", uid); err != nil {
		return mapErr("delete saved posts", err)
	}
	return mapErr("delete user", tx.Commit())
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, mapErr("toggle saved post", err)
	}
	defer tx.Rollback()

	if err := lockRow(ctx, tx, "users", uid); err != nil {
		return nil, err
	}
	if err := toggleRow(ctx, tx, "saved_posts", "user_id", "post_id", uid, pid); err != nil {
		return nil, mapErr("toggle saved post", err)
	}
	saved, err := queryIDs(ctx, tx, "SELECT post_id FROM saved_posts WHERE user_id = ? ORDER BY id", uid)
	if err != nil {
		return nil, mapErr("toggle saved post", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, mapErr("toggle saved post", err)
	}
	return saved, nil
}

// --- Posts ---

const postColumns = "id, title, content, summary, category, user_id, image, created_at, updated_at"

var sortColumns = map[string]string{
	models.SortCreatedAt: "created_at",
	models.SortUpdatedAt: "updated_at",
	models.SortTitle:     "title",
	models.SortCategory:  "category",
}

func scanPost(row interface{ Scan(...any) error }) (*models.Post, error) {
	var p models.Post
	var id, userID int64
	if err := row.Scan(&id, &p.Title, &p.Content, &p.Summary, &p.Category, &userID, &p.Image, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.ID = formatID(id)
	p.UserID = formatID(userID)
	p.Likes = []string{}
	p.Comments = []models.Comment{}
	return &p, nil
}

func (s *Store) CreatePost(ctx context.Context, p *models.Post) error {
	uid, err := parseID(p.UserID)
	if err != nil {
		return err
	}
	now := s.now()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO posts (title, content, summary, category, user_id, image, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		p.Title, p.Content, p.Summary, p.Category, uid, p.Image, now, now)
	if err != nil {
		return mapErr("insert post", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return mapErr("insert post", err)
	}
	p.ID = formatID(id)
	p.CreatedAt, p.UpdatedAt = now, now
	p.Likes = []string{}
	p.Comments = []models.Comment{}
	return nil
}

func (s *Store) GetPost(ctx context.Context, id string) (*models.Post, error) {
	pid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	p, err := scanPost(s.db.QueryRowContext(ctx, "SELECT "+postColumns+" FROM posts WHERE id = ?", pid))
	if err != nil {
		return nil, mapErr("find post", err)
	}
	posts := []models.Post{*p}
	if err := s.loadRelations(ctx, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

func (s *Store) GetPosts(ctx context.Context, ids []string) ([]models.Post, error) {
	pids := parseIDs(ids)
	if len(pids) == 0 {
		return []models.Post{}, nil
	}
	found, err := s.queryPosts(ctx, "SELECT "+postColumns+" FROM posts WHERE id IN ("+placeholders(len(pids))+")", int64Args(pids)...)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Post, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	posts := make([]models.Post, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			posts = append(posts, p)
		}
	}
	return posts, nil
}

// escapeLike makes term match literally inside a LIKE pattern.
func escapeLike(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(term)
}

func postWhere(q models.PostQuery) (string, []any) {
	var conds []string
	var args []any
	if q.Search != "" {
		conds = append(conds, "(LOWER(title) LIKE ? OR LOWER(content) LIKE ? OR LOWER(summary) LIKE ?)")
		term := "%" + escapeLike(strings.ToLower(q.Search)) + "%"
		args = append(args, term, term, term)
	}
	if q.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, q.Category)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *Store) ListPosts(ctx context.Context, q models.PostQuery) ([]models.Post, int64, error) {
	where, args := postWhere(q)

	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts"+where, args...).Scan(&total); err != nil {
		return nil, 0, mapErr("count posts", err)
	}

	col, ok := sortColumns[q.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	query := "SELECT " + postColumns + " FROM posts" + where +
		" ORDER BY " + col + " " + dir + ", id " + dir + " LIMIT ? OFFSET ?"
	posts, err := s.queryPosts(ctx, query, append(args, q.Limit, q.Skip())...)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (s *Store) queryPosts(ctx context.Context, query string, args ...any) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr("query posts", err)
	}
	posts := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			rows.Close()
			return nil, mapErr("scan post", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, mapErr("query posts", err)
	}
	rows.Close()

	if err := s.loadRelations(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// loadRelations fills likes and comments for posts with one query each.
func (s *Store) loadRelations(ctx context.Context, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	index := make(map[int64]int, len(posts))
	ids := make([]int64, len(posts))
	for i := range posts {
		id, _ := parseID(posts[i].ID)
		ids[i] = id
		index[id] = i
	}
	in := "(" + placeholders(len(ids)) + ")"

	rows, err := s.db.QueryContext(ctx, "SELECT post_id, user_id FROM post_likes WHERE post_id IN "+in+" ORDER BY id", int64Args(ids)...)
	if err != nil {
		return mapErr("load likes", err)
	}
	for rows.Next() {
		var postID, userID int64
		if err := rows.Scan(&postID, &userID); err != nil {
			rows.Close()
			return mapErr("scan like", err)
		}
		p := &posts[index[postID]]
		p.Likes = append(p.Likes, formatID(userID))
	}
	rows.Close()

	comments, err := s.queryComments(ctx, s.db, "WHERE post_id IN "+in, int64Args(ids)...)
	if err != nil {
		return err
	}
	for postID, list := range comments {
		posts[index[postID]].Comments = list
	}
	return nil
}

func (s *Store) queryComments(ctx context.Context, q querier, where string, args ...any) (map[int64][]models.Comment, error) {
	rows, err := q.QueryContext(ctx, "SELECT id, post_id, user_id, text, created_at FROM post_comments "+where+" ORDER BY id", args...)
	if err != nil {
		return nil, mapErr("load comments", err)
	}
	defer rows.Close()

	out := make(map[int64][]models.Comment)
	for rows.Next() {
		var c models.Comment
		var id, postID, userID int64
		if err := rows.Scan(&id, &postID, &userID, &c.Text, &c.CreatedAt); err != nil {
			return nil, mapErr("scan comment", err)
		}
		c.ID = formatID(id)
		c.UserID = formatID(userID)
		out[postID] = append(out[postID], c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("load comments", err)
	}
	return out, nil
}

func (s *Store) UpdatePost(ctx context.Context, p *models.Post) error {
	pid, err := parseID(p.ID)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		"UPDATE posts SET title = ?, content = ?, summary = ?, category = ?, image = ?, updated_at = ? WHERE id = ?",
		p.Title, p.Content, p.Summary, p.Category, p.Image, s.now(), pid)
	if err != nil {
		return mapErr("update post", err)
	}
	fresh, err := s.GetPost(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = *fresh
	return nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	pid, err := parseID(id)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapErr("delete post", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", pid)
	if err != nil {
		return mapErr("delete post", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return mapErr("delete post", err)
	} else if n == 0 {
		return store.ErrNotFound
	}
	for _, table := range []string{"post_comments", "post_likes"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE post_id = ?", pid); err != nil {
			return mapErr("delete "+table, err)
		}
	}
	return mapErr("delete post", tx.Commit())
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, mapErr("toggle like", err)
	}
	defer tx.Rollback()

	if err := lockRow(ctx, tx, "posts", pid); err != nil {
		return nil, err
	}
	if err := toggleRow(ctx, tx, "post_likes", "post_id", "user_id", pid, uid); err != nil {
		return nil, mapErr("toggle like", err)
	}
	likes, err := queryIDs(ctx, tx, "SELECT user_id FROM post_likes WHERE post_id = ? ORDER BY id", pid)
	if err != nil {
		return nil, mapErr("toggle like", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, mapErr("toggle like", err)
	}
	return likes, nil
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
		c.CreatedAt = s.now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, mapErr("add comment", err)
	}
	defer tx.Rollback()

	if err := lockRow(ctx, tx, "posts", pid); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO post_comments (post_id, user_id, text, created_at) VALUES (?, ?, ?, ?)",
		pid, uid, c.Text, c.CreatedAt); err != nil {
		return nil, mapErr("add comment", err)
	}
	byPost, err := s.queryComments(ctx, tx, "WHERE post_id = ?", pid)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, mapErr("add comment", err)
	}
	comments := byPost[pid]
	if comments == nil {
		comments = []models.Comment{}
	}
	return comments, nil
}

// --- Categories ---

const categoryColumns = "id, name, slug, description, color, is_active, created_at, updated_at"

func scanCategory(row interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	var id int64
	if err := row.Scan(&id, &c.Name, &c.Slug, &c.Description, &c.Color, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.ID = formatID(id)
	return &c, nil
}

func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	now := s.now()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO categories (name, slug, description, color, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		c.Name, c.Slug, c.Description, c.Color, c.IsActive, now, now)
	if err != nil {
		return mapErr("insert category", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return mapErr("insert category", err)
	}
	c.ID = formatID(id)
	c.CreatedAt, c.UpdatedAt = now, now
	return nil
}

func (s *Store) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	cid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	c, err := scanCategory(s.db.QueryRowContext(ctx, "SELECT "+categoryColumns+" FROM categories WHERE id = ?", cid))
	if err != nil {
		return nil, mapErr("find category", err)
	}
	return c, nil
}

func (s *Store) ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	query := "SELECT " + categoryColumns + " FROM categories"
	if activeOnly {
		query += " WHERE is_active = TRUE"
	}
	query += " ORDER BY name ASC"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapErr("list categories", err)
	}
	defer rows.Close()

	cats := []models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, mapErr("scan category", err)
		}
		cats = append(cats, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("list categories", err)
	}
	return cats, nil
}

func (s *Store) UpdateCategory(ctx context.Context, c *models.Category) error {
	cid, err := parseID(c.ID)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		"UPDATE categories SET name = ?, slug = ?, description = ?, color = ?, is_active = ?, updated_at = ? WHERE id = ?",
		c.Name, c.Slug, c.Description, c.Color, c.IsActive, s.now(), cid)
	if err != nil {
		return mapErr("update category", err)
	}
	fresh, err := s.GetCategory(ctx, c.ID)
	if err != nil {
		return err
	}
	*c = *fresh
	return nil
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	cid, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", cid)
	if err != nil {
		return mapErr("delete category", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr("delete category", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
