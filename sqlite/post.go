package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/fwojciec/postmap"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ postmap.PostService = (*PostService)(nil)

// PostService implements postmap.PostService using SQLite.
type PostService struct {
	db *DB
}

// NewPostService creates a new PostService.
func NewPostService(db *DB) *PostService {
	return &PostService{db: db}
}

const postColumns = "id, connector_id, source_url, status, title, content, content_hash, created_at, updated_at"

// CreatePost creates a new post.
func (s *PostService) CreatePost(ctx context.Context, post *postmap.Post) error {
	if err := post.Validate(); err != nil {
		return err
	}

	post.ID = uuid.New().String()
	now := s.db.Now()
	post.CreatedAt = now
	post.UpdatedAt = now
	post.ContentHash = hashContent(post.Content)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (`+postColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, post.ID, post.ConnectorID, post.SourceURL, string(post.Status), post.Title, post.Content,
		post.ContentHash, post.CreatedAt.Format(timeFormat), post.UpdatedAt.Format(timeFormat))

	return err
}

// FindPostByID retrieves a post by ID.
func (s *PostService) FindPostByID(ctx context.Context, id string) (*postmap.Post, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id)

	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, postmap.Errorf(postmap.ENOTFOUND, "post not found")
	}
	if err != nil {
		return nil, err
	}
	return post, nil
}

// FindPosts retrieves posts matching the filter, newest first.
func (s *PostService) FindPosts(ctx context.Context, filter postmap.PostFilter) ([]*postmap.Post, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT " + postColumns + " FROM posts WHERE 1=1")

	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.ConnectorID != nil {
		query.WriteString(" AND connector_id = ?")
		args = append(args, *filter.ConnectorID)
	}
	if filter.Status != nil {
		query.WriteString(" AND status = ?")
		args = append(args, string(*filter.Status))
	}

	query.WriteString(" ORDER BY created_at DESC, rowid DESC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*postmap.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	return posts, rows.Err()
}

// UpdatePost updates an existing post.
func (s *PostService) UpdatePost(ctx context.Context, id string, upd postmap.PostUpdate) (*postmap.Post, error) {
	post, err := s.FindPostByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		post.Title = *upd.Title
	}
	if upd.Content != nil {
		post.Content = *upd.Content
	}
	if upd.Status != nil {
		post.Status = *upd.Status
	}

	if err := post.Validate(); err != nil {
		return nil, err
	}

	post.UpdatedAt = s.db.Now()
	post.ContentHash = hashContent(post.Content)

	_, err = s.db.ExecContext(ctx, `
		UPDATE posts
		SET status = ?, title = ?, content = ?, content_hash = ?, updated_at = ?
		WHERE id = ?
	`, string(post.Status), post.Title, post.Content, post.ContentHash,
		post.UpdatedAt.Format(timeFormat), id)
	if err != nil {
		return nil, err
	}

	return post, nil
}

// DeletePost permanently removes a post. Its attachments are removed by
// the foreign key cascade.
func (s *PostService) DeletePost(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return postmap.Errorf(postmap.ENOTFOUND, "post not found")
	}

	return nil
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner) (*postmap.Post, error) {
	var post postmap.Post
	var status, createdAt, updatedAt string

	if err := row.Scan(&post.ID, &post.ConnectorID, &post.SourceURL, &status, &post.Title,
		&post.Content, &post.ContentHash, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	post.Status = postmap.PostStatus(status)

	var err error
	if post.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return nil, err
	}
	if post.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return nil, err
	}
	return &post, nil
}
