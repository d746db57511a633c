package sqlite

import (
	"context"
	"strings"

	"github.com/fwojciec/postmap"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ postmap.AttachmentService = (*AttachmentService)(nil)

// AttachmentService implements postmap.AttachmentService using SQLite.
type AttachmentService struct {
	db *DB
}

// NewAttachmentService creates a new AttachmentService.
func NewAttachmentService(db *DB) *AttachmentService {
	return &AttachmentService{db: db}
}

// CreateAttachment creates a new attachment.
// Returns ENOTFOUND if the owning post does not exist.
func (s *AttachmentService) CreateAttachment(ctx context.Context, a *postmap.Attachment) error {
	if err := a.Validate(); err != nil {
		return err
	}

	var exists int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts WHERE id = ?", a.PostID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return postmap.Errorf(postmap.ENOTFOUND, "post %q not found", a.PostID)
	}

	a.ID = uuid.New().String()
	a.CreatedAt = s.db.Now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attachments (id, post_id, source_url, alt, path, url, content_type, size, content_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.PostID, a.SourceURL, a.Alt, a.Path, a.URL, a.ContentType, a.Size, a.ContentHash,
		a.CreatedAt.Format(timeFormat))

	return err
}

// FindAttachments retrieves attachments matching the filter in creation order.
func (s *AttachmentService) FindAttachments(ctx context.Context, filter postmap.AttachmentFilter) ([]*postmap.Attachment, error) {
	var query strings.Builder
	var args []any

	query.WriteString(`SELECT id, post_id, source_url, alt, path, url, content_type, size, content_hash, created_at
		FROM attachments WHERE 1=1`)

	if filter.PostID != nil {
		query.WriteString(" AND post_id = ?")
		args = append(args, *filter.PostID)
	}

	query.WriteString(" ORDER BY created_at ASC, rowid ASC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attachments []*postmap.Attachment
	for rows.Next() {
		var a postmap.Attachment
		var createdAt string

		if err := rows.Scan(&a.ID, &a.PostID, &a.SourceURL, &a.Alt, &a.Path, &a.URL,
			&a.ContentType, &a.Size, &a.ContentHash, &createdAt); err != nil {
			return nil, err
		}

		if a.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
			return nil, err
		}
		attachments = append(attachments, &a)
	}

	return attachments, rows.Err()
}
