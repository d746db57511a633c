// Package media side-loads remote images into posts.
package media

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"html"
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/postmap"
)

var _ postmap.ImageLoader = (*Sideloader)(nil)

// Sideloader downloads images, stores them and records them as attachments.
type Sideloader struct {
	fetcher     postmap.ImageFetcher
	store       postmap.MediaStore
	attachments postmap.AttachmentService

	// Limiter, when set, throttles downloads per image host.
	Limiter postmap.DomainLimiter
}

// NewSideloader creates a new Sideloader.
func NewSideloader(fetcher postmap.ImageFetcher, store postmap.MediaStore, attachments postmap.AttachmentService) *Sideloader {
	return &Sideloader{fetcher: fetcher, store: store, attachments: attachments}
}

// Sideload fetches imageURL, stores it as an attachment of postID and returns
// an <img> fragment pointing at the stored copy. Stored bytes are removed if
// the attachment cannot be recorded.
func (s *Sideloader) Sideload(ctx context.Context, imageURL, postID, alt string) (string, error) {
	if postID == "" {
		return "", postmap.Errorf(postmap.EINVALID, "post ID required")
	}
	u, err := url.Parse(imageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", postmap.Errorf(postmap.EINVALID, "invalid image URL %q", imageURL)
	}

	if s.Limiter != nil {
		if err := s.Limiter.Wait(ctx, u.Hostname()); err != nil {
			return "", err
		}
	}

	img, err := s.fetcher.FetchImage(ctx, imageURL)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", imageURL, err)
	}
	if !strings.HasPrefix(img.ContentType, "image/") {
		return "", postmap.Errorf(postmap.EINVALID, "%s is not an image (content type %q)", imageURL, img.ContentType)
	}
	if len(img.Data) == 0 {
		return "", postmap.Errorf(postmap.EINVALID, "%s is empty", imageURL)
	}

	stored, err := s.store.Save(ctx, FileName(u, img.ContentType), img.Data)
	if err != nil {
		return "", fmt.Errorf("storing %s: %w", imageURL, err)
	}

	a := &postmap.Attachment{
		PostID:      postID,
		SourceURL:   imageURL,
		Alt:         alt,
		Path:        stored.Path,
		URL:         stored.URL,
		ContentType: img.ContentType,
		Size:        int64(len(img.Data)),
		ContentHash: hashBytes(img.Data),
	}
	if err := s.attachments.CreateAttachment(ctx, a); err != nil {
		if rmErr := s.store.Remove(ctx, stored.Path); rmErr != nil {
			err = errors.Join(err, rmErr)
		}
		return "", err
	}

	return Fragment(stored.URL, alt), nil
}

// Fragment returns the <img> element embedding src with alt.
func Fragment(src, alt string) string {
	return fmt.Sprintf(`<img src="%s" alt="%s" />`, html.EscapeString(src), html.EscapeString(alt))
}

var extensions = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/avif":    ".avif",
	"image/svg+xml": ".svg",
}

// FileName derives a safe file name for an image from its URL path,
// adding an extension for contentType when the path has none.
func FileName(u *url.URL, contentType string) string {
	base := path.Base(u.Path)
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	stem = sanitize(stem)
	if stem == "" {
		stem = "image"
	}

	ext = strings.ToLower(sanitize(ext))
	if ext == "" || ext == "." {
		ext = extensions[contentType]
		if ext == "" {
			if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
				ext = exts[0]
			}
		}
	}
	return stem + ext
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('-')
		}
	}
	return b.String()
}

// hashBytes computes the xxHash of data and returns it as a hex string.
func hashBytes(data []byte) string {
	return hex.EncodeToString(binary.BigEndian.AppendUint64(nil, xxhash.Sum64(data)))
}
