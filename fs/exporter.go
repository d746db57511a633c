// Package fs provides file-based storage for media and exported posts.
package fs

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/postmap"
	"gopkg.in/yaml.v3"
)

// Ensure Exporter implements postmap.PostExporter at compile time.
var _ postmap.PostExporter = (*Exporter)(nil)

// Exporter writes posts as markdown files with atomic update semantics.
// Posts are saved to a temporary directory, then moved atomically on Commit.
type Exporter struct {
	baseDir   string
	name      string
	converter postmap.Converter

	mu   sync.Mutex
	used map[string]int
}

// NewExporter creates a new Exporter.
// baseDir is the parent directory, name is the output directory name.
// Files are saved to baseDir/name.tmp and moved to baseDir/name on Commit.
func NewExporter(baseDir, name string, converter postmap.Converter) *Exporter {
	return &Exporter{
		baseDir:   baseDir,
		name:      name,
		converter: converter,
		used:      make(map[string]int),
	}
}

func (e *Exporter) tempDir() string {
	return filepath.Join(e.baseDir, e.name+".tmp")
}

func (e *Exporter) finalDir() string {
	return filepath.Join(e.baseDir, e.name)
}

// Save converts the post to markdown and writes it as <slug>.md.
// Posts whose titles produce the same slug get a numeric suffix.
func (e *Exporter) Save(ctx context.Context, post *postmap.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := e.converter.Convert(post.Content)
	if err != nil {
		return fmt.Errorf("converting post %s: %w", post.ID, err)
	}

	content, err := FormatPost(post, body)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(e.tempDir(), 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(e.tempDir(), e.fileName(post)), content, 0644)
}

func (e *Exporter) fileName(post *postmap.Post) string {
	slug := Slugify(post.Title)
	if slug == "" {
		slug = Slugify(post.ID)
	}
	if slug == "" {
		slug = "post"
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.used[slug]++
	if n := e.used[slug]; n > 1 {
		return fmt.Sprintf("%s-%d.md", slug, n)
	}
	return slug + ".md"
}

// Commit replaces the output directory with the saved posts.
func (e *Exporter) Commit() error {
	if err := os.MkdirAll(e.tempDir(), 0755); err != nil {
		return err
	}

	// Remove existing final directory if present
	if err := os.RemoveAll(e.finalDir()); err != nil {
		return err
	}

	return os.Rename(e.tempDir(), e.finalDir())
}

// Abort discards the saved posts.
func (e *Exporter) Abort() error {
	return os.RemoveAll(e.tempDir())
}

type frontmatter struct {
	ID        string `yaml:"id"`
	Title     string `yaml:"title"`
	Source    string `yaml:"source"`
	Connector string `yaml:"connector"`
	Status    string `yaml:"status"`
	Imported  string `yaml:"imported"`
}

// FormatPost formats a post with YAML frontmatter followed by body.
func FormatPost(post *postmap.Post, body string) ([]byte, error) {
	meta, err := yaml.Marshal(frontmatter{
		ID:        post.ID,
		Title:     post.Title,
		Source:    post.SourceURL,
		Connector: post.ConnectorID,
		Status:    string(post.Status),
		Imported:  post.CreatedAt.Format(time.DateOnly),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding frontmatter: %w", err)
	}

	var b bytes.Buffer
	b.WriteString("---\n")
	b.Write(meta)
	b.WriteString("---\n\n")
	b.WriteString(body)
	if body != "" && !strings.HasSuffix(body, "\n") {
		b.WriteByte('\n')
	}
	return b.Bytes(), nil
}

// Slugify lowercases s and joins its ASCII letters and digits with dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
		default:
			dash = true
		}
	}
	slug := b.String()
	if len(slug) > 80 {
		slug = strings.TrimRight(slug[:80], "-")
	}
	return slug
}
