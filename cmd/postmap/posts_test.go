package main_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fwojciec/postmap"
	main "github.com/fwojciec/postmap/cmd/postmap"
	"github.com/fwojciec/postmap/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePost() *postmap.Post {
	return &postmap.Post{
		ID:          "post-1",
		ConnectorID: "flats",
		SourceURL:   "https://example.com/flat/1",
		Status:      postmap.PostDraft,
		Title:       "Flat in Mitte",
		Content:     "<p>Two rooms</p>",
		CreatedAt:   time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC),
	}
}

func TestPostsCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("lists posts with filter", func(t *testing.T) {
		t.Parallel()

		var got postmap.PostFilter
		posts := &mock.PostService{
			FindPostsFn: func(_ context.Context, filter postmap.PostFilter) ([]*postmap.Post, error) {
				got = filter
				return []*postmap.Post{samplePost(), {ID: "post-2", Status: postmap.PostDraft, SourceURL: "https://example.com/flat/2"}}, nil
			},
		}

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{Ctx: context.Background(), Stdout: stdout, Stderr: &bytes.Buffer{}, Posts: posts}

		err := (&main.PostsCmd{Connector: "flats", Status: "draft", Limit: 10}).Run(deps)

		require.NoError(t, err)
		require.NotNil(t, got.ConnectorID)
		assert.Equal(t, "flats", *got.ConnectorID)
		require.NotNil(t, got.Status)
		assert.Equal(t, postmap.PostDraft, *got.Status)
		assert.Equal(t, 10, got.Limit)
		assert.Contains(t, stdout.String(), "post-1")
		assert.Contains(t, stdout.String(), "Flat in Mitte")
		assert.Contains(t, stdout.String(), "(untitled)")
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		t.Parallel()

		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{Ctx: context.Background(), Stdout: &bytes.Buffer{}, Stderr: stderr, Posts: &mock.PostService{}}

		err := (&main.PostsCmd{Status: "trash"}).Run(deps)

		assert.Equal(t, postmap.EINVALID, postmap.ErrorCode(err))
		assert.Contains(t, stderr.String(), "trash")
	})

	t.Run("shows helpful message when no posts exist", func(t *testing.T) {
		t.Parallel()

		posts := &mock.PostService{
			FindPostsFn: func(_ context.Context, _ postmap.PostFilter) ([]*postmap.Post, error) {
				return nil, nil
			},
		}

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{Ctx: context.Background(), Stdout: stdout, Stderr: &bytes.Buffer{}, Posts: posts}

		err := (&main.PostsCmd{}).Run(deps)

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "postmap import")
	})
}

func TestShowCmd_Run(t *testing.T) {
	t.Parallel()

	posts := &mock.PostService{
		FindPostByIDFn: func(_ context.Context, id string) (*postmap.Post, error) {
			if id == "post-1" {
				return samplePost(), nil
			}
			return nil, postmap.Errorf(postmap.ENOTFOUND, "post not found")
		},
	}

	t.Run("prints post with HTML content", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{Ctx: context.Background(), Stdout: stdout, Stderr: &bytes.Buffer{}, Posts: posts}

		err := (&main.ShowCmd{ID: "post-1"}).Run(deps)

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "Title:     Flat in Mitte")
		assert.Contains(t, stdout.String(), "Imported:  2026-03-04 10:00:00")
		assert.Contains(t, stdout.String(), "<p>Two rooms</p>")
	})

	t.Run("converts to markdown", func(t *testing.T) {
		t.Parallel()

		converter := &mock.Converter{
			ConvertFn: func(content string) (string, error) {
				return "Two rooms", nil
			},
		}

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{Ctx: context.Background(), Stdout: stdout, Stderr: &bytes.Buffer{}, Posts: posts, Converter: converter}

		err := (&main.ShowCmd{ID: "post-1", Markdown: true}).Run(deps)

		require.NoError(t, err)
		assert.NotContains(t, stdout.String(), "<p>")
		assert.Contains(t, stdout.String(), "Two rooms")
	})

	t.Run("reports missing post", func(t *testing.T) {
		t.Parallel()

		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{Ctx: context.Background(), Stdout: &bytes.Buffer{}, Stderr: stderr, Posts: posts}

		err := (&main.ShowCmd{ID: "nope"}).Run(deps)

		assert.Equal(t, postmap.ENOTFOUND, postmap.ErrorCode(err))
		assert.Contains(t, stderr.String(), "postmap posts")
	})
}

func TestDeleteCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("deletes post when --force is set", func(t *testing.T) {
		t.Parallel()

		var deletedID string
		posts := &mock.PostService{
			DeletePostFn: func(_ context.Context, id string) error {
				deletedID = id
				return nil
			},
		}

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{Ctx: context.Background(), Stdout: stdout, Stderr: &bytes.Buffer{}, Posts: posts}

		err := (&main.DeleteCmd{ID: "post-1", Force: true}).Run(deps)

		require.NoError(t, err)
		assert.Equal(t, "post-1", deletedID)
		assert.Contains(t, stdout.String(), "Deleted post post-1")
	})

	t.Run("requires --force flag", func(t *testing.T) {
		t.Parallel()

		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{Ctx: context.Background(), Stdout: &bytes.Buffer{}, Stderr: stderr, Posts: &mock.PostService{}}

		err := (&main.DeleteCmd{ID: "post-1"}).Run(deps)

		require.Error(t, err)
		assert.Contains(t, stderr.String(), "--force")
	})

	t.Run("reports storage errors", func(t *testing.T) {
		t.Parallel()

		posts := &mock.PostService{
			DeletePostFn: func(_ context.Context, _ string) error {
				return errors.New("database is locked")
			},
		}

		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{Ctx: context.Background(), Stdout: &bytes.Buffer{}, Stderr: stderr, Posts: posts}

		err := (&main.DeleteCmd{ID: "post-1", Force: true}).Run(deps)

		require.Error(t, err)
		assert.Contains(t, stderr.String(), "database is locked")
	})
}
