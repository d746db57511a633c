package main_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/fwojciec/postmap"
	main "github.com/fwojciec/postmap/cmd/postmap"
	"github.com/fwojciec/postmap/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingExporter returns a mock exporter that records saved post IDs.
func recordingExporter(saved *[]string, committed, aborted *bool, saveErr error) *mock.PostExporter {
	return &mock.PostExporter{
		SaveFn: func(_ context.Context, post *postmap.Post) error {
			if saveErr != nil {
				return saveErr
			}
			*saved = append(*saved, post.ID)
			return nil
		},
		CommitFn: func() error {
			*committed = true
			return nil
		},
		AbortFn: func() error {
			*aborted = true
			return nil
		},
	}
}

func twoPosts() *mock.PostService {
	return &mock.PostService{
		FindPostsFn: func(_ context.Context, filter postmap.PostFilter) ([]*postmap.Post, error) {
			return []*postmap.Post{{ID: "post-1"}, {ID: "post-2"}}, nil
		},
	}
}

func TestExportCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("saves all posts and commits", func(t *testing.T) {
		t.Parallel()

		var saved []string
		var committed, aborted bool
		var dir string

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: stdout,
			Stderr: &bytes.Buffer{},
			Posts:  twoPosts(),
			NewExporter: func(d string) postmap.PostExporter {
				dir = d
				return recordingExporter(&saved, &committed, &aborted, nil)
			},
		}

		err := (&main.ExportCmd{Dir: "/tmp/out"}).Run(deps)

		require.NoError(t, err)
		assert.Equal(t, "/tmp/out", dir)
		assert.Equal(t, []string{"post-1", "post-2"}, saved)
		assert.True(t, committed)
		assert.False(t, aborted)
		assert.Contains(t, stdout.String(), "Exported 2 posts to /tmp/out")
	})

	t.Run("aborts when a post fails", func(t *testing.T) {
		t.Parallel()

		var saved []string
		var committed, aborted bool

		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: &bytes.Buffer{},
			Stderr: &bytes.Buffer{},
			Posts:  twoPosts(),
			NewExporter: func(string) postmap.PostExporter {
				return recordingExporter(&saved, &committed, &aborted, errors.New("disk full"))
			},
		}

		err := (&main.ExportCmd{Dir: "/tmp/out"}).Run(deps)

		require.Error(t, err)
		assert.False(t, committed)
		assert.True(t, aborted)
	})
}

func TestWXRCmd_Run(t *testing.T) {
	t.Parallel()

	var got postmap.PostFilter
	posts := &mock.PostService{
		FindPostsFn: func(_ context.Context, filter postmap.PostFilter) ([]*postmap.Post, error) {
			got = filter
			return []*postmap.Post{{ID: "post-1"}}, nil
		},
	}

	var saved []string
	var committed, aborted bool
	var path string

	stdout := &bytes.Buffer{}
	deps := &main.Dependencies{
		Ctx:    context.Background(),
		Stdout: stdout,
		Stderr: &bytes.Buffer{},
		Posts:  posts,
		NewWXRWriter: func(p string) postmap.PostExporter {
			path = p
			return recordingExporter(&saved, &committed, &aborted, nil)
		},
	}

	err := (&main.WXRCmd{File: "/tmp/posts.xml", Connector: "flats"}).Run(deps)

	require.NoError(t, err)
	assert.Equal(t, "/tmp/posts.xml", path)
	require.NotNil(t, got.ConnectorID)
	assert.Equal(t, "flats", *got.ConnectorID)
	assert.Equal(t, []string{"post-1"}, saved)
	assert.True(t, committed)
}
