package mapper_test

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"testing"

	"github.com/fwojciec/postmap"
	"github.com/fwojciec/postmap/mapper"
	"github.com/fwojciec/postmap/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testURL = "https://example.com/articles/1"

// memoryPosts returns a PostService backed by a map, plus the map itself.
func memoryPosts() (*mock.PostService, map[string]*postmap.Post) {
	store := make(map[string]*postmap.Post)
	next := 0
	svc := &mock.PostService{
		CreatePostFn: func(_ context.Context, p *postmap.Post) error {
			next++
			p.ID = fmt.Sprintf("post-%d", next)
			cp := *p
			store[p.ID] = &cp
			return nil
		},
		UpdatePostFn: func(_ context.Context, id string, upd postmap.PostUpdate) (*postmap.Post, error) {
			p, ok := store[id]
			if !ok {
				return nil, postmap.Errorf(postmap.ENOTFOUND, "post not found")
			}
			if upd.Title != nil {
				p.Title = *upd.Title
			}
			if upd.Content != nil {
				p.Content = *upd.Content
			}
			return p, nil
		},
		DeletePostFn: func(_ context.Context, id string) error {
			if _, ok := store[id]; !ok {
				return postmap.Errorf(postmap.ENOTFOUND, "post not found")
			}
			delete(store, id)
			return nil
		},
		FindPostsFn: func(_ context.Context, _ postmap.PostFilter) ([]*postmap.Post, error) {
			var posts []*postmap.Post
			for _, p := range store {
				posts = append(posts, p)
			}
			sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })
			return posts, nil
		},
	}
	return svc, store
}

// fragmentImages returns an ImageLoader that renders a fragment naming the
// image file and alt text, recording every call.
func fragmentImages(calls *[]string) *mock.ImageLoader {
	return &mock.ImageLoader{
		SideloadFn: func(_ context.Context, imageURL, postID, alt string) (string, error) {
			*calls = append(*calls, imageURL)
			if alt == "" {
				return fmt.Sprintf("<sideloaded-fragment-for-%s>", path.Base(imageURL)), nil
			}
			return fmt.Sprintf("<sideloaded-fragment-for-%s-with-alt-%s>", path.Base(imageURL), alt), nil
		},
	}
}

func staticExtraction(result *postmap.ExtractionResult) *mock.ExtractionService {
	return &mock.ExtractionService{
		ExtractFn: func(context.Context, string, string) (*postmap.ExtractionResult, error) {
			return result, nil
		},
	}
}

func record(fields ...postmap.Field) postmap.Record {
	return postmap.NewRecord(fields...)
}

func field(name string, values ...string) postmap.Field {
	return postmap.Field{Name: name, Values: values}
}

// collect returns a StatusFunc that appends events to the returned slice.
func collect() (postmap.StatusFunc, *[]postmap.StatusEvent) {
	var events []postmap.StatusEvent
	return func(ev postmap.StatusEvent) {
		events = append(events, ev)
	}, &events
}

func newMapper(t *testing.T, mapping postmap.FieldMapping, ext postmap.ExtractionService, posts postmap.PostService, images postmap.ImageLoader) *mapper.Mapper {
	t.Helper()
	m, err := mapper.New("conn-1", mapping, ext, posts, images)
	require.NoError(t, err)
	return m
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("requires connector ID", func(t *testing.T) {
		t.Parallel()

		posts, _ := memoryPosts()
		_, err := mapper.New("", postmap.FieldMapping{}, staticExtraction(nil), posts, &mock.ImageLoader{})

		require.Error(t, err)
		assert.Equal(t, postmap.EINVALID, postmap.ErrorCode(err))
	})

	t.Run("requires services", func(t *testing.T) {
		t.Parallel()

		_, err := mapper.New("conn-1", postmap.FieldMapping{}, nil, nil, nil)

		require.Error(t, err)
		assert.Equal(t, postmap.EINVALID, postmap.ErrorCode(err))
	})
}

func TestMapper_BuildPost(t *testing.T) {
	t.Parallel()

	t.Run("reports POST_EXTRACTED once per record with distinct IDs", func(t *testing.T) {
		t.Parallel()

		posts, store := memoryPosts()
		result := &postmap.ExtractionResult{
			Results: []postmap.Record{
				record(field("title", "First")),
				record(field("title", "Second")),
				record(field("title", "Third")),
			},
			OutputProperties: []postmap.OutputProperty{{Name: "title", Type: postmap.PropertyString}},
		}
		var calls []string
		m := newMapper(t, postmap.FieldMapping{"title": postmap.RolePostTitle},
			staticExtraction(result), posts, fragmentImages(&calls))
		fn, events := collect()

		ok, err := m.BuildPost(context.Background(), testURL, fn)

		require.NoError(t, err)
		assert.True(t, ok)
		require.Len(t, *events, 3)
		ids := make(map[string]bool)
		for _, ev := range *events {
			assert.Equal(t, postmap.StatusPostExtracted, ev.Status)
			assert.Equal(t, testURL, ev.URL)
			assert.NotEmpty(t, ev.PostID)
			ids[ev.PostID] = true
		}
		assert.Len(t, ids, 3)
		assert.Equal(t, "First", store[(*events)[0].PostID].Title)
		assert.Equal(t, "Third", store[(*events)[2].PostID].Title)
	})

	t.Run("passes connector ID and URL to the extraction service", func(t *testing.T) {
		t.Parallel()

		posts, _ := memoryPosts()
		var gotConnector, gotURL string
		ext := &mock.ExtractionService{
			ExtractFn: func(_ context.Context, connectorID, url string) (*postmap.ExtractionResult, error) {
				gotConnector, gotURL = connectorID, url
				return nil, nil
			},
		}
		m := newMapper(t, postmap.FieldMapping{}, ext, posts, &mock.ImageLoader{})

		_, err := m.BuildPost(context.Background(), testURL, nil)

		require.NoError(t, err)
		assert.Equal(t, "conn-1", gotConnector)
		assert.Equal(t, testURL, gotURL)
	})

	t.Run("reports only EXTRACTION_FAILED when extraction returns nil", func(t *testing.T) {
		t.Parallel()

		posts, store := memoryPosts()
		m := newMapper(t, postmap.FieldMapping{}, staticExtraction(nil), posts, &mock.ImageLoader{})
		fn, events := collect()

		ok, err := m.BuildPost(context.Background(), testURL, fn)

		require.NoError(t, err)
		assert.False(t, ok)
		require.Len(t, *events, 1)
		assert.Equal(t, postmap.StatusExtractionFailed, (*events)[0].Status)
		assert.Empty(t, store)
	})

	t.Run("reports EXTRACTION_FAILED with cause when extraction errors", func(t *testing.T) {
		t.Parallel()

		posts, _ := memoryPosts()
		cause := errors.New("api unavailable")
		ext := &mock.ExtractionService{
			ExtractFn: func(context.Context, string, string) (*postmap.ExtractionResult, error) {
				return nil, cause
			},
		}
		m := newMapper(t, postmap.FieldMapping{}, ext, posts, &mock.ImageLoader{})
		fn, events := collect()

		ok, err := m.BuildPost(context.Background(), testURL, fn)

		require.NoError(t, err)
		assert.False(t, ok)
		require.Len(t, *events, 1)
		assert.Equal(t, postmap.StatusExtractionFailed, (*events)[0].Status)
		assert.ErrorIs(t, (*events)[0].Err, cause)
	})

	t.Run("reports only EXTRACTED_DATA_NULL for empty results", func(t *testing.T) {
		t.Parallel()

		posts, store := memoryPosts()
		m := newMapper(t, postmap.FieldMapping{},
			staticExtraction(&postmap.ExtractionResult{Results: []postmap.Record{}}), posts, &mock.ImageLoader{})
		fn, events := collect()

		ok, err := m.BuildPost(context.Background(), testURL, fn)

		require.NoError(t, err)
		assert.False(t, ok)
		require.Len(t, *events, 1)
		assert.Equal(t, postmap.StatusExtractedDataNull, (*events)[0].Status)
		assert.Empty(t, store)
	})

	t.Run("joins multiple title values with comma", func(t *testing.T) {
		t.Parallel()

		posts, store := memoryPosts()
		result := &postmap.ExtractionResult{
			Results:          []postmap.Record{record(field("title", "A", "B"))},
			OutputProperties: []postmap.OutputProperty{{Name: "title", Type: postmap.PropertyString}},
		}
		m := newMapper(t, postmap.FieldMapping{"title": postmap.RolePostTitle},
			staticExtraction(result), posts, &mock.ImageLoader{})
		fn, events := collect()

		ok, err := m.BuildPost(context.Background(), testURL, fn)

		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "A, B", store[(*events)[0].PostID].Title)
	})

	t.Run("joins content values and image fragments with newline", func(t *testing.T) {
		t.Parallel()

		posts, store := memoryPosts()
		result := &postmap.ExtractionResult{
			Results: []postmap.Record{record(
				field("body", "Hello"),
				field("photo", "http://x/1.jpg"),
				field("image/_alt", "cap"),
			)},
			OutputProperties: []postmap.OutputProperty{
				{Name: "body", Type: postmap.PropertyString},
				{Name: "photo", Type: postmap.PropertyImage},
			},
		}
		var calls []string
		m := newMapper(t, postmap.FieldMapping{
			"body":  postmap.RolePostContent,
			"photo": postmap.RolePostContent,
		}, staticExtraction(result), posts, fragmentImages(&calls))
		fn, events := collect()

		ok, err := m.BuildPost(context.Background(), testURL, fn)

		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "Hello\n<sideloaded-fragment-for-1.jpg-with-alt-cap>", store[(*events)[0].PostID].Content)
	})

	t.Run("side-loads images under the draft post ID", func(t *testing.T) {
		t.Parallel()

		posts, _ := memoryPosts()
		result := &postmap.ExtractionResult{
			Results:          []postmap.Record{record(field("photo", "http://x/1.jpg"))},
			OutputProperties: []postmap.OutputProperty{{Name: "photo", Type: postmap.PropertyImage}},
		}
		var owner string
		images := &mock.ImageLoader{
			SideloadFn: func(_ context.Context, _, postID, _ string) (string, error) {
				owner = postID
				return "<img>", nil
			},
		}
		m := newMapper(t, postmap.FieldMapping{"photo": postmap.RolePostContent},
			staticExtraction(result), posts, images)
		fn, events := collect()

		_, err := m.BuildPost(context.Background(), testURL, fn)

		require.NoError(t, err)
		assert.Equal(t, (*events)[0].PostID, owner)
	})

	t.Run("pairs alt text by index", func(t *testing.T) {
		t.Parallel()

		posts, store := memoryPosts()
		result := &postmap.ExtractionResult{
			Results: []postmap.Record{record(
				field("gallery", "http://x/1.jpg", "http://x/2.jpg", "http://x/3.jpg"),
				field("image/_alt", "one", "two"),
			)},
			OutputProperties: []postmap.OutputProperty{{Name: "gallery", Type: postmap.PropertyImage}},
		}
		var calls []string
		m := newMapper(t, postmap.FieldMapping{"gallery": postmap.RolePostContent},
			staticExtraction(result), posts, fragmentImages(&calls))
		fn, events := collect()

		_, err := m.BuildPost(context.Background(), testURL, fn)

		require.NoError(t, err)
		assert.Equal(t,
			"<sideloaded-fragment-for-1.jpg-with-alt-one>\n"+
				"<sideloaded-fragment-for-2.jpg-with-alt-two>\n"+
				"<sideloaded-fragment-for-3.jpg>",
			store[(*events)[0].PostID].Content)
	})

	t.Run("prefers image alt over field-specific alt", func(t *testing.T) {
		t.Parallel()

		posts, store := memoryPosts()
		result := &postmap.ExtractionResult{
			Results: []postmap.Record{record(
				field("photo", "http://x/1.jpg"),
				field("photo/_alt", "field-alt"),
				field("image/_alt", "cap"),
			)},
			OutputProperties: []postmap.OutputProperty{{Name: "photo", Type: postmap.PropertyImage}},
		}
		var calls []string
		m := newMapper(t, postmap.FieldMapping{"photo": postmap.RolePostContent},
			staticExtraction(result), posts, fragmentImages(&calls))
		fn, events := collect()

		_, err := m.BuildPost(context.Background(), testURL, fn)

		require.NoError(t, err)
		assert.Equal(t, "<sideloaded-fragment-for-1.jpg-with-alt-cap>", store[(*events)[0].PostID].Content)
	})

	t.Run("falls back to field-specific alt", func(t *testing.T) {
		t.Parallel()

		posts, store := memoryPosts()
		result := &postmap.ExtractionResult{
			Results: []postmap.Record{record(
				field("photo", "http://x/1.jpg"),
				field("photo/_alt", "field-alt"),
			)},
			OutputProperties: []postmap.OutputProperty{{Name: "photo", Type: postmap.PropertyImage}},
		}
		var calls []string
		m := newMapper(t, postmap.FieldMapping{"photo": postmap.RolePostContent},
			staticExtraction(result), posts, fragmentImages(&calls))
		fn, events := collect()

		_, err := m.BuildPost(context.Background(), testURL, fn)

		require.NoError(t, err)
		assert.Equal(t, "<sideloaded-fragment-for-1.jpg-with-alt-field-alt>", store[(*events)[0].PostID].Content)
	})

	t.Run("skips images that fail to side-load", func(t *testing.T) {
		t.Parallel()

		posts, store := memoryPosts()
		result := &postmap.ExtractionResult{
			Results: []postmap.Record{record(
				field("photo", "http://x/broken.jpg", "http://x/2.jpg"),
				field("body", "after"),
			)},
			OutputProperties: []postmap.OutputProperty{
				{Name: "photo", Type: postmap.PropertyImage},
				{Name: "body", Type: postmap.PropertyString},
			},
		}
		images := &mock.ImageLoader{
			SideloadFn: func(_ context.Context, imageURL, _, _ string) (string, error) {
				if path.Base(imageURL) == "broken.jpg" {
					return "", errors.New("404")
				}
				return "<img 2>", nil
			},
		}
		m := newMapper(t, postmap.FieldMapping{
			"photo": postmap.RolePostContent,
			"body":  postmap.RolePostContent,
		}, staticExtraction(result), posts, images)
		fn, events := collect()

		ok, err := m.BuildPost(context.Background(), testURL, fn)

		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "<img 2>\nafter", store[(*events)[0].PostID].Content)
	})

	t.Run("import_only side-loads images without embedding them", func(t *testing.T) {
		t.Parallel()

		posts, store := memoryPosts()
		result := &postmap.ExtractionResult{
			Results: []postmap.Record{record(
				field("title", "T"),
				field("thumb", "http://x/a.jpg", "http://x/b.jpg"),
			)},
			OutputProperties: []postmap.OutputProperty{
				{Name: "title", Type: postmap.PropertyString},
				{Name: "thumb", Type: postmap.PropertyImage},
			},
		}
		var calls []string
		m := newMapper(t, postmap.FieldMapping{
			"title": postmap.RolePostTitle,
			"thumb": postmap.RoleImportOnly,
		}, staticExtraction(result), posts, fragmentImages(&calls))
		fn, events := collect()

		ok, err := m.BuildPost(context.Background(), testURL, fn)

		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []string{"http://x/a.jpg", "http://x/b.jpg"}, calls)
		assert.Empty(t, store[(*events)[0].PostID].Content)
	})

	t.Run("ignores role and type combinations without meaning", func(t *testing.T) {
		t.Parallel()

		posts, store := memoryPosts()
		result := &postmap.ExtractionResult{
			Results: []postmap.Record{record(
				field("photo", "http://x/1.jpg"),
				field("caption", "text"),
				field("undeclared", "value"),
				field("odd", "value"),
			)},
			OutputProperties: []postmap.OutputProperty{
				{Name: "photo", Type: postmap.PropertyImage},
				{Name: "caption", Type: postmap.PropertyString},
				{Name: "odd", Type: postmap.PropertyString},
			},
		}
		var calls []string
		m := newMapper(t, postmap.FieldMapping{
			"photo":      postmap.RolePostTitle,
			"caption":    postmap.RoleImportOnly,
			"undeclared": postmap.RolePostContent,
			"odd":        postmap.Role("post_excerpt"),
		}, staticExtraction(result), posts, fragmentImages(&calls))
		fn, events := collect()

		ok, err := m.BuildPost(context.Background(), testURL, fn)

		require.NoError(t, err)
		assert.True(t, ok)
		assert.Empty(t, calls)
		post := store[(*events)[0].PostID]
		assert.Empty(t, post.Title)
		assert.Empty(t, post.Content)
	})

	t.Run("unmapped fields have no effect", func(t *testing.T) {
		t.Parallel()

		posts, store := memoryPosts()
		result := &postmap.ExtractionResult{
			Results: []postmap.Record{record(
				field("title", "Kept"),
				field("extra", "ignored"),
				field("banner", "http://x/banner.jpg"),
			)},
			OutputProperties: []postmap.OutputProperty{
				{Name: "title", Type: postmap.PropertyString},
				{Name: "extra", Type: postmap.PropertyString},
				{Name: "banner", Type: postmap.PropertyImage},
			},
		}
		var calls []string
		m := newMapper(t, postmap.FieldMapping{"title": postmap.RolePostTitle},
			staticExtraction(result), posts, fragmentImages(&calls))
		fn, events := collect()

		_, err := m.BuildPost(context.Background(), testURL, fn)

		require.NoError(t, err)
		post := store[(*events)[0].PostID]
		assert.Equal(t, "Kept", post.Title)
		assert.Empty(t, post.Content)
		assert.Empty(t, calls)
	})

	t.Run("creates drafts with placeholder naming the source URL", func(t *testing.T) {
		t.Parallel()

		var created *postmap.Post
		posts, _ := memoryPosts()
		create := posts.CreatePostFn
		posts.CreatePostFn = func(ctx context.Context, p *postmap.Post) error {
			cp := *p
			created = &cp
			return create(ctx, p)
		}
		result := &postmap.ExtractionResult{Results: []postmap.Record{record()}}
		m := newMapper(t, postmap.FieldMapping{}, staticExtraction(result), posts, &mock.ImageLoader{})

		_, err := m.BuildPost(context.Background(), testURL, nil)

		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, postmap.PostDraft, created.Status)
		assert.Equal(t, mapper.PlaceholderTitle, created.Title)
		assert.Contains(t, created.Content, testURL)
		assert.Equal(t, "conn-1", created.ConnectorID)
		assert.Equal(t, testURL, created.SourceURL)
	})

	t.Run("stops without side-loading when post creation fails", func(t *testing.T) {
		t.Parallel()

		creates := 0
		posts := &mock.PostService{
			CreatePostFn: func(context.Context, *postmap.Post) error {
				creates++
				return errors.New("insert failed")
			},
		}
		result := &postmap.ExtractionResult{
			Results: []postmap.Record{
				record(field("photo", "http://x/1.jpg")),
				record(field("photo", "http://x/2.jpg")),
			},
			OutputProperties: []postmap.OutputProperty{{Name: "photo", Type: postmap.PropertyImage}},
		}
		var calls []string
		m := newMapper(t, postmap.FieldMapping{"photo": postmap.RolePostContent},
			staticExtraction(result), posts, fragmentImages(&calls))
		fn, events := collect()

		ok, err := m.BuildPost(context.Background(), testURL, fn)

		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 1, creates)
		assert.Empty(t, calls)
		require.Len(t, *events, 1)
		assert.Equal(t, postmap.StatusPostInsertFailed, (*events)[0].Status)
	})

	t.Run("deletes the draft and stops when update fails", func(t *testing.T) {
		t.Parallel()

		posts, _ := memoryPosts()
		update := posts.UpdatePostFn
		updates := 0
		posts.UpdatePostFn = func(ctx context.Context, id string, upd postmap.PostUpdate) (*postmap.Post, error) {
			updates++
			if updates == 2 {
				return nil, errors.New("update failed")
			}
			return update(ctx, id, upd)
		}
		var deleted []string
		del := posts.DeletePostFn
		posts.DeletePostFn = func(ctx context.Context, id string) error {
			deleted = append(deleted, id)
			return del(ctx, id)
		}
		result := &postmap.ExtractionResult{
			Results: []postmap.Record{
				record(field("title", "One")),
				record(field("title", "Two")),
				record(field("title", "Three")),
			},
			OutputProperties: []postmap.OutputProperty{{Name: "title", Type: postmap.PropertyString}},
		}
		m := newMapper(t, postmap.FieldMapping{"title": postmap.RolePostTitle},
			staticExtraction(result), posts, &mock.ImageLoader{})
		fn, events := collect()

		ok, err := m.BuildPost(context.Background(), testURL, fn)

		require.NoError(t, err)
		assert.False(t, ok)
		require.Len(t, *events, 2)
		assert.Equal(t, postmap.StatusPostExtracted, (*events)[0].Status)
		assert.Equal(t, postmap.StatusPostInsertFailed, (*events)[1].Status)
		assert.Empty(t, (*events)[1].PostID)
		assert.Equal(t, []string{"post-2"}, deleted)
		assert.Equal(t, 2, updates, "third record must not be attempted")

		listed, err := posts.FindPosts(context.Background(), postmap.PostFilter{})
		require.NoError(t, err)
		require.Len(t, listed, 1)
		assert.Equal(t, (*events)[0].PostID, listed[0].ID)
		assert.Equal(t, "One", listed[0].Title)
	})

	t.Run("keeps update error when draft deletion also fails", func(t *testing.T) {
		t.Parallel()

		updateErr := errors.New("update failed")
		posts, _ := memoryPosts()
		posts.UpdatePostFn = func(context.Context, string, postmap.PostUpdate) (*postmap.Post, error) {
			return nil, updateErr
		}
		posts.DeletePostFn = func(context.Context, string) error {
			return errors.New("delete failed")
		}
		result := &postmap.ExtractionResult{Results: []postmap.Record{record()}}
		m := newMapper(t, postmap.FieldMapping{}, staticExtraction(result), posts, &mock.ImageLoader{})
		fn, events := collect()

		ok, err := m.BuildPost(context.Background(), testURL, fn)

		require.NoError(t, err)
		assert.False(t, ok)
		require.Len(t, *events, 1)
		assert.ErrorIs(t, (*events)[0].Err, updateErr)
		assert.Contains(t, (*events)[0].Err.Error(), "delete failed")
	})

	t.Run("returns EINVALID before any external call for a bad URL", func(t *testing.T) {
		t.Parallel()

		extracted := false
		ext := &mock.ExtractionService{
			ExtractFn: func(context.Context, string, string) (*postmap.ExtractionResult, error) {
				extracted = true
				return nil, nil
			},
		}
		posts, _ := memoryPosts()
		m := newMapper(t, postmap.FieldMapping{}, ext, posts, &mock.ImageLoader{})
		fn, events := collect()

		for _, raw := range []string{"", "not a url", "/relative/path", "http://"} {
			ok, err := m.BuildPost(context.Background(), raw, fn)

			require.Error(t, err, raw)
			assert.Equal(t, postmap.EINVALID, postmap.ErrorCode(err))
			assert.False(t, ok)
		}
		assert.False(t, extracted)
		assert.Empty(t, *events)
	})

	t.Run("accepts a nil status func", func(t *testing.T) {
		t.Parallel()

		posts, store := memoryPosts()
		result := &postmap.ExtractionResult{
			Results:          []postmap.Record{record(field("title", "T"))},
			OutputProperties: []postmap.OutputProperty{{Name: "title", Type: postmap.PropertyString}},
		}
		m := newMapper(t, postmap.FieldMapping{"title": postmap.RolePostTitle},
			staticExtraction(result), posts, &mock.ImageLoader{})

		ok, err := m.BuildPost(context.Background(), testURL, nil)

		require.NoError(t, err)
		assert.True(t, ok)
		assert.Len(t, store, 1)
	})

	t.Run("is unaffected by later changes to the caller's mapping", func(t *testing.T) {
		t.Parallel()

		posts, store := memoryPosts()
		result := &postmap.ExtractionResult{
			Results:          []postmap.Record{record(field("title", "T"))},
			OutputProperties: []postmap.OutputProperty{{Name: "title", Type: postmap.PropertyString}},
		}
		mapping := postmap.FieldMapping{"title": postmap.RolePostTitle}
		m := newMapper(t, mapping, staticExtraction(result), posts, &mock.ImageLoader{})
		delete(mapping, "title")
		fn, events := collect()

		_, err := m.BuildPost(context.Background(), testURL, fn)

		require.NoError(t, err)
		assert.Equal(t, "T", store[(*events)[0].PostID].Title)
	})
}
