package postmap_test

import (
	"encoding/json"
	"testing"

	"github.com/fwojciec/postmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	t.Run("preserves field order", func(t *testing.T) {
		t.Parallel()

		var r postmap.Record
		err := json.Unmarshal([]byte(`{"zeta":"1","alpha":"2","mid":"3"}`), &r)

		require.NoError(t, err)
		require.Len(t, r.Fields, 3)
		assert.Equal(t, "zeta", r.Fields[0].Name)
		assert.Equal(t, "alpha", r.Fields[1].Name)
		assert.Equal(t, "mid", r.Fields[2].Name)
	})

	t.Run("wraps scalars in a list", func(t *testing.T) {
		t.Parallel()

		var r postmap.Record
		err := json.Unmarshal([]byte(`{"title":"Hello","tags":["a","b"]}`), &r)

		require.NoError(t, err)
		title, ok := r.Get("title")
		require.True(t, ok)
		assert.Equal(t, []string{"Hello"}, title)
		tags, _ := r.Get("tags")
		assert.Equal(t, []string{"a", "b"}, tags)
	})

	t.Run("keeps JSON text for non-string values", func(t *testing.T) {
		t.Parallel()

		var r postmap.Record
		err := json.Unmarshal([]byte(`{"price":12.5,"flags":[true,null,3]}`), &r)

		require.NoError(t, err)
		price, _ := r.Get("price")
		assert.Equal(t, []string{"12.5"}, price)
		flags, _ := r.Get("flags")
		assert.Equal(t, []string{"true", "", "3"}, flags)
	})

	t.Run("decodes null as empty list", func(t *testing.T) {
		t.Parallel()

		var r postmap.Record
		err := json.Unmarshal([]byte(`{"image/_alt":null}`), &r)

		require.NoError(t, err)
		values, ok := r.Get("image/_alt")
		assert.True(t, ok)
		assert.Empty(t, values)
	})

	t.Run("rejects non-object input", func(t *testing.T) {
		t.Parallel()

		var r postmap.Record
		err := json.Unmarshal([]byte(`["a"]`), &r)

		require.Error(t, err)
	})
}

func TestRecord_MarshalJSON(t *testing.T) {
	t.Parallel()

	r := postmap.NewRecord(
		postmap.Field{Name: "b", Values: []string{"1"}},
		postmap.Field{Name: "a", Values: nil},
	)

	data, err := json.Marshal(r)

	require.NoError(t, err)
	assert.Equal(t, `{"b":["1"],"a":[]}`, string(data))
}

func TestRecord_Set(t *testing.T) {
	t.Parallel()

	var r postmap.Record
	r.Set("a", "1")
	r.Set("b", "2")
	r.Set("a", "3")

	require.Equal(t, 2, r.Len())
	a, _ := r.Get("a")
	assert.Equal(t, []string{"3"}, a)
	assert.Equal(t, "a", r.Fields[0].Name)
}

func TestExtractionResult_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	body := `{
		"results": [{"title": "First", "photo": "http://x/1.jpg"}],
		"outputProperties": [
			{"name": "title", "type": "STRING"},
			{"name": "photo", "type": "IMAGE"}
		]
	}`

	var result postmap.ExtractionResult
	require.NoError(t, json.Unmarshal([]byte(body), &result))

	require.Len(t, result.Results, 1)
	assert.Equal(t, postmap.PropertyString, result.PropertyType("title"))
	assert.Equal(t, postmap.PropertyImage, result.PropertyType("photo"))
	assert.Equal(t, postmap.PropertyType(""), result.PropertyType("missing"))
}

func TestNewArticleResult(t *testing.T) {
	t.Parallel()

	t.Run("includes lead image", func(t *testing.T) {
		t.Parallel()

		result := postmap.NewArticleResult("Flat in Mitte", "<p>Two rooms</p>", "https://cdn.example.com/lead.jpg")

		require.Len(t, result.Results, 1)
		rec := result.Results[0]
		title, _ := rec.Get(postmap.ArticleTitle)
		assert.Equal(t, []string{"Flat in Mitte"}, title)
		image, ok := rec.Get(postmap.ArticleImage)
		require.True(t, ok)
		assert.Equal(t, []string{"https://cdn.example.com/lead.jpg"}, image)
		assert.Equal(t, postmap.PropertyImage, result.PropertyType(postmap.ArticleImage))
	})

	t.Run("omits empty image", func(t *testing.T) {
		t.Parallel()

		result := postmap.NewArticleResult("Title", "<p>Body</p>", "")

		rec := result.Results[0]
		assert.Equal(t, 2, rec.Len())
		_, ok := rec.Get(postmap.ArticleImage)
		assert.False(t, ok)
	})
}
