package mapper_test

import (
	"testing"

	"github.com/fwojciec/postmap/mapper"
	"github.com/stretchr/testify/assert"
)

func TestDraft(t *testing.T) {
	t.Parallel()

	t.Run("starts empty", func(t *testing.T) {
		t.Parallel()

		d := mapper.NewDraft("p-1")

		assert.Equal(t, "p-1", d.ID)
		assert.Empty(t, d.Title())
		assert.Empty(t, d.Content())
	})

	t.Run("separates title values with comma", func(t *testing.T) {
		t.Parallel()

		d := mapper.NewDraft("p-1")
		d.AppendTitle("A")
		d.AppendTitle("B")
		d.AppendTitle("C")

		assert.Equal(t, "A, B, C", d.Title())
	})

	t.Run("separates content values with newline", func(t *testing.T) {
		t.Parallel()

		d := mapper.NewDraft("p-1")
		d.AppendContent("one")
		d.AppendContent("two")

		assert.Equal(t, "one\ntwo", d.Content())
	})

	t.Run("writes no separator after an empty accumulation", func(t *testing.T) {
		t.Parallel()

		d := mapper.NewDraft("p-1")
		d.AppendTitle("")
		d.AppendTitle("A")

		assert.Equal(t, "A", d.Title())
	})
}
