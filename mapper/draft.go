package mapper

import "strings"

// Separators used when accumulating values into a draft.
const (
	TitleSeparator   = ", "
	ContentSeparator = "\n"
)

// Draft accumulates the title and content of a post being built.
// A separator is written only between non-empty accumulations.
type Draft struct {
	ID string

	title   strings.Builder
	content strings.Builder
}

// NewDraft returns an empty draft for the post with the given ID.
func NewDraft(id string) *Draft {
	return &Draft{ID: id}
}

// AppendTitle appends s to the title.
func (d *Draft) AppendTitle(s string) {
	appendValue(&d.title, TitleSeparator, s)
}

// AppendContent appends s to the content.
func (d *Draft) AppendContent(s string) {
	appendValue(&d.content, ContentSeparator, s)
}

// Title returns the accumulated title.
func (d *Draft) Title() string {
	return d.title.String()
}

// Content returns the accumulated content.
func (d *Draft) Content() string {
	return d.content.String()
}

func appendValue(b *strings.Builder, sep, s string) {
	if b.Len() > 0 {
		b.WriteString(sep)
	}
	b.WriteString(s)
}
