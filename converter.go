package postmap

// Converter converts post content to Markdown.
type Converter interface {
	// Convert transforms post content, HTML fragments separated by
	// newlines, into Markdown.
	Convert(content string) (string, error)
}
