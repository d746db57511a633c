package mock

import "github.com/fwojciec/postmap"

var _ postmap.Converter = (*Converter)(nil)

// Converter is a mock implementation of postmap.Converter.
type Converter struct {
	ConvertFn func(content string) (string, error)
}

func (c *Converter) Convert(content string) (string, error) {
	return c.ConvertFn(content)
}
