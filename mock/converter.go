package mock

import "github.com/fwojciec/hal"

var _ hal.Converter = (*Converter)(nil)

// Converter is a mock implementation of hal.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
