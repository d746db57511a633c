package main

import (
	"fmt"

	"github.com/fwojciec/postmap"
)

// Run executes the serve command. It blocks until the context is canceled.
func (c *ServeCmd) Run(deps *Dependencies) error {
	if err := deps.Serve(deps.Ctx, c.Addr); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", postmap.ErrorMessage(err))
		return err
	}
	return nil
}
