package main

import (
	"fmt"

	"github.com/fwojciec/postmap"
)

// Run executes the export command.
func (c *ExportCmd) Run(deps *Dependencies) error {
	n, err := exportPosts(deps, deps.NewExporter(c.Dir), c.Connector)
	if err != nil {
		return err
	}
	fmt.Fprintf(deps.Stdout, "Exported %d posts to %s\n", n, c.Dir)
	return nil
}

// Run executes the wxr command.
func (c *WXRCmd) Run(deps *Dependencies) error {
	n, err := exportPosts(deps, deps.NewWXRWriter(c.File), c.Connector)
	if err != nil {
		return err
	}
	fmt.Fprintf(deps.Stdout, "Exported %d posts to %s\n", n, c.File)
	return nil
}

// exportPosts saves every matching post and commits the export. Nothing is
// written if any post fails.
func exportPosts(deps *Dependencies, exp postmap.PostExporter, connectorID string) (int, error) {
	filter := postmap.PostFilter{}
	if connectorID != "" {
		filter.ConnectorID = &connectorID
	}

	posts, err := deps.Posts.FindPosts(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", postmap.ErrorMessage(err))
		return 0, err
	}

	for _, p := range posts {
		if err := exp.Save(deps.Ctx, p); err != nil {
			_ = exp.Abort()
			fmt.Fprintf(deps.Stderr, "error: exporting post %s: %s\n", p.ID, postmap.ErrorMessage(err))
			return 0, err
		}
	}

	if err := exp.Commit(); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", postmap.ErrorMessage(err))
		return 0, err
	}
	return len(posts), nil
}
