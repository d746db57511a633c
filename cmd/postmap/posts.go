package main

import (
	"fmt"

	"github.com/fwojciec/postmap"
)

// Run executes the posts command.
func (c *PostsCmd) Run(deps *Dependencies) error {
	filter := postmap.PostFilter{Limit: c.Limit}
	if c.Connector != "" {
		filter.ConnectorID = &c.Connector
	}
	if c.Status != "" {
		status := postmap.PostStatus(c.Status)
		if status != postmap.PostDraft && status != postmap.PostPublish {
			fmt.Fprintf(deps.Stderr, "error: unknown status %q. Use draft or publish.\n", c.Status)
			return postmap.Errorf(postmap.EINVALID, "unknown status %q", c.Status)
		}
		filter.Status = &status
	}

	posts, err := deps.Posts.FindPosts(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", postmap.ErrorMessage(err))
		return err
	}

	if len(posts) == 0 {
		fmt.Fprintln(deps.Stdout, "No posts found. Use 'postmap import' to create some.")
		return nil
	}

	for _, p := range posts {
		title := p.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(deps.Stdout, "%s  %-7s  %s  %s\n", p.ID, p.Status, title, p.SourceURL)
	}
	return nil
}

// Run executes the show command.
func (c *ShowCmd) Run(deps *Dependencies) error {
	post, err := deps.Posts.FindPostByID(deps.Ctx, c.ID)
	if err != nil {
		if postmap.ErrorCode(err) == postmap.ENOTFOUND {
			fmt.Fprintf(deps.Stderr, "error: post %q not found. Use 'postmap posts' to see available posts.\n", c.ID)
		} else {
			fmt.Fprintf(deps.Stderr, "error: %s\n", postmap.ErrorMessage(err))
		}
		return err
	}

	content := post.Content
	if c.Markdown {
		if content, err = deps.Converter.Convert(post.Content); err != nil {
			fmt.Fprintf(deps.Stderr, "error: converting content: %s\n", postmap.ErrorMessage(err))
			return err
		}
	}

	fmt.Fprintf(deps.Stdout, "Title:     %s\n", post.Title)
	fmt.Fprintf(deps.Stdout, "Source:    %s\n", post.SourceURL)
	fmt.Fprintf(deps.Stdout, "Connector: %s\n", post.ConnectorID)
	fmt.Fprintf(deps.Stdout, "Status:    %s\n", post.Status)
	fmt.Fprintf(deps.Stdout, "Imported:  %s\n\n", post.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintln(deps.Stdout, content)
	return nil
}

// Run executes the delete command.
func (c *DeleteCmd) Run(deps *Dependencies) error {
	if !c.Force {
		fmt.Fprintf(deps.Stderr, "error: use --force to confirm deletion\n")
		return postmap.Errorf(postmap.EINVALID, "use --force to confirm deletion")
	}

	if err := deps.Posts.DeletePost(deps.Ctx, c.ID); err != nil {
		if postmap.ErrorCode(err) == postmap.ENOTFOUND {
			fmt.Fprintf(deps.Stderr, "error: post %q not found. Use 'postmap posts' to see available posts.\n", c.ID)
		} else {
			fmt.Fprintf(deps.Stderr, "error: %s\n", postmap.ErrorMessage(err))
		}
		return err
	}

	fmt.Fprintf(deps.Stdout, "Deleted post %s\n", c.ID)
	return nil
}
