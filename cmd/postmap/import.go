package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fwojciec/postmap"
	"github.com/fwojciec/postmap/bloom"
	"golang.org/x/sync/errgroup"
)

// Run executes the import command.
func (c *ImportCmd) Run(deps *Dependencies) error {
	urls := c.URLs
	if c.File != "" {
		f, err := os.Open(c.File)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", err)
			return err
		}
		fromFile, err := readURLs(f)
		f.Close()
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: reading %s: %s\n", c.File, err)
			return err
		}
		urls = append(urls, fromFile...)
	}

	urls, duplicates := bloom.Unique(urls)
	for _, u := range duplicates {
		fmt.Fprintf(deps.Stderr, "skipping duplicate URL %s\n", u)
	}
	if len(urls) == 0 {
		fmt.Fprintln(deps.Stderr, "error: no URLs given. Pass URLs as arguments or with --file.")
		return postmap.Errorf(postmap.EINVALID, "no URLs given")
	}

	concurrency := c.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	var (
		mu        sync.Mutex
		extracted int
		failed    int
	)
	report := func(ev postmap.StatusEvent) {
		mu.Lock()
		defer mu.Unlock()
		if ev.Status == postmap.StatusPostExtracted {
			extracted++
			fmt.Fprintf(deps.Stdout, "%s  %s  %s\n", ev.Status, ev.PostID, ev.URL)
			return
		}
		failed++
		if ev.Err != nil {
			fmt.Fprintf(deps.Stdout, "%s  %s  %s\n", ev.Status, ev.URL, postmap.ErrorMessage(ev.Err))
			return
		}
		fmt.Fprintf(deps.Stdout, "%s  %s\n", ev.Status, ev.URL)
	}

	g, ctx := errgroup.WithContext(deps.Ctx)
	g.SetLimit(concurrency)
	for _, u := range urls {
		g.Go(func() error {
			_, err := deps.Builder.BuildPosts(ctx, c.Connector, u, report)
			if err == nil {
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			return c.buildError(deps, u, err)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Fprintf(deps.Stdout, "Imported %d posts from %d URLs (%d failed)\n", extracted, len(urls), failed)
	if failed > 0 {
		return postmap.Errorf(postmap.EINTERNAL, "%d records failed to import", failed)
	}
	return nil
}

// buildError reports a failed build. Invalid URLs are skipped; any other
// error stops the batch.
func (c *ImportCmd) buildError(deps *Dependencies, url string, err error) error {
	switch postmap.ErrorCode(err) {
	case postmap.EINVALID:
		fmt.Fprintf(deps.Stderr, "skipping %s: %s\n", url, postmap.ErrorMessage(err))
		return nil
	case postmap.ENOTFOUND:
		fmt.Fprintf(deps.Stderr, "error: connector %q not found. Use 'postmap connectors' to see available connectors.\n", c.Connector)
		return err
	default:
		fmt.Fprintf(deps.Stderr, "error: %s: %s\n", url, postmap.ErrorMessage(err))
		return err
	}
}

// readURLs reads one URL per line, skipping blank lines and # comments.
func readURLs(r io.Reader) ([]string, error) {
	var urls []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, sc.Err()
}
