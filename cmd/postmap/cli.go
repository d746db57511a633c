package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/fwojciec/postmap"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	Connectors  postmap.ConnectorService
	Posts       postmap.PostService
	Attachments postmap.AttachmentService
	Builder     postmap.PostBuilder
	Converter   postmap.Converter

	// NewExporter returns the markdown exporter writing into dir.
	NewExporter func(dir string) postmap.PostExporter
	// NewWXRWriter returns the WXR exporter writing to path.
	NewWXRWriter func(path string) postmap.PostExporter

	// Serve runs the HTTP API on addr until ctx is done.
	Serve func(ctx context.Context, addr string) error
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config  string `short:"C" type:"path" help:"Config file (default: ./postmap.yaml if present)"`
	DB      string `type:"path" help:"Database path (overrides config)"`
	Verbose bool   `short:"v" help:"Log debug output"`

	Import     ImportCmd     `cmd:"" help:"Import posts from one or more URLs"`
	Posts      PostsCmd      `cmd:"" help:"List imported posts"`
	Show       ShowCmd       `cmd:"" help:"Show a post"`
	Delete     DeleteCmd     `cmd:"" help:"Delete a post and its attachments"`
	Connectors ConnectorsCmd `cmd:"" help:"List configured connectors"`
	Export     ExportCmd     `cmd:"" help:"Export posts as markdown files"`
	WXR        WXRCmd        `cmd:"" name:"wxr" help:"Export posts as a WordPress WXR file"`
	Serve      ServeCmd      `cmd:"" help:"Serve the HTTP API"`
}

// ImportCmd is the "import" subcommand.
type ImportCmd struct {
	URLs        []string `arg:"" optional:"" help:"Source URLs"`
	Connector   string   `short:"c" required:"" help:"Connector ID"`
	File        string   `short:"f" type:"existingfile" help:"Read additional URLs from file, one per line"`
	Concurrency int      `short:"n" default:"1" help:"Number of URLs processed at once"`
}

// PostsCmd is the "posts" subcommand.
type PostsCmd struct {
	Connector string `short:"c" help:"Only posts of this connector"`
	Status    string `short:"s" help:"Only posts with this status (draft or publish)"`
	Limit     int    `short:"l" default:"0" help:"Maximum number of posts"`
}

// ShowCmd is the "show" subcommand.
type ShowCmd struct {
	ID       string `arg:"" help:"Post ID"`
	Markdown bool   `short:"m" help:"Print content as markdown"`
}

// DeleteCmd is the "delete" subcommand.
type DeleteCmd struct {
	ID    string `arg:"" help:"Post ID"`
	Force bool   `help:"Confirm deletion"`
}

// ConnectorsCmd is the "connectors" subcommand.
type ConnectorsCmd struct{}

// ExportCmd is the "export" subcommand.
type ExportCmd struct {
	Dir       string `arg:"" type:"path" help:"Output directory"`
	Connector string `short:"c" help:"Only posts of this connector"`
}

// WXRCmd is the "wxr" subcommand.
type WXRCmd struct {
	File      string `arg:"" type:"path" help:"Output file"`
	Connector string `short:"c" help:"Only posts of this connector"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr string `help:"Listen address (overrides config)"`
}
