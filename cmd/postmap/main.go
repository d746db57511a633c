package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/postmap"
	"github.com/fwojciec/postmap/etree"
	"github.com/fwojciec/postmap/fs"
	"github.com/fwojciec/postmap/gemini"
	"github.com/fwojciec/postmap/goquery"
	"github.com/fwojciec/postmap/htmltomarkdown"
	pmhttp "github.com/fwojciec/postmap/http"
	"github.com/fwojciec/postmap/importio"
	"github.com/fwojciec/postmap/mapper"
	"github.com/fwojciec/postmap/media"
	pmprom "github.com/fwojciec/postmap/prometheus"
	"github.com/fwojciec/postmap/readability"
	"github.com/fwojciec/postmap/rod"
	pmslog "github.com/fwojciec/postmap/slog"
	"github.com/fwojciec/postmap/sqlite"
	"github.com/fwojciec/postmap/trafilatura"
	pmviper "github.com/fwojciec/postmap/viper"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/genai"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A missing .env file is fine.
	_ = godotenv.Load()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Config is loaded from the --config file and the environment.
	Config *pmviper.Config

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Registry collects the metrics of this run.
	Registry *prometheus.Registry

	closers []io.Closer
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{Registry: prometheus.NewRegistry()}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	var errs []error
	for i := len(m.closers) - 1; i >= 0; i-- {
		errs = append(errs, m.closers[i].Close())
	}
	m.closers = nil
	if m.DB != nil {
		errs = append(errs, m.DB.Close())
		m.DB = nil
	}
	return errors.Join(errs...)
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("postmap"),
		kong.Description("Import web page records as blog posts"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'postmap --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	deps.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if m.Config == nil {
		if m.Config, err = pmviper.Load(cli.Config); err != nil {
			return err
		}
	}
	if cli.DB != "" {
		m.Config.DB = cli.DB
	}

	if err := m.openDB(ctx, stderr); err != nil {
		return err
	}
	defer m.Close()

	connectors := sqlite.NewConnectorService(m.DB)
	posts := sqlite.NewPostService(m.DB)
	attachments := sqlite.NewAttachmentService(m.DB)
	deps.Connectors = connectors
	deps.Posts = posts
	deps.Attachments = attachments
	deps.Converter = htmltomarkdown.NewConverter()
	deps.NewExporter = func(dir string) postmap.PostExporter {
		return fs.NewExporter(filepath.Dir(dir), filepath.Base(dir), deps.Converter)
	}
	deps.NewWXRWriter = func(path string) postmap.PostExporter {
		return etree.NewWXRWriter(path, attachments)
	}

	switch strings.Fields(kongCtx.Command())[0] {
	case "import", "serve":
		builder, err := m.newBuilder(ctx, deps)
		if err != nil {
			return err
		}
		deps.Builder = builder
		deps.Serve = m.serve(deps)
	}

	return kongCtx.Run(deps)
}

// openDB opens the database and synchronizes configured connectors into it.
func (m *Main) openDB(ctx context.Context, stderr io.Writer) error {
	connectors, err := m.Config.AllConnectors()
	if err != nil {
		return err
	}

	m.DB = sqlite.NewDB(m.Config.DB)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set POSTMAP_DB or --db to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", m.Config.DB, err)
	}

	return syncConnectors(ctx, sqlite.NewConnectorService(m.DB), connectors)
}

// newBuilder wires the extraction providers, image side-loading and the
// logging and metrics decorators around the mapper.
func (m *Main) newBuilder(ctx context.Context, deps *Dependencies) (postmap.PostBuilder, error) {
	cfg := m.Config
	logger := deps.Logger

	metrics, err := pmprom.NewMetrics(m.Registry)
	if err != nil {
		return nil, err
	}

	httpFetcher := pmhttp.NewFetcher(pmhttp.WithUserAgent(userAgent(cfg)))
	m.closers = append(m.closers, httpFetcher)

	var pages postmap.Fetcher = httpFetcher
	if cfg.Fetch.Browser {
		browser, err := rod.NewFetcher()
		if err != nil {
			fmt.Fprintln(deps.Stderr, "Hint: Chrome or Chromium must be installed when fetch.browser is set")
			return nil, fmt.Errorf("failed to start browser: %w", err)
		}
		m.closers = append(m.closers, browser)
		pages = browser
	}
	pages = pmslog.NewLoggingFetcher(pages, logger)

	router := mapper.NewRouter(deps.Connectors)
	router.Register(postmap.ProviderImportIO, importio.NewClient(
		importio.WithBaseURL(cfg.ImportIO.BaseURL),
		importio.WithAPIKey(cfg.ImportIO.APIKey),
		importio.WithRateLimit(cfg.ImportIO.RateLimit),
	))
	router.Register(postmap.ProviderSelector, goquery.NewExtractionService(pages, deps.Connectors))
	router.Register(postmap.ProviderArticle, trafilatura.NewExtractionService(pages))
	router.Register(postmap.ProviderReadability, readability.NewExtractionService(pages))

	if cfg.Gemini.APIKey != "" {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.Gemini.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			fmt.Fprintln(deps.Stderr, "Hint: Check your GEMINI_API_KEY is valid")
			return nil, fmt.Errorf("failed to connect to Gemini API: %w", err)
		}
		svc := gemini.NewExtractionService(client, pages, deps.Connectors)
		if cfg.Gemini.Model != "" {
			svc.Model = cfg.Gemini.Model
		}
		if tokens, err := gemini.NewTokenCounter(svc.Model); err == nil {
			svc.Tokens = tokens
		} else {
			logger.Warn("token counting disabled", "model", svc.Model, "err", err)
		}
		router.Register(postmap.ProviderGemini, svc)
	}
	logger.Debug("extraction providers", "registered", joinProviders(router.Providers()))

	sideloader := media.NewSideloader(httpFetcher, fs.NewMediaStore(cfg.Media.Dir, cfg.Media.URL), deps.Attachments)
	if cfg.Media.RateLimit > 0 {
		sideloader.Limiter = media.NewDomainLimiter(cfg.Media.RateLimit, 1)
	}

	var images postmap.ImageLoader = pmslog.NewLoggingImageLoader(sideloader, logger)
	images = pmprom.NewInstrumentedImageLoader(images, metrics)

	var builder postmap.PostBuilder = &mapper.Service{
		Connectors:  deps.Connectors,
		Extractions: pmslog.NewLoggingExtractionService(router, logger),
		Posts:       deps.Posts,
		Images:      images,
	}
	builder = pmslog.NewLoggingPostBuilder(builder, logger)
	return pmprom.NewInstrumentedPostBuilder(builder, metrics), nil
}

// serve returns the function that runs the HTTP API for the serve command.
func (m *Main) serve(deps *Dependencies) func(ctx context.Context, addr string) error {
	return func(ctx context.Context, addr string) error {
		if addr == "" {
			addr = m.Config.Server.Addr
		}

		s := pmhttp.NewServer()
		s.Addr = addr
		s.MediaDir = m.Config.Media.Dir
		s.Metrics = promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
		s.Logger = deps.Logger
		s.ConnectorService = deps.Connectors
		s.PostService = deps.Posts
		s.AttachmentService = deps.Attachments
		s.PostBuilder = deps.Builder

		if err := s.Open(); err != nil {
			return err
		}
		fmt.Fprintf(deps.Stdout, "Listening on %s\n", s.URL())

		<-ctx.Done()
		return s.Close()
	}
}

func userAgent(cfg *pmviper.Config) string {
	if cfg.Fetch.UserAgent != "" {
		return cfg.Fetch.UserAgent
	}
	return pmhttp.DefaultUserAgent
}
