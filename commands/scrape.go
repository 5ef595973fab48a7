package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/c360studio/facultyatlas/classify"
	"github.com/c360studio/facultyatlas/config"
	"github.com/c360studio/facultyatlas/department"
	"github.com/c360studio/facultyatlas/discovery"
	"github.com/c360studio/facultyatlas/enrich"
	"github.com/c360studio/facultyatlas/export"
	"github.com/c360studio/facultyatlas/extract"
	"github.com/c360studio/facultyatlas/fetch"
	"github.com/c360studio/facultyatlas/graph"
	"github.com/c360studio/facultyatlas/metrics"
	"github.com/c360studio/facultyatlas/scraper"
	"github.com/c360studio/facultyatlas/search"
	"github.com/c360studio/facultyatlas/store"
)

// scrapeOptions are the scrape subcommand's flags.
type scrapeOptions struct {
	baseURL     string
	department  string
	maxFaculty  int
	outputPath  string
	exportDir   string
	format      string
	metricsAddr string
	useBrowser  bool
	enrich      bool
	noExport    bool
}

func newScrapeCmd(root *rootOptions) *cobra.Command {
	opts := &scrapeOptions{}

	cmd := &cobra.Command{
		Use:   "scrape <university>",
		Short: "Scrape a university's faculty directories",
		Long: `Scrape discovers the university's website, resolves its department
directory pages, extracts faculty records from them, and resolves the
records into the entity graph. The structured scrape result is written
as JSON, and the aggregated entity views are exported afterwards.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScrape(cmd.Context(), root, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "Skip discovery and use this base URL")
	cmd.Flags().StringVarP(&opts.department, "department", "d", "", "Only scrape departments matching this name")
	cmd.Flags().IntVar(&opts.maxFaculty, "max-faculty", 0, "Stop after this many faculty records (0 = unlimited)")
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Write the scrape result JSON here (default stdout)")
	cmd.Flags().StringVar(&opts.exportDir, "export-dir", "", "Export directory for aggregated views (default from config)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "json", "Export format: json, turtle, ntriples, jsonld")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	cmd.Flags().BoolVar(&opts.useBrowser, "use-browser", false, "Render pages in a headless browser")
	cmd.Flags().BoolVar(&opts.enrich, "enrich-profiles", false, "Fetch each faculty profile page for enrichments")
	cmd.Flags().BoolVar(&opts.noExport, "no-export", false, "Skip exporting aggregated views")

	return cmd
}

func runScrape(ctx context.Context, root *rootOptions, opts *scrapeOptions, universityName string) error {
	logger := newLogger(root.logLevel)

	cfg, err := loadConfig(root, logger)
	if err != nil {
		return err
	}
	if opts.useBrowser {
		cfg.Extract.UseBrowser = true
	}
	if opts.exportDir != "" {
		cfg.Export.Dir = opts.exportDir
	}

	format := export.Format(strings.ToLower(opts.format))
	if _, ok := export.GetFormatInfo(format); !ok {
		return fmt.Errorf("unsupported export format %q", opts.format)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := fetch.NewClient(cfg.HTTP, logger)

	cache, closeCache, err := buildPatternCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	engine := discovery.NewEngine(client, cache, logger)

	overrides := department.NewTable(logger)
	if cfg.Discovery.OverridesFile != "" {
		if err := overrides.LoadFile(cfg.Discovery.OverridesFile); err != nil {
			return fmt.Errorf("load overrides: %w", err)
		}
		if err := overrides.Watch(cfg.Discovery.OverridesFile); err != nil {
			logger.Warn("overrides watch unavailable", "error", err)
		}
		defer overrides.Close()
	}

	resolver := department.NewResolver(client, overrides, logger)
	resolver.SetProbeConcurrency(cfg.Discovery.ProbeConcurrency)

	var renderer fetch.Renderer = fetch.NewStaticRenderer(client)
	if cfg.Extract.UseBrowser {
		renderer = fetch.NewChromeRenderer(cfg.HTTP.Timeout)
	}

	searcher := search.NewRateLimitedClient(
		search.NewWebClient(client, logger),
		search.Limits{PerMinute: cfg.Search.PerMinute, PerHour: cfg.Search.PerHour},
		logger,
	)
	searcher.SetCacheTTL(cfg.Search.CacheTTL)

	extractor := extract.NewExtractor(renderer, logger)
	extractor.SetMaxPages(cfg.Extract.MaxPages)
	extractor.Classifier = classify.NewKeywordClassifier()
	extractor.Search = searcher

	st := store.NewMemoryStore(logger)
	defer st.Close()

	publisher, err := graph.Connect(cfg.NATS.URL, cfg.NATS.SubjectPrefix, logger)
	if err != nil {
		return fmt.Errorf("connect graph publisher: %w", err)
	}
	defer publisher.Close()

	m := metrics.New()
	if opts.metricsAddr != "" {
		serveMetrics(opts.metricsAddr, logger)
	}

	sc := scraper.New(hintedDiscoverer{engine: engine, baseURL: opts.baseURL}, resolver, extractor, logger)
	sc.SetDepartmentConcurrency(cfg.Extract.DepartmentConcurrency)
	sc.Store = st
	sc.Publish = publisher
	if opts.enrich {
		sc.Enrich = enrich.NewProfileEnricher(client, logger)
	}

	started := time.Now()
	result := sc.ScrapeUniversityFaculty(ctx, universityName, opts.department, opts.maxFaculty)
	recordScrapeMetrics(m, result, started)

	if err := writeResult(result, opts.outputPath); err != nil {
		return err
	}

	if !opts.noExport && result.Success {
		if err := exportViews(st, cfg.Export.Dir, format, logger); err != nil {
			return err
		}
	}

	if !result.Success {
		return fmt.Errorf("scrape failed: %s", result.Error)
	}
	return nil
}

// hintedDiscoverer threads the --base-url flag into discovery, letting
// operators skip the probing strategies when the site is already known.
type hintedDiscoverer struct {
	engine  *discovery.Engine
	baseURL string
}

func (d hintedDiscoverer) Discover(ctx context.Context, universityName, baseURL string) *discovery.UniversityPattern {
	if baseURL == "" {
		baseURL = d.baseURL
	}
	return d.engine.Discover(ctx, universityName, baseURL)
}

// buildPatternCache picks the discovery cache backend: Mongo when a URI is
// configured, the file cache when a directory is, memory otherwise.
func buildPatternCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (discovery.Cache, func(), error) {
	if cfg.Mongo.URI != "" {
		mc, err := discovery.NewMongoCache(ctx, cfg.Mongo, cfg.Discovery.CacheTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect pattern cache: %w", err)
		}
		logger.Debug("using mongo pattern cache", "database", cfg.Mongo.Database)
		return mc, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := mc.Close(closeCtx); err != nil {
				logger.Warn("pattern cache close failed", "error", err)
			}
		}, nil
	}

	if cfg.Discovery.CacheDir != "" {
		fc, err := discovery.NewFileCache(cfg.Discovery.CacheDir, cfg.Discovery.CacheTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("open pattern cache: %w", err)
		}
		return fc, func() {}, nil
	}

	return discovery.NewMemoryCache(cfg.Discovery.CacheTTL), func() {}, nil
}

// serveMetrics exposes the Prometheus registry for scrapes that run long
// enough to be worth watching.
func serveMetrics(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Warn("metrics server stopped", "error", err)
		}
	}()
}

func recordScrapeMetrics(m *metrics.Metrics, result *scraper.Result, started time.Time) {
	m.ObserveScrape(result.Success, time.Since(started).Seconds())
	m.FacultyExtracted.Add(float64(result.Metadata.TotalFaculty))
	for _, dr := range result.Metadata.DepartmentResults {
		if dr.Success {
			m.DepartmentsResolved.Inc()
		} else {
			m.DepartmentsFailed.Inc()
		}
	}
	if report := result.Metadata.Ingest; report != nil {
		m.EntitiesCreated.Add(float64(report.Created))
		m.EntitiesMerged.Add(float64(report.Merged))
		m.IngestConflicts.Add(float64(report.Conflicts))
	}
}

// writeResult emits the scrape result JSON to the given path or stdout.
func writeResult(result *scraper.Result, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

// exportViews writes one file per faculty entity in the chosen format,
// plus the combined faculty list, lab views, and relationship map as JSON.
func exportViews(st *store.MemoryStore, dir string, format export.Format, logger *slog.Logger) error {
	info, _ := export.GetFormatInfo(format)
	facultyDir := filepath.Join(dir, "faculty")
	if err := os.MkdirAll(facultyDir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	exporter := export.NewExporter(st, logger)

	for _, f := range st.ListFaculty() {
		name := strings.ReplaceAll(f.ID, ":", "-") + info.Extension
		if err := exportToFile(filepath.Join(facultyDir, name), func(w *os.File) error {
			return exporter.ExportFaculty(w, f.ID, format)
		}); err != nil {
			return err
		}
	}

	if err := exportToFile(filepath.Join(dir, "faculty.json"), exporterWriter(exporter.ExportAllFaculty)); err != nil {
		return err
	}
	if err := exportToFile(filepath.Join(dir, "labs.json"), exporterWriter(exporter.ExportAllLabs)); err != nil {
		return err
	}
	if err := exportToFile(filepath.Join(dir, "relationship_map.json"), exporterWriter(exporter.ExportRelationshipMap)); err != nil {
		return err
	}

	logger.Info("exported aggregated views", "dir", dir, "format", string(format))
	return nil
}

func exporterWriter(fn func(w io.Writer) error) func(*os.File) error {
	return func(f *os.File) error { return fn(f) }
}

func exportToFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("export %s: %w", path, err)
	}
	return f.Close()
}
