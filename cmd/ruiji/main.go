// Package main is the ruiji CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/ruiji/internal/cli"
	"github.com/hyperjump/ruiji/internal/config"
	"github.com/hyperjump/ruiji/internal/dataset"
	"github.com/hyperjump/ruiji/internal/indexer"
	"github.com/hyperjump/ruiji/internal/models"
	"github.com/hyperjump/ruiji/internal/server"
	"github.com/hyperjump/ruiji/internal/vector"
	"github.com/hyperjump/ruiji/internal/watcher"
	"github.com/hyperjump/ruiji/pkg/utils"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/ruiji/config.yaml"
	defaultServerURL  = "http://localhost:8000"
)

// loadConfig loads config from path, then .env and the process environment on top.
// When path is the default and config.yaml exists in the current directory, that file
// is used instead. A missing default config is not an error: defaults plus environment
// are enough to run. Returns the config and the path actually loaded ("" for none).
func loadConfig(path string) (*config.Config, string, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, "", fmt.Errorf("failed to load .env: %w", err)
		}
	}

	resolved := path
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				resolved = fallback
			}
		}
	}

	var cfg *config.Config
	if _, err := os.Stat(resolved); err != nil && path == defaultConfigPath && resolved == path {
		cfg = &config.Config{}
		config.ApplyDefaults(cfg)
		resolved = ""
	} else {
		cfg, err = config.Load(resolved)
		if err != nil {
			return nil, "", err
		}
	}
	if err := config.ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, "", err
	}
	return cfg, resolved, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "load":
		runLoad()
	case "search":
		runSearch()
	case "ask":
		runAsk()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("ruiji version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup loads config and builds a logger; it exits on failure.
func setup(configPath string, debug bool) (*config.Config, string, *zap.Logger) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return cfg, resolved, logger
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, logger := setup(*configPath, *debug)
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("backend", cfg.Vector.Backend),
		zap.String("dataset", cfg.Dataset.Path))

	components, err := initializeComponents(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if w := newDatasetWatcher(cfg, components, logger); w != nil {
		if err := w.Start(watchCtx); err != nil {
			logger.Warn("dataset watcher not started", zap.Error(err))
		} else {
			defer w.Stop()
		}
	}

	srv := server.NewServer(components.Retriever, components.Counselor, components.Indexer, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// newDatasetWatcher returns a watcher that reloads the flat index when the dataset file
// changes, or nil when watching is off or does not apply.
func newDatasetWatcher(cfg *config.Config, c *Components, logger *zap.Logger) *watcher.Watcher {
	if !cfg.Dataset.Watch || cfg.Dataset.Path == "" {
		return nil
	}
	if c.Backend.Type() != vector.TypeFlat {
		logger.Info("dataset watch ignored for persistent backend", zap.String("backend", c.Backend.Type()))
		return nil
	}
	return watcher.NewWatcher(cfg.Dataset.Path, func(path string) {
		report, err := c.Indexer.Reload(context.Background(), path)
		if err != nil {
			logger.Warn("dataset reload failed", zap.String("path", path), zap.Error(err))
			return
		}
		logger.Info("dataset reloaded",
			zap.String("path", path),
			zap.Int("loaded", report.Loaded),
			zap.Duration("duration", report.Duration))
	}, watcher.WithLogger(logger))
}

// buildQuery joins positional args so multi-word queries work with or without quoting.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves flags that follow the positional arguments to the front, since
// flag.Parse stops at the first non-flag argument.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func parseFormat(s string) cli.OutputFormat {
	format, err := cli.ParseOutputFormat(s)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return format
}

func printQueryUsage(fs *flag.FlagSet, name, what string) {
	fmt.Fprintf(fs.Output(), "Usage: ruiji %s [flags] <query>\n\n%s\n\n", name, what)
	fs.PrintDefaults()
}

// queryCommand parses the shared flags of search and ask.
type queryCommand struct {
	configPath string
	serverURL  string
	format     cli.OutputFormat
	request    models.QueryRequest
}

func parseQueryCommand(name, what string, args []string) queryCommand {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = run in-process)")
	k := fs.Int("k", 0, "number of similar examples (0 = configured default)")
	output := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() { printQueryUsage(fs, name, what) }
	_ = fs.Parse(argsReorder(args))

	q := buildQuery(fs.Args())
	if q == "" {
		fs.Usage()
		os.Exit(1)
	}
	return queryCommand{
		configPath: *configPath,
		serverURL:  *serverURL,
		format:     parseFormat(*output),
		request:    models.QueryRequest{Query: q, K: *k},
	}
}

// direct builds in-process components and loads the configured dataset when needed.
func direct(ctx context.Context, configPath string) (*config.Config, *Components, *zap.Logger) {
	cfg, _, logger := setup(configPath, false)
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	return cfg, components, logger
}

func directRetrieve(ctx context.Context, cfg *config.Config, c *Components, req *models.QueryRequest) ([]models.SimilarExample, error) {
	if err := req.Validate(cfg.Search.DefaultK, cfg.Search.MaxK); err != nil {
		return nil, err
	}
	if cfg.Dataset.Path != "" {
		if err := c.Retriever.EnsureLoaded(ctx, c.Indexer.LazyLoader(cfg.Dataset.Path)); err != nil {
			return nil, err
		}
	}
	results, err := c.Retriever.Search(ctx, req.Query, req.K)
	if err != nil {
		return nil, err
	}
	return models.ToSimilarExamples(results), nil
}

func runSearch() {
	cmd := parseQueryCommand("search", "Find the stored examples most similar to the query.", os.Args[2:])
	var response models.SearchResponse
	if cmd.serverURL != "" {
		if err := postJSON(cmd.serverURL+"/api/v1/search", cmd.request, &response); err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		ctx := context.Background()
		cfg, components, logger := direct(ctx, cmd.configPath)
		defer logger.Sync()
		defer components.Close()
		start := time.Now()
		examples, err := directRetrieve(ctx, cfg, components, &cmd.request)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		response = models.SearchResponse{
			Query:           cmd.request.Query,
			SimilarExamples: examples,
			QueryTime:       time.Since(start).Milliseconds(),
		}
	}
	if err := cli.WriteSearchResults(os.Stdout, &response, cmd.format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runAsk() {
	cmd := parseQueryCommand("ask", "Draft a counseling response conditioned on similar examples.", os.Args[2:])
	var response models.QueryResponse
	if cmd.serverURL != "" {
		if err := postJSON(cmd.serverURL+"/api/v1/query", cmd.request, &response); err != nil {
			fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		ctx := context.Background()
		cfg, components, logger := direct(ctx, cmd.configPath)
		defer logger.Sync()
		defer components.Close()
		examples, err := directRetrieve(ctx, cfg, components, &cmd.request)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
			os.Exit(1)
		}
		response = models.QueryResponse{
			Response:        components.Counselor.Respond(ctx, cmd.request.Query, examples),
			SimilarExamples: examples,
		}
	}
	if err := cli.WriteAnswer(os.Stdout, &response, cmd.format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runLoad() {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL to send records to (empty = load the configured backend directly)")
	table := fs.String("table", "", "table name for SQLite datasets (default from config)")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(argsReorder(os.Args[2:]))
	format := parseFormat(*output)

	if fs.NArg() < 1 {
		fmt.Println("Usage: ruiji load [flags] <file.csv|file.xlsx|file.db>")
		os.Exit(1)
	}
	path := fs.Arg(0)
	if !dataset.Supported(path) {
		fmt.Fprintf(os.Stderr, "Unsupported dataset format: %s\n", path)
		os.Exit(1)
	}

	var report *indexer.Report
	if *serverURL != "" {
		records, err := dataset.NewReader(*table).Read(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Read failed: %v\n", err)
			os.Exit(1)
		}
		start := time.Now()
		var loaded models.LoadResponse
		if err := postJSON(*serverURL+"/api/v1/records", records, &loaded); err != nil {
			fmt.Fprintf(os.Stderr, "Load failed: %v\n", err)
			os.Exit(1)
		}
		report = &indexer.Report{Path: path, Total: len(records), Loaded: loaded.Loaded, Batches: 1, Duration: time.Since(start)}
	} else {
		ctx := context.Background()
		cfg, _, logger := setup(*configPath, false)
		defer logger.Sync()
		if *table != "" {
			cfg.Dataset.Table = *table
		}
		components, err := initializeComponents(ctx, cfg, logger)
		if err != nil {
			logger.Fatal("Failed to initialize", zap.Error(err))
		}
		defer components.Close()
		if components.Backend.Type() == vector.TypeFlat {
			logger.Warn("flat backend is in-process; loaded records are discarded on exit")
		}
		report, err = components.Indexer.LoadFile(ctx, path)
		if err != nil {
			if report == nil || report.Loaded == 0 {
				fmt.Fprintf(os.Stderr, "Load failed: %v\n", err)
				os.Exit(1)
			}
			logger.Warn("some batches failed", zap.Error(err))
		}
	}
	if err := cli.WriteLoadReport(os.Stdout, report, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = inspect the configured backend directly)")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	format := parseFormat(*output)

	var status models.StatusResponse
	if *serverURL != "" {
		if err := getJSON(*serverURL+"/api/v1/status", &status); err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		ctx := context.Background()
		_, components, logger := direct(ctx, *configPath)
		defer logger.Sync()
		defer components.Close()
		size, err := components.Retriever.Size(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = models.StatusResponse{
			Status:     "ok",
			Backend:    components.Retriever.BackendType(),
			Ready:      components.Retriever.Ready(),
			Size:       size,
			Dimensions: components.Retriever.Dimensions(),
		}
	}
	if err := cli.WriteStatus(os.Stdout, &status, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

var httpClient = &http.Client{Timeout: 2 * time.Minute}

func postJSON(url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := httpClient.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	return decodeResponse(resp, out)
}

func getJSON(url string, out any) error {
	resp, err := httpClient.Get(url)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(b, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func printUsage() {
	fmt.Println(`ruiji - similarity retrieval for counseling responses

Usage:
  ruiji server [flags]           Start the HTTP server
  ruiji load [flags] <file>      Load a CSV, XLSX or SQLite dataset into the index
  ruiji search [flags] <query>   Find similar examples
  ruiji ask [flags] <query>      Draft a response from similar examples
  ruiji status [flags]           Show backend status
  ruiji version                  Show version
  ruiji help                     Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/ruiji/config.yaml)
  --debug            Enable debug logging

Search/Ask Flags:
  --config string    Config file path (direct mode)
  --server string    Server URL (default: http://localhost:8000). Use --server "" to run in-process.
  --k int            Number of similar examples (default from config)
  --output string    Output format: text or json (default: text)

Load Flags:
  --config string    Config file path
  --server string    Send records to a running server instead of the configured backend
  --table string     Table name for SQLite datasets
  --output string    Output format: text or json

Status Flags:
  --config string    Config file path (direct mode)
  --server string    Server URL (default: http://localhost:8000). Use --server "" for direct mode.
  --output string    Output format: text or json

Environment:
  VECTOR_DB_TYPE, QDRANT_URL, QDRANT_API_KEY, PINECONE_API_KEY, PINECONE_INDEX_NAME,
  PINECONE_NAMESPACE, EMBEDDING_MODEL_SOURCE, EMBEDDING_MODEL, OPENAI_API_KEY,
  GOOGLE_API_KEY, OPENAI_MODEL, DATASET_PATH. A .env file in the working directory is read first.

Examples:
  ruiji server
  ruiji load data/train.csv
  ruiji search "I can't sleep before exams"
  ruiji ask --k 3 I feel lonely at university
  ruiji status --output json`)
}
