// Command commander-companion recommends cards for a Commander deck by
// combining the local card catalog, the user's collection, and a strategy
// inferred by a local Ollama model.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ramonehamilton/commander-companion/internal/cards"
	"github.com/ramonehamilton/commander-companion/internal/cards/importer"
	"github.com/ramonehamilton/commander-companion/internal/cards/mtgjson"
	"github.com/ramonehamilton/commander-companion/internal/collection"
	"github.com/ramonehamilton/commander-companion/internal/config"
	"github.com/ramonehamilton/commander-companion/internal/deck"
	"github.com/ramonehamilton/commander-companion/internal/display"
	"github.com/ramonehamilton/commander-companion/internal/llm"
	"github.com/ramonehamilton/commander-companion/internal/storage"
)

var (
	commanderName = flag.String("commander", "", "Name of the commander to build around (required)")

	// Data configuration flags
	collectionFile = flag.String("collection-file", "", "Path to Moxfield collection CSV")
	dataDir        = flag.String("data-dir", "", "Directory for card data and the catalog cache")
	refreshCatalog = flag.Bool("refresh-catalog", false, "Force re-download and re-import of the card catalog")

	// Ollama configuration flags
	ollamaEndpoint = flag.String("ollama-endpoint", "", "Ollama API endpoint (default from config)")
	ollamaModel    = flag.String("ollama-model", "", "Ollama model name (default from config)")
	ollamaTimeout  = flag.Duration("ollama-timeout", 0, "Timeout for the strategy request (e.g., 30s)")

	// Application mode flags
	watchMode      = flag.Bool("watch", false, "Keep running and re-select when the collection file changes")
	debugMode      = flag.Bool("debug-mode", false, "Enable verbose debug logging")
	debugModeShort = flag.Bool("d", false, "Enable debug logging (shorthand for -debug-mode)")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyFlagOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(cfg.App.DebugMode)
	slog.SetDefault(logger)

	if *commanderName == "" {
		flag.Usage()
		return fmt.Errorf("-commander is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dir, err := cfg.DataDir()
	if err != nil {
		return err
	}

	// Catalog cache
	dbConfig := storage.DefaultConfig(filepath.Join(dir, "catalog.db"))
	dbConfig.AutoMigrate = true
	db, err := storage.Open(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to open catalog cache: %w", err)
	}
	defer func() { _ = db.Close() }()
	svc := storage.NewService(db)

	maxAge, err := cfg.GetCatalogMaxAge()
	if err != nil {
		return err
	}
	impOptions := importer.DefaultOptions(dir)
	impOptions.MaxAge = maxAge
	impOptions.ForceRefresh = *refreshCatalog
	imp := importer.New(mtgjson.NewClient(), svc, impOptions, logger)

	if _, err := imp.EnsureCatalog(ctx); err != nil {
		return fmt.Errorf("failed to prepare card catalog: %w", err)
	}

	catalog, err := svc.GetAllCards(ctx)
	if err != nil {
		return err
	}
	if len(catalog) == 0 {
		return fmt.Errorf("%w; run with -refresh-catalog", storage.ErrNoCatalog)
	}
	logger.Debug("catalog loaded", "cards", len(catalog))

	// Commander must exist in the catalog before anything else runs.
	commander, err := svc.GetCommander(ctx, *commanderName)
	if err != nil {
		if errors.Is(err, storage.ErrCommanderNotFound) {
			return fmt.Errorf("%w (names are case-sensitive exact matches)", err)
		}
		return err
	}
	fmt.Printf("Commander: %s | Colors: %s\n", commander.Name, commander.ColorIdentity)

	// Collection
	owned, err := loadCollection(cfg, logger)
	if err != nil {
		return err
	}

	// Strategy
	timeout, err := cfg.GetOllamaTimeout()
	if err != nil {
		return err
	}
	ollama := llm.NewOllamaClient(&llm.OllamaConfig{
		Endpoint:    cfg.Ollama.Endpoint,
		Model:       cfg.Ollama.Model,
		Timeout:     timeout,
		Temperature: cfg.Ollama.Temperature,
		NumPredict:  cfg.Ollama.NumPredict,
	})
	resolver := llm.NewStrategyResolver(ollama, logger)

	out := display.NewResultsDisplayer(os.Stdout)

	command, err := resolveStrategy(ctx, ollama, resolver, commander, logger)
	if err != nil {
		// No command means selection does not run; that is not a crash.
		out.DisplayNoStrategy(commander.Name, err)
		return strategyFailure(*watchMode)
	}

	result := deck.Select(catalog, command.Keywords, commander.ColorIdentity, commander.Name, owned)
	out.DisplayResult(commander.Name, command.Strategy, result)

	if !*watchMode {
		return nil
	}

	return watchCollection(ctx, cfg, logger, out, catalog, command, commander)
}

// resolveStrategy confirms the model server is reachable before asking it
// for a strategy command, so an unreachable Ollama produces a pointed
// diagnostic instead of a bare transport error.
func resolveStrategy(
	ctx context.Context,
	ollama *llm.OllamaClient,
	resolver *llm.StrategyResolver,
	commander *cards.Card,
	logger *slog.Logger,
) (*llm.StrategyCommand, error) {
	version, err := ollama.Version(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot reach Ollama (is it running?): %w", err)
	}
	logger.Debug("ollama reachable", "version", version)

	return resolver.Resolve(ctx, commander.Name, commander.ColorIdentity)
}

// strategyFailure maps a failed strategy resolution to the process outcome.
// One-shot runs fail hard; watch mode reports the failure and exits clean.
func strategyFailure(watch bool) error {
	if watch {
		return nil
	}
	return fmt.Errorf("no strategy produced")
}

// watchCollection re-runs selection whenever the collection file changes.
func watchCollection(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	out *display.ResultsDisplayer,
	catalog []cards.Card,
	command *llm.StrategyCommand,
	commander *cards.Card,
) error {
	if cfg.Data.CollectionFile == "" {
		return fmt.Errorf("-watch requires a collection file")
	}

	fmt.Printf("\nWatching %s for changes (Ctrl+C to stop)...\n", cfg.Data.CollectionFile)

	watcher := collection.NewWatcher(cfg.Data.CollectionFile, logger)
	errCh := make(chan error, 1)
	go func() { errCh <- watcher.Start(ctx) }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		case owned := <-watcher.Updates():
			result := deck.Select(catalog, command.Keywords, commander.ColorIdentity, commander.Name, owned)
			out.DisplayResult(commander.Name, command.Strategy, result)
		}
	}
}

// loadCollection loads the owned set, tolerating an absent file.
func loadCollection(cfg *config.Config, logger *slog.Logger) (collection.OwnedSet, error) {
	if cfg.Data.CollectionFile == "" {
		logger.Debug("no collection file configured, continuing with empty collection")
		return collection.OwnedSet{}, nil
	}

	owned, err := collection.LoadFile(cfg.Data.CollectionFile)
	if err != nil {
		if errors.Is(err, collection.ErrNoCollection) {
			fmt.Fprintf(os.Stderr, "Warning: collection file not found at %s; continuing without it.\n", cfg.Data.CollectionFile)
			return collection.OwnedSet{}, nil
		}
		return nil, err
	}

	logger.Debug("collection loaded", "owned", owned.Len())
	return owned, nil
}

// applyFlagOverrides layers explicit flags over the loaded config.
func applyFlagOverrides(cfg *config.Config) {
	if *collectionFile != "" {
		cfg.Data.CollectionFile = *collectionFile
	}
	if *dataDir != "" {
		cfg.Data.Dir = *dataDir
	}
	if *ollamaEndpoint != "" {
		cfg.Ollama.Endpoint = *ollamaEndpoint
	}
	if *ollamaModel != "" {
		cfg.Ollama.Model = *ollamaModel
	}
	if *ollamaTimeout != 0 {
		cfg.Ollama.Timeout = ollamaTimeout.String()
	}
	if *debugMode || *debugModeShort {
		cfg.App.DebugMode = true
	}
}

// newLogger builds the application logger. Diagnostics go to stderr so
// recommendation output stays clean on stdout.
func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
