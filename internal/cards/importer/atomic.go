// Package importer loads the MTGJSON atomic card catalog into the local
// SQLite cache, keeping only Commander-legal cards.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ramonehamilton/commander-companion/internal/cards"
	"github.com/ramonehamilton/commander-companion/internal/cards/mtgjson"
	"github.com/ramonehamilton/commander-companion/internal/storage"
)

// Metadata keys recorded in the catalog cache after an import.
const (
	MetaDataVersion = "data_version"
	MetaImportedAt  = "imported_at"
)

// atomicFile is the wire shape of AtomicCards.json.
type atomicFile struct {
	Meta mtgjson.Meta            `json:"meta"`
	Data map[string][]atomicFace `json:"data"`
}

// atomicFace is a single printing-independent card face.
type atomicFace struct {
	ColorIdentity []string          `json:"colorIdentity"`
	ManaValue     float64           `json:"manaValue"`
	Type          string            `json:"type"`
	Text          string            `json:"text"`
	Keywords      []string          `json:"keywords"`
	Legalities    map[string]string `json:"legalities"`
}

// Options configures the import process.
type Options struct {
	// BatchSize is the number of cards to insert per transaction.
	BatchSize int

	// DataDir is the directory holding the downloaded bulk file.
	DataDir string

	// MaxAge is how long a cached catalog stays fresh before re-import.
	MaxAge time.Duration

	// ForceRefresh re-downloads and re-imports even if the cache is fresh.
	ForceRefresh bool
}

// DefaultOptions returns sensible default options.
func DefaultOptions(dataDir string) Options {
	return Options{
		BatchSize: 500,
		DataDir:   dataDir,
		MaxAge:    7 * 24 * time.Hour,
	}
}

// Stats describes the outcome of an import.
type Stats struct {
	TotalCards    int
	ImportedCards int
	SkippedCards  int
	DataVersion   string
	Duration      time.Duration
}

// Importer fills the catalog cache from MTGJSON data.
type Importer struct {
	client  *mtgjson.Client
	storage *storage.Service
	options Options
	logger  *slog.Logger
}

// New creates a new catalog importer.
func New(client *mtgjson.Client, svc *storage.Service, options Options, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	if options.BatchSize <= 0 {
		options.BatchSize = 500
	}
	return &Importer{
		client:  client,
		storage: svc,
		options: options,
		logger:  logger,
	}
}

// EnsureCatalog makes sure the catalog cache is populated and fresh,
// downloading and importing the bulk file only when needed.
func (imp *Importer) EnsureCatalog(ctx context.Context) (*Stats, error) {
	if !imp.options.ForceRefresh {
		fresh, err := imp.cacheIsFresh(ctx)
		if err != nil {
			return nil, err
		}
		if fresh {
			imp.logger.Debug("catalog cache is fresh, skipping import")
			return nil, nil
		}
	}

	filePath := filepath.Join(imp.options.DataDir, "AtomicCards.json")

	meta, err := imp.client.GetMeta(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check catalog version: %w", err)
	}

	cachedVersion, err := imp.storage.GetMeta(ctx, MetaDataVersion)
	if err != nil {
		return nil, err
	}

	needDownload := imp.options.ForceRefresh || cachedVersion != meta.Version
	if _, statErr := os.Stat(filePath); statErr != nil {
		needDownload = true
	}

	if needDownload {
		imp.logger.Info("downloading atomic card data", "version", meta.Version)
		if err := imp.client.DownloadAtomicCards(ctx, filePath); err != nil {
			return nil, err
		}
	}

	return imp.ImportFile(ctx, filePath)
}

// ImportFile imports an AtomicCards.json file into the catalog cache.
func (imp *Importer) ImportFile(ctx context.Context, filePath string) (*Stats, error) {
	start := time.Now()

	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open atomic cards file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var file atomicFile
	if err := json.NewDecoder(f).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse atomic cards file: %w", err)
	}

	stats := &Stats{DataVersion: file.Meta.Version}
	batch := make([]cards.Card, 0, imp.options.BatchSize)

	for name, faces := range file.Data {
		stats.TotalCards++

		card, ok := normalizeCard(name, faces)
		if !ok {
			stats.SkippedCards++
			continue
		}

		batch = append(batch, card)
		stats.ImportedCards++

		if len(batch) >= imp.options.BatchSize {
			if err := imp.storage.SaveCards(ctx, batch); err != nil {
				return nil, err
			}
			batch = batch[:0]
		}
	}

	if err := imp.storage.SaveCards(ctx, batch); err != nil {
		return nil, err
	}

	if err := imp.storage.SetMeta(ctx, MetaDataVersion, file.Meta.Version); err != nil {
		return nil, err
	}
	if err := imp.storage.SetMeta(ctx, MetaImportedAt, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return nil, err
	}

	stats.Duration = time.Since(start)
	imp.logger.Info("catalog import complete",
		"total", stats.TotalCards,
		"imported", stats.ImportedCards,
		"skipped", stats.SkippedCards,
		"duration", stats.Duration,
	)

	return stats, nil
}

// cacheIsFresh reports whether the cached catalog is non-empty and was
// imported within MaxAge.
func (imp *Importer) cacheIsFresh(ctx context.Context) (bool, error) {
	count, err := imp.storage.CountCards(ctx)
	if err != nil {
		return false, err
	}
	if count == 0 {
		return false, nil
	}

	importedAt, err := imp.storage.GetMeta(ctx, MetaImportedAt)
	if err != nil {
		return false, err
	}
	if importedAt == "" {
		return false, nil
	}

	ts, err := time.Parse(time.RFC3339, importedAt)
	if err != nil {
		return false, nil
	}

	return time.Since(ts) <= imp.options.MaxAge, nil
}

// normalizeCard converts the first face of an atomic entry into a catalog
// card. Returns ok=false for entries that are not Commander-legal or have
// no usable face.
func normalizeCard(name string, faces []atomicFace) (cards.Card, bool) {
	if name == "" || len(faces) == 0 {
		return cards.Card{}, false
	}

	face := faces[0]
	if face.Legalities["commander"] != "Legal" {
		return cards.Card{}, false
	}

	return cards.Card{
		Name:          name,
		ColorIdentity: cards.NormalizeIdentity(face.ColorIdentity),
		ManaValue:     face.ManaValue,
		TypeLine:      face.Type,
		Text:          face.Text,
		Keywords:      face.Keywords,
	}, true
}
