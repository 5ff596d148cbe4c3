package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ramonehamilton/commander-companion/internal/cards"
)

var (
	// ErrNoCatalog is returned when the catalog cache holds no cards.
	ErrNoCatalog = errors.New("card catalog is empty")

	// ErrCommanderNotFound is returned when the requested commander is not
	// in the commander-legal catalog.
	ErrCommanderNotFound = errors.New("commander not found in catalog")
)

// Service provides access to the catalog cache.
type Service struct {
	db *DB
}

// NewService creates a new storage service.
func NewService(db *DB) *Service {
	return &Service{db: db}
}

// DB returns the underlying database wrapper.
func (s *Service) DB() *DB {
	return s.db
}

// SaveCards upserts a batch of cards inside a single transaction.
func (s *Service) SaveCards(ctx context.Context, batch []cards.Card) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := s.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO cards (name, color_identity, mana_value, type_line, text, keywords)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			color_identity = excluded.color_identity,
			mana_value = excluded.mana_value,
			type_line = excluded.type_line,
			text = excluded.text,
			keywords = excluded.keywords
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare card upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range batch {
		card := &batch[i]
		if card.Name == "" {
			continue
		}
		_, err := stmt.ExecContext(ctx,
			card.Name, card.ColorIdentity, card.ManaValue,
			card.TypeLine, card.Text, joinKeywords(card.Keywords),
		)
		if err != nil {
			return fmt.Errorf("failed to save card %q: %w", card.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit card batch: %w", err)
	}

	return nil
}

// GetCardByName retrieves a card by its exact name.
// Returns (nil, nil) when the card is not in the catalog.
func (s *Service) GetCardByName(ctx context.Context, name string) (*cards.Card, error) {
	query := `
		SELECT name, color_identity, mana_value, type_line, text, keywords
		FROM cards
		WHERE name = ?
	`

	var card cards.Card
	var keywords string
	err := s.db.Conn().QueryRowContext(ctx, query, name).Scan(
		&card.Name, &card.ColorIdentity, &card.ManaValue,
		&card.TypeLine, &card.Text, &keywords,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card %q: %w", name, err)
	}

	card.Keywords = splitKeywords(keywords)
	return &card, nil
}

// GetCommander looks up a commander by exact name and distinguishes an
// absent commander from an unpopulated catalog.
func (s *Service) GetCommander(ctx context.Context, name string) (*cards.Card, error) {
	card, err := s.GetCardByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if card != nil {
		return card, nil
	}

	count, err := s.CountCards(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrNoCatalog
	}
	return nil, fmt.Errorf("%w: %q", ErrCommanderNotFound, name)
}

// GetAllCards retrieves the full catalog ordered by name.
func (s *Service) GetAllCards(ctx context.Context) ([]cards.Card, error) {
	query := `
		SELECT name, color_identity, mana_value, type_line, text, keywords
		FROM cards
		ORDER BY name ASC
	`

	rows, err := s.db.Conn().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var catalog []cards.Card
	for rows.Next() {
		var card cards.Card
		var keywords string
		err := rows.Scan(
			&card.Name, &card.ColorIdentity, &card.ManaValue,
			&card.TypeLine, &card.Text, &keywords,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		card.Keywords = splitKeywords(keywords)
		catalog = append(catalog, card)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cards: %w", err)
	}

	return catalog, nil
}

// CountCards returns the number of cards in the catalog.
func (s *Service) CountCards(ctx context.Context) (int, error) {
	var count int
	err := s.db.Conn().QueryRowContext(ctx, "SELECT COUNT(*) FROM cards").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count cards: %w", err)
	}
	return count, nil
}

// GetMeta retrieves a catalog metadata value. Returns "" when the key is absent.
func (s *Service) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.Conn().QueryRowContext(ctx,
		"SELECT value FROM catalog_meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get meta %q: %w", key, err)
	}
	return value, nil
}

// SetMeta stores a catalog metadata value.
func (s *Service) SetMeta(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO catalog_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	if _, err := s.db.Conn().ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set meta %q: %w", key, err)
	}
	return nil
}

// joinKeywords flattens a keyword list for storage. Magic keywords never
// contain commas, so a comma join round-trips safely.
func joinKeywords(keywords []string) string {
	return strings.Join(keywords, ",")
}

// splitKeywords restores a keyword list from its stored form.
func splitKeywords(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
