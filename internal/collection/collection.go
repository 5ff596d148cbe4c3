// Package collection loads the user's owned-card collection from a
// Moxfield-style CSV export.
package collection

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrNoCollection is returned when the collection file does not exist.
// Callers may treat this as an empty collection.
var ErrNoCollection = errors.New("collection file not found")

// OwnedSet is the set of card names the user owns. Membership is a
// case-sensitive exact match against catalog card names.
type OwnedSet map[string]struct{}

// Contains reports whether the exact name is owned.
func (s OwnedSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Len returns the number of distinct owned names.
func (s OwnedSet) Len() int {
	return len(s)
}

// LoadFile reads an owned-card CSV from disk. A missing file yields an
// empty set and ErrNoCollection.
func LoadFile(path string) (OwnedSet, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return OwnedSet{}, fmt.Errorf("%w: %s", ErrNoCollection, path)
		}
		return nil, fmt.Errorf("failed to open collection file: %w", err)
	}
	defer func() { _ = f.Close() }()

	set, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse collection file %s: %w", path, err)
	}
	return set, nil
}

// Load parses a Moxfield-style CSV. The header row must contain a "Name"
// column; a "Count" column, when present, gates rows to Count > 0.
// Duplicate names collapse into a single set entry.
func Load(r io.Reader) (OwnedSet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Moxfield exports vary in column count

	header, err := reader.Read()
	if err == io.EOF {
		return OwnedSet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	nameIdx, countIdx := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case "Name":
			nameIdx = i
		case "Count":
			countIdx = i
		}
	}
	if nameIdx == -1 {
		return nil, fmt.Errorf("collection CSV has no Name column")
	}

	owned := OwnedSet{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read collection row: %w", err)
		}

		if nameIdx >= len(record) {
			continue
		}
		name := strings.TrimSpace(record[nameIdx])
		if name == "" {
			continue
		}

		if countIdx != -1 && countIdx < len(record) {
			count, err := strconv.Atoi(strings.TrimSpace(record[countIdx]))
			if err != nil || count <= 0 {
				continue
			}
		}

		owned[name] = struct{}{}
	}

	return owned, nil
}
