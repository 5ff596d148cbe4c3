// Package cards defines the normalized card model used across the catalog,
// the importer, and the selection engine.
package cards

import (
	"sort"
	"strings"
)

// ColorlessIdentity is the sentinel color identity for cards with no
// color restriction.
const ColorlessIdentity = "C"

// Card represents a Commander-legal card from the catalog.
type Card struct {
	// Name uniquely identifies the card within the catalog.
	Name string `json:"name"`

	// ColorIdentity is the card's color letters joined in sorted order
	// (e.g., "BR"), or ColorlessIdentity for colorless cards.
	ColorIdentity string `json:"color_identity"`

	// ManaValue is the card's total mana value.
	ManaValue float64 `json:"mana_value"`

	// TypeLine is the card's full type line (e.g., "Creature — Goblin").
	TypeLine string `json:"type"`

	// Text is the card's rules text. May be empty.
	Text string `json:"text"`

	// Keywords are the card's keyword abilities. May be empty.
	Keywords []string `json:"keywords,omitempty"`
}

// IsColorless reports whether the identity string denotes a colorless card.
func IsColorless(identity string) bool {
	return identity == "" || identity == ColorlessIdentity
}

// NormalizeIdentity converts a list of color letters into the canonical
// identity string: letters upper-cased, sorted and joined, with the
// colorless sentinel for an empty list.
func NormalizeIdentity(colors []string) string {
	if len(colors) == 0 {
		return ColorlessIdentity
	}

	letters := make([]string, 0, len(colors))
	for _, c := range colors {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c != "" && c != ColorlessIdentity {
			letters = append(letters, c)
		}
	}
	if len(letters) == 0 {
		return ColorlessIdentity
	}

	sort.Strings(letters)
	return strings.Join(letters, "")
}

// WithinIdentity reports whether a card's color identity is legal under the
// commander's color identity: colorless is always legal, otherwise every
// color symbol of the card must appear in the commander's identity.
func WithinIdentity(cardIdentity, commanderIdentity string) bool {
	if IsColorless(cardIdentity) {
		return true
	}

	for _, symbol := range cardIdentity {
		if !strings.ContainsRune(commanderIdentity, symbol) {
			return false
		}
	}
	return true
}
