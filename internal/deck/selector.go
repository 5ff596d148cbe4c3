// Package deck implements the card selection engine: it filters the catalog
// by commander color identity, scores candidates against strategy keywords,
// ranks them, and partitions the winners into owned and missing buckets.
package deck

import (
	"sort"
	"strings"

	"github.com/ramonehamilton/commander-companion/internal/cards"
	"github.com/ramonehamilton/commander-companion/internal/collection"
)

// Bucket capacities.
const (
	ownedCap      = 10
	affordableCap = 10
	premiumCap    = 5
)

// excludedNames are catalog entries that are not playable deck cards and
// must never be recommended, regardless of how well they match.
var excludedNames = map[string]struct{}{
	"Token":  {},
	"Emblem": {},
	"Scheme": {},
}

// premiumNames routes unowned recommendations into the premium bucket.
// These are chase cards a player is unlikely to pick up casually.
var premiumNames = map[string]struct{}{
	"Mana Crypt":                      {},
	"Mana Vault":                      {},
	"Grim Monolith":                   {},
	"Jeweled Lotus":                   {},
	"Mox Diamond":                     {},
	"Chrome Mox":                      {},
	"Gaea's Cradle":                   {},
	"The Tabernacle at Pendrell Vale": {},
	"Bazaar of Baghdad":               {},
	"Wheel of Fortune":                {},
	"Timetwister":                     {},
	"Imperial Seal":                   {},
	"Vampiric Tutor":                  {},
	"Demonic Tutor":                   {},
	"Force of Will":                   {},
}

// Result is the categorized recommendation set. Each bucket is in rank
// order and never exceeds its capacity.
type Result struct {
	Owned             []string
	MissingAffordable []string
	MissingPremium    []string
}

// IsEmpty reports whether selection produced no recommendations at all.
func (r Result) IsEmpty() bool {
	return len(r.Owned) == 0 && len(r.MissingAffordable) == 0 && len(r.MissingPremium) == 0
}

// scoredCard pairs a catalog card with its keyword-coverage score.
type scoredCard struct {
	card  *cards.Card
	score int
}

// Select ranks and categorizes catalog cards for a commander and strategy.
//
// Keywords are lower-cased and entries of length <= 1 are dropped; an empty
// normalized set yields an empty Result. A card is considered when it is
// legal under the commander's color identity, matches at least one keyword
// as a substring of its name and rules text, is not a non-deck entity, and
// is not the commander itself. Ranking is score descending, then mana value
// ascending, then name ascending; ties are fully deterministic. The ranked
// list is deduplicated by name (first occurrence wins) and partitioned in
// rank order into owned, missing-premium, and missing-affordable buckets;
// a full bucket drops later candidates rather than deferring them.
func Select(catalog []cards.Card, keywords []string, commanderIdentity, commanderName string, owned collection.OwnedSet) Result {
	normalized := normalizeKeywords(keywords)
	if len(normalized) == 0 {
		return Result{}
	}

	scored := make([]scoredCard, 0, 64)
	for i := range catalog {
		card := &catalog[i]
		if card.Name == "" || card.Name == commanderName {
			continue
		}
		if _, banned := excludedNames[card.Name]; banned {
			continue
		}
		if !cards.WithinIdentity(card.ColorIdentity, commanderIdentity) {
			continue
		}

		score := scoreCard(card, normalized)
		if score == 0 {
			continue
		}
		scored = append(scored, scoredCard{card: card, score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		if scored[i].card.ManaValue != scored[j].card.ManaValue {
			return scored[i].card.ManaValue < scored[j].card.ManaValue
		}
		return scored[i].card.Name < scored[j].card.Name
	})

	var result Result
	seen := make(map[string]struct{}, len(scored))

	for _, sc := range scored {
		name := sc.card.Name
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		switch {
		case owned.Contains(name):
			if len(result.Owned) < ownedCap {
				result.Owned = append(result.Owned, name)
			}
		case isPremium(name):
			if len(result.MissingPremium) < premiumCap {
				result.MissingPremium = append(result.MissingPremium, name)
			}
		default:
			if len(result.MissingAffordable) < affordableCap {
				result.MissingAffordable = append(result.MissingAffordable, name)
			}
		}
	}

	return result
}

// normalizeKeywords lower-cases the keyword list, drops tokens of length
// <= 1, and removes duplicates.
func normalizeKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	normalized := make([]string, 0, len(keywords))

	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if len([]rune(kw)) <= 1 {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		normalized = append(normalized, kw)
	}

	return normalized
}

// scoreCard counts how many distinct keywords occur in the card's name and
// rules text. Repeated occurrences of one keyword still count once.
func scoreCard(card *cards.Card, keywords []string) int {
	haystack := strings.ToLower(card.Name + " " + card.Text)

	score := 0
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			score++
		}
	}
	return score
}

// isPremium reports whether the name belongs to the fixed premium set.
func isPremium(name string) bool {
	_, ok := premiumNames[name]
	return ok
}
