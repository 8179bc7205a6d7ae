package location

import "strings"

// Normalizer lowercases, strips periods, collapses whitespace and applies a
// configurable abbreviation table. The table is ordered: longer forms must be
// substituted before their shorter variants.
type Normalizer struct {
	replacements []replacement
}

type replacement struct {
	from string
	to   string
}

// NewNormalizer builds a normalizer from ordered from→to pairs.
func NewNormalizer(pairs [][2]string) *Normalizer {
	n := &Normalizer{}
	for _, p := range pairs {
		n.replacements = append(n.replacements, replacement{from: p[0], to: p[1]})
	}
	return n
}

// DefaultNormalizer carries the Ukrainian street abbreviations the data set
// was seeded with plus English equivalents.
func DefaultNormalizer() *Normalizer {
	return NewNormalizer([][2]string{
		{"вулиця", "вул"},
		{"проспект", "просп"},
		{"площа", "пл"},
		{"провулок", "пров"},
		{"будинок", "буд"},
		{"квартира", "кв"},
		{"street", "st"},
		{"avenue", "ave"},
		{"building", "bldg"},
		{"apartment", "apt"},
	})
}

func (n *Normalizer) Normalize(address string) string {
	if address == "" {
		return ""
	}
	normalized := strings.Join(strings.Fields(address), " ")
	normalized = strings.ToLower(normalized)
	normalized = strings.ReplaceAll(normalized, ".", "")
	for _, r := range n.replacements {
		normalized = strings.ReplaceAll(normalized, r.from, r.to)
	}
	return strings.TrimSpace(normalized)
}
