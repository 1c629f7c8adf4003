// Package cards holds the immutable card catalog and the rarity economy
// that prices unlocks and drives streak scoring.
package cards

import "strings"

// Rarity is a card's scarcity tier. The zero value means "no rarity", which
// is how an aggregate with no streak stores its streak rarity.
type Rarity string

// Tiers ordered from most common to rarest.
const (
	RarityCommon    Rarity = "common"
	RarityFrequent  Rarity = "frequent"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityLegendary Rarity = "legendary"
	RarityMythic    Rarity = "mythic"
)

// Tiers lists every rarity in ascending scarcity.
var Tiers = []Rarity{
	RarityCommon,
	RarityFrequent,
	RarityUncommon,
	RarityRare,
	RarityLegendary,
	RarityMythic,
}

// displayLabels are the labels the mobile client stores in its local state.
var displayLabels = map[string]Rarity{
	"常见":  RarityCommon,
	"较常见": RarityFrequent,
	"较少见": RarityUncommon,
	"少见":  RarityRare,
	"罕见":  RarityLegendary,
	"极罕见": RarityMythic,
}

// Rank returns the tier's position in Tiers, or -1 for an unknown tier.
func (r Rarity) Rank() int {
	for i, t := range Tiers {
		if t == r {
			return i
		}
	}
	return -1
}

// Known reports whether r is one of the six catalog tiers.
func (r Rarity) Known() bool {
	return r.Rank() >= 0
}

// ParseRarity resolves a tier id or a client display label. Unknown,
// non-empty input is returned verbatim with ok=false so callers can still
// persist it.
func ParseRarity(s string) (Rarity, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if r := Rarity(strings.ToLower(s)); r.Known() {
		return r, true
	}
	if r, ok := displayLabels[s]; ok {
		return r, true
	}
	return Rarity(s), false
}

// Label returns the client display label for a known tier, or the raw value.
func (r Rarity) Label() string {
	for label, tier := range displayLabels {
		if tier == r {
			return label
		}
	}
	return string(r)
}
