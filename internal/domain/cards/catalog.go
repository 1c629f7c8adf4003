package cards

import "fmt"

// Card is one immutable catalog entry.
type Card struct {
	ID        string `json:"id"`
	BaseScore int    `json:"baseScore"`
	Rarity    Rarity `json:"rarity"`
}

// Catalog is a read-only lookup table of cards keyed by id.
type Catalog struct {
	cards map[string]Card
	order []string
}

// NewCatalog validates and indexes the given cards. Ids must be unique,
// scores positive and rarities one of the known tiers.
func NewCatalog(cards []Card) (*Catalog, error) {
	c := &Catalog{cards: make(map[string]Card, len(cards))}
	for _, card := range cards {
		if card.ID == "" {
			return nil, fmt.Errorf("card with empty id")
		}
		if _, dup := c.cards[card.ID]; dup {
			return nil, fmt.Errorf("duplicate card id %q", card.ID)
		}
		if card.BaseScore <= 0 {
			return nil, fmt.Errorf("card %q: base score must be positive, got %d", card.ID, card.BaseScore)
		}
		if !card.Rarity.Known() {
			return nil, fmt.Errorf("card %q: unknown rarity %q", card.ID, card.Rarity)
		}
		c.cards[card.ID] = card
		c.order = append(c.order, card.ID)
	}
	return c, nil
}

// MustCatalog is NewCatalog for static tables; it panics on invalid input.
func MustCatalog(cards []Card) *Catalog {
	c, err := NewCatalog(cards)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the card with the given id.
func (c *Catalog) Lookup(id string) (Card, bool) {
	card, ok := c.cards[id]
	return card, ok
}

// Contains reports whether id is a catalog card.
func (c *Catalog) Contains(id string) bool {
	_, ok := c.cards[id]
	return ok
}

// Len returns the number of cards.
func (c *Catalog) Len() int {
	return len(c.cards)
}

// Cards returns all cards in declaration order.
func (c *Catalog) Cards() []Card {
	out := make([]Card, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.cards[id])
	}
	return out
}
