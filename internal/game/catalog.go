package game

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// catalogFile is the top-level YAML structure of a catalog.
type catalogFile struct {
	RarityWeights map[string]int `yaml:"rarity_weights"`
	RarityPrices  map[string]int `yaml:"rarity_prices"`
	Cards         []*Card        `yaml:"cards"`
}

// Catalog is the read-only, ordered list of card templates plus the
// rarity tables. Every template's ability is compiled on load.
type Catalog struct {
	Cards         []*Card
	RarityWeights map[Rarity]int
	RarityPrices  map[Rarity]int

	byName map[string]*Card
}

// ParseCatalog decodes and compiles a YAML catalog. Unknown ability text is
// an error naming the card.
func ParseCatalog(data []byte) (*Catalog, error) {
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse catalog YAML: %w", err)
	}

	cat := &Catalog{
		Cards:         cf.Cards,
		RarityWeights: make(map[Rarity]int),
		RarityPrices:  make(map[Rarity]int),
		byName:        make(map[string]*Card, len(cf.Cards)),
	}
	for name, w := range cf.RarityWeights {
		r, err := ParseRarity(name)
		if err != nil {
			return nil, fmt.Errorf("rarity_weights: %w", err)
		}
		cat.RarityWeights[r] = w
	}
	for name, p := range cf.RarityPrices {
		r, err := ParseRarity(name)
		if err != nil {
			return nil, fmt.Errorf("rarity_prices: %w", err)
		}
		cat.RarityPrices[r] = p
	}
	for _, c := range cf.Cards {
		if c.Name == "" {
			return nil, fmt.Errorf("catalog card with empty name")
		}
		if _, dup := cat.byName[c.Name]; dup {
			return nil, fmt.Errorf("duplicate card %q", c.Name)
		}
		if err := c.Compile(); err != nil {
			return nil, err
		}
		cat.byName[c.Name] = c
	}
	return cat, nil
}

// LoadCatalog reads a catalog file. An empty path loads the built-in catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(data)
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalogYAML)
}

// Lookup returns the template with the given name.
func (c *Catalog) Lookup(name string) (*Card, bool) {
	card, ok := c.byName[name]
	return card, ok
}

// MustLookup is Lookup for tests and static tables. Panics if the card is
// not found.
func (c *Catalog) MustLookup(name string) *Card {
	card, ok := c.byName[name]
	if !ok {
		panic(fmt.Sprintf("card not found in catalog: %q", name))
	}
	return card
}

// Power returns the rarity power weight of a card.
func (c *Catalog) Power(card *Card) int {
	return c.RarityWeights[card.Rarity]
}

// Price returns the gold price of a card.
func (c *Catalog) Price(card *Card) int {
	return c.RarityPrices[card.Rarity]
}
