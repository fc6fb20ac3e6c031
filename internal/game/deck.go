package game

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DeckSize is the number of cards the deckbuilder hands the engine.
const DeckSize = 30

// DeckFile represents the top-level YAML structure.
type DeckFile struct {
	Decks []DeckEntry `yaml:"decks"`
}

// DeckEntry represents a single deck in the YAML file.
type DeckEntry struct {
	Name  string      `yaml:"name"`
	Cards []CardEntry `yaml:"cards"`
}

// CardEntry represents a card and its count in a deck.
type CardEntry struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

// ParseDeckYAML decodes a deck file.
func ParseDeckYAML(data []byte) (DeckFile, error) {
	var df DeckFile
	if err := yaml.Unmarshal(data, &df); err != nil {
		return df, fmt.Errorf("parse deck YAML: %w", err)
	}
	return df, nil
}

// ReadDeckFile reads and decodes a deck file.
func ReadDeckFile(path string) (DeckFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DeckFile{}, err
	}
	return ParseDeckYAML(data)
}

// Build expands the entry into card templates from the catalog. Deck
// legality is the deckbuilder's concern; only unknown names are errors.
func (d DeckEntry) Build(cat *Catalog) ([]*Card, error) {
	var cards []*Card
	for _, entry := range d.Cards {
		card, ok := cat.Lookup(entry.Name)
		if !ok {
			return nil, fmt.Errorf("deck %q: unknown card %q", d.Name, entry.Name)
		}
		for i := 0; i < entry.Count; i++ {
			cards = append(cards, card)
		}
	}
	return cards, nil
}

// ParseDeckFile parses a YAML deck file and returns a map of deck name → card slice.
func ParseDeckFile(path string, cat *Catalog) (map[string][]*Card, error) {
	df, err := ReadDeckFile(path)
	if err != nil {
		return nil, err
	}

	decks := make(map[string][]*Card)
	for _, deck := range df.Decks {
		cards, err := deck.Build(cat)
		if err != nil {
			return nil, err
		}
		decks[deck.Name] = cards
	}

	return decks, nil
}

// DeckByNumber returns the Nth deck (1-indexed) from the deck file.
func DeckByNumber(path string, n int, cat *Catalog) (string, []*Card, error) {
	df, err := ReadDeckFile(path)
	if err != nil {
		return "", nil, err
	}

	if n < 1 || n > len(df.Decks) {
		return "", nil, fmt.Errorf("deck %d not found (have %d decks)", n, len(df.Decks))
	}

	deck := df.Decks[n-1]
	cards, err := deck.Build(cat)
	if err != nil {
		return "", nil, err
	}
	return deck.Name, cards, nil
}
