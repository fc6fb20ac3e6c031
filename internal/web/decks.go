package web

import "github.com/peterkuimelis/cardclash/internal/game"

// DeckInfo is the JSON representation of a deck for the /api/decks endpoint.
type DeckInfo struct {
	Number  int      `json:"number"`
	Name    string   `json:"name"`
	Size    int      `json:"size"`
	Cards   []string `json:"cards"`
	Unknown []string `json:"unknown,omitempty"` // names missing from the catalog
}

func summarizeDecks(df game.DeckFile, cat *game.Catalog) []DeckInfo {
	decks := make([]DeckInfo, 0, len(df.Decks))
	for i, d := range df.Decks {
		di := DeckInfo{
			Number: i + 1,
			Name:   d.Name,
		}
		// Unique card names for display
		seen := make(map[string]bool)
		for _, c := range d.Cards {
			di.Size += c.Count
			if seen[c.Name] {
				continue
			}
			seen[c.Name] = true
			di.Cards = append(di.Cards, c.Name)
			if _, ok := cat.Lookup(c.Name); !ok {
				di.Unknown = append(di.Unknown, c.Name)
			}
		}
		decks = append(decks, di)
	}
	return decks
}
