package net

import (
	"github.com/peterkuimelis/cardclash/internal/game"
)

// Snapshot is the authoritative match state as sent to clients. Deck and
// graveyard contents are not transmitted; clients keep their own.
type Snapshot struct {
	MatchID     string           `json:"matchId"`
	Seq         int64            `json:"seq"`
	Players     []PlayerSnapshot `json:"players"`
	CurrentTurn int              `json:"currentTurn"` // side to act
	TurnNumber  int              `json:"turnNumber"`
	GameOver    bool             `json:"gameOver"`
	Winner      int              `json:"winner"`
	Result      string           `json:"result,omitempty"`

	// Pending names a hand spell awaiting a target.
	Pending *PendingSnapshot `json:"pending,omitempty"`
}

// PendingSnapshot identifies the pending spell by its hand instance.
type PendingSnapshot struct {
	Side   int `json:"side"`
	CardID int `json:"cardId"`
}

// PlayerSnapshot shows one side of the board.
type PlayerSnapshot struct {
	Health         int            `json:"health"`
	MaxHealth      int            `json:"maxHealth"`
	Mana           int            `json:"mana"`
	MaxMana        int            `json:"maxMana"`
	Hand           []CardSnapshot `json:"hand"`
	Field          []CardSnapshot `json:"field"`
	DeckCount      int            `json:"deckCount"`
	GraveyardCount int            `json:"graveyardCount"`
}

// CardSnapshot is one instance. Catalog cards are rebuilt by name; tokens
// carry their template so the receiver can rebuild them without a catalog
// entry.
type CardSnapshot struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Owner int    `json:"owner"`
	Token bool   `json:"token,omitempty"`

	// Token template.
	CardAttack  int    `json:"cardAttack,omitempty"`
	CardHealth  int    `json:"cardHealth,omitempty"`
	AbilityText string `json:"abilityText,omitempty"`

	BaseAttack int  `json:"baseAttack"`
	BaseHealth int  `json:"baseHealth"`
	Attack     int  `json:"attack"`
	Health     int  `json:"health"`
	Silenced   bool `json:"silenced,omitempty"`

	// RebornSpent marks a creature that already came back once.
	RebornSpent bool `json:"rebornSpent,omitempty"`

	// Combat flags. Passive flags are never sent.
	Tapped              bool `json:"tapped,omitempty"`
	HasAttackedThisTurn bool `json:"hasAttackedThisTurn,omitempty"`
	JustPlayed          bool `json:"justPlayed,omitempty"`
	Frozen              bool `json:"frozen,omitempty"`
	AttacksThisTurn     int  `json:"attacksThisTurn,omitempty"`
}

// BuildSnapshot captures ms for the wire.
func BuildSnapshot(ms *game.MatchState, seq int64) *Snapshot {
	snap := &Snapshot{
		MatchID:     ms.ID.String(),
		Seq:         seq,
		CurrentTurn: int(ms.Current),
		TurnNumber:  ms.Turn,
		GameOver:    ms.Over,
		Winner:      int(ms.Winner),
		Result:      ms.Result,
	}
	if ms.Pending != nil {
		snap.Pending = &PendingSnapshot{Side: int(ms.Pending.Side), CardID: ms.Pending.Card.ID}
	}
	for _, p := range ms.Players {
		ps := PlayerSnapshot{
			Health:         p.Health,
			MaxHealth:      p.MaxHealth,
			Mana:           p.Mana,
			MaxMana:        p.MaxMana,
			Hand:           make([]CardSnapshot, 0, len(p.Hand)),
			Field:          make([]CardSnapshot, 0, len(p.Field)),
			DeckCount:      len(p.Deck),
			GraveyardCount: len(p.Graveyard),
		}
		for _, c := range p.Hand {
			ps.Hand = append(ps.Hand, cardSnapshot(c))
		}
		for _, c := range p.Field {
			ps.Field = append(ps.Field, cardSnapshot(c))
		}
		snap.Players = append(snap.Players, ps)
	}
	return snap
}

func cardSnapshot(c *game.CardInstance) CardSnapshot {
	cs := CardSnapshot{
		ID:                  c.ID,
		Name:                c.Card.Name,
		Owner:               int(c.Owner),
		Token:               c.Card.Token,
		BaseAttack:          c.BaseAttack,
		BaseHealth:          c.BaseHealth,
		Attack:              c.Attack,
		Health:              c.Health,
		Silenced:            c.Ability.IsZero() && !c.Card.Ability.IsZero(),
		RebornSpent:         c.Card.Ability.Has(game.KeywordReborn) && !c.Has(game.KeywordReborn),
		Tapped:              c.Tapped,
		HasAttackedThisTurn: c.HasAttackedThisTurn,
		JustPlayed:          c.JustPlayed,
		Frozen:              c.Frozen,
		AttacksThisTurn:     c.AttacksThisTurn,
	}
	if c.Card.Token {
		cs.CardAttack = c.Card.Attack
		cs.CardHealth = c.Card.Health
		cs.AbilityText = c.Card.AbilityText
	}
	return cs
}
