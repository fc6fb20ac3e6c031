package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/peterkuimelis/cardclash/internal/log"
)

// --- Test card helpers ---

func creature(name string, cost, atk, hp int, ability string) *Card {
	return &Card{
		Name:        name,
		Cost:        cost,
		Kind:        KindCreature,
		Attack:      atk,
		Health:      hp,
		AbilityText: ability,
		Ability:     MustParseAbility(ability),
	}
}

func vanillaCreature(name string, atk, hp int) *Card {
	return creature(name, atk, atk, hp, "")
}

func spell(name string, cost int, ability string) *Card {
	return &Card{
		Name:        name,
		Cost:        cost,
		Kind:        KindSpell,
		AbilityText: ability,
		Ability:     MustParseAbility(ability),
	}
}

// makePaddedDeck creates a deck with specified cards on top (drawn first) and filler to reach a minimum size.
// topCards are ordered so that index 0 is drawn first.
func makePaddedDeck(topCards []*Card, minSize int) []*Card {
	filler := vanillaCreature("Filler Token", 1, 1)
	deck := make([]*Card, 0, minSize)

	// Filler goes at bottom (drawn last)
	for i := 0; i < minSize-len(topCards); i++ {
		deck = append(deck, filler)
	}

	// Top cards go at end of slice (drawn first), reversed so index 0 is drawn first
	for i := len(topCards) - 1; i >= 0; i-- {
		deck = append(deck, topCards[i])
	}

	return deck
}

// --- Isolated resolver fixtures ---

type board struct {
	ms     *MatchState
	r      *Resolver
	logger *log.MemoryLogger
}

// newBoard returns a mid-game state on P1's first turn with empty zones.
func newBoard(t *testing.T) *board {
	t.Helper()
	logger := log.NewMemoryLogger()
	ms := NewMatchState(DefaultRules())
	ms.Turn = 1
	ms.SideTurns[SidePlayer] = 1
	return &board{
		ms:     ms,
		r:      NewResolver(DefaultRules(), logger, rand.New(rand.NewSource(1))),
		logger: logger,
	}
}

// summon puts a ready (not just played) creature on side's field.
func (b *board) summon(side Side, card *Card) *CardInstance {
	ci := b.ms.NewInstance(card, side)
	b.r.placeOnField(b.ms, ci, side)
	ci.JustPlayed = false
	return ci
}

// tapped summons a creature that is already tapped, so it can be attacked.
func (b *board) tapped(side Side, card *Card) *CardInstance {
	ci := b.summon(side, card)
	ci.Tapped = true
	return ci
}

func (b *board) hand(side Side, card *Card) *CardInstance {
	ci := b.ms.NewInstance(card, side)
	p := b.ms.Player(side)
	p.Hand = append(p.Hand, ci)
	return ci
}

// fixedSource makes rand.Intn(n) return v for any n > v.
type fixedSource struct{ v int64 }

func (s fixedSource) Int63() int64 { return s.v << 32 }
func (s fixedSource) Seed(int64)   {}

// --- Match fixtures ---

// newTestMatch builds a deterministic match and starts it. P1 ends up with
// OpeningHand+1 cards and 1 mana.
func newTestMatch(t *testing.T, deck0, deck1 []*Card) (*Match, *log.MemoryLogger) {
	t.Helper()
	logger := log.NewMemoryLogger()
	m := NewMatch(MatchConfig{
		Deck0:     deck0,
		Deck1:     deck1,
		Logger:    logger,
		Diag:      zaptest.NewLogger(t),
		Seed:      1,
		NoShuffle: true,
	})
	m.Start()
	t.Cleanup(func() {
		if t.Failed() {
			t.Logf("Event log:\n%s", log.FormatAll(logger.Events()))
		}
	})
	return m, logger
}

func handCard(t *testing.T, m *Match, side Side, name string) *CardInstance {
	t.Helper()
	for _, c := range m.State.Player(side).Hand {
		if c.Card.Name == name {
			return c
		}
	}
	require.Failf(t, "card not in hand", "%s has no %q in hand", side, name)
	return nil
}

// passTurns ends n turns in a row.
func passTurns(t *testing.T, m *Match, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, m.EndTurn(m.State.Current))
	}
}
