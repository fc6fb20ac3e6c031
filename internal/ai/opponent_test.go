package ai

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/peterkuimelis/cardclash/internal/game"
)

func card(name string, cost, atk, hp int, ability string) *game.Card {
	return &game.Card{
		Name:        name,
		Cost:        cost,
		Kind:        game.KindCreature,
		Attack:      atk,
		Health:      hp,
		AbilityText: ability,
		Ability:     game.MustParseAbility(ability),
	}
}

func spellCard(name string, cost int, ability string) *game.Card {
	return &game.Card{
		Name:        name,
		Cost:        cost,
		Kind:        game.KindSpell,
		AbilityText: ability,
		Ability:     game.MustParseAbility(ability),
	}
}

func deckOf(c *game.Card) []*game.Card {
	deck := make([]*game.Card, game.DeckSize)
	for i := range deck {
		deck[i] = c
	}
	return deck
}

// unaffordable fills hands with cards nobody can play early.
var unaffordable = card("Boulder", 9, 1, 1, "")

func newMatch(t *testing.T, deck0, deck1 []*game.Card) *game.Match {
	t.Helper()
	m := game.NewMatch(game.MatchConfig{
		Deck0:     deck0,
		Deck1:     deck1,
		Diag:      zaptest.NewLogger(t),
		Seed:      1,
		NoShuffle: true,
	})
	m.Start()
	return m
}

// put places a ready creature on side's field.
func put(m *game.Match, side game.Side, c *game.Card, tapped bool) *game.CardInstance {
	ci := m.State.NewInstance(c, side)
	ci.EnterField()
	ci.JustPlayed = false
	ci.Tapped = tapped
	p := m.State.Player(side)
	p.Field = append(p.Field, ci)
	return ci
}

func TestScoreCardDividesByCost(t *testing.T) {
	ms := game.NewMatchState(game.DefaultRules())
	cheap := ms.NewInstance(card("Cheap", 0, 2, 2, ""), game.SidePlayer)
	dear := ms.NewInstance(card("Dear", 3, 2, 2, ""), game.SidePlayer)

	for _, s := range []Strategy{Aggressive{}, Defensive{}, Balanced{}} {
		t.Run(s.Name(), func(t *testing.T) {
			assert.InDelta(t, ScoreCard(s, ms, game.SidePlayer, cheap), 4*ScoreCard(s, ms, game.SidePlayer, dear), 1e-9)
		})
	}
}

func TestStrategiesDisagree(t *testing.T) {
	ms := game.NewMatchState(game.DefaultRules())
	brute := ms.NewInstance(card("Brute", 2, 4, 1, ""), game.SidePlayer)
	wall := ms.NewInstance(card("Wall", 2, 1, 4, "Taunt"), game.SidePlayer)

	agg, def := Aggressive{}, Defensive{}
	assert.Greater(t, ScoreCard(agg, ms, game.SidePlayer, brute), ScoreCard(agg, ms, game.SidePlayer, wall))
	assert.Greater(t, ScoreCard(def, ms, game.SidePlayer, wall), ScoreCard(def, ms, game.SidePlayer, brute))
}

func TestBalancedWeighsLowHealth(t *testing.T) {
	ms := game.NewMatchState(game.DefaultRules())
	heal := ms.NewInstance(spellCard("Mend", 2, "Heal 5"), game.SidePlayer)
	bolt := ms.NewInstance(spellCard("Bolt", 2, "Deal 3 damage"), game.SidePlayer)
	b := Balanced{}

	healthy := b.RawScore(ms, game.SidePlayer, heal)
	ms.Player(game.SidePlayer).Health = 5
	assert.Greater(t, b.RawScore(ms, game.SidePlayer, heal), healthy)

	calm := b.RawScore(ms, game.SidePlayer, bolt)
	ms.Player(game.SideOpponent).Health = 4
	assert.Greater(t, b.RawScore(ms, game.SidePlayer, bolt), calm)
}

func TestStrategyByName(t *testing.T) {
	for name, want := range map[string]string{"aggressive": "aggressive", "Defensive": "defensive", "": "balanced"} {
		s, err := StrategyByName(name)
		require.NoError(t, err)
		assert.Equal(t, want, s.Name())
	}
	_, err := StrategyByName("reckless")
	assert.Error(t, err)
}

func TestAttacksTauntFirst(t *testing.T) {
	m := newMatch(t, deckOf(unaffordable), deckOf(unaffordable))
	attacker := put(m, game.SidePlayer, card("Raider", 3, 3, 3, ""), false)
	wall := put(m, game.SideOpponent, card("Wall", 2, 2, 5, "Taunt"), false)
	put(m, game.SideOpponent, card("Straggler", 1, 1, 1, ""), true)

	opp := NewOpponent(game.SidePlayer, Profile{Strategy: Aggressive{}})
	require.NoError(t, opp.TakeTurn(context.Background(), m))

	assert.Equal(t, 2, wall.Health)
	assert.Equal(t, 1, attacker.Health)
	assert.Equal(t, 30, m.State.Player(game.SideOpponent).Health)
	assert.Equal(t, game.SideOpponent, m.State.Current, "turn is ended")
}

func TestAttackPreference(t *testing.T) {
	setup := func(t *testing.T) (*game.Match, *game.CardInstance) {
		m := newMatch(t, deckOf(unaffordable), deckOf(unaffordable))
		put(m, game.SidePlayer, card("Raider", 3, 3, 3, ""), false)
		leech := put(m, game.SideOpponent, card("Leech", 2, 2, 2, "Lifesteal"), true)
		return m, leech
	}

	t.Run("aggressive goes face", func(t *testing.T) {
		m, leech := setup(t)
		require.NoError(t, NewOpponent(game.SidePlayer, Profile{Strategy: Aggressive{}}).TakeTurn(context.Background(), m))
		assert.Equal(t, 27, m.State.Player(game.SideOpponent).Health)
		assert.Equal(t, 2, leech.Health)
	})

	t.Run("balanced kills the lifestealer", func(t *testing.T) {
		m, _ := setup(t)
		require.NoError(t, NewOpponent(game.SidePlayer, Profile{Strategy: Balanced{}}).TakeTurn(context.Background(), m))
		assert.Equal(t, 30, m.State.Player(game.SideOpponent).Health)
		assert.Empty(t, m.State.Player(game.SideOpponent).Field)
	})
}

func TestPlayLimit(t *testing.T) {
	pup := card("Pup", 1, 1, 1, "")
	for _, tt := range []struct {
		limit int
		want  int
	}{{1, 1}, {2, 2}, {0, game.OpeningHand + 1}} {
		m := newMatch(t, deckOf(pup), deckOf(unaffordable))
		m.State.Player(game.SidePlayer).Mana = 10

		opp := NewOpponent(game.SidePlayer, Profile{PlayLimit: tt.limit, Strategy: Balanced{}})
		require.NoError(t, opp.TakeTurn(context.Background(), m))
		assert.Len(t, m.State.Player(game.SidePlayer).Field, tt.want, "limit %d", tt.limit)
	}
}

func TestNotOurTurnIsNoop(t *testing.T) {
	m := newMatch(t, deckOf(unaffordable), deckOf(unaffordable))
	opp := NewOpponent(game.SideOpponent, DefaultProfiles()["normal"])
	require.NoError(t, opp.TakeTurn(context.Background(), m))
	assert.Equal(t, game.SidePlayer, m.State.Current)
	assert.Equal(t, 1, m.State.Turn)
}

func TestPhaseDelayHonoursContext(t *testing.T) {
	m := newMatch(t, deckOf(unaffordable), deckOf(unaffordable))
	opp := NewOpponent(game.SidePlayer, DefaultProfiles()["hard"])
	opp.PhaseDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, opp.TakeTurn(ctx, m), context.Canceled)
	assert.Equal(t, game.SidePlayer, m.State.Current)
}

func TestChooseTargetSkipsSpellShield(t *testing.T) {
	m := newMatch(t, deckOf(unaffordable), deckOf(unaffordable))
	put(m, game.SideOpponent, card("Warded", 2, 2, 2, "Spell Shield"), true)
	goblin := put(m, game.SideOpponent, card("Goblin", 2, 2, 2, ""), true)
	bolt := game.MustParseAbility("Deal 2 damage")

	target, ok := NewOpponent(game.SidePlayer, Profile{Strategy: Balanced{}}).ChooseTarget(m.State, bolt)
	require.True(t, ok)
	require.True(t, target.IsCard())
	assert.Equal(t, goblin.ID, target.Card.ID)

	target, ok = NewOpponent(game.SidePlayer, Profile{Strategy: Aggressive{}}).ChooseTarget(m.State, bolt)
	require.True(t, ok)
	assert.True(t, target.IsPlayer())

	_, ok = NewOpponent(game.SidePlayer, Profile{Strategy: Balanced{}}).ChooseTarget(m.State, game.MustParseAbility("Give a friendly creature +1/+1"))
	assert.False(t, ok, "no friendly creature to buff")
}

func TestProfileApply(t *testing.T) {
	rules := game.DefaultRules()
	DefaultProfiles()["easy"].Apply(&rules, game.SideOpponent)
	assert.Equal(t, 6, rules.ManaCap[game.SideOpponent])
	assert.Equal(t, game.ManaCeiling, rules.ManaCap[game.SidePlayer])
}

// TestSelfPlay runs two opponents against each other with the shipped decks
// and checks the board stays consistent after every turn.
func TestSelfPlay(t *testing.T) {
	cat, err := game.DefaultCatalog()
	require.NoError(t, err)
	_, deck0, err := game.DeckByNumber("../../decks.yaml", 1, cat)
	require.NoError(t, err)
	_, deck1, err := game.DeckByNumber("../../decks.yaml", 2, cat)
	require.NoError(t, err)

	m := game.NewMatch(game.MatchConfig{Deck0: deck0, Deck1: deck1, Diag: zaptest.NewLogger(t), Seed: 42})
	m.Start()
	players := [2]*Opponent{
		NewOpponent(game.SidePlayer, DefaultProfiles()["hard"]),
		NewOpponent(game.SideOpponent, DefaultProfiles()["normal"]),
	}

	for i := 0; i < 200 && !m.State.Over; i++ {
		before := m.State.Turn
		require.NoError(t, players[m.State.Current].TakeTurn(context.Background(), m))
		if !m.State.Over {
			require.Greater(t, m.State.Turn, before, "turn did not advance")
		}
		for _, p := range m.State.Players {
			assert.LessOrEqual(t, len(p.Hand), game.HandLimit)
			assert.LessOrEqual(t, len(p.Field), game.FieldLimit)
			assert.LessOrEqual(t, p.Health, p.MaxHealth)
			for _, c := range p.Field {
				assert.Positive(t, c.Health, "%s left on the field", c.Card.Name)
			}
		}
	}
}
