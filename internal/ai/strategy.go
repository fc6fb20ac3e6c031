package ai

import (
	"fmt"
	"strings"

	"github.com/peterkuimelis/cardclash/internal/game"
)

// lowHealth is the threshold below which the balanced strategy starts
// weighting survival or lethal.
const lowHealth = 10

// Strategy scores cards and targets for one personality. Scores are only
// compared with each other; the scale is arbitrary.
type Strategy interface {
	Name() string
	// RawScore values a card before cost is taken into account.
	RawScore(ms *game.MatchState, side game.Side, c *game.CardInstance) float64
	// GoesFace reports whether the strategy prefers the enemy player over
	// killable creatures when attacking.
	GoesFace() bool
}

// ScoreCard divides the strategy's raw score by cost+1 so cheap plays that
// do the same job win.
func ScoreCard(s Strategy, ms *game.MatchState, side game.Side, c *game.CardInstance) float64 {
	cost := ms.Player(side).EffectiveCost(c)
	return s.RawScore(ms, side, c) / float64(cost+1)
}

// StrategyByName resolves a configured strategy name.
func StrategyByName(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "aggressive":
		return Aggressive{}, nil
	case "defensive":
		return Defensive{}, nil
	case "balanced", "":
		return Balanced{}, nil
	}
	return nil, fmt.Errorf("unknown strategy %q", name)
}

// keywordValue is the fixed bonus table used by Balanced and by attack
// target selection.
var keywordValue = map[game.Keyword]float64{
	game.KeywordTaunt:             2,
	game.KeywordLifesteal:         3,
	game.KeywordDivineShield:      3,
	game.KeywordWindfury:          3,
	game.KeywordPoison:            3,
	game.KeywordFirstStrike:       2,
	game.KeywordStealth:           1.5,
	game.KeywordFlying:            1.5,
	game.KeywordCharge:            2,
	game.KeywordRush:              1,
	game.KeywordSpellPower:        2,
	game.KeywordDoubleSpellDamage: 3,
	game.KeywordTrample:           1,
	game.KeywordEnrage:            1,
	game.KeywordReborn:            2,
	game.KeywordBurn:              2,
	game.KeywordInstantKill:       3,
	game.KeywordUnblockable:       2,
	game.KeywordSpellShield:       1,
	game.KeywordVigilance:         1,
	game.KeywordImmune:            2,
	game.KeywordFreezeOnHit:       1,
	game.KeywordReach:             0.5,
}

func keywordBonus(ab game.Ability) float64 {
	var total float64
	for kw, v := range keywordValue {
		if ab.Has(kw) {
			total += v
		}
	}
	if ab.Deathrattle != nil {
		total += 1.5
	}
	return total
}

// effectDamage is the direct damage an effect deals to its main target(s).
func effectDamage(ab game.Ability) float64 {
	switch ab.Effect {
	case game.EffectDamage:
		return float64(ab.Amount)
	case game.EffectDamageAll:
		return float64(ab.Amount) * 1.5
	}
	return 0
}

func isHeal(ab game.Ability) bool {
	return ab.Effect == game.EffectHeal || ab.Effect == game.EffectFullHealField
}

// Aggressive favours raw attack and direct damage.
type Aggressive struct{}

func (Aggressive) Name() string   { return "aggressive" }
func (Aggressive) GoesFace() bool { return true }

func (Aggressive) RawScore(_ *game.MatchState, _ game.Side, c *game.CardInstance) float64 {
	ab := c.Ability
	score := effectDamage(ab) * 3
	if c.Card.IsCreature() {
		score += float64(c.Attack)*3 + float64(c.Health)
		if ab.Has(game.KeywordCharge) {
			score += 3
		}
		if ab.Has(game.KeywordTaunt) {
			score--
		}
	}
	switch ab.Effect {
	case game.EffectBuffAll, game.EffectBuffTarget:
		score += float64(ab.Attack) * 2
	case game.EffectExtraTurn:
		score += 6
	}
	return score + 1
}

// Defensive favours health, Taunt, healing and removal.
type Defensive struct{}

func (Defensive) Name() string   { return "defensive" }
func (Defensive) GoesFace() bool { return false }

func (Defensive) RawScore(_ *game.MatchState, _ game.Side, c *game.CardInstance) float64 {
	ab := c.Ability
	score := effectDamage(ab)
	if c.Card.IsCreature() {
		score += float64(c.Health)*3 + float64(c.Attack)
		if ab.Has(game.KeywordTaunt) {
			score += 4
		}
		if ab.Has(game.KeywordDivineShield) {
			score += 2
		}
		if ab.Has(game.KeywordLifesteal) {
			score += 2
		}
	}
	if isHeal(ab) {
		score += float64(max(ab.Amount, 4)) * 1.5
	}
	if ab.IsRemoval() {
		score += 6
	}
	if ab.Effect == game.EffectGrantImmune || ab.Effect == game.EffectFreezeTarget {
		score += 3
	}
	return score + 1
}

// Balanced weighs stat totals plus the keyword table, adjusted for how
// close either player is to dying.
type Balanced struct{}

func (Balanced) Name() string   { return "balanced" }
func (Balanced) GoesFace() bool { return false }

func (Balanced) RawScore(ms *game.MatchState, side game.Side, c *game.CardInstance) float64 {
	ab := c.Ability
	score := keywordBonus(ab) + effectDamage(ab)*2
	if c.Card.IsCreature() {
		score += float64(c.Attack+c.Health) * 1.5
	}
	switch {
	case ab.IsRemoval():
		score += 5
	case ab.Effect == game.EffectDraw:
		score += float64(ab.Amount) * 2
	case ab.Effect == game.EffectSummon:
		score += float64(ab.Count*(ab.Attack+ab.Health)) * 0.75
	case ab.Effect == game.EffectBuffAll, ab.Effect == game.EffectBuffTarget:
		score += float64(ab.Attack+ab.Health) * 1.5
	}

	me, opp := ms.Player(side), ms.Player(side.Other())
	if me.Health < lowHealth && (isHeal(ab) || ab.Has(game.KeywordTaunt) || ab.Has(game.KeywordLifesteal)) {
		score += 4
	}
	if opp.Health < lowHealth && (effectDamage(ab) > 0 || ab.Has(game.KeywordCharge)) {
		score += 4
	}
	return score + 1
}
