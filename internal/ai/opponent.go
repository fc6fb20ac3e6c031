package ai

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/peterkuimelis/cardclash/internal/game"
)

// Actor is the player-facing surface of a match. *game.Match implements it.
type Actor interface {
	PlayCard(side game.Side, cardID int) error
	SelectTarget(side game.Side, target game.Target) error
	CancelTarget(side game.Side) error
	Attack(side game.Side, attackerID int, target game.Target) error
	EndTurn(side game.Side) error
	CurrentState() *game.MatchState
}

// Profile is a difficulty setting.
type Profile struct {
	Name      string
	ManaCap   int // mana ceiling for the AI side
	PlayLimit int // plays per turn; 0 means unlimited
	Strategy  Strategy
}

// Apply writes the profile's mana ceiling for side into rules.
func (p Profile) Apply(rules *game.Rules, side game.Side) {
	if p.ManaCap > 0 {
		rules.ManaCap[side] = p.ManaCap
	}
}

// DefaultProfiles are used when no configuration overrides them.
func DefaultProfiles() map[string]Profile {
	return map[string]Profile{
		"easy":   {Name: "easy", ManaCap: 6, PlayLimit: 1, Strategy: Aggressive{}},
		"normal": {Name: "normal", ManaCap: 8, PlayLimit: 2, Strategy: Balanced{}},
		"hard":   {Name: "hard", ManaCap: game.ManaCeiling, PlayLimit: 0, Strategy: Balanced{}},
	}
}

// Opponent plays one side of a match through an Actor.
type Opponent struct {
	Side    game.Side
	Profile Profile
	// PhaseDelay separates the play pass from the attack pass for pacing.
	PhaseDelay time.Duration
	Logger     *zap.Logger
}

// NewOpponent returns an opponent for side with a no-op logger.
func NewOpponent(side game.Side, profile Profile) *Opponent {
	if profile.Strategy == nil {
		profile.Strategy = Balanced{}
	}
	return &Opponent{Side: side, Profile: profile, Logger: zap.NewNop()}
}

func (o *Opponent) log() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// TakeTurn plays, attacks and ends the turn. It does nothing when it is not
// this side's turn. Rejections from the match are logged and skipped; only
// context cancellation is returned.
func (o *Opponent) TakeTurn(ctx context.Context, a Actor) error {
	st := a.CurrentState()
	if st.Over || st.Current != o.Side {
		return nil
	}
	o.playPass(a)
	if a.CurrentState().Over {
		return nil
	}

	if o.PhaseDelay > 0 {
		t := time.NewTimer(o.PhaseDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}

	o.attackPass(a)
	st = a.CurrentState()
	if st.Over || st.Current != o.Side {
		return nil
	}
	if err := a.EndTurn(o.Side); err != nil && !game.IsRejection(err) {
		return err
	}
	return nil
}

// playPass plays the best affordable card until the limit is reached or
// nothing else is worth playing.
func (o *Opponent) playPass(a Actor) {
	skipped := make(map[int]bool)
	rewound := false
	for plays := 0; o.Profile.PlayLimit == 0 || plays < o.Profile.PlayLimit; {
		st := a.CurrentState()
		if st.Over || st.Current != o.Side {
			return
		}
		card := o.bestPlay(st, skipped, rewound)
		if card == nil {
			return
		}
		if o.play(a, st, card) {
			plays++
			// A rewind hands back every card played since the turn began,
			// including other rewinds; one per turn keeps the pass finite.
			rewound = rewound || card.Ability.Effect == game.EffectRewind
		} else {
			skipped[card.ID] = true
		}
	}
}

// Playable returns the hand cards side can afford and has room for, best
// first.
func (o *Opponent) Playable(st *game.MatchState) []*game.CardInstance {
	p := st.Player(o.Side)
	var out []*game.CardInstance
	for _, c := range p.Hand {
		if p.EffectiveCost(c) > p.Mana {
			continue
		}
		if c.Card.IsCreature() && len(p.Field) >= st.Rules.FieldLimit {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return ScoreCard(o.Profile.Strategy, st, o.Side, out[i]) > ScoreCard(o.Profile.Strategy, st, o.Side, out[j])
	})
	return out
}

func (o *Opponent) bestPlay(st *game.MatchState, skipped map[int]bool, rewound bool) *game.CardInstance {
	for _, c := range o.Playable(st) {
		if rewound && c.Ability.Effect == game.EffectRewind {
			continue
		}
		if !skipped[c.ID] {
			return c
		}
	}
	return nil
}

func (o *Opponent) play(a Actor, st *game.MatchState, card *game.CardInstance) bool {
	lg := o.log().With(zap.String("card", card.Card.Name), zap.String("strategy", o.Profile.Strategy.Name()))

	// Pick the target before committing so a spell with nothing to hit is
	// never started.
	var target game.Target
	class := game.TargetNone
	if card.Card.IsSpell() {
		class = card.Ability.TargetClass()
	}
	if class != game.TargetNone {
		var ok bool
		target, ok = o.ChooseTarget(st, card.Ability)
		if !ok {
			lg.Debug("no target worth casting at")
			return false
		}
	}

	if err := a.PlayCard(o.Side, card.ID); err != nil {
		lg.Debug("play rejected", zap.Error(err))
		return false
	}
	if class == game.TargetNone {
		lg.Debug("played")
		return true
	}
	if err := a.SelectTarget(o.Side, target); err != nil {
		lg.Debug("target rejected", zap.Error(err), zap.Stringer("target", target))
		_ = a.CancelTarget(o.Side)
		return false
	}
	lg.Debug("cast", zap.Stringer("target", target))
	return true
}

// ChooseTarget picks a target for a targeted spell from the AI's side.
func (o *Opponent) ChooseTarget(st *game.MatchState, ab game.Ability) (game.Target, bool) {
	class := ab.TargetClass()
	enemySide := o.Side.Other()
	var pool []game.Target
	for _, side := range []game.Side{enemySide, o.Side} {
		for _, c := range st.Player(side).Field {
			t := game.CardTarget(c, side)
			if game.ValidTarget(st, class, o.Side, t) == nil {
				pool = append(pool, t)
			}
		}
	}

	switch ab.Effect {
	case game.EffectDamage:
		face := game.PlayerTarget(enemySide)
		if o.Profile.Strategy.GoesFace() {
			return face, true
		}
		if best, ok := bestBy(pool, func(c *game.CardInstance) float64 {
			if c.DivineShield || c.SpellShield || c.Health > ab.Amount {
				return -1
			}
			return creatureValue(c)
		}); ok {
			return best, true
		}
		return face, true
	case game.EffectBuffTarget:
		return bestBy(pool, func(c *game.CardInstance) float64 {
			if c.SpellShield {
				return -1
			}
			return float64(c.Attack) + keywordBonus(c.Ability)
		})
	case game.EffectCopy:
		return bestBy(pool, func(c *game.CardInstance) float64 {
			if c.SpellShield {
				return -1
			}
			return creatureValue(c)
		})
	default:
		// Every other targeted effect hurts its target, so only enemies count.
		return bestBy(pool, func(c *game.CardInstance) float64 {
			if st.Controller(c) != enemySide || c.SpellShield {
				return -1
			}
			return creatureValue(c)
		})
	}
}

// creatureValue is how much a creature on the board is worth removing.
func creatureValue(c *game.CardInstance) float64 {
	return float64(c.Attack+c.Health) + keywordBonus(c.Ability)*2
}

// highValue reports whether a creature carries a keyword worth trading for.
func highValue(c *game.CardInstance) bool {
	ab := c.Ability
	return ab.Has(game.KeywordLifesteal) || ab.Has(game.KeywordTaunt) ||
		ab.Effect == game.EffectDraw || c.Has(game.KeywordSpellPower) ||
		ab.Has(game.KeywordWindfury) || ab.Has(game.KeywordPoison)
}

// bestBy returns the creature target with the highest non-negative score.
func bestBy(pool []game.Target, score func(*game.CardInstance) float64) (game.Target, bool) {
	best, bestScore := game.NoTarget, -1.0
	for _, t := range pool {
		if !t.IsCard() {
			continue
		}
		if s := score(t.Card); s >= 0 && s > bestScore {
			best, bestScore = t, s
		}
	}
	return best, bestScore >= 0
}

// attackPass attacks with every creature that can, re-reading the state
// after each attack.
func (o *Opponent) attackPass(a Actor) {
	tried := make(map[int]bool)
	for {
		st := a.CurrentState()
		if st.Over || st.Current != o.Side {
			return
		}
		var attacker *game.CardInstance
		for _, c := range st.Player(o.Side).Field {
			if !tried[c.ID] && game.CanAttack(c) {
				attacker = c
				break
			}
		}
		if attacker == nil {
			return
		}
		target, ok := o.ChooseAttack(st, attacker)
		if !ok {
			tried[attacker.ID] = true
			continue
		}
		if err := a.Attack(o.Side, attacker.ID, target); err != nil {
			o.log().Debug("attack rejected", zap.String("attacker", attacker.Card.Name), zap.Error(err))
			tried[attacker.ID] = true
		}
	}
}

// ChooseAttack picks attacker's target. Taunt is honoured through the legal
// target list, which only offers Taunt creatures while any exist.
func (o *Opponent) ChooseAttack(st *game.MatchState, attacker *game.CardInstance) (game.Target, bool) {
	targets := game.LegalAttackTargets(st, attacker)
	if len(targets) == 0 {
		return game.NoTarget, false
	}
	var face *game.Target
	var creatures []game.Target
	for i := range targets {
		if targets[i].IsPlayer() {
			face = &targets[i]
		} else {
			creatures = append(creatures, targets[i])
		}
	}

	killable := func(c *game.CardInstance) bool {
		if c.DivineShield || c.IsImmune() {
			return false
		}
		return c.Health <= attacker.Attack || attacker.Has(game.KeywordPoison) || attacker.Has(game.KeywordInstantKill)
	}

	if o.Profile.Strategy.GoesFace() {
		if face != nil {
			return *face, true
		}
		// Forced onto creatures: clear the easiest blocker.
		return bestBy(creatures, func(c *game.CardInstance) float64 {
			if killable(c) {
				return 100 - float64(c.Health)
			}
			return 10 - float64(c.Health)
		})
	}

	if best, ok := bestBy(creatures, func(c *game.CardInstance) float64 {
		if !killable(c) || !highValue(c) {
			return -1
		}
		return creatureValue(c)
	}); ok {
		return best, true
	}
	if face != nil {
		return *face, true
	}
	return bestBy(creatures, func(c *game.CardInstance) float64 {
		if killable(c) {
			return 100 + creatureValue(c)
		}
		return creatureValue(c)
	})
}
