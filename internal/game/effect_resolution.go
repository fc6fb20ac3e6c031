package game

import (
	"fmt"
	"math/rand"

	"github.com/peterkuimelis/cardclash/internal/log"
)

// Resolver applies abilities, combat, and turn transitions to an explicit
// MatchState. It holds no match state of its own.
type Resolver struct {
	Rules  Rules
	Logger log.EventLogger
	Rand   *rand.Rand
}

// NewResolver builds a resolver. A nil logger keeps only the most recent
// events.
func NewResolver(rules Rules, logger log.EventLogger, rng *rand.Rand) *Resolver {
	if logger == nil {
		logger = log.NewCappedLogger(log.DefaultLogCapacity)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Resolver{Rules: rules, Logger: logger, Rand: rng}
}

func (r *Resolver) log(event log.GameEvent) {
	r.Logger.Log(event)
}

// Resolve applies ab on behalf of side, then runs the death check and the win
// check. Abilities with no effect resolve as a silent no-op.
func (r *Resolver) Resolve(ms *MatchState, ab Ability, source *CardInstance, side Side, target Target) {
	if ms.Over {
		return
	}
	r.apply(ms, ab, source, side, target)
	r.ProcessDeaths(ms)
}

// autoTarget picks the target for an ability that fires without a player
// choice (creature on-play, deathrattle). Only any-enemy effects have an
// obvious default: the enemy player.
func autoTarget(ab Ability, side Side) (Target, bool) {
	switch ab.TargetClass() {
	case TargetNone:
		return NoTarget, true
	case TargetAnyEnemy:
		return PlayerTarget(side.Other()), true
	default:
		return NoTarget, false
	}
}

func (r *Resolver) apply(ms *MatchState, ab Ability, source *CardInstance, side Side, target Target) {
	turn, phase := ms.Turn, ms.Phase().String()
	p := ms.Player(side)
	opp := ms.Player(side.Other())

	// Resolve a creature target against the live state; the caller may hold a
	// pointer from another copy.
	if target.IsCard() {
		live, _ := ms.Locate(target.Card.ID)
		if live == nil {
			return
		}
		target.Card = live
	}
	if ab.NeedsTarget() && target.IsNone() {
		return
	}

	switch ab.Effect {
	case EffectDamage:
		amount := ab.Amount
		if source != nil && source.Card.IsSpell() {
			amount += p.SpellPower()
		}
		reason := sourceName(source)
		switch {
		case ab.Scope == ScopeEnemyPlayer:
			r.damagePlayer(ms, side.Other(), amount, reason)
		case target.IsPlayer():
			r.damagePlayer(ms, target.Side, amount, reason)
		case target.IsCard():
			r.damageCreature(ms, target.Card, amount, reason)
			if ab.Freeze && target.Card.Health > 0 {
				r.freeze(ms, target.Card)
			}
		}

	case EffectDamageAll:
		amount := ab.Amount
		if source != nil && source.Card.IsSpell() {
			amount += p.SpellPower()
		}
		reason := sourceName(source)
		for _, c := range r.creaturesInScope(ms, ab.Scope, side) {
			r.damageCreature(ms, c, amount, reason)
		}
		if ab.Scope == ScopeEnemies {
			r.damagePlayer(ms, side.Other(), amount, reason)
		}

	case EffectHeal:
		r.healPlayer(ms, side, ab.Amount, sourceName(source))

	case EffectBuffAll:
		for _, c := range p.Field {
			r.buff(ms, c, ab.Attack, ab.Health)
		}

	case EffectBuffTarget:
		r.buff(ms, target.Card, ab.Attack, ab.Health)

	case EffectDraw:
		for i := 0; i < ab.Amount; i++ {
			r.draw(ms, side)
		}

	case EffectSummon:
		token := NewToken(ab.Token, ab.Attack, ab.Health)
		for i := 0; i < ab.Count && len(p.Field) < r.Rules.FieldLimit; i++ {
			ci := ms.NewInstance(token, side)
			r.placeOnField(ms, ci, side)
			r.log(log.NewSummonEvent(turn, phase, int(side), ci.Card.Name, ci.Attack, ci.Health))
		}

	case EffectDestroyAll:
		for _, c := range r.creaturesInScope(ms, ab.Scope, side) {
			r.destroy(ms, c, sourceName(source))
		}

	case EffectDestroyTarget:
		r.destroy(ms, target.Card, sourceName(source))

	case EffectDiscardHand:
		for _, c := range opp.Hand {
			r.log(log.NewDiscardEvent(turn, phase, int(side.Other()), c.Card.Name))
		}
		opp.Hand = nil

	case EffectFullHealField:
		for _, c := range p.Field {
			if c.Health < c.BaseHealth {
				c.Health = c.BaseHealth
				r.log(log.NewHealEvent(turn, phase, int(side), c.Card.Name, c.Health))
			}
		}

	case EffectResurrect:
		r.resurrect(ms, side, ab.Amount)

	case EffectReturnToHand:
		r.returnToHand(ms, target.Card)

	case EffectSteal:
		r.steal(ms, target.Card, side)

	case EffectSilence:
		target.Card.Silence()
		r.log(log.NewSilenceEvent(turn, phase, int(side), target.Card.Card.Name))

	case EffectExtraTurn:
		ms.ExtraTurn[side] = true
		r.log(log.NewExtraTurnEvent(turn, phase, int(side)))

	case EffectChaos:
		r.chaos(ms, side)

	case EffectFreezeTarget:
		r.freeze(ms, target.Card)

	case EffectTransform:
		r.transform(ms, target.Card, NewToken(ab.Token, ab.Attack, ab.Health))

	case EffectCopy:
		if len(p.Field) >= r.Rules.FieldLimit {
			return
		}
		orig := target.Card
		ci := ms.NewInstance(orig.Card, side)
		ci.Ability = orig.Ability
		ci.BaseAttack, ci.BaseHealth = orig.BaseAttack, orig.BaseHealth
		ci.Attack, ci.Health = orig.Attack, orig.Health
		r.placeOnField(ms, ci, side)
		r.log(log.NewSummonEvent(turn, phase, int(side), ci.Card.Name, ci.Attack, ci.Health))

	case EffectRewind:
		r.rewind(ms, source, side)

	case EffectGrantImmune:
		for _, c := range p.Field {
			c.TempImmune = true
		}
	}
}

func sourceName(source *CardInstance) string {
	if source == nil {
		return ""
	}
	return source.Card.Name
}

func (r *Resolver) creaturesInScope(ms *MatchState, scope Scope, side Side) []*CardInstance {
	var out []*CardInstance
	switch scope {
	case ScopeEnemyCreatures, ScopeEnemies:
		out = append(out, ms.Player(side.Other()).Field...)
	case ScopeFriendlyCreatures:
		out = append(out, ms.Player(side).Field...)
	case ScopeAllCreatures:
		out = append(out, ms.Player(side).Field...)
		out = append(out, ms.Player(side.Other()).Field...)
	}
	return out
}

// --- Primitive mutations ---

// damageCreature applies one instance of damage. Immune creatures ignore it
// and Divine Shield absorbs it. Returns the damage actually taken.
func (r *Resolver) damageCreature(ms *MatchState, c *CardInstance, amount int, reason string) int {
	if amount <= 0 {
		return 0
	}
	side := ms.Controller(c)
	turn, phase := ms.Turn, ms.Phase().String()
	if c.IsImmune() {
		r.log(log.NewAbsorbEvent(turn, phase, int(side), c.Card.Name, "immune"))
		return 0
	}
	if c.DivineShield {
		c.DivineShield = false
		r.log(log.NewShieldBreakEvent(turn, phase, int(side), c.Card.Name, "Divine Shield"))
		return 0
	}
	c.Health -= amount
	r.log(log.NewDamageEvent(turn, phase, int(side), c.Card.Name, amount, c.Health, reason))
	if c.Health > 0 && c.Has(KeywordEnrage) && !c.Enraged {
		c.Enraged = true
		c.Attack += 2
		r.log(log.NewBuffEvent(turn, phase, int(side), c.Card.Name, c.Attack, c.Health))
	}
	return amount
}

// destroy marks c for removal unless Immune or Divine Shield saves it.
func (r *Resolver) destroy(ms *MatchState, c *CardInstance, reason string) {
	side := ms.Controller(c)
	turn, phase := ms.Turn, ms.Phase().String()
	if c.IsImmune() {
		r.log(log.NewAbsorbEvent(turn, phase, int(side), c.Card.Name, "immune"))
		return
	}
	if c.DivineShield {
		c.DivineShield = false
		r.log(log.NewShieldBreakEvent(turn, phase, int(side), c.Card.Name, "Divine Shield"))
		return
	}
	c.Health = 0
	r.log(log.NewDestroyEvent(turn, phase, int(side), c.Card.Name, reason))
}

func (r *Resolver) damagePlayer(ms *MatchState, side Side, amount int, reason string) {
	if amount <= 0 {
		return
	}
	p := ms.Player(side)
	old := p.Health
	p.Health -= amount
	r.log(log.NewHPChangeEvent(ms.Turn, ms.Phase().String(), int(side), old, p.Health, reason))
}

// healPlayer restores health up to MaxHealth and returns the amount healed.
func (r *Resolver) healPlayer(ms *MatchState, side Side, amount int, reason string) int {
	p := ms.Player(side)
	healed := amount
	if room := p.MaxHealth - p.Health; healed > room {
		healed = room
	}
	if healed <= 0 {
		return 0
	}
	old := p.Health
	p.Health += healed
	r.log(log.NewHPChangeEvent(ms.Turn, ms.Phase().String(), int(side), old, p.Health, reason))
	return healed
}

func (r *Resolver) buff(ms *MatchState, c *CardInstance, atk, hp int) {
	c.Attack += atk
	c.BaseAttack += atk
	c.Health += hp
	c.BaseHealth += hp
	r.log(log.NewBuffEvent(ms.Turn, ms.Phase().String(), int(ms.Controller(c)), c.Card.Name, c.Attack, c.Health))
}

func (r *Resolver) freeze(ms *MatchState, c *CardInstance) {
	c.Frozen = true
	r.log(log.NewFreezeEvent(ms.Turn, ms.Phase().String(), int(ms.Controller(c)), c.Card.Name))
}

func (r *Resolver) placeOnField(ms *MatchState, ci *CardInstance, side Side) {
	ci.EnterField()
	p := ms.Player(side)
	p.Field = append(p.Field, ci)
}

// draw moves the top card of side's deck into its hand. An empty deck does
// nothing; a full hand burns the card.
func (r *Resolver) draw(ms *MatchState, side Side) {
	p := ms.Player(side)
	card := p.DrawCard()
	if card == nil {
		return
	}
	turn, phase := ms.Turn, ms.Phase().String()
	if len(p.Hand) >= r.Rules.HandLimit {
		r.log(log.NewBurnCardEvent(turn, phase, int(side), card.Card.Name))
		return
	}
	p.Hand = append(p.Hand, card)
	r.log(log.NewDrawEvent(turn, phase, int(side), card.Card.Name))
}

func (r *Resolver) resurrect(ms *MatchState, side Side, limit int) {
	p := ms.Player(side)
	count := 0
	for i := len(p.Graveyard) - 1; i >= 0; i-- {
		if len(p.Field) >= r.Rules.FieldLimit || (limit > 0 && count >= limit) {
			break
		}
		rec := p.Graveyard[i]
		p.Graveyard = append(p.Graveyard[:i], p.Graveyard[i+1:]...)
		ci := ms.NewInstance(rec.Card, side)
		ci.BaseAttack, ci.BaseHealth = rec.BaseAttack, rec.BaseHealth
		ci.Attack, ci.Health = rec.BaseAttack, rec.BaseHealth
		r.placeOnField(ms, ci, side)
		r.log(log.NewResurrectEvent(ms.Turn, ms.Phase().String(), int(side), ci.Card.Name))
		count++
	}
}

// returnToHand bounces c to its owner's hand as a fresh copy. Tokens and
// cards bounced into a full hand are destroyed instead.
func (r *Resolver) returnToHand(ms *MatchState, c *CardInstance) {
	side := ms.Controller(c)
	turn, phase := ms.Turn, ms.Phase().String()
	ms.Player(side).RemoveFromField(c)
	owner := ms.Player(c.Owner)
	if c.Card.Token || len(owner.Hand) >= r.Rules.HandLimit {
		r.log(log.NewDestroyEvent(turn, phase, int(side), c.Card.Name, "no room in hand"))
		if !c.Card.Token {
			r.bury(ms, c, c.Owner)
		}
		return
	}
	owner.Hand = append(owner.Hand, ms.NewInstance(c.Card, c.Owner))
	r.log(log.NewReturnToHandEvent(turn, phase, int(c.Owner), c.Card.Name))
}

func (r *Resolver) steal(ms *MatchState, c *CardInstance, side Side) {
	from := ms.Controller(c)
	if from == side || len(ms.Player(side).Field) >= r.Rules.FieldLimit {
		return
	}
	ms.Player(from).RemoveFromField(c)
	health, attack := c.Health, c.Attack
	r.placeOnField(ms, c, side)
	c.Attack, c.Health = attack, health
	r.log(log.NewChangeControlEvent(ms.Turn, ms.Phase().String(), int(side), c.Card.Name, int(side)))
}

// transform replaces c in place with a fresh instance of into, keeping its
// controller and combat state.
func (r *Resolver) transform(ms *MatchState, c *CardInstance, into *Card) {
	side := ms.Controller(c)
	field := ms.Player(side).Field
	for i, f := range field {
		if f.ID != c.ID {
			continue
		}
		ci := ms.NewInstance(into, c.Owner)
		ci.Flags = DeriveFlags(ci.Ability)
		ci.Tapped = c.Tapped
		ci.Frozen = c.Frozen
		ci.JustPlayed = c.JustPlayed
		ci.HasAttackedThisTurn = c.HasAttackedThisTurn
		ci.AttacksThisTurn = c.AttacksThisTurn
		field[i] = ci
		r.log(log.NewTransformEvent(ms.Turn, ms.Phase().String(), int(side), c.Card.Name, into.Name))
		return
	}
}

// chaosOutcomes are the sub-effects a Chaos spell picks from uniformly.
var chaosOutcomes = []string{
	"3 damage to the enemy player",
	"heal 3",
	"both players draw a card",
	"2 damage to all creatures",
	"players swap health",
}

func (r *Resolver) chaos(ms *MatchState, side Side) {
	turn, phase := ms.Turn, ms.Phase().String()
	pick := r.Rand.Intn(len(chaosOutcomes))
	r.log(log.NewChaosEvent(turn, phase, int(side), chaosOutcomes[pick]))

	switch pick {
	case 0:
		r.damagePlayer(ms, side.Other(), 3, "chaos")
	case 1:
		r.healPlayer(ms, side, 3, "chaos")
	case 2:
		r.draw(ms, side)
		r.draw(ms, side.Other())
	case 3:
		for _, c := range r.creaturesInScope(ms, ScopeAllCreatures, side) {
			r.damageCreature(ms, c, 2, "chaos")
		}
	case 4:
		a, b := ms.Players[0], ms.Players[1]
		a.Health, b.Health = b.Health, a.Health
		r.log(log.NewHPChangeEvent(turn, phase, 0, b.Health, a.Health, "chaos swap"))
		r.log(log.NewHPChangeEvent(turn, phase, 1, a.Health, b.Health, "chaos swap"))
	}
	r.checkChaosWin(ms, side)
}

// checkChaosWin applies the chaos rule: a player left at exactly 3 health
// wins on the spot. The caster is checked first.
func (r *Resolver) checkChaosWin(ms *MatchState, caster Side) {
	for _, s := range []Side{caster, caster.Other()} {
		if ms.Player(s).Health == 3 {
			ms.Over = true
			ms.Winner = s
			ms.Result = fmt.Sprintf("%s wins: chaos left them at exactly 3 health", s)
			r.log(log.NewWinEvent(ms.Turn, ms.Phase().String(), int(s), "chaos at exactly 3 health"))
			return
		}
	}
}

// rewind restores the turn snapshot in place and removes the rewinding card
// from the caster's hand in the restored state.
func (r *Resolver) rewind(ms *MatchState, source *CardInstance, side Side) {
	if ms.Snapshot == nil {
		return
	}
	snap := ms.Snapshot
	restored := snap.Clone()
	id, nextID := ms.ID, ms.nextID
	*ms = *restored
	ms.ID = id
	ms.Snapshot = snap
	ms.Pending = nil
	if nextID > ms.nextID {
		ms.nextID = nextID
	}
	if source != nil {
		p := ms.Player(side)
		for _, c := range p.Hand {
			if c.ID == source.ID {
				p.RemoveFromHand(c)
				break
			}
		}
	}
	r.log(log.NewRewindEvent(ms.Turn, ms.Phase().String(), int(side)))
}

// --- Death check ---

// bury records c in side's graveyard with its current base stats.
func (r *Resolver) bury(ms *MatchState, c *CardInstance, side Side) {
	if c.Card.Token {
		return
	}
	p := ms.Player(side)
	p.Graveyard = append(p.Graveyard, GraveRecord{
		Card:       c.Card,
		Owner:      c.Owner,
		BaseAttack: c.BaseAttack,
		BaseHealth: c.BaseHealth,
	})
	r.log(log.NewSendToGraveyardEvent(ms.Turn, ms.Phase().String(), int(side), c.Card.Name))
}

type death struct {
	card *CardInstance
	side Side
}

// ProcessDeaths removes every creature at or below zero health, records it in
// its controller's graveyard, and fires Deathrattle and Reborn. Deaths caused
// by those triggers are handled as a further batch. Ends with a win check.
func (r *Resolver) ProcessDeaths(ms *MatchState) {
	for {
		var dead []death
		for s := SidePlayer; s <= SideOpponent; s++ {
			p := ms.Player(s)
			var alive []*CardInstance
			for _, c := range p.Field {
				if c.Health <= 0 {
					dead = append(dead, death{c, s})
				} else {
					alive = append(alive, c)
				}
			}
			p.Field = alive
		}
		if len(dead) == 0 {
			break
		}
		for _, d := range dead {
			r.bury(ms, d.card, d.side)
		}
		for _, d := range dead {
			r.afterDeath(ms, d.card, d.side)
		}
		if ms.Over {
			return
		}
	}
	r.checkWin(ms)
}

func (r *Resolver) afterDeath(ms *MatchState, c *CardInstance, side Side) {
	if dr := c.Ability.Deathrattle; dr != nil && !ms.Over {
		if target, ok := autoTarget(*dr, side); ok {
			r.apply(ms, *dr, c, side, target)
		}
	}
	if c.Has(KeywordReborn) && len(ms.Player(side).Field) < r.Rules.FieldLimit {
		ci := ms.NewInstance(c.Card, c.Owner)
		ci.Ability.Keywords &^= KeywordReborn
		ci.Health = 1
		r.placeOnField(ms, ci, side)
		r.log(log.NewResurrectEvent(ms.Turn, ms.Phase().String(), int(side), ci.Card.Name))
	}
}

func (r *Resolver) checkWin(ms *MatchState) {
	if ms.Over || !ms.CheckWinCondition() {
		return
	}
	if ms.Winner == SideNone {
		r.log(log.NewTieEvent(ms.Turn, ms.Phase().String(), ms.Result))
		return
	}
	r.log(log.NewWinEvent(ms.Turn, ms.Phase().String(), int(ms.Winner), ms.Result))
}
