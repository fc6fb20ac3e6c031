package game

import (
	"fmt"

	"github.com/peterkuimelis/cardclash/internal/log"
)

// CanAttack reports whether c may declare an attack right now, ignoring
// targets.
func CanAttack(c *CardInstance) bool {
	if c.Tapped || c.Frozen || c.Attack <= 0 {
		return false
	}
	if c.AttacksThisTurn >= c.MaxAttacks() {
		return false
	}
	if c.JustPlayed && !c.Has(KeywordCharge) && !c.Has(KeywordRush) {
		return false
	}
	return true
}

// rushOnly reports whether c is limited to attacking creatures this turn.
func rushOnly(c *CardInstance) bool {
	return c.JustPlayed && c.Has(KeywordRush) && !c.Has(KeywordCharge)
}

// ValidateAttack checks every attack precondition without mutating anything.
// The error is a *RejectError.
func ValidateAttack(ms *MatchState, attacker *CardInstance, target Target) error {
	side := ms.Controller(attacker)
	if side == SideNone {
		return reject(ErrInvalidTarget, "attacker is not on the field")
	}
	enemy := ms.Player(side.Other())

	if !CanAttack(attacker) {
		return reject(ErrCannotAttack, cannotAttackReason(attacker))
	}

	var defender *CardInstance
	switch {
	case target.IsPlayer():
		if target.Side != side.Other() {
			return reject(ErrInvalidTarget, "cannot attack yourself")
		}
	case target.IsCard():
		defender = enemy.FieldCard(target.Card.ID)
		if defender == nil {
			return reject(ErrInvalidTarget, fmt.Sprintf("%s is not an enemy creature", target.Card.Card.Name))
		}
	default:
		return reject(ErrInvalidTarget, "no target")
	}

	if defender == nil && rushOnly(attacker) {
		return reject(ErrRushTarget, fmt.Sprintf("%s has Rush and can only attack creatures this turn", attacker.Card.Name))
	}

	if taunts := enemy.Taunts(); len(taunts) > 0 && !attacker.Has(KeywordUnblockable) {
		if defender == nil || !defender.Taunt {
			return reject(ErrTaunt, fmt.Sprintf("you must attack %s (Taunt) first", taunts[0].Card.Name))
		}
	}

	if defender == nil {
		return nil
	}

	if !defender.Tapped && !defender.Taunt {
		reason := fmt.Sprintf("%s is untapped and cannot be attacked", defender.Card.Name)
		for _, c := range enemy.Field {
			if c.Tapped && !c.Stealth {
				reason += fmt.Sprintf("; attack %s (tapped) instead", c.Card.Name)
				break
			}
		}
		return reject(ErrNotAttackable, reason)
	}
	if defender.Stealth {
		return reject(ErrStealthed, fmt.Sprintf("%s is stealthed", defender.Card.Name))
	}
	if defender.Has(KeywordFlying) && !attacker.Has(KeywordFlying) && !attacker.Has(KeywordReach) {
		return reject(ErrFlying, fmt.Sprintf("%s is flying; only Flying or Reach creatures can attack it", defender.Card.Name))
	}
	return nil
}

func cannotAttackReason(c *CardInstance) string {
	name := c.Card.Name
	switch {
	case c.Frozen:
		return name + " is frozen"
	case c.Tapped:
		return name + " is tapped"
	case c.AttacksThisTurn >= c.MaxAttacks():
		return name + " has already attacked this turn"
	case c.JustPlayed:
		return name + " was just played"
	default:
		return name + " has no attack"
	}
}

// LegalAttackTargets lists every target attacker may legally hit.
func LegalAttackTargets(ms *MatchState, attacker *CardInstance) []Target {
	side := ms.Controller(attacker)
	if side == SideNone || !CanAttack(attacker) {
		return nil
	}
	var out []Target
	for _, c := range ms.Player(side.Other()).Field {
		t := CardTarget(c, side.Other())
		if ValidateAttack(ms, attacker, t) == nil {
			out = append(out, t)
		}
	}
	if face := PlayerTarget(side.Other()); ValidateAttack(ms, attacker, face) == nil {
		out = append(out, face)
	}
	return out
}

// Attack validates and resolves an attack. Nothing changes if it is rejected.
func (r *Resolver) Attack(ms *MatchState, attacker *CardInstance, target Target) error {
	if err := ValidateAttack(ms, attacker, target); err != nil {
		return err
	}
	side := ms.Controller(attacker)
	enemy := side.Other()
	turn, phase := ms.Turn, ms.Phase().String()

	attacker.Stealth = false
	attacker.AttacksThisTurn++
	attacker.HasAttackedThisTurn = true
	if attacker.AttacksThisTurn >= attacker.MaxAttacks() && !attacker.Vigilance {
		attacker.Tapped = true
	}

	if target.IsPlayer() {
		damage := attacker.Attack
		r.log(log.NewDirectAttackEvent(turn, phase, int(side), attacker.Card.Name, damage))
		r.damagePlayer(ms, enemy, damage, attacker.Card.Name)
		if attacker.Has(KeywordLifesteal) {
			r.healPlayer(ms, side, damage, "lifesteal")
		}
		r.ProcessDeaths(ms)
		return nil
	}

	defender := ms.Player(enemy).FieldCard(target.Card.ID)
	r.log(log.NewAttackDeclareEvent(turn, phase, int(side), attacker.Card.Name, defender.Card.Name))

	if defender.IsImmune() {
		r.log(log.NewAbsorbEvent(turn, phase, int(enemy), defender.Card.Name, "immune: attack absorbed"))
		return nil
	}

	atkFirst := attacker.Has(KeywordFirstStrike)
	defFirst := defender.Has(KeywordFirstStrike)
	atkDamage, defDamage := attacker.Attack, defender.Attack

	var dealt, excess int
	switch {
	case atkFirst && !defFirst:
		dealt, excess = r.strike(ms, attacker, defender, atkDamage)
		if defender.Health > 0 {
			r.strike(ms, defender, attacker, defDamage)
		}
	case defFirst && !atkFirst:
		r.strike(ms, defender, attacker, defDamage)
		if attacker.Health > 0 {
			dealt, excess = r.strike(ms, attacker, defender, atkDamage)
		}
	default:
		dealt, excess = r.strike(ms, attacker, defender, atkDamage)
		r.strike(ms, defender, attacker, defDamage)
	}

	if dealt > 0 && defender.Health > 0 && attacker.Has(KeywordFreezeOnHit) {
		r.freeze(ms, defender)
	}
	if excess > 0 && attacker.Has(KeywordTrample) {
		r.damagePlayer(ms, enemy, excess, "trample: "+attacker.Card.Name)
	}
	if dealt > 0 && attacker.Has(KeywordLifesteal) {
		r.healPlayer(ms, side, dealt, "lifesteal")
	}

	r.ProcessDeaths(ms)
	return nil
}

// strike deals one combat hit from src to dst. It returns the damage taken
// and, when the hit was lethal, how far it overshot dst's health.
func (r *Resolver) strike(ms *MatchState, src, dst *CardInstance, amount int) (dealt, excess int) {
	before := dst.Health
	dealt = r.damageCreature(ms, dst, amount, src.Card.Name)
	if dealt == 0 {
		return 0, 0
	}
	if dealt > before {
		excess = dealt - before
	}
	if dst.Health > 0 && (src.Has(KeywordPoison) || src.InstantKill) {
		dst.Health = 0
		r.log(log.NewDestroyEvent(ms.Turn, ms.Phase().String(), int(ms.Controller(dst)), dst.Card.Name, "poisoned by "+src.Card.Name))
	}
	return dealt, excess
}
