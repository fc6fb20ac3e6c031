package game

import "github.com/peterkuimelis/cardclash/internal/log"

// StartTurn runs side's turn-entry actions: counters, mana, untap, burn
// triggers from the opposing field, the draw, and the turn snapshot.
func (r *Resolver) StartTurn(ms *MatchState, side Side) {
	if ms.Over {
		return
	}
	ms.Current = side
	ms.Turn++
	ms.SideTurns[side]++
	turn, phase := ms.Turn, ms.Phase().String()

	p := ms.Player(side)
	r.log(log.NewTurnEvent(turn, phase, int(side)))

	if p.MaxMana < r.Rules.ManaCap[side] {
		p.MaxMana++
	}
	p.Mana = p.MaxMana

	for _, c := range p.Field {
		c.Tapped = false
		c.HasAttackedThisTurn = false
		c.JustPlayed = false
		c.AttacksThisTurn = 0
	}

	for _, c := range ms.Player(side.Other()).Field {
		if c.Has(KeywordBurn) {
			r.damagePlayer(ms, side, 1, "burn: "+c.Card.Name)
		}
	}
	r.checkWin(ms)
	if ms.Over {
		return
	}

	r.draw(ms, side)
	ms.takeSnapshot()
}

// EndTurn runs the end-of-turn cleanup and starts the next turn. An extra
// turn flag makes the same side go again once.
func (r *Resolver) EndTurn(ms *MatchState) {
	if ms.Over {
		return
	}
	side := ms.Current
	turn, phase := ms.Turn, ms.Phase().String()

	ms.Pending = nil
	for _, p := range ms.Players {
		for _, c := range p.Field {
			c.TempImmune = false
		}
	}
	for _, c := range ms.Player(side).Field {
		c.Frozen = false
	}
	r.log(log.NewEndTurnEvent(turn, phase, int(side)))

	next := side.Other()
	if ms.ExtraTurn[side] {
		ms.ExtraTurn[side] = false
		next = side
	}
	r.StartTurn(ms, next)
}
