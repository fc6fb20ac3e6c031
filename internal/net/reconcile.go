package net

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/peterkuimelis/cardclash/internal/game"
	"github.com/peterkuimelis/cardclash/internal/log"
)

// ErrDesync means an authoritative snapshot could not be applied. The local
// state is untouched and the caller should ask for a fresh snapshot.
var ErrDesync = errors.New("desync")

// Reconciler overwrites a local prediction with authoritative snapshots.
// Snapshots older than the last one applied are ignored.
type Reconciler struct {
	Catalog *game.Catalog
	Logger  log.EventLogger

	lastSeq int64
}

// NewReconciler creates a reconciler that rebuilds cards from cat.
func NewReconciler(cat *game.Catalog, logger log.EventLogger) *Reconciler {
	if logger == nil {
		logger = log.NewMemoryLogger()
	}
	return &Reconciler{Catalog: cat, Logger: logger}
}

// LastSeq returns the sequence number of the last applied snapshot.
func (r *Reconciler) LastSeq() int64 {
	return r.lastSeq
}

// Reset forgets the last sequence number, for a new match.
func (r *Reconciler) Reset() {
	r.lastSeq = 0
}

// Apply overwrites local with snap. It reports whether the snapshot was
// applied; stale and duplicate snapshots are skipped. A malformed snapshot
// returns an error wrapping ErrDesync and leaves local unchanged.
func (r *Reconciler) Apply(local *game.MatchState, snap *Snapshot) (bool, error) {
	if snap == nil {
		return false, fmt.Errorf("%w: empty snapshot", ErrDesync)
	}
	if snap.Seq <= r.lastSeq {
		return false, nil
	}
	id, players, err := r.rebuild(local, snap)
	if err != nil {
		return false, err
	}
	pending, err := pendingFrom(snap, players)
	if err != nil {
		return false, err
	}

	local.ID = id
	for i, p := range local.Players {
		src := snap.Players[i]
		p.Health = src.Health
		p.MaxHealth = src.MaxHealth
		p.Mana = src.Mana
		p.MaxMana = src.MaxMana
		p.Hand = players[i].hand
		p.Field = players[i].field
	}
	local.Current = game.Side(snap.CurrentTurn)
	local.Turn = snap.TurnNumber
	local.Over = snap.GameOver
	local.Winner = game.Side(snap.Winner)
	local.Result = snap.Result
	local.Pending = pending

	r.lastSeq = snap.Seq
	r.Logger.Log(log.NewReconcileEvent(local.Turn, local.Phase().String(), snap.CurrentTurn, snap.Seq))
	return true, nil
}

type rebuiltZones struct {
	hand, field []*game.CardInstance
}

// rebuild validates the snapshot and constructs every instance before
// anything in local is overwritten.
func (r *Reconciler) rebuild(local *game.MatchState, snap *Snapshot) (uuid.UUID, [2]rebuiltZones, error) {
	var out [2]rebuiltZones
	desync := func(format string, args ...any) (uuid.UUID, [2]rebuiltZones, error) {
		return uuid.Nil, out, fmt.Errorf("%w: "+format, append([]any{ErrDesync}, args...)...)
	}

	id, err := uuid.Parse(snap.MatchID)
	if err != nil {
		return desync("bad match id %q", snap.MatchID)
	}
	if len(snap.Players) != 2 {
		return desync("%d players", len(snap.Players))
	}
	if !game.Side(snap.CurrentTurn).Valid() {
		return desync("current turn %d", snap.CurrentTurn)
	}
	if snap.TurnNumber < 0 {
		return desync("turn number %d", snap.TurnNumber)
	}
	if w := game.Side(snap.Winner); w != game.SideNone && !w.Valid() {
		return desync("winner %d", snap.Winner)
	}

	rules := local.Rules
	seen := make(map[int]bool)
	for i, ps := range snap.Players {
		if ps.Mana < 0 || ps.MaxMana < 0 || ps.MaxHealth <= 0 {
			return desync("player %d counters", i)
		}
		if len(ps.Hand) > rules.HandLimit {
			return desync("player %d holds %d cards", i, len(ps.Hand))
		}
		if len(ps.Field) > rules.FieldLimit {
			return desync("player %d fields %d creatures", i, len(ps.Field))
		}
		for _, cs := range ps.Hand {
			ci, err := r.instance(local, cs, seen)
			if err != nil {
				return desync("player %d hand: %v", i, err)
			}
			out[i].hand = append(out[i].hand, ci)
		}
		for _, cs := range ps.Field {
			ci, err := r.instance(local, cs, seen)
			if err != nil {
				return desync("player %d field: %v", i, err)
			}
			if !ci.Card.IsCreature() {
				return desync("player %d field holds spell %s", i, ci.Card.Name)
			}
			ci.EnterField()
			ci.Tapped = cs.Tapped
			ci.HasAttackedThisTurn = cs.HasAttackedThisTurn
			ci.JustPlayed = cs.JustPlayed
			ci.Frozen = cs.Frozen
			ci.AttacksThisTurn = cs.AttacksThisTurn
			out[i].field = append(out[i].field, ci)
		}
	}
	return id, out, nil
}

func pendingFrom(snap *Snapshot, players [2]rebuiltZones) (*game.PendingSpell, error) {
	if snap.Pending == nil {
		return nil, nil
	}
	side := game.Side(snap.Pending.Side)
	if !side.Valid() {
		return nil, fmt.Errorf("%w: pending side %d", ErrDesync, snap.Pending.Side)
	}
	for _, ci := range players[side].hand {
		if ci.ID != snap.Pending.CardID {
			continue
		}
		class := ci.Ability.TargetClass()
		if !ci.Card.IsSpell() || class == game.TargetNone {
			return nil, fmt.Errorf("%w: pending card %s takes no target", ErrDesync, ci.Card.Name)
		}
		return &game.PendingSpell{Card: ci, Side: side, Class: class}, nil
	}
	return nil, fmt.Errorf("%w: pending card #%d not in hand", ErrDesync, snap.Pending.CardID)
}

// instance rebuilds one card from its template. Catalog cards are looked up
// by name; tokens are rebuilt from the transmitted template.
func (r *Reconciler) instance(local *game.MatchState, cs CardSnapshot, seen map[int]bool) (*game.CardInstance, error) {
	if cs.ID <= 0 || seen[cs.ID] {
		return nil, fmt.Errorf("bad or repeated card id %d", cs.ID)
	}
	seen[cs.ID] = true
	owner := game.Side(cs.Owner)
	if !owner.Valid() {
		return nil, fmt.Errorf("card #%d owner %d", cs.ID, cs.Owner)
	}

	var card *game.Card
	if cs.Token {
		if cs.Name == "" {
			return nil, fmt.Errorf("unnamed token #%d", cs.ID)
		}
		card = game.NewToken(cs.Name, cs.CardAttack, cs.CardHealth)
		card.AbilityText = cs.AbilityText
		if err := card.Compile(); err != nil {
			return nil, err
		}
	} else {
		var ok bool
		card, ok = r.Catalog.Lookup(cs.Name)
		if !ok {
			return nil, fmt.Errorf("unknown card %q", cs.Name)
		}
	}

	ci := local.Restore(card, cs.ID, owner)
	if cs.Silenced {
		ci.Silence()
	}
	if cs.RebornSpent {
		ci.Ability.Keywords &^= game.KeywordReborn
	}
	ci.BaseAttack = cs.BaseAttack
	ci.BaseHealth = cs.BaseHealth
	ci.Attack = cs.Attack
	ci.Health = cs.Health
	return ci, nil
}
