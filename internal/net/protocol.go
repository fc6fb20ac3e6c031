package net

import (
	"fmt"

	"github.com/peterkuimelis/cardclash/internal/game"
	"github.com/peterkuimelis/cardclash/internal/log"
)

// Message types for the JSON protocol over websocket.
const (
	// Client → server.
	TypeJoin         = "join"
	TypePlayCard     = "playCard"
	TypeAttack       = "attack"
	TypeEndTurn      = "endTurn"
	TypeSelectTarget = "selectTarget"
	TypeCancelTarget = "cancelTarget"
	TypeResync       = "resync"

	// Server → client.
	TypeWelcome  = "welcome"
	TypeSnapshot = "snapshot"
	TypeRejected = "rejected"
	TypeEvent    = "event"
)

// --- Client → Server messages ---

// ClientMessage is the envelope for all client-to-server messages.
type ClientMessage struct {
	Type    string `json:"type"`
	MatchID string `json:"matchId,omitempty"`

	// For "playCard"
	CardID int `json:"cardId,omitempty"`

	// For "attack"
	AttackerID int `json:"attackerId,omitempty"`

	// For "attack" and "selectTarget"
	Target *TargetRef `json:"target,omitempty"`

	// For "join" (initial handshake)
	DeckNumber int `json:"deckNumber,omitempty"`
}

// TargetRef names a target on the wire: a player by side, or a creature by
// instance ID.
type TargetRef struct {
	Player *int `json:"player,omitempty"`
	CardID int  `json:"cardId,omitempty"`
}

// RefFor encodes a target.
func RefFor(t game.Target) *TargetRef {
	switch {
	case t.IsPlayer():
		side := int(t.Side)
		return &TargetRef{Player: &side}
	case t.IsCard():
		return &TargetRef{CardID: t.Card.ID}
	}
	return nil
}

// Resolve decodes a target against ms.
func (r *TargetRef) Resolve(ms *game.MatchState) (game.Target, error) {
	if r == nil {
		return game.NoTarget, fmt.Errorf("missing target")
	}
	if r.Player != nil {
		side := game.Side(*r.Player)
		if !side.Valid() {
			return game.NoTarget, fmt.Errorf("bad player %d", *r.Player)
		}
		return game.PlayerTarget(side), nil
	}
	c, controller := ms.Locate(r.CardID)
	if c == nil {
		return game.NoTarget, fmt.Errorf("no creature #%d on the field", r.CardID)
	}
	return game.CardTarget(c, controller), nil
}

// --- Server → Client messages ---

// ServerMessage is the envelope for all server-to-client messages. Snapshot
// fields are inlined so a snapshot reads as one flat object.
type ServerMessage struct {
	Type string `json:"type"`

	// For "snapshot"
	*Snapshot

	// For "welcome"
	Seat int `json:"seat,omitempty"`

	// For "rejected"
	Reason string `json:"reason,omitempty"`

	// For "event"
	Event *EventView `json:"event,omitempty"`
}

// EventView is a simplified game event for the client.
type EventView struct {
	Turn    int    `json:"turn"`
	Phase   string `json:"phase"`
	Player  int    `json:"player"`
	Type    string `json:"type"`
	Card    string `json:"card,omitempty"`
	Details string `json:"details"`
}

// NewEventView converts a game event for the wire.
func NewEventView(e log.GameEvent) *EventView {
	return &EventView{
		Turn:    e.Turn,
		Phase:   e.Phase,
		Player:  e.Player,
		Type:    e.Type.String(),
		Card:    e.Card,
		Details: e.Details,
	}
}

// GameEvent converts back to a log event. Unknown types decode as the zero
// type.
func (v *EventView) GameEvent() log.GameEvent {
	t, _ := log.ParseEventType(v.Type)
	return log.GameEvent{
		Turn:    v.Turn,
		Phase:   v.Phase,
		Player:  v.Player,
		Type:    t,
		Card:    v.Card,
		Details: v.Details,
	}
}
