package game

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// --- Enums ---

// Side identifies one of the two seats in a match. SidePlayer is the local
// human seat; SideOpponent is the AI (or the remote human in networked play).
type Side int

const (
	SideNone     Side = -1
	SidePlayer   Side = 0
	SideOpponent Side = 1
)

// Other returns the opposing side.
func (s Side) Other() Side {
	return 1 - s
}

// Valid reports whether s names a seat.
func (s Side) Valid() bool {
	return s == SidePlayer || s == SideOpponent
}

func (s Side) String() string {
	switch s {
	case SidePlayer:
		return "P1"
	case SideOpponent:
		return "P2"
	default:
		return "none"
	}
}

// Phase is the Turn Manager state: whose turn is running.
type Phase int

const (
	PhaseNone Phase = iota
	PhasePlayerTurn
	PhaseOpponentTurn
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhasePlayerTurn:
		return "Player Turn"
	case PhaseOpponentTurn:
		return "Opponent Turn"
	case PhaseGameOver:
		return "Game Over"
	default:
		return "None"
	}
}

type CardKind int

const (
	KindCreature CardKind = iota
	KindSpell
)

func (k CardKind) String() string {
	switch k {
	case KindCreature:
		return "creature"
	case KindSpell:
		return "spell"
	default:
		return "unknown"
	}
}

// ParseCardKind parses the catalog spelling of a card kind.
func ParseCardKind(s string) (CardKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "creature", "minion":
		return KindCreature, nil
	case "spell":
		return KindSpell, nil
	default:
		return 0, fmt.Errorf("unknown card kind %q", s)
	}
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (k *CardKind) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseCardKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (k CardKind) MarshalYAML() (any, error) {
	return k.String(), nil
}

type Rarity int

const (
	RarityCommon Rarity = iota
	RarityRare
	RarityEpic
	RarityLegendary
)

func (r Rarity) String() string {
	switch r {
	case RarityCommon:
		return "common"
	case RarityRare:
		return "rare"
	case RarityEpic:
		return "epic"
	case RarityLegendary:
		return "legendary"
	default:
		return "unknown"
	}
}

// ParseRarity parses the catalog spelling of a rarity.
func ParseRarity(s string) (Rarity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "common":
		return RarityCommon, nil
	case "rare":
		return RarityRare, nil
	case "epic":
		return RarityEpic, nil
	case "legendary":
		return RarityLegendary, nil
	default:
		return 0, fmt.Errorf("unknown rarity %q", s)
	}
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *Rarity) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseRarity(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (r Rarity) MarshalYAML() (any, error) {
	return r.String(), nil
}

// TargetClass is the kind of target a pending spell is waiting for.
type TargetClass int

const (
	TargetNone TargetClass = iota
	TargetAnyEnemy
	TargetEnemyCreature
	TargetAnyCreature
	TargetFriendlyCreature
)

func (tc TargetClass) String() string {
	switch tc {
	case TargetAnyEnemy:
		return "enemy creature or player"
	case TargetEnemyCreature:
		return "enemy creature"
	case TargetAnyCreature:
		return "any creature"
	case TargetFriendlyCreature:
		return "friendly creature"
	default:
		return "no target"
	}
}

// --- Targets ---

// Target is either a creature on a field or a player. The zero value is
// "no target".
type Target struct {
	Card   *CardInstance // set when the target is a creature
	Side   Side          // the targeted player, or the creature's controller
	player bool
}

// NoTarget is the absent target.
var NoTarget = Target{Side: SideNone}

// PlayerTarget targets the player on the given side.
func PlayerTarget(side Side) Target {
	return Target{Side: side, player: true}
}

// CardTarget targets a creature controlled by side.
func CardTarget(ci *CardInstance, side Side) Target {
	return Target{Card: ci, Side: side}
}

// IsPlayer reports whether the target is a player.
func (t Target) IsPlayer() bool {
	return t.player && t.Side.Valid()
}

// IsCard reports whether the target is a creature.
func (t Target) IsCard() bool {
	return t.Card != nil
}

// IsNone reports whether there is no target.
func (t Target) IsNone() bool {
	return !t.IsPlayer() && !t.IsCard()
}

func (t Target) String() string {
	switch {
	case t.Card != nil:
		return t.Card.Card.Name
	case t.IsPlayer():
		return t.Side.String()
	default:
		return "(none)"
	}
}
