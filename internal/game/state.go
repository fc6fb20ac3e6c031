package game

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
)

const (
	StartingHealth = 30
	HandLimit      = 10
	FieldLimit     = 7
	OpeningHand    = 3
	ManaCeiling    = 10
)

// Rules holds the tunable limits of a match.
type Rules struct {
	StartingHealth int
	HandLimit      int
	FieldLimit     int
	OpeningHand    int
	ManaCap        [2]int // per side; the opponent's depends on difficulty
}

// DefaultRules returns the standard limits with both sides capped at 10 mana.
func DefaultRules() Rules {
	return Rules{
		StartingHealth: StartingHealth,
		HandLimit:      HandLimit,
		FieldLimit:     FieldLimit,
		OpeningHand:    OpeningHand,
		ManaCap:        [2]int{ManaCeiling, ManaCeiling},
	}
}

// GraveRecord preserves a dead creature's template and pre-death base stats.
type GraveRecord struct {
	Card       *Card
	Owner      Side
	BaseAttack int
	BaseHealth int
}

// Player represents one player's entire state.
type Player struct {
	Health    int
	MaxHealth int
	Mana      int
	MaxMana   int

	Hand      []*CardInstance
	Deck      []*CardInstance // top of deck is last element (pop from end)
	Field     []*CardInstance
	Graveyard []GraveRecord

	SpellsCast int
}

// DrawCard removes the top card from the deck and returns it, or nil if the
// deck is empty. The caller decides whether it reaches the hand.
func (p *Player) DrawCard() *CardInstance {
	if len(p.Deck) == 0 {
		return nil
	}
	card := p.Deck[len(p.Deck)-1]
	p.Deck = p.Deck[:len(p.Deck)-1]
	return card
}

// RemoveFromHand removes a card from the hand by instance ID.
func (p *Player) RemoveFromHand(card *CardInstance) bool {
	for i, c := range p.Hand {
		if c.ID == card.ID {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveFromField removes a creature from the field by instance ID.
func (p *Player) RemoveFromField(card *CardInstance) bool {
	for i, c := range p.Field {
		if c.ID == card.ID {
			p.Field = append(p.Field[:i], p.Field[i+1:]...)
			return true
		}
	}
	return false
}

// HandCard finds a card in hand by instance ID.
func (p *Player) HandCard(id int) *CardInstance {
	for _, c := range p.Hand {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// FieldCard finds a creature on the field by instance ID.
func (p *Player) FieldCard(id int) *CardInstance {
	for _, c := range p.Field {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Taunts returns the Taunt creatures on the field.
func (p *Player) Taunts() []*CardInstance {
	var result []*CardInstance
	for _, c := range p.Field {
		if c.Taunt {
			result = append(result, c)
		}
	}
	return result
}

// SpellPower is +1 per Spell Power creature, doubled by a Double spell
// damage aura.
func (p *Player) SpellPower() int {
	power := 0
	double := false
	for _, c := range p.Field {
		if c.Has(KeywordSpellPower) {
			power++
		}
		if c.Has(KeywordDoubleSpellDamage) {
			double = true
		}
	}
	if double {
		power *= 2
	}
	return power
}

// CostReduction sums the spell cost auras on the field.
func (p *Player) CostReduction() int {
	total := 0
	for _, c := range p.Field {
		total += c.Ability.CostReduction
	}
	return total
}

// EffectiveCost is what the player pays for card right now.
func (p *Player) EffectiveCost(card *CardInstance) int {
	cost := card.Card.Cost
	if card.Card.IsSpell() {
		cost -= p.CostReduction()
	}
	if cost < 0 {
		cost = 0
	}
	return cost
}

// ShuffleDeck randomizes the deck order.
func (p *Player) ShuffleDeck(rng *rand.Rand) {
	rng.Shuffle(len(p.Deck), func(i, j int) {
		p.Deck[i], p.Deck[j] = p.Deck[j], p.Deck[i]
	})
}

func (p *Player) clone() *Player {
	cp := *p
	cp.Hand = cloneInstances(p.Hand)
	cp.Deck = cloneInstances(p.Deck)
	cp.Field = cloneInstances(p.Field)
	cp.Graveyard = append([]GraveRecord(nil), p.Graveyard...)
	return &cp
}

func cloneInstances(in []*CardInstance) []*CardInstance {
	if in == nil {
		return nil
	}
	out := make([]*CardInstance, len(in))
	for i, c := range in {
		out[i] = c.clone()
	}
	return out
}

// PendingSpell is a hand spell awaiting a target.
type PendingSpell struct {
	Card  *CardInstance
	Side  Side
	Class TargetClass
}

// --- MatchState ---

// MatchState holds the complete state of a match.
type MatchState struct {
	ID        uuid.UUID
	Rules     Rules
	Players   [2]*Player
	Current   Side // whose turn it is
	Turn      int  // total turns started
	SideTurns [2]int
	ExtraTurn [2]bool

	Over   bool
	Winner Side // SideNone on a draw or while running
	Result string

	// Snapshot is a deep copy retaken at every turn start.
	Snapshot *MatchState
	Pending  *PendingSpell

	nextID int
}

// NewMatchState creates a fresh match state with both players at full health.
func NewMatchState(rules Rules) *MatchState {
	newPlayer := func() *Player {
		return &Player{Health: rules.StartingHealth, MaxHealth: rules.StartingHealth}
	}
	return &MatchState{
		ID:      uuid.New(),
		Rules:   rules,
		Players: [2]*Player{newPlayer(), newPlayer()},
		Current: SidePlayer,
		Winner:  SideNone,
	}
}

// NextID generates a unique card instance ID.
func (ms *MatchState) NextID() int {
	ms.nextID++
	return ms.nextID
}

// NewInstance creates a runtime instance of card owned by side.
func (ms *MatchState) NewInstance(card *Card, owner Side) *CardInstance {
	return newInstance(card, ms.NextID(), owner)
}

// Restore builds an instance with an ID assigned elsewhere, such as by a
// remote authority. Later NextID calls stay above it.
func (ms *MatchState) Restore(card *Card, id int, owner Side) *CardInstance {
	if id > ms.nextID {
		ms.nextID = id
	}
	return newInstance(card, id, owner)
}

// Player returns the player for side.
func (ms *MatchState) Player(side Side) *Player {
	return ms.Players[side]
}

// Phase reports the turn-manager state.
func (ms *MatchState) Phase() Phase {
	switch {
	case ms.Over:
		return PhaseGameOver
	case ms.Turn == 0:
		return PhaseNone
	case ms.Current == SidePlayer:
		return PhasePlayerTurn
	default:
		return PhaseOpponentTurn
	}
}

// Locate finds a creature on either field by instance ID and returns it with
// its controller.
func (ms *MatchState) Locate(id int) (*CardInstance, Side) {
	for s := SidePlayer; s <= SideOpponent; s++ {
		if c := ms.Players[s].FieldCard(id); c != nil {
			return c, s
		}
	}
	return nil, SideNone
}

// Controller returns the side whose field holds ci, or SideNone.
func (ms *MatchState) Controller(ci *CardInstance) Side {
	if ci == nil {
		return SideNone
	}
	_, side := ms.Locate(ci.ID)
	return side
}

// CheckWinCondition ends the match if either player's health is at or below
// zero. Returns true if the game is over.
func (ms *MatchState) CheckWinCondition() bool {
	if ms.Over {
		return true
	}
	p0Dead := ms.Players[0].Health <= 0
	p1Dead := ms.Players[1].Health <= 0

	switch {
	case p0Dead && p1Dead:
		ms.Over = true
		ms.Winner = SideNone
		ms.Result = "Draw: both players reached 0 health"
	case p0Dead:
		ms.Over = true
		ms.Winner = SideOpponent
		ms.Result = fmt.Sprintf("%s wins: %s reached 0 health", SideOpponent, SidePlayer)
	case p1Dead:
		ms.Over = true
		ms.Winner = SidePlayer
		ms.Result = fmt.Sprintf("%s wins: %s reached 0 health", SidePlayer, SideOpponent)
	}
	return ms.Over
}

// Clone returns a structural deep copy. No CardInstance is shared between
// the original and the copy; templates are.
func (ms *MatchState) Clone() *MatchState {
	cp := *ms
	for i, p := range ms.Players {
		cp.Players[i] = p.clone()
	}
	cp.Snapshot = nil
	if ms.Snapshot != nil {
		cp.Snapshot = ms.Snapshot.Clone()
	}
	cp.Pending = nil
	if ms.Pending != nil {
		pending := *ms.Pending
		if c := cp.findAnywhere(pending.Card.ID); c != nil {
			pending.Card = c
		} else {
			pending.Card = pending.Card.clone()
		}
		cp.Pending = &pending
	}
	return &cp
}

func (ms *MatchState) findAnywhere(id int) *CardInstance {
	for _, p := range ms.Players {
		for _, zone := range [][]*CardInstance{p.Hand, p.Field, p.Deck} {
			for _, c := range zone {
				if c.ID == id {
					return c
				}
			}
		}
	}
	return nil
}

// takeSnapshot replaces the turn snapshot with a copy of the current state.
func (ms *MatchState) takeSnapshot() {
	ms.Snapshot = nil
	snap := ms.Clone()
	snap.Pending = nil
	ms.Snapshot = snap
}
