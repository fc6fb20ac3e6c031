package game

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/peterkuimelis/cardclash/internal/log"
)

// Listener receives presentation callbacks. StateChanged gets a copy of the
// state after every accepted action.
type Listener interface {
	StateChanged(ms *MatchState)
	Event(e log.GameEvent)
}

// MatchResult is the summary handed to the stats collaborator at match end.
type MatchResult struct {
	MatchID    uuid.UUID
	Winner     Side
	Result     string
	Turns      int
	Health     [2]int
	SpellsCast [2]int
}

// ResultSink consumes finished match results.
type ResultSink interface {
	RecordResult(MatchResult)
}

// LogResults is a ResultSink that writes each result to a zap logger.
type LogResults struct {
	Logger *zap.Logger
}

func (l LogResults) RecordResult(r MatchResult) {
	l.Logger.Info("match result",
		zap.String("match", r.MatchID.String()),
		zap.Stringer("winner", r.Winner),
		zap.String("result", r.Result),
		zap.Int("turns", r.Turns),
		zap.Ints("health", r.Health[:]),
		zap.Ints("spellsCast", r.SpellsCast[:]))
}

// MatchConfig holds configuration for creating a new match.
type MatchConfig struct {
	Deck0     []*Card // Player 0's deck (card definitions)
	Deck1     []*Card // Player 1's deck (card definitions)
	Rules     Rules   // zero value means DefaultRules
	Logger    log.EventLogger
	Diag      *zap.Logger
	Listener  Listener
	Results   ResultSink
	Seed      int64 // RNG seed (0 for random)
	NoShuffle bool  // skip deck shuffle (for deterministic tests)
}

// Match owns one MatchState and is the only entry point for player actions.
// It is not safe for concurrent use.
type Match struct {
	State    *MatchState
	Resolver *Resolver
	Logger   log.EventLogger

	diag      *zap.Logger
	listener  Listener
	results   ResultSink
	rng       *rand.Rand
	noShuffle bool
	reported  bool
}

type listenerSink struct {
	m *Match
}

func (s listenerSink) Log(e log.GameEvent) {
	s.m.Logger.Log(e)
	if s.m.listener != nil {
		s.m.listener.Event(e)
	}
}

func (s listenerSink) Events() []log.GameEvent {
	return s.m.Logger.Events()
}

// NewMatch creates a match from the given config. Decks are instantiated
// with the top card at the end of the slice.
func NewMatch(cfg MatchConfig) *Match {
	rules := cfg.Rules
	if rules == (Rules{}) {
		rules = DefaultRules()
	}
	ms := NewMatchState(rules)
	for side, deck := range [2][]*Card{cfg.Deck0, cfg.Deck1} {
		for _, card := range deck {
			ms.Players[side].Deck = append(ms.Players[side].Deck, ms.NewInstance(card, Side(side)))
		}
	}
	return AttachMatch(ms, cfg)
}

// AttachMatch wraps an existing state, such as a networked client's local
// prediction. The state's own rules apply; cfg decks are ignored.
func AttachMatch(ms *MatchState, cfg MatchConfig) *Match {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewCappedLogger(log.DefaultLogCapacity)
	}
	diag := cfg.Diag
	if diag == nil {
		diag = zap.NewNop()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	m := &Match{
		State:     ms,
		Logger:    logger,
		diag:      diag.With(zap.String("match", ms.ID.String())),
		listener:  cfg.Listener,
		results:   cfg.Results,
		rng:       rng,
		noShuffle: cfg.NoShuffle,
	}
	m.Resolver = NewResolver(ms.Rules, listenerSink{m}, rng)
	return m
}

// Start shuffles, deals opening hands, and begins the first player's turn.
func (m *Match) Start() {
	ms := m.State
	if !m.noShuffle {
		for side, p := range ms.Players {
			p.ShuffleDeck(m.rng)
			m.Resolver.log(log.NewShuffleEvent(ms.Turn, ms.Phase().String(), side))
		}
	}
	for i := 0; i < m.Resolver.Rules.OpeningHand; i++ {
		m.Resolver.draw(ms, SidePlayer)
		m.Resolver.draw(ms, SideOpponent)
	}
	m.diag.Info("match started",
		zap.Int("deck0", len(ms.Players[0].Deck)),
		zap.Int("deck1", len(ms.Players[1].Deck)))
	m.Resolver.StartTurn(ms, SidePlayer)
	m.changed()
}

// CurrentState returns a deep copy of the match state.
func (m *Match) CurrentState() *MatchState {
	return m.State.Clone()
}

// Rules returns the match's rules.
func (m *Match) Rules() Rules {
	return m.Resolver.Rules
}

// CostOf returns what side would pay to play the hand card with this ID.
func (m *Match) CostOf(side Side, cardID int) (int, bool) {
	p := m.State.Player(side)
	c := p.HandCard(cardID)
	if c == nil {
		return 0, false
	}
	return p.EffectiveCost(c), true
}

// PlayCard plays a card from side's hand. Creatures enter the field and fire
// their on-play effect; untargeted spells resolve at once; targeted spells
// wait in the targeting state without spending mana.
func (m *Match) PlayCard(side Side, cardID int) error {
	if err := m.checkTurn(side); err != nil {
		return err
	}
	ms := m.State
	p := ms.Player(side)
	card := p.HandCard(cardID)
	if card == nil {
		return m.rejected(side, reject(ErrUnknownCard, fmt.Sprintf("card #%d is not in your hand", cardID)))
	}
	cost := p.EffectiveCost(card)
	if p.Mana < cost {
		return m.rejected(side, reject(ErrInsufficientMana,
			fmt.Sprintf("%s costs %d mana, you have %d", card.Card.Name, cost, p.Mana)))
	}
	turn, phase := ms.Turn, ms.Phase().String()

	if card.Card.IsCreature() {
		if len(p.Field) >= m.Resolver.Rules.FieldLimit {
			return m.rejected(side, reject(ErrFieldFull, "your field is full"))
		}
		p.Mana -= cost
		p.RemoveFromHand(card)
		m.Resolver.log(log.NewPlayCardEvent(turn, phase, int(side), card.Card.Name, cost))
		m.Resolver.placeOnField(ms, card, side)
		m.Resolver.log(log.NewSummonEvent(turn, phase, int(side), card.Card.Name, card.Attack, card.Health))
		if target, ok := autoTarget(card.Ability, side); ok {
			m.Resolver.Resolve(ms, card.Ability, card, side, target)
		}
		m.changed()
		return nil
	}

	if class := card.Ability.TargetClass(); class != TargetNone {
		ms.Pending = &PendingSpell{Card: card, Side: side, Class: class}
		m.Resolver.log(log.NewTargetPendingEvent(turn, phase, int(side), card.Card.Name, class.String()))
		m.changed()
		return nil
	}

	m.cast(card, side, cost, NoTarget)
	return nil
}

// SelectTarget completes a pending spell. Spell Shield on the chosen creature
// is consumed and cancels the spell at no cost. An invalid choice is rejected
// and the spell stays pending.
func (m *Match) SelectTarget(side Side, target Target) error {
	if err := m.checkActive(side); err != nil {
		return err
	}
	ms := m.State
	pending := ms.Pending
	if pending == nil {
		return m.rejected(side, reject(ErrNoPendingSpell, "no spell is waiting for a target"))
	}
	turn, phase := ms.Turn, ms.Phase().String()

	if target.IsCard() {
		if c, controller := ms.Locate(target.Card.ID); c != nil {
			target = CardTarget(c, controller)
			if c.SpellShield {
				c.SpellShield = false
				ms.Pending = nil
				m.Resolver.log(log.NewShieldBreakEvent(turn, phase, int(controller), c.Card.Name, "Spell Shield"))
				m.Resolver.log(log.NewTargetCancelledEvent(turn, phase, int(side), pending.Card.Card.Name, "blocked by Spell Shield"))
				m.changed()
				return nil
			}
		}
	}
	if err := ValidTarget(ms, pending.Class, side, target); err != nil {
		return m.rejected(side, err)
	}

	ab := pending.Card.Ability
	if (ab.Effect == EffectSteal || ab.Effect == EffectCopy) && len(ms.Player(side).Field) >= m.Resolver.Rules.FieldLimit {
		return m.rejected(side, reject(ErrFieldFull, "your field is full"))
	}
	p := ms.Player(side)
	cost := p.EffectiveCost(pending.Card)
	if p.Mana < cost {
		return m.rejected(side, reject(ErrInsufficientMana,
			fmt.Sprintf("%s costs %d mana, you have %d", pending.Card.Card.Name, cost, p.Mana)))
	}
	ms.Pending = nil
	m.cast(pending.Card, side, cost, target)
	return nil
}

// CancelTarget abandons a pending spell. Nothing is spent.
func (m *Match) CancelTarget(side Side) error {
	if err := m.checkActive(side); err != nil {
		return err
	}
	ms := m.State
	if ms.Pending == nil {
		return m.rejected(side, reject(ErrNoPendingSpell, "no spell is waiting for a target"))
	}
	name := ms.Pending.Card.Card.Name
	ms.Pending = nil
	m.Resolver.log(log.NewTargetCancelledEvent(ms.Turn, ms.Phase().String(), int(side), name, "cancelled"))
	m.changed()
	return nil
}

func (m *Match) cast(card *CardInstance, side Side, cost int, target Target) {
	ms := m.State
	p := ms.Player(side)
	p.Mana -= cost
	p.RemoveFromHand(card)
	p.SpellsCast++
	m.Resolver.log(log.NewPlayCardEvent(ms.Turn, ms.Phase().String(), int(side), card.Card.Name, cost))
	m.Resolver.log(log.NewCastSpellEvent(ms.Turn, ms.Phase().String(), int(side), card.Card.Name, target.String()))
	m.Resolver.Resolve(ms, card.Ability, card, side, target)
	m.changed()
}

// Attack declares an attack by one of side's creatures.
func (m *Match) Attack(side Side, attackerID int, target Target) error {
	if err := m.checkTurn(side); err != nil {
		return err
	}
	ms := m.State
	attacker := ms.Player(side).FieldCard(attackerID)
	if attacker == nil {
		return m.rejected(side, reject(ErrUnknownCard, fmt.Sprintf("creature #%d is not on your field", attackerID)))
	}
	if target.IsCard() {
		c, controller := ms.Locate(target.Card.ID)
		if c == nil {
			return m.rejected(side, reject(ErrInvalidTarget, fmt.Sprintf("%s is not on the field", target.Card.Card.Name)))
		}
		target = CardTarget(c, controller)
	}
	if err := m.Resolver.Attack(ms, attacker, target); err != nil {
		return m.rejected(side, err)
	}
	m.changed()
	return nil
}

// EndTurn ends side's turn and starts the next one.
func (m *Match) EndTurn(side Side) error {
	if err := m.checkActive(side); err != nil {
		return err
	}
	m.Resolver.EndTurn(m.State)
	m.changed()
	return nil
}

// checkActive enforces the turn owner and a live match.
func (m *Match) checkActive(side Side) error {
	ms := m.State
	switch {
	case ms.Over:
		return m.rejected(side, reject(ErrGameOver, "the match is over"))
	case ms.Turn == 0:
		return m.rejected(side, reject(ErrNotStarted, "the match has not started"))
	case side != ms.Current:
		return m.rejected(side, reject(ErrNotYourTurn, fmt.Sprintf("it is %s's turn", ms.Current)))
	}
	return nil
}

// checkTurn is checkActive plus no spell awaiting a target.
func (m *Match) checkTurn(side Side) error {
	if err := m.checkActive(side); err != nil {
		return err
	}
	if p := m.State.Pending; p != nil {
		return m.rejected(side, reject(ErrAwaitingTarget,
			fmt.Sprintf("%s is waiting for a target (%s)", p.Card.Card.Name, p.Class)))
	}
	return nil
}

func (m *Match) rejected(side Side, err error) error {
	ms := m.State
	m.Resolver.log(log.NewRejectedEvent(ms.Turn, ms.Phase().String(), int(side), err.Error()))
	m.diag.Debug("action rejected", zap.Stringer("side", side), zap.Error(err))
	return err
}

func (m *Match) changed() {
	if m.listener != nil {
		m.listener.StateChanged(m.State.Clone())
	}
	ms := m.State
	if ms.Over && !m.reported {
		m.reported = true
		m.diag.Info("match over",
			zap.Stringer("winner", ms.Winner),
			zap.String("result", ms.Result),
			zap.Int("turns", ms.Turn))
		if m.results != nil {
			m.results.RecordResult(m.Result())
		}
	}
}

// Result summarizes the match.
func (m *Match) Result() MatchResult {
	ms := m.State
	return MatchResult{
		MatchID:    ms.ID,
		Winner:     ms.Winner,
		Result:     ms.Result,
		Turns:      ms.Turn,
		Health:     [2]int{ms.Players[0].Health, ms.Players[1].Health},
		SpellsCast: [2]int{ms.Players[0].SpellsCast, ms.Players[1].SpellsCast},
	}
}
