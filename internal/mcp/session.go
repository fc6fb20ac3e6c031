package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/peterkuimelis/cardclash/internal/ai"
	"github.com/peterkuimelis/cardclash/internal/game"
	"github.com/peterkuimelis/cardclash/internal/net"
)

// ToolResponse is the JSON envelope returned by all MCP tools.
type ToolResponse struct {
	Events   []net.EventView `json:"events"`
	State    *net.Snapshot   `json:"state,omitempty"`
	Pending  *PendingView    `json:"pending,omitempty"`
	Options  *OptionsView    `json:"options,omitempty"`
	Rejected string          `json:"rejected,omitempty"`
	GameOver bool            `json:"game_over"`
	Winner   string          `json:"winner,omitempty"`
	Result   string          `json:"result,omitempty"`
}

// PendingView is the spell waiting for select_target or cancel_target.
type PendingView struct {
	CardID int    `json:"card_id"`
	Card   string `json:"card"`
	Needs  string `json:"needs"`
}

// OptionsView lists what the agent can do right now.
type OptionsView struct {
	Playable  []PlayView   `json:"playable"`
	Attackers []AttackView `json:"attackers"`
}

// PlayView is an affordable hand card.
type PlayView struct {
	CardID int    `json:"card_id"`
	Name   string `json:"name"`
	Cost   int    `json:"cost"`
	Needs  string `json:"needs,omitempty"`
}

// AttackView is a ready creature and the targets it may legally attack:
// "face" or a creature ID like "#12".
type AttackView struct {
	AttackerID int      `json:"attacker_id"`
	Name       string   `json:"name"`
	Targets    []string `json:"targets"`
}

// SessionConfig describes a new agent match.
type SessionConfig struct {
	DecksFile    string
	Catalog      *game.Catalog
	AgentDeck    int
	OpponentDeck int
	Rules        game.Rules
	Opponent     *ai.Opponent
	Seed         int64
	Logger       *zap.Logger
	Results      game.ResultSink
}

// Session is one match between the agent, seated as P1, and the built-in
// opponent. All methods are safe for concurrent use.
type Session struct {
	match    *game.Match
	opponent *ai.Opponent
	agent    game.Side
	logger   *zap.Logger

	mu     sync.Mutex
	events []net.EventView
	seq    int64
}

// NewSession loads both decks and starts the match. The response to the
// first tool call includes the opening events.
func NewSession(cfg SessionConfig) (*Session, error) {
	agentName, agentCards, err := game.DeckByNumber(cfg.DecksFile, cfg.AgentDeck, cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("load agent deck: %w", err)
	}
	oppName, oppCards, err := game.DeckByNumber(cfg.DecksFile, cfg.OpponentDeck, cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("load opponent deck: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	opp := cfg.Opponent
	if opp == nil {
		opp = ai.NewOpponent(game.SideOpponent, ai.DefaultProfiles()["normal"])
	}
	opp.Side = game.SideOpponent

	s := &Session{
		opponent: opp,
		agent:    game.SidePlayer,
		logger:   logger,
	}
	s.match = game.NewMatch(game.MatchConfig{
		Deck0:    agentCards,
		Deck1:    oppCards,
		Rules:    cfg.Rules,
		Diag:     logger,
		Listener: sessionListener{s},
		Results:  cfg.Results,
		Seed:     cfg.Seed,
	})
	logger.Info("agent match created",
		zap.String("agent_deck", agentName),
		zap.String("opponent_deck", oppName),
		zap.String("difficulty", opp.Profile.Name))

	s.match.Start()
	return s, nil
}

// Play plays a card from the agent's hand.
func (s *Session) Play(ctx context.Context, cardID int) *ToolResponse {
	return s.act(ctx, func(m *game.Match) error {
		return m.PlayCard(s.agent, cardID)
	})
}

// Select completes the pending spell. ref is "face", "me" or a creature ID.
func (s *Session) Select(ctx context.Context, ref string) *ToolResponse {
	return s.act(ctx, func(m *game.Match) error {
		t, err := game.ParseTargetRef(m.State, s.agent, ref)
		if err != nil {
			return err
		}
		return m.SelectTarget(s.agent, t)
	})
}

// Cancel abandons the pending spell.
func (s *Session) Cancel(ctx context.Context) *ToolResponse {
	return s.act(ctx, func(m *game.Match) error {
		return m.CancelTarget(s.agent)
	})
}

// Attack attacks with one of the agent's creatures.
func (s *Session) Attack(ctx context.Context, attackerID int, ref string) *ToolResponse {
	return s.act(ctx, func(m *game.Match) error {
		t, err := game.ParseTargetRef(m.State, s.agent, ref)
		if err != nil {
			return err
		}
		return m.Attack(s.agent, attackerID, t)
	})
}

// EndTurn ends the agent's turn and plays out the opponent's.
func (s *Session) EndTurn(ctx context.Context) *ToolResponse {
	return s.act(ctx, func(m *game.Match) error {
		return m.EndTurn(s.agent)
	})
}

// View returns the state and any undelivered events without acting.
func (s *Session) View() *ToolResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.respond("")
}

// Over reports whether the match has ended.
func (s *Session) Over() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.match.State.Over
}

func (s *Session) act(ctx context.Context, action func(*game.Match) error) *ToolResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := action(s.match); err != nil {
		return s.respond(err.Error())
	}
	if err := s.opponentTurns(ctx); err != nil {
		s.logger.Warn("opponent turn interrupted", zap.Error(err))
	}
	return s.respond("")
}

// respond drains buffered events into a response. Called with mu held.
func (s *Session) respond(rejected string) *ToolResponse {
	ms := s.match.State
	s.seq++
	resp := &ToolResponse{
		Events:   s.events,
		State:    net.BuildSnapshot(ms, s.seq),
		Rejected: rejected,
		GameOver: ms.Over,
		Result:   ms.Result,
	}
	s.events = nil
	if resp.Events == nil {
		resp.Events = []net.EventView{}
	}
	if ms.Over {
		resp.Winner = winnerLabel(ms.Winner, s.agent)
		return resp
	}
	if p := ms.Pending; p != nil && p.Side == s.agent {
		resp.Pending = &PendingView{CardID: p.Card.ID, Card: p.Card.Card.Name, Needs: p.Class.String()}
	}
	if ms.Current == s.agent {
		resp.Options = options(ms, s.agent)
	}
	return resp
}

func winnerLabel(winner, agent game.Side) string {
	switch winner {
	case agent:
		return "agent"
	case game.SideNone:
		return "draw"
	default:
		return "opponent"
	}
}

// options lists the agent's playable cards and legal attacks.
func options(ms *game.MatchState, side game.Side) *OptionsView {
	p := ms.Player(side)
	view := &OptionsView{Playable: []PlayView{}, Attackers: []AttackView{}}
	if ms.Pending != nil {
		return view
	}
	for _, c := range p.Hand {
		cost := p.EffectiveCost(c)
		if cost > p.Mana || (c.Card.IsCreature() && len(p.Field) >= ms.Rules.FieldLimit) {
			continue
		}
		pv := PlayView{CardID: c.ID, Name: c.Card.Name, Cost: cost}
		if tc := c.Ability.TargetClass(); tc != game.TargetNone && c.Card.IsSpell() {
			pv.Needs = tc.String()
		}
		view.Playable = append(view.Playable, pv)
	}
	for _, c := range p.Field {
		targets := game.LegalAttackTargets(ms, c)
		if len(targets) == 0 {
			continue
		}
		av := AttackView{AttackerID: c.ID, Name: c.Card.Name}
		for _, t := range targets {
			if t.IsPlayer() {
				av.Targets = append(av.Targets, "face")
			} else {
				av.Targets = append(av.Targets, fmt.Sprintf("#%d", t.Card.ID))
			}
		}
		view.Attackers = append(view.Attackers, av)
	}
	return view
}

// respondJSON marshals a ToolResponse to a JSON string.
func respondJSON(resp *ToolResponse) string {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Sprintf(`{"error": "marshal error: %v"}`, err)
	}
	return string(data)
}
