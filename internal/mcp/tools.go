package mcp

import (
	"context"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/peterkuimelis/cardclash/internal/config"
	"github.com/peterkuimelis/cardclash/internal/game"
)

// Tools serves the match tools. One match runs at a time per process.
type Tools struct {
	Config  *config.Config
	Catalog *game.Catalog
	Logger  *zap.Logger
	Results game.ResultSink

	mu      sync.Mutex
	session *Session
}

// NewTools creates the tool set.
func NewTools(cfg *config.Config, cat *game.Catalog, logger *zap.Logger) *Tools {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tools{Config: cfg, Catalog: cat, Logger: logger}
}

// Register adds all match tools to the MCP server.
func (t *Tools) Register(s *server.MCPServer) {
	s.AddTool(startMatchTool(t.Config.DifficultyNames()), t.handleStartMatch)
	s.AddTool(playCardTool(), t.handlePlayCard)
	s.AddTool(selectTargetTool(), t.handleSelectTarget)
	s.AddTool(cancelTargetTool(), t.handleCancelTarget)
	s.AddTool(attackTool(), t.handleAttack)
	s.AddTool(endTurnTool(), t.handleEndTurn)
	s.AddTool(getStateTool(), t.handleGetState)
}

// --- Tool definitions ---

func startMatchTool(difficulties []string) mcp.Tool {
	return mcp.NewTool("start_match",
		mcp.WithDescription("Start a new match against the built-in opponent. You are P1 and move first. "+
			"Returns the opening state, your options, and the event log so far."),
		mcp.WithNumber("deck", mcp.Required(), mcp.Description("Your deck number (1-indexed from decks.yaml)")),
		mcp.WithNumber("opponent_deck", mcp.Description("Opponent deck number; defaults to 2")),
		mcp.WithString("difficulty", mcp.Enum(difficulties...), mcp.Description("Opponent difficulty; defaults to the configured one")),
	)
}

func playCardTool() mcp.Tool {
	return mcp.NewTool("play_card",
		mcp.WithDescription("Play a card from your hand by ID. A spell that needs a target becomes pending; "+
			"finish it with select_target or abandon it with cancel_target."),
		mcp.WithNumber("card_id", mcp.Required(), mcp.Description("Instance ID of the hand card")),
	)
}

func selectTargetTool() mcp.Tool {
	return mcp.NewTool("select_target",
		mcp.WithDescription("Choose the target for the pending spell. An invalid choice is rejected and the spell stays pending."),
		mcp.WithString("target", mcp.Required(), mcp.Description("'face' for the opponent, 'me' for yourself, or a creature ID such as '12'")),
	)
}

func cancelTargetTool() mcp.Tool {
	return mcp.NewTool("cancel_target",
		mcp.WithDescription("Abandon the pending spell. No mana is spent and the card stays in hand."),
	)
}

func attackTool() mcp.Tool {
	return mcp.NewTool("attack",
		mcp.WithDescription("Attack with one of your creatures. options.attackers lists the legal targets."),
		mcp.WithNumber("attacker_id", mcp.Required(), mcp.Description("Instance ID of your attacking creature")),
		mcp.WithString("target", mcp.Required(), mcp.Description("'face' or an enemy creature ID")),
	)
}

func endTurnTool() mcp.Tool {
	return mcp.NewTool("end_turn",
		mcp.WithDescription("End your turn. The opponent plays its turn before this returns."),
	)
}

func getStateTool() mcp.Tool {
	return mcp.NewTool("get_state",
		mcp.WithDescription("Get the current state, undelivered events, and your options without acting. Read-only."),
	)
}

// --- Tool handlers ---

func (t *Tools) current() (*Session, *mcp.CallToolResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return nil, mcp.NewToolResultError("No match is running. Use start_match first.")
	}
	return t.session, nil
}

// reply renders resp and forgets a finished match.
func (t *Tools) reply(sess *Session, resp *ToolResponse) *mcp.CallToolResult {
	if resp.GameOver {
		t.mu.Lock()
		if t.session == sess {
			t.session = nil
		}
		t.mu.Unlock()
	}
	return mcp.NewToolResultText(respondJSON(resp))
}

func (t *Tools) handleStartMatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.mu.Lock()
	running := t.session != nil
	t.mu.Unlock()
	if running {
		return mcp.NewToolResultError("A match is already running. Only one match at a time is supported."), nil
	}

	deck := request.GetInt("deck", 0)
	oppDeck := request.GetInt("opponent_deck", 2)
	difficulty := request.GetString("difficulty", "")
	if deck < 1 || oppDeck < 1 {
		return mcp.NewToolResultError("deck numbers must be >= 1"), nil
	}

	rules, err := t.Config.Rules(difficulty)
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to start match: %v", err), nil
	}
	opp, err := t.Config.Opponent(game.SideOpponent, difficulty, t.Logger)
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to start match: %v", err), nil
	}
	// The agent's tool calls set the pace; no presentation delay.
	opp.PhaseDelay = 0

	sess, err := NewSession(SessionConfig{
		DecksFile:    t.Config.Catalog.Decks,
		Catalog:      t.Catalog,
		AgentDeck:    deck,
		OpponentDeck: oppDeck,
		Rules:        rules,
		Opponent:     opp,
		Seed:         t.Config.Match.Seed,
		Logger:       t.Logger,
		Results:      t.Results,
	})
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to start match: %v", err), nil
	}

	t.mu.Lock()
	t.session = sess
	t.mu.Unlock()
	return t.reply(sess, sess.View()), nil
}

func (t *Tools) handlePlayCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := t.current()
	if errResult != nil {
		return errResult, nil
	}
	id := request.GetInt("card_id", -1)
	if id < 0 {
		return mcp.NewToolResultError("card_id is required"), nil
	}
	return t.reply(sess, sess.Play(ctx, id)), nil
}

func (t *Tools) handleSelectTarget(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := t.current()
	if errResult != nil {
		return errResult, nil
	}
	ref := request.GetString("target", "")
	if ref == "" {
		return mcp.NewToolResultError("target is required"), nil
	}
	return t.reply(sess, sess.Select(ctx, ref)), nil
}

func (t *Tools) handleCancelTarget(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := t.current()
	if errResult != nil {
		return errResult, nil
	}
	return t.reply(sess, sess.Cancel(ctx)), nil
}

func (t *Tools) handleAttack(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := t.current()
	if errResult != nil {
		return errResult, nil
	}
	id := request.GetInt("attacker_id", -1)
	ref := request.GetString("target", "")
	if id < 0 || ref == "" {
		return mcp.NewToolResultError("attacker_id and target are required"), nil
	}
	return t.reply(sess, sess.Attack(ctx, id, ref)), nil
}

func (t *Tools) handleEndTurn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := t.current()
	if errResult != nil {
		return errResult, nil
	}
	return t.reply(sess, sess.EndTurn(ctx)), nil
}

func (t *Tools) handleGetState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := t.current()
	if errResult != nil {
		return errResult, nil
	}
	return mcp.NewToolResultText(respondJSON(sess.View())), nil
}
