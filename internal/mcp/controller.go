package mcp

import (
	"context"

	"go.uber.org/zap"

	"github.com/peterkuimelis/cardclash/internal/game"
	"github.com/peterkuimelis/cardclash/internal/log"
	"github.com/peterkuimelis/cardclash/internal/net"
)

// maxOpponentTurns bounds how many consecutive turns the opponent plays
// before control returns to the agent. Extra-turn effects grant at most one.
const maxOpponentTurns = 4

// sessionListener buffers match events for the next tool response. The
// match only emits while the session's mutex is held.
type sessionListener struct {
	s *Session
}

func (l sessionListener) StateChanged(*game.MatchState) {}

func (l sessionListener) Event(e log.GameEvent) {
	l.s.events = append(l.s.events, *net.NewEventView(e))
}

// opponentTurns lets the built-in opponent play until it is the agent's
// turn again or the match ends. Called with mu held.
func (s *Session) opponentTurns(ctx context.Context) error {
	for i := 0; i < maxOpponentTurns; i++ {
		ms := s.match.State
		if ms.Over || ms.Current == s.agent {
			return nil
		}
		if err := s.opponent.TakeTurn(ctx, s.match); err != nil {
			return err
		}
	}
	if ms := s.match.State; !ms.Over && ms.Current != s.agent {
		s.logger.Warn("opponent still holds the turn", zap.Int("turn", ms.Turn))
	}
	return nil
}
