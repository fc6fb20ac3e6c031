package net

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/peterkuimelis/cardclash/internal/game"
	"github.com/peterkuimelis/cardclash/internal/log"
)

const writeTimeout = 5 * time.Second

// Authority owns the one true copy of a networked match. The first two
// websocket connections to join take the seats; the match starts once both
// are seated. Every accepted action is followed by a snapshot to both seats.
type Authority struct {
	Catalog  *game.Catalog
	DeckFile string
	Rules    game.Rules
	Seed     int64
	Logger   *zap.Logger
	Results  game.ResultSink

	mu     sync.Mutex
	match  *game.Match
	seats  [2]*websocket.Conn
	decks  [2][]*game.Card
	seq    int64
	events []log.GameEvent
	done   chan struct{}
	over   bool
}

// NewAuthority creates an authority that loads decks from deckFile.
func NewAuthority(cat *game.Catalog, deckFile string, logger *zap.Logger) *Authority {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authority{
		Catalog:  cat,
		DeckFile: deckFile,
		Rules:    game.DefaultRules(),
		Logger:   logger,
		done:     make(chan struct{}),
	}
}

// Done is closed when the match ends.
func (a *Authority) Done() <-chan struct{} {
	return a.done
}

// State returns a copy of the authoritative state, or nil before the match
// starts.
func (a *Authority) State() *game.MatchState {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.match == nil {
		return nil
	}
	return a.match.CurrentState()
}

// ServeHTTP accepts a websocket connection and runs one seat.
func (a *Authority) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Allow connections from any origin
	})
	if err != nil {
		a.Logger.Warn("websocket accept", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	var join ClientMessage
	if err := wsjson.Read(ctx, conn, &join); err != nil || join.Type != TypeJoin {
		conn.Close(websocket.StatusPolicyViolation, "expected join message")
		return
	}

	side, err := a.join(ctx, conn, join.DeckNumber)
	if err != nil {
		a.Logger.Info("join refused", zap.Error(err))
		conn.Close(websocket.StatusTryAgainLater, err.Error())
		return
	}
	lg := a.Logger.With(zap.Stringer("seat", side))
	lg.Info("player joined", zap.String("remote", r.RemoteAddr))
	defer a.leave(side, conn)

	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure && !errors.Is(err, context.Canceled) {
				lg.Info("connection lost", zap.Error(err))
			}
			return
		}
		a.handle(ctx, side, msg)
	}
}

// join seats conn, welcomes it, and starts the match when both seats are
// taken.
func (a *Authority) join(ctx context.Context, conn *websocket.Conn, deckNumber int) (game.Side, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	side := game.SideNone
	for i, s := range a.seats {
		if s == nil {
			side = game.Side(i)
			break
		}
	}
	if side == game.SideNone {
		return side, fmt.Errorf("match is full")
	}
	if deckNumber == 0 {
		deckNumber = int(side) + 1
	}
	name, cards, err := game.DeckByNumber(a.DeckFile, deckNumber, a.Catalog)
	if err != nil {
		return game.SideNone, fmt.Errorf("load deck: %w", err)
	}
	a.Logger.Info("deck chosen", zap.Stringer("seat", side), zap.String("deck", name), zap.Int("cards", len(cards)))

	a.seats[side] = conn
	a.decks[side] = cards
	a.sendLocked(ctx, conn, ServerMessage{Type: TypeWelcome, Seat: int(side)})

	if a.match == nil && a.seats[0] != nil && a.seats[1] != nil {
		a.match = game.NewMatch(game.MatchConfig{
			Deck0:    a.decks[0],
			Deck1:    a.decks[1],
			Rules:    a.Rules,
			Logger:   log.NewZapLogger(a.Logger.Named("events")),
			Diag:     a.Logger,
			Listener: authorityListener{a},
			Results:  a.Results,
			Seed:     a.Seed,
		})
		a.match.Start()
		a.Logger.Info("match started", zap.Stringer("match", a.match.State.ID))
		a.broadcastLocked(ctx)
	}
	return side, nil
}

func (a *Authority) leave(side game.Side, conn *websocket.Conn) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.seats[side] == conn {
		a.seats[side] = nil
	}
}

func (a *Authority) handle(ctx context.Context, side game.Side, msg ClientMessage) {
	a.mu.Lock()
	defer a.mu.Unlock()
	conn := a.seats[side]

	if a.match == nil {
		a.sendLocked(ctx, conn, ServerMessage{Type: TypeRejected, Reason: "the match has not started"})
		return
	}
	ms := a.match.State
	if msg.Type == TypeResync {
		a.sendLocked(ctx, conn, a.snapshotLocked())
		return
	}
	if msg.MatchID != "" && msg.MatchID != ms.ID.String() {
		a.rejectLocked(ctx, conn, "action is for another match")
		return
	}

	var err error
	switch msg.Type {
	case TypePlayCard:
		err = a.match.PlayCard(side, msg.CardID)
	case TypeAttack:
		var t game.Target
		if t, err = msg.Target.Resolve(ms); err == nil {
			err = a.match.Attack(side, msg.AttackerID, t)
		}
	case TypeSelectTarget:
		var t game.Target
		if t, err = msg.Target.Resolve(ms); err == nil {
			err = a.match.SelectTarget(side, t)
		}
	case TypeCancelTarget:
		err = a.match.CancelTarget(side)
	case TypeEndTurn:
		err = a.match.EndTurn(side)
	default:
		err = fmt.Errorf("unknown message type %q", msg.Type)
	}
	if err != nil {
		a.rejectLocked(ctx, conn, err.Error())
		return
	}
	a.broadcastLocked(ctx)
}

// rejectLocked tells one seat its action failed and resends the truth so any
// optimistic update it made is rolled back.
func (a *Authority) rejectLocked(ctx context.Context, conn *websocket.Conn, reason string) {
	a.events = nil
	a.sendLocked(ctx, conn, ServerMessage{Type: TypeRejected, Reason: reason})
	a.sendLocked(ctx, conn, a.snapshotLocked())
}

// broadcastLocked sends buffered events and a fresh snapshot to both seats.
func (a *Authority) broadcastLocked(ctx context.Context) {
	events := a.events
	a.events = nil
	snap := a.snapshotLocked()
	for _, conn := range a.seats {
		if conn == nil {
			continue
		}
		for _, e := range events {
			a.sendLocked(ctx, conn, ServerMessage{Type: TypeEvent, Event: NewEventView(e)})
		}
		a.sendLocked(ctx, conn, snap)
	}
	if a.match.State.Over && !a.over {
		a.over = true
		close(a.done)
	}
}

// snapshotLocked captures the current state under a new sequence number, so
// it supersedes anything the receiver predicted.
func (a *Authority) snapshotLocked() ServerMessage {
	a.seq++
	return ServerMessage{Type: TypeSnapshot, Snapshot: BuildSnapshot(a.match.State, a.seq)}
}

func (a *Authority) sendLocked(ctx context.Context, conn *websocket.Conn, msg ServerMessage) {
	if conn == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		a.Logger.Debug("write failed", zap.String("type", msg.Type), zap.Error(err))
	}
}

// authorityListener buffers match events until the action completes. The
// authority's mutex is already held whenever the match emits.
type authorityListener struct {
	a *Authority
}

func (l authorityListener) StateChanged(*game.MatchState) {}

func (l authorityListener) Event(e log.GameEvent) {
	l.a.events = append(l.a.events, e)
}
