package net

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/peterkuimelis/cardclash/internal/game"
	"github.com/peterkuimelis/cardclash/internal/log"
)

// ErrNoSeat is returned for actions attempted before the server assigned a
// seat.
var ErrNoSeat = errors.New("not seated yet")

// Client plays one seat of a remote match. Actions are applied to a local
// prediction at once and then sent; authoritative snapshots replace the
// prediction wholesale whenever they arrive.
type Client struct {
	conn   *websocket.Conn
	logger *zap.Logger

	// Events receives server events and local rejections for display.
	Events log.EventLogger

	mu         sync.Mutex
	ctx        context.Context
	side       game.Side
	predict    *game.Match
	reconciler *Reconciler
	updates    chan struct{}
	rejections chan string
}

// Dial connects to an authority at url (ws://host:port/ws) and joins with
// the given deck number.
func Dial(ctx context.Context, url string, deckNumber int, cat *game.Catalog, logger *zap.Logger) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := wsjson.Write(ctx, conn, ClientMessage{Type: TypeJoin, DeckNumber: deckNumber}); err != nil {
		conn.CloseNow()
		return nil, fmt.Errorf("send join: %w", err)
	}
	return newClient(ctx, conn, cat, logger), nil
}

func newClient(ctx context.Context, conn *websocket.Conn, cat *game.Catalog, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	events := log.NewCappedLogger(log.DefaultLogCapacity)
	c := &Client{
		conn:       conn,
		logger:     logger,
		Events:     events,
		ctx:        ctx,
		side:       game.SideNone,
		reconciler: NewReconciler(cat, events),
		updates:    make(chan struct{}, 1),
		rejections: make(chan string, 8),
	}
	c.predict = game.AttachMatch(game.NewMatchState(game.DefaultRules()), game.MatchConfig{Diag: logger})
	return c
}

// Close ends the connection.
func (c *Client) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "bye")
}

// Side is the seat the server assigned, or SideNone before the welcome.
func (c *Client) Side() game.Side {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.side
}

// Updates signals whenever the local state changed. Signals coalesce.
func (c *Client) Updates() <-chan struct{} {
	return c.updates
}

// Rejections carries reasons the authority gave for refusing actions.
func (c *Client) Rejections() <-chan string {
	return c.rejections
}

// CurrentState returns a copy of the local prediction.
func (c *Client) CurrentState() *game.MatchState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.predict.CurrentState()
}

// Run reads server messages until the connection closes or ctx ends.
func (c *Client) Run(ctx context.Context) error {
	for {
		var msg ServerMessage
		if err := wsjson.Read(ctx, c.conn, &msg); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}
		if err := c.receive(ctx, msg); err != nil {
			return err
		}
	}
}

func (c *Client) receive(ctx context.Context, msg ServerMessage) error {
	switch msg.Type {
	case TypeWelcome:
		c.mu.Lock()
		c.side = game.Side(msg.Seat)
		c.mu.Unlock()
		c.logger.Info("seated", zap.Stringer("side", game.Side(msg.Seat)))
		c.notify()

	case TypeSnapshot:
		c.mu.Lock()
		applied, err := c.reconciler.Apply(c.predict.State, msg.Snapshot)
		c.mu.Unlock()
		if errors.Is(err, ErrDesync) {
			c.logger.Warn("snapshot rejected, requesting resync", zap.Error(err))
			return c.write(ctx, ClientMessage{Type: TypeResync})
		}
		if err != nil {
			return err
		}
		if applied {
			c.notify()
		}

	case TypeEvent:
		if msg.Event != nil {
			c.Events.Log(msg.Event.GameEvent())
		}

	case TypeRejected:
		c.logger.Debug("action rejected", zap.String("reason", msg.Reason))
		select {
		case c.rejections <- msg.Reason:
		default:
		}

	default:
		c.logger.Debug("unknown message", zap.String("type", msg.Type))
	}
	return nil
}

func (c *Client) notify() {
	select {
	case c.updates <- struct{}{}:
	default:
	}
}

// PlayCard predicts the play locally and sends it.
func (c *Client) PlayCard(side game.Side, cardID int) error {
	return c.act(side, func(m *game.Match) error { return m.PlayCard(side, cardID) },
		ClientMessage{Type: TypePlayCard, CardID: cardID})
}

// SelectTarget predicts the target choice locally and sends it.
func (c *Client) SelectTarget(side game.Side, target game.Target) error {
	return c.act(side, func(m *game.Match) error { return m.SelectTarget(side, target) },
		ClientMessage{Type: TypeSelectTarget, Target: RefFor(target)})
}

// CancelTarget cancels the pending spell locally and remotely.
func (c *Client) CancelTarget(side game.Side) error {
	return c.act(side, func(m *game.Match) error { return m.CancelTarget(side) },
		ClientMessage{Type: TypeCancelTarget})
}

// Attack predicts the attack locally and sends it.
func (c *Client) Attack(side game.Side, attackerID int, target game.Target) error {
	return c.act(side, func(m *game.Match) error { return m.Attack(side, attackerID, target) },
		ClientMessage{Type: TypeAttack, AttackerID: attackerID, Target: RefFor(target)})
}

// EndTurn ends the turn locally and remotely.
func (c *Client) EndTurn(side game.Side) error {
	return c.act(side, func(m *game.Match) error { return m.EndTurn(side) },
		ClientMessage{Type: TypeEndTurn})
}

// act applies an action to the prediction and, if the local rules accept it,
// sends it to the authority. The authority's next snapshot wins regardless.
func (c *Client) act(side game.Side, predict func(*game.Match) error, msg ClientMessage) error {
	c.mu.Lock()
	if c.side == game.SideNone {
		c.mu.Unlock()
		return ErrNoSeat
	}
	if side != c.side {
		c.mu.Unlock()
		return fmt.Errorf("%w: this client plays %s", game.ErrNotYourTurn, c.side)
	}
	if err := predict(c.predict); err != nil {
		c.mu.Unlock()
		return err
	}
	msg.MatchID = c.predict.State.ID.String()
	c.mu.Unlock()

	c.notify()
	return c.write(c.ctx, msg)
}

func (c *Client) write(ctx context.Context, msg ClientMessage) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, c.conn, msg); err != nil {
		return fmt.Errorf("send %s: %w", msg.Type, err)
	}
	return nil
}
