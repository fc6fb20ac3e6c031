package net

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterkuimelis/cardclash/internal/game"
)

const deckFile = "../../decks.yaml"

func startAuthority(t *testing.T) (*Authority, string) {
	t.Helper()
	a := NewAuthority(testCatalog(t), deckFile, nil)
	a.Seed = 7
	srv := httptest.NewServer(a)
	t.Cleanup(srv.Close)
	return a, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialRaw(t *testing.T, ctx context.Context, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, msg ClientMessage) {
	t.Helper()
	require.NoError(t, wsjson.Write(ctx, conn, msg))
}

// readUntil reads messages until one of type typ arrives, returning it and
// the number of skipped event messages.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string) (ServerMessage, int) {
	t.Helper()
	events := 0
	for {
		var msg ServerMessage
		require.NoError(t, wsjson.Read(ctx, conn, &msg))
		if msg.Type == typ {
			return msg, events
		}
		if msg.Type == TypeEvent {
			events++
		}
	}
}

func TestAuthoritySeatsAndRejects(t *testing.T) {
	a, url := startAuthority(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c0 := dialRaw(t, ctx, url)
	send(t, ctx, c0, ClientMessage{Type: TypeJoin, DeckNumber: 1})
	welcome, _ := readUntil(t, ctx, c0, TypeWelcome)
	assert.Equal(t, 0, welcome.Seat)
	assert.Nil(t, a.State(), "no match before both seats are taken")

	c1 := dialRaw(t, ctx, url)
	send(t, ctx, c1, ClientMessage{Type: TypeJoin, DeckNumber: 2})
	welcome, _ = readUntil(t, ctx, c1, TypeWelcome)
	assert.Equal(t, 1, welcome.Seat)

	first, events := readUntil(t, ctx, c0, TypeSnapshot)
	assert.Positive(t, events, "match start events precede the snapshot")
	require.NotNil(t, first.Snapshot)
	assert.Equal(t, 0, first.CurrentTurn)
	assert.Equal(t, 1, first.TurnNumber)
	require.Len(t, first.Players, 2)
	st := a.State()
	require.NotNil(t, st)
	assert.Equal(t, st.ID.String(), first.MatchID)
	assert.Len(t, first.Players[0].Hand, len(st.Players[0].Hand))
	assert.Equal(t, len(st.Players[1].Deck), first.Players[1].DeckCount)
	readUntil(t, ctx, c1, TypeSnapshot)

	// Out of turn: rejected, then the truth is resent under a newer seq.
	send(t, ctx, c1, ClientMessage{Type: TypeEndTurn})
	rej, _ := readUntil(t, ctx, c1, TypeRejected)
	assert.Contains(t, rej.Reason, "turn")
	resent, _ := readUntil(t, ctx, c1, TypeSnapshot)
	assert.Greater(t, resent.Seq, first.Seq)

	send(t, ctx, c0, ClientMessage{Type: TypeEndTurn, MatchID: "not-this-match"})
	rej, _ = readUntil(t, ctx, c0, TypeRejected)
	assert.Contains(t, rej.Reason, "another match")
	readUntil(t, ctx, c0, TypeSnapshot)

	send(t, ctx, c0, ClientMessage{Type: TypeAttack, AttackerID: 1})
	rej, _ = readUntil(t, ctx, c0, TypeRejected)
	assert.Contains(t, rej.Reason, "missing target")
	readUntil(t, ctx, c0, TypeSnapshot)

	send(t, ctx, c0, ClientMessage{Type: TypeResync})
	resync, _ := readUntil(t, ctx, c0, TypeSnapshot)
	assert.Equal(t, 0, resync.CurrentTurn)

	send(t, ctx, c0, ClientMessage{Type: TypeEndTurn, MatchID: st.ID.String()})
	after, events := readUntil(t, ctx, c0, TypeSnapshot)
	assert.Positive(t, events)
	assert.Equal(t, 1, after.CurrentTurn)
	assert.Equal(t, game.SideOpponent, a.State().Current)

	// A third connection finds the match full.
	c2 := dialRaw(t, ctx, url)
	send(t, ctx, c2, ClientMessage{Type: TypeJoin})
	var msg ServerMessage
	err := wsjson.Read(ctx, c2, &msg)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusTryAgainLater, websocket.CloseStatus(err))
}

func TestAuthorityRefusesBadJoin(t *testing.T) {
	a, url := startAuthority(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn := dialRaw(t, ctx, url)
	send(t, ctx, conn, ClientMessage{Type: TypeEndTurn})
	var msg ServerMessage
	err := wsjson.Read(ctx, conn, &msg)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusPolicyViolation, websocket.CloseStatus(err))

	conn = dialRaw(t, ctx, url)
	send(t, ctx, conn, ClientMessage{Type: TypeJoin, DeckNumber: 99})
	err = wsjson.Read(ctx, conn, &msg)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusTryAgainLater, websocket.CloseStatus(err))
	assert.Nil(t, a.State())
}

func dialClient(t *testing.T, ctx context.Context, url string, deck int) *Client {
	t.Helper()
	c, err := Dial(ctx, url, deck, testCatalog(t), nil)
	require.NoError(t, err)
	go c.Run(ctx)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClientsFollowAuthority(t *testing.T) {
	a, url := startAuthority(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c0 := dialClient(t, ctx, url, 1)
	require.Eventually(t, func() bool { return c0.Side() == game.SidePlayer }, 5*time.Second, 10*time.Millisecond)
	c1 := dialClient(t, ctx, url, 2)
	require.Eventually(t, func() bool { return c1.Side() == game.SideOpponent }, 5*time.Second, 10*time.Millisecond)

	started := func(c *Client) func() bool {
		return func() bool { return c.CurrentState().Turn == 1 }
	}
	require.Eventually(t, started(c0), 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, started(c1), 5*time.Second, 10*time.Millisecond)

	truth := a.State()
	local := c1.CurrentState()
	assert.Equal(t, truth.ID, local.ID)
	for side := range truth.Players {
		assert.Len(t, local.Players[side].Hand, len(truth.Players[side].Hand))
		assert.Equal(t, truth.Players[side].Mana, local.Players[side].Mana)
	}

	// Local rules reject before anything is sent.
	err := c1.EndTurn(game.SideOpponent)
	require.Error(t, err)
	assert.True(t, game.IsRejection(err))
	assert.ErrorIs(t, c1.EndTurn(game.SidePlayer), game.ErrNotYourTurn)

	require.NoError(t, c0.EndTurn(game.SidePlayer))
	assert.Equal(t, game.SideOpponent, c0.CurrentState().Current, "prediction applies at once")
	require.Eventually(t, func() bool {
		return c1.CurrentState().Current == game.SideOpponent && a.State().Current == game.SideOpponent
	}, 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		return len(c1.CurrentState().Players[1].Hand) == len(a.State().Players[1].Hand)
	}, 5*time.Second, 10*time.Millisecond, "the opponent's draw arrives by snapshot")
}
