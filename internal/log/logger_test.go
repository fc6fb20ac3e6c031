package log

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCappedLoggerEvictsOldest(t *testing.T) {
	l := NewCappedLogger(DefaultLogCapacity)
	for i := 1; i <= 14; i++ {
		l.Log(GameEvent{Turn: i, Details: fmt.Sprintf("entry %d", i)})
	}

	events := l.Events()
	require.Len(t, events, DefaultLogCapacity)
	assert.Equal(t, 5, events[0].Turn)
	assert.Equal(t, 14, events[len(events)-1].Turn)
	assert.Equal(t, 14, events[len(events)-1].Seq)

	lines := l.Lines()
	assert.Equal(t, "entry 5", lines[0])
	assert.Equal(t, "entry 14", lines[len(lines)-1])

	// Callers get a copy.
	events[0].Details = "changed"
	assert.Equal(t, "entry 5", l.Lines()[0])

	assert.Equal(t, DefaultLogCapacity, NewCappedLogger(0).capacity)
}

func TestMultiLoggerFansOut(t *testing.T) {
	mem := NewMemoryLogger()
	var buf bytes.Buffer
	text := NewTextLogger(&buf)
	multi := NewMultiLogger(mem, text)

	multi.Log(NewTurnEvent(1, "P1 turn", 0))
	multi.Log(NewRejectedEvent(1, "P1 turn", 0, "not enough mana"))

	assert.Len(t, multi.Events(), 2)
	assert.Len(t, mem.Events(), 2)
	assert.Len(t, mem.EventsOfType(EventRejected), 1)
	assert.Equal(t, EventRejected, mem.LastEvent().Type)
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
	assert.Contains(t, buf.String(), "not enough mana")
}

func TestZapLoggerLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZapLogger(zap.New(core))

	l.Log(NewDrawEvent(2, "P2 turn", 1, "Fire Bolt"))
	l.Log(NewRejectedEvent(2, "P2 turn", 1, "it is P1's turn"))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "Fire Bolt", entries[0].ContextMap()["card"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "Rejected", entries[1].ContextMap()["type"])
	assert.Equal(t, int64(2), entries[1].ContextMap()["seq"])
}

func TestForwardingLoggersRetainNothing(t *testing.T) {
	var buf bytes.Buffer
	zl := NewZapLogger(zap.NewNop())
	text := NewTextLogger(&buf)
	capped := NewCappedLogger(3)
	multi := NewMultiLogger(capped, zl, text)

	for i := 1; i <= 500; i++ {
		multi.Log(NewTurnEvent(i, "P1 turn", 0))
	}

	assert.Nil(t, zl.Events())
	assert.Nil(t, text.Events())
	assert.Len(t, multi.Events(), 3, "reports the first sink")
	assert.Equal(t, 500, multi.Events()[2].Turn)
	assert.Equal(t, 500, strings.Count(buf.String(), "\n"))
	assert.Nil(t, NewMultiLogger().Events())
}

func TestParseEventType(t *testing.T) {
	for e := EventNewTurn; e <= EventReconcile; e++ {
		got, ok := ParseEventType(e.String())
		require.True(t, ok, e.String())
		assert.Equal(t, e, got)
	}
	_, ok := ParseEventType("Unknown")
	assert.False(t, ok)
}

func TestFormatEventPadsPhase(t *testing.T) {
	line := FormatEvent(GameEvent{Turn: 3, Phase: "P1 turn", Details: "hello"})
	assert.Equal(t, "T3  P1 turn       | hello", line)
}
