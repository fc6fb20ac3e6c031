package log

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// EventLogger is the interface for logging match events.
type EventLogger interface {
	Log(event GameEvent)
	Events() []GameEvent
}

// --- MemoryLogger: stores events in memory for test assertions ---

type MemoryLogger struct {
	events []GameEvent
	seq    int
}

func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

func (l *MemoryLogger) Log(event GameEvent) {
	l.seq++
	event.Seq = l.seq
	l.events = append(l.events, event)
}

func (l *MemoryLogger) Events() []GameEvent {
	return l.events
}

// EventsOfType returns all events matching the given type.
func (l *MemoryLogger) EventsOfType(t EventType) []GameEvent {
	var result []GameEvent
	for _, e := range l.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// LastEvent returns the most recent event, or a zero event if none.
func (l *MemoryLogger) LastEvent() GameEvent {
	if len(l.events) == 0 {
		return GameEvent{}
	}
	return l.events[len(l.events)-1]
}

// --- TextLogger: writes human-readable lines to an io.Writer ---

// TextLogger keeps nothing; Events always returns nil.
type TextLogger struct {
	w io.Writer
}

func NewTextLogger(w io.Writer) *TextLogger {
	return &TextLogger{w: w}
}

func (l *TextLogger) Log(event GameEvent) {
	fmt.Fprintln(l.w, FormatEvent(event))
}

func (l *TextLogger) Events() []GameEvent {
	return nil
}

// --- CappedLogger: the append-only presentation log ---

// CappedLogger keeps only the most recent entries; older ones are evicted.
// It is safe for concurrent use because presentation reads it from another
// goroutine than the one resolving actions.
type CappedLogger struct {
	mu       sync.Mutex
	capacity int
	events   []GameEvent
	seq      int
}

// DefaultLogCapacity is the number of entries the presentation log retains.
const DefaultLogCapacity = 10

func NewCappedLogger(capacity int) *CappedLogger {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &CappedLogger{capacity: capacity}
}

func (l *CappedLogger) Log(event GameEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	event.Seq = l.seq
	l.events = append(l.events, event)
	if over := len(l.events) - l.capacity; over > 0 {
		l.events = append(l.events[:0:0], l.events[over:]...)
	}
}

func (l *CappedLogger) Events() []GameEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]GameEvent, len(l.events))
	copy(out, l.events)
	return out
}

// Lines returns the retained entries as short display strings, oldest first.
func (l *CappedLogger) Lines() []string {
	events := l.Events()
	lines := make([]string, 0, len(events))
	for _, e := range events {
		lines = append(lines, e.Details)
	}
	return lines
}

// --- ZapLogger: forwards events to a structured diagnostics logger ---

// ZapLogger numbers events but does not retain them; Events always returns
// nil.
type ZapLogger struct {
	mu  sync.Mutex
	seq int
	z   *zap.Logger
}

func NewZapLogger(z *zap.Logger) *ZapLogger {
	if z == nil {
		z = zap.NewNop()
	}
	return &ZapLogger{z: z}
}

func (l *ZapLogger) Log(event GameEvent) {
	l.mu.Lock()
	l.seq++
	seq := l.seq
	l.mu.Unlock()

	fields := []zap.Field{
		zap.Int("seq", seq),
		zap.Int("turn", event.Turn),
		zap.String("phase", event.Phase),
		zap.Int("player", event.Player),
		zap.String("type", event.Type.String()),
	}
	if event.Card != "" {
		fields = append(fields, zap.String("card", event.Card))
	}
	if event.Type == EventRejected {
		l.z.Warn(event.Details, fields...)
		return
	}
	l.z.Debug(event.Details, fields...)
}

func (l *ZapLogger) Events() []GameEvent {
	return nil
}

// --- MultiLogger: fans events out to several sinks ---

// MultiLogger stores nothing itself. Events reports the first sink's events,
// so put the retaining sink first.
type MultiLogger struct {
	sinks []EventLogger
}

func NewMultiLogger(sinks ...EventLogger) *MultiLogger {
	return &MultiLogger{sinks: sinks}
}

func (l *MultiLogger) Log(event GameEvent) {
	for _, s := range l.sinks {
		s.Log(event)
	}
}

func (l *MultiLogger) Events() []GameEvent {
	if len(l.sinks) == 0 {
		return nil
	}
	return l.sinks[0].Events()
}

// --- Formatting ---

// playerName returns "P1" or "P2" for display.
func playerName(p int) string {
	return fmt.Sprintf("P%d", p+1)
}

// FormatEvent formats a single event as a human-readable line.
func FormatEvent(e GameEvent) string {
	phase := e.Phase
	if phase == "" {
		phase = "          "
	}
	// Pad phase to 14 chars for alignment
	for len(phase) < 14 {
		phase += " "
	}

	return fmt.Sprintf("T%-2d %s| %s", e.Turn, phase, e.Details)
}

// FormatAll formats all events as a multi-line string.
func FormatAll(events []GameEvent) string {
	var sb strings.Builder
	for _, e := range events {
		sb.WriteString(FormatEvent(e))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// --- Helper constructors for common events ---

func NewTurnEvent(turn int, phase string, player int) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  player,
		Type:    EventNewTurn,
		Details: fmt.Sprintf("=== Turn %d (%s) ===", turn, playerName(player)),
	}
}

func NewEndTurnEvent(turn int, phase string, player int) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  player,
		Type:    EventEndTurn,
		Details: fmt.Sprintf("%s ends the turn", playerName(player)),
	}
}

func NewDrawEvent(turn int, phase string, player int, cardName string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  player,
		Type:    EventDraw,
		Card:    cardName,
		Details: fmt.Sprintf("%s draws %s", playerName(player), cardName),
	}
}

func NewBurnCardEvent(turn int, phase string, player int, cardName string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  player,
		Type:    EventBurnCard,
		Card:    cardName,
		Details: fmt.Sprintf("%s's hand is full, %s is burned", playerName(player), cardName),
	}
}

func NewPlayCardEvent(turn int, phase string, player int, cardName string, cost int) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  player,
		Type:    EventPlayCard,
		Card:    cardName,
		Details: fmt.Sprintf("%s plays %s (%d mana)", playerName(player), cardName, cost),
	}
}

func NewCastSpellEvent(turn int, phase string, player int, cardName string, target string) GameEvent {
	details := fmt.Sprintf("%s casts %s", playerName(player), cardName)
	if target != "" {
		details += " → " + target
	}
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  player,
		Type:    EventCastSpell,
		Card:    cardName,
		Details: details,
	}
}

func NewSummonEvent(turn int, phase string, player int, cardName string, atk, hp int) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  player,
		Type:    EventSummon,
		Card:    cardName,
		Details: fmt.Sprintf("%s summons %s (%d/%d)", playerName(player), cardName, atk, hp),
	}
}

func NewAttackDeclareEvent(turn int, phase string, player int, attacker string, defender string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  player,
		Type:    EventAttackDeclare,
		Card:    attacker,
		Details: fmt.Sprintf("%s attacks: %s → %s", playerName(player), attacker, defender),
	}
}

func NewDirectAttackEvent(turn int, phase string, player int, attacker string, damage int) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  player,
		Type:    EventDirectAttack,
		Card:    attacker,
		Details: fmt.Sprintf("%s hits %s directly for %d", attacker, playerName(1-player), damage),
	}
}

func NewDamageEvent(turn int, phase string, player int, cardName string, amount, health int, reason string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  player,
		Type:    EventDamage,
		Card:    cardName,
		Details: fmt.Sprintf("%s takes %d damage, %d health left (%s)", cardName, amount, health, reason),
	}
}

func NewHPChangeEvent(turn int, phase string, player int, oldHP, newHP int, reason string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  player,
		Type:    EventHPChange,
		Details: fmt.Sprintf("%s health: %d → %d (%s)", playerName(player), oldHP, newHP, reason),
	}
}

func NewHealEvent(turn int, phase string, player int, cardName string, health int) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  player,
		Type:    EventHeal,
		Card:    cardName,
		Details: fmt.Sprintf("%s is healed to %d", cardName, health),
	}
}

func NewBuffEvent(turn int, phase string, player int, cardName string, atk, hp int) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  player,
		Type:    EventBuff,
		Card:    cardName,
		Details: fmt.Sprintf("%s gets +%d/+%d", cardName, atk, hp),
	}
}

func NewShieldBreakEvent(turn int, phase string, player int, cardName string, shield string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  player,
		Type:    EventShieldBreak,
		Card:    cardName,
		Details: fmt.Sprintf("%s loses %s", cardName, shield),
	}
}

func NewAbsorbEvent(turn int, phase string, player int, cardName string, reason string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  player,
		Type:    EventAbsorb,
		Card:    cardName,
		Details: fmt.Sprintf("%s is unharmed (%s)", cardName, reason),
	}
}

func NewFreezeEvent(turn int, phase string, player int, cardName string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  player,
		Type:    EventFreeze,
		Card:    cardName,
		Details: fmt.Sprintf("%s is frozen", cardName),
	}
}

func NewDestroyEvent(turn int, phase string, player int, cardName string, reason string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  player,
		Type:    EventDestroy,
		Card:    cardName,
		Details: fmt.Sprintf("%s is destroyed (%s)", cardName, reason),
	}
}

func NewSendToGraveyardEvent(turn int, phase string, player int, cardName string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  player,
		Type:    EventSendToGraveyard,
		Card:    cardName,
		Details: fmt.Sprintf("%s goes to %s's graveyard", cardName, playerName(player)),
	}
}

func NewResurrectEvent(turn int, phase string, player int, cardName string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  player,
		Type:    EventResurrect,
		Card:    cardName,
		Details: fmt.Sprintf("%s returns to %s's field", cardName, playerName(player)),
	}
}

func NewReturnToHandEvent(turn int, phase string, player int, cardName string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  player,
		Type:    EventReturnToHand,
		Card:    cardName,
		Details: fmt.Sprintf("%s returns to %s's hand", cardName, playerName(player)),
	}
}

func NewChangeControlEvent(turn int, phase string, player int, cardName string, newController int) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  player,
		Type:    EventChangeControl,
		Card:    cardName,
		Details: fmt.Sprintf("%s control changes to %s", cardName, playerName(newController)),
	}
}

func NewSilenceEvent(turn int, phase string, player int, cardName string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  player,
		Type:    EventSilence,
		Card:    cardName,
		Details: fmt.Sprintf("%s is silenced", cardName),
	}
}

func NewTransformEvent(turn int, phase string, player int, from, to string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  player,
		Type:    EventTransform,
		Card:    from,
		Details: fmt.Sprintf("%s is transformed into %s", from, to),
	}
}

func NewDiscardEvent(turn int, phase string, player int, cardName string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  player,
		Type:    EventDiscard,
		Card:    cardName,
		Details: fmt.Sprintf("%s discards %s", playerName(player), cardName),
	}
}

func NewExtraTurnEvent(turn int, phase string, player int) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  player,
		Type:    EventExtraTurn,
		Details: fmt.Sprintf("%s will take an extra turn", playerName(player)),
	}
}

func NewChaosEvent(turn int, phase string, player int, outcome string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  player,
		Type:    EventChaos,
		Details: fmt.Sprintf("Chaos: %s", outcome),
	}
}

func NewRewindEvent(turn int, phase string, player int) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  player,
		Type:    EventRewind,
		Details: fmt.Sprintf("%s rewinds time to the start of the turn", playerName(player)),
	}
}

func NewTargetPendingEvent(turn int, phase string, player int, cardName string, class string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  player,
		Type:    EventTargetPending,
		Card:    cardName,
		Details: fmt.Sprintf("%s needs a target (%s)", cardName, class),
	}
}

func NewTargetCancelledEvent(turn int, phase string, player int, cardName string, reason string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  player,
		Type:    EventTargetCancelled,
		Card:    cardName,
		Details: fmt.Sprintf("%s is cancelled (%s)", cardName, reason),
	}
}

func NewRejectedEvent(turn int, phase string, player int, reason string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  player,
		Type:    EventRejected,
		Details: reason,
	}
}

func NewWinEvent(turn int, phase string, winner int, reason string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  winner,
		Type:    EventWin,
		Details: fmt.Sprintf("%s wins! (%s)", playerName(winner), reason),
	}
}

func NewTieEvent(turn int, phase string, reason string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  -1,
		Type:    EventDraw_Tie,
		Details: fmt.Sprintf("Draw! (%s)", reason),
	}
}

func NewShuffleEvent(turn int, phase string, player int) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  player,
		Type:    EventShuffle,
		Details: fmt.Sprintf("%s shuffled their deck", playerName(player)),
	}
}

func NewReconcileEvent(turn int, phase string, player int, seq int64) GameEvent {
	return GameEvent{
		Turn:    turn,
		Phase:   phase,
		Player:  player,
		Type:    EventReconcile,
		Details: fmt.Sprintf("State corrected by authority (snapshot %d)", seq),
	}
}
