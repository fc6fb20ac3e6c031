// Package term is the line-oriented terminal client. It drives any ai.Actor,
// so the same loop plays a local match or a seat of a remote one.
package term

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/peterkuimelis/cardclash/internal/ai"
	"github.com/peterkuimelis/cardclash/internal/game"
	"github.com/peterkuimelis/cardclash/internal/log"
	"github.com/peterkuimelis/cardclash/internal/net"
)

// REPL reads commands for one side and prints the board after each one.
type REPL struct {
	In    io.Reader
	Out   io.Writer
	Side  game.Side
	Actor ai.Actor

	// Log is printed incrementally before every prompt.
	Log log.EventLogger

	// Settle runs before every prompt and returns once it is Side's turn or
	// the match is over. Nil means the caller handles the other side.
	Settle func(ctx context.Context) error

	// Rejections carries reasons from a remote authority.
	Rejections <-chan string

	lastSeq int
}

// Run reads commands until the match ends, input runs out, or ctx ends.
func (r *REPL) Run(ctx context.Context) error {
	reader := bufio.NewScanner(r.In)
	r.printf("Type 'help' for commands.\n")

	for {
		if r.Settle != nil {
			if err := r.Settle(ctx); err != nil {
				return err
			}
		}
		r.drain()
		st := r.Actor.CurrentState()
		if st.Over {
			r.renderState(st)
			r.renderGameOver(st)
			return nil
		}
		r.renderState(st)

		r.printf("> ")
		if !reader.Scan() {
			r.printf("\n")
			return reader.Err()
		}
		quit, err := r.exec(reader.Text())
		if quit {
			return nil
		}
		if err != nil {
			r.printf("✗ %v\n", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// exec runs one command line.
func (r *REPL) exec(line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	args := fields[1:]
	st := r.Actor.CurrentState()

	switch strings.ToLower(fields[0]) {
	case "play", "p":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: play <card id>")
		}
		id, err := parseID(args[0])
		if err != nil {
			return false, err
		}
		return false, r.Actor.PlayCard(r.Side, id)

	case "target", "t":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: target <face|me|creature id>")
		}
		t, err := game.ParseTargetRef(st, r.Side, args[0])
		if err != nil {
			return false, err
		}
		return false, r.Actor.SelectTarget(r.Side, t)

	case "cancel", "c":
		return false, r.Actor.CancelTarget(r.Side)

	case "attack", "a":
		if len(args) != 2 {
			return false, fmt.Errorf("usage: attack <attacker id> <face|creature id>")
		}
		id, err := parseID(args[0])
		if err != nil {
			return false, err
		}
		t, err := game.ParseTargetRef(st, r.Side, args[1])
		if err != nil {
			return false, err
		}
		return false, r.Actor.Attack(r.Side, id, t)

	case "end", "e":
		return false, r.Actor.EndTurn(r.Side)

	case "state", "s":
		// The board is printed before every prompt anyway.
		return false, nil

	case "log", "l":
		if r.Log != nil {
			r.printf("%s", log.FormatAll(r.Log.Events()))
		}
		return false, nil

	case "help", "h", "?":
		r.printHelp()
		return false, nil

	case "quit", "q", "exit":
		return true, nil
	}
	return false, fmt.Errorf("unknown command %q (try 'help')", fields[0])
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(s, "#"))
	if err != nil {
		return 0, fmt.Errorf("bad card id %q", s)
	}
	return id, nil
}

// drain prints log entries and remote rejections that arrived since the last
// prompt.
func (r *REPL) drain() {
	if r.Log != nil {
		for _, e := range r.Log.Events() {
			if e.Seq > r.lastSeq {
				r.printf("%s\n", log.FormatEvent(e))
				r.lastSeq = e.Seq
			}
		}
	}
	for {
		select {
		case reason := <-r.Rejections:
			r.printf("✗ server: %s\n", reason)
		default:
			return
		}
	}
}

func (r *REPL) printHelp() {
	r.printf("Commands:\n")
	r.printf("  play <id>              play a card from your hand\n")
	r.printf("  target <face|me|id>    choose the target for a pending spell\n")
	r.printf("  cancel                 abandon a pending spell\n")
	r.printf("  attack <id> <face|id>  attack with one of your creatures\n")
	r.printf("  end                    end your turn\n")
	r.printf("  state                  show the board\n")
	r.printf("  log                    show recent events\n")
	r.printf("  quit                   leave\n")
}

func (r *REPL) printf(format string, args ...any) {
	fmt.Fprintf(r.Out, format, args...)
}

// LocalSettle lets opp play its turns of m.
func LocalSettle(m *game.Match, opp *ai.Opponent) func(context.Context) error {
	return func(ctx context.Context) error {
		// Extra-turn effects can hand the opponent a second turn.
		for i := 0; i < 4; i++ {
			st := m.State
			if st.Over || st.Current != opp.Side {
				return nil
			}
			if err := opp.TakeTurn(ctx, m); err != nil {
				return err
			}
		}
		return nil
	}
}

// RemoteSettle waits for the authority to hand the turn to side.
func RemoteSettle(c *net.Client, side game.Side) func(context.Context) error {
	return func(ctx context.Context) error {
		for {
			st := c.CurrentState()
			if st.Over || (st.Turn > 0 && st.Current == side) {
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-c.Updates():
			}
		}
	}
}
