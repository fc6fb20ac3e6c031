package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	stdnet "net"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"go.uber.org/zap"

	"github.com/peterkuimelis/cardclash/internal/config"
	"github.com/peterkuimelis/cardclash/internal/game"
	"github.com/peterkuimelis/cardclash/internal/log"
	ccnet "github.com/peterkuimelis/cardclash/internal/net"
	"github.com/peterkuimelis/cardclash/internal/term"
	"github.com/peterkuimelis/cardclash/internal/web"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch os.Args[1] {
	case "solo":
		err = runSolo(ctx, os.Args[2:])
	case "serve":
		err = runServe(ctx, os.Args[2:])
	case "host":
		err = runHost(ctx, os.Args[2:])
	case "join":
		err = runJoin(ctx, os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  cardclash solo  [--config FILE] [--deck N] [--opponent-deck N] [--difficulty D]")
	fmt.Println("  cardclash serve [--config FILE] [--addr ADDR]")
	fmt.Println("  cardclash host  [--config FILE] [--addr ADDR] [--deck N]")
	fmt.Println("  cardclash join  [--config FILE] [--url URL] [--deck N]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  solo    Play against the built-in opponent")
	fmt.Println("  serve   Run the match authority and card API without playing")
	fmt.Println("  host    Run the match authority and play as Player 1")
	fmt.Println("  join    Connect to a match authority and play")
}

// env is what every subcommand needs once flags are parsed.
type env struct {
	cfg     *config.Config
	logger  *zap.Logger
	catalog *game.Catalog
}

func setup(fs *flag.FlagSet, args []string) (*env, error) {
	path := fs.String("config", "", "path to a YAML config file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg, err := config.Load(*path)
	if err != nil {
		return nil, err
	}
	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	var cat *game.Catalog
	if cfg.Catalog.Path == "" {
		cat, err = game.DefaultCatalog()
	} else {
		cat, err = game.LoadCatalog(cfg.Catalog.Path)
	}
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, catalog: cat}, nil
}

func runSolo(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("solo", flag.ExitOnError)
	deck := fs.Int("deck", 1, "deck number to use (from the decks file)")
	oppDeck := fs.Int("opponent-deck", 2, "deck number for the opponent")
	difficulty := fs.String("difficulty", "", "opponent difficulty (default from config)")
	e, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer e.logger.Sync()

	_, deck0, err := game.DeckByNumber(e.cfg.Catalog.Decks, *deck, e.catalog)
	if err != nil {
		return err
	}
	_, deck1, err := game.DeckByNumber(e.cfg.Catalog.Decks, *oppDeck, e.catalog)
	if err != nil {
		return err
	}
	rules, err := e.cfg.Rules(*difficulty)
	if err != nil {
		return err
	}
	opp, err := e.cfg.Opponent(game.SideOpponent, *difficulty, e.logger)
	if err != nil {
		return err
	}

	events := log.NewCappedLogger(e.cfg.Match.LogCapacity)
	m := game.NewMatch(game.MatchConfig{
		Deck0:   deck0,
		Deck1:   deck1,
		Rules:   rules,
		Logger:  log.NewMultiLogger(events, log.NewZapLogger(e.logger.Named("events"))),
		Diag:    e.logger,
		Results: game.LogResults{Logger: e.logger},
		Seed:    e.cfg.Match.Seed,
	})
	m.Start()

	repl := &term.REPL{
		In:     os.Stdin,
		Out:    os.Stdout,
		Side:   game.SidePlayer,
		Actor:  m,
		Log:    events,
		Settle: term.LocalSettle(m, opp),
	}
	return repl.Run(ctx)
}

func newAuthority(e *env) (*ccnet.Authority, error) {
	rules, err := e.cfg.Rules("")
	if err != nil {
		return nil, err
	}
	// Two humans share one mana ceiling.
	rules.ManaCap[game.SideOpponent] = rules.ManaCap[game.SidePlayer]

	a := ccnet.NewAuthority(e.catalog, e.cfg.Catalog.Decks, e.logger.Named("authority"))
	a.Rules = rules
	a.Seed = e.cfg.Match.Seed
	a.Results = game.LogResults{Logger: e.logger}
	return a, nil
}

// listen binds addr and serves the card API plus the authority until ctx ends.
func listen(ctx context.Context, e *env, addr string, a *ccnet.Authority) (stdnet.Addr, <-chan error, error) {
	ln, err := stdnet.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	srv := &http.Server{Handler: web.NewServer(e.catalog, e.cfg.Catalog.Decks, a, e.logger.Named("web"))}
	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	e.logger.Info("listening", zap.Stringer("addr", ln.Addr()))
	return ln.Addr(), errc, nil
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "", "listen address (default from config)")
	e, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer e.logger.Sync()
	if *addr == "" {
		*addr = e.cfg.Server.Address
	}

	a, err := newAuthority(e)
	if err != nil {
		return err
	}
	_, errc, err := listen(ctx, e, *addr, a)
	if err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return nil
	case <-a.Done():
		e.logger.Info("match finished, shutting down")
		return nil
	case err := <-errc:
		return err
	}
}

func runHost(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("host", flag.ExitOnError)
	addr := fs.String("addr", "", "listen address (default from config)")
	deck := fs.Int("deck", 1, "deck number to use (from the decks file)")
	e, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer e.logger.Sync()
	if *addr == "" {
		*addr = e.cfg.Server.Address
	}

	a, err := newAuthority(e)
	if err != nil {
		return err
	}
	bound, _, err := listen(ctx, e, *addr, a)
	if err != nil {
		return err
	}
	port := bound.String()[strings.LastIndex(bound.String(), ":"):]
	fmt.Printf("Waiting for an opponent: cardclash join --url ws://<this host>%s/ws\n", port)
	return play(ctx, e, "ws://localhost"+port+"/ws", *deck)
}

func runJoin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("join", flag.ExitOnError)
	url := fs.String("url", "ws://localhost:8080/ws", "match authority websocket URL")
	deck := fs.Int("deck", 2, "deck number to use (from the decks file)")
	e, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer e.logger.Sync()
	return play(ctx, e, *url, *deck)
}

// play takes a seat at a remote authority and runs the REPL for it.
func play(ctx context.Context, e *env, url string, deck int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c, err := ccnet.Dial(ctx, url, deck, e.catalog, e.logger.Named("client"))
	if err != nil {
		return err
	}
	defer c.Close()

	runErr := make(chan error, 1)
	go func() {
		runErr <- c.Run(ctx)
		cancel()
	}()

	for c.Side() == game.SideNone {
		select {
		case <-ctx.Done():
			if err := <-runErr; err != nil {
				return err
			}
			return ctx.Err()
		case <-c.Updates():
		}
	}
	side := c.Side()
	fmt.Printf("Seated as %s.\n", side)

	repl := &term.REPL{
		In:         os.Stdin,
		Out:        os.Stdout,
		Side:       side,
		Actor:      c,
		Log:        c.Events,
		Settle:     term.RemoteSettle(c, side),
		Rejections: c.Rejections(),
	}
	return repl.Run(ctx)
}
