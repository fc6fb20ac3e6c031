package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/peterkuimelis/cardclash/internal/config"
	"github.com/peterkuimelis/cardclash/internal/game"
	ccmcp "github.com/peterkuimelis/cardclash/internal/mcp"
)

func main() {
	path := flag.String("config", "", "path to a YAML config file")
	decks := flag.String("decks", "", "path to decks YAML file (overrides config)")
	flag.Parse()

	if err := run(*path, *decks); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(path, decks string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if decks != "" {
		cfg.Catalog.Decks = decks
	}

	// zap writes to stderr; stdout carries the protocol.
	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	var cat *game.Catalog
	if cfg.Catalog.Path == "" {
		cat, err = game.DefaultCatalog()
	} else {
		cat, err = game.LoadCatalog(cfg.Catalog.Path)
	}
	if err != nil {
		return err
	}

	tools := ccmcp.NewTools(cfg, cat, logger)
	tools.Results = game.LogResults{Logger: logger}

	s := server.NewMCPServer("cardclash", "1.0.0")
	tools.Register(s)

	logger.Info("serving tools on stdio", zap.Strings("difficulties", cfg.DifficultyNames()))
	return server.ServeStdio(s)
}
