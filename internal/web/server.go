package web

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/peterkuimelis/cardclash/internal/game"
)

// CardInfo is the JSON representation of a card for the /api/cards endpoint.
type CardInfo struct {
	Name     string   `json:"name"`
	Cost     int      `json:"cost"`
	Kind     string   `json:"kind"`
	Attack   int      `json:"attack,omitempty"`
	Health   int      `json:"health,omitempty"`
	Ability  string   `json:"ability,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
	Target   string   `json:"target,omitempty"`
	Rarity   string   `json:"rarity"`
	Price    int      `json:"price"`
	Power    int      `json:"power"`
	Colors   []string `json:"colors,omitempty"`
	Emoji    string   `json:"emoji,omitempty"`
}

// Server is the cardclash HTTP surface: catalog and deck listings plus the
// match websocket.
type Server struct {
	catalog   *game.Catalog
	decksFile string
	match     http.Handler
	logger    *zap.Logger
	mux       *http.ServeMux
}

// NewServer creates a new web server. match handles /ws; nil leaves the
// route unmounted.
func NewServer(cat *game.Catalog, decksFile string, match http.Handler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		catalog:   cat,
		decksFile: decksFile,
		match:     match,
		logger:    logger,
		mux:       http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /api/cards", s.handleCards)
	s.mux.HandleFunc("GET /api/decks", s.handleDecks)
	if s.match != nil {
		s.mux.Handle("GET /ws", s.match)
	}
}

func (s *Server) handleCards(w http.ResponseWriter, r *http.Request) {
	cards := make([]CardInfo, 0, len(s.catalog.Cards))
	for _, c := range s.catalog.Cards {
		ci := CardInfo{
			Name:     c.Name,
			Cost:     c.Cost,
			Kind:     c.Kind.String(),
			Ability:  c.AbilityText,
			Keywords: c.Ability.Keywords.Names(),
			Rarity:   c.Rarity.String(),
			Price:    s.catalog.Price(c),
			Power:    s.catalog.Power(c),
			Colors:   c.Colors,
			Emoji:    c.Emoji,
		}
		if c.IsCreature() {
			ci.Attack = c.Attack
			ci.Health = c.Health
		}
		if tc := c.Ability.TargetClass(); tc != game.TargetNone {
			ci.Target = tc.String()
		}
		cards = append(cards, ci)
	}
	s.writeJSON(w, cards)
}

func (s *Server) handleDecks(w http.ResponseWriter, r *http.Request) {
	df, err := game.ReadDeckFile(s.decksFile)
	if err != nil {
		s.logger.Error("read decks", zap.String("path", s.decksFile), zap.Error(err))
		http.Error(w, "could not read decks file", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, summarizeDecks(df, s.catalog))
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("write response", zap.Error(err))
	}
}

// ServeHTTP makes the server usable as a handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, s.mux)
}
