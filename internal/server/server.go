package server

import (
	"net/http"
	"sync"

	"auxparty/internal/catalog"
	"auxparty/internal/config"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
)

type Server struct {
	store *Store
	db    *gorm.DB
	hub   *wsHub
	cfg   config.Config
	clock clockwork.Clock
	music []catalog.Song

	timersMu    sync.Mutex
	phaseTimer  clockwork.Timer
	resultTimer clockwork.Timer
}

func New(conn *gorm.DB, cfg config.Config, music []catalog.Song) *Server {
	return NewWithClock(conn, cfg, music, clockwork.NewRealClock())
}

func NewWithClock(conn *gorm.DB, cfg config.Config, music []catalog.Song, clock clockwork.Clock) *Server {
	return &Server{
		store: NewStore(),
		db:    conn,
		hub:   newWSHub(),
		cfg:   cfg,
		clock: clock,
		music: music,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleWebsocket)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /", http.FileServer(http.Dir("public")))
	return mux
}
