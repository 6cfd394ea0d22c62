package main

import (
	"net/http"
	"os"

	"auxparty/internal/catalog"
	"auxparty/internal/config"
	"auxparty/internal/db"
	"auxparty/internal/server"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && level != zerolog.NoLevel {
		zerolog.SetGlobalLevel(level)
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("failed to load .env")
	}
	cfg := config.Load()

	conn, err := db.Open(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("stat store unavailable, running without persistence")
		conn = nil
	} else if err := db.Migrate(conn); err != nil {
		log.Warn().Err(err).Msg("stat store migration failed, running without persistence")
		conn = nil
	}

	music, err := catalog.Load(cfg.MusicPath)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.MusicPath).Msg("failed to load song catalog")
	}
	if len(music) == 0 {
		log.Warn().Str("path", cfg.MusicPath).Msg("song catalog is empty")
	}

	addr := ":3000"
	if env := os.Getenv("PORT"); env != "" {
		addr = ":" + env
	}

	srv := server.New(conn, cfg, music)
	handler := cors.Default().Handler(srv.Handler())
	log.Info().Str("addr", addr).Int("songs", len(music)).Msg("auxparty server listening")
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
