package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"dietflow/internal/api"
	"dietflow/internal/config"
	"dietflow/internal/db"
	"dietflow/internal/narrative"
	redisdb "dietflow/internal/redis"
	"dietflow/internal/tracking"

	"github.com/joho/godotenv"
)

func main() {
	// Secrets like DATABASE_URL may live in a .env file instead of config.json
	if err := godotenv.Load(); err != nil {
		log.Printf("[Main] no .env file loaded: %v", err)
	}
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := db.Init(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "DB init error: %v\n", err)
		os.Exit(1)
	}
	rdb := redisdb.NewClient(cfg)

	tracker := tracking.NewTracker(db.DB, cfg)
	sessions := narrative.NewSessionStore(rdb,
		time.Duration(cfg.Narrative.SessionTTLMin)*time.Minute,
		cfg.Narrative.MaxSessionMsgs)
	gen := narrative.NewGenerator(cfg.Narrative).WithSessions(sessions)
	if cfg.Narrative.ModelURL == "" {
		log.Printf("[Main] no narrative model configured, using templated text")
	}

	r := api.SetupRouter(cfg, rdb, tracker, gen)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("Starting server on %s%s\n", addr, cfg.Server.Subpath)
	if err := r.Run(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
