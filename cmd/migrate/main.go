package main

import (
	"database/sql"
	"flag"
	"log"

	"rsi_bot/internal/modules/config"
	"rsi_bot/migrations"
	"rsi_bot/pkg/logger"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	command := flag.String("cmd", "up", "goose command: up, down, status, version")
	flag.Parse()

	if err := logger.Init("info"); err != nil {
		log.Fatal(err)
	}
	logger.SetServiceName("rsi_migrate")
	defer logger.Sync()

	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatal("[MIGRATE] config: %v", err)
	}
	if cfg.DB == "" {
		logger.Fatal("[MIGRATE] db_dsn is empty")
	}

	db, err := sql.Open("pgx", cfg.DB)
	if err != nil {
		logger.Fatal("[MIGRATE] open db: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := migrations.Run(db, *command); err != nil {
		logger.Fatal("[MIGRATE] %s: %v", *command, err)
	}
	logger.Info("[MIGRATE] %s done", *command)
}
