package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"contactbook/pkg/config"
	"contactbook/postgres"

	_ "github.com/lib/pq"
	migrate "github.com/rubenv/sql-migrate"
)

func main() {
	var (
		dir  string
		down bool
	)
	flag.StringVar(&dir, "dir", "migrations", "Directory holding the migration files")
	flag.BoolVar(&down, "down", false, "Roll back the most recent migration")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("cannot load config", "error", err)
		os.Exit(1)
	}

	total, err := run(cfg, dir, down)
	if err != nil {
		logger.Error("cannot execute migration", "error", err)
		os.Exit(1)
	}

	logger.Info("applied migrations", "total", total)
}

// run applies every pending migration in dir, or rolls back the latest one.
func run(cfg *config.Config, dir string, down bool) (int, error) {
	db, err := postgres.NewConnection(postgres.Options{
		DBName:   cfg.DB.Name,
		DBUser:   cfg.DB.User,
		Password: cfg.DB.Pass,
		Host:     cfg.DB.Host,
		Port:     strconv.Itoa(cfg.DB.Port),
		SSLMode:  cfg.DB.EnableSSL,
	})
	if err != nil {
		return 0, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return 0, fmt.Errorf("get db instance: %w", err)
	}
	defer sqlDB.Close()

	direction, limit := migrate.Up, 0
	if down {
		direction, limit = migrate.Down, 1
	}

	return migrate.ExecMax(sqlDB, "postgres", &migrate.FileMigrationSource{Dir: dir}, direction, limit)
}
