package main

import (
	"flag"
	"log"
	"os"

	"github.com/Domenick1991/travelagent/config"
	"github.com/Domenick1991/travelagent/internal/logger"
	"github.com/Domenick1991/travelagent/internal/migration"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	flag.Parse()

	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	lg := logger.New(cfg.Logger)
	defer lg.Sync()

	m, err := migration.New(cfg.Database.URL(), cfg.Database.MigrationsPath, lg)
	if err != nil {
		lg.Fatal("init migrator", zap.Error(err))
	}
	defer m.Close()

	switch *direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	default:
		lg.Fatal("unknown direction", zap.String("direction", *direction))
	}
	if err != nil {
		lg.Fatal("migrate", zap.Error(err))
	}
}
