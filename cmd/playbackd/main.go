package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"playbackd/internal/app"
	"playbackd/pkg/config"
	"playbackd/pkg/logger"
	"playbackd/pkg/shutdown"
)

// build metadata - set via ldflags during build/release
var (
	version = "dev"
	commit  = "none"
)

func main() {
	_ = godotenv.Load(".env")
	addrVal, dbVal, scriptsVal, cfgVal, setFlags := config.ParseCommandFlags()

	cfgPath := config.ResolveConfigPath(cfgVal, setFlags["config"])
	cfg, err := config.LoadEffective(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// flags explicitly set win over env/config
	addr := cfg.Addr()
	if setFlags["addr"] {
		addr = addrVal
	}
	if setFlags["db"] {
		cfg.Storage.DBPath = dbVal
	}
	if setFlags["scripts"] {
		cfg.Scripts.Dir = scriptsVal
	}

	logger.InitWithLevel(cfg.Logging.Level)

	ver := version
	if commit != "none" {
		ver += " (" + commit + ")"
	}

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	if err := app.New(cfg, addr, ver).Run(ctx); err != nil {
		logger.Error("server_failed", "error", err)
		os.Exit(1)
	}
}
