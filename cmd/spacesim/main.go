// Command spacesim is the external driver SPEC_FULL.md assigns to
// "an external loader / driver / activator": it owns a window and GL
// context, seeds an icosahedron planet, and drives a small fixed task
// graph through the tag scheduler once per frame. It never reaches into
// the core packages' invariants, only their public operations, mirroring
// cmd/client's ParseFlags → Load → logger.Init → New → Run shape.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/stellarforge/spacesim/internal/config"
	"github.com/stellarforge/spacesim/internal/demo"
	"github.com/stellarforge/spacesim/internal/logger"
)

func main() {
	config.ParseFlags()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== spacesim ===")

	d, err := demo.New(*cfg, logger.Component("demo"))
	if err != nil {
		logger.Log.Error("failed to initialize demo", zap.Error(err))
		os.Exit(1)
	}
	defer d.Close()

	if err := d.Run(); err != nil {
		logger.Log.Error("demo exited with error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("spacesim closed normally")
}
