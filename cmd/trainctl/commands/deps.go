package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/PersonalHealthTrain/train-container-library/internal/engine/backend"
	"github.com/PersonalHealthTrain/train-container-library/internal/engine/config"
	"github.com/PersonalHealthTrain/train-container-library/internal/engine/formatter"
	"github.com/PersonalHealthTrain/train-container-library/internal/engine/orchestrator"
)

// newDockerBackend adapts the concrete constructor to the detection factory.
func newDockerBackend() (backend.ContainerBackend, error) {
	return backend.NewDockerBackend()
}

// newCLIBackend adapts the concrete constructor to the detection factory.
func newCLIBackend(cli []string) (backend.ContainerBackend, error) {
	return backend.NewCLIBackend(cli)
}

// loadConfig reads the user configuration with the real file system.
func loadConfig(ctx context.Context) (*config.Config, error) {
	return config.NewLoader(&config.RealFileSystem{}, os.Getenv).Load(ctx)
}

// newOrchestrator builds an orchestrator from configuration and flags.
// The --engine flag overrides the configured engine preference.
// The caller owns the returned orchestrator and must Close it.
func newOrchestrator(ctx context.Context) (*orchestrator.Orchestrator, *config.Config, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}

	engine := cfg.Engine
	if flagEngine != "" {
		engine = flagEngine
	}

	b, err := backend.Detect(engine, newDockerBackend, newCLIBackend)
	if err != nil {
		return nil, nil, fmt.Errorf("selecting container engine: %w", err)
	}

	if err := backend.CheckEngine(ctx, b); err != nil {
		_ = b.Close()
		return nil, nil, err
	}

	o := orchestrator.New(b, orchestrator.WithPollInterval(time.Duration(cfg.PollInterval)))
	return o, cfg, nil
}

// newFormatter builds the output formatter from the global flags.
func newFormatter() formatter.Formatter {
	return formatter.New(flagJSON, !flagNoColor, flagVerbose)
}
