package main

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/agenthands/blockvoice/internal/config"
	"github.com/agenthands/blockvoice/internal/core"
	"github.com/agenthands/blockvoice/internal/driver"
	"github.com/agenthands/blockvoice/internal/llm"
	"github.com/agenthands/blockvoice/internal/profile"
	"github.com/agenthands/blockvoice/internal/runner"
	"github.com/agenthands/blockvoice/internal/server"
)

// app holds the collaborators built from configuration.
type app struct {
	deps      core.Deps
	profiles  profile.Store
	snapshots server.SnapshotStore
	closers   []func() error
}

func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{}

	client, transcriber, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}
	if c, ok := client.(io.Closer); ok {
		a.closers = append(a.closers, c.Close)
	}
	a.deps.Transcriber = transcriber
	if client != nil && cfg.Voice.LLMFallback {
		a.deps.Interpreter = llm.NewInterpreter(client)
	}
	if client != nil && cfg.Voice.LLMDescriptions {
		a.deps.Narrator = client
	}
	if cfg.LLM.Provider != "" {
		logger.Info("llm configured",
			zap.String("provider", cfg.LLM.Provider),
			zap.Bool("transcription", transcriber != nil),
			zap.Bool("fallback", a.deps.Interpreter != nil),
			zap.Bool("descriptions", a.deps.Narrator != nil))
	}

	if cfg.Runner.URL != "" {
		a.deps.Runner = runner.New(cfg.Runner.URL, cfg.Runner.Timeout.Duration, logger)
	}

	if cfg.Redis.URL != "" {
		store, err := profile.NewRedisStore(ctx, cfg.Redis.URL, cfg.Redis.TTL.Duration)
		if err != nil {
			a.close(logger)
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		a.profiles = store
	} else {
		a.profiles = profile.NewMemoryStore()
	}
	a.deps.Progress = a.profiles

	if cfg.Memgraph.URI != "" {
		d, err := driver.NewMemgraphDriver(ctx, cfg.Memgraph.URI, cfg.Memgraph.User, cfg.Memgraph.Password, logger)
		if err != nil {
			a.close(logger)
			return nil, fmt.Errorf("failed to connect to Memgraph: %w", err)
		}
		a.closers = append(a.closers, func() error { return d.Close(context.Background()) })
		if err := d.BuildIndices(ctx); err != nil {
			logger.Warn("failed to build indices", zap.Error(err))
		}
		a.snapshots = driver.NewSnapshotStore(d, logger)
	}
	return a, nil
}

func (a *app) close(logger *zap.Logger) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
}
