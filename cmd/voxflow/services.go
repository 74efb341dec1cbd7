package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dusk-indust/voxflow/internal/assets"
	"github.com/dusk-indust/voxflow/internal/config"
	"github.com/dusk-indust/voxflow/internal/desktop"
	"github.com/dusk-indust/voxflow/internal/mcptools"
	"github.com/dusk-indust/voxflow/internal/orchestrator"
	"github.com/dusk-indust/voxflow/internal/provider"
)

// Seams replaced by tests.
var (
	newDesktop = desktop.NewSystem
	newLocator = provider.NewLocator
)

// services is the wired object graph behind transform, batch and status.
type services struct {
	logger   *zap.Logger
	store    *config.Store
	locator  *provider.Locator
	caps     *provider.CapabilityResolver
	tools    *mcptools.ToolServer
	executor *orchestrator.Executor
}

func (a *app) buildServices(opts ...orchestrator.ExecutorOption) (*services, error) {
	store, err := config.Open(a.settings.ConfigPath, a.logger)
	if err != nil {
		return nil, err
	}

	s := &services{logger: a.logger, store: store}
	s.locator = newLocator(a.logger)
	s.caps = provider.NewCapabilityResolver(assets.Models(), a.logger)
	s.tools = a.newToolServer()

	registry := provider.NewRegistry(s.locator, provider.WithLogger(a.logger))
	dispatcher := provider.NewDispatcher(registry, s.caps, s.tools, a.logger)
	opts = append([]orchestrator.ExecutorOption{orchestrator.WithLogger(a.logger)}, opts...)
	s.executor = orchestrator.NewExecutor(store, dispatcher, opts...)
	return s, nil
}

func (a *app) newToolServer() *mcptools.ToolServer {
	ts := a.settings.ToolServer
	return mcptools.NewToolServer(newDesktop(a.logger),
		mcptools.WithName(ts.Name),
		mcptools.WithHost(ts.Host),
		mcptools.WithInstructions(ts.Instructions),
		mcptools.WithLogger(a.logger),
	)
}

// watch starts hot reload when enabled in settings.
func (s *services) watch(ctx context.Context, enabled bool) {
	if !enabled {
		return
	}
	if err := s.store.Watch(ctx); err != nil {
		s.logger.Warn("configuration watch unavailable", zap.Error(err))
	}
}

func (s *services) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.tools.Shutdown(ctx); err != nil {
		s.logger.Warn("tool server shutdown", zap.Error(err))
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn("configuration watcher close", zap.Error(err))
	}
}
