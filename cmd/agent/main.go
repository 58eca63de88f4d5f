package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	audioimpl "github.com/foxseedlab/jimakun/external/audio"
	configloader "github.com/foxseedlab/jimakun/external/config"
	transcriberimpl "github.com/foxseedlab/jimakun/external/transcriber"
	wsimpl "github.com/foxseedlab/jimakun/external/ws"
	"github.com/foxseedlab/jimakun/internal/agent"
	"github.com/foxseedlab/jimakun/internal/config"
	"github.com/samber/do/v2"
)

func main() {
	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env, "role", cfg.Role, "strategy", cfg.Strategy)

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	slog.Info("startup: launching device agent")
	runAgent(injector)
}

func mustLoadConfig() *config.AgentConfig {
	cfg, err := configloader.LoadAgent()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.AgentConfig) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.AgentConfig) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	audioimpl.RegisterDI(injector)
	transcriberimpl.RegisterDI(injector)
	wsimpl.RegisterAgentDI(injector)
	agent.RegisterDI(injector)

	return injector
}

func runAgent(injector do.Injector) {
	a, err := do.Invoke[*agent.Agent](injector)
	if err != nil {
		slog.Error("failed to resolve agent", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		slog.Error("agent run failed", "error", err)
		os.Exit(1)
	}
	slog.Info("agent stopped")
}
