// Package app wires up and runs the application services.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/skobkin/corebuddy/internal/command"
	"github.com/skobkin/corebuddy/internal/config"
	"github.com/skobkin/corebuddy/internal/gpu"
	"github.com/skobkin/corebuddy/internal/httpserver"
	"github.com/skobkin/corebuddy/internal/probe"
	"github.com/skobkin/corebuddy/internal/sampler"
)

const shutdownTimeout = 10 * time.Second

// NewSampler builds the command runner, probes and GPU resolver described by
// cfg and returns a sampler manager over them. The manager is not started.
func NewSampler(cfg config.Config, baseLogger *slog.Logger) (*sampler.Manager, error) {
	runner, err := command.NewExecRunner(cfg.Commands.Timeout, cfg.Commands.Grace, baseLogger)
	if err != nil {
		return nil, fmt.Errorf("init command runner: %w", err)
	}

	strategies, err := gpu.NewStrategies(cfg.GPUStrategies, runner, gpu.StrategyConfig{
		NvidiaSMICommand: cfg.Commands.NvidiaSMI,
		GLXInfoCommand:   cfg.Commands.GLXInfo,
		SysfsRoot:        cfg.SysfsRoot,
		Logger:           baseLogger.With("component", "gpu_drm"),
	})
	if err != nil {
		return nil, fmt.Errorf("init gpu strategies: %w", err)
	}

	resolver, err := gpu.NewResolver(strategies, cfg.Commands.Timeout, baseLogger)
	if err != nil {
		return nil, fmt.Errorf("init gpu resolver: %w", err)
	}

	cpuProbe, err := probe.NewCPUProbe(cfg.CPUWindow, nil)
	if err != nil {
		return nil, fmt.Errorf("init cpu probe: %w", err)
	}

	probes := sampler.Probes{
		CPU:        cpuProbe,
		Memory:     probe.NewMemoryProbe(nil),
		ThermalFan: probe.NewThermalFanProbe(runner, cfg.Commands.Sensors),
		GPU:        probe.NewGPUProbe(resolver),
	}

	manager, err := sampler.NewManager(cfg.SampleInterval, cfg.HistoryCapacity, probes, baseLogger.With("component", "sampler"))
	if err != nil {
		return nil, fmt.Errorf("init sampler manager: %w", err)
	}

	baseLogger.With("component", "app").Info("sampler configured",
		"interval", cfg.SampleInterval,
		"cpu_window", cfg.CPUWindow,
		"history_capacity", cfg.HistoryCapacity,
		"gpu_strategies", resolver.Strategies(),
	)
	return manager, nil
}

// Run bootstraps the application lifecycle.
func Run(ctx context.Context, baseLogger *slog.Logger, cfg config.Config) error {
	appLogger := baseLogger.With("component", "app")
	if cfg.ConfigFile != "" {
		appLogger.Info("configuration file loaded", "path", cfg.ConfigFile)
	}

	samplerManager, err := NewSampler(cfg, baseLogger)
	if err != nil {
		return err
	}
	defer func() {
		if err := samplerManager.Close(); err != nil {
			appLogger.Warn("sampler manager close", "err", err)
		}
	}()

	samplerCtx, samplerCancel := context.WithCancel(ctx)
	defer samplerCancel()

	samplerErrCh := make(chan error, 1)
	go func() {
		samplerErrCh <- samplerManager.Run(samplerCtx)
	}()

	srv := httpserver.New(cfg, baseLogger.With("component", "http"), samplerManager)

	appLogger.Info("starting HTTP server", "listen_addr", cfg.ListenAddr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	for {
		select {
		case err := <-errCh:
			samplerCancel()
			if err != nil {
				return err
			}
			if samplerErrCh != nil {
				if samplerErr := <-samplerErrCh; samplerErr != nil && !errors.Is(samplerErr, context.Canceled) {
					return samplerErr
				}
			}
			return nil
		case err := <-samplerErrCh:
			samplerErrCh = nil
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
		case <-ctx.Done():
			appLogger.Info("shutdown initiated", "reason", ctx.Err())

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("http shutdown: %w", err)
			}

			if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}

			samplerCancel()
			if samplerErrCh != nil {
				if samplerErr := <-samplerErrCh; samplerErr != nil && !errors.Is(samplerErr, context.Canceled) {
					return samplerErr
				}
			}

			appLogger.Info("shutdown complete")
			return nil
		}
	}
}
