// corebuddy-probe runs a few sampling cycles in the foreground and prints
// each snapshot. It reads the same APP_* environment as the server; flags
// override individual values.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/skobkin/corebuddy/internal/app"
	"github.com/skobkin/corebuddy/internal/config"
	"github.com/skobkin/corebuddy/internal/display"
	"github.com/skobkin/corebuddy/internal/gpu"
	"github.com/skobkin/corebuddy/internal/sampler"
)

type options struct {
	cycles    int
	format    string
	listCards bool
	verbose   bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	opts, err := parseFlags(args, &cfg)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if opts.listCards {
		return listCards(out, cfg.SysfsRoot, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	manager, err := app.NewSampler(cfg, logger)
	if err != nil {
		return err
	}

	snapshots, unsubscribe := manager.Subscribe()
	defer unsubscribe()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- manager.Run(runCtx) }()

	printErr := printSnapshots(out, opts.format, opts.cycles, snapshots)
	cancel()
	if runErr := <-done; runErr != nil && printErr == nil {
		return runErr
	}
	return printErr
}

// printSnapshots prints until limit snapshots have been written or the stream
// closes. A limit of zero prints until the stream closes.
func printSnapshots(out io.Writer, format string, limit int, snapshots <-chan sampler.Snapshot) error {
	printed := 0
	for snapshot := range snapshots {
		if err := printSnapshot(out, format, snapshot); err != nil {
			return err
		}
		printed++
		if limit > 0 && printed >= limit {
			return nil
		}
	}
	return nil
}

func parseFlags(args []string, cfg *config.Config) (options, error) {
	opts := options{cycles: 3, format: "text"}

	flagSet := pflag.NewFlagSet("corebuddy-probe", pflag.ContinueOnError)
	flagSet.IntVarP(&opts.cycles, "cycles", "n", opts.cycles, "number of snapshots to print; 0 runs until interrupted")
	flagSet.StringVarP(&opts.format, "format", "f", opts.format, "output format: text or json")
	flagSet.BoolVar(&opts.listCards, "list-cards", false, "list DRM cards found under sysfs and exit")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "log sampler diagnostics to stderr")
	flagSet.DurationVar(&cfg.SampleInterval, "interval", cfg.SampleInterval, "time between sampling cycles")
	flagSet.DurationVar(&cfg.CPUWindow, "window", cfg.CPUWindow, "CPU measurement window")
	flagSet.DurationVar(&cfg.Commands.Timeout, "command-timeout", cfg.Commands.Timeout, "deadline for each diagnostic command")
	flagSet.StringSliceVar(&cfg.GPUStrategies, "gpu-strategies", cfg.GPUStrategies, "GPU query strategies in attempt order")
	flagSet.StringVar(&cfg.SysfsRoot, "sysfs", cfg.SysfsRoot, "path to sysfs root")
	flagSet.IntVar(&cfg.HistoryCapacity, "history", cfg.HistoryCapacity, "per-core history capacity")

	if err := flagSet.Parse(args); err != nil {
		return options{}, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %s", strings.Join(rest, " "))
	}

	opts.format = strings.ToLower(opts.format)
	if opts.format != "text" && opts.format != "json" {
		return options{}, fmt.Errorf("unsupported format %q", opts.format)
	}
	if opts.cycles < 0 {
		return options{}, fmt.Errorf("cycles must be >= 0")
	}
	if err := cfg.Validate(); err != nil {
		return options{}, err
	}
	return opts, nil
}

func printSnapshot(out io.Writer, format string, snapshot sampler.Snapshot) error {
	if format == "json" {
		return json.NewEncoder(out).Encode(snapshot)
	}
	for _, line := range display.Summary(snapshot) {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(out)
	return err
}

func listCards(out io.Writer, sysfsRoot string, logger *slog.Logger) error {
	cards, err := gpu.DiscoverCards(sysfsRoot, logger.With("component", "gpu_drm"))
	if err != nil {
		return fmt.Errorf("discover cards: %w", err)
	}
	if len(cards) == 0 {
		fmt.Fprintln(out, "No DRM cards detected")
		return nil
	}
	for _, card := range cards {
		fmt.Fprintln(out, card.Description())
	}
	return nil
}
