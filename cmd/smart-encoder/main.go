// Command smart-encoder is the CLI entrypoint for the batch media
// re-encoding pipeline. It parses flags, validates configuration and paths,
// and either runs system diagnostics (--check) or the discover/plan/encode
// worker pool.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/kerasty/smart-encoder/internal/adapters"
	"github.com/kerasty/smart-encoder/internal/check"
	"github.com/kerasty/smart-encoder/internal/config"
	"github.com/kerasty/smart-encoder/internal/display"
	"github.com/kerasty/smart-encoder/internal/logging"
	"github.com/kerasty/smart-encoder/internal/term"
	"github.com/kerasty/smart-encoder/internal/workerpool"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Phase 1: Bootstrap — the logger doesn't exist yet, so errors go
	// directly to stderr.
	cfg := config.DefaultConfig()
	if err := config.ParseFlags(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "smart-encoder: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "smart-encoder: %v\n", err)
		return 1
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "smart-encoder: %v\n", err)
		return 1
	}
	defer log.Close()

	// Phase 2: Logger available — all output goes through log from here on.
	term.Configure(cfg.ColorMode)
	display.PrintBanner()

	if cfg.CheckOnly {
		check.RunCheck(&cfg, log)
		return 0
	}

	// Resolve and validate paths: input must exist, output (if any) must
	// not be inside input, so a re-run never rediscovers its own output.
	inputAbs, err := absPath(cfg.InputDir)
	if err != nil {
		log.Error("input not found", "path", cfg.InputDir)
		return 1
	}
	outputAbs := ""
	if cfg.OutputDir != "" {
		if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			log.Error("cannot create output directory", "path", cfg.OutputDir, "err", err)
			return 1
		}
		outputAbs, err = absPath(cfg.OutputDir)
		if err != nil {
			log.Error("cannot resolve output path", "path", cfg.OutputDir, "err", err)
			return 1
		}
	}
	if err := cfg.ValidatePaths(inputAbs, outputAbs); err != nil {
		log.Error(err.Error(), "input", cfg.InputDir, "output", cfg.OutputDir)
		return 1
	}

	log.Info("run starting", "input", cfg.InputDir, "output", cfg.OutputDir, "mode", string(cfg.Mode()), "processes", cfg.Processes)
	if cfg.DryRun {
		log.Warn("dry run: transcoder invocations are skipped")
	}

	// Fail fast if ffmpeg/ffprobe or the tools this run actually needs are
	// unavailable.
	if err := check.CheckDeps(&cfg); err != nil {
		log.Error(err.Error())
		return 1
	}

	// Phase 3: Signal handling — cancel the context on SIGINT/SIGTERM so
	// the worker pool drains in-flight files instead of aborting mid-write.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("received interrupt, finishing in-flight files")
		cancel()
	}()

	// Phase 4: Wire the external-process adapters and run the pool.
	pool := &workerpool.Pool{
		Config:      &cfg,
		RunRoot:     cfg.InputDir,
		Log:         log,
		Transcoder:  &adapters.ExecTranscoder{Verbose: cfg.Verbose, Log: log},
		CRFSearcher: adapters.ExecCRFSearcher{},
		Classifier:  &adapters.ExecClassifier{},
	}
	summary := pool.Run(ctx)

	log.Info("run complete",
		"total", summary.Total,
		"encoded", summary.Encoded,
		"planned", summary.Planned,
		"skipped", summary.Skipped,
		"oversize", summary.Oversize,
		"failed", summary.Failed,
		"space_saved", display.FormatBytesWithSign(summary.SpaceSaved()),
	)

	// Per-file failures are quarantined, not orchestrator failures: exit 0
	// even when summary.Failed > 0. Non-zero is reserved for the
	// orchestrator-level failures handled earlier in run() (bad args,
	// unreadable root, missing tools).
	return 0
}

// absPath returns the absolute, symlink-resolved path for safe comparison
// of input vs output directory hierarchies.
func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
