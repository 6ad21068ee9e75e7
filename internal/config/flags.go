package config

// This file implements CLI flag parsing and help text.
// Flags are grouped into mode, worker pool, encoder, and display/utility.
// Negated flags (e.g. --no-color) are applied after Parse so Config defaults
// hold unless set.

import (
	"flag"
	"fmt"
	"os"
)

// version is shown in --version and help; override at build time with
// -ldflags "-X .../config.version=...".
var version = "1.0.0-dev"

// ParseFlags parses os.Args into cfg. On --help or --version it prints and
// exits. On error it returns non-nil (e.g. unknown flag, missing input dir).
func ParseFlags(cfg *Config) error {
	fs := flag.NewFlagSet("smart-encoder", flag.ContinueOnError)
	fs.Usage = func() { printUsage(fs) }

	var negated negatedFlags

	defineModeFlags(fs, cfg)
	defineWorkerFlags(fs, cfg)
	defineBehaviorFlags(fs, cfg)
	defineDisplayFlags(fs, cfg, &negated)
	defineUtilityFlags(fs, &negated)

	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}

	applyNegatedFlags(cfg, &negated)

	if negated.showHelp {
		printUsage(fs)
		os.Exit(0)
	}
	if negated.showVersion {
		fmt.Fprintln(os.Stdout, "smart-encoder v"+version)
		os.Exit(0)
	}

	return parsePositionalArgs(fs, cfg)
}

// negatedFlags holds boolean flags applied after Parse, either inverting a
// default or triggering an exit (showHelp, showVersion).
type negatedFlags struct {
	forceColor  bool
	noColor     bool
	showVersion bool
	showHelp    bool
}

// defineModeFlags registers --audio-only, --iphone-specific-task,
// --manual-mode, --av1-only.
func defineModeFlags(fs *flag.FlagSet, cfg *Config) {
	fs.BoolVar(&cfg.AudioOnly, "audio-only", false, "Process only audio, discard video streams")
	fs.BoolVar(&cfg.IPhoneSpecificTask, "iphone-specific-task", false, "Fixed low-bitrate phone preset, no CRF search")
	fs.BoolVar(&cfg.ManualMode, "manual-mode", false, "Skip CRF search, use the configured manual CRF")
	fs.BoolVar(&cfg.AV1Only, "av1-only", false, "Restrict the encoder priority list to its first entry")
}

// defineWorkerFlags registers --processes, --random.
func defineWorkerFlags(fs *flag.FlagSet, cfg *Config) {
	fs.IntVar(&cfg.Processes, "processes", cfg.Processes, "Number of parallel workers")
	fs.BoolVar(&cfg.Random, "random", false, "Encode files in random order")
}

// defineBehaviorFlags registers --move-raw-file, --not-rename,
// --allow-no-audio, --keep-mtime, --target-dir, --dry-run.
func defineBehaviorFlags(fs *flag.FlagSet, cfg *Config) {
	fs.BoolVar(&cfg.MoveRawFile, "move-raw-file", false, "Archive originals into the raw-archive tree after success")
	fs.BoolVar(&cfg.NotRename, "not-rename", false, "Do not rename files after encoding")
	fs.BoolVar(&cfg.AllowNoAudio, "allow-no-audio", false, "Allow a plan with zero surviving audio streams")
	fs.BoolVar(&cfg.KeepMTime, "keep-mtime", false, "Preserve the input's modification time on the output")
	fs.StringVar(&cfg.OutputDir, "target-dir", "", "Completion root the _raw archive moves to once the input tree is fully processed (encoded outputs stay under the input tree)")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Plan every file but skip the transcoder (probe and CRF search still run)")
}

// defineDisplayFlags registers --color, --no-color, --verbose, --check,
// --log, --log-level.
func defineDisplayFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&n.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&n.noColor, "no-color", false, "Disable colored logs")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Verbose output")
	fs.BoolVar(&cfg.Verbose, "v", false, "Same as --verbose")
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Run tool diagnostics and exit")
	fs.StringVar(&cfg.LogFile, "log", "", "Append logs to file")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: trace|debug|info|warn|error")
}

// defineUtilityFlags registers --version and --help (exit after printing).
func defineUtilityFlags(fs *flag.FlagSet, n *negatedFlags) {
	fs.BoolVar(&n.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&n.showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&n.showHelp, "h", false, "Same as --help")
}

// applyNegatedFlags resolves color-flag precedence into cfg.ColorMode.
func applyNegatedFlags(cfg *Config, n *negatedFlags) {
	if n.noColor {
		cfg.ColorMode = ColorNever
	} else if n.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// parsePositionalArgs sets InputDir from the single positional argument
// (the run root) when not in CheckOnly mode.
func parsePositionalArgs(fs *flag.FlagSet, cfg *Config) error {
	args := fs.Args()
	if cfg.CheckOnly {
		return nil
	}
	if len(args) != 1 {
		return fmt.Errorf("need exactly one positional argument: input_dir")
	}
	cfg.InputDir = NormalizeDirArg(args[0])
	if cfg.OutputDir != "" {
		cfg.OutputDir = NormalizeDirArg(cfg.OutputDir)
	}
	return nil
}

// printUsage writes help text to stderr, column-aligned for readability.
func printUsage(fs *flag.FlagSet) {
	const col1 = 30
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "smart-encoder v" + version + " — batch media re-encoding pipeline"},
		{"", ""},
		{"  smart-encoder [OPTIONS] <input_dir>", ""},
		{"", ""},
		{"Mode", ""},
		{"  --audio-only", "Process only audio, discard video streams"},
		{"  --iphone-specific-task", "Fixed low-bitrate phone preset"},
		{"  --manual-mode", "Skip CRF search, use manual CRF"},
		{"  --av1-only", "Restrict encoder priority to one entry"},
		{"", ""},
		{"Worker pool", ""},
		{"  --processes N", "Number of parallel workers (default: 4)"},
		{"  --random", "Encode files in random order"},
		{"", ""},
		{"Behavior", ""},
		{"  --move-raw-file", "Archive originals after success"},
		{"  --not-rename", "Do not rename files after encoding"},
		{"  --allow-no-audio", "Allow plans with zero surviving audio"},
		{"  --keep-mtime", "Preserve modification time on output"},
		{"  --target-dir PATH", "Where _raw moves when the run completes"},
		{"  --dry-run", "Plan only; skip the transcoder"},
		{"", ""},
		{"Display", ""},
		{"  --log-level LEVEL", "trace|debug|info|warn|error (default: info)"},
		{"  --log PATH", "Append logs to file"},
		{"  --color / --no-color", "Force or disable colored logs"},
		{"  -v, --verbose", "Verbose output"},
		{"", ""},
		{"Utility", ""},
		{"  --check", "Run tool diagnostics and exit"},
		{"  --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
	}

	for _, l := range lines {
		switch {
		case l.flags == "" && l.desc == "":
			fmt.Fprintln(os.Stderr)
		case l.desc == "":
			fmt.Fprintln(os.Stderr, l.flags)
		case l.flags == "":
			fmt.Fprintln(os.Stderr, l.desc)
		default:
			padding := col1 - len(l.flags)
			if padding < 1 {
				padding = 1
			}
			fmt.Fprintf(os.Stderr, "%s%*s%s\n", l.flags, padding, "", l.desc)
		}
	}
}
