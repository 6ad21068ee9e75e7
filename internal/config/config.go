// Package config holds runtime configuration: defaults, CLI flag parsing, and
// validation for the encode pipeline.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Mode selects which encode pipeline PreEncoder builds a plan for.
type Mode string

const (
	ModeVideo       Mode = "video"        // Full CRF-search video pipeline.
	ModeAudioOnly   Mode = "audio_only"   // Strip video, transcode audio only.
	ModePhonePreset Mode = "phone_preset" // Fixed low-bitrate mobile preset, no CRF search.
)

// Config holds all runtime settings. It is populated by [DefaultConfig] and
// then mutated by [ParseFlags] before being passed (by pointer) to packages
// that need it. Nothing here is process-wide mutable state; every component
// receives its own *Config.
type Config struct {
	// Paths (set from positional args / --target-dir).
	InputDir  string
	OutputDir string

	// Run mode.
	AudioOnly          bool // --audio-only
	IPhoneSpecificTask bool // --iphone-specific-task
	ManualMode         bool // --manual-mode: skip CRF search, use ManualCRF.
	AllowManualFallback bool // when CRF search fails for every candidate, fall through to manual settings instead of failing outright. Default true.

	// Worker pool.
	Processes int  // --processes, default 4.
	Random    bool // --random: shuffle discovery order.

	// Behavior flags.
	MoveRawFile  bool // --move-raw-file
	NotRename    bool // --not-rename
	AllowNoAudio bool // --allow-no-audio
	KeepMTime    bool // --keep-mtime
	DryRun       bool

	// Encoder selection.
	VideoEncoderPriority []string // Tried in order during CRF search.
	AV1Only              bool     // --av1-only: restrict VideoEncoderPriority to one entry.

	// audio_only mode.
	AudioOnlyCodec       string
	AudioOnlyBitrateBps  int
	AudioOnlyExtension   string
	AudioOnlySegmentSize int // unused placeholder retained for symmetry with video segment sampling

	// phone_preset mode.
	PhoneVideoCodec      string
	PhoneAudioCodec      string
	PhoneVideoBitrateBps int
	PhoneAudioBitrateBps int
	PhoneMaxFPS          int
	PhoneScaleFilter     string

	// Skip rules (spec §4.3).
	EncodedSentinel          string
	OversizeMarkers          []string
	BitrateFloorBps          int
	ExcludedContainerFormats []string
	MinimumFileSizeBytes     int64

	// CRF search.
	SampleEvery       string
	TargetVMAF        int
	MaxEncodedPercent int

	// Manual / oversize escalation.
	ManualCRF                 int
	ManualCRFIncrementPercent int
	ManualEncodeRate          float64
	OversizeRatio             float64
	MaxOversizeRetries        int

	// Stream selection.
	SkipVideoCodecs          []string
	AudioPreferredCodecs     []string
	AudioPerChannelBudgetBps int
	AudioSampleRateFloorHz   int
	MKVOnlySubtitleCodecs    []string
	AudioFallbackBitrateBps  int // used when neither bit_rate nor BPS-eng is present

	// Language detection.
	LanguageAllowList  []string
	LanguageFallback   string
	LanguageSamples    int
	LanguageSampleSecs int

	// Discovery.
	VideoExtensions []string
	AudioExtensions []string

	// Display and logging.
	Verbose   bool
	ColorMode ColorMode
	LogFile   string
	LogLevel  string // --log-level
	CheckOnly bool   // Run diagnostics and exit.
}

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// DefaultConfig returns a Config with every tunable spec.md leaves as
// "configured" set to the value recovered from the original implementation
// (see SPEC_FULL.md §12), or a documented invented default otherwise.
func DefaultConfig() Config {
	return Config{
		Processes:           4,
		AllowManualFallback: true,

		VideoEncoderPriority: []string{"libsvtav1"},

		AudioOnlyCodec:      "libopus",
		AudioOnlyBitrateBps: 50_000,
		AudioOnlyExtension:  ".opus",

		PhoneVideoCodec:      "libsvtav1",
		PhoneAudioCodec:      "libopus",
		PhoneVideoBitrateBps: 30_000,
		PhoneAudioBitrateBps: 50_000,
		PhoneMaxFPS:          20,
		PhoneScaleFilter:     "scale=-1:414",

		EncodedSentinel:          "encoded_by_smart_encoder",
		OversizeMarkers:          []string{"_over_sized_pre_encode", "_over_sized_encoded", "encoded"},
		BitrateFloorBps:          100_000,
		ExcludedContainerFormats: []string{"av1"},
		MinimumFileSizeBytes:     100_000,

		SampleEvery:       "7m",
		TargetVMAF:        95,
		MaxEncodedPercent: 97,

		ManualCRF:                 23,
		ManualCRFIncrementPercent: 15,
		ManualEncodeRate:          0.9,
		OversizeRatio:             1.0,
		MaxOversizeRetries:        4,

		SkipVideoCodecs:          []string{"mjpeg"},
		AudioPreferredCodecs:     []string{"opus", "aac"},
		AudioPerChannelBudgetBps: 128_000,
		AudioSampleRateFloorHz:   8_000,
		MKVOnlySubtitleCodecs:    []string{"pgs", "ass", "vobsub", "dvd_subtitle", "subrip"},
		AudioFallbackBitrateBps:  500_000,

		LanguageAllowList: []string{
			"ja", "jp", "en", "zh", "zh-cn", "zh-tw", "chinese", "jpn",
			"eng", "zho", "chi", "und", "japanese", "jap",
		},
		LanguageFallback:   "ja",
		LanguageSamples:    3,
		LanguageSampleSecs: 20,

		VideoExtensions: []string{
			".wmv", ".ts", ".mp4", ".mov", ".mpg", ".mkv", ".avi", ".iso",
			".m2ts", ".rmvb", ".3gp", ".flv", ".vob", ".webm", ".m4v", ".asf", ".mts",
		},
		AudioExtensions: []string{".flac", ".wav", ".mp3", ".opus", ".m4a", ".m4b"},

		ColorMode: ColorAuto,
		LogLevel:  "info",
	}
}

// Mode reports the EncodePlan mode this configuration is running under.
func (c *Config) Mode() Mode {
	switch {
	case c.AudioOnly:
		return ModeAudioOnly
	case c.IPhoneSpecificTask:
		return ModePhonePreset
	default:
		return ModeVideo
	}
}

// Validate checks structural invariants that don't require touching the
// filesystem.
func (c *Config) Validate() error {
	if c.Processes < 1 {
		return errors.New("--processes must be >= 1")
	}
	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return errors.New("invalid color mode (use 'auto', 'always', or 'never')")
	}
	if c.AV1Only && len(c.VideoEncoderPriority) > 0 {
		c.VideoEncoderPriority = c.VideoEncoderPriority[:1]
	}
	if c.AudioOnly && c.IPhoneSpecificTask {
		return errors.New("--audio-only and --iphone-specific-task are mutually exclusive")
	}
	if c.CheckOnly {
		return nil
	}
	if c.InputDir == "" {
		return errors.New("need an input directory")
	}
	return nil
}

// NormalizeDirArg strips trailing slashes from a directory path. The
// filesystem root "/" is returned unchanged so we don't produce an empty
// string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// ValidatePaths ensures the resolved output directory is not inside (or
// equal to) the resolved input directory, so the pipeline never discovers
// its own output as new input. Both arguments must be absolute,
// symlink-resolved paths.
func (c *Config) ValidatePaths(inputAbs, outputAbs string) error {
	if outputAbs == "" {
		return nil
	}
	sep := string(filepath.Separator)
	if outputAbs == inputAbs || strings.HasPrefix(outputAbs+sep, inputAbs+sep) {
		return errors.New("output directory must not be inside input directory")
	}
	return nil
}

// EncodedRootDirName is the top-level output directory name for a video run,
// e.g. "libsvtav1_encoded" for VideoEncoderPriority == ["libsvtav1"].
func (c *Config) EncodedRootDirName() string {
	return fmt.Sprintf("%s_encoded", strings.Join(c.VideoEncoderPriority, "_"))
}
