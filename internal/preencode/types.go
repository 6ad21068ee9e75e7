// Package preencode is the decision core: it consumes a MediaInfo, applies
// skip rules, runs CRF search (video mode) or picks a fixed bit-rate (audio
// modes), selects which streams survive, and produces an EncodePlan.
package preencode

import (
	"time"

	"github.com/kerasty/smart-encoder/internal/config"
	"github.com/kerasty/smart-encoder/internal/mediainfo"
)

// Directive is a per-stream copy-or-reencode decision.
type Directive int

const (
	Copy Directive = iota
	Reencode
)

func (d Directive) String() string {
	if d == Copy {
		return "copy"
	}
	return "reencode"
}

// StreamPlan is one kept stream and what to do with it.
type StreamPlan struct {
	Index       int
	Directive   Directive
	Codec       string // reencode target codec; empty when Directive == Copy.
	BitRateBps  int64  // reencode target bitrate; 0 when not applicable.
	FPS         string // video only: capped output frame-rate, e.g. "24".
	ScaleFilter string // video only: -vf filter, e.g. "scale=-1:414".
}

// CommentPayload is the structured key/value record embedded into the
// output container's comment field (spec.md §6).
type CommentPayload struct {
	Comment          string
	Encoders         []string
	CRF              int
	SourceFile       string
	SourceFileSize   string
	SourceFileMD5    string
	SourceFileSHA256 string
	EstimatedRatio   float64
}

// EncodePlan is the product of PreEncoder (spec.md §3).
type EncodePlan struct {
	Input *mediainfo.MediaInfo
	Mode  config.Mode

	VideoEncoder         string // empty iff no video.
	VideoCRF             int
	EstimatedSizeRatio   float64 // (0,1], 1.0 if unknown.
	CRFSearchElapsed     time.Duration

	KeptVideoStreams    []StreamPlan
	KeptAudioStreams    []StreamPlan
	KeptSubtitleStreams []StreamPlan

	OutputContainer string // initial guess; Encoder may switch on failure.
	CommentPayload  CommentPayload
}

// Outcome discriminates a PreEncoder result: exactly one of Skip or Plan is
// populated, matching spec.md §9 "Soft skips ... are a distinct variant of
// PreEncoder's result", not an error.
type Outcome int

const (
	OutcomePlanned Outcome = iota
	OutcomeSkipped
)

// SkipInfo describes why a file was skipped (spec.md §4.3 skip rules 1-4).
type SkipInfo struct {
	Reason  string // human-readable line written to skipped.txt
	Sentinel string // matched sentinel/marker value, for diagnostics
}

// Result is the outcome of running PreEncoder over one MediaInfo.
type Result struct {
	Outcome Outcome
	Skip    SkipInfo
	Plan    *EncodePlan
}
