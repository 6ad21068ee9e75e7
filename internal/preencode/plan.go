package preencode

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kerasty/smart-encoder/internal/adapters"
	"github.com/kerasty/smart-encoder/internal/config"
	"github.com/kerasty/smart-encoder/internal/display"
	"github.com/kerasty/smart-encoder/internal/encodestate"
	"github.com/kerasty/smart-encoder/internal/errs"
	"github.com/kerasty/smart-encoder/internal/mediainfo"
	"github.com/kerasty/smart-encoder/internal/outputpaths"
)

// PreEncoder is the decision core (spec.md §2, §4.3, §4.4). It carries the
// adapters and configuration every plan needs but no per-file mutable
// state of its own — everything about one file's progress lives in the
// EncodeState sidecar, not on this struct.
type PreEncoder struct {
	Config      *config.Config
	RunRoot     string
	CRFSearcher adapters.CRFSearcher
	LangDetect  LanguageDetector
}

// Run drives one file through the Fresh -> Probed -> Decided -> Planned ->
// Persisted state machine of spec.md §4.4. "Probed" is the caller's
// responsibility: info must already be the product of mediainfo.Probe.
func (p *PreEncoder) Run(ctx context.Context, info *mediainfo.MediaInfo) (Result, error) {
	mode := p.Config.Mode()

	// Fresh -> Decided: skip rules, then the hard no-streams error.
	if skip, reason := checkSkip(info, p.Config); skip {
		return Result{Outcome: OutcomeSkipped, Skip: reason}, nil
	}
	if err := checkNoStreams(info, mode); err != nil {
		return Result{}, err
	}

	switch mode {
	case config.ModeAudioOnly:
		return p.planAudioOnly(ctx, info)
	case config.ModePhonePreset:
		return p.planPhonePreset(ctx, info)
	default:
		return p.planVideo(ctx, info)
	}
}

// planVideo implements the full video pipeline: stream selection, resume
// check, CRF search, and comment-payload construction.
func (p *PreEncoder) planVideo(ctx context.Context, info *mediainfo.MediaInfo) (Result, error) {
	cfg := p.Config

	audioSel, err := selectAudioStreams(ctx, info.Path, info.DurationSeconds, info.AudioStreams, cfg, p.LangDetect)
	if err != nil {
		return Result{}, err
	}
	if err := requireAudio(audioSel.plans, cfg.AllowNoAudio, info.Path); err != nil {
		return Result{}, err
	}

	container := chooseInitialContainer(info.SubtitleStreams, audioSel.plans, cfg)
	subtitlePlans := selectSubtitleStreams(info.SubtitleStreams, container, cfg)

	videoPlans := selectVideoStreams(info.VideoStreams, cfg)
	if len(videoPlans) == 0 {
		return Result{}, errs.New(errs.KindNoStreamsFound, info.Path, nil)
	}

	// Decided -> Planned: resume from a matching sidecar if one exists.
	outputDir := outputpaths.EncodedDir(cfg, p.RunRoot, info.Path)
	statePath := encodestate.Path(outputDir)
	fingerprint := encodestate.Fingerprint(info.MD5, string(config.ModeVideo), container, cfg.VideoEncoderPriority)

	var encoder string
	var crf, encodedPercent int
	var crfSearchElapsed time.Duration

	state, resumed := encodestate.Resolve(statePath, fingerprint)
	switch {
	case resumed:
		encoder, crf, encodedPercent = state.Encoder, state.CRF, state.EncodedPercent
	case cfg.ManualMode:
		// --manual-mode short-circuits CRF search entirely, mirroring the
		// original's manual_mode early return in PreVideoEncoder.start().
		encoder, crf = manualEncoderAndCRF(cfg)
		encodedPercent = 100
	default:
		result, elapsed, err := searchCRF(ctx, p.CRFSearcher, info.Path, cfg)
		if err != nil {
			return Result{}, err
		}
		encoder, crf, encodedPercent = result.encoder, result.crf, result.encodedPercent
		crfSearchElapsed = elapsed
	}

	if !resumed {
		if err := encodestate.Save(statePath, &encodestate.State{
			PlanFingerprint: fingerprint,
			Encoder:         encoder,
			CRF:             crf,
			EncodedPercent:  encodedPercent,
			AttemptCount:    1,
		}); err != nil {
			return Result{}, errs.New(errs.KindIO, statePath, err)
		}
	}

	// estimated_size_ratio (spec.md §3): the CRF search's best encoded_percent
	// converted to a (0,1] fraction, matching the original's "pre encode
	// estimated ratio": float(int(best_ratio) / 100) (Encoder.py:531).
	estimatedRatio := float64(encodedPercent) / 100.0

	plan := &EncodePlan{
		Input:               info,
		Mode:                config.ModeVideo,
		VideoEncoder:        encoder,
		VideoCRF:            crf,
		EstimatedSizeRatio:  estimatedRatio,
		CRFSearchElapsed:    crfSearchElapsed,
		KeptVideoStreams:    videoPlans,
		KeptAudioStreams:    audioSel.plans,
		KeptSubtitleStreams: subtitlePlans,
		OutputContainer:     container,
		CommentPayload:      buildCommentPayload(info, cfg, []string{encoder}, crf, estimatedRatio),
	}
	return Result{Outcome: OutcomePlanned, Plan: plan}, nil
}

// manualEncoderAndCRF returns the fixed encoder/CRF pair used when CRF
// search is skipped, either by --manual-mode or by AllowManualFallback
// after every candidate encoder failed (spec.md §4.3, DESIGN.md's
// ManualMode-vs-AllowManualFallback decision).
func manualEncoderAndCRF(cfg *config.Config) (string, int) {
	encoder := ""
	if len(cfg.VideoEncoderPriority) > 0 {
		encoder = cfg.VideoEncoderPriority[0]
	}
	return encoder, cfg.ManualCRF
}

// planAudioOnly implements the audio_only mode (SPEC_FULL §12): fixed
// codec and bitrate, no CRF search, KeptVideoStreams always empty.
func (p *PreEncoder) planAudioOnly(ctx context.Context, info *mediainfo.MediaInfo) (Result, error) {
	cfg := p.Config

	var plans []StreamPlan
	for _, s := range info.AudioStreams {
		lang := s.Language
		if lang == "" && p.LangDetect != nil {
			if detected, err := p.LangDetect.Detect(ctx, info.Path, info.DurationSeconds); err == nil {
				lang = detected
			}
		}
		if !languageAllowed(lang, cfg.LanguageAllowList) {
			continue
		}
		plans = append(plans, StreamPlan{
			Index:      s.Index,
			Directive:  Reencode,
			Codec:      cfg.AudioOnlyCodec,
			BitRateBps: int64(cfg.AudioOnlyBitrateBps),
		})
	}
	if err := requireAudio(plans, cfg.AllowNoAudio, info.Path); err != nil {
		return Result{}, err
	}

	plan := &EncodePlan{
		Input:               info,
		Mode:                config.ModeAudioOnly,
		EstimatedSizeRatio:  1.0,
		KeptAudioStreams:    plans,
		OutputContainer:     strings.TrimPrefix(cfg.AudioOnlyExtension, "."),
		CommentPayload:      buildCommentPayload(info, cfg, []string{cfg.AudioOnlyCodec}, 0, 1.0),
	}
	return Result{Outcome: OutcomePlanned, Plan: plan}, nil
}

// planPhonePreset implements the phone_preset mode (SPEC_FULL §12): fixed
// bitrate/fps/scale for both video and audio, no CRF search.
func (p *PreEncoder) planPhonePreset(ctx context.Context, info *mediainfo.MediaInfo) (Result, error) {
	cfg := p.Config

	videoPlans := make([]StreamPlan, 0, len(info.VideoStreams))
	for _, s := range info.VideoStreams {
		if isSkippedVideoCodec(s.CodecName, cfg.SkipVideoCodecs) {
			continue
		}
		videoPlans = append(videoPlans, StreamPlan{
			Index:       s.Index,
			Directive:   Reencode,
			Codec:       cfg.PhoneVideoCodec,
			BitRateBps:  int64(cfg.PhoneVideoBitrateBps),
			FPS:         fmt.Sprintf("%d", cfg.PhoneMaxFPS),
			ScaleFilter: cfg.PhoneScaleFilter,
		})
	}
	if len(videoPlans) == 0 {
		return Result{}, errs.New(errs.KindNoStreamsFound, info.Path, nil)
	}

	audioSel, err := selectAudioStreams(ctx, info.Path, info.DurationSeconds, info.AudioStreams, cfg, p.LangDetect)
	if err != nil {
		return Result{}, err
	}
	audioPlans := make([]StreamPlan, 0, len(audioSel.plans))
	for _, a := range audioSel.plans {
		audioPlans = append(audioPlans, StreamPlan{
			Index:      a.Index,
			Directive:  Reencode,
			Codec:      cfg.PhoneAudioCodec,
			BitRateBps: int64(cfg.PhoneAudioBitrateBps),
		})
	}
	if err := requireAudio(audioPlans, cfg.AllowNoAudio, info.Path); err != nil {
		return Result{}, err
	}

	plan := &EncodePlan{
		Input:               info,
		Mode:                config.ModePhonePreset,
		VideoEncoder:        cfg.PhoneVideoCodec,
		EstimatedSizeRatio:  1.0,
		KeptVideoStreams:    videoPlans,
		KeptAudioStreams:    audioPlans,
		OutputContainer:     "mp4",
		CommentPayload:      buildCommentPayload(info, cfg, []string{cfg.PhoneVideoCodec}, 0, 1.0),
	}
	return Result{Outcome: OutcomePlanned, Plan: plan}, nil
}

// buildCommentPayload assembles the structured record embedded into the
// output container's comment metadata (spec.md §6).
func buildCommentPayload(info *mediainfo.MediaInfo, cfg *config.Config, encoders []string, crf int, estimatedRatio float64) CommentPayload {
	return CommentPayload{
		Comment:          cfg.EncodedSentinel,
		Encoders:         encoders,
		CRF:              crf,
		SourceFile:       info.Path,
		SourceFileSize:   display.FormatBytes(info.SizeBytes),
		SourceFileMD5:    info.MD5,
		SourceFileSHA256: info.SHA256,
		EstimatedRatio:   estimatedRatio,
	}
}
