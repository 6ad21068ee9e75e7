package preencode

import (
	"context"
	"strconv"
	"strings"

	"github.com/kerasty/smart-encoder/internal/config"
	"github.com/kerasty/smart-encoder/internal/errs"
	"github.com/kerasty/smart-encoder/internal/mediainfo"
)

// LanguageDetector is the subset of langdetect.Detector's surface
// PreEncoder needs; kept as a local interface so tests can inject a fake
// without importing the langdetect package.
type LanguageDetector interface {
	Detect(ctx context.Context, path string, durationSeconds float64) (string, error)
}

// selectVideoStreams drops streams with an unparsable avg_frame_rate or a
// codec in the skip-video-codecs set, then caps every kept stream's output
// frame-rate at the maximum among the survivors (spec.md §4.3 "Video").
func selectVideoStreams(streams []mediainfo.VideoStream, cfg *config.Config) []StreamPlan {
	type kept struct {
		stream mediainfo.VideoStream
		fps    float64
	}
	var candidates []kept
	for _, s := range streams {
		if isSkippedVideoCodec(s.CodecName, cfg.SkipVideoCodecs) {
			continue
		}
		fps, ok := parseFrameRate(s.AvgFrameRate)
		if !ok || fps <= 0 {
			continue
		}
		candidates = append(candidates, kept{stream: s, fps: fps})
	}
	if len(candidates) == 0 {
		return nil
	}

	maxFPS := candidates[0].fps
	for _, c := range candidates[1:] {
		if c.fps > maxFPS {
			maxFPS = c.fps
		}
	}

	plans := make([]StreamPlan, 0, len(candidates))
	for _, c := range candidates {
		cappedFPS := c.fps
		if cappedFPS > maxFPS {
			cappedFPS = maxFPS
		}
		plans = append(plans, StreamPlan{
			Index:     c.stream.Index,
			Directive: Reencode, // video always goes through the chosen encoder.
			FPS:       formatFPS(cappedFPS),
		})
	}
	return plans
}

func isSkippedVideoCodec(codec string, skipSet []string) bool {
	for _, s := range skipSet {
		if strings.EqualFold(codec, s) {
			return true
		}
	}
	return false
}

// parseFrameRate parses ffprobe's "A/B" rational frame-rate string. "0/0"
// and malformed strings report ok=false, matching spec.md's boundary case
// "avg_frame_rate = 0/0 -> stream dropped".
func parseFrameRate(raw string) (float64, bool) {
	parts := strings.SplitN(raw, "/", 2)
	if len(parts) != 2 {
		return 0, false
	}
	num, errN := strconv.ParseFloat(parts[0], 64)
	den, errD := strconv.ParseFloat(parts[1], 64)
	if errN != nil || errD != nil || den == 0 {
		return 0, false
	}
	return num / den, true
}

func formatFPS(fps float64) string {
	return strconv.FormatFloat(fps, 'f', -1, 64)
}

// audioSelection is the result of selecting audio streams: the kept plans,
// in input-stream order.
type audioSelection struct {
	plans []StreamPlan
}

// selectAudioStreams decides copy-vs-reencode and applies the language
// filter for each audio stream (spec.md §4.3 "Audio"). detector may be nil
// only when every stream already carries a language tag.
func selectAudioStreams(ctx context.Context, path string, durationSeconds float64, streams []mediainfo.AudioStream, cfg *config.Config, detector LanguageDetector) (audioSelection, error) {
	var out audioSelection
	for _, s := range streams {
		lang := s.Language
		if lang == "" && detector != nil {
			detected, err := detector.Detect(ctx, path, durationSeconds)
			if err == nil {
				lang = detected
			}
		}
		if !languageAllowed(lang, cfg.LanguageAllowList) {
			continue
		}

		if isPreferredAudioCodec(s.CodecName, cfg.AudioPreferredCodecs) && s.SampleRateHz >= cfg.AudioSampleRateFloorHz {
			out.plans = append(out.plans, StreamPlan{Index: s.Index, Directive: Copy})
			continue
		}

		bitrate := audioTargetBitrate(s, cfg)
		out.plans = append(out.plans, StreamPlan{
			Index:      s.Index,
			Directive:  Reencode,
			Codec:      "opus",
			BitRateBps: bitrate,
		})
	}
	return out, nil
}

func isPreferredAudioCodec(codec string, preferred []string) bool {
	for _, c := range preferred {
		if strings.EqualFold(codec, c) {
			return true
		}
	}
	return false
}

func languageAllowed(lang string, allowList []string) bool {
	if lang == "" {
		return false
	}
	lang = strings.ToLower(lang)
	for _, a := range allowList {
		if lang == strings.ToLower(a) {
			return true
		}
	}
	return false
}

// audioTargetBitrate resolves the SPEC_FULL §1 Open Question: bit_rate
// wins over BPS-eng when both are present and non-zero; otherwise falls
// back to BPS-eng, then to Config.AudioFallbackBitrateBps. The result is
// capped at channels * per-channel budget.
func audioTargetBitrate(s mediainfo.AudioStream, cfg *config.Config) int64 {
	source := s.BitRateBps
	if source <= 0 {
		source = s.BPSEngBps
	}
	if source <= 0 {
		source = int64(cfg.AudioFallbackBitrateBps)
	}
	budget := int64(s.Channels) * int64(cfg.AudioPerChannelBudgetBps)
	if budget <= 0 {
		budget = int64(cfg.AudioPerChannelBudgetBps)
	}
	if source > budget {
		return budget
	}
	return source
}

// selectSubtitleStreams keeps subtitle streams whose language passes the
// allow-list and decides copy-vs-reencode against the chosen container
// (spec.md §4.3 "Subtitle").
func selectSubtitleStreams(streams []mediainfo.SubtitleStream, container string, cfg *config.Config) []StreamPlan {
	var plans []StreamPlan
	for _, s := range streams {
		if !languageAllowed(s.Language, cfg.LanguageAllowList) {
			continue
		}
		directive, codec := subtitleDirective(s, container, cfg)
		plans = append(plans, StreamPlan{Index: s.Index, Directive: directive, Codec: codec})
	}
	return plans
}

func subtitleDirective(s mediainfo.SubtitleStream, container string, cfg *config.Config) (Directive, string) {
	if container == "mkv" {
		return Copy, ""
	}
	// mp4: only text-based mov_text survives as a copy.
	if strings.EqualFold(s.CodecName, "mov_text") {
		return Copy, ""
	}
	return Reencode, "mov_text"
}

// chooseInitialContainer picks PreEncoder's up-front container guess: mkv
// whenever any input subtitle stream has an MKV-only codec (whether or not
// the language filter later keeps it) or any audio stream is being
// converted to opus, otherwise mp4 (SPEC_FULL §12 "subtitle codec-to-
// container compatibility table"). This is a guess only — Encoder may
// still switch reactively per spec.md §4.5.
func chooseInitialContainer(subs []mediainfo.SubtitleStream, audioPlans []StreamPlan, cfg *config.Config) string {
	for _, s := range subs {
		for _, mkvOnly := range cfg.MKVOnlySubtitleCodecs {
			if strings.EqualFold(s.CodecName, mkvOnly) {
				return "mkv"
			}
		}
	}
	for _, a := range audioPlans {
		if a.Directive == Reencode && a.Codec == "opus" {
			return "mkv"
		}
	}
	return "mp4"
}

// requireAudio enforces spec.md §4.3's "if no audio stream survives and
// allow_no_audio is false -> fail with NoSuitableAudio".
func requireAudio(plans []StreamPlan, allowNoAudio bool, path string) error {
	if len(plans) > 0 || allowNoAudio {
		return nil
	}
	return errs.New(errs.KindNoSuitableAudio, path, nil)
}
