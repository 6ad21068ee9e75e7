package transcode

import (
	"fmt"
	"strconv"

	"github.com/kerasty/smart-encoder/internal/config"
	"github.com/kerasty/smart-encoder/internal/preencode"
)

// Build constructs the transcoder argument slice for one attempt, per
// spec.md §4.5: per-stream -map/-c:v/-crf/-r, -c:a:<n>/-b:a:<n>,
// -c:s:<n>, plus the embedded comment payload. crf is passed separately
// from plan.VideoCRF since oversize retries mutate it across attempts
// without mutating the plan itself.
func Build(plan *preencode.EncodePlan, crf int, outputPath string, comment string) []string {
	args := make([]string, 0, 32)
	args = append(args, "-y", "-i", plan.Input.Path)

	// phone_preset (and any future video-bearing fixed-bitrate mode) uses a
	// fixed bitrate/scale rather than CRF search, per SPEC_FULL.md §12.
	fixedBitrate := plan.Mode == config.ModePhonePreset || plan.Mode == config.ModeAudioOnly

	for _, v := range plan.KeptVideoStreams {
		args = append(args, "-map", fmt.Sprintf("0:%d", v.Index))
		args = append(args, "-c:v", plan.VideoEncoder)
		if fixedBitrate {
			if v.BitRateBps > 0 {
				args = append(args, "-b:v", strconv.FormatInt(v.BitRateBps, 10))
			}
		} else {
			args = append(args, "-crf", strconv.Itoa(crf))
		}
		if v.FPS != "" {
			args = append(args, "-r", v.FPS)
		}
		if v.ScaleFilter != "" {
			args = append(args, "-vf", v.ScaleFilter)
		}
	}

	// ffmpeg's per-type output specifiers (a:N, s:N) count from 0 in output
	// order, not the stream's absolute input index used by -map, so each
	// kind needs its own counter incremented per kept stream (mirrors the
	// original's audio_index/subtitle_index counters, Encoder.py:421-449).
	audioOut := 0
	for _, a := range plan.KeptAudioStreams {
		args = append(args, "-map", fmt.Sprintf("0:%d", a.Index))
		codecFlag := fmt.Sprintf("-c:a:%d", audioOut)
		if a.Directive == preencode.Copy {
			args = append(args, codecFlag, "copy")
			audioOut++
			continue
		}
		args = append(args, codecFlag, a.Codec)
		args = append(args, fmt.Sprintf("-b:a:%d", audioOut), strconv.FormatInt(a.BitRateBps, 10))
		audioOut++
	}

	subtitleOut := 0
	for _, s := range plan.KeptSubtitleStreams {
		args = append(args, "-map", fmt.Sprintf("0:%d", s.Index))
		codecFlag := fmt.Sprintf("-c:s:%d", subtitleOut)
		if s.Directive == preencode.Copy {
			args = append(args, codecFlag, "copy")
			subtitleOut++
			continue
		}
		args = append(args, codecFlag, s.Codec)
		subtitleOut++
	}

	if comment != "" {
		args = append(args, "-metadata", "comment="+comment)
	}

	args = append(args, outputPath)
	return args
}
