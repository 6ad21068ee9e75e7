package preencode

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerasty/smart-encoder/internal/config"
	"github.com/kerasty/smart-encoder/internal/errs"
	"github.com/kerasty/smart-encoder/internal/mediainfo"
)

func testConfig() *config.Config {
	c := config.DefaultConfig()
	return &c
}

func h264Info(path string, bitrate int64) *mediainfo.MediaInfo {
	return &mediainfo.MediaInfo{
		Path:                path,
		MD5:                 "deadbeef",
		DurationSeconds:      60,
		ContainerFormat:      "mov",
		ContainerBitrateBps:  bitrate,
		VideoStreams: []mediainfo.VideoStream{
			{Index: 0, CodecName: "h264", AvgFrameRate: "24000/1001", BitRateBps: bitrate},
		},
		AudioStreams: []mediainfo.AudioStream{
			{Index: 1, CodecName: "aac", Language: "eng", Channels: 2, SampleRateHz: 48000, BitRateBps: 192_000},
		},
	}
}

// --- skip rules ---

func TestCheckSkip_AlreadyEncoded(t *testing.T) {
	cfg := testConfig()
	info := h264Info("/in/movie.mp4", 8_000_000)
	info.CommentTag = cfg.EncodedSentinel

	skip, reason := checkSkip(info, cfg)
	assert.True(t, skip)
	assert.Equal(t, cfg.EncodedSentinel, reason.Sentinel)
}

func TestCheckSkip_OversizeMarkerCaseInsensitive(t *testing.T) {
	cfg := testConfig()
	cfg.OversizeMarkers = []string{"_OVER_SIZED_ENCODED"}
	info := h264Info("/in/movie_over_sized_encoded.mp4", 8_000_000)

	skip, _ := checkSkip(info, cfg)
	assert.True(t, skip, "marker match must be case-insensitive")
}

func TestCheckSkip_OversizeMarkerSkippedInManualMode(t *testing.T) {
	cfg := testConfig()
	cfg.ManualMode = true
	cfg.OversizeMarkers = []string{"over_sized"}
	info := h264Info("/in/movie_over_sized.mp4", 8_000_000)

	skip, _ := checkSkip(info, cfg)
	assert.False(t, skip, "oversize-marker rule only applies to automatic runs")
}

func TestCheckSkip_BitrateFloorBoundary(t *testing.T) {
	cfg := testConfig()
	cfg.BitrateFloorBps = 100_000

	atFloor := h264Info("/in/a.mp4", 100_000)
	skip, _ := checkSkip(atFloor, cfg)
	assert.True(t, skip, "bitrate exactly at the floor must skip")

	aboveFloor := h264Info("/in/b.mp4", 100_001)
	skip, _ = checkSkip(aboveFloor, cfg)
	assert.False(t, skip, "bitrate one above the floor must attempt")
}

func TestCheckSkip_BitrateFloorUsesContainerBitrateNotStreamBitrate(t *testing.T) {
	cfg := testConfig()
	cfg.BitrateFloorBps = 100_000

	// Container bitrate is above the floor even though the video stream's
	// own bitrate (e.g. unset in the source metadata) reads as zero.
	info := h264Info("/in/a.mp4", 8_000_000)
	info.ContainerBitrateBps = 8_000_000
	info.VideoStreams[0].BitRateBps = 0

	skip, _ := checkSkip(info, cfg)
	assert.False(t, skip, "skip rule must key off container_bitrate_bps, not the stream's own bitrate")
}

func TestCheckSkip_ExcludedContainerFormat(t *testing.T) {
	cfg := testConfig()
	cfg.ExcludedContainerFormats = []string{"av1"}
	info := h264Info("/in/a.mp4", 8_000_000)
	info.ContainerFormat = "AV1"

	skip, _ := checkSkip(info, cfg)
	assert.True(t, skip)
}

func TestCheckNoStreams_VideoModeRequiresVideo(t *testing.T) {
	info := &mediainfo.MediaInfo{Path: "/in/audio.mkv"}
	err := checkNoStreams(info, config.ModeVideo)
	require.Error(t, err)
	e, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.KindNoStreamsFound, e.Kind)
}

func TestCheckNoStreams_AudioOnlyModeAllowsNoVideo(t *testing.T) {
	info := &mediainfo.MediaInfo{Path: "/in/audio.mkv"}
	err := checkNoStreams(info, config.ModeAudioOnly)
	assert.NoError(t, err)
}

// --- video stream selection ---

func TestSelectVideoStreams_DropsZeroFrameRate(t *testing.T) {
	cfg := testConfig()
	streams := []mediainfo.VideoStream{
		{Index: 0, CodecName: "h264", AvgFrameRate: "0/0"},
	}
	plans := selectVideoStreams(streams, cfg)
	assert.Empty(t, plans)
}

func TestSelectVideoStreams_DropsSkippedCodec(t *testing.T) {
	cfg := testConfig()
	streams := []mediainfo.VideoStream{
		{Index: 0, CodecName: "mjpeg", AvgFrameRate: "24/1"},
	}
	plans := selectVideoStreams(streams, cfg)
	assert.Empty(t, plans)
}

func TestSelectVideoStreams_CapsAtMaxFrameRate(t *testing.T) {
	cfg := testConfig()
	streams := []mediainfo.VideoStream{
		{Index: 0, CodecName: "h264", AvgFrameRate: "30/1"},
		{Index: 1, CodecName: "h264", AvgFrameRate: "60/1"},
	}
	plans := selectVideoStreams(streams, cfg)
	require.Len(t, plans, 2)
	assert.Equal(t, "30", plans[0].FPS)
	assert.Equal(t, "60", plans[1].FPS)
}

// --- audio stream selection ---

type fakeLangDetector struct {
	calls int
	lang  string
	err   error
}

func (f *fakeLangDetector) Detect(ctx context.Context, path string, durationSeconds float64) (string, error) {
	f.calls++
	return f.lang, f.err
}

func TestSelectAudioStreams_EmptyLanguageInvokesDetectorOnce(t *testing.T) {
	cfg := testConfig()
	streams := []mediainfo.AudioStream{
		{Index: 1, CodecName: "aac", Language: "", Channels: 2, SampleRateHz: 48000, BitRateBps: 192_000},
	}
	det := &fakeLangDetector{lang: "eng"}

	sel, err := selectAudioStreams(context.Background(), "/in/a.mp4", 60, streams, cfg, det)
	require.NoError(t, err)
	assert.Equal(t, 1, det.calls, "LanguageDetector must be invoked exactly once per empty-language stream")
	require.Len(t, sel.plans, 1)
}

func TestSelectAudioStreams_CopyWhenPreferredCodecAndSampleRateOK(t *testing.T) {
	cfg := testConfig()
	streams := []mediainfo.AudioStream{
		{Index: 1, CodecName: "opus", Language: "eng", Channels: 2, SampleRateHz: 48000, BitRateBps: 96_000},
	}
	sel, err := selectAudioStreams(context.Background(), "/in/a.mp4", 60, streams, cfg, nil)
	require.NoError(t, err)
	require.Len(t, sel.plans, 1)
	assert.Equal(t, Copy, sel.plans[0].Directive)
}

func TestSelectAudioStreams_ReencodeWhenNotPreferred(t *testing.T) {
	cfg := testConfig()
	streams := []mediainfo.AudioStream{
		{Index: 1, CodecName: "flac", Language: "eng", Channels: 2, SampleRateHz: 48000, BitRateBps: 900_000},
	}
	sel, err := selectAudioStreams(context.Background(), "/in/a.mp4", 60, streams, cfg, nil)
	require.NoError(t, err)
	require.Len(t, sel.plans, 1)
	assert.Equal(t, Reencode, sel.plans[0].Directive)
	assert.Equal(t, "opus", sel.plans[0].Codec)
	assert.LessOrEqual(t, sel.plans[0].BitRateBps, int64(cfg.AudioPerChannelBudgetBps*2))
}

func TestSelectAudioStreams_DropsDisallowedLanguage(t *testing.T) {
	cfg := testConfig()
	streams := []mediainfo.AudioStream{
		{Index: 1, CodecName: "aac", Language: "fra", Channels: 2, SampleRateHz: 48000, BitRateBps: 192_000},
	}
	sel, err := selectAudioStreams(context.Background(), "/in/a.mp4", 60, streams, cfg, nil)
	require.NoError(t, err)
	assert.Empty(t, sel.plans)
}

func TestAudioTargetBitrate_PrefersBitRateOverBPSEng(t *testing.T) {
	cfg := testConfig()
	s := mediainfo.AudioStream{Channels: 2, BitRateBps: 64_000, BPSEngBps: 900_000}
	assert.Equal(t, int64(64_000), audioTargetBitrate(s, cfg))
}

func TestAudioTargetBitrate_FallsBackToBPSEng(t *testing.T) {
	cfg := testConfig()
	s := mediainfo.AudioStream{Channels: 2, BitRateBps: 0, BPSEngBps: 100_000}
	assert.Equal(t, int64(100_000), audioTargetBitrate(s, cfg))
}

func TestAudioTargetBitrate_FallsBackToConfiguredCap(t *testing.T) {
	cfg := testConfig()
	s := mediainfo.AudioStream{Channels: 2, BitRateBps: 0, BPSEngBps: 0}
	assert.Equal(t, int64(cfg.AudioPerChannelBudgetBps*2), audioTargetBitrate(s, cfg))
}

func TestRequireAudio_FailsWhenEmptyAndNotAllowed(t *testing.T) {
	err := requireAudio(nil, false, "/in/a.mp4")
	require.Error(t, err)
	e, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.KindNoSuitableAudio, e.Kind)
}

func TestRequireAudio_AllowsEmptyWhenPermitted(t *testing.T) {
	err := requireAudio(nil, true, "/in/a.mp4")
	assert.NoError(t, err)
}

// --- CRF search ---

type fakeCRFSearcher struct {
	crf, pct int
	fail     bool
}

func (f *fakeCRFSearcher) Search(ctx context.Context, encoder, path, sampleEvery string, maxEncodedPercent, minVMAF int) (int, int, int, string, error) {
	if f.fail {
		return 0, 0, 1, "", assert.AnError
	}
	return f.crf, f.pct, 0, "", nil
}

func TestSearchCRF_EncodedPercentExactlyAtMaxSucceeds(t *testing.T) {
	cfg := testConfig()
	cfg.MaxEncodedPercent = 97
	searcher := &fakeCRFSearcher{crf: 30, pct: 97}

	result, _, err := searchCRF(context.Background(), searcher, "/in/a.mp4", cfg)
	require.NoError(t, err)
	assert.Equal(t, 30, result.crf)
}

func TestSearchCRF_EncodedPercentOneOverFailsToManualFallback(t *testing.T) {
	cfg := testConfig()
	cfg.MaxEncodedPercent = 97
	cfg.AllowManualFallback = true
	searcher := &fakeCRFSearcher{crf: 30, pct: 98}

	result, _, err := searchCRF(context.Background(), searcher, "/in/a.mp4", cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.ManualCRF, result.crf, "an over-threshold result should be rejected and fall back to manual")
}

func TestSearchCRF_ExhaustedWithoutFallbackFails(t *testing.T) {
	cfg := testConfig()
	cfg.AllowManualFallback = false
	searcher := &fakeCRFSearcher{fail: true}

	_, _, err := searchCRF(context.Background(), searcher, "/in/a.mp4", cfg)
	require.Error(t, err)
	e, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.KindCrfSearchExhausted, e.Kind)
}

// --- PreEncoder.Run end-to-end ---

func TestPreEncoder_Run_VideoHappyPath(t *testing.T) {
	tmp := t.TempDir()
	cfg := testConfig()
	cfg.VideoEncoderPriority = []string{"libsvtav1"}

	info := h264Info(filepath.Join(tmp, "in", "movie.mp4"), 8_000_000)
	pe := &PreEncoder{
		Config:      cfg,
		RunRoot:     tmp,
		CRFSearcher: &fakeCRFSearcher{crf: 30, pct: 40},
	}

	result, err := pe.Run(context.Background(), info)
	require.NoError(t, err)
	require.Equal(t, OutcomePlanned, result.Outcome)
	assert.Equal(t, "libsvtav1", result.Plan.VideoEncoder)
	assert.Equal(t, 30, result.Plan.VideoCRF)
	require.Len(t, result.Plan.KeptVideoStreams, 1)
	require.Len(t, result.Plan.KeptAudioStreams, 1)
	assert.Equal(t, cfg.EncodedSentinel, result.Plan.CommentPayload.Comment)

	// The sidecar must now exist so a second run resumes without a search.
	statePath := filepath.Join(tmp, cfg.EncodedRootDirName(), "in", "state.json")
	_, statErr := os.Stat(statePath)
	assert.NoError(t, statErr)
}

func TestPreEncoder_Run_ResumesFromMatchingSidecar(t *testing.T) {
	tmp := t.TempDir()
	cfg := testConfig()
	info := h264Info(filepath.Join(tmp, "in", "movie.mp4"), 8_000_000)

	searcher := &fakeCRFSearcher{crf: 30, pct: 40}
	pe := &PreEncoder{Config: cfg, RunRoot: tmp, CRFSearcher: searcher}

	_, err := pe.Run(context.Background(), info)
	require.NoError(t, err)

	// Second run with a searcher that would fail outright must still
	// succeed by reusing the persisted (encoder, crf).
	pe.CRFSearcher = &fakeCRFSearcher{fail: true}
	result, err := pe.Run(context.Background(), info)
	require.NoError(t, err)
	assert.Equal(t, 30, result.Plan.VideoCRF)
}

func TestPreEncoder_Run_ManualModeSkipsCRFSearch(t *testing.T) {
	tmp := t.TempDir()
	cfg := testConfig()
	cfg.ManualMode = true
	cfg.ManualCRF = 28
	info := h264Info(filepath.Join(tmp, "in", "movie.mp4"), 8_000_000)

	pe := &PreEncoder{Config: cfg, RunRoot: tmp, CRFSearcher: &fakeCRFSearcher{fail: true}}
	result, err := pe.Run(context.Background(), info)
	require.NoError(t, err)
	assert.Equal(t, cfg.VideoEncoderPriority[0], result.Plan.VideoEncoder)
	assert.Equal(t, 28, result.Plan.VideoCRF)
}

func TestPreEncoder_Run_NoSuitableAudioFails(t *testing.T) {
	tmp := t.TempDir()
	cfg := testConfig()
	info := h264Info(filepath.Join(tmp, "in", "movie.mp4"), 8_000_000)
	info.AudioStreams[0].Language = "fra" // not in the allow-list

	pe := &PreEncoder{Config: cfg, RunRoot: tmp, CRFSearcher: &fakeCRFSearcher{crf: 30, pct: 40}}
	_, err := pe.Run(context.Background(), info)
	require.Error(t, err)
	e, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.KindNoSuitableAudio, e.Kind)
}

func TestPreEncoder_Run_SkipRuleShortCircuitsBeforeCRFSearch(t *testing.T) {
	tmp := t.TempDir()
	cfg := testConfig()
	info := h264Info(filepath.Join(tmp, "in", "movie.mp4"), 8_000_000)
	info.CommentTag = cfg.EncodedSentinel

	pe := &PreEncoder{Config: cfg, RunRoot: tmp, CRFSearcher: &fakeCRFSearcher{fail: true}}
	result, err := pe.Run(context.Background(), info)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, result.Outcome)
}
