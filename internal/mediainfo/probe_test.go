package mediainfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerasty/smart-encoder/internal/errs"
)

// Realistic ffprobe JSON for a Matroska file with:
//   - 1 cover-art video stream (mjpeg, would be filtered by skip-video-codecs downstream)
//   - 1 HEVC 1080p video stream
//   - 1 AAC stereo audio stream tagged jpn
//   - 1 ASS subtitle stream tagged eng
const sampleTwoVideoStreams = `{
  "streams": [
    {
      "index": 0,
      "codec_name": "mjpeg",
      "codec_type": "video",
      "width": 600,
      "height": 900,
      "tags": {}
    },
    {
      "index": 1,
      "codec_name": "hevc",
      "codec_type": "video",
      "width": 1920,
      "height": 1080,
      "bit_rate": "5000000",
      "avg_frame_rate": "24000/1001",
      "tags": {}
    },
    {
      "index": 2,
      "codec_name": "aac",
      "codec_type": "audio",
      "channels": 2,
      "sample_rate": "48000",
      "bit_rate": "192000",
      "tags": { "language": "JPN", "BPS-eng": "192000" }
    },
    {
      "index": 3,
      "codec_name": "ass",
      "codec_type": "subtitle",
      "tags": { "language": "ENG" }
    }
  ],
  "format": {
    "format_name": "matroska,webm",
    "duration": "1437.123000",
    "bit_rate": "6873456",
    "tags": { "comment": "encoded_by_smart_encoder" }
  }
}`

func TestParseJSON_MultiStream(t *testing.T) {
	info, err := ParseJSON([]byte(sampleTwoVideoStreams))
	require.NoError(t, err)

	require.Len(t, info.VideoStreams, 2)
	assert.Equal(t, "mjpeg", info.VideoStreams[0].CodecName)
	assert.Equal(t, "hevc", info.VideoStreams[1].CodecName)
	assert.Equal(t, "24000/1001", info.VideoStreams[1].AvgFrameRate)

	require.Len(t, info.AudioStreams, 1)
	assert.Equal(t, "jpn", info.AudioStreams[0].Language)
	assert.EqualValues(t, 192000, info.AudioStreams[0].BitRateBps)
	assert.EqualValues(t, 192000, info.AudioStreams[0].BPSEngBps)

	require.Len(t, info.SubtitleStreams, 1)
	assert.Equal(t, "eng", info.SubtitleStreams[0].Language)

	assert.Equal(t, "matroska", info.ContainerFormat)
	assert.EqualValues(t, 6873456, info.ContainerBitrateBps)
	assert.Equal(t, "encoded_by_smart_encoder", info.CommentTag)
	assert.InDelta(t, 1437.123, info.DurationSeconds, 0.001)
}

func TestParseJSON_DurationFallsBackToVideoStream(t *testing.T) {
	data := `{
	  "streams": [
	    {"index": 0, "codec_name": "h264", "codec_type": "video", "avg_frame_rate": "25/1", "duration": "100.0", "tags": {}}
	  ],
	  "format": {"format_name": "mpegts", "tags": {}}
	}`
	info, err := ParseJSON([]byte(data))
	require.NoError(t, err)
	assert.InDelta(t, 100.0, info.DurationSeconds, 0.001)
}

func TestParseJSON_NoVideoNoStreams(t *testing.T) {
	info, err := ParseJSON([]byte(`{"streams": [], "format": {"format_name": "mp4", "tags": {}}}`))
	require.NoError(t, err)
	assert.False(t, info.HasVideo())
}

func TestPrimaryVideoBitRate_FallsBackToContainer(t *testing.T) {
	info := &MediaInfo{
		ContainerBitrateBps: 1000,
		VideoStreams:        []VideoStream{{BitRateBps: 0}},
	}
	assert.EqualValues(t, 1000, info.PrimaryVideoBitRate())

	info.VideoStreams[0].BitRateBps = 5000
	assert.EqualValues(t, 5000, info.PrimaryVideoBitRate())
}

func TestProbe_UnreadableFile(t *testing.T) {
	_, err := Probe(nil, "/nonexistent/path/does-not-exist.mkv")
	require.Error(t, err)
	e, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.KindUnreadable, e.Kind)
}
