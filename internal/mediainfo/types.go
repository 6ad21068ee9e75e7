// Package mediainfo probes a media file and normalizes ffprobe's JSON output
// into the pipeline's MediaInfo model, and computes its content hashes.
package mediainfo

// VideoStream is a per-stream descriptor for a video elementary stream.
// Stream order within its kind is preserved end-to-end from ffprobe's
// output through to the transcoder's -map directives.
type VideoStream struct {
	Index        int
	CodecName    string
	AvgFrameRate string // raw "A/B" rational, e.g. "24000/1001"; "0/0" means unknown.
	BitRateBps   int64
	Width        int
	Height       int
}

// AudioStream is a per-stream descriptor for an audio elementary stream.
type AudioStream struct {
	Index        int
	CodecName    string
	Language     string // normalized lowercase tag; may be empty.
	Channels     int
	SampleRateHz int
	BitRateBps   int64 // 0 if ffprobe reported none.
	BPSEngBps    int64 // value of the "BPS-eng" tag, 0 if absent; see SPEC_FULL §1.
}

// SubtitleStream is a per-stream descriptor for a subtitle elementary
// stream.
type SubtitleStream struct {
	Index     int
	CodecName string
	Language  string
}

// MediaInfo is an immutable snapshot of one input file, created once by
// Probe and read-only thereafter (spec.md §3 "Ownership & lifecycle").
type MediaInfo struct {
	Path     string
	SizeBytes int64
	MD5      string
	SHA256   string

	DurationSeconds     float64
	ContainerFormat     string
	ContainerBitrateBps int64
	CommentTag          string

	VideoStreams    []VideoStream
	AudioStreams    []AudioStream
	SubtitleStreams []SubtitleStream
}

// HasVideo reports whether the input has at least one video stream.
func (m *MediaInfo) HasVideo() bool { return len(m.VideoStreams) > 0 }

// PrimaryVideoBitRate returns the first video stream's bitrate, falling
// back to the container-level bitrate when the stream value is zero.
func (m *MediaInfo) PrimaryVideoBitRate() int64 {
	if len(m.VideoStreams) > 0 && m.VideoStreams[0].BitRateBps > 0 {
		return m.VideoStreams[0].BitRateBps
	}
	return m.ContainerBitrateBps
}
