package mediainfo

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/kerasty/smart-encoder/internal/errs"
)

// Probe invokes the external media-inspection tool, normalizes its output
// into a MediaInfo record, and computes MD5/SHA256 over the file contents
// in a single streaming pass. It fails with errs.KindNoDuration if duration
// is absent from both the container format and every video stream, and
// with errs.KindUnreadable/KindMalformedMetadata for I/O or parse failures.
func Probe(ctx context.Context, path string) (*MediaInfo, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, errs.New(errs.KindUnreadable, path, err)
	}

	out, err := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	).Output()
	if err != nil {
		return nil, errs.New(errs.KindUnreadable, "ffprobe "+path, err)
	}

	info, err := parseJSON(out)
	if err != nil {
		return nil, errs.New(errs.KindMalformedMetadata, path, err)
	}
	info.Path = path
	info.SizeBytes = fi.Size()

	md5Hex, sha256Hex, err := hashFile(path)
	if err != nil {
		return nil, errs.New(errs.KindUnreadable, path, err)
	}
	info.MD5 = md5Hex
	info.SHA256 = sha256Hex

	if info.DurationSeconds <= 0 {
		return nil, errs.New(errs.KindNoDuration, path, nil)
	}
	return info, nil
}

// hashFile computes MD5 and SHA-256 over a file's contents in one
// streaming pass.
func hashFile(path string) (md5Hex, sha256Hex string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", err
	}
	defer f.Close()

	h1 := md5.New()
	h2 := sha256.New()
	if _, err := io.Copy(io.MultiWriter(h1, h2), f); err != nil {
		return "", "", err
	}
	return hex.EncodeToString(h1.Sum(nil)), hex.EncodeToString(h2.Sum(nil)), nil
}

// parseJSON converts raw ffprobe JSON output into a MediaInfo. Exported
// indirectly via ParseJSON for tests that inject fixture bytes instead of
// invoking a real ffprobe binary.
func parseJSON(data []byte) (*MediaInfo, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON: %w", err)
	}
	return buildResult(&raw), nil
}

// ParseJSON is the exported entry point used by tests to build a MediaInfo
// from fixture ffprobe JSON without hashing a real file or resolving
// duration-absence into an error.
func ParseJSON(data []byte) (*MediaInfo, error) {
	return parseJSON(data)
}

// --- ffprobe JSON wire types ---

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	FormatName string            `json:"format_name"`
	Duration   string            `json:"duration"`
	BitRate    string            `json:"bit_rate"`
	Tags       map[string]string `json:"tags"`
}

type ffprobeStream struct {
	Index        int               `json:"index"`
	CodecName    string            `json:"codec_name"`
	CodecType    string            `json:"codec_type"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	BitRate      string            `json:"bit_rate"`
	AvgFrameRate string            `json:"avg_frame_rate"`
	Channels     int               `json:"channels"`
	SampleRate   string            `json:"sample_rate"`
	Duration     string            `json:"duration"`
	Tags         map[string]string `json:"tags"`
}

func buildResult(raw *ffprobeOutput) *MediaInfo {
	m := &MediaInfo{
		ContainerFormat:     firstFormatName(raw.Format.FormatName),
		ContainerBitrateBps: parseInt64(raw.Format.BitRate),
		DurationSeconds:     parseFloat(raw.Format.Duration),
		CommentTag:          raw.Format.Tags["comment"],
	}

	for i := range raw.Streams {
		s := &raw.Streams[i]
		switch s.CodecType {
		case "video":
			m.VideoStreams = append(m.VideoStreams, convertVideo(s))
			if m.DurationSeconds <= 0 {
				if d := parseFloat(s.Duration); d > 0 {
					m.DurationSeconds = d
				}
			}
		case "audio":
			m.AudioStreams = append(m.AudioStreams, convertAudio(s))
		case "subtitle":
			m.SubtitleStreams = append(m.SubtitleStreams, convertSubtitle(s))
		}
	}
	return m
}

// firstFormatName takes ffprobe's comma-separated format_name (e.g.
// "mov,mp4,m4a,3gp,3g2,mj2") and returns its first, most specific entry.
func firstFormatName(raw string) string {
	if i := strings.IndexByte(raw, ','); i >= 0 {
		return raw[:i]
	}
	return raw
}

func convertVideo(s *ffprobeStream) VideoStream {
	return VideoStream{
		Index:        s.Index,
		CodecName:    s.CodecName,
		AvgFrameRate: s.AvgFrameRate,
		BitRateBps:   parseInt64(s.BitRate),
		Width:        s.Width,
		Height:       s.Height,
	}
}

func convertAudio(s *ffprobeStream) AudioStream {
	return AudioStream{
		Index:        s.Index,
		CodecName:    s.CodecName,
		Language:     normalizeLanguage(s.Tags["language"]),
		Channels:     s.Channels,
		SampleRateHz: parseInt(s.SampleRate),
		BitRateBps:   parseInt64(s.BitRate),
		BPSEngBps:    parseInt64(s.Tags["BPS-eng"]),
	}
}

func convertSubtitle(s *ffprobeStream) SubtitleStream {
	return SubtitleStream{
		Index:     s.Index,
		CodecName: s.CodecName,
		Language:  normalizeLanguage(s.Tags["language"]),
	}
}

// normalizeLanguage lowercases a language tag. ffprobe/matroska tags are
// already close to ISO 639-2 three-letter codes; we don't attempt to
// remap two-letter ISO 639-1 codes here since Config.LanguageAllowList
// (SPEC_FULL §12) explicitly carries both forms.
func normalizeLanguage(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func parseInt(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}
