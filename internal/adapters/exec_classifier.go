package adapters

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// ExecClassifier extracts a short audio clip with ffmpeg and hands it to an
// external "classify" tool on PATH, which is expected to print a single
// line "<language> <confidence>" to stdout (spec.md §6 "Language
// classifier: classify(audio_blob, language_hints?) -> {language,
// confidence}"). The classifier binary itself is an out-of-scope external
// collaborator (spec.md §1).
type ExecClassifier struct {
	ClipBitrateBps int // default 192000, matching the original's max_bitrate cap.
}

func (c *ExecClassifier) Classify(ctx context.Context, path string, offsetSeconds, durationSeconds float64) (string, float64, error) {
	bitrate := c.ClipBitrateBps
	if bitrate <= 0 {
		bitrate = 192_000
	}

	clip, err := os.CreateTemp("", "lang-clip-*.mp3")
	if err != nil {
		return "", 0, err
	}
	clipPath := clip.Name()
	clip.Close()
	defer os.Remove(clipPath)

	extract := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-ss", fmt.Sprintf("%d", int(offsetSeconds)),
		"-t", fmt.Sprintf("%d", int(durationSeconds)),
		"-i", path,
		"-vn",
		"-c:a", "libmp3lame",
		"-b:a", strconv.Itoa(bitrate),
		clipPath,
	)
	if err := extract.Run(); err != nil {
		return "", 0, fmt.Errorf("extract audio clip: %w", err)
	}

	classify := exec.CommandContext(ctx, "classify", clipPath)
	out, err := classify.Output()
	if err != nil {
		return "", 0, fmt.Errorf("classify %s: %w", clipPath, err)
	}

	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	if !scanner.Scan() {
		return "", 0, fmt.Errorf("classify %s: empty output", clipPath)
	}
	fields := strings.Fields(scanner.Text())
	if len(fields) < 2 {
		return "", 0, fmt.Errorf("classify %s: malformed output %q", clipPath, scanner.Text())
	}
	confidence, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return "", 0, fmt.Errorf("classify %s: bad confidence %q", clipPath, fields[1])
	}
	return strings.ToLower(fields[0]), confidence, nil
}
