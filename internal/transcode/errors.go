package transcode

import "regexp"

// reContainerIncompatible matches stderr patterns indicating the chosen
// container can't hold one of the mapped streams (spec.md §4.5 "detected
// by non-zero exit with a stream-writing error"), grounded in the same
// family of ffmpeg diagnostics the teacher's internal/ffmpeg/errors.go
// classifies for its own (different) retry purposes.
var reContainerIncompatible = regexp.MustCompile(
	`(?i)Could not find tag for codec .* in stream|` +
		`Unknown encoder|` +
		`Codec .* is not supported in|` +
		`muxer does not support|` +
		`Invalid data found when processing input|` +
		`Error initializing output stream .*|` +
		`Subtitle encoding currently only possible from text to text or bitmap to bitmap`)

// MatchContainerIncompatible reports whether stderr describes a
// stream-write incompatibility with the current output container.
func MatchContainerIncompatible(stderr string) bool {
	return reContainerIncompatible.MatchString(stderr)
}
