// Package adapters holds the thin wrappers around the external
// transcoder, its CRF-search helper, and the language classifier
// (spec.md §2 "External adapters"). Each is expressed as a small
// interface so PreEncoder, Encoder, and LanguageDetector can be tested
// against fakes instead of real subprocesses.
package adapters

import "context"

// Transcoder runs the external media-transcoder tool.
type Transcoder interface {
	// Run invokes the transcoder with args (which must include the input
	// and output paths) and returns its captured stdout, stderr (used for
	// retry classification and error diagnostics), and exit status.
	Run(ctx context.Context, args []string) (stdout, stderr string, exitCode int, err error)
}

// CRFSearcher runs the external CRF-search helper for one candidate
// encoder.
type CRFSearcher interface {
	// Search returns the discovered CRF and encoded-size percentage, or an
	// error if the helper's own invocation failed to start.
	Search(ctx context.Context, encoder, path, sampleEvery string, maxEncodedPercent, minVMAF int) (crf, encodedPercent int, exitCode int, stdout string, err error)
}

// Classifier is the external speech-classification adapter: given an
// already-extracted audio clip, returns a language code and confidence.
type Classifier interface {
	Classify(ctx context.Context, path string, offsetSeconds, durationSeconds float64) (language string, confidence float64, err error)
}
