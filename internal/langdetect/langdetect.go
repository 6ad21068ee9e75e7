// Package langdetect samples short audio clips from a media file and asks
// an external speech classifier to identify the spoken language, for audio
// streams whose container metadata carries no language tag.
package langdetect

import (
	"context"
	"sort"

	"github.com/kerasty/smart-encoder/internal/config"
)

// Classifier is the external speech-classification adapter. A real
// implementation extracts an audio clip with the transcoder and hands it to
// a language-classification model; tests inject a fake.
type Classifier interface {
	// Classify returns a language code (e.g. "eng") and a confidence in
	// [0,1] for the audio_blob at path starting at offsetSeconds for
	// durationSeconds.
	Classify(ctx context.Context, path string, offsetSeconds, durationSeconds float64) (language string, confidence float64, err error)
}

// Detector samples clips across a stream's duration and resolves the
// spoken language by majority vote.
type Detector struct {
	classifier Classifier
	cfg        *config.Config
}

// New returns a Detector backed by classifier.
func New(classifier Classifier, cfg *config.Config) *Detector {
	return &Detector{classifier: classifier, cfg: cfg}
}

const (
	lowConfidenceThreshold = 0.4
	edgeTrimFraction       = 0.05 // skip the first and last 5% of duration
)

// Detect extracts cfg.LanguageSamples clips (~cfg.LanguageSampleSecs each)
// evenly spaced across [5%, 95%] of durationSeconds, classifies each, and
// resolves the answer by majority vote. On a tie, the clip nearest the
// midpoint wins. Returns cfg.LanguageFallback when the usable span is empty
// or every classifier call fails; otherwise returns "unknown" if no sample
// reaches the confidence threshold.
func (d *Detector) Detect(ctx context.Context, path string, durationSeconds float64) (string, error) {
	samples := d.cfg.LanguageSamples
	if samples < 1 {
		samples = 1
	}

	usableStart := durationSeconds * edgeTrimFraction
	usableEnd := durationSeconds * (1 - edgeTrimFraction)
	span := usableEnd - usableStart
	if span <= 0 {
		return d.cfg.LanguageFallback, nil
	}

	type vote struct {
		language   string
		confidence float64
		offset     float64
	}
	votes := make([]vote, 0, samples)
	midpoint := usableStart + span/2
	failed := 0

	for i := 0; i < samples; i++ {
		offset := usableStart
		if samples > 1 {
			offset = usableStart + span*float64(i)/float64(samples-1)
		} else {
			offset = midpoint
		}
		lang, conf, err := d.classifier.Classify(ctx, path, offset, float64(d.cfg.LanguageSampleSecs))
		if err != nil {
			failed++
			continue
		}
		if conf < lowConfidenceThreshold {
			continue
		}
		votes = append(votes, vote{language: lang, confidence: conf, offset: offset})
	}

	if len(votes) == 0 {
		if failed == samples {
			return d.cfg.LanguageFallback, nil
		}
		return "unknown", nil
	}

	counts := map[string]int{}
	nearest := map[string]float64{}
	for _, v := range votes {
		counts[v.language]++
		if d, ok := nearest[v.language]; !ok || absF(v.offset-midpoint) < d {
			nearest[v.language] = absF(v.offset - midpoint)
		}
	}

	languages := make([]string, 0, len(counts))
	for lang := range counts {
		languages = append(languages, lang)
	}
	sort.Slice(languages, func(i, j int) bool {
		li, lj := languages[i], languages[j]
		if counts[li] != counts[lj] {
			return counts[li] > counts[lj]
		}
		return nearest[li] < nearest[lj]
	})
	return languages[0], nil
}

func absF(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
