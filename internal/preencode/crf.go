package preencode

import (
	"context"
	"time"

	"github.com/kerasty/smart-encoder/internal/adapters"
	"github.com/kerasty/smart-encoder/internal/config"
	"github.com/kerasty/smart-encoder/internal/errs"
)

// crfResult is the outcome of searching one candidate encoder.
type crfResult struct {
	encoder        string
	crf            int
	encodedPercent int
}

// searchCRF tries every candidate encoder in cfg.VideoEncoderPriority in
// order, tracking the one with the lowest encoded_percent as the best
// (spec.md §4.3 "CRF search"). It returns the elapsed wall time regardless
// of outcome, matching spec.md §3's SuccessRecord.elapsed.crf_search field.
func searchCRF(ctx context.Context, searcher adapters.CRFSearcher, path string, cfg *config.Config) (crfResult, time.Duration, error) {
	start := time.Now()
	best := crfResult{encodedPercent: 101} // sentinel worse than any valid percent

	found := false
	for _, encoder := range cfg.VideoEncoderPriority {
		crf, pct, _, _, err := searcher.Search(ctx, encoder, path, cfg.SampleEvery, cfg.MaxEncodedPercent, cfg.TargetVMAF)
		if err != nil {
			continue
		}
		if !validCRFResult(crf, pct, cfg.MaxEncodedPercent) {
			continue
		}
		if pct < best.encodedPercent {
			best = crfResult{encoder: encoder, crf: crf, encodedPercent: pct}
			found = true
		}
	}
	elapsed := time.Since(start)

	if found {
		return best, elapsed, nil
	}

	if cfg.AllowManualFallback && len(cfg.VideoEncoderPriority) > 0 {
		encoder, crf := manualEncoderAndCRF(cfg)
		return crfResult{encoder: encoder, crf: crf, encodedPercent: 100}, elapsed, nil
	}
	return crfResult{}, elapsed, errs.New(errs.KindCrfSearchExhausted, path, nil)
}

// validCRFResult reports whether a CRF-search parse is usable: crf must be
// within the transcoder's accepted range and encodedPercent must not
// exceed the configured ceiling (spec.md §4.3).
func validCRFResult(crf, encodedPercent, maxEncodedPercent int) bool {
	if crf < 0 || crf > 63 {
		return false
	}
	if encodedPercent < 0 || encodedPercent > maxEncodedPercent {
		return false
	}
	return true
}
