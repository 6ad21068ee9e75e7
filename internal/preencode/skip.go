package preencode

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kerasty/smart-encoder/internal/config"
	"github.com/kerasty/smart-encoder/internal/errs"
	"github.com/kerasty/smart-encoder/internal/mediainfo"
)

// checkSkip applies spec.md §4.3's skip rules in order; the first match
// wins. It returns (skip, reason) — a skip is never an error.
func checkSkip(info *mediainfo.MediaInfo, cfg *config.Config) (bool, SkipInfo) {
	// Rule 1: already encoded. The comment tag holds the full serialized
	// payload block (spec.md §6), not the bare sentinel, so this is a
	// substring test against its "comment: <sentinel>" entry.
	if strings.Contains(info.CommentTag, cfg.EncodedSentinel) {
		return true, SkipInfo{
			Reason:   fmt.Sprintf("%s: already encoded (comment tag matches sentinel)", info.Path),
			Sentinel: cfg.EncodedSentinel,
		}
	}

	// Rule 2: oversize marker in filename, automatic runs only.
	if !cfg.ManualMode {
		name := strings.ToLower(filepath.Base(info.Path))
		for _, marker := range cfg.OversizeMarkers {
			if marker == "" {
				continue
			}
			if strings.Contains(name, strings.ToLower(marker)) {
				return true, SkipInfo{
					Reason:   fmt.Sprintf("%s: filename carries oversize marker %q", info.Path, marker),
					Sentinel: marker,
				}
			}
		}
	}

	// Rule 3: container bitrate at or below floor.
	if info.ContainerBitrateBps <= int64(cfg.BitrateFloorBps) {
		return true, SkipInfo{
			Reason: fmt.Sprintf("%s: bitrate %d at or below floor %d", info.Path, info.ContainerBitrateBps, cfg.BitrateFloorBps),
		}
	}

	// Rule 4: excluded container format.
	for _, excluded := range cfg.ExcludedContainerFormats {
		if strings.EqualFold(info.ContainerFormat, excluded) {
			return true, SkipInfo{
				Reason: fmt.Sprintf("%s: container format %q is excluded", info.Path, info.ContainerFormat),
			}
		}
	}

	return false, SkipInfo{}
}

// checkNoStreams applies skip rule 5, which is a hard error (routed to the
// no_streams quarantine), not a skip: mode == video with zero video
// streams.
func checkNoStreams(info *mediainfo.MediaInfo, mode config.Mode) error {
	if mode == config.ModeVideo && !info.HasVideo() {
		return errs.New(errs.KindNoStreamsFound, info.Path, nil)
	}
	return nil
}
