// Package check provides system diagnostics (--check mode) and pre-pipeline
// dependency validation (CheckDeps) for the external tools spec.md §6
// "Environment" names as collaborators: ffmpeg, ffprobe, the ab-av1
// CRF-search helper, and the classify language-detection binary.
package check

import (
	"errors"
	"os/exec"
	"strings"

	"github.com/kerasty/smart-encoder/internal/config"
)

// Sentinel errors returned by CheckDeps when a required tool is missing.
var (
	ErrFfmpegNotFound  = errors.New("ffmpeg not found on PATH")
	ErrFfprobeNotFound = errors.New("ffprobe not found on PATH")
	ErrAbAV1NotFound   = errors.New("ab-av1 not found on PATH")
	ErrClassifyNotFound = errors.New("classify not found on PATH")
)

// Logger is the minimal logging interface RunCheck and CheckDeps need.
// Defined here rather than importing internal/logging directly so this
// package stays dependency-light and testable with a mock.
type Logger interface {
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// RunCheck runs the interactive --check flow, reporting the availability of
// every external collaborator the pipeline shells out to. Informational
// only: it never stops early on a missing tool.
func RunCheck(cfg *config.Config, log Logger) {
	log.Info("=== System Check ===")

	checkFfmpeg(log)
	checkFfprobe(log)
	checkAbAV1(log)
	checkClassify(cfg, log)
}

func checkFfmpeg(log Logger) {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		log.Error("ffmpeg not found on PATH")
		return
	}
	out, err := exec.Command("ffmpeg", "-version").Output()
	if err != nil {
		log.Warn("ffmpeg found but -version failed", "path", path, "err", err)
		return
	}
	log.Info("ffmpeg found", "path", path, "version", firstLine(out))
}

func checkFfprobe(log Logger) {
	path, err := exec.LookPath("ffprobe")
	if err != nil {
		log.Error("ffprobe not found on PATH")
		return
	}
	out, err := exec.Command("ffprobe", "-version").Output()
	if err != nil {
		log.Warn("ffprobe found but -version failed", "path", path, "err", err)
		return
	}
	log.Info("ffprobe found", "path", path, "version", firstLine(out))
}

func checkAbAV1(log Logger) {
	path, err := exec.LookPath("ab-av1")
	if err != nil {
		log.Warn("ab-av1 not found on PATH; --manual-mode still works without it")
		return
	}
	log.Info("ab-av1 found", "path", path)
}

// checkClassify only warns when the language allow-list is actually in use,
// since a run with an empty allow-list never invokes the classifier.
func checkClassify(cfg *config.Config, log Logger) {
	path, err := exec.LookPath("classify")
	if err != nil {
		if len(cfg.LanguageAllowList) > 0 {
			log.Warn("classify not found on PATH; audio streams missing a language tag will fall back to configured default", "fallback", cfg.LanguageFallback)
		}
		return
	}
	log.Info("classify found", "path", path)
}

// CheckDeps is the pre-pipeline validation run before a batch starts: ffmpeg
// and ffprobe must be present unconditionally, ab-av1 must be present unless
// --manual-mode skips CRF search entirely, and classify must be present
// whenever a language allow-list requires it.
func CheckDeps(cfg *config.Config) error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return ErrFfmpegNotFound
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return ErrFfprobeNotFound
	}
	if !cfg.ManualMode {
		if _, err := exec.LookPath("ab-av1"); err != nil {
			return ErrAbAV1NotFound
		}
	}
	if len(cfg.LanguageAllowList) > 0 {
		if _, err := exec.LookPath("classify"); err != nil {
			return ErrClassifyNotFound
		}
	}
	return nil
}

func firstLine(out []byte) string {
	s := strings.TrimSpace(string(out))
	if idx := strings.Index(s, "\n"); idx > 0 {
		s = s[:idx]
	}
	return s
}
