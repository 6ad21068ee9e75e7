// Package errorrouter quarantines a file that failed PreEncoder or Encoder,
// deriving the quarantine location from its error kind and moving both the
// input and its diagnostics there (spec.md §4.6).
package errorrouter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kerasty/smart-encoder/internal/adapters"
	"github.com/kerasty/smart-encoder/internal/errs"
	"github.com/kerasty/smart-encoder/internal/mediainfo"
	"github.com/kerasty/smart-encoder/internal/outputpaths"
)

// Router moves failed files into <run_root>/encode_error/<Kind>/<mirror>/
// and writes error.txt and probe.json siblings alongside them.
type Router struct {
	RunRoot string
}

// Context carries the diagnostic detail spec.md §4.6 requires in error.txt:
// the failing command, exit code, and stdout/stderr tails. Any field may be
// empty when the failure occurred before a command was ever run.
type Context struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
}

// Route quarantines path for a failure of the given kind. info may be nil
// when the failure occurred before Probe produced one (e.g. Probe itself
// failed) — probe.json is then omitted.
func (r *Router) Route(path string, kind errs.Kind, cause error, info *mediainfo.MediaInfo, diag Context) error {
	dir := outputpaths.ErrorQuarantineDir(r.RunRoot, path, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	dest := filepath.Join(dir, filepath.Base(path))
	if err := adapters.MoveFile(path, dest); err != nil {
		return fmt.Errorf("quarantine move %s: %w", path, err)
	}

	if err := writeErrorText(filepath.Join(dir, "error.txt"), path, kind, cause, diag); err != nil {
		return err
	}

	if info != nil {
		if err := writeProbeJSON(filepath.Join(dir, "probe.json"), info); err != nil {
			return err
		}
	}
	return nil
}

func writeErrorText(path, inputPath string, kind errs.Kind, cause error, diag Context) error {
	var b strings.Builder
	fmt.Fprintf(&b, "time: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&b, "input: %s\n", inputPath)
	fmt.Fprintf(&b, "kind: %s\n", kind)
	if cause != nil {
		fmt.Fprintf(&b, "cause: %v\n", cause)
	}
	if diag.Command != "" {
		fmt.Fprintf(&b, "command: %s\n", diag.Command)
		fmt.Fprintf(&b, "exit_code: %d\n", diag.ExitCode)
	}
	if diag.Stdout != "" {
		fmt.Fprintf(&b, "stdout tail:\n%s\n", tail(diag.Stdout, 4000))
	}
	if diag.Stderr != "" {
		fmt.Fprintf(&b, "stderr tail:\n%s\n", tail(diag.Stderr, 4000))
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func writeProbeJSON(path string, info *mediainfo.MediaInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// tail returns the last n bytes of s, or all of s if shorter.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
