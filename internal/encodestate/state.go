// Package encodestate persists per-file in-flight encode choices so a
// crashed or restarted run can resume without re-running CRF search.
package encodestate

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// State is the durable sidecar for a single output path (spec.md §3
// "EncodeState"). It is single-writer: only the worker owning the output
// path's derivation ever touches it, so no lock beyond process isolation
// is required (spec.md §5).
type State struct {
	PlanFingerprint string `json:"plan_fingerprint"`
	Encoder         string `json:"encoder"`
	CRF             int    `json:"crf"`
	EncodedPercent  int    `json:"encoded_percent"`
	AttemptCount    int    `json:"attempt_count"`
	LastErrorKind   string `json:"last_error_kind,omitempty"`
}

// Fingerprint derives State.PlanFingerprint from the input's content hash
// and the plan fields that determine whether a resumed attempt is still
// valid: mode, container guess, and the set of encoder candidates. If any
// of these change between runs, the fingerprint changes and the stored
// state must be discarded (spec.md §4.4).
func Fingerprint(inputMD5 string, mode string, container string, encoderCandidates []string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%v", inputMD5, mode, container, encoderCandidates)
	return hex.EncodeToString(h.Sum(nil))
}

// Path returns the sidecar's on-disk location: state.json next to the
// output the state describes.
func Path(outputDir string) string {
	return filepath.Join(outputDir, "state.json")
}

// Load reads the sidecar at path. It returns (nil, nil) — not an error —
// if no sidecar exists yet, matching a fresh Encoder attempt.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse encode state %s: %w", path, err)
	}
	return &s, nil
}

// Save persists s to path atomically (write to a temp file, then rename),
// so a crash mid-write never leaves a corrupt sidecar behind.
func Save(path string, s *State) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Resolve loads the sidecar at path and validates it against fingerprint.
// If the stored fingerprint doesn't match (or no sidecar exists), Resolve
// returns (nil, false) and, when a stale sidecar was found, removes it —
// per spec.md §4.4 "On fingerprint mismatch the stored state is deleted."
func Resolve(path, fingerprint string) (*State, bool) {
	s, err := Load(path)
	if err != nil || s == nil {
		return nil, false
	}
	if s.PlanFingerprint != fingerprint {
		_ = os.Remove(path)
		return nil, false
	}
	return s, true
}
