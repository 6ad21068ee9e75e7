package adapters

import (
	"bytes"
	"context"
	"os/exec"
	"regexp"
	"strconv"
)

var (
	reCRF     = regexp.MustCompile(`(?i)crf (\d+)`)
	rePercent = regexp.MustCompile(`(\d+)%`)
)

// ExecCRFSearcher runs the real "ab-av1 crf-search" helper on PATH
// (spec.md §6 "CRF-search helper").
type ExecCRFSearcher struct{}

// Search runs `ab-av1 crf-search -e <encoder> -i <path> --sample-every
// <dur> --max-encoded-percent <int> --min-vmaf <int>` and parses `crf <N>`
// and `<N>%` tokens from stdout.
func (ExecCRFSearcher) Search(ctx context.Context, encoder, path, sampleEvery string, maxEncodedPercent, minVMAF int) (int, int, int, string, error) {
	cmd := exec.CommandContext(ctx, "ab-av1", "crf-search",
		"-e", encoder,
		"-i", path,
		"--sample-every", sampleEvery,
		"--max-encoded-percent", strconv.Itoa(maxEncodedPercent),
		"--min-vmaf", strconv.Itoa(minVMAF),
	)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	exitCode := 0
	if exitErr, ok := err.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
	} else if err != nil {
		return -1, -1, -1, "", err
	}

	stdout := out.String()
	crf, encodedPercent := parseCRFOutput(stdout)
	return crf, encodedPercent, exitCode, stdout, nil
}

// parseCRFOutput extracts the CRF and encoded-percentage tokens from the
// helper's stdout. Missing tokens are reported as -1 so callers can
// distinguish "not found" from a legitimately parsed 0.
func parseCRFOutput(stdout string) (crf, encodedPercent int) {
	crf, encodedPercent = -1, -1
	if m := reCRF.FindStringSubmatch(stdout); m != nil {
		crf, _ = strconv.Atoi(m[1])
	}
	if m := rePercent.FindStringSubmatch(stdout); m != nil {
		encodedPercent, _ = strconv.Atoi(m[1])
	}
	return crf, encodedPercent
}
