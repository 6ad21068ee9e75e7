package adapters

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"

	"github.com/kerasty/smart-encoder/internal/logging"
)

// ExecTranscoder runs the real "ffmpeg" binary on PATH.
type ExecTranscoder struct {
	Verbose bool
	Log     *logging.Logger
}

// Run invokes ffmpeg with args, tee-ing stderr to the process's own stderr
// when Verbose so an operator watching the run sees live progress, while
// always capturing both stdout and stderr for [transcode]'s retry
// classification and for the diagnostics ErrorRouter writes to error.txt.
func (t *ExecTranscoder) Run(ctx context.Context, args []string) (string, string, int, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	if t.Verbose {
		cmd.Stderr = io.MultiWriter(&errBuf, os.Stderr)
	} else {
		cmd.Stderr = &errBuf
	}

	err := cmd.Run()
	exitCode := 0
	if exitErr, ok := err.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
	} else if err != nil {
		exitCode = -1
	}
	return outBuf.String(), errBuf.String(), exitCode, err
}
