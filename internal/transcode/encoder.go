package transcode

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/kerasty/smart-encoder/internal/adapters"
	"github.com/kerasty/smart-encoder/internal/config"
	"github.com/kerasty/smart-encoder/internal/encodestate"
	"github.com/kerasty/smart-encoder/internal/errs"
	"github.com/kerasty/smart-encoder/internal/logging"
	"github.com/kerasty/smart-encoder/internal/outputpaths"
	"github.com/kerasty/smart-encoder/internal/preencode"
)

// Encoder is the execution core (spec.md §2, §4.5). Config and RunRoot are
// shared, read-only across every file it processes; Transcoder is the
// external-process seam so tests can inject a fake.
type Encoder struct {
	Config     *config.Config
	RunRoot    string
	Transcoder adapters.Transcoder
	Log        *logging.Logger
}

// Run builds and executes the transcoder invocation for plan, retrying
// once on container incompatibility (MP4 -> MKV) and repeatedly on
// oversize output, and returns the realized outcome. A KindOversizeExhausted
// error is not a failure in the ErrorRouter sense (spec.md §4.5): callers
// should check err.(*errs.Error).Kind.Oversize() and route accordingly
// instead of quarantining.
func (e *Encoder) Run(ctx context.Context, plan *preencode.EncodePlan) (*Outcome, error) {
	container := plan.OutputContainer
	crf := plan.VideoCRF
	comment := FormatComment(plan.CommentPayload)

	outputPath := outputpaths.EncodedFile(e.Config, e.RunRoot, plan.Input.Path, container)
	cmdLogPath := outputpaths.CmdFile(e.Config, e.RunRoot, plan.Input.Path)
	statePath := outputpaths.StateFile(e.Config, e.RunRoot, plan.Input.Path)

	start := time.Now()
	attempts := 0

	// --- Container-incompatibility retry: at most one switch, MP4 -> MKV. ---
	stdout, stderr, exitCode, args, err := e.invoke(ctx, plan, crf, outputPath, comment, cmdLogPath)
	attempts++
	if err != nil || exitCode != 0 {
		if MatchContainerIncompatible(stderr) && container != "mkv" {
			_ = os.Remove(outputPath)
			container = "mkv"
			outputPath = outputpaths.EncodedFile(e.Config, e.RunRoot, plan.Input.Path, container)

			stdout, stderr, exitCode, args, err = e.invoke(ctx, plan, crf, outputPath, comment, cmdLogPath)
			attempts++
			if err != nil || exitCode != 0 {
				return nil, errs.New(errs.KindContainerIncompatible, plan.Input.Path, fmt.Errorf("mkv retry: %s", stderr)).
					WithDiagnostics(diagnostics(args, exitCode, stdout, stderr))
			}
		} else {
			return nil, errs.New(errs.KindTranscoderFailed, plan.Input.Path, fmt.Errorf("exit %d: %s", exitCode, stderr)).
				WithDiagnostics(diagnostics(args, exitCode, stdout, stderr))
		}
	}

	// --- Oversize retry loop. ---
	for i := 0; ; i++ {
		fi, statErr := os.Stat(outputPath)
		if statErr != nil {
			return nil, errs.New(errs.KindIO, outputPath, statErr)
		}
		outputSize := fi.Size()
		inputSize := plan.Input.SizeBytes

		if float64(outputSize) <= float64(inputSize)*e.Config.OversizeRatio {
			if e.Config.KeepMTime {
				if srcInfo, err := os.Stat(plan.Input.Path); err == nil {
					_ = os.Chtimes(outputPath, srcInfo.ModTime(), srcInfo.ModTime())
				}
			}
			ratio := roundTo4(float64(outputSize) / float64(inputSize))
			if e.Log != nil {
				e.Log.Named("transcode").Info("encode succeeded", "input", plan.Input.Path, "output", outputPath, "crf", crf, "ratio", ratio, "attempts", attempts)
			}
			return &Outcome{
				OutputPath:    outputPath,
				Container:     container,
				Encoder:       plan.VideoEncoder,
				CRF:           crf,
				InputSize:     inputSize,
				OutputSize:    outputSize,
				RealizedRatio: ratio,
				EncodeElapsed: time.Since(start),
				Attempts:      attempts,
			}, nil
		}

		if i >= e.Config.MaxOversizeRetries || crf > 63 {
			_ = os.Remove(outputPath)
			return nil, errs.New(errs.KindOversizeExhausted, plan.Input.Path, fmt.Errorf("output %d bytes exceeds input %d bytes after %d retries", outputSize, inputSize, i))
		}

		_ = os.Remove(outputPath)
		crf += int(math.Ceil(float64(crf) * float64(e.Config.ManualCRFIncrementPercent) / 100))
		if crf > 63 {
			return nil, errs.New(errs.KindOversizeExhausted, plan.Input.Path, fmt.Errorf("escalated crf %d exceeds maximum", crf))
		}

		// Fingerprint must match plan.go's exactly (full candidate list, not
		// just the chosen encoder) or a crash after this Save makes
		// encodestate.Resolve see a mismatch, discard the escalated CRF, and
		// re-run CRF search from scratch (spec.md §8 round-trip property).
		if err := encodestate.Save(statePath, &encodestate.State{
			PlanFingerprint: encodestate.Fingerprint(plan.Input.MD5, string(plan.Mode), plan.OutputContainer, e.Config.VideoEncoderPriority),
			Encoder:         plan.VideoEncoder,
			CRF:             crf,
			EncodedPercent:  int(math.Round(plan.EstimatedSizeRatio * 100)),
			AttemptCount:    attempts + 1,
		}); err != nil {
			return nil, errs.New(errs.KindIO, statePath, err)
		}

		if e.Log != nil {
			e.Log.Named("transcode").Outlier("oversize, escalating crf", "input", plan.Input.Path, "new_crf", crf, "retry", i+1)
		}

		stdout, stderr, exitCode, args, err = e.invoke(ctx, plan, crf, outputPath, comment, cmdLogPath)
		attempts++
		if err != nil || exitCode != 0 {
			return nil, errs.New(errs.KindTranscoderFailed, plan.Input.Path, fmt.Errorf("exit %d: %s", exitCode, stderr)).
				WithDiagnostics(diagnostics(args, exitCode, stdout, stderr))
		}
	}
}

// invoke builds the argument list for one attempt, appends it to cmd.txt
// (spec.md §6 "literal transcoder command for reproducibility"), and runs
// it via the Transcoder adapter.
func (e *Encoder) invoke(ctx context.Context, plan *preencode.EncodePlan, crf int, outputPath, comment, cmdLogPath string) (stdout, stderr string, exitCode int, args []string, err error) {
	args = Build(plan, crf, outputPath, comment)

	if logErr := appendCmdLog(cmdLogPath, args); logErr != nil && e.Log != nil {
		e.Log.Named("transcode").Warn("failed to append cmd.txt", "err", logErr)
	}

	stdout, stderr, exitCode, err = e.Transcoder.Run(ctx, args)
	return stdout, stderr, exitCode, args, err
}

// diagnostics assembles the failing-command detail ErrorRouter writes into
// error.txt (spec.md §4.6).
func diagnostics(args []string, exitCode int, stdout, stderr string) errs.Diagnostics {
	return errs.Diagnostics{
		Command:  formatCommand(args),
		ExitCode: exitCode,
		Stdout:   stdout,
		Stderr:   stderr,
	}
}

func formatCommand(args []string) string {
	cmd := "ffmpeg"
	for _, a := range args {
		cmd += " " + a
	}
	return cmd
}

func appendCmdLog(path string, args []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	line := "ffmpeg"
	for _, a := range args {
		line += " " + a
	}
	_, err = f.WriteString(line + "\n")
	return err
}

func roundTo4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
