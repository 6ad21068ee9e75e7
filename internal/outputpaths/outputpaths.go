// Package outputpaths is the single place that maps an input file's
// identity to every location the pipeline ever reads or writes for it
// (spec.md §2 "OutputPaths (4%) — pure function ... Used by all of the
// above to keep path policy in one place."). Every function here is a
// pure function of its arguments; none touch the filesystem.
package outputpaths

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kerasty/smart-encoder/internal/config"
	"github.com/kerasty/smart-encoder/internal/errs"
)

// mirror returns inputPath's directory, relative to runRoot, so every
// output tree reproduces the input tree's shape (spec.md §6). If
// inputPath isn't under runRoot, the absolute directory (minus its
// leading separator) is used instead so paths stay relative.
func mirror(runRoot, inputPath string) string {
	dir := filepath.Dir(inputPath)
	rel, err := filepath.Rel(runRoot, dir)
	if err != nil || strings.HasPrefix(rel, "..") {
		return strings.TrimPrefix(dir, string(filepath.Separator))
	}
	if rel == "." {
		return ""
	}
	return rel
}

func stem(inputPath string) string {
	base := filepath.Base(inputPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// EncodedDir returns the mirrored output directory for inputPath under
// the run's "<encoder_name>_encoded" root.
func EncodedDir(cfg *config.Config, runRoot, inputPath string) string {
	return filepath.Join(runRoot, cfg.EncodedRootDirName(), mirror(runRoot, inputPath))
}

// EncodedFile returns the target output file path for inputPath, with
// container as its extension family ("mp4" or "mkv").
func EncodedFile(cfg *config.Config, runRoot, inputPath, container string) string {
	ext := "." + strings.TrimPrefix(container, ".")
	return filepath.Join(EncodedDir(cfg, runRoot, inputPath), stem(inputPath)+ext)
}

// CmdFile returns the path of the literal-transcoder-command log for
// inputPath (spec.md §6 "cmd.txt").
func CmdFile(cfg *config.Config, runRoot, inputPath string) string {
	return filepath.Join(EncodedDir(cfg, runRoot, inputPath), "cmd.txt")
}

// StateFile returns the EncodeState sidecar path for inputPath.
func StateFile(cfg *config.Config, runRoot, inputPath string) string {
	return filepath.Join(EncodedDir(cfg, runRoot, inputPath), "state.json")
}

// LogFile returns a per-file success-record path, named with the run date
// and a random suffix to avoid collisions (spec.md §6, §4.7).
func LogFile(cfg *config.Config, runRoot, inputPath, dateStamp, randSuffix string) string {
	name := fmt.Sprintf("log_%s_%s.yaml", dateStamp, randSuffix)
	return filepath.Join(EncodedDir(cfg, runRoot, inputPath), name)
}

// RawArchivePath returns where inputPath's original file is archived when
// --move-raw-file is set (spec.md §6 "_raw/<mirror>/<original_filename>").
func RawArchivePath(runRoot, inputPath string) string {
	return filepath.Join(runRoot, "_raw", mirror(runRoot, inputPath), filepath.Base(inputPath))
}

// ErrorQuarantineDir returns the quarantine directory for inputPath under
// the given error kind (spec.md §4.6).
func ErrorQuarantineDir(runRoot, inputPath string, kind errs.Kind) string {
	safeKind := strings.ReplaceAll(string(kind), string(filepath.Separator), "_")
	return filepath.Join(runRoot, "encode_error", safeKind, mirror(runRoot, inputPath))
}

// SkippedLedgerPath returns the run-local append-only skip ledger path.
func SkippedLedgerPath(runRoot string) string {
	return filepath.Join(runRoot, "skipped.txt")
}

// CombinedLogPath returns the end-of-run aggregate log path.
func CombinedLogPath(runRoot string) string {
	return filepath.Join(runRoot, "combined_log.yaml")
}

// OversizeBucketPath returns where a file exhausting its oversize retries
// is moved (spec.md §4.5, §7: "routed to an oversize bucket distinct from
// failures").
func OversizeBucketPath(runRoot, inputPath string) string {
	return filepath.Join(runRoot, "oversize", mirror(runRoot, inputPath), filepath.Base(inputPath))
}

// SkipBucketPath returns where a skipped file is moved aside to (spec.md
// §4.3 "A skip ... moves the file to an already processed bucket").
func SkipBucketPath(runRoot, inputPath string) string {
	return filepath.Join(runRoot, "already_processed", mirror(runRoot, inputPath), filepath.Base(inputPath))
}
