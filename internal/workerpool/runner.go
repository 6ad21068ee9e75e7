package workerpool

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/kerasty/smart-encoder/internal/adapters"
	"github.com/kerasty/smart-encoder/internal/config"
	"github.com/kerasty/smart-encoder/internal/errorrouter"
	"github.com/kerasty/smart-encoder/internal/errs"
	"github.com/kerasty/smart-encoder/internal/langdetect"
	"github.com/kerasty/smart-encoder/internal/logging"
	"github.com/kerasty/smart-encoder/internal/mediainfo"
	"github.com/kerasty/smart-encoder/internal/outputpaths"
	"github.com/kerasty/smart-encoder/internal/preencode"
	"github.com/kerasty/smart-encoder/internal/successlog"
	"github.com/kerasty/smart-encoder/internal/transcode"
)

// Pool wires the external adapters and shared config a batch run needs.
// RunRoot is normally equal to Config.InputDir (spec.md §6 "Persisted
// layout, relative to run root").
type Pool struct {
	Config      *config.Config
	RunRoot     string
	Log         *logging.Logger
	Transcoder  adapters.Transcoder
	CRFSearcher adapters.CRFSearcher
	Classifier  adapters.Classifier

	// combinedLogMu serializes AppendCombined calls across worker
	// goroutines; each call issues two independent Writes ("---\n" then
	// the YAML body), which concurrent callers could otherwise interleave
	// into an invalid multi-document combined_log.yaml.
	combinedLogMu sync.Mutex
}

// Run discovers files, dispatches them across Config.Processes workers,
// and returns aggregate stats once every worker has drained (spec.md §4.8).
func (p *Pool) Run(ctx context.Context) Summary {
	log := p.Log.Named("workerpool")
	stats := &RunStats{}

	files, err := Discover(p.Config)
	if err != nil {
		log.Error("file discovery failed", "err", err)
		return stats.Snapshot()
	}
	stats.Total = len(files)
	if len(files) == 0 {
		log.Warn("no candidate files found", "input_dir", p.Config.InputDir)
		return stats.Snapshot()
	}
	log.Info("discovered files", "count", len(files))

	var langDetect preencode.LanguageDetector
	if p.Classifier != nil {
		langDetect = langdetect.New(p.Classifier, p.Config)
	}

	workers := p.Config.Processes
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				if ctx.Err() != nil {
					continue
				}
				p.processFile(ctx, path, stats, langDetect)
			}
		}()
	}

feed:
	for _, f := range files {
		select {
		case jobs <- f:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if ctx.Err() != nil {
		log.Warn("interrupted, drained in-flight workers")
	}

	p.cleanup()
	return stats.Snapshot()
}

// processFile runs the per-file pipeline to exactly one terminal outcome:
// encoded, skipped, oversize, or quarantined (spec.md §4.8, §7 "exactly
// one outcome is observable").
func (p *Pool) processFile(ctx context.Context, path string, stats *RunStats, langDetect preencode.LanguageDetector) {
	log := p.Log.Named("worker")

	fi, err := os.Stat(path)
	if err != nil {
		log.Warn("stat failed, skipping", "path", path, "err", err)
		return
	}
	inputSize := fi.Size()

	info, err := mediainfo.Probe(ctx, path)
	if err != nil {
		p.routeError(path, err, nil)
		stats.addFailed()
		return
	}

	pe := &preencode.PreEncoder{
		Config:      p.Config,
		RunRoot:     p.RunRoot,
		CRFSearcher: p.CRFSearcher,
		LangDetect:  langDetect,
	}
	result, err := pe.Run(ctx, info)
	if err != nil {
		if kindErr, ok := errs.As(err); ok && kindErr.Kind.Soft() {
			p.recordSkip(path, preencode.SkipInfo{Reason: kindErr.Error()})
			stats.addSkipped()
			return
		}
		p.routeError(path, err, info)
		stats.addFailed()
		return
	}

	if result.Outcome == preencode.OutcomeSkipped {
		p.recordSkip(path, result.Skip)
		stats.addSkipped()
		return
	}

	if p.Config.DryRun {
		stats.addPlanned()
		log.Info("planned (dry run)", "input", path, "encoder", result.Plan.VideoEncoder, "crf", result.Plan.VideoCRF, "container", result.Plan.OutputContainer)
		return
	}

	enc := &transcode.Encoder{
		Config:     p.Config,
		RunRoot:    p.RunRoot,
		Transcoder: p.Transcoder,
		Log:        p.Log,
	}
	outcome, err := enc.Run(ctx, result.Plan)
	if err != nil {
		if kindErr, ok := errs.As(err); ok && kindErr.Kind.Oversize() {
			p.recordOversize(path)
			stats.addOversize()
			return
		}
		p.routeError(path, err, info)
		stats.addFailed()
		return
	}

	record := successlog.NewRecord(result.Plan, outcome, info.DurationSeconds, p.Config.TargetVMAF)
	if _, err := successlog.Write(p.Config, p.RunRoot, path, record); err != nil {
		log.Warn("failed writing per-file log", "path", path, "err", err)
	}
	p.combinedLogMu.Lock()
	err = successlog.AppendCombined(p.RunRoot, record)
	p.combinedLogMu.Unlock()
	if err != nil {
		log.Warn("failed appending combined log", "path", path, "err", err)
	}

	if p.Config.MoveRawFile {
		dest := outputpaths.RawArchivePath(p.RunRoot, path)
		if err := adapters.MoveFile(path, dest); err != nil {
			log.Warn("failed archiving raw original", "path", path, "err", err)
		}
	}

	stats.addEncoded(inputSize, outcome.OutputSize)
	log.Success("encoded", "input", path, "output", outcome.OutputPath, "ratio", outcome.RealizedRatio)
}

func (p *Pool) routeError(path string, cause error, info *mediainfo.MediaInfo) {
	kind := errs.KindTranscoderFailed
	diag := errorrouter.Context{}
	if e, ok := errs.As(cause); ok {
		kind = e.Kind
		diag = errorrouter.Context{
			Command:  e.Diagnostics.Command,
			ExitCode: e.Diagnostics.ExitCode,
			Stdout:   e.Diagnostics.Stdout,
			Stderr:   e.Diagnostics.Stderr,
		}
	}
	router := &errorrouter.Router{RunRoot: p.RunRoot}
	if err := router.Route(path, kind, cause, info, diag); err != nil {
		p.Log.Named("worker").Error("failed to quarantine file", "path", path, "err", err)
	}
}

func (p *Pool) recordSkip(path string, skip preencode.SkipInfo) {
	if err := appendSkippedLedger(p.RunRoot, skip.Reason); err != nil {
		p.Log.Named("worker").Warn("failed to append skip ledger", "err", err)
	}
	dest := outputpaths.SkipBucketPath(p.RunRoot, path)
	if err := adapters.MoveFile(path, dest); err != nil {
		p.Log.Named("worker").Warn("failed to move skipped file", "path", path, "err", err)
	}
}

func (p *Pool) recordOversize(path string) {
	dest := outputpaths.OversizeBucketPath(p.RunRoot, path)
	if err := adapters.MoveFile(path, dest); err != nil {
		p.Log.Named("worker").Warn("failed to move oversize file", "path", path, "err", err)
	}
}

func appendSkippedLedger(runRoot, reason string) error {
	path := outputpaths.SkippedLedgerPath(runRoot)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(reason + "\n")
	return err
}

// cleanup implements spec.md §4.8's shutdown steps: remove empty
// directories left behind by archive moves, and move the run's "_raw"
// archive to the configured completion root once nothing but already-moved
// files remain in the input tree.
func (p *Pool) cleanup() {
	removeEmptyDirs(p.Config.InputDir)
	p.archiveRawIfComplete()
}

func removeEmptyDirs(root string) {
	var dirs []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err == nil && d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	for _, d := range dirs {
		_ = os.Remove(d) // fails silently (ENOTEMPTY) when the dir still has content
	}
}

func (p *Pool) archiveRawIfComplete() {
	if !p.Config.MoveRawFile || p.Config.OutputDir == "" {
		return
	}
	rawDir := filepath.Join(p.RunRoot, "_raw")
	if _, err := os.Stat(rawDir); err != nil {
		return
	}
	remaining, err := Discover(p.Config)
	if err != nil || len(remaining) > 0 {
		return
	}
	if err := os.MkdirAll(p.Config.OutputDir, 0o755); err != nil {
		p.Log.Named("workerpool").Warn("failed to create completion root", "err", err)
		return
	}
	dest := filepath.Join(p.Config.OutputDir, "_raw")
	if err := os.Rename(rawDir, dest); err != nil {
		p.Log.Named("workerpool").Warn("failed to relocate raw archive", "err", err)
	}
}
