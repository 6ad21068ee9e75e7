package workerpool

import (
	"io/fs"
	"math/rand"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kerasty/smart-encoder/internal/config"
)

// Discover walks cfg.InputDir, collecting files whose extension is allowed
// for the configured mode and whose size meets cfg.MinimumFileSizeBytes,
// pruning any directory already produced by a prior run (the encoded root,
// "_raw", "encode_error", "oversize", "already_processed") so a re-run
// never rediscovers its own output. Results are sorted for determinism,
// then optionally shuffled (spec.md §4.8 "optionally shuffles for even
// progress reporting").
func Discover(cfg *config.Config) ([]string, error) {
	allowed := allowedExtensions(cfg)
	skipDirs := map[string]bool{
		strings.ToLower(cfg.EncodedRootDirName()): true,
		"_raw":               true,
		"encode_error":       true,
		"oversize":           true,
		"already_processed":  true,
	}

	var files []string
	err := filepath.WalkDir(cfg.InputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != cfg.InputDir && skipDirs[strings.ToLower(d.Name())] {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !allowed[ext] {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() < cfg.MinimumFileSizeBytes {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	if cfg.Random {
		rand.Shuffle(len(files), func(i, j int) { files[i], files[j] = files[j], files[i] })
	}
	return files, nil
}

func allowedExtensions(cfg *config.Config) map[string]bool {
	set := make(map[string]bool)
	exts := cfg.VideoExtensions
	if cfg.Mode() == config.ModeAudioOnly {
		exts = cfg.AudioExtensions
	}
	for _, e := range exts {
		set[strings.ToLower(e)] = true
	}
	return set
}
