package successlog

import (
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/kerasty/smart-encoder/internal/config"
	"github.com/kerasty/smart-encoder/internal/outputpaths"
)

// Write serializes r as YAML into its own log_<date>_<rand>.yaml file next
// to the encoded output (spec.md §4.7) and returns the path written.
func Write(cfg *config.Config, runRoot, inputPath string, r Record) (string, error) {
	dateStamp := time.Now().Format("20060102")
	randSuffix := uuid.NewString()[:8]
	path := outputpaths.LogFile(cfg, runRoot, inputPath, dateStamp, randSuffix)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	data, err := yaml.Marshal(r)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// AppendCombined appends r as a new document to the run's combined_log.yaml
// (spec.md §4.7 "end of run" aggregation). Each call opens, writes, and
// closes the file so concurrent workers never hold it open across calls;
// callers must still serialize their AppendCombined calls themselves (the
// worker pool does this with Pool.combinedLogMu) since each call issues two
// independent Writes that concurrent callers could otherwise interleave.
func AppendCombined(runRoot string, r Record) error {
	path := outputpaths.CombinedLogPath(runRoot)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteString("---\n"); err != nil {
		return err
	}
	_, err = f.Write(data)
	return err
}

// ReadCombined loads every document in the run's combined_log.yaml in file
// order. Decoding stops at the first document that fails to parse; the
// records read before it are returned.
func ReadCombined(runRoot string) ([]Record, error) {
	path := outputpaths.CombinedLogPath(runRoot)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	var records []Record
	for {
		var r Record
		if err := dec.Decode(&r); err != nil {
			break
		}
		records = append(records, r)
	}
	return records, nil
}
