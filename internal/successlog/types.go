// Package successlog writes per-file SuccessRecord documents and
// aggregates them into an end-of-run combined log (spec.md §3
// "SuccessRecord", §4.7 "Logger").
package successlog

// Elapsed breaks a SuccessRecord's timing down by pipeline stage
// (spec.md §8 "elapsed.total >= elapsed.crf_search + elapsed.encode").
type Elapsed struct {
	CRFSearchSeconds float64 `yaml:"crf_search_seconds"`
	EncodeSeconds    float64 `yaml:"encode_seconds"`
	TotalSeconds     float64 `yaml:"total_seconds"`
}

// Host carries the identifying information spec.md §3 requires on every
// SuccessRecord.
type Host struct {
	Hostname string `yaml:"hostname"`
	CPUModel string `yaml:"cpu_model"`
	CPUCores int     `yaml:"cpu_cores"`
}

// Record is one successful output's audit trail (spec.md §3
// "SuccessRecord").
type Record struct {
	InputPath          string  `yaml:"input_path"`
	InputMD5           string  `yaml:"input_md5"`
	InputSHA256        string  `yaml:"input_sha256"`
	Encoder            string  `yaml:"encoder"`
	CRF                int     `yaml:"crf"`
	EstimatedRatio     float64 `yaml:"estimated_ratio"`
	RealizedRatio      float64 `yaml:"realized_ratio"`
	Elapsed            Elapsed `yaml:"elapsed"`
	SourceDurationSecs float64 `yaml:"source_duration_seconds"`
	SourceDurationHuman string `yaml:"source_duration_human"`
	TargetVMAF         int     `yaml:"target_vmaf"`
	OutputPath         string  `yaml:"output_path"`
	Host               Host    `yaml:"host"`
}
