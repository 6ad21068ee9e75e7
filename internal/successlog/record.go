package successlog

import (
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	gopshost "github.com/shirou/gopsutil/v4/host"

	"github.com/kerasty/smart-encoder/internal/display"
	"github.com/kerasty/smart-encoder/internal/preencode"
	"github.com/kerasty/smart-encoder/internal/transcode"
)

// NewRecord assembles a Record from a completed plan and its realized
// outcome. The CRF-search time comes from plan.CRFSearchElapsed and the
// encode time from outcome.EncodeElapsed, which only covers the transcode
// stage; the total is their sum.
func NewRecord(plan *preencode.EncodePlan, outcome *transcode.Outcome, sourceDurationSeconds float64, targetVMAF int) Record {
	total := plan.CRFSearchElapsed + outcome.EncodeElapsed
	return Record{
		InputPath:      plan.Input.Path,
		InputMD5:       plan.Input.MD5,
		InputSHA256:    plan.Input.SHA256,
		Encoder:        outcome.Encoder,
		CRF:            outcome.CRF,
		EstimatedRatio: plan.EstimatedSizeRatio,
		RealizedRatio:  outcome.RealizedRatio,
		Elapsed: Elapsed{
			CRFSearchSeconds: plan.CRFSearchElapsed.Seconds(),
			EncodeSeconds:    outcome.EncodeElapsed.Seconds(),
			TotalSeconds:     total.Seconds(),
		},
		SourceDurationSecs: sourceDurationSeconds,
		SourceDurationHuman: display.FormatDuration(sourceDurationSeconds),
		TargetVMAF:         targetVMAF,
		OutputPath:         outcome.OutputPath,
		Host:               currentHost(),
	}
}

// currentHost reports the identifying fields spec.md §3 wants on every
// SuccessRecord. Fields that fail to resolve are left at their zero value
// rather than aborting the record.
func currentHost() Host {
	h := Host{CPUCores: runtime.NumCPU()}

	if name, err := os.Hostname(); err == nil {
		h.Hostname = name
	}
	if info, err := gopshost.Info(); err == nil && info.Hostname != "" {
		h.Hostname = info.Hostname
	}
	if cpus, err := cpu.Info(); err == nil && len(cpus) > 0 {
		h.CPUModel = cpus[0].ModelName
	}
	return h
}
