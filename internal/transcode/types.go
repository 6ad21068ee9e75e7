// Package transcode is the execution core (spec.md §2 "Encoder (24%)"): it
// consumes an EncodePlan, builds and runs the external transcoder
// invocation, retries on container incompatibility and oversize output,
// and reports the realized result.
package transcode

import "time"

// Outcome is what a successful Run produces (spec.md §3 "SuccessRecord",
// the subset this package is responsible for — successlog fills in the
// rest: input hashes, stage timings, host identifiers).
type Outcome struct {
	OutputPath    string
	Container     string
	Encoder       string
	CRF           int
	InputSize     int64
	OutputSize    int64
	RealizedRatio float64 // OutputSize / InputSize, rounded to 4 decimals.
	EncodeElapsed time.Duration
	Attempts      int // total transcoder invocations, including retries.
}
