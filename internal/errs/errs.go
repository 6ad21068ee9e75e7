// Package errs defines the pipeline's error-kind taxonomy. Kinds are values,
// not exception types: every fallible operation returns (result, error) and
// callers switch on [Kind] rather than type-asserting concrete error types.
package errs

import "fmt"

// Kind identifies the category of a pipeline failure. The zero value is
// never used; callers must always set a Kind when constructing an [Error].
type Kind string

const (
	// Probe.*
	KindUnreadable        Kind = "Probe.Unreadable"
	KindMalformedMetadata Kind = "Probe.MalformedMetadata"
	KindNoDuration        Kind = "Probe.NoDuration"

	// PreEncode.*
	KindCrfSearchExhausted    Kind = "PreEncode.CrfSearchExhausted"
	KindNoSuitableAudio       Kind = "PreEncode.NoSuitableAudio"
	KindUnsupportedContainer  Kind = "PreEncode.UnsupportedContainer"
	KindBitRateBelowThreshold Kind = "PreEncode.BitRateBelowThreshold" // soft: skip, not failure
	KindAlreadyEncoded        Kind = "PreEncode.AlreadyEncoded"        // soft: skip
	KindNoStreamsFound        Kind = "PreEncode.NoStreamsFound"

	// Encode.*
	KindTranscoderFailed      Kind = "Encode.TranscoderFailed"
	KindContainerIncompatible Kind = "Encode.ContainerIncompatible"
	KindOversizeExhausted     Kind = "Encode.OversizeExhausted" // routed to oversize bucket, not quarantine
	KindIO                    Kind = "Encode.Io"

	// Orchestrator.*
	KindToolMissing     Kind = "Orchestrator.ToolMissing"
	KindInvalidArgs     Kind = "Orchestrator.InvalidArguments"
	KindInterrupted     Kind = "Orchestrator.Interrupted"
)

// Soft reports whether kind is a soft skip: resolved locally, logged to the
// skip ledger, and never routed to the error quarantine.
func (k Kind) Soft() bool {
	switch k {
	case KindBitRateBelowThreshold, KindAlreadyEncoded:
		return true
	default:
		return false
	}
}

// Oversize reports whether kind belongs to the oversize bucket, which is
// distinct from both skips and error quarantine.
func (k Kind) Oversize() bool {
	return k == KindOversizeExhausted
}

// Error is the concrete error type carried through the pipeline. Every
// fallible component wraps its underlying cause (a parse failure, a
// nonzero exit code, an I/O error) in one of these so ErrorRouter can
// dispatch on Kind alone.
type Error struct {
	Kind    Kind
	Message string
	Cause   error

	// Diagnostics carries the failing command and its captured output, when
	// the failure came from invoking an external process, so ErrorRouter can
	// write it into error.txt (spec.md §4.6). Zero value when the failure
	// occurred before any command ran.
	Diagnostics Diagnostics
}

// Diagnostics is the failing-command detail spec.md §4.6 requires in
// error.txt: the command line, exit code, and stdout/stderr tails.
type Diagnostics struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
}

// New constructs an *Error. cause may be nil.
func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WithDiagnostics attaches command/output detail to e and returns it, for
// chaining onto New at the call site that actually ran the process.
func (e *Error) WithDiagnostics(d Diagnostics) *Error {
	e.Diagnostics = d
	return e
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// As reports whether err is an *Error and, if so, returns it.
func As(err error) (*Error, bool) {
	e, ok := err.(*Error)
	return e, ok
}
