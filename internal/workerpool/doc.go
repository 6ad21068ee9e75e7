// Package workerpool is the batch entry point (spec.md §4.8 WorkerPool):
// it discovers candidate files under a run root, dispatches them to N
// parallel workers each running Probe -> PreEncoder -> Encoder ->
// Logger|ErrorRouter -> archive-original to completion, and performs
// end-of-run cleanup.
package workerpool
