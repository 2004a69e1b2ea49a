// Package pipeline runs the stages of a phishing check in order.
//
// A check passes through four steps: resolve, denylist, heuristic and
// classifier. Each step records a model.StageResult on the shared
// model.Detection and may fix the verdict. Once a verdict is fixed the
// remaining steps are recorded as skipped and never run, so an earlier stage
// always wins over a later one.
//
// BatchProcessor checks many URLs concurrently with errgroup, keeping the
// results in input order.
package pipeline
