// Package metrics provides observability hooks for publish runs.
// A Recorder is injected into the pipeline; the noop implementation
// keeps metrics optional for one-shot CLI runs while the daemon wires
// the Prometheus implementation.
package metrics
