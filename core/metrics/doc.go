// Package metrics defines the recorder port for prediction outcomes. Sinks
// such as PromSink and InfluxSink live in infra/metrics and register
// themselves with the factory here; NewPredictionRecorder builds a single
// recorder, or a MultiSink when several sinks are configured.
package metrics
