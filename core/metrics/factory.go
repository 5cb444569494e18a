package metrics

import "github.com/kilianp07/healthpredictor/core/factory"

var sinkRegistry = factory.NewRegistry[PredictionRecorder]()

// RegisterSink adds a sink factory identified by name.
func RegisterSink(name string, f factory.Factory[PredictionRecorder]) error {
	return sinkRegistry.Register(name, f)
}

// SinkTypes lists the registered sink names.
func SinkTypes() []string { return sinkRegistry.Names() }

// NewPredictionRecorder creates a recorder from the provided configuration.
func NewPredictionRecorder(cfgs []factory.ModuleConfig) (PredictionRecorder, error) {
	if len(cfgs) == 0 {
		return NopSink{}, nil
	}
	if len(cfgs) == 1 {
		return sinkRegistry.Create(cfgs[0])
	}
	sinks := make([]PredictionRecorder, len(cfgs))
	for i, c := range cfgs {
		s, err := sinkRegistry.Create(c)
		if err != nil {
			return nil, err
		}
		sinks[i] = s
	}
	return NewMultiSink(sinks...), nil
}
