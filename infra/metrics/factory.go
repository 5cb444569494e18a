package metrics

import (
	"github.com/kilianp07/healthpredictor/core/factory"
	coremetrics "github.com/kilianp07/healthpredictor/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// init registers built-in metrics sinks.
func init() {
	_ = coremetrics.RegisterSink("nop", func(map[string]any) (coremetrics.PredictionRecorder, error) {
		return coremetrics.NopSink{}, nil
	})

	// The scrape endpoint is served by StartPromServer on metrics.prometheus_addr.
	_ = coremetrics.RegisterSink("prometheus", func(map[string]any) (coremetrics.PredictionRecorder, error) {
		return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
	})

	_ = coremetrics.RegisterSink("influx", func(conf map[string]any) (coremetrics.PredictionRecorder, error) {
		var c struct {
			URL    string `json:"url"`
			Token  string `json:"token"`
			Org    string `json:"org"`
			Bucket string `json:"bucket"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
	})
}
