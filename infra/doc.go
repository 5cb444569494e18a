// Package infra contains technical adapters: the prediction HTTP client,
// metrics exporters and the MQTT assessment publisher. These packages should
// depend only on the interfaces defined in the core packages.
package infra
