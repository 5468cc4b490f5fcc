// Package infra contains technical adapters: the authority HTTP
// client, the in-memory store, MQTT publishing and metric exporters.
// These packages depend only on the interfaces defined in core.
package infra
