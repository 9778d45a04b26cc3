// Package telemetry provides the structured logger and buffer-pool metrics
// shared by the storage core. Tracing/metrics aggregation as a product
// feature is out of scope for this module (spec.md §1); what lives here is
// the same ambient "say what you're doing" instrumentation the teacher
// repo did with fmt.Printf, done with the libraries the corpus reaches for.
package telemetry

import (
	"go.uber.org/zap"
)

// NewLogger returns a production zap logger. Callers that don't care about
// logging can pass zap.NewNop() instead.
func NewLogger() *zap.Logger {
	logger, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
