// Package providers contains dependency injection providers for the launcher backend.
package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for queued writes on shutdown.
	shutdownTimeout = 30 * time.Second
)
