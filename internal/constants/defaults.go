package constants

import "time"

// Centralized default values for timeouts and related settings.
// These provide sane defaults; environment/config may override where supported.

const (
	// HTTP surface
	HTTPReadTimeoutDefault  = 10 * time.Second
	HTTPWriteTimeoutDefault = 10 * time.Second

	// App shutdown
	GracefulShutdownTimeoutDefault = 10 * time.Second
)
