// Package lifecycle holds constants shared by fx start/stop hooks.
package lifecycle

import "time"

// DefaultTimeout bounds every OnStart/OnStop hook (DB ping, server shutdown, client close).
const DefaultTimeout = 10 * time.Second
