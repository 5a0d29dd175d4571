// Package delivery defines the servers the application runs.
package delivery

import "context"

// Delivery is a long-running server started by the application once the fx graph is built.
type Delivery interface {
	Serve(ctx context.Context) error
}
