// Package transfer defines the boundary to the external storage collaborator.
//
// It declares a single-file, single-attempt Transferrer interface that the
// upload orchestrator consumes. Implementations (e.g., MinIO in the miniotr
// subpackage) own their own timeouts and internal retries; from the
// orchestrator's perspective a transfer either returns a durable URL or
// fails with a reason.
package transfer

import (
	"context"
	"io"
)

// Transferrer uploads one file's bytes and returns its durable URL.
// Implementations must be safe for concurrent use: the orchestrator calls
// Transfer from one goroutine per file in a batch.
type Transferrer interface {
	// Transfer stores the content under a location derived from name and
	// returns a durable, non-empty URL on success. A timeout inside the
	// implementation surfaces as an ordinary error.
	Transfer(ctx context.Context, name string, content io.Reader) (string, error)
}

// Func adapts a plain function to the Transferrer interface.
type Func func(ctx context.Context, name string, content io.Reader) (string, error)

// Transfer implements Transferrer.
func (f Func) Transfer(ctx context.Context, name string, content io.Reader) (string, error) {
	return f(ctx, name, content)
}
