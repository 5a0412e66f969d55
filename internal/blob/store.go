// Package blob stores uploaded session audio. The store hands out opaque
// references that are persisted on the session record and later resolved
// by the transcription worker.
package blob

import (
	"context"
	"io"
)

// Store persists audio blobs keyed by session.
type Store interface {
	// Put writes the blob and returns its reference.
	Put(ctx context.Context, sessionID, filename string, r io.Reader) (string, error)
	// Open resolves a reference returned by Put.
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	// Delete removes the blob for a reference. Deleting a missing blob is
	// not an error.
	Delete(ctx context.Context, ref string) error
}
