// Package transcribe converts recorded interview audio into transcript
// text through a pluggable speech-to-text backend.
package transcribe

import (
	"context"
	"io"
)

// Backend is a pluggable transcription backend. Implementations read the
// complete audio stream and return plain transcript text.
type Backend interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}
