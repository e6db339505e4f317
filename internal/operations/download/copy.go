package download

import (
	"context"
	"io"
)

const copyBufferSize = 32 * 1024

// writeError marks a failure on the local side of a copy.
type writeError struct{ err error }

func (e *writeError) Error() string { return e.err.Error() }
func (e *writeError) Unwrap() error { return e.err }

// copyWithContext copies src to dst, checking ctx before every read and
// calling onChunk with the running total after every write.
func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader, onChunk func(written int64)) (int64, error) {
	buf := make([]byte, copyBufferSize)
	var written int64

	for {
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		default:
		}

		nr, readErr := src.Read(buf)
		if nr > 0 {
			nw, err := dst.Write(buf[:nr])
			if nw > 0 {
				written += int64(nw)
				if onChunk != nil {
					onChunk(written)
				}
			}
			if err != nil {
				return written, &writeError{err}
			}
			if nr != nw {
				return written, &writeError{io.ErrShortWrite}
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				return written, nil
			}
			return written, readErr
		}
	}
}
