package pkg

import (
	"io"

	"go.uber.org/multierr"
)

// CombinedWriter duplicates every write to all the underlying writers,
// continuing past the ones that fail.
type CombinedWriter struct {
	Writers []io.Writer
}

func NewCombinedWriter(writers ...io.Writer) *CombinedWriter {
	return &CombinedWriter{
		Writers: append([]io.Writer{}, writers...),
	}
}

// Write reports len(p) when at least one writer accepted the whole message,
// together with all the errors from the writers that failed.
func (cw *CombinedWriter) Write(p []byte) (int, error) {
	var err error
	written := 0
	for _, w := range cw.Writers {
		n, werr := w.Write(p)
		if werr != nil {
			err = multierr.Append(err, werr)
			continue
		}
		if n > written {
			written = n
		}
	}
	return written, err
}
