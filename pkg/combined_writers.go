package pkg

import (
	"io"

	"go.uber.org/multierr"
)

// CombinedWriter fans every write out to all of its writers. A failing
// writer does not stop the others; its error is combined into the result
// and kept in Err.
type CombinedWriter struct {
	Writers []io.Writer
	Err     error
}

func NewCombinedWriter(writers ...io.Writer) *CombinedWriter {
	cw := &CombinedWriter{}
	for _, w := range writers {
		if w == nil {
			continue
		}
		cw.Writers = append(cw.Writers, w)
	}
	return cw
}

// Write reports len(p) when at least one writer took the whole buffer,
// which keeps logrus from treating a partial fan-out as a short write.
func (cw *CombinedWriter) Write(p []byte) (int, error) {
	var err error
	written := 0
	for _, w := range cw.Writers {
		n, werr := w.Write(p)
		if werr != nil {
			err = multierr.Append(err, werr)
			continue
		}
		if n == len(p) {
			written = n
		}
	}
	if err != nil {
		cw.Err = multierr.Append(cw.Err, err)
	}
	return written, err
}
