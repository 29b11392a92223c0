package archive

import (
	"io"
	"time"

	"github.com/klauspost/compress/gzip"
)

// NewControlGzipWriter returns the gzip writer used for the control archive.
// The header timestamp is zeroed for reproducibility; the compression level
// follows the fast toggle (BestSpeed) or defaults to BestCompression.
//
// klauspost/compress/gzip is a drop-in, faster implementation of the
// standard library codec; distri (github.com/distr1/distri) depends on the
// sibling github.com/klauspost/pgzip for the same reason.
func NewControlGzipWriter(w io.Writer, fast bool) (*gzip.Writer, error) {
	level := gzip.BestCompression
	if fast {
		level = gzip.BestSpeed
	}
	gw, err := gzip.NewWriterLevel(w, level)
	if err != nil {
		return nil, err
	}
	gw.ModTime = time.Time{}
	return gw, nil
}
