package archive

import (
	"io"
	"time"

	"github.com/blakesmith/ar"
)

// Member is a single named file destined for the outer ar container.
type Member struct {
	Name string
	Body []byte
}

// WriteContainer writes the fixed ar member sequence that makes up a .deb
// file: debian-binary, then control.tar.<ext>, then data.tar.<ext>, each
// with a 60-byte header (timestamp 0, uid/gid 0, mode 100644) and each body
// padded to an even length with a trailing "\n" when odd, per the classic ar
// format.
func WriteContainer(w io.Writer, members []Member) (int64, error) {
	cw := &countingWriter{w: w}
	aw := ar.NewWriter(cw)
	if err := aw.WriteGlobalHeader(); err != nil {
		return cw.n, err
	}

	epoch := time.Unix(0, 0)
	for _, m := range members {
		hdr := &ar.Header{
			Name:    m.Name,
			Size:    int64(len(m.Body)),
			Mode:    0100644,
			ModTime: epoch,
		}
		if err := aw.WriteHeader(hdr); err != nil {
			return cw.n, err
		}
		before := cw.n
		if _, err := aw.Write(m.Body); err != nil {
			return cw.n, err
		}
		// The ar writer may already pad an odd body itself; add the "\n"
		// only when the bytes it wrote for this body are still odd.
		if (cw.n-before)%2 != 0 {
			if _, err := cw.Write([]byte{'\n'}); err != nil {
				return cw.n, err
			}
		}
	}
	return cw.n, nil
}

// countingWriter wraps an io.Writer and counts bytes written, so callers can
// report the final archive size without a second pass.
type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
