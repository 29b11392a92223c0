package archive

import (
	"io"

	"github.com/ulikunitz/xz"
)

// fastDictCap and defaultDictCap approximate xz preset 1 and preset 6; the
// ulikunitz/xz package has no notion of numbered presets, only a dictionary
// capacity, so these are the closest deterministic stand-ins.
const (
	fastDictCap    = 1 << 20 // 1 MiB, ~preset 1
	defaultDictCap = 1 << 23 // 8 MiB, ~preset 6
)

// NewDataXzWriter returns the xz (LZMA2) writer used for the data archive.
// The fast toggle trades compression ratio for a smaller dictionary and
// faster build times, mirroring cargo-deb's --fast flag semantics.
func NewDataXzWriter(w io.Writer, fast bool) (*xz.Writer, error) {
	cfg := xz.WriterConfig{DictCap: defaultDictCap}
	if fast {
		cfg.DictCap = fastDictCap
	}
	if err := cfg.Verify(); err != nil {
		return nil, err
	}
	return cfg.NewWriter(w)
}
