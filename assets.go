package geotimezone

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"embed"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

// The embedded tables are a coarse sample covering a handful of zones.
// Regenerated full datasets are supplied with NewFromReaders or WithDataDir.
//
//go:embed data
var embeddedData embed.FS

// Table file names, without compression suffix.
const (
	indexAsset = "TZ.dat"
	zonesAsset = "TZL.dat"
)

var (
	gzipMagic  = []byte{0x1f, 0x8b}
	bzip2Magic = []byte("BZh")
)

// openAsset opens a table by name. Files in dataDir take precedence over the
// embedded copy so that a regenerated dataset can be dropped in without a
// rebuild; compressed variants are tried before the plain file. The returned
// string describes where the table came from.
func openAsset(dataDir, name string) (io.ReadCloser, string, error) {
	if dataDir != "" {
		for _, ext := range []string{".gz", ".bz2", ""} {
			p := filepath.Join(dataDir, name+ext)
			if fh, err := os.Open(p); err == nil {
				return fh, p, nil
			}
		}
	}
	fh, err := embeddedData.Open(path.Join("data", name+".gz"))
	if err != nil {
		return nil, "", fmt.Errorf("opening %s: %w", name, err)
	}
	return fh, "embedded " + name, nil
}

// decompress wraps r in a decoder chosen from its leading magic bytes: gzip,
// bzip2, or none for plain text.
func decompress(r io.Reader) (io.Reader, func() error, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(len(bzip2Magic))
	if err != nil && err != io.EOF {
		return nil, nil, err
	}

	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrCorruptData, err)
		}
		return zr, zr.Close, nil
	case bytes.HasPrefix(magic, bzip2Magic):
		return bzip2.NewReader(br), func() error { return nil }, nil
	}
	return br, func() error { return nil }, nil
}

// readTable decompresses a whole table into memory.
func readTable(r io.Reader) ([]byte, error) {
	dr, closeFn, err := decompress(r)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	buf, err := io.ReadAll(dr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptData, err)
	}
	return buf, nil
}
