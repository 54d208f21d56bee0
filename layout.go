package geotimezone

import (
	"bytes"
	"fmt"
)

// sentinel pads index keys shorter than the table precision. It sorts below
// every geohash symbol, so a short key lands directly before the full-length
// keys it is an ancestor of.
const sentinel = '-'

// Layout describes the fixed-width record format of an index table.
type Layout struct {
	KeyWidth int // geohash precision of the table
	RefWidth int // digits in the zero-padded zone reference
}

// DefaultLayout is the layout of the embedded index: five-character keys and
// three-digit references, nine bytes per record with the newline.
var DefaultLayout = Layout{KeyWidth: 5, RefWidth: 3}

// recordWidth is the width of a record without its terminator.
func (l Layout) recordWidth() int { return l.KeyWidth + l.RefWidth }

// stride is the distance between the starts of consecutive records.
func (l Layout) stride() int { return l.KeyWidth + l.RefWidth + 1 }

func (l Layout) validate() error {
	if l.KeyWidth < 1 || l.RefWidth < 1 {
		return fmt.Errorf("%w: layout %d+%d", ErrCorruptData, l.KeyWidth, l.RefWidth)
	}
	return nil
}

// cellKey is an index key with its sentinel padding removed: a geohash
// prefix of 1..KeyWidth characters naming the cell the record covers.
type cellKey struct {
	code string
}

// parseCellKey converts a raw key field into its tagged form.
func parseCellKey(field []byte) (cellKey, error) {
	n := bytes.IndexByte(field, sentinel)
	if n < 0 {
		n = len(field)
	}
	if n == 0 {
		return cellKey{}, fmt.Errorf("%w: empty key %q", ErrCorruptData, field)
	}
	for _, c := range field[n:] {
		if c != sentinel {
			return cellKey{}, fmt.Errorf("%w: key %q has symbols after padding", ErrCorruptData, field)
		}
	}
	return cellKey{code: string(field[:n])}, nil
}

// covers reports whether the cell contains every point whose geohash is code.
func (k cellKey) covers(code string) bool {
	return len(k.code) <= len(code) && code[:len(k.code)] == k.code
}

// String returns the real prefix.
func (k cellKey) String() string { return k.code }

// compareKey orders a raw key field against a query geohash of the same
// width. It returns 0 when the field matches, either because it reaches a
// sentinel (the field is an ancestor of the query) or because all bytes are
// equal; otherwise the sign of the first differing byte.
func compareKey(field []byte, code string) int {
	for i := 0; i < len(field); i++ {
		switch c := field[i]; {
		case c == sentinel:
			return 0
		case c > code[i]:
			return 1
		case c < code[i]:
			return -1
		}
	}
	return 0
}
