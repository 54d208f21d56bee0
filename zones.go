package geotimezone

import (
	"bytes"
	"fmt"
)

// zoneTable is the ordered list of zone ids referenced by index records.
type zoneTable struct {
	names []string
}

// newZoneTable splits a newline-delimited name list. Line i of buf is zone
// reference i. A trailing newline and CRLF line endings are accepted.
func newZoneTable(buf []byte) (*zoneTable, error) {
	buf = bytes.TrimSuffix(buf, []byte("\n"))
	if len(buf) == 0 {
		return nil, fmt.Errorf("%w: zone table is empty", ErrCorruptData)
	}

	lines := bytes.Split(buf, []byte("\n"))
	t := &zoneTable{names: make([]string, len(lines))}
	for i, l := range lines {
		l = bytes.TrimSuffix(l, []byte("\r"))
		if len(l) == 0 {
			return nil, fmt.Errorf("%w: zone %d has no name", ErrCorruptData, i+1)
		}
		t.names[i] = string(l)
	}
	return t, nil
}

func (t *zoneTable) len() int { return len(t.names) }

// name returns the zone id for reference ref (1-based).
func (t *zoneTable) name(ref int) (string, error) {
	if ref < 1 || ref > len(t.names) {
		return "", fmt.Errorf("%w: zone reference %d of %d", ErrIndexOutOfRange, ref, len(t.names))
	}
	return t.names[ref-1], nil
}
