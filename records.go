package geotimezone

import (
	"fmt"
)

// recordStore gives random access to the fixed-width records of a
// decompressed index table. The buffer is never written after construction,
// so lines are plain subslices and concurrent readers need no lock.
type recordStore struct {
	buf    []byte
	layout Layout
	n      int
}

// newRecordStore checks that buf is a whole number of newline-terminated
// records of the given layout. A missing final newline is accepted.
func newRecordStore(buf []byte, layout Layout) (*recordStore, error) {
	if err := layout.validate(); err != nil {
		return nil, err
	}
	if len(buf) == 0 {
		return nil, fmt.Errorf("%w: index table is empty", ErrCorruptData)
	}
	if buf[len(buf)-1] != '\n' {
		buf = append(buf, '\n')
	}

	stride := layout.stride()
	if len(buf)%stride != 0 {
		return nil, fmt.Errorf("%w: index table length %d is not a multiple of record width %d",
			ErrCorruptData, len(buf), stride)
	}
	n := len(buf) / stride
	for i := 1; i <= n; i++ {
		if buf[i*stride-1] != '\n' {
			return nil, fmt.Errorf("%w: record %d is not %d bytes wide", ErrCorruptData, i, layout.recordWidth())
		}
	}
	return &recordStore{buf: buf, layout: layout, n: n}, nil
}

// lineCount returns the number of records.
func (s *recordStore) lineCount() int { return s.n }

// line returns record i (1-based) without its terminator. The slice aliases
// the store and must not be modified.
func (s *recordStore) line(i int) ([]byte, error) {
	if i < 1 || i > s.n {
		return nil, fmt.Errorf("%w: line %d of %d", ErrIndexOutOfRange, i, s.n)
	}
	start := (i - 1) * s.layout.stride()
	return s.buf[start : start+s.layout.recordWidth() : start+s.layout.recordWidth()], nil
}

// keyField returns the raw, sentinel-padded key of record i.
func (s *recordStore) keyField(i int) ([]byte, error) {
	l, err := s.line(i)
	if err != nil {
		return nil, err
	}
	return l[:s.layout.KeyWidth], nil
}

// key returns the parsed key of record i.
func (s *recordStore) key(i int) (cellKey, error) {
	f, err := s.keyField(i)
	if err != nil {
		return cellKey{}, err
	}
	k, err := parseCellKey(f)
	if err != nil {
		return cellKey{}, fmt.Errorf("line %d: %w", i, err)
	}
	return k, nil
}

// ref returns the zone reference of record i.
func (s *recordStore) ref(i int) (int, error) {
	l, err := s.line(i)
	if err != nil {
		return 0, err
	}
	ref := 0
	for _, c := range l[s.layout.KeyWidth:] {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: line %d: reference %q is not a number",
				ErrCorruptData, i, l[s.layout.KeyWidth:])
		}
		ref = ref*10 + int(c-'0')
	}
	return ref, nil
}
