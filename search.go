package geotimezone

import (
	"bytes"
	"fmt"
	"slices"
)

// match is the outcome of a prefix range search.
type match struct {
	key   cellKey // key shared by every matched record
	first int     // first matched line, 1-based
	last  int     // last matched line, inclusive
	refs  []int   // zone references, ascending
}

// find returns every zone reference whose index key covers code, which must
// be exactly KeyWidth characters. A nil match with a nil error means no
// record covers the code.
//
// The index is a variable-depth tree flattened into one sorted array, so a
// single binary search reaches a cell at any depth: a probe whose key runs
// into the sentinel is an ancestor of the query and matches outright. Border
// cells are stored as a run of records with identical keys; the run around
// the first matching probe is collected by walking outwards.
func find(s *recordStore, code string) (*match, error) {
	if len(code) != s.layout.KeyWidth {
		return nil, fmt.Errorf("%w: %q is not %d characters", ErrInvalidGeohash, code, s.layout.KeyWidth)
	}

	anchor, err := seek(s, code)
	if err != nil || anchor == 0 {
		return nil, err
	}

	key, err := s.keyField(anchor)
	if err != nil {
		return nil, err
	}
	first, last := anchor, anchor
	for first > 1 {
		prev, err := s.keyField(first - 1)
		if err != nil {
			return nil, err
		}
		if !bytes.Equal(prev, key) {
			break
		}
		first--
	}
	for last < s.lineCount() {
		next, err := s.keyField(last + 1)
		if err != nil {
			return nil, err
		}
		if !bytes.Equal(next, key) {
			break
		}
		last++
	}

	m := &match{first: first, last: last, refs: make([]int, 0, last-first+1)}
	if m.key, err = s.key(anchor); err != nil {
		return nil, err
	}
	for i := first; i <= last; i++ {
		ref, err := s.ref(i)
		if err != nil {
			return nil, err
		}
		m.refs = append(m.refs, ref)
	}
	slices.Sort(m.refs)
	return m, nil
}

// seek binary searches for a line whose key matches code and returns it, or
// 0 when there is none. The first matching probe wins; with a well-formed
// index every matching line carries the same key.
//
// Bounds are inclusive. When they meet, the single surviving line is still
// probed before the search gives up, and every probe moves a bound past
// itself, so the loop ends after at most log2(N)+1 probes.
func seek(s *recordStore, code string) (int, error) {
	lo, hi := 1, s.lineCount()
	for lo <= hi {
		mid := lo + (hi-lo)/2
		field, err := s.keyField(mid)
		if err != nil {
			return 0, err
		}
		switch compareKey(field, code) {
		case 0:
			return mid, nil
		case 1:
			hi = mid - 1
		default:
			lo = mid + 1
		}
	}
	return 0, nil
}
