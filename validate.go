package geotimezone

import (
	"bytes"
	"fmt"
)

// Validate loads the tables and checks the index record by record: keys
// are geohash prefixes padded only at the end, references point into the
// zone table, keys never decrease, and no cell lies inside another one.
// The search relies on the last two; a dataset that fails them returns
// wrong or incomplete zones rather than an error. The first problem found
// is returned.
func (l *Lookup) Validate() error {
	t, err := l.load()
	if err != nil {
		return err
	}
	return t.validate()
}

func (t *tables) validate() error {
	s := t.records
	var prevField []byte
	var prevKey cellKey
	for i := 1; i <= s.lineCount(); i++ {
		field, err := s.keyField(i)
		if err != nil {
			return err
		}
		key, err := s.key(i)
		if err != nil {
			return err
		}
		if !ValidGeohash(key.code) {
			return fmt.Errorf("%w: line %d: key %q is not a geohash prefix", ErrCorruptData, i, field)
		}
		ref, err := s.ref(i)
		if err != nil {
			return err
		}
		if _, err := t.zones.name(ref); err != nil {
			return fmt.Errorf("line %d: %w", i, err)
		}

		if prevField != nil {
			switch c := bytes.Compare(prevField, field); {
			case c > 0:
				return fmt.Errorf("%w: line %d key %q follows %q", ErrUnsorted, i, field, prevField)
			case c < 0 && prevKey.covers(key.code):
				return fmt.Errorf("%w: line %d cell %q lies inside cell %q", ErrOverlappingCells, i, key, prevKey)
			}
		}
		prevField, prevKey = field, key
	}
	return nil
}
