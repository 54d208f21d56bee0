package geotimezone

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var toyLayout = Layout{KeyWidth: 2, RefWidth: 1}

// newTestStore builds a store from records given as "key ref" pairs, e.g.
// "dp3w- 2".
func newTestStore(t testing.TB, layout Layout, records ...string) *recordStore {
	t.Helper()
	var b strings.Builder
	for _, r := range records {
		key, refText, ok := strings.Cut(r, " ")
		ref, err := strconv.Atoi(refText)
		if !ok || err != nil {
			t.Fatalf("bad test record %q", r)
		}
		fmt.Fprintf(&b, "%s%0*d\n", key, layout.RefWidth, ref)
	}
	s, err := newRecordStore([]byte(b.String()), layout)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func findRefs(t testing.TB, s *recordStore, code string) []int {
	t.Helper()
	m, err := find(s, code)
	if err != nil {
		t.Fatalf("find(%q) error: %v", code, err)
	}
	if m == nil {
		return nil
	}
	return m.refs
}

func TestFindToyTable(t *testing.T) {
	s := newTestStore(t, toyLayout, "0- 1", "01 2")

	tests := []struct {
		code string
		want []int
		key  string
	}{
		// "0-" is an ancestor of "00".
		{"00", []int{1}, "0"},
		// The ancestor is the first anchor the search reaches and wins; the
		// exact record "01" is not merged in.
		{"01", []int{1}, "0"},
		// Nothing covers "10".
		{"10", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			m, err := find(s, tt.code)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, m)
				return
			}
			require.NotNil(t, m)
			assert.Equal(t, tt.want, m.refs)
			assert.Equal(t, tt.key, m.key.String())
		})
	}
}

func TestFindExpandsBorderRuns(t *testing.T) {
	s := newTestStore(t, DefaultLayout,
		"9xp7v 3",
		"9xp7w 3",
		"9xp7w 2",
		"9xp7w 5",
		"9xp7x 3",
		"dp3w- 2",
	)

	m, err := find(s, "9xp7w")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, []int{2, 3, 5}, m.refs)
	assert.Equal(t, 2, m.first)
	assert.Equal(t, 4, m.last)

	assert.Equal(t, []int{3}, findRefs(t, s, "9xp7v"))
	assert.Equal(t, []int{3}, findRefs(t, s, "9xp7x"))
	assert.Equal(t, []int{2}, findRefs(t, s, "dp3wj"))
	assert.Nil(t, findRefs(t, s, "9xp7u"))
	assert.Nil(t, findRefs(t, s, "dp3x0"))
}

func TestFindRunsAtTableEdges(t *testing.T) {
	s := newTestStore(t, DefaultLayout,
		"00000 4",
		"00000 1",
		"g---- 2",
		"zzzzz 3",
		"zzzzz 1",
	)
	assert.Equal(t, []int{1, 4}, findRefs(t, s, "00000"))
	assert.Equal(t, []int{1, 3}, findRefs(t, s, "zzzzz"))
	assert.Equal(t, []int{2}, findRefs(t, s, "gcpvj"))
	assert.Nil(t, findRefs(t, s, "00001"))
	assert.Nil(t, findRefs(t, s, "zzzzy"))
}

func TestFindSingleRecord(t *testing.T) {
	s := newTestStore(t, DefaultLayout, "u09-- 7")
	assert.Equal(t, []int{7}, findRefs(t, s, "u09tv"))
	assert.Nil(t, findRefs(t, s, "u08zz"))
	assert.Nil(t, findRefs(t, s, "u0b00"))
}

func TestFindWholeTableIsOneRun(t *testing.T) {
	s := newTestStore(t, DefaultLayout, "u---- 3", "u---- 1", "u---- 2")
	assert.Equal(t, []int{1, 2, 3}, findRefs(t, s, "u09tv"))
}

func TestFindRejectsWrongWidth(t *testing.T) {
	s := newTestStore(t, DefaultLayout, "u---- 1")
	for _, code := range []string{"", "u09", "u09tvx"} {
		_, err := find(s, code)
		assert.ErrorIs(t, err, ErrInvalidGeohash, "find(%q)", code)
	}
}

// randomTable returns a sorted index over the geohash alphabet with keys of
// mixed depth, no cell inside another, and occasional border runs.
func randomTable(rng *rand.Rand, layout Layout) []string {
	var keys []string
	var walk func(prefix string)
	walk = func(prefix string) {
		for i := 0; i < len(base32); i++ {
			code := prefix + string(base32[i])
			switch r := rng.IntN(10); {
			case r < 5:
				// uncovered
			case r < 8 || len(code) == layout.KeyWidth:
				keys = append(keys, code+strings.Repeat(string(sentinel), layout.KeyWidth-len(code)))
			default:
				walk(code)
			}
		}
	}
	walk("")

	var records []string
	for _, k := range keys {
		n := 1
		if rng.IntN(8) == 0 {
			n += rng.IntN(3) + 1
		}
		for j := 0; j < n; j++ {
			records = append(records, fmt.Sprintf("%s %d", k, rng.IntN(99)+1))
		}
	}
	slices.Sort(records)
	return records
}

// fillCode expands a key to full width with random symbols, giving a query
// code that lies inside the key's cell.
func fillCode(rng *rand.Rand, key string) string {
	b := []byte(key)
	for i := range b {
		if b[i] == sentinel {
			b[i] = base32[rng.IntN(len(base32))]
		}
	}
	return string(b)
}

func TestFindEveryRecordByItsOwnKey(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 1))
	layout := Layout{KeyWidth: 3, RefWidth: 2}
	records := randomTable(rng, layout)
	s := newTestStore(t, layout, records...)
	require.NoError(t, (&tables{records: s, zones: &zoneTable{names: make([]string, 99)}}).validate())

	for i := 1; i <= s.lineCount(); i++ {
		field, err := s.keyField(i)
		require.NoError(t, err)
		ref, err := s.ref(i)
		require.NoError(t, err)

		code := fillCode(rng, string(field))
		m, err := find(s, code)
		require.NoError(t, err)
		require.NotNil(t, m, "line %d key %q: no match for %q", i, field, code)
		assert.True(t, m.first <= i && i <= m.last, "line %d outside matched range [%d, %d]", i, m.first, m.last)
		assert.Contains(t, m.refs, ref, "line %d key %q", i, field)
	}
}

// linearFind is the reference the binary search must agree with.
func linearFind(s *recordStore, code string) []int {
	var refs []int
	for i := 1; i <= s.lineCount(); i++ {
		k, _ := s.key(i)
		if k.covers(code) {
			ref, _ := s.ref(i)
			refs = append(refs, ref)
		}
	}
	slices.Sort(refs)
	return refs
}

func TestFindAgreesWithLinearScan(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 9))
	layout := Layout{KeyWidth: 3, RefWidth: 2}
	s := newTestStore(t, layout, randomTable(rng, layout)...)

	for i := 0; i < 3000; i++ {
		code := fillCode(rng, "---")
		assert.Equal(t, linearFind(s, code), findRefs(t, s, code), "code %q", code)
	}
}

// Searching a table that breaks the sort order must go wrong somewhere;
// otherwise the order would not be what the search depends on.
func TestFindFailsOnUnsortedTable(t *testing.T) {
	layout := Layout{KeyWidth: 3, RefWidth: 2}
	records := randomTable(rand.New(rand.NewPCG(5, 8)), layout)
	require.Greater(t, len(records), 10)

	failures := func(records []string) int {
		s := newTestStore(t, layout, records...)
		missed := 0
		for i := 1; i <= s.lineCount(); i++ {
			field, _ := s.keyField(i)
			ref, _ := s.ref(i)
			m, err := find(s, strings.ReplaceAll(string(field), "-", "0"))
			require.NoError(t, err)
			if m == nil || !slices.Contains(m.refs, ref) {
				missed++
			}
		}
		return missed
	}

	require.Zero(t, failures(records), "sorted table")

	reversed := slices.Clone(records)
	slices.Reverse(reversed)
	assert.Positive(t, failures(reversed), "reversed table")

	shuffled := slices.Clone(records)
	rng := rand.New(rand.NewPCG(13, 21))
	total := 0
	for i := 0; i < 5; i++ {
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		total += failures(shuffled)
	}
	assert.Positive(t, total, "shuffled tables")
}

func FuzzFind(f *testing.F) {
	layout := Layout{KeyWidth: 3, RefWidth: 2}
	s := newTestStore(f, layout, randomTable(rand.New(rand.NewPCG(77, 3)), layout)...)

	f.Add("000")
	f.Add("zzz")
	f.Add("u09")
	f.Fuzz(func(t *testing.T, code string) {
		if len(code) != layout.KeyWidth || !ValidGeohash(code) {
			return
		}
		want := linearFind(s, code)
		got := findRefs(t, s, code)
		if !slices.Equal(got, want) {
			t.Fatalf("find(%q) = %v, linear scan gives %v", code, got, want)
		}
	})
}
