// Package geotimezone maps coordinates to IANA time zone ids offline.
//
// Lookups run against two read-only tables shipped inside the package: an
// index of geohash cells sorted by key, and the list of zone ids the cells
// refer to. Points outside every cell, such as open ocean, resolve to a
// nominal Etc/GMT zone from their longitude.
//
// Example:
//
//	r, err := geotimezone.GetTimeZone(41.8781, -87.6298)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(r.TimeZone()) // America/Chicago
package geotimezone

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/golang/geo/s2"
	"github.com/jellydator/ttlcache/v3"
	"github.com/paulmach/orb"
	log "github.com/sirupsen/logrus"
)

// Result is the answer to a lookup. It always holds at least one zone id.
type Result struct {
	// TimeZones are the candidate zone ids in table order. Points near a
	// border can have more than one; choosing between them is up to the
	// caller.
	TimeZones []string
	// Fallback is set when no index cell covers the point and TimeZones
	// holds the single longitude-band zone.
	Fallback bool
	// Cell is the geohash prefix of the matched index key, empty on
	// fallback. Every point in the cell resolves to the same zones.
	Cell string
}

// TimeZone returns the first candidate zone id.
func (r Result) TimeZone() string {
	if len(r.TimeZones) == 0 {
		return ""
	}
	return r.TimeZones[0]
}

// Alternatives returns the candidates after the first, if any.
func (r Result) Alternatives() []string {
	if len(r.TimeZones) < 2 {
		return nil
	}
	return r.TimeZones[1:]
}

// Bounds returns the area covered by the matched cell, or an empty
// rectangle for a fallback result.
func (r Result) Bounds() s2.Rect {
	if r.Cell == "" {
		return s2.EmptyRect()
	}
	b, err := CellBounds(r.Cell)
	if err != nil {
		return s2.EmptyRect()
	}
	return b
}

// tables are the decoded index and zone tables of a Lookup.
type tables struct {
	records *recordStore
	zones   *zoneTable
}

// tableSource opens the index and zone tables. desc names where they came
// from, for logging.
type tableSource func() (records, zones io.ReadCloser, desc string, err error)

// Lookup resolves coordinates against one dataset. Tables are read and
// decompressed on first use, at most once, and are immutable afterwards.
// Safe for concurrent use.
type Lookup struct {
	cfg     *config
	load    func() (*tables, error)
	cache   *ttlcache.Cache[string, *match]
	metrics *metrics
}

// New returns a Lookup over the embedded tables, or over the tables in the
// directory given with WithDataDir.
//
// Example:
//
//	l, err := geotimezone.New(geotimezone.WithResultCache(4096))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	r, err := l.GetTimeZone(48.8566, 2.3522)
func New(opts ...Option) (*Lookup, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return newLookup(cfg, func() (io.ReadCloser, io.ReadCloser, string, error) {
		records, recordsDesc, err := openAsset(cfg.dataDir, indexAsset)
		if err != nil {
			return nil, nil, "", err
		}
		zones, zonesDesc, err := openAsset(cfg.dataDir, zonesAsset)
		if err != nil {
			records.Close()
			return nil, nil, "", err
		}
		return records, zones, recordsDesc + ", " + zonesDesc, nil
	})
}

// NewFromReaders returns a Lookup over caller-supplied tables, each either
// gzip, bzip2 or plain text. The readers are consumed on first use, so they
// must stay readable until then; call Load to read them straight away.
func NewFromReaders(records, zones io.Reader, opts ...Option) (*Lookup, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return newLookup(cfg, func() (io.ReadCloser, io.ReadCloser, string, error) {
		return io.NopCloser(records), io.NopCloser(zones), "reader", nil
	})
}

func newLookup(cfg *config, src tableSource) (*Lookup, error) {
	if err := cfg.layout.validate(); err != nil {
		return nil, err
	}
	if cfg.logger == nil {
		cfg.logger = log.StandardLogger()
	}

	l := &Lookup{cfg: cfg}
	if cfg.cacheSize > 0 {
		l.cache = ttlcache.New[string, *match](
			ttlcache.WithCapacity[string, *match](cfg.cacheSize),
		)
	}
	l.metrics = newMetrics(cfg.registerer, l.cache, cfg.logger)
	l.load = sync.OnceValues(func() (*tables, error) {
		t, err := l.loadTables(src)
		if err != nil {
			cfg.logger.WithError(err).Error("geotimezone: loading tables")
			return nil, err
		}
		return t, nil
	})
	return l, nil
}

// loadTables reads and decodes both tables.
func (l *Lookup) loadTables(src tableSource) (*tables, error) {
	start := time.Now()
	recordsR, zonesR, desc, err := src()
	if err != nil {
		return nil, err
	}
	defer recordsR.Close()
	defer zonesR.Close()

	buf, err := readTable(recordsR)
	if err != nil {
		return nil, fmt.Errorf("reading index table: %w", err)
	}
	records, err := newRecordStore(buf, l.cfg.layout)
	if err != nil {
		return nil, fmt.Errorf("reading index table: %w", err)
	}

	buf, err = readTable(zonesR)
	if err != nil {
		return nil, fmt.Errorf("reading zone table: %w", err)
	}
	zones, err := newZoneTable(buf)
	if err != nil {
		return nil, fmt.Errorf("reading zone table: %w", err)
	}

	l.metrics.loaded(records.lineCount(), zones.len())
	l.cfg.logger.WithFields(log.Fields{
		"records": records.lineCount(),
		"zones":   zones.len(),
		"source":  desc,
		"elapsed": time.Since(start),
	}).Debug("geotimezone: tables loaded")
	return &tables{records: records, zones: zones}, nil
}

// Load reads the tables if that has not happened yet and returns the load
// error, if any. The same error is returned by every later call on l.
func (l *Lookup) Load() error {
	_, err := l.load()
	return err
}

// Layout returns the record layout the Lookup was configured with.
func (l *Lookup) Layout() Layout { return l.cfg.layout }

// GetTimeZone returns the time zones at a coordinate.
func (l *Lookup) GetTimeZone(lat, lon float64) (Result, error) {
	if err := checkCoordinate(lat, lon); err != nil {
		l.metrics.observe(outcomeInvalid)
		return Result{}, err
	}
	t, err := l.load()
	if err != nil {
		return Result{}, err
	}
	return l.resolve(t, encode(lat, lon, t.records.layout.KeyWidth), lon)
}

// TimeZonesAt returns the time zones at an orb point (longitude, latitude).
func (l *Lookup) TimeZonesAt(p orb.Point) (Result, error) {
	return l.GetTimeZone(p.Lat(), p.Lon())
}

// LookupCode returns the time zones of a geohash cell. The code must have
// the table's precision. A fallback result uses the longitude of the cell
// centre.
func (l *Lookup) LookupCode(code string) (Result, error) {
	if !ValidGeohash(code) || len(code) != l.cfg.layout.KeyWidth {
		l.metrics.observe(outcomeInvalid)
		return Result{}, fmt.Errorf("%w: %q does not have precision %d", ErrInvalidGeohash, code, l.cfg.layout.KeyWidth)
	}
	t, err := l.load()
	if err != nil {
		return Result{}, err
	}
	_, lon := cellCenter(code)
	return l.resolve(t, code, lon)
}

// resolve searches for code and maps the references to zone names, falling
// back to the longitude band when nothing matches.
func (l *Lookup) resolve(t *tables, code string, lon float64) (Result, error) {
	m, err := l.search(t, code)
	if err != nil {
		return Result{}, err
	}
	if m == nil {
		l.metrics.observe(outcomeFallback)
		return Result{TimeZones: []string{FallbackTimeZone(lon)}, Fallback: true}, nil
	}

	zones := make([]string, 0, len(m.refs))
	for _, ref := range m.refs {
		name, err := t.zones.name(ref)
		if err != nil {
			return Result{}, fmt.Errorf("cell %q: %w", m.key, err)
		}
		zones = append(zones, name)
	}

	if len(zones) > 1 {
		l.metrics.observe(outcomeBorder)
	} else {
		l.metrics.observe(outcomeMatched)
	}
	return Result{TimeZones: zones, Cell: m.key.String()}, nil
}

// search runs find through the result cache, when there is one. Misses are
// cached too, as nil.
func (l *Lookup) search(t *tables, code string) (*match, error) {
	if l.cache != nil {
		if item := l.cache.Get(code); item != nil {
			return item.Value(), nil
		}
	}
	m, err := find(t.records, code)
	if err != nil {
		return nil, err
	}
	if l.cache != nil {
		l.cache.Set(code, m, ttlcache.NoTTL)
	}
	return m, nil
}

// Singleton for the package-level functions.
var (
	defaultLookup     *Lookup
	defaultLookupOnce sync.Once
	defaultLookupErr  error
)

// Default returns the process-wide Lookup over the embedded tables, loading
// them on the first call. It lives until the process exits.
func Default() (*Lookup, error) {
	defaultLookupOnce.Do(func() {
		defaultLookup, defaultLookupErr = New()
		if defaultLookupErr == nil {
			defaultLookupErr = defaultLookup.Load()
		}
	})
	return defaultLookup, defaultLookupErr
}

// GetTimeZone returns the time zones at a coordinate using the Default
// Lookup.
func GetTimeZone(lat, lon float64) (Result, error) {
	l, err := Default()
	if err != nil {
		return Result{}, err
	}
	return l.GetTimeZone(lat, lon)
}
