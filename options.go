package geotimezone

import (
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

// config contains the options a Lookup is built with.
type config struct {
	logger     log.FieldLogger
	dataDir    string
	layout     Layout
	cacheSize  uint64
	registerer prometheus.Registerer
}

// Option is a functional option for configuring a Lookup.
type Option func(*config)

// WithLogger sets the logger used for table loading. The default is the
// logrus standard logger.
func WithLogger(logger log.FieldLogger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithDataDir makes New look for TZ.dat and TZL.dat (optionally with a .gz
// or .bz2 suffix) in dir before using the embedded tables. It has no effect
// on NewFromReaders.
func WithDataDir(dir string) Option {
	return func(c *config) {
		c.dataDir = dir
	}
}

// WithLayout sets the record layout of the index table. Only needed for
// datasets built with a precision or reference width other than
// DefaultLayout.
func WithLayout(layout Layout) Option {
	return func(c *config) {
		c.layout = layout
	}
}

// WithResultCache keeps the search results of up to size geohash cells in
// an LRU cache. Zero disables caching, which is the default.
func WithResultCache(size uint64) Option {
	return func(c *config) {
		c.cacheSize = size
	}
}

// WithRegisterer registers lookup metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *config) {
		c.registerer = reg
	}
}

// defaultConfig returns the default configuration.
func defaultConfig() *config {
	return &config{
		logger: log.StandardLogger(),
		layout: DefaultLayout,
	}
}
