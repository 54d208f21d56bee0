package geotimezone

import (
	"errors"

	"github.com/jellydator/ttlcache/v3"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

// Lookup outcomes, used as the "result" label.
const (
	outcomeMatched  = "matched"  // one zone
	outcomeBorder   = "border"   // several zones share the cell
	outcomeFallback = "fallback" // no coverage, longitude band used
	outcomeInvalid  = "invalid"  // rejected input
)

// metrics holds the collectors of one Lookup. A nil *metrics records
// nothing.
type metrics struct {
	lookups *prometheus.CounterVec
	records prometheus.Gauge
	zones   prometheus.Gauge
}

// newMetrics registers the lookup collectors with reg. Collectors already
// registered by another Lookup on the same registry are shared. A failed
// registration is logged and leaves the Lookup without metrics.
func newMetrics(reg prometheus.Registerer, cache *ttlcache.Cache[string, *match], logger log.FieldLogger) *metrics {
	if reg == nil {
		return nil
	}

	m := &metrics{
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geotimezone_lookups_total",
				Help: "Total number of time zone lookups by result",
			},
			[]string{"result"},
		),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "geotimezone_index_records",
			Help: "Number of records in the loaded index table",
		}),
		zones: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "geotimezone_zones",
			Help: "Number of zone ids in the loaded zone table",
		}),
	}

	var err error
	if m.lookups, err = register(reg, m.lookups); err != nil {
		logger.WithError(err).Warn("geotimezone: metrics disabled")
		return nil
	}
	if m.records, err = register(reg, m.records); err != nil {
		logger.WithError(err).Warn("geotimezone: metrics disabled")
		return nil
	}
	if m.zones, err = register(reg, m.zones); err != nil {
		logger.WithError(err).Warn("geotimezone: metrics disabled")
		return nil
	}

	if cache != nil {
		hits := prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "geotimezone_cache_hits_total",
			Help: "Total number of lookups answered from the result cache",
		}, func() float64 { return float64(cache.Metrics().Hits) })
		misses := prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "geotimezone_cache_misses_total",
			Help: "Total number of lookups that missed the result cache",
		}, func() float64 { return float64(cache.Metrics().Misses) })
		for _, c := range []prometheus.Collector{hits, misses} {
			if err := reg.Register(c); err != nil {
				logger.WithError(err).Warn("geotimezone: cache metrics not registered")
			}
		}
	}
	return m
}

// register registers c, or returns the collector already registered under
// the same descriptor.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing, nil
		}
	}
	return c, err
}

func (m *metrics) observe(outcome string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(outcome).Inc()
}

func (m *metrics) loaded(records, zones int) {
	if m == nil {
		return
	}
	m.records.Set(float64(records))
	m.zones.Set(float64(zones))
}
