package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch outcomes recorded in quotebook_quote_fetches_total.
const (
	FetchResultSuccess    = "success"
	FetchResultFailure    = "failure"
	FetchResultCanceled   = "canceled"
	FetchResultSuperseded = "superseded"
)

// Metrics holds the session's Prometheus collectors.
type Metrics struct {
	fetches   *prometheus.CounterVec
	persists  *prometheus.CounterVec
	favorites prometheus.Gauge
}

// NewMetrics creates the session collectors and registers them on reg.
// A nil reg yields working but unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		fetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quotebook",
			Name:      "quote_fetches_total",
			Help:      "Quote fetches by outcome.",
		}, []string{"result"}),
		persists: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quotebook",
			Name:      "favorites_persist_total",
			Help:      "Favorites load and save attempts by operation and outcome.",
		}, []string{"op", "result"}),
		favorites: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "quotebook",
			Name:      "favorites_count",
			Help:      "Number of quotes in the in-memory favorites collection.",
		}),
	}
}

func (m *Metrics) fetch(result string) {
	m.fetches.WithLabelValues(result).Inc()
}

func (m *Metrics) persist(op string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}

	m.persists.WithLabelValues(op, result).Inc()
}

func (m *Metrics) setFavorites(n int) {
	m.favorites.Set(float64(n))
}
