package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/0xcro3dile/localrag-fts/internal/domain/entities"
	"github.com/0xcro3dile/localrag-fts/internal/domain/ports"
)

// Index metrics.
var (
	IndexOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "index_operation_duration_seconds",
			Help:      "Index operation duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"op"},
	)

	IndexErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_errors_total",
			Help:      "Total failed index operations",
		},
		[]string{"op"},
	)

	IndexFragments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_fragments",
			Help:      "Fragments stored after the last ingestion",
		},
	)

	SearchHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_hits_total",
			Help:      "Total fragments returned by searches",
		},
	)
)

func init() {
	prometheus.MustRegister(IndexOperationDuration)
	prometheus.MustRegister(IndexErrorsTotal)
	prometheus.MustRegister(IndexFragments)
	prometheus.MustRegister(SearchHitsTotal)
}

var _ ports.IndexStore = (*InstrumentedStore)(nil)

// InstrumentedStore records metrics around an IndexStore.
type InstrumentedStore struct {
	next ports.IndexStore
}

// InstrumentStore wraps store with metrics.
func InstrumentStore(store ports.IndexStore) *InstrumentedStore {
	return &InstrumentedStore{next: store}
}

// Replace implements ports.IndexStore.
func (s *InstrumentedStore) Replace(ctx context.Context, fragments []entities.Fragment) (int, error) {
	defer observe("replace", time.Now())
	n, err := s.next.Replace(ctx, fragments)
	if err != nil {
		IndexErrorsTotal.WithLabelValues("replace").Inc()
		return n, err
	}
	IndexFragments.Set(float64(n))
	return n, nil
}

// Search implements ports.IndexStore.
func (s *InstrumentedStore) Search(ctx context.Context, query string, k int) ([]entities.SearchHit, error) {
	defer observe("search", time.Now())
	hits, err := s.next.Search(ctx, query, k)
	if err != nil {
		IndexErrorsTotal.WithLabelValues("search").Inc()
		return hits, err
	}
	SearchHitsTotal.Add(float64(len(hits)))
	return hits, nil
}

// Count implements ports.IndexStore.
func (s *InstrumentedStore) Count(ctx context.Context) (int, error) {
	n, err := s.next.Count(ctx)
	if err != nil {
		IndexErrorsTotal.WithLabelValues("count").Inc()
		return n, err
	}
	IndexFragments.Set(float64(n))
	return n, nil
}

func observe(op string, start time.Time) {
	IndexOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
