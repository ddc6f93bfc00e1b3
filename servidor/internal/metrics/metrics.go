package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	WSClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cityvision_ws_clients",
		Help: "Number of connected websocket clients",
	})
	TilesSentTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cityvision_tiles_sent_total",
		Help: "Total tile contents streamed to clients",
	})
	TilesSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cityvision_tiles_skipped_total",
		Help: "Tile requests skipped because the client already had the current version",
	})
	APIRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cityvision_api_requests_total",
		Help: "Total HTTP API requests by endpoint and status",
	}, []string{"endpoint", "status"})
	APIDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cityvision_api_duration_ms",
		Help:    "HTTP API request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"endpoint"})
	DecomposeDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cityvision_decompose_duration_ms",
		Help:    "Batch decomposition duration per tile in milliseconds",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500},
	})
	CityObjectsLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cityvision_city_objects_loaded",
		Help: "City objects currently held by the server registries",
	})
	PicksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cityvision_picks_total",
		Help: "Pick requests by result (hit, miss)",
	}, []string{"result"})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cityvision_cache_hits_total",
		Help: "Total attribute cache hits",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cityvision_cache_misses_total",
		Help: "Total attribute cache misses",
	})
	TilesEvictedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cityvision_tiles_evicted_total",
		Help: "Total tiles evicted from server memory",
	})
)

func init() {
	prometheus.MustRegister(WSClients)
	prometheus.MustRegister(TilesSentTotal)
	prometheus.MustRegister(TilesSkippedTotal)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIDurationMs)
	prometheus.MustRegister(DecomposeDurationMs)
	prometheus.MustRegister(CityObjectsLoaded)
	prometheus.MustRegister(PicksTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(TilesEvictedTotal)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
