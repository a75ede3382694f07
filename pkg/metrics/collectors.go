package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CollectionStats is a point-in-time view of the persisted collections
type CollectionStats struct {
	Users            int
	RequestsByStatus map[string]int
}

// StatsFunc reads the current collection stats
type StatsFunc func(ctx context.Context) (CollectionStats, error)

// CollectionStatsCollector reports collection sizes on every scrape
type CollectionStatsCollector struct {
	stats StatsFunc

	users    *prometheus.Desc
	requests *prometheus.Desc
	up       *prometheus.Desc
}

// NewCollectionStatsCollector creates a new collection stats collector
func NewCollectionStatsCollector(stats StatsFunc) *CollectionStatsCollector {
	return &CollectionStatsCollector{
		stats: stats,
		users: prometheus.NewDesc(
			"store_users",
			"Number of registered users",
			nil, nil,
		),
		requests: prometheus.NewDesc(
			"store_requests",
			"Number of customer requests by status",
			[]string{"status"}, nil,
		),
		up: prometheus.NewDesc(
			"store_up",
			"Whether the collection files could be read during the last scrape",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *CollectionStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.users
	ch <- c.requests
	ch <- c.up
}

// Collect implements prometheus.Collector
func (c *CollectionStatsCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	stats, err := c.stats(ctx)
	if err != nil {
		ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 0)
		return
	}

	ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 1)
	ch <- prometheus.MustNewConstMetric(c.users, prometheus.GaugeValue, float64(stats.Users))
	for status, n := range stats.RequestsByStatus {
		ch <- prometheus.MustNewConstMetric(c.requests, prometheus.GaugeValue, float64(n), status)
	}
}

// RegisterCollectors registers the collection stats collector once.
// Repeated registration (e.g. several servers in one test binary) is ignored.
func RegisterCollectors(stats StatsFunc) error {
	err := prometheus.Register(NewCollectionStatsCollector(stats))
	if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
		return nil
	}
	return err
}
