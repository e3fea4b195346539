package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds the dirkeep counters on a private registry so that a
// one-shot CLI run can push a consistent snapshot to a Pushgateway
type Metrics struct {
	registry *prometheus.Registry

	EntriesRemoved  prometheus.Counter
	EntriesSkipped  prometheus.Counter
	EntriesFailed   prometheus.Counter
	BytesReclaimed  prometheus.Counter
	ArchivesCreated prometheus.Counter
	ArchivesFailed  prometheus.Counter
}

// New creates and registers all dirkeep metrics
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		EntriesRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dirkeep_entries_removed_total",
			Help: "Number of directory entries successfully removed",
		}),
		EntriesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dirkeep_entries_skipped_total",
			Help: "Number of directory entries preserved by the exclusion set",
		}),
		EntriesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dirkeep_entries_failed_total",
			Help: "Number of directory entries still present after a removal attempt",
		}),
		BytesReclaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dirkeep_bytes_reclaimed_total",
			Help: "Bytes reclaimed by removed entries",
		}),
		ArchivesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dirkeep_archives_created_total",
			Help: "Number of archives successfully created",
		}),
		ArchivesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dirkeep_archives_failed_total",
			Help: "Number of archive attempts that failed",
		}),
	}

	m.registry.MustRegister(
		m.EntriesRemoved,
		m.EntriesSkipped,
		m.EntriesFailed,
		m.BytesReclaimed,
		m.ArchivesCreated,
		m.ArchivesFailed,
	)
	return m
}

// Push sends the current counter values to a Pushgateway.
// No-op when gateway is empty.
func (m *Metrics) Push(gateway, job string) error {
	if gateway == "" {
		return nil
	}
	return push.New(gateway, job).Gatherer(m.registry).Push()
}
