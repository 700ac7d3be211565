package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/uhppoted/eo-backup/backup"
	"github.com/uhppoted/eo-backup/log"
)

const (
	NAMESPACE = "eo"
	SUBSYSTEM = "backup"
)

// Run holds the metrics for a single backup or prune run. The metrics are registered on a
// private registry so that only the current run is pushed to the Pushgateway.
//
// Metrics:
//   - eo_backup_lists_exported: number of lists in the backup document
//   - eo_backup_contacts_exported: number of contacts in the backup document
//   - eo_backup_documents_created_total: number of backup documents created
//   - eo_backup_backups_removed: number of expired backups trashed
//   - eo_backup_backups_failed: number of expired backups that could not be trashed
//   - eo_backup_last_success_timestamp_seconds: completion time of the last successful run
//   - eo_backup_duration_seconds: duration of the run
type Run struct {
	id        string
	job       string
	operation string
	registry  *prometheus.Registry
	started   time.Time

	lists       prometheus.Gauge
	contacts    prometheus.Gauge
	documents   prometheus.Counter
	removed     prometheus.Gauge
	failed      prometheus.Gauge
	lastSuccess prometheus.Gauge
	duration    prometheus.Gauge
}

// NewRun creates the metrics for a run. The operation ('backup' or 'prune') is added to the
// Pushgateway grouping key so that the two jobs do not overwrite each other's metrics.
func NewRun(job, operation string) *Run {
	r := &Run{
		id:        uuid.NewString(),
		job:       job,
		operation: operation,
		registry:  prometheus.NewRegistry(),
		started:   time.Now(),

		lists: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: NAMESPACE,
			Subsystem: SUBSYSTEM,
			Name:      "lists_exported",
			Help:      "Number of mailing lists exported to the backup document",
		}),

		contacts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: NAMESPACE,
			Subsystem: SUBSYSTEM,
			Name:      "contacts_exported",
			Help:      "Number of contacts exported to the backup document",
		}),

		documents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: NAMESPACE,
			Subsystem: SUBSYSTEM,
			Name:      "documents_created_total",
			Help:      "Total number of backup documents created",
		}),

		removed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: NAMESPACE,
			Subsystem: SUBSYSTEM,
			Name:      "backups_removed",
			Help:      "Number of expired backup documents moved to the bin",
		}),

		failed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: NAMESPACE,
			Subsystem: SUBSYSTEM,
			Name:      "backups_failed",
			Help:      "Number of expired backup documents that could not be removed",
		}),

		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: NAMESPACE,
			Subsystem: SUBSYSTEM,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time at which the last successful run completed",
		}),

		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: NAMESPACE,
			Subsystem: SUBSYSTEM,
			Name:      "duration_seconds",
			Help:      "Duration of the run in seconds",
		}),
	}

	r.registry.MustRegister(
		r.lists,
		r.contacts,
		r.documents,
		r.removed,
		r.failed,
		r.duration)

	return r
}

// ID is a unique identifier for the run, used to correlate the log entries of scheduled runs.
func (r *Run) ID() string {
	return r.id
}

// Exported records the result of a backup. A nil summary or a summary without a document
// (no lists) records zero lists and no document.
func (r *Run) Exported(summary *backup.Summary) {
	if summary == nil {
		return
	}

	r.lists.Set(float64(summary.Lists))
	r.contacts.Set(float64(summary.Contacts))

	if summary.ID != "" {
		r.documents.Inc()
	}
}

func (r *Run) Pruned(result backup.Result) {
	r.removed.Set(float64(result.Removed))
	r.failed.Set(float64(result.Failed))
}

// Done records the run duration and, if the run succeeded, the completion timestamp. The
// timestamp is only registered for a successful run so that a failed run leaves the
// previously pushed timestamp unchanged.
func (r *Run) Done(err error) {
	now := time.Now()

	r.duration.Set(now.Sub(r.started).Seconds())

	if err == nil {
		r.lastSuccess.Set(float64(now.Unix()))
		if err := r.registry.Register(r.lastSuccess); err != nil {
			log.Debugf("%v", err)
		}
	}
}

// Push adds the run metrics to the Pushgateway group for the job and operation, replacing
// any metrics with the same names. Pushing is skipped if no Pushgateway is configured.
func (r *Run) Push(ctx context.Context, pushgateway string) error {
	if pushgateway == "" {
		return nil
	}

	log.Debugf("Pushing metrics to %v (job:%v operation:%v)", pushgateway, r.job, r.operation)

	pusher := push.New(pushgateway, r.job).
		Grouping("operation", r.operation).
		Gatherer(r.registry)

	if err := pusher.AddContext(ctx); err != nil {
		return fmt.Errorf("error pushing metrics to %v (%w)", pushgateway, err)
	}

	return nil
}
