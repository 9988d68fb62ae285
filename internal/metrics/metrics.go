// Package metrics exposes the poll engine's cycle health as Prometheus
// metrics, a read-only side channel alongside the Query Interface rather
// than a replacement for it.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder is the set of cycle-health facts the poll engine reports
// after every cycle and every sensor read attempt.
type Recorder struct {
	cycleDuration   prometheus.Histogram
	lastCycleUnix   prometheus.Gauge
	sensorReadFails prometheus.Counter
	idProbeFails    prometheus.Counter
}

// New builds a Recorder and registers its collectors with reg. Passing a
// fresh prometheus.NewRegistry() keeps this module's metrics isolated
// from the default global registry.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "atca_monitor",
			Name:      "poll_cycle_duration_seconds",
			Help:      "Wall-clock duration of one crate+slot poll cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
		lastCycleUnix: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "atca_monitor",
			Name:      "poll_last_cycle_timestamp_seconds",
			Help:      "Unix timestamp at which the most recent cycle started.",
		}),
		sensorReadFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "atca_monitor",
			Name:      "sensor_read_failures_total",
			Help:      "Count of sensor reads that fell back to value 0.",
		}),
		idProbeFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "atca_monitor",
			Name:      "id_probe_failures_total",
			Help:      "Count of per-cycle Carrier ID probes that returned empty.",
		}),
	}
	reg.MustRegister(r.cycleDuration, r.lastCycleUnix, r.sensorReadFails, r.idProbeFails)
	return r
}

func (r *Recorder) ObserveCycle(startUnix float64, durationSeconds float64) {
	r.lastCycleUnix.Set(startUnix)
	r.cycleDuration.Observe(durationSeconds)
}

func (r *Recorder) IncSensorReadFailure() { r.sensorReadFails.Inc() }
func (r *Recorder) IncIDProbeFailure()    { r.idProbeFails.Inc() }
