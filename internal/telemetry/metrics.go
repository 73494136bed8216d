package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every perfsieve collector. It is separate from the default
// registry so textfile exports carry no Go runtime metrics.
var Registry = prometheus.NewRegistry()

var (
	passesTotal = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "perfsieve_passes_total",
		Help: "Analysis passes by language and outcome",
	}, []string{"language", "status"})

	passDuration = promauto.With(Registry).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "perfsieve_pass_duration_seconds",
		Help:    "Wall time of one analysis pass",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30},
	}, []string{"language"})

	unitsTotal = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "perfsieve_units_analyzed_total",
		Help: "Loops and type symbols visited",
	}, []string{"unit"})

	findingsTotal = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "perfsieve_findings_total",
		Help: "Findings emitted by rule",
	}, []string{"rule"})
)

// Pass outcomes.
const (
	StatusOK        = "ok"
	StatusCancelled = "cancelled"
	StatusError     = "error"
)

// Analysis units.
const (
	UnitLoop = "loop"
	UnitType = "type"
)

// ObservePass records one finished pass.
func ObservePass(language, status string, elapsed time.Duration) {
	passesTotal.WithLabelValues(language, status).Inc()
	passDuration.WithLabelValues(language).Observe(elapsed.Seconds())
}

// AddUnits counts analyzed loops or types.
func AddUnits(unit string, n int) {
	unitsTotal.WithLabelValues(unit).Add(float64(n))
}

// AddFinding counts one finding for rule.
func AddFinding(rule string) {
	findingsTotal.WithLabelValues(rule).Inc()
}

// WriteMetrics exports Registry in the node_exporter textfile format.
func WriteMetrics(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}

	return nil
}
