package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ClassificationsTotal counts strategy classifications by outcome.
var ClassificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "campusattend_classifications_total",
	Help: "Attendance strategy classifications by chosen strategy.",
}, []string{"strategy"})

// MarksTotal counts individual mark operations by result.
var MarksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "campusattend_marks_total",
	Help: "Attendance marks recorded, by result (present, absent, error).",
}, []string{"result"})

// BulkItemFailures counts failed items inside bulk marking calls.
var BulkItemFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "campusattend_bulk_item_failures_total",
	Help: "Bulk marking items that failed individually.",
})
