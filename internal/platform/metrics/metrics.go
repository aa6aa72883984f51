package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. Services receive
// it via options and treat a nil receiver field as "metrics disabled".
type Metrics struct {
	UsersRegistered   prometheus.Counter
	StageTransitions  *prometheus.CounterVec
	BallotsCast       *prometheus.CounterVec
	CheckIns          prometheus.Counter
	PaymentsRecorded  prometheus.Counter
	FeedbackSubmitted prometheus.Counter
}

// New creates and registers all Prometheus metrics with the default registry.
func New() *Metrics {
	return &Metrics{
		UsersRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rushledger_users_registered_total",
			Help: "Total number of users registered",
		}),
		StageTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rushledger_stage_transitions_total",
			Help: "Candidate stage transitions by target stage",
		}, []string{"to"}),
		BallotsCast: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rushledger_ballots_cast_total",
			Help: "Ballots cast, labeled insert or update",
		}, []string{"mode"}),
		CheckIns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rushledger_checkins_total",
			Help: "Attendance check-ins recorded",
		}),
		PaymentsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rushledger_payments_recorded_total",
			Help: "Dues payments recorded",
		}),
		FeedbackSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rushledger_feedback_submitted_total",
			Help: "Feedback entries submitted",
		}),
	}
}
