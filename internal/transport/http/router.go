package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rushledger/internal/platform/middleware"
)

// Deps bundles everything the router mounts. Handlers stay thin: decode,
// delegate, encode.
type Deps struct {
	Logger       *slog.Logger
	JWTValidator middleware.JWTValidator

	Auth       *AuthHandler
	Users      *UserHandler
	Events     *EventHandler
	Attendance *AttendanceHandler
	Ballots    *BallotHandler
	Feedback   *FeedbackHandler
	Dues       *DuesHandler
	Interviews *InterviewHandler
}

// NewRouter wires the public surface. Everything except signup, token
// exchange, health, and metrics sits behind bearer auth.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	d.Auth.Register(r)

	r.Group(func(pr chi.Router) {
		pr.Use(middleware.RequireAuth(d.JWTValidator, d.Logger))
		d.Users.Register(pr)
		d.Events.Register(pr)
		d.Attendance.Register(pr)
		d.Ballots.Register(pr)
		d.Feedback.Register(pr)
		d.Dues.Register(pr)
		d.Interviews.Register(pr)
	})

	return r
}
