package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	attendanceService "rushledger/internal/attendance/service"
	attendanceStore "rushledger/internal/attendance/store"
	ballotService "rushledger/internal/ballot/service"
	ballotStore "rushledger/internal/ballot/store"
	duesService "rushledger/internal/dues/service"
	duesStore "rushledger/internal/dues/store"
	eventService "rushledger/internal/event/service"
	eventStore "rushledger/internal/event/store"
	feedbackService "rushledger/internal/feedback/service"
	feedbackStore "rushledger/internal/feedback/store"
	identityService "rushledger/internal/identity/service"
	identityStore "rushledger/internal/identity/store"
	interviewService "rushledger/internal/interview/service"
	interviewStore "rushledger/internal/interview/store"
	jwttoken "rushledger/internal/jwt_token"
	"rushledger/internal/platform/config"
	"rushledger/internal/platform/httpserver"
	"rushledger/internal/platform/logger"
	"rushledger/internal/platform/metrics"
	"rushledger/internal/platform/postgres"
	httptransport "rushledger/internal/transport/http"
)

const accessTokenTTL = time.Hour

// main wires config, storage, services, and the HTTP surface. Business logic
// lives in the internal service packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.LogLevel, cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := postgres.Migrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	m := metrics.New()

	users := identityStore.NewPostgres(db)
	events := eventStore.NewPostgres(db)
	attendance := attendanceStore.NewPostgres(db)
	ballots := ballotStore.NewPostgres(db)
	feedback := feedbackStore.NewPostgres(db)
	dues := duesStore.NewPostgres(db)
	interviews := interviewStore.NewPostgres(db)

	identitySvc := identityService.New(users,
		identityService.WithLogger(log), identityService.WithMetrics(m))
	eventSvc := eventService.New(events, users,
		eventService.WithLogger(log))
	attendanceSvc := attendanceService.New(attendance, users, events,
		attendanceService.WithLogger(log), attendanceService.WithMetrics(m))
	ballotSvc := ballotService.New(ballots, users,
		ballotService.WithLogger(log), ballotService.WithMetrics(m))
	feedbackSvc := feedbackService.New(feedback, users,
		feedbackService.WithLogger(log), feedbackService.WithMetrics(m))
	duesSvc := duesService.New(dues, users,
		duesService.WithLogger(log), duesService.WithMetrics(m),
		duesService.WithGracePeriod(cfg.DuesGracePeriod))
	interviewSvc := interviewService.New(interviews, users,
		interviewService.WithLogger(log))

	jwtSvc := jwttoken.NewJWTService(cfg.JWTSigningKey, "rushledger")
	validator := jwttoken.NewJWTServiceAdapter(jwtSvc)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:       log,
		JWTValidator: validator,
		Auth:         httptransport.NewAuthHandler(identitySvc, jwtSvc, accessTokenTTL, log),
		Users:        httptransport.NewUserHandler(identitySvc, log),
		Events:       httptransport.NewEventHandler(eventSvc, log),
		Attendance:   httptransport.NewAttendanceHandler(attendanceSvc, log),
		Ballots:      httptransport.NewBallotHandler(ballotSvc, log),
		Feedback:     httptransport.NewFeedbackHandler(feedbackSvc, log),
		Dues:         httptransport.NewDuesHandler(duesSvc, log),
		Interviews:   httptransport.NewInterviewHandler(interviewSvc, log),
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server starting", "addr", cfg.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
