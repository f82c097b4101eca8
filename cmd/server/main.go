package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/footprint/internal/config"
	"github.com/mamadbah2/footprint/internal/domain/models"
	"github.com/mamadbah2/footprint/internal/locations"
	"github.com/mamadbah2/footprint/internal/publisher"
	"github.com/mamadbah2/footprint/internal/repository/memory"
	"github.com/mamadbah2/footprint/internal/repository/mongodb"
	"github.com/mamadbah2/footprint/internal/repository/sheets"
	"github.com/mamadbah2/footprint/internal/scheduler"
	"github.com/mamadbah2/footprint/internal/server/handlers"
	"github.com/mamadbah2/footprint/internal/server/router"
	authsvc "github.com/mamadbah2/footprint/internal/service/auth"
	"github.com/mamadbah2/footprint/internal/service/submission"
	"github.com/mamadbah2/footprint/internal/service/survey"
	"github.com/mamadbah2/footprint/pkg/clients/identity"
	"github.com/mamadbah2/footprint/pkg/logger"
	"github.com/mamadbah2/footprint/pkg/metrics"
)

// documentStore is implemented by both store backends.
type documentStore interface {
	submission.EmissionsStore
	submission.CommunityStore
	authsvc.ProfileStore
}

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	table, err := locations.Load(cfg.Survey.LocationsFile)
	if err != nil {
		baseLogger.Fatal("failed to load location table", zap.Error(err))
	}

	zone, err := cfg.Reporting.Location()
	if err != nil {
		baseLogger.Fatal("failed to load time zone", zap.Error(err))
	}

	var store documentStore
	switch cfg.Store.Backend {
	case config.BackendMemory:
		baseLogger.Warn("using in-memory store, data is lost on restart")
		store = memory.NewStore()
	default:
		mongoRepo, err := mongodb.NewRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName, baseLogger.Named("repo.mongodb"))
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		store = mongoRepo
	}

	collector := metrics.NewCollector("footprint", nil)

	submissionOpts := submission.Options{
		Location:    zone,
		SaveTimeout: cfg.Survey.SaveTimeout,
		Metrics:     collector,
	}
	if cfg.MQTT.Enabled() {
		pub, err := publisher.New(cfg.MQTT, baseLogger.Named("publisher.mqtt"))
		if err != nil {
			baseLogger.Fatal("failed to connect mqtt publisher", zap.Error(err))
		}
		defer pub.Close()
		submissionOpts.Notifier = pub
		baseLogger.Info("mqtt publisher enabled", zap.String("topic", cfg.MQTT.Topic))
	}
	submissionSvc := submission.NewService(store, store, submissionOpts, baseLogger.Named("svc.submission"))

	var identityClient identity.Client
	if cfg.Auth.IdentityEnabled() {
		identityClient = identity.NewClient(identity.Config{
			APIKey:  cfg.Auth.IdentityAPIKey,
			BaseURL: cfg.Auth.IdentityBaseURL,
		})
	} else {
		baseLogger.Warn("identity api key missing, sign-in and sign-up disabled")
	}

	authLogger := baseLogger.Named("svc.auth")
	authService := authsvc.NewService(identityClient, store, authsvc.Config{
		Secret:   cfg.Auth.TokenSecret,
		Issuer:   cfg.Auth.TokenIssuer,
		TokenTTL: cfg.Auth.TokenTTL,
	}, authLogger)
	authService.OnAuthStateChange(func(u models.User) {
		authLogger.Info("user authenticated", zap.String("user_id", u.ID))
	})

	var authenticator handlers.Authenticator
	if identityClient != nil {
		authenticator = authService
	}

	var (
		snapshotWriter scheduler.SnapshotWriter
		snapshotReader handlers.SnapshotReader
	)
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		ledger := sheets.NewLedger(sheetsRepo, cfg.Sheets.SnapshotRange)
		snapshotWriter, snapshotReader = ledger, ledger
	} else {
		baseLogger.Info("sheets ledger not configured, community snapshots disabled")
	}

	sessions := survey.NewSessionManager(table)

	engine := router.New(router.Handlers{
		Survey:    handlers.NewSurveyHandler(sessions, submissionSvc, collector, baseLogger.Named("handlers.survey")),
		Auth:      handlers.NewAuthHandler(authenticator, sessions, submissionSvc, baseLogger.Named("handlers.auth")),
		Emissions: handlers.NewEmissionsHandler(submissionSvc, snapshotReader, baseLogger.Named("handlers.emissions")),
		Locations: handlers.NewLocationsHandler(table),
	}, router.Options{
		Tokens:  authService,
		Metrics: collector,
	}, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(*cfg, store, snapshotWriter, sessions, collector, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}

	submissionSvc.Wait()
	baseLogger.Info("pending survey saves flushed")
}
