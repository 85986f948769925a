package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/busticket/busticket_backend/config"
	"github.com/busticket/busticket_backend/controllers"
	"github.com/busticket/busticket_backend/middleware"
	"github.com/busticket/busticket_backend/repositories"
	"github.com/busticket/busticket_backend/repositories/inmemory"
	"github.com/busticket/busticket_backend/routes"
	"github.com/busticket/busticket_backend/scheduler"
	"github.com/busticket/busticket_backend/services"
	"github.com/busticket/busticket_backend/utils"
	"github.com/busticket/busticket_backend/websocket"
)

// stores groups the persistence backends the services are built on.
type stores struct {
	notifications services.NotificationStore
	preferences   services.PreferencesStore
	users         services.UserDirectory
	buses         services.BusDirectory
	bookings      services.BookingStore
}

func mongoStores(db *mongo.Database) stores {
	return stores{
		notifications: repositories.NewNotificationRepository(db),
		preferences:   repositories.NewPreferencesRepository(db),
		users:         repositories.NewUserRepository(db),
		buses:         repositories.NewBusRepository(db),
		bookings:      repositories.NewBookingRepository(db),
	}
}

func memoryStores() stores {
	buses := inmemory.NewBusStore()
	return stores{
		notifications: inmemory.NewNotificationStore(),
		preferences:   inmemory.NewPreferencesStore(),
		users:         inmemory.NewUserStore(),
		buses:         buses,
		bookings:      inmemory.NewBookingStore(buses),
	}
}

func main() {
	cfg, envFound := config.Load()
	logger := config.NewLogger(cfg)
	if !envFound {
		logger.Debug().Msg(".env file not found")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st stores
	switch cfg.StoreBackend {
	case config.StoreMemory:
		logger.Warn().Msg("using in-memory stores, data is lost on restart")
		st = memoryStores()
	case config.StoreMongo:
		db, err := config.ConnectDB(ctx, cfg, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("database connection failed")
		}
		defer func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = db.Client().Disconnect(disconnectCtx)
		}()
		st = mongoStores(db)
	default:
		logger.Fatal().Str("backend", cfg.StoreBackend).Msg("unknown STORE_BACKEND")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// External channels are optional; a missing integration just disables its sender.
	var senders []services.Sender
	if dialer := config.NewMailDialer(cfg); dialer != nil {
		senders = append(senders, services.NewEmailSender(dialer, cfg.SMTPFrom))
	}
	messagingClient, err := config.InitMessaging(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("firebase initialization failed, push channel disabled")
	} else if messagingClient != nil {
		senders = append(senders, services.NewPushSender(messagingClient))
	}

	hub := websocket.NewHub(logger)
	dispatcher := services.NewDispatcher(st.preferences, st.users, services.NewDispatchMetrics(registry), logger, senders...)
	notificationService := services.NewNotificationService(st.notifications, st.users, dispatcher, hub, logger)
	preferencesService := services.NewPreferencesService(st.preferences, logger)
	bookingService := services.NewBookingService(st.buses, st.bookings, notificationService, logger)

	sched, err := newScheduler(ctx, cfg, st, notificationService, registry, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler setup failed")
	}
	if cfg.SchedulerEnabled {
		sched.Start()
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = utils.NewValidator()

	rateLimiter := middleware.NewRateLimiter()
	go rateLimiter.Cleanup(ctx, time.Minute)

	e.Use(echoMiddleware.Recover())
	e.Use(middleware.RequestLogger(logger))
	e.Use(middleware.CORSWithConfig(middleware.NewCORSConfig(cfg.CORSOrigins)))
	e.Use(middleware.SecurityHeaders(middleware.SecurityConfig{HSTS: !cfg.IsDevelopment()}))
	e.Use(rateLimiter.RateLimit())

	routes.SetupRoutes(e, routes.Handlers{
		Notifications: controllers.NewNotificationController(notificationService, st.users, logger),
		Preferences:   controllers.NewPreferencesController(preferencesService, logger),
		Bookings:      controllers.NewBookingController(bookingService, logger),
		Scheduler:     controllers.NewSchedulerController(sched, logger),
		Hub:           hub,
		Gatherer:      registry,
	}, middleware.JWTMiddleware(cfg.JWTSecret, logger))

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("scheduler did not stop in time")
	}
}

// newScheduler wires the jobs with a Redis trigger lock when Redis is
// reachable and a process-local one otherwise.
func newScheduler(ctx context.Context, cfg config.Config, st stores, notifications *services.NotificationService, reg prometheus.Registerer, logger zerolog.Logger) (*scheduler.Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		return nil, err
	}

	var locker scheduler.Locker = scheduler.LocalLocker{}
	if client := config.ConnectRedis(ctx, cfg, logger); client != nil {
		locker = scheduler.NewRedisLocker(client)
	}

	jobs := scheduler.NewJobs(notifications, st.bookings, st.users, loc, cfg.Scheduler.Workers, logger)
	return scheduler.New(cfg.Scheduler, jobs, locker, scheduler.NewMetrics(reg), logger)
}
