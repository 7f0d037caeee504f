package main

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"agendly/internal/availability"
	"agendly/internal/booking"
	"agendly/internal/config"
	"agendly/internal/db"
	"agendly/internal/handlers"
	"agendly/internal/httpx"
	"agendly/internal/kafkax"
	"agendly/internal/lock"
	"agendly/internal/notify"
	"agendly/internal/otelx"
	"agendly/internal/reminder"
	"agendly/internal/runtime"
	"agendly/internal/storage"
)

func main() {
	service := config.String("SERVICE_NAME", "agendly")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL, int32(config.Int("DB_MAX_CONNS", 10)))
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	redisAddr := config.String("REDIS_ADDR", "localhost:6379")
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer func() { _ = rdb.Close() }()

	kafkaBrokers := config.String("KAFKA_BROKERS", "")
	var dispatcher notify.Dispatcher = notify.Noop{}
	kafkaDispatcher := notify.NewKafkaDispatcher(logger, notify.KafkaConfig{
		Brokers:       kafkaBrokers,
		ReminderTopic: config.String("KAFKA_REMINDER_TOPIC", "agendly.reminder.due.v1"),
		BookingTopic:  config.String("KAFKA_BOOKING_TOPIC", "agendly.appointment.booked.v1"),
	})
	if kafkaDispatcher != nil {
		dispatcher = kafkaDispatcher
		defer func() { _ = kafkaDispatcher.Close() }()
	} else {
		logger.Warn("kafka brokers not configured; notifications disabled")
	}

	loc := config.Location("BUSINESS_TIMEZONE", "UTC")
	repo := storage.NewRepository(pool)

	coordinator := reminder.NewCoordinator(repo, dispatcher, logger, reminder.Config{
		Offset:       config.Minutes("REMINDER_OFFSET_MINUTES", 30*time.Minute),
		RescanEvery:  time.Duration(config.Int("RESCAN_EVERY_DAYS", 20)) * 24 * time.Hour,
		InitialDelay: time.Duration(config.Int("RESCAN_INITIAL_DELAY_HOURS", 24)) * time.Hour,
	})
	coordinator.Start(ctx)
	defer coordinator.Stop()

	availabilitySvc := availability.NewService(repo, loc, config.Minutes("SLOT_STEP_MINUTES", 10*time.Minute))
	bookingSvc := booking.NewService(repo, lock.NewRedisLocker(rdb), coordinator, dispatcher, logger, loc)

	checks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
		{Name: "redis", Check: lock.ReadyCheck(rdb)},
	}
	if kafkaDispatcher != nil {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(kafkaBrokers)})
	}
	mux := runtime.NewBaseMux(checks...)
	handlers.New(bookingSvc, availabilitySvc, repo, logger).Register(mux)

	limiter := httpx.NewRedisRateLimiter(rdb, config.Int("RATE_LIMIT_PER_MINUTE", 120), time.Minute, service)
	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(15*time.Second),
		limiter.Middleware(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, service)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
