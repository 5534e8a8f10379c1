package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stayfinder/internal/app/commands"
	"stayfinder/internal/app/engine"
	bookingapp "stayfinder/internal/app/handlers/booking"
	"stayfinder/internal/app/middleware"
	appoutbox "stayfinder/internal/app/outbox"
	"stayfinder/internal/app/queries"
	domainbooking "stayfinder/internal/domain/booking"
	"stayfinder/internal/infra/broker/kafka"
	"stayfinder/internal/infra/clients"
	"stayfinder/internal/infra/config"
	mongodb "stayfinder/internal/infra/db/mongo"
	ginserver "stayfinder/internal/infra/http/gin"
	"stayfinder/internal/infra/obs"
	infraoutbox "stayfinder/internal/infra/outbox"
	"stayfinder/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	app, err := buildApplication(cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	if app.worker != nil {
		go func() {
			if err := app.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", app.storage)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	worker   *infraoutbox.Worker
	producer *kafka.Producer
	ready    func() error
	storage  string
}

func buildApplication(cfg config.Config, logger *slog.Logger) (application, error) {
	app := application{
		storage: "memory",
		ready:   func() error { return nil },
	}

	var attempts domainbooking.Repository
	var box appoutbox.Outbox
	var mongoStore *infraoutbox.Store

	if cfg.MongoURI != "" {
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, err
		}
		attempts = mongodb.NewAttemptRepository(client.DB)
		mongoStore = infraoutbox.NewStore(client.DB)
		box = mongoStore
		app.storage = "mongo"
		app.ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}
	} else {
		attempts = memory.NewAttemptRepository()
		box = memory.NewOutbox()
	}

	httpClient := &http.Client{Timeout: cfg.CallTimeout}
	availability := &clients.AvailabilityClient{Client: httpClient, BaseURL: cfg.AvailabilityURL, Logger: logger}
	reservations := &clients.ReservationsClient{Client: httpClient, BaseURL: cfg.ReservationsURL, Logger: logger}
	payments := &clients.PaymentsClient{Client: httpClient, BaseURL: cfg.PaymentsURL, Logger: logger}

	eng, err := engine.New(availability, reservations, payments, attempts, engine.Config{
		CallTimeout:   cfg.CallTimeout,
		MaxStayNights: cfg.MaxStayNights,
		PaymentMethod: cfg.PaymentMethod,
	})
	if err != nil {
		return application{}, err
	}
	eng.Outbox = box
	eng.Encoder = appoutbox.JSONEventEncoder{}
	eng.Logger = logger

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, bookingapp.StartBookingCommand{}.Key(), &bookingapp.StartBookingHandler{Engine: eng})
	commands.RegisterHandler(commandBus, bookingapp.CancelBookingCommand{}.Key(), &bookingapp.CancelBookingHandler{Engine: eng})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, bookingapp.GetAttemptQuery{}.Key(), &bookingapp.GetAttemptHandler{Engine: eng})
	queries.RegisterHandler(queryBus, bookingapp.ListGuestAttemptsQuery{}.Key(), &bookingapp.ListGuestAttemptsHandler{Attempts: attempts})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(memory.NewIdempotencyStore(), nil),
		middleware.OutboxFlush(box),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus)

	if len(cfg.KafkaBrokers) > 0 {
		if mongoStore == nil {
			logger.Warn("kafka brokers configured without mongo, outbox worker disabled")
		} else {
			producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
			if err != nil {
				return application{}, err
			}
			app.producer = producer
			app.worker = &infraoutbox.Worker{
				Store:       mongoStore,
				Producer:    producer,
				Logger:      logger,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Backoff:     cfg.RetryBackoff,
			}
		}
	}

	app.handlers = ginserver.Handlers{
		Booking: ginserver.BookingHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
			Currency: cfg.Currency,
		},
		Me: ginserver.MeHandler{
			Queries: queryBusWithMiddleware,
		},
		AuthMiddleware: ginserver.HeaderAuthMiddleware{Logger: logger}.Handle,
	}
	return app, nil
}

func (a application) close(logger *slog.Logger) {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			logger.Error("kafka producer close failed", "error", err)
		}
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
