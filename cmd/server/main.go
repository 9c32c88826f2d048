package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"mesaYaBooking/internal/config"
	authusecase "mesaYaBooking/internal/modules/auth/application/usecase"
	authinfra "mesaYaBooking/internal/modules/auth/infrastructure"
	authtransport "mesaYaBooking/internal/modules/auth/interface"
	"mesaYaBooking/internal/modules/auth/session"
	bookingusecase "mesaYaBooking/internal/modules/bookings/application/usecase"
	bookinginfra "mesaYaBooking/internal/modules/bookings/infrastructure"
	bookingtransport "mesaYaBooking/internal/modules/bookings/interface"
	"mesaYaBooking/internal/modules/realtime/application/handler"
	realtimeport "mesaYaBooking/internal/modules/realtime/application/port"
	"mesaYaBooking/internal/modules/realtime/application/usecase"
	realtime "mesaYaBooking/internal/modules/realtime/domain"
	"mesaYaBooking/internal/modules/realtime/infrastructure"
	wstransport "mesaYaBooking/internal/modules/realtime/interface"
	restaurantusecase "mesaYaBooking/internal/modules/restaurants/application/usecase"
	restaurantinfra "mesaYaBooking/internal/modules/restaurants/infrastructure"
	restauranttransport "mesaYaBooking/internal/modules/restaurants/interface"
	"mesaYaBooking/internal/platform/broker"
	"mesaYaBooking/internal/platform/cache"
	"mesaYaBooking/internal/platform/docstore"
	"mesaYaBooking/internal/shared/auth"
	"mesaYaBooking/internal/shared/logging"
)

func main() {
	// Load .env so local runs honour configuration tweaks.
	if err := godotenv.Overload(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, ".env load warning: %v\n", err)
		}
	}
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the service and blocks until a signal or a fatal server error.
// Returning instead of exiting lets every deferred close run.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load: %w", err)
	}

	logFile, logger, err := logging.Open(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: true,
		Directory: cfg.Logging.Directory,
	}, time.Now())
	if err != nil {
		return fmt.Errorf("logging setup: %w", err)
	}
	defer logFile.Close()
	slog.SetDefault(logger)
	slog.Info("logging initialized", slog.String("directory", cfg.Logging.Directory), slog.String("level", cfg.Logging.Level), slog.String("format", cfg.Logging.Format))
	slog.Info("kafka config resolved", slog.Any("brokers", cfg.Kafka.Brokers), slog.String("group", cfg.Kafka.GroupID), slog.Any("topics", cfg.Kafka.Topics))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("document store unavailable", slog.String("driver", cfg.Store.Driver), slog.Any("error", err))
		return fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		if err := store.Close(closeCtx); err != nil {
			slog.Warn("document store close failed", slog.Any("error", err))
		}
	}()

	redisClient := cache.NewRedisClient(ctx, cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	directoryCache := newDirectoryCache(redisClient, cfg.Redis)
	if redisClient != nil {
		defer redisClient.Close()
	}

	hub := infrastructure.NewHub()
	registry := infrastructure.NewHandlerRegistry()
	broadcastUC := usecase.NewBroadcastUseCase(hub)

	publisher, closePublisher := newPublisher(cfg.Kafka, registry)
	defer closePublisher()

	// Session tokens are issued and validated locally.
	validator := auth.NewJWTValidator(cfg.Security.JWTSecret)
	issuer := auth.NewIssuer(cfg.Security.JWTSecret, cfg.Security.TokenTTL)
	sessions := session.NewRegistry(session.WithTTL(cfg.Security.TokenTTL))
	var verifier *auth.FederatedVerifier
	if cfg.Security.FederatedPublicKey != "" {
		verifier, err = auth.NewFederatedVerifier(cfg.Security.FederatedPublicKey, cfg.Security.FederatedIssuer)
		if err != nil {
			slog.Error("federated verifier setup failed", slog.Any("error", err))
			return fmt.Errorf("federated verifier: %w", err)
		}
	}

	// Use cases
	authUC := authusecase.NewAuthUseCase(
		authinfra.NewLocalProvider(store),
		authinfra.NewFederatedProvider(verifier),
		authinfra.NewUserRepository(store),
		sessions,
		issuer,
		publisher,
	)
	bookingRepo := bookinginfra.NewBookingRepository(store)
	availabilityUC := bookingusecase.NewAvailabilityUseCase(bookingRepo, nil)
	bookingHandlers := bookingtransport.Handlers{
		Availability: availabilityUC,
		Submit:       bookingusecase.NewSubmitBookingUseCase(bookingRepo, publisher),
		Manage:       bookingusecase.NewManageBookingsUseCase(bookingRepo, bookinginfra.NewOwnerLookup(store), publisher),
	}
	directoryUC := restaurantusecase.NewDirectoryUseCase(
		restaurantinfra.NewRestaurantRepository(store),
		restaurantinfra.NewReviewRepository(store),
		directoryCache,
		nil,
		publisher,
	)
	connectUC := usecase.NewConnectStreamUseCase(validator, sessions)

	// Feed handlers: every entity topic fans out to the hub and refreshes the live queries it feeds.
	refreshers := map[string][]realtimeport.SnapshotRefresher{
		realtime.EntityBookings:    {availabilityUC},
		realtime.EntityRestaurants: {directoryUC},
		realtime.EntityReviews:     {directoryUC},
	}
	for entity, topics := range cfg.Kafka.Topics {
		for _, topic := range topics {
			if entity == realtime.EntityUsers {
				registry.Register(handler.NewUserEventsHandler(topic, broadcastUC, hub))
				continue
			}
			registry.Register(handler.NewEntityStreamHandler(entity, topic, cfg.Websocket.AllowedActions, broadcastUC, refreshers[entity]...))
		}
	}
	// Expired sessions drop their open sockets like a sign-out.
	go sessions.Run(ctx, time.Minute, func(id string) { hub.CloseSession(id) })

	waitConsumers := broker.StartKafkaConsumers(ctx, registry, cfg.Kafka.Brokers, cfg.Kafka.GroupID, registry.Topics())

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.Logger.SetOutput(log.Writer())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status":   "ok",
			"store":    cfg.Store.Driver,
			"redis":    redisClient != nil,
			"kafka":    len(cfg.Kafka.Brokers) > 0,
			"clients":  hub.ClientCount(),
			"sessions": sessions.Len(),
		})
	})

	api := e.Group("/api", authtransport.SessionMiddleware(validator, sessions))
	authtransport.RegisterRoutes(api.Group("/auth"), authUC)
	restauranttransport.RegisterRoutes(api, directoryUC)
	bookingtransport.RegisterRoutes(api, bookingHandlers)

	wstransport.RegisterRoutes(e, wstransport.Handlers{
		Hub:            hub,
		Connect:        connectUC,
		Availability:   availabilityUC,
		Directory:      directoryUC,
		AllowedActions: cfg.Websocket.AllowedActions,
		SendBuffer:     cfg.Websocket.SendBuffer,
	})

	serverErr := make(chan error, 1)
	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped", slog.Any("error", err))
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)
	var runErr error
	select {
	case <-stop:
	case runErr = <-serverErr:
	}
	slog.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown failed", slog.Any("error", err))
	}
	waitConsumers()
	return runErr
}

func openStore(ctx context.Context, cfg *config.Config) (docstore.Store, error) {
	if cfg.Store.Driver == "memory" {
		slog.Warn("using in-memory document store; data is lost on restart")
		return docstore.NewMemoryStore(), nil
	}
	store, err := docstore.NewMongoStore(ctx, docstore.MongoConfig{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		return nil, err
	}
	indexes := append([]docstore.Index{}, bookinginfra.Indexes...)
	indexes = append(indexes, restaurantinfra.Indexes...)
	if err := store.EnsureIndexes(ctx, indexes); err != nil {
		slog.Warn("mongo index setup failed", slog.Any("error", err))
	}
	slog.Info("mongo connected", slog.String("database", cfg.Mongo.Database))
	return store, nil
}

func newDirectoryCache(client *redis.Client, cfg config.RedisConfig) cache.Cache {
	if client == nil {
		slog.Info("directory cache in memory", slog.Duration("ttl", cfg.TTL))
		return cache.NewMemory(cfg.TTL)
	}
	slog.Info("directory cache on redis", slog.String("addr", cfg.Addr), slog.String("prefix", cfg.Prefix))
	return cache.NewRedis(client, cfg.Prefix, cfg.TTL)
}

// newPublisher writes to Kafka when brokers are configured and otherwise
// dispatches events in-process.
func newPublisher(cfg config.KafkaConfig, registry *infrastructure.HandlerRegistry) (realtimeport.Publisher, func()) {
	if len(cfg.Brokers) == 0 {
		slog.Warn("no kafka brokers configured; dispatching change events in-process")
		return broker.NewLocalPublisher(registry, cfg.TopicFor), func() {}
	}
	publisher := broker.NewKafkaPublisher(cfg.Brokers, cfg.TopicFor)
	return publisher, func() { closeQuietly("kafka publisher", publisher) }
}

func closeQuietly(name string, c io.Closer) {
	if err := c.Close(); err != nil {
		slog.Warn("close failed", slog.String("component", name), slog.Any("error", err))
	}
}
