package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"kavholm/internal/app/commands"
	bookingapp "kavholm/internal/app/handlers/booking"
	"kavholm/internal/app/middleware"
	appoutbox "kavholm/internal/app/outbox"
	"kavholm/internal/app/queries"
	authsvc "kavholm/internal/app/services/auth"
	"kavholm/internal/app/uow"
	domainauth "kavholm/internal/domain/auth"
	domainlistings "kavholm/internal/domain/listings"
	domainpricing "kavholm/internal/domain/pricing"
	"kavholm/internal/domain/shared/money"
	domainuser "kavholm/internal/domain/user"
	kafkabroker "kavholm/internal/infra/broker/kafka"
	"kavholm/internal/infra/config"
	mongodb "kavholm/internal/infra/db/mongo"
	ginserver "kavholm/internal/infra/http/gin"
	"kavholm/internal/infra/obs"
	infraoutbox "kavholm/internal/infra/outbox"
	"kavholm/internal/infra/security"
	"kavholm/internal/infra/storage/memory"
	"kavholm/internal/infra/validation"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}

	fixturesPath := cfg.FixturesPath
	if fixturesPath == "" {
		fixturesPath = defaultListingFixturesPath()
	}
	if err := app.loadListingFixtures(ctx, fixturesPath, logger); err != nil {
		logger.Warn("listing fixtures load failed", "error", err, "path", fixturesPath)
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	go func() { _ = app.worker.Run(ctx) }()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageDriver)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

// listingStore is the writable side of the catalog, used only for seeding.
type listingStore interface {
	domainlistings.Catalog
	Save(ctx context.Context, listing *domainlistings.Listing) error
}

type application struct {
	handlers ginserver.Handlers
	listings listingStore
	worker   *infraoutbox.Worker
	ready    func() error
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (application, error) {
	var (
		listingCatalog listingStore
		users          domainuser.Repository
		sessions       domainauth.SessionStore
		uowFactory     uow.UoWFactory
		ready          = func() error { return nil }
	)

	switch cfg.StorageDriver {
	case config.StorageMongo:
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, fmt.Errorf("mongo connect: %w", err)
		}
		if err := client.Ping(ctx); err != nil {
			return application{}, fmt.Errorf("mongo ping: %w", err)
		}
		bookings := mongodb.NewBookingRepository(client.DB)
		if err := bookings.EnsureIndexes(ctx); err != nil {
			return application{}, fmt.Errorf("booking indexes: %w", err)
		}
		userRepo := mongodb.NewUserRepository(client.DB)
		if err := userRepo.EnsureIndexes(ctx); err != nil {
			return application{}, fmt.Errorf("user indexes: %w", err)
		}
		catalog := mongodb.NewListingCatalog(client.DB)
		listingCatalog = catalog
		users = userRepo
		sessions = mongodb.NewSessionStore(client.DB)
		uowFactory = mongodb.Factory{DB: client.DB, Listings: catalog, Bookings: bookings}
		ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}
	default:
		catalog := memory.NewListingCatalog()
		bookings := memory.NewBookingRepository()
		listingCatalog = catalog
		users = memory.NewUserRepository()
		sessions = memory.NewSessionStore()
		uowFactory = memory.Factory{Listings: catalog, Bookings: bookings}
	}

	queue := infraoutbox.NewQueue()
	outboxStore := memory.NewOutbox(queue)
	idStore := memory.NewIdempotencyStore()

	worker := &infraoutbox.Worker{
		Queue:       queue,
		Producer:    buildProducer(cfg, logger),
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Backoff:     cfg.RetryBackoff,
		Logger:      logger,
	}

	commandBus := commands.NewInMemoryBus()
	createHandler := &bookingapp.CreateBookingHandler{
		UoWFactory: uowFactory,
		Pricing:    domainpricing.NightlyRateCalculator{},
		Outbox:     outboxStore,
		Encoder:    appoutbox.JSONEventEncoder{},
		Logger:     logger,
	}
	commands.RegisterHandler(commandBus, bookingapp.CreateBookingCommand{}.Key(), createHandler)

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, bookingapp.ListGuestBookingsQuery{}.Key(), &bookingapp.ListGuestBookingsHandler{UoWFactory: uowFactory, Logger: logger})
	queries.RegisterHandler(queryBus, bookingapp.ListHostBookingsQuery{}.Key(), &bookingapp.ListHostBookingsHandler{UoWFactory: uowFactory, Logger: logger})
	queries.RegisterHandler(queryBus, bookingapp.ListListingBookingsQuery{}.Key(), &bookingapp.ListListingBookingsHandler{UoWFactory: uowFactory, Logger: logger})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Validation(validation.New()),
		middleware.Idempotency(idStore, nil, bookingapp.ReplayableErrors()...),
		middleware.OutboxFlush(outboxStore),
		middleware.Transaction(uowFactory, nil),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus)

	authService := &authsvc.Service{
		Users:      users,
		Sessions:   sessions,
		Passwords:  security.BcryptHasher{},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
	}

	handlers := ginserver.Handlers{
		Booking: ginserver.BookingHandler{
			Commands:    commandBusWithMiddleware,
			Queries:     queryBusWithMiddleware,
			Permissions: ginserver.ListingPermissions{Catalog: listingCatalog},
			Logger:      logger,
		},
		Auth:           ginserver.AuthHandler{Service: authService, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{Service: authService, Logger: logger}.Handle,
	}

	return application{
		handlers: handlers,
		listings: listingCatalog,
		worker:   worker,
		ready:    ready,
	}, nil
}

// buildProducer returns the Kafka publisher when brokers are configured, and a
// log-only sink otherwise so the outbox still drains in local setups.
func buildProducer(cfg config.Config, logger *slog.Logger) infraoutbox.Producer {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("kafka brokers not configured, events will be logged only")
		return logProducer{logger: logger}
	}
	producer, err := kafkabroker.NewProducer(cfg.KafkaBrokers, nil)
	if err != nil {
		logger.Error("kafka producer init failed, events will be logged only", "error", err)
		return logProducer{logger: logger}
	}
	return producer
}

type logProducer struct {
	logger *slog.Logger
}

func (p logProducer) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	if p.logger != nil {
		p.logger.Debug("event published", "topic", topic, "key", key, "payload", string(payload))
	}
	return nil
}

func (a application) loadListingFixtures(ctx context.Context, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("listing fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	if len(data) == 0 {
		logger.Warn("listing fixtures file empty", "path", path)
		return nil
	}

	var fixtures []listingFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	now := time.Now()
	for _, fx := range fixtures {
		rate, err := money.New(fx.NightlyRate, fx.Currency)
		if err != nil {
			logger.Error("fixture rate invalid", "listing_id", fx.ID, "error", err)
			continue
		}
		listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
			ID:          domainlistings.ListingID(fx.ID),
			Host:        fx.Host,
			Title:       fx.Title,
			City:        fx.City,
			Country:     fx.Country,
			NightlyRate: rate,
			Now:         now,
		})
		if err != nil {
			logger.Error("fixture invalid", "listing_id", fx.ID, "error", err)
			continue
		}
		if err := a.listings.Save(ctx, listing); err != nil {
			logger.Error("cannot store fixture listing", "listing_id", fx.ID, "error", err)
			continue
		}
		logger.Info("listing fixture imported", "listing_id", listing.ID, "host", listing.Host)
	}
	return nil
}

type listingFixture struct {
	ID          string `json:"id"`
	Host        string `json:"host"`
	Title       string `json:"title"`
	City        string `json:"city"`
	Country     string `json:"country"`
	NightlyRate int64  `json:"nightlyRate"`
	Currency    string `json:"currency"`
}

func defaultListingFixturesPath() string {
	candidates := []string{
		filepath.Join("data", "listings.json"),
		filepath.Join("..", "data", "listings.json"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return candidates[0]
}
