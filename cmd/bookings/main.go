package main

import (
	"github.com/joho/godotenv"

	"serenity/internal/bookings/handler"
	"serenity/internal/bookings/otp"
	"serenity/internal/bookings/policy"
	"serenity/internal/bookings/repository"
	"serenity/internal/bookings/service"
	"serenity/internal/bookings/validator"
	"serenity/internal/catalog"
	"serenity/internal/directory"
	"serenity/internal/loyalty"
	"serenity/internal/notify"
	"serenity/pkg/app"
	"serenity/pkg/config"
	"serenity/pkg/kafka"
	kafka_config "serenity/pkg/kafka/config"
	kafka_middleware "serenity/pkg/kafka/middleware"
)

const ServiceName = "bookings"

func main() {
	// Missing .env is fine, the environment may be set by the runtime.
	_ = godotenv.Load()

	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Bookings service")
	bookingService := initServices(cfg)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg,
		handler.NewBookingHandler(bookingService, cfg.Log),
		handler.NewHealthHandler(cfg.Client.Mongo.Client, cfg.Log),
	)
	serverApp.Run()
}

func initServices(cfg *config.Config) service.BookingService {
	bookingValidator := validator.NewBookingValidator(cfg.Log)
	bookingRepo := repository.NewMongoBookingRepository(cfg)
	serviceCatalog := catalog.NewMongoServiceCatalog(cfg)
	employees := directory.NewMongoEmployeeDirectory(cfg)
	users := directory.NewMongoUserDirectory(cfg)
	ledger := loyalty.NewMongoLedger(cfg)
	guard := otp.NewGuard(bookingRepo, cfg.OtpTTL, cfg.OtpMaxAttempts)

	bookingService := service.NewBookingService(
		bookingRepo,
		bookingValidator,
		serviceCatalog,
		employees,
		users,
		ledger,
		guard,
		policy.NewCancellationPolicy(),
		initNotifier(cfg, users),
		cfg,
	)

	cfg.Log.Info("Booking service initialized", "database", cfg.MongoDatabaseName)
	return bookingService
}

func initNotifier(cfg *config.Config, users directory.UserDirectory) notify.Sender {
	if !cfg.NotificationsEnabled {
		cfg.Log.Info("Notifications disabled, using noop sender")
		return notify.NewNoopSender(cfg.Log)
	}

	kafkaCfg := kafka_config.Load()
	kafkaCfg.LogConfiguration(func(msg string, args ...any) { cfg.Log.Info(msg, args...) })

	producer, err := kafka.NewProducer(kafkaCfg, cfg.NotificationsTopic, cfg.NotificationsTopic+".dlq")
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware())
	}

	cfg.Log.Info("Notification producer initialized", "topic", cfg.NotificationsTopic)
	return notify.NewKafkaSender(producer, users, cfg.Log)
}
