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

	"stayhub/internal/app/commands"
	bookingapp "stayhub/internal/app/handlers/booking"
	listingapp "stayhub/internal/app/handlers/listing"
	paymentapp "stayhub/internal/app/handlers/payment"
	reviewapp "stayhub/internal/app/handlers/review"
	"stayhub/internal/app/middleware"
	appoutbox "stayhub/internal/app/outbox"
	"stayhub/internal/app/policies"
	"stayhub/internal/app/queries"
	"stayhub/internal/app/schedule"
	"stayhub/internal/app/uow"
	domainbooking "stayhub/internal/domain/booking"
	domainlocation "stayhub/internal/domain/location"
	kafkabroker "stayhub/internal/infra/broker/kafka"
	"stayhub/internal/infra/config"
	mongostore "stayhub/internal/infra/db/mongo"
	ginserver "stayhub/internal/infra/http/gin"
	"stayhub/internal/infra/notify"
	"stayhub/internal/infra/obs"
	infraoutbox "stayhub/internal/infra/outbox"
	"stayhub/internal/infra/storage/memory"
	"stayhub/internal/infra/storage/s3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	app, err := buildApplication(cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	for _, run := range app.background {
		go func(run func(context.Context) error) {
			if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("background worker stopped", "error", err)
			}
		}(run)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
		app.close()
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers   ginserver.Handlers
	background []func(context.Context) error
	ready      func() error
	close      func()
}

func buildApplication(cfg config.Config, logger *slog.Logger) (application, error) {
	var (
		uowFactory  uow.Factory
		outboxStore appoutbox.Outbox
		idStore     middleware.IdempotencyStore
		notifier    policies.NotifierPort
		background  []func(context.Context) error
		ready       = func() error { return nil }
		closeFn     = func() {}
	)

	var producer *kafkabroker.Producer
	if len(cfg.KafkaBrokers) > 0 {
		var err error
		producer, err = kafkabroker.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return application{}, err
		}
		notifier = &notify.KafkaNotifier{
			Producer: producer,
			Topic:    cfg.KafkaTopicPrefix + "notifications.v1",
			Logger:   logger,
		}
		closeFn = func() {
			if err := producer.Close(); err != nil {
				logger.Warn("kafka producer close failed", "error", err)
			}
		}
	} else {
		notifier = &notify.LogNotifier{Logger: logger}
	}

	switch cfg.StorageMode {
	case "mongo":
		client, err := mongostore.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, err
		}
		locations := mongostore.NewLocationRepository(client.DB)
		factory := mongostore.Factory{
			DB:           client.DB,
			LocationRepo: locations,
			ListingRepo:  mongostore.NewListingRepository(client.DB, locations),
			BookingRepo:  mongostore.NewBookingRepository(client.DB),
			PaymentRepo:  mongostore.NewPaymentRepository(client.DB),
			ReviewRepo:   mongostore.NewReviewRepository(client.DB),
			RatingRepo:   mongostore.NewRatingRepository(client.DB),
		}
		uowFactory = factory
		store := infraoutbox.NewStore(client.DB)
		outboxStore = store
		idStore = mongostore.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL)
		ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}
		if producer != nil {
			worker := &infraoutbox.Worker{
				Store:       store,
				Producer:    producer,
				Logger:      logger,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Backoff:     cfg.RetryBackoff,
			}
			background = append(background, worker.Run)
		} else {
			logger.Warn("kafka brokers not configured, outbox records will accumulate")
		}
	default:
		locations := memory.NewLocationRepository()
		uowFactory = &memory.Factory{
			LocationRepo: locations,
			ListingRepo:  memory.NewListingRepository(locations),
			BookingRepo:  memory.NewBookingRepository(),
			PaymentRepo:  memory.NewPaymentRepository(),
			ReviewRepo:   memory.NewReviewRepository(),
			RatingRepo:   memory.NewRatingRepository(),
		}
		outboxStore = memory.NewOutbox()
		idStore = memory.NewIdempotencyStore()
	}

	var photos policies.PhotoStoragePort
	if s3Client, err := s3.NewClient(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicEndpoint, logger); err == nil {
		photos = s3Client
	} else {
		logger.Warn("object storage unavailable, photo uploads disabled", "error", err)
		photos = s3.NoopStorage{}
	}

	rules := domainbooking.Rules{
		MinNights:   cfg.MinNights,
		MaxNights:   cfg.MaxNights,
		MinLeadDays: cfg.MinLeadDays,
		MaxLeadDays: cfg.MaxLeadDays,
	}
	normalizer := domainlocation.DefaultNormalizer()

	commandBus := commands.NewInMemoryBus()
	queryBus := queries.NewInMemoryBus()

	registerBookingHandlers(commandBus, queryBus, uowFactory, outboxStore, notifier, logger, rules, cfg)
	registerListingHandlers(commandBus, queryBus, uowFactory, outboxStore, photos, logger, normalizer, cfg)
	registerPaymentHandlers(commandBus, queryBus, uowFactory, outboxStore, logger)
	registerReviewHandlers(commandBus, queryBus, uowFactory, outboxStore, logger)

	dispatcher := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(idStore, nil),
		middleware.Transaction(uowFactory, nil),
		middleware.OutboxFlush(outboxStore),
	)
	asker := middleware.ChainQueries(queryBus)

	sweeper := &schedule.ExpirySweeper{
		Bus:        dispatcher,
		UoWFactory: uowFactory,
		Logger:     logger,
		Interval:   time.Minute,
		PendingTTL: cfg.PendingBookingTTL,
	}
	background = append(background, sweeper.Run)

	return application{
		handlers: ginserver.Handlers{
			Booking: ginserver.BookingHandler{Commands: dispatcher, Queries: asker},
			Listing: ginserver.ListingHandler{Commands: dispatcher, Queries: asker},
			Payment: ginserver.PaymentHandler{Commands: dispatcher, Queries: asker},
			Review:  ginserver.ReviewHandler{Commands: dispatcher, Queries: asker},
		},
		background: background,
		ready:      ready,
		close:      closeFn,
	}, nil
}

func registerBookingHandlers(
	commandBus *commands.InMemoryBus,
	queryBus *queries.InMemoryBus,
	factory uow.Factory,
	box appoutbox.Outbox,
	notifier policies.NotifierPort,
	logger *slog.Logger,
	rules domainbooking.Rules,
	cfg config.Config,
) {
	place := &bookingapp.PlaceBookingHandler{
		UoWFactory: factory,
		Outbox:     box,
		Notifier:   notifier,
		Logger:     logger,
		Rules:      rules,
		FeePercent: cfg.PlatformFeePercent,
	}
	commands.RegisterHandler(commandBus, bookingapp.PlaceBookingCommand{}.Key(), place)

	trans := &bookingapp.TransitionHandler{
		UoWFactory: factory,
		Outbox:     box,
		Notifier:   notifier,
		Logger:     logger,
	}
	commands.RegisterHandler(commandBus, bookingapp.ConfirmBookingCommand{}.Key(),
		commands.HandlerFunc[bookingapp.ConfirmBookingCommand, *bookingapp.TransitionResult](trans.Confirm))
	commands.RegisterHandler(commandBus, bookingapp.RejectBookingCommand{}.Key(),
		commands.HandlerFunc[bookingapp.RejectBookingCommand, *bookingapp.TransitionResult](trans.Reject))
	commands.RegisterHandler(commandBus, bookingapp.CancelBookingCommand{}.Key(),
		commands.HandlerFunc[bookingapp.CancelBookingCommand, *bookingapp.TransitionResult](trans.Cancel))
	commands.RegisterHandler(commandBus, bookingapp.StartBookingCommand{}.Key(),
		commands.HandlerFunc[bookingapp.StartBookingCommand, *bookingapp.TransitionResult](trans.Start))
	commands.RegisterHandler(commandBus, bookingapp.CompleteBookingCommand{}.Key(),
		commands.HandlerFunc[bookingapp.CompleteBookingCommand, *bookingapp.TransitionResult](trans.Complete))
	commands.RegisterHandler(commandBus, bookingapp.ExpireBookingCommand{}.Key(),
		commands.HandlerFunc[bookingapp.ExpireBookingCommand, *bookingapp.TransitionResult](trans.Expire))

	queries.RegisterHandler(queryBus, bookingapp.ListBookingsQuery{}.Key(), &bookingapp.ListBookingsHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, bookingapp.GetBookingQuery{}.Key(), &bookingapp.GetBookingHandler{UoWFactory: factory})
}

func registerListingHandlers(
	commandBus *commands.InMemoryBus,
	queryBus *queries.InMemoryBus,
	factory uow.Factory,
	box appoutbox.Outbox,
	photos policies.PhotoStoragePort,
	logger *slog.Logger,
	normalizer *domainlocation.Normalizer,
	cfg config.Config,
) {
	create := &listingapp.CreateListingHandler{
		UoWFactory: factory,
		Outbox:     box,
		Logger:     logger,
		Normalizer: normalizer,
		UnitCap:    cfg.AddressUnitCap,
	}
	commands.RegisterHandler(commandBus, listingapp.CreateListingCommand{}.Key(), create)

	manage := &listingapp.ManageHandler{UoWFactory: factory, Outbox: box}
	commands.RegisterHandler(commandBus, listingapp.DeactivateListingCommand{}.Key(),
		commands.HandlerFunc[listingapp.DeactivateListingCommand, *listingapp.ManageResult](manage.Deactivate))
	commands.RegisterHandler(commandBus, listingapp.ReactivateListingCommand{}.Key(),
		commands.HandlerFunc[listingapp.ReactivateListingCommand, *listingapp.ManageResult](manage.Reactivate))
	commands.RegisterHandler(commandBus, listingapp.DeleteListingCommand{}.Key(),
		commands.HandlerFunc[listingapp.DeleteListingCommand, *listingapp.ManageResult](manage.Delete))
	commands.RegisterHandler(commandBus, listingapp.VerifyListingCommand{}.Key(),
		commands.HandlerFunc[listingapp.VerifyListingCommand, *listingapp.ManageResult](manage.Verify))

	upload := &listingapp.UploadPhotoHandler{UoWFactory: factory, Storage: photos}
	commands.RegisterHandler(commandBus, listingapp.UploadPhotoCommand{}.Key(), upload)

	queries.RegisterHandler(queryBus, listingapp.GetListingQuery{}.Key(), &listingapp.GetListingHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, listingapp.OwnerListingsQuery{}.Key(), &listingapp.OwnerListingsHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, listingapp.QuoteQuery{}.Key(), &listingapp.QuoteHandler{UoWFactory: factory, FeePercent: cfg.PlatformFeePercent})
}

func registerPaymentHandlers(
	commandBus *commands.InMemoryBus,
	queryBus *queries.InMemoryBus,
	factory uow.Factory,
	box appoutbox.Outbox,
	logger *slog.Logger,
) {
	commands.RegisterHandler(commandBus, paymentapp.RecordPaymentCommand{}.Key(),
		&paymentapp.RecordPaymentHandler{UoWFactory: factory, Outbox: box, Logger: logger})
	commands.RegisterHandler(commandBus, paymentapp.IssueRefundCommand{}.Key(),
		&paymentapp.IssueRefundHandler{UoWFactory: factory, Outbox: box, Logger: logger})
	queries.RegisterHandler(queryBus, paymentapp.GetPaymentQuery{}.Key(), &paymentapp.GetPaymentHandler{UoWFactory: factory})
}

func registerReviewHandlers(
	commandBus *commands.InMemoryBus,
	queryBus *queries.InMemoryBus,
	factory uow.Factory,
	box appoutbox.Outbox,
	logger *slog.Logger,
) {
	commands.RegisterHandler(commandBus, reviewapp.SubmitReviewCommand{}.Key(),
		&reviewapp.SubmitReviewHandler{UoWFactory: factory, Outbox: box, Logger: logger})
	commands.RegisterHandler(commandBus, reviewapp.RespondReviewCommand{}.Key(),
		&reviewapp.RespondReviewHandler{UoWFactory: factory, Outbox: box})
	queries.RegisterHandler(queryBus, reviewapp.ListReviewsQuery{}.Key(), &reviewapp.ListReviewsHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, reviewapp.ListingRatingQuery{}.Key(), &reviewapp.ListingRatingHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, reviewapp.OwnerRatingQuery{}.Key(), &reviewapp.OwnerRatingHandler{UoWFactory: factory})
}
