package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/drivehub/car-rental-backend/internal/auth"
	"github.com/drivehub/car-rental-backend/internal/booking"
	bookinghandler "github.com/drivehub/car-rental-backend/internal/booking/http/handler"
	"github.com/drivehub/car-rental-backend/internal/car"
	carhandler "github.com/drivehub/car-rental-backend/internal/car/http/handler"
	"github.com/drivehub/car-rental-backend/internal/config"
	"github.com/drivehub/car-rental-backend/internal/db"
	"github.com/drivehub/car-rental-backend/internal/feedback"
	feedbackhandler "github.com/drivehub/car-rental-backend/internal/feedback/http/handler"
	"github.com/drivehub/car-rental-backend/internal/notify"
	"github.com/drivehub/car-rental-backend/internal/pkg/storage"
	"github.com/drivehub/car-rental-backend/internal/sweep"
	"github.com/drivehub/car-rental-backend/internal/user"
	userhandler "github.com/drivehub/car-rental-backend/internal/user/http/handler"
)

// Container wires every service and handler the server needs.
type Container struct {
	Config *config.Config
	Logger *zap.Logger
	Pool   *pgxpool.Pool

	JWT *auth.JWTManager

	BookingService *booking.Service
	Sweeper        *sweep.Scheduler

	UserHandler     *userhandler.UserHandler
	CarHandler      *carhandler.CarHandler
	BookingHandler  *bookinghandler.BookingHandler
	FeedbackHandler *feedbackhandler.FeedbackHandler
}

// New builds the dependency container from configuration.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	pool, err := db.NewPool(ctx, cfg.DBDSN, cfg.DBMaxConns)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTokenTTL)
	hasher := auth.NewBcryptPasswordHasherWithCost(cfg.BcryptCost)

	files, err := storage.NewLocalStorage(cfg.UploadDir)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init upload storage: %w", err)
	}

	var notifier notify.Sink = notify.NoopSink{}
	if cfg.SendGridAPIKey != "" {
		notifier = notify.NewSendGridSink(cfg.SendGridAPIKey, cfg.EmailFromName, cfg.EmailFrom)
	} else {
		logger.Info("SENDGRID_API_KEY not set, completion emails disabled")
	}

	userRepo := user.NewPgxRepository(pool)
	carRepo := car.NewPgxRepository(pool)
	bookingRepo := booking.NewPgxRepository(pool)

	userService := user.NewService(userRepo, hasher)
	carService := car.NewService(carRepo, files, storage.NewImageProcessor())
	bookingService := booking.NewService(bookingRepo, carRepo, userRepo, notifier, logger)
	feedbackService := feedback.NewService(feedback.NewPgxRepository(pool), bookingRepo, logger)

	return &Container{
		Config:          cfg,
		Logger:          logger,
		Pool:            pool,
		JWT:             jwtManager,
		BookingService:  bookingService,
		Sweeper:         sweep.NewScheduler(bookingService, logger, cfg.SweepCron),
		UserHandler:     userhandler.NewUserHandler(userService, jwtManager),
		CarHandler:      carhandler.NewCarHandler(carService),
		BookingHandler:  bookinghandler.NewBookingHandler(bookingService),
		FeedbackHandler: feedbackhandler.NewFeedbackHandler(feedbackService),
	}, nil
}

// Close releases resources held by the container.
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}
