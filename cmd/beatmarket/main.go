package main

import (
	"context"
	"log/slog"
	"os"

	"beatmarket/config"
	"beatmarket/internal/delivery"
	"beatmarket/internal/delivery/api"
	"beatmarket/internal/delivery/api/middleware"
	"beatmarket/internal/delivery/api/router/handler"
	"beatmarket/internal/infra/auth"
	"beatmarket/internal/infra/cache"
	logs "beatmarket/internal/infra/log"
	"beatmarket/internal/infra/persistence/postgres"
	"beatmarket/internal/infra/pubsub"
	"beatmarket/internal/infra/qrcode"
	"beatmarket/internal/infra/storage"
	"beatmarket/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			impl.RegisterSystemAccounts,
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		postgres.New,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewUserRepository,
			postgres.NewBeatRepository,
			postgres.NewRatingRepository,
			postgres.NewLedgerRepository,
			postgres.NewCommentRepository,
			postgres.NewTransactionManager,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewBcryptHasher,
			auth.NewJWTService,
			qrcode.NewQRCodeService,
			pubsub.NewEventPublisher,
			storage.NewMediaStore,
			cache.NewPopularityCache,
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewAuthService,
			impl.NewProfileService,
			impl.NewBeatService,
			impl.NewRatingService,
			impl.NewRankingService,
			impl.NewPurchaseService,
			impl.NewCommentService,
			impl.NewMediaService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewAuthMiddleware,
			middleware.NewErrorMiddleware,
			middleware.NewRateLimitMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewAuthHandler,
			handler.NewProfileHandler,
			handler.NewBeatHandler,
			handler.NewRatingHandler,
			handler.NewPurchaseHandler,
			handler.NewCommentHandler,
			handler.NewMediaHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				api.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
