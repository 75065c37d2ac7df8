package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/GrEarl/Depictionator-sub001/internal/config"
	"github.com/GrEarl/Depictionator-sub001/internal/infra/database"
	"github.com/GrEarl/Depictionator-sub001/internal/infra/gateway"
	"github.com/GrEarl/Depictionator-sub001/internal/infra/repository"
	"github.com/GrEarl/Depictionator-sub001/internal/present/rest"
	"github.com/GrEarl/Depictionator-sub001/internal/service"
	"github.com/GrEarl/Depictionator-sub001/internal/usecase"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if conf.Server.EnableTrace {
		shutdown, err := initTracer(conf.Server.TraceEndpoint)
		if err != nil {
			slog.Error("Failed to init tracer", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer shutdown(context.Background())
	}

	db, err := database.NewPostgres(conf.Server.PostgresDsn)
	if err != nil {
		slog.Error("Failed to connect database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := database.MigratePostgres(db); err != nil {
		slog.Error("Failed to migrate database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rdb := database.NewRedis(conf.Server.RedisAddr, conf.Server.RedisPassword, conf.Server.RedisDB)
	mc := database.NewMemcached(conf.Server.MemcachedAddr)

	entityRepo := repository.NewEntityRepository(db)
	revisionRepo := repository.NewRevisionRepository(db)
	overlayRepo := repository.NewOverlayRepository(db)
	reviewRepo := repository.NewReviewRepository(db)

	signal := service.NewSignalService(rdb)

	roles := gateway.NewMembershipGateway(db)
	references := gateway.NewReferenceGateway(db, mc)
	audit := gateway.NewAuditGateway(db)
	notifier := gateway.NewNotifyGateway(signal)
	resolutionCache := gateway.NewResolutionCacheGateway(rdb)

	articleUC := usecase.NewArticleUsecase(entityRepo, revisionRepo, roles, audit, notifier, resolutionCache)
	overlayUC := usecase.NewOverlayUsecase(entityRepo, overlayRepo, revisionRepo, references, roles, audit, resolutionCache)
	revisionUC := usecase.NewRevisionUsecase(entityRepo, revisionRepo, roles, audit)
	reviewUC := usecase.NewReviewUsecase(reviewRepo, revisionRepo, roles, audit, notifier, resolutionCache)
	resolverUC := usecase.NewResolverUsecase(entityRepo, overlayRepo, revisionRepo, resolutionCache)

	actor := service.NewActorService()
	handler := rest.NewHandler(articleUC, overlayUC, revisionUC, reviewUC, resolverUC, signal)

	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware("depictionator"))
	}
	e.Use(actor.Identify())

	handler.RegisterRoutes(e)

	e.Logger.Fatal(e.Start(conf.Server.Listen))
}

func initTracer(endpoint string) (func(context.Context), error) {
	ctx := context.Background()

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName("depictionator")),
	)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			slog.Error("Failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}, nil
}
