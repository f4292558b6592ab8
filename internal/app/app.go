package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/snackline/backend/internal/config"
	"github.com/snackline/backend/internal/dal/geo"
	"github.com/snackline/backend/internal/dal/postgres"
	"github.com/snackline/backend/internal/dal/rabbitmq"
	"github.com/snackline/backend/internal/dal/stripepay"
	"github.com/snackline/backend/internal/dal/uow"
	"github.com/snackline/backend/internal/otel"
	"github.com/snackline/backend/internal/service/delivery"
	"github.com/snackline/backend/internal/service/services/catalogsvc"
	"github.com/snackline/backend/internal/service/services/checkoutsvc"
	"github.com/snackline/backend/internal/service/services/ordersvc"
	httptransport "github.com/snackline/backend/internal/transport/http"
	outboxworker "github.com/snackline/backend/internal/worker/outbox"
)

// App represents the application.
type App struct {
	transport      *httptransport.HTTPTransport
	postgresClient *postgres.Client
	rabbitClient   *rabbitmq.Client
	outboxWorker   *outboxworker.Worker
	otelController *otel.OtelController
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel()

	postgresClient := postgres.MustNewClient()
	rabbitClient := rabbitmq.MustNewClient()

	feeCalc := delivery.NewCalculator(config.Delivery(), geo.NewNominatimClient())

	orderSvc := ordersvc.MustNewOrderService(
		ordersvc.WithPostgresClient(postgresClient),
		ordersvc.WithDeliveryCalculator(feeCalc),
	)

	checkoutSvc := checkoutsvc.MustNewCheckoutService(
		checkoutsvc.WithOrderService(orderSvc),
		checkoutsvc.WithPaymentProvider(stripepay.NewClient(config.Stripe())),
	)

	catalogSvc := catalogsvc.MustNewCatalogService(
		catalogsvc.WithPostgresClient(postgresClient),
	)

	transport := httptransport.NewHTTPTransport(orderSvc, checkoutSvc, catalogSvc, config.AdminToken())
	transport.RegisterRoutes()

	outboxWorker := outboxworker.NewWorker(
		uow.NewUnitOfWork(postgresClient).OutboxRepository(),
		rabbitClient,
	)

	return &App{
		transport:      transport,
		postgresClient: postgresClient,
		rabbitClient:   rabbitClient,
		outboxWorker:   outboxWorker,
		otelController: otelController,
	}
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	workerCtx, cancelWorker := context.WithCancel(context.Background())
	go a.outboxWorker.Start(workerCtx)

	go func() {
		slog.Info("Starting HTTP server")
		if err := a.transport.Run(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	<-stop
	slog.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.transport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	cancelWorker()

	if err := a.rabbitClient.Close(); err != nil {
		slog.Error("RabbitMQ connection close error", "error", err)
	} else {
		slog.Info("RabbitMQ connection closed gracefully")
	}

	a.postgresClient.Close()
	slog.Info("Database connection closed gracefully")

	if err := a.otelController.Shutdown(); err != nil {
		slog.Error("Trace provider shutdown error", "error", err)
	}

	slog.Info("Application shutdown complete")
}
