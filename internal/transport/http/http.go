package httptransport

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"

	"github.com/snackline/backend/internal/service/models/catalog"
	"github.com/snackline/backend/internal/service/models/order"
	"github.com/snackline/backend/internal/service/services/checkoutsvc"
	captureorder "github.com/snackline/backend/internal/transport/http/capture"
	catalogapi "github.com/snackline/backend/internal/transport/http/catalog"
	createintent "github.com/snackline/backend/internal/transport/http/create_intent"
	createorder "github.com/snackline/backend/internal/transport/http/create_order"
	getorder "github.com/snackline/backend/internal/transport/http/get_order"
	listorders "github.com/snackline/backend/internal/transport/http/list_orders"
	updateorder "github.com/snackline/backend/internal/transport/http/update_order"
	webhookhandler "github.com/snackline/backend/internal/transport/http/webhook"
	"github.com/snackline/backend/pkg/http/middleware/trace"
	"github.com/snackline/backend/pkg/logger"
)

type orderService interface {
	CreateOrder(ctx context.Context, req *order.CreateRequest) (*order.Order, error)
	GetOrder(ctx context.Context, id int64) (*order.Order, error)
	ListOrders(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error)
	UpdateStatus(ctx context.Context, id int64, status order.Status) (*order.Order, error)
}

type checkoutService interface {
	CreateIntent(ctx context.Context, req *order.CreateRequest) (*checkoutsvc.IntentResponse, error)
	Capture(ctx context.Context, paymentIntentID string) (*order.Order, error)
	HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error
}

type catalogService interface {
	ListCategories(ctx context.Context) ([]catalog.Category, error)
	ListProducts(ctx context.Context) ([]catalog.Product, error)
	GetProduct(ctx context.Context, id int64) (*catalog.Product, error)
}

type HTTPTransport struct {
	server     *http.Server
	router     *chi.Mux
	orderSvc   orderService
	checkout   checkoutService
	catalog    catalogService
	adminToken string
}

func NewHTTPTransport(
	orderSvc orderService,
	checkout checkoutService,
	catalog catalogService,
	adminToken string,
) *HTTPTransport {
	router := newRouter()
	server := newServer(router)
	return &HTTPTransport{
		server:     server,
		router:     router,
		orderSvc:   orderSvc,
		checkout:   checkout,
		catalog:    catalog,
		adminToken: adminToken,
	}
}

func (h *HTTPTransport) Run() error {
	return h.server.ListenAndServe()
}

func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Get("/health", h.health)
	h.router.Post("/stripe/webhook", h.webhook)

	h.router.Route("/api", func(r chi.Router) {
		r.Get("/categories", h.listCategories)
		r.Get("/products", h.listProducts)
		r.Get("/products/{id}", h.getProduct)

		r.Post("/orders", h.createOrder)
		r.Post("/orders/stripe-intent", h.createIntent)
		r.Post("/orders/capture", h.capture)

		r.With(h.adminOnly).Get("/orders", h.listOrders)
		r.With(h.adminOnly).Get("/orders/{id}", h.getOrder)
		r.With(h.adminOnly).Patch("/orders/{id}", h.updateStatus)
	})
}

// adminOnly guards admin endpoints with the X-Admin-Token shared secret.
func (h *HTTPTransport) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.adminToken == "" {
			slog.Error("Admin endpoint hit but no admin token configured")
			http.Error(w, "admin access not configured", http.StatusServiceUnavailable)

			return
		}
		token := r.Header.Get("X-Admin-Token")
		if subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (h *HTTPTransport) health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *HTTPTransport) createOrder(w http.ResponseWriter, r *http.Request) {
	createorder.CreateOrder(w, r, h.orderSvc)
}

func (h *HTTPTransport) getOrder(w http.ResponseWriter, r *http.Request) {
	getorder.GetOrder(w, r, h.orderSvc)
}

func (h *HTTPTransport) listOrders(w http.ResponseWriter, r *http.Request) {
	listorders.ListOrders(w, r, h.orderSvc)
}

func (h *HTTPTransport) updateStatus(w http.ResponseWriter, r *http.Request) {
	updateorder.UpdateStatus(w, r, h.orderSvc)
}

func (h *HTTPTransport) createIntent(w http.ResponseWriter, r *http.Request) {
	createintent.CreateIntent(w, r, h.checkout)
}

func (h *HTTPTransport) capture(w http.ResponseWriter, r *http.Request) {
	captureorder.Capture(w, r, h.checkout)
}

func (h *HTTPTransport) webhook(w http.ResponseWriter, r *http.Request) {
	webhookhandler.HandleWebhook(w, r, h.checkout)
}

func (h *HTTPTransport) listCategories(w http.ResponseWriter, r *http.Request) {
	catalogapi.ListCategories(w, r, h.catalog)
}

func (h *HTTPTransport) listProducts(w http.ResponseWriter, r *http.Request) {
	catalogapi.ListProducts(w, r, h.catalog)
}

func (h *HTTPTransport) getProduct(w http.ResponseWriter, r *http.Request) {
	catalogapi.GetProduct(w, r, h.catalog)
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))
	router.Use(trace.NewTraceMiddleware)

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:    "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler: router,
	}
}
