package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pepsfoods/checkout-backend/internal/auth"
	"github.com/pepsfoods/checkout-backend/internal/config"
	"github.com/pepsfoods/checkout-backend/internal/delivery"
	"github.com/pepsfoods/checkout-backend/internal/gateway"
	"github.com/pepsfoods/checkout-backend/internal/handler"
	appmw "github.com/pepsfoods/checkout-backend/internal/middleware"
	"github.com/pepsfoods/checkout-backend/internal/repository"
	"github.com/pepsfoods/checkout-backend/internal/resilience"
	"github.com/pepsfoods/checkout-backend/internal/scheduler"
	"github.com/pepsfoods/checkout-backend/internal/service"
	"github.com/pepsfoods/checkout-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server wires repositories, services and handlers together. Everything is
// injected; nothing reaches for globals.
type Server struct {
	e          *echo.Echo
	reconciler *scheduler.Reconciler
	monitor    resilience.Monitor
	log        *logger.Logger
}

func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, log *logger.Logger) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) (bool, error) {
			low := strings.ToLower(origin)
			if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") {
				return true, nil
			}
			return strings.HasSuffix(low, ".pepsfoods.com"), nil
		},
	}))

	monitor := resilience.NewDialMonitor(cfg.NetProbeAddr)
	prober := resilience.NewProber(cfg.AuthHealthURL, cfg.DataHealthURL, time.Duration(cfg.HealthThresholdMs)*time.Millisecond, log)
	exec := resilience.NewExecutor(monitor, prober, log)

	orderRepo := repository.NewOrderRepository(db)
	pointsRepo := repository.NewPointsRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	vendorRepo := repository.NewVendorRepository(db)
	productRepo := repository.NewProductRepository(db)

	gatewayClient := gateway.NewHTTPClient(cfg.GatewayBaseURL, cfg.GatewaySecretKey, exec)
	quoter := delivery.NewCachedQuoter(delivery.NewHTTPQuoter(cfg.DeliveryQuoteURL, exec), rdb, log)

	pointsSvc := service.NewPointsService(pointsRepo, log)
	paymentSvc := service.NewPaymentService(paymentRepo, orderRepo, vendorRepo, gatewayClient, rdb, exec, log)
	checkoutSvc := service.NewCheckoutService(orderRepo, vendorRepo, pointsSvc, paymentSvc, quoter, exec, log)
	orderSvc := service.NewOrderService(orderRepo)
	productSvc := service.NewProductService(productRepo)
	authSvc := service.NewAuthService(auth.NewFirebaseProvider(cfg.FirebaseAPIKey), exec, log)

	checkoutHandler := handler.NewCheckoutHandler(checkoutSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc, cfg.GatewaySecretKey)
	pointsHandler := handler.NewPointsHandler(pointsSvc)
	orderHandler := handler.NewOrderHandler(orderSvc)
	productHandler := handler.NewProductHandler(productSvc)
	authHandler := handler.NewAuthHandler(authSvc)

	authMw, err := appmw.NewAuthMiddleware(context.Background(), cfg.FirebaseProjectID)
	if err != nil {
		return nil, err
	}

	e.GET("/healthz", func(c echo.Context) error {
		h := prober.Check(c.Request().Context())
		status := http.StatusOK
		if !h.Healthy {
			status = http.StatusServiceUnavailable
		}
		return c.JSON(status, map[string]interface{}{
			"ok":         h.Healthy,
			"latency_ms": h.Latency.Milliseconds(),
			"reason":     h.Reason,
		})
	})

	api := e.Group("/api")
	api.POST("/auth/signin", authHandler.SignIn)
	api.POST("/checkout", checkoutHandler.Checkout, authMw.RequireAuth)
	api.POST("/checkout/delivery-quote", checkoutHandler.QuoteDeliveryFee, authMw.RequireAuth)
	api.GET("/payments/verify", paymentHandler.Verify)
	api.POST("/payments/webhook", paymentHandler.Webhook)
	api.GET("/me/orders", orderHandler.ListMine, authMw.RequireAuth)
	api.GET("/orders/:id", orderHandler.Get, authMw.RequireAuth)
	api.GET("/me/points", pointsHandler.Balance, authMw.RequireAuth)
	api.GET("/me/points/history", pointsHandler.History, authMw.RequireAuth)
	api.GET("/products", productHandler.List)
	api.GET("/products/:id", productHandler.Get)

	reconciler := scheduler.NewReconciler(orderRepo, pointsSvc, time.Duration(cfg.StaleOrderMinutes)*time.Minute, log)

	return &Server{e: e, reconciler: reconciler, monitor: monitor, log: log}, nil
}

func (s *Server) Start(addr string) error {
	// Give connectivity a moment to show up after boot; starting offline is
	// allowed, every outbound call is gated anyway.
	if err := s.monitor.WaitOnline(context.Background(), 30*time.Second); err != nil {
		s.log.Warn("starting without network connectivity", "error", err)
	}
	s.reconciler.Start()
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.reconciler.Stop()
	return s.e.Shutdown(ctx)
}
