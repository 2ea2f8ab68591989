package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/studiobooks/internal/clock"
	"github.com/smallbiznis/studiobooks/internal/config"
	"github.com/smallbiznis/studiobooks/internal/customer"
	customerdomain "github.com/smallbiznis/studiobooks/internal/customer/domain"
	"github.com/smallbiznis/studiobooks/internal/invoice"
	invoicedomain "github.com/smallbiznis/studiobooks/internal/invoice/domain"
	"github.com/smallbiznis/studiobooks/internal/observability"
	obsmiddleware "github.com/smallbiznis/studiobooks/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/studiobooks/internal/observability/metrics"
	obstracing "github.com/smallbiznis/studiobooks/internal/observability/tracing"
	"github.com/smallbiznis/studiobooks/internal/payment"
	paymentdomain "github.com/smallbiznis/studiobooks/internal/payment/domain"
	paymentservice "github.com/smallbiznis/studiobooks/internal/payment/service"
	"github.com/smallbiznis/studiobooks/internal/product"
	productdomain "github.com/smallbiznis/studiobooks/internal/product/domain"
	"github.com/smallbiznis/studiobooks/internal/providers"
	"github.com/smallbiznis/studiobooks/internal/publicinvoice"
	publicinvoicedomain "github.com/smallbiznis/studiobooks/internal/publicinvoice/domain"
	"github.com/smallbiznis/studiobooks/internal/ratelimit"
	"github.com/smallbiznis/studiobooks/internal/tax"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Domains is every service the HTTP surface depends on. Binaries that serve only
// part of the routes still need the whole graph: the public payment page reads
// invoices, customers and the payment ledger.
var Domains = fx.Options(
	clock.Module,
	customer.Module,
	product.Module,
	tax.Module,
	invoice.Module,
	payment.Module,
	publicinvoice.Module,
	ratelimit.Module,
	providers.Module,
)

var Module = fx.Module("http.server",
	Domains,
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) {
		s.RegisterAPIRoutes()
		s.RegisterWebhookRoutes()
		s.RegisterPublicRoutes()
	}),
	fx.Invoke(RunHTTP),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func RunHTTP(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

// paymentService is the slice of the payment ledger the admin routes call.
type paymentService interface {
	AddPayment(ctx context.Context, invoiceID string, req paymentservice.AddPaymentRequest) (paymentservice.MutationResult, error)
	RemovalOptions(ctx context.Context, paymentID string) (paymentdomain.RemovalOptions, error)
	RemovePayment(ctx context.Context, req paymentdomain.RemovalRequest) (paymentservice.RemovalResult, error)
}

// publicLimiter throttles the unauthenticated routes.
type publicLimiter interface {
	Allow(ctx context.Context, scope ratelimit.Scope, key string) (*ratelimit.RateLimitResult, error)
}

type Server struct {
	engine           *gin.Engine
	cfg              config.Config
	log              *zap.Logger
	customerSvc      customerdomain.Service
	productSvc       productdomain.Service
	invoiceSvc       invoicedomain.Service
	paymentSvc       paymentService
	webhookSvc       paymentdomain.WebhookService
	publicInvoiceSvc publicinvoicedomain.Service
	publicLinkSvc    publicinvoicedomain.TokenService
	publicLimiter    publicLimiter
	obsMetrics       *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin              *gin.Engine
	Cfg              config.Config
	Log              *zap.Logger
	CustomerSvc      customerdomain.Service
	ProductSvc       productdomain.Service
	InvoiceSvc       invoicedomain.Service
	PaymentSvc       *paymentservice.Service
	WebhookSvc       paymentdomain.WebhookService
	PublicInvoiceSvc publicinvoicedomain.Service
	PublicLinkSvc    publicinvoicedomain.TokenService
	PublicLimiter    *ratelimit.PublicLimiter
	ObsMetrics       *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:           p.Gin,
		cfg:              p.Cfg,
		log:              p.Log.Named("http.server"),
		customerSvc:      p.CustomerSvc,
		productSvc:       p.ProductSvc,
		invoiceSvc:       p.InvoiceSvc,
		paymentSvc:       p.PaymentSvc,
		webhookSvc:       p.WebhookSvc,
		publicInvoiceSvc: p.PublicInvoiceSvc,
		publicLinkSvc:    p.PublicLinkSvc,
		publicLimiter:    p.PublicLimiter,
		obsMetrics:       p.ObsMetrics,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// RegisterAPIRoutes mounts the back-office API. Every route runs in the
// organization named by the X-Org-ID header.
func (s *Server) RegisterAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.OrgContext())

	// -------- Customers --------
	api.GET("/customers", s.ListCustomers)
	api.POST("/customers", s.CreateCustomer)
	api.GET("/customers/:id", s.GetCustomerByID)
	api.PATCH("/customers/:id", s.UpdateCustomer)
	api.GET("/customers/:id/credits", s.ListCustomerCredits)

	// -------- Products --------
	api.GET("/products", s.ListProducts)
	api.POST("/products", s.CreateProduct)
	api.GET("/products/:id", s.GetProductByID)
	api.PATCH("/products/:id", s.UpdateProduct)

	// -------- Invoices --------
	api.POST("/invoices/preview", s.PreviewInvoice)
	api.GET("/invoices", s.ListInvoices)
	api.POST("/invoices", s.CreateInvoice)
	api.GET("/invoices/:id", s.GetInvoiceSnapshot)
	api.PUT("/invoices/:id", s.UpdateInvoice)
	api.POST("/invoices/:id/public-link", s.EnsurePublicLink)

	// -------- Payments --------
	api.POST("/invoices/:id/payments", s.AddPayment)
	api.GET("/payments/:id/removal-options", s.GetRemovalOptions)
	api.POST("/payments/:id/removal", s.RemovePayment)
}

// RegisterWebhookRoutes mounts gateway callbacks. They are authenticated by
// signature, not by organization header.
func (s *Server) RegisterWebhookRoutes() {
	s.engine.POST("/webhooks/:provider", s.HandlePaymentWebhook)
	s.engine.POST("/api/payments/webhooks/:provider", s.HandlePaymentWebhook)
}
