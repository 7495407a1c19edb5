package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hazina/backend/internal/application/payment"
	"github.com/hazina/backend/internal/infrastructure/config"
	"github.com/hazina/backend/internal/infrastructure/logger"
	"github.com/hazina/backend/internal/infrastructure/metrics"
	"github.com/hazina/backend/internal/interfaces/http/dto"
	"github.com/hazina/backend/internal/interfaces/http/handler"
	"github.com/hazina/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// CallbackPath is the public route the payment network posts results to
const CallbackPath = "/api/v1/payments/mpesa/callback"

// Handlers are the HTTP handlers mounted by NewEngine
type Handlers struct {
	System         *handler.SystemHandler
	Contributions  *handler.ContributionHandler
	PaymentMethods *handler.PaymentMethodHandler
	Payments       *handler.PaymentHandler
}

// Options configures the engine built by NewEngine
type Options struct {
	Logger         *zap.Logger
	HTTP           config.HTTPConfig
	ServiceName    string
	TracingEnabled bool
	// ProfilingEnabled adds pprof route labels for the continuous profiler
	ProfilingEnabled bool
	Tokens           middleware.TokenValidator
	// Metrics is optional; nil disables /metrics and request instrumentation
	Metrics *metrics.Registry
	// CallbackLimiter is optional; nil leaves the callback route unthrottled
	CallbackLimiter *middleware.RateLimiter
}

// NewEngine builds the gin engine with the middleware chain and every route
func NewEngine(opts Options, h Handlers) (*gin.Engine, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(corsConfig(opts.HTTP)))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: opts.ServiceName,
		Enabled:     opts.TracingEnabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.Profiling(opts.ProfilingEnabled))
	if opts.Metrics != nil {
		engine.Use(opts.Metrics.GinMiddleware())
	}

	// The callback is mounted ahead of BodyLimit: the handler bounds its own
	// read and every callback is acknowledged with 200, whatever its size.
	callback := []gin.HandlerFunc{}
	if opts.CallbackLimiter != nil {
		callback = append(callback, middleware.RateLimitWithHandler(opts.CallbackLimiter, middleware.ClientIP, func(c *gin.Context) {
			if opts.Metrics != nil {
				opts.Metrics.CallbackProcessed(string(payment.CallbackThrottled))
			}
			h.Payments.MpesaCallbackThrottled(c)
		}))
	}
	callback = append(callback, h.Payments.MpesaCallback)
	engine.POST(CallbackPath, callback...)

	if opts.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(opts.HTTP.MaxBodySize))
	}

	engine.GET("/health", h.System.Health)
	if opts.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	jwtConfig := middleware.DefaultJWTConfig(opts.Tokens)
	jwtConfig.Logger = log

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig), middleware.TracingAttributeInjector())

	groupRoutes := NewDomainGroup("groups", "/groups/:group_id")
	groupRoutes.POST("/contributions", h.Contributions.Submit)
	groupRoutes.GET("/contributions/summary", h.Contributions.Summary)
	groupRoutes.GET("/contributions/report", h.Contributions.Report)
	groupRoutes.POST("/contributions/report/archive", h.Contributions.Archive)
	groupRoutes.GET("/approvals", h.Contributions.ListPendingApprovals)
	groupRoutes.GET("/payment-methods", h.PaymentMethods.List)
	groupRoutes.POST("/payment-methods", h.PaymentMethods.Create)

	approvalRoutes := NewDomainGroup("approvals", "/approvals")
	approvalRoutes.POST("/:approval_id/resolve", h.Contributions.Resolve)

	methodRoutes := NewDomainGroup("payment-methods", "/payment-methods")
	methodRoutes.POST("/:method_id/deactivate", h.PaymentMethods.Deactivate)

	paymentRoutes := NewDomainGroup("payments", "/payments")
	paymentRoutes.POST("/mpesa/stk-push", h.Payments.InitiateSTKPush)
	paymentRoutes.GET("/transactions/:transaction_id", h.Payments.GetTransaction)

	r.Register(groupRoutes).
		Register(approvalRoutes).
		Register(methodRoutes).
		Register(paymentRoutes)
	r.Setup()

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeNotFound, "Route not found", c.GetString(handler.RequestIDKey)))
	})
	return engine, nil
}

func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.CORSAllowOrigins
	if len(cfg.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.CORSAllowHeaders
	}
	return cors
}
