package router

import (
	"github.com/gin-gonic/gin"

	"github.com/gigsetu/gigsetu-backend/internal/config"
	"github.com/gigsetu/gigsetu-backend/internal/http/handlers"
	"github.com/gigsetu/gigsetu-backend/internal/http/middleware"
	"github.com/gigsetu/gigsetu-backend/internal/models"
	"github.com/gigsetu/gigsetu-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	bookingHandler *handlers.BookingHandler,
	paymentHandler *handlers.PaymentHandler,
	walletHandler *handlers.WalletHandler,
	withdrawalHandler *handlers.WithdrawalHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	// The gateway authenticates with a shared key, not a user token. The
	// limit is generous; it exists to cap redelivery storms, not traffic.
	webhookRateLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit*20, cfg.RateLimitPeriod)
	api.POST("/payments/webhook", webhookRateLimit, paymentHandler.Webhook)

	api.GET("/ws", wsHandler.Handle)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.POST("/bookings", bookingHandler.Create)
		protected.GET("/bookings", bookingHandler.List)
		protected.GET("/bookings/:id", middleware.UUIDValidator("id"), bookingHandler.Get)
		protected.GET("/bookings/:id/payments", middleware.UUIDValidator("id"), bookingHandler.ListPayments)
		protected.POST("/bookings/:id/cancel", middleware.UUIDValidator("id"), bookingHandler.Cancel)
		protected.POST("/bookings/:id/rating", middleware.UUIDValidator("id"), bookingHandler.Rate)

		// OTP redemption is rate limited per IP against brute-forcing the
		// 4-digit space.
		otpRateLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)
		protected.POST("/bookings/:id/start", otpRateLimit, middleware.UUIDValidator("id"), bookingHandler.Start)
		protected.POST("/bookings/:id/complete", otpRateLimit, middleware.UUIDValidator("id"), bookingHandler.Complete)

		protected.GET("/wallet", walletHandler.Get)
		protected.GET("/wallet/credits", walletHandler.ListCredits)

		protected.POST("/payout-methods", withdrawalHandler.AddPayoutMethod)
		protected.GET("/payout-methods", withdrawalHandler.GetPayoutMethod)

		protected.POST("/withdrawals", withdrawalHandler.Create)
		protected.GET("/withdrawals", withdrawalHandler.List)
		protected.GET("/withdrawals/:id", middleware.UUIDValidator("id"), withdrawalHandler.Get)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(tokenManager), middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/withdrawals", withdrawalHandler.ListPending)
		admin.POST("/withdrawals/:id/decide", middleware.UUIDValidator("id"), withdrawalHandler.Decide)
	}

	return r
}
