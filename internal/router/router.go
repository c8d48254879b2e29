package router

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"willtank/internal/auth"
	"willtank/internal/config"
	"willtank/internal/handler"
	"willtank/internal/validator"
)

// Handlers groups every HTTP handler the API exposes.
type Handlers struct {
	Auth      *handler.AuthHandler
	User      *handler.UserHandler
	TwoFactor *handler.TwoFactorHandler
	Will      *handler.WillHandler
	Document  *handler.DocumentHandler
	Estate    *handler.EstateHandler
	Reminder  *handler.ReminderHandler
	Billing   *handler.BillingHandler
	Chat      *handler.ChatHandler
	Package   *handler.PackageHandler
}

// Register wires routes and middleware.
func Register(e *echo.Echo, cfg *config.Config, h Handlers, tokens auth.TokenStoreInterface) {
	e.HTTPErrorHandler = HTTPErrorHandler
	e.Validator = validator.New()

	e.Use(middleware.RequestID())
	e.Use(RequestContext())
	e.Use(RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(bodyLimit(cfg.UploadMaxBytes)))

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	limited := AuthRateLimit(cfg.AuthRateLimit)
	api.POST("/register", h.Auth.Register, limited)
	api.POST("/verify-email", h.Auth.VerifyEmail, limited)
	api.POST("/resend-verification", h.Auth.ResendVerification, limited)
	api.POST("/request-login-code", h.Auth.RequestLoginCode, limited)
	api.POST("/login", h.Auth.Login, limited)
	api.POST("/refresh", h.Auth.Refresh)
	api.POST("/forgot-password", h.Auth.ForgotPassword, limited)
	api.POST("/reset-password", h.Auth.ResetPassword, limited)
	api.GET("/templates", h.Will.Templates)
	api.GET("/subscription/plans", h.Billing.Plans)
	api.POST("/stripe/webhook", h.Billing.Webhook)

	// Secured routes (require JWT authentication)
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(cfg.JWTSecret),
		SigningMethod: jwt.SigningMethodHS256.Alg(),
		TokenLookup:   "header:" + echo.HeaderAuthorization + ":Bearer ,cookie:" + handler.SessionCookie,
		NewClaimsFunc: func(c echo.Context) jwt.Claims { return new(auth.Claims) },
		ErrorHandler:  unauthorized,
	}), Session(tokens))

	secured.POST("/logout", h.Auth.Logout)

	secured.GET("/user", h.User.GetMe)
	secured.PUT("/user", h.User.UpdateProfile)
	secured.POST("/user/onboarding-complete", h.User.CompleteOnboarding)

	secured.GET("/2fa/secret", h.TwoFactor.Secret)
	secured.POST("/2fa/verify", h.TwoFactor.Verify)
	secured.POST("/2fa/disable", h.TwoFactor.Disable)

	// Wills and wizard progress
	secured.GET("/wills", h.Will.List)
	secured.POST("/wills", h.Will.Create)
	secured.GET("/wills/:id", h.Will.Get)
	secured.PUT("/wills/:id", h.Will.Update)
	secured.DELETE("/wills/:id", h.Will.Delete)
	secured.POST("/wills/:id/lock", h.Will.Lock)
	secured.POST("/wills/:id/unlock", h.Will.Unlock)
	secured.GET("/wills/:id/progress", h.Will.Progress)
	secured.POST("/wills/:id/progress", h.Will.SetProgress)
	secured.GET("/progress/resume", h.Will.Resume)
	secured.GET("/wills/:id/package", h.Package.Download)

	// Documents and video
	secured.GET("/wills/:id/documents", h.Document.List)
	secured.POST("/wills/:id/documents", h.Document.Upload)
	secured.DELETE("/documents/:id", h.Document.Delete)
	secured.GET("/documents/:id/download", h.Document.Download)
	secured.POST("/wills/:id/video", h.Document.UploadVideo)

	// Beneficiaries and assets
	secured.GET("/wills/:id/beneficiaries", h.Estate.ListBeneficiaries)
	secured.POST("/wills/:id/beneficiaries", h.Estate.CreateBeneficiary)
	secured.PUT("/beneficiaries/:id", h.Estate.UpdateBeneficiary)
	secured.DELETE("/beneficiaries/:id", h.Estate.DeleteBeneficiary)
	secured.GET("/wills/:id/assets", h.Estate.ListAssets)
	secured.POST("/wills/:id/assets", h.Estate.CreateAsset)
	secured.PUT("/assets/:id", h.Estate.UpdateAsset)
	secured.DELETE("/assets/:id", h.Estate.DeleteAsset)

	// Reminders and notifications
	secured.GET("/reminders", h.Reminder.List)
	secured.POST("/reminders", h.Reminder.Create)
	secured.PUT("/reminders/:id", h.Reminder.Update)
	secured.DELETE("/reminders/:id", h.Reminder.Delete)
	secured.POST("/reminders/:id/toggle", h.Reminder.Toggle)
	secured.GET("/notifications", h.Reminder.Notifications)
	secured.GET("/notifications/unread-count", h.Reminder.UnreadCount)
	secured.POST("/notifications/mark-read/:id", h.Reminder.MarkRead)
	secured.POST("/notifications/mark-all-read", h.Reminder.MarkAllRead)
	secured.DELETE("/notifications/:id", h.Reminder.DeleteNotification)

	// Skyler assistant
	secured.POST("/skyler/chat-stream", h.Chat.Stream)
	secured.POST("/skyler/chat", h.Chat.Chat)

	// Subscription
	secured.GET("/subscription", h.Billing.Current)
	secured.POST("/subscription/checkout", h.Billing.Checkout)
	secured.POST("/subscription/portal", h.Billing.Portal)
	secured.POST("/subscription/cancel", h.Billing.Cancel)
	secured.POST("/support/enterprise", h.Billing.EnterpriseInquiry)

	secured.GET("/dashboard/summary", h.Package.Summary)
}
