package router

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"willtank/internal/auth"
	apperrors "willtank/internal/errors"
	"willtank/internal/handler"
	"willtank/internal/logger"
	"willtank/internal/validator"
)

// multipart framing on top of the largest accepted upload
const bodyOverhead = 1 << 20

func bodyLimit(maxUpload int64) string {
	if maxUpload <= 0 {
		return "12M"
	}
	return fmt.Sprintf("%dK", (maxUpload+bodyOverhead)/1024)
}

// AuthRateLimit throttles the public credential endpoints per client IP.
func AuthRateLimit(perMinute int) echo.MiddlewareFunc {
	if perMinute <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(perMinute) / 60),
		Burst:     perMinute,
		ExpiresIn: 3 * time.Minute,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			logger.FromContext(c.Request().Context()).Warn("auth rate limit hit", "client", identifier, "path", c.Path())
			return echo.NewHTTPError(http.StatusTooManyRequests, apperrors.ErrorResponse{
				Error: "too many attempts, try again later",
				Code:  "RATE_LIMITED",
			})
		},
	})
}

// RequestContext copies the request id into the request context so every
// log line written through logger.FromContext carries it.
func RequestContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Response().Header().Get(echo.HeaderXRequestID)
			if id != "" {
				req := c.Request()
				c.SetRequest(req.WithContext(logger.WithRequestID(req.Context(), id)))
			}
			return next(c)
		}
	}
}

// RequestLogger writes one structured line per request.
func RequestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			logger.FromContext(c.Request().Context()).LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	})
}

// Session runs after the JWT middleware. It rejects refresh tokens and
// revoked access tokens, then exposes the caller to handlers.
func Session(tokens auth.TokenStoreInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return unauthorized(c, nil)
			}
			claims, ok := token.Claims.(*auth.Claims)
			if !ok || claims.TokenType != auth.TokenTypeAccess {
				return unauthorized(c, nil)
			}

			ctx := c.Request().Context()
			revoked, err := tokens.IsAccessTokenBlacklisted(ctx, claims.ID)
			if err != nil {
				logger.FromContext(ctx).Warn("blacklist lookup failed", "error", err)
			}
			if revoked {
				return unauthorized(c, nil)
			}

			c.Set(handler.ContextUserID, claims.UserID)
			c.Set(handler.ContextClaims, claims)
			c.SetRequest(c.Request().WithContext(logger.WithUserID(ctx, claims.UserID.String())))
			return next(c)
		}
	}
}

func unauthorized(c echo.Context, err error) error {
	he := apperrors.MapErrorToHTTP(apperrors.ErrUnauthorized)
	return echo.NewHTTPError(he.StatusCode, he.ToErrorResponse())
}

// HTTPErrorHandler renders every error as an ErrorResponse.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := resolve(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request().Context()).Error("unhandled error", "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		logger.FromContext(c.Request().Context()).Error("write error response", "error", err)
	}
}

func resolve(err error) (int, apperrors.ErrorResponse) {
	var ve *validator.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, apperrors.ErrorResponse{
			Error:   "validation failed",
			Code:    "VALIDATION_ERROR",
			Details: ve.Errors,
		}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch m := he.Message.(type) {
		case apperrors.ErrorResponse:
			return he.Code, m
		case string:
			return he.Code, apperrors.ErrorResponse{Error: m, Code: statusCode(he.Code)}
		default:
			return he.Code, apperrors.ErrorResponse{Error: http.StatusText(he.Code), Code: statusCode(he.Code)}
		}
	}

	mapped := apperrors.MapErrorToHTTP(err)
	return mapped.StatusCode, mapped.ToErrorResponse()
}

func statusCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "INVALID_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusRequestEntityTooLarge:
		return "FILE_TOO_LARGE"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	default:
		if status >= http.StatusInternalServerError {
			return "INTERNAL_ERROR"
		}
		return "HTTP_ERROR"
	}
}
