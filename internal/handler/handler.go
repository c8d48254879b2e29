package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"willtank/internal/auth"
	apperrors "willtank/internal/errors"
	"willtank/internal/logger"
	"willtank/internal/validator"
)

// Context keys set by the auth middleware.
const (
	ContextUserID = "userID"
	ContextClaims = "claims"
)

// SessionCookie carries the access token for browser clients.
const SessionCookie = "session"

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// fail converts a service error into an echo HTTP error with the standard body.
func fail(c echo.Context, err error) error {
	he := apperrors.MapErrorToHTTP(err)
	if he.StatusCode >= http.StatusInternalServerError {
		logger.FromContext(c.Request().Context()).Error("request failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"error", err,
		)
	}
	return echo.NewHTTPError(he.StatusCode, he.ToErrorResponse())
}

// bind decodes and validates a request body.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}

	if err := c.Validate(req); err != nil {
		var ve *validator.ValidationError
		if errors.As(err, &ve) {
			return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
				Error:   "validation failed",
				Code:    "VALIDATION_ERROR",
				Details: ve.Errors,
			})
		}
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_ERROR",
		})
	}
	return nil
}

// currentUser returns the authenticated user id.
func currentUser(c echo.Context) (uuid.UUID, error) {
	id, ok := c.Get(ContextUserID).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, fail(c, apperrors.ErrUnauthorized)
	}
	return id, nil
}

func currentClaims(c echo.Context) *auth.Claims {
	claims, _ := c.Get(ContextClaims).(*auth.Claims)
	return claims
}

// pathID parses a UUID path parameter.
func pathID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
			Error: "invalid " + name,
			Code:  "INVALID_UUID",
		})
	}
	return id, nil
}

// ownedPath resolves the caller and a UUID path parameter in one go.
func ownedPath(c echo.Context, name string) (uuid.UUID, uuid.UUID, error) {
	userID, err := currentUser(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	id, err := pathID(c, name)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return userID, id, nil
}
