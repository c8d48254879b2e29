package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"willtank/internal/service"
)

// TwoFactorHandler manages authenticator app enrolment.
type TwoFactorHandler struct {
	svc service.TwoFactorService
}

// NewTwoFactorHandler creates a 2FA handler.
func NewTwoFactorHandler(svc service.TwoFactorService) *TwoFactorHandler {
	return &TwoFactorHandler{svc: svc}
}

// SecretResponse is a pending TOTP secret.
type SecretResponse struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauthUrl"`
	QRCode     string `json:"qrCode"`
}

// TOTPRequest carries an authenticator code.
type TOTPRequest struct {
	Token string `json:"token" validate:"required,len=6,numeric"`
}

// DisableTwoFactorRequest turns 2FA off.
type DisableTwoFactorRequest struct {
	Password string `json:"password" validate:"required"`
	Token    string `json:"token" validate:"omitempty,len=6,numeric"`
}

// Secret godoc
// @Summary Generate a TOTP secret
// @Tags 2fa
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SecretResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /2fa/secret [get]
func (h *TwoFactorHandler) Secret(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	key, err := h.svc.GenerateSecret(c.Request().Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, SecretResponse{
		Secret:     key.Secret,
		OTPAuthURL: key.OTPAuthURL,
		QRCode:     key.QRCode,
	})
}

// Verify godoc
// @Summary Enable 2FA
// @Tags 2fa
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TOTPRequest true "Authenticator code"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /2fa/verify [post]
func (h *TwoFactorHandler) Verify(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req TOTPRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.svc.Enable(c.Request().Context(), userID, req.Token); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "two-factor authentication enabled"})
}

// Disable godoc
// @Summary Disable 2FA
// @Tags 2fa
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body DisableTwoFactorRequest true "Password and code"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /2fa/disable [post]
func (h *TwoFactorHandler) Disable(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req DisableTwoFactorRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.svc.Disable(c.Request().Context(), userID, req.Password, req.Token); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "two-factor authentication disabled"})
}
