package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "willtank/internal/errors"
	"willtank/internal/logger"
	"willtank/internal/model"
	"willtank/internal/service"
)

const maxWebhookBytes = 64 << 10

// BillingHandler serves plans, checkout and the payment provider webhook.
type BillingHandler struct {
	svc service.BillingService
}

// NewBillingHandler creates a billing handler.
func NewBillingHandler(svc service.BillingService) *BillingHandler {
	return &BillingHandler{svc: svc}
}

// CheckoutRequest picks a plan and interval.
type CheckoutRequest struct {
	PlanType   model.PlanType     `json:"planType" validate:"required,plan_type"`
	Interval   model.PlanInterval `json:"interval" validate:"omitempty,plan_interval"`
	SuccessURL string             `json:"successUrl" validate:"omitempty,url"`
	CancelURL  string             `json:"cancelUrl" validate:"omitempty,url"`
}

// PortalRequest opens the customer billing portal.
type PortalRequest struct {
	ReturnURL string `json:"returnUrl" validate:"omitempty,url"`
}

// URLResponse carries a redirect target.
type URLResponse struct {
	URL string `json:"url"`
}

// EnterpriseInquiryRequest asks sales to get in touch.
type EnterpriseInquiryRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Email   string `json:"email" validate:"required,email"`
	Company string `json:"company" validate:"max=255"`
	Phone   string `json:"phone" validate:"max=50"`
	Message string `json:"message" validate:"required"`
}

// Plans godoc
// @Summary List subscription plans
// @Tags subscription
// @Produce json
// @Success 200 {array} billing.Plan
// @Router /subscription/plans [get]
func (h *BillingHandler) Plans(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Plans())
}

// Current godoc
// @Summary Current subscription state
// @Tags subscription
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.SubscriptionState
// @Failure 404 {object} errors.ErrorResponse
// @Router /subscription [get]
func (h *BillingHandler) Current(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	state, err := h.svc.Current(c.Request().Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, state)
}

// Checkout godoc
// @Summary Start a checkout
// @Description Enterprise returns {"type":"enterprise"} and never opens a checkout session.
// @Tags subscription
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CheckoutRequest true "Plan"
// @Success 200 {object} service.CheckoutResult
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 502 {object} errors.ErrorResponse
// @Router /subscription/checkout [post]
func (h *BillingHandler) Checkout(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req CheckoutRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	res, err := h.svc.Checkout(c.Request().Context(), userID, service.CheckoutInput{
		PlanType:   req.PlanType,
		Interval:   req.Interval,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Portal godoc
// @Summary Open the billing portal
// @Tags subscription
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PortalRequest false "Return URL"
// @Success 200 {object} URLResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /subscription/portal [post]
func (h *BillingHandler) Portal(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req PortalRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	url, err := h.svc.Portal(c.Request().Context(), userID, req.ReturnURL)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, URLResponse{URL: url})
}

// Cancel godoc
// @Summary Cancel the active subscription
// @Tags subscription
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /subscription/cancel [post]
func (h *BillingHandler) Cancel(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.svc.Cancel(c.Request().Context(), userID); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "subscription cancelled"})
}

// EnterpriseInquiry godoc
// @Summary Contact sales about the enterprise plan
// @Tags subscription
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body EnterpriseInquiryRequest true "Inquiry"
// @Success 201 {object} model.EnterpriseInquiry
// @Failure 400 {object} errors.ErrorResponse
// @Router /support/enterprise [post]
func (h *BillingHandler) EnterpriseInquiry(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req EnterpriseInquiryRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	inquiry, err := h.svc.EnterpriseInquiry(c.Request().Context(), &userID, service.EnterpriseInquiryInput{
		Name:    req.Name,
		Email:   req.Email,
		Company: req.Company,
		Phone:   req.Phone,
		Message: req.Message,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, inquiry)
}

// Webhook godoc
// @Summary Payment provider webhook
// @Tags subscription
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Webhook signature"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /stripe/webhook [post]
func (h *BillingHandler) Webhook(c echo.Context) error {
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBytes))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
			Error: "could not read payload",
			Code:  "INVALID_REQUEST",
		})
	}

	if err := h.svc.HandleWebhook(c.Request().Context(), payload, c.Request().Header.Get("Stripe-Signature")); err != nil {
		logger.FromContext(c.Request().Context()).Warn("webhook rejected", "error", err)
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "received"})
}
