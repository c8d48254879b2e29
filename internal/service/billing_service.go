package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"willtank/internal/billing"
	"willtank/internal/cache"
	apperrors "willtank/internal/errors"
	"willtank/internal/logger"
	"willtank/internal/mail"
	"willtank/internal/model"
	"willtank/internal/repository"
)

// CheckoutType tells the client what to do with a checkout response.
const (
	CheckoutTypeRedirect   = "checkout"
	CheckoutTypeEnterprise = "enterprise"
)

// CheckoutInput selects a plan and the return URLs.
type CheckoutInput struct {
	PlanType   model.PlanType
	Interval   model.PlanInterval
	SuccessURL string
	CancelURL  string
}

// CheckoutResult is either a hosted checkout URL or the enterprise contact path.
type CheckoutResult struct {
	Type string `json:"type"`
	URL  string `json:"url,omitempty"`
}

// SubscriptionState is the user's current plan.
type SubscriptionState struct {
	PlanType       model.PlanType     `json:"planType"`
	Interval       model.PlanInterval `json:"interval,omitempty"`
	Status         string             `json:"status,omitempty"`
	HasCustomer    bool               `json:"hasCustomer"`
	SubscriptionID string             `json:"subscriptionId,omitempty"`
}

// EnterpriseInquiryInput is a contact-sales request.
type EnterpriseInquiryInput struct {
	Name    string
	Email   string
	Company string
	Phone   string
	Message string
}

// BillingService orchestrates plan purchase through the payment provider.
// Provider failures are reported, never retried.
type BillingService interface {
	Plans() []billing.Plan
	Checkout(ctx context.Context, userID uuid.UUID, in CheckoutInput) (*CheckoutResult, error)
	Portal(ctx context.Context, userID uuid.UUID, returnURL string) (string, error)
	Cancel(ctx context.Context, userID uuid.UUID) error
	Current(ctx context.Context, userID uuid.UUID) (*SubscriptionState, error)
	EnterpriseInquiry(ctx context.Context, userID *uuid.UUID, in EnterpriseInquiryInput) (*model.EnterpriseInquiry, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type billingService struct {
	users      repository.UserRepository
	inquiries  repository.InquiryRepository
	provider   billing.Provider
	catalog    *billing.Catalog
	mailer     mail.Sender
	salesEmail string
	notifier   Notifier
	cache      *cache.Client
}

// NewBillingService creates a BillingService.
func NewBillingService(
	users repository.UserRepository,
	inquiries repository.InquiryRepository,
	provider billing.Provider,
	catalog *billing.Catalog,
	mailer mail.Sender,
	salesEmail string,
	notifier Notifier,
	cache *cache.Client,
) BillingService {
	return &billingService{
		users:      users,
		inquiries:  inquiries,
		provider:   provider,
		catalog:    catalog,
		mailer:     mailer,
		salesEmail: salesEmail,
		notifier:   notifier,
		cache:      cache,
	}
}

func (s *billingService) Plans() []billing.Plan {
	return s.catalog.Plans()
}

// Checkout opens a hosted checkout session. Enterprise never reaches the
// provider and is answered with the contact-sales path.
func (s *billingService) Checkout(ctx context.Context, userID uuid.UUID, in CheckoutInput) (*CheckoutResult, error) {
	if in.PlanType == model.PlanEnterprise {
		return &CheckoutResult{Type: CheckoutTypeEnterprise}, nil
	}

	productID, amount, err := s.catalog.Resolve(in.PlanType, in.Interval)
	if err != nil {
		return nil, err
	}

	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}

	customerID, err := s.ensureCustomer(ctx, user)
	if err != nil {
		return nil, err
	}

	priceID, found, err := s.provider.FindPrice(ctx, productID, in.Interval, amount, s.catalog.Currency)
	if err != nil {
		return nil, err
	}
	if !found {
		priceID, err = s.provider.CreatePrice(ctx, productID, in.Interval, amount, s.catalog.Currency)
		if err != nil {
			return nil, err
		}
		logger.FromContext(ctx).Info("created price", "product", productID, "interval", in.Interval, "price", priceID)
	}

	url, err := s.provider.CreateCheckoutSession(ctx, billing.CheckoutParams{
		CustomerID: customerID,
		PriceID:    priceID,
		Interval:   in.Interval,
		PlanType:   in.PlanType,
		UserID:     user.ID.String(),
		SuccessURL: in.SuccessURL,
		CancelURL:  in.CancelURL,
	})
	if err != nil {
		return nil, err
	}
	return &CheckoutResult{Type: CheckoutTypeRedirect, URL: url}, nil
}

func (s *billingService) ensureCustomer(ctx context.Context, user *model.User) (string, error) {
	if user.StripeCustomerID != "" {
		return user.StripeCustomerID, nil
	}

	id, err := s.provider.CreateCustomer(ctx, user.ID.String(), user.Email, user.Name)
	if err != nil {
		return "", err
	}
	user.StripeCustomerID = id
	if err := s.save(ctx, user); err != nil {
		return "", fmt.Errorf("save customer id: %w", err)
	}
	return id, nil
}

func (s *billingService) Portal(ctx context.Context, userID uuid.UUID, returnURL string) (string, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.StripeCustomerID == "" {
		return "", apperrors.ErrNoCustomer
	}
	return s.provider.CreatePortalSession(ctx, user.StripeCustomerID, returnURL)
}

func (s *billingService) Cancel(ctx context.Context, userID uuid.UUID) error {
	user, err := s.user(ctx, userID)
	if err != nil {
		return err
	}
	if user.StripeCustomerID == "" {
		return apperrors.ErrNoCustomer
	}

	subID := user.StripeSubscriptionID
	if subID == "" {
		id, found, err := s.provider.ActiveSubscription(ctx, user.StripeCustomerID)
		if err != nil {
			return err
		}
		if !found {
			return apperrors.ErrNoSubscription
		}
		subID = id
	}

	if err := s.provider.CancelSubscription(ctx, subID); err != nil {
		return err
	}

	user.StripeSubscriptionID = ""
	user.SubscriptionStatus = "canceled"
	if err := s.save(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	s.notifier.Notify(ctx, user.ID, model.NotificationWarning, "Subscription cancelled",
		"Your subscription has been cancelled.", nil)
	return nil
}

func (s *billingService) Current(ctx context.Context, userID uuid.UUID) (*SubscriptionState, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	plan := user.PlanType
	if plan == "" {
		plan = model.PlanStarter
	}
	return &SubscriptionState{
		PlanType:       plan,
		Interval:       user.PlanInterval,
		Status:         user.SubscriptionStatus,
		HasCustomer:    user.StripeCustomerID != "",
		SubscriptionID: user.StripeSubscriptionID,
	}, nil
}

// EnterpriseInquiry stores the request and forwards it to sales. A mail
// failure is logged; the inquiry is already saved.
func (s *billingService) EnterpriseInquiry(ctx context.Context, userID *uuid.UUID, in EnterpriseInquiryInput) (*model.EnterpriseInquiry, error) {
	inquiry := &model.EnterpriseInquiry{
		ID:      uuid.New(),
		UserID:  userID,
		Name:    strings.TrimSpace(in.Name),
		Email:   normalizeEmail(in.Email),
		Company: strings.TrimSpace(in.Company),
		Phone:   strings.TrimSpace(in.Phone),
		Message: in.Message,
	}
	if err := s.inquiries.Create(ctx, inquiry); err != nil {
		return nil, fmt.Errorf("create inquiry: %w", err)
	}

	body, err := mail.Render("enterprise_inquiry", inquiry)
	if err != nil {
		return nil, err
	}
	msg := mail.Message{
		To:       s.salesEmail,
		Subject:  "Enterprise inquiry from " + inquiry.Name,
		HTMLBody: body,
		ReplyTo:  inquiry.Email,
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		logger.FromContext(ctx).Error("send enterprise inquiry", "inquiry_id", inquiry.ID, "error", err)
	}
	return inquiry, nil
}

// HandleWebhook applies provider events to the user's plan state. Events for
// unknown users are acknowledged and ignored.
func (s *billingService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := s.provider.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}
	log := logger.FromContext(ctx).With("event", ev.Type)

	switch ev.Type {
	case billing.EventCheckoutCompleted, billing.EventSubscriptionUpdated, billing.EventSubscriptionDeleted:
	default:
		log.Debug("ignoring webhook event")
		return nil
	}

	user, err := s.webhookUser(ctx, ev)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			log.Warn("webhook for unknown user", "customer", ev.CustomerID, "user", ev.UserID)
			return nil
		}
		return err
	}

	if user.StripeCustomerID == "" && ev.CustomerID != "" {
		user.StripeCustomerID = ev.CustomerID
	}
	plan := ev.PlanType
	if plan == "" && ev.ProductID != "" {
		plan, _ = s.catalog.PlanForProduct(ev.ProductID)
	}

	var title, message string
	typ := model.NotificationSuccess
	switch ev.Type {
	case billing.EventCheckoutCompleted:
		user.StripeSubscriptionID = ev.SubscriptionID
		user.SubscriptionStatus = ev.Status
		title, message = "Plan activated", "Thank you! Your plan is now active."
	case billing.EventSubscriptionUpdated:
		user.StripeSubscriptionID = ev.SubscriptionID
		user.SubscriptionStatus = ev.Status
		title, message = "Subscription updated", "Your subscription is now "+ev.Status+"."
		typ = model.NotificationInfo
	case billing.EventSubscriptionDeleted:
		user.StripeSubscriptionID = ""
		user.SubscriptionStatus = "canceled"
		title, message = "Subscription ended", "Your subscription has ended."
		typ = model.NotificationWarning
	}
	if plan != "" && ev.Type != billing.EventSubscriptionDeleted {
		user.PlanType = plan
	}
	if ev.Interval != "" && ev.Type != billing.EventSubscriptionDeleted {
		user.PlanInterval = ev.Interval
	}

	if err := s.save(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	log.Info("plan state updated", "user_id", user.ID, "plan", user.PlanType, "status", user.SubscriptionStatus)
	s.notifier.Notify(ctx, user.ID, typ, title, message, map[string]interface{}{"planType": string(user.PlanType)})
	return nil
}

func (s *billingService) webhookUser(ctx context.Context, ev *billing.WebhookEvent) (*model.User, error) {
	if id, err := uuid.Parse(ev.UserID); err == nil {
		user, err := s.user(ctx, id)
		if err == nil || !errors.Is(err, apperrors.ErrUserNotFound) {
			return user, err
		}
	}
	if ev.CustomerID == "" {
		return nil, apperrors.ErrUserNotFound
	}
	user, err := s.users.FindByStripeCustomerID(ctx, ev.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// save persists plan state and drops the cached profile so GET /user sees it.
func (s *billingService) save(ctx context.Context, user *model.User) error {
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	_ = s.cache.Delete(ctx, userCacheKey(user.ID))
	return nil
}

func (s *billingService) user(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
