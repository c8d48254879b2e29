package billing

import (
	"context"

	"willtank/internal/model"
)

// CheckoutParams describes a hosted checkout session.
type CheckoutParams struct {
	CustomerID string
	PriceID    string
	Interval   model.PlanInterval
	PlanType   model.PlanType
	UserID     string
	SuccessURL string
	CancelURL  string
}

// Mode returns the checkout mode: one-off payment for lifetime plans,
// subscription otherwise.
func (p CheckoutParams) Mode() string {
	if p.Interval == model.IntervalLifetime {
		return "payment"
	}
	return "subscription"
}

// WebhookEvent is the provider-neutral view of a billing webhook.
type WebhookEvent struct {
	Type           string
	CustomerID     string
	SubscriptionID string
	UserID         string
	PlanType       model.PlanType
	Interval       model.PlanInterval
	ProductID      string
	Status         string
}

// Webhook event types the service reacts to.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// Provider is the payment provider surface used by the billing service.
type Provider interface {
	CreateCustomer(ctx context.Context, userID, email, name string) (string, error)
	// FindPrice looks for an active price matching product, interval and amount.
	FindPrice(ctx context.Context, productID string, interval model.PlanInterval, amount int64, currency string) (string, bool, error)
	CreatePrice(ctx context.Context, productID string, interval model.PlanInterval, amount int64, currency string) (string, error)
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (string, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
	ActiveSubscription(ctx context.Context, customerID string) (string, bool, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
