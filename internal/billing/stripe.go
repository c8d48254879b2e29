package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	apperrors "willtank/internal/errors"
	"willtank/internal/model"
)

// StripeProvider implements Provider with the Stripe API.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
}

var _ Provider = (*StripeProvider)(nil)

// NewStripeProvider creates a Stripe-backed provider.
func NewStripeProvider(secretKey, webhookSecret string) *StripeProvider {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &StripeProvider{api: sc, webhookSecret: webhookSecret}
}

func providerErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", apperrors.ErrPaymentProvider, op, err)
}

func (p *StripeProvider) CreateCustomer(ctx context.Context, userID, email, name string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	params.Context = ctx
	params.AddMetadata("user_id", userID)

	cust, err := p.api.Customers.New(params)
	if err != nil {
		return "", providerErr("create customer", err)
	}
	return cust.ID, nil
}

func (p *StripeProvider) FindPrice(ctx context.Context, productID string, interval model.PlanInterval, amount int64, currency string) (string, bool, error) {
	params := &stripe.PriceListParams{
		Product: stripe.String(productID),
		Active:  stripe.Bool(true),
	}
	params.Context = ctx

	var prices []*stripe.Price
	it := p.api.Prices.List(params)
	for it.Next() {
		prices = append(prices, it.Price())
	}
	if err := it.Err(); err != nil {
		return "", false, providerErr("list prices", err)
	}

	if pr := MatchPrice(prices, interval, amount, currency); pr != nil {
		return pr.ID, true, nil
	}
	return "", false, nil
}

// MatchPrice returns the first active price with the same amount, currency
// and interval. Lifetime plans match one-time prices.
func MatchPrice(prices []*stripe.Price, interval model.PlanInterval, amount int64, currency string) *stripe.Price {
	for _, pr := range prices {
		if pr == nil || !pr.Active || pr.UnitAmount != amount || !strings.EqualFold(string(pr.Currency), currency) {
			continue
		}
		if interval == model.IntervalLifetime {
			if pr.Recurring == nil {
				return pr
			}
			continue
		}
		if pr.Recurring != nil && string(pr.Recurring.Interval) == string(interval) {
			return pr
		}
	}
	return nil
}

func (p *StripeProvider) CreatePrice(ctx context.Context, productID string, interval model.PlanInterval, amount int64, currency string) (string, error) {
	params := &stripe.PriceParams{
		Product:    stripe.String(productID),
		UnitAmount: stripe.Int64(amount),
		Currency:   stripe.String(currency),
	}
	if interval != model.IntervalLifetime {
		params.Recurring = &stripe.PriceRecurringParams{
			Interval: stripe.String(string(interval)),
		}
	}
	params.Context = ctx

	pr, err := p.api.Prices.New(params)
	if err != nil {
		return "", providerErr("create price", err)
	}
	return pr.ID, nil
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, in CheckoutParams) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Customer:          stripe.String(in.CustomerID),
		Mode:              stripe.String(in.Mode()),
		ClientReferenceID: stripe.String(in.UserID),
		SuccessURL:        stripe.String(in.SuccessURL),
		CancelURL:         stripe.String(in.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(in.PriceID), Quantity: stripe.Int64(1)},
		},
	}
	params.Context = ctx
	params.AddMetadata("user_id", in.UserID)
	params.AddMetadata("plan_type", string(in.PlanType))
	params.AddMetadata("interval", string(in.Interval))

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return "", providerErr("create checkout session", err)
	}
	return sess.URL, nil
}

func (p *StripeProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	sess, err := p.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", providerErr("create portal session", err)
	}
	return sess.URL, nil
}

func (p *StripeProvider) ActiveSubscription(ctx context.Context, customerID string) (string, bool, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String(string(stripe.SubscriptionStatusActive)),
	}
	params.Context = ctx

	it := p.api.Subscriptions.List(params)
	for it.Next() {
		return it.Subscription().ID, true, nil
	}
	if err := it.Err(); err != nil {
		return "", false, providerErr("list subscriptions", err)
	}
	return "", false, nil
}

func (p *StripeProvider) CancelSubscription(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx

	if _, err := p.api.Subscriptions.Cancel(subscriptionID, params); err != nil {
		return providerErr("cancel subscription", err)
	}
	return nil
}

func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidWebhook, err)
	}
	return decodeEvent(string(event.Type), event.Data.Raw)
}

func decodeEvent(eventType string, raw json.RawMessage) (*WebhookEvent, error) {
	out := &WebhookEvent{Type: eventType}

	switch eventType {
	case EventCheckoutCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(raw, &sess); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		if sess.Customer != nil {
			out.CustomerID = sess.Customer.ID
		}
		if sess.Subscription != nil {
			out.SubscriptionID = sess.Subscription.ID
		}
		out.UserID = sess.ClientReferenceID
		if out.UserID == "" {
			out.UserID = sess.Metadata["user_id"]
		}
		out.PlanType = model.PlanType(sess.Metadata["plan_type"])
		out.Interval = model.PlanInterval(sess.Metadata["interval"])
		out.Status = "active"

	case EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(raw, &sub); err != nil {
			return nil, fmt.Errorf("decode subscription: %w", err)
		}
		out.SubscriptionID = sub.ID
		if sub.Customer != nil {
			out.CustomerID = sub.Customer.ID
		}
		out.Status = string(sub.Status)
		if sub.Items != nil && len(sub.Items.Data) > 0 {
			if pr := sub.Items.Data[0].Price; pr != nil {
				if pr.Product != nil {
					out.ProductID = pr.Product.ID
				}
				if pr.Recurring != nil {
					out.Interval = model.PlanInterval(pr.Recurring.Interval)
				}
			}
		}
	}
	return out, nil
}
