package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"willtank/internal/billing"
	"willtank/internal/cache"
	"willtank/internal/config"
	apperrors "willtank/internal/errors"
	"willtank/internal/mail"
	"willtank/internal/model"
)

// MockInquiryRepository is a mock implementation of InquiryRepository.
type MockInquiryRepository struct {
	mock.Mock
}

func (m *MockInquiryRepository) Create(ctx context.Context, inquiry *model.EnterpriseInquiry) error {
	args := m.Called(ctx, inquiry)
	return args.Error(0)
}

type billingFixture struct {
	users     *MockUserRepository
	inquiries *MockInquiryRepository
	provider  *MockProvider
	mailer    *MockMailer
	notifier  *recordingNotifier
	svc       BillingService
}

func newBillingFixture() *billingFixture {
	return newBillingFixtureWithCache(nil)
}

func newBillingFixtureWithCache(c *cache.Client) *billingFixture {
	f := &billingFixture{
		users:     new(MockUserRepository),
		inquiries: new(MockInquiryRepository),
		provider:  new(MockProvider),
		mailer:    new(MockMailer),
		notifier:  &recordingNotifier{},
	}
	catalog := billing.DefaultCatalog(config.StripeConfig{
		ProductStarter: "prod_starter",
		ProductGold:    "prod_gold",
		Currency:       "usd",
	})
	f.svc = NewBillingService(f.users, f.inquiries, f.provider, catalog, f.mailer, "sales@willtank.test", f.notifier, c)
	return f
}

func TestBillingService_EnterpriseNeverReachesCheckout(t *testing.T) {
	f := newBillingFixture()

	for _, interval := range []model.PlanInterval{model.IntervalMonth, model.IntervalYear, model.IntervalLifetime, ""} {
		res, err := f.svc.Checkout(context.Background(), uuid.New(), CheckoutInput{PlanType: model.PlanEnterprise, Interval: interval})
		require.NoError(t, err)
		assert.Equal(t, CheckoutTypeEnterprise, res.Type)
		assert.Empty(t, res.URL)
	}

	f.users.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	f.provider.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.provider.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
}

func TestBillingService_CheckoutReusesPrice(t *testing.T) {
	f := newBillingFixture()
	ctx := context.Background()
	user := &model.User{ID: uuid.New(), Email: "a@example.com", Name: "A"}

	f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	f.provider.On("CreateCustomer", mock.Anything, user.ID.String(), user.Email, user.Name).Return("cus_1", nil).Once()
	f.users.On("Update", mock.Anything, user).Return(nil)
	f.provider.On("FindPrice", mock.Anything, "prod_gold", model.IntervalYear, int64(29999), "usd").Return("", false, nil).Once()
	f.provider.On("CreatePrice", mock.Anything, "prod_gold", model.IntervalYear, int64(29999), "usd").Return("price_gold_year", nil).Once()
	f.provider.On("FindPrice", mock.Anything, "prod_gold", model.IntervalYear, int64(29999), "usd").Return("price_gold_year", true, nil)
	f.provider.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(p billing.CheckoutParams) bool {
		return p.PriceID == "price_gold_year" && p.CustomerID == "cus_1" && p.Mode() == "subscription"
	})).Return("https://checkout.test/s", nil)

	in := CheckoutInput{PlanType: model.PlanGold, Interval: model.IntervalYear, SuccessURL: "https://app/ok", CancelURL: "https://app/cancel"}
	for i := 0; i < 2; i++ {
		res, err := f.svc.Checkout(ctx, user.ID, in)
		require.NoError(t, err)
		assert.Equal(t, CheckoutTypeRedirect, res.Type)
		assert.Equal(t, "https://checkout.test/s", res.URL)
	}

	f.provider.AssertNumberOfCalls(t, "CreatePrice", 1)
	f.provider.AssertNumberOfCalls(t, "CreateCustomer", 1)
	f.provider.AssertNumberOfCalls(t, "CreateCheckoutSession", 2)
	assert.Equal(t, "cus_1", user.StripeCustomerID)
}

func TestBillingService_LifetimeUsesPaymentMode(t *testing.T) {
	f := newBillingFixture()
	user := &model.User{ID: uuid.New(), StripeCustomerID: "cus_9"}

	f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	f.provider.On("FindPrice", mock.Anything, "prod_starter", model.IntervalLifetime, int64(29999), "usd").Return("price_life", true, nil)
	f.provider.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(p billing.CheckoutParams) bool {
		return p.Mode() == "payment" && p.CustomerID == "cus_9"
	})).Return("https://checkout.test/p", nil)

	res, err := f.svc.Checkout(context.Background(), user.ID, CheckoutInput{PlanType: model.PlanStarter, Interval: model.IntervalLifetime})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.test/p", res.URL)
	f.provider.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBillingService_CheckoutErrors(t *testing.T) {
	tests := []struct {
		name    string
		in      CheckoutInput
		setup   func(*billingFixture, uuid.UUID)
		wantErr error
	}{
		{"unknown plan", CheckoutInput{PlanType: "diamond", Interval: model.IntervalMonth}, nil, apperrors.ErrUnknownPlan},
		{"unknown interval", CheckoutInput{PlanType: model.PlanGold, Interval: "weekly"}, nil, apperrors.ErrUnknownPlan},
		{"no product configured", CheckoutInput{PlanType: model.PlanPlatinum, Interval: model.IntervalMonth}, nil, apperrors.ErrUnknownProduct},
		{
			"missing user",
			CheckoutInput{PlanType: model.PlanGold, Interval: model.IntervalMonth},
			func(f *billingFixture, id uuid.UUID) {
				f.users.On("FindByID", mock.Anything, id).Return(nil, gorm.ErrRecordNotFound)
			},
			apperrors.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBillingFixture()
			id := uuid.New()
			if tt.setup != nil {
				tt.setup(f, id)
			}
			_, err := f.svc.Checkout(context.Background(), id, tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
			f.provider.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
		})
	}
}

func TestBillingService_PortalAndCancel(t *testing.T) {
	t.Run("portal without customer", func(t *testing.T) {
		f := newBillingFixture()
		user := &model.User{ID: uuid.New()}
		f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)

		_, err := f.svc.Portal(context.Background(), user.ID, "https://app")
		assert.ErrorIs(t, err, apperrors.ErrNoCustomer)
	})

	t.Run("cancel without subscription", func(t *testing.T) {
		f := newBillingFixture()
		user := &model.User{ID: uuid.New(), StripeCustomerID: "cus_1"}
		f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		f.provider.On("ActiveSubscription", mock.Anything, "cus_1").Return("", false, nil)

		assert.ErrorIs(t, f.svc.Cancel(context.Background(), user.ID), apperrors.ErrNoSubscription)
	})

	t.Run("cancel active subscription", func(t *testing.T) {
		f := newBillingFixture()
		user := &model.User{ID: uuid.New(), StripeCustomerID: "cus_1", StripeSubscriptionID: "sub_1", SubscriptionStatus: "active"}
		f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		f.provider.On("CancelSubscription", mock.Anything, "sub_1").Return(nil)
		f.users.On("Update", mock.Anything, user).Return(nil)

		require.NoError(t, f.svc.Cancel(context.Background(), user.ID))
		assert.Equal(t, "canceled", user.SubscriptionStatus)
		assert.Empty(t, user.StripeSubscriptionID)
		assert.Len(t, f.notifier.sent, 1)
	})
}

func TestBillingService_EnterpriseInquiry(t *testing.T) {
	f := newBillingFixture()
	f.inquiries.On("Create", mock.Anything, mock.AnythingOfType("*model.EnterpriseInquiry")).Return(nil)
	f.mailer.On("Send", mock.Anything, mock.MatchedBy(func(m mail.Message) bool {
		return m.To == "sales@willtank.test" && m.ReplyTo == "ceo@firm.example"
	})).Return(nil)

	inq, err := f.svc.EnterpriseInquiry(context.Background(), nil, EnterpriseInquiryInput{
		Name: "Pat", Email: "CEO@firm.example", Company: "Firm", Message: "We have 300 staff.",
	})
	require.NoError(t, err)
	assert.Equal(t, "ceo@firm.example", inq.Email)
	f.mailer.AssertExpectations(t)
}

func TestBillingService_HandleWebhook(t *testing.T) {
	t.Run("checkout completed activates plan", func(t *testing.T) {
		f := newBillingFixture()
		user := &model.User{ID: uuid.New()}
		ev := &billing.WebhookEvent{
			Type:           billing.EventCheckoutCompleted,
			CustomerID:     "cus_1",
			SubscriptionID: "sub_1",
			UserID:         user.ID.String(),
			PlanType:       model.PlanGold,
			Interval:       model.IntervalMonth,
			Status:         "active",
		}
		f.provider.On("ParseWebhook", []byte("{}"), "sig").Return(ev, nil)
		f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		f.users.On("Update", mock.Anything, user).Return(nil)

		require.NoError(t, f.svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))
		assert.Equal(t, model.PlanGold, user.PlanType)
		assert.Equal(t, model.IntervalMonth, user.PlanInterval)
		assert.Equal(t, "cus_1", user.StripeCustomerID)
		assert.Equal(t, "sub_1", user.StripeSubscriptionID)
		require.Len(t, f.notifier.sent, 1)
		assert.Equal(t, model.NotificationSuccess, f.notifier.sent[0].Type)
	})

	t.Run("subscription update resolves plan from product", func(t *testing.T) {
		f := newBillingFixture()
		user := &model.User{ID: uuid.New(), StripeCustomerID: "cus_2", PlanType: model.PlanStarter}
		ev := &billing.WebhookEvent{
			Type:           billing.EventSubscriptionUpdated,
			CustomerID:     "cus_2",
			SubscriptionID: "sub_2",
			ProductID:      "prod_gold",
			Interval:       model.IntervalYear,
			Status:         "past_due",
		}
		f.provider.On("ParseWebhook", mock.Anything, mock.Anything).Return(ev, nil)
		f.users.On("FindByStripeCustomerID", mock.Anything, "cus_2").Return(user, nil)
		f.users.On("Update", mock.Anything, user).Return(nil)

		require.NoError(t, f.svc.HandleWebhook(context.Background(), nil, ""))
		assert.Equal(t, model.PlanGold, user.PlanType)
		assert.Equal(t, "past_due", user.SubscriptionStatus)
	})

	t.Run("unknown customer is acknowledged", func(t *testing.T) {
		f := newBillingFixture()
		ev := &billing.WebhookEvent{Type: billing.EventSubscriptionDeleted, CustomerID: "cus_x"}
		f.provider.On("ParseWebhook", mock.Anything, mock.Anything).Return(ev, nil)
		f.users.On("FindByStripeCustomerID", mock.Anything, "cus_x").Return(nil, gorm.ErrRecordNotFound)

		assert.NoError(t, f.svc.HandleWebhook(context.Background(), nil, ""))
		f.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("bad signature", func(t *testing.T) {
		f := newBillingFixture()
		f.provider.On("ParseWebhook", mock.Anything, mock.Anything).Return(nil, apperrors.ErrInvalidWebhook)

		assert.ErrorIs(t, f.svc.HandleWebhook(context.Background(), nil, "bad"), apperrors.ErrInvalidWebhook)
	})
}

func TestBillingService_PlanChangesRefreshCachedProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("webhook", func(t *testing.T) {
		redis := newTestCache(t)
		f := newBillingFixtureWithCache(redis)
		profiles := NewUserService(f.users, redis)

		user := &model.User{ID: uuid.New(), Email: "a@example.com", PlanType: model.PlanStarter}
		f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		f.users.On("Update", mock.Anything, user).Return(nil)

		before, err := profiles.GetUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, model.PlanStarter, before.PlanType)

		f.provider.On("ParseWebhook", mock.Anything, mock.Anything).Return(&billing.WebhookEvent{
			Type:           billing.EventCheckoutCompleted,
			CustomerID:     "cus_1",
			SubscriptionID: "sub_1",
			UserID:         user.ID.String(),
			PlanType:       model.PlanGold,
			Interval:       model.IntervalYear,
			Status:         "active",
		}, nil)
		require.NoError(t, f.svc.HandleWebhook(ctx, nil, "sig"))

		after, err := profiles.GetUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, model.PlanGold, after.PlanType)
		assert.Equal(t, model.IntervalYear, after.PlanInterval)
		assert.Equal(t, "active", after.SubscriptionStatus)
	})

	t.Run("cancel", func(t *testing.T) {
		redis := newTestCache(t)
		f := newBillingFixtureWithCache(redis)
		profiles := NewUserService(f.users, redis)

		user := &model.User{ID: uuid.New(), PlanType: model.PlanGold, StripeCustomerID: "cus_1", StripeSubscriptionID: "sub_1", SubscriptionStatus: "active"}
		f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		f.users.On("Update", mock.Anything, user).Return(nil)
		f.provider.On("CancelSubscription", mock.Anything, "sub_1").Return(nil)

		_, err := profiles.GetUser(ctx, user.ID)
		require.NoError(t, err)
		require.NoError(t, f.svc.Cancel(ctx, user.ID))

		after, err := profiles.GetUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "canceled", after.SubscriptionStatus)
	})
}
