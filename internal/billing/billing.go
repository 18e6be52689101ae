// Package billing decides whether a caller is Pro and opens checkout sessions.
package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/reframeapp/reframe/internal/identity"
	"github.com/reframeapp/reframe/internal/models"
	"github.com/sirupsen/logrus"
)

var ErrMissingEmail = errors.New("account has no email")

// Subscription is the first active subscription found for a customer.
type Subscription struct {
	ID               string
	ProductID        string
	CurrentPeriodEnd time.Time
}

type CheckoutRequest struct {
	PriceID       string
	CustomerID    string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

// Gateway is the subset of the billing provider the service needs.
type Gateway interface {
	// FindCustomerID returns "" when no customer has the email.
	FindCustomerID(ctx context.Context, email string) (string, error)
	// ActiveSubscription returns nil when the customer has none.
	ActiveSubscription(ctx context.Context, customerID string) (*Subscription, error)
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error)
}

// EntitlementChecker looks up a caller's subscription on every call. Results
// are not cached.
type EntitlementChecker struct {
	gateway Gateway
	logger  *logrus.Logger
}

func NewEntitlementChecker(gateway Gateway, logger *logrus.Logger) *EntitlementChecker {
	return &EntitlementChecker{gateway: gateway, logger: logger}
}

// Status reports the caller's subscription. A nil identity or an identity
// without email is never subscribed and costs no billing call. Billing errors
// are returned as is.
func (e *EntitlementChecker) Status(ctx context.Context, id *identity.Identity) (models.SubscriptionStatus, error) {
	var status models.SubscriptionStatus
	if id == nil || id.Email == "" {
		return status, nil
	}

	customerID, err := e.gateway.FindCustomerID(ctx, id.Email)
	if err != nil {
		return status, fmt.Errorf("check subscription: %w", err)
	}
	if customerID == "" {
		e.logger.WithField("user_id", id.UserID).Debug("No billing customer for user")
		return status, nil
	}

	sub, err := e.gateway.ActiveSubscription(ctx, customerID)
	if err != nil {
		return status, fmt.Errorf("check subscription: %w", err)
	}
	if sub == nil {
		return status, nil
	}

	status.Subscribed = true
	if sub.ProductID != "" {
		productID := sub.ProductID
		status.ProductID = &productID
	}
	end := sub.CurrentPeriodEnd
	status.SubscriptionEnd = &end

	e.logger.WithFields(logrus.Fields{
		"user_id":    id.UserID,
		"product_id": sub.ProductID,
	}).Debug("Active subscription found")

	return status, nil
}

// IsPro reports whether the caller has an active subscription.
func (e *EntitlementChecker) IsPro(ctx context.Context, id *identity.Identity) (bool, error) {
	status, err := e.Status(ctx, id)
	if err != nil {
		return false, err
	}
	return status.Subscribed, nil
}

// Checkout opens subscription checkout sessions for a single price.
type Checkout struct {
	gateway    Gateway
	priceID    string
	successURL string
	cancelURL  string
}

func NewCheckout(gateway Gateway, priceID, successURL, cancelURL string) *Checkout {
	return &Checkout{
		gateway:    gateway,
		priceID:    priceID,
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

// Create returns the hosted checkout URL. When no redirect URLs are
// configured they are derived from origin.
func (c *Checkout) Create(ctx context.Context, id *identity.Identity, origin string) (string, error) {
	if id == nil || id.Email == "" {
		return "", ErrMissingEmail
	}

	customerID, err := c.gateway.FindCustomerID(ctx, id.Email)
	if err != nil {
		return "", fmt.Errorf("create checkout: %w", err)
	}

	origin = strings.TrimRight(origin, "/")
	successURL := c.successURL
	if successURL == "" {
		successURL = origin + "/?checkout=success"
	}
	cancelURL := c.cancelURL
	if cancelURL == "" {
		cancelURL = origin + "/?checkout=cancel"
	}

	req := CheckoutRequest{
		PriceID:    c.priceID,
		CustomerID: customerID,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
	}
	if customerID == "" {
		req.CustomerEmail = id.Email
	}

	return c.gateway.CreateCheckoutSession(ctx, req)
}
