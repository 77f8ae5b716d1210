package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go"
	"github.com/stripe/stripe-go/checkout/session"
)

type StripeConfig struct {
	SecretKey  string
	Currency   string
	SuccessURL string
	CancelURL  string
}

// StripeGateway creates Stripe Checkout sessions charging the advance payment.
type StripeGateway struct {
	cfg StripeConfig
}

func NewStripeGateway(cfg StripeConfig) *StripeGateway {
	stripe.Key = cfg.SecretKey
	return &StripeGateway{cfg: cfg}
}

func (g *StripeGateway) CreateSession(ctx context.Context, intent Intent) (*SessionRef, error) {
	received := intent.Received()
	if !intent.Complete() {
		return nil, &GatewayError{Message: "missing or invalid fields", Received: received}
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String("payment"),
		CustomerEmail:      stripe.String(intent.UserEmail),
		ClientReferenceID:  stripe.String(intent.UserID),
		SuccessURL:         stripe.String(withSessionPlaceholder(g.cfg.SuccessURL)),
		CancelURL:          stripe.String(g.cfg.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Name:        stripe.String(fmt.Sprintf("Advance for cage slot on %s", intent.Date)),
				Description: stripe.String(fmt.Sprintf("Price %d, advance %d, due at the venue %d", intent.Price, intent.AdvancePayment, intent.DuePayment)),
				// Stripe amounts are in the smallest currency unit.
				Amount:   stripe.Int64(intent.AdvancePayment * 100),
				Currency: stripe.String(g.cfg.Currency),
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	for k, v := range intent.Metadata() {
		params.AddMetadata(k, v)
	}

	s, err := session.New(params)
	if err != nil {
		return nil, classifyStripeError(err, received)
	}
	return &SessionRef{ID: s.ID}, nil
}

func (g *StripeGateway) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")

	s, err := session.Get(sessionID, params)
	if err != nil {
		return nil, classifyStripeError(err, nil)
	}

	status := "unpaid"
	if s.PaymentIntent != nil {
		status = string(s.PaymentIntent.Status)
	}
	return &Session{
		ID:     s.ID,
		Paid:   s.PaymentIntent != nil && s.PaymentIntent.Status == stripe.PaymentIntentStatusSucceeded,
		Status: status,
		Intent: IntentFromMetadata(s.Metadata),
	}, nil
}

// classifyStripeError turns client-side rejections into a GatewayError so they
// do not count as gateway outages. Everything else is returned wrapped.
func classifyStripeError(err error, received map[string]bool) error {
	var se *stripe.Error
	if errors.As(err, &se) && se.HTTPStatusCode >= http.StatusBadRequest && se.HTTPStatusCode < http.StatusInternalServerError {
		if received != nil {
			if field := fieldForParam(se.Param); field != "" {
				received[field] = false
			}
		}
		return &GatewayError{Message: se.Msg, Received: received, Err: err}
	}
	return fmt.Errorf("stripe request failed: %w", err)
}

// fieldForParam maps a Stripe parameter name back to the intent field it carries.
func fieldForParam(param string) string {
	switch {
	case param == "customer_email":
		return "userEmail"
	case param == "client_reference_id":
		return "user_id"
	case strings.HasPrefix(param, "line_items"):
		return "advance_payment"
	case strings.HasPrefix(param, "metadata[") && strings.HasSuffix(param, "]"):
		return strings.TrimSuffix(strings.TrimPrefix(param, "metadata["), "]")
	}
	return ""
}

func withSessionPlaceholder(url string) string {
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "session_id={CHECKOUT_SESSION_ID}"
}

