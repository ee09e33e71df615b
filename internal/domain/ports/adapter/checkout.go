package adapter

import "context"

// CheckoutSession is the provider-side session created for one purchase.
type CheckoutSession struct {
	ID  string
	URL string
}

// CheckoutGateway is the port to the external payment processor's
// checkout-creation API. Webhook verification lives with the HTTP layer;
// the gateway only opens sessions.
type CheckoutGateway interface {
	CreateCheckout(ctx context.Context, priceRef, customerEmail, successURL, cancelURL string, metadata map[string]string) (*CheckoutSession, error)
	Name() string
}
