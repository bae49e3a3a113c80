package webhooks

import (
	"testing"

	"github.com/stretchr/testify/require"
	stripe "github.com/stripe/stripe-go/v81"
)

func TestCustomerFromSession(t *testing.T) {
	withID := &stripe.CheckoutSession{
		Customer:      &stripe.Customer{ID: "cus_123"},
		CustomerEmail: "fallback@example.com",
	}
	require.Equal(t, "cus_123", customerFromSession(withID))

	emailOnly := &stripe.CheckoutSession{CustomerEmail: " buyer@example.com "}
	require.Equal(t, "buyer@example.com", customerFromSession(emailOnly))

	require.Equal(t, "", customerFromSession(&stripe.CheckoutSession{}))
}

func TestCustomerName(t *testing.T) {
	withDetails := &stripe.CheckoutSession{
		CustomerDetails: &stripe.CheckoutSessionCustomerDetails{Email: "buyer@example.com"},
	}
	require.Equal(t, "buyer@example.com", customerName(withDetails))

	emailOnly := &stripe.CheckoutSession{CustomerEmail: "buyer@example.com"}
	require.Equal(t, "buyer@example.com", customerName(emailOnly))

	require.Equal(t, "stripe customer", customerName(&stripe.CheckoutSession{}))
}
