package services

import (
	"fmt"

	apperrors "github.com/itsmessk/infoziant-courses/errors"

	"github.com/razorpay/razorpay-go"
)

// OrderCreator mints a gateway-side order for an intended charge.
type OrderCreator interface {
	CreateOrder(amount int64, currency, receipt string) (orderID string, err error)
}

// RazorpayGateway wraps the Razorpay SDK's order creation. The client is
// built once from injected credentials; nothing here reads the environment.
type RazorpayGateway struct {
	client *razorpay.Client
}

func NewRazorpayGateway(keyID, keySecret string) (*RazorpayGateway, error) {
	if keyID == "" || keySecret == "" {
		return nil, fmt.Errorf("razorpay credentials not configured")
	}
	return &RazorpayGateway{client: razorpay.NewClient(keyID, keySecret)}, nil
}

// CreateOrder creates a Razorpay order for amount in minor units. Gateway
// failures surface as transient upstream errors; the caller does not retry.
func (g *RazorpayGateway) CreateOrder(amount int64, currency, receipt string) (string, error) {
	data := map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	}

	resp, err := g.client.Order.Create(data, nil)
	if err != nil {
		return "", apperrors.E(apperrors.Upstream, "Error creating order", err)
	}

	orderID, ok := resp["id"].(string)
	if !ok || orderID == "" {
		return "", apperrors.E(apperrors.Upstream, "Error creating order", fmt.Errorf("gateway response missing order id"))
	}

	return orderID, nil
}
