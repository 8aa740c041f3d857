package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"
)

// PaymentsClient is a thin adapter over the hosted payments provider's REST
// API. Subscription money flows live entirely on the provider's side; this
// client only creates/cancels objects and reads back state for the frontend
// to confirm. It is never on the instant-photo critical path.
type PaymentsClient struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

// NewPaymentsClient reads provider configuration from the environment.
// Returns nil when the provider is not configured; callers must treat a nil
// client as "payments disabled".
func NewPaymentsClient() *PaymentsClient {
	secretKey := os.Getenv("PAYMENTS_SECRET_KEY")
	if secretKey == "" {
		return nil
	}

	baseURL := os.Getenv("PAYMENTS_API_URL")
	if baseURL == "" {
		baseURL = "https://api.payments.example.com/v1"
	}

	return &PaymentsClient{
		baseURL:   baseURL,
		secretKey: secretKey,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

// Customer is the provider-side customer object.
type Customer struct {
	ID       string            `json:"id"`
	Email    string            `json:"email"`
	Metadata map[string]string `json:"metadata"`
}

// ProviderSubscription is the provider-side subscription object.
type ProviderSubscription struct {
	ID               string `json:"id"`
	CustomerID       string `json:"customer"`
	Status           string `json:"status"`
	CurrentPeriodEnd int64  `json:"current_period_end"`
}

// CheckoutIntent carries the client secret the frontend needs to confirm a
// payment.
type CheckoutIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

func (c *PaymentsClient) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("payments request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("payments API returned %d for %s %s", resp.StatusCode, method, path)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// CreateCustomer creates a provider customer tagged with our user id.
func (c *PaymentsClient) CreateCustomer(ctx context.Context, userID uint, email string) (*Customer, error) {
	var customer Customer
	err := c.do(ctx, http.MethodPost, "/customers", map[string]interface{}{
		"email":    email,
		"metadata": map[string]string{"user_id": fmt.Sprintf("%d", userID)},
	}, &customer)
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// FindCustomerByUserID looks a customer up by the user_id metadata tag.
func (c *PaymentsClient) FindCustomerByUserID(ctx context.Context, userID uint) (*Customer, error) {
	var result struct {
		Data []Customer `json:"data"`
	}
	query := url.Values{"metadata[user_id]": {fmt.Sprintf("%d", userID)}}
	err := c.do(ctx, http.MethodGet, "/customers/search?"+query.Encode(), nil, &result)
	if err != nil {
		return nil, err
	}
	if len(result.Data) == 0 {
		return nil, nil
	}
	return &result.Data[0], nil
}

// CreateSubscription starts a subscription for a plan price.
func (c *PaymentsClient) CreateSubscription(ctx context.Context, customerID, priceID string) (*ProviderSubscription, error) {
	var subscription ProviderSubscription
	err := c.do(ctx, http.MethodPost, "/subscriptions", map[string]interface{}{
		"customer": customerID,
		"price":    priceID,
	}, &subscription)
	if err != nil {
		return nil, err
	}
	return &subscription, nil
}

// CancelSubscription cancels a provider subscription immediately.
func (c *PaymentsClient) CancelSubscription(ctx context.Context, subscriptionID string) error {
	return c.do(ctx, http.MethodDelete, "/subscriptions/"+subscriptionID, nil, nil)
}

// GetCheckoutIntent fetches the confirmation secret for a pending payment.
func (c *PaymentsClient) GetCheckoutIntent(ctx context.Context, intentID string) (*CheckoutIntent, error) {
	var intent CheckoutIntent
	err := c.do(ctx, http.MethodGet, "/payment_intents/"+intentID, nil, &intent)
	if err != nil {
		return nil, err
	}
	return &intent, nil
}
