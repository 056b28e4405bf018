// Package paystack talks to the payment gateway's verify-by-reference
// endpoint. "Could not check" and "checked and declined" are distinct
// outcomes and must never be conflated.
package paystack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrDeclined: the gateway answered and the transaction is not successful.
	ErrDeclined = errors.New("payment not successful")
	// ErrUnavailable: the gateway could not be reached or gave an unusable answer.
	ErrUnavailable = errors.New("payment verification unavailable")
)

// Verifier is what the order lifecycle depends on.
type Verifier interface {
	Verify(ctx context.Context, reference string) error
}

type Client struct {
	BaseURL   string
	SecretKey string
	HTTP      *http.Client
}

func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		BaseURL:   baseURL,
		SecretKey: secretKey,
		HTTP:      &http.Client{Timeout: 15 * time.Second},
	}
}

type verifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status    string `json:"status"`
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
	} `json:"data"`
}

// Verify returns nil when the gateway reports the transaction as success,
// ErrDeclined when it reports anything else, and ErrUnavailable on transport
// or protocol trouble.
func (c *Client) Verify(ctx context.Context, reference string) error {
	url := fmt.Sprintf("%s/transaction/verify/%s", c.BaseURL, reference)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: gateway returned %d", ErrUnavailable, resp.StatusCode)
	}

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	// The gateway's own embedded status field is the verdict, not the HTTP code.
	if body.Status && body.Data.Status == "success" {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrDeclined, body.Data.Status)
}
