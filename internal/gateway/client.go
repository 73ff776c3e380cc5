package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"

	"github.com/pepsfoods/checkout-backend/internal/model"
)

const StatusSuccess = "success"

// InitializeRequest opens a hosted payment session. Amount is in minor
// units of the local currency, as the gateway expects.
type InitializeRequest struct {
	Email       string
	AmountMinor int64
	Reference   string
	Split       model.SplitConfig
}

type InitializeResponse struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

type VerifyResponse struct {
	Status      string
	AmountMinor int64
	Reference   string
	Message     string
}

// Client is the hosted payment processor. Implementations route every call
// through the resilient request layer.
type Client interface {
	Initialize(ctx context.Context, req InitializeRequest) (*InitializeResponse, error)
	Verify(ctx context.Context, reference string) (*VerifyResponse, error)
}

// APIError is a non-success payload from the gateway: a business failure,
// never retried.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway: %s", e.Message)
}

// VerifyWebhookSignature checks the HMAC-SHA512 body signature the gateway
// sends on callbacks.
func VerifyWebhookSignature(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
