package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pepsfoods/checkout-backend/internal/model"
	"github.com/pepsfoods/checkout-backend/internal/resilience"
)

// HTTPClient talks to a Paystack-style REST gateway. Initialization gets a
// 20s per-attempt budget with 3 retries, verification 15s with 2; both run
// behind the health gate since a struggling gateway should fail fast.
type HTTPClient struct {
	baseURL   string
	secretKey string
	http      *http.Client
	exec      *resilience.Executor
}

func NewHTTPClient(baseURL, secretKey string, exec *resilience.Executor) *HTTPClient {
	return &HTTPClient{
		baseURL:   baseURL,
		secretKey: secretKey,
		http:      &http.Client{},
		exec:      exec,
	}
}

var (
	initializeOptions = resilience.Options{Timeout: 20 * time.Second, MaxRetries: 3, HealthGate: true}
	verifyOptions     = resilience.Options{Timeout: 15 * time.Second, MaxRetries: 2, HealthGate: true}
)

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type verifyData struct {
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
	Reference string `json:"reference"`
}

type splitPayload struct {
	Type        string            `json:"type"`
	Currency    string            `json:"currency"`
	Subaccounts []subaccountShare `json:"subaccounts"`
}

type subaccountShare struct {
	Subaccount string `json:"subaccount"`
	Share      string `json:"share"`
}

func toSplitPayload(split model.SplitConfig) splitPayload {
	payload := splitPayload{Type: "percentage", Currency: "NGN"}
	for _, share := range split.Shares {
		payload.Subaccounts = append(payload.Subaccounts, subaccountShare{
			Subaccount: share.Subaccount,
			Share:      share.Percentage.String(),
		})
	}
	return payload
}

func (c *HTTPClient) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResponse, error) {
	body := map[string]interface{}{
		"email":     req.Email,
		"amount":    req.AmountMinor,
		"reference": req.Reference,
		"split":     toSplitPayload(req.Split),
	}
	return resilience.DoValue(ctx, c.exec, "initialize payment", initializeOptions, func(ctx context.Context) (*InitializeResponse, error) {
		var data initializeData
		if err := c.post(ctx, "/transaction/initialize", body, &data); err != nil {
			return nil, err
		}
		return &InitializeResponse{
			AuthorizationURL: data.AuthorizationURL,
			AccessCode:       data.AccessCode,
			Reference:        data.Reference,
		}, nil
	})
}

func (c *HTTPClient) Verify(ctx context.Context, reference string) (*VerifyResponse, error) {
	path := "/transaction/verify/" + url.PathEscape(reference)
	return resilience.DoValue(ctx, c.exec, "verify payment", verifyOptions, func(ctx context.Context) (*VerifyResponse, error) {
		var data verifyData
		msg, err := c.get(ctx, path, &data)
		if err != nil {
			return nil, err
		}
		return &VerifyResponse{
			Status:      data.Status,
			AmountMinor: data.Amount,
			Reference:   data.Reference,
			Message:     msg,
		}, nil
	})
}

func (c *HTTPClient) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	_, err = c.send(req, out)
	return err
}

func (c *HTTPClient) get(ctx context.Context, path string, out interface{}) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return "", err
	}
	return c.send(req, out)
}

func (c *HTTPClient) send(req *http.Request, out interface{}) (string, error) {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 500 {
		return "", resilience.Transient(fmt.Errorf("gateway returned %d", resp.StatusCode))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", fmt.Errorf("decode gateway response: %w", err)
	}
	if resp.StatusCode >= 400 || !env.Status {
		return "", &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return "", fmt.Errorf("decode gateway data: %w", err)
		}
	}
	return env.Message, nil
}
