package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pepsfoods/checkout-backend/internal/resilience"
	"github.com/shopspring/decimal"
)

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Quoter asks the external delivery-fee function for a fee between two
// coordinates.
type Quoter interface {
	Quote(ctx context.Context, origin, destination Point) (decimal.Decimal, error)
}

type HTTPQuoter struct {
	url  string
	http *http.Client
	exec *resilience.Executor
}

func NewHTTPQuoter(url string, exec *resilience.Executor) *HTTPQuoter {
	return &HTTPQuoter{url: url, http: &http.Client{}, exec: exec}
}

var quoteOptions = resilience.Options{Timeout: 10 * time.Second, MaxRetries: 2}

func (q *HTTPQuoter) Quote(ctx context.Context, origin, destination Point) (decimal.Decimal, error) {
	payload, err := json.Marshal(map[string]Point{"origin": origin, "destination": destination})
	if err != nil {
		return decimal.Zero, err
	}
	return resilience.DoValue(ctx, q.exec, "delivery quote", quoteOptions, func(ctx context.Context) (decimal.Decimal, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, q.url, bytes.NewReader(payload))
		if err != nil {
			return decimal.Zero, err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := q.http.Do(req)
		if err != nil {
			return decimal.Zero, err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return decimal.Zero, err
		}
		if resp.StatusCode >= 500 {
			return decimal.Zero, resilience.Transient(fmt.Errorf("quote service returned %d", resp.StatusCode))
		}
		if resp.StatusCode >= 400 {
			return decimal.Zero, fmt.Errorf("quote service returned %d", resp.StatusCode)
		}
		var body struct {
			Fee decimal.Decimal `json:"fee"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return decimal.Zero, fmt.Errorf("decode quote response: %w", err)
		}
		if body.Fee.IsNegative() {
			return decimal.Zero, fmt.Errorf("quote service returned negative fee %s", body.Fee)
		}
		return body.Fee, nil
	})
}
