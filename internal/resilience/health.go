package resilience

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pepsfoods/checkout-backend/pkg/logger"
)

// Health is one probe result. Latency is the slower of the two endpoints.
type Health struct {
	Healthy bool          `json:"healthy"`
	Latency time.Duration `json:"latency"`
	Reason  string        `json:"reason,omitempty"`
}

// HealthChecker gates calls that would rather fail fast than time out
// against a struggling backend.
type HealthChecker interface {
	Check(ctx context.Context) Health
}

// Prober issues lightweight GETs against the auth and data endpoints and
// classifies the backend by latency.
type Prober struct {
	client    *http.Client
	authURL   string
	dataURL   string
	threshold time.Duration
	log       *logger.Logger
}

func NewProber(authURL, dataURL string, threshold time.Duration, log *logger.Logger) *Prober {
	if threshold <= 0 {
		threshold = 5 * time.Second
	}
	return &Prober{
		client:    &http.Client{Timeout: threshold + time.Second},
		authURL:   authURL,
		dataURL:   dataURL,
		threshold: threshold,
		log:       log,
	}
}

func (p *Prober) Check(ctx context.Context) Health {
	var worst time.Duration
	for _, target := range []string{p.authURL, p.dataURL} {
		if target == "" {
			continue
		}
		latency, err := p.probe(ctx, target)
		if err != nil {
			p.log.Warn("health probe failed", "url", target, "error", err)
			return Health{Healthy: false, Latency: latency, Reason: err.Error()}
		}
		if latency > worst {
			worst = latency
		}
	}
	if worst > p.threshold {
		return Health{Healthy: false, Latency: worst, Reason: fmt.Sprintf("latency %s over threshold %s", worst, p.threshold)}
	}
	return Health{Healthy: true, Latency: worst}
}

func (p *Prober) probe(ctx context.Context, target string) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, err
	}
	start := time.Now()
	resp, err := p.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return latency, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return latency, fmt.Errorf("probe returned %d", resp.StatusCode)
	}
	return latency, nil
}
