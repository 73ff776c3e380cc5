package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/pepsfoods/checkout-backend/internal/resilience"
	"github.com/pepsfoods/checkout-backend/internal/service"
)

const identityToolkitURL = "https://identitytoolkit.googleapis.com/v1"

// FirebaseProvider signs users in against the Identity Toolkit REST API.
// Token verification for requests stays in the middleware; this only covers
// the credential exchange and the magic-link fallback.
type FirebaseProvider struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewFirebaseProvider(apiKey string) *FirebaseProvider {
	return &FirebaseProvider{
		baseURL: identityToolkitURL,
		apiKey:  apiKey,
		http:    &http.Client{},
	}
}

type signInPayload struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResult struct {
	IDToken   string `json:"idToken"`
	LocalID   string `json:"localId"`
	ExpiresIn string `json:"expiresIn"`
}

func (p *FirebaseProvider) SignIn(ctx context.Context, email, password string) (*service.Session, error) {
	var out signInResult
	err := p.post(ctx, "/accounts:signInWithPassword", signInPayload{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	ttl, _ := strconv.Atoi(out.ExpiresIn)
	if ttl <= 0 {
		ttl = 3600
	}
	return &service.Session{
		UID:         out.LocalID,
		AccessToken: out.IDToken,
		ExpiresAt:   time.Now().Add(time.Duration(ttl) * time.Second),
	}, nil
}

type oobPayload struct {
	RequestType string `json:"requestType"`
	Email       string `json:"email"`
}

func (p *FirebaseProvider) SendMagicLink(ctx context.Context, email string) error {
	return p.post(ctx, "/accounts:sendOobCode", oobPayload{RequestType: "EMAIL_SIGNIN", Email: email}, nil)
}

func (p *FirebaseProvider) post(ctx context.Context, path string, body, out interface{}) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}
	url := p.baseURL + path + "?key=" + p.apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 500 {
		return resilience.Transient(fmt.Errorf("identity toolkit returned %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(raw, &apiErr)
		if apiErr.Error.Message == "" {
			apiErr.Error.Message = resp.Status
		}
		return fmt.Errorf("auth: %s", apiErr.Error.Message)
	}
	if out != nil {
		return json.Unmarshal(raw, out)
	}
	return nil
}
