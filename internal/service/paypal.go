package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// PayPalClient is a thin client for the PayPal Orders v2 REST API.
// The application never implements payment logic itself; it only
// creates and captures orders and hands the provider's responses back
// to the frontend. Access tokens are cached until shortly before
// their expiry.
type PayPalClient struct {
	BaseURL  string
	ClientID string
	Secret   string
	HTTP     *http.Client

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

// NewPayPalClient builds a client for the given environment. baseURL
// is the sandbox or live API root.
func NewPayPalClient(baseURL, clientID, secret string) *PayPalClient {
	return &PayPalClient{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		ClientID: clientID,
		Secret:   secret,
		HTTP:     &http.Client{Timeout: 15 * time.Second},
	}
}

// Configured reports whether provider credentials were supplied.
func (p *PayPalClient) Configured() bool {
	return p.ClientID != "" && p.Secret != ""
}

// ClientToken fetches a browser-side client token used by the SPA to
// initialise the PayPal SDK.
func (p *PayPalClient) ClientToken(ctx context.Context) (string, error) {
	access, err := p.accessToken(ctx)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.BaseURL+"/v1/identity/generate-token", strings.NewReader("{}"))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+access)
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		ClientToken string `json:"client_token"`
	}
	if err := p.do(req, &out); err != nil {
		return "", err
	}
	return out.ClientToken, nil
}

// CreateOrder creates a provider order for the given amount and
// returns the raw provider response (the frontend consumes it as-is).
func (p *PayPalClient) CreateOrder(ctx context.Context, amount, currency, intent string) (json.RawMessage, error) {
	access, err := p.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	body := map[string]any{
		"intent": strings.ToUpper(intent),
		"purchase_units": []map[string]any{
			{"amount": map[string]string{"currency_code": currency, "value": amount}},
		},
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.BaseURL+"/v2/checkout/orders", bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+access)
	req.Header.Set("Content-Type", "application/json")

	var raw json.RawMessage
	if err := p.do(req, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// CaptureOrder captures a previously approved order.
func (p *PayPalClient) CaptureOrder(ctx context.Context, orderID string) (json.RawMessage, error) {
	access, err := p.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.BaseURL+"/v2/checkout/orders/"+url.PathEscape(orderID)+"/capture",
		strings.NewReader("{}"))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+access)
	req.Header.Set("Content-Type", "application/json")

	var raw json.RawMessage
	if err := p.do(req, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// accessToken returns a cached OAuth token, refreshing it via the
// client-credentials grant when missing or about to expire.
func (p *PayPalClient) accessToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.token != "" && time.Now().Before(p.tokenExp.Add(-30*time.Second)) {
		return p.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.BaseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	cred := base64.StdEncoding.EncodeToString([]byte(p.ClientID + ":" + p.Secret))
	req.Header.Set("Authorization", "Basic "+cred)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := p.do(req, &out); err != nil {
		return "", err
	}
	p.token = out.AccessToken
	p.tokenExp = time.Now().Add(time.Duration(out.ExpiresIn) * time.Second)
	return p.token, nil
}

func (p *PayPalClient) do(req *http.Request, out any) error {
	resp, err := p.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("paypal: %s returned %d: %s", req.URL.Path, resp.StatusCode, truncate(body, 256))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
