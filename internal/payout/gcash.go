package payout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/padala-next/internal/config"
)

const tokenRefreshSkew = 30 * time.Second

// GCashClient GCash 商户打款客户端
type GCashClient struct {
	apiURL       string
	merchantID   string
	clientID     string
	clientSecret string
	currency     string
	httpClient   *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
	now         func() time.Time
}

// NewGCashClient 创建 GCash 客户端
func NewGCashClient(cfg config.GCashConfig, timeout time.Duration) (*GCashClient, error) {
	apiURL := strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if apiURL == "" {
		return nil, fmt.Errorf("%w: gcash api_url is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.MerchantID) == "" {
		return nil, fmt.Errorf("%w: gcash merchant_id is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, fmt.Errorf("%w: gcash client credentials are required", ErrConfigInvalid)
	}
	currency := strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = "PHP"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &GCashClient{
		apiURL:       apiURL,
		merchantID:   strings.TrimSpace(cfg.MerchantID),
		clientID:     strings.TrimSpace(cfg.ClientID),
		clientSecret: strings.TrimSpace(cfg.ClientSecret),
		currency:     currency,
		httpClient:   &http.Client{Timeout: timeout},
		now:          time.Now,
	}, nil
}

// Payout 发起打款
func (c *GCashClient) Payout(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	accountType := req.AccountType
	if accountType == "" {
		accountType = AccountTypeGCash
	}
	payload := map[string]interface{}{
		"merchant_id":  c.merchantID,
		"reference_id": req.ReferenceID,
		"recipient": map[string]interface{}{
			"type":           accountType,
			"account_number": req.AccountNumber,
			"account_name":   req.AccountName,
		},
		"amount": map[string]interface{}{
			"value":    req.Amount.StringFixed(2),
			"currency": c.currency,
		},
		"description": req.Description,
		"metadata":    req.Metadata,
	}

	status, body, err := c.postJSON(ctx, c.apiURL+"/payouts", payload, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if status == http.StatusUnauthorized {
		c.resetToken()
		return nil, fmt.Errorf("%w: token rejected", ErrAuthFailed)
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("%w: status %d %s", ErrResponseInvalid, status, strings.TrimSpace(string(body)))
	}

	var resp struct {
		PayoutID    string `json:"payout_id"`
		Status      string `json:"status"`
		ProcessedAt string `json:"processed_at"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if resp.PayoutID == "" {
		return nil, fmt.Errorf("%w: payout_id missing", ErrResponseInvalid)
	}
	var raw map[string]interface{}
	_ = json.Unmarshal(body, &raw)

	result := &Result{PayoutID: resp.PayoutID, Status: resp.Status, Raw: raw}
	if t, err := time.Parse(time.RFC3339, resp.ProcessedAt); err == nil {
		result.ProcessedAt = &t
	}
	return result, nil
}

func (c *GCashClient) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && c.now().Add(tokenRefreshSkew).Before(c.tokenExpiry) {
		return c.token, nil
	}

	status, body, err := c.postJSON(ctx, c.apiURL+"/oauth/token", map[string]interface{}{
		"grant_type":    "client_credentials",
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
	}, "")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	if status < 200 || status >= 300 {
		return "", fmt.Errorf("%w: status %d", ErrAuthFailed, status)
	}
	var resp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || resp.AccessToken == "" {
		return "", fmt.Errorf("%w: access_token missing", ErrAuthFailed)
	}
	if resp.ExpiresIn <= 0 {
		resp.ExpiresIn = 3600
	}
	c.token = resp.AccessToken
	c.tokenExpiry = c.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	return c.token, nil
}

func (c *GCashClient) resetToken() {
	c.mu.Lock()
	c.token = ""
	c.tokenExpiry = time.Time{}
	c.mu.Unlock()
}

func (c *GCashClient) postJSON(ctx context.Context, endpoint string, payload map[string]interface{}, bearer string) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, respBody, nil
}
