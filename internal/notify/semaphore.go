package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/padala-next/internal/config"
)

const defaultSemaphoreBaseURL = "https://api.semaphore.co/api/v4"

// SemaphoreSMS Semaphore 短信通知
type SemaphoreSMS struct {
	apiKey     string
	senderName string
	baseURL    string
	appURL     string
	httpClient *http.Client
}

// NewSemaphoreSMS 创建 Semaphore 短信客户端
func NewSemaphoreSMS(cfg config.SemaphoreConfig, appURL string, timeout time.Duration) (*SemaphoreSMS, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: semaphore api_key is required", ErrConfigInvalid)
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultSemaphoreBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SemaphoreSMS{
		apiKey:     apiKey,
		senderName: strings.TrimSpace(cfg.SenderName),
		baseURL:    baseURL,
		appURL:     strings.TrimRight(strings.TrimSpace(appURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type semaphoreMessage struct {
	MessageID int64  `json:"message_id"`
	Status    string `json:"status"`
	Recipient string `json:"recipient"`
}

// Notify 发送短信
func (s *SemaphoreSMS) Notify(ctx context.Context, msg Message) error {
	number := FormatPhoneNumber(msg.Contact)
	if number == "" {
		return ErrContactInvalid
	}
	payload := make(map[string]interface{}, len(msg.Payload)+1)
	for k, v := range msg.Payload {
		payload[k] = v
	}
	if _, ok := payload["app_url"]; !ok {
		payload["app_url"] = s.appURL
	}
	text, err := Render(msg.Kind, payload)
	if err != nil {
		return err
	}

	body, err := json.Marshal(map[string]string{
		"apikey":     s.apiKey,
		"number":     number,
		"message":    text,
		"sendername": s.senderName,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/messages", strings.NewReader(string(body)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d %s", ErrSendFailed, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	var messages []semaphoreMessage
	if err := json.Unmarshal(respBody, &messages); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	if len(messages) == 0 {
		return fmt.Errorf("%w: empty response", ErrSendFailed)
	}
	return nil
}
