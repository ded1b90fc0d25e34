package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/padala-next/internal/config"
	"github.com/padala-next/internal/constants"
)

// NewFromConfig 按配置创建通知实现
func NewFromConfig(cfg config.NotifyConfig) (Notifier, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", constants.NotifyProviderLog:
		return LogNotifier{}, nil
	case constants.NotifyProviderSemaphore:
		sms, err := NewSemaphoreSMS(cfg.Semaphore, cfg.AppURL, time.Duration(cfg.TimeoutMS)*time.Millisecond)
		if err != nil {
			return nil, err
		}
		return sms, nil
	default:
		return nil, fmt.Errorf("%w: unsupported provider %q", ErrConfigInvalid, cfg.Provider)
	}
}
