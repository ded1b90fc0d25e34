package routing

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/padala-next/internal/config"
	"github.com/padala-next/internal/constants"
	"github.com/padala-next/internal/geo"
)

// NewFromConfig 按配置选择路径规划服务，provider 为 none 时返回 nil（始终直线估算）
func NewFromConfig(cfg config.RoutingConfig, timeout time.Duration) (geo.Router, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", constants.RoutingProviderNone:
		return nil, nil
	case constants.RoutingProviderOSRM:
		client, err := NewOSRMClient(cfg.OSRMBaseURL, &http.Client{Timeout: timeout})
		if err != nil {
			return nil, err
		}
		return client, nil
	case constants.RoutingProviderGoogle:
		client, err := NewGoogleDirections(cfg.GoogleAPIKey)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("%w: unsupported provider %q", ErrConfigInvalid, cfg.Provider)
	}
}
