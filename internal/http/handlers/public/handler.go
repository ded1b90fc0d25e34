package public

import (
	"time"

	"github.com/padala-next/internal/provider"
)

const defaultAssignRetryDelay = 30 * time.Second

// Handler 前台接口处理器入口
// 说明：包含顾客侧公开接口与骑手自助接口。
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

func (h *Handler) assignRetryDelay() time.Duration {
	if h.Config != nil && h.Config.Assignment.RetryDelaySeconds > 0 {
		return time.Duration(h.Config.Assignment.RetryDelaySeconds) * time.Second
	}
	return defaultAssignRetryDelay
}
