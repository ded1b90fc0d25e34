package admin

import "github.com/padala-next/internal/provider"

// Handler 调度与财务后台接口处理器入口
type Handler struct {
	*provider.Container
}

// New 创建后台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
