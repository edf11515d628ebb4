package public

import "github.com/shiling-next/internal/provider"

// Handler 用户侧与支付回调接口处理器
type Handler struct {
	*provider.Container
}

// New 创建用户侧处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
