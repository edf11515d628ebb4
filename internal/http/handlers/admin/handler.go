package admin

import "github.com/shiling-next/internal/provider"

// Handler 运营后台接口处理器
// 说明：账号由外部系统签发，这里只处理已鉴权的运营操作。
type Handler struct {
	*provider.Container
}

// New 创建后台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
