package public

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// 验签所需的回调头，按 SDK 约定的键名传递
var wechatCallbackHeaders = []string{
	"Wechatpay-Serial",
	"Wechatpay-Signature",
	"Wechatpay-Timestamp",
	"Wechatpay-Nonce",
	"Request-ID",
}

const maxCallbackBodyBytes = 1 << 20

// WechatPayCallback 微信支付结果通知
func (h *Handler) WechatPayCallback(c *gin.Context) {
	log := requestLog(c)
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCallbackBodyBytes))
	if err != nil {
		log.Warnw("wechat_callback_body_read_failed", "error", err)
		respondWechatCallback(c, false)
		return
	}

	headers := make(map[string]string, len(wechatCallbackHeaders))
	for _, key := range wechatCallbackHeaders {
		headers[key] = strings.TrimSpace(c.GetHeader(key))
	}
	log.Infow("wechat_callback_received",
		"client_ip", c.ClientIP(),
		"body_size", len(body),
		"wechatpay_serial", headers["Wechatpay-Serial"],
		"wechatpay_timestamp", headers["Wechatpay-Timestamp"],
	)

	result, err := h.PaymentCallbackService.HandleWechatCallback(c.Request.Context(), headers, body)
	if err != nil {
		log.Warnw("wechat_callback_handle_failed", "error", err)
		// 订单不存在时仍返回失败，让渠道重试直到人工介入
		respondWechatCallback(c, false)
		return
	}
	log.Infow("wechat_callback_processed",
		"order_no", result.OrderNo,
		"duplicate", result.Duplicate,
		"ignored", result.Ignored,
		"plan_count", result.PlanCount,
	)
	respondWechatCallback(c, true)
}

func respondWechatCallback(c *gin.Context, success bool) {
	if success {
		c.JSON(http.StatusOK, gin.H{
			"code":    "SUCCESS",
			"message": "成功",
		})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"code":    "FAIL",
		"message": "失败",
	})
}
