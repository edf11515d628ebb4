package i18n

var messages = map[string]map[string]string{
	LocaleZH: {
		"error.bad_request":              "请求参数错误",
		"error.unauthorized":             "未登录或登录已过期",
		"error.forbidden":                "没有访问权限",
		"error.internal":                 "服务器内部错误",
		"error.jwt_secret_missing":       "鉴权配置缺失",
		"error.auth_header_missing":      "缺少 Authorization 头",
		"error.auth_header_invalid":      "Authorization 格式错误",
		"error.token_invalid":            "无效的 token",
		"error.token_revoked":            "token 已失效，请重新登录",
		"error.admin_disabled":           "管理员已禁用",
		"error.user_id_invalid":          "用户 ID 无效",
		"error.user_id_type_invalid":     "用户 ID 类型错误",
		"error.admin_id_invalid":         "管理员 ID 无效",
		"error.admin_id_type_invalid":    "管理员 ID 类型错误",
		"error.rate_limited":             "请求过于频繁，请 %d 秒后再试",
		"error.gift_claim_too_many":      "领取过于频繁，请 %d 秒后再试",
		"error.rate_limit_unavailable":   "限流服务不可用",
		"error.order_not_found":          "订单不存在",
		"error.order_fetch_failed":       "订单查询失败",
		"error.order_update_failed":      "订单更新失败",
		"error.payment_invalid":          "支付回调无效",
		"error.payment_not_configured":   "支付渠道未配置",
		"error.payment_amount_mismatch":  "支付金额与订单不一致",
		"error.gift_status_invalid":      "订单状态不允许领取",
		"error.gift_not_gift_order":      "该订单不是礼物订单",
		"error.gift_expired":             "礼物已过期",
		"error.gift_self_claim":          "不能领取自己赠送的礼物",
		"error.gift_already_claimed":     "礼物已被领取",
		"error.gift_already_received":    "您已经领取过礼物了",
		"error.gift_item_unavailable":    "指定的礼物不存在或已被领取",
		"error.gift_address_invalid":     "收货信息不完整",
		"error.plan_ids_empty":           "请选择配送计划",
		"error.plan_conflict":            "配送计划状态已变化，请刷新后重试",
		"error.delivered_overflow":       "发货次数超过订单项总配送次数",
		"error.sub_product_not_found":    "订阅商品不存在",
		"error.sub_product_inactive":     "订阅商品已下架",
		"error.sub_product_out_of_stock": "订阅商品库存不足",
		"error.template_ids_empty":       "请选择订阅消息模板",
		"error.plan_create_failed":       "配送计划生成失败",
		"error.plan_fetch_failed":        "配送计划查询失败",
		"error.permission_fetch_failed":  "订阅额度查询失败",
	},
	LocaleTW: {
		"error.bad_request":              "請求參數錯誤",
		"error.unauthorized":             "未登入或登入已過期",
		"error.forbidden":                "沒有訪問權限",
		"error.internal":                 "伺服器內部錯誤",
		"error.token_invalid":            "無效的 token",
		"error.token_revoked":            "token 已失效，請重新登入",
		"error.rate_limited":             "請求過於頻繁，請 %d 秒後再試",
		"error.gift_claim_too_many":      "領取過於頻繁，請 %d 秒後再試",
		"error.order_not_found":          "訂單不存在",
		"error.gift_status_invalid":      "訂單狀態不允許領取",
		"error.gift_not_gift_order":      "該訂單不是禮物訂單",
		"error.gift_expired":             "禮物已過期",
		"error.gift_self_claim":          "不能領取自己贈送的禮物",
		"error.gift_already_claimed":     "禮物已被領取",
		"error.gift_already_received":    "您已經領取過禮物了",
		"error.gift_item_unavailable":    "指定的禮物不存在或已被領取",
		"error.gift_address_invalid":     "收貨資訊不完整",
		"error.sub_product_not_found":    "訂閱商品不存在",
		"error.sub_product_inactive":     "訂閱商品已下架",
		"error.sub_product_out_of_stock": "訂閱商品庫存不足",
	},
	LocaleEN: {
		"error.bad_request":              "Invalid request parameters",
		"error.unauthorized":             "Not signed in or session expired",
		"error.forbidden":                "Permission denied",
		"error.internal":                 "Internal server error",
		"error.jwt_secret_missing":       "Authentication is not configured",
		"error.auth_header_missing":      "Missing Authorization header",
		"error.auth_header_invalid":      "Malformed Authorization header",
		"error.token_invalid":            "Invalid token",
		"error.token_revoked":            "Token revoked, please sign in again",
		"error.admin_disabled":           "Admin account disabled",
		"error.rate_limited":             "Too many requests, retry in %d seconds",
		"error.gift_claim_too_many":      "Too many claim attempts, retry in %d seconds",
		"error.rate_limit_unavailable":   "Rate limiter unavailable",
		"error.order_not_found":          "Order not found",
		"error.payment_invalid":          "Invalid payment notification",
		"error.payment_not_configured":   "Payment channel not configured",
		"error.payment_amount_mismatch":  "Paid amount does not match the order",
		"error.gift_status_invalid":      "The order cannot be claimed in its current state",
		"error.gift_not_gift_order":      "The order is not a gift",
		"error.gift_expired":             "The gift has expired",
		"error.gift_self_claim":          "You cannot claim your own gift",
		"error.gift_already_claimed":     "The gift has already been claimed",
		"error.gift_already_received":    "You have already received this gift",
		"error.gift_item_unavailable":    "The selected gift is unavailable",
		"error.gift_address_invalid":     "Shipping address is incomplete",
		"error.plan_ids_empty":           "Select at least one delivery plan",
		"error.plan_conflict":            "Delivery plans changed, refresh and retry",
		"error.delivered_overflow":       "Shipment count exceeds the total deliveries",
		"error.sub_product_not_found":    "Subscription product not found",
		"error.sub_product_inactive":     "Subscription product is inactive",
		"error.sub_product_out_of_stock": "Subscription product is out of stock",
		"error.template_ids_empty":       "Select at least one message template",
	},
}
