package service

import "errors"

// 通用
var (
	ErrInvalidInput     = errors.New("参数错误")
	ErrQueueUnavailable = errors.New("队列不可用")
)

// 订单与支付
var (
	ErrOrderNotFound         = errors.New("订单不存在")
	ErrOrderFetchFailed      = errors.New("订单查询失败")
	ErrOrderUpdateFailed     = errors.New("订单更新失败")
	ErrPaymentInvalid        = errors.New("支付回调无效")
	ErrPaymentNotConfigured  = errors.New("支付渠道未配置")
	ErrPaymentAmountMismatch = errors.New("支付金额与订单不一致")
)

// 配送排期
var (
	ErrInvalidDeliveryPolicy    = errors.New("配送方式无效")
	ErrInvalidDeliveryQuantity  = errors.New("配送数量无效")
	ErrInvalidDeliveryInterval  = errors.New("配送间隔无效")
	ErrInvalidDeliveryMax       = errors.New("配送次数无效")
	ErrDeliveryPlanCreateFailed = errors.New("配送计划生成失败")
)

// 礼物领取，消息直接返回给领取人
var (
	ErrGiftOrderNotFound      = errors.New("订单不存在")
	ErrGiftOrderStatusInvalid = errors.New("订单状态不允许领取")
	ErrNotGiftOrder           = errors.New("该订单不是礼物订单")
	ErrGiftExpired            = errors.New("礼物已过期")
	ErrGiftSelfClaim          = errors.New("不能领取自己赠送的礼物")
	ErrGiftAlreadyClaimed     = errors.New("礼物已被领取")
	ErrGiftAlreadyReceived    = errors.New("您已经领取过礼物了")
	ErrGiftItemUnavailable    = errors.New("指定的礼物不存在或已被领取")
	ErrGiftAddressInvalid     = errors.New("收货信息不完整")
)

// 运营批量处理
var (
	ErrDeliveryPlanIDsEmpty          = errors.New("请选择配送计划")
	ErrDeliveryPlanConflict          = errors.New("配送计划状态已变化，请刷新后重试")
	ErrDeliveredCountOverflow        = errors.New("发货次数超过订单项总配送次数")
	ErrSubscriptionProductNotFound   = errors.New("订阅商品不存在")
	ErrSubscriptionProductInactive   = errors.New("订阅商品已下架")
	ErrSubscriptionProductOutOfStock = errors.New("订阅商品库存不足")
)

// 订阅消息
var (
	ErrTemplateIDsEmpty = errors.New("请选择订阅消息模板")
)

// 认证
var (
	ErrInvalidToken  = errors.New("无效的 token")
	ErrTokenRevoked  = errors.New("token 已失效")
	ErrAdminDisabled = errors.New("管理员已禁用")
	ErrUserNotFound  = errors.New("用户不存在")
)
