package constants

// 订单状态常量
const (
	OrderStatusCreated   = 0 // 待支付
	OrderStatusPaid      = 1 // 已支付
	OrderStatusGifted    = 2 // 已赠送
	OrderStatusCompleted = 3 // 已完成
	OrderStatusCanceled  = 4 // 已取消
)

// 礼物类型常量
const (
	GiftTypeSingle = 1 // 单人专属
	GiftTypeMulti  = 2 // 多人领取
)

// 礼物领取状态常量
const (
	GiftStatusUnclaimed = 0
	GiftStatusClaimed   = 1
)

// 配送计划状态常量
const (
	DeliveryPlanStatusPending   = 0 // 待确认
	DeliveryPlanStatusConfirmed = 1 // 已确认
	DeliveryPlanStatusShipped   = 2 // 已发货
	DeliveryPlanStatusCompleted = 3 // 已签收
	DeliveryPlanStatusCanceled  = 4 // 已取消
)

// 配送方式常量
const (
	DeliveryTypeOnce      = "once"
	DeliveryTypeInterval  = "interval"
	DeliveryTypeSolarTerm = "solar_term"
)

// 订阅消息场景常量
const (
	NotificationScenePaymentSuccess    = "payment_success"
	NotificationSceneGiftReceived      = "gift_received"
	NotificationSceneGiftExpired       = "gift_expired"
	NotificationSceneDeliveryPreparing = "delivery_preparing"
	NotificationSceneDeliveryShipped   = "delivery_shipped"
)

// 订阅消息发送结果常量
const (
	NotificationLogStatusNoPermission = "no_permission"
	NotificationLogStatusSuccess      = "success"
	NotificationLogStatusFailed       = "failed"
)

// 通知发件箱状态常量
const (
	OutboxStatusPending    = "pending"
	OutboxStatusProcessing = "processing"
	OutboxStatusDone       = "done"
)

// 用户关系类型常量
const (
	UserRelationTypeGift = "gift"
)

// 支付交易状态常量
const (
	PaymentStatusPending = "pending"
	PaymentStatusSuccess = "success"
	PaymentStatusFailed  = "failed"
	PaymentStatusExpired = "expired"
)

// 异步队列常量
const (
	QueueDefault             = "default"
	TaskNotificationDispatch = "notification:dispatch"
	TaskGiftExpirySweep      = "gift:expiry_sweep"
)
