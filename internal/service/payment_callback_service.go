package service

import (
	"context"
	"errors"

	"github.com/shiling-next/internal/logger"
	"github.com/shiling-next/internal/payment/wechatpay"
)

// PaymentNotificationDecoder 支付回调验签解密
type PaymentNotificationDecoder interface {
	Configured() bool
	Decode(ctx context.Context, headers map[string]string, body []byte) (*wechatpay.Notification, error)
}

// PaymentCallbackService 把支付渠道回调转换为支付成功信号
type PaymentCallbackService struct {
	decoder     PaymentNotificationDecoder
	fulfillment *OrderFulfillmentService
}

// NewPaymentCallbackService 创建支付回调服务
func NewPaymentCallbackService(decoder PaymentNotificationDecoder, fulfillment *OrderFulfillmentService) *PaymentCallbackService {
	return &PaymentCallbackService{decoder: decoder, fulfillment: fulfillment}
}

// HandleWechatCallback 处理微信支付回调
func (s *PaymentCallbackService) HandleWechatCallback(ctx context.Context, headers map[string]string, body []byte) (*FulfillmentResult, error) {
	if s.decoder == nil || !s.decoder.Configured() {
		return nil, ErrPaymentNotConfigured
	}
	notification, err := s.decoder.Decode(ctx, headers, body)
	if err != nil {
		logger.Warnw("wechat_callback_decode_failed", "request_id", headers["Request-ID"], "error", err)
		return nil, errors.Join(ErrPaymentInvalid, err)
	}
	signal := PaymentConfirmedSignal{
		OrderNo:               notification.OrderNo,
		Success:               notification.Success(),
		ProviderTransactionID: notification.TransactionID,
		PayerIdentity:         notification.PayerOpenID,
		AmountFen:             notification.AmountFen,
	}
	if notification.PaidAt != nil {
		signal.SuccessTime = *notification.PaidAt
	}
	logger.Infow("wechat_callback_received",
		"order_no", notification.OrderNo,
		"trade_state", notification.TradeState,
		"transaction_id", notification.TransactionID,
		"amount", notification.Amount().String(),
	)
	return s.fulfillment.HandlePaymentConfirmed(ctx, signal)
}
