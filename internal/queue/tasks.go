package queue

import (
	"encoding/json"
	"fmt"

	"github.com/shiling-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskNotificationDispatch 订阅消息派发任务
	TaskNotificationDispatch = constants.TaskNotificationDispatch
	// TaskGiftExpirySweep 礼物过期扫描任务
	TaskGiftExpirySweep = constants.TaskGiftExpirySweep
)

// NotificationDispatchPayload 订阅消息派发任务载荷
type NotificationDispatchPayload struct {
	OutboxID uint `json:"outbox_id"`
}

// GiftExpirySweepPayload 礼物过期扫描任务载荷
type GiftExpirySweepPayload struct {
	TriggeredAt int64 `json:"triggered_at"`
}

// NewNotificationDispatchTask 创建订阅消息派发任务
func NewNotificationDispatchTask(payload NotificationDispatchPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationDispatch, body), nil
}

// NewGiftExpirySweepTask 创建礼物过期扫描任务
func NewGiftExpirySweepTask(payload GiftExpirySweepPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGiftExpirySweep, body), nil
}

func notificationTaskID(outboxID uint) string {
	return fmt.Sprintf("outbox:%d", outboxID)
}
