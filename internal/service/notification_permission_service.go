package service

import (
	"context"
	"strings"
	"time"

	"github.com/shiling-next/internal/config"
	"github.com/shiling-next/internal/constants"
	"github.com/shiling-next/internal/logger"
	"github.com/shiling-next/internal/metrics"
	"github.com/shiling-next/internal/models"
	"github.com/shiling-next/internal/repository"
	"github.com/shiling-next/internal/wechat"
)

// MessageTransport 订阅消息发送通道
type MessageTransport interface {
	SendSubscribeMessage(ctx context.Context, msg wechat.SubscribeMessage) error
}

// NotificationOutcome 单次派发结果
type NotificationOutcome string

const (
	NotificationSkipped      NotificationOutcome = "skipped"
	NotificationNoPermission NotificationOutcome = constants.NotificationLogStatusNoPermission
	NotificationSuccess      NotificationOutcome = constants.NotificationLogStatusSuccess
	NotificationFailed       NotificationOutcome = constants.NotificationLogStatusFailed
)

// SendNotificationInput 派发输入
type SendNotificationInput struct {
	Scene   string
	UserID  uint
	BizID   string
	Payload models.JSON
}

// NotificationPermissionService 订阅消息授权与派发
type NotificationPermissionService struct {
	permissionRepo repository.SubscriptionPermissionRepository
	logRepo        repository.NotificationLogRepository
	userRepo       repository.UserRepository
	transport      MessageTransport
	templates      map[string]config.NotificationTemplateConfig
	loc            *time.Location
	enabled        bool
}

// NewNotificationPermissionService 创建订阅消息服务
func NewNotificationPermissionService(
	permissionRepo repository.SubscriptionPermissionRepository,
	logRepo repository.NotificationLogRepository,
	userRepo repository.UserRepository,
	transport MessageTransport,
	cfg config.NotificationConfig,
) *NotificationPermissionService {
	return &NotificationPermissionService{
		permissionRepo: permissionRepo,
		logRepo:        logRepo,
		userRepo:       userRepo,
		transport:      transport,
		templates:      cfg.Templates,
		loc:            cfg.Location(),
		enabled:        cfg.Enabled,
	}
}

// Send 派发一条订阅消息，任何错误只记录日志
func (s *NotificationPermissionService) Send(ctx context.Context, input SendNotificationInput) NotificationOutcome {
	outcome, err := s.send(ctx, input)
	if err != nil {
		logger.Errorw("notification_send_failed",
			"scene", input.Scene,
			"user_id", input.UserID,
			"biz_id", input.BizID,
			"error", err,
		)
		return NotificationFailed
	}
	return outcome
}

// send 返回的 error 仅表示扣减额度之前的基础设施错误，可安全重试
func (s *NotificationPermissionService) send(ctx context.Context, input SendNotificationInput) (NotificationOutcome, error) {
	scene := strings.ToLower(strings.TrimSpace(input.Scene))
	if !s.enabled || input.UserID == 0 {
		return NotificationSkipped, nil
	}
	tpl, ok := s.templates[scene]
	templateID := strings.TrimSpace(tpl.TemplateID)
	if !ok || templateID == "" {
		logger.Debugw("notification_template_not_configured", "scene", scene)
		return NotificationSkipped, nil
	}

	permission, err := s.permissionRepo.Get(input.UserID, templateID)
	if err != nil {
		return "", err
	}
	if permission == nil || permission.AvailableCount <= 0 {
		s.audit(input, scene, templateID, constants.NotificationLogStatusNoPermission, nil, "")
		metrics.ObserveNotification(scene, string(NotificationNoPermission))
		return NotificationNoPermission, nil
	}

	user, err := s.userRepo.GetByID(input.UserID)
	if err != nil {
		return "", err
	}
	if user == nil || strings.TrimSpace(user.OpenID) == "" {
		logger.Warnw("notification_recipient_openid_missing", "scene", scene, "user_id", input.UserID)
		return NotificationSkipped, nil
	}

	params := BuildTemplateParams(tpl.Fields, input.Payload, s.loc)
	consumed, err := s.permissionRepo.Consume(input.UserID, templateID)
	if err != nil {
		return "", err
	}
	if consumed == 0 {
		s.audit(input, scene, templateID, constants.NotificationLogStatusNoPermission, params, "")
		metrics.ObserveNotification(scene, string(NotificationNoPermission))
		return NotificationNoPermission, nil
	}

	sendErr := s.transport.SendSubscribeMessage(ctx, wechat.SubscribeMessage{
		ToUser:     user.OpenID,
		TemplateID: templateID,
		Page:       tpl.Page,
		Data:       params,
	})
	if sendErr != nil {
		s.audit(input, scene, templateID, constants.NotificationLogStatusFailed, params, sendErr.Error())
		metrics.ObserveNotification(scene, string(NotificationFailed))
		logger.Warnw("notification_transport_failed",
			"scene", scene,
			"user_id", input.UserID,
			"biz_id", input.BizID,
			"error", sendErr,
		)
		return NotificationFailed, nil
	}
	s.audit(input, scene, templateID, constants.NotificationLogStatusSuccess, params, "")
	metrics.ObserveNotification(scene, string(NotificationSuccess))
	return NotificationSuccess, nil
}

func (s *NotificationPermissionService) audit(input SendNotificationInput, scene, templateID, status string, params map[string]string, errMsg string) {
	record := &models.NotificationLog{
		UserID:       input.UserID,
		TemplateID:   templateID,
		Scene:        scene,
		BizID:        input.BizID,
		Status:       status,
		Params:       paramsJSON(params),
		ErrorMessage: truncateRunes(errMsg, 500),
	}
	if err := s.logRepo.Create(record); err != nil {
		logger.Errorw("notification_audit_write_failed",
			"scene", scene,
			"user_id", input.UserID,
			"status", status,
			"error", err,
		)
	}
}

func paramsJSON(params map[string]string) models.JSON {
	if len(params) == 0 {
		return models.JSON{}
	}
	out := make(models.JSON, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}

// GrantPermissions 用户在小程序里同意订阅后，每个模板增加一次额度
func (s *NotificationPermissionService) GrantPermissions(userID uint, templateIDs []string) ([]models.SubscriptionPermission, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	seen := make(map[string]struct{}, len(templateIDs))
	granted := 0
	for _, raw := range templateIDs {
		templateID := strings.TrimSpace(raw)
		if templateID == "" {
			continue
		}
		if _, ok := seen[templateID]; ok {
			continue
		}
		seen[templateID] = struct{}{}
		if err := s.permissionRepo.Grant(userID, templateID, 1); err != nil {
			return nil, err
		}
		granted++
	}
	if granted == 0 {
		return nil, ErrTemplateIDsEmpty
	}
	return s.permissionRepo.ListByUser(userID)
}

// ListPermissions 查询用户剩余授权次数
func (s *NotificationPermissionService) ListPermissions(userID uint) ([]models.SubscriptionPermission, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.permissionRepo.ListByUser(userID)
}

// SceneTemplates 返回已配置模板 ID 的场景，供前端发起订阅授权
func (s *NotificationPermissionService) SceneTemplates() map[string]string {
	out := make(map[string]string, len(s.templates))
	for scene, tpl := range s.templates {
		if id := strings.TrimSpace(tpl.TemplateID); id != "" {
			out[scene] = id
		}
	}
	return out
}
