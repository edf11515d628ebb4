package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shiling-next/internal/config"
	"github.com/shiling-next/internal/constants"
	"github.com/shiling-next/internal/models"
	"github.com/shiling-next/internal/repository"
)

func paymentPayload() models.JSON {
	return models.JSON{
		"order_no":      "SL20250101",
		"product_names": "春日限定玫瑰与洋桔梗混搭花束（含手写贺卡）",
		"amount":        "199",
		"paid_at":       "2025-01-01T02:30:00Z",
	}
}

func availableCount(t *testing.T, svc *testServices, userID uint, templateID string) int {
	t.Helper()
	perm, err := repository.NewSubscriptionPermissionRepository(svc.db).Get(userID, templateID)
	if err != nil {
		t.Fatalf("get permission failed: %v", err)
	}
	if perm == nil {
		return 0
	}
	return perm.AvailableCount
}

func TestSendWithoutPermissionAuditsNoPermission(t *testing.T) {
	svc := newTestServices(t, nil)
	user := createTestUser(t, svc.db, "用户", "openid-1")

	outcome := svc.permissions.Send(context.Background(), SendNotificationInput{
		Scene:   constants.NotificationScenePaymentSuccess,
		UserID:  user.ID,
		BizID:   "SL20250101",
		Payload: paymentPayload(),
	})
	if outcome != NotificationNoPermission {
		t.Fatalf("expected no_permission, got %s", outcome)
	}
	if svc.transport.count() != 0 {
		t.Fatalf("transport must not be called without permission")
	}
	if countLogs(t, svc.db, constants.NotificationLogStatusNoPermission) != 1 {
		t.Fatalf("no_permission should be audited")
	}
}

func TestSendSuccessConsumesCredit(t *testing.T) {
	svc := newTestServices(t, nil)
	user := createTestUser(t, svc.db, "用户", "openid-1")
	grantTestPermission(t, svc.db, user.ID, "tpl-pay", 2)

	outcome := svc.permissions.Send(context.Background(), SendNotificationInput{
		Scene:   constants.NotificationScenePaymentSuccess,
		UserID:  user.ID,
		BizID:   "SL20250101",
		Payload: paymentPayload(),
	})
	if outcome != NotificationSuccess {
		t.Fatalf("expected success, got %s", outcome)
	}
	if got := availableCount(t, svc, user.ID, "tpl-pay"); got != 1 {
		t.Fatalf("credit should be decremented to 1, got %d", got)
	}
	msg := svc.transport.sent[0]
	if msg.ToUser != "openid-1" || msg.TemplateID != "tpl-pay" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if got := msg.Data["time4"]; got != "2025年01月01日 10:30" {
		t.Fatalf("time should be formatted in business timezone, got %q", got)
	}
	if got := []rune(msg.Data["thing2"]); len(got) != 20 || !strings.HasSuffix(string(got), "…") {
		t.Fatalf("thing param should be truncated to 20 runes, got %q", string(got))
	}
	if got := msg.Data["amount3"]; got != "¥199.00" {
		t.Fatalf("unexpected amount param: %q", got)
	}
	if countLogs(t, svc.db, constants.NotificationLogStatusSuccess) != 1 {
		t.Fatalf("success should be audited")
	}
}

func TestSendFailureStillConsumesCredit(t *testing.T) {
	svc := newTestServices(t, nil)
	svc.transport.err = errors.New("43101 user refuse to accept the msg")
	user := createTestUser(t, svc.db, "用户", "openid-1")
	grantTestPermission(t, svc.db, user.ID, "tpl-pay", 1)

	outcome := svc.permissions.Send(context.Background(), SendNotificationInput{
		Scene:   constants.NotificationScenePaymentSuccess,
		UserID:  user.ID,
		Payload: paymentPayload(),
	})
	if outcome != NotificationFailed {
		t.Fatalf("expected failed, got %s", outcome)
	}
	if got := availableCount(t, svc, user.ID, "tpl-pay"); got != 0 {
		t.Fatalf("failed send should still consume credit, got %d", got)
	}
	var log models.NotificationLog
	svc.db.Where("status = ?", constants.NotificationLogStatusFailed).First(&log)
	if !strings.Contains(log.ErrorMessage, "43101") {
		t.Fatalf("failure reason should be audited: %+v", log)
	}

	outcome = svc.permissions.Send(context.Background(), SendNotificationInput{
		Scene:   constants.NotificationScenePaymentSuccess,
		UserID:  user.ID,
		Payload: paymentPayload(),
	})
	if outcome != NotificationNoPermission {
		t.Fatalf("exhausted credit should yield no_permission, got %s", outcome)
	}
}

func TestSendSkipsUnconfiguredScene(t *testing.T) {
	svc := newTestServices(t, nil)
	user := createTestUser(t, svc.db, "用户", "openid-1")
	outcome := svc.permissions.Send(context.Background(), SendNotificationInput{
		Scene:  constants.NotificationSceneGiftExpired,
		UserID: user.ID,
	})
	if outcome != NotificationSkipped {
		t.Fatalf("scene without template should be skipped, got %s", outcome)
	}
	var total int64
	svc.db.Model(&models.NotificationLog{}).Count(&total)
	if total != 0 {
		t.Fatalf("skipped sends should not be audited")
	}
}

func TestGrantPermissionsDedupes(t *testing.T) {
	svc := newTestServices(t, nil)
	user := createTestUser(t, svc.db, "用户", "openid-1")

	perms, err := svc.permissions.GrantPermissions(user.ID, []string{"tpl-pay", " tpl-pay ", "tpl-gift", ""})
	if err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	if len(perms) != 2 {
		t.Fatalf("expected 2 permission rows, got %d", len(perms))
	}
	if got := availableCount(t, svc, user.ID, "tpl-pay"); got != 1 {
		t.Fatalf("duplicate template ids should grant once, got %d", got)
	}
	if _, err := svc.permissions.GrantPermissions(user.ID, []string{" "}); !errors.Is(err, ErrTemplateIDsEmpty) {
		t.Fatalf("expected empty template error, got %v", err)
	}
	if _, err := svc.permissions.GrantPermissions(user.ID, []string{"tpl-pay"}); err != nil {
		t.Fatalf("second grant failed: %v", err)
	}
	if got := availableCount(t, svc, user.ID, "tpl-pay"); got != 2 {
		t.Fatalf("grants should accumulate, got %d", got)
	}
	scenes := svc.permissions.SceneTemplates()
	if scenes[constants.NotificationScenePaymentSuccess] != "tpl-pay" {
		t.Fatalf("unexpected scene templates: %+v", scenes)
	}
}

func TestBuildTemplateParams(t *testing.T) {
	loc := time.FixedZone("CST", 8*3600)
	fields := []config.NotificationFieldConfig{
		{Key: "name1", Source: "receiver_name", Class: "name"},
		{Key: "date2", Source: "plan_start_at", Class: "date"},
		{Key: "phrase3", Source: "status", Class: "phrase"},
		{Key: "thing4", Source: "missing", Class: "thing"},
		{Key: "thing5", Source: "names", Class: "thing"},
	}
	params := BuildTemplateParams(fields, models.JSON{
		"receiver_name": "欧阳娜娜娜娜娜娜娜娜娜",
		"plan_start_at": "2025-03-01T20:00:00Z",
		"status":        "已发货",
		"names":         []interface{}{"玫瑰", "百合"},
	}, loc)
	if got := params["name1"]; len([]rune(got)) != 10 || !strings.HasSuffix(got, "…") {
		t.Fatalf("name should be truncated to 10 runes: %q", got)
	}
	if got := params["date2"]; got != "2025年03月02日" {
		t.Fatalf("date should be formatted in business timezone: %q", got)
	}
	if got := params["phrase3"]; got != "已发货" {
		t.Fatalf("short phrase should be kept: %q", got)
	}
	if got := params["thing4"]; got != "-" {
		t.Fatalf("missing value should render placeholder: %q", got)
	}
	if got := params["thing5"]; got != "玫瑰、百合" {
		t.Fatalf("list value should be joined: %q", got)
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("abcdef", 4); got != "abc…" {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := truncateRunes("abc", 4); got != "abc" {
		t.Fatalf("short value should be kept: %q", got)
	}
}
