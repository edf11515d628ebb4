package cache

import (
	"context"
	"strings"
	"time"
)

type accessTokenEntry struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

func accessTokenKey(appID string) string {
	return "wechat:access_token:" + strings.TrimSpace(appID)
}

// GetAccessToken 读取小程序 access_token 缓存
func GetAccessToken(ctx context.Context, appID string) (string, bool, error) {
	var entry accessTokenEntry
	hit, err := GetJSON(ctx, accessTokenKey(appID), &entry)
	if err != nil || !hit {
		return "", false, err
	}
	if entry.Token == "" || time.Now().Unix() >= entry.ExpiresAt {
		return "", false, nil
	}
	return entry.Token, true, nil
}

// SetAccessToken 写入 access_token 缓存
func SetAccessToken(ctx context.Context, appID, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	entry := accessTokenEntry{Token: token, ExpiresAt: time.Now().Add(ttl).Unix()}
	return SetJSON(ctx, accessTokenKey(appID), entry, ttl)
}

// DelAccessToken 令牌失效时清理缓存
func DelAccessToken(ctx context.Context, appID string) error {
	return Del(ctx, accessTokenKey(appID))
}
