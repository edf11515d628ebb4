package wechat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shiling-next/internal/cache"
	"github.com/shiling-next/internal/config"
	"github.com/shiling-next/internal/logger"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/singleflight"
)

const (
	defaultAPIBaseURL = "https://api.weixin.qq.com"
	defaultTimeout    = 5 * time.Second
	// 提前刷新，避免临界过期
	tokenExpirySkew = 5 * time.Minute
)

var (
	ErrNotConfigured = errors.New("wechat mini program not configured")
	ErrTokenInvalid  = errors.New("wechat access token invalid")
)

// APIError 微信接口返回的业务错误
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("wechat api error %d: %s", e.Code, e.Message)
}

// SubscribeMessage 一次性订阅消息
type SubscribeMessage struct {
	ToUser     string
	TemplateID string
	Page       string
	Data       map[string]string
}

// Client 小程序服务端接口客户端
type Client struct {
	appID     string
	appSecret string
	state     string
	lang      string
	http      *resty.Client
	group     singleflight.Group

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient 创建小程序客户端
func NewClient(cfg config.WechatConfig) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &Client{
		appID:     strings.TrimSpace(cfg.AppID),
		appSecret: strings.TrimSpace(cfg.AppSecret),
		state:     strings.TrimSpace(cfg.MiniProgramState),
		lang:      strings.TrimSpace(cfg.Lang),
		http:      resty.New().SetBaseURL(baseURL).SetTimeout(timeout),
	}
}

// Configured 是否配置了 appid 与 secret
func (c *Client) Configured() bool {
	return c != nil && c.appID != "" && c.appSecret != ""
}

type apiStatus struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

func (s apiStatus) err() error {
	if s.ErrCode == 0 {
		return nil
	}
	return &APIError{Code: s.ErrCode, Message: s.ErrMsg}
}

type tokenResponse struct {
	apiStatus
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type messageValue struct {
	Value string `json:"value"`
}

type subscribeSendRequest struct {
	ToUser           string                  `json:"touser"`
	TemplateID       string                  `json:"template_id"`
	Page             string                  `json:"page,omitempty"`
	MiniProgramState string                  `json:"miniprogram_state,omitempty"`
	Lang             string                  `json:"lang,omitempty"`
	Data             map[string]messageValue `json:"data"`
}

// SendSubscribeMessage 发送订阅消息，令牌失效时刷新后重试一次
func (c *Client) SendSubscribeMessage(ctx context.Context, msg SubscribeMessage) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	err := c.sendOnce(ctx, msg)
	if !errors.Is(err, ErrTokenInvalid) {
		return err
	}
	c.invalidateToken(ctx)
	return c.sendOnce(ctx, msg)
}

func (c *Client) sendOnce(ctx context.Context, msg SubscribeMessage) error {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return err
	}
	data := make(map[string]messageValue, len(msg.Data))
	for key, value := range msg.Data {
		data[key] = messageValue{Value: value}
	}
	body := subscribeSendRequest{
		ToUser:           msg.ToUser,
		TemplateID:       msg.TemplateID,
		Page:             msg.Page,
		MiniProgramState: c.state,
		Lang:             c.lang,
		Data:             data,
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("access_token", token).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/cgi-bin/message/subscribe/send")
	if err != nil {
		return fmt.Errorf("wechat subscribe send request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("wechat subscribe send http status %d", resp.StatusCode())
	}
	var status apiStatus
	if err := json.Unmarshal(resp.Body(), &status); err != nil {
		return fmt.Errorf("wechat subscribe send response invalid: %w", err)
	}
	if isTokenError(status.ErrCode) {
		return ErrTokenInvalid
	}
	return status.err()
}

// AccessToken 获取接口调用凭据，优先内存，其次 Redis，最后请求微信
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	c.mu.Lock()
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		token := c.token
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	value, err, _ := c.group.Do(c.appID, func() (interface{}, error) {
		if token, ok, err := cache.GetAccessToken(ctx, c.appID); err != nil {
			logger.Warnw("wechat_access_token_cache_get_failed", "error", err)
		} else if ok {
			c.storeToken(token, tokenExpirySkew)
			return token, nil
		}
		return c.refreshToken(ctx)
	})
	if err != nil {
		return "", err
	}
	return value.(string), nil
}

func (c *Client) refreshToken(ctx context.Context) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"grant_type": "client_credential",
			"appid":      c.appID,
			"secret":     c.appSecret,
		}).
		Get("/cgi-bin/token")
	if err != nil {
		return "", fmt.Errorf("wechat token request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("wechat token http status %d", resp.StatusCode())
	}
	var out tokenResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("wechat token response invalid: %w", err)
	}
	if err := out.err(); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", errors.New("wechat token response missing access_token")
	}
	ttl := time.Duration(out.ExpiresIn)*time.Second - tokenExpirySkew
	if ttl <= 0 {
		ttl = time.Minute
	}
	c.storeToken(out.AccessToken, ttl)
	if err := cache.SetAccessToken(ctx, c.appID, out.AccessToken, ttl); err != nil {
		logger.Warnw("wechat_access_token_cache_set_failed", "error", err)
	}
	return out.AccessToken, nil
}

func (c *Client) storeToken(token string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.tokenExpiry = time.Now().Add(ttl)
}

func (c *Client) invalidateToken(ctx context.Context) {
	c.mu.Lock()
	c.token = ""
	c.tokenExpiry = time.Time{}
	c.mu.Unlock()
	if err := cache.DelAccessToken(ctx, c.appID); err != nil {
		logger.Warnw("wechat_access_token_cache_del_failed", "error", err)
	}
}

// 40001 凭证无效 40014 令牌不合法 42001 令牌过期
func isTokenError(code int) bool {
	switch code {
	case 40001, 40014, 42001:
		return true
	default:
		return false
	}
}
