package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shiling-next/internal/authz"
	"github.com/shiling-next/internal/cache"
	"github.com/shiling-next/internal/config"
	adminhandlers "github.com/shiling-next/internal/http/handlers/admin"
	publichandlers "github.com/shiling-next/internal/http/handlers/public"
	"github.com/shiling-next/internal/http/response"
	"github.com/shiling-next/internal/logger"
	"github.com/shiling-next/internal/metrics"
	"github.com/shiling-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "sl"
	}
	giftClaimRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:gift_claim", redisPrefix),
		WindowSeconds: cfg.RateLimit.GiftClaim.WindowSeconds,
		MaxRequests:   cfg.RateLimit.GiftClaim.MaxRequests,
		MessageKey:    "error.gift_claim_too_many",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))
	if cfg.Metrics.Enabled {
		r.Use(metrics.Middleware())
	}

	apiV1 := r.Group("/api/v1")
	{
		// 支付渠道回调（验签在服务内完成）
		apiV1.POST("/payments/callback/wechat", publicHandler.WechatPayCallback)

		// 小程序用户接口
		user := apiV1.Group("/user")
		user.Use(UserJWTAuthMiddleware(c.UserAuthService))
		{
			user.POST("/gifts/:order_no/claim", RateLimitMiddleware(cache.Client(), giftClaimRule, KeyByUserOrIP), publicHandler.ClaimGift)
			user.GET("/subscription-permissions", publicHandler.GetSubscriptionPermissions)
			user.POST("/subscription-permissions", publicHandler.GrantSubscriptionPermissions)
			user.GET("/delivery-plans", publicHandler.ListMyDeliveryPlans)
		}

		// 运营后台接口
		admin := apiV1.Group("/admin")
		admin.Use(JWTAuthMiddleware(c.AuthService), AdminRBACMiddleware(c.AuthzService))
		{
			// 配送计划
			admin.GET("/delivery-plans", adminHandler.ListDeliveryPlans)
			admin.POST("/delivery-plans/confirm", adminHandler.BatchConfirmDeliveryPlans)
			admin.POST("/delivery-plans/ship", adminHandler.BatchShipDeliveryPlans)

			// 权限管理
			admin.GET("/authz/me", adminHandler.GetAuthzMe)
			admin.GET("/authz/roles", adminHandler.ListAuthzRoles)
			admin.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
				response.Success(ctx, buildAdminPermissionCatalog(r))
			})
			admin.PUT("/authz/admins/:id/roles", adminHandler.SetAuthzAdminRoles)
		}
	}

	if cfg.Metrics.Enabled {
		path := strings.TrimSpace(cfg.Metrics.Path)
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, metrics.Handler())
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	if segments[1] == "authz" {
		return "authz"
	}
	return segments[1]
}
