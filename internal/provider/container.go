package provider

import (
	"github.com/shiling-next/internal/authz"
	"github.com/shiling-next/internal/cache"
	"github.com/shiling-next/internal/config"
	"github.com/shiling-next/internal/logger"
	"github.com/shiling-next/internal/models"
	"github.com/shiling-next/internal/payment/wechatpay"
	"github.com/shiling-next/internal/queue"
	"github.com/shiling-next/internal/repository"
	"github.com/shiling-next/internal/service"
	"github.com/shiling-next/internal/wechat"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo                  repository.AdminRepository
	UserRepo                   repository.UserRepository
	UserAddressRepo            repository.UserAddressRepository
	UserRelationRepo           repository.UserRelationRepository
	OrderRepo                  repository.OrderRepository
	ProductRepo                repository.ProductRepository
	SubscriptionProductRepo    repository.SubscriptionProductRepository
	SolarTermRepo              repository.SolarTermRepository
	DeliveryPlanRepo           repository.DeliveryPlanRepository
	DeliveryNoRepo             repository.DeliveryNoRepository
	SubscriptionPermissionRepo repository.SubscriptionPermissionRepository
	NotificationLogRepo        repository.NotificationLogRepository
	NotificationOutboxRepo     repository.NotificationOutboxRepository

	// Services
	AuthzService           *authz.Service
	AuthService            *service.AuthService
	UserAuthService        *service.UserAuthService
	WechatClient           *wechat.Client
	PlanGenerator          *service.DeliveryPlanGenerator
	NotificationService    *service.NotificationPermissionService
	OutboxService          *service.NotificationOutboxService
	FulfillmentService     *service.OrderFulfillmentService
	PaymentCallbackService *service.PaymentCallbackService
	GiftReceiptService     *service.GiftReceiptService
	DeliveryBatchService   *service.DeliveryBatchService
	GiftExpiryService      *service.GiftExpiryService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 队列未启用时返回空客户端，通知在当前进程内派发
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient, _ = queue.NewClient(nil)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.UserAddressRepo = repository.NewUserAddressRepository(db)
	c.UserRelationRepo = repository.NewUserRelationRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.SubscriptionProductRepo = repository.NewSubscriptionProductRepository(db)
	c.SolarTermRepo = repository.NewSolarTermRepository(db)
	c.DeliveryPlanRepo = repository.NewDeliveryPlanRepository(db)
	c.DeliveryNoRepo = repository.NewDeliveryNoRepository(db)
	c.SubscriptionPermissionRepo = repository.NewSubscriptionPermissionRepository(db)
	c.NotificationLogRepo = repository.NewNotificationLogRepository(db)
	c.NotificationOutboxRepo = repository.NewNotificationOutboxRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.AuthService = service.NewAuthService(c.Config.JWT, c.AdminRepo)
	c.UserAuthService = service.NewUserAuthService(c.Config.UserJWT, c.UserRepo)

	c.WechatClient = wechat.NewClient(c.Config.Wechat)
	if !c.WechatClient.Configured() {
		logger.Warnw("provider_wechat_not_configured")
	}

	c.PlanGenerator = service.NewDeliveryPlanGenerator(c.SolarTermRepo, c.Config.Fulfillment)
	c.NotificationService = service.NewNotificationPermissionService(
		c.SubscriptionPermissionRepo,
		c.NotificationLogRepo,
		c.UserRepo,
		c.WechatClient,
		c.Config.Notification,
	)
	c.OutboxService = service.NewNotificationOutboxService(c.NotificationOutboxRepo, c.QueueClient, c.NotificationService, c.Config.Notification)
	c.FulfillmentService = service.NewOrderFulfillmentService(c.OrderRepo, c.ProductRepo, c.DeliveryPlanRepo, c.PlanGenerator, c.OutboxService)

	decoder := wechatpay.NewDecoder(wechatpay.FromSettings(c.Config.WechatPay))
	if decoder.Configured() {
		if err := wechatpay.ValidateConfig(wechatpay.FromSettings(c.Config.WechatPay)); err != nil {
			logger.Warnw("provider_wechatpay_config_invalid", "error", err)
		}
	}
	c.PaymentCallbackService = service.NewPaymentCallbackService(decoder, c.FulfillmentService)

	c.GiftReceiptService = service.NewGiftReceiptService(
		c.OrderRepo,
		c.DeliveryPlanRepo,
		c.UserRelationRepo,
		c.UserAddressRepo,
		c.UserRepo,
		c.PlanGenerator,
		c.OutboxService,
		c.Config.Fulfillment,
	)
	c.DeliveryBatchService = service.NewDeliveryBatchService(
		c.DeliveryPlanRepo,
		c.OrderRepo,
		c.DeliveryNoRepo,
		c.SubscriptionProductRepo,
		c.OutboxService,
		c.Config.Fulfillment,
	)
	c.GiftExpiryService = service.NewGiftExpiryService(c.OrderRepo, c.OutboxService, c.Config.Fulfillment)
}
