package provider

import (
	"github.com/tienda-next/internal/authz"
	"github.com/tienda-next/internal/cache"
	"github.com/tienda-next/internal/config"
	"github.com/tienda-next/internal/logger"
	"github.com/tienda-next/internal/models"
	"github.com/tienda-next/internal/queue"
	"github.com/tienda-next/internal/repository"
	"github.com/tienda-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo        repository.AdminRepository
	UserRepo         repository.UserRepository
	CategoryRepo     repository.CategoryRepository
	BrandRepo        repository.BrandRepository
	ProductRepo      repository.ProductRepository
	VariantRepo      repository.VariantRepository
	CartRepo         repository.CartRepository
	CouponRepo       repository.CouponRepository
	UserCouponRepo   repository.UserCouponRepository
	OrderRepo        repository.OrderRepository
	PaymentRepo      repository.PaymentRepository
	WebhookEventRepo repository.WebhookEventRepository
	DashboardRepo    repository.DashboardRepository

	// Services
	AuthzService       *authz.Service
	AuthService        *service.AuthService
	UserAuthService    *service.UserAuthService
	UserAdminService   *service.UserAdminService
	EmailService       *service.EmailService
	CaptchaService     *service.CaptchaService
	CategoryService    *service.CategoryService
	ProductService     *service.ProductService
	CartService        *service.CartService
	CouponService      *service.CouponService
	CouponAdminService *service.CouponAdminService
	OrderService       *service.OrderService
	PaymentService     *service.PaymentService
	DashboardService   *service.DashboardService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
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
	c.CategoryRepo = repository.NewCategoryRepository(db)
	c.BrandRepo = repository.NewBrandRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.VariantRepo = repository.NewVariantRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.CouponRepo = repository.NewCouponRepository(db)
	c.UserCouponRepo = repository.NewUserCouponRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.PaymentRepo = repository.NewPaymentRepository(db)
	c.WebhookEventRepo = repository.NewWebhookEventRepository(db)
	c.DashboardRepo = repository.NewDashboardRepository(db)
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

	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo, c.EmailService, c.QueueClient)
	c.UserAdminService = service.NewUserAdminService(c.UserRepo)
	c.CategoryService = service.NewCategoryService(c.CategoryRepo, c.BrandRepo, c.ProductRepo)
	c.ProductService = service.NewProductService(c.ProductRepo, c.VariantRepo, c.CategoryRepo, c.BrandRepo)
	c.CartService = service.NewCartService(c.CartRepo, c.VariantRepo, c.ProductRepo, c.CouponRepo, c.UserCouponRepo, c.QueueClient, c.EmailService)
	c.CouponService = service.NewCouponService(c.CouponRepo, c.UserCouponRepo, c.UserRepo)
	c.CouponAdminService = service.NewCouponAdminService(c.CouponRepo)
	c.OrderService = service.NewOrderService(c.Config, c.OrderRepo, c.PaymentRepo, c.CartRepo, c.UserRepo, c.QueueClient, c.EmailService)
	c.PaymentService = service.NewPaymentService(c.Config, c.OrderRepo, c.PaymentRepo, c.CartRepo, c.VariantRepo, c.CouponRepo, c.UserCouponRepo, c.UserRepo, c.WebhookEventRepo, c.QueueClient, c.EmailService)
	c.DashboardService = service.NewDashboardService(c.DashboardRepo, c.ProductRepo, c.CouponRepo, c.UserCouponRepo, c.PaymentRepo)
}
