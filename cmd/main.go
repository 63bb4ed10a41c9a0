package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"buildmart_dev_v1_202608/internal/controller"
	"buildmart_dev_v1_202608/internal/middleware"
	"buildmart_dev_v1_202608/internal/model"
	"buildmart_dev_v1_202608/internal/repository"
	"buildmart_dev_v1_202608/internal/router"
	"buildmart_dev_v1_202608/internal/service"
	"buildmart_dev_v1_202608/internal/task"
	"buildmart_dev_v1_202608/internal/ws"
	"buildmart_dev_v1_202608/pkg/cache"
	"buildmart_dev_v1_202608/pkg/config"
	"buildmart_dev_v1_202608/pkg/database"
	"buildmart_dev_v1_202608/pkg/logger"
	"buildmart_dev_v1_202608/pkg/payment"
	"buildmart_dev_v1_202608/pkg/storage"
)

// @title BuildMart API
// @version 1.0
// @description 建材集采与余料交易平台 API
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	configPath := flag.String("config", "", "配置文件路径（默认 ./config.yaml 或 ./configs/config.yaml）")
	flag.Parse()

	// 1. 加载配置与日志
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	if err := logger.Init(&logger.Config{
		Level:       cfg.Log.Level,
		Environment: cfg.Log.Environment,
	}); err != nil {
		panic(err)
	}
	defer logger.Sync()

	// 2. 初始化数据库
	db := initDatabase(cfg)

	// 3. 初始化依赖
	deps := initDependencies(cfg, db)

	// 4. 启动定时任务
	stopTasks := initTasks(cfg, deps)
	defer stopTasks()

	// 5. 初始化路由
	r := router.SetupRouter(cfg, db, deps.Hub, deps.Controllers)

	// 6. 启动服务
	startServer(cfg, r)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Repos       *Repositories
	Services    *Services
	Controllers *router.Controllers
	Hub         *ws.Hub
	TokenStore  cache.TokenStore
}

// Repositories 仓库集合
type Repositories struct {
	Uow        *repository.UnitOfWork
	AccountUow *repository.AccountUnitOfWork

	User     repository.UserRepository
	Customer repository.CustomerRepository
	Supplier repository.SupplierRepository
	Admin    repository.AdminRepository

	Category repository.CategoryRepository
	Product  repository.ProductRepository
	Surplus  repository.SurplusRepository

	Cart     repository.CartRepository
	CartItem repository.CartItemRepository
	Order    repository.OrderRepository
	Delivery repository.DeliveryRepository

	Review        repository.ReviewRepository
	Notification  repository.NotificationRepository
	Conversation  repository.ConversationRepository
	ChatMessage   repository.ChatMessageRepository
	Issue         repository.IssueRepository
	Promotion     repository.PromotionRepository
	SupportTicket repository.SupportTicketRepository
	SupportMsg    repository.SupportMessageRepository
}

// Services 服务集合
type Services struct {
	Auth         *service.AuthService
	Product      *service.ProductService
	Category     *service.CategoryService
	Supplier     *service.SupplierService
	Cart         *service.CartService
	Order        *service.OrderService
	Delivery     *service.DeliveryService
	Review       *service.ReviewService
	Notification *service.NotificationService
	Chat         *service.ChatService
	Admin        *service.AdminService
	Issue        *service.IssueService
	Surplus      *service.SurplusService
	Promotion    *service.PromotionService
	Support      *service.SupportService
	RoomAuth     *service.RoomAuthService
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库
// notifications 表走分区初始化器建表，其余模型 AutoMigrate
func initDatabase(cfg *config.Config) *gorm.DB {
	db, err := database.Open(cfg.Database.DSN(), database.Options{
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogSQL:          cfg.Server.Mode == "debug",
	})
	if err != nil {
		logger.L().Fatal("数据库连接失败", zap.Error(err))
	}

	if err := database.QuickInit(db, []interface{}{
		// 账号
		&model.User{}, &model.Customer{}, &model.Supplier{}, &model.Admin{},
		// 目录
		&model.Category{}, &model.Product{}, &model.SurplusListing{},
		// 交易
		&model.Cart{}, &model.CartItem{},
		&model.Order{}, &model.OrderItem{}, &model.OrderTimeline{},
		&model.Delivery{}, &model.Issue{},
		// 互动
		&model.Review{}, &model.Conversation{}, &model.ChatMessage{},
		&model.Promotion{},
		&model.SupportTicket{}, &model.SupportMessage{},
	}); err != nil {
		logger.L().Fatal("数据库初始化失败", zap.Error(err))
	}

	middleware.RegisterAuditCallbacks(db)
	return db
}

// initDependencies 初始化所有依赖
func initDependencies(cfg *config.Config, db *gorm.DB) *Dependencies {
	// -------- Repo 层 --------
	repos := initRepositories(db)

	// -------- 基础设施 --------
	tokens := initTokenStore(cfg)
	middleware.SetJWTConfig(&middleware.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenTTL:  cfg.JWT.AccessTokenTTL,
		RefreshTokenTTL: cfg.JWT.RefreshTokenTTL,
		Issuer:          cfg.JWT.Issuer,
	})
	middleware.SetTokenStore(tokens)

	gateway, err := payment.New(payment.Config{
		Provider:         cfg.Payment.Provider,
		GatewayURL:       cfg.Payment.GatewayURL,
		APIKey:           cfg.Payment.APIKey,
		Timeout:          cfg.Payment.Timeout,
		MockDeclineCents: cfg.Payment.MockDeclineCents,
	})
	if err != nil {
		logger.L().Fatal("支付网关初始化失败", zap.Error(err))
	}

	store, err := storage.New(&storage.Config{
		Provider:  cfg.Storage.Provider,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		CDNDomain: cfg.Storage.CDNDomain,
		BasePath:  cfg.Storage.BasePath,
		LocalDir:  cfg.Storage.LocalDir,
	})
	if err != nil {
		logger.L().Fatal("对象存储初始化失败", zap.Error(err))
	}

	// -------- WebSocket 中继 --------
	roomAuth := service.NewRoomAuthService(
		repos.Order, repos.Delivery, repos.Conversation,
		repos.Customer, repos.Supplier,
	)
	hub := ws.NewHub(roomAuth)

	// -------- 业务服务 --------
	services := &Services{RoomAuth: roomAuth}

	services.Auth = service.NewAuthService(repos.AccountUow, repos.User, repos.Customer, repos.Supplier, tokens)
	services.Notification = service.NewNotificationService(repos.Notification, hub)
	services.Category = service.NewCategoryService(repos.Category)
	services.Product = service.NewProductService(repos.Product, repos.Category, repos.Supplier, repos.Notification, store, hub)
	services.Supplier = service.NewSupplierService(repos.Supplier, repos.Product, repos.Order, repos.Delivery)
	services.Surplus = service.NewSurplusService(repos.Surplus, repos.Product, repos.Supplier)
	services.Cart = service.NewCartService(repos.Cart, repos.CartItem, repos.Product, repos.Surplus, repos.Customer)
	services.Order = service.NewOrderService(
		repos.Uow, repos.Order, repos.Customer, repos.Supplier,
		gateway, hub,
		service.PricingConfig{
			TaxRateBps:             cfg.Order.TaxRateBps,
			FreeDeliveryMultiplier: cfg.Order.FreeDeliveryMultiplier,
		},
	)
	services.Delivery = service.NewDeliveryService(
		repos.Uow, repos.Delivery, repos.Order,
		repos.Customer, repos.Supplier, repos.Notification, hub,
	)
	services.Review = service.NewReviewService(
		repos.Uow, repos.Review, repos.Product, repos.Order,
		repos.Customer, repos.Supplier, repos.Notification, hub,
	)
	services.Chat = service.NewChatService(
		repos.Conversation, repos.ChatMessage,
		repos.Customer, repos.Supplier, repos.Order,
		repos.Notification, hub,
	)
	services.Admin = service.NewAdminService(
		repos.Uow, repos.User, repos.Supplier,
		repos.Order, repos.Issue, tokens, hub,
	)
	services.Issue = service.NewIssueService(
		repos.Issue, repos.Order, repos.Customer, repos.Supplier,
		repos.User, repos.Notification, hub,
	)
	services.Promotion = service.NewPromotionService(
		repos.Promotion, repos.Supplier, repos.Customer,
		repos.Cart, repos.Order,
	)
	services.Support = service.NewSupportService(repos.SupportTicket, repos.SupportMsg, repos.Notification, hub)

	// -------- Controller 层 --------
	controllers := initControllers(services)

	return &Dependencies{
		DB:          db,
		Repos:       repos,
		Services:    services,
		Controllers: controllers,
		Hub:         hub,
		TokenStore:  tokens,
	}
}

// initRepositories 初始化所有仓库
func initRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Uow:        repository.NewUnitOfWork(db),
		AccountUow: repository.NewAccountUnitOfWork(db),

		User:     repository.NewUserRepository(db),
		Customer: repository.NewCustomerRepository(db),
		Supplier: repository.NewSupplierRepository(db),
		Admin:    repository.NewAdminRepository(db),

		Category: repository.NewCategoryRepository(db),
		Product:  repository.NewProductRepository(db),
		Surplus:  repository.NewSurplusRepository(db),

		Cart:     repository.NewCartRepository(db),
		CartItem: repository.NewCartItemRepository(db),
		Order:    repository.NewOrderRepository(db),
		Delivery: repository.NewDeliveryRepository(db),

		Review:        repository.NewReviewRepository(db),
		Notification:  repository.NewNotificationRepository(db),
		Conversation:  repository.NewConversationRepository(db),
		ChatMessage:   repository.NewChatMessageRepository(db),
		Issue:         repository.NewIssueRepository(db),
		Promotion:     repository.NewPromotionRepository(db),
		SupportTicket: repository.NewSupportTicketRepository(db),
		SupportMsg:    repository.NewSupportMessageRepository(db),
	}
}

// initTokenStore Redis 可用时用 Redis 做令牌吊销，否则退化为进程内存
func initTokenStore(cfg *config.Config) cache.TokenStore {
	if !cfg.Redis.Enabled {
		logger.L().Info("Redis 未启用，令牌吊销使用内存存储")
		return cache.NewMemoryTokenStore()
	}

	store, err := cache.NewRedisTokenStore(cache.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		logger.L().Warn("Redis 连接失败，令牌吊销退化为内存存储", zap.Error(err))
		return cache.NewMemoryTokenStore()
	}
	return store
}

// initControllers 初始化所有控制器
func initControllers(svc *Services) *router.Controllers {
	return &router.Controllers{
		Auth:         controller.NewAuthController(svc.Auth),
		Product:      controller.NewProductController(svc.Product),
		Category:     controller.NewCategoryController(svc.Category),
		Supplier:     controller.NewSupplierController(svc.Supplier),
		Cart:         controller.NewCartController(svc.Cart),
		Order:        controller.NewOrderController(svc.Order),
		Delivery:     controller.NewDeliveryController(svc.Delivery),
		Review:       controller.NewReviewController(svc.Review),
		Notification: controller.NewNotificationController(svc.Notification),
		Chat:         controller.NewChatController(svc.Chat),
		Admin:        controller.NewAdminController(svc.Admin),
		Issue:        controller.NewIssueController(svc.Issue),
		Surplus:      controller.NewSurplusController(svc.Surplus),
		Promotion:    controller.NewPromotionController(svc.Promotion),
		Support:      controller.NewSupportController(svc.Support),
	}
}

// ==================== 定时任务 ====================

// initTasks 启动定时任务，返回停止函数
func initTasks(cfg *config.Config, deps *Dependencies) func() {
	taskCfg := task.DefaultConfig()
	taskCfg.PromoEnabled = cfg.Tasks.PromotionSweepEnabled
	taskCfg.SurplusEnabled = cfg.Tasks.SurplusExpiryEnabled
	taskCfg.ReminderEnabled = cfg.Tasks.DeliveryReminderEnabled
	if cfg.Tasks.PromotionSweepSpec != "" {
		taskCfg.PromoSpec = cfg.Tasks.PromotionSweepSpec
	}
	if cfg.Tasks.SurplusExpirySpec != "" {
		taskCfg.SurplusSpec = cfg.Tasks.SurplusExpirySpec
	}
	if cfg.Tasks.DeliveryReminderSpec != "" {
		taskCfg.ReminderSpec = cfg.Tasks.DeliveryReminderSpec
	}

	manager := task.NewTaskManager(&task.TaskManagerDeps{
		PromoRepo:     deps.Repos.Promotion,
		SurplusRepo:   deps.Repos.Surplus,
		DeliveryRepo:  deps.Repos.Delivery,
		OrderRepo:     deps.Repos.Order,
		CustomerRepo:  deps.Repos.Customer,
		SupplierRepo:  deps.Repos.Supplier,
		Notifications: deps.Services.Notification,
	}, taskCfg)
	manager.Start()

	// 通知表分区维护（建未来分区、清过期分区）
	partitionTask := database.NewPartitionTask(database.Global().GetManager())
	partitionTask.Start()

	return func() {
		partitionTask.Stop()
		manager.Stop()
	}
}

// ==================== 服务启动 ====================

// startServer 启动服务
func startServer(cfg *config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: r,
	}

	// 异步启动服务
	go func() {
		logger.L().Info("服务启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal("服务启动失败", zap.Error(err))
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.L().Info("正在关闭服务...")

	// 优雅关闭，最多等待 30 秒
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.L().Fatal("服务强制关闭", zap.Error(err))
	}

	logger.L().Info("服务已退出")
}
