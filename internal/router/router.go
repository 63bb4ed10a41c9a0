package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"buildmart_dev_v1_202608/internal/controller"
	"buildmart_dev_v1_202608/internal/middleware"
	"buildmart_dev_v1_202608/internal/model"
	"buildmart_dev_v1_202608/internal/ws"
	"buildmart_dev_v1_202608/pkg/config"

	_ "buildmart_dev_v1_202608/docs"
)

// Controllers 路由依赖的控制器集合
type Controllers struct {
	Auth         *controller.AuthController
	Product      *controller.ProductController
	Category     *controller.CategoryController
	Supplier     *controller.SupplierController
	Cart         *controller.CartController
	Order        *controller.OrderController
	Delivery     *controller.DeliveryController
	Review       *controller.ReviewController
	Notification *controller.NotificationController
	Chat         *controller.ChatController
	Admin        *controller.AdminController
	Issue        *controller.IssueController
	Surplus      *controller.SurplusController
	Promotion    *controller.PromotionController
	Support      *controller.SupportController
}

// SetupRouter 创建引擎并注册所有路由
func SetupRouter(cfg *config.Config, db *gorm.DB, hub *ws.Hub, ctl *Controllers) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Metrics())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 1. 运维端点
	r.GET("/healthz", healthz(db))
	r.GET("/metrics", middleware.MetricsHandler())

	// 2. Swagger 文档路由
	// 访问 http://localhost:8080/swagger/index.html 即可查看
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 3. WebSocket 事件推送（token 走查询参数）
	r.GET("/ws", ws.ServeWS(hub))

	// 4. API 路由组
	api := r.Group("/api")
	{
		registerAuthRoutes(api, ctl)
		registerCatalogRoutes(api, ctl)
		registerTradeRoutes(api, ctl)
		registerCommunityRoutes(api, ctl)
		registerAdminRoutes(api, ctl)
	}

	return r
}

// registerAuthRoutes 认证与账号
func registerAuthRoutes(api *gin.RouterGroup, ctl *Controllers) {
	auth := api.Group("/auth")
	{
		// POST /api/auth/register
		auth.POST("/register", middleware.Cooldown(middleware.ActionRegister, 0), ctl.Auth.Register)
		auth.POST("/login", ctl.Auth.Login)
		auth.POST("/refresh", ctl.Auth.Refresh)

		authed := auth.Group("", middleware.JWTAuth())
		{
			authed.POST("/logout", ctl.Auth.Logout)
			authed.GET("/me", ctl.Auth.Me)
			authed.PUT("/me", ctl.Auth.UpdateMe)
			authed.PUT("/me/password", ctl.Auth.ChangePassword)
		}
	}
}

// registerCatalogRoutes 商品目录：商品 / 分类 / 供应商 / 尾货
func registerCatalogRoutes(api *gin.RouterGroup, ctl *Controllers) {
	products := api.Group("/products")
	{
		// 公开检索
		products.GET("", ctl.Product.List)
		products.GET("/:id", ctl.Product.Get)

		// 供应商管理自家商品
		supplier := products.Group("", middleware.JWTAuth(), middleware.RequireRole(model.RoleSupplier))
		{
			supplier.GET("/mine", ctl.Product.ListMine)
			supplier.GET("/low-stock", ctl.Product.LowStock)
			supplier.POST("", ctl.Product.Create)
			supplier.POST("/images", ctl.Product.UploadImage)
			supplier.PUT("/:id", ctl.Product.Update)
			supplier.DELETE("/:id", ctl.Product.Delete)
			supplier.PATCH("/:id/stock", ctl.Product.AdjustStock)
		}
	}

	categories := api.Group("/categories")
	{
		categories.GET("", ctl.Category.List)
		categories.GET("/:id", ctl.Category.Get)

		admin := categories.Group("",
			middleware.JWTAuth(),
			middleware.RequireRole(model.RoleAdmin),
			middleware.AuditContext(),
		)
		{
			admin.POST("", ctl.Category.Create)
			admin.PUT("/:id", ctl.Category.Update)
			admin.DELETE("/:id", ctl.Category.Delete)
		}
	}

	suppliers := api.Group("/suppliers")
	{
		suppliers.GET("", ctl.Supplier.List)
		suppliers.GET("/:id", ctl.Supplier.Get)

		me := suppliers.Group("", middleware.JWTAuth(), middleware.RequireRole(model.RoleSupplier))
		{
			me.GET("/me", ctl.Supplier.Me)
			me.PUT("/me", ctl.Supplier.UpdateMe)
			me.GET("/me/dashboard", ctl.Supplier.Dashboard)
		}
	}

	surplus := api.Group("/surplus")
	{
		surplus.GET("", ctl.Surplus.ListPublic)
		surplus.GET("/:id", ctl.Surplus.Get)

		seller := surplus.Group("", middleware.JWTAuth(), middleware.RequireRole(model.RoleSupplier))
		{
			seller.GET("/mine", ctl.Surplus.ListMine)
			seller.POST("", ctl.Surplus.Create)
			seller.PUT("/:id", ctl.Surplus.Update)
			seller.DELETE("/:id", ctl.Surplus.Withdraw)
		}
	}
}

// registerTradeRoutes 交易链路：购物车 / 订单 / 配送 / 促销 / 纠纷
func registerTradeRoutes(api *gin.RouterGroup, ctl *Controllers) {
	cart := api.Group("/cart", middleware.JWTAuth(), middleware.RequireRole(model.RoleCustomer))
	{
		cart.GET("", ctl.Cart.Get)
		cart.DELETE("", ctl.Cart.Clear)
		cart.POST("/items", ctl.Cart.AddItem)
		cart.PUT("/items/:id", ctl.Cart.UpdateItem)
		cart.DELETE("/items/:id", ctl.Cart.RemoveItem)
	}

	orders := api.Group("/orders", middleware.JWTAuth())
	{
		orders.POST("",
			middleware.RequireRole(model.RoleCustomer),
			middleware.Cooldown(middleware.ActionOrderPlace, 0),
			ctl.Order.Place,
		)
		orders.GET("", ctl.Order.List)
		orders.GET("/:id", ctl.Order.Get)
		orders.POST("/:id/cancel", ctl.Order.Cancel)
		orders.PATCH("/:id/status",
			middleware.RequireRole(model.RoleSupplier, model.RoleAdmin),
			ctl.Order.UpdateStatus,
		)
	}

	deliveries := api.Group("/deliveries", middleware.JWTAuth())
	{
		deliveries.GET("", ctl.Delivery.List)
		deliveries.GET("/:id", ctl.Delivery.Get)
		deliveries.PATCH("/:id/window",
			middleware.RequireRole(model.RoleSupplier),
			ctl.Delivery.UpdateWindow,
		)
		deliveries.PATCH("/:id/status",
			middleware.RequireRole(model.RoleSupplier, model.RoleAdmin),
			ctl.Delivery.UpdateStatus,
		)
	}

	promotions := api.Group("/promotions", middleware.JWTAuth())
	{
		// 结算页试算对客户开放
		promotions.POST("/validate",
			middleware.RequireRole(model.RoleCustomer),
			ctl.Promotion.Validate,
		)

		manage := promotions.Group("", middleware.RequireRole(model.RoleSupplier, model.RoleAdmin))
		{
			manage.POST("", ctl.Promotion.Create)
			manage.GET("", ctl.Promotion.List)
			manage.PATCH("/:id", ctl.Promotion.Update)
		}
	}

	issues := api.Group("/issues", middleware.JWTAuth())
	{
		issues.POST("", middleware.RequireRole(model.RoleCustomer), ctl.Issue.Create)
		issues.GET("", ctl.Issue.List)
		issues.GET("/:id", ctl.Issue.Get)
	}
}

// registerCommunityRoutes 互动：评价 / 通知 / 洽谈 / 客服
func registerCommunityRoutes(api *gin.RouterGroup, ctl *Controllers) {
	reviews := api.Group("/reviews")
	{
		// 商品评价列表公开
		reviews.GET("/products/:id", ctl.Review.ListByProduct)

		reviews.POST("",
			middleware.JWTAuth(),
			middleware.RequireRole(model.RoleCustomer),
			ctl.Review.Create,
		)

		supplier := reviews.Group("", middleware.JWTAuth(), middleware.RequireRole(model.RoleSupplier))
		{
			supplier.GET("/supplier", ctl.Review.ListSupplier)
			supplier.POST("/:id/reply", ctl.Review.Reply)
		}
	}

	notifications := api.Group("/notifications", middleware.JWTAuth())
	{
		notifications.GET("", ctl.Notification.List)
		notifications.GET("/unread-count", ctl.Notification.UnreadCount)
		notifications.PATCH("/read-all", ctl.Notification.MarkAllRead)
		notifications.PATCH("/:id/read", ctl.Notification.MarkRead)
	}

	chat := api.Group("/chat",
		middleware.JWTAuth(),
		middleware.RequireRole(model.RoleCustomer, model.RoleSupplier),
	)
	{
		chat.GET("/conversations", ctl.Chat.ListConversations)
		chat.POST("/conversations",
			middleware.RequireRole(model.RoleCustomer),
			ctl.Chat.OpenConversation,
		)
		chat.GET("/conversations/:id/messages", ctl.Chat.ListMessages)
		chat.POST("/conversations/:id/messages",
			middleware.Cooldown(middleware.ActionChatSend, 0),
			ctl.Chat.SendMessage,
		)
	}

	support := api.Group("/support", middleware.JWTAuth())
	{
		support.POST("/tickets",
			middleware.Cooldown(middleware.ActionTicketCreate, 0),
			ctl.Support.CreateTicket,
		)
		support.GET("/tickets", ctl.Support.ListTickets)
		support.GET("/tickets/:id", ctl.Support.GetTicket)
		support.POST("/tickets/:id/messages", ctl.Support.AddMessage)
		support.PATCH("/tickets/:id/status",
			middleware.RequireRole(model.RoleAdmin),
			ctl.Support.UpdateStatus,
		)
	}
}

// registerAdminRoutes 平台管理
func registerAdminRoutes(api *gin.RouterGroup, ctl *Controllers) {
	admin := api.Group("/admin", middleware.JWTAuth(), middleware.RequireRole(model.RoleAdmin))
	{
		admin.GET("/suppliers/pending", ctl.Admin.PendingSuppliers)
		admin.POST("/suppliers/:id/approve", ctl.Admin.ApproveSupplier)
		admin.POST("/suppliers/:id/reject", ctl.Admin.RejectSupplier)

		admin.GET("/users", ctl.Admin.Users)
		admin.PATCH("/users/:id/status", ctl.Admin.UpdateUserStatus)

		admin.GET("/stats", ctl.Admin.Stats)

		// 纠纷裁决复用纠纷控制器，管理员走 ListIssues/GetIssue 的全量视角
		admin.GET("/issues", ctl.Issue.List)
		admin.GET("/issues/:id", ctl.Issue.Get)
		admin.POST("/issues/:id/resolve", ctl.Issue.Resolve)
	}
}

// healthz 存活与数据库连通性探针
func healthz(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
