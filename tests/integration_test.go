package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"buildmart_dev_v1_202608/internal/controller"
	"buildmart_dev_v1_202608/internal/middleware"
	"buildmart_dev_v1_202608/internal/model"
	"buildmart_dev_v1_202608/internal/repository"
	"buildmart_dev_v1_202608/internal/router"
	"buildmart_dev_v1_202608/internal/service"
	"buildmart_dev_v1_202608/internal/ws"
	"buildmart_dev_v1_202608/pkg/cache"
	"buildmart_dev_v1_202608/pkg/config"
	"buildmart_dev_v1_202608/pkg/payment"
	"buildmart_dev_v1_202608/pkg/storage"
)

func init() {
	gin.SetMode(gin.TestMode)

	// 同进程连续注册/下单会被动作冷却拦住，测试里把间隔清零
	for action := range middleware.DefaultIntervals {
		middleware.DefaultIntervals[action] = 0
	}
}

// ==================== 测试套件 ====================

type IntegrationSuite struct {
	DB     *gorm.DB
	Router *gin.Engine
	Hub    *ws.Hub
	T      *testing.T
}

// NewIntegrationSuite 按生产装配方式拼出全栈：sqlite 顶替 PostgreSQL，
// 支付走 mock 网关，对象存储落临时目录
func NewIntegrationSuite(t *testing.T) *IntegrationSuite {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("连接数据库失败: %v", err)
	}
	// :memory: 每个连接各自一份库，收紧到单连接保证数据一致
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取底层连接失败: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&model.User{}, &model.Customer{}, &model.Supplier{}, &model.Admin{},
		&model.Category{}, &model.Product{}, &model.SurplusListing{},
		&model.Cart{}, &model.CartItem{},
		&model.Order{}, &model.OrderItem{}, &model.OrderTimeline{},
		&model.Delivery{}, &model.Issue{},
		&model.Review{}, &model.Conversation{}, &model.ChatMessage{},
		&model.Promotion{},
		&model.SupportTicket{}, &model.SupportMessage{},
		&model.Notification{},
	); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}

	// -------- 基础设施 --------
	tokens := cache.NewMemoryTokenStore()
	middleware.SetJWTConfig(&middleware.JWTConfig{
		SecretKey:       "integration-test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		Issuer:          "buildmart-test",
	})
	middleware.SetTokenStore(tokens)

	gateway, err := payment.New(payment.Config{Provider: "mock"})
	if err != nil {
		t.Fatalf("初始化支付网关失败: %v", err)
	}
	store, err := storage.New(&storage.Config{Provider: "local", LocalDir: t.TempDir()})
	if err != nil {
		t.Fatalf("初始化对象存储失败: %v", err)
	}

	// -------- Repo 层 --------
	uow := repository.NewUnitOfWork(db)
	accountUow := repository.NewAccountUnitOfWork(db)
	userRepo := repository.NewUserRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	surplusRepo := repository.NewSurplusRepository(db)
	cartRepo := repository.NewCartRepository(db)
	cartItemRepo := repository.NewCartItemRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	deliveryRepo := repository.NewDeliveryRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	chatMessageRepo := repository.NewChatMessageRepository(db)
	issueRepo := repository.NewIssueRepository(db)
	promotionRepo := repository.NewPromotionRepository(db)
	ticketRepo := repository.NewSupportTicketRepository(db)
	ticketMsgRepo := repository.NewSupportMessageRepository(db)

	// -------- 服务与路由 --------
	roomAuth := service.NewRoomAuthService(orderRepo, deliveryRepo, conversationRepo, customerRepo, supplierRepo)
	hub := ws.NewHub(roomAuth)

	authSvc := service.NewAuthService(accountUow, userRepo, customerRepo, supplierRepo, tokens)
	notificationSvc := service.NewNotificationService(notificationRepo, hub)
	categorySvc := service.NewCategoryService(categoryRepo)
	productSvc := service.NewProductService(productRepo, categoryRepo, supplierRepo, notificationRepo, store, hub)
	supplierSvc := service.NewSupplierService(supplierRepo, productRepo, orderRepo, deliveryRepo)
	surplusSvc := service.NewSurplusService(surplusRepo, productRepo, supplierRepo)
	cartSvc := service.NewCartService(cartRepo, cartItemRepo, productRepo, surplusRepo, customerRepo)
	orderSvc := service.NewOrderService(
		uow, orderRepo, customerRepo, supplierRepo,
		gateway, hub,
		service.PricingConfig{TaxRateBps: 2000, FreeDeliveryMultiplier: 3},
	)
	deliverySvc := service.NewDeliveryService(uow, deliveryRepo, orderRepo, customerRepo, supplierRepo, notificationRepo, hub)
	reviewSvc := service.NewReviewService(uow, reviewRepo, productRepo, orderRepo, customerRepo, supplierRepo, notificationRepo, hub)
	chatSvc := service.NewChatService(conversationRepo, chatMessageRepo, customerRepo, supplierRepo, orderRepo, notificationRepo, hub)
	adminSvc := service.NewAdminService(uow, userRepo, supplierRepo, orderRepo, issueRepo, tokens, hub)
	issueSvc := service.NewIssueService(issueRepo, orderRepo, customerRepo, supplierRepo, userRepo, notificationRepo, hub)
	promotionSvc := service.NewPromotionService(promotionRepo, supplierRepo, customerRepo, cartRepo, orderRepo)
	supportSvc := service.NewSupportService(ticketRepo, ticketMsgRepo, notificationRepo, hub)

	ctl := &router.Controllers{
		Auth:         controller.NewAuthController(authSvc),
		Product:      controller.NewProductController(productSvc),
		Category:     controller.NewCategoryController(categorySvc),
		Supplier:     controller.NewSupplierController(supplierSvc),
		Cart:         controller.NewCartController(cartSvc),
		Order:        controller.NewOrderController(orderSvc),
		Delivery:     controller.NewDeliveryController(deliverySvc),
		Review:       controller.NewReviewController(reviewSvc),
		Notification: controller.NewNotificationController(notificationSvc),
		Chat:         controller.NewChatController(chatSvc),
		Admin:        controller.NewAdminController(adminSvc),
		Issue:        controller.NewIssueController(issueSvc),
		Surplus:      controller.NewSurplusController(surplusSvc),
		Promotion:    controller.NewPromotionController(promotionSvc),
		Support:      controller.NewSupportController(supportSvc),
	}

	cfg := &config.Config{}
	cfg.Server.Mode = gin.TestMode
	cfg.CORS.AllowOrigins = []string{"http://localhost:5173"}

	engine := router.SetupRouter(cfg, db, hub, ctl)

	return &IntegrationSuite{DB: db, Router: engine, Hub: hub, T: t}
}

// ==================== 请求辅助 ====================

func (s *IntegrationSuite) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			s.T.Fatalf("序列化请求体失败: %v", err)
		}
		buf = bytes.NewBuffer(raw)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

// decode 解出响应体，data 字段返回为 map
func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v, body=%s", err, w.Body.String())
	}
	return resp
}

func dataOf(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	data, ok := decode(t, w)["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("响应缺少 data 对象: %s", w.Body.String())
	}
	return data
}

func asInt(v interface{}) int64 {
	f, _ := v.(float64)
	return int64(f)
}

// ==================== 账号辅助 ====================

// registerCustomer 注册客户并登录，返回访问令牌
func (s *IntegrationSuite) registerCustomer(email, customerType string) string {
	s.T.Helper()

	w := s.do(http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"email":         email,
		"password":      "password123",
		"role":          "customer",
		"name":          "Integration Buyer",
		"customer_type": customerType,
		"default_address": map[string]interface{}{
			"line1":    "1 Depot Lane",
			"city":     "Leeds",
			"postcode": "LS1 4AB",
		},
	})
	if w.Code != http.StatusCreated {
		s.T.Fatalf("注册客户失败: %d, %s", w.Code, w.Body.String())
	}
	return s.login(email, "password123")
}

// registerSupplier 注册供应商，返回 (访问令牌, 供应商档案 ID)
func (s *IntegrationSuite) registerSupplier(email, businessName string) (string, int64) {
	s.T.Helper()

	w := s.do(http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"email":         email,
		"password":      "password123",
		"role":          "supplier",
		"business_name": businessName,
		"service_areas": []string{"LS", "BD"},
		"categories":    []string{"cement", "timber"},
	})
	if w.Code != http.StatusCreated {
		s.T.Fatalf("注册供应商失败: %d, %s", w.Code, w.Body.String())
	}
	data := dataOf(s.T, w)
	profile, ok := data["supplier"].(map[string]interface{})
	if !ok {
		s.T.Fatalf("注册响应缺少供应商档案: %s", w.Body.String())
	}
	return s.login(email, "password123"), asInt(profile["id"])
}

func (s *IntegrationSuite) login(email, password string) string {
	s.T.Helper()

	w := s.do(http.MethodPost, "/api/auth/login", "", map[string]interface{}{
		"email":    email,
		"password": password,
	})
	if w.Code != http.StatusOK {
		s.T.Fatalf("登录失败: %d, %s", w.Code, w.Body.String())
	}
	token, _ := dataOf(s.T, w)["access_token"].(string)
	if token == "" {
		s.T.Fatal("登录响应缺少 access_token")
	}
	return token
}

// seedAdmin 管理员没有注册入口，直接落库后走登录
func (s *IntegrationSuite) seedAdmin(email string) string {
	s.T.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		s.T.Fatalf("生成密码哈希失败: %v", err)
	}
	user := &model.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
		Status:       model.UserStatusActive,
	}
	if err := s.DB.Create(user).Error; err != nil {
		s.T.Fatalf("创建管理员账号失败: %v", err)
	}
	if err := s.DB.Create(&model.Admin{UserID: user.ID, DisplayName: "Platform Ops"}).Error; err != nil {
		s.T.Fatalf("创建管理员档案失败: %v", err)
	}
	return s.login(email, "password123")
}

func (s *IntegrationSuite) approveSupplier(adminToken string, supplierID int64) {
	s.T.Helper()

	w := s.do(http.MethodPost, fmt.Sprintf("/api/admin/suppliers/%d/approve", supplierID), adminToken, nil)
	if w.Code != http.StatusOK {
		s.T.Fatalf("审核供应商失败: %d, %s", w.Code, w.Body.String())
	}
}

func (s *IntegrationSuite) createCategory(adminToken, name, slug string) int64 {
	s.T.Helper()

	w := s.do(http.MethodPost, "/api/categories", adminToken, map[string]interface{}{
		"name": name,
		"slug": slug,
	})
	if w.Code != http.StatusCreated {
		s.T.Fatalf("创建分类失败: %d, %s", w.Code, w.Body.String())
	}
	return asInt(dataOf(s.T, w)["id"])
}

func (s *IntegrationSuite) createProduct(supplierToken string, categoryID int64, name string, priceCents int64, stock int) int64 {
	s.T.Helper()

	w := s.do(http.MethodPost, "/api/products", supplierToken, map[string]interface{}{
		"category_id":    categoryID,
		"name":           name,
		"price_cents":    priceCents,
		"unit":           "bag",
		"stock_quantity": stock,
	})
	if w.Code != http.StatusCreated {
		s.T.Fatalf("创建商品失败: %d, %s", w.Code, w.Body.String())
	}
	return asInt(dataOf(s.T, w)["id"])
}

// ==================== 认证流程 ====================

func TestIntegration_AuthFlow(t *testing.T) {
	suite := NewIntegrationSuite(t)

	t.Run("RegisterAndLogin", func(t *testing.T) {
		token := suite.registerCustomer("buyer@example.com", "individual")

		w := suite.do(http.MethodGet, "/api/auth/me", token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("获取当前用户失败: %d, %s", w.Code, w.Body.String())
		}
		data := dataOf(t, w)
		if data["email"] != "buyer@example.com" || data["role"] != "customer" {
			t.Fatalf("用户信息不对: %v", data)
		}
	})

	t.Run("DuplicateEmailRejected", func(t *testing.T) {
		w := suite.do(http.MethodPost, "/api/auth/register", "", map[string]interface{}{
			"email":    "buyer@example.com",
			"password": "password123",
			"role":     "customer",
			"name":     "Another Buyer",
		})
		if w.Code != http.StatusConflict {
			t.Fatalf("重复邮箱应返回 409, got %d", w.Code)
		}
	})

	t.Run("WrongPasswordRejected", func(t *testing.T) {
		w := suite.do(http.MethodPost, "/api/auth/login", "", map[string]interface{}{
			"email":    "buyer@example.com",
			"password": "wrong-password",
		})
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("错误密码应返回 401, got %d", w.Code)
		}
	})

	t.Run("LogoutRevokesToken", func(t *testing.T) {
		token := suite.registerCustomer("leaver@example.com", "individual")

		w := suite.do(http.MethodPost, "/api/auth/logout", token, map[string]interface{}{})
		if w.Code != http.StatusNoContent {
			t.Fatalf("登出失败: %d, %s", w.Code, w.Body.String())
		}

		w = suite.do(http.MethodGet, "/api/auth/me", token, nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("登出后令牌应失效, got %d", w.Code)
		}
	})
}

// ==================== 供应商入驻 ====================

func TestIntegration_SupplierOnboarding(t *testing.T) {
	suite := NewIntegrationSuite(t)

	adminToken := suite.seedAdmin("admin@example.com")
	categoryID := suite.createCategory(adminToken, "Cement", "cement")

	supplierToken, supplierID := suite.registerSupplier("mill@example.com", "Northern Mill")

	t.Run("PendingSupplierCannotSell", func(t *testing.T) {
		w := suite.do(http.MethodPost, "/api/products", supplierToken, map[string]interface{}{
			"category_id":    categoryID,
			"name":           "Portland Cement 25kg",
			"price_cents":    899,
			"stock_quantity": 100,
		})
		if w.Code != http.StatusForbidden {
			t.Fatalf("未过审供应商上架应返回 403, got %d, %s", w.Code, w.Body.String())
		}
	})

	t.Run("AdminSeesPendingQueue", func(t *testing.T) {
		w := suite.do(http.MethodGet, "/api/admin/suppliers/pending", adminToken, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("获取待审列表失败: %d, %s", w.Code, w.Body.String())
		}
		resp := decode(t, w)
		if asInt(resp["total"]) != 1 {
			t.Fatalf("待审队列应有 1 家, got %v", resp["total"])
		}
	})

	t.Run("ApprovedSupplierCanSell", func(t *testing.T) {
		suite.approveSupplier(adminToken, supplierID)

		productID := suite.createProduct(supplierToken, categoryID, "Portland Cement 25kg", 899, 100)

		// 公开目录立即可见
		w := suite.do(http.MethodGet, fmt.Sprintf("/api/products/%d", productID), "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("公开查询商品失败: %d", w.Code)
		}
		if name := dataOf(t, w)["name"]; name != "Portland Cement 25kg" {
			t.Fatalf("商品名不对: %v", name)
		}
	})

	t.Run("RejectedSupplierGetsReason", func(t *testing.T) {
		_, rejectedID := suite.registerSupplier("shady@example.com", "Shady Aggregates")

		w := suite.do(http.MethodPost, fmt.Sprintf("/api/admin/suppliers/%d/reject", rejectedID), adminToken, map[string]interface{}{
			"reason": "license number could not be verified",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("驳回失败: %d, %s", w.Code, w.Body.String())
		}
		if status := dataOf(t, w)["status"]; status != "rejected" {
			t.Fatalf("驳回后状态应为 rejected, got %v", status)
		}
	})
}

// ==================== 订单全链路 ====================

// 注册到评价的完整闭环：上架 -> 加购 -> 下单 -> 接单 -> 配送 -> 签收 -> 评价
func TestIntegration_OrderLifecycle(t *testing.T) {
	suite := NewIntegrationSuite(t)

	adminToken := suite.seedAdmin("admin@example.com")
	categoryID := suite.createCategory(adminToken, "Cement", "cement")

	supplierToken, supplierID := suite.registerSupplier("mill@example.com", "Northern Mill")
	suite.approveSupplier(adminToken, supplierID)

	// 配送计价用：配送费 7 镑，起订额拉高避免触发免配送
	if err := suite.DB.Model(&model.Supplier{}).Where("id = ?", supplierID).
		Updates(map[string]interface{}{"delivery_fee_cents": 700, "min_order_cents": 100000}).Error; err != nil {
		t.Fatalf("设置供应商配送费失败: %v", err)
	}

	productID := suite.createProduct(supplierToken, categoryID, "Portland Cement 25kg", 2500, 10)
	customerToken := suite.registerCustomer("buyer@example.com", "individual")

	var orderID int64

	t.Run("AddToCart", func(t *testing.T) {
		w := suite.do(http.MethodPost, "/api/cart/items", customerToken, map[string]interface{}{
			"product_id": productID,
			"quantity":   3,
		})
		if w.Code != http.StatusOK && w.Code != http.StatusCreated {
			t.Fatalf("加购失败: %d, %s", w.Code, w.Body.String())
		}

		w = suite.do(http.MethodGet, "/api/cart", customerToken, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("获取购物车失败: %d", w.Code)
		}
		cart := dataOf(t, w)
		if asInt(cart["subtotal_cents"]) != 7500 {
			t.Fatalf("购物车小计应为 7500, got %v", cart["subtotal_cents"])
		}
	})

	t.Run("PlaceOrder", func(t *testing.T) {
		w := suite.do(http.MethodPost, "/api/orders", customerToken, map[string]interface{}{
			"payment_method": "card",
			"card_ref":       "tok_test",
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("下单失败: %d, %s", w.Code, w.Body.String())
		}
		order := dataOf(t, w)
		orderID = asInt(order["id"])

		// 小计 7500，税 20%，配送费 700
		if asInt(order["subtotal_cents"]) != 7500 ||
			asInt(order["tax_cents"]) != 1500 ||
			asInt(order["delivery_fee_cents"]) != 700 ||
			asInt(order["grand_total_cents"]) != 9700 {
			t.Fatalf("订单金额不对: %v", order)
		}
		if order["status"] != model.OrderStatusPending {
			t.Fatalf("新订单应为 pending, got %v", order["status"])
		}

		// 库存即时扣减
		w = suite.do(http.MethodGet, fmt.Sprintf("/api/products/%d", productID), "", nil)
		if got := asInt(dataOf(t, w)["stock_quantity"]); got != 7 {
			t.Fatalf("下单后库存应为 7, got %d", got)
		}
	})

	t.Run("SupplierConfirms", func(t *testing.T) {
		for _, status := range []string{model.OrderStatusConfirmed, model.OrderStatusProcessing} {
			w := suite.do(http.MethodPatch, fmt.Sprintf("/api/orders/%d/status", orderID), supplierToken, map[string]interface{}{
				"status": status,
			})
			if w.Code != http.StatusOK {
				t.Fatalf("推进到 %s 失败: %d, %s", status, w.Code, w.Body.String())
			}
		}
	})

	t.Run("DeliveryRoundTrip", func(t *testing.T) {
		w := suite.do(http.MethodGet, "/api/deliveries", supplierToken, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("获取配送单失败: %d, %s", w.Code, w.Body.String())
		}
		resp := decode(t, w)
		rows, _ := resp["data"].([]interface{})
		if len(rows) != 1 {
			t.Fatalf("应有 1 张配送单, got %d", len(rows))
		}
		delivery, _ := rows[0].(map[string]interface{})
		deliveryID := asInt(delivery["id"])
		if delivery["status"] != model.DeliveryStatusScheduled {
			t.Fatalf("配送单初始状态应为 scheduled, got %v", delivery["status"])
		}

		// 排窗口
		w = suite.do(http.MethodPatch, fmt.Sprintf("/api/deliveries/%d/window", deliveryID), supplierToken, map[string]interface{}{
			"window_start": time.Now().Add(24 * time.Hour),
			"window_end":   time.Now().Add(28 * time.Hour),
			"driver_name":  "Dave",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("排期失败: %d, %s", w.Code, w.Body.String())
		}

		// 发车 -> 签收
		for _, status := range []string{model.DeliveryStatusInTransit, model.DeliveryStatusDelivered} {
			w = suite.do(http.MethodPatch, fmt.Sprintf("/api/deliveries/%d/status", deliveryID), supplierToken, map[string]interface{}{
				"status": status,
			})
			if w.Code != http.StatusOK {
				t.Fatalf("配送推进到 %s 失败: %d, %s", status, w.Code, w.Body.String())
			}
		}

		// 全部送达后订单联动转 delivered
		w = suite.do(http.MethodGet, fmt.Sprintf("/api/orders/%d", orderID), customerToken, nil)
		if status := dataOf(t, w)["status"]; status != model.OrderStatusDelivered {
			t.Fatalf("签收后订单应为 delivered, got %v", status)
		}
	})

	t.Run("ReviewAfterDelivery", func(t *testing.T) {
		w := suite.do(http.MethodPost, "/api/reviews", customerToken, map[string]interface{}{
			"product_id": productID,
			"order_id":   orderID,
			"rating":     5,
			"title":      "Sets fast",
			"body":       "No clumps, good winter batch.",
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("提交评价失败: %d, %s", w.Code, w.Body.String())
		}
		reviewID := asInt(dataOf(t, w)["id"])

		// 评分回写商品
		w = suite.do(http.MethodGet, fmt.Sprintf("/api/products/%d", productID), "", nil)
		product := dataOf(t, w)
		if avg, _ := product["rating_avg"].(float64); avg != 5 {
			t.Fatalf("商品评分应为 5, got %v", product["rating_avg"])
		}

		// 供应商回复
		w = suite.do(http.MethodPost, fmt.Sprintf("/api/reviews/%d/reply", reviewID), supplierToken, map[string]interface{}{
			"reply": "Thanks, same batch back in stock next week.",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("回复评价失败: %d, %s", w.Code, w.Body.String())
		}
	})

	t.Run("NotificationsAccumulated", func(t *testing.T) {
		w := suite.do(http.MethodGet, "/api/notifications/unread-count", customerToken, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("获取未读数失败: %d", w.Code)
		}
		if count := asInt(dataOf(t, w)["count"]); count == 0 {
			t.Fatal("下单和配送应产生客户通知")
		}

		w = suite.do(http.MethodPatch, "/api/notifications/read-all", customerToken, nil)
		if w.Code != http.StatusOK && w.Code != http.StatusNoContent {
			t.Fatalf("全部已读失败: %d", w.Code)
		}

		w = suite.do(http.MethodGet, "/api/notifications/unread-count", customerToken, nil)
		if count := asInt(dataOf(t, w)["count"]); count != 0 {
			t.Fatalf("全部已读后未读数应为 0, got %d", count)
		}
	})
}

// ==================== 促销码 ====================

func TestIntegration_PromotionFlow(t *testing.T) {
	suite := NewIntegrationSuite(t)

	adminToken := suite.seedAdmin("admin@example.com")
	categoryID := suite.createCategory(adminToken, "Timber", "timber")

	supplierToken, supplierID := suite.registerSupplier("mill@example.com", "Northern Mill")
	suite.approveSupplier(adminToken, supplierID)
	productID := suite.createProduct(supplierToken, categoryID, "CLS Stud 38x63", 1000, 50)

	// 供应商建 10% 折扣码
	w := suite.do(http.MethodPost, "/api/promotions", supplierToken, map[string]interface{}{
		"code":           "SAVE10",
		"discount_type":  "percent",
		"discount_value": 10,
		"starts_at":      time.Now().Add(-time.Hour),
		"ends_at":        time.Now().Add(24 * time.Hour),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("创建促销码失败: %d, %s", w.Code, w.Body.String())
	}

	customerToken := suite.registerCustomer("buyer@example.com", "individual")
	w = suite.do(http.MethodPost, "/api/cart/items", customerToken, map[string]interface{}{
		"product_id": productID,
		"quantity":   5,
	})
	if w.Code != http.StatusOK && w.Code != http.StatusCreated {
		t.Fatalf("加购失败: %d, %s", w.Code, w.Body.String())
	}

	t.Run("ValidateBeforeCheckout", func(t *testing.T) {
		w := suite.do(http.MethodPost, "/api/promotions/validate", customerToken, map[string]interface{}{
			"code": "SAVE10",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("试算失败: %d, %s", w.Code, w.Body.String())
		}
		result := dataOf(t, w)
		if valid, _ := result["valid"].(bool); !valid {
			t.Fatalf("促销码应有效: %v", result)
		}
		if asInt(result["discount_cents"]) != 500 {
			t.Fatalf("5000 的 10%% 应为 500, got %v", result["discount_cents"])
		}
	})

	t.Run("DiscountAppliedAtCheckout", func(t *testing.T) {
		w := suite.do(http.MethodPost, "/api/orders", customerToken, map[string]interface{}{
			"payment_method": "card",
			"promo_code":     "SAVE10",
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("下单失败: %d, %s", w.Code, w.Body.String())
		}
		order := dataOf(t, w)

		// 折后 4500 计税：税 900，合计 5400
		if asInt(order["discount_cents"]) != 500 ||
			asInt(order["tax_cents"]) != 900 ||
			asInt(order["grand_total_cents"]) != 5400 {
			t.Fatalf("折扣订单金额不对: %v", order)
		}
	})

	t.Run("SecondUseBlocked", func(t *testing.T) {
		// 同客户复用同码
		w := suite.do(http.MethodPost, "/api/cart/items", customerToken, map[string]interface{}{
			"product_id": productID,
			"quantity":   1,
		})
		if w.Code != http.StatusOK && w.Code != http.StatusCreated {
			t.Fatalf("二次加购失败: %d", w.Code)
		}

		w = suite.do(http.MethodPost, "/api/orders", customerToken, map[string]interface{}{
			"payment_method": "card",
			"promo_code":     "SAVE10",
		})
		if w.Code != http.StatusConflict {
			t.Fatalf("同客户复用促销码应返回 409, got %d, %s", w.Code, w.Body.String())
		}
	})
}

// ==================== 尾货 ====================

func TestIntegration_SurplusFlow(t *testing.T) {
	suite := NewIntegrationSuite(t)

	adminToken := suite.seedAdmin("admin@example.com")
	categoryID := suite.createCategory(adminToken, "Bricks", "bricks")

	supplierToken, supplierID := suite.registerSupplier("yard@example.com", "Brick Yard")
	suite.approveSupplier(adminToken, supplierID)
	productID := suite.createProduct(supplierToken, categoryID, "Engineering Brick", 2000, 100)

	var listingID int64

	t.Run("SupplierLists", func(t *testing.T) {
		w := suite.do(http.MethodPost, "/api/surplus", supplierToken, map[string]interface{}{
			"product_id":           productID,
			"title":                "Overrun pallet, open box",
			"condition":            "open_box",
			"quantity":             5,
			"unit_price_cents":     1500,
			"original_price_cents": 2000,
			"expires_at":           time.Now().Add(48 * time.Hour),
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("尾货上架失败: %d, %s", w.Code, w.Body.String())
		}
		listing := dataOf(t, w)
		listingID = asInt(listing["id"])
		if asInt(listing["discount_percent"]) != 25 {
			t.Fatalf("折扣比例应为 25, got %v", listing["discount_percent"])
		}
	})

	t.Run("CustomerBuysAtSurplusPrice", func(t *testing.T) {
		customerToken := suite.registerCustomer("bargain@example.com", "individual")

		w := suite.do(http.MethodPost, "/api/cart/items", customerToken, map[string]interface{}{
			"surplus_listing_id": listingID,
			"quantity":           2,
		})
		if w.Code != http.StatusOK && w.Code != http.StatusCreated {
			t.Fatalf("尾货加购失败: %d, %s", w.Code, w.Body.String())
		}

		w = suite.do(http.MethodPost, "/api/orders", customerToken, map[string]interface{}{
			"payment_method": "card",
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("尾货下单失败: %d, %s", w.Code, w.Body.String())
		}
		order := dataOf(t, w)
		if asInt(order["subtotal_cents"]) != 3000 {
			t.Fatalf("尾货小计应按折价 3000, got %v", order["subtotal_cents"])
		}

		// 尾货件数扣减
		w = suite.do(http.MethodGet, fmt.Sprintf("/api/surplus/%d", listingID), "", nil)
		if got := asInt(dataOf(t, w)["quantity"]); got != 3 {
			t.Fatalf("售出后剩余件数应为 3, got %d", got)
		}
	})
}

// ==================== 洽谈与客服 ====================

func TestIntegration_ChatAndSupport(t *testing.T) {
	suite := NewIntegrationSuite(t)

	adminToken := suite.seedAdmin("admin@example.com")
	supplierToken, supplierID := suite.registerSupplier("mill@example.com", "Northern Mill")
	suite.approveSupplier(adminToken, supplierID)
	customerToken := suite.registerCustomer("buyer@example.com", "trade")

	t.Run("ConversationRoundTrip", func(t *testing.T) {
		w := suite.do(http.MethodPost, "/api/chat/conversations", customerToken, map[string]interface{}{
			"supplier_id": supplierID,
		})
		if w.Code != http.StatusOK && w.Code != http.StatusCreated {
			t.Fatalf("发起会话失败: %d, %s", w.Code, w.Body.String())
		}
		conversationID := asInt(dataOf(t, w)["id"])

		w = suite.do(http.MethodPost, fmt.Sprintf("/api/chat/conversations/%d/messages", conversationID), customerToken, map[string]interface{}{
			"body": "Can you do 40 bags before Friday?",
		})
		if w.Code != http.StatusOK && w.Code != http.StatusCreated {
			t.Fatalf("发消息失败: %d, %s", w.Code, w.Body.String())
		}

		// 供应商侧能看到会话和消息
		w = suite.do(http.MethodGet, "/api/chat/conversations", supplierToken, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("供应商拉会话失败: %d, %s", w.Code, w.Body.String())
		}
		rows, _ := decode(t, w)["data"].([]interface{})
		if len(rows) != 1 {
			t.Fatalf("供应商应有 1 个会话, got %d", len(rows))
		}

		w = suite.do(http.MethodGet, fmt.Sprintf("/api/chat/conversations/%d/messages", conversationID), supplierToken, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("拉消息失败: %d, %s", w.Code, w.Body.String())
		}
	})

	t.Run("SupportTicketLifecycle", func(t *testing.T) {
		w := suite.do(http.MethodPost, "/api/support/tickets", customerToken, map[string]interface{}{
			"subject":  "Invoice missing VAT breakdown",
			"category": "billing",
			"priority": "normal",
			"body":     "Order BM-1001 invoice has no VAT line.",
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("提交工单失败: %d, %s", w.Code, w.Body.String())
		}
		ticketID := asInt(dataOf(t, w)["id"])

		w = suite.do(http.MethodPost, fmt.Sprintf("/api/support/tickets/%d/messages", ticketID), customerToken, map[string]interface{}{
			"body": "Adding the order PDF for reference.",
		})
		if w.Code != http.StatusOK && w.Code != http.StatusCreated {
			t.Fatalf("工单追加消息失败: %d, %s", w.Code, w.Body.String())
		}

		// 管理员关单
		w = suite.do(http.MethodPatch, fmt.Sprintf("/api/support/tickets/%d/status", ticketID), adminToken, map[string]interface{}{
			"status": "resolved",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("工单关闭失败: %d, %s", w.Code, w.Body.String())
		}
	})
}

// ==================== 错误与权限 ====================

func TestIntegration_ErrorHandling(t *testing.T) {
	suite := NewIntegrationSuite(t)

	adminToken := suite.seedAdmin("admin@example.com")
	categoryID := suite.createCategory(adminToken, "Cement", "cement")
	supplierToken, supplierID := suite.registerSupplier("mill@example.com", "Northern Mill")
	suite.approveSupplier(adminToken, supplierID)
	productID := suite.createProduct(supplierToken, categoryID, "Portland Cement 25kg", 2500, 3)
	customerToken := suite.registerCustomer("buyer@example.com", "individual")

	t.Run("MissingTokenRejected", func(t *testing.T) {
		w := suite.do(http.MethodGet, "/api/cart", "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("无令牌应返回 401, got %d", w.Code)
		}
	})

	t.Run("WrongRoleRejected", func(t *testing.T) {
		w := suite.do(http.MethodPost, "/api/products", customerToken, map[string]interface{}{
			"category_id":    categoryID,
			"name":           "Not Allowed",
			"price_cents":    100,
			"stock_quantity": 1,
		})
		if w.Code != http.StatusForbidden {
			t.Fatalf("客户上架商品应返回 403, got %d", w.Code)
		}
	})

	t.Run("EmptyCartCannotCheckout", func(t *testing.T) {
		w := suite.do(http.MethodPost, "/api/orders", customerToken, map[string]interface{}{
			"payment_method": "card",
		})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("空车下单应返回 400, got %d, %s", w.Code, w.Body.String())
		}
	})

	t.Run("OverstockAddRejected", func(t *testing.T) {
		w := suite.do(http.MethodPost, "/api/cart/items", customerToken, map[string]interface{}{
			"product_id": productID,
			"quantity":   99,
		})
		if w.Code != http.StatusConflict {
			t.Fatalf("超库存加购应返回 409, got %d, %s", w.Code, w.Body.String())
		}
	})

	t.Run("StrangerCannotReadOrder", func(t *testing.T) {
		w := suite.do(http.MethodPost, "/api/cart/items", customerToken, map[string]interface{}{
			"product_id": productID,
			"quantity":   1,
		})
		if w.Code != http.StatusOK && w.Code != http.StatusCreated {
			t.Fatalf("加购失败: %d", w.Code)
		}
		w = suite.do(http.MethodPost, "/api/orders", customerToken, map[string]interface{}{
			"payment_method": "card",
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("下单失败: %d, %s", w.Code, w.Body.String())
		}
		orderID := asInt(dataOf(t, w)["id"])

		strangerToken := suite.registerCustomer("stranger@example.com", "individual")
		w = suite.do(http.MethodGet, fmt.Sprintf("/api/orders/%d", orderID), strangerToken, nil)
		if w.Code != http.StatusForbidden {
			t.Fatalf("非参与方查单应返回 403, got %d", w.Code)
		}

		// 非法状态流转
		w = suite.do(http.MethodPatch, fmt.Sprintf("/api/orders/%d/status", orderID), supplierToken, map[string]interface{}{
			"status": model.OrderStatusDelivered,
		})
		if w.Code != http.StatusConflict {
			t.Fatalf("pending 直跳 delivered 应返回 409, got %d, %s", w.Code, w.Body.String())
		}
	})
}

// ==================== 运维端点 ====================

func TestIntegration_OpsEndpoints(t *testing.T) {
	suite := NewIntegrationSuite(t)

	t.Run("Healthz", func(t *testing.T) {
		w := suite.do(http.MethodGet, "/healthz", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("健康检查失败: %d, %s", w.Code, w.Body.String())
		}
	})

	t.Run("Metrics", func(t *testing.T) {
		w := suite.do(http.MethodGet, "/metrics", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("指标端点失败: %d", w.Code)
		}
		if !bytes.Contains(w.Body.Bytes(), []byte("http_requests_total")) {
			t.Fatal("指标输出缺少 http_requests_total")
		}
	})
}

// ==================== 并发 ====================

func TestIntegration_Concurrency(t *testing.T) {
	suite := NewIntegrationSuite(t)

	adminToken := suite.seedAdmin("admin@example.com")
	categoryID := suite.createCategory(adminToken, "Cement", "cement")
	supplierToken, supplierID := suite.registerSupplier("mill@example.com", "Northern Mill")
	suite.approveSupplier(adminToken, supplierID)
	productID := suite.createProduct(supplierToken, categoryID, "Portland Cement 25kg", 2500, 100)

	t.Run("ParallelCatalogReads", func(t *testing.T) {
		var wg sync.WaitGroup
		errs := make(chan string, 20)

		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				w := suite.do(http.MethodGet, fmt.Sprintf("/api/products/%d", productID), "", nil)
				if w.Code != http.StatusOK {
					errs <- fmt.Sprintf("并发读商品失败: %d", w.Code)
				}
			}()
		}
		wg.Wait()
		close(errs)
		for msg := range errs {
			t.Error(msg)
		}
	})

	t.Run("ParallelCartWrites", func(t *testing.T) {
		// 10 个客户同时加购，各自独立购物车
		tokens := make([]string, 10)
		for i := range tokens {
			tokens[i] = suite.registerCustomer(fmt.Sprintf("buyer%d@example.com", i), "individual")
		}

		var wg sync.WaitGroup
		errs := make(chan string, len(tokens))
		for _, token := range tokens {
			wg.Add(1)
			go func(token string) {
				defer wg.Done()
				w := suite.do(http.MethodPost, "/api/cart/items", token, map[string]interface{}{
					"product_id": productID,
					"quantity":   2,
				})
				if w.Code != http.StatusOK && w.Code != http.StatusCreated {
					errs <- fmt.Sprintf("并发加购失败: %d, %s", w.Code, w.Body.String())
				}
			}(token)
		}
		wg.Wait()
		close(errs)
		for msg := range errs {
			t.Error(msg)
		}

		var count int64
		if err := suite.DB.Model(&model.Cart{}).Count(&count).Error; err != nil {
			t.Fatalf("统计购物车失败: %v", err)
		}
		if count != 10 {
			t.Fatalf("应有 10 个购物车, got %d", count)
		}
	})
}
