package service

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"buildmart_dev_v1_202608/internal/model"
	"buildmart_dev_v1_202608/internal/repository"
	"buildmart_dev_v1_202608/pkg/cache"
	"buildmart_dev_v1_202608/pkg/payment"
)

// ==================== 测试辅助 ====================

// testPassword 测试账号统一口令
const testPassword = "password123!"

// openSvcDB 内存 sqlite，全量建表
func openSvcDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	err = db.AutoMigrate(
		&model.User{}, &model.Customer{}, &model.Supplier{}, &model.Admin{},
		&model.Category{}, &model.Product{},
		&model.Cart{}, &model.CartItem{},
		&model.Order{}, &model.OrderItem{}, &model.OrderTimeline{},
		&model.Delivery{}, &model.Review{}, &model.Notification{},
		&model.Issue{}, &model.Conversation{}, &model.ChatMessage{},
		&model.SurplusListing{}, &model.Promotion{},
		&model.SupportTicket{}, &model.SupportMessage{},
	)
	if err != nil {
		t.Fatalf("建表失败: %v", err)
	}
	return db
}

func hashPassword(t *testing.T) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("生成密码哈希失败: %v", err)
	}
	return string(hash)
}

// ==================== 种子数据 ====================

func seedUser(t *testing.T, db *gorm.DB, email, role, status string) *model.User {
	t.Helper()
	user := &model.User{
		Email:        email,
		PasswordHash: hashPassword(t),
		Role:         role,
		Status:       status,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("创建测试账号失败: %v", err)
	}
	return user
}

func seedCustomer(t *testing.T, db *gorm.DB, email string) (*model.User, *model.Customer) {
	t.Helper()
	user := seedUser(t, db, email, model.RoleCustomer, model.UserStatusActive)
	customer := &model.Customer{
		UserID:       user.ID,
		Name:         "Test Customer",
		CustomerType: model.CustomerTypeIndividual,
		DefaultAddress: map[string]interface{}{
			"line1": "1 Builder's Yard", "city": "Leeds", "postcode": "LS1 4AP",
		},
	}
	if err := db.Create(customer).Error; err != nil {
		t.Fatalf("创建客户档案失败: %v", err)
	}
	return user, customer
}

func seedTradeCustomer(t *testing.T, db *gorm.DB, email string, creditLimitCents int64) (*model.User, *model.Customer) {
	t.Helper()
	user, customer := seedCustomer(t, db, email)
	customer.CustomerType = model.CustomerTypeTrade
	customer.CompanyName = "Brick & Beam Ltd"
	customer.CreditLimitCents = creditLimitCents
	if err := db.Save(customer).Error; err != nil {
		t.Fatalf("升级企业客户失败: %v", err)
	}
	return user, customer
}

func seedSupplier(t *testing.T, db *gorm.DB, email, status string) (*model.User, *model.Supplier) {
	t.Helper()
	user := seedUser(t, db, email, model.RoleSupplier, model.UserStatusActive)
	supplier := &model.Supplier{
		UserID:       user.ID,
		BusinessName: "Yorkshire Aggregates",
		Status:       status,
	}
	if err := db.Create(supplier).Error; err != nil {
		t.Fatalf("创建供应商档案失败: %v", err)
	}
	return user, supplier
}

func seedProduct(t *testing.T, db *gorm.DB, supplierID int64, priceCents int64, stock int) *model.Product {
	t.Helper()
	product := &model.Product{
		SupplierID:    supplierID,
		CategoryID:    1,
		Name:          "Portland Cement 25kg",
		SKU:           "CEM-25",
		Status:        model.ProductStatusActive,
		PriceCents:    priceCents,
		Unit:          model.UnitBag,
		StockQuantity: stock,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("创建测试商品失败: %v", err)
	}
	return product
}

func seedCartItem(t *testing.T, db *gorm.DB, customerID int64, product *model.Product, quantity int) *model.Cart {
	t.Helper()
	var cart model.Cart
	err := db.Where("customer_id = ? AND status = ?", customerID, model.CartStatusActive).
		First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cart = model.Cart{CustomerID: customerID, Status: model.CartStatusActive}
		err = db.Create(&cart).Error
	}
	if err != nil {
		t.Fatalf("准备购物车失败: %v", err)
	}

	item := &model.CartItem{
		CartID:         cart.ID,
		ProductID:      product.ID,
		Quantity:       quantity,
		UnitPriceCents: product.PriceCents,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("创建购物车条目失败: %v", err)
	}
	return &cart
}

// ==================== 服务装配 ====================

// recordingPublisher 记录事件供断言，不做真实推送
type recordingPublisher struct {
	events []publishedEvent
}

type publishedEvent struct {
	Room  string
	Event string
	Data  interface{}
}

func (p *recordingPublisher) Publish(room, event string, data interface{}) {
	p.events = append(p.events, publishedEvent{Room: room, Event: event, Data: data})
}

func (p *recordingPublisher) countEvent(event string) int {
	n := 0
	for _, e := range p.events {
		if e.Event == event {
			n++
		}
	}
	return n
}

func newTestAuthService(db *gorm.DB) *AuthService {
	return NewAuthService(
		repository.NewAccountUnitOfWork(db),
		repository.NewUserRepository(db),
		repository.NewCustomerRepository(db),
		repository.NewSupplierRepository(db),
		cache.NewMemoryTokenStore(),
	)
}

func newTestCartService(db *gorm.DB) *CartService {
	return NewCartService(
		repository.NewCartRepository(db),
		repository.NewCartItemRepository(db),
		repository.NewProductRepository(db),
		repository.NewSurplusRepository(db),
		repository.NewCustomerRepository(db),
	)
}

func newTestOrderService(db *gorm.DB, gateway payment.Gateway, events EventPublisher) *OrderService {
	if events == nil {
		events = NopPublisher()
	}
	return NewOrderService(
		repository.NewUnitOfWork(db),
		repository.NewOrderRepository(db),
		repository.NewCustomerRepository(db),
		repository.NewSupplierRepository(db),
		gateway,
		events,
		PricingConfig{TaxRateBps: 2000}, // 20%，整数断言友好
	)
}

func mockGateway(t *testing.T, declineCents int64) payment.Gateway {
	t.Helper()
	gw, err := payment.New(payment.Config{Provider: "mock", MockDeclineCents: declineCents})
	if err != nil {
		t.Fatalf("创建 mock 支付网关失败: %v", err)
	}
	return gw
}

func countRows(t *testing.T, db *gorm.DB, m interface{}) int64 {
	t.Helper()
	var n int64
	if err := db.Model(m).Count(&n).Error; err != nil {
		t.Fatalf("统计行数失败: %v", err)
	}
	return n
}
