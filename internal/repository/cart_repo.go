package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"buildmart_dev_v1_202608/internal/model"
)

// ==================== CartRepository 购物车仓库 ====================

// CartRepository 购物车仓库接口
type CartRepository interface {
	Create(ctx context.Context, cart *model.Cart) error
	GetByID(ctx context.Context, id int64) (*model.Cart, error)
	// GetActiveByCustomer 客户当前活跃购物车，预加载条目与商品
	GetActiveByCustomer(ctx context.Context, customerID int64) (*model.Cart, error)
	// GetActiveByCustomerForUpdate 加行级锁读取，下单事务内使用
	GetActiveByCustomerForUpdate(ctx context.Context, customerID int64) (*model.Cart, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
}

// CartItemRepository 购物车条目仓库接口
type CartItemRepository interface {
	Create(ctx context.Context, item *model.CartItem) error
	GetByID(ctx context.Context, id int64) (*model.CartItem, error)
	// GetByCartAndProduct 查找普通购买条目（不含尾货条目）
	GetByCartAndProduct(ctx context.Context, cartID, productID int64) (*model.CartItem, error)
	// GetByCartAndSurplus 查找尾货购买条目
	GetByCartAndSurplus(ctx context.Context, cartID, surplusListingID int64) (*model.CartItem, error)
	UpdateQuantity(ctx context.Context, id int64, quantity int) error
	Delete(ctx context.Context, id int64) error
	DeleteByCart(ctx context.Context, cartID int64) error
	CountByCart(ctx context.Context, cartID int64) (int64, error)
}

// ==================== Cart 实现 ====================

type cartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) Create(ctx context.Context, cart *model.Cart) error {
	return r.db.WithContext(ctx).Create(cart).Error
}

func (r *cartRepository) GetByID(ctx context.Context, id int64) (*model.Cart, error) {
	var cart model.Cart
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		Preload("Items.SurplusListing").
		First(&cart, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &cart, err
}

func (r *cartRepository) GetActiveByCustomer(ctx context.Context, customerID int64) (*model.Cart, error) {
	var cart model.Cart
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		Preload("Items.SurplusListing").
		Where("customer_id = ? AND status = ?", customerID, model.CartStatusActive).
		First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &cart, err
}

func (r *cartRepository) GetActiveByCustomerForUpdate(ctx context.Context, customerID int64) (*model.Cart, error) {
	// 先锁购物车行，再单独加载条目，避免锁子句作用到 JOIN 上
	var cart model.Cart
	err := lockForUpdate(r.db.WithContext(ctx)).
		Where("customer_id = ? AND status = ?", customerID, model.CartStatusActive).
		First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).
		Where("cart_id = ?", cart.ID).
		Order("id ASC").
		Find(&cart.Items).Error
	return &cart, err
}

func (r *cartRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.db.WithContext(ctx).
		Model(&model.Cart{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// ==================== CartItem 实现 ====================

type cartItemRepository struct {
	db *gorm.DB
}

// NewCartItemRepository 创建购物车条目仓库
func NewCartItemRepository(db *gorm.DB) CartItemRepository {
	return &cartItemRepository{db: db}
}

func (r *cartItemRepository) Create(ctx context.Context, item *model.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *cartItemRepository) GetByID(ctx context.Context, id int64) (*model.CartItem, error) {
	var item model.CartItem
	err := r.db.WithContext(ctx).First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &item, err
}

func (r *cartItemRepository) GetByCartAndProduct(ctx context.Context, cartID, productID int64) (*model.CartItem, error) {
	var item model.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ? AND surplus_listing_id IS NULL", cartID, productID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &item, err
}

func (r *cartItemRepository) GetByCartAndSurplus(ctx context.Context, cartID, surplusListingID int64) (*model.CartItem, error) {
	var item model.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND surplus_listing_id = ?", cartID, surplusListingID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &item, err
}

func (r *cartItemRepository) UpdateQuantity(ctx context.Context, id int64, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("id = ?", id).
		Update("quantity", quantity).Error
}

func (r *cartItemRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.CartItem{}, id).Error
}

func (r *cartItemRepository) DeleteByCart(ctx context.Context, cartID int64) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&model.CartItem{}).Error
}

func (r *cartItemRepository) CountByCart(ctx context.Context, cartID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("cart_id = ?", cartID).
		Count(&count).Error
	return count, err
}
