package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"buildmart_dev_v1_202608/internal/model"
)

// ==================== UserRepository 账号仓库 ====================

// UserRepository 账号仓库接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, id int64, hashedPassword string) error
	UpdateLastLogin(ctx context.Context, id int64) error
	UpdateStatus(ctx context.Context, id int64, status string) error
	List(ctx context.Context, filter UserFilter) ([]model.User, int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	CountByRole(ctx context.Context, role string) (int64, error)
}

// UserFilter 账号筛选条件
type UserFilter struct {
	Keyword  string
	Role     string
	Status   string
	Page     int
	PageSize int
}

// ==================== 实现 ====================

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建账号仓库
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create 创建账号
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetByID 根据 ID 获取账号
func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &user, err
}

// GetByEmail 根据邮箱获取账号
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &user, err
}

// Update 更新账号
func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// UpdatePassword 更新密码
func (r *userRepository) UpdatePassword(ctx context.Context, id int64, hashedPassword string) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update("password_hash", hashedPassword).Error
}

// UpdateLastLogin 更新最后登录时间
func (r *userRepository) UpdateLastLogin(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update("last_login_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
}

// UpdateStatus 更新账号状态（停用/恢复）
func (r *userRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// List 账号列表
func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]model.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.User{})

	// 关键词搜索
	if filter.Keyword != "" {
		keyword := "%" + filter.Keyword + "%"
		query = query.Where("email LIKE ? OR phone LIKE ?", keyword, keyword)
	}

	// 角色筛选
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}

	// 状态筛选
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	// 统计总数
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 分页
	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * pageSize

	var users []model.User
	err := query.
		Order("id DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&users).Error

	return users, total, err
}

// ExistsByEmail 检查邮箱是否已注册
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("email = ?", email).
		Count(&count).Error
	return count > 0, err
}

// CountByRole 按角色统计账号数
func (r *userRepository) CountByRole(ctx context.Context, role string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("role = ?", role).
		Count(&count).Error
	return count, err
}

// ==================== CustomerRepository 客户档案仓库 ====================

// CustomerRepository 客户档案仓库接口
type CustomerRepository interface {
	Create(ctx context.Context, customer *model.Customer) error
	GetByID(ctx context.Context, id int64) (*model.Customer, error)
	GetByUserID(ctx context.Context, userID int64) (*model.Customer, error)
	// GetByUserIDForUpdate 加行级锁读取，赊购扣减事务内使用
	GetByUserIDForUpdate(ctx context.Context, userID int64) (*model.Customer, error)
	Update(ctx context.Context, customer *model.Customer) error
	// AdjustCreditUsed 增减已用赊购额度（deltaCents 可为负），带额度上限守护，
	// 返回受影响行数，0 表示额度不足或客户不存在
	AdjustCreditUsed(ctx context.Context, id int64, deltaCents int64) (int64, error)
}

type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository 创建客户档案仓库
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Create(ctx context.Context, customer *model.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *customerRepository) GetByID(ctx context.Context, id int64) (*model.Customer, error) {
	var customer model.Customer
	err := r.db.WithContext(ctx).First(&customer, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &customer, err
}

func (r *customerRepository) GetByUserID(ctx context.Context, userID int64) (*model.Customer, error) {
	var customer model.Customer
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &customer, err
}

func (r *customerRepository) GetByUserIDForUpdate(ctx context.Context, userID int64) (*model.Customer, error) {
	var customer model.Customer
	err := lockForUpdate(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &customer, err
}

func (r *customerRepository) Update(ctx context.Context, customer *model.Customer) error {
	return r.db.WithContext(ctx).Save(customer).Error
}

// AdjustCreditUsed 增减已用赊购额度（deltaCents 可为负）
func (r *customerRepository) AdjustCreditUsed(ctx context.Context, id int64, deltaCents int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Customer{}).
		Where("id = ? AND credit_used_cents + ? BETWEEN 0 AND credit_limit_cents", id, deltaCents).
		Update("credit_used_cents", gorm.Expr("credit_used_cents + ?", deltaCents))
	return result.RowsAffected, result.Error
}

// ==================== AdminRepository 管理员档案仓库 ====================

// AdminRepository 管理员档案仓库接口
type AdminRepository interface {
	Create(ctx context.Context, admin *model.Admin) error
	GetByUserID(ctx context.Context, userID int64) (*model.Admin, error)
}

type adminRepository struct {
	db *gorm.DB
}

// NewAdminRepository 创建管理员档案仓库
func NewAdminRepository(db *gorm.DB) AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) Create(ctx context.Context, admin *model.Admin) error {
	return r.db.WithContext(ctx).Create(admin).Error
}

func (r *adminRepository) GetByUserID(ctx context.Context, userID int64) (*model.Admin, error) {
	var admin model.Admin
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &admin, err
}

// ==================== 事务支持 ====================

// AccountUnitOfWork 账号工作单元
// 注册横跨账号与档案两表，审核横跨供应商、账号与通知
type AccountUnitOfWork struct {
	db            *gorm.DB
	Users         UserRepository
	Customers     CustomerRepository
	Suppliers     SupplierRepository
	Admins        AdminRepository
	Notifications NotificationRepository
}

// NewAccountUnitOfWork 创建工作单元
func NewAccountUnitOfWork(db *gorm.DB) *AccountUnitOfWork {
	return &AccountUnitOfWork{
		db:            db,
		Users:         NewUserRepository(db),
		Customers:     NewCustomerRepository(db),
		Suppliers:     NewSupplierRepository(db),
		Admins:        NewAdminRepository(db),
		Notifications: NewNotificationRepository(db),
	}
}

// Transaction 执行事务，fn 返回错误即整体回滚
func (u *AccountUnitOfWork) Transaction(ctx context.Context, fn func(uow *AccountUnitOfWork) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewAccountUnitOfWork(tx))
	})
}
