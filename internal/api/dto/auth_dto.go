package dto

import "time"

// ==================== 注册 ====================

// RegisterRequest 注册请求，客户与供应商共用
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Role     string `json:"role" binding:"required,oneof=customer supplier"`
	Phone    string `json:"phone" binding:"omitempty,max=32"`

	// 客户档案（role=customer）
	Name         string `json:"name" binding:"omitempty,max=255"`
	CustomerType string `json:"customer_type" binding:"omitempty,oneof=individual trade"`
	CompanyName  string `json:"company_name" binding:"omitempty,max=255"`
	TaxNumber    string `json:"tax_number" binding:"omitempty,max=64"`

	// 供应商档案（role=supplier），注册后进入待审核队列
	BusinessName  string   `json:"business_name" binding:"omitempty,max=255"`
	Description   string   `json:"description" binding:"omitempty,max=2000"`
	LicenseNumber string   `json:"license_number" binding:"omitempty,max=64"`
	ServiceAreas  []string `json:"service_areas" binding:"omitempty,max=50"`
	Categories    []string `json:"categories" binding:"omitempty,max=20"`

	// 默认收货地址
	DefaultAddress map[string]interface{} `json:"default_address"`
}

// ==================== 登录 ====================

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         *UserInfo `json:"user"`
}

// ==================== Token 刷新 ====================

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshTokenResponse 刷新 Token 响应
type RefreshTokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// LogoutRequest 登出请求，附带 Refresh Token 时一并吊销
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ==================== 用户信息 ====================

// UserInfo 账号信息，按角色附带档案
type UserInfo struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	Phone       string     `json:"phone,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`

	Customer *CustomerInfo `json:"customer,omitempty"`
	Supplier *SupplierInfo `json:"supplier,omitempty"`
}

// CustomerInfo 客户档案
type CustomerInfo struct {
	ID               int64                  `json:"id"`
	Name             string                 `json:"name"`
	CustomerType     string                 `json:"customer_type"`
	CompanyName      string                 `json:"company_name,omitempty"`
	TaxNumber        string                 `json:"tax_number,omitempty"`
	DefaultAddress   map[string]interface{} `json:"default_address,omitempty"`
	CreditLimitCents int64                  `json:"credit_limit_cents"`
	CreditUsedCents  int64                  `json:"credit_used_cents"`
}

// ==================== 资料维护 ====================

// UpdateProfileRequest 更新个人资料请求
type UpdateProfileRequest struct {
	Phone          string                 `json:"phone" binding:"omitempty,max=32"`
	Name           string                 `json:"name" binding:"omitempty,max=255"`
	CompanyName    string                 `json:"company_name" binding:"omitempty,max=255"`
	TaxNumber      string                 `json:"tax_number" binding:"omitempty,max=64"`
	DefaultAddress map[string]interface{} `json:"default_address"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}
