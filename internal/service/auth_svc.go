package service

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"buildmart_dev_v1_202608/internal/api/dto"
	"buildmart_dev_v1_202608/internal/apperr"
	"buildmart_dev_v1_202608/internal/middleware"
	"buildmart_dev_v1_202608/internal/model"
	"buildmart_dev_v1_202608/internal/repository"
	"buildmart_dev_v1_202608/pkg/cache"
)

// ==================== AuthService 认证服务 ====================

// AuthService 注册、登录与 Token 生命周期
type AuthService struct {
	uow          *repository.AccountUnitOfWork
	userRepo     repository.UserRepository
	customerRepo repository.CustomerRepository
	supplierRepo repository.SupplierRepository
	tokens       cache.TokenStore
}

// NewAuthService 创建认证服务
func NewAuthService(
	uow *repository.AccountUnitOfWork,
	userRepo repository.UserRepository,
	customerRepo repository.CustomerRepository,
	supplierRepo repository.SupplierRepository,
	tokens cache.TokenStore,
) *AuthService {
	return &AuthService{
		uow:          uow,
		userRepo:     userRepo,
		customerRepo: customerRepo,
		supplierRepo: supplierRepo,
		tokens:       tokens,
	}
}

// ==================== 注册 ====================

// Register 注册客户或供应商账号，账号与档案同事务落库
// 供应商注册后处于待审核状态，审核通过前不能上架商品
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserInfo, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	// 角色对应档案的必填项
	switch req.Role {
	case model.RoleCustomer:
		if strings.TrimSpace(req.Name) == "" {
			return nil, apperr.Validation("name is required for customer accounts")
		}
	case model.RoleSupplier:
		if strings.TrimSpace(req.BusinessName) == "" {
			return nil, apperr.Validation("business_name is required for supplier accounts")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         req.Role,
		Status:       model.UserStatusActive,
		Phone:        req.Phone,
	}

	var customer *model.Customer
	var supplier *model.Supplier

	err = s.uow.Transaction(ctx, func(uow *repository.AccountUnitOfWork) error {
		if err := uow.Users.Create(ctx, user); err != nil {
			return err
		}

		switch req.Role {
		case model.RoleCustomer:
			customerType := req.CustomerType
			if customerType == "" {
				customerType = model.CustomerTypeIndividual
			}
			customer = &model.Customer{
				UserID:         user.ID,
				Name:           req.Name,
				CustomerType:   customerType,
				CompanyName:    req.CompanyName,
				TaxNumber:      req.TaxNumber,
				DefaultAddress: req.DefaultAddress,
			}
			return uow.Customers.Create(ctx, customer)

		case model.RoleSupplier:
			supplier = &model.Supplier{
				UserID:        user.ID,
				BusinessName:  req.BusinessName,
				Description:   req.Description,
				LicenseNumber: req.LicenseNumber,
				TaxNumber:     req.TaxNumber,
				Status:        model.SupplierStatusPending,
				ServiceAreas:  req.ServiceAreas,
				Categories:    req.Categories,
			}
			return uow.Suppliers.Create(ctx, supplier)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.toUserInfo(user, customer, supplier), nil
}

// ==================== 登录 ====================

// Login 邮箱密码登录，签发 Token 对
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	// 停用账号直接拒绝，提示与密码错误区分
	if user.IsSuspended() {
		return nil, ErrAccountSuspended
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, refreshToken, err := middleware.GenerateTokenPair(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	_ = s.userRepo.UpdateLastLogin(ctx, user.ID)

	info, err := s.loadUserInfo(ctx, user)
	if err != nil {
		return nil, err
	}

	cfg := middleware.GetJWTConfig()
	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(cfg.AccessTokenTTL),
		User:         info,
	}, nil
}

// ==================== Token 刷新 ====================

// RefreshToken 刷新 Token 对并轮换，旧 Refresh Token 即刻作废
func (s *AuthService) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.RefreshTokenResponse, error) {
	claims, err := middleware.ParseToken(req.RefreshToken)
	if err != nil || claims.Subject != "refresh" {
		return nil, ErrInvalidToken
	}

	if revoked, err := s.tokens.IsRevoked(ctx, claims.ID); err == nil && revoked {
		return nil, ErrInvalidToken
	}

	// 账号状态可能在签发后变化，重新校验
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}
	if user.IsSuspended() {
		return nil, ErrAccountSuspended
	}

	accessToken, refreshToken, err := middleware.GenerateTokenPair(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	// 轮换：旧 Refresh Token 进入吊销名单直至自然过期
	if ttl := time.Until(claims.ExpiresAt.Time); ttl > 0 {
		_ = s.tokens.Revoke(ctx, claims.ID, ttl)
	}

	cfg := middleware.GetJWTConfig()
	return &dto.RefreshTokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(cfg.AccessTokenTTL),
	}, nil
}

// ==================== 登出 ====================

// Logout 将当前 Access Token（及可选的 Refresh Token）列入吊销名单
func (s *AuthService) Logout(ctx context.Context, claims *middleware.UserClaims, refreshToken string) error {
	if claims != nil {
		if ttl := time.Until(claims.ExpiresAt.Time); ttl > 0 {
			if err := s.tokens.Revoke(ctx, claims.ID, ttl); err != nil {
				return err
			}
		}
	}

	if refreshToken != "" {
		rc, err := middleware.ParseToken(refreshToken)
		if err == nil && rc.Subject == "refresh" {
			if ttl := time.Until(rc.ExpiresAt.Time); ttl > 0 {
				_ = s.tokens.Revoke(ctx, rc.ID, ttl)
			}
		}
	}

	return nil
}

// ==================== 个人资料 ====================

// GetProfile 当前用户资料
func (s *AuthService) GetProfile(ctx context.Context, userID int64) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return s.loadUserInfo(ctx, user)
}

// UpdateProfile 更新个人资料（电话与角色档案字段）
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if req.Phone != "" {
		user.Phone = req.Phone
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, err
		}
	}

	if user.Role == model.RoleCustomer {
		customer, err := s.customerRepo.GetByUserID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if customer != nil {
			if req.Name != "" {
				customer.Name = req.Name
			}
			if req.CompanyName != "" {
				customer.CompanyName = req.CompanyName
			}
			if req.TaxNumber != "" {
				customer.TaxNumber = req.TaxNumber
			}
			if req.DefaultAddress != nil {
				customer.DefaultAddress = req.DefaultAddress
			}
			if err := s.customerRepo.Update(ctx, customer); err != nil {
				return nil, err
			}
		}
	}

	return s.loadUserInfo(ctx, user)
}

// ChangePassword 修改密码，需校验旧密码
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, req *dto.ChangePasswordRequest) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.userRepo.UpdatePassword(ctx, userID, string(hash))
}

// ==================== 转换 ====================

// loadUserInfo 加载角色档案后转换
func (s *AuthService) loadUserInfo(ctx context.Context, user *model.User) (*dto.UserInfo, error) {
	var customer *model.Customer
	var supplier *model.Supplier
	var err error

	switch user.Role {
	case model.RoleCustomer:
		customer, err = s.customerRepo.GetByUserID(ctx, user.ID)
	case model.RoleSupplier:
		supplier, err = s.supplierRepo.GetByUserID(ctx, user.ID)
	}
	if err != nil {
		return nil, err
	}

	return s.toUserInfo(user, customer, supplier), nil
}

func (s *AuthService) toUserInfo(user *model.User, customer *model.Customer, supplier *model.Supplier) *dto.UserInfo {
	return &dto.UserInfo{
		ID:          user.ID,
		Email:       user.Email,
		Role:        user.Role,
		Status:      user.Status,
		Phone:       user.Phone,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
		Customer:    toCustomerInfo(customer),
		Supplier:    toSupplierInfo(supplier),
	}
}

// ==================== 错误定义 ====================

var (
	ErrEmailTaken         = apperr.DuplicateEmail("email already registered")
	ErrInvalidCredentials = apperr.Unauthorized("invalid email or password")
	ErrAccountSuspended   = apperr.Suspended("account suspended")
	ErrInvalidToken       = apperr.Unauthorized("token invalid or expired")
	ErrUserNotFound       = apperr.NotFound("user not found")
	ErrWrongPassword      = apperr.Unauthorized("old password incorrect")
)
