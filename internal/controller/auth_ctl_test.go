package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"buildmart_dev_v1_202608/internal/middleware"
	"buildmart_dev_v1_202608/internal/model"
	"buildmart_dev_v1_202608/internal/repository"
	"buildmart_dev_v1_202608/internal/service"
	"buildmart_dev_v1_202608/pkg/cache"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ==================== 测试辅助 ====================

// setupAuthRouter 真实服务挂到精简路由上，库走内存 sqlite
func setupAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("连接数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.Customer{}, &model.Supplier{}); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}

	tokens := cache.NewMemoryTokenStore()
	middleware.SetJWTConfig(&middleware.JWTConfig{
		SecretKey:       "controller-test-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "buildmart-test",
	})
	middleware.SetTokenStore(tokens)

	svc := service.NewAuthService(
		repository.NewAccountUnitOfWork(db),
		repository.NewUserRepository(db),
		repository.NewCustomerRepository(db),
		repository.NewSupplierRepository(db),
		tokens,
	)
	ctl := NewAuthController(svc)

	r := gin.New()
	r.Use(gin.Recovery())
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", ctl.Register)
		auth.POST("/login", ctl.Login)
		auth.POST("/refresh", ctl.Refresh)
		auth.GET("/me", middleware.JWTAuth(), ctl.Me)
	}
	return r
}

func postJSON(r *gin.Engine, path string, body map[string]interface{}) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ==================== 注册 ====================

func TestAuthController_Register(t *testing.T) {
	r := setupAuthRouter(t)

	w := postJSON(r, "/api/auth/register", map[string]interface{}{
		"email":    "buyer@example.com",
		"password": "password123",
		"role":     "customer",
		"name":     "Jo Builder",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("注册应返回 201, got %d, %s", w.Code, w.Body.String())
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	data, _ := resp["data"].(map[string]interface{})
	if data["email"] != "buyer@example.com" || data["role"] != "customer" {
		t.Fatalf("注册响应不对: %v", data)
	}
}

func TestAuthController_Register_BindingErrors(t *testing.T) {
	r := setupAuthRouter(t)

	cases := []struct {
		name string
		body map[string]interface{}
	}{
		{"邮箱缺失", map[string]interface{}{"password": "password123", "role": "customer"}},
		{"邮箱格式错误", map[string]interface{}{"email": "not-an-email", "password": "password123", "role": "customer"}},
		{"密码过短", map[string]interface{}{"email": "a@b.com", "password": "short", "role": "customer"}},
		{"角色非法", map[string]interface{}{"email": "a@b.com", "password": "password123", "role": "admin"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(r, "/api/auth/register", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("应返回 400, got %d, %s", w.Code, w.Body.String())
			}

			var resp map[string]interface{}
			json.Unmarshal(w.Body.Bytes(), &resp)
			if resp["error"] != "ValidationError" {
				t.Fatalf("错误码应为 ValidationError, got %v", resp["error"])
			}
		})
	}
}

func TestAuthController_Register_DuplicateEmail(t *testing.T) {
	r := setupAuthRouter(t)

	body := map[string]interface{}{
		"email":    "buyer@example.com",
		"password": "password123",
		"role":     "customer",
		"name":     "Jo Builder",
	}
	if w := postJSON(r, "/api/auth/register", body); w.Code != http.StatusCreated {
		t.Fatalf("首次注册失败: %d", w.Code)
	}
	if w := postJSON(r, "/api/auth/register", body); w.Code != http.StatusConflict {
		t.Fatalf("重复注册应返回 409, got %d", w.Code)
	}
}

// ==================== 登录与令牌 ====================

func TestAuthController_LoginAndMe(t *testing.T) {
	r := setupAuthRouter(t)

	postJSON(r, "/api/auth/register", map[string]interface{}{
		"email":    "buyer@example.com",
		"password": "password123",
		"role":     "customer",
		"name":     "Jo Builder",
	})

	w := postJSON(r, "/api/auth/login", map[string]interface{}{
		"email":    "buyer@example.com",
		"password": "password123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("登录失败: %d, %s", w.Code, w.Body.String())
	}

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	data, _ := resp["data"].(map[string]interface{})
	token, _ := data["access_token"].(string)
	refresh, _ := data["refresh_token"].(string)
	if token == "" || refresh == "" {
		t.Fatalf("登录响应缺少令牌: %v", data)
	}

	// 带令牌访问
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("带令牌访问 /me 失败: %d, %s", rec.Code, rec.Body.String())
	}

	// Refresh Token 不能当 Access Token 用
	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+refresh)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("刷新令牌访问 /me 应返回 401, got %d", rec.Code)
	}
}

func TestAuthController_Login_WrongPassword(t *testing.T) {
	r := setupAuthRouter(t)

	postJSON(r, "/api/auth/register", map[string]interface{}{
		"email":    "buyer@example.com",
		"password": "password123",
		"role":     "customer",
		"name":     "Jo Builder",
	})

	w := postJSON(r, "/api/auth/login", map[string]interface{}{
		"email":    "buyer@example.com",
		"password": "not-the-password",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("错误密码应返回 401, got %d", w.Code)
	}
}

func TestAuthController_Refresh(t *testing.T) {
	r := setupAuthRouter(t)

	postJSON(r, "/api/auth/register", map[string]interface{}{
		"email":    "buyer@example.com",
		"password": "password123",
		"role":     "customer",
		"name":     "Jo Builder",
	})
	w := postJSON(r, "/api/auth/login", map[string]interface{}{
		"email":    "buyer@example.com",
		"password": "password123",
	})

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	data, _ := resp["data"].(map[string]interface{})
	refresh, _ := data["refresh_token"].(string)
	access, _ := data["access_token"].(string)

	t.Run("正常换发", func(t *testing.T) {
		w := postJSON(r, "/api/auth/refresh", map[string]interface{}{
			"refresh_token": refresh,
		})
		if w.Code != http.StatusOK {
			t.Fatalf("换发失败: %d, %s", w.Code, w.Body.String())
		}
	})

	t.Run("AccessToken不能换发", func(t *testing.T) {
		w := postJSON(r, "/api/auth/refresh", map[string]interface{}{
			"refresh_token": access,
		})
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("Access Token 换发应返回 401, got %d", w.Code)
		}
	})

	t.Run("伪造令牌拒绝", func(t *testing.T) {
		w := postJSON(r, "/api/auth/refresh", map[string]interface{}{
			"refresh_token": "not.a.token",
		})
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("伪造令牌应返回 401, got %d", w.Code)
		}
	})
}
