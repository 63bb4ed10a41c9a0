package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"buildmart_dev_v1_202608/pkg/cache"
	"buildmart_dev_v1_202608/pkg/response"
)

// ==================== JWT 配置 ====================

// JWTConfig 签名密钥与两类令牌的有效期
type JWTConfig struct {
	SecretKey       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Issuer          string
}

// DefaultJWTConfig 兜底配置，正式环境必须用配置覆盖密钥
func DefaultJWTConfig() *JWTConfig {
	return &JWTConfig{
		SecretKey:       "buildmart-secret-key-change-in-production",
		AccessTokenTTL:  2 * time.Hour,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		Issuer:          "buildmart",
	}
}

var jwtConfig = DefaultJWTConfig()

// SetJWTConfig 启动时注入配置
func SetJWTConfig(cfg *JWTConfig) {
	jwtConfig = cfg
}

// GetJWTConfig 当前配置，服务层算过期时间要用
func GetJWTConfig() *JWTConfig {
	return jwtConfig
}

// 吊销名单存储，登出与停用账号后拦截存量 Token
var tokenStore cache.TokenStore

// SetTokenStore 注入吊销名单存储
func SetTokenStore(store cache.TokenStore) {
	tokenStore = store
}

// ==================== Claims 与签发 ====================

// Subject 区分令牌用途，Access 不能拿去换发，Refresh 不能过认证
const (
	subjectAccess  = "access"
	subjectRefresh = "refresh"
)

// UserClaims 用户声明
// RegisteredClaims.ID 为 jti，登出时作为黑名单键
type UserClaims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func signToken(userID int64, email, role, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &UserClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jwtConfig.Issuer,
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(jwtConfig.SecretKey))
}

// GenerateTokenPair 签发一对 Access/Refresh Token
func GenerateTokenPair(userID int64, email, role string) (accessToken, refreshToken string, err error) {
	if accessToken, err = signToken(userID, email, role, subjectAccess, jwtConfig.AccessTokenTTL); err != nil {
		return "", "", err
	}
	if refreshToken, err = signToken(userID, email, role, subjectRefresh, jwtConfig.RefreshTokenTTL); err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

// ParseToken 校验签名并取回声明
func ParseToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(jwtConfig.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// ==================== Gin 中间件 ====================

// Context Keys
const (
	ContextKeyUserID = "user_id"
	ContextKeyEmail  = "email"
	ContextKeyRole   = "role"
	ContextKeyClaims = "claims"
)

// bearerClaims 从 Authorization 头提取并校验 Access Token
func bearerClaims(c *gin.Context) (*UserClaims, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, "missing authorization header"
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, "authorization header must be Bearer {token}"
	}
	claims, err := ParseToken(parts[1])
	if err != nil {
		return nil, "token invalid or expired"
	}
	if claims.Subject != subjectAccess {
		return nil, "wrong token type"
	}
	return claims, ""
}

func injectClaims(c *gin.Context, claims *UserClaims) {
	c.Set(ContextKeyUserID, claims.UserID)
	c.Set(ContextKeyEmail, claims.Email)
	c.Set(ContextKeyRole, claims.Role)
	c.Set(ContextKeyClaims, claims)
}

// JWTAuth 认证中间件，通过后把用户信息塞进 Context
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, reason := bearerClaims(c)
		if claims == nil {
			response.AbortUnauthorized(c, reason)
			return
		}

		// 吊销名单：登出吊销单个 jti，停用账号吊销整账号键
		if tokenStore != nil {
			if revoked, err := tokenStore.IsRevoked(c.Request.Context(), claims.ID); err == nil && revoked {
				response.AbortUnauthorized(c, "token revoked")
				return
			}
			if revoked, err := tokenStore.IsRevoked(c.Request.Context(), cache.UserKey(claims.UserID)); err == nil && revoked {
				response.AbortUnauthorized(c, "account suspended")
				return
			}
		}

		injectClaims(c, claims)
		c.Next()
	}
}

// RequireRole 角色闸门，须排在 JWTAuth 之后
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ContextKeyRole)
		if !exists {
			response.AbortUnauthorized(c, "role missing from token")
			return
		}
		for _, r := range roles {
			if role.(string) == r {
				c.Next()
				return
			}
		}
		response.AbortForbidden(c, "insufficient role")
	}
}

// OptionalAuth 带了有效 Token 就注入身份，没带照样放行
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, _ := bearerClaims(c); claims != nil {
			injectClaims(c, claims)
		}
		c.Next()
	}
}

// ==================== 辅助函数 ====================

// GetUserID 从 Context 获取用户 ID
func GetUserID(c *gin.Context) int64 {
	if id, exists := c.Get(ContextKeyUserID); exists {
		return id.(int64)
	}
	return 0
}

// GetEmail 从 Context 获取邮箱
func GetEmail(c *gin.Context) string {
	if email, exists := c.Get(ContextKeyEmail); exists {
		return email.(string)
	}
	return ""
}

// GetUserRole 从 Context 获取用户角色
func GetUserRole(c *gin.Context) string {
	if role, exists := c.Get(ContextKeyRole); exists {
		return role.(string)
	}
	return ""
}

// GetUserClaims 从 Context 获取完整 Claims
func GetUserClaims(c *gin.Context) *UserClaims {
	if claims, exists := c.Get(ContextKeyClaims); exists {
		return claims.(*UserClaims)
	}
	return nil
}
