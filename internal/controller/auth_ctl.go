package controller

import (
	"github.com/gin-gonic/gin"

	"buildmart_dev_v1_202608/internal/api/dto"
	"buildmart_dev_v1_202608/internal/middleware"
	"buildmart_dev_v1_202608/internal/service"
	"buildmart_dev_v1_202608/pkg/response"
)

// AuthController 认证控制器
type AuthController struct {
	svc *service.AuthService
}

// NewAuthController 创建认证控制器
func NewAuthController(svc *service.AuthService) *AuthController {
	return &AuthController{svc: svc}
}

// ==================== 注册与登录 ====================

// Register 注册账号
// @Summary 注册账号
// @Description 客户或供应商注册，供应商注册后进入人工审核队列
// @Tags Auth (认证)
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "注册参数"
// @Success 201 {object} map[string]interface{} "data: 用户信息"
// @Failure 400 {object} map[string]string "参数错误"
// @Failure 409 {object} map[string]string "邮箱已注册"
// @Router /api/auth/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req dto.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	info, err := c.svc.Register(ctx.Request.Context(), &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.Created(ctx, info)
}

// Login 登录
// @Summary 登录
// @Description 校验邮箱密码，签发 Access/Refresh Token 对
// @Tags Auth (认证)
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "登录参数"
// @Success 200 {object} map[string]interface{} "data: token 对 + 用户信息"
// @Failure 401 {object} map[string]string "密码错误"
// @Failure 403 {object} map[string]string "账号已停用"
// @Router /api/auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	resp, err := c.svc.Login(ctx.Request.Context(), &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, resp)
}

// Refresh 刷新 Token
// @Summary 刷新 Token
// @Description 用 Refresh Token 换新的 Token 对，旧 Refresh Token 即刻吊销
// @Tags Auth (认证)
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "刷新参数"
// @Success 200 {object} map[string]interface{} "data: 新 token 对"
// @Failure 401 {object} map[string]string "Token 无效或已吊销"
// @Router /api/auth/refresh [post]
func (c *AuthController) Refresh(ctx *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	resp, err := c.svc.RefreshToken(ctx.Request.Context(), &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, resp)
}

// Logout 登出
// @Summary 登出
// @Description 吊销当前 Access Token，请求体可附带 Refresh Token 一并吊销
// @Tags Auth (认证)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.LogoutRequest false "登出参数"
// @Success 204 "已登出"
// @Router /api/auth/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	// 请求体可为空
	var req dto.LogoutRequest
	_ = ctx.ShouldBindJSON(&req)

	if err := c.svc.Logout(ctx.Request.Context(), middleware.GetUserClaims(ctx), req.RefreshToken); err != nil {
		response.Error(ctx, err)
		return
	}

	response.NoContent(ctx)
}

// ==================== 个人资料 ====================

// Me 当前用户资料
// @Summary 当前用户资料
// @Description 返回账号信息及对应角色档案（客户/供应商）
// @Tags Auth (认证)
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "data: 用户信息"
// @Failure 401 {object} map[string]string "未登录"
// @Router /api/auth/me [get]
func (c *AuthController) Me(ctx *gin.Context) {
	info, err := c.svc.GetProfile(ctx.Request.Context(), middleware.GetUserID(ctx))
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, info)
}

// UpdateMe 更新个人资料
// @Summary 更新个人资料
// @Description 更新电话与角色档案字段
// @Tags Auth (认证)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateProfileRequest true "资料字段"
// @Success 200 {object} map[string]interface{} "data: 用户信息"
// @Router /api/auth/me [put]
func (c *AuthController) UpdateMe(ctx *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	info, err := c.svc.UpdateProfile(ctx.Request.Context(), middleware.GetUserID(ctx), &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, info)
}

// ChangePassword 修改密码
// @Summary 修改密码
// @Description 校验旧密码后更新
// @Tags Auth (认证)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ChangePasswordRequest true "密码参数"
// @Success 204 "已更新"
// @Failure 401 {object} map[string]string "旧密码错误"
// @Router /api/auth/me/password [put]
func (c *AuthController) ChangePassword(ctx *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	if err := c.svc.ChangePassword(ctx.Request.Context(), middleware.GetUserID(ctx), &req); err != nil {
		response.Error(ctx, err)
		return
	}

	response.NoContent(ctx)
}
