package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"buildmart_dev_v1_202608/internal/api/dto"
	"buildmart_dev_v1_202608/internal/middleware"
	"buildmart_dev_v1_202608/internal/service"
	"buildmart_dev_v1_202608/pkg/response"
)

// AdminController 平台管理控制器
type AdminController struct {
	svc *service.AdminService
}

// NewAdminController 创建平台管理控制器
func NewAdminController(svc *service.AdminService) *AdminController {
	return &AdminController{svc: svc}
}

// ==================== 供应商审核 ====================

// PendingSuppliers 待审供应商队列
// @Summary 待审供应商队列
// @Description 按提交时间先进先出
// @Tags Admin (平台管理)
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码 (默认1)"
// @Param page_size query int false "每页数量 (默认20)"
// @Success 200 {object} map[string]interface{} "data + total + page"
// @Router /api/admin/suppliers/pending [get]
func (c *AdminController) PendingSuppliers(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("page_size", "20"))

	suppliers, total, err := c.svc.ListPendingSuppliers(ctx.Request.Context(), page, pageSize)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.Paged(ctx, suppliers, total, page, pageSize)
}

// ApproveSupplier 审核通过
// @Summary 审核通过供应商
// @Description 过审即可上架商品，同时通知申请人
// @Tags Admin (平台管理)
// @Produce json
// @Security BearerAuth
// @Param id path int true "供应商 ID"
// @Success 200 {object} map[string]interface{} "data: 供应商信息"
// @Failure 409 {object} map[string]string "非待审状态"
// @Router /api/admin/suppliers/{id}/approve [post]
func (c *AdminController) ApproveSupplier(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(ctx, "invalid supplier id")
		return
	}

	info, err := c.svc.ApproveSupplier(ctx.Request.Context(), middleware.GetUserID(ctx), id)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, info)
}

// RejectSupplier 驳回申请
// @Summary 驳回供应商申请
// @Description 驳回必须给原因，申请人可修改资料后重新提交
// @Tags Admin (平台管理)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "供应商 ID"
// @Param request body dto.RejectSupplierRequest true "驳回原因"
// @Success 200 {object} map[string]interface{} "data: 供应商信息"
// @Router /api/admin/suppliers/{id}/reject [post]
func (c *AdminController) RejectSupplier(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(ctx, "invalid supplier id")
		return
	}

	var req dto.RejectSupplierRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	info, err := c.svc.RejectSupplier(ctx.Request.Context(), middleware.GetUserID(ctx), id, &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, info)
}

// ==================== 账号管理 ====================

// Users 用户列表
// @Summary 用户列表
// @Description 支持关键字/角色/状态筛选
// @Tags Admin (平台管理)
// @Produce json
// @Security BearerAuth
// @Param keyword query string false "邮箱或姓名关键字"
// @Param role query string false "角色过滤"
// @Param status query string false "状态过滤"
// @Param page query int false "页码 (默认1)"
// @Param page_size query int false "每页数量 (默认20)"
// @Success 200 {object} map[string]interface{} "data + total + page"
// @Router /api/admin/users [get]
func (c *AdminController) Users(ctx *gin.Context) {
	var req dto.UserListRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	users, total, err := c.svc.ListUsers(ctx.Request.Context(), &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.Paged(ctx, users, total, req.Page, req.PageSize)
}

// UpdateUserStatus 停用/恢复账号
// @Summary 停用或恢复账号
// @Description 停用即踢下线（令牌denylist），管理员不能停用自己
// @Tags Admin (平台管理)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "用户 ID"
// @Param request body dto.UpdateUserStatusRequest true "目标状态与原因"
// @Success 200 {object} map[string]interface{} "data: 用户信息"
// @Router /api/admin/users/{id}/status [patch]
func (c *AdminController) UpdateUserStatus(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(ctx, "invalid user id")
		return
	}

	var req dto.UpdateUserStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	info, err := c.svc.UpdateUserStatus(ctx.Request.Context(), middleware.GetUserID(ctx), id, &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, info)
}

// ==================== 平台报表 ====================

// Stats 平台运营总览
// @Summary 平台运营总览
// @Description 用户/供应商/订单/成交额等核心指标
// @Tags Admin (平台管理)
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "data: 指标"
// @Router /api/admin/stats [get]
func (c *AdminController) Stats(ctx *gin.Context) {
	stats, err := c.svc.PlatformStats(ctx.Request.Context())
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, stats)
}
