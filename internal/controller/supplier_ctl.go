package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"buildmart_dev_v1_202608/internal/api/dto"
	"buildmart_dev_v1_202608/internal/middleware"
	"buildmart_dev_v1_202608/internal/service"
	"buildmart_dev_v1_202608/pkg/response"
)

// SupplierController 供应商控制器
type SupplierController struct {
	svc *service.SupplierService
}

// NewSupplierController 创建供应商控制器
func NewSupplierController(svc *service.SupplierService) *SupplierController {
	return &SupplierController{svc: svc}
}

// ==================== 公开目录 ====================

// List 供应商目录
// @Summary 供应商目录
// @Description 只展示审核通过的供应商，支持关键字/服务区域/主营品类筛选
// @Tags Supplier (供应商)
// @Produce json
// @Param keyword query string false "关键字"
// @Param area query string false "服务区域"
// @Param category query string false "主营品类"
// @Param page query int false "页码 (默认1)"
// @Param page_size query int false "每页数量 (默认20)"
// @Success 200 {object} map[string]interface{} "data + total + page"
// @Router /api/suppliers [get]
func (c *SupplierController) List(ctx *gin.Context) {
	var req dto.SupplierListRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	suppliers, total, err := c.svc.ListSuppliers(ctx.Request.Context(), &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.Paged(ctx, suppliers, total, req.Page, req.PageSize)
}

// Get 供应商公开信息
// @Summary 供应商公开信息
// @Tags Supplier (供应商)
// @Produce json
// @Param id path int true "供应商 ID"
// @Success 200 {object} map[string]interface{} "data: 供应商信息"
// @Failure 404 {object} map[string]string "供应商不存在"
// @Router /api/suppliers/{id} [get]
func (c *SupplierController) Get(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(ctx, "invalid supplier id")
		return
	}

	info, err := c.svc.GetSupplier(ctx.Request.Context(), id)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, info)
}

// ==================== 本人档案 ====================

// Me 自家档案
// @Summary 自家档案
// @Description 供应商本人视角，含资质与审核记录
// @Tags Supplier (供应商)
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "data: 供应商档案"
// @Router /api/suppliers/me [get]
func (c *SupplierController) Me(ctx *gin.Context) {
	profile, err := c.svc.GetOwnProfile(ctx.Request.Context(), middleware.GetUserID(ctx))
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, profile)
}

// UpdateMe 更新自家档案
// @Summary 更新自家档案
// @Description 资质字段变更会把档案打回待审
// @Tags Supplier (供应商)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateSupplierRequest true "更新字段"
// @Success 200 {object} map[string]interface{} "data: 供应商档案"
// @Router /api/suppliers/me [put]
func (c *SupplierController) UpdateMe(ctx *gin.Context) {
	var req dto.UpdateSupplierRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	profile, err := c.svc.UpdateProfile(ctx.Request.Context(), middleware.GetUserID(ctx), &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, profile)
}

// Dashboard 经营看板
// @Summary 经营看板
// @Description 在售商品数、待处理订单、近30天销售额、低库存与评分概览
// @Tags Supplier (供应商)
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "data: 看板指标"
// @Router /api/suppliers/me/dashboard [get]
func (c *SupplierController) Dashboard(ctx *gin.Context) {
	board, err := c.svc.Dashboard(ctx.Request.Context(), middleware.GetUserID(ctx))
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, board)
}
