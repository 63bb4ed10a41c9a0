package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"buildmart_dev_v1_202608/internal/api/dto"
	"buildmart_dev_v1_202608/internal/middleware"
	"buildmart_dev_v1_202608/internal/service"
	"buildmart_dev_v1_202608/pkg/response"
)

// SurplusController 尾货控制器
type SurplusController struct {
	svc *service.SurplusService
}

// NewSurplusController 创建尾货控制器
func NewSurplusController(svc *service.SurplusService) *SurplusController {
	return &SurplusController{svc: svc}
}

// ListPublic 尾货市场
// @Summary 尾货市场
// @Description 只展示在售且未过期的挂牌，支持供应商/成色/价格上限过滤
// @Tags Surplus (尾货)
// @Produce json
// @Param supplier_id query int false "供应商 ID"
// @Param condition query string false "成色 (new|open_box|slightly_damaged)"
// @Param max_price_cents query int false "价格上限（分）"
// @Param page query int false "页码 (默认1)"
// @Param page_size query int false "每页数量 (默认20)"
// @Success 200 {object} map[string]interface{} "data + total + page"
// @Router /api/surplus [get]
func (c *SurplusController) ListPublic(ctx *gin.Context) {
	var req dto.SurplusListRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	listings, total, err := c.svc.ListPublic(ctx.Request.Context(), &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.Paged(ctx, listings, total, req.Page, req.PageSize)
}

// ListMine 自家挂牌
// @Summary 自家尾货挂牌
// @Description 供应商视角，含已下架与已售罄
// @Tags Surplus (尾货)
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码 (默认1)"
// @Param page_size query int false "每页数量 (默认20)"
// @Success 200 {object} map[string]interface{} "data + total + page"
// @Router /api/surplus/mine [get]
func (c *SurplusController) ListMine(ctx *gin.Context) {
	var req dto.SurplusListRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	listings, total, err := c.svc.ListOwn(ctx.Request.Context(), middleware.GetUserID(ctx), &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.Paged(ctx, listings, total, req.Page, req.PageSize)
}

// Get 挂牌详情
// @Summary 尾货挂牌详情
// @Tags Surplus (尾货)
// @Produce json
// @Param id path int true "挂牌 ID"
// @Success 200 {object} map[string]interface{} "data: 挂牌信息"
// @Failure 404 {object} map[string]string "挂牌不存在"
// @Router /api/surplus/{id} [get]
func (c *SurplusController) Get(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(ctx, "invalid listing id")
		return
	}

	info, err := c.svc.GetListing(ctx.Request.Context(), id)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, info)
}

// Create 挂牌尾货
// @Summary 挂牌尾货
// @Description 折价必须低于原价，可设过期时间
// @Tags Surplus (尾货)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateSurplusRequest true "尾货字段"
// @Success 201 {object} map[string]interface{} "data: 挂牌信息"
// @Router /api/surplus [post]
func (c *SurplusController) Create(ctx *gin.Context) {
	var req dto.CreateSurplusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	info, err := c.svc.CreateListing(ctx.Request.Context(), middleware.GetUserID(ctx), &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.Created(ctx, info)
}

// Update 更新挂牌
// @Summary 更新尾货挂牌
// @Description 仅挂牌归属供应商可改，已售罄挂牌补量会自动回到在售
// @Tags Surplus (尾货)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "挂牌 ID"
// @Param request body dto.UpdateSurplusRequest true "更新字段"
// @Success 200 {object} map[string]interface{} "data: 挂牌信息"
// @Router /api/surplus/{id} [put]
func (c *SurplusController) Update(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(ctx, "invalid listing id")
		return
	}

	var req dto.UpdateSurplusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	info, err := c.svc.UpdateListing(ctx.Request.Context(), middleware.GetUserID(ctx), id, &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, info)
}

// Withdraw 下架挂牌
// @Summary 下架尾货挂牌
// @Description 购物车里已有的行在结算时会按不可购拦下
// @Tags Surplus (尾货)
// @Produce json
// @Security BearerAuth
// @Param id path int true "挂牌 ID"
// @Success 204 "已下架"
// @Router /api/surplus/{id} [delete]
func (c *SurplusController) Withdraw(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(ctx, "invalid listing id")
		return
	}

	if err := c.svc.WithdrawListing(ctx.Request.Context(), middleware.GetUserID(ctx), id); err != nil {
		response.Error(ctx, err)
		return
	}

	response.NoContent(ctx)
}
