package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"buildmart_dev_v1_202608/internal/api/dto"
	"buildmart_dev_v1_202608/internal/middleware"
	"buildmart_dev_v1_202608/internal/service"
	"buildmart_dev_v1_202608/pkg/response"
)

// PromotionController 促销控制器
type PromotionController struct {
	svc *service.PromotionService
}

// NewPromotionController 创建促销控制器
func NewPromotionController(svc *service.PromotionService) *PromotionController {
	return &PromotionController{svc: svc}
}

// Create 创建促销
// @Summary 创建促销
// @Description 平台促销由管理员建，供应商促销只作用于自家商品
// @Tags Promotion (促销)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreatePromotionRequest true "促销字段"
// @Success 201 {object} map[string]interface{} "data: 促销信息"
// @Failure 409 {object} map[string]string "促销码已存在"
// @Router /api/promotions [post]
func (c *PromotionController) Create(ctx *gin.Context) {
	var req dto.CreatePromotionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	info, err := c.svc.CreatePromotion(ctx.Request.Context(), middleware.GetUserID(ctx), middleware.GetUserRole(ctx), &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.Created(ctx, info)
}

// List 促销列表
// @Summary 促销列表
// @Description 供应商看自家的，管理员看全部
// @Tags Promotion (促销)
// @Produce json
// @Security BearerAuth
// @Param status query string false "状态过滤 (active|paused|expired)"
// @Param page query int false "页码 (默认1)"
// @Param page_size query int false "每页数量 (默认20)"
// @Success 200 {object} map[string]interface{} "data + total + page"
// @Router /api/promotions [get]
func (c *PromotionController) List(ctx *gin.Context) {
	var req dto.PromotionListRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	promos, total, err := c.svc.ListPromotions(ctx.Request.Context(), middleware.GetUserID(ctx), middleware.GetUserRole(ctx), &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.Paged(ctx, promos, total, req.Page, req.PageSize)
}

// Update 更新促销
// @Summary 更新促销
// @Description 可暂停/恢复/改期/调名额，折扣面额建错了只能停了重建
// @Tags Promotion (促销)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "促销 ID"
// @Param request body dto.UpdatePromotionRequest true "更新字段"
// @Success 200 {object} map[string]interface{} "data: 促销信息"
// @Router /api/promotions/{id} [patch]
func (c *PromotionController) Update(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(ctx, "invalid promotion id")
		return
	}

	var req dto.UpdatePromotionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	info, err := c.svc.UpdatePromotion(ctx.Request.Context(), middleware.GetUserID(ctx), middleware.GetUserRole(ctx), id, &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, info)
}

// Validate 试算促销码
// @Summary 试算促销码
// @Description 结算页预检：按当前购物车试算折扣，不占用名额
// @Tags Promotion (促销)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ValidatePromotionRequest true "促销码"
// @Success 200 {object} map[string]interface{} "data: 是否可用与试算折扣"
// @Router /api/promotions/validate [post]
func (c *PromotionController) Validate(ctx *gin.Context) {
	var req dto.ValidatePromotionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.svc.ValidateCode(ctx.Request.Context(), middleware.GetUserID(ctx), &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, result)
}
