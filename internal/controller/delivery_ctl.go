package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"buildmart_dev_v1_202608/internal/api/dto"
	"buildmart_dev_v1_202608/internal/middleware"
	"buildmart_dev_v1_202608/internal/service"
	"buildmart_dev_v1_202608/pkg/response"
)

// DeliveryController 配送控制器
type DeliveryController struct {
	svc *service.DeliveryService
}

// NewDeliveryController 创建配送控制器
func NewDeliveryController(svc *service.DeliveryService) *DeliveryController {
	return &DeliveryController{svc: svc}
}

// List 配送批次列表
// @Summary 配送批次列表
// @Description 客户看自己订单的批次，供应商看自家承运的批次
// @Tags Delivery (配送)
// @Produce json
// @Security BearerAuth
// @Param status query string false "状态过滤"
// @Param order_id query int false "订单 ID"
// @Param page query int false "页码 (默认1)"
// @Param page_size query int false "每页数量 (默认20)"
// @Success 200 {object} map[string]interface{} "data + total + page"
// @Router /api/deliveries [get]
func (c *DeliveryController) List(ctx *gin.Context) {
	var req dto.DeliveryListRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	deliveries, total, err := c.svc.ListDeliveries(ctx.Request.Context(), middleware.GetUserID(ctx), middleware.GetUserRole(ctx), &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.Paged(ctx, deliveries, total, req.Page, req.PageSize)
}

// Get 配送批次详情
// @Summary 配送批次详情
// @Tags Delivery (配送)
// @Produce json
// @Security BearerAuth
// @Param id path int true "配送批次 ID"
// @Success 200 {object} map[string]interface{} "data: 配送批次"
// @Failure 404 {object} map[string]string "批次不存在或无权查看"
// @Router /api/deliveries/{id} [get]
func (c *DeliveryController) Get(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(ctx, "invalid delivery id")
		return
	}

	info, err := c.svc.GetDelivery(ctx.Request.Context(), middleware.GetUserID(ctx), middleware.GetUserRole(ctx), id)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, info)
}

// UpdateWindow 排期配送窗口
// @Summary 排期配送窗口
// @Description 承运供应商设置送达时间窗，窗口起点不得早于当前时间
// @Tags Delivery (配送)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "配送批次 ID"
// @Param request body dto.UpdateDeliveryWindowRequest true "时间窗"
// @Success 200 {object} map[string]interface{} "data: 配送批次"
// @Failure 409 {object} map[string]string "批次已出发，窗口不可再改"
// @Router /api/deliveries/{id}/window [patch]
func (c *DeliveryController) UpdateWindow(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(ctx, "invalid delivery id")
		return
	}

	var req dto.UpdateDeliveryWindowRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	info, err := c.svc.UpdateWindow(ctx.Request.Context(), middleware.GetUserID(ctx), id, &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, info)
}

// UpdateStatus 推进配送状态
// @Summary 推进配送状态
// @Description 批次送达/失败会联动回写订单状态
// @Tags Delivery (配送)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "配送批次 ID"
// @Param request body dto.UpdateDeliveryStatusRequest true "目标状态"
// @Success 200 {object} map[string]interface{} "data: 配送批次"
// @Failure 409 {object} map[string]string "非法状态流转"
// @Router /api/deliveries/{id}/status [patch]
func (c *DeliveryController) UpdateStatus(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(ctx, "invalid delivery id")
		return
	}

	var req dto.UpdateDeliveryStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	info, err := c.svc.AdvanceStatus(ctx.Request.Context(), middleware.GetUserID(ctx), middleware.GetUserRole(ctx), id, &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, info)
}
