package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"buildmart_dev_v1_202608/internal/api/dto"
	"buildmart_dev_v1_202608/internal/middleware"
	"buildmart_dev_v1_202608/internal/service"
	"buildmart_dev_v1_202608/pkg/response"
)

// OrderController 订单控制器
type OrderController struct {
	svc *service.OrderService
}

// NewOrderController 创建订单控制器
func NewOrderController(svc *service.OrderService) *OrderController {
	return &OrderController{svc: svc}
}

// Place 购物车结算下单
// @Summary 购物车结算下单
// @Description 单事务完成校验/锁库存/算价/扣款/拆配送，任一环节失败整单回滚
// @Tags Order (订单)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.PlaceOrderRequest true "收货地址与支付方式"
// @Success 201 {object} map[string]interface{} "data: 订单详情"
// @Failure 409 {object} map[string]string "库存不足/购物车为空/促销不可用"
// @Failure 402 {object} map[string]string "扣款失败"
// @Router /api/orders [post]
func (c *OrderController) Place(ctx *gin.Context) {
	var req dto.PlaceOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	detail, err := c.svc.PlaceOrder(ctx.Request.Context(), middleware.GetUserID(ctx), &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	middleware.OrderPlacedInc()
	response.Created(ctx, detail)
}

// List 订单列表
// @Summary 订单列表
// @Description 客户看自己的单，供应商看含自家商品的单，管理员看全部
// @Tags Order (订单)
// @Produce json
// @Security BearerAuth
// @Param status query string false "状态过滤"
// @Param page query int false "页码 (默认1)"
// @Param page_size query int false "每页数量 (默认20)"
// @Success 200 {object} map[string]interface{} "data + total + page"
// @Router /api/orders [get]
func (c *OrderController) List(ctx *gin.Context) {
	var req dto.OrderListRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	orders, total, err := c.svc.ListOrders(ctx.Request.Context(), middleware.GetUserID(ctx), middleware.GetUserRole(ctx), &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.Paged(ctx, orders, total, req.Page, req.PageSize)
}

// Get 订单详情
// @Summary 订单详情
// @Description 含订单项快照、配送批次与支付记录
// @Tags Order (订单)
// @Produce json
// @Security BearerAuth
// @Param id path int true "订单 ID"
// @Success 200 {object} map[string]interface{} "data: 订单详情"
// @Failure 404 {object} map[string]string "订单不存在或无权查看"
// @Router /api/orders/{id} [get]
func (c *OrderController) Get(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(ctx, "invalid order id")
		return
	}

	detail, err := c.svc.GetOrder(ctx.Request.Context(), middleware.GetUserID(ctx), middleware.GetUserRole(ctx), id)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, detail)
}

// Cancel 取消订单
// @Summary 取消订单
// @Description 仅待确认/已确认可取消，取消即回补库存并退款
// @Tags Order (订单)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "订单 ID"
// @Param request body dto.CancelOrderRequest false "取消原因"
// @Success 200 {object} map[string]interface{} "data: 订单详情"
// @Failure 409 {object} map[string]string "当前状态不可取消"
// @Router /api/orders/{id}/cancel [post]
func (c *OrderController) Cancel(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(ctx, "invalid order id")
		return
	}

	// 取消原因可不填
	var req dto.CancelOrderRequest
	_ = ctx.ShouldBindJSON(&req)

	detail, err := c.svc.CancelOrder(ctx.Request.Context(), middleware.GetUserID(ctx), middleware.GetUserRole(ctx), id, &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, detail)
}

// UpdateStatus 推进订单状态
// @Summary 推进订单状态
// @Description 供应商确认/发货，管理员可任意合法流转
// @Tags Order (订单)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "订单 ID"
// @Param request body dto.UpdateOrderStatusRequest true "目标状态"
// @Success 200 {object} map[string]interface{} "data: 订单详情"
// @Failure 409 {object} map[string]string "非法状态流转"
// @Router /api/orders/{id}/status [patch]
func (c *OrderController) UpdateStatus(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(ctx, "invalid order id")
		return
	}

	var req dto.UpdateOrderStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	detail, err := c.svc.AdvanceStatus(ctx.Request.Context(), middleware.GetUserID(ctx), middleware.GetUserRole(ctx), id, &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, detail)
}
