package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"buildmart_dev_v1_202608/internal/api/dto"
	"buildmart_dev_v1_202608/internal/middleware"
	"buildmart_dev_v1_202608/internal/service"
	"buildmart_dev_v1_202608/pkg/response"
)

// CartController 购物车控制器
type CartController struct {
	svc *service.CartService
}

// NewCartController 创建购物车控制器
func NewCartController(svc *service.CartService) *CartController {
	return &CartController{svc: svc}
}

// Get 查看购物车
// @Summary 查看购物车
// @Description 按供应商分组展示，失效行会标注原因
// @Tags Cart (购物车)
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "data: 购物车"
// @Router /api/cart [get]
func (c *CartController) Get(ctx *gin.Context) {
	cart, err := c.svc.GetCart(ctx.Request.Context(), middleware.GetUserID(ctx))
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, cart)
}

// AddItem 加入购物车
// @Summary 加入购物车
// @Description 普通商品或余料二选一，同商品重复加入做数量合并
// @Tags Cart (购物车)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.AddCartItemRequest true "商品/余料与数量"
// @Success 200 {object} map[string]interface{} "data: 购物车"
// @Failure 409 {object} map[string]string "库存不足"
// @Router /api/cart/items [post]
func (c *CartController) AddItem(ctx *gin.Context) {
	var req dto.AddCartItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	cart, err := c.svc.AddItem(ctx.Request.Context(), middleware.GetUserID(ctx), &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, cart)
}

// UpdateItem 修改行数量
// @Summary 修改行数量
// @Tags Cart (购物车)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "购物车行 ID"
// @Param request body dto.UpdateCartItemRequest true "新数量"
// @Success 200 {object} map[string]interface{} "data: 购物车"
// @Router /api/cart/items/{id} [put]
func (c *CartController) UpdateItem(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(ctx, "invalid cart item id")
		return
	}

	var req dto.UpdateCartItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	cart, err := c.svc.UpdateItem(ctx.Request.Context(), middleware.GetUserID(ctx), id, &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, cart)
}

// RemoveItem 移除行
// @Summary 移除行
// @Tags Cart (购物车)
// @Produce json
// @Security BearerAuth
// @Param id path int true "购物车行 ID"
// @Success 200 {object} map[string]interface{} "data: 购物车"
// @Router /api/cart/items/{id} [delete]
func (c *CartController) RemoveItem(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(ctx, "invalid cart item id")
		return
	}

	cart, err := c.svc.RemoveItem(ctx.Request.Context(), middleware.GetUserID(ctx), id)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, cart)
}

// Clear 清空购物车
// @Summary 清空购物车
// @Tags Cart (购物车)
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "data: 空购物车"
// @Router /api/cart [delete]
func (c *CartController) Clear(ctx *gin.Context) {
	cart, err := c.svc.Clear(ctx.Request.Context(), middleware.GetUserID(ctx))
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, cart)
}
