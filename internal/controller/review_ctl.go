package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"buildmart_dev_v1_202608/internal/api/dto"
	"buildmart_dev_v1_202608/internal/middleware"
	"buildmart_dev_v1_202608/internal/service"
	"buildmart_dev_v1_202608/pkg/response"
)

// ReviewController 评价控制器
type ReviewController struct {
	svc *service.ReviewService
}

// NewReviewController 创建评价控制器
func NewReviewController(svc *service.ReviewService) *ReviewController {
	return &ReviewController{svc: svc}
}

// Create 发表评价
// @Summary 发表评价
// @Description 仅已送达订单里的商品可评，同单同品只能评一次
// @Tags Review (评价)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateReviewRequest true "订单/商品/星级/内容"
// @Success 201 {object} map[string]interface{} "data: 评价信息"
// @Failure 409 {object} map[string]string "订单未送达或已评过"
// @Router /api/reviews [post]
func (c *ReviewController) Create(ctx *gin.Context) {
	var req dto.CreateReviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	info, err := c.svc.CreateReview(ctx.Request.Context(), middleware.GetUserID(ctx), &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.Created(ctx, info)
}

// ListByProduct 商品评价列表
// @Summary 商品评价列表
// @Description 带星级分布聚合，支持按星级过滤
// @Tags Review (评价)
// @Produce json
// @Param id path int true "商品 ID"
// @Param rating query int false "星级过滤 (1-5)"
// @Param page query int false "页码 (默认1)"
// @Param page_size query int false "每页数量 (默认20)"
// @Success 200 {object} map[string]interface{} "data: 评价列表 + 聚合"
// @Router /api/reviews/products/{id} [get]
func (c *ReviewController) ListByProduct(ctx *gin.Context) {
	productID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(ctx, "invalid product id")
		return
	}

	var req dto.ReviewListRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	resp, err := c.svc.ListProductReviews(ctx.Request.Context(), productID, &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, resp)
}

// ListSupplier 自家商品收到的评价
// @Summary 自家商品收到的评价
// @Description 供应商视角，用于回复与服务改进
// @Tags Review (评价)
// @Produce json
// @Security BearerAuth
// @Param rating query int false "星级过滤 (1-5)"
// @Param page query int false "页码 (默认1)"
// @Param page_size query int false "每页数量 (默认20)"
// @Success 200 {object} map[string]interface{} "data + total + page"
// @Router /api/reviews/supplier [get]
func (c *ReviewController) ListSupplier(ctx *gin.Context) {
	var req dto.ReviewListRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	reviews, total, err := c.svc.ListSupplierReviews(ctx.Request.Context(), middleware.GetUserID(ctx), &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.Paged(ctx, reviews, total, req.Page, req.PageSize)
}

// Reply 供应商回复评价
// @Summary 供应商回复评价
// @Description 每条评价只能回复一次，回复后通知评价人
// @Tags Review (评价)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "评价 ID"
// @Param request body dto.ReplyReviewRequest true "回复内容"
// @Success 200 {object} map[string]interface{} "data: 评价信息"
// @Failure 409 {object} map[string]string "已回复过"
// @Router /api/reviews/{id}/reply [post]
func (c *ReviewController) Reply(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(ctx, "invalid review id")
		return
	}

	var req dto.ReplyReviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	info, err := c.svc.ReplyReview(ctx.Request.Context(), middleware.GetUserID(ctx), id, &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, info)
}
