package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"buildmart_dev_v1_202608/internal/api/dto"
	"buildmart_dev_v1_202608/internal/middleware"
	"buildmart_dev_v1_202608/internal/service"
	"buildmart_dev_v1_202608/pkg/response"
)

// ProductController 商品控制器
type ProductController struct {
	svc *service.ProductService
}

// NewProductController 创建商品控制器
func NewProductController(svc *service.ProductService) *ProductController {
	return &ProductController{svc: svc}
}

// ==================== 公开检索 ====================

// List 商品检索
// @Summary 商品检索
// @Description 关键字/分类/供应商/价格区间/库存筛选，支持排序与分页
// @Tags Product (商品)
// @Produce json
// @Param keyword query string false "关键字"
// @Param category_id query int false "分类 ID"
// @Param supplier_id query int false "供应商 ID"
// @Param min_price_cents query int false "最低价（分）"
// @Param max_price_cents query int false "最高价（分）"
// @Param in_stock_only query bool false "仅看有货"
// @Param sort_by query string false "排序 (price_asc|price_desc|rating|newest|sold)"
// @Param page query int false "页码 (默认1)"
// @Param page_size query int false "每页数量 (默认20)"
// @Success 200 {object} map[string]interface{} "data + total + page"
// @Router /api/products [get]
func (c *ProductController) List(ctx *gin.Context) {
	var req dto.ProductListRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	products, total, err := c.svc.ListProducts(ctx.Request.Context(), &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.Paged(ctx, products, total, req.Page, req.PageSize)
}

// Get 商品详情
// @Summary 商品详情
// @Description 含供应商摘要与评分聚合
// @Tags Product (商品)
// @Produce json
// @Param id path int true "商品 ID"
// @Success 200 {object} map[string]interface{} "data: 商品详情"
// @Failure 404 {object} map[string]string "商品不存在"
// @Router /api/products/{id} [get]
func (c *ProductController) Get(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(ctx, "invalid product id")
		return
	}

	detail, err := c.svc.GetProduct(ctx.Request.Context(), id)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, detail)
}

// ==================== 供应商商品管理 ====================

// ListMine 自家商品列表
// @Summary 自家商品列表
// @Description 供应商查看自家商品，含未上架与缺货
// @Tags Product (商品)
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码 (默认1)"
// @Param page_size query int false "每页数量 (默认20)"
// @Success 200 {object} map[string]interface{} "data + total + page"
// @Router /api/products/mine [get]
func (c *ProductController) ListMine(ctx *gin.Context) {
	var req dto.ProductListRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	products, total, err := c.svc.ListOwnProducts(ctx.Request.Context(), middleware.GetUserID(ctx), &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.Paged(ctx, products, total, req.Page, req.PageSize)
}

// Create 创建商品
// @Summary 创建商品
// @Description 审核通过的供应商上架商品
// @Tags Product (商品)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateProductRequest true "商品字段"
// @Success 201 {object} map[string]interface{} "data: 商品信息"
// @Failure 403 {object} map[string]string "供应商未过审"
// @Router /api/products [post]
func (c *ProductController) Create(ctx *gin.Context) {
	var req dto.CreateProductRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	info, err := c.svc.CreateProduct(ctx.Request.Context(), middleware.GetUserID(ctx), &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.Created(ctx, info)
}

// Update 更新商品
// @Summary 更新商品
// @Description 仅商品归属供应商可改
// @Tags Product (商品)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "商品 ID"
// @Param request body dto.UpdateProductRequest true "更新字段"
// @Success 200 {object} map[string]interface{} "data: 商品信息"
// @Failure 403 {object} map[string]string "非商品归属人"
// @Router /api/products/{id} [put]
func (c *ProductController) Update(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(ctx, "invalid product id")
		return
	}

	var req dto.UpdateProductRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	info, err := c.svc.UpdateProduct(ctx.Request.Context(), middleware.GetUserID(ctx), id, &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, info)
}

// Delete 下架删除商品
// @Summary 删除商品
// @Description 软删除，历史订单里的快照不受影响
// @Tags Product (商品)
// @Produce json
// @Security BearerAuth
// @Param id path int true "商品 ID"
// @Success 204 "已删除"
// @Router /api/products/{id} [delete]
func (c *ProductController) Delete(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(ctx, "invalid product id")
		return
	}

	if err := c.svc.DeleteProduct(ctx.Request.Context(), middleware.GetUserID(ctx), id); err != nil {
		response.Error(ctx, err)
		return
	}

	response.NoContent(ctx)
}

// ==================== 库存 ====================

// AdjustStock 调整库存
// @Summary 调整库存
// @Description 增量或绝对值二选一，不允许调到负数
// @Tags Product (商品)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "商品 ID"
// @Param request body dto.AdjustStockRequest true "调整参数"
// @Success 200 {object} map[string]interface{} "data: 商品信息"
// @Failure 409 {object} map[string]string "库存不足"
// @Router /api/products/{id}/stock [patch]
func (c *ProductController) AdjustStock(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(ctx, "invalid product id")
		return
	}

	var req dto.AdjustStockRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	info, err := c.svc.AdjustStock(ctx.Request.Context(), middleware.GetUserID(ctx), id, &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, info)
}

// LowStock 低库存预警列表
// @Summary 低库存预警列表
// @Description 库存低于各商品预警线的自家商品
// @Tags Product (商品)
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "data: 商品列表"
// @Router /api/products/low-stock [get]
func (c *ProductController) LowStock(ctx *gin.Context) {
	products, err := c.svc.ListLowStock(ctx.Request.Context(), middleware.GetUserID(ctx))
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, products)
}

// ==================== 图片上传 ====================

// UploadImage 上传商品图
// @Summary 上传商品图
// @Description Base64 内容或图片 URL 二选一，存入对象存储并返回 URL，由商品创建/更新接口引用
// @Tags Product (商品)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UploadImageRequest true "图片内容"
// @Success 200 {object} map[string]interface{} "data: 图片 URL"
// @Failure 400 {object} map[string]string "图片格式不支持或超限"
// @Router /api/products/images [post]
func (c *ProductController) UploadImage(ctx *gin.Context) {
	var req dto.UploadImageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	resp, err := c.svc.UploadImage(ctx.Request.Context(), middleware.GetUserID(ctx), &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, resp)
}
