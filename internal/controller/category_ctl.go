package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"buildmart_dev_v1_202608/internal/api/dto"
	"buildmart_dev_v1_202608/internal/service"
	"buildmart_dev_v1_202608/pkg/response"
)

// CategoryController 分类控制器
type CategoryController struct {
	svc *service.CategoryService
}

// NewCategoryController 创建分类控制器
func NewCategoryController(svc *service.CategoryService) *CategoryController {
	return &CategoryController{svc: svc}
}

// List 分类树
// @Summary 分类树
// @Description 全量分类，按父子层级组织
// @Tags Category (分类)
// @Produce json
// @Success 200 {object} map[string]interface{} "data: 分类树"
// @Router /api/categories [get]
func (c *CategoryController) List(ctx *gin.Context) {
	tree, err := c.svc.ListCategories(ctx.Request.Context())
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, tree)
}

// Get 分类详情
// @Summary 分类详情
// @Description 路径参数既接受数字 ID 也接受 slug
// @Tags Category (分类)
// @Produce json
// @Param id path string true "分类 ID 或 slug"
// @Success 200 {object} map[string]interface{} "data: 分类信息"
// @Failure 404 {object} map[string]string "分类不存在"
// @Router /api/categories/{id} [get]
func (c *CategoryController) Get(ctx *gin.Context) {
	info, err := c.svc.GetCategory(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, info)
}

// ==================== 管理端维护 ====================

// Create 创建分类
// @Summary 创建分类
// @Description 管理员新建分类，slug 未填时按名称生成
// @Tags Category (分类)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateCategoryRequest true "分类字段"
// @Success 201 {object} map[string]interface{} "data: 分类信息"
// @Failure 409 {object} map[string]string "slug 已存在"
// @Router /api/categories [post]
func (c *CategoryController) Create(ctx *gin.Context) {
	var req dto.CreateCategoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	info, err := c.svc.CreateCategory(ctx.Request.Context(), &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.Created(ctx, info)
}

// Update 更新分类
// @Summary 更新分类
// @Tags Category (分类)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "分类 ID"
// @Param request body dto.UpdateCategoryRequest true "更新字段"
// @Success 200 {object} map[string]interface{} "data: 分类信息"
// @Router /api/categories/{id} [put]
func (c *CategoryController) Update(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(ctx, "invalid category id")
		return
	}

	var req dto.UpdateCategoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	info, err := c.svc.UpdateCategory(ctx.Request.Context(), id, &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, info)
}

// Delete 删除分类
// @Summary 删除分类
// @Description 分类下还有商品或子分类时拒绝删除
// @Tags Category (分类)
// @Produce json
// @Security BearerAuth
// @Param id path int true "分类 ID"
// @Success 204 "已删除"
// @Failure 409 {object} map[string]string "分类仍在使用"
// @Router /api/categories/{id} [delete]
func (c *CategoryController) Delete(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(ctx, "invalid category id")
		return
	}

	if err := c.svc.DeleteCategory(ctx.Request.Context(), id); err != nil {
		response.Error(ctx, err)
		return
	}

	response.NoContent(ctx)
}
