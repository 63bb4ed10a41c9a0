package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"buildmart_dev_v1_202608/internal/api/dto"
	"buildmart_dev_v1_202608/internal/middleware"
	"buildmart_dev_v1_202608/internal/service"
	"buildmart_dev_v1_202608/pkg/response"
)

// IssueController 交付纠纷控制器
type IssueController struct {
	svc *service.IssueService
}

// NewIssueController 创建交付纠纷控制器
func NewIssueController(svc *service.IssueService) *IssueController {
	return &IssueController{svc: svc}
}

// Create 提报纠纷
// @Summary 提报交付纠纷
// @Description 针对自己订单的配送批次提报破损/缺件/错发等问题
// @Tags Issue (纠纷)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateIssueRequest true "批次/类型/描述/照片"
// @Success 201 {object} map[string]interface{} "data: 纠纷信息"
// @Failure 409 {object} map[string]string "批次尚未出库，无从提报"
// @Router /api/issues [post]
func (c *IssueController) Create(ctx *gin.Context) {
	var req dto.CreateIssueRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	info, err := c.svc.CreateIssue(ctx.Request.Context(), middleware.GetUserID(ctx), &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.Created(ctx, info)
}

// List 纠纷列表
// @Summary 纠纷列表
// @Description 客户看自己提的，供应商看自家批次被提的，管理员看全部
// @Tags Issue (纠纷)
// @Produce json
// @Security BearerAuth
// @Param status query string false "状态过滤"
// @Param type query string false "类型过滤"
// @Param page query int false "页码 (默认1)"
// @Param page_size query int false "每页数量 (默认20)"
// @Success 200 {object} map[string]interface{} "data + total + page"
// @Router /api/issues [get]
func (c *IssueController) List(ctx *gin.Context) {
	var req dto.IssueListRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	issues, total, err := c.svc.ListIssues(ctx.Request.Context(), middleware.GetUserID(ctx), middleware.GetUserRole(ctx), &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.Paged(ctx, issues, total, req.Page, req.PageSize)
}

// Get 纠纷详情
// @Summary 纠纷详情
// @Tags Issue (纠纷)
// @Produce json
// @Security BearerAuth
// @Param id path int true "纠纷 ID"
// @Success 200 {object} map[string]interface{} "data: 纠纷信息"
// @Failure 404 {object} map[string]string "纠纷不存在或无权查看"
// @Router /api/issues/{id} [get]
func (c *IssueController) Get(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(ctx, "invalid issue id")
		return
	}

	info, err := c.svc.GetIssue(ctx.Request.Context(), middleware.GetUserID(ctx), middleware.GetUserRole(ctx), id)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, info)
}

// Resolve 裁决纠纷
// @Summary 裁决纠纷
// @Description 管理员结案，可附部分退款，双方都会收到通知
// @Tags Issue (纠纷)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "纠纷 ID"
// @Param request body dto.ResolveIssueRequest true "裁决结论与退款金额"
// @Success 200 {object} map[string]interface{} "data: 纠纷信息"
// @Failure 409 {object} map[string]string "纠纷已结案"
// @Router /api/admin/issues/{id}/resolve [post]
func (c *IssueController) Resolve(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(ctx, "invalid issue id")
		return
	}

	var req dto.ResolveIssueRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	info, err := c.svc.ResolveIssue(ctx.Request.Context(), middleware.GetUserID(ctx), id, &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, info)
}
