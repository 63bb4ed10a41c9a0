package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"buildmart_dev_v1_202608/internal/api/dto"
	"buildmart_dev_v1_202608/internal/middleware"
	"buildmart_dev_v1_202608/internal/service"
	"buildmart_dev_v1_202608/pkg/response"
)

// SupportController 客服工单控制器
type SupportController struct {
	svc *service.SupportService
}

// NewSupportController 创建客服工单控制器
func NewSupportController(svc *service.SupportService) *SupportController {
	return &SupportController{svc: svc}
}

// CreateTicket 提交工单
// @Summary 提交客服工单
// @Description 正文作为工单首条消息入库
// @Tags Support (客服)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateTicketRequest true "主题/分类/优先级/正文"
// @Success 201 {object} map[string]interface{} "data: 工单详情"
// @Router /api/support/tickets [post]
func (c *SupportController) CreateTicket(ctx *gin.Context) {
	var req dto.CreateTicketRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	detail, err := c.svc.CreateTicket(ctx.Request.Context(), middleware.GetUserID(ctx), &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.Created(ctx, detail)
}

// ListTickets 工单列表
// @Summary 工单列表
// @Description 用户看自己的，管理员看全部队列
// @Tags Support (客服)
// @Produce json
// @Security BearerAuth
// @Param status query string false "状态过滤"
// @Param priority query string false "优先级过滤"
// @Param page query int false "页码 (默认1)"
// @Param page_size query int false "每页数量 (默认20)"
// @Success 200 {object} map[string]interface{} "data + total + page"
// @Router /api/support/tickets [get]
func (c *SupportController) ListTickets(ctx *gin.Context) {
	var req dto.TicketListRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	tickets, total, err := c.svc.ListTickets(ctx.Request.Context(), middleware.GetUserID(ctx), middleware.GetUserRole(ctx), &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.Paged(ctx, tickets, total, req.Page, req.PageSize)
}

// GetTicket 工单详情
// @Summary 工单详情
// @Description 含完整消息线程
// @Tags Support (客服)
// @Produce json
// @Security BearerAuth
// @Param id path int true "工单 ID"
// @Success 200 {object} map[string]interface{} "data: 工单详情"
// @Failure 404 {object} map[string]string "工单不存在或无权查看"
// @Router /api/support/tickets/{id} [get]
func (c *SupportController) GetTicket(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(ctx, "invalid ticket id")
		return
	}

	detail, err := c.svc.GetTicket(ctx.Request.Context(), middleware.GetUserID(ctx), middleware.GetUserRole(ctx), id)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, detail)
}

// AddMessage 回复工单
// @Summary 回复工单
// @Description 客服首次回复自动认领工单，已结单的只能先重开
// @Tags Support (客服)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "工单 ID"
// @Param request body dto.TicketMessageRequest true "回复正文"
// @Success 201 {object} map[string]interface{} "data: 消息"
// @Failure 409 {object} map[string]string "工单已结单"
// @Router /api/support/tickets/{id}/messages [post]
func (c *SupportController) AddMessage(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(ctx, "invalid ticket id")
		return
	}

	var req dto.TicketMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	msg, err := c.svc.AddMessage(ctx.Request.Context(), middleware.GetUserID(ctx), middleware.GetUserRole(ctx), id, &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.Created(ctx, msg)
}

// UpdateStatus 变更工单状态
// @Summary 变更工单状态
// @Description 管理员结单/重开，关单落 closed_at
// @Tags Support (客服)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "工单 ID"
// @Param request body dto.UpdateTicketStatusRequest true "目标状态"
// @Success 200 {object} map[string]interface{} "data: 工单信息"
// @Router /api/support/tickets/{id}/status [patch]
func (c *SupportController) UpdateStatus(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(ctx, "invalid ticket id")
		return
	}

	var req dto.UpdateTicketStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	info, err := c.svc.UpdateTicketStatus(ctx.Request.Context(), middleware.GetUserID(ctx), id, &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, info)
}
