package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"buildmart_dev_v1_202608/internal/api/dto"
	"buildmart_dev_v1_202608/internal/middleware"
	"buildmart_dev_v1_202608/internal/service"
	"buildmart_dev_v1_202608/pkg/response"
)

// ChatController 洽谈控制器
type ChatController struct {
	svc *service.ChatService
}

// NewChatController 创建洽谈控制器
func NewChatController(svc *service.ChatService) *ChatController {
	return &ChatController{svc: svc}
}

// OpenConversation 发起洽谈
// @Summary 发起洽谈
// @Description 客户对供应商发起，已存在同订单会话时直接复用
// @Tags Chat (洽谈)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.OpenConversationRequest true "供应商与可选订单"
// @Success 201 {object} map[string]interface{} "data: 会话信息"
// @Router /api/chat/conversations [post]
func (c *ChatController) OpenConversation(ctx *gin.Context) {
	var req dto.OpenConversationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	conv, err := c.svc.OpenConversation(ctx.Request.Context(), middleware.GetUserID(ctx), &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.Created(ctx, conv)
}

// ListConversations 会话列表
// @Summary 会话列表
// @Description 按最近消息时间倒序，附未读数与对方名称
// @Tags Chat (洽谈)
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码 (默认1)"
// @Param page_size query int false "每页数量 (默认20)"
// @Success 200 {object} map[string]interface{} "data + total + page"
// @Router /api/chat/conversations [get]
func (c *ChatController) ListConversations(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("page_size", "20"))

	convs, total, err := c.svc.ListConversations(ctx.Request.Context(), middleware.GetUserID(ctx), middleware.GetUserRole(ctx), page, pageSize)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.Paged(ctx, convs, total, page, pageSize)
}

// ListMessages 会话消息
// @Summary 会话消息
// @Description 拉取即把对方消息标记已读
// @Tags Chat (洽谈)
// @Produce json
// @Security BearerAuth
// @Param id path int true "会话 ID"
// @Param page query int false "页码 (默认1)"
// @Param page_size query int false "每页数量 (默认50)"
// @Success 200 {object} map[string]interface{} "data + total + page"
// @Failure 403 {object} map[string]string "非会话参与方"
// @Router /api/chat/conversations/{id}/messages [get]
func (c *ChatController) ListMessages(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(ctx, "invalid conversation id")
		return
	}

	var req dto.MessageListRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	messages, total, err := c.svc.ListMessages(ctx.Request.Context(), middleware.GetUserID(ctx), middleware.GetUserRole(ctx), id, &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.Paged(ctx, messages, total, req.Page, req.PageSize)
}

// SendMessage 发送消息
// @Summary 发送消息
// @Description 入库后实时推给对方，并落一条离线通知
// @Tags Chat (洽谈)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "会话 ID"
// @Param request body dto.SendMessageRequest true "消息内容与附件"
// @Success 201 {object} map[string]interface{} "data: 消息"
// @Failure 403 {object} map[string]string "非会话参与方"
// @Router /api/chat/conversations/{id}/messages [post]
func (c *ChatController) SendMessage(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(ctx, "invalid conversation id")
		return
	}

	var req dto.SendMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	msg, err := c.svc.SendMessage(ctx.Request.Context(), middleware.GetUserID(ctx), middleware.GetUserRole(ctx), id, &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.Created(ctx, msg)
}
