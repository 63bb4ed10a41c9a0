package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"buildmart_dev_v1_202608/internal/api/dto"
	"buildmart_dev_v1_202608/internal/middleware"
	"buildmart_dev_v1_202608/internal/service"
	"buildmart_dev_v1_202608/pkg/response"
)

// NotificationController 通知控制器
type NotificationController struct {
	svc *service.NotificationService
}

// NewNotificationController 创建通知控制器
func NewNotificationController(svc *service.NotificationService) *NotificationController {
	return &NotificationController{svc: svc}
}

// List 通知列表
// @Summary 通知列表
// @Description 本人通知，倒序分页，支持只看未读与类型过滤
// @Tags Notification (通知)
// @Produce json
// @Security BearerAuth
// @Param unread_only query bool false "只看未读"
// @Param type query string false "类型过滤"
// @Param page query int false "页码 (默认1)"
// @Param page_size query int false "每页数量 (默认20)"
// @Success 200 {object} map[string]interface{} "data + total + page"
// @Router /api/notifications [get]
func (c *NotificationController) List(ctx *gin.Context) {
	var req dto.NotificationListRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		response.BadRequest(ctx, err.Error())
		return
	}

	items, total, err := c.svc.List(ctx.Request.Context(), middleware.GetUserID(ctx), &req)
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.Paged(ctx, items, total, req.Page, req.PageSize)
}

// UnreadCount 未读数
// @Summary 未读数
// @Description 角标轮询用
// @Tags Notification (通知)
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "data: {count}"
// @Router /api/notifications/unread-count [get]
func (c *NotificationController) UnreadCount(ctx *gin.Context) {
	count, err := c.svc.UnreadCount(ctx.Request.Context(), middleware.GetUserID(ctx))
	if err != nil {
		response.Error(ctx, err)
		return
	}

	response.OK(ctx, dto.UnreadCountResponse{Count: count})
}

// MarkRead 标记单条已读
// @Summary 标记单条已读
// @Tags Notification (通知)
// @Produce json
// @Security BearerAuth
// @Param id path int true "通知 ID"
// @Success 204 "已标记"
// @Failure 404 {object} map[string]string "通知不存在或不属于本人"
// @Router /api/notifications/{id}/read [patch]
func (c *NotificationController) MarkRead(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(ctx, "invalid notification id")
		return
	}

	if err := c.svc.MarkRead(ctx.Request.Context(), middleware.GetUserID(ctx), id); err != nil {
		response.Error(ctx, err)
		return
	}

	response.NoContent(ctx)
}

// MarkAllRead 全部标记已读
// @Summary 全部标记已读
// @Tags Notification (通知)
// @Produce json
// @Security BearerAuth
// @Success 204 "已标记"
// @Router /api/notifications/read-all [patch]
func (c *NotificationController) MarkAllRead(ctx *gin.Context) {
	if err := c.svc.MarkAllRead(ctx.Request.Context(), middleware.GetUserID(ctx)); err != nil {
		response.Error(ctx, err)
		return
	}

	response.NoContent(ctx)
}
