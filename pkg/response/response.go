package response

import (
	"errors"
	"net/http"

	"buildmart_dev_v1_202608/internal/apperr"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ==================== 成功响应 ====================

// OK 200 {"data": ...}
func OK(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, gin.H{"data": data})
}

// Created 201 {"data": ...}
func Created(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusCreated, gin.H{"data": data})
}

// NoContent 204
func NoContent(ctx *gin.Context) {
	ctx.Status(http.StatusNoContent)
}

// Paged 分页响应
func Paged(ctx *gin.Context, items interface{}, total int64, page, pageSize int) {
	ctx.JSON(http.StatusOK, gin.H{
		"data":      items,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// ==================== 错误响应 ====================

// Error 按错误类型写 {error, message} 响应体
// 非 AppError 的错误一律 500 InternalError，原因只进日志不出网
func Error(ctx *gin.Context, err error) {
	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= http.StatusInternalServerError {
			zap.L().Error("请求处理失败",
				zap.String("path", ctx.FullPath()),
				zap.Error(err))
		}
		ctx.JSON(appErr.Status, gin.H{
			"error":   appErr.Code,
			"message": appErr.Message,
		})
		return
	}

	zap.L().Error("未分类错误",
		zap.String("path", ctx.FullPath()),
		zap.Error(err))
	ctx.JSON(http.StatusInternalServerError, gin.H{
		"error":   apperr.CodeInternal,
		"message": "internal server error",
	})
}

// BadRequest 参数绑定失败的快捷方法
func BadRequest(ctx *gin.Context, msg string) {
	ctx.JSON(http.StatusBadRequest, gin.H{
		"error":   apperr.CodeValidation,
		"message": msg,
	})
}

// AbortUnauthorized 中间件拒绝未认证请求
func AbortUnauthorized(ctx *gin.Context, msg string) {
	ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":   apperr.CodeUnauthorized,
		"message": msg,
	})
}

// AbortForbidden 中间件拒绝越权请求
func AbortForbidden(ctx *gin.Context, msg string) {
	ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"error":   apperr.CodeForbidden,
		"message": msg,
	})
}
