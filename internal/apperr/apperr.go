package apperr

import "net/http"

// ==================== 错误码定义 ====================

// 客户端可读错误码，随 {error, message} 响应体返回
const (
	CodeValidation        = "ValidationError"
	CodeDuplicateEmail    = "DuplicateEmailError"
	CodeInsufficientStock = "InsufficientStockError"
	CodeUnauthorized      = "UnauthorizedError"
	CodeForbidden         = "ForbiddenError"
	CodeNotFound          = "NotFoundError"
	CodeConflict          = "ConflictError"
	CodePaymentFailed     = "PaymentFailedError"
	CodeSuspended         = "SuspendedError"
	CodeInternal          = "InternalError"
)

// AppError 携带错误码与 HTTP 状态码的业务错误
// 各 service 以包级 var 定义具体实例，控制器用 errors.As 提取后写响应
type AppError struct {
	Code    string // 错误码
	Status  int    // HTTP 状态码
	Message string // 客户端提示
	cause   error  // 底层错误，仅日志使用
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// WithCause 复制错误并附加底层原因，错误码与提示保持不变
func (e *AppError) WithCause(err error) *AppError {
	return &AppError{Code: e.Code, Status: e.Status, Message: e.Message, cause: err}
}

// Is 让包装副本仍可与原始实例用 errors.Is 匹配
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// ==================== 构造函数 ====================

func New(code string, status int, message string) *AppError {
	return &AppError{Code: code, Status: status, Message: message}
}

func Validation(msg string) *AppError {
	return New(CodeValidation, http.StatusBadRequest, msg)
}

func DuplicateEmail(msg string) *AppError {
	return New(CodeDuplicateEmail, http.StatusConflict, msg)
}

func InsufficientStock(msg string) *AppError {
	return New(CodeInsufficientStock, http.StatusConflict, msg)
}

func Unauthorized(msg string) *AppError {
	return New(CodeUnauthorized, http.StatusUnauthorized, msg)
}

func Forbidden(msg string) *AppError {
	return New(CodeForbidden, http.StatusForbidden, msg)
}

func NotFound(msg string) *AppError {
	return New(CodeNotFound, http.StatusNotFound, msg)
}

func Conflict(msg string) *AppError {
	return New(CodeConflict, http.StatusConflict, msg)
}

func PaymentFailed(msg string) *AppError {
	return New(CodePaymentFailed, http.StatusBadRequest, msg)
}

func Suspended(msg string) *AppError {
	return New(CodeSuspended, http.StatusForbidden, msg)
}

func Internal(msg string) *AppError {
	return New(CodeInternal, http.StatusInternalServerError, msg)
}
