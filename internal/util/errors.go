package util

import "errors"

// ErrorKind 稳定的机器可读错误类别，控制器据此映射 HTTP 状态码。
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindNotFound      ErrorKind = "not_found"
	KindBusinessRule  ErrorKind = "business_rule"
	KindAuthorization ErrorKind = "authorization"
)

// AppError 携带错误类别与可选的结构化详情（如 completionPercentage）。
type AppError struct {
	Kind    ErrorKind              `json:"kind"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return e.Message
}

func NewValidationError(message string) *AppError {
	return &AppError{Kind: KindValidation, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

func NewBusinessRuleError(message string, details map[string]interface{}) *AppError {
	return &AppError{Kind: KindBusinessRule, Message: message, Details: details}
}

func NewAuthorizationError(message string) *AppError {
	return &AppError{Kind: KindAuthorization, Message: message}
}

// AsAppError 解包任意 error 为 *AppError，失败时返回 nil。
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

var (
	ErrUserNotFound        = NewNotFoundError("user not found")
	ErrCourseNotFound      = NewNotFoundError("course not found")
	ErrLessonNotFound      = NewNotFoundError("lesson not found")
	ErrExamNotFound        = NewNotFoundError("exam not found")
	ErrAttemptNotFound     = NewNotFoundError("exam attempt not found")
	ErrCertificateNotFound = NewNotFoundError("certificate not found")
	ErrPathNotFound        = NewNotFoundError("learning path not found")
	ErrAssessmentNotFound  = NewNotFoundError("assessment not found")
	ErrEmailRegistered     = NewValidationError("该邮箱已被注册")
	ErrAttemptsExhausted   = NewBusinessRuleError("maximum attempts reached", nil)
)
