package service

// ErrorKind 區分核心操作失敗的種類，邊界層依此決定回應方式
type ErrorKind string

const (
	KindValidation ErrorKind = "validation" // 輸入缺漏或格式錯誤
	KindConflict   ErrorKind = "conflict"   // 狀態前置條件不符
	KindNotFound   ErrorKind = "notFound"   // 房間或場景不存在
	KindForbidden  ErrorKind = "forbidden"  // 非房主嘗試房主專屬操作
	KindInternal   ErrorKind = "internal"   // 非預期的內部錯誤
)

// AppError 是核心操作回傳的唯一錯誤型別
type AppError struct {
	Kind    ErrorKind
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func NewValidationError(message string) *AppError {
	return &AppError{Kind: KindValidation, Message: message}
}

func NewConflictError(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

func NewInternalError(message string) *AppError {
	return &AppError{Kind: KindInternal, Message: message}
}

// KindOf 取出錯誤的種類，非 AppError 一律視為內部錯誤
func KindOf(err error) ErrorKind {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Kind
	}
	return KindInternal
}
