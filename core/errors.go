package core

import (
	"errors"
	"fmt"
)

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message），Err 保留底层原因
//   - 支持 errors.Is：Module + Code 相同即视为同一类错误
//
// 使用场景：
//   - 分页校验：MISSING_CURSOR_PARAMETER
//   - 点赞冲突：LIKE_CONFLICT（业务冲突，不是系统故障）
//   - 存储不可达：UNAVAILABLE（可重试的基础设施错误）
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "LIKE_CONFLICT"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "lock", "pager"）
	Err     error  // 底层原因（可为空）
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error { return e.Err }

// Is 按 Module + Code 匹配，便于 errors.Is(err, core.ErrLikeConflict) 这类判断。
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Module == t.Module && e.Code == t.Code
}

// IsDomainError 检查错误链上是否存在 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链上的第一个 DomainError，如果没有则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// Wrap 基于模板错误创建一个携带底层原因的新错误，模板本身不会被修改。
func (e *DomainError) Wrap(cause error) *DomainError {
	return &DomainError{
		Module:  e.Module,
		Code:    e.Code,
		Message: e.Message,
		Err:     cause,
	}
}

// Withf 基于模板错误创建一个附带补充说明的新错误。
func (e *DomainError) Withf(format string, args ...any) *DomainError {
	return &DomainError{
		Module:  e.Module,
		Code:    e.Code,
		Message: e.Message + ": " + fmt.Sprintf(format, args...),
	}
}

// 错误代码常量
const (
	// 通用错误代码
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用（可重试）
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误

	// 业务错误代码
	ErrorCodeMissingCursor = "MISSING_CURSOR_PARAMETER" // 游标缺少排序类型要求的字段
	ErrorCodeLikeConflict  = "LIKE_CONFLICT"            // 重试耗尽仍拿不到锁
	ErrorCodeLockContended = "LOCK_CONTENDED"           // 单次抢锁失败（仅在重试范围内流转）
)

// 模块名称常量
const (
	ModuleStore     = "store"     // 存储模块
	ModuleLock      = "lock"      // 分布式锁
	ModulePager     = "pager"     // 游标分页
	ModuleRanking   = "ranking"   // 排行榜
	ModuleRecommend = "recommend" // 相似推荐
	ModuleLike      = "like"      // 点赞
)

// 预定义错误（作为模板使用，需要原因时调用 Wrap）
var (
	ErrMissingCursor = NewDomainError(ModulePager, ErrorCodeMissingCursor, "pager: missing cursor parameter")
	ErrLikeConflict  = NewDomainError(ModuleLike, ErrorCodeLikeConflict, "like: conflicting like request, retry the action")
	ErrLockContended = NewDomainError(ModuleLock, ErrorCodeLockContended, "lock: held by another owner")
	ErrSongNotFound  = NewDomainError(ModuleRecommend, ErrorCodeNotFound, "recommend: song not found")
)

// Unavailable 把基础设施故障包装成 UNAVAILABLE 领域错误。
func Unavailable(module string, cause error) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    ErrorCodeUnavailable,
		Message: module + ": backing store unavailable",
		Err:     cause,
	}
}

// InvalidInput 创建 INVALID_INPUT 领域错误。
func InvalidInput(module, message string) *DomainError {
	return NewDomainError(module, ErrorCodeInvalidInput, module+": "+message)
}

// 通用错误检查函数

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool { return hasCode(err, ErrorCodeNotFound) }

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool { return hasCode(err, ErrorCodeUnavailable) }

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool { return hasCode(err, ErrorCodeInvalidInput) }

// IsMissingCursor 检查错误是否为 MISSING_CURSOR_PARAMETER
func IsMissingCursor(err error) bool { return hasCode(err, ErrorCodeMissingCursor) }

// IsConflict 检查错误是否为 LIKE_CONFLICT
func IsConflict(err error) bool { return hasCode(err, ErrorCodeLikeConflict) }

// IsLockContended 检查错误是否为 LOCK_CONTENDED
func IsLockContended(err error) bool { return hasCode(err, ErrorCodeLockContended) }
