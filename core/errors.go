package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 可包裹底层错误（Err），支持 errors.Is / errors.As
//
// 使用场景：
//   - Corpus 错误：NOT_FOUND, MALFORMED_DATA（启动即失败）
//   - Classifier 错误：MALFORMED_OUTPUT, UNAVAILABLE（透传给调用方，不重试）
//   - Store 错误：NOT_FOUND
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "MALFORMED_OUTPUT"）
	Message string // 错误消息
	Module  string // 模块名称（如 "corpus", "classifier", "store"）
	Err     error  // 底层错误（可选）
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// IsDomainError 检查错误链中是否存在 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中的 DomainError，如果不存在则返回 nil
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

// WrapDomainError 创建包裹底层错误的领域错误
func WrapDomainError(module, code, message string, err error) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound        = "NOT_FOUND"        // 资源不存在
	ErrorCodeNotSupported    = "NOT_SUPPORTED"    // 操作不支持
	ErrorCodeUnavailable     = "UNAVAILABLE"      // 服务不可用
	ErrorCodeInvalidInput    = "INVALID_INPUT"    // 输入无效
	ErrorCodeMalformedData   = "MALFORMED_DATA"   // 数据源格式错误
	ErrorCodeMalformedOutput = "MALFORMED_OUTPUT" // 分类器输出格式错误
	ErrorCodeInternalError   = "INTERNAL_ERROR"   // 内部错误
)

// 模块名称常量
const (
	ModuleStore      = "store"      // 存储模块
	ModuleCorpus     = "corpus"     // 书库加载
	ModuleClassifier = "classifier" // 情绪分类器
	ModuleTaxonomy   = "taxonomy"   // 类别体系
	ModuleEngine     = "engine"     // 推荐引擎
)

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

func inModule(err error, module string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Module == module
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	return hasCode(err, ErrorCodeNotFound)
}

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool {
	return hasCode(err, ErrorCodeNotSupported)
}

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool {
	return hasCode(err, ErrorCodeUnavailable)
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	return hasCode(err, ErrorCodeInvalidInput)
}

// IsDataLoadError 检查错误是否来自书库加载（路径不存在、格式错误等）。
func IsDataLoadError(err error) bool {
	return inModule(err, ModuleCorpus)
}

// IsClassifierError 检查错误是否来自情绪分类器（模型不可用、输出格式错误等）。
func IsClassifierError(err error) bool {
	return inModule(err, ModuleClassifier)
}
