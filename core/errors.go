package core

import "errors"

// DomainError 是引擎与数据源共用的错误类型，按 Module + Code 区分。
// IsXXX 系列函数可以穿透 fmt.Errorf("%w") 包装。
type DomainError struct {
	Module  string // store / source / engine
	Code    string // NOT_FOUND / INVALID_INPUT / ...
	Message string
	Cause   error
}

func (e *DomainError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *DomainError) Unwrap() error { return e.Cause }

// Is 让 errors.Is 按 Module + Code 匹配，而不是按指针。
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Module == t.Module && e.Code == t.Code
}

// WithCause 返回附带底层错误的副本。
func (e *DomainError) WithCause(cause error) *DomainError {
	c := *e
	c.Cause = cause
	return &c
}

func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{Module: module, Code: code, Message: message}
}

// GetDomainError 取出错误链中的 DomainError，没有时返回 nil。
func GetDomainError(err error) *DomainError {
	var de *DomainError
	if errors.As(err, &de) {
		return de
	}
	return nil
}

const (
	ErrorCodeNotFound     = "NOT_FOUND"
	ErrorCodeUnavailable  = "UNAVAILABLE"
	ErrorCodeInvalidInput = "INVALID_INPUT"
	ErrorCodeNotTrained   = "NOT_TRAINED"
)

const (
	ModuleStore  = "store"
	ModuleSource = "source"
	ModuleEngine = "engine"
)

var (
	ErrBookNotFound = NewDomainError(ModuleSource, ErrorCodeNotFound, "source: book not found")

	// ErrInvalidScore 表示评分不在 1-5 之间
	ErrInvalidScore = NewDomainError(ModuleSource, ErrorCodeInvalidInput, "source: rating must be between 1 and 5")

	// ErrNotTrained 表示引擎还没有可用的模型
	ErrNotTrained = NewDomainError(ModuleEngine, ErrorCodeNotTrained, "engine: model not trained")
)

func hasCode(err error, code string) bool {
	de := GetDomainError(err)
	return de != nil && de.Code == code
}

func IsNotFound(err error) bool     { return hasCode(err, ErrorCodeNotFound) }
func IsUnavailable(err error) bool  { return hasCode(err, ErrorCodeUnavailable) }
func IsInvalidInput(err error) bool { return hasCode(err, ErrorCodeInvalidInput) }
func IsNotTrained(err error) bool   { return hasCode(err, ErrorCodeNotTrained) }
