package generator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

var (
	// ErrUpstream 表示分析阶段失败，整次运行作废。
	ErrUpstream = errors.New("upstream error")
	// ErrGenerationFailed 只影响单个平台分支。
	ErrGenerationFailed = errors.New("generation failed")
)

// ErrorKind 是补全错误的分类。
type ErrorKind string

const (
	KindTransient      ErrorKind = "transient"
	KindRateLimited    ErrorKind = "rate_limited"
	KindInvalidRequest ErrorKind = "invalid_request"
	KindUnknown        ErrorKind = "unknown"
)

// CompletionError 携带分类后的补全失败原因。
type CompletionError struct {
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func newCompletionError(kind ErrorKind, status int, err error) *CompletionError {
	return &CompletionError{Kind: kind, StatusCode: status, Err: err}
}

func (e *CompletionError) Error() string {
	if e == nil {
		return ""
	}
	msg := "completion failed"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *CompletionError) Unwrap() error { return e.Err }

// Retryable 供外部调度方决定是否重排任务。
func (e *CompletionError) Retryable() bool {
	return e != nil && (e.Kind == KindTransient || e.Kind == KindRateLimited)
}

// KindOf 返回 err 链上的补全错误分类；不是补全错误时为 unknown。
func KindOf(err error) ErrorKind {
	var ce *CompletionError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

// classifyStatus 按 HTTP 语义区分可重试与不可重试。
func classifyStatus(status int) ErrorKind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status == http.StatusRequestTimeout, status == http.StatusConflict, status >= 500:
		return KindTransient
	case status >= 400:
		return KindInvalidRequest
	default:
		return KindUnknown
	}
}

func classifyTransport(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransient
	}
	return KindUnknown
}

// wrap 用哨兵错误标记阶段失败，保留原始原因。
func wrap(marker error, stage, detail string, err error) error {
	parts := make([]string, 0, 2)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if detail = strings.TrimSpace(detail); detail != "" {
		parts = append(parts, detail)
	}
	msg := strings.Join(parts, ": ")
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, msg, err)
	}
	return fmt.Errorf("%w: %s", marker, msg)
}
