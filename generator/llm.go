package generator

import (
	"context"
	"fmt"
)

// ModelClass 选择后端：分析类（低温、严谨）或创作类（高温、发散）。
type ModelClass string

const (
	Analytical ModelClass = "analytical"
	Creative   ModelClass = "creative"
)

// Task 标记一次调用的用途，用于日志、指标和 mock 后端。
type Task string

const (
	TaskAnalysis Task = "analysis"
	TaskGenerate Task = "generate"
	TaskCritique Task = "critique"
)

// Request 是一次补全调用的全部输入。
type Request struct {
	Class       ModelClass
	Task        Task
	Platform    Platform
	Prompt      Prompt
	MaxTokens   int
	Temperature float64
}

// Validate 在发起网络请求前拦截明显无效的参数。
func (r Request) Validate() error {
	if r.Prompt.User == "" {
		return newCompletionError(KindInvalidRequest, 0, fmt.Errorf("empty prompt"))
	}
	if r.MaxTokens <= 0 {
		return newCompletionError(KindInvalidRequest, 0, fmt.Errorf("max tokens must be positive, got %d", r.MaxTokens))
	}
	if r.Temperature < 0 || r.Temperature > 1 {
		return newCompletionError(KindInvalidRequest, 0, fmt.Errorf("temperature %.2f outside [0,1]", r.Temperature))
	}
	switch r.Class {
	case Analytical, Creative:
	default:
		return newCompletionError(KindInvalidRequest, 0, fmt.Errorf("unknown model class %q", r.Class))
	}
	return nil
}

// LLMClient 抽象大模型客户端，便于替换/Mock。调用方不做重试。
type LLMClient interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// LLMSettings 提供给具体实现的基础配置。
type LLMSettings struct {
	Provider       string
	Model          string
	APIKey         string
	BaseURL        string
	TimeoutSeconds int
}

// Router 按 ModelClass 把请求分派到对应后端。
type Router struct {
	analytical LLMClient
	creative   LLMClient
}

func NewRouter(analytical, creative LLMClient) (*Router, error) {
	if analytical == nil || creative == nil {
		return nil, fmt.Errorf("both analytical and creative llm clients are required")
	}
	return &Router{analytical: analytical, creative: creative}, nil
}

func (r *Router) Complete(ctx context.Context, req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	if req.Class == Analytical {
		return r.analytical.Complete(ctx, req)
	}
	return r.creative.Complete(ctx, req)
}

// FuncLLM 把普通函数适配成 LLMClient。
type FuncLLM func(ctx context.Context, req Request) (string, error)

func (f FuncLLM) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
