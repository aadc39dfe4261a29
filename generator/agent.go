package generator

import (
	"context"
	"errors"
	"strings"
	"time"

	"content_repurposer/logger"
	"content_repurposer/observability"
)

// 各阶段的调用预算。
const (
	analysisMaxTokens   = 2000
	analysisTemperature = 0.3
	createTemperature   = 0.7
	critiqueMaxTokens   = 3000
	critiqueTemperature = 0.2
)

// Agent 负责分析、按平台生成和审稿三类模型调用。
type Agent struct {
	llm LLMClient
	log *logger.Logger
}

func NewAgent(llm LLMClient, log *logger.Logger) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Agent{llm: llm, log: log.With("component", "generator")}, nil
}

// Analyze 产出共享分析文本。失败即整次运行失败。
func (a *Agent) Analyze(ctx context.Context, transcript string, metadata map[string]any) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", wrap(ErrUpstream, "analysis", "transcript is empty", nil)
	}
	prompt, err := BuildAnalysisPrompt(transcript, metadata)
	if err != nil {
		return "", wrap(ErrUpstream, "analysis", "build prompt", err)
	}
	a.log.Info("analyzing_context", "transcript_length", len(transcript))
	analysis, err := a.complete(ctx, Request{
		Class:       Analytical,
		Task:        TaskAnalysis,
		Prompt:      prompt,
		MaxTokens:   analysisMaxTokens,
		Temperature: analysisTemperature,
	})
	if err != nil {
		a.log.Error("context_analysis_failed", "error", err)
		return "", wrap(ErrUpstream, "analysis", "completion", err)
	}
	analysis = strings.TrimSpace(analysis)
	if analysis == "" {
		return "", wrap(ErrUpstream, "analysis", "model returned empty analysis", nil)
	}
	a.log.Info("context_analysis_complete", "analysis_length", len(analysis))
	return analysis, nil
}

// Generate 渲染平台模板、调用创作模型，再做平台后处理。
func (a *Agent) Generate(ctx context.Context, p Platform, analysis, style string) (GenerationResult, error) {
	spec, err := Lookup(p)
	if err != nil {
		return GenerationResult{}, wrap(ErrGenerationFailed, "generate", "", err)
	}
	prompt, err := BuildGenerationPrompt(p, analysis, style)
	if err != nil {
		return GenerationResult{}, wrap(ErrGenerationFailed, "generate", spec.Key, err)
	}
	log := a.log.With("platform", spec.Key)
	log.Info("generating_content")
	raw, err := a.complete(ctx, Request{
		Class:       Creative,
		Task:        TaskGenerate,
		Platform:    p,
		Prompt:      prompt,
		MaxTokens:   spec.MaxTokens,
		Temperature: createTemperature,
	})
	if err != nil {
		log.Error("generation_failed", "error", err)
		return GenerationResult{}, wrap(ErrGenerationFailed, "generate", spec.Key, err)
	}
	if p == Twitter {
		for i, seg := range strings.Split(raw, ThreadDelimiter) {
			if n := len([]rune(strings.TrimSpace(seg))); n > TweetLimit {
				log.Warn("tweet_truncated", "tweet_number", i+1, "length", n)
			}
		}
	}
	res, err := spec.Shape(raw)
	if err != nil {
		log.Error("generation_failed", "error", err)
		return GenerationResult{}, wrap(ErrGenerationFailed, "generate", spec.Key, err)
	}
	log.Info("content_generated",
		"character_count", res.CharCount,
		"word_count", res.WordCount,
		"segment_count", res.SegmentCount,
		"hashtag_count", len(res.Hashtags),
		"subject", res.Subject,
	)
	return res, nil
}

// complete 包一层指标记录。
func (a *Agent) complete(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	out, err := a.llm.Complete(ctx, req)
	status := "success"
	if err != nil {
		status = string(KindOf(err))
	}
	observability.RecordLLMCall(string(req.Class), string(req.Task), status, time.Since(start))
	return out, err
}
