package generator

import (
	"context"
	"fmt"
	"strings"
)

// MockLLM 一个简单的占位实现，便于本地调试，不调用外部模型。
// 按 Task/Platform 返回符合各平台格式的固定内容。
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	switch req.Task {
	case TaskAnalysis:
		return "Topic: " + firstLine(req.Prompt.User) + "\nKey insights: the talk makes one clear point.\nAudience: practitioners.\nTone: conversational.", nil
	case TaskCritique:
		return "VERDICT: APPROVE\nISSUES: None", nil
	case TaskGenerate:
		switch req.Platform {
		case Twitter:
			tweets := []string{
				"🧵 One idea from today's talk that is worth your time:",
				"1/ Start with the problem, not the tool.",
				"2/ What would you change first?",
			}
			return strings.Join(tweets, "\n"+ThreadDelimiter+"\n"), nil
		case LinkedIn:
			return "Most teams start with the tool.\n\nThe good ones start with the problem.\n\nWhat is your first step?\n\n#Learning #Teams", nil
		case Newsletter:
			return "Subject: One idea worth stealing\n\nHi there,\n\n## Why it matters\n\n- Start with the problem\n- Then pick the tool\n\nTalk soon.", nil
		}
	}
	return "", newCompletionError(KindInvalidRequest, 0, fmt.Errorf("mock: unsupported task %q", req.Task))
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
