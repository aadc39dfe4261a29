package generator

import (
	"context"
	"strings"
)

// 审稿回复的字段标签。
const (
	labelVerdict = "VERDICT:"
	labelIssues  = "ISSUES:"
	labelRevised = "REVISED_CONTENT:"
)

// Review 是从模型回复中解析出的三个字段。
type Review struct {
	Verdict    Verdict
	Issues     []string
	Revised    string
	HasRevised bool
}

// ParseReview 尽力解析 VERDICT/ISSUES/REVISED_CONTENT 三段式回复。
// 每个标签以第一次出现为准；REVISED_CONTENT 吞掉之后的全部内容。
// 找不到 VERDICT 时按 APPROVE 处理。
func ParseReview(reply string) Review {
	review := Review{Verdict: VerdictApprove, Issues: []string{}}
	var verdictSeen, issuesSeen bool

	lines := strings.Split(reply, "\n")
	for i, line := range lines {
		// 兼容 "**VERDICT:** REVISE" 这类 markdown 装饰。
		trimmed := strings.TrimLeft(strings.TrimSpace(line), "*_ ")
		switch {
		case hasLabel(trimmed, labelVerdict):
			if verdictSeen {
				continue
			}
			verdictSeen = true
			review.Verdict = parseVerdict(trimmed[len(labelVerdict):])
		case hasLabel(trimmed, labelIssues):
			if issuesSeen {
				continue
			}
			issuesSeen = true
			text := labelValue(trimmed[len(labelIssues):])
			if text != "" && !strings.EqualFold(strings.Trim(text, `"[]. `), "none") {
				review.Issues = append(review.Issues, text)
			}
		case hasLabel(trimmed, labelRevised):
			first := labelValue(trimmed[len(labelRevised):])
			rest := strings.Join(lines[i+1:], "\n")
			review.Revised = strings.TrimSpace(first + "\n" + rest)
			review.HasRevised = true
			return review
		}
	}
	return review
}

// labelValue 去掉标签后残留的 markdown 加粗符号。
func labelValue(s string) string {
	return strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(s), "*_"))
}

func hasLabel(line, label string) bool {
	return len(line) >= len(label) && strings.EqualFold(line[:len(label)], label)
}

func parseVerdict(s string) Verdict {
	v := strings.ToUpper(strings.Trim(strings.TrimSpace(s), "[]*. "))
	if v == string(VerdictRevise) {
		return VerdictRevise
	}
	return VerdictApprove
}

// Critique 对生成内容做第二遍审稿。该方法不返回错误：
// 审稿调用失败时返回 Outcome=failed_open 的 APPROVE 结果，内容保持原样。
func (a *Agent) Critique(ctx context.Context, analysis, style, content string, p Platform) RefinementResult {
	spec, err := Lookup(p)
	if err != nil {
		return approveUnchanged(content)
	}
	log := a.log.With("platform", spec.Key)

	prompt, err := BuildCritiquePrompt(analysis, style, content, spec.Label, spec.ReviewHint)
	if err != nil {
		log.Error("critique_failed_open", "error", err)
		return approveUnchanged(content)
	}
	log.Info("critiquing_content")
	reply, err := a.complete(ctx, Request{
		Class:       Analytical,
		Task:        TaskCritique,
		Platform:    p,
		Prompt:      prompt,
		MaxTokens:   critiqueMaxTokens,
		Temperature: critiqueTemperature,
	})
	if err != nil {
		log.Warn("critique_failed_open", "error", err)
		return approveUnchanged(content)
	}

	review := ParseReview(reply)
	res := RefinementResult{
		FinalContent:  content,
		Verdict:       review.Verdict,
		Issues:        review.Issues,
		NeedsRevision: review.Verdict == VerdictRevise,
		Outcome:       OutcomeReviewed,
	}
	if res.NeedsRevision && review.Revised != "" {
		res.FinalContent = review.Revised
	}
	log.Info("critique_complete", "verdict", res.Verdict, "needs_revision", res.NeedsRevision, "issue_count", len(res.Issues))
	return res
}
