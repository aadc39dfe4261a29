package generator

// GenerationResult 是某个平台生成器的产出（已做平台后处理）。
type GenerationResult struct {
	Platform Platform `json:"platform"`
	Content  string   `json:"content"`
	// Segments 仅对推文串有意义。
	Segments     []string `json:"segments,omitempty"`
	Hashtags     []string `json:"hashtags,omitempty"`
	Subject      string   `json:"subject,omitempty"`
	CharCount    int      `json:"character_count"`
	WordCount    int      `json:"word_count"`
	SegmentCount int      `json:"segment_count,omitempty"`
}

// Verdict 是审稿结论。
type Verdict string

const (
	VerdictApprove Verdict = "APPROVE"
	VerdictRevise  Verdict = "REVISE"
)

// CritiqueOutcome 区分真正审过的结果和失败放行的结果。
type CritiqueOutcome string

const (
	OutcomeReviewed CritiqueOutcome = "reviewed"
	// OutcomeFailedOpen: 审稿调用失败，原文原样放行。
	OutcomeFailedOpen CritiqueOutcome = "failed_open"
)

// RefinementResult 是审稿阶段的终态。
type RefinementResult struct {
	FinalContent  string          `json:"final_content"`
	Verdict       Verdict         `json:"verdict"`
	Issues        []string        `json:"issues"`
	NeedsRevision bool            `json:"needs_revision"`
	Outcome       CritiqueOutcome `json:"outcome"`
}

// FailedOpen 为 true 时结果未经审阅。
func (r RefinementResult) FailedOpen() bool {
	return r.Outcome == OutcomeFailedOpen
}

func approveUnchanged(content string) RefinementResult {
	return RefinementResult{
		FinalContent: content,
		Verdict:      VerdictApprove,
		Issues:       []string{},
		Outcome:      OutcomeFailedOpen,
	}
}
