package generator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReview(t *testing.T) {
	tests := []struct {
		name        string
		reply       string
		wantVerdict Verdict
		wantIssues  []string
		wantRevised string
	}{
		{
			name:        "revise with single line content",
			reply:       "VERDICT: REVISE\nISSUES: too long\nREVISED_CONTENT: Shortened text.",
			wantVerdict: VerdictRevise,
			wantIssues:  []string{"too long"},
			wantRevised: "Shortened text.",
		},
		{
			name:        "revised content is multi-line and swallows later labels",
			reply:       "VERDICT: REVISE\nISSUES: weak hook\nREVISED_CONTENT:\nLine one\n\nVERDICT: APPROVE\nLine three",
			wantVerdict: VerdictRevise,
			wantIssues:  []string{"weak hook"},
			wantRevised: "Line one\n\nVERDICT: APPROVE\nLine three",
		},
		{
			name:        "approve with none issues",
			reply:       "VERDICT: APPROVE\nISSUES: None",
			wantVerdict: VerdictApprove,
			wantIssues:  []string{},
		},
		{
			name:        "missing verdict defaults to approve",
			reply:       "Looks fine to me.",
			wantVerdict: VerdictApprove,
			wantIssues:  []string{},
		},
		{
			name:        "first label wins",
			reply:       "VERDICT: REVISE\nVERDICT: APPROVE\nISSUES: first\nISSUES: second",
			wantVerdict: VerdictRevise,
			wantIssues:  []string{"first"},
		},
		{
			name:        "bracketed lowercase verdict",
			reply:       "verdict: [revise]\nissues: [\"None\"]",
			wantVerdict: VerdictRevise,
			wantIssues:  []string{},
		},
		{
			name:        "markdown bold labels",
			reply:       "**VERDICT:** REVISE\n**ISSUES:** too formal\n**REVISED_CONTENT:**\nLighter text.",
			wantVerdict: VerdictRevise,
			wantIssues:  []string{"too formal"},
			wantRevised: "Lighter text.",
		},
		{
			name:        "unknown verdict token",
			reply:       "VERDICT: MAYBE",
			wantVerdict: VerdictApprove,
			wantIssues:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			review := ParseReview(tt.reply)
			assert.Equal(t, tt.wantVerdict, review.Verdict)
			assert.Equal(t, tt.wantIssues, review.Issues)
			assert.Equal(t, tt.wantRevised, review.Revised)
		})
	}
}

func TestCritiqueRevise(t *testing.T) {
	llm := FuncLLM(func(_ context.Context, req Request) (string, error) {
		assert.Equal(t, TaskCritique, req.Task)
		assert.Contains(t, req.Prompt.User, "Platform: LinkedIn")
		return "VERDICT: REVISE\nISSUES: too long\nREVISED_CONTENT: Shortened text.", nil
	})
	agent, err := NewAgent(llm, nil)
	require.NoError(t, err)

	res := agent.Critique(context.Background(), "analysis", "style", "Original long text.", LinkedIn)

	assert.True(t, res.NeedsRevision)
	assert.Equal(t, VerdictRevise, res.Verdict)
	assert.Equal(t, "Shortened text.", res.FinalContent)
	assert.Equal(t, []string{"too long"}, res.Issues)
	assert.Equal(t, OutcomeReviewed, res.Outcome)
}

func TestCritiqueApproveKeepsOriginal(t *testing.T) {
	llm := FuncLLM(func(context.Context, Request) (string, error) {
		return "VERDICT: APPROVE\nISSUES: None\nREVISED_CONTENT: something else", nil
	})
	agent, err := NewAgent(llm, nil)
	require.NoError(t, err)

	res := agent.Critique(context.Background(), "a", "s", "keep me", Twitter)
	assert.False(t, res.NeedsRevision)
	assert.Equal(t, "keep me", res.FinalContent)
}

func TestCritiqueReviseWithoutContentKeepsOriginal(t *testing.T) {
	llm := FuncLLM(func(context.Context, Request) (string, error) {
		return "VERDICT: REVISE\nISSUES: vague\nREVISED_CONTENT:   ", nil
	})
	agent, err := NewAgent(llm, nil)
	require.NoError(t, err)

	res := agent.Critique(context.Background(), "a", "s", "original", Newsletter)
	assert.True(t, res.NeedsRevision)
	assert.Equal(t, "original", res.FinalContent)
}

func TestCritiqueFailsOpen(t *testing.T) {
	failing := FuncLLM(func(context.Context, Request) (string, error) {
		return "", newCompletionError(KindTransient, 503, errors.New("overloaded"))
	})
	agent, err := NewAgent(failing, nil)
	require.NoError(t, err)

	for _, p := range Platforms() {
		t.Run(p.String(), func(t *testing.T) {
			content := "generated for " + strings.ToUpper(p.String())
			res := agent.Critique(context.Background(), "a", "s", content, p)
			assert.Equal(t, VerdictApprove, res.Verdict)
			assert.Equal(t, content, res.FinalContent)
			assert.Empty(t, res.Issues)
			assert.NotNil(t, res.Issues)
			assert.False(t, res.NeedsRevision)
			assert.True(t, res.FailedOpen())
		})
	}
}
