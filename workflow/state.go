package workflow

import (
	"time"

	"content_repurposer/generator"
	"content_repurposer/style"
)

// State is the record threaded through one run. Each stage returns a copy with
// only its own fields filled in; branches get their own view and never write back.
type State struct {
	Transcript  string
	Metadata    map[string]any
	Analysis    string
	StyleGuide  string
	StyleSource style.Source
}

func newState(transcript string, metadata map[string]any) State {
	md := make(map[string]any, len(metadata))
	for k, v := range metadata {
		md[k] = v
	}
	return State{Transcript: transcript, Metadata: md}
}

func (s State) withAnalysis(analysis string) State {
	s.Analysis = analysis
	return s
}

func (s State) withStyle(res style.Resolution) State {
	s.StyleGuide = res.Text
	s.StyleSource = res.Source
	return s
}

// BranchStatus is the terminal state of one platform branch.
type BranchStatus string

const (
	StatusRefined BranchStatus = "refined"
	StatusFailed  BranchStatus = "failed"
)

// BranchResult is the outcome of one (generate -> critique) branch.
type BranchResult struct {
	Platform generator.Platform `json:"platform"`
	Status   BranchStatus       `json:"status"`

	// Generation is the generator's output as produced.
	Generation *generator.GenerationResult `json:"generation,omitempty"`
	// Refinement.FinalContent equals Final.Content.
	Refinement *generator.RefinementResult `json:"refinement,omitempty"`
	// Final is the platform-shaped data for the final content (reshaped after a revision).
	Final *generator.GenerationResult `json:"final,omitempty"`

	Err   error  `json:"-"`
	Error string `json:"error,omitempty"`
}

// Content returns the final content, or "" for a failed branch.
func (b BranchResult) Content() string {
	if b.Status != StatusRefined || b.Refinement == nil {
		return ""
	}
	return b.Refinement.FinalContent
}

func failedBranch(p generator.Platform, err error) BranchResult {
	return BranchResult{Platform: p, Status: StatusFailed, Err: err, Error: err.Error()}
}

// Bundle is what a run hands back: one entry per configured platform.
type Bundle struct {
	RunID       string                              `json:"run_id"`
	Analysis    string                              `json:"analysis"`
	StyleGuide  string                              `json:"style_guide"`
	StyleSource style.Source                        `json:"style_source"`
	Results     map[generator.Platform]BranchResult `json:"results"`
	StartedAt   time.Time                           `json:"started_at"`
	FinishedAt  time.Time                           `json:"finished_at"`
}

// Get returns the branch result for p.
func (b Bundle) Get(p generator.Platform) (BranchResult, bool) {
	r, ok := b.Results[p]
	return r, ok
}

// Failed lists platforms whose branch failed, in platform order.
func (b Bundle) Failed() []generator.Platform {
	var out []generator.Platform
	for _, p := range generator.Platforms() {
		if r, ok := b.Results[p]; ok && r.Status == StatusFailed {
			out = append(out, p)
		}
	}
	return out
}

// Complete is true when every branch reached StatusRefined.
func (b Bundle) Complete() bool {
	return len(b.Failed()) == 0
}
