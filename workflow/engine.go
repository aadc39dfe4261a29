// Package workflow runs the content-derivation DAG: analysis and style resolution once,
// then one independent generate -> critique branch per platform, joined into a Bundle.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"content_repurposer/generator"
	"content_repurposer/logger"
	"content_repurposer/observability"
	"content_repurposer/style"
)

// Stages are the model-backed steps of a run. *generator.Agent implements it.
type Stages interface {
	Analyze(ctx context.Context, transcript string, metadata map[string]any) (string, error)
	Generate(ctx context.Context, p generator.Platform, analysis, style string) (generator.GenerationResult, error)
	Critique(ctx context.Context, analysis, style, content string, p generator.Platform) generator.RefinementResult
}

// StyleResolver resolves style guidance. *style.Provider implements it.
type StyleResolver interface {
	Resolve(ctx context.Context, platform string) style.Resolution
}

// Engine wires the stages into the DAG.
type Engine struct {
	stages    Stages
	styles    StyleResolver
	platforms []generator.Platform
	log       *logger.Logger
	tracer    trace.Tracer
}

// Option customizes an Engine.
type Option func(*Engine)

// WithPlatforms limits the run to the given platforms. Duplicates are dropped.
func WithPlatforms(platforms ...generator.Platform) Option {
	return func(e *Engine) {
		e.platforms = platforms
	}
}

// WithTracer overrides the tracer (tests).
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

func NewEngine(stages Stages, styles StyleResolver, log *logger.Logger, opts ...Option) (*Engine, error) {
	if stages == nil {
		return nil, errors.New("stages are required")
	}
	if styles == nil {
		return nil, errors.New("style resolver is required")
	}
	if log == nil {
		log = logger.Nop()
	}
	e := &Engine{
		stages:    stages,
		styles:    styles,
		platforms: generator.Platforms(),
		log:       log.With("component", "workflow"),
		tracer:    observability.Tracer(),
	}
	for _, opt := range opts {
		opt(e)
	}

	seen := make(map[generator.Platform]bool, len(e.platforms))
	unique := make([]generator.Platform, 0, len(e.platforms))
	for _, p := range e.platforms {
		if _, err := generator.Lookup(p); err != nil {
			return nil, err
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		unique = append(unique, p)
	}
	if len(unique) == 0 {
		return nil, errors.New("at least one platform is required")
	}
	e.platforms = unique
	return e, nil
}

// Platforms returns the configured platforms.
func (e *Engine) Platforms() []generator.Platform {
	out := make([]generator.Platform, len(e.platforms))
	copy(out, e.platforms)
	return out
}

// Run executes the DAG for one transcript. It fails only with generator.ErrUpstream;
// per-platform failures are reported inside the Bundle.
func (e *Engine) Run(ctx context.Context, transcript string, metadata map[string]any) (Bundle, error) {
	runID := uuid.NewString()
	start := time.Now()
	log := e.log.With("run_id", runID)

	ctx, span := e.tracer.Start(ctx, "workflow.run", trace.WithAttributes(attribute.String("run_id", runID)))
	defer span.End()

	log.Info("workflow_run_started", "transcript_length", len(transcript), "platforms", len(e.platforms))
	st := newState(transcript, metadata)

	// START -> ANALYZED
	var analysis string
	err := e.stage(ctx, "analysis", "", func(ctx context.Context) error {
		var err error
		analysis, err = e.stages.Analyze(ctx, st.Transcript, st.Metadata)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "analysis failed")
		observability.RecordRun("upstream_error", time.Since(start))
		log.Error("workflow_run_failed", "error", err)
		return Bundle{}, err
	}
	st = st.withAnalysis(analysis)

	// ANALYZED -> STYLED; never fails.
	var resolved style.Resolution
	_ = e.stage(ctx, "style", "", func(ctx context.Context) error {
		resolved = e.styles.Resolve(ctx, "")
		return nil
	})
	st = st.withStyle(resolved)

	// STYLED -> branches. Each goroutine owns exactly one slot; the join waits for all.
	slots := make([]BranchResult, len(e.platforms))
	var g errgroup.Group
	for i, p := range e.platforms {
		g.Go(func() error {
			slots[i] = e.runBranch(ctx, st, p, log)
			return nil
		})
	}
	_ = g.Wait()

	bundle := Bundle{
		RunID:       runID,
		Analysis:    st.Analysis,
		StyleGuide:  st.StyleGuide,
		StyleSource: st.StyleSource,
		Results:     make(map[generator.Platform]BranchResult, len(slots)),
		StartedAt:   start,
		FinishedAt:  time.Now(),
	}
	for _, r := range slots {
		bundle.Results[r.Platform] = r
	}

	status := "success"
	if !bundle.Complete() {
		status = "partial"
		span.SetStatus(codes.Error, fmt.Sprintf("failed platforms: %v", bundle.Failed()))
	}
	observability.RecordRun(status, time.Since(start))
	log.Info("workflow_run_complete", "status", status, "failed", fmt.Sprint(bundle.Failed()), "duration_ms", time.Since(start).Milliseconds())
	return bundle, nil
}

// runBranch runs generate -> critique for one platform. It always returns a terminal result.
func (e *Engine) runBranch(ctx context.Context, st State, p generator.Platform, log *logger.Logger) (res BranchResult) {
	log = log.With("platform", p.String())
	ctx, span := e.tracer.Start(ctx, "branch."+p.String())
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %s: panic: %v", generator.ErrGenerationFailed, p, r)
			log.Error("branch_panic", "error", err)
			span.SetStatus(codes.Error, "panic")
			res = failedBranch(p, err)
		}
	}()

	// STYLED -> GENERATED_<platform>
	var gen generator.GenerationResult
	err := e.stage(ctx, "generate", p.String(), func(ctx context.Context) error {
		var err error
		gen, err = e.stages.Generate(ctx, p, st.Analysis, st.StyleGuide)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		log.Warn("branch_failed", "error", err)
		return failedBranch(p, err)
	}

	// GENERATED_<platform> -> REFINED_<platform>
	var ref generator.RefinementResult
	_ = e.stage(ctx, "critique", p.String(), func(ctx context.Context) error {
		ref = e.stages.Critique(ctx, st.Analysis, st.StyleGuide, gen.Content, p)
		if ref.FailedOpen() {
			return errDegraded
		}
		return nil
	})
	observability.RecordVerdict(p.String(), string(ref.Verdict), string(ref.Outcome))

	final := finalize(p, gen, &ref)
	log.Info("branch_refined", "verdict", ref.Verdict, "needs_revision", ref.NeedsRevision, "outcome", ref.Outcome)
	return BranchResult{
		Platform:   p,
		Status:     StatusRefined,
		Generation: &gen,
		Refinement: &ref,
		Final:      &final,
	}
}

// finalize reshapes a revised text so the final content keeps the platform's shape.
// The final content never ends up empty.
func finalize(p generator.Platform, gen generator.GenerationResult, ref *generator.RefinementResult) generator.GenerationResult {
	if ref.FinalContent == "" {
		ref.FinalContent = gen.Content
	}
	if !ref.NeedsRevision || ref.FinalContent == gen.Content {
		return gen
	}
	spec, err := generator.Lookup(p)
	if err != nil {
		ref.FinalContent = gen.Content
		return gen
	}
	reshaped, err := spec.Reshape(ref.FinalContent)
	if err != nil {
		ref.FinalContent = gen.Content
		return gen
	}
	if reshaped.Subject == "" {
		reshaped.Subject = gen.Subject
	}
	ref.FinalContent = reshaped.Content
	return reshaped
}

// errDegraded marks a stage that completed without doing its job (the critic failing open).
var errDegraded = errors.New("degraded")

// stage wraps one DAG step with a span, timing and metrics.
func (e *Engine) stage(ctx context.Context, name, platform string, fn func(context.Context) error) error {
	spanName := "stage." + name
	if platform != "" {
		spanName += "." + platform
	}
	ctx, span := e.tracer.Start(ctx, spanName)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	status := "success"
	switch {
	case errors.Is(err, errDegraded):
		status = "degraded"
		span.SetAttributes(attribute.Bool("degraded", true))
		err = nil
	case err != nil:
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	observability.RecordStage(name, platform, status, time.Since(start))
	return err
}
