package publish

import (
	"context"
	"errors"
	"fmt"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
	"git.home.luguber.info/inful/sitegen/internal/render"
)

// StageName is a strongly-typed identifier for a build stage.
type StageName string

// Canonical stage names, in execution order.
const (
	StagePrepareOutput StageName = "prepare_output"
	StageLoadTemplates StageName = "load_templates"
	StageBuildContent  StageName = "build_content"
	StageRender        StageName = "render"
	StageCopyStatic    StageName = "copy_static"
	StagePromote       StageName = "promote"
)

// Stage is a discrete unit of work in the site build.
type Stage func(ctx context.Context, bs *BuildState) error

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"
	StageErrorCanceled StageErrorKind = "canceled"
)

// StageError records which stage failed and how.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// BuildState carries mutable state across stages.
type BuildState struct {
	Publisher *Publisher
	Report    *BuildReport

	Renderer *render.Renderer
	Site     *content.Site

	// StageDir receives all output until promotion.
	StageDir string
}

// runStages executes stages in order, recording timing and stopping on the
// first error.
func runStages(ctx context.Context, bs *BuildState, stages []StageDef) error {
	rec := bs.Publisher.recorder
	log := bs.Publisher.logger
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			se := &StageError{Kind: StageErrorCanceled, Stage: st.Name, Err: err}
			bs.Report.recordStage(st.Name, 0, se)
			rec.IncStageResult(string(st.Name), metrics.ResultCanceled)
			return se
		}

		t0 := time.Now()
		err := st.Fn(ctx, bs)
		dur := time.Since(t0)
		rec.ObserveStageDuration(string(st.Name), dur)

		if err != nil {
			kind := StageErrorFatal
			result := metrics.ResultFatal
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				kind = StageErrorCanceled
				result = metrics.ResultCanceled
			}
			se := &StageError{Kind: kind, Stage: st.Name, Err: err}
			bs.Report.recordStage(st.Name, dur, se)
			rec.IncStageResult(string(st.Name), result)
			log.Error("Stage failed", logfields.Stage(string(st.Name)), logfields.DurationMS(msec(dur)), logfields.Error(err))
			return se
		}

		bs.Report.recordStage(st.Name, dur, nil)
		rec.IncStageResult(string(st.Name), metrics.ResultSuccess)
		log.Debug("Stage complete", logfields.Stage(string(st.Name)), logfields.DurationMS(msec(dur)))
	}
	return nil
}

func msec(d time.Duration) float64 { return float64(d.Microseconds()) / 1000 }
