package publish

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/content"
)

// ReportFile is the name of the machine readable report in the output root.
const ReportFile = "build-report.json"

// BuildOutcome is the typed enumeration of final build result states.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// BuildReport captures high-level facts about one build.
type BuildReport struct {
	SchemaVersion int
	BuildID       string
	Start         time.Time
	End           time.Time
	Outcome       BuildOutcome
	// Errors holds the error that aborted the build, if any.
	Errors         []error
	StageDurations map[StageName]time.Duration
	StageErrors    map[StageName]StageErrorKind
	// Entities describes the content model; zero until build_content ran.
	Entities content.Counts

	RenderedPages      int
	RenderedCategories int
	RenderedItems      int
	StaticFiles        int
	// Outputs maps each written output path to the template that produced it.
	Outputs map[string]string
}

func newBuildReport() *BuildReport {
	return &BuildReport{
		SchemaVersion:  1,
		Start:          time.Now(),
		StageDurations: make(map[StageName]time.Duration),
		StageErrors:    make(map[StageName]StageErrorKind),
		Outputs:        make(map[string]string),
	}
}

func (r *BuildReport) recordStage(name StageName, d time.Duration, se *StageError) {
	r.StageDurations[name] = d
	if se != nil {
		r.StageErrors[name] = se.Kind
		r.Errors = append(r.Errors, se)
	}
}

// finish stamps the end time and derives the outcome.
func (r *BuildReport) finish() {
	r.End = time.Now()
	r.Outcome = OutcomeSuccess
	for _, kind := range r.StageErrors {
		if kind == StageErrorCanceled {
			r.Outcome = OutcomeCanceled
			return
		}
		r.Outcome = OutcomeFailed
	}
}

// Duration returns the wall time of the build.
func (r *BuildReport) Duration() time.Duration { return r.End.Sub(r.Start) }

// Summary returns a human-readable single-line summary.
func (r *BuildReport) Summary() string {
	return fmt.Sprintf("sections=%d pages=%d categories=%d items=%d rendered=%d static=%d duration=%s outcome=%s",
		r.Entities.Sections, r.Entities.Pages, r.Entities.Categories, r.Entities.Items,
		r.RenderedPages+r.RenderedCategories+r.RenderedItems, r.StaticFiles,
		r.Duration().Truncate(time.Millisecond), r.Outcome)
}

// Persist writes build-report.json into root atomically.
func (r *BuildReport) Persist(root string) error {
	if r.End.IsZero() {
		r.finish()
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return fmt.Errorf("ensure root for report: %w", err)
	}
	jb, err := json.MarshalIndent(r.serializable(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	jsonPath := filepath.Join(root, ReportFile)
	tmp := jsonPath + ".tmp"
	if err := os.WriteFile(tmp, jb, 0o600); err != nil {
		return fmt.Errorf("write temp report json: %w", err)
	}
	if err := os.Rename(tmp, jsonPath); err != nil {
		return fmt.Errorf("atomic rename json: %w", err)
	}
	return nil
}

// BuildReportSerializable mirrors BuildReport with JSON friendly fields.
type BuildReportSerializable struct {
	SchemaVersion      int               `json:"schema_version"`
	BuildID            string            `json:"build_id"`
	Start              time.Time         `json:"start"`
	End                time.Time         `json:"end"`
	DurationMS         int64             `json:"duration_ms"`
	Outcome            string            `json:"outcome"`
	Errors             []string          `json:"errors"`
	StageDurationsMS   map[string]int64  `json:"stage_durations_ms"`
	StageErrors        map[string]string `json:"stage_errors,omitempty"`
	Entities           content.Counts    `json:"entities"`
	RenderedPages      int               `json:"rendered_pages"`
	RenderedCategories int               `json:"rendered_categories"`
	RenderedItems      int               `json:"rendered_items"`
	StaticFiles        int               `json:"static_files"`
	Outputs            map[string]string `json:"outputs"`
}

func (r *BuildReport) serializable() *BuildReportSerializable {
	s := &BuildReportSerializable{
		SchemaVersion:      r.SchemaVersion,
		BuildID:            r.BuildID,
		Start:              r.Start,
		End:                r.End,
		DurationMS:         r.Duration().Milliseconds(),
		Outcome:            string(r.Outcome),
		Errors:             make([]string, len(r.Errors)),
		StageDurationsMS:   make(map[string]int64, len(r.StageDurations)),
		StageErrors:        make(map[string]string, len(r.StageErrors)),
		Entities:           r.Entities,
		RenderedPages:      r.RenderedPages,
		RenderedCategories: r.RenderedCategories,
		RenderedItems:      r.RenderedItems,
		StaticFiles:        r.StaticFiles,
		Outputs:            r.Outputs,
	}
	for i, e := range r.Errors {
		s.Errors[i] = e.Error()
	}
	for k, v := range r.StageDurations {
		s.StageDurationsMS[string(k)] = v.Milliseconds()
	}
	for k, v := range r.StageErrors {
		s.StageErrors[string(k)] = string(v)
	}
	return s
}
