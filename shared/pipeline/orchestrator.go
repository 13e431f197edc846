// Package pipeline runs one video through the analysis stages: metadata
// fetch, transcript fetch, model invocation, structured extraction. Each
// stage runs under its own timeout and its failure degrades the run instead
// of aborting it; downstream stages continue on substituted defaults so every
// run produces a complete, schema-valid analysis record.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"tubeinsight/internal/models"
	"tubeinsight/shared/parse"
	"tubeinsight/shared/prompt"
	"tubeinsight/shared/schema"
)

// State names one position in the stage machine. DEGRADED is absorbing: once
// a stage fails the run can never return to the happy path, but remaining
// stages still execute.
type State string

const (
	StateInit              State = "INIT"
	StateMetadataFetched   State = "METADATA_FETCHED"
	StateTranscriptFetched State = "TRANSCRIPT_FETCHED"
	StateModelInvoked      State = "MODEL_INVOKED"
	StateExtracted         State = "EXTRACTED"
	StateDone              State = "DONE"
	StateDegraded          State = "DEGRADED"
)

// MetadataProvider fetches video metadata without the transcript. A (nil, nil)
// return means the video does not exist.
type MetadataProvider interface {
	Fetch(ctx context.Context, videoID string) (*models.Video, error)
}

// TranscriptProvider fetches the timed transcript. A (nil, nil) return means
// no caption track is available.
type TranscriptProvider interface {
	Fetch(ctx context.Context, videoID string) ([]models.TranscriptSegment, error)
}

// ModelClient is the completion surface the orchestrator invokes.
type ModelClient interface {
	ModelName() string
	Complete(ctx context.Context, prompt string, schemaHint string) (string, error)
}

// Result is what a run produces: the terminal state, the persisted run record
// and the analysis. Analysis is never nil; a fully failed run still carries a
// default-filled record.
type Result struct {
	State    State
	RunState *models.RunState
	Video    *models.Video
	Analysis *models.Analysis
}

// Degraded reports whether any stage failed during the run.
func (r *Result) Degraded() bool {
	return r.State != StateDone
}

// Orchestrator drives the stage machine. It is safe for concurrent use as
// long as the providers and model client are.
type Orchestrator struct {
	metadata     MetadataProvider
	transcripts  TranscriptProvider
	model        ModelClient
	prompts      *prompt.Builder
	stageTimeout time.Duration
	log          *logrus.Entry
}

func NewOrchestrator(metadata MetadataProvider, transcripts TranscriptProvider, model ModelClient, stageTimeout time.Duration, log *logrus.Entry) *Orchestrator {
	if stageTimeout <= 0 {
		stageTimeout = 60 * time.Second
	}
	return &Orchestrator{
		metadata:     metadata,
		transcripts:  transcripts,
		model:        model,
		prompts:      prompt.NewBuilder(),
		stageTimeout: stageTimeout,
		log:          log,
	}
}

// Run executes the full pipeline for one video URL. It always returns a
// terminal Result and never an error: collaborator failures are recorded on
// the run state and the run continues on defaults. Only ctx cancellation is
// surfaced, and even then as a DEGRADED result rather than a fault.
func (o *Orchestrator) Run(ctx context.Context, videoURL string) *Result {
	state := models.NewRunState(videoURL, o.model.ModelName())
	state.StartTime = time.Now().UTC().Format(time.RFC3339)

	log := o.log.WithField("run_id", state.RunID)
	current := StateInit

	videoID := ExtractVideoID(videoURL)
	state.VideoID = videoID
	if videoID == "" {
		log.WithField("url", videoURL).Warn("Could not extract a video id from input")
		state.RecordError("input", fmt.Errorf("%w: %q", ErrInvalidInput, videoURL))
		videoID = "unknown"
		state.VideoID = videoID
		current = StateDegraded
	}

	// Stage 1: metadata.
	video := o.fetchMetadata(ctx, videoID, state, log)
	if state.MetadataFetchCompleted && current != StateDegraded {
		current = StateMetadataFetched
	} else {
		current = StateDegraded
	}

	// Stage 2: transcript.
	o.fetchTranscript(ctx, videoID, video, state, log)
	if state.TranscriptExtractionCompleted && current != StateDegraded {
		current = StateTranscriptFetched
	} else {
		current = StateDegraded
	}

	// Stage 3: model invocation.
	raw := o.invokeModel(ctx, video, state, log)
	if state.ModelInvocationCompleted && current != StateDegraded {
		current = StateModelInvoked
	} else {
		current = StateDegraded
	}

	// Stage 4: extraction. Always yields a schema-valid record, even from an
	// empty response.
	analysis := o.extract(raw, video, state, log)
	if state.AnalysisExtractionCompleted && current != StateDegraded {
		current = StateExtracted
	} else {
		current = StateDegraded
	}

	state.VideoData = video
	state.AnalysisResult = analysis
	state.EndTime = time.Now().UTC().Format(time.RFC3339)

	if current == StateExtracted && state.Completed() {
		current = StateDone
		log.Info("Pipeline run completed")
	} else {
		current = StateDegraded
		log.WithFields(logrus.Fields{
			"error_node": state.ErrorNode,
			"error":      state.Error,
		}).Warn("Pipeline run degraded")
	}

	return &Result{
		State:    current,
		RunState: state,
		Video:    video,
		Analysis: analysis,
	}
}

// fetchMetadata returns real metadata on success or an unknown-video
// placeholder on any failure. The pipeline never proceeds with a nil video.
func (o *Orchestrator) fetchMetadata(ctx context.Context, videoID string, state *models.RunState, log *logrus.Entry) *models.Video {
	if state.ErrorNode == "input" {
		return models.UnknownVideo(videoID)
	}

	stageCtx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	defer cancel()

	video, err := o.metadata.Fetch(stageCtx, videoID)
	if err == nil && video == nil {
		err = fmt.Errorf("%w: video %s", ErrNotFound, videoID)
	}
	if err != nil {
		err = classifyTimeout(stageCtx, err)
		log.WithError(err).WithField("video_id", videoID).Warn("Metadata fetch failed")
		state.RecordError("metadata_fetch", err)
		return models.UnknownVideo(videoID)
	}

	schema.NormalizeVideo(video)
	state.MetadataFetchCompleted = true
	log.WithFields(logrus.Fields{
		"video_id": videoID,
		"title":    video.Title,
	}).Info("Fetched video metadata")
	return video
}

// fetchTranscript attaches the transcript to the video. A missing caption
// track counts as a stage failure; the video keeps an empty transcript and
// downstream stages work from metadata alone.
func (o *Orchestrator) fetchTranscript(ctx context.Context, videoID string, video *models.Video, state *models.RunState, log *logrus.Entry) {
	if state.ErrorNode == "input" {
		return
	}

	stageCtx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	defer cancel()

	segments, err := o.transcripts.Fetch(stageCtx, videoID)
	if err == nil && segments == nil {
		err = fmt.Errorf("%w: no transcript available for %s", ErrNotFound, videoID)
	}
	if err != nil {
		err = classifyTimeout(stageCtx, err)
		log.WithError(err).WithField("video_id", videoID).Warn("Transcript fetch failed")
		state.RecordError("transcript_fetch", err)
		video.Transcript = nil
		return
	}

	video.Transcript = schema.NormalizeSegments(segments)
	state.TranscriptExtractionCompleted = true
	log.WithFields(logrus.Fields{
		"video_id": videoID,
		"segments": len(video.Transcript),
	}).Info("Fetched transcript")
}

// invokeModel sends the analysis prompt and returns the raw response text, or
// "" when the stage fails. The prompt is built even for placeholder metadata
// and empty transcripts.
func (o *Orchestrator) invokeModel(ctx context.Context, video *models.Video, state *models.RunState, log *logrus.Entry) string {
	stageCtx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	defer cancel()

	p := o.prompts.Build(video)
	raw, err := o.model.Complete(stageCtx, p, prompt.SchemaHint())
	if err != nil {
		err = classifyTimeout(stageCtx, err)
		log.WithError(err).WithField("model", o.model.ModelName()).Warn("Model invocation failed")
		state.RecordError("model_invocation", err)
		return ""
	}

	state.ModelInvocationCompleted = true
	log.WithFields(logrus.Fields{
		"model":        o.model.ModelName(),
		"response_len": len(raw),
	}).Info("Model invocation succeeded")
	return raw
}

// extract turns the raw model output into a validated analysis record. Strict
// parsing first; when that fails, the heuristic fallback recovers whatever
// the text contains and the schema contract fills the rest with defaults.
// The stage flag only flips on a strict parse, so a fallback-recovered record
// still leaves the run degraded.
func (o *Orchestrator) extract(raw string, video *models.Video, state *models.RunState, log *logrus.Entry) *models.Analysis {
	analysis, issues, err := parse.StrictParse(raw, video)
	if err == nil {
		state.AnalysisExtractionCompleted = true
		if len(issues) > 0 {
			log.WithField("issues", len(issues)).Debug("Extraction coerced some fields to defaults")
		}
		log.Info("Structured extraction succeeded")
		return analysis
	}

	// Only report the parse failure when the model actually produced output.
	// An empty response was already recorded against model_invocation.
	if state.ModelInvocationCompleted {
		log.WithError(err).Warn("Strict parse failed, falling back to heuristic extraction")
		state.RecordError("extraction", err)
	}
	return parse.Extract(raw, video)
}

// classifyTimeout rewrites deadline errors into the stage timeout sentinel so
// the recorded error names the real cause instead of a generic context error.
func classifyTimeout(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}
