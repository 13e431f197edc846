package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// RunState tracks one pipeline execution from start to finish. Stages flip
// their completion flag as they succeed; the first failing stage records its
// name and error. Once the orchestrator returns it, the state is terminal.
type RunState struct {
	RunID     string `json:"run_id"`
	VideoID   string `json:"video_id,omitempty"`
	VideoURL  string `json:"video_url,omitempty"`
	ModelName string `json:"model_name,omitempty"`

	MetadataFetchCompleted        bool `json:"metadata_fetch_completed"`
	TranscriptExtractionCompleted bool `json:"transcript_extraction_completed"`
	ModelInvocationCompleted      bool `json:"model_invocation_completed"`
	AnalysisExtractionCompleted   bool `json:"analysis_extraction_completed"`

	VideoData      *Video    `json:"video_data,omitempty"`
	AnalysisResult *Analysis `json:"analysis_result,omitempty"`

	Error     string `json:"error,omitempty"`
	ErrorNode string `json:"error_node,omitempty"`

	StartTime string `json:"start_time,omitempty"` // ISO-8601
	EndTime   string `json:"end_time,omitempty"`   // ISO-8601
}

// NewRunState creates a fresh state with all completion flags false.
func NewRunState(videoURL, modelName string) *RunState {
	return &RunState{
		RunID:     uuid.New().String(),
		VideoURL:  videoURL,
		ModelName: modelName,
	}
}

// Completed reports whether every stage finished successfully.
func (s *RunState) Completed() bool {
	return s.MetadataFetchCompleted &&
		s.TranscriptExtractionCompleted &&
		s.ModelInvocationCompleted &&
		s.AnalysisExtractionCompleted
}

// RecordError notes the first failing stage. Later failures are appended so
// a multi-stage degradation stays visible in the output file.
func (s *RunState) RecordError(node string, err error) {
	if err == nil {
		return
	}
	if s.Error == "" {
		s.Error = err.Error()
		s.ErrorNode = node
		return
	}
	s.Error = fmt.Sprintf("%s; %s: %s", s.Error, node, err.Error())
}

// SaveToFile writes the state as indented JSON via a temp file and rename, so
// a crashed run never leaves a half-written state behind.
func (s *RunState) SaveToFile(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run state: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".runstate-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write run state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// LoadRunState reads a previously saved state file.
func LoadRunState(path string) (*RunState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run state file: %w", err)
	}
	var state RunState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode run state file: %w", err)
	}
	return &state, nil
}
