package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"tubeinsight/internal/models"
)

// Assembler merges the stage outputs into the final record and writes the
// per-run output files. Assembly is pure; only Persist touches the
// filesystem.
type Assembler struct {
	outputDir string
}

func NewAssembler(outputDir string) *Assembler {
	return &Assembler{outputDir: outputDir}
}

// Assemble attaches the video metadata to the analysis record and mirrors
// both onto the run state. Safe on degraded results: a placeholder video and
// default-filled analysis assemble the same way real ones do.
func (a *Assembler) Assemble(result *Result) *models.RunState {
	if result.Analysis != nil {
		result.Analysis.OriginalData = result.Video
	}
	result.RunState.VideoData = result.Video
	result.RunState.AnalysisResult = result.Analysis
	return result.RunState
}

// Persist writes the analysis record and the workflow state as two JSON files
// named after the video id. Returns the analysis file path.
func (a *Assembler) Persist(result *Result) (string, error) {
	state := a.Assemble(result)

	if err := os.MkdirAll(a.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	analysisPath := filepath.Join(a.outputDir, fmt.Sprintf("%s_analysis_data.json", state.VideoID))
	if err := writeJSON(analysisPath, result.Analysis); err != nil {
		return "", fmt.Errorf("failed to write analysis file: %w", err)
	}

	statePath := filepath.Join(a.outputDir, fmt.Sprintf("%s_workflow_state.json", state.VideoID))
	if err := state.SaveToFile(statePath); err != nil {
		return "", fmt.Errorf("failed to write workflow state file: %w", err)
	}

	return analysisPath, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".analysis-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
