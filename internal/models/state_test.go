package models

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestNewRunState(t *testing.T) {
	s := NewRunState("https://youtu.be/abc123def45", "gemini-2.5-flash")

	if s.RunID == "" {
		t.Error("run id not assigned")
	}
	if s.VideoURL != "https://youtu.be/abc123def45" {
		t.Errorf("video url = %q", s.VideoURL)
	}
	if s.Completed() {
		t.Error("fresh state should not be completed")
	}

	other := NewRunState("https://youtu.be/abc123def45", "gemini-2.5-flash")
	if other.RunID == s.RunID {
		t.Error("run ids should be unique")
	}
}

func TestCompleted(t *testing.T) {
	s := NewRunState("url", "model")
	s.MetadataFetchCompleted = true
	s.TranscriptExtractionCompleted = true
	s.ModelInvocationCompleted = true
	if s.Completed() {
		t.Error("three of four flags should not complete the run")
	}
	s.AnalysisExtractionCompleted = true
	if !s.Completed() {
		t.Error("all flags set should complete the run")
	}
}

func TestRecordError(t *testing.T) {
	s := NewRunState("url", "model")

	s.RecordError("metadata_fetch", nil)
	if s.Error != "" || s.ErrorNode != "" {
		t.Error("nil error should record nothing")
	}

	s.RecordError("metadata_fetch", errors.New("api down"))
	if s.ErrorNode != "metadata_fetch" {
		t.Errorf("error node = %q", s.ErrorNode)
	}
	if s.Error != "api down" {
		t.Errorf("error = %q", s.Error)
	}

	// A later failure keeps the first node but appends its message.
	s.RecordError("transcript_fetch", errors.New("no track"))
	if s.ErrorNode != "metadata_fetch" {
		t.Errorf("error node changed to %q", s.ErrorNode)
	}
	if s.Error != "api down; transcript_fetch: no track" {
		t.Errorf("error = %q", s.Error)
	}
}

func TestSaveAndLoadRunState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")

	s := NewRunState("https://youtu.be/abc123def45", "gemini-2.5-flash")
	s.VideoID = "abc123def45"
	s.MetadataFetchCompleted = true
	s.RecordError("transcript_fetch", errors.New("no track"))
	s.VideoData = UnknownVideo("abc123def45")
	s.AnalysisResult = &Analysis{Summary: "test summary", Sentiment: SentimentNeutral}

	if err := s.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}

	loaded, err := LoadRunState(path)
	if err != nil {
		t.Fatalf("LoadRunState failed: %v", err)
	}
	if loaded.RunID != s.RunID {
		t.Errorf("run id = %q, want %q", loaded.RunID, s.RunID)
	}
	if !loaded.MetadataFetchCompleted || loaded.TranscriptExtractionCompleted {
		t.Error("completion flags did not round trip")
	}
	if loaded.ErrorNode != "transcript_fetch" {
		t.Errorf("error node = %q", loaded.ErrorNode)
	}
	if loaded.AnalysisResult == nil || loaded.AnalysisResult.Summary != "test summary" {
		t.Error("analysis result did not round trip")
	}
	if loaded.VideoData == nil || loaded.VideoData.Title != "Error retrieving data" {
		t.Error("video data did not round trip")
	}
}

func TestLoadRunStateErrors(t *testing.T) {
	if _, err := LoadRunState(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestUnknownVideo(t *testing.T) {
	v := UnknownVideo("abc123def45")
	if v.VideoID != "abc123def45" {
		t.Errorf("video id = %q", v.VideoID)
	}
	if v.Title != "Error retrieving data" || v.Channel != "Unknown" {
		t.Errorf("placeholder fields wrong: %+v", v)
	}
	if v.Transcript == nil || v.Tags == nil {
		t.Error("slices should be empty, not nil")
	}
}

func TestTranscriptHelpers(t *testing.T) {
	v := &Video{Transcript: []TranscriptSegment{
		{Text: "hello", Start: 0, Duration: 2},
		{Text: "world", Start: 10, Duration: 5},
	}}

	if v.TranscriptEnd() != 15 {
		t.Errorf("TranscriptEnd() = %v", v.TranscriptEnd())
	}
	if v.TranscriptText() != "hello world" {
		t.Errorf("TranscriptText() = %q", v.TranscriptText())
	}

	empty := &Video{}
	if empty.TranscriptEnd() != 0 || empty.TranscriptText() != "" {
		t.Error("empty transcript helpers wrong")
	}
}
