// Package videoinsight wires the analysis pipeline into a runnable agent:
// single-video runs, batch runs over a URL file with a worker pool, and
// scheduled watch-mode runs.
package videoinsight

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"tubeinsight/agents/video-insight/transcript"
	"tubeinsight/agents/video-insight/youtube"
	"tubeinsight/shared/ai"
	"tubeinsight/shared/config"
	"tubeinsight/shared/pipeline"
	"tubeinsight/shared/scheduler"
	"tubeinsight/shared/storage"
)

// Agent implements scheduler.Agent. Input is either a single video URL or,
// in batch mode, a file of URLs processed concurrently.
type Agent struct {
	config       *config.Config
	input        string
	batchMode    bool
	orchestrator *pipeline.Orchestrator
	assembler    *pipeline.Assembler
	log          *logrus.Entry
}

func NewAgent(cfg *config.Config, input string, batchMode bool, log *logrus.Entry) *Agent {
	return &Agent{
		config:    cfg,
		input:     input,
		batchMode: batchMode,
		log:       log,
	}
}

func (a *Agent) Name() string {
	return "Video Insight"
}

// Initialize builds the pipeline collaborators. Idempotent, so watch mode can
// call it again without re-running OAuth flows.
func (a *Agent) Initialize(ctx context.Context) error {
	if a.orchestrator != nil {
		return nil
	}

	a.log.Infof("Initializing %s...", a.Name())

	cache, err := storage.NewChannelCache(a.config.Cache.Dir, time.Duration(a.config.Cache.TTLHours)*time.Hour)
	if err != nil {
		return fmt.Errorf("failed to create channel cache: %w", err)
	}
	a.log.WithField("entries", cache.Len()).Debug("Channel cache loaded")

	youtubeClient, err := youtube.NewClient(ctx, &a.config.YouTube, cache, a.log)
	if err != nil {
		return fmt.Errorf("failed to create YouTube client: %w", err)
	}

	modelClient, err := ai.NewClient(ctx, &a.config.AI)
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}

	transcriptClient := transcript.NewClient(a.config.Pipeline.TranscriptLanguage, a.log)

	a.orchestrator = pipeline.NewOrchestrator(
		youtubeClient,
		transcriptClient,
		modelClient,
		time.Duration(a.config.Pipeline.StageTimeoutSeconds)*time.Second,
		a.log,
	)
	a.assembler = pipeline.NewAssembler(a.config.Pipeline.OutputDir)
	return nil
}

// ProcessVideo runs the full pipeline for one URL and persists the result.
// The returned result is terminal even when persistence fails.
func (a *Agent) ProcessVideo(ctx context.Context, videoURL string) (*pipeline.Result, error) {
	result := a.orchestrator.Run(ctx, videoURL)

	path, err := a.assembler.Persist(result)
	if err != nil {
		return result, fmt.Errorf("failed to persist run output: %w", err)
	}

	a.log.WithFields(logrus.Fields{
		"video_id": result.RunState.VideoID,
		"state":    string(result.State),
		"output":   path,
	}).Info("Video processed")
	return result, nil
}

// Metrics summarizes a batch run for the scheduler.
type Metrics struct {
	Total    int
	Done     int
	Degraded int
}

func (m *Metrics) GetSummary() string {
	return fmt.Sprintf("%d videos processed (%d complete, %d degraded)", m.Total, m.Done, m.Degraded)
}

// ProcessBatch fans the URLs out over the configured number of workers. Every
// URL produces an output file; per-video degradation never stops the batch.
func (a *Agent) ProcessBatch(ctx context.Context, urls []string) *Metrics {
	workers := a.config.Pipeline.Workers
	if workers > len(urls) {
		workers = len(urls)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan string)
	metrics := &Metrics{Total: len(urls)}
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for videoURL := range jobs {
				result, err := a.ProcessVideo(ctx, videoURL)
				if err != nil {
					a.log.WithError(err).WithField("url", videoURL).Error("Failed to persist video output")
				}

				mu.Lock()
				if result.State == pipeline.StateDone {
					metrics.Done++
				} else {
					metrics.Degraded++
				}
				mu.Unlock()
			}
		}()
	}

	for _, videoURL := range urls {
		select {
		case jobs <- videoURL:
		case <-ctx.Done():
			// Stop feeding; in-flight videos finish on their own.
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()

	return metrics
}

// RunOnce processes the configured input once. Batch files are re-read on
// every invocation so watch mode picks up edits between runs.
func (a *Agent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := time.Now()

	urls, err := a.resolveInput()
	if err != nil {
		if events != nil && events.OnCriticalFailure != nil {
			events.OnCriticalFailure(err, time.Since(startTime))
		}
		return err
	}

	a.log.WithField("videos", len(urls)).Info("Processing videos")
	metrics := a.ProcessBatch(ctx, urls)
	duration := time.Since(startTime)

	if events != nil {
		if metrics.Degraded > 0 && events.OnPartialFailure != nil {
			events.OnPartialFailure(fmt.Errorf("%d of %d videos degraded", metrics.Degraded, metrics.Total), duration)
		} else if events.OnSuccess != nil {
			events.OnSuccess(metrics, duration)
		}
	}

	a.log.Infof("Run complete: %s", metrics.GetSummary())
	return nil
}

func (a *Agent) resolveInput() ([]string, error) {
	if !a.batchMode {
		return []string{a.input}, nil
	}
	urls, err := readURLFile(a.input)
	if err != nil {
		return nil, err
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("no video URLs found in %s", a.input)
	}
	return urls, nil
}

// readURLFile reads one URL per line, skipping blanks and # comments.
func readURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open URL file: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URL file: %w", err)
	}
	return urls, nil
}

var _ scheduler.Agent = (*Agent)(nil)
