package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	videoinsight "tubeinsight/agents/video-insight"
	"tubeinsight/shared/config"
	"tubeinsight/shared/logging"
	"tubeinsight/shared/scheduler"
)

func main() {
	batchMode := flag.Bool("b", false, "treat the input as a file of video URLs, one per line")
	model := flag.String("m", "", "override the configured model name")
	stageTimeout := flag.Int("s", 0, "override the per-stage timeout in seconds")
	watch := flag.Bool("watch", false, "run on the configured schedule instead of once")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <video-url | urls-file>\n\nFlags:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	input := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *model != "" {
		cfg.AI.Model = *model
	}
	if *stageTimeout > 0 {
		cfg.Pipeline.StageTimeoutSeconds = *stageTimeout
	}

	log := logging.ForComponent(logging.New(cfg.LogLevel), "video-insight")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Watch mode implies batch: the URL file is re-read before every
	// scheduled run.
	agent := videoinsight.NewAgent(cfg, input, *batchMode || *watch, log)
	s := scheduler.New(cfg, agent, log)

	if *watch {
		if err := s.Start(ctx); err != nil && ctx.Err() == nil {
			log.WithError(err).Fatal("Scheduler failed")
		}
		return
	}

	if err := agent.Initialize(ctx); err != nil {
		log.WithError(err).Fatal("Failed to initialize agent")
	}
	if err := s.RunOnce(ctx); err != nil {
		log.WithError(err).Fatal("Run failed")
	}
}
