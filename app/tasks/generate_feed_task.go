package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/rss-scrape/app/feed"
)

// Outcome classifies how a pipeline run ended.
type Outcome string

const (
	OutcomeSuccess       Outcome = "success"
	OutcomeFetch         Outcome = "fetch_failed"
	OutcomeDrift         Outcome = "selector_drift"
	OutcomeNoPosts       Outcome = "no_posts"
	OutcomeSerialization Outcome = "serialization_failed"
	OutcomeFailed        Outcome = "failed"
)

// Classify maps a run error onto an Outcome.
func Classify(err error) Outcome {
	var fetchErr *feed.FetchError
	var driftErr *feed.DriftError
	var serializationErr *feed.SerializationError

	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.As(err, &fetchErr):
		return OutcomeFetch
	case errors.As(err, &driftErr):
		return OutcomeDrift
	case errors.Is(err, feed.ErrNoPosts):
		return OutcomeNoPosts
	case errors.As(err, &serializationErr):
		return OutcomeSerialization
	default:
		return OutcomeFailed
	}
}

// Result records one pipeline run.
type Result struct {
	FeedName   string
	Path       string
	Extraction *feed.Extraction
	StartedAt  time.Time
	FinishedAt time.Time
	Err        error
}

func (r *Result) Outcome() Outcome {
	return Classify(r.Err)
}

type GenerateFeedTask struct {
	Task
	FeedConfig   *feed.Config
	OutputPath   string
	SnapshotPath string
	SelfURL      string
	fetcher      PageFetcher
	parse        DocumentParser
	extractor    *feed.Extractor
	resolver     *feed.ChannelResolver
	generator    *feed.Generator
	writer       FeedWriter
}

// Pipeline bundles the collaborators shared by every GenerateFeedTask.
type Pipeline struct {
	Fetcher   PageFetcher
	Parse     DocumentParser
	Extractor *feed.Extractor
	Resolver  *feed.ChannelResolver
	Generator *feed.Generator
	Writer    FeedWriter
}

// NewPipeline wires the default collaborators.
func NewPipeline(fetcher PageFetcher, version string) Pipeline {
	return Pipeline{
		Fetcher:   fetcher,
		Parse:     feed.NewDocument,
		Extractor: feed.NewExtractor(feed.NewFilterer()),
		Resolver:  feed.NewChannelResolver(),
		Generator: feed.NewGenerator(version),
		Writer:    feed.NewWriter(),
	}
}

func NewGenerateFeedTask(feedConfig *feed.Config, pipeline Pipeline, outputPath, snapshotPath, selfURL string) *GenerateFeedTask {
	return &GenerateFeedTask{
		Task:         NewTask(TaskTypeGenerateFeed, feedConfig.Name),
		FeedConfig:   feedConfig,
		OutputPath:   outputPath,
		SnapshotPath: snapshotPath,
		SelfURL:      selfURL,
		fetcher:      pipeline.Fetcher,
		parse:        pipeline.Parse,
		extractor:    pipeline.Extractor,
		resolver:     pipeline.Resolver,
		generator:    pipeline.Generator,
		writer:       pipeline.Writer,
	}
}

// Execute runs fetch, parse, extract and write. The output file is only
// replaced when every step succeeds.
func (t *GenerateFeedTask) Execute(ctx context.Context) error {
	if t.StartedAt == nil {
		t.Start()
	}
	t.Result = &Result{
		FeedName:  t.FeedName,
		Path:      t.OutputPath,
		StartedAt: *t.StartedAt,
	}

	err := t.run(ctx)
	t.Result.Err = err
	t.Result.FinishedAt = time.Now()

	if err != nil {
		slog.Error("Task failed",
			"type", string(t.Type),
			"feed", t.FeedName,
			"outcome", string(Classify(err)),
			"duration", t.GetDuration(),
			"error", err)
	}
	return err
}

func (t *GenerateFeedTask) run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	timeout := time.Duration(t.FeedConfig.Settings.Timeout) * time.Second
	page, err := t.fetcher.Fetch(ctx, t.FeedConfig.URL, timeout)
	if err != nil {
		return err
	}

	if t.SnapshotPath != "" {
		if err := t.writer.WriteSnapshot(t.SnapshotPath, page); err != nil {
			slog.Warn("Failed to write snapshot", "feed", t.FeedName, "path", t.SnapshotPath, "error", err)
		}
	}

	doc, err := t.parse(page)
	if err != nil {
		return fmt.Errorf("failed to parse page: %w", err)
	}

	extraction, err := t.extractor.Run(doc, t.FeedConfig)
	t.Result.Extraction = extraction
	if err != nil {
		return err
	}

	channel := t.resolver.Run(t.FeedConfig, page, t.SelfURL)

	data, err := t.generator.Run(channel, extraction.Posts)
	if err != nil {
		return &feed.SerializationError{Path: t.OutputPath, Err: err}
	}

	if err := t.writer.Write(t.OutputPath, data); err != nil {
		return err
	}

	if extraction.Skipped > 0 {
		slog.Warn("Some posts were skipped",
			"feed", t.FeedName,
			"skipped", extraction.Skipped,
			"reasons", extraction.SkipCounts)
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"feed", t.FeedName,
		"duration", t.GetDuration(),
		"total", extraction.Containers,
		"considered", extraction.Considered,
		"included", len(extraction.Posts),
		"skipped", extraction.Skipped,
		"filtered", extraction.Filtered,
		"output", t.OutputPath)

	return nil
}
