package tasks

import (
	"context"
	"time"

	"github.com/lysyi3m/rss-scrape/app/feed"
)

// PageFetcher retrieves the raw page for a run. Implemented by feed.Fetcher.
type PageFetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) ([]byte, error)
}

// DocumentParser turns raw page bytes into a queryable document.
type DocumentParser func(data []byte) (feed.Document, error)

// FeedWriter persists the generated feed. Implemented by feed.Writer.
type FeedWriter interface {
	Write(path string, data []byte) error
	WriteSnapshot(path string, data []byte) error
}

// TaskSchedulerInterface defines the interface for serve-mode scheduling.
// Example usage:
//
//	scheduler := NewScheduler(factory, interval)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.Refresh()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	Refresh() error
	LastResult() *Result
}
