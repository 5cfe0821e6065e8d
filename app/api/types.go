package api

import (
	"github.com/lysyi3m/rss-scrape/app/feed"
	"github.com/lysyi3m/rss-scrape/app/tasks"
)

type Handler struct {
	configCache *feed.ConfigCache
	scheduler   tasks.TaskSchedulerInterface
	outputPath  string
	version     string
}
