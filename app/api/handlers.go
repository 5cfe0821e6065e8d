package api

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/rss-scrape/app/feed"
	"github.com/lysyi3m/rss-scrape/app/tasks"
)

func NewHandler(configCache *feed.ConfigCache, scheduler tasks.TaskSchedulerInterface, outputPath, version string) *Handler {
	return &Handler{
		configCache: configCache,
		scheduler:   scheduler,
		outputPath:  outputPath,
		version:     version,
	}
}

// GetFeed serves the last feed file written by the pipeline.
func (h *Handler) GetFeed(c *gin.Context) {
	info, err := os.Stat(h.outputPath)
	if errors.Is(err, fs.ErrNotExist) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Feed has not been generated yet"})
		return
	}
	if err != nil {
		slog.Error("Failed to stat feed file", "path", h.outputPath, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	data, err := os.ReadFile(h.outputPath)
	if err != nil {
		slog.Error("Failed to read feed file", "path", h.outputPath, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	if result := h.scheduler.LastResult(); result != nil && result.Extraction != nil {
		c.Header("X-Feed-Items", strconv.Itoa(len(result.Extraction.Posts)))
	}
	c.Header("X-Last-Updated", info.ModTime().UTC().Format(time.RFC3339))

	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", data)
}

// GetHealth reports the outcome of the most recent run. A failed run keeps
// the previous feed online but marks the service unhealthy.
func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   h.version,
	}

	result := h.scheduler.LastResult()
	if result == nil {
		health["status"] = "pending"
		c.JSON(http.StatusOK, health)
		return
	}

	outcome := result.Outcome()
	run := map[string]interface{}{
		"feed":        result.FeedName,
		"outcome":     string(outcome),
		"started_at":  result.StartedAt.Format(time.RFC3339),
		"finished_at": result.FinishedAt.Format(time.RFC3339),
	}
	if result.Err != nil {
		run["error"] = result.Err.Error()
	}
	if result.Extraction != nil {
		run["posts"] = map[string]interface{}{
			"containers": result.Extraction.Containers,
			"considered": result.Extraction.Considered,
			"included":   len(result.Extraction.Posts),
			"skipped":    result.Extraction.Skipped,
			"filtered":   result.Extraction.Filtered,
		}
	}
	health["last_run"] = run

	if outcome != tasks.OutcomeSuccess {
		health["status"] = "failing"
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}

	health["status"] = "ok"
	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetConfig(c *gin.Context) {
	feedConfig, err := h.configCache.GetConfig()
	if err != nil {
		slog.Error("Feed configuration not loaded", "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed configuration not loaded"})
		return
	}

	details := map[string]interface{}{
		"name":        feedConfig.Name,
		"url":         feedConfig.URL,
		"channel":     feedConfig.Channel,
		"selectors":   feedConfig.Selectors,
		"max_items":   feedConfig.Settings.MaxItems,
		"order":       feedConfig.Settings.Order,
		"date_policy": feedConfig.Settings.DatePolicy,
		"timeout":     (time.Duration(feedConfig.Settings.Timeout) * time.Second).String(),
		"filters":     feedConfig.Filters,
	}

	c.JSON(http.StatusOK, details)
}

// Refresh queues an immediate pipeline run.
func (h *Handler) Refresh(c *gin.Context) {
	err := h.scheduler.Refresh()
	if errors.Is(err, tasks.ErrQueueFull) {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":   "A run is already pending",
			"details": err.Error(),
		})
		return
	}
	if err != nil {
		slog.Error("Error enqueueing refresh", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue refresh",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Refresh enqueued",
	})
}
