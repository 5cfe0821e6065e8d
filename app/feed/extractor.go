package feed

import (
	"log/slog"
	"slices"
	"strings"
	"time"
)

type Extractor struct {
	filterer *Filterer
}

func NewExtractor(filterer *Filterer) *Extractor {
	return &Extractor{filterer: filterer}
}

// Run turns the post containers of doc into complete posts. A post missing its
// title, body or link is skipped; it never aborts the run. A document with no
// containers at all is reported as a DriftError.
func (e *Extractor) Run(doc Document, feedConfig *Config) (*Extraction, error) {
	containers := doc.FindAll(feedConfig.Selectors.Post)
	if len(containers) == 0 {
		return nil, &DriftError{Selector: feedConfig.Selectors.Post}
	}

	considered := e.selectContainers(containers, feedConfig.Settings)

	extraction := &Extraction{
		Posts:      make([]Post, 0, len(considered)),
		Containers: len(containers),
		Considered: len(considered),
		SkipCounts: make(map[SkipReason]int),
	}

	for i, container := range considered {
		post, reason, ok := e.extractPost(container, feedConfig)
		if !ok {
			extraction.Skipped++
			extraction.SkipCounts[reason]++
			slog.Debug("Post skipped", "feed", feedConfig.Name, "index", i, "reason", reason)
			continue
		}

		if e.filterer != nil {
			if filtered, filterReason := e.filterer.Run(post, feedConfig.Filters); filtered {
				extraction.Filtered++
				slog.Debug("Post filtered", "feed", feedConfig.Name, "link", post.Link, "reason", filterReason)
				continue
			}
		}

		extraction.Posts = append(extraction.Posts, post)
	}

	if extraction.Considered > 0 && extraction.Skipped == extraction.Considered {
		return extraction, ErrNoPosts
	}

	return extraction, nil
}

// selectContainers applies traversal order first, then the max items cap.
func (e *Extractor) selectContainers(containers []Node, settings ConfigSettings) []Node {
	ordered := slices.Clone(containers)
	if settings.Order == OrderOldestFirst {
		slices.Reverse(ordered)
	}

	if settings.MaxItems > 0 && len(ordered) > settings.MaxItems {
		ordered = ordered[:settings.MaxItems]
	}

	return ordered
}

func (e *Extractor) extractPost(container Node, feedConfig *Config) (Post, SkipReason, bool) {
	selectors := feedConfig.Selectors

	var post Post

	if titleNode, ok := container.Find(selectors.Title); ok {
		post.Title = titleNode.Text()
	}
	if post.Title == "" {
		return Post{}, SkipMissingTitle, false
	}

	if bodyNode, ok := container.Find(selectors.Body); ok {
		post.Body = bodyNode.Text()
	}
	if post.Body == "" {
		return Post{}, SkipMissingBody, false
	}

	if linkNode, ok := container.Find(selectors.Link); ok {
		if link, ok := linkNode.Attr(selectors.LinkAttr); ok {
			post.Link = link
		}
	}
	if strings.TrimSpace(post.Link) == "" {
		return Post{}, SkipMissingLink, false
	}

	if selectors.Date != "" {
		post.PublishedAt = e.extractDate(container, feedConfig)
		if post.PublishedAt == nil && feedConfig.Settings.DatePolicy == DatePolicyRequired {
			return Post{}, SkipMissingDate, false
		}
	}

	return post, "", true
}

func (e *Extractor) extractDate(container Node, feedConfig *Config) *time.Time {
	dateNode, ok := container.Find(feedConfig.Selectors.Date)
	if !ok {
		return nil
	}

	raw, ok := dateNode.Attr(feedConfig.Selectors.DateAttr)
	if !ok {
		return nil
	}

	published, err := ParseTimestamp(raw)
	if err != nil {
		slog.Debug("Unparseable post timestamp", "feed", feedConfig.Name, "value", raw, "error", err)
		return nil
	}

	return &published
}
