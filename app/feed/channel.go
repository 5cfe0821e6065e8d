package feed

import (
	"bytes"
	"log/slog"
	"net/url"

	"codeberg.org/readeck/go-readability"
)

type ChannelResolver struct{}

func NewChannelResolver() *ChannelResolver {
	return &ChannelResolver{}
}

// Run builds the channel metadata for a run. Title and description come from
// the profile; when either is empty it is read from the page itself.
func (r *ChannelResolver) Run(feedConfig *Config, page []byte, selfURL string) Channel {
	channel := Channel{
		Title:       feedConfig.Channel.Title,
		Link:        feedConfig.Channel.Link,
		Description: feedConfig.Channel.Description,
		Language:    feedConfig.Channel.Language,
		SelfURL:     selfURL,
	}
	if channel.Link == "" {
		channel.Link = feedConfig.URL
	}

	if channel.Title != "" && channel.Description != "" {
		return channel
	}

	pageURL, err := url.Parse(feedConfig.URL)
	if err != nil {
		pageURL = nil
	}

	article, err := readability.FromReader(bytes.NewReader(page), pageURL)
	if err != nil {
		slog.Debug("Page metadata unavailable", "feed", feedConfig.Name, "error", err)
	} else {
		if channel.Title == "" {
			channel.Title = NormalizeText(article.Title)
		}
		if channel.Description == "" {
			channel.Description = NormalizeText(article.Excerpt)
		}
		slog.Debug("Channel metadata derived from page", "feed", feedConfig.Name, "title", channel.Title)
	}

	if channel.Title == "" {
		channel.Title = channel.Link
	}

	return channel
}
