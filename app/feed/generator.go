package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"time"
)

type Generator struct {
	version string
}

func NewGenerator(version string) *Generator {
	return &Generator{version: version}
}

// Run renders an RSS 2.0 document. Output depends only on its inputs, so the
// same page always yields byte-identical feeds.
func (g *Generator) Run(channel Channel, posts []Post) ([]byte, error) {
	if channel.Title == "" {
		return nil, fmt.Errorf("channel title is required")
	}
	if channel.Link == "" {
		return nil, fmt.Errorf("channel link is required")
	}

	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", channel.Title, 4)
	g.writeElement(&buf, "link", channel.Link, 4)
	description := channel.Description
	if description == "" {
		description = fmt.Sprintf("Posts scraped from %s", channel.Link)
	}
	g.writeElement(&buf, "description", description, 4)

	if channel.SelfURL != "" {
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(channel.SelfURL)))
	}

	if latest := latestPublished(posts); latest != nil {
		g.writeElement(&buf, "lastBuildDate", latest.Format(time.RFC1123Z), 4)
	}

	g.writeElement(&buf, "generator", fmt.Sprintf("RSS-Scrape/%s", g.version), 4)
	if channel.Language != "" {
		g.writeElement(&buf, "language", channel.Language, 4)
	}

	for _, post := range posts {
		g.writeItem(&buf, post)
	}

	buf.WriteString("  </channel>\n</rss>\n")

	return buf.Bytes(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, post Post) {
	buf.WriteString("    <item>\n")

	g.writeElement(buf, "title", post.Title, 6)
	g.writeElement(buf, "link", post.Link, 6)

	buf.WriteString(`      <guid isPermaLink="true">`)
	xml.EscapeText(buf, []byte(post.Link))
	buf.WriteString("</guid>\n")

	g.writeElement(buf, "description", post.Body, 6)

	if post.PublishedAt != nil {
		g.writeElement(buf, "pubDate", post.PublishedAt.UTC().Format(time.RFC1123Z), 6)
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func latestPublished(posts []Post) *time.Time {
	var latest *time.Time
	for _, post := range posts {
		if post.PublishedAt != nil && (latest == nil || post.PublishedAt.After(*latest)) {
			latest = post.PublishedAt
		}
	}
	if latest == nil {
		return nil
	}
	utc := latest.UTC()
	return &utc
}
