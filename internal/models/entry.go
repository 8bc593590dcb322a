package models

import (
	"strings"
	"time"
)

// ContentFormat describes how an entry's content should be rendered.
type ContentFormat string

const (
	FormatPlain    ContentFormat = "plain"
	FormatMarkdown ContentFormat = "markdown"
)

// Valid reports whether the format is one of the supported values.
func (f ContentFormat) Valid() bool {
	return f == FormatPlain || f == FormatMarkdown
}

// JournalEntry is a single journal document owned by exactly one user.
// SentimentScore is always computed server-side from Content; Date and
// CreatedAt are immutable after creation; Version increments on every
// mutation and backs the If-Match concurrency check.
type JournalEntry struct {
	ID             string        `bson:"_id" json:"id"`
	UserID         string        `bson:"user_id" json:"userId"`
	Content        string        `bson:"content" json:"content"`
	ContentFormat  ContentFormat `bson:"content_format" json:"contentFormat"`
	SentimentScore float64       `bson:"sentiment_score" json:"sentimentScore"`
	Date           time.Time     `bson:"date" json:"date"`
	CreatedAt      time.Time     `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time     `bson:"updated_at" json:"updatedAt"`
	Version        int64         `bson:"version" json:"version"`
	Tags           []string      `bson:"tags" json:"tags"`
	Attachments    []Attachment  `bson:"attachments" json:"attachments"`
}

// Attachment is a reference to a binary file stored in the blob store.
// ID doubles as the blob-store public id so deleting the entry can release
// the underlying file.
type Attachment struct {
	ID          string `bson:"id" json:"id"`
	FileName    string `bson:"file_name" json:"fileName"`
	ContentType string `bson:"content_type" json:"contentType"`
	Size        int64  `bson:"size" json:"size"`
	URL         string `bson:"url" json:"url"`
}

// HasTag reports whether the entry carries the given (normalized) tag.
func (e *JournalEntry) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// NormalizeTags lowercases, trims, and de-duplicates tags, dropping empties.
// Storage order is not meaningful; insertion order is kept for display.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
