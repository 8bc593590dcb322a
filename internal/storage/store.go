// Package storage persists journal entries. The live implementation is
// backed by MongoDB; an in-memory implementation covers local development
// and tests. Both satisfy EntryStore so the service layer never knows
// which one it is talking to.
package storage

import (
	"context"
	"time"

	"github.com/lifetrack-app/lifetrack-backend/internal/models"
)

// ListQuery narrows and pages a listing of a user's entries.
// Zero values mean "no constraint" except Limit, which falls back
// to a server-side default.
type ListQuery struct {
	UserID string
	From   *time.Time // inclusive lower bound on entry date
	To     *time.Time // exclusive upper bound on entry date
	Tag    string     // exact tag match, already normalized
	Limit  int
	Skip   int
}

// SearchQuery combines optional full-text and filter criteria, all scoped
// to one user. Every field except UserID may be left at its zero value;
// filters compose with AND semantics.
type SearchQuery struct {
	UserID       string
	Text         string     // full-text query; empty means filters only
	Tags         []string   // entries must carry every listed tag
	From         *time.Time // inclusive lower bound on entry date
	To           *time.Time // exclusive upper bound on entry date
	SentimentMin *float64   // inclusive
	SentimentMax *float64   // inclusive
	Limit        int
	Skip         int
}

// SearchResult carries a page of matches plus the total match count
// and a tag facet so clients can refine without a second round trip.
type SearchResult struct {
	Entries []models.JournalEntry `json:"items"`
	Total   int64                 `json:"count"`
	Facets  map[string]int64      `json:"facets"` // tag -> matching entries carrying it
}

// TrendPoint is one day's aggregated sentiment.
type TrendPoint struct {
	Date  string  `json:"date"` // YYYY-MM-DD, UTC
	Score float64 `json:"score"`
	Count int64   `json:"count"`
}

// EntryStore is the persistence boundary for journal entries.
type EntryStore interface {
	// EnsureIndexes creates whatever indexes the backend needs. Called
	// once at startup; a no-op for backends without indexes.
	EnsureIndexes(ctx context.Context) error

	// Insert stores a new entry. The entry's ID must already be set.
	Insert(ctx context.Context, entry models.JournalEntry) error

	// Get returns the entry owned by userID, or apperr.ErrNotFound.
	Get(ctx context.Context, userID, entryID string) (models.JournalEntry, error)

	// List returns the user's entries newest-first, plus the total count
	// matching the query before paging.
	List(ctx context.Context, q ListQuery) ([]models.JournalEntry, int64, error)

	// Search runs a text-and-filter search scoped to the user. An empty
	// result is a valid result, not an error.
	Search(ctx context.Context, q SearchQuery) (SearchResult, error)

	// Replace swaps the stored entry for the given one if and only if the
	// stored version still equals expectedVersion. Returns
	// apperr.ErrConflict when another writer got there first and
	// apperr.ErrNotFound when no such entry exists for the user.
	Replace(ctx context.Context, entry models.JournalEntry, expectedVersion int64) error

	// Delete removes the entry permanently. apperr.ErrNotFound if absent.
	Delete(ctx context.Context, userID, entryID string) (models.JournalEntry, error)

	// MoodTrend aggregates average sentiment per day over [from, to).
	MoodTrend(ctx context.Context, userID string, from, to time.Time) ([]TrendPoint, error)
}
