package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lifetrack-app/lifetrack-backend/internal/apperr"
	"github.com/lifetrack-app/lifetrack-backend/internal/models"
)

// MemoryStore is an in-memory EntryStore. It is safe for concurrent use
// and is intended for tests and for running without a MongoDB instance.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]models.JournalEntry
}

var _ EntryStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]models.JournalEntry)}
}

func (s *MemoryStore) EnsureIndexes(context.Context) error { return nil }

func (s *MemoryStore) Insert(_ context.Context, entry models.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[entry.ID]; exists {
		return apperr.ErrConflict
	}
	s.entries[entry.ID] = cloneEntry(entry)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, userID, entryID string) (models.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[entryID]
	if !ok || entry.UserID != userID {
		return models.JournalEntry{}, apperr.ErrNotFound
	}
	return cloneEntry(entry), nil
}

func (s *MemoryStore) List(_ context.Context, q ListQuery) ([]models.JournalEntry, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]models.JournalEntry, 0)
	for _, e := range s.entries {
		if e.UserID != q.UserID {
			continue
		}
		if q.Tag != "" && !e.HasTag(q.Tag) {
			continue
		}
		if q.From != nil && e.Date.Before(*q.From) {
			continue
		}
		if q.To != nil && !e.Date.Before(*q.To) {
			continue
		}
		matched = append(matched, e)
	}

	sortNewestFirst(matched)
	total := int64(len(matched))
	return clonePage(matched, q.Skip, q.Limit), total, nil
}

func (s *MemoryStore) Search(_ context.Context, q SearchQuery) (SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(q.Text)
	matched := make([]models.JournalEntry, 0)
	for _, e := range s.entries {
		if e.UserID != q.UserID {
			continue
		}
		if !entryMatches(e, needle, q) {
			continue
		}
		matched = append(matched, e)
	}

	sortNewestFirst(matched)

	facets := make(map[string]int64)
	for _, e := range matched {
		for _, t := range e.Tags {
			facets[t]++
		}
	}

	return SearchResult{
		Entries: clonePage(matched, q.Skip, q.Limit),
		Total:   int64(len(matched)),
		Facets:  facets,
	}, nil
}

// entryMatches applies the search criteria to one entry. Text matching
// mirrors the Mongo text index (content plus tags, case-insensitive);
// substring matching stands in for stemming.
func entryMatches(e models.JournalEntry, needle string, q SearchQuery) bool {
	for _, tag := range q.Tags {
		if !e.HasTag(tag) {
			return false
		}
	}
	if q.From != nil && e.Date.Before(*q.From) {
		return false
	}
	if q.To != nil && !e.Date.Before(*q.To) {
		return false
	}
	if q.SentimentMin != nil && e.SentimentScore < *q.SentimentMin {
		return false
	}
	if q.SentimentMax != nil && e.SentimentScore > *q.SentimentMax {
		return false
	}
	if needle == "" {
		return true
	}
	if strings.Contains(strings.ToLower(e.Content), needle) {
		return true
	}
	for _, t := range e.Tags {
		if strings.Contains(t, needle) {
			return true
		}
	}
	return false
}

func (s *MemoryStore) Replace(_ context.Context, entry models.JournalEntry, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.entries[entry.ID]
	if !ok || stored.UserID != entry.UserID {
		return apperr.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return apperr.ErrConflict
	}
	s.entries[entry.ID] = cloneEntry(entry)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID, entryID string) (models.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[entryID]
	if !ok || entry.UserID != userID {
		return models.JournalEntry{}, apperr.ErrNotFound
	}
	delete(s.entries, entryID)
	return entry, nil
}

func (s *MemoryStore) MoodTrend(_ context.Context, userID string, from, to time.Time) ([]TrendPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type bucket struct {
		sum   float64
		count int64
	}
	days := make(map[string]*bucket)
	for _, e := range s.entries {
		if e.UserID != userID {
			continue
		}
		if e.Date.Before(from) || !e.Date.Before(to) {
			continue
		}
		day := e.Date.UTC().Format("2006-01-02")
		b := days[day]
		if b == nil {
			b = &bucket{}
			days[day] = b
		}
		b.sum += e.SentimentScore
		b.count++
	}

	points := make([]TrendPoint, 0, len(days))
	for day, b := range days {
		points = append(points, TrendPoint{Date: day, Score: b.sum / float64(b.count), Count: b.count})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points, nil
}

// sortNewestFirst orders by creation time descending, breaking ties by ID
// so paging stays stable.
func sortNewestFirst(entries []models.JournalEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].ID > entries[j].ID
	})
}

func clonePage(entries []models.JournalEntry, skip, limit int) []models.JournalEntry {
	if skip >= len(entries) {
		return []models.JournalEntry{}
	}
	entries = entries[skip:]
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	out := make([]models.JournalEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, cloneEntry(e))
	}
	return out
}

func cloneEntry(e models.JournalEntry) models.JournalEntry {
	e.Tags = append([]string(nil), e.Tags...)
	e.Attachments = append([]models.Attachment(nil), e.Attachments...)
	return e
}
