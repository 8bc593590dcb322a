// Package journal implements the entry lifecycle: creation with
// server-side sentiment scoring, listing and search, optimistic
// concurrency on updates, permanent deletes with attachment release,
// and per-day mood aggregation.
package journal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lifetrack-app/lifetrack-backend/internal/apperr"
	"github.com/lifetrack-app/lifetrack-backend/internal/blob"
	"github.com/lifetrack-app/lifetrack-backend/internal/cache"
	"github.com/lifetrack-app/lifetrack-backend/internal/events"
	"github.com/lifetrack-app/lifetrack-backend/internal/models"
	"github.com/lifetrack-app/lifetrack-backend/internal/sentiment"
	"github.com/lifetrack-app/lifetrack-backend/internal/storage"
	"github.com/lifetrack-app/lifetrack-backend/internal/telemetry"
)

const (
	maxContentLen = 50_000
	maxTags       = 16
	maxTagLen     = 64

	defaultListLimit = 20
	maxListLimit     = 100

	maxAttachments = 10
	blobFolder     = "journal"

	maxTrendRange = 366 * 24 * time.Hour
)

// Deps carries everything the service needs. All fields are required;
// mock mode supplies the in-memory implementations.
type Deps struct {
	Store      storage.EntryStore
	Classifier sentiment.Classifier
	Blobs      blob.Store
	Releases   blob.ReleaseQueue
	Cache      cache.Cache
	Publisher  events.Publisher
	Tracker    telemetry.Tracker
	Now        func() time.Time
}

// Service coordinates storage, scoring, blob handling, and event fan-out.
type Service struct {
	store      storage.EntryStore
	classifier sentiment.Classifier
	blobs      blob.Store
	releases   blob.ReleaseQueue
	cache      cache.Cache
	publisher  events.Publisher
	tracker    telemetry.Tracker
	now        func() time.Time
}

func NewService(d Deps) *Service {
	if d.Tracker == nil {
		d.Tracker = telemetry.Noop{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Service{
		store:      d.Store,
		classifier: d.Classifier,
		blobs:      d.Blobs,
		releases:   d.Releases,
		cache:      d.Cache,
		publisher:  d.Publisher,
		tracker:    d.Tracker,
		now:        d.Now,
	}
}

// CreateInput is a new entry request. UserID comes from the
// authenticated principal; BodyUserID is whatever the client put in the
// request body, kept only so a mismatch can be rejected.
type CreateInput struct {
	UserID        string
	BodyUserID    string
	Content       string
	ContentFormat string
	Date          *time.Time
	Tags          []string
}

// Create validates, scores, and stores a new entry. Validation failures
// happen before the classifier is called or anything is written.
func (s *Service) Create(ctx context.Context, in CreateInput) (entry models.JournalEntry, err error) {
	defer func() { s.tracker.EntryOp("create", err) }()

	if strings.TrimSpace(in.UserID) == "" {
		return models.JournalEntry{}, apperr.Validation("userId is required")
	}
	if in.BodyUserID != "" && in.BodyUserID != in.UserID {
		return models.JournalEntry{}, apperr.Validation("userId does not match the authenticated user")
	}

	format, err := resolveFormat(in.ContentFormat)
	if err != nil {
		return models.JournalEntry{}, err
	}
	if err := validateContent(in.Content); err != nil {
		return models.JournalEntry{}, err
	}
	tags, err := resolveTags(in.Tags)
	if err != nil {
		return models.JournalEntry{}, err
	}

	now := s.now().UTC()
	date := now
	if in.Date != nil {
		date = in.Date.UTC()
		// Backdating is fine; writing tomorrow's journal is not.
		if date.After(now.Add(24 * time.Hour)) {
			return models.JournalEntry{}, apperr.Validation("date must not be in the future")
		}
	}

	score, err := s.scoreContent(ctx, in.Content)
	if err != nil {
		return models.JournalEntry{}, err
	}

	entry = models.JournalEntry{
		ID:             uuid.NewString(),
		UserID:         in.UserID,
		Content:        in.Content,
		ContentFormat:  format,
		SentimentScore: score,
		Date:           date,
		CreatedAt:      now,
		UpdatedAt:      now,
		Version:        1,
		Tags:           tags,
		Attachments:    []models.Attachment{},
	}

	if err = s.store.Insert(ctx, entry); err != nil {
		return models.JournalEntry{}, err
	}

	s.invalidateTrend(ctx, in.UserID)
	s.publish(ctx, events.TypeCreated, &entry)
	return entry, nil
}

// Get returns one of the user's entries.
func (s *Service) Get(ctx context.Context, userID, entryID string) (entry models.JournalEntry, err error) {
	defer func() { s.tracker.EntryOp("get", err) }()
	return s.store.Get(ctx, userID, entryID)
}

// ListInput narrows and pages a listing.
type ListInput struct {
	UserID string
	From   *time.Time
	To     *time.Time
	Tag    string
	Limit  int
	Skip   int
}

// List returns the user's entries newest-first plus the total count.
func (s *Service) List(ctx context.Context, in ListInput) (entries []models.JournalEntry, total int64, err error) {
	defer func() { s.tracker.EntryOp("list", err) }()

	return s.store.List(ctx, storage.ListQuery{
		UserID: in.UserID,
		From:   in.From,
		To:     in.To,
		Tag:    strings.ToLower(strings.TrimSpace(in.Tag)),
		Limit:  clampLimit(in.Limit),
		Skip:   clampSkip(in.Skip),
	})
}

// SearchInput combines an optional full-text query with filters. All
// criteria are ANDed; an entirely empty input matches everything.
type SearchInput struct {
	UserID       string
	Text         string
	Tags         []string
	From         *time.Time
	To           *time.Time
	SentimentMin *float64
	SentimentMax *float64
	Limit        int
	Skip         int
}

// Search runs a text-and-filter search over the user's entries. An empty
// result set is a valid result.
func (s *Service) Search(ctx context.Context, in SearchInput) (res storage.SearchResult, err error) {
	defer func() { s.tracker.EntryOp("search", err) }()

	if in.From != nil && in.To != nil && !in.From.Before(*in.To) {
		return storage.SearchResult{}, apperr.Validation("dateFrom must be before dateTo")
	}
	if err := validateScoreBound(in.SentimentMin); err != nil {
		return storage.SearchResult{}, err
	}
	if err := validateScoreBound(in.SentimentMax); err != nil {
		return storage.SearchResult{}, err
	}
	if in.SentimentMin != nil && in.SentimentMax != nil && *in.SentimentMin > *in.SentimentMax {
		return storage.SearchResult{}, apperr.Validation("sentimentMin must not exceed sentimentMax")
	}

	return s.store.Search(ctx, storage.SearchQuery{
		UserID:       in.UserID,
		Text:         strings.TrimSpace(in.Text),
		Tags:         models.NormalizeTags(in.Tags),
		From:         in.From,
		To:           in.To,
		SentimentMin: in.SentimentMin,
		SentimentMax: in.SentimentMax,
		Limit:        clampLimit(in.Limit),
		Skip:         clampSkip(in.Skip),
	})
}

func validateScoreBound(v *float64) error {
	if v != nil && (*v < 0 || *v > 1) {
		return apperr.Validation("sentiment bounds must be within [0, 1]")
	}
	return nil
}

// UpdateInput is a partial patch: nil fields keep their stored value.
// ExpectedVersion, when set, is the version the client believes it is
// editing; a stale value yields apperr.ErrConflict, a nil one means
// last-write-wins. Date, CreatedAt, and UserID never change. A patched
// attachment list may only reorder or drop existing references; dropped
// blobs are released.
type UpdateInput struct {
	UserID          string
	BodyUserID      string
	EntryID         string
	Content         *string
	ContentFormat   *string
	Tags            *[]string
	Attachments     *[]models.Attachment
	ExpectedVersion *int64
}

// Update validates the patch, rescores when the content changed, and
// conditionally replaces the entry.
func (s *Service) Update(ctx context.Context, in UpdateInput) (entry models.JournalEntry, err error) {
	defer func() { s.tracker.EntryOp("update", err) }()

	if in.BodyUserID != "" && in.BodyUserID != in.UserID {
		return models.JournalEntry{}, apperr.Validation("userId does not match the authenticated user")
	}

	var format models.ContentFormat
	if in.ContentFormat != nil {
		if format, err = resolveFormat(*in.ContentFormat); err != nil {
			return models.JournalEntry{}, err
		}
	}
	if in.Content != nil {
		if err := validateContent(*in.Content); err != nil {
			return models.JournalEntry{}, err
		}
	}
	var tags []string
	if in.Tags != nil {
		if tags, err = resolveTags(*in.Tags); err != nil {
			return models.JournalEntry{}, err
		}
	}

	existing, err := s.store.Get(ctx, in.UserID, in.EntryID)
	if err != nil {
		return models.JournalEntry{}, err
	}

	expected := existing.Version
	if in.ExpectedVersion != nil {
		expected = *in.ExpectedVersion
		if expected != existing.Version {
			return models.JournalEntry{}, apperr.ErrConflict
		}
	}

	attachments := existing.Attachments
	var dropped []string
	if in.Attachments != nil {
		if attachments, dropped, err = patchAttachments(existing.Attachments, *in.Attachments); err != nil {
			return models.JournalEntry{}, err
		}
	}

	entry = existing
	if in.Content != nil && *in.Content != existing.Content {
		// Only a content change costs a classifier call.
		score, err := s.scoreContent(ctx, *in.Content)
		if err != nil {
			return models.JournalEntry{}, err
		}
		entry.Content = *in.Content
		entry.SentimentScore = score
	}
	if in.ContentFormat != nil {
		entry.ContentFormat = format
	}
	if in.Tags != nil {
		entry.Tags = tags
	}
	entry.Attachments = attachments

	updatedAt := s.now().UTC()
	// UpdatedAt must advance on every write even under a coarse clock.
	if !updatedAt.After(existing.UpdatedAt) {
		updatedAt = existing.UpdatedAt.Add(time.Millisecond)
	}
	entry.UpdatedAt = updatedAt
	entry.Version = expected + 1

	if err = s.store.Replace(ctx, entry, expected); err != nil {
		return models.JournalEntry{}, err
	}

	for _, blobID := range dropped {
		s.releaseBlob(ctx, blobID)
	}

	s.invalidateTrend(ctx, in.UserID)
	s.publish(ctx, events.TypeUpdated, &entry)
	return entry, nil
}

// patchAttachments resolves a client-sent attachment list against the
// stored one. Clients reference attachments by id; the stored metadata
// is authoritative. Returns the new list plus the blob ids the patch
// dropped.
func patchAttachments(stored, patch []models.Attachment) ([]models.Attachment, []string, error) {
	byID := make(map[string]models.Attachment, len(stored))
	for _, att := range stored {
		byID[att.ID] = att
	}

	kept := make([]models.Attachment, 0, len(patch))
	seen := make(map[string]struct{}, len(patch))
	for _, att := range patch {
		current, ok := byID[att.ID]
		if !ok {
			return nil, nil, apperr.Validation("unknown attachment %q", att.ID)
		}
		if _, dup := seen[att.ID]; dup {
			return nil, nil, apperr.Validation("attachment %q listed twice", att.ID)
		}
		seen[att.ID] = struct{}{}
		kept = append(kept, current)
	}

	var dropped []string
	for _, att := range stored {
		if _, ok := seen[att.ID]; !ok {
			dropped = append(dropped, att.ID)
		}
	}
	return kept, dropped, nil
}

// Delete permanently removes an entry and releases its attachments.
// Blob deletes are best-effort; failures go on the release queue for
// the sweeper.
func (s *Service) Delete(ctx context.Context, userID, entryID string) (err error) {
	defer func() { s.tracker.EntryOp("delete", err) }()

	deleted, err := s.store.Delete(ctx, userID, entryID)
	if err != nil {
		return err
	}

	for _, att := range deleted.Attachments {
		s.releaseBlob(ctx, att.ID)
	}

	s.invalidateTrend(ctx, userID)
	s.publish(ctx, events.TypeDeleted, &models.JournalEntry{ID: entryID, UserID: userID})
	return nil
}

// AttachInput carries one uploaded file.
type AttachInput struct {
	UserID      string
	EntryID     string
	FileName    string
	ContentType string
	File        io.Reader
}

// Attach uploads the file and references it from the entry. If the
// entry changed concurrently the upload is queued for release and the
// caller gets apperr.ErrConflict.
func (s *Service) Attach(ctx context.Context, in AttachInput) (entry models.JournalEntry, err error) {
	defer func() { s.tracker.EntryOp("attach", err) }()

	if strings.TrimSpace(in.FileName) == "" {
		return models.JournalEntry{}, apperr.Validation("file name is required")
	}

	existing, err := s.store.Get(ctx, in.UserID, in.EntryID)
	if err != nil {
		return models.JournalEntry{}, err
	}
	if len(existing.Attachments) >= maxAttachments {
		return models.JournalEntry{}, apperr.Validation("an entry can have at most %d attachments", maxAttachments)
	}

	uploaded, err := s.blobs.Upload(ctx, in.File, blobFolder)
	if err != nil {
		return models.JournalEntry{}, err
	}

	entry = existing
	entry.Attachments = append(append([]models.Attachment(nil), existing.Attachments...), models.Attachment{
		ID:          uploaded.ID,
		FileName:    in.FileName,
		ContentType: in.ContentType,
		Size:        uploaded.Size,
		URL:         uploaded.URL,
	})
	entry.UpdatedAt = s.now().UTC()
	entry.Version = existing.Version + 1

	if err = s.store.Replace(ctx, entry, existing.Version); err != nil {
		// The blob exists but nothing references it.
		s.releaseBlob(ctx, uploaded.ID)
		return models.JournalEntry{}, err
	}

	s.publish(ctx, events.TypeUpdated, &entry)
	return entry, nil
}

// Detach removes an attachment reference and releases the blob.
func (s *Service) Detach(ctx context.Context, userID, entryID, attachmentID string) (entry models.JournalEntry, err error) {
	defer func() { s.tracker.EntryOp("detach", err) }()

	existing, err := s.store.Get(ctx, userID, entryID)
	if err != nil {
		return models.JournalEntry{}, err
	}

	kept := make([]models.Attachment, 0, len(existing.Attachments))
	found := false
	for _, att := range existing.Attachments {
		if att.ID == attachmentID {
			found = true
			continue
		}
		kept = append(kept, att)
	}
	if !found {
		return models.JournalEntry{}, apperr.ErrNotFound
	}

	entry = existing
	entry.Attachments = kept
	entry.UpdatedAt = s.now().UTC()
	entry.Version = existing.Version + 1

	if err = s.store.Replace(ctx, entry, existing.Version); err != nil {
		return models.JournalEntry{}, err
	}

	s.releaseBlob(ctx, attachmentID)
	s.publish(ctx, events.TypeUpdated, &entry)
	return entry, nil
}

// MoodTrend returns the per-day average sentiment over [from, to).
// Results are cached per user; any write to the user's entries
// invalidates the cache.
func (s *Service) MoodTrend(ctx context.Context, userID string, from, to time.Time) (points []storage.TrendPoint, err error) {
	defer func() { s.tracker.EntryOp("trend", err) }()

	from, to = from.UTC(), to.UTC()
	if !from.Before(to) {
		return nil, apperr.Validation("from must be before to")
	}
	if to.Sub(from) > maxTrendRange {
		return nil, apperr.Validation("range must not exceed one year")
	}

	cacheKey := trendCacheKey(userID)
	rangeKey := from.Format("2006-01-02") + ".." + to.Format("2006-01-02")

	var cached map[string][]storage.TrendPoint
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		if points, ok := cached[rangeKey]; ok {
			return points, nil
		}
	}

	points, err = s.store.MoodTrend(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	if cached == nil {
		cached = make(map[string][]storage.TrendPoint)
	}
	cached[rangeKey] = points
	if cacheErr := s.cache.Set(ctx, cacheKey, cached, cache.DefaultTTL); cacheErr != nil {
		slog.Warn("mood trend cache write failed", slog.String("user", userID), slog.String("error", cacheErr.Error()))
	}
	return points, nil
}

func trendCacheKey(userID string) string {
	return "mood:" + userID
}

func (s *Service) invalidateTrend(ctx context.Context, userID string) {
	if err := s.cache.Delete(ctx, trendCacheKey(userID)); err != nil {
		slog.Warn("mood trend invalidation failed", slog.String("user", userID), slog.String("error", err.Error()))
	}
}

// scoreContent runs the classifier on a single text and reports timing.
func (s *Service) scoreContent(ctx context.Context, content string) (float64, error) {
	start := s.now()
	scores, err := s.classifier.Score(ctx, []string{content})
	s.tracker.ClassifierCall(time.Since(start), err)
	if err != nil {
		if !errors.Is(err, apperr.ErrExternal) {
			err = apperr.External("score content", err)
		}
		return 0, err
	}
	if len(scores) != 1 {
		return 0, apperr.External("score content", errors.New("classifier returned wrong batch size"))
	}
	return scores[0], nil
}

func (s *Service) releaseBlob(ctx context.Context, blobID string) {
	if err := s.blobs.Delete(ctx, blobID); err != nil {
		slog.Warn("blob delete failed, queueing for release", slog.String("blob", blobID), slog.String("error", err.Error()))
		if qErr := s.releases.Enqueue(ctx, blobID); qErr != nil {
			slog.Error("blob release enqueue failed", slog.String("blob", blobID), slog.String("error", qErr.Error()))
		}
	}
}

func (s *Service) publish(ctx context.Context, eventType string, entry *models.JournalEntry) {
	evt := events.Event{
		Type:      eventType,
		UserID:    entry.UserID,
		EntryID:   entry.ID,
		Timestamp: s.now().UTC(),
	}
	if eventType != events.TypeDeleted {
		evt.Entry = entry
	}

	err := s.publisher.Publish(ctx, evt)
	if err != nil {
		slog.Warn("event publish failed", slog.String("type", eventType), slog.String("entry", entry.ID), slog.String("error", err.Error()))
	}
	s.tracker.EventPublished(err == nil)
}

func resolveFormat(raw string) (models.ContentFormat, error) {
	if raw == "" {
		return models.FormatPlain, nil
	}
	format := models.ContentFormat(raw)
	if !format.Valid() {
		return "", apperr.Validation("contentFormat must be %q or %q", models.FormatPlain, models.FormatMarkdown)
	}
	return format, nil
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return apperr.Validation("content is required")
	}
	if len(content) > maxContentLen {
		return apperr.Validation("content must not exceed %d characters", maxContentLen)
	}
	return nil
}

func resolveTags(raw []string) ([]string, error) {
	tags := models.NormalizeTags(raw)
	if len(tags) > maxTags {
		return nil, apperr.Validation("an entry can have at most %d tags", maxTags)
	}
	for _, t := range tags {
		if len(t) > maxTagLen {
			return nil, apperr.Validation("tag %q exceeds %d characters", t, maxTagLen)
		}
	}
	return tags, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func clampSkip(skip int) int {
	if skip < 0 {
		return 0
	}
	return skip
}
