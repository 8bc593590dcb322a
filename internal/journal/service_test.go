package journal

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifetrack-app/lifetrack-backend/internal/apperr"
	"github.com/lifetrack-app/lifetrack-backend/internal/blob"
	"github.com/lifetrack-app/lifetrack-backend/internal/cache"
	"github.com/lifetrack-app/lifetrack-backend/internal/events"
	"github.com/lifetrack-app/lifetrack-backend/internal/models"
	"github.com/lifetrack-app/lifetrack-backend/internal/storage"
)

func strPtr(s string) *string { return &s }

type stubClassifier struct {
	mu    sync.Mutex
	score float64
	err   error
	calls int
}

func (c *stubClassifier) Score(_ context.Context, texts []string) ([]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	out := make([]float64, len(texts))
	for i := range out {
		out[i] = c.score
	}
	return out, nil
}

func (c *stubClassifier) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type countingStore struct {
	storage.EntryStore
	mu         sync.Mutex
	trendCalls int
}

func (c *countingStore) MoodTrend(ctx context.Context, userID string, from, to time.Time) ([]storage.TrendPoint, error) {
	c.mu.Lock()
	c.trendCalls++
	c.mu.Unlock()
	return c.EntryStore.MoodTrend(ctx, userID, from, to)
}

type fixture struct {
	svc        *Service
	store      *countingStore
	classifier *stubClassifier
	blobs      *blob.MemoryStore
	releases   *blob.MemoryReleaseQueue
	hub        *events.Hub
	clock      *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:      &countingStore{EntryStore: storage.NewMemoryStore()},
		classifier: &stubClassifier{score: 0.5},
		blobs:      blob.NewMemoryStore(),
		releases:   blob.NewMemoryReleaseQueue(),
		hub:        events.NewHub(),
		clock:      &fakeClock{t: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)},
	}
	f.svc = NewService(Deps{
		Store:      f.store,
		Classifier: f.classifier,
		Blobs:      f.blobs,
		Releases:   f.releases,
		Cache:      cache.NewMemoryCache(),
		Publisher:  events.NewLocalPublisher(f.hub),
		Now:        f.clock.Now,
	})
	return f
}

func TestCreateScoresThroughClassifier(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.classifier.score = 0.8

	entry, err := f.svc.Create(ctx, CreateInput{
		UserID:  "u1",
		Content: "Had a lovely day at the lake",
		Tags:    []string{"Nature", " nature ", "WEEKEND"},
	})
	require.NoError(t, err)

	assert.Equal(t, 0.8, entry.SentimentScore)
	assert.Equal(t, "u1", entry.UserID)
	assert.Equal(t, models.FormatPlain, entry.ContentFormat)
	assert.Equal(t, []string{"nature", "weekend"}, entry.Tags)
	assert.Equal(t, int64(1), entry.Version)
	assert.Equal(t, entry.CreatedAt, entry.UpdatedAt)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, 1, f.classifier.callCount())

	stored, err := f.svc.Get(ctx, "u1", entry.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.8, stored.SentimentScore)
}

func TestCreateAssignsDistinctIDs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		entry, err := f.svc.Create(ctx, CreateInput{UserID: "u1", Content: "entry"})
		require.NoError(t, err)
		require.NotEmpty(t, entry.ID)
		assert.False(t, seen[entry.ID], "id %q assigned twice", entry.ID)
		seen[entry.ID] = true
	}
}

func TestCreateValidationSkipsClassifierAndStore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Create(ctx, CreateInput{UserID: "u1", Content: "   "})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, 0, f.classifier.callCount())

	_, total, err := f.svc.List(ctx, ListInput{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestCreateRequiresUserID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, userID := range []string{"", "   "} {
		_, err := f.svc.Create(ctx, CreateInput{UserID: userID, Content: "hello"})
		assert.ErrorIs(t, err, apperr.ErrValidation)
	}
	assert.Equal(t, 0, f.classifier.callCount())

	// No ownerless entry may have been written.
	entries, total, err := f.store.List(ctx, storage.ListQuery{UserID: ""})
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, int64(0), total)
}

func TestCreateRejectsMismatchedBodyUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), CreateInput{
		UserID:     "u1",
		BodyUserID: "someone-else",
		Content:    "hello",
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, 0, f.classifier.callCount())
}

func TestCreateAcceptsMatchingBodyUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), CreateInput{
		UserID:     "u1",
		BodyUserID: "u1",
		Content:    "hello",
	})
	assert.NoError(t, err)
}

func TestCreateRejectsFutureDate(t *testing.T) {
	f := newFixture(t)

	future := f.clock.Now().Add(48 * time.Hour)
	_, err := f.svc.Create(context.Background(), CreateInput{
		UserID:  "u1",
		Content: "tomorrow's news",
		Date:    &future,
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCreateAllowsBackdating(t *testing.T) {
	f := newFixture(t)

	past := f.clock.Now().Add(-72 * time.Hour)
	entry, err := f.svc.Create(context.Background(), CreateInput{
		UserID:  "u1",
		Content: "catching up on last week",
		Date:    &past,
	})
	require.NoError(t, err)
	assert.Equal(t, past.UTC(), entry.Date)
	assert.NotEqual(t, entry.Date, entry.CreatedAt)
}

func TestCreateRejectsUnknownFormat(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), CreateInput{
		UserID:        "u1",
		Content:       "hello",
		ContentFormat: "html",
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCreateRejectsTooManyTags(t *testing.T) {
	f := newFixture(t)

	tags := make([]string, maxTags+1)
	for i := range tags {
		tags[i] = strings.Repeat("t", i+1)
	}
	_, err := f.svc.Create(context.Background(), CreateInput{
		UserID:  "u1",
		Content: "hello",
		Tags:    tags,
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCreateClassifierFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.classifier.err = errors.New("analytics endpoint down")

	_, err := f.svc.Create(ctx, CreateInput{UserID: "u1", Content: "hello"})
	assert.ErrorIs(t, err, apperr.ErrExternal)

	// Nothing was written.
	_, total, err := f.svc.List(ctx, ListInput{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestUpdateRecomputesScore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.classifier.score = 0.3

	created, err := f.svc.Create(ctx, CreateInput{UserID: "u1", Content: "rough morning"})
	require.NoError(t, err)
	assert.Equal(t, 0.3, created.SentimentScore)

	f.clock.Advance(time.Minute)
	f.classifier.score = 0.9

	updated, err := f.svc.Update(ctx, UpdateInput{
		UserID:  "u1",
		EntryID: created.ID,
		Content: strPtr("rough morning but a great evening"),
	})
	require.NoError(t, err)

	assert.Equal(t, 0.9, updated.SentimentScore)
	assert.Equal(t, int64(2), updated.Version)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, created.Date, updated.Date)
}

func TestUpdatePatchKeepsUnpatchedFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.classifier.score = 0.3

	created, err := f.svc.Create(ctx, CreateInput{UserID: "u1", Content: "keep me"})
	require.NoError(t, err)
	callsAfterCreate := f.classifier.callCount()

	tags := []string{"reflection"}
	updated, err := f.svc.Update(ctx, UpdateInput{
		UserID:  "u1",
		EntryID: created.ID,
		Tags:    &tags,
	})
	require.NoError(t, err)

	// A tag-only patch keeps the content and score and costs no
	// classifier call.
	assert.Equal(t, "keep me", updated.Content)
	assert.Equal(t, 0.3, updated.SentimentScore)
	assert.Equal(t, []string{"reflection"}, updated.Tags)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, callsAfterCreate, f.classifier.callCount())
}

func TestUpdateSameContentSkipsClassifier(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.classifier.score = 0.3

	created, err := f.svc.Create(ctx, CreateInput{UserID: "u1", Content: "steady state"})
	require.NoError(t, err)
	callsAfterCreate := f.classifier.callCount()

	f.classifier.score = 0.9
	updated, err := f.svc.Update(ctx, UpdateInput{
		UserID:  "u1",
		EntryID: created.ID,
		Content: strPtr("steady state"),
	})
	require.NoError(t, err)

	assert.Equal(t, 0.3, updated.SentimentScore, "unchanged content keeps its score")
	assert.Equal(t, callsAfterCreate, f.classifier.callCount())
}

func TestUpdateRejectsMismatchedBodyUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.svc.Create(ctx, CreateInput{UserID: "u1", Content: "mine"})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, UpdateInput{
		UserID:     "u1",
		BodyUserID: "someone-else",
		EntryID:    created.ID,
		Content:    strPtr("hijack"),
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdateAttachmentsPatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.svc.Create(ctx, CreateInput{UserID: "u1", Content: "entry"})
	require.NoError(t, err)

	first, err := f.svc.Attach(ctx, AttachInput{
		UserID: "u1", EntryID: created.ID,
		FileName: "a.txt", ContentType: "text/plain", File: strings.NewReader("a"),
	})
	require.NoError(t, err)
	withBoth, err := f.svc.Attach(ctx, AttachInput{
		UserID: "u1", EntryID: created.ID,
		FileName: "b.txt", ContentType: "text/plain", File: strings.NewReader("b"),
	})
	require.NoError(t, err)
	require.Len(t, withBoth.Attachments, 2)

	// Keep only the second attachment; the first one's blob is released.
	keep := []models.Attachment{{ID: withBoth.Attachments[1].ID}}
	updated, err := f.svc.Update(ctx, UpdateInput{
		UserID:      "u1",
		EntryID:     created.ID,
		Attachments: &keep,
	})
	require.NoError(t, err)
	require.Len(t, updated.Attachments, 1)
	assert.Equal(t, "b.txt", updated.Attachments[0].FileName, "stored metadata is authoritative")
	assert.False(t, f.blobs.Has(first.Attachments[0].ID))
	assert.True(t, f.blobs.Has(withBoth.Attachments[1].ID))

	// A patch cannot invent attachments.
	forged := []models.Attachment{{ID: "forged", URL: "https://evil.example/x"}}
	_, err = f.svc.Update(ctx, UpdateInput{
		UserID:      "u1",
		EntryID:     created.ID,
		Attachments: &forged,
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdateAdvancesUpdatedAtUnderFrozenClock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.svc.Create(ctx, CreateInput{UserID: "u1", Content: "first"})
	require.NoError(t, err)

	// Clock not advanced; UpdatedAt must still move forward.
	updated, err := f.svc.Update(ctx, UpdateInput{UserID: "u1", EntryID: created.ID, Content: strPtr("second")})
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
}

func TestUpdateStaleVersionConflicts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.svc.Create(ctx, CreateInput{UserID: "u1", Content: "v1"})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, UpdateInput{UserID: "u1", EntryID: created.ID, Content: strPtr("v2")})
	require.NoError(t, err)

	callsBefore := f.classifier.callCount()
	stale := created.Version // now 1 behind
	_, err = f.svc.Update(ctx, UpdateInput{
		UserID:          "u1",
		EntryID:         created.ID,
		Content:         strPtr("based on stale copy"),
		ExpectedVersion: &stale,
	})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, callsBefore, f.classifier.callCount(), "stale update must not reach the classifier")

	// The stored entry is untouched.
	got, err := f.svc.Get(ctx, "u1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Content)
}

func TestUpdateMatchingVersionSucceeds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.svc.Create(ctx, CreateInput{UserID: "u1", Content: "v1"})
	require.NoError(t, err)

	expected := created.Version
	updated, err := f.svc.Update(ctx, UpdateInput{
		UserID:          "u1",
		EntryID:         created.ID,
		Content:         strPtr("v2"),
		ExpectedVersion: &expected,
	})
	require.NoError(t, err)
	assert.Equal(t, created.Version+1, updated.Version)
}

func TestUpdateMissingEntry(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Update(context.Background(), UpdateInput{
		UserID:  "u1",
		EntryID: "nope",
		Content: strPtr("hello"),
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteIsPermanent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.svc.Create(ctx, CreateInput{UserID: "u1", Content: "short-lived"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, "u1", created.ID))

	_, err = f.svc.Get(ctx, "u1", created.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	assert.ErrorIs(t, f.svc.Delete(ctx, "u1", created.ID), apperr.ErrNotFound)
}

func TestDeleteReleasesAttachments(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.svc.Create(ctx, CreateInput{UserID: "u1", Content: "with file"})
	require.NoError(t, err)

	withFile, err := f.svc.Attach(ctx, AttachInput{
		UserID:      "u1",
		EntryID:     created.ID,
		FileName:    "photo.jpg",
		ContentType: "image/jpeg",
		File:        strings.NewReader("jpeg bytes"),
	})
	require.NoError(t, err)
	require.Len(t, withFile.Attachments, 1)
	assert.True(t, f.blobs.Has(withFile.Attachments[0].ID))

	require.NoError(t, f.svc.Delete(ctx, "u1", created.ID))
	assert.False(t, f.blobs.Has(withFile.Attachments[0].ID))
}

func TestAttachAndDetach(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.svc.Create(ctx, CreateInput{UserID: "u1", Content: "entry"})
	require.NoError(t, err)

	attached, err := f.svc.Attach(ctx, AttachInput{
		UserID:      "u1",
		EntryID:     created.ID,
		FileName:    "notes.pdf",
		ContentType: "application/pdf",
		File:        strings.NewReader("pdf bytes"),
	})
	require.NoError(t, err)
	require.Len(t, attached.Attachments, 1)

	att := attached.Attachments[0]
	assert.Equal(t, "notes.pdf", att.FileName)
	assert.Equal(t, "application/pdf", att.ContentType)
	assert.Equal(t, int64(len("pdf bytes")), att.Size)
	assert.NotEmpty(t, att.URL)
	assert.Equal(t, created.Version+1, attached.Version)

	detached, err := f.svc.Detach(ctx, "u1", created.ID, att.ID)
	require.NoError(t, err)
	assert.Empty(t, detached.Attachments)
	assert.False(t, f.blobs.Has(att.ID))

	_, err = f.svc.Detach(ctx, "u1", created.ID, att.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAttachRequiresFileName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.svc.Create(ctx, CreateInput{UserID: "u1", Content: "entry"})
	require.NoError(t, err)

	_, err = f.svc.Attach(ctx, AttachInput{
		UserID:  "u1",
		EntryID: created.ID,
		File:    strings.NewReader("bytes"),
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, 0, f.blobs.Len(), "nothing should be uploaded")
}

func TestAttachLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.svc.Create(ctx, CreateInput{UserID: "u1", Content: "entry"})
	require.NoError(t, err)

	for i := 0; i < maxAttachments; i++ {
		_, err := f.svc.Attach(ctx, AttachInput{
			UserID:      "u1",
			EntryID:     created.ID,
			FileName:    "f.bin",
			ContentType: "application/octet-stream",
			File:        strings.NewReader("x"),
		})
		require.NoError(t, err)
	}

	_, err = f.svc.Attach(ctx, AttachInput{
		UserID:   "u1",
		EntryID:  created.ID,
		FileName: "one-too-many.bin",
		File:     strings.NewReader("x"),
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSearchValidatesBounds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	bad := 1.5
	_, err := f.svc.Search(ctx, SearchInput{UserID: "u1", SentimentMin: &bad})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	lo, hi := 0.8, 0.2
	_, err = f.svc.Search(ctx, SearchInput{UserID: "u1", SentimentMin: &lo, SentimentMax: &hi})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	from := f.clock.Now()
	to := from.Add(-time.Hour)
	_, err = f.svc.Search(ctx, SearchInput{UserID: "u1", From: &from, To: &to})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSearchWithoutTextIsFilterOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.classifier.score = 0.9

	_, err := f.svc.Create(ctx, CreateInput{UserID: "u1", Content: "great day", Tags: []string{"Walks"}})
	require.NoError(t, err)
	f.classifier.score = 0.1
	f.clock.Advance(time.Minute)
	_, err = f.svc.Create(ctx, CreateInput{UserID: "u1", Content: "bad day"})
	require.NoError(t, err)

	minScore := 0.5
	res, err := f.svc.Search(ctx, SearchInput{UserID: "u1", SentimentMin: &minScore, Tags: []string{"walks"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "great day", res.Entries[0].Content)
}

func TestSearchFindsEntries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Create(ctx, CreateInput{UserID: "u1", Content: "long walk on the beach"})
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	_, err = f.svc.Create(ctx, CreateInput{UserID: "u1", Content: "stayed in all day"})
	require.NoError(t, err)

	res, err := f.svc.Search(ctx, SearchInput{UserID: "u1", Text: "beach"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)
	require.Len(t, res.Entries, 1)
	assert.Contains(t, res.Entries[0].Content, "beach")
}

func TestListDefaultsAndOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for i := 0; i < defaultListLimit+5; i++ {
		_, err := f.svc.Create(ctx, CreateInput{UserID: "u1", Content: "entry"})
		require.NoError(t, err)
		f.clock.Advance(time.Second)
	}

	entries, total, err := f.svc.List(ctx, ListInput{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, int64(defaultListLimit+5), total)
	assert.Len(t, entries, defaultListLimit)

	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i].CreatedAt.After(entries[i-1].CreatedAt), "entries must be newest-first")
	}
}

func TestMoodTrendCachesUntilWrite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.classifier.score = 0.6

	_, err := f.svc.Create(ctx, CreateInput{UserID: "u1", Content: "day one"})
	require.NoError(t, err)

	from := f.clock.Now().Add(-7 * 24 * time.Hour)
	to := f.clock.Now().Add(24 * time.Hour)

	first, err := f.svc.MoodTrend(ctx, "u1", from, to)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 0.6, first[0].Score)
	assert.Equal(t, 1, f.store.trendCalls)

	// Second read hits the cache.
	_, err = f.svc.MoodTrend(ctx, "u1", from, to)
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.trendCalls)

	// A write invalidates it.
	f.classifier.score = 1.0
	_, err = f.svc.Create(ctx, CreateInput{UserID: "u1", Content: "day one, later"})
	require.NoError(t, err)

	second, err := f.svc.MoodTrend(ctx, "u1", from, to)
	require.NoError(t, err)
	assert.Equal(t, 2, f.store.trendCalls)
	require.Len(t, second, 1)
	assert.InDelta(t, 0.8, second[0].Score, 1e-9) // average of 0.6 and 1.0
	assert.Equal(t, int64(2), second[0].Count)
}

func TestMoodTrendValidatesRange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	now := f.clock.Now()

	_, err := f.svc.MoodTrend(ctx, "u1", now, now)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.MoodTrend(ctx, "u1", now.Add(-400*24*time.Hour), now)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestEventsPublishedOnLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ch, cancel := f.hub.Subscribe("u1")
	defer cancel()

	created, err := f.svc.Create(ctx, CreateInput{UserID: "u1", Content: "hello"})
	require.NoError(t, err)

	evt := <-ch
	assert.Equal(t, events.TypeCreated, evt.Type)
	assert.Equal(t, created.ID, evt.EntryID)
	require.NotNil(t, evt.Entry)
	assert.Equal(t, created.Content, evt.Entry.Content)

	_, err = f.svc.Update(ctx, UpdateInput{UserID: "u1", EntryID: created.ID, Content: strPtr("changed")})
	require.NoError(t, err)
	evt = <-ch
	assert.Equal(t, events.TypeUpdated, evt.Type)

	require.NoError(t, f.svc.Delete(ctx, "u1", created.ID))
	evt = <-ch
	assert.Equal(t, events.TypeDeleted, evt.Type)
	assert.Equal(t, created.ID, evt.EntryID)
	assert.Nil(t, evt.Entry)
}
