package storage

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lifetrack-app/lifetrack-backend/internal/apperr"
	"github.com/lifetrack-app/lifetrack-backend/internal/models"
)

const journalCollection = "journal_entries"

// MongoStore is the production EntryStore backed by a MongoDB collection.
type MongoStore struct {
	col *mongo.Collection
}

// NewMongoStore wraps the journal collection of the given database.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection(journalCollection)}
}

// EnsureIndexes configures the indexes the store's queries rely on.
// Called once on startup after Mongo has connected.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			// Listing is always scoped to a user and sorted newest-first.
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_user_created"),
		},
		{
			// Mood trend groups by calendar day of the entry date.
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "date", Value: 1},
			},
			Options: options.Index().SetName("idx_user_date"),
		},
		{
			Keys: bson.D{
				{Key: "content", Value: "text"},
				{Key: "tags", Value: "text"},
			},
			Options: options.Index().SetName("idx_content_text"),
		},
	}

	for _, m := range indexes {
		if _, err := s.col.Indexes().CreateOne(ctx, m); err != nil {
			return apperr.Storage("create index", err)
		}
	}
	return nil
}

func (s *MongoStore) Insert(ctx context.Context, entry models.JournalEntry) error {
	if _, err := s.col.InsertOne(ctx, entry); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.ErrConflict
		}
		return apperr.Storage("insert entry", err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, userID, entryID string) (models.JournalEntry, error) {
	var entry models.JournalEntry
	err := s.col.FindOne(ctx, bson.M{"_id": entryID, "user_id": userID}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.JournalEntry{}, apperr.ErrNotFound
		}
		return models.JournalEntry{}, apperr.Storage("get entry", err)
	}
	return entry, nil
}

func (s *MongoStore) List(ctx context.Context, q ListQuery) ([]models.JournalEntry, int64, error) {
	filter := listFilter(q)

	total, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Storage("count entries", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(q.Limit)).
		SetSkip(int64(q.Skip))

	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, apperr.Storage("list entries", err)
	}
	defer cur.Close(ctx)

	entries, err := drainEntries(ctx, cur, "list entries")
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// drainEntries collects every document on the cursor. A document that
// fails to decode fails the whole read; silently dropping it would make
// the page and the total disagree.
func drainEntries(ctx context.Context, cur *mongo.Cursor, op string) ([]models.JournalEntry, error) {
	entries := make([]models.JournalEntry, 0)
	if err := cur.All(ctx, &entries); err != nil {
		return nil, apperr.Storage(op, err)
	}
	return entries, nil
}

func listFilter(q ListQuery) bson.M {
	filter := bson.M{"user_id": q.UserID}
	if q.Tag != "" {
		filter["tags"] = q.Tag
	}
	if q.From != nil || q.To != nil {
		dateRange := bson.M{}
		if q.From != nil {
			dateRange["$gte"] = q.From.UTC()
		}
		if q.To != nil {
			dateRange["$lt"] = q.To.UTC()
		}
		filter["date"] = dateRange
	}
	return filter
}

func (s *MongoStore) Search(ctx context.Context, q SearchQuery) (SearchResult, error) {
	filter := searchFilter(q)

	total, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return SearchResult{}, apperr.Storage("count search", err)
	}

	// Text matches rank by relevance; pure filter queries keep the
	// listing order.
	sortSpec := bson.D{{Key: "created_at", Value: -1}}
	if q.Text != "" {
		sortSpec = bson.D{{Key: "score", Value: bson.M{"$meta": "textScore"}}}
	}

	opts := options.Find().
		SetSort(sortSpec).
		SetLimit(int64(q.Limit)).
		SetSkip(int64(q.Skip))

	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return SearchResult{}, apperr.Storage("search entries", err)
	}
	defer cur.Close(ctx)

	entries, err := drainEntries(ctx, cur, "search entries")
	if err != nil {
		return SearchResult{}, err
	}

	facets, err := s.tagFacets(ctx, filter)
	if err != nil {
		return SearchResult{}, err
	}

	return SearchResult{Entries: entries, Total: total, Facets: facets}, nil
}

func searchFilter(q SearchQuery) bson.M {
	filter := bson.M{"user_id": q.UserID}
	if q.Text != "" {
		filter["$text"] = bson.M{"$search": q.Text}
	}
	if len(q.Tags) > 0 {
		filter["tags"] = bson.M{"$all": q.Tags}
	}
	if q.From != nil || q.To != nil {
		dateRange := bson.M{}
		if q.From != nil {
			dateRange["$gte"] = q.From.UTC()
		}
		if q.To != nil {
			dateRange["$lt"] = q.To.UTC()
		}
		filter["date"] = dateRange
	}
	if q.SentimentMin != nil || q.SentimentMax != nil {
		scoreRange := bson.M{}
		if q.SentimentMin != nil {
			scoreRange["$gte"] = *q.SentimentMin
		}
		if q.SentimentMax != nil {
			scoreRange["$lte"] = *q.SentimentMax
		}
		filter["sentiment_score"] = scoreRange
	}
	return filter
}

// tagFacets counts how many matching entries carry each tag.
func (s *MongoStore) tagFacets(ctx context.Context, filter bson.M) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$unwind", Value: "$tags"}},
		{{Key: "$group", Value: bson.M{"_id": "$tags", "count": bson.M{"$sum": 1}}}},
	}

	cur, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, apperr.Storage("facet search", err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		Tag   string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, apperr.Storage("facet search", err)
	}

	facets := make(map[string]int64, len(rows))
	for _, row := range rows {
		facets[row.Tag] = row.Count
	}
	return facets, nil
}

func (s *MongoStore) Replace(ctx context.Context, entry models.JournalEntry, expectedVersion int64) error {
	filter := bson.M{
		"_id":     entry.ID,
		"user_id": entry.UserID,
		"version": expectedVersion,
	}
	res, err := s.col.ReplaceOne(ctx, filter, entry)
	if err != nil {
		return apperr.Storage("replace entry", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	// Nothing matched: either the entry is gone or another writer bumped
	// the version first. A follow-up existence check tells them apart.
	n, err := s.col.CountDocuments(ctx, bson.M{"_id": entry.ID, "user_id": entry.UserID})
	if err != nil {
		return apperr.Storage("replace entry", err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return apperr.ErrConflict
}

func (s *MongoStore) Delete(ctx context.Context, userID, entryID string) (models.JournalEntry, error) {
	var entry models.JournalEntry
	err := s.col.FindOneAndDelete(ctx, bson.M{"_id": entryID, "user_id": userID}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.JournalEntry{}, apperr.ErrNotFound
		}
		return models.JournalEntry{}, apperr.Storage("delete entry", err)
	}
	return entry, nil
}

func (s *MongoStore) MoodTrend(ctx context.Context, userID string, from, to time.Time) ([]TrendPoint, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"user_id": userID,
			"date":    bson.M{"$gte": from.UTC(), "$lt": to.UTC()},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$date"}},
			"score": bson.M{"$avg": "$sentiment_score"},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}

	cur, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, apperr.Storage("mood trend", err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		Date  string  `bson:"_id"`
		Score float64 `bson:"score"`
		Count int64   `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, apperr.Storage("mood trend", err)
	}

	points := make([]TrendPoint, 0, len(rows))
	for _, row := range rows {
		points = append(points, TrendPoint{Date: row.Date, Score: row.Score, Count: row.Count})
	}
	return points, nil
}
