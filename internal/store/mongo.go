package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/ZaidMomin2003/talxify/backend/internal/model/interview"
)

const (
	profilesCollection   = "profiles"
	interviewsCollection = "interviews"
)

// MongoStore backs Store with a MongoDB database.
type MongoStore struct {
	client     *mongo.Client
	profiles   *mongo.Collection
	interviews *mongo.Collection
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to document store: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping document store: %w", err)
	}

	db := client.Database(database)
	return &MongoStore{
		client:     client,
		profiles:   db.Collection(profilesCollection),
		interviews: db.Collection(interviewsCollection),
	}, nil
}

// GetProfile returns the user's profile document.
func (s *MongoStore) GetProfile(ctx context.Context, userID string) (map[string]any, error) {
	var profile map[string]any
	err := s.profiles.FindOne(ctx, bson.M{"_id": userID}).Decode(&profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	return profile, nil
}

// MergeProfile sets the given top-level fields, creating the document if
// needed.
func (s *MongoStore) MergeProfile(ctx context.Context, userID string, fields map[string]any) error {
	update := bson.M{"$set": bson.M(fields)}
	opts := options.Update().SetUpsert(true)
	if _, err := s.profiles.UpdateOne(ctx, bson.M{"_id": userID}, update, opts); err != nil {
		return fmt.Errorf("failed to merge profile: %w", err)
	}
	return nil
}

// AddBookmark pushes one entry onto the profile's bookmarks array.
func (s *MongoStore) AddBookmark(ctx context.Context, userID string, bookmark map[string]any) error {
	update := bson.M{"$push": bson.M{"bookmarks": bson.M(bookmark)}}
	opts := options.Update().SetUpsert(true)
	if _, err := s.profiles.UpdateOne(ctx, bson.M{"_id": userID}, update, opts); err != nil {
		return fmt.Errorf("failed to add bookmark: %w", err)
	}
	return nil
}

// RemoveBookmark pulls the bookmark whose "id" field matches.
func (s *MongoStore) RemoveBookmark(ctx context.Context, userID, bookmarkID string) error {
	update := bson.M{"$pull": bson.M{"bookmarks": bson.M{"id": bookmarkID}}}
	result, err := s.profiles.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return fmt.Errorf("failed to remove bookmark: %w", err)
	}
	if result.MatchedCount == 0 || result.ModifiedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendActivity pushes one entry onto the profile's activity array.
func (s *MongoStore) AppendActivity(ctx context.Context, userID string, entry map[string]any) error {
	update := bson.M{"$push": bson.M{"activity": bson.M(entry)}}
	opts := options.Update().SetUpsert(true)
	if _, err := s.profiles.UpdateOne(ctx, bson.M{"_id": userID}, update, opts); err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}
	return nil
}

// SaveInterview replaces the interview record wholesale.
func (s *MongoStore) SaveInterview(ctx context.Context, record *interview.Record) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := s.interviews.ReplaceOne(ctx, bson.M{"_id": record.SessionID}, record, opts); err != nil {
		return fmt.Errorf("failed to save interview record: %w", err)
	}
	return nil
}

// GetInterview returns a stored interview record.
func (s *MongoStore) GetInterview(ctx context.Context, sessionID string) (*interview.Record, error) {
	var record interview.Record
	err := s.interviews.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read interview record: %w", err)
	}
	return &record, nil
}

// Ping verifies the connection for readiness checks.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects from the database.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
