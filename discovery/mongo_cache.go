package discovery

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/c360studio/facultyatlas/config"
)

// MongoCache persists patterns in a MongoDB collection so multiple scrape
// workers can share one discovery cache.
type MongoCache struct {
	client   *mongo.Client
	patterns *mongo.Collection
	ttl      time.Duration
}

// mongoPattern is the stored document shape.
type mongoPattern struct {
	Key       string             `bson:"key"`
	Pattern   *UniversityPattern `bson:"pattern"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

// NewMongoCache connects to MongoDB and prepares the pattern collection.
func NewMongoCache(ctx context.Context, cfg config.MongoConfig, ttl time.Duration) (*MongoCache, error) {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	patterns := client.Database(cfg.Database).Collection(cfg.Collection)

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := patterns.Indexes().CreateOne(connectCtx, indexModel); err != nil {
		return nil, fmt.Errorf("create pattern index: %w", err)
	}

	return &MongoCache{client: client, patterns: patterns, ttl: ttl}, nil
}

// Get implements Cache.
func (c *MongoCache) Get(ctx context.Context, universityName string) (*UniversityPattern, bool) {
	filter := bson.M{
		"key":        cacheKey(universityName),
		"updated_at": bson.M{"$gt": time.Now().Add(-c.ttl)},
	}

	var doc mongoPattern
	if err := c.patterns.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, false
	}
	return doc.Pattern, doc.Pattern != nil
}

// Put implements Cache.
func (c *MongoCache) Put(ctx context.Context, pattern *UniversityPattern) error {
	doc := mongoPattern{
		Key:       cacheKey(pattern.UniversityName),
		Pattern:   pattern,
		UpdatedAt: time.Now(),
	}

	filter := bson.M{"key": doc.Key}
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)

	if _, err := c.patterns.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("upsert pattern: %w", err)
	}
	return nil
}

// Close disconnects the underlying client.
func (c *MongoCache) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
