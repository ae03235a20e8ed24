package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names used by the chat core.
const (
	CollectionUsers        = "users"
	CollectionJobPosts     = "job_posts"
	CollectionApplications = "job_applications"
	CollectionRooms        = "chat_rooms"
	CollectionMessages     = "chat_messages"
)

// MongoDB represents a MongoDB connection
type MongoDB struct {
	client   *mongo.Client
	database *mongo.Database
	config   *MongoConfig
}

// MongoConfig holds MongoDB configuration
type MongoConfig struct {
	URI            string        `json:"uri"`
	Database       string        `json:"database"`
	ConnectTimeout time.Duration `json:"connect_timeout"`
	PingTimeout    time.Duration `json:"ping_timeout"`
	MaxPoolSize    uint64        `json:"max_pool_size"`
	MinPoolSize    uint64        `json:"min_pool_size"`
}

// DefaultMongoConfig returns default MongoDB configuration
func DefaultMongoConfig() *MongoConfig {
	return &MongoConfig{
		URI:            "mongodb://localhost:27017",
		Database:       "jobboard_chat",
		ConnectTimeout: 10 * time.Second,
		PingTimeout:    5 * time.Second,
		MaxPoolSize:    100,
		MinPoolSize:    5,
	}
}

// NewMongoDB creates a new MongoDB connection
func NewMongoDB(config *MongoConfig) (*MongoDB, error) {
	if config == nil {
		config = DefaultMongoConfig()
	}

	clientOptions := options.Client().
		ApplyURI(config.URI).
		SetConnectTimeout(config.ConnectTimeout).
		SetMaxPoolSize(config.MaxPoolSize).
		SetMinPoolSize(config.MinPoolSize)

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), config.PingTimeout)
	defer pingCancel()

	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	database := client.Database(config.Database)

	log.Printf("✅ Connected to MongoDB: %s/%s", config.URI, config.Database)

	return &MongoDB{
		client:   client,
		database: database,
		config:   config,
	}, nil
}

// GetCollection returns a collection
func (m *MongoDB) GetCollection(name string) *mongo.Collection {
	return m.database.Collection(name)
}

// Close closes the MongoDB connection
func (m *MongoDB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := m.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %v", err)
	}

	log.Println("✅ Disconnected from MongoDB")
	return nil
}

// CreateIndexes creates necessary indexes for collections.
// The unique index on chat_rooms.room_key is what makes concurrent
// room resolution race-safe: the losing insert gets a duplicate-key
// error and falls back to a fetch.
func (m *MongoDB) CreateIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	roomsCollection := m.GetCollection(CollectionRooms)
	roomIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "room_key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "participants.user_id", Value: 1}, {Key: "last_activity", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "is_active", Value: 1}},
		},
	}

	if _, err := roomsCollection.Indexes().CreateMany(ctx, roomIndexes); err != nil {
		return fmt.Errorf("failed to create room indexes: %v", err)
	}

	messagesCollection := m.GetCollection(CollectionMessages)
	messageIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "sender_id", Value: 1}, {Key: "is_read", Value: 1}},
		},
	}

	if _, err := messagesCollection.Indexes().CreateMany(ctx, messageIndexes); err != nil {
		return fmt.Errorf("failed to create message indexes: %v", err)
	}

	applicationsCollection := m.GetCollection(CollectionApplications)
	applicationIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "job_post_id", Value: 1}, {Key: "job_seeker_id", Value: 1}},
		},
	}

	if _, err := applicationsCollection.Indexes().CreateMany(ctx, applicationIndexes); err != nil {
		return fmt.Errorf("failed to create application indexes: %v", err)
	}

	log.Println("✅ Created MongoDB indexes")
	return nil
}

// HealthCheck performs a health check on the MongoDB connection
func (m *MongoDB) HealthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), m.config.PingTimeout)
	defer cancel()

	if err := m.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("MongoDB health check failed: %v", err)
	}

	return nil
}
