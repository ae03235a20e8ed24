package room

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"jobboard-chat/internal/apperror"
	"jobboard-chat/internal/database"
)

// MongoRepository implements Repository interface using MongoDB
type MongoRepository struct {
	collection *mongo.Collection
}

// NewMongoRepository creates a new MongoDB room repository
func NewMongoRepository(db *database.MongoDB) Repository {
	return &MongoRepository{
		collection: db.GetCollection(database.CollectionRooms),
	}
}

// Create inserts a room with its embedded participants as one atomic
// write. A duplicate room_key maps to ErrDuplicateKey.
func (r *MongoRepository) Create(ctx context.Context, room *Room) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, room); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to create room: %v", err)
	}

	return nil
}

// GetByID retrieves a room by its identifier
func (r *MongoRepository) GetByID(ctx context.Context, id string) (*Room, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByKey retrieves a room by its canonical key
func (r *MongoRepository) GetByKey(ctx context.Context, key string) (*Room, error) {
	return r.findOne(ctx, bson.M{"room_key": key})
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (*Room, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var room Room
	err := r.collection.FindOne(ctx, filter).Decode(&room)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperror.NotFound("Chat room not found")
		}
		return nil, fmt.Errorf("failed to get room: %v", err)
	}

	return &room, nil
}

// ListByParticipant returns the active rooms where the user is an
// active participant, newest activity first.
func (r *MongoRepository) ListByParticipant(ctx context.Context, userID string) ([]*Room, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{
		"is_active": true,
		"participants": bson.M{
			"$elemMatch": bson.M{
				"user_id":   userID,
				"is_active": true,
			},
		},
	}

	opts := options.Find().SetSort(bson.D{{Key: "last_activity", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %v", err)
	}
	defer cursor.Close(ctx)

	var rooms []*Room
	for cursor.Next(ctx) {
		var room Room
		if err := cursor.Decode(&room); err != nil {
			continue
		}
		rooms = append(rooms, &room)
	}

	return rooms, nil
}

// TouchActivity bumps the room's last-activity timestamp
func (r *MongoRepository) TouchActivity(ctx context.Context, roomID string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": roomID},
		bson.M{"$set": bson.M{"last_activity": at}},
	)
	if err != nil {
		return fmt.Errorf("failed to touch room activity: %v", err)
	}

	return nil
}

// UpsertParticipant reactivates an existing participant entry or
// appends a new one. Idempotent for already-active participants.
func (r *MongoRepository) UpsertParticipant(ctx context.Context, roomID string, p Participant) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": roomID, "participants.user_id": p.UserID},
		bson.M{"$set": bson.M{
			"participants.$.is_active": true,
			"participants.$.joined_at": p.JoinedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to reactivate participant: %v", err)
	}

	if result.MatchedCount > 0 {
		return nil
	}

	result, err = r.collection.UpdateOne(ctx,
		bson.M{"_id": roomID},
		bson.M{"$push": bson.M{"participants": p}},
	)
	if err != nil {
		return fmt.Errorf("failed to add participant: %v", err)
	}
	if result.MatchedCount == 0 {
		return apperror.NotFound("Chat room not found")
	}

	return nil
}

// UpdateLastSeen records when an active participant last read the room
func (r *MongoRepository) UpdateLastSeen(ctx context.Context, roomID, userID string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": roomID, "participants": bson.M{"$elemMatch": bson.M{"user_id": userID, "is_active": true}}},
		bson.M{"$set": bson.M{"participants.$.last_seen_at": at}},
	)
	if err != nil {
		return fmt.Errorf("failed to update last seen: %v", err)
	}

	return nil
}
