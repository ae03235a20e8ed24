package message

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"jobboard-chat/internal/apperror"
	"jobboard-chat/internal/database"
	"jobboard-chat/internal/room"
)

// MongoRepository implements Repository interface using MongoDB
type MongoRepository struct {
	collection *mongo.Collection
}

// NewMongoRepository creates a new MongoDB message repository
func NewMongoRepository(db *database.MongoDB) Repository {
	return &MongoRepository{
		collection: db.GetCollection(database.CollectionMessages),
	}
}

// Insert saves a message and fills in its generated ID
func (r *MongoRepository) Insert(ctx context.Context, msg *Message) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	doc := &Document{
		RoomID:      msg.RoomID,
		SenderID:    msg.SenderID,
		Body:        msg.Body,
		MessageType: msg.MessageType,
		IsRead:      msg.IsRead,
		ReplyToID:   msg.ReplyToID,
		CreatedAt:   msg.CreatedAt,
	}

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to save message: %v", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		msg.ID = oid.Hex()
	}

	return nil
}

// GetByID retrieves a single message by ID
func (r *MongoRepository) GetByID(ctx context.Context, id string) (*Message, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperror.InvalidInput("Invalid message ID")
	}

	var doc Document
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperror.NotFound("Message not found")
		}
		return nil, fmt.Errorf("failed to get message: %v", err)
	}

	return doc.ToMessage(), nil
}

// ListByRoom retrieves one page of room messages, newest first. The
// compound sort on (created_at, _id) keeps concurrent same-timestamp
// writes in insertion order.
func (r *MongoRepository) ListByRoom(ctx context.Context, roomID string, page, limit int) ([]*Message, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"room_id": roomID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve messages: %v", err)
	}
	defer cursor.Close(ctx)

	var messages []*Message
	for cursor.Next(ctx) {
		var doc Document
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		messages = append(messages, doc.ToMessage())
	}

	return messages, nil
}

// MarkRead flags the given messages as read, never the reader's own
func (r *MongoRepository) MarkRead(ctx context.Context, messageIDs []string, readerID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	oids := make([]primitive.ObjectID, 0, len(messageIDs))
	for _, id := range messageIDs {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return 0, apperror.InvalidInput("Invalid message ID")
		}
		oids = append(oids, oid)
	}

	result, err := r.collection.UpdateMany(ctx,
		bson.M{
			"_id":       bson.M{"$in": oids},
			"sender_id": bson.M{"$ne": readerID},
		},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %v", err)
	}

	return result.ModifiedCount, nil
}

// MarkRoomRead flags every unread message in the room not sent by the reader
func (r *MongoRepository) MarkRoomRead(ctx context.Context, roomID, readerID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.collection.UpdateMany(ctx,
		bson.M{
			"room_id":   roomID,
			"sender_id": bson.M{"$ne": readerID},
			"is_read":   false,
		},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark room read: %v", err)
	}

	return result.ModifiedCount, nil
}

// LatestByRoom returns the most recent message of a room, or nil
func (r *MongoRepository) LatestByRoom(ctx context.Context, roomID string) (*room.LastMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.FindOne().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	var doc Document
	err := r.collection.FindOne(ctx, bson.M{"room_id": roomID}, opts).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest message: %v", err)
	}

	return &room.LastMessage{
		ID:          doc.ID.Hex(),
		SenderID:    doc.SenderID,
		Body:        doc.Body,
		MessageType: string(doc.MessageType),
		IsRead:      doc.IsRead,
		CreatedAt:   doc.CreatedAt,
	}, nil
}

// CountUnread counts unread messages in the room not sent by the user
func (r *MongoRepository) CountUnread(ctx context.Context, roomID, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{
		"room_id":   roomID,
		"sender_id": bson.M{"$ne": userID},
		"is_read":   false,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %v", err)
	}

	return count, nil
}
