package user

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"jobboard-chat/internal/apperror"
	"jobboard-chat/internal/database"
)

// MongoRepository implements Repository interface using MongoDB
type MongoRepository struct {
	collection *mongo.Collection
}

// NewMongoRepository creates a new MongoDB user repository
func NewMongoRepository(db *database.MongoDB) Repository {
	return &MongoRepository{
		collection: db.GetCollection(database.CollectionUsers),
	}
}

// GetByID retrieves a user by ID
func (r *MongoRepository) GetByID(ctx context.Context, id string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var u User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperror.NotFound("User not found")
		}
		return nil, fmt.Errorf("failed to get user: %v", err)
	}

	return &u, nil
}

// GetByIDs retrieves several users at once, keyed by ID. Missing ids
// are simply absent from the result.
func (r *MongoRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %v", err)
	}
	defer cursor.Close(ctx)

	users := make(map[string]*User, len(ids))
	for cursor.Next(ctx) {
		var u User
		if err := cursor.Decode(&u); err != nil {
			continue
		}
		users[u.ID] = &u
	}

	return users, nil
}

// Exists reports whether a user with the given ID exists
func (r *MongoRepository) Exists(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %v", err)
	}

	return count > 0, nil
}
