package job

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
	jobPosts     *mongo.Collection
	applications *mongo.Collection
}

// NewMongoRepository creates a new MongoDB job repository
func NewMongoRepository(db *database.MongoDB) Repository {
	return &MongoRepository{
		jobPosts:     db.GetCollection(database.CollectionJobPosts),
		applications: db.GetCollection(database.CollectionApplications),
	}
}

// GetJobPost retrieves a job post by ID
func (r *MongoRepository) GetJobPost(ctx context.Context, jobPostID string) (*JobPost, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var post JobPost
	err := r.jobPosts.FindOne(ctx, bson.M{"_id": jobPostID}).Decode(&post)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperror.NotFound("Job post not found")
		}
		return nil, fmt.Errorf("failed to get job post: %v", err)
	}

	return &post, nil
}

// HasApplication checks both orientations: either user may be the
// job owner as long as the other has applied to the post.
func (r *MongoRepository) HasApplication(ctx context.Context, userA, userB, jobPostID string) (bool, error) {
	post, err := r.GetJobPost(ctx, jobPostID)
	if err != nil {
		if apperror.IsKind(err, apperror.KindNotFound) {
			return false, nil
		}
		return false, err
	}

	var seeker string
	switch post.OwnerID {
	case userA:
		seeker = userB
	case userB:
		seeker = userA
	default:
		// Neither participant owns the job post.
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	count, err := r.applications.CountDocuments(ctx, bson.M{
		"job_post_id":   jobPostID,
		"job_seeker_id": seeker,
	})
	if err != nil {
		return false, fmt.Errorf("failed to check job application: %v", err)
	}

	return count > 0, nil
}
