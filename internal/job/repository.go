package job

import "context"

// Repository defines the eligibility lookups the chat core needs.
type Repository interface {
	GetJobPost(ctx context.Context, jobPostID string) (*JobPost, error)

	// HasApplication reports whether a qualifying application links
	// the two users and the job post: one of them owns the post and
	// the other has applied to it.
	HasApplication(ctx context.Context, userA, userB, jobPostID string) (bool, error)
}
