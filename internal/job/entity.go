package job

import "time"

// JobPost is the chat core's view of a job posting: enough to know
// who owns it and how to label the room. Owned by the main backend.
type JobPost struct {
	ID      string `json:"id" bson:"_id"`
	JobID   string `json:"jobId" bson:"job_id"`
	Title   string `json:"title" bson:"title"`
	OwnerID string `json:"ownerId" bson:"owner_id"`
}

// Application is a job application record linking a job seeker to a
// job post. The chat core only ever asks whether one exists.
type Application struct {
	ID          string    `json:"id" bson:"_id"`
	JobPostID   string    `json:"jobPostId" bson:"job_post_id"`
	JobSeekerID string    `json:"jobSeekerId" bson:"job_seeker_id"`
	AppliedAt   time.Time `json:"appliedAt" bson:"applied_at"`
}

// JobSummary is the job-context slice attached to room payloads.
type JobSummary struct {
	ID    string `json:"id"`
	JobID string `json:"jobId"`
	Title string `json:"title"`
}

// Summary converts a JobPost to its room-payload form.
func (p *JobPost) Summary() *JobSummary {
	return &JobSummary{ID: p.ID, JobID: p.JobID, Title: p.Title}
}
