package user

// User is the directory view of an account: the display fields the
// chat core needs, nothing more. The user collection is owned by the
// main job-board backend; this package only reads it.
type User struct {
	ID         string `json:"id" bson:"_id"`
	FullName   string `json:"fullName" bson:"full_name"`
	Email      string `json:"email" bson:"email"`
	ProfilePic string `json:"profilePic,omitempty" bson:"profile_pic,omitempty"`
	Role       string `json:"role" bson:"role"`
}
