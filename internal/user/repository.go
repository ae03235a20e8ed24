package user

import "context"

// Repository defines the interface for user directory lookups
type Repository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*User, error)
	Exists(ctx context.Context, id string) (bool, error)
}
