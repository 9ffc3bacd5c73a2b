package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/skillsync-app/auth-service/internal/domain/auth/model"
)

type UserRepo interface {
	CreateUser(ctx context.Context, u model.User) (uuid.UUID, error)

	GetUserByEmail(ctx context.Context, email string) (model.User, error)

	GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error)

	GetUserByUsername(ctx context.Context, username string) (model.User, error)

	UpdateUser(ctx context.Context, u model.User) error

	SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}
