package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/skillsync-app/auth-service/internal/domain/auth/model"
)

type OTPRepo interface {
	Create(ctx context.Context, rec model.PasswordResetOTP) error

	// Latest returns the most recently created record for the user that
	// matches code, or ErrNotFound.
	Latest(ctx context.Context, userID uuid.UUID, code string) (model.PasswordResetOTP, error)

	DeleteForUser(ctx context.Context, userID uuid.UUID) error
}
