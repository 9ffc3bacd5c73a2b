package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	customErrors "github.com/skillsync-app/auth-service/internal/domain/auth/errors"
	"github.com/skillsync-app/auth-service/internal/domain/auth/model"
)

type PostgresOTPRepo struct {
	db *gorm.DB
}

func NewPostgresOTPRepo(db *gorm.DB) *PostgresOTPRepo {
	return &PostgresOTPRepo{db: db}
}

func (p *PostgresOTPRepo) Create(ctx context.Context, rec model.PasswordResetOTP) error {
	if err := p.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return customErrors.WrapInternal(err, "CreateOTP")
	}
	return nil
}

func (p *PostgresOTPRepo) Latest(ctx context.Context, userID uuid.UUID, code string) (model.PasswordResetOTP, error) {
	var rec model.PasswordResetOTP
	res := p.db.WithContext(ctx).
		Where("user_id = ? AND otp = ?", userID, code).
		Order("created_at DESC").
		First(&rec)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.PasswordResetOTP{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.PasswordResetOTP{}, customErrors.WrapInternal(err, "LatestOTP")
	}
	return rec, nil
}

func (p *PostgresOTPRepo) DeleteForUser(ctx context.Context, userID uuid.UUID) error {
	res := p.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.PasswordResetOTP{})
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "DeleteOTPsForUser")
	}
	return nil
}
