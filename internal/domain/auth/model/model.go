package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID              uuid.UUID
	Email           string
	Username        string
	PasswordHash    string
	FullName        string
	Bio             string
	ProfilePhotoURL string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type TokenPair struct {
	AccessToken     string
	RefreshToken    string
	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	UserID          uuid.UUID
	RefreshTokenJTI string
}

// AccessGrant is a freshly minted access token that still has to be
// delivered to the client as an updated cookie.
type AccessGrant struct {
	Token     string
	TTL       time.Duration
	ExpiresAt time.Time
}

// Session is the outcome of validating one request's cookies.
// User == nil means the request proceeds as anonymous. RenewedAccess, when
// set, must be written back to the response by the transport layer.
type Session struct {
	User          *User
	RenewedAccess *AccessGrant
}

func (s Session) Authenticated() bool {
	return s.User != nil
}

// PasswordResetOTP is a single-use six-digit reset code. Several live rows
// may exist for one user; only a successful password reset purges them.
type PasswordResetOTP struct {
	ID        uint
	UserID    uuid.UUID
	OTP       string
	CreatedAt time.Time
}

func (PasswordResetOTP) TableName() string {
	return "password_reset_otps"
}

func (o PasswordResetOTP) ExpiredAt(ttl time.Duration, now time.Time) bool {
	return now.After(o.CreatedAt.Add(ttl))
}
