package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skillsync-app/auth-service/internal/adapters/transport/http/dto"
	customErrors "github.com/skillsync-app/auth-service/internal/domain/auth/errors"
	"github.com/skillsync-app/auth-service/internal/domain/auth/jwt"
	"github.com/skillsync-app/auth-service/internal/domain/auth/model"
	"github.com/skillsync-app/auth-service/internal/domain/auth/repo"
	"github.com/skillsync-app/auth-service/internal/infra/config"
)

var argonParams = &argon2id.Params{
	Memory:      64 * 1024, // 64 MiB
	Iterations:  2,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

type authService struct {
	userRepo  repo.UserRepo
	tokenRepo repo.TokenRepo
	otpRepo   repo.OTPRepo
	notifier  repo.Notifier
	codec     jwt.TokenCodec
	cfg       *config.Config
	v         *validator.Validate
	log       *zap.Logger
}

type Service interface {
	Register(context.Context, dto.RegisterDTO) (model.TokenPair, error)
	Login(context.Context, dto.LoginDTO) (model.TokenPair, error)
	Authenticate(context.Context, dto.AuthenticateDTO) (model.Session, error)
	Refresh(context.Context, dto.RefreshDTO) (model.AccessGrant, error)
	Logout(context.Context, dto.LogoutDTO) error
	RequestPasswordReset(context.Context, dto.RequestPasswordResetDTO) error
	VerifyResetOTP(context.Context, dto.VerifyOTPDTO) error
	ResetPassword(context.Context, dto.ResetPasswordDTO) error
}

func New(
	ur repo.UserRepo,
	tr repo.TokenRepo,
	or repo.OTPRepo,
	n repo.Notifier,
	codec jwt.TokenCodec,
	cfg *config.Config,
	v *validator.Validate,
	log *zap.Logger,
) Service {
	return &authService{
		userRepo: ur, tokenRepo: tr, otpRepo: or, notifier: n,
		codec: codec, cfg: cfg, v: v, log: log,
	}
}

func (a *authService) Register(ctx context.Context, d dto.RegisterDTO) (model.TokenPair, error) {
	if err := a.v.Struct(d); err != nil {
		return model.TokenPair{}, customErrors.NewInvalidArgument(err.Error())
	}

	passwordHash, err := argon2id.CreateHash(d.Password+a.cfg.PasswordPepper, argonParams)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "Register")
	}

	user := model.User{
		ID:           uuid.New(),
		Email:        d.Email,
		Username:     d.Username,
		FullName:     d.FullName,
		PasswordHash: passwordHash,
	}
	if _, err = a.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, customErrors.ErrAlreadyExists) {
			return model.TokenPair{}, customErrors.ErrAlreadyExists
		}
		return model.TokenPair{}, customErrors.WrapInternal(err, "Register")
	}

	return a.issueTokens(user.ID)
}

func (a *authService) Login(ctx context.Context, d dto.LoginDTO) (model.TokenPair, error) {
	if err := a.v.Struct(d); err != nil {
		return model.TokenPair{}, customErrors.NewInvalidArgument(err.Error())
	}

	user, err := a.userRepo.GetUserByEmail(ctx, d.Email)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.TokenPair{}, customErrors.ErrInvalidCredentials
	case err != nil:
		return model.TokenPair{}, customErrors.WrapInternal(err, "Login")
	}

	ok, err := argon2id.ComparePasswordAndHash(d.Password+a.cfg.PasswordPepper, user.PasswordHash)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "Login")
	}
	if !ok {
		return model.TokenPair{}, customErrors.ErrInvalidCredentials
	}

	return a.issueTokens(user.ID)
}

// Authenticate resolves one request's cookies to a session. Token failures
// of any class collapse to anonymous; only backing-store trouble comes
// back as an error.
func (a *authService) Authenticate(ctx context.Context, d dto.AuthenticateDTO) (model.Session, error) {
	if d.AccessToken == "" {
		return model.Session{}, nil
	}

	claims, err := a.codec.ValidateAccessToken(d.AccessToken)
	switch {
	case err == nil:
		user, err := a.resolveSubject(ctx, claims.Subject)
		if err != nil {
			if customErrors.IsInternal(err) {
				return model.Session{}, err
			}
			return model.Session{}, nil
		}
		return model.Session{User: &user}, nil

	case customErrors.IsTokenExpired(err):
		return a.renewSession(ctx, d.RefreshToken)

	default:
		// malformed, bad signature, wrong kind
		return model.Session{}, nil
	}
}

// renewSession is the silent-renewal path: expired access cookie, so the
// refresh cookie decides. The refresh token is not rotated here.
func (a *authService) renewSession(ctx context.Context, refreshToken string) (model.Session, error) {
	if refreshToken == "" {
		return model.Session{}, nil
	}

	claims, err := a.codec.ValidateRefreshToken(refreshToken)
	if err != nil {
		return model.Session{}, nil
	}

	revoked, err := a.tokenRepo.IsRevoked(ctx, claims.ID)
	if err != nil {
		return model.Session{}, customErrors.WrapInternal(err, "Authenticate")
	}
	if revoked {
		return model.Session{}, nil
	}

	user, err := a.resolveSubject(ctx, claims.Subject)
	if err != nil {
		if customErrors.IsInternal(err) {
			return model.Session{}, err
		}
		return model.Session{}, nil
	}

	token, exp, _, err := a.codec.GenerateAccessToken(user.ID)
	if err != nil {
		return model.Session{}, customErrors.WrapInternal(err, "Authenticate")
	}

	return model.Session{
		User: &user,
		RenewedAccess: &model.AccessGrant{
			Token:     token,
			TTL:       time.Until(exp),
			ExpiresAt: exp,
		},
	}, nil
}

// Refresh is the explicit renewal endpoint. Unlike the silent path it
// reports why it refused: a revoked token yields a revocation-class error,
// not an expiry-class one.
func (a *authService) Refresh(ctx context.Context, d dto.RefreshDTO) (model.AccessGrant, error) {
	if err := a.v.Struct(d); err != nil {
		return model.AccessGrant{}, customErrors.NewInvalidArgument(err.Error())
	}

	claims, err := a.codec.ValidateRefreshToken(d.RefreshToken)
	if err != nil {
		return model.AccessGrant{}, err
	}

	revoked, err := a.tokenRepo.IsRevoked(ctx, claims.ID)
	if err != nil {
		return model.AccessGrant{}, customErrors.WrapInternal(err, "Refresh")
	}
	if revoked {
		return model.AccessGrant{}, customErrors.ErrTokenRevoked
	}

	user, err := a.resolveSubject(ctx, claims.Subject)
	if err != nil {
		return model.AccessGrant{}, err
	}

	token, exp, _, err := a.codec.GenerateAccessToken(user.ID)
	if err != nil {
		return model.AccessGrant{}, customErrors.WrapInternal(err, "Refresh")
	}

	return model.AccessGrant{Token: token, TTL: time.Until(exp), ExpiresAt: exp}, nil
}

// Logout blacklists the refresh token's jti for the rest of its lifetime.
// Missing or unparseable input is a no-op: logout must always succeed from
// the client's point of view. Access tokens already in the wild stay valid
// until their own expiry.
func (a *authService) Logout(ctx context.Context, d dto.LogoutDTO) error {
	if d.RefreshToken == "" {
		return nil
	}

	claims, err := a.codec.ValidateRefreshToken(d.RefreshToken)
	if err != nil {
		return nil
	}

	if err := a.tokenRepo.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return customErrors.WrapInternal(err, "Logout")
	}
	return nil
}

func (a *authService) RequestPasswordReset(ctx context.Context, d dto.RequestPasswordResetDTO) error {
	if err := a.v.Struct(d); err != nil {
		return customErrors.NewInvalidArgument(err.Error())
	}

	user, err := a.userRepo.GetUserByEmail(ctx, d.Email)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return customErrors.ErrNotFound
	case err != nil:
		return customErrors.WrapInternal(err, "RequestPasswordReset")
	}

	code, err := generateOTP()
	if err != nil {
		return customErrors.WrapInternal(err, "RequestPasswordReset")
	}

	// earlier still-valid codes stay usable
	rec := model.PasswordResetOTP{
		UserID:    user.ID,
		OTP:       code,
		CreatedAt: time.Now(),
	}
	if err := a.otpRepo.Create(ctx, rec); err != nil {
		return customErrors.WrapInternal(err, "RequestPasswordReset")
	}

	// Dispatch is bounded and decoupled: the code exists either way, so a
	// broker hiccup is not a reset failure.
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.NotifyTimeout)
	defer cancel()
	body := fmt.Sprintf(
		"Hi %s,\n\nYour SkillSync password reset code is %s. It expires in %d minutes.\n",
		user.Username, code, int(a.cfg.OTPTTL.Minutes()),
	)
	if err := a.notifier.Send(nctx, user.Email, "SkillSync Password Reset OTP", body); err != nil {
		a.log.Error("otp dispatch failed", zap.Error(err))
	}

	return nil
}

// VerifyResetOTP is advisory only: it checks the latest matching code
// without consuming it, so clients may call it repeatedly.
func (a *authService) VerifyResetOTP(ctx context.Context, d dto.VerifyOTPDTO) error {
	if err := a.v.Struct(d); err != nil {
		return customErrors.NewInvalidArgument(err.Error())
	}

	user, err := a.userRepo.GetUserByEmail(ctx, d.Email)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return customErrors.ErrInvalidOTP
	case err != nil:
		return customErrors.WrapInternal(err, "VerifyResetOTP")
	}

	rec, err := a.otpRepo.Latest(ctx, user.ID, d.OTP)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return customErrors.ErrInvalidOTP
	case err != nil:
		return customErrors.WrapInternal(err, "VerifyResetOTP")
	}

	if rec.ExpiredAt(a.cfg.OTPTTL, time.Now()) {
		return customErrors.ErrInvalidOTP
	}
	return nil
}

// ResetPassword sets the new credential and purges every outstanding OTP
// for the account. It does not re-check a code: verify and reset are
// separate calls and the server keeps no state between them.
func (a *authService) ResetPassword(ctx context.Context, d dto.ResetPasswordDTO) error {
	if err := a.v.Struct(d); err != nil {
		return customErrors.NewInvalidArgument(err.Error())
	}

	user, err := a.userRepo.GetUserByEmail(ctx, d.Email)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return customErrors.ErrNotFound
	case err != nil:
		return customErrors.WrapInternal(err, "ResetPassword")
	}

	hash, err := argon2id.CreateHash(d.NewPassword+a.cfg.PasswordPepper, argonParams)
	if err != nil {
		return customErrors.WrapInternal(err, "ResetPassword")
	}
	if err := a.userRepo.SetPasswordHash(ctx, user.ID, hash); err != nil {
		return customErrors.WrapInternal(err, "ResetPassword")
	}

	if err := a.otpRepo.DeleteForUser(ctx, user.ID); err != nil {
		return customErrors.WrapInternal(err, "ResetPassword")
	}
	return nil
}

func (a *authService) resolveSubject(ctx context.Context, subject string) (model.User, error) {
	uid, err := uuid.Parse(subject)
	if err != nil {
		return model.User{}, customErrors.ErrUnknownSubject
	}
	user, err := a.userRepo.GetUserByID(ctx, uid)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.User{}, customErrors.ErrUnknownSubject
	case err != nil:
		return model.User{}, customErrors.WrapInternal(err, "resolveSubject")
	}
	return user, nil
}

func (a *authService) issueTokens(uid uuid.UUID) (model.TokenPair, error) {
	at, atExp, _, err := a.codec.GenerateAccessToken(uid)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "GenerateAccessToken")
	}
	rt, rtExp, jti, err := a.codec.GenerateRefreshToken(uid)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "GenerateRefreshToken")
	}

	now := time.Now()
	return model.TokenPair{
		AccessToken:     at,
		RefreshToken:    rt,
		AccessTTL:       atExp.Sub(now),
		RefreshTTL:      rtExp.Sub(now),
		UserID:          uid,
		RefreshTokenJTI: jti,
	}, nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
