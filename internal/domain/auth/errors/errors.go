package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInternal           = errors.New("internal error")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidOTP         = errors.New("invalid or expired otp")
	ErrRateExceeded       = errors.New("rate limit exceeded")

	// Token failures all wrap ErrInvalidToken so transports can collapse
	// the whole class without knowing which check tripped.
	ErrInvalidToken     = errors.New("invalid token")
	ErrMalformedToken   = fmt.Errorf("%w: malformed", ErrInvalidToken)
	ErrInvalidSignature = fmt.Errorf("%w: bad signature", ErrInvalidToken)
	ErrTokenExpired     = fmt.Errorf("%w: expired", ErrInvalidToken)
	ErrWrongTokenKind   = fmt.Errorf("%w: wrong kind", ErrInvalidToken)
	ErrTokenRevoked     = fmt.Errorf("%w: revoked", ErrInvalidToken)
	ErrUnknownSubject   = fmt.Errorf("%w: unknown subject", ErrInvalidToken)
)

func NewInvalidArgument(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}

func WrapInternal(err error, context string) error {
	return fmt.Errorf("%w: %s: %v", ErrInternal, context, err)
}

func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

func IsInternal(err error) bool {
	return errors.Is(err, ErrInternal)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalidCredentials(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

func IsInvalidToken(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}

func IsTokenExpired(err error) bool {
	return errors.Is(err, ErrTokenExpired)
}

func IsTokenRevoked(err error) bool {
	return errors.Is(err, ErrTokenRevoked)
}

func IsInvalidOTP(err error) bool {
	return errors.Is(err, ErrInvalidOTP)
}

func IsRateExceeded(err error) bool {
	return errors.Is(err, ErrRateExceeded)
}
