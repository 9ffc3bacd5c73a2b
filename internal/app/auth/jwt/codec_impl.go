package jwt

import (
	stderrors "errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	customErrors "github.com/skillsync-app/auth-service/internal/domain/auth/errors"
	domainjwt "github.com/skillsync-app/auth-service/internal/domain/auth/jwt"
	"github.com/skillsync-app/auth-service/internal/infra/config"
)

type CodecImpl struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	audience   string
}

func NewCodec(cfg *config.Config) (*CodecImpl, error) {
	if cfg.JWTSecret == "" {
		return nil, customErrors.NewInvalidArgument("empty JWT secret")
	}
	return &CodecImpl{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
	}, nil
}

func (c *CodecImpl) GenerateAccessToken(userID uuid.UUID) (string, time.Time, string, error) {
	return c.generate(userID, domainjwt.KindAccess, c.accessTTL)
}

func (c *CodecImpl) GenerateRefreshToken(userID uuid.UUID) (string, time.Time, string, error) {
	return c.generate(userID, domainjwt.KindRefresh, c.refreshTTL)
}

func (c *CodecImpl) generate(userID uuid.UUID, kind domainjwt.TokenKind, ttl time.Duration) (string, time.Time, string, error) {
	jti := uuid.NewString()
	now := time.Now()

	claims := domainjwt.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{c.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
		Kind: kind,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, "", customErrors.WrapInternal(err, "sign "+string(kind)+" token")
	}

	return signed, claims.ExpiresAt.Time, jti, nil
}

func (c *CodecImpl) ValidateAccessToken(raw string) (domainjwt.Claims, error) {
	return c.validate(raw, domainjwt.KindAccess)
}

func (c *CodecImpl) ValidateRefreshToken(raw string) (domainjwt.Claims, error) {
	return c.validate(raw, domainjwt.KindRefresh)
}

func (c *CodecImpl) validate(raw string, kind domainjwt.TokenKind) (domainjwt.Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &domainjwt.Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, customErrors.ErrInvalidSignature
		}
		return c.secret, nil
	}, jwt.WithIssuedAt(), jwt.WithLeeway(2*time.Minute))

	if err != nil {
		return domainjwt.Claims{}, classifyParseError(err)
	}
	if !token.Valid {
		return domainjwt.Claims{}, customErrors.ErrInvalidSignature
	}

	claims, ok := token.Claims.(*domainjwt.Claims)
	if !ok {
		return domainjwt.Claims{}, customErrors.WrapInternal(
			stderrors.New("claims not Claims"), "validate token")
	}

	if claims.Kind != kind {
		return domainjwt.Claims{}, customErrors.ErrWrongTokenKind
	}

	if c.issuer != "" && claims.Issuer != c.issuer {
		return domainjwt.Claims{}, customErrors.ErrInvalidSignature
	}

	if c.audience != "" {
		okAud := false
		for _, a := range claims.Audience {
			if a == c.audience {
				okAud = true
				break
			}
		}
		if !okAud {
			return domainjwt.Claims{}, customErrors.ErrInvalidSignature
		}
	}

	return *claims, nil
}

func classifyParseError(err error) error {
	switch {
	case stderrors.Is(err, jwt.ErrTokenMalformed):
		return customErrors.ErrMalformedToken
	case stderrors.Is(err, jwt.ErrTokenExpired):
		return customErrors.ErrTokenExpired
	case stderrors.Is(err, jwt.ErrTokenSignatureInvalid):
		return customErrors.ErrInvalidSignature
	default:
		return customErrors.ErrInvalidSignature
	}
}
