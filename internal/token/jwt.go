package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dunet/session-server/internal/model"
)

// Claims represents JWT claims with token type and session version.
type Claims struct {
	jwt.RegisteredClaims
	Version   int64      `json:"ver"`
	TokenType model.Kind `json:"typ"`
}

// JWT implements model.TokenCodec backed by symmetric HMAC.
// Access and refresh credentials are signed with independent secrets.
type JWT struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	now           func() time.Time
}

var _ model.TokenCodec = (*JWT)(nil)

// Option configures a JWT codec.
type Option func(*JWT)

// WithClock overrides the time source used for issuing and validating tokens.
func WithClock(now func() time.Time) Option {
	return func(j *JWT) { j.now = now }
}

// WithIssuer sets the iss claim written and required on every token.
func WithIssuer(issuer string) Option {
	return func(j *JWT) { j.issuer = issuer }
}

// NewJWT creates a new codec with the provided access and refresh secrets.
func NewJWT(accessSecret, refreshSecret string, opts ...Option) *JWT {
	j := &JWT{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

func (j *JWT) secret(kind model.Kind) ([]byte, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown token kind %q", kind)
	}
	if kind == model.KindAccess {
		return j.accessSecret, nil
	}
	return j.refreshSecret, nil
}

// Encode signs a credential of the given kind for subject at version, valid for ttl.
func (j *JWT) Encode(kind model.Kind, subject int64, version int64, ttl time.Duration) (string, error) {
	key, err := j.secret(kind)
	if err != nil {
		return "", err
	}
	if ttl <= 0 {
		return "", fmt.Errorf("non-positive %s ttl %s", kind, ttl)
	}
	if version < 0 {
		return "", fmt.Errorf("negative version %d", version)
	}

	now := j.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    j.issuer,
			Subject:   strconv.FormatInt(subject, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Version:   version,
		TokenType: kind,
	})

	tokenString, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}

	return tokenString, nil
}

// Decode verifies raw as a credential of the given kind and returns its claims.
// It returns model.ErrExpiredCredential past expiry and model.ErrMalformedCredential
// for every other verification failure.
func (j *JWT) Decode(kind model.Kind, raw string) (model.Claims, error) {
	key, err := j.secret(kind)
	if err != nil {
		return model.Claims{}, fmt.Errorf("%w: %w", model.ErrMalformedCredential, err)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return key, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.Claims{}, fmt.Errorf("%w: %s token", model.ErrExpiredCredential, kind)
		}
		return model.Claims{}, fmt.Errorf("%w: %w", model.ErrMalformedCredential, err)
	}
	if !token.Valid {
		return model.Claims{}, fmt.Errorf("%w: %s token is invalid", model.ErrMalformedCredential, kind)
	}
	if claims.TokenType != kind {
		return model.Claims{}, fmt.Errorf("%w: token type mismatch: %s", model.ErrMalformedCredential, claims.TokenType)
	}

	subject, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return model.Claims{}, fmt.Errorf("%w: bad subject: %w", model.ErrMalformedCredential, err)
	}
	if claims.Version < 0 {
		return model.Claims{}, fmt.Errorf("%w: negative version", model.ErrMalformedCredential)
	}

	out := model.Claims{Subject: subject, Version: claims.Version}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
