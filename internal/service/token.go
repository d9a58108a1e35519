package service

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

var (
	ErrTokenExpired        = errors.New("token expired")
	ErrTokenInvalid        = errors.New("invalid token")
	ErrTokenMissingSubject = errors.New("token has no admin_id")
)

// SessionClaims is the signed payload of an admin session token.
type SessionClaims struct {
	AdminID int64 `json:"admin_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256 session tokens. There is no revocation:
// a token stays valid until its exp claim.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		// Expiry is checked against s.now in Validate instead of jwt.TimeFunc.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}
}

func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

func (s *TokenService) Issue(adminID int64) (string, error) {
	now := s.now()
	claims := SessionClaims{
		AdminID: adminID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Validate returns the admin id carried by token. The signature is verified
// before any claim is read. Errors wrap ErrTokenInvalid, ErrTokenExpired or
// ErrTokenMissingSubject.
func (s *TokenService) Validate(token string) (int64, error) {
	// jwt decodes segments leniently, so a signature differing only in the
	// trailing pad bits would still verify.
	if i := strings.LastIndexByte(token, '.'); i >= 0 {
		if _, err := base64.RawURLEncoding.Strict().DecodeString(token[i+1:]); err != nil {
			return 0, fmt.Errorf("%w: malformed signature", ErrTokenInvalid)
		}
	}

	var claims SessionClaims
	if _, err := s.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if claims.ExpiresAt == nil {
		return 0, fmt.Errorf("%w: no exp claim", ErrTokenInvalid)
	}
	if !s.now().Before(claims.ExpiresAt.Time) {
		return 0, ErrTokenExpired
	}

	if claims.AdminID == 0 {
		return 0, ErrTokenMissingSubject
	}

	return claims.AdminID, nil
}
