package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"inkwell/models"
	"inkwell/users"
)

// Claims is the signed payload carried by a credential: the user identity
// plus the standard issued-at/expiry fields.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies stateless signed credentials. Nothing is
// persisted; validity rests on the signature and expiry alone.
type TokenService struct {
	secret    []byte
	ttl       time.Duration
	directory *users.Directory
	log       *zap.Logger
}

func NewTokenService(secret string, ttl time.Duration, directory *users.Directory, logger *zap.Logger) *TokenService {
	return &TokenService{
		secret:    []byte(secret),
		ttl:       ttl,
		directory: directory,
		log:       logger.Named("auth"),
	}
}

// Issue signs a credential for the given user id.
func (s *TokenService) Issue(userID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		s.log.Error("failed to sign token", zap.Error(err))
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify returns the claims for a valid credential, or nil on any failure:
// bad signature, wrong algorithm, malformed input, expiry.
func (s *TokenService) Verify(tokenString string) *Claims {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		s.log.Debug("token verification failed", zap.Error(err))
		return nil
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil
	}
	return claims
}

// ResolveUser verifies the credential and looks up the user it names.
func (s *TokenService) ResolveUser(tokenString string) *models.User {
	claims := s.Verify(tokenString)
	if claims == nil {
		return nil
	}
	return s.directory.GetByID(claims.UserID)
}
