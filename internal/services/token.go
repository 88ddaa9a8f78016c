package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/codecompanion-backend/internal/domain/notifications"
	"github.com/yungbote/codecompanion-backend/internal/platform/ctxutil"
	"github.com/yungbote/codecompanion-backend/internal/platform/logger"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// JWTClaims mirrors the tokens minted by the auth service: the user id may
// arrive as the subject or as an "id" claim.
type JWTClaims struct {
	ID    string `json:"id,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type TokenService interface {
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	Verify(tokenString string) (*ctxutil.RequestData, error)
	Issue(userID uuid.UUID, email string, role notifications.Role, ttl time.Duration) (string, error)
}

type tokenService struct {
	log       *logger.Logger
	secretKey []byte
}

func NewTokenService(log *logger.Logger, jwtSecretKey string) TokenService {
	return &tokenService{
		log:       log.With("service", "TokenService"),
		secretKey: []byte(jwtSecretKey),
	}
}

func (ts *tokenService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	rd, err := ts.Verify(tokenString)
	if err != nil {
		return ctx, err
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func (ts *tokenService) Verify(tokenString string) (*ctxutil.RequestData, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrInvalidToken
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return ts.secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return nil, ErrInvalidToken
	}

	rawID := claims.Subject
	if rawID == "" {
		rawID = claims.ID
	}
	userID, err := uuid.Parse(rawID)
	if err != nil || userID == uuid.Nil {
		return nil, fmt.Errorf("%w: invalid user id", ErrInvalidToken)
	}
	role := notifications.Role(strings.ToLower(strings.TrimSpace(claims.Role)))
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, notifications.ErrInvalidRole)
	}
	return &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		Email:       claims.Email,
		Role:        role,
	}, nil
}

func (ts *tokenService) Issue(userID uuid.UUID, email string, role notifications.Role, ttl time.Duration) (string, error) {
	if !role.Valid() {
		return "", notifications.ErrInvalidRole
	}
	now := time.Now()
	claims := JWTClaims{
		ID:    userID.String(),
		Email: email,
		Role:  string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ts.secretKey)
}
