package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/codecompanion-backend/internal/data/repos/testutil"
	types "github.com/yungbote/codecompanion-backend/internal/domain/notifications"
	"github.com/yungbote/codecompanion-backend/internal/platform/ctxutil"
)

func TestTokenIssueVerifyRoundTrip(t *testing.T) {
	ts := NewTokenService(testutil.Logger(t), "secret")
	user := uuid.New()
	tok, err := ts.Issue(user, "a@example.com", types.RoleAdmin, time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	ctx, err := ts.SetContextFromToken(context.Background(), tok)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID != user || rd.Role != types.RoleAdmin || rd.Email != "a@example.com" {
		t.Fatalf("request data: %+v", rd)
	}
}

func TestTokenVerifyFailures(t *testing.T) {
	ts := NewTokenService(testutil.Logger(t), "secret")
	other := NewTokenService(testutil.Logger(t), "other")
	user := uuid.New()

	foreign, _ := other.Issue(user, "", types.RoleStudent, time.Minute)
	expired, _ := ts.Issue(user, "", types.RoleStudent, -time.Minute)
	badRole, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{
		Role:             "all",
		RegisteredClaims: jwt.RegisteredClaims{Subject: user.String()},
	}).SignedString([]byte("secret"))
	unsigned, _ := jwt.NewWithClaims(jwt.SigningMethodNone, JWTClaims{
		Role:             "admin",
		RegisteredClaims: jwt.RegisteredClaims{Subject: user.String()},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	for name, tok := range map[string]string{
		"empty":    "",
		"garbage":  "not-a-token",
		"foreign":  foreign,
		"expired":  expired,
		"bad role": badRole,
		"alg none": unsigned,
	} {
		if _, err := ts.Verify(tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: want ErrInvalidToken got=%v", name, err)
		}
	}
}

func TestTokenVerifyAcceptsIDClaim(t *testing.T) {
	ts := NewTokenService(testutil.Logger(t), "secret")
	user := uuid.New()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{
		ID:    user.String(),
		Email: "s@example.com",
		Role:  "Student",
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	rd, err := ts.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if rd.UserID != user || rd.Role != types.RoleStudent {
		t.Fatalf("request data: %+v", rd)
	}
}
