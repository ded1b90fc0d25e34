package service

import (
	"errors"
	"testing"
	"time"

	"github.com/padala-next/internal/config"
	"github.com/padala-next/internal/constants"
)

func newTestTokenService(t *testing.T, secret string) *TokenService {
	t.Helper()
	svc, err := NewTokenService(config.JWTConfig{SecretKey: secret, ExpireHours: 2})
	if err != nil {
		t.Fatalf("new token service failed: %v", err)
	}
	return svc
}

func TestTokenIssueAndParse(t *testing.T) {
	svc := newTestTokenService(t, "unit-test-secret")

	token, expiresAt, err := svc.Issue(11, "Driver", 4)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if d := time.Until(expiresAt); d < time.Hour || d > 2*time.Hour {
		t.Fatalf("unexpected expiry: %s", expiresAt)
	}
	claims, err := svc.Parse(token)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.UserID != 11 || claims.Role != constants.RoleDriver || claims.DriverID != 4 {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Subject != "11" {
		t.Fatalf("subject want 11 got %q", claims.Subject)
	}
}

func TestTokenIssueDropsDriverIDForStaff(t *testing.T) {
	svc := newTestTokenService(t, "unit-test-secret")
	token, _, err := svc.Issue(3, constants.RoleFinance, 99)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	claims, err := svc.Parse(token)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.DriverID != 0 {
		t.Fatalf("finance token should not carry driver id, got %d", claims.DriverID)
	}
}

func TestTokenIssueValidation(t *testing.T) {
	svc := newTestTokenService(t, "unit-test-secret")
	cases := []struct {
		name     string
		userID   uint
		role     string
		driverID uint
	}{
		{name: "missing user", userID: 0, role: constants.RoleOps},
		{name: "unknown role", userID: 1, role: "admin"},
		{name: "driver without id", userID: 1, role: constants.RoleDriver},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := svc.Issue(tc.userID, tc.role, tc.driverID); !errors.Is(err, ErrRoleInvalid) {
				t.Fatalf("expected ErrRoleInvalid, got %v", err)
			}
		})
	}
}

func TestTokenParseRejectsTamperedAndExpired(t *testing.T) {
	issuer := newTestTokenService(t, "secret-a")
	token, _, err := issuer.Issue(1, constants.RoleOps, 0)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	other := newTestTokenService(t, "secret-b")
	if _, err := other.Parse(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for wrong secret, got %v", err)
	}

	issuer.now = func() time.Time { return time.Now().Add(3 * time.Hour) }
	if _, err := issuer.Parse(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for expired token, got %v", err)
	}

	if _, err := issuer.Parse("not-a-token"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for garbage, got %v", err)
	}
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	if _, err := NewTokenService(config.JWTConfig{SecretKey: "  "}); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
