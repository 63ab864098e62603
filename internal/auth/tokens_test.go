package auth

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Kohanchuk66/anime-back/internal/models"
)

func testConfig() TokenConfig {
	return TokenConfig{
		AccessSecret:  "access-secret",
		AccessTTL:     15 * time.Minute,
		RefreshSecret: "refresh-secret",
		RefreshTTL:    24 * time.Hour,
		VerifySecret:  "verify-secret",
		VerifyTTL:     30 * time.Minute,
		ResetSecret:   "reset-secret",
		ResetTTL:      30 * time.Minute,
	}
}

func testUser() *models.User {
	return &models.User{
		ID:       primitive.NewObjectID(),
		Username: "sakura",
		Email:    "sakura@example.com",
		Role:     models.RoleUser,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer(testConfig())
	user := testUser()

	tok, err := issuer.NewAccessToken(user)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}

	claims, err := issuer.VerifyAccessToken(tok)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if claims.UserID != user.ID.Hex() {
		t.Errorf("userId = %q, want %q", claims.UserID, user.ID.Hex())
	}
	if claims.Username != "sakura" {
		t.Errorf("username = %q, want sakura", claims.Username)
	}
	if claims.Role != models.RoleUser {
		t.Errorf("role = %q, want %q", claims.Role, models.RoleUser)
	}
}

// Tokens of one category must never verify as another category.
func TestTokenCategoriesNotInterchangeable(t *testing.T) {
	issuer := NewTokenIssuer(testConfig())
	user := testUser()

	access, err := issuer.NewAccessToken(user)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	refresh, _, err := issuer.NewRefreshToken(user)
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	verify, err := issuer.NewEmailVerifyToken(user.Email)
	if err != nil {
		t.Fatalf("NewEmailVerifyToken: %v", err)
	}
	reset, err := issuer.NewPasswordResetToken(user.Email)
	if err != nil {
		t.Fatalf("NewPasswordResetToken: %v", err)
	}

	if _, err := issuer.VerifyRefreshToken(access); err != ErrTokenInvalid {
		t.Errorf("access token accepted as refresh token: %v", err)
	}
	if _, err := issuer.VerifyAccessToken(refresh); err != ErrTokenInvalid {
		t.Errorf("refresh token accepted as access token: %v", err)
	}
	if _, err := issuer.VerifyPasswordResetToken(verify); err != ErrTokenInvalid {
		t.Errorf("verify token accepted as reset token: %v", err)
	}
	if _, err := issuer.VerifyEmailVerifyToken(reset); err != ErrTokenInvalid {
		t.Errorf("reset token accepted as verify token: %v", err)
	}
}

func TestExpiredVersusInvalid(t *testing.T) {
	issuer := NewTokenIssuer(testConfig())
	user := testUser()

	base := time.Now()
	issuer.now = func() time.Time { return base }

	tok, err := issuer.NewAccessToken(user)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}

	issuer.now = func() time.Time { return base.Add(16 * time.Minute) }
	if _, err := issuer.VerifyAccessToken(tok); err != ErrTokenExpired {
		t.Errorf("expired token: got %v, want ErrTokenExpired", err)
	}

	issuer.now = func() time.Time { return base }
	if _, err := issuer.VerifyAccessToken(tok + "x"); err != ErrTokenInvalid {
		t.Errorf("tampered token: got %v, want ErrTokenInvalid", err)
	}
	if _, err := issuer.VerifyAccessToken("not-a-jwt"); err != ErrTokenInvalid {
		t.Errorf("garbage token: got %v, want ErrTokenInvalid", err)
	}
}

// Rotation keeps the absolute expiry of the original refresh token, so a
// client refreshing forever still gets logged out at the original deadline.
func TestRotateRefreshTokenKeepsExpiry(t *testing.T) {
	issuer := NewTokenIssuer(testConfig())
	user := testUser()

	base := time.Now().Truncate(time.Second)
	issuer.now = func() time.Time { return base }

	first, exp, err := issuer.NewRefreshToken(user)
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	if want := base.Add(24 * time.Hour); !exp.Equal(want) {
		t.Fatalf("expiry = %v, want %v", exp, want)
	}

	// Refresh 12 hours in.
	issuer.now = func() time.Time { return base.Add(12 * time.Hour) }
	claims, err := issuer.VerifyRefreshToken(first)
	if err != nil {
		t.Fatalf("VerifyRefreshToken: %v", err)
	}

	rotated, err := issuer.RotateRefreshToken(user, claims.ExpiresAt.Time)
	if err != nil {
		t.Fatalf("RotateRefreshToken: %v", err)
	}
	rotatedClaims, err := issuer.VerifyRefreshToken(rotated)
	if err != nil {
		t.Fatalf("VerifyRefreshToken rotated: %v", err)
	}
	if !rotatedClaims.ExpiresAt.Time.Equal(exp) {
		t.Errorf("rotated expiry = %v, want original %v", rotatedClaims.ExpiresAt.Time, exp)
	}

	// Past the original deadline the rotated token is dead too.
	issuer.now = func() time.Time { return base.Add(25 * time.Hour) }
	if _, err := issuer.VerifyRefreshToken(rotated); err != ErrTokenExpired {
		t.Errorf("rotated token past deadline: got %v, want ErrTokenExpired", err)
	}
}

func TestEmailTokensCarryEmail(t *testing.T) {
	issuer := NewTokenIssuer(testConfig())

	tok, err := issuer.NewEmailVerifyToken("mika@example.com")
	if err != nil {
		t.Fatalf("NewEmailVerifyToken: %v", err)
	}
	email, err := issuer.VerifyEmailVerifyToken(tok)
	if err != nil {
		t.Fatalf("VerifyEmailVerifyToken: %v", err)
	}
	if email != "mika@example.com" {
		t.Errorf("email = %q, want mika@example.com", email)
	}
}
