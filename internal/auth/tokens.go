package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Kohanchuk66/anime-back/internal/models"
)

var (
	// ErrTokenExpired means the token verified against the right secret but
	// is past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers bad signatures, malformed tokens and tokens
	// signed for a different category.
	ErrTokenInvalid = errors.New("token invalid")
)

// TokenConfig carries one secret and lifetime per token category. The four
// categories are deliberately not interchangeable: each verification path
// checks against its own secret only.
type TokenConfig struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
	VerifySecret  string
	VerifyTTL     time.Duration
	ResetSecret   string
	ResetTTL      time.Duration
}

// TokenIssuer signs and verifies the four token categories.
type TokenIssuer struct {
	cfg TokenConfig
	now func() time.Time
}

func NewTokenIssuer(cfg TokenConfig) *TokenIssuer {
	return &TokenIssuer{cfg: cfg, now: time.Now}
}

// IdentityClaims is the claim bundle of access and refresh tokens.
type IdentityClaims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// EmailClaims is the claim bundle of email-verification and password-reset
// tokens. They carry only the target email.
type EmailClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (t *TokenIssuer) signIdentity(u *models.User, secret string, expiresAt time.Time) (string, error) {
	claims := IdentityClaims{
		UserID:   u.ID.Hex(),
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(t.now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func (t *TokenIssuer) NewAccessToken(u *models.User) (string, error) {
	return t.signIdentity(u, t.cfg.AccessSecret, t.now().Add(t.cfg.AccessTTL))
}

// NewRefreshToken issues a refresh token with the full configured lifetime.
// It returns the absolute expiry so the cookie max-age can match it.
func (t *TokenIssuer) NewRefreshToken(u *models.User) (string, time.Time, error) {
	exp := t.now().Add(t.cfg.RefreshTTL)
	tok, err := t.signIdentity(u, t.cfg.RefreshSecret, exp)
	return tok, exp, err
}

// RotateRefreshToken issues a replacement refresh token that keeps the
// original absolute expiry. Refreshing narrows the session window toward
// the original expiry instead of extending it.
func (t *TokenIssuer) RotateRefreshToken(u *models.User, expiresAt time.Time) (string, error) {
	return t.signIdentity(u, t.cfg.RefreshSecret, expiresAt)
}

func (t *TokenIssuer) signEmail(email, secret string, ttl time.Duration) (string, error) {
	claims := EmailClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(t.now()),
			ExpiresAt: jwt.NewNumericDate(t.now().Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func (t *TokenIssuer) NewEmailVerifyToken(email string) (string, error) {
	return t.signEmail(email, t.cfg.VerifySecret, t.cfg.VerifyTTL)
}

func (t *TokenIssuer) NewPasswordResetToken(email string) (string, error) {
	return t.signEmail(email, t.cfg.ResetSecret, t.cfg.ResetTTL)
}

func (t *TokenIssuer) verify(tokenStr, secret string, claims jwt.Claims) error {
	tok, err := jwt.ParseWithClaims(tokenStr, claims, func(tk *jwt.Token) (interface{}, error) {
		if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}
	if !tok.Valid {
		return ErrTokenInvalid
	}
	return nil
}

func (t *TokenIssuer) VerifyAccessToken(tokenStr string) (*IdentityClaims, error) {
	var claims IdentityClaims
	if err := t.verify(tokenStr, t.cfg.AccessSecret, &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}

func (t *TokenIssuer) VerifyRefreshToken(tokenStr string) (*IdentityClaims, error) {
	var claims IdentityClaims
	if err := t.verify(tokenStr, t.cfg.RefreshSecret, &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}

func (t *TokenIssuer) VerifyEmailVerifyToken(tokenStr string) (string, error) {
	var claims EmailClaims
	if err := t.verify(tokenStr, t.cfg.VerifySecret, &claims); err != nil {
		return "", err
	}
	return claims.Email, nil
}

func (t *TokenIssuer) VerifyPasswordResetToken(tokenStr string) (string, error) {
	var claims EmailClaims
	if err := t.verify(tokenStr, t.cfg.ResetSecret, &claims); err != nil {
		return "", err
	}
	return claims.Email, nil
}
