package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Kohanchuk66/anime-back/internal/auth"
	"github.com/Kohanchuk66/anime-back/internal/models"
	"github.com/Kohanchuk66/anime-back/internal/services"
)

type fakeUserStore struct {
	byEmail    map[string]*models.User
	byUsername map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byEmail:    map[string]*models.User{},
		byUsername: map[string]*models.User{},
	}
}

func (s *fakeUserStore) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if _, ok := s.byEmail[user.Email]; ok {
		return nil, services.ErrEmailTaken
	}
	if _, ok := s.byUsername[user.Username]; ok {
		return nil, services.ErrUsernameTaken
	}
	u := *user
	u.ID = primitive.NewObjectID()
	u.IsVerified = false
	u.Role = models.RoleUser
	s.byEmail[u.Email] = &u
	s.byUsername[u.Username] = &u
	return &u, nil
}

func (s *fakeUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u, ok := s.byEmail[email]
	if !ok {
		return nil, services.ErrUserNotFound
	}
	return u, nil
}

func (s *fakeUserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	u, ok := s.byUsername[username]
	if !ok {
		return nil, services.ErrUserNotFound
	}
	return u, nil
}

func (s *fakeUserStore) MarkVerified(ctx context.Context, email string) error {
	u, ok := s.byEmail[email]
	if !ok {
		return services.ErrUserNotFound
	}
	u.IsVerified = true
	return nil
}

func (s *fakeUserStore) UpdatePassword(ctx context.Context, email, hash string) error {
	u, ok := s.byEmail[email]
	if !ok {
		return services.ErrUserNotFound
	}
	u.Password = hash
	return nil
}

type sentMail struct {
	recipient string
	subject   string
	body      string
}

type recordingMailer struct {
	sent []sentMail
}

func (m *recordingMailer) Send(ctx context.Context, recipient, subject, htmlBody string) error {
	m.sent = append(m.sent, sentMail{recipient, subject, htmlBody})
	return nil
}

func authTestIssuer() *auth.TokenIssuer {
	return auth.NewTokenIssuer(auth.TokenConfig{
		AccessSecret:  "access-secret",
		AccessTTL:     15 * time.Minute,
		RefreshSecret: "refresh-secret",
		RefreshTTL:    24 * time.Hour,
		VerifySecret:  "verify-secret",
		VerifyTTL:     30 * time.Minute,
		ResetSecret:   "reset-secret",
		ResetTTL:      30 * time.Minute,
	})
}

func newTestAuthHandler() (*AuthHandler, *fakeUserStore, *recordingMailer) {
	users := newFakeUserStore()
	mailer := &recordingMailer{}
	h := NewAuthHandler(users, authTestIssuer(), mailer, nil, "http://localhost:3000", 4, 24*time.Hour)
	return h, users, mailer
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var out struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return out.Message
}

func registerBody(email, username string) models.RegisterRequest {
	return models.RegisterRequest{
		Username:  username,
		Email:     email,
		Password:  "secret123",
		FirstName: "Іван",
		LastName:  "Петренко",
	}
}

func TestRegisterMissingFields(t *testing.T) {
	h, _, mailer := newTestAuthHandler()

	rec := postJSON(t, h.Register, "/register", models.RegisterRequest{Email: "a@b.c"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
	if got := decodeMessage(t, rec); got != "Відсутні обов'язкові поля!" {
		t.Errorf("message = %q", got)
	}
	if len(mailer.sent) != 0 {
		t.Error("mail sent for invalid registration")
	}
}

func TestRegisterSendsVerificationMail(t *testing.T) {
	h, users, mailer := newTestAuthHandler()

	rec := postJSON(t, h.Register, "/register", registerBody("ivan@example.com", "ivan"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if got := decodeMessage(t, rec); !strings.Contains(got, "ivan@example.com") {
		t.Errorf("message does not name the email: %q", got)
	}

	if len(mailer.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(mailer.sent))
	}
	if mailer.sent[0].recipient != "ivan@example.com" {
		t.Errorf("recipient = %q", mailer.sent[0].recipient)
	}

	u, err := users.FindByEmail(context.Background(), "ivan@example.com")
	if err != nil {
		t.Fatalf("user not stored: %v", err)
	}
	if u.IsVerified {
		t.Error("new account is verified before redeeming the token")
	}
	if u.Password == "secret123" {
		t.Error("password stored as plaintext")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h, _, _ := newTestAuthHandler()

	postJSON(t, h.Register, "/register", registerBody("ivan@example.com", "ivan"))
	rec := postJSON(t, h.Register, "/register", registerBody("ivan@example.com", "ivan2"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if got := decodeMessage(t, rec); got != "Аккаунт з даним Email вже існує!" {
		t.Errorf("message = %q", got)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	h, _, _ := newTestAuthHandler()

	postJSON(t, h.Register, "/register", registerBody("ivan@example.com", "ivan"))
	rec := postJSON(t, h.Register, "/register", registerBody("other@example.com", "ivan"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if got := decodeMessage(t, rec); got != "Аккаунт з даним нікнеймом вже існує!" {
		t.Errorf("message = %q", got)
	}
}

func TestLoginBeforeVerification(t *testing.T) {
	h, _, _ := newTestAuthHandler()

	postJSON(t, h.Register, "/register", registerBody("ivan@example.com", "ivan"))
	rec := postJSON(t, h.Login, "/login", models.LoginRequest{
		Email:    "ivan@example.com",
		Password: "secret123",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if got := decodeMessage(t, rec); got != "Спершу вам треба активувати ваш аккаунт!" {
		t.Errorf("message = %q", got)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	h, users, _ := newTestAuthHandler()

	postJSON(t, h.Register, "/register", registerBody("ivan@example.com", "ivan"))
	users.MarkVerified(context.Background(), "ivan@example.com")

	rec := postJSON(t, h.Login, "/login", models.LoginRequest{
		Email:    "ivan@example.com",
		Password: "wrong",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if got := decodeMessage(t, rec); got != "Невірний пароль!" {
		t.Errorf("message = %q", got)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	h, _, _ := newTestAuthHandler()

	rec := postJSON(t, h.Login, "/login", models.LoginRequest{
		Email:    "ghost@example.com",
		Password: "whatever",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if got := decodeMessage(t, rec); got != "Користувача з даним Email не існує!" {
		t.Errorf("message = %q", got)
	}
}

// Full happy path: register, redeem the mailed token, log in, refresh.
func TestRegisterVerifyLoginFlow(t *testing.T) {
	h, _, mailer := newTestAuthHandler()
	issuer := h.tokens

	postJSON(t, h.Register, "/register", registerBody("ivan@example.com", "ivan"))
	if len(mailer.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(mailer.sent))
	}

	// The handler mails a real verify token; issue an equivalent one here
	// rather than scraping HTML.
	token, err := issuer.NewEmailVerifyToken("ivan@example.com")
	if err != nil {
		t.Fatalf("NewEmailVerifyToken: %v", err)
	}

	rec := postJSON(t, h.EmailVerify, "/email-verify", models.TokenRequest{Token: token})
	if rec.Code != http.StatusOK {
		t.Fatalf("verify status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := decodeMessage(t, rec); got != "Ваш Email успішно верифіковано!" {
		t.Errorf("verify message = %q", got)
	}

	// Redeeming again reports the account as already verified.
	rec = postJSON(t, h.EmailVerify, "/email-verify", models.TokenRequest{Token: token})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("second verify status = %d, want 400", rec.Code)
	}
	if got := decodeMessage(t, rec); got != "Ваш Email вже підтвержений!" {
		t.Errorf("second verify message = %q", got)
	}

	rec = postJSON(t, h.Login, "/login", models.LoginRequest{
		Email:    "ivan@example.com",
		Password: "secret123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body.String())
	}

	var login models.LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&login); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if !login.IsLoggedIn || login.Token == "" {
		t.Errorf("login response = %+v", login)
	}
	if login.User == nil || login.User.Email != "ivan@example.com" {
		t.Errorf("login user = %+v", login.User)
	}

	var refreshCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "refreshToken" {
			refreshCookie = c
		}
	}
	if refreshCookie == nil {
		t.Fatal("login did not set the refresh cookie")
	}
	if !refreshCookie.HttpOnly || refreshCookie.Path != "/refresh_token" {
		t.Errorf("refresh cookie = %+v", refreshCookie)
	}

	// The refresh cookie rotates into a fresh access token.
	req := httptest.NewRequest(http.MethodPost, "/refresh_token", nil)
	req.AddCookie(refreshCookie)
	rec2 := httptest.NewRecorder()
	h.RefreshToken(rec2, req)
	if rec2.Code != http.StatusOK {
		t.Fatalf("refresh status = %d: %s", rec2.Code, rec2.Body.String())
	}
	var refreshed models.RefreshResponse
	if err := json.NewDecoder(rec2.Body).Decode(&refreshed); err != nil {
		t.Fatalf("decode refresh: %v", err)
	}
	if refreshed.Token == "" {
		t.Error("refresh returned no access token")
	}
}

func TestRefreshWithoutCookie(t *testing.T) {
	h, _, _ := newTestAuthHandler()

	req := httptest.NewRequest(http.MethodPost, "/refresh_token", nil)
	rec := httptest.NewRecorder()
	h.RefreshToken(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if got := decodeMessage(t, rec); got != "Неавторизовано, ви повинні виконати вхід!" {
		t.Errorf("message = %q", got)
	}
}

func TestResetPasswordFlow(t *testing.T) {
	h, users, _ := newTestAuthHandler()
	issuer := h.tokens

	postJSON(t, h.Register, "/register", registerBody("ivan@example.com", "ivan"))
	users.MarkVerified(context.Background(), "ivan@example.com")

	token, err := issuer.NewPasswordResetToken("ivan@example.com")
	if err != nil {
		t.Fatalf("NewPasswordResetToken: %v", err)
	}

	// Mismatched confirmation.
	rec := postJSON(t, h.ResetPassword, "/reset-password", models.ResetPasswordRequest{
		Token:              token,
		NewPassword:        "newsecret",
		ConfirmNewPassword: "different",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("mismatch status = %d, want 404", rec.Code)
	}
	if got := decodeMessage(t, rec); got != "Обидва паролі повинні бути однакові!" {
		t.Errorf("mismatch message = %q", got)
	}

	rec = postJSON(t, h.ResetPassword, "/reset-password", models.ResetPasswordRequest{
		Token:              token,
		NewPassword:        "newsecret",
		ConfirmNewPassword: "newsecret",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("reset status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := decodeMessage(t, rec); got != "Ваш пароль було скинуто успішно" {
		t.Errorf("reset message = %q", got)
	}

	// Old password rejected, new one accepted.
	rec = postJSON(t, h.Login, "/login", models.LoginRequest{Email: "ivan@example.com", Password: "secret123"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("old password still works: %d", rec.Code)
	}
	rec = postJSON(t, h.Login, "/login", models.LoginRequest{Email: "ivan@example.com", Password: "newsecret"})
	if rec.Code != http.StatusOK {
		t.Errorf("new password rejected: %d %s", rec.Code, rec.Body.String())
	}
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	h, _, mailer := newTestAuthHandler()

	rec := postJSON(t, h.ForgotPassword, "/forgot-password", models.EmailRequest{Email: "ghost@example.com"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if len(mailer.sent) != 0 {
		t.Error("mail sent for unknown account")
	}
}
