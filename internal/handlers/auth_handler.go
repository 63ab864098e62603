package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Kohanchuk66/anime-back/internal/auth"
	"github.com/Kohanchuk66/anime-back/internal/middleware"
	"github.com/Kohanchuk66/anime-back/internal/models"
	"github.com/Kohanchuk66/anime-back/internal/services"
)

const refreshCookieName = "refreshToken"

// UserStore is the account persistence the auth surface needs.
type UserStore interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	MarkVerified(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, email, passwordHash string) error
}

// CaptchaVerifier guards registration against bots when configured.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) (bool, string, error)
}

type AuthHandler struct {
	users          UserStore
	tokens         *auth.TokenIssuer
	mailer         Mailer
	captcha        CaptchaVerifier
	frontendOrigin string
	bcryptCost     int
	refreshTTL     time.Duration
}

func NewAuthHandler(users UserStore, tokens *auth.TokenIssuer, mailer Mailer, captcha CaptchaVerifier, frontendOrigin string, bcryptCost int, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		users:          users,
		tokens:         tokens,
		mailer:         mailer,
		captcha:        captcha,
		frontendOrigin: frontendOrigin,
		bcryptCost:     bcryptCost,
		refreshTTL:     refreshTTL,
	}
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, token string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/refresh_token",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/refresh_token",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Відсутні обов'язкові поля!")
		return
	}
	if !req.Validate() {
		writeError(w, http.StatusUnprocessableEntity, "Відсутні обов'язкові поля!")
		return
	}

	if h.captcha != nil {
		ok, reason, err := h.captcha.Verify(r.Context(), req.RecaptchaToken, r.RemoteAddr)
		if err != nil {
			zap.L().Error("recaptcha verify failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Не вдалося перевірити captcha. Спробуйте пізніше!")
			return
		}
		if !ok {
			zap.L().Warn("recaptcha rejected", zap.String("reason", reason))
			writeError(w, http.StatusBadRequest, "Перевірку captcha не пройдено!")
			return
		}
	}

	hash, err := auth.HashPassword(req.Password, h.bcryptCost)
	if err != nil {
		zap.L().Error("password hash failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Не вдалося створити акаунт. Спробуйте пізніше!")
		return
	}

	user, err := h.users.Create(r.Context(), &models.User{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Username:  strings.TrimSpace(req.Username),
		Email:     strings.TrimSpace(req.Email),
		Password:  hash,
	})
	if err != nil {
		switch err {
		case services.ErrEmailTaken:
			writeError(w, http.StatusBadRequest, "Аккаунт з даним Email вже існує!")
		case services.ErrUsernameTaken:
			writeError(w, http.StatusBadRequest, "Аккаунт з даним нікнеймом вже існує!")
		default:
			zap.L().Error("user create failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Не вдалося створити акаунт. Спробуйте пізніше!")
		}
		return
	}

	token, err := h.tokens.NewEmailVerifyToken(user.Email)
	if err != nil {
		zap.L().Error("verify token issue failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Не вдалося створити акаунт. Спробуйте пізніше!")
		return
	}
	if err := h.mailer.Send(r.Context(), user.Email, services.SubjectVerifyEmail, services.VerifyEmailHTML(user, token, h.frontendOrigin)); err != nil {
		zap.L().Error("verification mail failed", zap.String("email", user.Email), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Не вдалося відправити лист активації. Спробуйте пізніше!")
		return
	}

	writeJSON(w, http.StatusCreated, models.MessageResponse{
		Message: fmt.Sprintf("Email був відправлений на: %s. Виконуйте інструкції для активації акаунту.", user.Email),
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Email або пароль відсутні!")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email або пароль відсутні!")
		return
	}

	user, err := h.users.FindByEmail(r.Context(), req.Email)
	if err != nil {
		if err == services.ErrUserNotFound {
			writeError(w, http.StatusBadRequest, "Користувача з даним Email не існує!")
			return
		}
		zap.L().Error("login lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Не вдалося виконати вхід. Спробуйте пізніше!")
		return
	}
	if !auth.CheckPassword(user.Password, req.Password) {
		writeError(w, http.StatusBadRequest, "Невірний пароль!")
		return
	}
	if !user.IsVerified {
		writeError(w, http.StatusBadRequest, "Спершу вам треба активувати ваш аккаунт!")
		return
	}

	accessToken, err := h.tokens.NewAccessToken(user)
	if err != nil {
		zap.L().Error("access token issue failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Не вдалося виконати вхід. Спробуйте пізніше!")
		return
	}
	refreshToken, _, err := h.tokens.NewRefreshToken(user)
	if err != nil {
		zap.L().Error("refresh token issue failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Не вдалося виконати вхід. Спробуйте пізніше!")
		return
	}

	h.setRefreshCookie(w, refreshToken, h.refreshTTL)
	writeJSON(w, http.StatusOK, models.LoginResponse{
		Message:    "Вхід виконано успішно!",
		Token:      accessToken,
		User:       user,
		IsLoggedIn: true,
	})
}

// RefreshToken rotates the session. The replacement refresh token keeps the
// absolute expiry of the presented one, so refreshing never stretches the
// session past its original lifetime.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		writeError(w, http.StatusForbidden, "Неавторизовано, ви повинні виконати вхід!")
		return
	}

	claims, err := h.tokens.VerifyRefreshToken(cookie.Value)
	if err != nil {
		h.clearRefreshCookie(w)
		writeError(w, http.StatusForbidden, "Неавторизовано, ви повинні виконати вхід!")
		return
	}

	user, err := h.users.FindByUsername(r.Context(), claims.Username)
	if err != nil {
		if err == services.ErrUserNotFound {
			h.clearRefreshCookie(w)
			writeError(w, http.StatusForbidden, "Неавторизовано, ви повинні виконати вхід!")
			return
		}
		zap.L().Error("refresh lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Не вдалося оновити сесію. Спробуйте пізніше!")
		return
	}

	expiresAt := claims.ExpiresAt.Time
	accessToken, err := h.tokens.NewAccessToken(user)
	if err != nil {
		zap.L().Error("access token issue failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Не вдалося оновити сесію. Спробуйте пізніше!")
		return
	}
	refreshToken, err := h.tokens.RotateRefreshToken(user, expiresAt)
	if err != nil {
		zap.L().Error("refresh token rotate failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Не вдалося оновити сесію. Спробуйте пізніше!")
		return
	}

	h.setRefreshCookie(w, refreshToken, time.Until(expiresAt))
	writeJSON(w, http.StatusOK, models.RefreshResponse{
		Token: accessToken,
		User:  user,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Identity(r.Context())
	if claims == nil || claims.Username == "" {
		writeError(w, http.StatusBadRequest, "Ви не в системі!")
		return
	}
	h.clearRefreshCookie(w)
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Користувач успішно вийшов з системи!"})
}

// EmailVerify redeems an email-verification token. Redeeming twice reports
// "already verified" on the second call.
func (h *AuthHandler) EmailVerify(w http.ResponseWriter, r *http.Request) {
	var req models.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeError(w, http.StatusNotFound, "Відсутній токен верифікації Email!")
		return
	}

	email, err := h.tokens.VerifyEmailVerifyToken(req.Token)
	if err != nil {
		if err == auth.ErrTokenExpired {
			writeError(w, http.StatusBadRequest, "Токен перевірки Email застарів. Будь ласка, запросіть ще одне посилання на активацію!")
			return
		}
		writeError(w, http.StatusBadRequest, "Токен перевірки Email недійсний. Будь ласка, запросіть ще одне посилання на активацію!")
		return
	}

	user, err := h.users.FindByEmail(r.Context(), email)
	if err != nil {
		if err == services.ErrUserNotFound {
			writeError(w, http.StatusNotFound, "Користувача з даним Email не існує!")
			return
		}
		zap.L().Error("email verify lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Не вдалося верифікувати Email. Спробуйте пізніше!")
		return
	}
	if user.IsVerified {
		writeError(w, http.StatusBadRequest, "Ваш Email вже підтвержений!")
		return
	}

	if err := h.users.MarkVerified(r.Context(), email); err != nil {
		zap.L().Error("mark verified failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Не вдалося верифікувати Email. Спробуйте пізніше!")
		return
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Ваш Email успішно верифіковано!"})
}

func (h *AuthHandler) SendEmailVerification(w http.ResponseWriter, r *http.Request) {
	var req models.EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, "Email не вказано. Будь ласка, вкажіть Email!")
		return
	}

	user, err := h.users.FindByEmail(r.Context(), req.Email)
	if err != nil {
		if err == services.ErrUserNotFound {
			writeError(w, http.StatusNotFound, "Користувача з даним Email не існує!")
			return
		}
		zap.L().Error("send verification lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Не вдалося відправити лист. Спробуйте пізніше!")
		return
	}
	if user.IsVerified {
		writeError(w, http.StatusBadRequest, "Ваш email вже верифіковано!")
		return
	}

	token, err := h.tokens.NewEmailVerifyToken(user.Email)
	if err != nil {
		zap.L().Error("verify token issue failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Не вдалося відправити лист. Спробуйте пізніше!")
		return
	}
	if err := h.mailer.Send(r.Context(), user.Email, services.SubjectVerifyEmail, services.VerifyEmailHTML(user, token, h.frontendOrigin)); err != nil {
		zap.L().Error("verification mail failed", zap.String("email", user.Email), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Не вдалося відправити лист. Спробуйте пізніше!")
		return
	}

	writeJSON(w, http.StatusOK, models.MessageResponse{
		Message: fmt.Sprintf("Посилання для активації було відправлено на: %s", user.Email),
	})
}

// ResetPassword redeems a password-reset token and replaces the stored hash.
// Both passwords must be supplied and match after trimming whitespace.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeError(w, http.StatusNotFound, "Відсутній токен оновлення паролю!")
		return
	}

	email, err := h.tokens.VerifyPasswordResetToken(req.Token)
	if err != nil {
		if err == auth.ErrTokenExpired {
			writeError(w, http.StatusBadRequest, "Токен для відновлення паролю більше недійсний, будь ласка, запросіть новий!")
			return
		}
		writeError(w, http.StatusBadRequest, "Токен для відновлення паролю невірний, будь ласка, запросіть новий!")
		return
	}

	newPassword := strings.TrimSpace(req.NewPassword)
	confirm := strings.TrimSpace(req.ConfirmNewPassword)
	if newPassword == "" || confirm == "" {
		writeError(w, http.StatusNotFound, "Ви повинні ввести обидва паролі!")
		return
	}
	if newPassword != confirm {
		writeError(w, http.StatusNotFound, "Обидва паролі повинні бути однакові!")
		return
	}

	if _, err := h.users.FindByEmail(r.Context(), email); err != nil {
		if err == services.ErrUserNotFound {
			writeError(w, http.StatusNotFound, "Користувача з даним Email не існує!")
			return
		}
		zap.L().Error("reset lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Не вдалося скинути пароль. Спробуйте пізніше!")
		return
	}

	hash, err := auth.HashPassword(newPassword, h.bcryptCost)
	if err != nil {
		zap.L().Error("password hash failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Не вдалося скинути пароль. Спробуйте пізніше!")
		return
	}
	if err := h.users.UpdatePassword(r.Context(), email, hash); err != nil {
		zap.L().Error("password update failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Не вдалося скинути пароль. Спробуйте пізніше!")
		return
	}

	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Ваш пароль було скинуто успішно"})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, "Email не вказано. Будь ласка, вкажіть Email!")
		return
	}

	user, err := h.users.FindByEmail(r.Context(), req.Email)
	if err != nil {
		if err == services.ErrUserNotFound {
			writeError(w, http.StatusNotFound, "Користувача з даним Email не існує!")
			return
		}
		zap.L().Error("forgot password lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Не вдалося відправити лист. Спробуйте пізніше!")
		return
	}

	token, err := h.tokens.NewPasswordResetToken(user.Email)
	if err != nil {
		zap.L().Error("reset token issue failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Не вдалося відправити лист. Спробуйте пізніше!")
		return
	}
	if err := h.mailer.Send(r.Context(), user.Email, services.SubjectResetPassword, services.ForgotPasswordHTML(user, token, h.frontendOrigin)); err != nil {
		zap.L().Error("reset mail failed", zap.String("email", user.Email), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Не вдалося відправити лист. Спробуйте пізніше!")
		return
	}

	writeJSON(w, http.StatusOK, models.MessageResponse{
		Message: fmt.Sprintf("Email для відновлення паролю відправлено на: %s", user.Email),
	})
}
