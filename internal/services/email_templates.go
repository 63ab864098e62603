package services

import (
	"fmt"
	"html"

	"github.com/Kohanchuk66/anime-back/internal/models"
)

const (
	SubjectVerifyEmail   = "Підтвердіть ваш Email"
	SubjectResetPassword = "Скинути пароль"
)

// VerifyEmailHTML builds the activation letter. The link points at the
// frontend, which posts the embedded token back to /email-verify.
func VerifyEmailHTML(user *models.User, token, frontendOrigin string) string {
	link := fmt.Sprintf("%s/email-verify?token=%s", frontendOrigin, token)
	return fmt.Sprintf(`<div style="font-family:sans-serif;max-width:560px;margin:0 auto">
  <h2>Вітаємо, %s!</h2>
  <p>Дякуємо за реєстрацію на Connetwork Forum. Щоб активувати ваш акаунт,
  перейдіть за посиланням нижче.</p>
  <p><a href="%s" style="display:inline-block;padding:10px 18px;background:#4f46e5;color:#fff;text-decoration:none;border-radius:6px">Активувати акаунт</a></p>
  <p>Посилання дійсне обмежений час. Якщо ви не реєструвалися — просто
  проігноруйте цей лист.</p>
</div>`, html.EscapeString(user.FirstName), link)
}

// ForgotPasswordHTML builds the password-reset letter.
func ForgotPasswordHTML(user *models.User, token, frontendOrigin string) string {
	link := fmt.Sprintf("%s/reset-password?token=%s", frontendOrigin, token)
	return fmt.Sprintf(`<div style="font-family:sans-serif;max-width:560px;margin:0 auto">
  <h2>Вітаємо, %s!</h2>
  <p>Ми отримали запит на скидання пароля для вашого акаунту. Перейдіть за
  посиланням, щоб встановити новий пароль.</p>
  <p><a href="%s" style="display:inline-block;padding:10px 18px;background:#4f46e5;color:#fff;text-decoration:none;border-radius:6px">Скинути пароль</a></p>
  <p>Якщо ви не надсилали цей запит, ваш пароль залишиться без змін.</p>
</div>`, html.EscapeString(user.FirstName), link)
}
