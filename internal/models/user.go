package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName  string             `bson:"firstName" json:"firstName"`
	LastName   string             `bson:"lastName" json:"lastName"`
	Username   string             `bson:"username" json:"username"`
	Email      string             `bson:"email" json:"email"`
	Password   string             `bson:"password" json:"-"`
	Avatar     string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	IsVerified bool               `bson:"isVerified" json:"isVerified"`
	Role       string             `bson:"role" json:"role"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type RegisterRequest struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	RecaptchaToken string `json:"recaptchaToken,omitempty"`
}

// Validate reports whether all required registration fields are present.
// The original surface returns a single 422 message for any missing field,
// so this is a boolean rather than a per-field map.
func (r *RegisterRequest) Validate() bool {
	return strings.TrimSpace(r.Username) != "" &&
		strings.TrimSpace(r.Email) != "" &&
		r.Password != "" &&
		strings.TrimSpace(r.FirstName) != "" &&
		strings.TrimSpace(r.LastName) != ""
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Message    string `json:"message"`
	Token      string `json:"token"`
	User       *User  `json:"user"`
	IsLoggedIn bool   `json:"isLoggedIn"`
}

type RefreshResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type ResetPasswordRequest struct {
	Token              string `json:"token"`
	NewPassword        string `json:"newPassword"`
	ConfirmNewPassword string `json:"confirmNewPassword"`
}

type EmailRequest struct {
	Email string `json:"email"`
}

type TokenRequest struct {
	Token string `json:"token"`
}
