package auth

import (
	"context"
	"time"

	errors "github.com/frahmantamala/user-directory/internal"
	"github.com/frahmantamala/user-directory/internal/core/common/validation"
	"github.com/frahmantamala/user-directory/internal/directory"
)

// CredentialStore is the slice of the directory contract the login flow
// needs: the credential lookup plus the two login bookkeeping writes.
type CredentialStore interface {
	GetUserForAuthentication(ctx context.Context, email string) (directory.AuthCredentials, bool, error)
	RecordLoginSuccess(ctx context.Context, userID int64) error
	RecordLoginFailure(ctx context.Context, userID int64, lockedUntil *time.Time) error
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("email", r.Email).Required().Email()
	v.Field("password", r.Password).Required()
	return v.Validate()
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	UserID      int64  `json:"user_id"`
}
