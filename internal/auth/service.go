package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	internal "github.com/frahmantamala/user-directory/internal"
)

// Service implements login on top of the directory's credential lookup.
// The timing-safe hash comparison and the lockout policy live here, not in
// the store.
type Service struct {
	store  CredentialStore
	cfg    internal.SecurityConfig
	logger *slog.Logger
	now    func() time.Time
}

func NewService(store CredentialStore, cfg internal.SecurityConfig, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	creds, found, err := s.store.GetUserForAuthentication(ctx, req.Email)
	if err != nil {
		s.logger.Error("credential lookup failed", "error", err)
		return nil, err
	}
	if !found {
		// Same response as a bad password so the endpoint does not confirm
		// which emails exist.
		return nil, internal.ErrInvalidCredentials
	}

	if creds.AccountLockedUntil != nil && creds.AccountLockedUntil.After(s.now()) {
		return nil, internal.ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(req.Password)); err != nil {
		var lockedUntil *time.Time
		if creds.FailedLoginAttempts+1 >= s.cfg.MaxLoginFailures {
			until := s.now().Add(s.cfg.LockoutDuration)
			lockedUntil = &until
		}
		if recordErr := s.store.RecordLoginFailure(ctx, creds.ID, lockedUntil); recordErr != nil {
			s.logger.Error("failed to record login failure", "user_id", creds.ID, "error", recordErr)
		}
		if lockedUntil != nil {
			s.logger.Warn("account locked after repeated failures", "user_id", creds.ID)
		}
		return nil, internal.ErrInvalidCredentials
	}

	if err := s.store.RecordLoginSuccess(ctx, creds.ID); err != nil {
		s.logger.Error("failed to record login", "user_id", creds.ID, "error", err)
		return nil, err
	}

	token, expiresIn, err := s.generateToken(creds.ID, creds.Email)
	if err != nil {
		s.logger.Error("token generation failed", "user_id", creds.ID, "error", err)
		return nil, internal.NewInternalError("could not issue token", err)
	}

	s.logger.Info("login succeeded", "user_id", creds.ID)
	return &LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresIn,
		UserID:      creds.ID,
	}, nil
}

// ValidateAccessToken verifies the signature and expiry of a bearer token and
// returns the subject user ID.
func (s *Service) ValidateAccessToken(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return 0, err
	}
	if !token.Valid {
		return 0, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("unexpected token claims")
	}
	sub, ok := claims["sub"].(float64)
	if !ok {
		return 0, errors.New("token missing subject")
	}
	return int64(sub), nil
}

func (s *Service) generateToken(userID int64, email string) (string, int64, error) {
	now := s.now()
	expiry := now.Add(s.cfg.AccessTokenDuration)

	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"iat":   now.Unix(),
		"exp":   expiry.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", 0, err
	}
	return signed, int64(s.cfg.AccessTokenDuration.Seconds()), nil
}
