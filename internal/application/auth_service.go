package application

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"strings"
)

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// AuthenticateParams carries the basic auth credentials of a request.
type AuthenticateParams struct {
	Username string
	Password string
}

// AuthService checks requests against the single configured planner account.
type AuthService struct {
	username       string
	passwordHash   string
	verifyPassword PasswordVerifier
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService. The hash must be an argon2id hash
// as produced by CreatePasswordHash.
func NewAuthService(username, passwordHash string, verify PasswordVerifier, logger *slog.Logger) (*AuthService, error) {
	if strings.TrimSpace(username) == "" {
		return nil, fmt.Errorf("auth: username is required")
	}
	if err := ParsePasswordHash(passwordHash); err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}
	if verify == nil {
		verify = VerifyPassword
	}
	return &AuthService{
		username:       username,
		passwordHash:   passwordHash,
		verifyPassword: verify,
		logger:         defaultLogger(logger),
	}, nil
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Authenticate returns ErrInvalidCredentials unless both username and
// password match.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (err error) {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}

	logger := s.loggerWith(ctx, "Authenticate", "username", params.Username)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "authentication succeeded")
	}()

	if params.Username == "" || params.Password == "" {
		return ErrInvalidCredentials
	}
	userOK := subtle.ConstantTimeCompare([]byte(params.Username), []byte(s.username)) == 1
	// The hash runs even when the username is wrong.
	passErr := s.verifyPassword(s.passwordHash, params.Password)
	if !userOK || passErr != nil {
		return ErrInvalidCredentials
	}
	return nil
}
