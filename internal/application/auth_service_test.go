package application

import (
	"context"
	"errors"
	"testing"
)

func TestNewAuthService(t *testing.T) {
	t.Parallel()

	hash, err := CreatePasswordHash("secret", fastArgon2idParams)
	if err != nil {
		t.Fatalf("CreatePasswordHash returned error: %v", err)
	}

	if _, err := NewAuthService(" ", hash, nil, nil); err == nil {
		t.Fatalf("expected blank username to be rejected")
	}
	if _, err := NewAuthService("admin", "secret", nil, nil); !errors.Is(err, ErrInvalidPasswordHash) {
		t.Fatalf("expected ErrInvalidPasswordHash, got %v", err)
	}
	if _, err := NewAuthService("admin", hash, nil, nil); err != nil {
		t.Fatalf("expected valid configuration, got %v", err)
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	t.Parallel()

	hash, err := CreatePasswordHash("secret", fastArgon2idParams)
	if err != nil {
		t.Fatalf("CreatePasswordHash returned error: %v", err)
	}
	svc, err := NewAuthService("admin", hash, VerifyPassword, quietLogger)
	if err != nil {
		t.Fatalf("NewAuthService returned error: %v", err)
	}

	tests := []struct {
		name    string
		params  AuthenticateParams
		wantErr error
	}{
		{name: "valid credentials", params: AuthenticateParams{Username: "admin", Password: "secret"}},
		{name: "wrong password", params: AuthenticateParams{Username: "admin", Password: "guess"}, wantErr: ErrInvalidCredentials},
		{name: "wrong username", params: AuthenticateParams{Username: "root", Password: "secret"}, wantErr: ErrInvalidCredentials},
		{name: "username is case sensitive", params: AuthenticateParams{Username: "Admin", Password: "secret"}, wantErr: ErrInvalidCredentials},
		{name: "empty password", params: AuthenticateParams{Username: "admin"}, wantErr: ErrInvalidCredentials},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := svc.Authenticate(context.Background(), tc.params)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Authenticate() = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestAuthService_VerifiesEvenForUnknownUser(t *testing.T) {
	t.Parallel()

	hash, err := CreatePasswordHash("secret", fastArgon2idParams)
	if err != nil {
		t.Fatalf("CreatePasswordHash returned error: %v", err)
	}
	var calls int
	verify := func(hashedPassword, password string) error {
		calls++
		return nil
	}
	svc, err := NewAuthService("admin", hash, verify, quietLogger)
	if err != nil {
		t.Fatalf("NewAuthService returned error: %v", err)
	}

	if err := svc.Authenticate(context.Background(), AuthenticateParams{Username: "intruder", Password: "x"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected the verifier to run once, ran %d times", calls)
	}

	var nilService *AuthService
	if err := nilService.Authenticate(context.Background(), AuthenticateParams{}); err == nil {
		t.Fatalf("expected error from nil service")
	}
}
