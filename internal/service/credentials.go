package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/model"
	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/store"
)

// CredentialStore is the read side of the admin credential table.
type CredentialStore interface {
	GetCredential(ctx context.Context, username string) (*model.AdminCredential, error)
}

// CredentialVerifier checks admin username/password pairs against stored
// bcrypt hashes.
type CredentialVerifier struct {
	store CredentialStore

	dummyOnce sync.Once
	dummyHash []byte
	dummyCost int
}

// NewCredentialVerifier returns a verifier reading credentials from store.
func NewCredentialVerifier(store CredentialStore) *CredentialVerifier {
	return &CredentialVerifier{store: store, dummyCost: bcrypt.DefaultCost}
}

// maxPasswordBytes is the longest input bcrypt hashes in full. Anything
// beyond it would be ignored by the comparison.
const maxPasswordBytes = 72

// Verify reports whether password matches the stored hash for username.
// Unknown usernames and over-long passwords still pay for one bcrypt
// comparison so that response time does not reveal whether the account
// exists. The error is non-nil only when the store cannot be read or the
// stored hash is unusable.
func (v *CredentialVerifier) Verify(ctx context.Context, username, password string) (bool, error) {
	cred, err := v.store.GetCredential(ctx, username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("load credential: %w", err)
	}
	if err != nil || len(password) > maxPasswordBytes {
		_ = bcrypt.CompareHashAndPassword(v.dummy(), []byte(password))
		return false, nil
	}

	err = bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("compare password hash for %q: %w", username, err)
}

func (v *CredentialVerifier) dummy() []byte {
	v.dummyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("puzzlr-dummy-password"), v.dummyCost)
		if err != nil {
			// Unreachable for a fixed short password and a valid cost.
			panic(fmt.Sprintf("generate dummy hash: %v", err))
		}
		v.dummyHash = h
	})
	return v.dummyHash
}

// HashPassword returns a bcrypt hash of password at the default cost.
func HashPassword(password string) (string, error) {
	return HashPasswordWithCost(password, bcrypt.DefaultCost)
}

// HashPasswordWithCost is HashPassword with an explicit bcrypt cost.
func HashPasswordWithCost(password string, cost int) (string, error) {
	if password == "" {
		return "", validationError("password is required")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", validationError(fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes))
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}
