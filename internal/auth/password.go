package auth

// PASSWORD STORAGE:
// Passwords are stored as bcrypt hashes. bcrypt salts every hash on its own
// and embeds salt and cost in the output, so the users.password column holds
// one self-describing string:
//
//	$2a$12$<22-char salt><31-char hash>
//
// The hash is deliberately slow. Cost 12 is roughly 250ms per attempt, which
// nobody notices at login and which makes offline guessing expensive.
//
// GitHub-only accounts have an empty hash. bcrypt rejects an empty hash as
// malformed, so such an account can never log in with a password.

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	defaultCost = 12

	// bcrypt ignores everything after byte 72. Longer passwords are refused
	// rather than silently truncated.
	maxPasswordBytes = 72
)

// ErrPasswordMismatch means the password was well-formed but wrong.
var ErrPasswordMismatch = errors.New("auth: invalid password")

// PasswordService hashes and verifies passwords. The cost is a field so that
// tests can run at bcrypt's minimum.
type PasswordService struct {
	cost int
}

func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest uses bcrypt.MinCost (4). Never use it outside tests.
func NewPasswordServiceForTest() *PasswordService {
	return &PasswordService{cost: bcrypt.MinCost}
}

// Hash returns the bcrypt hash of plaintext.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", fmt.Errorf("auth: password must be %d bytes or fewer", maxPasswordBytes)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify returns nil when plaintext matches hash and ErrPasswordMismatch
// when it does not. Any other error means hash itself is unusable.
// The comparison inside bcrypt is constant-time.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrPasswordMismatch
	default:
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
}
