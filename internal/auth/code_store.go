package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"willtank/internal/cache"
)

const (
	loginCodeKeyPrefix    = "login_code:"
	loginAttemptKeyPrefix = "login_code_attempts:"
	// LoginCodeTTL is how long an emailed login code stays valid.
	LoginCodeTTL = 10 * time.Minute
	// LoginCodeLength is the number of digits in login and verification codes.
	LoginCodeLength = 6
	// MaxCodeAttempts is how many wrong guesses burn the current code.
	MaxCodeAttempts = 5
)

// CodeStore keeps single-use login codes in Redis keyed by email.
type CodeStore interface {
	Issue(ctx context.Context, email string) (string, error)
	// Check reports whether code matches without using it up.
	Check(ctx context.Context, email, code string) (bool, error)
	// Consume atomically deletes the code if it matches.
	Consume(ctx context.Context, email, code string) (bool, error)
}

type codeStore struct {
	cache       *cache.Client
	ttl         time.Duration
	maxAttempts int64
}

// NewCodeStore creates a Redis-backed login code store.
func NewCodeStore(cache *cache.Client) CodeStore {
	return &codeStore{cache: cache, ttl: LoginCodeTTL, maxAttempts: MaxCodeAttempts}
}

func codeKey(email string) string {
	return loginCodeKeyPrefix + strings.ToLower(email)
}

func attemptKey(email string) string {
	return loginAttemptKeyPrefix + strings.ToLower(email)
}

// Issue generates and stores a fresh code, replacing any previous one and
// resetting the failure count.
func (s *codeStore) Issue(ctx context.Context, email string) (string, error) {
	code, err := GenerateNumericCode(LoginCodeLength)
	if err != nil {
		return "", err
	}
	if err := s.cache.SetStrict(ctx, codeKey(email), []byte(code), s.ttl); err != nil {
		return "", fmt.Errorf("store login code: %w", err)
	}
	_ = s.cache.Delete(ctx, attemptKey(email))
	return code, nil
}

func (s *codeStore) Check(ctx context.Context, email, code string) (bool, error) {
	stored, err := s.cache.GetStrict(ctx, codeKey(email))
	if err != nil {
		return false, fmt.Errorf("load login code: %w", err)
	}
	if stored == nil {
		return false, nil
	}
	if subtle.ConstantTimeCompare(stored, []byte(code)) == 1 {
		return true, nil
	}
	return false, s.fail(ctx, email)
}

func (s *codeStore) Consume(ctx context.Context, email, code string) (bool, error) {
	ok, err := s.cache.CompareAndDelete(ctx, codeKey(email), []byte(code), attemptKey(email))
	if err != nil {
		return false, fmt.Errorf("consume login code: %w", err)
	}
	if ok {
		return true, nil
	}
	return false, s.fail(ctx, email)
}

// fail counts a wrong guess and drops the code once the limit is reached.
func (s *codeStore) fail(ctx context.Context, email string) error {
	n, err := s.cache.IncrStrict(ctx, attemptKey(email), s.ttl)
	if err != nil {
		return fmt.Errorf("count login attempt: %w", err)
	}
	if n >= s.maxAttempts {
		if err := s.cache.DeleteStrict(ctx, codeKey(email), attemptKey(email)); err != nil {
			return fmt.Errorf("drop login code: %w", err)
		}
	}
	return nil
}

// GenerateNumericCode returns an n digit zero-padded random code.
func GenerateNumericCode(n int) (string, error) {
	if n <= 0 {
		n = LoginCodeLength
	}
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	num, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", n, num), nil
}

// GenerateToken returns a random hex token of the given byte length.
func GenerateToken(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
