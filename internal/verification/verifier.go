package verification

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"
)

var (
	// ErrCodeNotFound indicates no pending verification exists for the user.
	ErrCodeNotFound = errors.New("verification code not found")
	// ErrCodeExpired indicates the pending code has passed its TTL.
	ErrCodeExpired = errors.New("verification code expired")
	// ErrCodeMismatch indicates the submitted code does not match.
	ErrCodeMismatch = errors.New("verification code mismatch")
	// ErrTooManyAttempts indicates the pending code burned through its attempt budget.
	ErrTooManyAttempts = errors.New("too many verification attempts")
)

const maxAttempts = 5

// Sender delivers a one-time verification code to a user.
type Sender interface {
	SendCode(ctx context.Context, email, code string) error
}

// LogSender writes codes to the log instead of delivering them. Used in
// development and tests.
type LogSender struct {
	Logger *slog.Logger
}

// SendCode logs the code instead of sending it.
func (s LogSender) SendCode(_ context.Context, email, code string) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("verification code issued", "email", email, "code", code)
	return nil
}

type pendingCode struct {
	code     string
	expires  time.Time
	attempts int
}

// Verifier issues short-lived one-time codes for email verification and
// checks submissions against them. Codes live in memory only; a restart
// simply requires requesting a new code.
type Verifier struct {
	sender Sender
	ttl    time.Duration

	mu      sync.Mutex
	pending map[string]pendingCode

	// NowFunc allows tests to control expiry. Defaults to time.Now.
	NowFunc func() time.Time
}

// NewVerifier constructs a Verifier that issues codes valid for ttl.
func NewVerifier(sender Sender, ttl time.Duration) *Verifier {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Verifier{
		sender:  sender,
		ttl:     ttl,
		pending: make(map[string]pendingCode),
	}
}

func (v *Verifier) now() time.Time {
	if v.NowFunc != nil {
		return v.NowFunc()
	}
	return time.Now()
}

// Issue generates a fresh code for the user, replaces any pending one, and
// hands it to the sender.
func (v *Verifier) Issue(ctx context.Context, userID, email string) error {
	code, err := randomCode()
	if err != nil {
		return fmt.Errorf("generate verification code: %w", err)
	}

	v.mu.Lock()
	v.pending[userID] = pendingCode{code: code, expires: v.now().Add(v.ttl)}
	v.mu.Unlock()

	if err := v.sender.SendCode(ctx, email, code); err != nil {
		return fmt.Errorf("send verification code: %w", err)
	}

	return nil
}

// Confirm checks a submitted code. A successful confirmation consumes the
// pending code; repeated failures burn it.
func (v *Verifier) Confirm(userID, code string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	entry, ok := v.pending[userID]
	if !ok {
		return ErrCodeNotFound
	}

	if v.now().After(entry.expires) {
		delete(v.pending, userID)
		return ErrCodeExpired
	}

	if entry.code != code {
		entry.attempts++
		if entry.attempts >= maxAttempts {
			delete(v.pending, userID)
			return ErrTooManyAttempts
		}
		v.pending[userID] = entry
		return ErrCodeMismatch
	}

	delete(v.pending, userID)
	return nil
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
