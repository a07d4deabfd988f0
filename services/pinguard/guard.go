package pinguard

import (
	// Go Internal Packages
	"context"
	"fmt"

	// Local Packages
	errors "epulsaku/errors"
	models "epulsaku/models"

	// External Packages
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the persistence contract the guard needs. Counter
// updates must be atomic with the read of the new count.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (models.User, error)
	IncrementFailedPin(ctx context.Context, username string) (int, error)
	ResetFailedPin(ctx context.Context, username string) error
	Disable(ctx context.Context, username string) error
}

// Notifier receives the security alert when an account is locked.
type Notifier interface {
	Notify(ctx context.Context, event models.NotifyEvent)
}

// Guard validates transaction PINs and trips an account lockout after
// maxAttempts consecutive failures. super_admin accounts are exempt
// from the lockout entirely.
type Guard struct {
	users       UserStore
	notifier    Notifier
	logger      *zap.Logger
	maxAttempts int
}

func NewGuard(users UserStore, notifier Notifier, logger *zap.Logger, maxAttempts int) *Guard {
	return &Guard{users: users, notifier: notifier, logger: logger, maxAttempts: maxAttempts}
}

// Verify checks pin against the stored hash for username. It fails
// closed on unknown users, disabled accounts and unset PINs, each with
// its own message and no counter side effect.
func (g *Guard) Verify(ctx context.Context, username, pin string) (models.PinVerifyResult, error) {
	user, err := g.users.FindByUsername(ctx, username)
	if errors.Is(errors.NotFound, err) {
		return models.PinVerifyResult{Message: "User tidak ditemukan."}, nil
	}
	if err != nil {
		return models.PinVerifyResult{}, err
	}

	if user.IsDisabled {
		return models.PinVerifyResult{
			AccountDisabled: true,
			Message:         "Akun dinonaktifkan karena terlalu banyak percobaan PIN salah. Hubungi admin.",
		}, nil
	}

	if user.HashedPin == "" {
		return models.PinVerifyResult{Message: "PIN belum diatur untuk akun ini."}, nil
	}

	if bcrypt.CompareHashAndPassword([]byte(user.HashedPin), []byte(pin)) == nil {
		if user.FailedPinAttempts > 0 {
			if err := g.users.ResetFailedPin(ctx, username); err != nil {
				g.logger.Warn("failed to reset pin attempt counter",
					zap.String("username", username), zap.Error(err))
			}
		}
		return models.PinVerifyResult{IsValid: true, Message: "PIN valid."}, nil
	}

	// Wrong PIN. super_admin never accrues attempts and never locks.
	if user.Role == models.RoleSuperAdmin {
		return models.PinVerifyResult{Message: "PIN salah."}, nil
	}

	newCount, err := g.users.IncrementFailedPin(ctx, username)
	if err != nil {
		return models.PinVerifyResult{}, err
	}

	if newCount >= g.maxAttempts {
		if err := g.users.Disable(ctx, username); err != nil {
			return models.PinVerifyResult{}, err
		}
		g.logger.Warn("account locked after repeated pin failures",
			zap.String("username", username), zap.Int("attempts", newCount))
		g.notifier.Notify(ctx, models.NotifyEvent{
			Kind:     models.EventSecurity,
			Tag:      "pin lockout",
			Username: username,
			Message: fmt.Sprintf("Akun %s dinonaktifkan setelah %d kali salah memasukkan PIN.",
				username, newCount),
		})
		return models.PinVerifyResult{
			AccountDisabled: true,
			Message:         "PIN salah. Akun dinonaktifkan karena terlalu banyak percobaan.",
		}, nil
	}

	remaining := g.maxAttempts - newCount
	return models.PinVerifyResult{
		AttemptsRemaining: remaining,
		Message:           fmt.Sprintf("PIN salah. Sisa percobaan: %d.", remaining),
	}, nil
}
