package pinguard

import (
	// Go Internal Packages
	"context"
	"sync"
	"testing"

	// Local Packages
	errors "epulsaku/errors"
	models "epulsaku/models"

	// External Packages
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemUsers(users ...*models.User) *memUsers {
	m := &memUsers{users: make(map[string]*models.User)}
	for _, u := range users {
		m.users[u.Username] = u
	}
	return m
}

func (m *memUsers) FindByUsername(_ context.Context, username string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return models.User{}, errors.UserNotFoundErr(username)
	}
	return *u, nil
}

func (m *memUsers) IncrementFailedPin(_ context.Context, username string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return 0, errors.UserNotFoundErr(username)
	}
	u.FailedPinAttempts++
	return u.FailedPinAttempts, nil
}

func (m *memUsers) ResetFailedPin(_ context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[username]; ok {
		u.FailedPinAttempts = 0
	}
	return nil
}

func (m *memUsers) Disable(_ context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[username]; ok {
		u.IsDisabled = true
	}
	return nil
}

func (m *memUsers) get(username string) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.users[username]
}

type capturingNotifier struct {
	mu     sync.Mutex
	events []models.NotifyEvent
}

func (n *capturingNotifier) Notify(_ context.Context, event models.NotifyEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *capturingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

func hashPin(t *testing.T, pin string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}
	return string(h)
}

func newTestGuard(users *memUsers, notifier *capturingNotifier) *Guard {
	return NewGuard(users, notifier, zap.NewNop(), 3)
}

func TestVerify_FailClosedCases(t *testing.T) {
	users := newMemUsers(
		&models.User{Username: "locked", HashedPin: "x", IsDisabled: true, Role: models.RoleStaf},
		&models.User{Username: "nopin", Role: models.RoleStaf},
	)
	g := newTestGuard(users, &capturingNotifier{})

	t.Run("unknown user", func(t *testing.T) {
		res, err := g.Verify(context.Background(), "ghost", "1234")
		if err != nil {
			t.Fatalf("Verify failed: %v", err)
		}
		if res.IsValid || res.Message == "" {
			t.Errorf("expected invalid with message, got %+v", res)
		}
	})

	t.Run("disabled account", func(t *testing.T) {
		res, err := g.Verify(context.Background(), "locked", "1234")
		if err != nil {
			t.Fatalf("Verify failed: %v", err)
		}
		if res.IsValid || !res.AccountDisabled {
			t.Errorf("expected accountDisabled, got %+v", res)
		}
	})

	t.Run("pin not configured", func(t *testing.T) {
		res, err := g.Verify(context.Background(), "nopin", "1234")
		if err != nil {
			t.Fatalf("Verify failed: %v", err)
		}
		if res.IsValid || res.AccountDisabled {
			t.Errorf("expected plain invalid, got %+v", res)
		}
		if users.get("nopin").FailedPinAttempts != 0 {
			t.Error("fail-closed paths must not touch the counter")
		}
	})
}

func TestVerify_LockoutThreshold(t *testing.T) {
	users := newMemUsers(&models.User{
		Username: "staf1", HashedPin: hashPin(t, "1234"),
		FailedPinAttempts: 2, Role: models.RoleStaf,
	})
	notifier := &capturingNotifier{}
	g := newTestGuard(users, notifier)

	res, err := g.Verify(context.Background(), "staf1", "9999")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !res.AccountDisabled {
		t.Error("third failure must disable the account")
	}
	u := users.get("staf1")
	if !u.IsDisabled || u.FailedPinAttempts != 3 {
		t.Errorf("unexpected state: disabled=%v attempts=%d", u.IsDisabled, u.FailedPinAttempts)
	}
	if notifier.count() != 1 {
		t.Errorf("expected 1 security notification, got %d", notifier.count())
	}
	if len(notifier.events) == 1 && notifier.events[0].Kind != models.EventSecurity {
		t.Errorf("expected security event, got %s", notifier.events[0].Kind)
	}
}

func TestVerify_AttemptsRemaining(t *testing.T) {
	users := newMemUsers(&models.User{
		Username: "staf1", HashedPin: hashPin(t, "1234"), Role: models.RoleStaf,
	})
	g := newTestGuard(users, &capturingNotifier{})

	res, err := g.Verify(context.Background(), "staf1", "0000")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if res.IsValid || res.AccountDisabled {
		t.Fatalf("expected invalid active result, got %+v", res)
	}
	if res.AttemptsRemaining != 2 {
		t.Errorf("expected 2 attempts remaining, got %d", res.AttemptsRemaining)
	}
}

func TestVerify_CorrectPinResetsCounter(t *testing.T) {
	users := newMemUsers(&models.User{
		Username: "staf1", HashedPin: hashPin(t, "1234"),
		FailedPinAttempts: 2, Role: models.RoleStaf,
	})
	g := newTestGuard(users, &capturingNotifier{})

	res, err := g.Verify(context.Background(), "staf1", "1234")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !res.IsValid {
		t.Fatalf("expected valid, got %+v", res)
	}
	if users.get("staf1").FailedPinAttempts != 0 {
		t.Error("correct pin must reset the counter")
	}
}

func TestVerify_SuperAdminImmunity(t *testing.T) {
	users := newMemUsers(&models.User{
		Username: "root", HashedPin: hashPin(t, "1234"), Role: models.RoleSuperAdmin,
	})
	notifier := &capturingNotifier{}
	g := newTestGuard(users, notifier)

	for i := 0; i < 100; i++ {
		res, err := g.Verify(context.Background(), "root", "0000")
		if err != nil {
			t.Fatalf("Verify failed on attempt %d: %v", i, err)
		}
		if res.IsValid || res.AccountDisabled {
			t.Fatalf("attempt %d: unexpected result %+v", i, res)
		}
	}

	u := users.get("root")
	if u.IsDisabled {
		t.Error("super_admin must never be locked out")
	}
	if u.FailedPinAttempts != 0 {
		t.Errorf("super_admin counter must stay 0, got %d", u.FailedPinAttempts)
	}
	if notifier.count() != 0 {
		t.Errorf("no security events expected, got %d", notifier.count())
	}
}

func TestVerify_ResetAfterReEnable(t *testing.T) {
	user := &models.User{
		Username: "staf1", HashedPin: hashPin(t, "1234"),
		FailedPinAttempts: 3, IsDisabled: true, Role: models.RoleStaf,
	}
	users := newMemUsers(user)
	g := newTestGuard(users, &capturingNotifier{})

	// Administrative re-enable keeps the stale counter; the next
	// correct PIN clears it.
	users.mu.Lock()
	user.IsDisabled = false
	users.mu.Unlock()

	res, err := g.Verify(context.Background(), "staf1", "1234")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !res.IsValid {
		t.Fatalf("expected valid after re-enable, got %+v", res)
	}
	if users.get("staf1").FailedPinAttempts != 0 {
		t.Error("counter must reset on first correct pin after re-enable")
	}
}
