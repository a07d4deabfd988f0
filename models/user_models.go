package models

// User roles. RoleSuperAdmin is exempt from PIN lockout.
const (
	RoleStaf       = "staf"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// User is a staff or admin account. HashedPin is a bcrypt hash;
// FailedPinAttempts counts consecutive wrong PINs and resets to zero
// only on a correct PIN or an administrative re-enable.
type User struct {
	Username          string `json:"username" bson:"_id"`
	HashedPassword    string `json:"-" bson:"hashed_password"`
	HashedPin         string `json:"-" bson:"hashed_pin"`
	FailedPinAttempts int    `json:"failed_pin_attempts" bson:"failed_pin_attempts"`
	IsDisabled        bool   `json:"is_disabled" bson:"is_disabled"`
	Role              string `json:"role" bson:"role"`
	TelegramChatID    string `json:"telegram_chat_id,omitempty" bson:"telegram_chat_id,omitempty"`
}

// PinVerifyResult is the outcome of a PIN check. AttemptsRemaining is
// meaningful only when IsValid is false and the account is still
// active.
type PinVerifyResult struct {
	IsValid           bool   `json:"is_valid"`
	AccountDisabled   bool   `json:"account_disabled"`
	AttemptsRemaining int    `json:"attempts_remaining,omitempty"`
	Message           string `json:"message"`
}
