package models

// ProviderResult is the normalized outcome of a purchase-or-query call
// against an upstream provider. Cost is authoritative only when Status
// is terminal.
type ProviderResult struct {
	Status       string `json:"status"`
	Cost         int    `json:"cost,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
	Message      string `json:"message,omitempty"`
	ProviderTxID string `json:"provider_tx_id,omitempty"`
}

// Notification event kinds. Transaction events additionally resolve
// the acting user's personal chat target; security and system events
// go to the global targets only.
const (
	EventTransaction = "transaction"
	EventSecurity    = "security"
	EventSystem      = "system"
)

// NotifyEvent is a human-readable alert fanned out to the configured
// messaging-bot chat targets.
type NotifyEvent struct {
	Kind     string       // EventTransaction, EventSecurity or EventSystem
	Tag      string       // short origin label, e.g. "auto update"
	Username string       // acting user, resolves the personal target
	Tx       *Transaction // set for transaction events
	Message  string       // free text for security/system events
}
