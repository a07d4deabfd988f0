package models

import (
	// Go Internal Packages
	"time"
)

// Transaction statuses. Sukses and Gagal are terminal; Pending is the
// only state the reconciliation loop acts on.
const (
	StatusPending = "Pending"
	StatusSukses  = "Sukses"
	StatusGagal   = "Gagal"
)

// Upstream wholesale providers.
const (
	ProviderDigiflazz   = "digiflazz"
	ProviderTokoVoucher = "tokovoucher"
)

// IsTerminal reports whether status is a final state.
func IsTerminal(status string) bool {
	return status == StatusSukses || status == StatusGagal
}

// Transaction is a single purchase brokered through an upstream
// provider. The reference id doubles as the upstream idempotency key,
// so it is stored as the document id.
type Transaction struct {
	ID                    string     `json:"id" bson:"_id"`
	ProductName           string     `json:"product_name" bson:"product_name"`
	Details               string     `json:"details" bson:"details"`
	BuyerSkuCode          string     `json:"buyer_sku_code" bson:"buyer_sku_code"`
	OriginalCustomerNo    string     `json:"original_customer_no" bson:"original_customer_no"`
	CostPrice             int        `json:"cost_price" bson:"cost_price"`
	SellingPrice          int        `json:"selling_price" bson:"selling_price"`
	Status                string     `json:"status" bson:"status"`
	SerialNumber          string     `json:"serial_number,omitempty" bson:"serial_number,omitempty"`
	FailureReason         string     `json:"failure_reason,omitempty" bson:"failure_reason,omitempty"`
	Provider              string     `json:"provider" bson:"provider"`
	ProviderTransactionID string     `json:"provider_transaction_id,omitempty" bson:"provider_transaction_id,omitempty"`
	TransactedBy          string     `json:"transacted_by" bson:"transacted_by"`
	CategoryKey           string     `json:"category_key" bson:"category_key"`
	IconName              string     `json:"icon_name" bson:"icon_name"`
	Timestamp             string     `json:"timestamp" bson:"timestamp"`
	Calendar              TxCalendar `json:"calendar" bson:"calendar"`
}

// TxCalendar carries calendar fields derived from Timestamp, kept in
// sync whenever the timestamp is rewritten.
type TxCalendar struct {
	Year    int    `json:"year" bson:"year"`
	Month   int    `json:"month" bson:"month"`
	Day     int    `json:"day" bson:"day"`
	Weekday string `json:"weekday" bson:"weekday"`
	Hour    int    `json:"hour" bson:"hour"`
}

// CalendarFor derives the calendar fields for t.
func CalendarFor(t time.Time) TxCalendar {
	return TxCalendar{
		Year:    t.Year(),
		Month:   int(t.Month()),
		Day:     t.Day(),
		Weekday: t.Weekday().String(),
		Hour:    t.Hour(),
	}
}

// NewTxInput is the caller-facing shape for creating a transaction.
// ID is the caller-supplied idempotency key; duplicate detection is a
// caller responsibility.
type NewTxInput struct {
	ID                 string
	ProductName        string
	Details            string
	BuyerSkuCode       string
	OriginalCustomerNo string
	CostPrice          int
	Status             string
	SerialNumber       string
	FailureReason      string
	Provider           string
	ProviderTxID       string
	ProductCategory    string
	ProductBrand       string
}

// TxUpdate is a partial update merged into an existing transaction.
// Nil fields are left untouched.
type TxUpdate struct {
	ID                          string
	Status                      *string
	CostPrice                   *int
	SerialNumber                *string
	FailureReason               *string
	ProviderTransactionID       *string
	Details                     *string
	ProductCategoryFromProvider *string
	ProductBrandFromProvider    *string
}
