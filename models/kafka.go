package models

type Record struct {
	Key   []byte
	Value []byte
	Topic string
}

type ConsumerConfig struct {
	Brokers        []string
	Name           string
	Topic          string
	RecordsPerPoll int
}

// CallbackEvent is a provider status callback bridged onto the ingest
// topic. RefID correlates it with the local transaction of the same id.
type CallbackEvent struct {
	RefID        string `json:"ref_id"`
	Status       string `json:"status"`
	SerialNumber string `json:"serial_number"`
	Message      string `json:"message"`
	Price        int    `json:"price"`
	ProviderTxID string `json:"provider_trx_id"`
}
