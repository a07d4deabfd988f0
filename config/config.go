package config

import (
	// Go Internal Packages
	"time"

	// Local Packages
	errors "epulsaku/errors"
)

var DefaultConfig = []byte(`
application: "epulsaku"

logger:
  level: "debug"

is_prod_mode: false

server:
  addr: ":8080"

mongo:
  uri: "mongodb://localhost:27017"
  database: "epulsaku"

redis:
  uri: "localhost:6379"
  password: ""

kafka:
  brokers:
    - "localhost:9092"
  consume: false
  topic: "provider-callbacks"
  records_per_poll: 500
  consumer_name: "epulsaku-callbacks"

digiflazz:
  base_url: "https://api.digiflazz.com/v1"
  username: ""
  api_key: ""

tokovoucher:
  base_url: "https://api.tokovoucher.net"
  member_code: ""
  secret: ""

telegram:
  bot_token: ""
  chat_ids: []

reconciler:
  interval: "60s"
  resync_interval: "5m"

security:
  pin_max_attempts: 3
  login_max_attempts: 5
  login_window: "2m"

pricing:
  cache_ttl: "5m"

retention:
  months: 3
`)

type Config struct {
	Application string      `koanf:"application"`
	Logger      Logger      `koanf:"logger"`
	IsProdMode  bool        `koanf:"is_prod_mode"`
	Server      Server      `koanf:"server"`
	Mongo       Mongo       `koanf:"mongo"`
	Redis       Redis       `koanf:"redis"`
	Kafka       Kafka       `koanf:"kafka"`
	Digiflazz   Digiflazz   `koanf:"digiflazz"`
	TokoVoucher TokoVoucher `koanf:"tokovoucher"`
	Telegram    Telegram    `koanf:"telegram"`
	Reconciler  Reconciler  `koanf:"reconciler"`
	Security    Security    `koanf:"security"`
	Pricing     Pricing     `koanf:"pricing"`
	Retention   Retention   `koanf:"retention"`
}

type Logger struct {
	Level string `koanf:"level"`
}

type Server struct {
	Addr string `koanf:"addr"`
}

type Mongo struct {
	URI      string `koanf:"uri"`
	Database string `koanf:"database"`
}

type Redis struct {
	URI      string `koanf:"uri"`
	Password string `koanf:"password"`
}

type Kafka struct {
	Brokers        []string `koanf:"brokers"`
	Consume        bool     `koanf:"consume"`
	Topic          string   `koanf:"topic"`
	RecordsPerPoll int      `koanf:"records_per_poll"`
	ConsumerName   string   `koanf:"consumer_name"`
}

type Digiflazz struct {
	BaseURL  string `koanf:"base_url"`
	Username string `koanf:"username"`
	APIKey   string `koanf:"api_key"`
}

type TokoVoucher struct {
	BaseURL    string `koanf:"base_url"`
	MemberCode string `koanf:"member_code"`
	Secret     string `koanf:"secret"`
}

type Telegram struct {
	BotToken string   `koanf:"bot_token"`
	ChatIDs  []string `koanf:"chat_ids"`
}

type Reconciler struct {
	Interval       time.Duration `koanf:"interval"`
	ResyncInterval time.Duration `koanf:"resync_interval"`
}

// Security holds the two independent lockout policies. The PIN
// threshold and the login-password window are deliberately separate
// mechanisms, not a unified policy.
type Security struct {
	PinMaxAttempts   int           `koanf:"pin_max_attempts"`
	LoginMaxAttempts int           `koanf:"login_max_attempts"`
	LoginWindow      time.Duration `koanf:"login_window"`
}

type Pricing struct {
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

type Retention struct {
	Months int `koanf:"months"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	ve := errors.ValidationErrs()

	if c.Application == "" {
		ve.Add("application", "cannot be empty")
	}
	if c.Logger.Level == "" {
		ve.Add("logger.level", "cannot be empty")
	}
	if c.Server.Addr == "" {
		ve.Add("server.addr", "cannot be empty")
	}
	if c.Mongo.URI == "" {
		ve.Add("mongo.uri", "cannot be empty")
	}
	if c.Mongo.Database == "" {
		ve.Add("mongo.database", "cannot be empty")
	}
	if c.Redis.URI == "" {
		ve.Add("redis.uri", "cannot be empty")
	}
	if c.Kafka.Consume && len(c.Kafka.Brokers) == 0 {
		ve.Add("kafka.brokers", "cannot be empty when consume is enabled")
	}
	if c.Reconciler.Interval <= 0 {
		ve.Add("reconciler.interval", "must be positive")
	}
	if c.Security.PinMaxAttempts <= 0 {
		ve.Add("security.pin_max_attempts", "must be positive")
	}
	if c.Retention.Months <= 0 {
		ve.Add("retention.months", "must be positive")
	}

	return ve.Err()
}
