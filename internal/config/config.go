// Package config loads the service configuration from YAML with ${ENV} expansion and
// environment overrides. Secrets are exposed only through the immutable Secrets value.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"quantum-redirect/internal/redirect/ledger"
	"quantum-redirect/internal/redirect/nonce"

	"github.com/samber/lo"
)

const (
	minSecretLength = 32
	maxTokenTTL     = 60 * time.Second
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Protocol ProtocolConfig `yaml:"protocol"`
	Nonce    NonceConfig    `yaml:"nonce"`
	Ledger   LedgerConfig   `yaml:"ledger"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"QUANTUM_ADDR"`
	BaseURL         string        `yaml:"base_url" env:"QUANTUM_BASE_URL"`
	RateLimit       int           `yaml:"rate_limit" env:"QUANTUM_RATE_LIMIT"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// TrustedProxies lists the addresses or CIDR ranges whose X-Forwarded-For and X-Real-IP
	// headers are believed. Empty means the TCP peer is always the client.
	TrustedProxies []string `yaml:"trusted_proxies" env:"QUANTUM_TRUSTED_PROXIES"`
}

// TrustedProxyPrefixes parses TrustedProxies. A bare address is a single-host range.
func (s ServerConfig) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, raw := range s.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			p, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("server.trusted_proxies: %w", err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("server.trusted_proxies: %w", err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

type LogConfig struct {
	Level  string `yaml:"level" env:"QUANTUM_LOG_LEVEL"`
	Format string `yaml:"format" env:"QUANTUM_LOG_FORMAT"`
}

type DatabaseConfig struct {
	Path         string        `yaml:"path" env:"QUANTUM_DATABASE_PATH"`
	MaxOpenConns int           `yaml:"max_open_conns" env:"QUANTUM_DATABASE_MAX_OPEN_CONNS"`
	BusyTimeout  time.Duration `yaml:"busy_timeout"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"QUANTUM_REDIS_ADDR"`
	Password string `yaml:"password" env:"QUANTUM_REDIS_PASSWORD"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type ProtocolConfig struct {
	Issuer            string           `yaml:"issuer"`
	GenesisSecret     string           `yaml:"genesis_secret" env:"QUANTUM_GENESIS_SECRET"`
	TransitSecret     string           `yaml:"transit_secret" env:"QUANTUM_TRANSIT_SECRET"`
	FingerprintPepper string           `yaml:"fingerprint_pepper" env:"QUANTUM_FINGERPRINT_PEPPER"`
	GenesisTTL        time.Duration    `yaml:"genesis_ttl"`
	TransitTTL        time.Duration    `yaml:"transit_ttl"`
	ClockSkew         time.Duration    `yaml:"clock_skew"`
	LenientMode       bool             `yaml:"lenient_mode" env:"QUANTUM_LENIENT_MODE"`
	TrackingDefaults  TrackingDefaults `yaml:"tracking_defaults"`
	Budgets           BudgetConfig     `yaml:"budgets"`
}

// BudgetConfig holds per-stage processing-time targets. Overruns are logged, never enforced.
type BudgetConfig struct {
	Genesis    time.Duration `yaml:"genesis"`
	Validation time.Duration `yaml:"validation"`
	Routing    time.Duration `yaml:"routing"`
}

type NonceConfig struct {
	Driver      string        `yaml:"driver" env:"QUANTUM_NONCE_DRIVER"`
	TTL         time.Duration `yaml:"ttl"`
	PingTimeout time.Duration `yaml:"ping_timeout"`
}

type LedgerConfig struct {
	Sink  string             `yaml:"sink" env:"QUANTUM_LEDGER_SINK"`
	Dapr  DaprConfig         `yaml:"dapr"`
	Kafka ledger.KafkaConfig `yaml:"kafka"`
}

type DaprConfig struct {
	Address string `yaml:"address" env:"QUANTUM_DAPR_ADDRESS"`
	PubSub  string `yaml:"pubsub"`
	Topic   string `yaml:"topic"`
}

// Default returns the configuration used for every key the file and environment leave unset.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			BaseURL:         "http://localhost:8080",
			RateLimit:       100,
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Database: DatabaseConfig{
			Path:         "data/quantum.db",
			MaxOpenConns: 1,
			BusyTimeout:  5 * time.Second,
		},
		Redis: RedisConfig{
			Prefix: "quantum:nonce:",
		},
		Protocol: ProtocolConfig{
			Issuer:     "quantum-redirect",
			GenesisTTL: 15 * time.Second,
			TransitTTL: 10 * time.Second,
			ClockSkew:  time.Second,
			Budgets: BudgetConfig{
				Genesis:    100 * time.Millisecond,
				Validation: 150 * time.Millisecond,
				Routing:    100 * time.Millisecond,
			},
		},
		Nonce: NonceConfig{
			Driver:      nonce.DriverSQLite,
			TTL:         nonce.DefaultTTL,
			PingTimeout: 2 * time.Second,
		},
		Ledger: LedgerConfig{
			Sink: ledger.SinkSQLite,
			Dapr: DaprConfig{
				PubSub: ledger.DefaultDaprPubSub,
				Topic:  ledger.DefaultDaprTopic,
			},
		},
	}
}

var (
	nonceDrivers = []string{nonce.DriverMemory, nonce.DriverRedis, nonce.DriverSQLite}
	logLevels    = []string{"debug", "info", "warn", "error"}
	logFormats   = []string{"json", "console"}
)

// Validate checks everything the redirect server needs. Admin commands that only touch the
// database do not call it.
func (c *Config) Validate() error {
	var errs []error
	p := c.Protocol

	if len(p.GenesisSecret) < minSecretLength {
		errs = append(errs, fmt.Errorf("protocol.genesis_secret must be at least %d bytes", minSecretLength))
	}
	if len(p.TransitSecret) < minSecretLength {
		errs = append(errs, fmt.Errorf("protocol.transit_secret must be at least %d bytes", minSecretLength))
	}
	if p.GenesisSecret != "" && p.GenesisSecret == p.TransitSecret {
		errs = append(errs, errors.New("protocol.genesis_secret and protocol.transit_secret must differ"))
	}
	if p.FingerprintPepper == "" {
		errs = append(errs, errors.New("protocol.fingerprint_pepper is required"))
	}
	if p.GenesisTTL <= 0 || p.GenesisTTL > maxTokenTTL {
		errs = append(errs, fmt.Errorf("protocol.genesis_ttl must be in (0, %s]", maxTokenTTL))
	}
	if p.TransitTTL <= 0 || p.TransitTTL > maxTokenTTL {
		errs = append(errs, fmt.Errorf("protocol.transit_ttl must be in (0, %s]", maxTokenTTL))
	}
	if p.ClockSkew < 0 {
		errs = append(errs, errors.New("protocol.clock_skew must not be negative"))
	}
	// A nonce must outlive every token that can carry it, skew included.
	if c.Nonce.TTL < lo.Max([]time.Duration{p.GenesisTTL, p.TransitTTL})+p.ClockSkew {
		errs = append(errs, errors.New("nonce.ttl must cover the longest token ttl plus clock_skew"))
	}

	if !lo.Contains(nonceDrivers, c.Nonce.Driver) {
		errs = append(errs, fmt.Errorf("nonce.driver must be one of %v", nonceDrivers))
	}
	if c.Nonce.Driver == nonce.DriverRedis && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required for the redis nonce driver"))
	}

	if !lo.Contains(ledger.Sinks, c.Ledger.Sink) {
		errs = append(errs, fmt.Errorf("ledger.sink must be one of %v", ledger.Sinks))
	}
	if c.Ledger.Sink == ledger.SinkKafka && (len(c.Ledger.Kafka.Brokers) == 0 || c.Ledger.Kafka.Topic == "") {
		errs = append(errs, errors.New("ledger.kafka.brokers and ledger.kafka.topic are required for the kafka sink"))
	}

	if u, err := url.Parse(c.Server.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, errors.New("server.base_url must be an absolute http(s) url"))
	}
	if c.Server.RateLimit <= 0 {
		errs = append(errs, errors.New("server.rate_limit must be positive"))
	}
	if _, err := c.Server.TrustedProxyPrefixes(); err != nil {
		errs = append(errs, err)
	}

	if c.Database.MaxOpenConns < 1 {
		errs = append(errs, errors.New("database.max_open_conns must be at least 1"))
	}
	if c.Database.BusyTimeout < 0 {
		errs = append(errs, errors.New("database.busy_timeout must not be negative"))
	}

	if !lo.Contains(logLevels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of %v", logLevels))
	}
	if !lo.Contains(logFormats, c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format must be one of %v", logFormats))
	}

	return errors.Join(errs...)
}

// Secrets holds the signing material. Accessors return copies, so callers cannot alter the
// loaded values.
type Secrets struct {
	genesis []byte
	transit []byte
	pepper  string
}

// Secrets snapshots the protocol secrets once at startup.
func (c *Config) Secrets() Secrets {
	return Secrets{
		genesis: []byte(c.Protocol.GenesisSecret),
		transit: []byte(c.Protocol.TransitSecret),
		pepper:  c.Protocol.FingerprintPepper,
	}
}

func (s Secrets) Genesis() []byte { return bytes.Clone(s.genesis) }

func (s Secrets) Transit() []byte { return bytes.Clone(s.transit) }

func (s Secrets) Pepper() string { return s.pepper }

// String keeps secrets out of logs and panics.
func (s Secrets) String() string { return "config.Secrets{redacted}" }
