package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/cart"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/currency"
	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/fee"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (JENHO_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (JENHO_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	RedisURL    string `usage:"Redis URL for cart storage; empty keeps carts in process" flag:"redis-url"`
	Auth        AuthConfig
	Pricing     PricingConfig
	Shipping    ShippingConfig
	Cart        CartConfig
	Notify      NotifyConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// AuthConfig configures bearer token verification.
type AuthConfig struct {
	JWTSecret string `usage:"HS256 secret shared with the token issuer" flag:"jwt-secret"`
}

// ExchangeConfig lists conversion ratios from the base currency. An empty
// ratio converts 1:1.
type ExchangeConfig struct {
	MYR string `default:"" usage:"Ratio from base currency to MYR"`
	VND string `default:"" usage:"Ratio from base currency to VND"`
	USD string `default:"" usage:"Ratio from base currency to USD"`
	SGD string `default:"" usage:"Ratio from base currency to SGD"`
}

// PricingConfig configures price conversion and surcharges.
type PricingConfig struct {
	BaseCurrency            string `default:"MYR" usage:"Currency catalog prices are stored in"`
	Exchange                ExchangeConfig
	CustomizationFeePercent string `default:"0" usage:"Customization surcharge in percent of the customized line"`
}

// ShippingRuleConfig charges Fee when the order subtotal is below Under.
type ShippingRuleConfig struct {
	Under string `default:"" usage:"Subtotal below which shipping is charged"`
	Fee   string `default:"" usage:"Flat shipping fee"`
}

// ShippingConfig holds per-currency shipping rules. Other applies to
// currencies without a rule and is denominated in the base currency.
type ShippingConfig struct {
	MYR   ShippingRuleConfig
	VND   ShippingRuleConfig
	SGD   ShippingRuleConfig
	Other ShippingRuleConfig
}

// CartConfig controls cart storage and merging.
type CartConfig struct {
	TTL        time.Duration `default:"720h" usage:"Lifetime of an untouched cart in Redis"`
	MaxRetries int           `default:"3" usage:"Retries of a cart write that lost a concurrent update"`
	Matcher    string        `default:"color" usage:"Customization equality for merging custom items (color or exact)"`
}

// NotifyConfig controls order confirmation delivery.
type NotifyConfig struct {
	Delay           time.Duration `default:"6s" usage:"Delay between order creation and confirmation"`
	Timeout         time.Duration `default:"10s" usage:"Deadline of a single confirmation job"`
	Brokers         []string      `usage:"Kafka brokers; empty logs confirmations instead"`
	Topic           string        `default:"order-confirmations" usage:"Kafka topic for confirmation events"`
	BreakerFailures uint32        `default:"5" usage:"Consecutive failures that open the notifier circuit"`
	BreakerCooldown time.Duration `default:"30s" usage:"How long the notifier circuit stays open"`
}

// RateLimitConfig controls the per-client token bucket.
type RateLimitConfig struct {
	RPS   float64 `default:"20" usage:"Sustained requests per second per client"`
	Burst int     `default:"40" usage:"Burst size per client"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins []string `default:"*" usage:"Allowed CORS origins"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "JENHO",
		Files:     []string{"config.yaml", "/etc/jenho/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables that use
// standard names like DATABASE_URL and PORT to the JENHO_-prefixed
// configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.RedisURL == "" {
		c.RedisURL = os.Getenv("REDIS_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("database URL is required: set JENHO_DATABASE_URL or DATABASE_URL")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT secret is required: set JENHO_AUTH_JWT_SECRET")
	}
	if _, ok := cart.MatcherByName(c.Cart.Matcher); !ok {
		return errors.Errorf("unknown cart matcher %q", c.Cart.Matcher)
	}
	if _, err := c.Pricing.Ratios(); err != nil {
		return err
	}
	if _, err := c.Pricing.CustomizationPercent(); err != nil {
		return err
	}
	if _, err := c.Shipping.Table(); err != nil {
		return err
	}
	return nil
}

// parseAmount parses an optional non-negative decimal.
func parseAmount(name, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse %s", name)
	}
	if d.IsNegative() {
		return decimal.Zero, errors.Errorf("%s must not be negative", name)
	}
	return d, nil
}

// Base returns the base currency. Empty means currency.Default.
func (p PricingConfig) Base() (currency.Code, error) {
	code, err := currency.Parse(p.BaseCurrency)
	if err != nil {
		return "", errors.Errorf("unsupported base currency %q", p.BaseCurrency)
	}
	return code, nil
}

// Ratios returns the configured exchange ratios. Empty ratios are omitted.
// A ratio given for the base currency must be 1.
func (p PricingConfig) Ratios() (currency.RatioTable, error) {
	base, err := p.Base()
	if err != nil {
		return nil, err
	}
	raw := map[currency.Code]string{
		currency.MYR: p.Exchange.MYR,
		currency.VND: p.Exchange.VND,
		currency.USD: p.Exchange.USD,
		currency.SGD: p.Exchange.SGD,
	}
	table := make(currency.RatioTable, len(raw))
	for code, s := range raw {
		d, err := parseAmount("exchange ratio "+string(code), s)
		if err != nil {
			return nil, err
		}
		if code == base && !d.IsZero() && !d.Equal(decimal.NewFromInt(1)) {
			return nil, errors.Errorf("exchange ratio %s must be 1 for the base currency", code)
		}
		if d.IsPositive() {
			table[code] = d
		}
	}
	return table, nil
}

// CustomizationPercent returns the customization surcharge percent.
func (p PricingConfig) CustomizationPercent() (decimal.Decimal, error) {
	return parseAmount("customization fee percent", p.CustomizationFeePercent)
}

func (r ShippingRuleConfig) rule(name string) (fee.ShippingRule, error) {
	under, err := parseAmount(name+" shipping threshold", r.Under)
	if err != nil {
		return fee.ShippingRule{}, err
	}
	amount, err := parseAmount(name+" shipping fee", r.Fee)
	if err != nil {
		return fee.ShippingRule{}, err
	}
	return fee.ShippingRule{Under: under, Fee: amount}, nil
}

// Table returns the shipping table. Currencies whose rule is left empty
// fall back to Other.
func (s ShippingConfig) Table() (fee.ShippingTable, error) {
	table := fee.ShippingTable{Rules: make(map[currency.Code]fee.ShippingRule)}
	for code, rc := range map[currency.Code]ShippingRuleConfig{
		currency.MYR: s.MYR,
		currency.VND: s.VND,
		currency.SGD: s.SGD,
	} {
		if rc == (ShippingRuleConfig{}) {
			continue
		}
		r, err := rc.rule(string(code))
		if err != nil {
			return fee.ShippingTable{}, err
		}
		table.Rules[code] = r
	}
	fallback, err := s.Other.rule("fallback")
	if err != nil {
		return fee.ShippingTable{}, err
	}
	table.Fallback = fallback
	return table, nil
}
