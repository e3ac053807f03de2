package shared

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"

	"places_ranker/internal/domain"
	"places_ranker/internal/ranking"
)

// Config is loaded once at startup and passed by value afterwards.
type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MaxInflight int

	APIKey     string
	BaseURL    string
	GatewayRPS int

	Origin       domain.Coords
	RadiusMeters int

	PricePerMile     float64
	TimeValuePerHour float64

	UseFixedPrior    bool
	FixedPriorRating float64
	FixedPriorWeight float64

	NameWidth int
}

var (
	ErrMissingAPIKey   = errors.New("PLACES_API_KEY is required")
	ErrInvalidRadius   = errors.New("SEARCH_RADIUS_METERS must be positive")
	ErrNegativePrice   = errors.New("PRICE_PER_MILE and TIME_VALUE_PER_HOUR must not be negative")
	ErrInvalidPrior    = errors.New("FIXED_PRIOR_WEIGHT must be positive when USE_FIXED_PRIOR is set")
	ErrInvalidNameSize = errors.New("NAME_WIDTH must be at least 4")
)

const (
	DefaultOrigin       = "35.997723,-86.796276"
	DefaultRadiusMeters = 1000
	DefaultPricePerMile = 0.5
	DefaultTimeValue    = 30.0
	DefaultPriorRating  = 4.2
	DefaultPriorWeight  = 25
	DefaultNameWidth    = 40
)

// Load merges, lowest precedence first: the optional YAML file at path,
// a .env file in the working directory, and the process environment.
// The returned error joins every parse and validation problem; the Config
// is filled in as far as possible either way.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg(".env could not be read")
	}

	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	p := &parser{k: k}
	c := Config{
		AppEnv:      p.str("APP_ENV", "env", "prod"),
		HTTPAddr:    p.str("HTTP_ADDR", "http_addr", ":8080"),
		MetricsAddr: p.str("METRICS_ADDR", "metrics_addr", ""),
		MaxInflight: p.int("MAX_INFLIGHT", "max_inflight", 4),

		APIKey:     p.str("PLACES_API_KEY", "api_key", ""),
		BaseURL:    p.str("PLACES_BASE_URL", "base_url", "https://maps.googleapis.com/maps/api"),
		GatewayRPS: p.int("GATEWAY_RPS", "gateway_rps", 5),

		RadiusMeters: p.int("SEARCH_RADIUS_METERS", "radius_meters", DefaultRadiusMeters),

		PricePerMile:     p.float("PRICE_PER_MILE", "price_per_mile", DefaultPricePerMile),
		TimeValuePerHour: p.float("TIME_VALUE_PER_HOUR", "time_value_per_hour", DefaultTimeValue),

		UseFixedPrior:    p.bool("USE_FIXED_PRIOR", "use_fixed_prior", true),
		FixedPriorRating: p.float("FIXED_PRIOR_RATING", "fixed_prior_rating", DefaultPriorRating),
		FixedPriorWeight: p.float("FIXED_PRIOR_WEIGHT", "fixed_prior_weight", DefaultPriorWeight),

		NameWidth: p.int("NAME_WIDTH", "name_width", DefaultNameWidth),
	}

	origin, err := domain.ParseCoords(p.str("SEARCH_ORIGIN", "origin", DefaultOrigin))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("SEARCH_ORIGIN: %w", err))
	}
	c.Origin = origin

	errs := append(p.errs, c.Validate()...)
	return c, errors.Join(errs...)
}

// Validate reports every invalid value at once.
func (c Config) Validate() []error {
	var errs []error
	if c.APIKey == "" {
		errs = append(errs, ErrMissingAPIKey)
	}
	if c.RadiusMeters <= 0 {
		errs = append(errs, ErrInvalidRadius)
	}
	if c.PricePerMile < 0 || c.TimeValuePerHour < 0 {
		errs = append(errs, ErrNegativePrice)
	}
	if c.UseFixedPrior && c.FixedPriorWeight <= 0 {
		errs = append(errs, ErrInvalidPrior)
	}
	if c.NameWidth < 4 {
		errs = append(errs, ErrInvalidNameSize)
	}
	return errs
}

func (c Config) Prior() ranking.PriorConfig {
	return ranking.PriorConfig{UseFixed: c.UseFixedPrior, Rating: c.FixedPriorRating, Weight: c.FixedPriorWeight}
}

func (c Config) CostModel() ranking.CostModel {
	return ranking.CostModel{PricePerMile: c.PricePerMile, TimeValuePerHour: c.TimeValuePerHour}
}

// MaskedKey is safe to log.
func (c Config) MaskedKey() string {
	if c.APIKey == "" {
		return "<not set>"
	}
	if len(c.APIKey) < 8 {
		return "****"
	}
	return c.APIKey[:4] + "****"
}

// parser reads env first, then the koanf tree, then the default, and
// remembers malformed values from either source.
type parser struct {
	k    *koanf.Koanf
	errs []error
}

func (p *parser) str(env, key, def string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	if v := p.k.String(key); v != "" {
		return v
	}
	return def
}

func (p *parser) int(env, key string, def int) int {
	if v := os.Getenv(env); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			p.errs = append(p.errs, fmt.Errorf("%s must be an integer: %w", env, err))
			return def
		}
		return n
	}
	raw := p.k.Get(key)
	if raw == nil {
		return def
	}
	switch v := raw.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	case float64:
		if v == math.Trunc(v) {
			return int(v)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	p.errs = append(p.errs, fmt.Errorf("%s must be an integer, got %v", key, raw))
	return def
}

func (p *parser) float(env, key string, def float64) float64 {
	if v := os.Getenv(env); v != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			p.errs = append(p.errs, fmt.Errorf("%s must be a number: %w", env, err))
			return def
		}
		return f
	}
	raw := p.k.Get(key)
	if raw == nil {
		return def
	}
	switch v := raw.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	p.errs = append(p.errs, fmt.Errorf("%s must be a number, got %v", key, raw))
	return def
}

func (p *parser) bool(env, key string, def bool) bool {
	if v := os.Getenv(env); v != "" {
		if b, ok := parseBool(v); ok {
			return b
		}
		p.errs = append(p.errs, fmt.Errorf("%s must be a boolean, got %q", env, v))
		return def
	}
	raw := p.k.Get(key)
	if raw == nil {
		return def
	}
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		if b, ok := parseBool(v); ok {
			return b
		}
	}
	p.errs = append(p.errs, fmt.Errorf("%s must be a boolean, got %v", key, raw))
	return def
}

func parseBool(s string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true, true
	case "false", "0", "no", "off":
		return false, true
	}
	return false, false
}
