package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App         AppConfig
	Store       StoreConfig
	Redis       RedisConfig
	Identifiers IdentifiersConfig
	Intake      IntakeConfig
	Wizard      WizardConfig
	Export      ExportConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"RELEASEDESK_APP_ENV" required:"true"`
	Port         string   `envconfig:"RELEASEDESK_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"RELEASEDESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"RELEASEDESK_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"RELEASEDESK_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type StoreConfig struct {
	Driver    string `envconfig:"RELEASEDESK_STORE_DRIVER" default:"memory"`
	SQLiteDSN string `envconfig:"RELEASEDESK_SQLITE_DSN" default:"file::memory:?cache=shared"`

	MaxOpenConns    int           `envconfig:"RELEASEDESK_SQLITE_MAX_OPEN_CONNS" default:"1"`
	MaxIdleConns    int           `envconfig:"RELEASEDESK_SQLITE_MAX_IDLE_CONNS" default:"1"`
	ConnMaxIdleTime time.Duration `envconfig:"RELEASEDESK_SQLITE_CONN_MAX_IDLE_TIME" default:"0"`
}

// UsesSQLite reports whether releases live in the in-memory SQLite database.
func (s StoreConfig) UsesSQLite() bool {
	return strings.EqualFold(s.Driver, StoreDriverSQLite)
}

// RedisConfig is optional; an empty URL and address leave idempotency disabled.
type RedisConfig struct {
	URL          string        `envconfig:"RELEASEDESK_REDIS_URL"`
	Address      string        `envconfig:"RELEASEDESK_REDIS_ADDR"`
	Password     string        `envconfig:"RELEASEDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"RELEASEDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RELEASEDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RELEASEDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RELEASEDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RELEASEDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RELEASEDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type IdentifiersConfig struct {
	CountryCode    string `envconfig:"RELEASEDESK_ISRC_COUNTRY_CODE" default:"US"`
	RegistrantCode string `envconfig:"RELEASEDESK_ISRC_REGISTRANT_CODE" default:"XXX"`
}

type IntakeConfig struct {
	MaxAudioMB   int64         `envconfig:"RELEASEDESK_INTAKE_MAX_AUDIO_MB" default:"200"`
	MaxArtworkMB int64         `envconfig:"RELEASEDESK_INTAKE_MAX_ARTWORK_MB" default:"50"`
	MinArtworkPx int           `envconfig:"RELEASEDESK_INTAKE_MIN_ARTWORK_PX" default:"3000"`
	ProbeTimeout time.Duration `envconfig:"RELEASEDESK_INTAKE_PROBE_TIMEOUT" default:"5s"`
}

// MaxAudioBytes returns the audio size ceiling in bytes.
func (i IntakeConfig) MaxAudioBytes() int64 {
	return i.MaxAudioMB * 1024 * 1024
}

// MaxArtworkBytes returns the artwork size ceiling in bytes.
func (i IntakeConfig) MaxArtworkBytes() int64 {
	return i.MaxArtworkMB * 1024 * 1024
}

type WizardConfig struct {
	SessionTTL time.Duration `envconfig:"RELEASEDESK_WIZARD_SESSION_TTL" default:"2h"`
}

type ExportConfig struct {
	Timezone string `envconfig:"RELEASEDESK_EXPORT_TIMEZONE" default:"UTC"`
}

// Location resolves the configured export timezone.
func (e ExportConfig) Location() (*time.Location, error) {
	return time.LoadLocation(e.Timezone)
}

var (
	countryCodePattern    = regexp.MustCompile(`^[A-Z]{2}$`)
	registrantCodePattern = regexp.MustCompile(`^[A-Z0-9]{3}$`)
)

func (c *Config) validate() error {
	switch strings.ToLower(c.Store.Driver) {
	case StoreDriverMemory, StoreDriverSQLite:
	default:
		return fmt.Errorf("%s must be %q or %q, got %q", EnvStoreDriver, StoreDriverMemory, StoreDriverSQLite, c.Store.Driver)
	}
	if c.Store.UsesSQLite() && strings.TrimSpace(c.Store.SQLiteDSN) == "" {
		return fmt.Errorf("%s is required when the sqlite store is selected", EnvSQLiteDSN)
	}
	if !countryCodePattern.MatchString(c.Identifiers.CountryCode) {
		return fmt.Errorf("%s must be two uppercase letters", EnvISRCCountryCode)
	}
	if !registrantCodePattern.MatchString(c.Identifiers.RegistrantCode) {
		return fmt.Errorf("%s must be three uppercase alphanumerics", EnvISRCRegistrantCode)
	}
	if c.Intake.MaxAudioMB <= 0 || c.Intake.MaxArtworkMB <= 0 {
		return fmt.Errorf("intake size limits must be positive")
	}
	if c.Intake.MinArtworkPx <= 0 {
		return fmt.Errorf("%s must be positive", EnvIntakeMinArtworkPx)
	}
	if c.Intake.ProbeTimeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvIntakeProbeTimeout)
	}
	if c.Wizard.SessionTTL <= 0 {
		return fmt.Errorf("%s must be positive", EnvWizardSessionTTL)
	}
	if _, err := c.Export.Location(); err != nil {
		return fmt.Errorf("%s: %w", EnvExportTimezone, err)
	}
	return nil
}
