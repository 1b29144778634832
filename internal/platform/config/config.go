// Package config loads auditcore settings from defaults, an optional YAML
// file, AUDITCORE_* environment variables and bound command-line flags.
package config

import (
	"auditcore/internal/blob"
	"auditcore/internal/core"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. AUDITCORE_HTTP_ADDR.
const EnvPrefix = "AUDITCORE"

// Config is the fully resolved process configuration.
type Config struct {
	HTTP     HTTPConfig         `mapstructure:"http"`
	Storage  core.StorageConfig `mapstructure:"storage"`
	Blob     blob.Config        `mapstructure:"blob"`
	Log      LogConfig          `mapstructure:"log"`
	Photos   PhotosConfig       `mapstructure:"photos"`
	Autosave AutosaveConfig     `mapstructure:"autosave"`
	Exports  ExportsConfig      `mapstructure:"exports"`
	Report   ReportConfig       `mapstructure:"report"`
	Codec    CodecConfig        `mapstructure:"codec"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type PhotosConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

type AutosaveConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type ExportsConfig struct {
	QueueSize int           `mapstructure:"queue_size"`
	Retention time.Duration `mapstructure:"retention"`
}

// ReportConfig brands the customer report.
type ReportConfig struct {
	FilenamePrefix  string `mapstructure:"filename_prefix"`
	Company         string `mapstructure:"company"`
	CompanySubtitle string `mapstructure:"company_subtitle"`
}

// CodecConfig names the generator and evaluator written into .h2k files.
type CodecConfig struct {
	Generator string `mapstructure:"generator"`
	Evaluator string `mapstructure:"evaluator"`
}

// Defaults returns the default value of every key.
func Defaults() map[string]any {
	return map[string]any{
		"http.addr":                 ":8080",
		"http.shutdown_timeout":     "10s",
		"storage.driver":            string(core.StorageSQLite),
		"storage.sqlite_path":       "auditcore.db",
		"storage.postgres_dsn":      "",
		"blob.driver":               string(blob.DriverFilesystem),
		"blob.fs_root":              "./blobdata",
		"blob.s3.bucket":            "",
		"blob.s3.region":            "us-east-1",
		"blob.s3.endpoint":          "",
		"blob.s3.path_style":        false,
		"blob.s3.access_key_id":     "",
		"blob.s3.secret_access_key": "",
		"blob.s3.session_token":     "",
		"log.level":                 "info",
		"log.format":                "structured",
		"photos.max_bytes":          int64(10 << 20),
		"autosave.interval":         "30s",
		"exports.queue_size":        32,
		"exports.retention":         "1h",
		"report.filename_prefix":    "ENERVA_Audit_Report",
		"report.company":            "ENERVA",
		"report.company_subtitle":   "Energy Solutions Inc.",
		"codec.generator":           "Enerva Audit Tool",
		"codec.evaluator":           "Enerva Energy Solutions",
	}
}

// FlagKeys maps command-line flag names onto configuration keys.
var FlagKeys = map[string]string{
	"log-level":  "log.level",
	"log-format": "log.format",
	"addr":       "http.addr",
}

// Load resolves the configuration. path may be empty; a missing default
// config file is not an error, but an explicit path that cannot be read is.
// flags may be nil.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range FlagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("auditcore")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read configuration: %w", err)
		}
	}

	var cfg Config
	hook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(&cfg, viper.DecodeHook(hook)); err != nil {
		return Config{}, fmt.Errorf("failed to parse configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values no component can run with.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case core.StorageMemory, core.StorageSQLite:
	case core.StoragePostgres:
		if c.Storage.PostgresDSN == "" {
			return errors.New("storage.postgres_dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Blob.Driver {
	case blob.DriverFilesystem, blob.DriverMemory:
	case blob.DriverS3:
		if c.Blob.S3.Bucket == "" {
			return errors.New("blob.s3.bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("unknown blob driver %q", c.Blob.Driver)
	}
	if c.Photos.MaxBytes <= 0 {
		return errors.New("photos.max_bytes must be positive")
	}
	if c.Autosave.Interval <= 0 {
		return errors.New("autosave.interval must be positive")
	}
	if c.Exports.QueueSize <= 0 {
		return errors.New("exports.queue_size must be positive")
	}
	if c.Exports.Retention <= 0 {
		return errors.New("exports.retention must be positive")
	}
	return nil
}
