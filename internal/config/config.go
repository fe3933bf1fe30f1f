// Configuration loading for the downloader. Credentials and directories come
// from config.yml, with ZEN_-prefixed environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all settings for the application. It maps directly to the
// structure of config.yml.
type Config struct {
	Username    string `mapstructure:"username" validate:"required"`
	Password    string `mapstructure:"password" validate:"required"`
	DownloadDir string `mapstructure:"download_dir"`
	SessionDir  string `mapstructure:"session_dir"`
	Parallel    int    `mapstructure:"parallel" validate:"omitempty,gte=1"`
	FFmpegPath  string `mapstructure:"ffmpeg_path"`
}

// ConfigError reports everything wrong with the configuration at once, so a
// user fixes the file in one pass instead of one field per run.
type ConfigError struct {
	Fields []string // offending config keys
	Reason string   // non-field problem, e.g. unreadable file
}

func (e *ConfigError) Error() string {
	if len(e.Fields) > 0 {
		return "invalid configuration: missing or invalid fields: " + strings.Join(e.Fields, ", ")
	}
	return "invalid configuration: " + e.Reason
}

// Load reads configuration from a file named "config.yml" in the current
// directory and validates it. A missing file or missing credentials is fatal
// and returned as a *ConfigError.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath(".")

	// Environment variable overrides, e.g. ZEN_DOWNLOAD_DIR replaces the
	// `download_dir` key.
	viper.SetEnvPrefix("ZEN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Credentials default to empty so the keys are known to viper and env
	// overrides apply to them; validation rejects the empty values below.
	viper.SetDefault("username", "")
	viper.SetDefault("password", "")
	viper.SetDefault("download_dir", ".")
	viper.SetDefault("session_dir", "~/.zen-downloader")
	viper.SetDefault("parallel", 6)
	viper.SetDefault("ffmpeg_path", "ffmpeg")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, &ConfigError{Reason: "config.yml not found; create one with your platform username and password"}
		}
		return nil, &ConfigError{Reason: fmt.Sprintf("could not read config file: %v", err)}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("could not parse config file: %v", err)}
	}

	config.SessionDir = expandHome(config.SessionDir)
	config.DownloadDir = expandHome(config.DownloadDir)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the loaded configuration eagerly and collects every
// missing or invalid field into a single ConfigError.
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ConfigError{Reason: err.Error()}
	}
	cerr := &ConfigError{}
	for _, fe := range verrs {
		cerr.Fields = append(cerr.Fields, fe.Field())
	}
	return cerr
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
