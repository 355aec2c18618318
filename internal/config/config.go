// Package config loads and validates the tool configuration from a YAML
// file, defaults, and environment variables for credentials.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Data           DataConfig           `mapstructure:"data"`
	Quota          QuotaConfig          `mapstructure:"quota"`
	MerriamWebster MerriamWebsterConfig `mapstructure:"merriam_webster"`
}

type DataConfig struct {
	// Directory holds the dictionary/, thesaurus/ and quota/ subdirectories.
	Directory string `mapstructure:"directory" validate:"required"`
}

type QuotaConfig struct {
	DailyLimit int `mapstructure:"daily_limit" validate:"required,gt=0"`
}

type MerriamWebsterConfig struct {
	DictionaryBaseURL string `mapstructure:"dictionary_base_url" validate:"required,url"`
	ThesaurusBaseURL  string `mapstructure:"thesaurus_base_url" validate:"required,url"`

	// Keys come from the environment only, never from the config file.
	DictionaryKey string `mapstructure:"dictionary_key" validate:"required"`
	ThesaurusKey  string `mapstructure:"thesaurus_key" validate:"required"`

	TimeoutSeconds int  `mapstructure:"timeout_seconds" validate:"gt=0"`
	RetryAttempts  uint `mapstructure:"retry_attempts" validate:"gt=0"`
}

// Load reads the configuration file (or defaults when none exists) and
// binds the API keys from the environment. Callers that are about to spend
// API budget validate the result with Validate.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/wordtrawl")
	}

	v.SetDefault("data.directory", "data")
	v.SetDefault("quota.daily_limit", 1000)
	v.SetDefault("merriam_webster.dictionary_base_url", "https://www.dictionaryapi.com/api/v3/references/collegiate/json/")
	v.SetDefault("merriam_webster.thesaurus_base_url", "https://www.dictionaryapi.com/api/v3/references/thesaurus/json/")
	v.SetDefault("merriam_webster.timeout_seconds", 10)
	v.SetDefault("merriam_webster.retry_attempts", 4)

	if err := v.BindEnv("merriam_webster.dictionary_key", "MERRIAM_WEBSTER_DICT_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind MERRIAM_WEBSTER_DICT_API_KEY environment variable: %w", err)
	}
	if err := v.BindEnv("merriam_webster.thesaurus_key", "MERRIAM_WEBSTER_THES_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind MERRIAM_WEBSTER_THES_API_KEY environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("configuration file found but could not be read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration and reports every problem in one error,
// with field names matching the config file keys.
func (c *Config) Validate() error {
	validate, trans, err := newValidator()
	if err != nil {
		return fmt.Errorf("newValidator > %w", err)
	}

	err = validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return fmt.Errorf("validate.Struct > %w", err)
	}

	messages := make([]string, 0, len(fieldErrors))
	for _, fieldError := range fieldErrors {
		messages = append(messages, fieldError.Translate(trans))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
}

// QuotaDirectory is where daily quota state files live.
func (c *Config) QuotaDirectory() string {
	return filepath.Join(c.Data.Directory, "quota")
}
