package config

import (
	"fmt"
	"path/filepath"
	"strings"

	internal "github.com/typhon-ml/tensorbatch/tbatch"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Collator CollatorConfig `mapstructure:"collator"`
	Store    StoreConfig    `mapstructure:"store"`
}

// CollatorConfig stores the knobs shared by every batching policy.
type CollatorConfig struct {
	PadTokenID  int64     `mapstructure:"padTokenId"`
	MaskTokenID int64     `mapstructure:"maskTokenId"`
	IgnoreIndex int64     `mapstructure:"ignoreIndex"`
	PaddingSide string    `mapstructure:"paddingSide"`
	VocabSize   int       `mapstructure:"vocabSize"`
	MaxWorkers  int       `mapstructure:"maxWorkers"`
	MLM         MLMConfig `mapstructure:"mlm"`
}

// MLMConfig stores masked-language-model collation settings.
type MLMConfig struct {
	Enabled             bool    `mapstructure:"enabled"`
	MaskProbability     float64 `mapstructure:"maskProbability"`
	MaskReplaceFraction float64 `mapstructure:"maskReplaceFraction"`
	RandomReplacement   bool    `mapstructure:"randomReplacement"`
	RetainOriginalInput bool    `mapstructure:"retainOriginalInput"`
	Seed                uint64  `mapstructure:"seed"`
}

// StoreConfig stores example-store connection details.
type StoreConfig struct {
	DSN  string `mapstructure:"dsn"`
	Path string `mapstructure:"path"`
}

var AppConfig Config

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("..")
		viper.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		viper.AddConfigPath(internal.DefaultConfigPath)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Set default values
	viper.SetDefault("collator.padTokenId", 0)
	viper.SetDefault("collator.maskTokenId", 103)
	viper.SetDefault("collator.ignoreIndex", internal.DefaultIgnoreIndex)
	viper.SetDefault("collator.paddingSide", "right")
	viper.SetDefault("collator.vocabSize", 30522)
	viper.SetDefault("collator.maxWorkers", 0)
	viper.SetDefault("collator.mlm.enabled", true)
	viper.SetDefault("collator.mlm.maskProbability", internal.DefaultMaskProbability)
	viper.SetDefault("collator.mlm.maskReplaceFraction", internal.DefaultMaskReplaceFraction)
	viper.SetDefault("collator.mlm.randomReplacement", true)
	viper.SetDefault("collator.mlm.retainOriginalInput", false)
	viper.SetDefault("collator.mlm.seed", 1)
	viper.SetDefault("store.dsn", internal.DefaultStoreDSN)
	viper.SetDefault("store.path", internal.DefaultStorePath)

	viper.AutomaticEnv()                                   // Read in environment variables that match
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // e.g. collator.mlm.maskProbability becomes COLLATOR_MLM_MASKPROBABILITY

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; defaults will be used.
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	err := viper.Unmarshal(&AppConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	return &AppConfig, nil
}
