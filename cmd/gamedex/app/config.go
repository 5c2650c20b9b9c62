package app

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/gamedex/gamedex/internal/sources"
	"github.com/gamedex/gamedex/pkg/dataset"
)

// Default file locations, relative to the working directory.
const (
	DefaultDatasetDir = "data/dataset"
	DefaultFixesFile  = "data/fixes.yaml"
	DefaultCacheDir   = ".gamedex-cache"
)

// Config holds the application configuration loaded from config files,
// environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool

	// Config file
	ConfigFile string

	// Data locations
	DatasetDir string
	FixesFile  string

	// Per-source extraction settings
	Sources sources.Config

	// Logging configuration
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (~/.gamedex.yaml or ./.gamedex.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	loadEnvFiles()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	configFile := viper.GetString("config")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.AddConfigPath(".")
			viper.SetConfigType("yaml")
			viper.SetConfigName(".gamedex")
		}
	}

	// Missing config file is fine; everything has a default.
	_ = viper.ReadInConfig()

	config := &Config{
		Verbose: viper.GetBool("verbose"),
		Quiet:   viper.GetBool("quiet"),
		NoColor: viper.GetBool("no-color"),

		ConfigFile: viper.ConfigFileUsed(),

		DatasetDir: viper.GetString("dataset_dir"),
		FixesFile:  viper.GetString("fixes_file"),

		Sources: sources.Config{
			Threshold:         viper.GetFloat64("threshold"),
			SpiralStatsURL:    viper.GetString("spiral_stats_url"),
			AbyssLabURL:       viper.GetString("abyss_lab_url"),
			WikiCharactersURL: viper.GetString("wiki_characters_url"),
			WikiWeaponsURL:    viper.GetString("wiki_weapons_url"),
			CacheDir:          viper.GetString("cache_dir"),
			CacheTTL:          viper.GetDuration("cache_ttl"),
		},

		LogLevel:  getEnvOrDefault("LOG_LEVEL", ""),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
	}

	if err := viper.UnmarshalKey("map_urls", &config.Sources.MapURLs); err != nil {
		return nil, err
	}
	if err := viper.UnmarshalKey("map_offsets", &config.Sources.MapOffsets); err != nil {
		return nil, err
	}

	applyDefaults(config)
	return config, nil
}

// UpdateFromFlags updates config values from parsed command flags. Called
// after cobra parses flags so flag values take precedence over config file
// and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

func applyDefaults(config *Config) {
	if config.DatasetDir == "" {
		config.DatasetDir = DefaultDatasetDir
	}
	if config.FixesFile == "" {
		config.FixesFile = DefaultFixesFile
	}
	if config.Sources.CacheDir == "" {
		config.Sources.CacheDir = DefaultCacheDir
	}
	if config.Sources.MapURLs == nil {
		config.Sources.MapURLs = map[dataset.MapCode]string{}
	}
	if config.Sources.MapOffsets == nil {
		config.Sources.MapOffsets = map[dataset.MapCode]dataset.Offset{}
	}
}

// loadEnvFiles loads environment variables from .env files. godotenv never
// overwrites a variable that is already set, so .env.local loads first to
// win over .env, and the real environment wins over both.
func loadEnvFiles() {
	envFiles := []string{
		".env.local",
		".env",
	}

	for _, envFile := range envFiles {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if
// not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
