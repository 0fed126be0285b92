package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Feed      FeedConfig      `mapstructure:"feed"`
	Scan      ScanConfig      `mapstructure:"scan"`
	Bootstrap BootstrapConfig `mapstructure:"bootstrap"`
	Store     StoreConfig     `mapstructure:"store"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type FeedConfig struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"api_key"`
}

type ScanConfig struct {
	// BatchSize is the concurrent-subscription ceiling per batch; the
	// feed enforces a global line limit upstream of it.
	BatchSize     int      `mapstructure:"batch_size"`
	SettleSeconds int      `mapstructure:"settle_seconds"`
	Expiries      []string `mapstructure:"expiries"`
	Symbols       []string `mapstructure:"symbols"`
	SymbolsFile   string   `mapstructure:"symbols_file"`
}

type BootstrapConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	BatchSize    int  `mapstructure:"batch_size"`
	DelaySeconds int  `mapstructure:"delay_seconds"`
}

type StoreConfig struct {
	Root string `mapstructure:"root"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/optrate")
	}

	v.SetEnvPrefix("OPTRATE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; use defaults and environment
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&config)

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("feed.url", "ws://127.0.0.1:7496/feed")
	v.SetDefault("feed.api_key", "")

	v.SetDefault("scan.batch_size", 36)
	v.SetDefault("scan.settle_seconds", 10)
	v.SetDefault("scan.expiries", []string{})
	v.SetDefault("scan.symbols", []string{})
	v.SetDefault("scan.symbols_file", "")

	v.SetDefault("bootstrap.enabled", true)
	v.SetDefault("bootstrap.batch_size", 36)
	v.SetDefault("bootstrap.delay_seconds", 5)

	v.SetDefault("store.root", "./data")

	v.SetDefault("server.port", 8080)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func overrideFromEnv(config *Config) {
	if url := os.Getenv("OPTRATE_FEED_URL"); url != "" {
		config.Feed.URL = url
	}
	if apiKey := os.Getenv("OPTRATE_FEED_API_KEY"); apiKey != "" {
		config.Feed.APIKey = apiKey
	}
	if root := os.Getenv("OPTRATE_STORE_ROOT"); root != "" {
		config.Store.Root = root
	}
}

// LoadSymbols resolves the symbol universe: the file wins when set,
// otherwise the inline list. Files are one ticker per line; blank lines
// and #-comments are skipped.
func (c *Config) LoadSymbols() ([]string, error) {
	if c.Scan.SymbolsFile == "" {
		return c.Scan.Symbols, nil
	}

	f, err := os.Open(c.Scan.SymbolsFile)
	if err != nil {
		return nil, fmt.Errorf("error opening symbols file: %w", err)
	}
	defer f.Close()

	var symbols []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		symbols = append(symbols, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading symbols file: %w", err)
	}
	return symbols, nil
}
