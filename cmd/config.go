// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Thermoquad/pharos/pkg/logging"
	"github.com/Thermoquad/pharos/pkg/tower"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// envPrefix prefixes every environment override, e.g. PHAROS_PORT
const envPrefix = "PHAROS"

// Config is the merged configuration: flags override environment, which
// overrides the config file, which overrides defaults.
type Config struct {
	Port         string         `mapstructure:"port"`
	Baud         int            `mapstructure:"baud"`
	URL          string         `mapstructure:"url"`
	Username     string         `mapstructure:"username"`
	NoSSLVerify  bool           `mapstructure:"no_ssl_verify"`
	Timeout      time.Duration  `mapstructure:"timeout"`
	PollInterval time.Duration  `mapstructure:"poll_interval"`
	ClearOnOpen  bool           `mapstructure:"clear_on_open"`
	MetricsAddr  string         `mapstructure:"metrics_addr"`
	Log          logging.Config `mapstructure:"log"`
}

// flagKeys maps persistent flag names to config keys
var flagKeys = map[string]string{
	"port":          "port",
	"baud":          "baud",
	"url":           "url",
	"username":      "username",
	"no-ssl-verify": "no_ssl_verify",
	"timeout":       "timeout",
	"poll-interval": "poll_interval",
	"clear-on-open": "clear_on_open",
	"metrics-addr":  "metrics_addr",
	"log-level":     "log.level",
	"log-format":    "log.format",
	"log-file":      "log.file",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("baud", 115200)
	v.SetDefault("timeout", tower.DefaultTimeoutMs*time.Millisecond)
	v.SetDefault("poll_interval", tower.DefaultPollIntervalMs*time.Millisecond)
	v.SetDefault("clear_on_open", false)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", false)
}

// LoadConfig merges defaults, the config file, PHAROS_* environment
// variables and the flags of cmd.
func LoadConfig(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		path = os.Getenv(envPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("pharos")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "pharos"))
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// ClientOptions converts the exchange settings to tower client options
func (c *Config) ClientOptions() []tower.Option {
	return []tower.Option{
		tower.WithTimeout(c.Timeout),
		tower.WithPollInterval(c.PollInterval),
	}
}

var configShowCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration after merging defaults, the config file,
PHAROS_* environment variables and command-line flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := appConfig
		fmt.Printf("port:          %s\n", c.Port)
		fmt.Printf("baud:          %d\n", c.Baud)
		fmt.Printf("url:           %s\n", c.URL)
		fmt.Printf("username:      %s\n", c.Username)
		fmt.Printf("no_ssl_verify: %t\n", c.NoSSLVerify)
		fmt.Printf("timeout:       %s\n", c.Timeout)
		fmt.Printf("poll_interval: %s\n", c.PollInterval)
		fmt.Printf("clear_on_open: %t\n", c.ClearOnOpen)
		fmt.Printf("metrics_addr:  %s\n", c.MetricsAddr)
		fmt.Printf("log.level:     %s\n", c.Log.Level)
		fmt.Printf("log.format:    %s\n", c.Log.Format)
		fmt.Printf("log.file:      %s\n", c.Log.File)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configShowCmd)
}
