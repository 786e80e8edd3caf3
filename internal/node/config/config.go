package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	viper "github.com/spf13/viper"

	"github.com/05nelsonm/zap-desktop/internal/node/constants"
)

func loadEnv() error {
	err := viper.BindEnv("zap_path", "ZAP_PATH")
	if err != nil {
		return err
	}
	viper.SetDefault("zap_path", "$HOME/.zap")

	err = viper.BindEnv("lnd_bin", "ZAP_LND_BIN")
	if err != nil {
		return err
	}
	viper.SetDefault("lnd_bin", constants.LndBinaryName)

	err = viper.BindEnv("api_port", "ZAP_API_PORT")
	if err != nil {
		return err
	}
	viper.SetDefault("api_port", constants.DefaultPortZapAPI)

	viper.SetDefault("network", constants.DefaultNetwork)
	return nil
}

func loadConfig() (*Config, error) {
	viper.AddConfigPath("$HOME/.zap")
	viper.AddConfigPath(viper.GetString("zap_path"))

	viper.SetConfigType("yml")
	viper.SetConfigName("zap")

	if err := viper.ReadInConfig(); err != nil {
		// A config file is optional; env vars and defaults are enough.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return nil, err
	}

	log.Debug().Msgf("Loaded zap config: %+v", config)

	return &config, nil
}

// NewConfig loads daemon-level configuration from env vars and an optional
// zap.yml file, and makes sure the zap directory exists.
func NewConfig() (*Config, error) {
	err := loadEnv()
	if err != nil {
		return nil, err
	}

	config, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(os.ExpandEnv(config.ZapPath()), 0o700); err != nil {
		return nil, fmt.Errorf("unable to create zap directory: %w", err)
	}

	return config, nil
}

// Config is the daemon-level configuration: where state lives, which lnd
// binary to spawn, and where the renderer reaches us. Per-session connection
// settings live in NodeConfig instead.
type Config struct{}

func (c *Config) ZapPath() string {
	return os.ExpandEnv(viper.GetString("zap_path"))
}

func (c *Config) LndBin() string {
	return viper.GetString("lnd_bin")
}

func (c *Config) APIPort() string {
	return viper.GetString("api_port")
}

func (c *Config) Network() string {
	return viper.GetString("network")
}

func (c *Config) LndDir() string {
	return filepath.Join(c.ZapPath(), "lnd")
}

func (c *Config) StorePath() string {
	return filepath.Join(c.ZapPath(), "zap.db")
}

func (c *Config) TLSCertPath() string {
	return filepath.Join(c.LndDir(), "tls.cert")
}

func (c *Config) AdminMacaroonPath(network string) string {
	return filepath.Join(c.LndDir(), "data", "chain", "bitcoin", network, "admin.macaroon")
}
