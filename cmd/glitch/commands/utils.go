/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils.go
Description: Shared utilities for the Glitch CLI commands. Provides common
configuration loading, logging setup, and SDK client construction used across
all command implementations.
*/

package commands

import (
	"fmt"

	"github.com/glitchgremlin/glitch-sdk/pkg/chain"
	"github.com/glitchgremlin/glitch-sdk/pkg/interfaces"
	"github.com/glitchgremlin/glitch-sdk/pkg/sdk"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// LoadConfig loads configuration from files and environment
func LoadConfig() error {
	// Set config file if specified
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Set environment variable prefix
	viper.SetEnvPrefix("GLITCH")
	viper.AutomaticEnv()

	return nil
}

// SetupLogging configures the logging system
func SetupLogging() error {
	logLevel := viper.GetString("log_level")
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	logrus.SetLevel(level)
	if viper.GetBool("json_logs") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return nil
}

// loadSigner builds the transaction signer from configuration. A configured
// hex keypair is used when present; otherwise a throwaway keypair is
// generated for dry runs.
func loadSigner() (interfaces.Signer, error) {
	if keyHex := viper.GetString("keypair"); keyHex != "" {
		return chain.KeypairFromHex(keyHex)
	}
	logrus.Warn("No keypair configured, generating a throwaway identity")
	return chain.GenerateKeypair()
}

// parseAddress parses a required hex address from configuration or arguments
func parseAddress(value, name string) (interfaces.Address, error) {
	if value == "" {
		return interfaces.Address{}, fmt.Errorf("%s must be set", name)
	}
	addr, err := interfaces.AddressFromString(value)
	if err != nil {
		return interfaces.Address{}, fmt.Errorf("invalid %s: %w", name, err)
	}
	return addr, nil
}

// newSDKClient wires an SDK client from the global configuration
func newSDKClient() (*sdk.SDK, error) {
	if err := LoadConfig(); err != nil {
		return nil, err
	}
	if err := SetupLogging(); err != nil {
		return nil, err
	}

	config := sdk.DefaultConfig(viper.GetString("endpoint"))
	config.RedisAddr = viper.GetString("redis_addr")
	config.RedisPassword = viper.GetString("redis_password")
	config.RedisDB = viper.GetInt("redis_db")

	var err error
	if config.GovernanceProgram, err = parseAddress(viper.GetString("governance_program"), "governance program"); err != nil {
		return nil, err
	}
	if raw := viper.GetString("chaos_program"); raw != "" {
		if config.ChaosProgram, err = parseAddress(raw, "chaos program"); err != nil {
			return nil, err
		}
	}
	if raw := viper.GetString("delegation_program"); raw != "" {
		if config.DelegationProgram, err = parseAddress(raw, "delegation program"); err != nil {
			return nil, err
		}
	}

	signer, err := loadSigner()
	if err != nil {
		return nil, err
	}

	return sdk.New(config, signer, logrus.StandardLogger())
}
