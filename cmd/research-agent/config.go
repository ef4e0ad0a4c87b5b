// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-agent/pkg/types"
)

const envPrefix = "RESEARCH_AGENT"

// omittedKeys are dropped from the encoded defaults by omitempty and need
// registering separately to be settable from the environment.
var omittedKeys = []string{
	"search.semantic_scholar_api_key",
	"search.openalex_email",
	"llm.api_key",
	"llm.base_url",
	"vector_store.api_key",
}

// loadConfig layers the defaults, the config file and RESEARCH_AGENT_*
// environment variables, in that order.
func loadConfig() (types.Config, error) {
	v := viper.GetViper()
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	return readConfig(v, cfgFile)
}

func readConfig(v *viper.Viper, cfgFile string) (types.Config, error) {
	v.SetConfigType("yaml")

	// Seeding every key from the defaults lets AutomaticEnv see nested keys
	// during Unmarshal.
	defaults, err := yaml.Marshal(types.DefaultConfig())
	if err != nil {
		return types.Config{}, fmt.Errorf("encoding default config: %w", err)
	}
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return types.Config{}, fmt.Errorf("loading default config: %w", err)
	}
	for _, key := range omittedKeys {
		v.SetDefault(key, "")
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("research-agent")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "research-agent"))
		}
	}
	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return types.Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}
