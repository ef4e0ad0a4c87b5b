// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/research-agent/pkg/types"
)

// Key file names understood by Apply.
const (
	KeyAnthropic       = "anthropic-api-key"
	KeySemanticScholar = "semantic-scholar-api-key"
	KeyOpenAlexEmail   = "openalex-email"
	KeyQdrant          = "qdrant-api-key"
	KeyPostgresDSN     = "postgres-dsn"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory is not an error; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string, logger *zap.Logger) (map[string]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret", zap.String("key", name), zap.Error(err))
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply copies known secrets into cfg. Values already set in cfg (from the
// config file or environment) win. A postgres-dsn secret fills the DSN when
// the postgres driver is selected without one.
func Apply(cfg *types.Config, s map[string]string) {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = s[key]
		}
	}
	fill(&cfg.Search.SemanticScholarAPIKey, KeySemanticScholar)
	fill(&cfg.Search.OpenAlexEmail, KeyOpenAlexEmail)
	fill(&cfg.VectorStore.APIKey, KeyQdrant)
	if cfg.LLM.Provider == "claude" {
		fill(&cfg.LLM.APIKey, KeyAnthropic)
	}
	if dsn := s[KeyPostgresDSN]; dsn != "" && cfg.Metadata.Driver == "postgres" && cfg.Metadata.DSN == "" {
		cfg.Metadata.DSN = dsn
	}
}
