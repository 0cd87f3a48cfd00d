package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/viant/scy/cred/secret"
	"gopkg.in/yaml.v3"
)

// Config is the process-level configuration loaded once at startup.
type Config struct {
	// Model is a URL or path to the regression artifact; empty selects the
	// built-in defaults.
	Model     string          `yaml:"model"`
	Dataset   string          `yaml:"dataset"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Gazetteer string          `yaml:"gazetteer"`
	Extractor ExtractorConfig `yaml:"extractor"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
}

// CorpusConfig locates the reference corpus store.
type CorpusConfig struct {
	DSN    string `yaml:"dsn"`
	Secret string `yaml:"secret,omitempty"`
	// Snapshot is an optional URL a built corpus is also exported to.
	Snapshot string `yaml:"snapshot,omitempty"`
}

// UpstreamConfig defines an external SQL source of reference itineraries.
type UpstreamConfig struct {
	Driver  string `yaml:"driver"`
	DSN     string `yaml:"dsn"`
	Secret  string `yaml:"secret,omitempty"`
	Query   string `yaml:"query"`
	Batch   int    `yaml:"batch"`
	Workers int    `yaml:"workers"`
}

// ExtractorConfig holds extraction tunables.
type ExtractorConfig struct {
	MinCharsPerPage int    `yaml:"minCharsPerPage"`
	MaxOCRPages     int    `yaml:"maxOCRPages"`
	Pdftoppm        string `yaml:"pdftoppm"`
	Tesseract       string `yaml:"tesseract"`
	Lang            string `yaml:"lang"`
	DPI             int    `yaml:"dpi"`
}

// EmbedderConfig selects the embedding backend.
type EmbedderConfig struct {
	// Provider is "simple" (deterministic, default) or "ollama".
	Provider string `yaml:"provider"`
	Dim      int    `yaml:"dim"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"baseURL"`
}

// PipelineConfig bounds per-run behavior.
type PipelineConfig struct {
	TopK                int `yaml:"topK"`
	StageTimeoutSeconds int `yaml:"stageTimeoutSeconds"`
	Workers             int `yaml:"workers"`
}

// LoadConfig reads, expands and validates a YAML config file. DSNs with a
// secret reference are expanded through the secret store; user paths ("~/")
// are resolved for the corpus, gazetteer and model locations.
func LoadConfig(path string) (*Config, error) {
	path, err := expandUserPath(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	if cfg.Dataset == "" {
		cfg.Dataset = "default"
	}
	for _, target := range []*string{&cfg.Model, &cfg.Gazetteer, &cfg.Corpus.DSN, &cfg.Corpus.Snapshot} {
		if *target == "" {
			continue
		}
		expanded, err := expandUserPath(*target)
		if err != nil {
			return nil, err
		}
		*target = expanded
	}
	if cfg.Corpus.Secret != "" {
		expanded, err := ExpandDSNWithSecret(context.Background(), cfg.Corpus.DSN, cfg.Corpus.Secret)
		if err != nil {
			return nil, err
		}
		cfg.Corpus.DSN = expanded
	}
	if cfg.Upstream.Secret != "" {
		expanded, err := ExpandDSNWithSecret(context.Background(), cfg.Upstream.DSN, cfg.Upstream.Secret)
		if err != nil {
			return nil, err
		}
		cfg.Upstream.DSN = expanded
	}
	return &cfg, nil
}

// ExpandDSNWithSecret loads a secret and expands placeholders in the DSN.
func ExpandDSNWithSecret(ctx context.Context, dsn, secretRef string) (string, error) {
	secretRef = strings.TrimSpace(secretRef)
	if secretRef == "" {
		return dsn, nil
	}
	if strings.TrimSpace(dsn) == "" {
		return "", fmt.Errorf("secret %q provided but dsn is empty", secretRef)
	}
	svc := secret.New()
	sec, err := svc.Lookup(ctx, secret.Resource(secretRef))
	if err != nil {
		return "", err
	}
	return sec.Expand(dsn), nil
}

func expandUserPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if trimmed == "~" {
		return home, nil
	}
	if !strings.HasPrefix(trimmed, "~/") {
		return "", fmt.Errorf("config: unsupported ~user path: %s", path)
	}
	return filepath.Join(home, trimmed[2:]), nil
}
