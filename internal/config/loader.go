package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Flags carries the values given on the command line. Empty strings mean
// "not given".
type Flags struct {
	PostingKey   string
	AccountsPath string
	Debug        bool
	DryRun       bool
	Gateway      string
	Output       string
	MetricsFile  string
}

// Sources describes where Resolve may look.
type Sources struct {
	Flags Flags

	// WorkDir is searched for DefaultAccountsFile. Empty means the process
	// working directory.
	WorkDir string
}

// Resolve builds a Config by layering, per value (low -> high):
//  1. defaults (New())
//  2. YAML file: --accounts path, else accounts.yaml in WorkDir if present
//  3. env: POSTING_KEY only, ignored when empty
//  4. CLI flags
//
// A missing posting key is not an error here; the authority layer decides
// whether the run mode needs one.
func Resolve(_ context.Context, src Sources) (*Config, error) {
	base := New()
	k := koanf.New(".")

	path, err := accountsPath(src)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: load %s: %v", ErrConfig, path, err)
		}
	}

	credSource := ""
	if k.String("posting_key") != "" {
		credSource = SourceYAML
	}

	// POSTING_KEY -> posting_key; every other variable is ignored.
	ek := koanf.New(".")
	envProvider := env.Provider(EnvPostingKey, ".", func(s string) string {
		if s == EnvPostingKey {
			return "posting_key"
		}
		return ""
	})
	if err := ek.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: read environment: %v", ErrConfig, err)
	}
	if ek.String("posting_key") != "" {
		if err := k.Merge(ek); err != nil {
			return nil, fmt.Errorf("%w: merge environment: %v", ErrConfig, err)
		}
		credSource = SourceEnv
	}

	f := src.Flags
	if f.PostingKey != "" {
		if err := k.Set("posting_key", f.PostingKey); err != nil {
			return nil, fmt.Errorf("%w: apply --posting-key: %v", ErrConfig, err)
		}
		credSource = SourceFlag
	}
	if f.Debug {
		if err := k.Set("log_level", "debug"); err != nil {
			return nil, fmt.Errorf("%w: apply --debug: %v", ErrConfig, err)
		}
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrConfig, path, err)
	}

	cfg.AccountsFile = path
	cfg.CredentialSource = credSource
	cfg.DryRun = f.DryRun
	if f.Gateway != "" {
		cfg.Gateway = strings.ToLower(f.Gateway)
	}
	if f.Output != "" {
		cfg.Output = strings.ToLower(f.Output)
	}
	cfg.MetricsFile = f.MetricsFile
	if len(cfg.Nodes) == 0 {
		cfg.Nodes = append([]string(nil), DefaultNodes...)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// accountsPath picks the YAML file to load. An explicit path is always
// returned (a missing file then fails in the loader); the default file is
// only used when it exists.
func accountsPath(src Sources) (string, error) {
	if p := strings.TrimSpace(src.Flags.AccountsPath); p != "" {
		return p, nil
	}
	candidate := DefaultAccountsFile
	if src.WorkDir != "" {
		candidate = filepath.Join(src.WorkDir, DefaultAccountsFile)
	}
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: stat %s: %v", ErrConfig, candidate, err)
	}
	return "", nil
}

func validate(cfg *Config) error {
	if len(cfg.Accounts) == 0 {
		if cfg.AccountsFile == "" {
			return fmt.Errorf("%w: no account list found; provide --accounts or create %s in the current directory", ErrConfig, DefaultAccountsFile)
		}
		return fmt.Errorf("%w: %s has no accounts", ErrConfig, cfg.AccountsFile)
	}
	switch cfg.Gateway {
	case GatewayHive, GatewaySCOT:
	default:
		return fmt.Errorf("%w: unknown gateway %q (want %s or %s)", ErrConfig, cfg.Gateway, GatewayHive, GatewaySCOT)
	}
	switch cfg.Output {
	case OutputText, OutputJSON:
	default:
		return fmt.Errorf("%w: unknown output %q (want %s or %s)", ErrConfig, cfg.Output, OutputText, OutputJSON)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request_timeout must be positive", ErrConfig)
	}
	if cfg.MaxRetries < 0 {
		return fmt.Errorf("%w: max_retries must not be negative", ErrConfig)
	}
	if cfg.TxExpiration <= 0 || cfg.TxExpiration > MaxTxExpiration {
		return fmt.Errorf("%w: tx_expiration must be within (0, %s]", ErrConfig, MaxTxExpiration)
	}
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	switch cfg.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("%w: unknown log_format %q (want %s or %s)", ErrConfig, cfg.LogFormat, LogFormatText, LogFormatJSON)
	}
	return nil
}
