// Package config resolves the claimer's configuration from CLI flags, the
// environment and an accounts YAML file.
//
// Conventions:
//   - Precedence is fixed per value: CLI flag, then environment, then YAML.
//   - Only the posting key may come from the environment (POSTING_KEY).
//   - Every failure is wrapped with ErrConfig.
package config

import (
	"log/slog"
	"time"

	"github.com/okian/hiveclaim/internal/domain/model"
)

// Gateway names accepted by --gateway.
const (
	GatewayHive = "hive"
	GatewaySCOT = "scot"
)

// Report formats accepted by --output.
const (
	OutputText = "text"
	OutputJSON = "json"
)

// Log formats accepted by log_format.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Credential sources, reported for logging.
const (
	SourceFlag = "flag"
	SourceEnv  = "env"
	SourceYAML = "yaml"
)

const (
	// EnvPostingKey is the only environment variable the resolver reads.
	EnvPostingKey = "POSTING_KEY"

	// DefaultAccountsFile is looked up in the working directory when no
	// --accounts path is given.
	DefaultAccountsFile = "accounts.yaml"

	DefaultSCOTAPIURL     = "https://scot-api.hive-engine.com"
	DefaultRequestTimeout = 10 * time.Second
	DefaultMaxRetries     = 3
	DefaultTxExpiration   = 60 * time.Second

	// MaxTxExpiration is the longest expiration a Hive node accepts.
	MaxTxExpiration = time.Hour
)

// DefaultNodes are public Hive API nodes tried in order.
var DefaultNodes = []string{
	"https://api.hive.blog",
	"https://api.deathwing.me",
	"https://anyx.io",
}

// Config contains the resolved configuration for one run.
type Config struct {
	// Accounts is the ordered account list; the first entry is the authority.
	Accounts []string `koanf:"accounts"`

	// PostingKey is the authority's posting key. May be empty at this stage.
	PostingKey model.Credential `koanf:"posting_key"`

	// Nodes are Hive JSON-RPC endpoints, tried in order on transport errors.
	Nodes []string `koanf:"nodes"`

	// SignerURL is the signing sidecar used for live submissions.
	SignerURL string `koanf:"signer_url"`

	// SCOTAPIURL is the Hive-Engine SCOT rewards API.
	SCOTAPIURL string `koanf:"scot_api_url"`

	RequestTimeout time.Duration `koanf:"request_timeout"`
	MaxRetries     int           `koanf:"max_retries"`

	// TxExpiration is how long past the head block a claim stays valid.
	TxExpiration time.Duration `koanf:"tx_expiration"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the stderr log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Flag-only settings.
	DryRun      bool   `koanf:"-"`
	Gateway     string `koanf:"-"`
	Output      string `koanf:"-"`
	MetricsFile string `koanf:"-"`

	// AccountsFile is the YAML file that was loaded, if any.
	AccountsFile string `koanf:"-"`

	// CredentialSource tells which layer supplied PostingKey.
	CredentialSource string `koanf:"-"`
}

// New returns a Config with defaults applied.
func New() *Config {
	return &Config{
		SCOTAPIURL:     DefaultSCOTAPIURL,
		RequestTimeout: DefaultRequestTimeout,
		MaxRetries:     DefaultMaxRetries,
		TxExpiration:   DefaultTxExpiration,
		LogLevel:       "info",
		LogFormat:      LogFormatText,
		Gateway:        GatewayHive,
		Output:         OutputText,
	}
}

// LogValue implements slog.LogValuer; the posting key is never included.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("accounts", len(c.Accounts)),
		slog.String("accounts_file", c.AccountsFile),
		slog.Bool("posting_key_set", !c.PostingKey.IsEmpty()),
		slog.String("posting_key_source", c.CredentialSource),
		slog.Any("nodes", c.Nodes),
		slog.String("signer_url", c.SignerURL),
		slog.String("gateway", c.Gateway),
		slog.Bool("dry_run", c.DryRun),
		slog.Duration("request_timeout", c.RequestTimeout),
		slog.Int("max_retries", c.MaxRetries),
		slog.Duration("tx_expiration", c.TxExpiration),
	)
}
