package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okian/hiveclaim/internal/authority"
	"github.com/okian/hiveclaim/internal/claim"
	"github.com/okian/hiveclaim/internal/config"
	"github.com/okian/hiveclaim/internal/report"
	"github.com/okian/hiveclaim/pkg/logger"
	"github.com/okian/hiveclaim/pkg/metrics"
)

const sourcePrompt = "prompt"

type options struct {
	workDir    string
	newGateway GatewayFactory
	stdinFD    int
}

// Option customises the root command.
type Option func(*options)

// WithWorkDir sets the directory searched for accounts.yaml.
func WithWorkDir(dir string) Option {
	return func(o *options) {
		o.workDir = dir
	}
}

// WithGatewayFactory replaces the network-backed gateway.
func WithGatewayFactory(f GatewayFactory) Option {
	return func(o *options) {
		if f != nil {
			o.newGateway = f
		}
	}
}

// Execute runs the root command, cancelling on SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}

// NewRootCommand builds the claimer command.
func NewRootCommand(opts ...Option) *cobra.Command {
	o := &options{newGateway: newGateway, stdinFD: int(os.Stdin.Fd())}
	for _, opt := range opts {
		opt(o)
	}

	var (
		flags  config.Flags
		askKey bool
	)

	root := &cobra.Command{
		Use:   "claimer",
		Short: "Claim pending Hive rewards for a list of accounts under one posting authority",
		Long: "claimer checks every account in the list for pending rewards and claims them using\n" +
			"the posting authority of the first account. Use --dry-run to only report what\n" +
			"would be claimed.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, o, flags, askKey)
		},
	}

	f := root.Flags()
	f.StringVarP(&flags.PostingKey, "posting-key", "k", "", "posting key of the authority account (overrides POSTING_KEY and YAML)")
	f.StringVarP(&flags.AccountsPath, "accounts", "a", "", "accounts YAML file (default ./accounts.yaml)")
	f.BoolVarP(&flags.Debug, "debug", "d", false, "enable debug logging")
	f.BoolVar(&flags.DryRun, "dry-run", false, "report what would be claimed without broadcasting")
	f.StringVar(&flags.Gateway, "gateway", config.GatewayHive, "reward source: hive or scot")
	f.StringVar(&flags.Output, "output", config.OutputText, "report format: text or json")
	f.StringVar(&flags.MetricsFile, "metrics-file", "", "write Prometheus metrics to this file after the run")
	f.BoolVar(&askKey, "ask-key", false, "prompt for the posting key when none is configured")

	return root
}

func run(cmd *cobra.Command, o *options, flags config.Flags, askKey bool) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr())); err != nil {
		return err
	}
	log := logger.Get()

	cfg, err := config.Resolve(ctx, config.Sources{Flags: flags, WorkDir: o.workDir})
	if err != nil {
		log.Error(ctx, "configuration failed", logger.Error(err))
		return err
	}
	if cfg.LogFormat == config.LogFormatJSON {
		if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr()), logger.WithJSON(true)); err != nil {
			return err
		}
		log = logger.Get()
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if cfg.PostingKey.IsEmpty() && askKey {
		key, err := promptKey(cmd.ErrOrStderr(), o.stdinFD)
		if err != nil {
			return err
		}
		if !key.IsEmpty() {
			cfg.PostingKey = key
			cfg.CredentialSource = sourcePrompt
		}
	}
	log.Debug(ctx, "configuration resolved", logger.Any("config", cfg))

	ac, err := authority.Build(cfg.PostingKey, cfg.Accounts, cfg.DryRun)
	if err != nil {
		log.Error(ctx, "invalid authority", logger.Error(err))
		return err
	}

	gw, err := o.newGateway(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "gateway setup failed", logger.Error(err))
		return err
	}

	m := metrics.NewManager(metrics.WithConstLabels(map[string]string{"authority": ac.AuthorityAccount()}))
	orch := claim.New(gw,
		claim.WithLogger(log.Named("claim")),
		claim.WithRecorder(m),
		claim.WithGatewayName(cfg.Gateway),
	)

	rep, err := orch.Run(ctx, ac)
	if err != nil {
		log.Error(ctx, "claim run failed", logger.Error(err))
		return err
	}

	if err := report.Write(cmd.OutOrStdout(), cfg.Output, rep); err != nil {
		return err
	}

	if cfg.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Warn(ctx, "metrics not written", logger.String("path", cfg.MetricsFile), logger.Error(err))
		}
	}
	return nil
}
