// Package claim drives one claim run: every account of an authority context is
// queried and, when it holds rewards, claimed through a Gateway.
package claim

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/hiveclaim/internal/authority"
	"github.com/okian/hiveclaim/internal/domain/model"
	"github.com/okian/hiveclaim/pkg/logger"
)

const (
	opQuery  = "query"
	opSubmit = "submit"
)

// Orchestrator processes accounts sequentially, in list order.
type Orchestrator struct {
	gateway     Gateway
	gatewayName string
	logger      logger.Logger
	recorder    Recorder
	now         func() time.Time
	newRunID    func() string
}

// Option applies a configuration option to the Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithGatewayName labels reports and metrics with the gateway in use.
func WithGatewayName(name string) Option {
	return func(o *Orchestrator) {
		o.gatewayName = name
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// New creates an orchestrator for gateway.
func New(gateway Gateway, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gateway:  gateway,
		logger:   logger.Nop(),
		recorder: nopRecorder{},
		now:      time.Now,
		newRunID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run processes every account of ac and returns one outcome per account, in
// order. Per-account failures are recorded in the report; the error return is
// reserved for a run that could not start.
func (o *Orchestrator) Run(ctx context.Context, ac *authority.Context) (model.RunReport, error) {
	if o.gateway == nil {
		return model.RunReport{}, ErrNilGateway
	}
	if ac == nil {
		return model.RunReport{}, ErrNilAuthority
	}
	accounts := ac.Accounts()
	if len(accounts) == 0 {
		return model.RunReport{}, ErrNoAccounts
	}

	report := model.RunReport{
		RunID:     o.newRunID(),
		Authority: ac.AuthorityAccount(),
		Gateway:   o.gatewayName,
		DryRun:    ac.IsDryRun(),
		StartedAt: o.now(),
		Outcomes:  make([]model.Outcome, 0, len(accounts)),
	}
	log := o.logger.With(logger.String("run_id", report.RunID))

	if dups := ac.Duplicates(); len(dups) > 0 {
		for _, d := range dups {
			log.Warn(ctx, "duplicate account skipped", logger.String("account", d))
		}
		o.recorder.RecordDuplicates(len(dups))
	}

	log.Info(ctx, "claim run started",
		logger.String("authority", report.Authority),
		logger.Int("accounts", len(accounts)),
		logger.Bool("dry_run", report.DryRun),
		logger.String("gateway", o.gatewayName),
	)

	for _, account := range accounts {
		outcome := o.process(ctx, log, ac, account)
		o.recorder.RecordOutcome(o.gatewayName, outcome.Kind.String())
		report.Outcomes = append(report.Outcomes, outcome)
	}

	report.FinishedAt = o.now()
	elapsed := report.FinishedAt.Sub(report.StartedAt)
	o.recorder.RecordRun(len(accounts), report.FinishedAt, elapsed)

	s := report.Summary()
	log.Info(ctx, "claim run finished",
		logger.Int("processed", s.Processed()),
		logger.Int("total", s.Total),
		logger.Int("claimed", s.Claimed),
		logger.Int("simulated", s.Simulated),
		logger.Int("nothing_to_claim", s.NothingToClaim),
		logger.Int("failed", s.Failed),
		logger.Duration("elapsed", elapsed),
	)
	return report, nil
}

func (o *Orchestrator) process(ctx context.Context, log logger.Logger, ac *authority.Context, account string) model.Outcome {
	log = log.With(logger.String("account", account))
	log.Debug(ctx, "querying claimable balance")

	start := o.now()
	balance, err := o.gateway.ClaimableBalance(ctx, account)
	if err == nil {
		err = balance.Validate()
	}
	o.recorder.ObserveGatewayCall(o.gatewayName, opQuery, o.now().Sub(start), err)
	if err != nil {
		return o.fail(ctx, log, account, model.QueryError, fmt.Errorf("query balance: %w", err))
	}

	if balance.IsZero() {
		log.Info(ctx, "nothing to claim")
		return model.NothingToClaimOutcome(account)
	}

	if ac.IsDryRun() {
		log.Info(ctx, "would claim", logger.String("amounts", balance.String()))
		return model.SimulatedOutcome(account, balance)
	}

	log.Debug(ctx, "submitting claim", logger.String("amounts", balance.String()))
	start = o.now()
	receipt, err := o.gateway.SubmitClaim(ctx, account, balance, ac.Credential())
	o.recorder.ObserveGatewayCall(o.gatewayName, opSubmit, o.now().Sub(start), err)
	if err != nil {
		return o.fail(ctx, log, account, model.SubmitError, fmt.Errorf("submit claim: %w", err))
	}

	log.Info(ctx, "claimed",
		logger.String("amounts", balance.String()),
		logger.String("tx_id", receipt.TxID),
	)
	return model.ClaimedOutcome(account, balance, receipt)
}

func (o *Orchestrator) fail(ctx context.Context, log logger.Logger, account string, kind model.ErrorKind, err error) model.Outcome {
	log.Error(ctx, "account failed", logger.String("kind", string(kind)), logger.Error(err))
	o.recorder.RecordFailure(o.gatewayName, string(kind))
	return model.FailedOutcome(account, kind, err)
}
