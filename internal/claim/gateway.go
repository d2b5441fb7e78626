package claim

import (
	"context"
	"time"

	"github.com/okian/hiveclaim/internal/domain/model"
)

// Gateway is the chain-facing side of a claim run.
type Gateway interface {
	// ClaimableBalance returns the pending reward balance of account.
	ClaimableBalance(ctx context.Context, account string) (model.Balance, error)
	// SubmitClaim claims balance for account, authorised by key.
	SubmitClaim(ctx context.Context, account string, balance model.Balance, key model.Credential) (model.Receipt, error)
}

// Recorder receives run metrics. *metrics.Manager satisfies it.
type Recorder interface {
	RecordOutcome(gateway, outcome string)
	RecordFailure(gateway, errorKind string)
	ObserveGatewayCall(gateway, operation string, d time.Duration, err error)
	RecordDuplicates(n int)
	RecordRun(accounts int, finished time.Time, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordOutcome(string, string) {}
func (nopRecorder) RecordFailure(string, string) {}
func (nopRecorder) ObserveGatewayCall(string, string, time.Duration, error) {}
func (nopRecorder) RecordDuplicates(int) {}
func (nopRecorder) RecordRun(int, time.Time, time.Duration) {}
