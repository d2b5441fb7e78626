package model

import (
	"fmt"
	"time"
)

// OutcomeKind is the terminal state of one account in a run.
type OutcomeKind int

const (
	Claimed OutcomeKind = iota + 1
	NothingToClaim
	Failed
	Simulated
)

func (k OutcomeKind) String() string {
	switch k {
	case Claimed:
		return "claimed"
	case NothingToClaim:
		return "nothing_to_claim"
	case Failed:
		return "failed"
	case Simulated:
		return "simulated"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// MarshalText renders the kind by name.
func (k OutcomeKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// ErrorKind classifies a per-account failure.
type ErrorKind string

const (
	QueryError  ErrorKind = "query_error"
	SubmitError ErrorKind = "submit_error"
)

// Receipt identifies a broadcast claim.
type Receipt struct {
	TxID     string `json:"tx_id"`
	BlockNum int64  `json:"block_num"`
}

// Outcome is the result of processing one account. Values are built through
// the constructors below and passed by value.
type Outcome struct {
	Account string      `json:"account"`
	Kind    OutcomeKind `json:"kind"`
	Amounts Balance     `json:"-"`
	ErrKind ErrorKind   `json:"error_kind,omitempty"`
	Message string      `json:"message,omitempty"`
	Receipt *Receipt    `json:"receipt,omitempty"`
}

// ClaimedOutcome records a successful submission.
func ClaimedOutcome(account string, amounts Balance, receipt Receipt) Outcome {
	return Outcome{Account: account, Kind: Claimed, Amounts: amounts.Clone(), Receipt: &receipt}
}

// NothingToClaimOutcome records an all-zero balance.
func NothingToClaimOutcome(account string) Outcome {
	return Outcome{Account: account, Kind: NothingToClaim}
}

// SimulatedOutcome records what a dry run would have claimed.
func SimulatedOutcome(account string, amounts Balance) Outcome {
	return Outcome{Account: account, Kind: Simulated, Amounts: amounts.Clone()}
}

// FailedOutcome records a query or submit failure.
func FailedOutcome(account string, kind ErrorKind, err error) Outcome {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return Outcome{Account: account, Kind: Failed, ErrKind: kind, Message: msg}
}

// RunReport is the ordered list of outcomes for one run.
type RunReport struct {
	RunID      string    `json:"run_id"`
	Authority  string    `json:"authority"`
	Gateway    string    `json:"gateway,omitempty"`
	DryRun     bool      `json:"dry_run"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Outcomes   []Outcome `json:"outcomes"`
}

// Summary counts outcomes per kind.
type Summary struct {
	Total          int `json:"total"`
	Claimed        int `json:"claimed"`
	Simulated      int `json:"simulated"`
	NothingToClaim int `json:"nothing_to_claim"`
	Failed         int `json:"failed"`
}

// Processed is the number of accounts that did not fail.
func (s Summary) Processed() int { return s.Total - s.Failed }

// Summary tallies the report.
func (r RunReport) Summary() Summary {
	s := Summary{Total: len(r.Outcomes)}
	for _, o := range r.Outcomes {
		switch o.Kind {
		case Claimed:
			s.Claimed++
		case Simulated:
			s.Simulated++
		case NothingToClaim:
			s.NothingToClaim++
		case Failed:
			s.Failed++
		}
	}
	return s
}
