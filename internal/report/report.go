// Package report renders a claim run for humans or machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/okian/hiveclaim/internal/domain/model"
)

// Format names accepted by Write.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Write renders r in the named format.
func Write(w io.Writer, format string, r model.RunReport) error {
	switch format {
	case FormatText, "":
		return Text(w, r)
	case FormatJSON:
		return JSON(w, r)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// Text writes one aligned line per account followed by a summary line.
func Text(w io.Writer, r model.RunReport) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	mode := "live"
	if r.DryRun {
		mode = "dry-run"
	}
	fmt.Fprintf(tw, "run %s (%s, authority @%s)\n", r.RunID, mode, r.Authority)
	for _, o := range r.Outcomes {
		fmt.Fprintf(tw, "@%s\t%s\t%s\n", o.Account, o.Kind, detail(o))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := r.Summary()
	_, err := fmt.Fprintf(w, "processed %d of %d accounts (claimed %d, simulated %d, nothing to claim %d, failed %d)\n",
		s.Processed(), s.Total, s.Claimed, s.Simulated, s.NothingToClaim, s.Failed)
	return err
}

func detail(o model.Outcome) string {
	switch o.Kind {
	case model.Claimed:
		if o.Receipt != nil && o.Receipt.TxID != "" {
			return fmt.Sprintf("%s\ttx %s", o.Amounts, o.Receipt.TxID)
		}
		return o.Amounts.String()
	case model.Simulated:
		return o.Amounts.String()
	case model.Failed:
		return fmt.Sprintf("%s: %s", o.ErrKind, o.Message)
	default:
		return "-"
	}
}

type jsonAmount struct {
	Symbol string `json:"symbol"`
	Amount string `json:"amount"`
}

type jsonOutcome struct {
	model.Outcome
	Amounts []jsonAmount `json:"amounts,omitempty"`
}

type jsonReport struct {
	RunID      string        `json:"run_id"`
	Authority  string        `json:"authority"`
	Gateway    string        `json:"gateway,omitempty"`
	DryRun     bool          `json:"dry_run"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Outcomes   []jsonOutcome `json:"outcomes"`
	Summary    model.Summary `json:"summary"`
}

// JSON writes r as an indented JSON document with a summary block.
func JSON(w io.Writer, r model.RunReport) error {
	doc := jsonReport{
		RunID:      r.RunID,
		Authority:  r.Authority,
		Gateway:    r.Gateway,
		DryRun:     r.DryRun,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Outcomes:   make([]jsonOutcome, 0, len(r.Outcomes)),
		Summary:    r.Summary(),
	}
	for _, o := range r.Outcomes {
		jo := jsonOutcome{Outcome: o}
		for _, a := range o.Amounts {
			jo.Amounts = append(jo.Amounts, jsonAmount{Symbol: a.Symbol, Amount: a.Value.StringFixed(a.Precision)})
		}
		doc.Outcomes = append(doc.Outcomes, jo)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
