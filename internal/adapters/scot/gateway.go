package scot

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/okian/hiveclaim/internal/adapters/hive"
	"github.com/okian/hiveclaim/internal/domain/model"
)

// GatewayName identifies the SCOT token gateway.
const GatewayName = "scot"

// ClaimOperationID is the custom_json id understood by the SCOT sidechain.
const ClaimOperationID = "scot_claim_token"

// Gateway claims pending SCOT token rewards.
type Gateway struct {
	client    *Client
	submitter *hive.Submitter
}

// NewGateway creates a gateway reading rewards from client and broadcasting
// claims through submitter.
func NewGateway(client *Client, submitter *hive.Submitter) *Gateway {
	return &Gateway{client: client, submitter: submitter}
}

// ClaimableBalance returns one component per token with pending rewards.
func (g *Gateway) ClaimableBalance(ctx context.Context, account string) (model.Balance, error) {
	rewards, err := g.client.PendingRewards(ctx, account)
	if err != nil {
		return nil, err
	}
	balance := make(model.Balance, 0, len(rewards))
	for _, r := range rewards {
		balance = append(balance, model.Amount{Symbol: r.Symbol, Value: r.Pending, Precision: r.Precision})
	}
	return balance, nil
}

// SubmitClaim broadcasts a scot_claim_token operation for every non-zero
// token in balance, authorised on behalf of account.
func (g *Gateway) SubmitClaim(ctx context.Context, account string, balance model.Balance, key model.Credential) (model.Receipt, error) {
	op, err := ClaimTokenOp(account, balance)
	if err != nil {
		return model.Receipt{}, err
	}
	return g.submitter.Submit(ctx, key, op)
}

type claimEntry struct {
	Symbol string `json:"symbol"`
}

// ClaimTokenOp builds the custom_json claim for account.
func ClaimTokenOp(account string, balance model.Balance) (hive.Operation, error) {
	nonZero := balance.NonZero()
	if len(nonZero) == 0 {
		return hive.Operation{}, fmt.Errorf("no tokens to claim for %s", account)
	}
	entries := make([]claimEntry, 0, len(nonZero))
	for _, a := range nonZero {
		entries = append(entries, claimEntry{Symbol: a.Symbol})
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		return hive.Operation{}, fmt.Errorf("marshal claim payload: %w", err)
	}
	return hive.Operation{
		Type: "custom_json",
		Value: hive.CustomJSON{
			RequiredAuths:        []string{},
			RequiredPostingAuths: []string{account},
			ID:                   ClaimOperationID,
			JSON:                 string(payload),
		},
	}, nil
}
