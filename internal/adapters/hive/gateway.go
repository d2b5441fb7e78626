package hive

import (
	"context"
	"fmt"

	"github.com/okian/hiveclaim/internal/domain/model"
)

// GatewayName identifies the native reward gateway.
const GatewayName = "hive"

// Gateway claims native HIVE, HBD and VESTS author/curation rewards.
type Gateway struct {
	client    *Client
	submitter *Submitter
}

// NewGateway creates a gateway reading balances from client and claiming
// through submitter.
func NewGateway(client *Client, submitter *Submitter) *Gateway {
	return &Gateway{client: client, submitter: submitter}
}

// ClaimableBalance returns the pending reward balance of account as
// HIVE, HBD and VESTS components.
func (g *Gateway) ClaimableBalance(ctx context.Context, account string) (model.Balance, error) {
	accounts, err := g.client.GetAccounts(ctx, account)
	if err != nil {
		return nil, err
	}
	var acc *Account
	for i := range accounts {
		if accounts[i].Name == account {
			acc = &accounts[i]
			break
		}
	}
	if acc == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, account)
	}

	balance := make(model.Balance, 0, 3)
	for _, raw := range []string{acc.RewardHiveBalance, acc.RewardHBDBalance, acc.RewardVestingBalance} {
		amount, err := ParseAsset(raw)
		if err != nil {
			return nil, err
		}
		balance = append(balance, amount)
	}
	return balance, nil
}

// SubmitClaim broadcasts a claim_reward_balance operation for the exact
// amounts in balance.
func (g *Gateway) SubmitClaim(ctx context.Context, account string, balance model.Balance, key model.Credential) (model.Receipt, error) {
	return g.submitter.Submit(ctx, key, ClaimRewardBalanceOp(account, balance))
}

// ClaimRewardBalanceOp builds the claim operation for account. Missing
// components are claimed as zero.
func ClaimRewardBalanceOp(account string, balance model.Balance) Operation {
	return Operation{
		Type: "claim_reward_balance",
		Value: ClaimRewardBalance{
			Account:     account,
			RewardHive:  assetOrZero(balance, SymbolHive, PrecisionHive),
			RewardHBD:   assetOrZero(balance, SymbolHBD, PrecisionHBD),
			RewardVests: assetOrZero(balance, SymbolVests, PrecisionVests),
		},
	}
}
