package hive

import (
	"encoding/json"
	"fmt"
)

// Asset symbols and precisions of the native Hive assets.
const (
	SymbolHive  = "HIVE"
	SymbolHBD   = "HBD"
	SymbolVests = "VESTS"

	PrecisionHive  int32 = 3
	PrecisionHBD   int32 = 3
	PrecisionVests int32 = 6
)

// ChainID is the Hive mainnet chain id, used when signing.
const ChainID = "beeab0de00000000000000000000000000000000000000000000000000000000"

// Account holds the fields of condenser_api.get_accounts used for claiming.
type Account struct {
	Name                 string `json:"name"`
	RewardHiveBalance    string `json:"reward_hive_balance"`
	RewardHBDBalance     string `json:"reward_hbd_balance"`
	RewardVestingBalance string `json:"reward_vesting_balance"`
}

// DynamicGlobalProperties holds the head block fields needed for TaPoS.
type DynamicGlobalProperties struct {
	HeadBlockNumber uint32 `json:"head_block_number"`
	HeadBlockID     string `json:"head_block_id"`
	Time            string `json:"time"`
}

// BroadcastResult is returned by broadcast_transaction_synchronous.
type BroadcastResult struct {
	ID       string `json:"id"`
	BlockNum int64  `json:"block_num"`
	TrxNum   int64  `json:"trx_num"`
	Expired  bool   `json:"expired"`
}

// Operation is a condenser_api operation, encoded as ["name", {...}].
type Operation struct {
	Type  string
	Value any
}

// MarshalJSON encodes the operation as a two-element array.
func (o Operation) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{o.Type, o.Value})
}

// UnmarshalJSON decodes a two-element array, keeping the body raw.
func (o *Operation) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("operation: want 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &o.Type); err != nil {
		return err
	}
	o.Value = pair[1]
	return nil
}

// ClaimRewardBalance is the body of a claim_reward_balance operation.
type ClaimRewardBalance struct {
	Account     string `json:"account"`
	RewardHive  string `json:"reward_hive"`
	RewardHBD   string `json:"reward_hbd"`
	RewardVests string `json:"reward_vests"`
}

// CustomJSON is the body of a custom_json operation.
type CustomJSON struct {
	RequiredAuths        []string `json:"required_auths"`
	RequiredPostingAuths []string `json:"required_posting_auths"`
	ID                   string   `json:"id"`
	JSON                 string   `json:"json"`
}

// Transaction is an unsigned or signed condenser_api transaction.
type Transaction struct {
	RefBlockNum    uint16            `json:"ref_block_num"`
	RefBlockPrefix uint32            `json:"ref_block_prefix"`
	Expiration     string            `json:"expiration"`
	Operations     []Operation       `json:"operations"`
	Extensions     []json.RawMessage `json:"extensions"`
	Signatures     []string          `json:"signatures"`
}
