package hive

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/okian/hiveclaim/internal/domain/model"
	"github.com/okian/hiveclaim/pkg/logger"
)

// TimeLayout is the timestamp format used by condenser_api.
const TimeLayout = "2006-01-02T15:04:05"

// DefaultExpiration is how far past the head block a transaction stays valid.
const DefaultExpiration = 60 * time.Second

// Signer attaches signatures to a transaction. Key material never leaves
// the signer other than through Sign.
type Signer interface {
	Sign(ctx context.Context, tx Transaction, key model.Credential) (Transaction, error)
}

// Submitter builds, signs and broadcasts transactions.
type Submitter struct {
	client     *Client
	signer     Signer
	expiration time.Duration
	logger     logger.Logger
}

// SubmitterOption configures Submitter.
type SubmitterOption func(*Submitter)

// WithExpiration sets the transaction expiration window.
func WithExpiration(d time.Duration) SubmitterOption {
	return func(s *Submitter) {
		if d > 0 {
			s.expiration = d
		}
	}
}

// WithSubmitterLogger sets the submitter logger.
func WithSubmitterLogger(l logger.Logger) SubmitterOption {
	return func(s *Submitter) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSubmitter creates a submitter. A nil signer is allowed for runs that
// never submit.
func NewSubmitter(client *Client, signer Signer, opts ...SubmitterOption) *Submitter {
	s := &Submitter{
		client:     client,
		signer:     signer,
		expiration: DefaultExpiration,
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit wraps ops in a transaction referencing the current head block,
// signs it with key and broadcasts it.
func (s *Submitter) Submit(ctx context.Context, key model.Credential, ops ...Operation) (model.Receipt, error) {
	if s.signer == nil {
		return model.Receipt{}, ErrNoSigner
	}
	props, err := s.client.GetDynamicGlobalProperties(ctx)
	if err != nil {
		return model.Receipt{}, fmt.Errorf("get dynamic global properties: %w", err)
	}
	tx, err := NewTransaction(props, s.expiration, ops...)
	if err != nil {
		return model.Receipt{}, err
	}

	signed, err := s.signer.Sign(ctx, tx, key)
	if err != nil {
		return model.Receipt{}, fmt.Errorf("sign transaction: %w", err)
	}
	if len(signed.Signatures) == 0 {
		return model.Receipt{}, ErrUnsigned
	}

	res, err := s.client.BroadcastTransactionSynchronous(ctx, signed)
	if errors.Is(err, ErrBroadcastUnknown) {
		s.logger.Warn(ctx, "broadcast failed in transit; check the account before claiming again",
			logger.String("expiration", signed.Expiration),
			logger.Error(err),
		)
	}
	if err != nil {
		return model.Receipt{}, fmt.Errorf("broadcast transaction: %w", err)
	}
	s.logger.Debug(ctx, "transaction broadcast",
		logger.String("tx_id", res.ID),
		logger.Any("block_num", res.BlockNum),
	)
	return model.Receipt{TxID: res.ID, BlockNum: res.BlockNum}, nil
}

// NewTransaction builds an unsigned transaction with TaPoS fields taken from
// props: the low 16 bits of the head block number and the little-endian
// uint32 at bytes 4..8 of the head block id.
func NewTransaction(props *DynamicGlobalProperties, expiration time.Duration, ops ...Operation) (Transaction, error) {
	id, err := hex.DecodeString(props.HeadBlockID)
	if err != nil || len(id) < 8 {
		return Transaction{}, fmt.Errorf("invalid head block id %q", props.HeadBlockID)
	}
	head, err := time.Parse(TimeLayout, props.Time)
	if err != nil {
		return Transaction{}, fmt.Errorf("invalid head block time %q: %w", props.Time, err)
	}
	return Transaction{
		RefBlockNum:    uint16(props.HeadBlockNumber & 0xFFFF),
		RefBlockPrefix: binary.LittleEndian.Uint32(id[4:8]),
		Expiration:     head.Add(expiration).UTC().Format(TimeLayout),
		Operations:     ops,
		Extensions:     []json.RawMessage{},
		Signatures:     []string{},
	}, nil
}
