package commands

import (
	"context"
	"fmt"

	"github.com/okian/hiveclaim/internal/adapters/hive"
	"github.com/okian/hiveclaim/internal/adapters/scot"
	"github.com/okian/hiveclaim/internal/adapters/signer"
	"github.com/okian/hiveclaim/internal/claim"
	"github.com/okian/hiveclaim/internal/config"
	"github.com/okian/hiveclaim/pkg/logger"
)

// GatewayFactory builds the chain gateway selected by cfg.
type GatewayFactory func(ctx context.Context, cfg *config.Config, log logger.Logger) (claim.Gateway, error)

// newGateway wires the Hive client, the signing sidecar and the selected
// gateway. Live runs need a signer; dry runs never submit.
func newGateway(_ context.Context, cfg *config.Config, log logger.Logger) (claim.Gateway, error) {
	client, err := hive.NewClient(cfg.Nodes,
		hive.WithTimeout(cfg.RequestTimeout),
		hive.WithMaxRetries(cfg.MaxRetries),
		hive.WithLogger(log.Named("hive")),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrConfig, err)
	}

	var s hive.Signer
	switch {
	case cfg.SignerURL != "":
		hs, err := signer.New(cfg.SignerURL, signer.WithTimeout(cfg.RequestTimeout))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", config.ErrConfig, err)
		}
		s = hs
	case !cfg.DryRun:
		return nil, fmt.Errorf("%w: signer_url is required for live runs", config.ErrConfig)
	}
	submitter := hive.NewSubmitter(client, s,
		hive.WithExpiration(cfg.TxExpiration),
		hive.WithSubmitterLogger(log.Named("submitter")),
	)

	switch cfg.Gateway {
	case config.GatewayHive:
		return hive.NewGateway(client, submitter), nil
	case config.GatewaySCOT:
		sc := scot.NewClient(cfg.SCOTAPIURL, scot.WithTimeout(cfg.RequestTimeout))
		return scot.NewGateway(sc, submitter), nil
	default:
		return nil, fmt.Errorf("%w: unknown gateway %q", config.ErrConfig, cfg.Gateway)
	}
}
