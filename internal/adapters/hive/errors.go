package hive

import "errors"

var (
	// ErrNoNodes is returned when a client is created without API nodes.
	ErrNoNodes = errors.New("no hive api nodes configured")
	// ErrUnknownAccount is returned when the node does not know an account.
	ErrUnknownAccount = errors.New("unknown account")
	// ErrNoSigner is returned when a submission is attempted without a signer.
	ErrNoSigner = errors.New("no transaction signer configured")
	// ErrUnsigned is returned when the signer hands back no signatures.
	ErrUnsigned = errors.New("signer returned no signatures")
	// ErrBroadcastUnknown is returned when a broadcast failed in transit. The
	// transaction may still have been included; it is not re-sent.
	ErrBroadcastUnknown = errors.New("broadcast outcome unknown")
	// ErrMalformedAsset is returned for asset strings that do not parse.
	ErrMalformedAsset = errors.New("malformed asset")
)
