package claim

import "errors"

var (
	// ErrNilGateway is returned by Run when the orchestrator has no gateway.
	ErrNilGateway = errors.New("claim gateway is nil")
	// ErrNoAccounts is returned by Run when there is nothing to iterate.
	ErrNoAccounts = errors.New("no accounts to process")
	// ErrNilAuthority is returned by Run when no authority context is given.
	ErrNilAuthority = errors.New("authority context is nil")
)
