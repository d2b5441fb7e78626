// Package authority holds the validated credential and account list for a run.
package authority

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/okian/hiveclaim/internal/domain/dedupe"
	"github.com/okian/hiveclaim/internal/domain/model"
)

// ErrValidation marks an unusable account list or credential. It is fatal:
// no gateway call is made when Build returns it.
var ErrValidation = errors.New("validation error")

// Context is the authority account, its dependents and the credential that
// signs for all of them. It is read-only after Build.
type Context struct {
	accounts   []string
	dropped    []string
	credential model.Credential
	dryRun     bool
}

// Build validates the inputs and returns a Context.
//
// Account names are trimmed and lowercased, as on chain, and repeats are
// removed, keeping the first occurrence. In live mode the credential is required; in dry-run mode it may
// be empty, but when supplied it must still have a valid key shape.
func Build(credential model.Credential, accounts []string, dryRun bool) (*Context, error) {
	trimmed := make([]string, 0, len(accounts))
	for i, a := range accounts {
		a = strings.TrimSpace(a)
		if a == "" {
			return nil, fmt.Errorf("%w: account #%d is blank", ErrValidation, i+1)
		}
		trimmed = append(trimmed, a)
	}
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: at least one account is required", ErrValidation)
	}
	unique, dropped := dedupe.Unique(context.Background(), trimmed, dedupe.WithCaseFold(true))
	for i, a := range unique {
		unique[i] = strings.ToLower(a)
	}

	if credential.IsEmpty() {
		if !dryRun {
			return nil, fmt.Errorf("%w: posting key is required unless --dry-run is set", ErrValidation)
		}
	} else if err := CheckKeyShape(credential); err != nil {
		return nil, fmt.Errorf("%w: posting key: %v", ErrValidation, err)
	}

	return &Context{
		accounts:   unique,
		dropped:    dropped,
		credential: credential,
		dryRun:     dryRun,
	}, nil
}

// AuthorityAccount is the account whose key signs every claim.
func (c *Context) AuthorityAccount() string { return c.accounts[0] }

// DependentAccounts are all accounts except the authority.
func (c *Context) DependentAccounts() []string {
	return append([]string(nil), c.accounts[1:]...)
}

// Accounts is the full ordered list, authority first.
func (c *Context) Accounts() []string {
	return append([]string(nil), c.accounts...)
}

// Duplicates lists the repeated entries removed by Build.
func (c *Context) Duplicates() []string {
	return append([]string(nil), c.dropped...)
}

func (c *Context) Credential() model.Credential { return c.credential }

func (c *Context) HasCredential() bool { return !c.credential.IsEmpty() }

func (c *Context) IsDryRun() bool { return c.dryRun }
