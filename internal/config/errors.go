package config

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is from callers.
var (
	// ErrConfig marks a missing or malformed configuration source. It is fatal:
	// no account is processed when Resolve returns it.
	ErrConfig = errors.New("config error")
)
