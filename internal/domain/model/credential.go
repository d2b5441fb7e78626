package model

import "log/slog"

const redacted = "***REDACTED***"

// Credential is the authority's private posting key. Every formatting path
// returns a redacted placeholder; only Reveal exposes the raw value.
type Credential string

// IsEmpty reports whether no credential was supplied.
func (c Credential) IsEmpty() bool { return c == "" }

// Reveal returns the raw secret. Callers must not log or persist it.
func (c Credential) Reveal() string { return string(c) }

func (c Credential) String() string {
	if c.IsEmpty() {
		return ""
	}
	return redacted
}

func (c Credential) GoString() string { return c.String() }

// LogValue implements slog.LogValuer.
func (c Credential) LogValue() slog.Value { return slog.StringValue(c.String()) }

// MarshalText keeps the secret out of JSON/YAML encodings.
func (c Credential) MarshalText() ([]byte, error) { return []byte(c.String()), nil }
