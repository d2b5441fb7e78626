package authority

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/okian/hiveclaim/internal/domain/model"
)

// WIF layout: version(1) | private key(32) | checksum(4).
const (
	wifVersion     = 0x80
	wifKeyLen      = 32
	wifChecksumLen = 4
	wifLen         = 1 + wifKeyLen + wifChecksumLen
)

var (
	errKeyEncoding = errors.New("not base58 encoded")
	errKeyChecksum = errors.New("checksum mismatch")
)

// CheckKeyShape verifies that key looks like a WIF private key. It checks the
// encoding, length, version byte and checksum; whether the key actually holds
// posting authority is decided by the chain at broadcast time.
func CheckKeyShape(key model.Credential) error {
	raw, err := base58.Decode(key.Reveal())
	if err != nil || len(raw) == 0 {
		return errKeyEncoding
	}
	if len(raw) != wifLen {
		return fmt.Errorf("decoded length %d, want %d", len(raw), wifLen)
	}
	if raw[0] != wifVersion {
		return fmt.Errorf("version byte 0x%02x, want 0x%02x", raw[0], wifVersion)
	}
	payload, sum := raw[:1+wifKeyLen], raw[1+wifKeyLen:]
	if !bytes.Equal(wifChecksum(payload), sum) {
		return errKeyChecksum
	}
	return nil
}

// EncodeWIF encodes a raw 32-byte private key as WIF.
func EncodeWIF(priv []byte) (model.Credential, error) {
	if len(priv) != wifKeyLen {
		return "", fmt.Errorf("private key length %d, want %d", len(priv), wifKeyLen)
	}
	payload := append([]byte{wifVersion}, priv...)
	return model.Credential(base58.Encode(append(payload, wifChecksum(payload)...))), nil
}

func wifChecksum(payload []byte) []byte {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return second[:wifChecksumLen]
}
