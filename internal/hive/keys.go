package hive

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mr-tron/base58"
)

const wifVersion = 0x80

var (
	// ErrBadWIF covers structurally invalid WIF strings.
	ErrBadWIF = errors.New("invalid WIF key")
	// ErrBadWIFChecksum means the key decoded but its checksum did not match.
	ErrBadWIFChecksum = errors.New("WIF checksum mismatch")
)

// DecodeWIF turns a wallet-import-format active key into a usable secp256k1
// private key. Hive WIF is the uncompressed Bitcoin layout: a 0x80 version
// byte, 32 key bytes, and a 4-byte double-sha256 checksum, base58 encoded.
func DecodeWIF(wif string) (*ecdsa.PrivateKey, error) {
	raw, err := base58.Decode(wif)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadWIF, err)
	}
	if len(raw) != 37 {
		return nil, fmt.Errorf("%w: unexpected length %d", ErrBadWIF, len(raw))
	}
	payload, checksum := raw[:33], raw[33:]

	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	for i := 0; i < 4; i++ {
		if checksum[i] != second[i] {
			return nil, ErrBadWIFChecksum
		}
	}

	if payload[0] != wifVersion {
		return nil, fmt.Errorf("%w: version byte 0x%02x", ErrBadWIF, payload[0])
	}
	key, err := crypto.ToECDSA(payload[1:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadWIF, err)
	}
	return key, nil
}
