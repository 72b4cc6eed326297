package identity

import (
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // required for the hash160 address scheme
)

// addressVersion tags every derived address so it can never be
// confused for a raw hex Id or a foreign chain's address.
const addressVersion byte = 0x2b

// Address derives the node's base58-check address from its public
// key: version-byte || ripemd160(sha256(pubkey)), base58check-encoded.
func (id Id) Address() (string, error) {
	pubBytes, err := id.Bytes()
	if err != nil {
		return "", err
	}
	return DeriveAddress(pubBytes), nil
}

// DeriveAddress computes the base58check address for a raw compressed
// public key.
func DeriveAddress(pubKeyBytes []byte) string {
	h160 := Hash160(pubKeyBytes)
	return base58.CheckEncode(h160, addressVersion)
}

// Hash160 computes ripemd160(sha256(data)), the standard two-round
// digest used for address derivation across the Bitcoin-family stack.
func Hash160(data []byte) []byte {
	sha := sha256.Sum256(data)
	r := ripemd160.New()
	r.Write(sha[:]) //nolint:errcheck // ripemd160.Write never errors
	return r.Sum(nil)
}

// Prefix20 returns the first 20 bytes of the raw public key.
func (id Id) Prefix20() ([20]byte, error) {
	var out [20]byte
	raw, err := id.Bytes()
	if err != nil {
		return out, err
	}
	if len(raw) < 20 {
		return out, fmt.Errorf("identity: public key too short for prefix: %d bytes", len(raw))
	}
	copy(out[:], raw[:20])
	return out, nil
}
