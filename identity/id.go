// Package identity implements C2 (Key & Signature Primitives) and the
// Id value from the data model: a public key encoded as
// lowercase hex, with address, byte-form and prefix views derived on
// demand rather than cached, so Id stays a trivially copyable value.
package identity

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
)

// Id is a public key, addressed by its lowercase-hex encoding.
type Id struct {
	hex string
}

// IdFromHex validates and wraps an already-hex-encoded compressed
// public key. The hex is normalized to lowercase.
func IdFromHex(pubKeyHex string) (Id, error) {
	pubKeyHex = strings.ToLower(pubKeyHex)
	raw, err := hex.DecodeString(pubKeyHex)
	if err != nil {
		return Id{}, fmt.Errorf("identity: invalid hex: %w", err)
	}
	if _, err := btcec.ParsePubKey(raw); err != nil {
		return Id{}, fmt.Errorf("identity: invalid public key: %w", err)
	}
	return Id{hex: pubKeyHex}, nil
}

// IdFromPublicKey derives an Id from a live public key.
func IdFromPublicKey(pub *btcec.PublicKey) Id {
	return Id{hex: hex.EncodeToString(pub.SerializeCompressed())}
}

// Hex returns the canonical lowercase-hex form.
func (id Id) Hex() string { return id.hex }

// String satisfies fmt.Stringer.
func (id Id) String() string { return id.hex }

// IsZero reports whether id was never assigned a key.
func (id Id) IsZero() bool { return id.hex == "" }

// Bytes returns the raw compressed public key bytes.
func (id Id) Bytes() ([]byte, error) {
	return hex.DecodeString(id.hex)
}

// PublicKey parses the wrapped public key.
func (id Id) PublicKey() (*btcec.PublicKey, error) {
	raw, err := id.Bytes()
	if err != nil {
		return nil, err
	}
	return btcec.ParsePubKey(raw)
}

// Less orders two Ids by their hex representation, used wherever the
// spec calls for a "sorted map<Id, ...>" (publicReputation, §3/§4.7).
func (id Id) Less(other Id) bool { return id.hex < other.hex }

// Equal reports value equality.
func (id Id) Equal(other Id) bool { return id.hex == other.hex }
