package identity

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	decredsecp "github.com/decred/dcrd/dcrec/secp256k1/v4"
	decredecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// KeyPair holds a secp256k1 private/public pair. Signing goes through
// btcec; verification goes through the decred implementation, kept as
// an independently-audited cross-check against a second curve-math
// codebase.
type KeyPair struct {
	Private *btcec.PrivateKey
	Public  *btcec.PublicKey
}

// GenerateKeyPair creates a fresh random keypair.
func GenerateKeyPair() (*KeyPair, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("identity: generate key: %w", err)
	}
	return &KeyPair{Private: priv, Public: priv.PubKey()}, nil
}

// KeyPairFromHex reconstructs a keypair from a 32-byte hex-encoded
// private scalar.
func KeyPairFromHex(privHex string) (*KeyPair, error) {
	raw, err := hex.DecodeString(privHex)
	if err != nil {
		return nil, fmt.Errorf("identity: invalid private key hex: %w", err)
	}
	priv, pub := btcec.PrivKeyFromBytes(raw)
	return &KeyPair{Private: priv, Public: pub}, nil
}

// Id returns the Id (public key hex view) for this keypair.
func (kp *KeyPair) Id() Id { return IdFromPublicKey(kp.Public) }

// PrivateHex returns the hex-encoded 32-byte private scalar.
func (kp *KeyPair) PrivateHex() string {
	return hex.EncodeToString(kp.Private.Serialize())
}

// Sign produces a deterministic (RFC6979) DER-encoded ECDSA signature
// over a 32-byte digest. digest must already be a hash; the core signs
// hashes, never raw payloads.
func Sign(digest []byte, priv *btcec.PrivateKey) ([]byte, error) {
	if len(digest) != 32 {
		return nil, fmt.Errorf("identity: digest must be 32 bytes, got %d", len(digest))
	}
	sig := btcecdsa.Sign(priv, digest)
	return sig.Serialize(), nil
}

// Verify checks a DER-encoded signature over digest against pubKeyHex.
func Verify(digest, sigBytes []byte, pubKeyHex string) bool {
	if len(digest) != 32 {
		return false
	}
	pubRaw, err := hex.DecodeString(pubKeyHex)
	if err != nil {
		return false
	}
	pub, err := decredsecp.ParsePubKey(pubRaw)
	if err != nil {
		return false
	}
	sig, err := decredecdsa.ParseDERSignature(sigBytes)
	if err != nil {
		return false
	}
	return sig.Verify(digest, pub)
}

// RandomInt64 returns a cryptographically random int64, used by C3 to
// build TransactionEdgeData.Salt: random per construction so identical
// (src, dst, amount) transactions never collide on hash.
func RandomInt64() (int64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("identity: random salt: %w", err)
	}
	v := int64(0)
	for _, b := range buf {
		v = (v << 8) | int64(b)
	}
	if v < 0 {
		v = -v
	}
	return v, nil
}
