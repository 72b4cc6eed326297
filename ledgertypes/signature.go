package ledgertypes

import (
	"encoding/hex"
	"sort"

	"snapshotledger/codec"
	"snapshotledger/identity"
)

// HashSignature is one signer's signature over a hash, totally ordered
// by its signature hex.
type HashSignature struct {
	SignatureHex string
	SignerId     identity.Id
}

func (h HashSignature) EncodeCanonical(e *codec.Encoder) {
	e.Tag(codec.TagHashSignature)
	e.String(h.SignatureHex)
	e.String(h.SignerId.Hex())
}

// Less orders by signature hex, the batch's canonical order.
func (h HashSignature) Less(other HashSignature) bool {
	return h.SignatureHex < other.SignatureHex
}

// Valid verifies the signer's key against the bytes of hashHex, a
// hex-encoded 32-byte digest this signature is claimed to cover.
func (h HashSignature) Valid(hashHex string) bool {
	digest, err := hex.DecodeString(hashHex)
	if err != nil || len(digest) != 32 {
		return false
	}
	sigBytes, err := hex.DecodeString(h.SignatureHex)
	if err != nil {
		return false
	}
	return identity.Verify(digest, sigBytes, h.SignerId.Hex())
}

// SignatureBatch is a commutative, idempotent CRDT over the set of
// signatures for one logical observation. Signatures is always kept
// sorted ascending by SignatureHex and deduplicated; construct via
// NewSignatureBatch or Combine, never by literal struct assignment, so
// that guarantee can't be broken by callers.
type SignatureBatch struct {
	Hash       string
	Signatures []HashSignature
}

// NewSignatureBatch builds a batch for hash from an initial signature set.
func NewSignatureBatch(hash string, sigs ...HashSignature) SignatureBatch {
	return SignatureBatch{Hash: hash}.withSignatures(sigs)
}

func (b SignatureBatch) withSignatures(sigs []HashSignature) SignatureBatch {
	merged := make([]HashSignature, len(sigs))
	copy(merged, sigs)
	sort.Slice(merged, func(i, j int) bool { return merged[i].Less(merged[j]) })

	out := merged[:0]
	seen := false
	var prev string
	for _, s := range merged {
		if !seen || s.SignatureHex != prev {
			out = append(out, s)
			prev = s.SignatureHex
			seen = true
		}
	}
	return SignatureBatch{Hash: b.Hash, Signatures: out}
}

// Combine merges two batches of the same logical observation into
// their distinct union, sorted by signature hex. Commutative,
// associative and idempotent; Hash is fixed across merges, since
// baseHash never moves once assigned.
func (b SignatureBatch) Combine(other SignatureBatch) SignatureBatch {
	hash := b.Hash
	if hash == "" {
		hash = other.Hash
	}
	all := make([]HashSignature, 0, len(b.Signatures)+len(other.Signatures))
	all = append(all, b.Signatures...)
	all = append(all, other.Signatures...)
	return SignatureBatch{Hash: hash}.withSignatures(all)
}

func (b SignatureBatch) EncodeCanonical(e *codec.Encoder) {
	e.Tag(codec.TagSignatureBatch)
	e.String(b.Hash)
	e.Sequence(len(b.Signatures), func(i int) {
		b.Signatures[i].EncodeCanonical(e)
	})
}

// SignedObservationEdge wraps a SignatureBatch; its baseHash is the
// batch's hash.
type SignedObservationEdge struct {
	SignatureBatch SignatureBatch
}

// BaseHash returns the wrapped batch's hash.
func (s SignedObservationEdge) BaseHash() string { return s.SignatureBatch.Hash }

func (s SignedObservationEdge) EncodeCanonical(e *codec.Encoder) {
	e.Tag(codec.TagSignedObservationEdge)
	s.SignatureBatch.EncodeCanonical(e)
}

// SignObservationEdge signs oe's hash with kp and wraps the result in
// a single-signature batch. signedObservationEdge.baseHash always
// equals hash(observationEdge) by construction: the batch's Hash is
// exactly the digest that got signed.
func SignObservationEdge(oe ObservationEdge, kp *identity.KeyPair) (SignedObservationEdge, error) {
	h, err := oe.Hash()
	if err != nil {
		return SignedObservationEdge{}, err
	}
	digest, err := hex.DecodeString(h)
	if err != nil {
		return SignedObservationEdge{}, err
	}
	sigBytes, err := identity.Sign(digest, kp.Private)
	if err != nil {
		return SignedObservationEdge{}, err
	}
	sig := HashSignature{SignatureHex: hex.EncodeToString(sigBytes), SignerId: kp.Id()}
	return SignedObservationEdge{SignatureBatch: NewSignatureBatch(h, sig)}, nil
}
