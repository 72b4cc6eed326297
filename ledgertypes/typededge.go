// Package ledgertypes implements C3 (the transaction and signature
// model) plus the shared data-model values C3's correctness depends
// on: typed edges, observation edges, signature batches, and the
// checkpoint/snapshot record shapes.
package ledgertypes

import (
	"fmt"

	"snapshotledger/codec"
)

// HashType is the closed enum a TypedEdgeHash's role must belong to.
type HashType byte

const (
	HashTypeAddress HashType = iota + 1
	HashTypeTransactionData
	HashTypeTransaction
)

func (h HashType) Valid() bool {
	return h >= HashTypeAddress && h <= HashTypeTransaction
}

func (h HashType) String() string {
	switch h {
	case HashTypeAddress:
		return "AddressHash"
	case HashTypeTransactionData:
		return "TransactionDataHash"
	case HashTypeTransaction:
		return "TransactionHash"
	default:
		return "InvalidHashType"
	}
}

// TypedEdgeHash carries a hash plus the semantic role it plays.
type TypedEdgeHash struct {
	Hash     string
	HashType HashType
	BaseHash string // "" when absent
}

func (t TypedEdgeHash) EncodeCanonical(e *codec.Encoder) {
	e.Tag(codec.TagTypedEdgeHash)
	if !t.HashType.Valid() {
		e.Fail(fmt.Sprintf("invalid TypedEdgeHash.hashType %d", t.HashType))
		return
	}
	e.Byte(byte(t.HashType))
	e.String(t.Hash)
	e.String(t.BaseHash)
}
