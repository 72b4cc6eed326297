package ledgertypes

import (
	"snapshotledger/codec"
	"snapshotledger/identity"
)

// LastTransactionRef points at the sender's previous transaction, used
// to chain an address's transactions in order.
type LastTransactionRef struct {
	Hash    string
	Ordinal uint64
}

// EmptyLastTransactionRef is the sentinel for "no prior transaction".
var EmptyLastTransactionRef = LastTransactionRef{}

func (l LastTransactionRef) EncodeCanonical(e *codec.Encoder) {
	e.Tag(codec.TagLastTransactionRef)
	e.String(l.Hash)
	e.Uint64(l.Ordinal)
}

// TransactionEdgeData is the payload of a transaction edge.
type TransactionEdgeData struct {
	Amount    int64
	LastTxRef LastTransactionRef
	Fee       *int64
	Salt      int64
}

func (t TransactionEdgeData) EncodeCanonical(e *codec.Encoder) {
	e.Tag(codec.TagTransactionEdgeData)
	e.Int64(t.Amount)
	t.LastTxRef.EncodeCanonical(e)
	e.OptionalInt64(t.Fee)
	e.Int64(t.Salt)
}

// Edge is a generic DAG edge: an observation, its signatures, and the
// typed payload it carries.
type Edge[D codec.CanonicalEncodable] struct {
	ObservationEdge       ObservationEdge
	SignedObservationEdge SignedObservationEdge
	Data                  D
}

// BaseHash returns the signed observation edge's baseHash.
func (e Edge[D]) BaseHash() string { return e.SignedObservationEdge.BaseHash() }

// Parents returns the underlying observation edge's parents.
func (e Edge[D]) Parents() []TypedEdgeHash { return e.ObservationEdge.Parents }

// TransactionEdge is the concrete edge type carrying a transfer.
type TransactionEdge = Edge[TransactionEdgeData]

// NormalizationFactor scales a human-entered amount into fixed-point
// base units.
const NormalizationFactor int64 = 100_000_000

// CreateTransactionEdge builds a self-verifying, signed transaction
// edge from src to dst.
func CreateTransactionEdge(
	src, dst identity.Id,
	lastTxRef LastTransactionRef,
	amount int64,
	kp *identity.KeyPair,
	fee *int64,
	normalized bool,
) (TransactionEdge, error) {
	if normalized {
		amount *= NormalizationFactor
	}
	salt, err := identity.RandomInt64()
	if err != nil {
		return TransactionEdge{}, err
	}
	data := TransactionEdgeData{Amount: amount, LastTxRef: lastTxRef, Fee: fee, Salt: salt}

	dataHash, err := codec.Hash(data)
	if err != nil {
		return TransactionEdge{}, err
	}

	oe := ObservationEdge{
		Parents: []TypedEdgeHash{
			{Hash: src.Hex(), HashType: HashTypeAddress},
			{Hash: dst.Hex(), HashType: HashTypeAddress},
		},
		Data: TypedEdgeHash{Hash: dataHash, HashType: HashTypeTransactionData},
	}

	soe, err := SignObservationEdge(oe, kp)
	if err != nil {
		return TransactionEdge{}, err
	}

	return TransactionEdge{
		ObservationEdge:       oe,
		SignedObservationEdge: soe,
		Data:                  data,
	}, nil
}
