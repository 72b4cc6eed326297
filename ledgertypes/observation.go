package ledgertypes

import "snapshotledger/codec"

// ObservationEdge is a DAG vertex: an ordered sequence of parent
// references plus the data it observes. Parent order is semantically
// significant: for a transaction edge, source before destination.
type ObservationEdge struct {
	Parents []TypedEdgeHash
	Data    TypedEdgeHash
}

func (o ObservationEdge) EncodeCanonical(e *codec.Encoder) {
	e.Tag(codec.TagObservationEdge)
	e.Sequence(len(o.Parents), func(i int) {
		o.Parents[i].EncodeCanonical(e)
	})
	o.Data.EncodeCanonical(e)
}

// Hash returns the content hash of this observation edge.
func (o ObservationEdge) Hash() (string, error) {
	return codec.Hash(o)
}
