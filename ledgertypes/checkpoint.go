package ledgertypes

// Height brackets a checkpoint block's position in the DAG. Only Min
// is used by the snapshot core, Max is carried along for
// completeness of the "opaque except..." checkpoint block contract.
type Height struct {
	Min int64
	Max int64
}

// CheckpointCache is what Checkpoint Storage (C4) returns for a given
// soeHash: the pieces the snapshot core actually needs, everything
// else about a checkpoint block is opaque to this system.
type CheckpointCache struct {
	SoeHash      string
	Height       Height
	Transactions []TransactionEdge
	Observations []ObservationEdge
}

// CheckpointBlock is an alias for CheckpointCache: outside of C4's own
// bookkeeping the two names refer to the same opaque shape.
type CheckpointBlock = CheckpointCache
