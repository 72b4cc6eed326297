package checkpoint

import "errors"

// ErrMaxCBHashesInMemory is returned by CheckCapacity once the tracked
// checkpoint count reaches the configured precheck bound (Open Question:
// the implementer makes this an explicit, configurable precheck rather
// than an implicit map-growth failure).
var ErrMaxCBHashesInMemory = errors.New("checkpoint: max accepted checkpoint hashes in memory reached")

// ErrNotAccepted is returned by MarkInSnapshot when one of the given
// soeHashes is not currently in the accepted set.
var ErrNotAccepted = errors.New("checkpoint: soeHash is not in the accepted set")
