package filestore

import "fmt"

// KeyVersion prefixes every key this store writes, so a future wire
// format change can coexist with old data during a rolling upgrade.
const KeyVersion = "v1"

func withVer(s string) string {
	return KeyVersion + "_" + s
}

// KeySnapshot returns the on-disk key for a StoredSnapshot blob,
// "snapshotStorage/<snapshotHash>" behind the KeyVersion prefix
// ("v1_snapshotStorage/<snapshotHash>").
func KeySnapshot(snapshotHash string) string {
	return withVer(fmt.Sprintf("snapshotStorage/%s", snapshotHash))
}

// KeySnapshotInfo returns the on-disk key for a SnapshotInfo blob,
// "v1_snapshotInfoStorage/<snapshotHash>".
func KeySnapshotInfo(snapshotHash string) string {
	return withVer(fmt.Sprintf("snapshotInfoStorage/%s", snapshotHash))
}

// KeyEigenTrust returns the on-disk key for an optional StoredRewards
// blob, "v1_eigenTrustStorage/<snapshotHash>".
func KeyEigenTrust(snapshotHash string) string {
	return withVer(fmt.Sprintf("eigenTrustStorage/%s", snapshotHash))
}
