package redownload

import (
	"testing"

	"github.com/stretchr/testify/require"

	"snapshotledger/identity"
)

func TestLatestMajorityHeightWithNoPeers(t *testing.T) {
	s := NewStore()
	require.Equal(t, int64(0), s.GetLatestMajorityHeight())
}

func TestLatestMajorityHeightIsMedian(t *testing.T) {
	s := NewStore()
	kp1, _ := identity.GenerateKeyPair()
	kp2, _ := identity.GenerateKeyPair()
	kp3, _ := identity.GenerateKeyPair()

	s.RecordPeerHeight(kp1.Id(), 10)
	s.RecordPeerHeight(kp2.Id(), 30)
	s.RecordPeerHeight(kp3.Id(), 20)

	require.Equal(t, int64(20), s.GetLatestMajorityHeight())
	require.Equal(t, 3, s.PeerCount())
}

func TestForgetPeerRecomputes(t *testing.T) {
	s := NewStore()
	kp1, _ := identity.GenerateKeyPair()
	kp2, _ := identity.GenerateKeyPair()

	s.RecordPeerHeight(kp1.Id(), 10)
	s.RecordPeerHeight(kp2.Id(), 20)
	s.ForgetPeer(kp2.Id())

	require.Equal(t, int64(10), s.GetLatestMajorityHeight())
	require.Equal(t, 1, s.PeerCount())
}
