// Package filestore implements Local File Storage (C6): a durable
// key→bytes store, backed by an embedded Badger database, for
// serialized snapshots and snapshot-info blobs.
package filestore

import (
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"golang.org/x/sys/unix"

	"snapshotledger/logs"
)

const maxWriteAttempts = 3

// Store is the concrete C6 implementation.
type Store struct {
	db        *badger.DB
	dataDir   string
	sizeLimit int64 // bytes; 0 disables the capacity check
}

// Open opens (creating if absent) a Badger database rooted at dataDir.
// sizeDiskLimit is the configured snapshot.snapshotSizeDiskLimit (0
// disables the capacity precheck).
func Open(dataDir string, sizeDiskLimit int64) (*Store, error) {
	opts := badger.DefaultOptions(dataDir).
		WithSyncWrites(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("filestore: open %s: %w", dataDir, err)
	}
	return &Store{db: db, dataDir: dataDir, sizeLimit: sizeDiskLimit}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Write stores value under key, failing with ErrKeyExists if key is
// already present. Writes are synchronous (WithSyncWrites(true)), so
// a successful return means durable on disk.
func (s *Store) Write(key string, value []byte) error {
	return s.write(key, value, false)
}

// Replace stores value under key regardless of whether it already
// exists.
func (s *Store) Replace(key string, value []byte) error {
	return s.write(key, value, true)
}

func (s *Store) write(key string, value []byte, replace bool) error {
	if err := s.checkCapacity(uint64(len(value))); err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		if err := s.checkCapacity(uint64(len(value))); err != nil {
			return err
		}
		lastErr = s.db.Update(func(txn *badger.Txn) error {
			if !replace {
				if _, err := txn.Get([]byte(key)); err == nil {
					return ErrKeyExists
				} else if err != badger.ErrKeyNotFound {
					return err
				}
			}
			return txn.Set([]byte(key), value)
		})
		if lastErr == nil {
			return nil
		}
		if lastErr == ErrKeyExists {
			return lastErr
		}
		logs.Warn("filestore write attempt %d/%d for key %s failed: %v", attempt, maxWriteAttempts, key, lastErr)
		time.Sleep(time.Duration(attempt) * 50 * time.Millisecond)
	}
	return fmt.Errorf("filestore: write %s failed after %d attempts: %w", key, maxWriteAttempts, lastErr)
}

// Read returns the bytes stored under key.
func (s *Store) Read(key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err == badger.ErrKeyNotFound {
			return ErrKeyNotFound
		}
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	return out, err
}

// List returns every key currently stored.
func (s *Store) List() ([]string, error) {
	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	return keys, err
}

// GetOccupiedSpace reports the on-disk size of the LSM tree and value
// log combined.
func (s *Store) GetOccupiedSpace() uint64 {
	lsm, vlog := s.db.Size()
	if lsm < 0 {
		lsm = 0
	}
	if vlog < 0 {
		vlog = 0
	}
	return uint64(lsm) + uint64(vlog)
}

// GetUsableSpace reports bytes available to an unprivileged writer on
// the filesystem backing dataDir.
func (s *Store) GetUsableSpace() (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(s.dataDir, &stat); err != nil {
		return 0, fmt.Errorf("filestore: statfs %s: %w", s.dataDir, err)
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

// isOverDiskCapacity treats sizeLimit == 0 as "no limit": the
// usable-space check is bypassed entirely, not just the
// occupied-space check.
func (s *Store) isOverDiskCapacity(n uint64) bool {
	if s.sizeLimit == 0 {
		return false
	}
	occupied := s.GetOccupiedSpace()
	if occupied+n > uint64(s.sizeLimit) {
		return true
	}
	usable, err := s.GetUsableSpace()
	if err != nil {
		logs.Warn("filestore: usable space check failed, treating as over capacity: %v", err)
		return true
	}
	return usable < n
}

func (s *Store) checkCapacity(n uint64) error {
	if s.isOverDiskCapacity(n) {
		return ErrOverDiskCapacity
	}
	return nil
}
