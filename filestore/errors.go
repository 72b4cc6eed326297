package filestore

import "errors"

// ErrKeyExists is returned by Write when the key is already present
// and the caller did not ask for Replace.
var ErrKeyExists = errors.New("filestore: key already exists")

// ErrKeyNotFound is returned by Read for a missing key.
var ErrKeyNotFound = errors.New("filestore: key not found")

// ErrOverDiskCapacity is returned when a write would exceed the
// configured disk-size limit or usable space.
var ErrOverDiskCapacity = errors.New("filestore: write would exceed disk capacity")
