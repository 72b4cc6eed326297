package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"snapshotledger/checkpoint"
	"snapshotledger/config"
	"snapshotledger/filestore"
	"snapshotledger/ledgerservices"
	"snapshotledger/metrics"
	"snapshotledger/redownload"
	"snapshotledger/snapshotservice"
	"snapshotledger/snapshotstore"
	"snapshotledger/trust"
)

// container holds every long-lived component the node needs, wired in
// dependency order the same way the DEX's app.Container groups its own
// services before handing them to the state machine that drives them.
type container struct {
	files    *filestore.Store
	registry *prometheus.Registry
	metrics  *metrics.Registry
	service  *snapshotservice.Service
}

func wire(cfg config.Config) (*container, error) {
	files, err := filestore.Open(cfg.Storage.DataDir, cfg.Snapshot.SnapshotSizeDiskLimit)
	if err != nil {
		return nil, fmt.Errorf("wire: opening local file storage: %w", err)
	}

	checkpoints := checkpoint.NewStore(cfg.Processing.MaxAcceptedCBHashesInMemory)
	snapshots, err := snapshotstore.New()
	if err != nil {
		return nil, fmt.Errorf("wire: initializing snapshot storage: %w", err)
	}

	registry := prometheus.NewRegistry()
	reg := metrics.NewRegistry(registry)

	svc := snapshotservice.NewService(snapshotservice.Deps{
		Checkpoints:  checkpoints,
		Snapshots:    snapshots,
		Files:        files,
		Redownload:   redownload.NewStore(),
		Trust:        trust.NewManager(),
		Addresses:    ledgerservices.NewAddressService(),
		Transactions: ledgerservices.NewTransactionService(),
		Observations: ledgerservices.NewObservationService(),
		Metrics:      reg,
		Events:       snapshotservice.NewEventBus(),
		Config:       cfg,
	})

	return &container{files: files, registry: registry, metrics: reg, service: svc}, nil
}

func (c *container) Close() error {
	return c.files.Close()
}
