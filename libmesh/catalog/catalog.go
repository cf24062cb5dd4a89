package catalog

import (
	"encoding/binary"
	"runtime"

	"github.com/2x3systems/gomesh/gomesh"
	"github.com/dgraph-io/badger/v3"
	proto "github.com/gogo/protobuf/proto"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

/***

Catalog database format:

	gCatalogStateKey                          => CatalogState
	gPartitionPrefix, fingerprint (uint64 BE) => PartitionRecord

A fingerprint identifies a graph (vertex IDs, labels and edges) independent of input order or format, so a
stored result is valid for any encoding of the same graph.

***/

var (
	gCatalogStateKey = []byte{0x00, 0x00, 0x01}
	gPartitionPrefix = []byte{0x00, 0x01}
)

const (
	kMajorVers = 2024
	kMinorVers = 1
)

// catalog is a badger wrapper storing refinement results
type catalog struct {
	readOnly   bool
	stateDirty bool
	state      CatalogState
	db         *badger.DB
}

// OpenCatalog opens (or creates) the catalog at opts.DbPathName, or an in-memory catalog if no path is given.
func OpenCatalog(opts gomesh.CatalogOpts) (gomesh.Catalog, error) {
	cat := &catalog{
		readOnly: opts.ReadOnly,
	}

	dbOpts := badger.DefaultOptions(opts.DbPathName)
	dbOpts.ReadOnly = opts.ReadOnly
	dbOpts.DetectConflicts = false
	dbOpts.Logger = nil
	dbOpts.MetricsEnabled = false

	// Badger for windows currently does not support read-only mode
	if runtime.GOOS == "windows" {
		dbOpts.ReadOnly = false
	}

	if len(opts.DbPathName) == 0 {
		if opts.ReadOnly {
			return nil, errors.Wrap(gomesh.ErrBadCatalogParam, "DbPathName must be specified for read-only catalog")
		}
		dbOpts.InMemory = true
	}

	var err error
	cat.db, err = badger.Open(dbOpts)
	if err != nil {
		return nil, errors.Wrap(err, "open catalog")
	}

	err = cat.loadState()
	if err == badger.ErrKeyNotFound {
		err = nil
		cat.stateDirty = !cat.readOnly
		cat.state.MajorVers = kMajorVers
		cat.state.MinorVers = kMinorVers
	}
	if err == nil && (cat.state.MajorVers != kMajorVers || cat.state.MinorVers != kMinorVers) {
		err = errors.Wrapf(gomesh.ErrCatalogVersion, "found v%d.%d", cat.state.MajorVers, cat.state.MinorVers)
	}
	if err != nil {
		cat.Close()
		return nil, err
	}

	klog.V(1).Infof("opened catalog %q: %d entries", opts.DbPathName, cat.state.NumEntries)
	return cat, nil
}

func (cat *catalog) loadState() error {
	return cat.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(gCatalogStateKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return proto.Unmarshal(val, &cat.state)
		})
	})
}

func (cat *catalog) flushState() error {
	if !cat.stateDirty {
		return nil
	}
	err := cat.db.Update(func(txn *badger.Txn) error {
		stateBuf, err := proto.Marshal(&cat.state)
		if err != nil {
			return err
		}
		return txn.Set(gCatalogStateKey, stateBuf)
	})
	if err != nil {
		return errors.Wrap(err, "flush catalog state")
	}
	cat.stateDirty = false
	return nil
}

func (cat *catalog) Close() error {
	if cat.db == nil {
		return nil
	}
	err := cat.flushState()
	if closeErr := cat.db.Close(); err == nil {
		err = closeErr
	}
	cat.db = nil
	return err
}

func (cat *catalog) IsReadOnly() bool {
	return cat.readOnly
}

func (cat *catalog) NumEntries() int64 {
	return cat.state.NumEntries
}

func partitionKey(fingerprint uint64) []byte {
	key := make([]byte, len(gPartitionPrefix)+8)
	n := copy(key, gPartitionPrefix)
	binary.BigEndian.PutUint64(key[n:], fingerprint)
	return key
}

func (cat *catalog) Lookup(fingerprint uint64) ([]gomesh.Block, error) {
	var rec PartitionRecord
	err := cat.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(partitionKey(fingerprint))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return proto.Unmarshal(val, &rec)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, errors.Wrapf(gomesh.ErrNotFound, "fingerprint %016x", fingerprint)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "lookup %016x", fingerprint)
	}
	if rec.Fingerprint != fingerprint {
		return nil, errors.Errorf("catalog entry %016x holds fingerprint %016x", fingerprint, rec.Fingerprint)
	}
	return rec.Blocks(), nil
}

func (cat *catalog) Store(fingerprint uint64, blocks []gomesh.Block) error {
	if cat.readOnly {
		return errors.Wrap(gomesh.ErrBadCatalogParam, "catalog is read-only")
	}

	sorted := append([]gomesh.Block(nil), blocks...)
	gomesh.SortBlocks(sorted)

	buf, err := proto.Marshal(NewPartitionRecord(fingerprint, sorted))
	if err != nil {
		return err
	}

	key := partitionKey(fingerprint)
	added := false
	err = cat.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			added = true
		} else if err != nil {
			return err
		}
		return txn.Set(key, buf)
	})
	if err != nil {
		return errors.Wrapf(err, "store %016x", fingerprint)
	}

	if added {
		cat.state.NumEntries++
		cat.stateDirty = true
	}
	klog.V(2).Infof("stored %d meshes under %016x", len(blocks), fingerprint)
	return nil
}
