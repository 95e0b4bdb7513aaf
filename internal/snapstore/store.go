// Package snapstore is a derived index over a revision store: a bbolt
// database (bucket-per-concern, the pattern the teacher's own
// internal/store uses) caching metadata the canonical revision_N files
// don't need to carry, so listing/inspecting a store never has to
// parse every revision file from disk.
package snapstore

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"
	"lukechampine.com/blake3"

	"github.com/dirstrata/strata/internal/snaperr"
)

var (
	bucketMeta      = []byte("meta")
	bucketRevisions = []byte("revisions")
)

const storeIDKey = "store_id"

// RevisionRecord is the metadata snapstore keeps per revision,
// separate from the canonical revision_N file itself.
type RevisionRecord struct {
	Version     int32
	BaseVersion int32
	CommittedAt time.Time
	EntryCount  uint64
	// Digest is a blake3 hash of the raw on-disk revision_N bytes, a
	// second integrity check independent of the tree/delta's own
	// SHA-1 content hash -- it catches bit rot or truncation in the
	// stored file itself, not just in its parsed content.
	Digest [32]byte
}

// DB wraps a bbolt handle opened against one revision store's index
// file (conventionally store_dir/index.db, alongside the revision_N
// files).
type DB struct{ *bbolt.DB }

// Open opens (creating if needed) the index at path, ensuring its
// buckets and store identity exist.
func Open(path string) (*DB, error) {
	const op = "snapstore.Open"

	bdb, err := bbolt.Open(path, 0o666, nil)
	if err != nil {
		return nil, snaperr.Wrap(snaperr.IOError, op, err)
	}

	db := &DB{bdb}
	if err := db.Update(func(tx *bbolt.Tx) error {
		if _, e := tx.CreateBucketIfNotExists(bucketMeta); e != nil {
			return e
		}
		if _, e := tx.CreateBucketIfNotExists(bucketRevisions); e != nil {
			return e
		}
		meta := tx.Bucket(bucketMeta)
		if meta.Get([]byte(storeIDKey)) == nil {
			return meta.Put([]byte(storeIDKey), []byte(uuid.NewString()))
		}
		return nil
	}); err != nil {
		_ = bdb.Close()
		return nil, snaperr.Wrap(snaperr.IOError, op, err)
	}
	return db, nil
}

// StoreID returns this store's identity, generated once at first Open.
func (db *DB) StoreID() (string, error) {
	var id string
	err := db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketMeta).Get([]byte(storeIDKey))
		if v == nil {
			return errors.New("store_id not set")
		}
		id = string(v)
		return nil
	})
	return id, err
}

// PutRevisionRecord indexes one revision's metadata, keyed by version.
func (db *DB) PutRevisionRecord(rec RevisionRecord) error {
	const op = "snapstore.PutRevisionRecord"
	buf, err := msgpack.Marshal(&rec)
	if err != nil {
		return snaperr.Wrap(snaperr.IOError, op, err)
	}
	return db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRevisions).Put(versionKey(rec.Version), buf)
	})
}

// GetRevisionRecord looks up one revision's indexed metadata.
func (db *DB) GetRevisionRecord(version int32) (*RevisionRecord, error) {
	const op = "snapstore.GetRevisionRecord"
	var rec RevisionRecord
	err := db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketRevisions).Get(versionKey(version))
		if v == nil {
			return fmt.Errorf("no indexed record for revision %d", version)
		}
		return msgpack.Unmarshal(v, &rec)
	})
	if err != nil {
		return nil, snaperr.Wrap(snaperr.InvalidArgument, op, err)
	}
	return &rec, nil
}

// ListRevisionRecords returns every indexed record, in version order.
func (db *DB) ListRevisionRecords() ([]RevisionRecord, error) {
	const op = "snapstore.ListRevisionRecords"
	var out []RevisionRecord
	err := db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRevisions).ForEach(func(k, v []byte) error {
			var rec RevisionRecord
			if err := msgpack.Unmarshal(v, &rec); err != nil {
				return err
			}
			out = append(out, rec)
			return nil
		})
	})
	if err != nil {
		return nil, snaperr.Wrap(snaperr.IOError, op, err)
	}
	return out, nil
}

// Digest computes the blake3 integrity digest of a revision file's raw
// bytes, for recording alongside its RevisionRecord.
func Digest(rawRevisionBytes []byte) [32]byte {
	return blake3.Sum256(rawRevisionBytes)
}

func versionKey(v int32) []byte {
	return []byte(fmt.Sprintf("%010d", v))
}
