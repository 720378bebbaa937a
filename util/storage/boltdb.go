package storage

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/acadtrust/anchor/models"
	"github.com/boltdb/bolt"
)

const DEFAULT_BUCKET = "default"

// AuditStore is the bolt-backed side store that mirrors successful
// submissions. Bolt is a single-file key-value store, which is all
// the mirror needs: one gob-encoded AuditEntry per (submitter, item)
// key, written by the audit recorder and read by the listing tools.
// Nothing here is authoritative - the ledger is - so the store can be
// deleted and rebuilt from the queue at any time.
type AuditStore struct {
	db       *bolt.DB
	filePath string
}

// NewAuditStore opens a bolt database, creating the DB file if it
// doesn't already exist.
func NewAuditStore(filePath string) (store *AuditStore, err error) {
	db, err := bolt.Open(filePath, 0644, nil)
	if err == nil {
		store = &AuditStore{
			db:       db,
			filePath: filePath,
		}
		err = store.initBucket()
	}
	return store, err
}

// Initialize the default bucket. Keys are (submitter, itemId) pairs,
// which the ledger guarantees unique, so one bucket is enough.
func (store *AuditStore) initBucket() error {
	err := store.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(DEFAULT_BUCKET))
		if err != nil {
			return fmt.Errorf("Error creating default bucket: %s", err)
		}
		return nil
	})
	return err
}

// FilePath returns the path to the bolt DB file.
func (store *AuditStore) FilePath() string {
	return store.filePath
}

// Close closes the bolt database.
func (store *AuditStore) Close() {
	store.db.Close()
}

// Save saves an audit entry under the given key.
func (store *AuditStore) Save(key string, entry *models.AuditEntry) error {
	var byteSlice []byte
	buf := bytes.NewBuffer(byteSlice)
	encoder := gob.NewEncoder(buf)
	err := encoder.Encode(entry)
	if err == nil {
		err = store.db.Update(func(tx *bolt.Tx) error {
			bucket := tx.Bucket([]byte(DEFAULT_BUCKET))
			return bucket.Put([]byte(key), buf.Bytes())
		})
	}
	return err
}

// Get returns the audit entry stored under key. If key is not found,
// this returns nil and no error.
func (store *AuditStore) Get(key string) (*models.AuditEntry, error) {
	var err error
	entry := &models.AuditEntry{}
	err = store.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(DEFAULT_BUCKET))
		value := bucket.Get([]byte(key))
		if len(value) > 0 {
			buf := bytes.NewBuffer(value)
			decoder := gob.NewDecoder(buf)
			err = decoder.Decode(entry)
		} else {
			entry = nil
		}
		return err
	})
	return entry, err
}

// ForEach calls the specified function for each key in the store.
func (store *AuditStore) ForEach(fn func(k, v []byte) error) error {
	return store.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(DEFAULT_BUCKET))
		return bucket.ForEach(fn)
	})
}

// Keys returns a list of all keys in the store.
func (store *AuditStore) Keys() []string {
	keys := make([]string, 0)
	store.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(DEFAULT_BUCKET))
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			keys = append(keys, string(k))
		}
		return nil
	})
	return keys
}

// Entries returns all audit entries in key order.
func (store *AuditStore) Entries() ([]*models.AuditEntry, error) {
	entries := make([]*models.AuditEntry, 0)
	err := store.ForEach(func(k, v []byte) error {
		entry := &models.AuditEntry{}
		buf := bytes.NewBuffer(v)
		decoder := gob.NewDecoder(buf)
		err := decoder.Decode(entry)
		if err != nil {
			return fmt.Errorf("Cannot decode audit entry under key '%s': %v",
				string(k), err)
		}
		entries = append(entries, entry)
		return nil
	})
	return entries, err
}
