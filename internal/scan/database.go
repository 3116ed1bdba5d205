package scan

import (
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const slotsBucketName = "slots"

// BoltSlots implements the Slots interface using BoltDB
type BoltSlots struct {
	db *bbolt.DB
}

// NewBoltSlots creates a new BoltSlots instance
func NewBoltSlots(path string) (*BoltSlots, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	// Create bucket if it doesn't exist
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(slotsBucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltSlots{db: db}, nil
}

// Get returns a copy of the value stored under key
func (b *BoltSlots) Get(key string) ([]byte, error) {
	var data []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(slotsBucketName))
		v := bucket.Get([]byte(key))
		if v == nil {
			return ErrSlotEmpty
		}
		// v is only valid inside the transaction
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Set overwrites the value stored under key
func (b *BoltSlots) Set(key string, data []byte) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(slotsBucketName))
		if err := bucket.Put([]byte(key), data); err != nil {
			return fmt.Errorf("writing slot %s: %w", key, err)
		}
		return nil
	})
}

// Remove deletes the value stored under key
func (b *BoltSlots) Remove(key string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(slotsBucketName))
		return bucket.Delete([]byte(key))
	})
}

// Close closes the database connection
func (b *BoltSlots) Close() error {
	return b.db.Close()
}
