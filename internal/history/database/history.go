// Package database persists per-session recognition transcripts in bbolt.
// Each session gets its own bucket; a keys bucket tracks the known sessions.
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gestureconnect/signd/internal/database"
	"github.com/gestureconnect/signd/internal/history/model"
	bolt "go.etcd.io/bbolt"
)

const (
	sessionKeys = "session:keys:"
	prefix      = "transcript:"
)

type FilterFn func(record model.Record) bool

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

type DB struct {
	sDB *database.DB
}

func (db *DB) extractKey(key string) string {
	prefixPos := strings.Index(key, prefix)

	return key[prefixPos+len(prefix):]
}

func (db *DB) Keys() ([]string, error) {
	var bucketKeys []string
	err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(sessionKeys))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			bucketKeys = append(bucketKeys, db.extractKey(string(k)))
		}
		return nil
	})

	return bucketKeys, err
}

func (db *DB) AppendMany(_ context.Context, records []model.Record) error {
	if err := db.sDB.DB.Batch(func(tx *bolt.Tx) error {
		for _, record := range records {
			b := tx.Bucket([]byte(prefix + record.SessionID))
			if b == nil {
				sessionBucket, err := tx.CreateBucket([]byte(prefix + record.SessionID))
				if err != nil {
					return fmt.Errorf("create bucket: %w", err)
				}
				b = sessionBucket
			}
			bytes, err := json.Marshal(record)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(record.ID.String()), bytes); err != nil {
				return fmt.Errorf("put to bucket error: %w", err)
			}
			b = tx.Bucket([]byte(sessionKeys))
			if b == nil {
				keysBucket, err := tx.CreateBucket([]byte(sessionKeys))
				if err != nil {
					return fmt.Errorf("unable create session keys bucket: %w", err)
				}
				b = keysBucket
			}
			if err := b.Put([]byte(prefix+record.SessionID), []byte{0x0}); err != nil {
				return fmt.Errorf("unable put to session keys bucket: %w", err)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %v", err)
	}

	return nil
}

func (db *DB) DeleteMany(_ context.Context, records []model.Record) error {
	if err := db.sDB.DB.Batch(func(tx *bolt.Tx) error {
		for _, record := range records {
			b := tx.Bucket([]byte(prefix + record.SessionID))
			if b == nil {
				continue
			}
			if err := b.Delete([]byte(record.ID.String())); err != nil {
				return fmt.Errorf("unable delete: %w", err)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %v", err)
	}

	return nil
}

// DeleteSession removes a session's transcript bucket entirely; used when the
// registry evicts an idle session.
func (db *DB) DeleteSession(_ context.Context, sessionID string) error {
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		if b := tx.Bucket([]byte(prefix + sessionID)); b != nil {
			if err := tx.DeleteBucket([]byte(prefix + sessionID)); err != nil {
				return fmt.Errorf("unable delete bucket: %w", err)
			}
		}
		if b := tx.Bucket([]byte(sessionKeys)); b != nil {
			if err := b.Delete([]byte(prefix + sessionID)); err != nil {
				return fmt.Errorf("unable delete session key: %w", err)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %v", err)
	}

	return nil
}

func (db *DB) CountBySession(sessionID string) (int, error) {
	var length int
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(prefix + sessionID))
		if b == nil {
			length = 0
			return nil
		}
		stats := b.Stats()
		length = stats.KeyN
		return nil
	}); err != nil {
		return 0, fmt.Errorf("view transaction error: %v", err)
	}

	return length, nil
}

func (db *DB) FindBySession(sessionID string, filter FilterFn) ([]model.Record, error) {
	var list []model.Record
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(prefix + sessionID))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var record model.Record
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("json unmarshal error, %q", err)
			}
			if filter == nil || filter(record) {
				list = append(list, record)
			}
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %v", err)
	}

	return list, nil
}
