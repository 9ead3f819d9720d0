// Package upload implements chunked upload sessions: a size-capped byte sink
// that accumulates base64 chunks until the caller finishes the session.
package upload

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/pigeonworks-llc/qbo-bridge/internal/fault"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("session not found")

// Bucket names.
const (
	bucketSessions = "sessions"
	bucketData     = "data"
)

// DefaultMaxSize is the upload ceiling applied when a session does not
// declare its own.
const DefaultMaxSize = 20 * 1024 * 1024

// Session holds the metadata of one chunked upload.
type Session struct {
	ID        string `json:"id"`
	RealmID   string `json:"realm_id"`
	TxnID     string `json:"txn_id"`
	Note      string `json:"note,omitempty"`
	FileName  string `json:"file_name"`
	Mime      string `json:"mime"`
	MaxSize   int64  `json:"max_size"`
	Size      int64  `json:"size"`
	CreatedAt int64  `json:"created_at"`
}

// Store persists upload sessions and their accumulated bytes in bbolt.
type Store struct {
	db *bolt.DB
}

// Open opens the session database and initializes buckets.
func Open(dbPath string) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open upload database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range []string{bucketSessions, bucketData} {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Start creates a new session and returns its id.
func (s *Store) Start(sess *Session) (string, error) {
	sess.ID = uuid.NewString()
	sess.Size = 0
	sess.CreatedAt = time.Now().Unix()
	if sess.MaxSize <= 0 {
		sess.MaxSize = DefaultMaxSize
	}
	if sess.Mime == "" {
		sess.Mime = "application/octet-stream"
	}

	if err := s.putSession(sess); err != nil {
		return "", err
	}
	return sess.ID, nil
}

// Get retrieves a session by id.
func (s *Store) Get(id string) (*Session, error) {
	var sess Session
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(bucketSessions)).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &sess)
	})
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// Append adds a chunk to the session's byte sink and returns the new total
// size. Exceeding the session's size cap fails without writing.
func (s *Store) Append(id string, chunk []byte) (int64, error) {
	var size int64
	err := s.db.Update(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(bucketSessions)).Get([]byte(id))
		if raw == nil {
			return ErrNotFound
		}
		var sess Session
		if err := json.Unmarshal(raw, &sess); err != nil {
			return fmt.Errorf("failed to decode session: %w", err)
		}

		if sess.Size+int64(len(chunk)) > sess.MaxSize {
			return fault.SizeLimit("file exceeds maxSize")
		}

		dataBucket := tx.Bucket([]byte(bucketData))
		existing := dataBucket.Get([]byte(id))
		combined := make([]byte, 0, len(existing)+len(chunk))
		combined = append(combined, existing...)
		combined = append(combined, chunk...)
		if err := dataBucket.Put([]byte(id), combined); err != nil {
			return fmt.Errorf("failed to store chunk: %w", err)
		}

		sess.Size = int64(len(combined))
		size = sess.Size

		encoded, err := json.Marshal(&sess)
		if err != nil {
			return fmt.Errorf("failed to encode session: %w", err)
		}
		return tx.Bucket([]byte(bucketSessions)).Put([]byte(id), encoded)
	})
	if err != nil {
		return 0, err
	}
	return size, nil
}

// Data returns the accumulated bytes of a session.
func (s *Store) Data(id string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(bucketSessions)).Get([]byte(id)) == nil {
			return ErrNotFound
		}
		data := tx.Bucket([]byte(bucketData)).Get([]byte(id))
		out = make([]byte, len(data))
		copy(out, data)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a session and its bytes.
func (s *Store) Delete(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket([]byte(bucketSessions)).Delete([]byte(id)); err != nil {
			return err
		}
		return tx.Bucket([]byte(bucketData)).Delete([]byte(id))
	})
}

func (s *Store) putSession(sess *Session) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("failed to encode session: %w", err)
		}
		return tx.Bucket([]byte(bucketSessions)).Put([]byte(sess.ID), data)
	})
}
