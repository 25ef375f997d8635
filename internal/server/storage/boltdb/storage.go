// Package boltdb stores users, movies and actors as JSON documents in bbolt
// buckets. Every unique field has its own index bucket, and writes that touch
// a document and its index run in one transaction.
package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/filmapi/internal/server/storage"
)

var (
	// BoltDB bucket names
	bucketUsers        = []byte("users")
	bucketUsernames    = []byte("users_by_username")
	bucketMovies       = []byte("movies")
	bucketMovieTitles  = []byte("movies_by_title")
	bucketActors       = []byte("actors")
	bucketActorNames   = []byte("actors_by_name")
	allBuckets         = [][]byte{bucketUsers, bucketUsernames, bucketMovies, bucketMovieTitles, bucketActors, bucketActorNames}
	defaultOpenTimeout = time.Second
)

// Storage represents BoltDB storage implementation for the server
type Storage struct {
	db *bbolt.DB
}

var _ storage.Store = (*Storage)(nil)

// New creates a new BoltDB storage instance
// dbPath is the path to the BoltDB database file
func New(ctx context.Context, dbPath string) (*Storage, error) {
	// Открываем BoltDB; timeout чтобы не висеть на чужом file lock
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: defaultOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	s := &Storage{db: db}

	if err := s.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return s, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks that the database is open and readable
func (s *Storage) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketUsers) == nil {
			return fmt.Errorf("users bucket not found")
		}
		return nil
	})
}

// initBuckets создает необходимые buckets если они не существуют
func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

// getDoc decodes the document stored under id; ok is false when it is absent
func getDoc(b *bbolt.Bucket, id string, v any) (bool, error) {
	data := b.Get([]byte(id))
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal document %s: %w", id, err)
	}
	return true, nil
}

// putDoc encodes v and stores it under id
func putDoc(b *bbolt.Bucket, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", id, err)
	}
	if err := b.Put([]byte(id), data); err != nil {
		return fmt.Errorf("failed to save document %s: %w", id, err)
	}
	return nil
}

// claimKey reserves key in an index bucket for id.
// Returns false if the key already belongs to another document.
func claimKey(index *bbolt.Bucket, key, id string) (bool, error) {
	if existing := index.Get([]byte(key)); existing != nil {
		return string(existing) == id, nil
	}
	if err := index.Put([]byte(key), []byte(id)); err != nil {
		return false, fmt.Errorf("failed to update index: %w", err)
	}
	return true, nil
}

// lookupKey resolves key through an index bucket
func lookupKey(index *bbolt.Bucket, key string) (string, bool) {
	id := index.Get([]byte(key))
	if id == nil {
		return "", false
	}
	return string(id), true
}

// listDocs decodes every document of a bucket sorted by less
func listDocs[T any](b *bbolt.Bucket, less func(x, y *T) bool) ([]*T, error) {
	out := make([]*T, 0)
	err := b.ForEach(func(k, v []byte) error {
		doc := new(T)
		if err := json.Unmarshal(v, doc); err != nil {
			return fmt.Errorf("failed to unmarshal document %s: %w", k, err)
		}
		out = append(out, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out, nil
}
