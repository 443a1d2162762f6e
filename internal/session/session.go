package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/billed-app/billdesk/internal/bill"
)

const bucketName = "sessions"

// TokenGenerator generates opaque session tokens
type TokenGenerator interface {
	Generate() string
}

// uuidTokenGenerator generates tokens using random UUIDs
type uuidTokenGenerator struct{}

func (g *uuidTokenGenerator) Generate() string {
	return uuid.NewString()
}

// Store persists session identities locally. It replaces ambient storage
// reads: the web layer resolves a token to an identity and injects it into
// the controllers.
type Store interface {
	// Create persists an identity and returns its session token
	Create(user bill.User) (string, error)

	// Get retrieves the identity for a token
	Get(token string) (bill.User, error)

	// Delete removes a session
	Delete(token string) error

	// Close closes the store
	Close() error
}

// BoltStore implements the Store interface using BoltDB
type BoltStore struct {
	db     *bbolt.DB
	tokens TokenGenerator
}

// NewBoltStore creates a new BoltStore instance
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &BoltStore{db: db, tokens: &uuidTokenGenerator{}}, nil
}

// NewBoltStoreWithTokens creates a BoltStore with a custom token generator
// for testing
func NewBoltStoreWithTokens(path string, tokens TokenGenerator) (*BoltStore, error) {
	store, err := NewBoltStore(path)
	if err != nil {
		return nil, err
	}
	store.tokens = tokens
	return store, nil
}

// Create persists an identity and returns its session token
func (s *BoltStore) Create(user bill.User) (string, error) {
	token := s.tokens.Generate()
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		data, err := json.Marshal(user)
		if err != nil {
			return fmt.Errorf("marshaling identity: %w", err)
		}
		return bucket.Put([]byte(token), data)
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// Get retrieves the identity for a token
func (s *BoltStore) Get(token string) (bill.User, error) {
	var user bill.User
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		data := bucket.Get([]byte(token))
		if data == nil {
			return fmt.Errorf("session not found")
		}
		return json.Unmarshal(data, &user)
	})
	if err != nil {
		return bill.User{}, err
	}
	return user, nil
}

// Delete removes a session
func (s *BoltStore) Delete(token string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		return bucket.Delete([]byte(token))
	})
}

// Close closes the store
func (s *BoltStore) Close() error {
	return s.db.Close()
}
